package dispatcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/codelearn/payrec/internal/clock"
	"github.com/codelearn/payrec/internal/events"
	"github.com/codelearn/payrec/internal/migration"
)

var testDBSeq atomic.Int64

func setupTestDB(t *testing.T) (*gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:dispatcher_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return db, node
}

func TestRunOnceDispatchesAndMarksPublished(t *testing.T) {
	db, node := setupTestDB(t)
	clk := clock.Fixed{At: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	outbox := events.NewOutbox(db, node, clk)

	orderID := node.Generate()
	if err := outbox.Publish(context.Background(), events.Event{
		OrderID:   orderID,
		Type:      events.EventPaymentSettled,
		Payload:   map[string]any{"order_code": "ORD001"},
		DedupeKey: "ORD001:payment.settled",
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Replayed publish with the same dedupe key must not add a row.
	if err := outbox.Publish(context.Background(), events.Event{
		OrderID:   orderID,
		Type:      events.EventPaymentSettled,
		Payload:   map[string]any{"order_code": "ORD001"},
		DedupeKey: "ORD001:payment.settled",
	}); err != nil {
		t.Fatalf("replayed publish: %v", err)
	}

	worker := NewWorker(Params{DB: db, Log: zap.NewNop()})
	dispatched, err := worker.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if dispatched != 1 {
		t.Fatalf("expected one dispatched event, got %d", dispatched)
	}

	var unpublished int64
	if err := db.Raw(`SELECT COUNT(1) FROM payment_events WHERE published = false`).Scan(&unpublished).Error; err != nil {
		t.Fatalf("count unpublished: %v", err)
	}
	if unpublished != 0 {
		t.Fatalf("expected all events marked published, got %d pending", unpublished)
	}

	// Nothing left to do.
	dispatched, err = worker.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if dispatched != 0 {
		t.Fatalf("expected empty batch, got %d", dispatched)
	}
}
