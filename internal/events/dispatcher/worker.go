package dispatcher

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config Config `optional:"true"`
}

// Worker drains unpublished rows from the payment_events outbox. Delivery is
// a structured log record; downstream consumers tail it until a broker is
// wired in. Each batch is claimed and marked inside one transaction, so a
// crashed run re-delivers rather than drops.
type Worker struct {
	db  *gorm.DB
	log *zap.Logger
	cfg Config
}

type outboxRow struct {
	ID        snowflake.ID      `gorm:"column:id"`
	OrderID   snowflake.ID      `gorm:"column:order_id"`
	EventType string            `gorm:"column:event_type"`
	Payload   datatypes.JSONMap `gorm:"column:payload"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:  p.DB,
		log: p.Log.Named("events.dispatcher"),
		cfg: p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Warn("outbox dispatch run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce dispatches at most one batch and reports how many events it
// delivered.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	if w.db == nil {
		return 0, errors.New("dispatcher_unavailable")
	}

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dispatched := 0
	err := w.db.WithContext(runCtx).Transaction(func(tx *gorm.DB) error {
		var rows []outboxRow
		if err := tx.WithContext(runCtx).Raw(
			`SELECT id, order_id, event_type, payload, created_at
			 FROM payment_events
			 WHERE published = false
			 ORDER BY created_at
			 LIMIT ?`,
			w.cfg.BatchSize,
		).Scan(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		for _, row := range rows {
			w.log.Info("payment event dispatched",
				zap.String("event_id", row.ID.String()),
				zap.String("event_type", row.EventType),
				zap.String("order_id", row.OrderID.String()),
				zap.Any("payload", map[string]any(row.Payload)),
			)
		}

		ids := make([]snowflake.ID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		if err := tx.WithContext(runCtx).Exec(
			`UPDATE payment_events SET published = true WHERE id IN ?`, ids,
		).Error; err != nil {
			return err
		}

		dispatched = len(rows)
		return nil
	})
	return dispatched, err
}
