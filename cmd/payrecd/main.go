package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/codelearn/payrec/internal/audit"
	"github.com/codelearn/payrec/internal/clock"
	"github.com/codelearn/payrec/internal/config"
	"github.com/codelearn/payrec/internal/events/dispatcher"
	"github.com/codelearn/payrec/internal/migration"
	"github.com/codelearn/payrec/internal/observability"
	"github.com/codelearn/payrec/internal/observability/logger"
	"github.com/codelearn/payrec/internal/order"
	"github.com/codelearn/payrec/internal/reconcile"
	"github.com/codelearn/payrec/internal/redirect"
	"github.com/codelearn/payrec/internal/seed"
	"github.com/codelearn/payrec/internal/server"
	"github.com/codelearn/payrec/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		fx.Invoke(Migrate),
		fx.Invoke(SeedDemoData),

		audit.Module,
		order.Module,
		reconcile.Module,
		dispatcher.Module,
		fx.Provide(redirect.NewComposer),

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func Migrate(gdb *gorm.DB, log *zap.Logger) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("database migrations applied")
	return nil
}

// SeedDemoData provisions a demo student, course and pending order outside
// production.
func SeedDemoData(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
	if cfg.IsProduction() {
		return nil
	}
	if err := seed.EnsureDemoData(gdb); err != nil {
		return err
	}
	log.Info("demo data seeded")
	return nil
}
