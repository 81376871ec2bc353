package db

import (
	"context"
	"strings"

	"github.com/codelearn/payrec/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Module = fx.Module("db",
	fx.Provide(New),
)

// New opens the database connection. A postgres DSN is used when configured;
// otherwise the service falls back to a local sqlite file for development.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector := selectDialector(cfg)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			log.Info("closing database connection")
			return sqlDB.Close()
		},
	})

	return conn, nil
}

func selectDialector(cfg config.Config) gorm.Dialector {
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return postgres.Open(dsn)
	}
	path := strings.TrimSpace(cfg.Database.SQLitePath)
	if path == "" {
		path = "payrec.db"
	}
	return sqlite.Open(path)
}
