package reconcile

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/codelearn/payrec/internal/clock"
	"github.com/codelearn/payrec/internal/config"
	"github.com/codelearn/payrec/internal/events"
	"github.com/codelearn/payrec/internal/gateway"
	"github.com/codelearn/payrec/internal/gateway/momo"
	"github.com/codelearn/payrec/internal/gateway/vnpay"
	"github.com/codelearn/payrec/internal/reconcile/service"
)

var Module = fx.Module("reconcile",
	fx.Provide(
		newRegistry,
		newOutbox,
		service.NewService,
	),
)

func newRegistry(cfg config.Config, clk clock.Clock) *gateway.Registry {
	return gateway.NewRegistry(
		vnpay.New(cfg.VNPay, clk),
		momo.New(cfg.MoMo, nil),
	)
}

func newOutbox(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) *events.Outbox {
	return events.NewOutbox(db, genID, clk)
}
