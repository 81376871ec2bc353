package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/codelearn/payrec/internal/audit/domain"
	"github.com/codelearn/payrec/internal/cache"
	"github.com/codelearn/payrec/internal/config"
	"github.com/codelearn/payrec/internal/observability/logger"
	"github.com/codelearn/payrec/internal/observability/metrics"
	"github.com/codelearn/payrec/internal/observability/tracing"
	orderdomain "github.com/codelearn/payrec/internal/order/domain"
	reconciledomain "github.com/codelearn/payrec/internal/reconcile/domain"
	"github.com/codelearn/payrec/internal/redirect"
)

// Module wires the HTTP surface: engine, server, routes and lifecycle.
var Module = fx.Module("server",
	fx.Provide(NewEngine, NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	DB        *gorm.DB
	Engine    *gin.Engine
	Reconcile reconciledomain.Service
	Orders    orderdomain.Repository
	Audit     auditdomain.Service
	Composer  *redirect.Composer
}

type Server struct {
	cfg       config.Config
	log       *zap.Logger
	db        *gorm.DB
	engine    *gin.Engine
	reconcile reconciledomain.Service
	orders    orderdomain.Repository
	audit     auditdomain.Service
	composer  *redirect.Composer

	statusCache    cache.Cache[string, orderStatusResponse]
	statusCacheTTL time.Duration
	webhookLimiter *rateLimiter
}

// NewEngine builds the gin engine with the shared middleware chain. Handler
// panics and access logs go through zap; OTEL spans and HTTP metrics wrap
// every route.
func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.GinMiddleware(cfg.ServiceName))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	return engine
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:            p.Config,
		log:            p.Log.Named("server"),
		db:             p.DB,
		engine:         p.Engine,
		reconcile:      p.Reconcile,
		orders:         p.Orders,
		audit:          p.Audit,
		composer:       p.Composer,
		statusCache:    cache.NewTTLCache[string, orderStatusResponse](),
		statusCacheTTL: 2 * time.Second,
		webhookLimiter: newRateLimiter(60, time.Minute),
	}
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	payments := s.engine.Group("/payments")
	{
		payments.GET("/vnpay/return", s.VNPayReturn)
		payments.GET("/momo/return", s.MoMoReturn)
		payments.GET("/vnpay/ipn", s.WebhookRateLimited(), s.VNPayIPN)
		payments.POST("/momo/ipn", s.WebhookRateLimited(), s.MoMoIPN)
		payments.GET("/check", s.CheckPayment)
	}

	api := s.engine.Group("/api")
	{
		api.POST("/checkout", s.CreateCheckout)
		api.GET("/orders/:code/status", s.OrderStatus)

		admin := api.Group("/admin", s.AdminRequired())
		admin.POST("/orders/:id/refund", s.RefundOrder)
		admin.GET("/audit", s.ListAuditLogs)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the listener on fx startup and drains it on shutdown.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
