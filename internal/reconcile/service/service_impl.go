package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/codelearn/payrec/internal/audit/domain"
	"github.com/codelearn/payrec/internal/clock"
	"github.com/codelearn/payrec/internal/events"
	"github.com/codelearn/payrec/internal/gateway"
	"github.com/codelearn/payrec/internal/observability/metrics"
	orderdomain "github.com/codelearn/payrec/internal/order/domain"
	reconciledomain "github.com/codelearn/payrec/internal/reconcile/domain"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     orderdomain.Repository
	Registry *gateway.Registry
	Outbox   *events.Outbox
	AuditSvc auditdomain.Service
	Metrics  *metrics.ReconcileMetrics
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     orderdomain.Repository
	registry *gateway.Registry
	outbox   *events.Outbox
	auditSvc auditdomain.Service
	metrics  *metrics.ReconcileMetrics
}

func NewService(p Params) reconciledomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("reconcile.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		registry: p.Registry,
		outbox:   p.Outbox,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

// Reconcile drives one notification through the pipeline. The order
// transition is a single conditional update, so a concurrent webhook and
// browser redirect for the same order cannot both apply: whichever loses the
// race comes back as a confirmed no-op.
func (s *Service) Reconcile(ctx context.Context, mode gateway.DeliveryMode, params map[string]string) (*reconciledomain.Result, error) {
	source, ok := gateway.Classify(params)
	if !ok {
		s.metrics.ObserveUnclassified()
		return nil, gateway.ErrUnknownGateway
	}
	adapter, ok := s.registry.Adapter(source)
	if !ok {
		s.metrics.ObserveUnclassified()
		return nil, gateway.ErrUnknownGateway
	}

	n := gateway.Notification{Source: source, Mode: mode, Params: params}
	if err := adapter.Verify(ctx, n); err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			s.metrics.ObserveSignatureRejected(string(source))
			s.auditSvc.Record(ctx, auditdomain.Entry{
				ActorType:  auditdomain.ActorTypeGateway,
				ActorID:    string(source),
				Action:     auditdomain.ActionSignatureRejected,
				TargetType: "notification",
				Metadata:   map[string]any{"delivery_mode": string(mode)},
			})
		}
		return nil, err
	}

	out := adapter.Resolve(n)

	order, err := s.findOrder(ctx, out)
	if err != nil {
		if errors.Is(err, orderdomain.ErrOrderNotFound) {
			s.metrics.ObserveOrderNotFound(string(source))
		}
		return nil, err
	}

	result := &reconciledomain.Result{
		Order:       order,
		Outcome:     out,
		FinalStatus: order.PaymentStatus,
	}

	target, definitive := targetStatus(out.Outcome)
	if !definitive {
		// pending/unknown outcomes change nothing; the response side still
		// has to produce something sensible.
		return result, nil
	}

	if order.PaymentStatus != orderdomain.PaymentStatusPending {
		s.observeDuplicate(ctx, order, out, mode)
		return result, nil
	}

	if out.Outcome == gateway.OutcomeSuccess && out.HasAmount && out.Amount != order.FinalPrice {
		// The gateway vouched for a different amount than the order expects.
		// Recorded for operator follow-up; the transition still applies.
		s.log.Warn("gateway amount differs from order final price",
			zap.String("order_code", order.OrderCode),
			zap.Int64("gateway_amount", out.Amount),
			zap.Int64("final_price", order.FinalPrice),
		)
		s.auditSvc.Record(ctx, auditdomain.Entry{
			ActorType:  auditdomain.ActorTypeGateway,
			ActorID:    string(source),
			Action:     auditdomain.ActionAmountMismatch,
			TargetType: "order",
			TargetID:   order.ID.String(),
			Metadata: map[string]any{
				"gateway_amount": out.Amount,
				"final_price":    order.FinalPrice,
			},
		})
	}

	now := s.clock.Now()
	applied := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, txErr := s.repo.MarkOutcome(ctx, tx, order.ID, target, string(source), now)
		if txErr != nil {
			return txErr
		}
		applied = ok
		if !ok {
			return nil
		}
		// The event commits with the transition or not at all: a failed
		// insert leaves the order PENDING for the gateway's retry.
		return s.publishOutcome(ctx, tx, order, target, string(source), out)
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race with the other delivery path. Re-read for the
		// status the winner wrote.
		fresh, err := s.repo.FindByID(ctx, s.db, int64(order.ID))
		if err != nil {
			return nil, err
		}
		result.Order = fresh
		result.FinalStatus = fresh.PaymentStatus
		s.observeDuplicate(ctx, fresh, out, mode)
		return result, nil
	}

	order.PaymentStatus = target
	order.PaymentGateway = string(source)
	if target == orderdomain.PaymentStatusPaid {
		order.PaidAt = &now
	}
	result.Applied = true
	result.FinalStatus = target

	s.metrics.ObserveApplied(string(source), string(out.Outcome))
	s.auditSvc.Record(ctx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeGateway,
		ActorID:    string(source),
		Action:     auditdomain.ActionPaymentApplied,
		TargetType: "order",
		TargetID:   order.ID.String(),
		Metadata: map[string]any{
			"order_code":    order.OrderCode,
			"status":        string(target),
			"raw_code":      out.RawCode,
			"delivery_mode": string(mode),
		},
	})

	return result, nil
}

// CreateCheckout asks the gateway for a hosted-payment session for a PENDING
// order.
func (s *Service) CreateCheckout(ctx context.Context, source gateway.Source, orderID int64, clientIP string) (*gateway.CheckoutSession, error) {
	provider, ok := s.registry.Checkout(source)
	if !ok {
		return nil, gateway.ErrUnknownGateway
	}

	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != orderdomain.PaymentStatusPending {
		return nil, orderdomain.ErrOrderNotPayable
	}

	return provider.CreateCheckout(ctx, gateway.CheckoutRequest{
		OrderCode: order.OrderCode,
		Amount:    order.FinalPrice,
		OrderInfo: fmt.Sprintf("CodeLearn - thanh toan don hang %s", order.OrderCode),
		ClientIP:  clientIP,
	})
}

// Refund applies an authorized admin refund. amount <= 0 means the full
// remaining refundable amount. Refunds never arrive via gateway
// notifications; this is the only path into the refund statuses.
func (s *Service) Refund(ctx context.Context, orderID int64, amount int64, reason string, actorID string) (*orderdomain.Order, error) {
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if !order.PaymentStatus.Refundable() {
		return nil, orderdomain.ErrRefundNotAllowed
	}

	remaining := order.FinalPrice - order.RefundAmount
	if amount <= 0 {
		amount = remaining
	}
	if amount <= 0 || amount > remaining {
		return nil, orderdomain.ErrInvalidRefundAmount
	}

	applied, err := s.repo.ApplyRefund(ctx, s.db, order.ID, amount, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !applied {
		// A concurrent refund changed the order under us.
		return nil, orderdomain.ErrRefundNotAllowed
	}

	fresh, err := s.repo.FindByID(ctx, s.db, int64(order.ID))
	if err != nil {
		return nil, err
	}

	if err := s.outbox.Publish(ctx, events.Event{
		OrderID: fresh.ID,
		Type:    events.EventPaymentRefunded,
		Payload: events.PaymentPayload{
			OrderID:   fresh.ID.String(),
			OrderCode: fresh.OrderCode,
			UserID:    fresh.UserID.String(),
			CourseID:  fresh.CourseID.String(),
			Gateway:   fresh.PaymentGateway,
			Amount:    amount,
		}.ToMap(),
		DedupeKey: fmt.Sprintf("%s:refund:%d", fresh.OrderCode, fresh.RefundAmount),
	}); err != nil {
		s.log.Warn("failed to publish refund event", zap.String("order_code", fresh.OrderCode), zap.Error(err))
	}

	s.auditSvc.Record(ctx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeAdmin,
		ActorID:    actorID,
		Action:     auditdomain.ActionOrderRefunded,
		TargetType: "order",
		TargetID:   fresh.ID.String(),
		Metadata: map[string]any{
			"order_code": fresh.OrderCode,
			"amount":     amount,
			"reason":     strings.TrimSpace(reason),
			"status":     string(fresh.PaymentStatus),
		},
	})

	return fresh, nil
}

func (s *Service) findOrder(ctx context.Context, out gateway.ResolvedOutcome) (*orderdomain.Order, error) {
	if out.OrderCode != "" {
		order, err := s.repo.FindByCode(ctx, s.db, out.OrderCode)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, orderdomain.ErrOrderNotFound) {
			return nil, err
		}
	}
	if out.OrderID != 0 {
		return s.repo.FindByID(ctx, s.db, out.OrderID)
	}
	return nil, orderdomain.ErrOrderNotFound
}

func (s *Service) observeDuplicate(ctx context.Context, order *orderdomain.Order, out gateway.ResolvedOutcome, mode gateway.DeliveryMode) {
	s.metrics.ObserveDuplicate(string(out.Gateway))
	s.auditSvc.Record(ctx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeGateway,
		ActorID:    string(out.Gateway),
		Action:     auditdomain.ActionPaymentDuplicate,
		TargetType: "order",
		TargetID:   order.ID.String(),
		Metadata: map[string]any{
			"order_code":    order.OrderCode,
			"status":        string(order.PaymentStatus),
			"raw_code":      out.RawCode,
			"delivery_mode": string(mode),
		},
	})
}

func (s *Service) publishOutcome(ctx context.Context, tx *gorm.DB, order *orderdomain.Order, target orderdomain.PaymentStatus, source string, out gateway.ResolvedOutcome) error {
	eventType := events.EventPaymentFailed
	if target == orderdomain.PaymentStatusPaid {
		eventType = events.EventPaymentSettled
	}

	return s.outbox.PublishTx(ctx, tx, events.Event{
		OrderID: order.ID,
		Type:    eventType,
		Payload: events.PaymentPayload{
			OrderID:   order.ID.String(),
			OrderCode: order.OrderCode,
			UserID:    order.UserID.String(),
			CourseID:  order.CourseID.String(),
			Gateway:   source,
			Amount:    out.Amount,
			RawCode:   out.RawCode,
		}.ToMap(),
		DedupeKey: fmt.Sprintf("%s:%s", order.OrderCode, eventType),
	})
}

func targetStatus(outcome gateway.Outcome) (orderdomain.PaymentStatus, bool) {
	switch outcome {
	case gateway.OutcomeSuccess:
		return orderdomain.PaymentStatusPaid, true
	case gateway.OutcomeFailed:
		return orderdomain.PaymentStatusFailed, true
	default:
		return "", false
	}
}
