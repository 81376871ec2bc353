package domain

import (
	"context"

	"github.com/codelearn/payrec/internal/gateway"
	orderdomain "github.com/codelearn/payrec/internal/order/domain"
)

// Result is the outcome of applying one notification to an order.
// Applied=false covers the idempotent-duplicate and pending/unknown cases;
// neither is an error.
type Result struct {
	Order       *orderdomain.Order
	Outcome     gateway.ResolvedOutcome
	Applied     bool
	FinalStatus orderdomain.PaymentStatus
}

// Service is the reconciliation engine: classification, verification,
// resolution and the idempotent order transition, in that order. Hard errors
// (unknown gateway, bad signature, order not found) abort before any
// mutation.
type Service interface {
	Reconcile(ctx context.Context, mode gateway.DeliveryMode, params map[string]string) (*Result, error)
	CreateCheckout(ctx context.Context, source gateway.Source, orderID int64, clientIP string) (*gateway.CheckoutSession, error)
	Refund(ctx context.Context, orderID int64, amount int64, reason string, actorID string) (*orderdomain.Order, error)
}
