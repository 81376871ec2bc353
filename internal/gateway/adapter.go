package gateway

import "context"

// Adapter is one gateway's verification and resolution logic. Verify checks
// required fields and the signature over the declared parameter set; Resolve
// maps the gateway's raw codes onto the canonical outcome. Resolve assumes a
// verified notification and never touches I/O.
type Adapter interface {
	Source() Source
	Verify(ctx context.Context, n Notification) error
	Resolve(n Notification) ResolvedOutcome
}

// CheckoutRequest asks a gateway for a hosted-payment session.
type CheckoutRequest struct {
	OrderCode string
	Amount    int64
	OrderInfo string
	ClientIP  string
}

// CheckoutSession is the gateway's answer: where to send the buyer.
type CheckoutSession struct {
	Gateway Source
	PayURL  string
	// AttemptRef is the suffixed order code sent to the gateway.
	AttemptRef string
}

// CheckoutProvider creates hosted-payment sessions. Both adapters implement
// it; the interface is separate because reconciliation never needs it.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// Registry holds the configured adapters keyed by source.
type Registry struct {
	adapters map[Source]Adapter
	checkout map[Source]CheckoutProvider
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[Source]Adapter, len(adapters)),
		checkout: make(map[Source]CheckoutProvider, len(adapters)),
	}
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		r.adapters[adapter.Source()] = adapter
		if provider, ok := adapter.(CheckoutProvider); ok {
			r.checkout[adapter.Source()] = provider
		}
	}
	return r
}

func (r *Registry) Adapter(source Source) (Adapter, bool) {
	adapter, ok := r.adapters[source]
	return adapter, ok
}

func (r *Registry) Checkout(source Source) (CheckoutProvider, bool) {
	provider, ok := r.checkout[source]
	return provider, ok
}
