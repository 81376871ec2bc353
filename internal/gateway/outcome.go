package gateway

// Outcome is the canonical classification of a gateway result code.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomePending Outcome = "pending"
	OutcomeUnknown Outcome = "unknown"
)

// ResolvedOutcome is a pure function of the gateway and its raw codes; it
// carries no side effects and performs no I/O.
type ResolvedOutcome struct {
	Gateway Source
	Outcome Outcome
	RawCode string
	Reason  string

	// Order identity as extracted from the notification. OrderCode already
	// has any gateway attempt suffix stripped. OrderID is zero when the
	// notification supplied none (or a non-numeric one).
	OrderCode string
	OrderID   int64

	// Amount in VND as declared by the gateway, when present. Reconciling it
	// against the order's final price needs the order record and is the
	// state machine's job, not the resolver's.
	Amount    int64
	HasAmount bool
}
