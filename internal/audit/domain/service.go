package domain

import "context"

// Service records and reads audit entries. Record must never fail the
// calling pipeline: an audit write problem is logged, not propagated.
type Service interface {
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

// Entry is the caller-facing shape of one audit record.
type Entry struct {
	ActorType  ActorType
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
	IPAddress  string
}
