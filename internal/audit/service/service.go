package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/codelearn/payrec/internal/audit/domain"
	"github.com/codelearn/payrec/internal/clock"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Record writes an audit row. Failures are logged and swallowed so the
// reconciliation pipeline never aborts on audit problems.
func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) {
	metadata := datatypes.JSONMap{}
	for key, value := range entry.Metadata {
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	row := &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(entry.ActorType),
		Action:     entry.Action,
		TargetType: entry.TargetType,
		Metadata:   metadata,
		CreatedAt:  s.clock.Now(),
	}
	if entry.ActorID != "" {
		row.ActorID = &entry.ActorID
	}
	if entry.TargetID != "" {
		row.TargetID = &entry.TargetID
	}
	if entry.IPAddress != "" {
		row.IPAddress = &entry.IPAddress
	}

	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}

// List returns the newest matching audit rows.
func (s *Service) List(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}
