package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered an action.
type ActorType string

const (
	ActorTypeGateway ActorType = "gateway"
	ActorTypeAdmin   ActorType = "admin"
	ActorTypeSystem  ActorType = "system"
)

// Actions recorded by the reconciliation engine.
const (
	ActionPaymentApplied     = "payment.applied"
	ActionPaymentDuplicate   = "payment.duplicate"
	ActionSignatureRejected  = "payment.signature_rejected"
	ActionOrderRefunded      = "order.refunded"
	ActionAmountMismatch     = "payment.amount_mismatch"
)

// AuditLog is an immutable record of a reconciliation-relevant action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ActorType  string            `gorm:"type:text;not null"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"not null;default:'{}'"`
	IPAddress  *string           `gorm:"type:text"`
	CreatedAt  time.Time         `gorm:"not null"`
}

func (AuditLog) TableName() string { return "audit_logs" }
