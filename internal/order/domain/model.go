package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PaymentStatus is the order's reconciliation state.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusPaid              PaymentStatus = "PAID"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// Refundable reports whether an admin refund may still be applied.
func (s PaymentStatus) Refundable() bool {
	return s == PaymentStatusPaid || s == PaymentStatusPartiallyRefunded
}

// Order is a course purchase. The reconciliation engine owns the
// payment_status, payment_gateway, refund_amount and paid_at columns;
// everything else is written at checkout time.
type Order struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	OrderCode      string        `gorm:"type:text;not null;uniqueIndex"`
	UserID         snowflake.ID  `gorm:"not null"`
	CourseID       snowflake.ID  `gorm:"not null"`
	OriginalPrice  int64         `gorm:"not null"`
	DiscountAmount int64         `gorm:"not null;default:0"`
	FinalPrice     int64         `gorm:"not null"`
	RefundAmount   int64         `gorm:"not null;default:0"`
	PaymentStatus  PaymentStatus `gorm:"type:text;not null;default:'PENDING'"`
	PaymentGateway string        `gorm:"type:text"`
	PaidAt         *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (Order) TableName() string { return "orders" }
