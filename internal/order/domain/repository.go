package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the conditional read-modify-write surface over orders that
// the reconciliation engine requires.
type Repository interface {
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Order, error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	Insert(ctx context.Context, db *gorm.DB, order *Order) error

	// MarkOutcome performs the PENDING -> PAID/FAILED transition as a single
	// conditional update. It returns false when the order was no longer
	// PENDING, which is the idempotent-duplicate case, not an error.
	MarkOutcome(ctx context.Context, db *gorm.DB, id snowflake.ID, status PaymentStatus, gateway string, now time.Time) (bool, error)

	// ApplyRefund adds amount to refund_amount and moves the order to
	// PARTIALLY_REFUNDED or REFUNDED, guarded so refund_amount never exceeds
	// final_price and only refundable orders change.
	ApplyRefund(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64, now time.Time) (bool, error)
}
