package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	orderdomain "github.com/codelearn/payrec/internal/order/domain"
)

type repository struct{}

// Provide constructs the gorm-backed order repository.
func Provide() orderdomain.Repository {
	return &repository{}
}

func (r *repository) FindByCode(ctx context.Context, db *gorm.DB, code string) (*orderdomain.Order, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, orderdomain.ErrOrderNotFound
	}

	var order orderdomain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_code, user_id, course_id, original_price, discount_amount,
		        final_price, refund_amount, payment_status, payment_gateway,
		        paid_at, created_at, updated_at
		 FROM orders
		 WHERE order_code = ?
		 LIMIT 1`,
		code,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, orderdomain.ErrOrderNotFound
	}
	return &order, nil
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id int64) (*orderdomain.Order, error) {
	if id == 0 {
		return nil, orderdomain.ErrOrderNotFound
	}

	var order orderdomain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_code, user_id, course_id, original_price, discount_amount,
		        final_price, refund_amount, payment_status, payment_gateway,
		        paid_at, created_at, updated_at
		 FROM orders
		 WHERE id = ?
		 LIMIT 1`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, orderdomain.ErrOrderNotFound
	}
	return &order, nil
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, order *orderdomain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, order_code, user_id, course_id, original_price, discount_amount,
			final_price, refund_amount, payment_status, payment_gateway,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OrderCode,
		order.UserID,
		order.CourseID,
		order.OriginalPrice,
		order.DiscountAmount,
		order.FinalPrice,
		order.RefundAmount,
		order.PaymentStatus,
		order.PaymentGateway,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repository) MarkOutcome(ctx context.Context, db *gorm.DB, id snowflake.ID, status orderdomain.PaymentStatus, gateway string, now time.Time) (bool, error) {
	var paidAt any
	if status == orderdomain.PaymentStatusPaid {
		paidAt = now
	}

	result := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET payment_status = ?, payment_gateway = ?, paid_at = ?, updated_at = ?
		 WHERE id = ? AND payment_status = ?`,
		status,
		gateway,
		paidAt,
		now,
		id,
		orderdomain.PaymentStatusPending,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ApplyRefund(ctx context.Context, db *gorm.DB, id snowflake.ID, amount int64, now time.Time) (bool, error) {
	if amount <= 0 {
		return false, orderdomain.ErrInvalidRefundAmount
	}

	// Status and ceiling are enforced inside the statement itself so the
	// check and the write cannot interleave with a concurrent refund.
	result := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET refund_amount = refund_amount + ?,
		     payment_status = CASE WHEN refund_amount + ? >= final_price THEN ? ELSE ? END,
		     updated_at = ?
		 WHERE id = ?
		   AND payment_status IN (?, ?)
		   AND refund_amount + ? <= final_price`,
		amount,
		amount,
		orderdomain.PaymentStatusRefunded,
		orderdomain.PaymentStatusPartiallyRefunded,
		now,
		id,
		orderdomain.PaymentStatusPaid,
		orderdomain.PaymentStatusPartiallyRefunded,
		amount,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
