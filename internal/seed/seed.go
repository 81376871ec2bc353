package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	orderdomain "github.com/codelearn/payrec/internal/order/domain"
)

const (
	demoUserEmail   = "student@codelearn.local"
	demoCourseTitle = "Lập trình Go cơ bản"
	demoOrderCode   = "DEMO0001"
	demoCoursePrice = 499000
)

// EnsureDemoData seeds a demo student, course and PENDING order so local
// checkout and callback flows work against a fresh database. Idempotent via
// the unique order code.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).
			Raw(`SELECT COUNT(1) FROM orders WHERE order_code = ?`, demoOrderCode).
			Scan(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		userID := node.Generate()
		courseID := node.Generate()

		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO users (id, email, display_name, created_at)
			 VALUES (?, ?, ?, ?)`,
			userID, demoUserEmail, "Demo Student", now,
		).Error; err != nil {
			return err
		}

		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO courses (id, title, price, created_at)
			 VALUES (?, ?, ?, ?)`,
			courseID, demoCourseTitle, int64(demoCoursePrice), now,
		).Error; err != nil {
			return err
		}

		order := &orderdomain.Order{
			ID:            node.Generate(),
			OrderCode:     demoOrderCode,
			UserID:        userID,
			CourseID:      courseID,
			OriginalPrice: demoCoursePrice,
			FinalPrice:    demoCoursePrice,
			PaymentStatus: orderdomain.PaymentStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.WithContext(ctx).Exec(
			`INSERT INTO orders (id, order_code, user_id, course_id, original_price, discount_amount, final_price, refund_amount, payment_status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 0, ?, 0, ?, ?, ?)`,
			order.ID, order.OrderCode, order.UserID, order.CourseID,
			order.OriginalPrice, order.FinalPrice, string(order.PaymentStatus),
			order.CreatedAt, order.UpdatedAt,
		).Error
	})
}
