package events

// Payment event types consumed by the surrounding platform. The enrollment
// service grants course access on payment.settled; the engine's job ends at
// publishing the event.
const (
	EventPaymentSettled  = "payment.settled"
	EventPaymentFailed   = "payment.failed"
	EventPaymentRefunded = "payment.refunded"
)

// PaymentPayload captures the minimal data a consumer needs to act on a
// reconciled order.
type PaymentPayload struct {
	OrderID   string `json:"order_id"`
	OrderCode string `json:"order_code"`
	UserID    string `json:"user_id"`
	CourseID  string `json:"course_id"`
	Gateway   string `json:"gateway,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	RawCode   string `json:"raw_code,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p PaymentPayload) ToMap() map[string]any {
	payload := map[string]any{
		"order_id":   p.OrderID,
		"order_code": p.OrderCode,
		"user_id":    p.UserID,
		"course_id":  p.CourseID,
	}
	if p.Gateway != "" {
		payload["gateway"] = p.Gateway
	}
	if p.Amount != 0 {
		payload["amount"] = p.Amount
	}
	if p.RawCode != "" {
		payload["raw_code"] = p.RawCode
	}
	return payload
}
