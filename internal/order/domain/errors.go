package domain

import "errors"

var (
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrOrderNotPayable     = errors.New("order_not_payable")
	ErrRefundNotAllowed    = errors.New("refund_not_allowed")
	ErrInvalidRefundAmount = errors.New("invalid_refund_amount")
)
