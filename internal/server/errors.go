package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codelearn/payrec/internal/gateway"
	orderdomain "github.com/codelearn/payrec/internal/order/domain"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

func invalidRequestError() *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request"}
}

func newValidationError(field, code, message string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Field: field, Message: message}
}

// AbortWithError translates domain errors into HTTP responses. Unmapped
// errors become opaque 500s so internals never leak to gateway callers.
func AbortWithError(c *gin.Context, err error) {
	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"error": api})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"

	switch {
	case errors.Is(err, ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "unauthorized", "unauthorized"
	case errors.Is(err, ErrNotFound), errors.Is(err, orderdomain.ErrOrderNotFound):
		status, code, message = http.StatusNotFound, "order_not_found", "order not found"
	case errors.Is(err, ErrTooManyRequests):
		status, code, message = http.StatusTooManyRequests, "too_many_requests", "too many requests"
	case errors.Is(err, ErrServiceUnavailable):
		status, code, message = http.StatusServiceUnavailable, "service_unavailable", "service unavailable"
	case errors.Is(err, gateway.ErrUnknownGateway):
		status, code, message = http.StatusBadRequest, "unknown_gateway", "unrecognized gateway parameters"
	case errors.Is(err, gateway.ErrMissingFields):
		status, code, message = http.StatusBadRequest, "missing_fields", "missing required gateway fields"
	case errors.Is(err, gateway.ErrInvalidSignature):
		status, code, message = http.StatusForbidden, "invalid_signature", "signature verification failed"
	case errors.Is(err, orderdomain.ErrOrderNotPayable):
		status, code, message = http.StatusConflict, "order_not_payable", "order is not awaiting payment"
	case errors.Is(err, orderdomain.ErrRefundNotAllowed):
		status, code, message = http.StatusConflict, "refund_not_allowed", "order cannot be refunded"
	case errors.Is(err, orderdomain.ErrInvalidRefundAmount):
		status, code, message = http.StatusBadRequest, "invalid_refund_amount", "refund amount exceeds the refundable balance"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": &apiError{Status: status, Code: code, Message: message}})
}
