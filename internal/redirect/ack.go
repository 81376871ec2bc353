package redirect

import (
	"errors"
	"net/http"

	"github.com/codelearn/payrec/internal/gateway"
	orderdomain "github.com/codelearn/payrec/internal/order/domain"
	reconciledomain "github.com/codelearn/payrec/internal/reconcile/domain"
)

// VNPayAck is the body VNPay's IPN caller expects. Anything other than
// RspCode "00" makes VNPay retry the notification later.
type VNPayAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// VNPayWebhookAck maps a reconciliation result onto VNPay's acknowledgement
// codes. Duplicates are confirmed with "02" so VNPay stops retrying an
// already-settled order.
func VNPayWebhookAck(result *reconciledomain.Result, err error) VNPayAck {
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrInvalidSignature):
			return VNPayAck{RspCode: "97", Message: "Invalid Checksum"}
		case errors.Is(err, orderdomain.ErrOrderNotFound):
			return VNPayAck{RspCode: "01", Message: "Order Not Found"}
		default:
			return VNPayAck{RspCode: "99", Message: "Unknown Error"}
		}
	}
	if result != nil && !result.Applied && result.FinalStatus != orderdomain.PaymentStatusPending {
		return VNPayAck{RspCode: "02", Message: "Order Already Confirmed"}
	}
	return VNPayAck{RspCode: "00", Message: "Confirm Success"}
}

// MoMoWebhookStatus maps a reconciliation result onto the HTTP status MoMo's
// IPN expects. MoMo treats 204 as accepted; error statuses trigger a retry.
func MoMoWebhookStatus(err error) int {
	if err == nil {
		return http.StatusNoContent
	}
	switch {
	case errors.Is(err, gateway.ErrInvalidSignature):
		return http.StatusForbidden
	case errors.Is(err, orderdomain.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
