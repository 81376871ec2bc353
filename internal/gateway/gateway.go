package gateway

import (
	"regexp"
	"strings"
)

// Source identifies which external gateway produced a notification.
type Source string

const (
	SourceVNPay Source = "vnpay"
	SourceMoMo  Source = "momo"
)

// DeliveryMode is how a notification reached us. It is decided by the route
// the request arrived on, never by payload inspection.
type DeliveryMode string

const (
	ModeRedirect DeliveryMode = "redirect"
	ModeWebhook  DeliveryMode = "webhook"
)

// Notification is the raw parameter set of one inbound gateway call. It is
// created per request, consumed once and discarded.
type Notification struct {
	Source Source
	Mode   DeliveryMode
	Params map[string]string
}

// Param returns a trimmed parameter value.
func (n Notification) Param(key string) string {
	return strings.TrimSpace(n.Params[key])
}

// Classify sniffs the parameter set for gateway-specific markers. VNPay
// markers are checked first: they are the more specific names, so a payload
// carrying fields of both shapes still classifies as VNPay.
func Classify(params map[string]string) (Source, bool) {
	if hasParam(params, "vnp_ResponseCode") || hasParam(params, "vnp_TxnRef") {
		return SourceVNPay, true
	}
	if hasParam(params, "resultCode") || hasParam(params, "partnerCode") {
		return SourceMoMo, true
	}
	return "", false
}

func hasParam(params map[string]string, key string) bool {
	value, ok := params[key]
	return ok && strings.TrimSpace(value) != ""
}

// Checkout appends "-<Gateway>-<token>" to order codes so retried payment
// attempts stay distinguishable at the gateway; the suffix must come off
// before order lookup.
var orderSuffixPattern = regexp.MustCompile(`(?i)-(vnpay|momo)-[0-9a-z]+$`)

// StripOrderSuffix removes a trailing gateway attempt suffix, if present.
func StripOrderSuffix(code string) string {
	return orderSuffixPattern.ReplaceAllString(strings.TrimSpace(code), "")
}

// IsPaymentSuccessful inspects raw gateway fields to decide, client-side,
// whether a results page should treat the payment as successful. This is a
// view decision only; it must never authorize a state mutation. Unlike the
// resolver, MoMo code 9000 (transaction confirmed) counts as success here.
func IsPaymentSuccessful(params map[string]string) bool {
	if strings.TrimSpace(params["vnp_ResponseCode"]) == "00" ||
		strings.TrimSpace(params["vnp_TransactionStatus"]) == "00" {
		return true
	}
	switch strings.TrimSpace(params["resultCode"]) {
	case "0", "00", "9000":
		return true
	}
	return false
}
