package redirect

import (
	"net/url"
	"strings"

	"github.com/codelearn/payrec/internal/config"
	"github.com/codelearn/payrec/internal/gateway"
	"github.com/codelearn/payrec/internal/gateway/momo"
	orderdomain "github.com/codelearn/payrec/internal/order/domain"
	reconciledomain "github.com/codelearn/payrec/internal/reconcile/domain"
)

// Composer builds the browser destinations after a redirect-mode
// notification has been reconciled. Destination selection keys off the
// order's final status: only FAILED lands on the failure page, everything
// else, PENDING included, goes to the success page and leaves the final word
// to the status poll.
type Composer struct {
	successURL string
	failureURL string
}

func NewComposer(cfg config.Config) *Composer {
	return &Composer{
		successURL: cfg.Pages.SuccessURL,
		failureURL: cfg.Pages.FailureURL,
	}
}

// Redirect composes the destination for a reconciled result. Raw gateway
// codes are passed through so the page can render a code-specific message
// without another round trip.
func (c *Composer) Redirect(result *reconciledomain.Result, params map[string]string) string {
	base := c.successURL
	if result.FinalStatus == orderdomain.PaymentStatusFailed {
		base = c.failureURL
	}

	query := url.Values{}
	if result.Order != nil {
		query.Set("orderCode", result.Order.OrderCode)
		query.Set("orderId", result.Order.ID.String())
	}
	passthrough(query, result.Outcome.Gateway, params)
	return appendQuery(base, query)
}

// FailureRedirect composes a failure destination for notifications that
// could not be reconciled. Order identity is recovered from the raw
// parameters on a best-effort basis so the page is not completely blank.
func (c *Composer) FailureRedirect(params map[string]string, message string) string {
	query := url.Values{}
	if message != "" {
		query.Set("message", message)
	}

	source, classified := gateway.Classify(params)
	if classified {
		passthrough(query, source, params)
	}

	if code := recoverOrderCode(params); code != "" {
		query.Set("orderCode", code)
	}
	return appendQuery(c.failureURL, query)
}

func recoverOrderCode(params map[string]string) string {
	if ref := strings.TrimSpace(params["vnp_TxnRef"]); ref != "" {
		return gateway.StripOrderSuffix(ref)
	}
	if code := strings.TrimSpace(params["orderCode"]); code != "" {
		return gateway.StripOrderSuffix(code)
	}
	if id := strings.TrimSpace(params["orderId"]); id != "" && !isNumeric(id) {
		return gateway.StripOrderSuffix(id)
	}
	if raw := strings.TrimSpace(params["extraData"]); raw != "" {
		if extra, err := momo.DecodeExtraData(raw); err == nil && extra.OrderCode != "" {
			return gateway.StripOrderSuffix(extra.OrderCode)
		}
	}
	return ""
}

func passthrough(query url.Values, source gateway.Source, params map[string]string) {
	var keys []string
	switch source {
	case gateway.SourceVNPay:
		keys = []string{"vnp_ResponseCode", "vnp_TransactionStatus", "vnp_TxnRef"}
	case gateway.SourceMoMo:
		keys = []string{"resultCode", "message", "extraData"}
	}
	for _, key := range keys {
		if value := strings.TrimSpace(params[key]); value != "" {
			query.Set(key, value)
		}
	}
}

func appendQuery(base string, query url.Values) string {
	if len(query) == 0 {
		return base
	}
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + query.Encode()
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
