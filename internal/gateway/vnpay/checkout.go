package vnpay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/codelearn/payrec/internal/gateway"
)

const (
	apiVersion     = "2.1.0"
	commandPay     = "pay"
	createDateFmt  = "20060102150405"
	sessionTimeout = 15 * time.Minute
)

// CreateCheckout builds the signed hosted-payment URL for an order. The
// vnp_TxnRef carries the suffixed order code so gateway retries of an old
// attempt cannot collide with a new one.
func (a *Adapter) CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	if req.OrderCode == "" || req.Amount <= 0 {
		return nil, fmt.Errorf("vnpay checkout: invalid order %q amount %d", req.OrderCode, req.Amount)
	}

	attemptRef := req.OrderCode + "-VNPay-" + attemptToken()
	now := a.clock.Now()

	params := map[string]string{
		"vnp_Version":    apiVersion,
		"vnp_Command":    commandPay,
		"vnp_TmnCode":    a.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     attemptRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  a.cfg.ReturnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": now.Format(createDateFmt),
		"vnp_ExpireDate": now.Add(sessionTimeout).Format(createDateFmt),
	}

	query := url.Values{}
	for key, value := range params {
		if value == "" {
			continue
		}
		query.Set(key, value)
	}
	query.Set(fieldSecureHash, Sign(params, a.cfg.HashSecret))

	return &gateway.CheckoutSession{
		Gateway:    gateway.SourceVNPay,
		PayURL:     a.cfg.PayURL + "?" + query.Encode(),
		AttemptRef: attemptRef,
	}, nil
}

func attemptToken() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf)
}
