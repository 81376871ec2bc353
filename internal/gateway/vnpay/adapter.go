package vnpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/codelearn/payrec/internal/clock"
	"github.com/codelearn/payrec/internal/config"
	"github.com/codelearn/payrec/internal/gateway"
)

// Fields VNPay signs over are everything it sent except the signature itself.
const (
	fieldSecureHash     = "vnp_SecureHash"
	fieldSecureHashType = "vnp_SecureHashType"
)

// Adapter verifies and resolves VNPay notifications.
type Adapter struct {
	cfg   config.VNPayConfig
	clock clock.Clock
}

func New(cfg config.VNPayConfig, clk clock.Clock) *Adapter {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Adapter{cfg: cfg, clock: clk}
}

func (a *Adapter) Source() gateway.Source { return gateway.SourceVNPay }

// Verify checks the required fields and the HMAC-SHA512 signature over the
// canonicalized vnp_ parameter set.
func (a *Adapter) Verify(ctx context.Context, n gateway.Notification) error {
	txnRef := n.Param("vnp_TxnRef")
	amount := n.Param("vnp_Amount")
	respCode := n.Param("vnp_ResponseCode")
	secureHash := n.Param(fieldSecureHash)

	if txnRef == "" || amount == "" || respCode == "" || secureHash == "" {
		return gateway.ErrMissingFields
	}
	if _, err := strconv.ParseInt(amount, 10, 64); err != nil {
		return gateway.ErrMissingFields
	}

	expected := Sign(signableParams(n.Params), a.cfg.HashSecret)
	if !hmac.Equal([]byte(strings.ToLower(secureHash)), []byte(expected)) {
		return gateway.ErrInvalidSignature
	}
	return nil
}

// Resolve maps the response and transaction-status codes onto the canonical
// outcome. Success is the "00" sentinel on either field; both fields absent
// is unknown; anything else is a failure with the table reason.
func (a *Adapter) Resolve(n gateway.Notification) gateway.ResolvedOutcome {
	respCode := n.Param("vnp_ResponseCode")
	txnStatus := n.Param("vnp_TransactionStatus")

	out := gateway.ResolvedOutcome{
		Gateway:   gateway.SourceVNPay,
		OrderCode: gateway.StripOrderSuffix(n.Param("vnp_TxnRef")),
	}

	// vnp_Amount is declared in VND x100.
	if raw := n.Param("vnp_Amount"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out.Amount = parsed / 100
			out.HasAmount = true
		}
	}

	switch {
	case respCode == "" && txnStatus == "":
		out.Outcome = gateway.OutcomeUnknown
	case respCode == CodeSuccess || txnStatus == CodeSuccess:
		out.Outcome = gateway.OutcomeSuccess
		out.RawCode = CodeSuccess
		out.Reason, _ = LookupReason(CodeSuccess)
	default:
		out.Outcome = gateway.OutcomeFailed
		out.RawCode = respCode
		if out.RawCode == "" {
			out.RawCode = txnStatus
		}
		out.Reason, _ = LookupReason(out.RawCode)
	}
	return out
}

// Sign canonicalizes params (sorted keys, URL-encoded) and returns the
// lowercase hex HMAC-SHA512.
func Sign(params map[string]string, secret string) string {
	values := url.Values{}
	for key, value := range params {
		if value == "" {
			continue
		}
		values.Set(key, value)
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(values.Encode()))
	return hex.EncodeToString(mac.Sum(nil))
}

func signableParams(params map[string]string) map[string]string {
	signable := make(map[string]string, len(params))
	for key, value := range params {
		if key == fieldSecureHash || key == fieldSecureHashType {
			continue
		}
		if !strings.HasPrefix(key, "vnp_") {
			continue
		}
		signable[key] = strings.TrimSpace(value)
	}
	return signable
}
