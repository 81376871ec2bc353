package momo

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/codelearn/payrec/internal/config"
	"github.com/codelearn/payrec/internal/gateway"
	"github.com/codelearn/payrec/internal/observability/tracing"
)

// CodeSuccess values for the basic resolver. Code 9000 (confirmed) is
// deliberately absent here: it counts as success only in the
// success-likelihood view check, matching the observed gateway contract.
var successCodes = map[string]struct{}{
	"0":  {},
	"00": {},
}

// Adapter verifies and resolves MoMo notifications.
type Adapter struct {
	cfg    config.MoMoConfig
	client *http.Client
}

func New(cfg config.MoMoConfig, client *http.Client) *Adapter {
	return &Adapter{cfg: cfg, client: tracing.WrapHTTPClient(client)}
}

func (a *Adapter) Source() gateway.Source { return gateway.SourceMoMo }

// Verify checks the required fields and the HMAC-SHA256 signature over the
// documented IPN field string. The signature parameter name is accepted in
// both its lowercase and capitalized variants.
func (a *Adapter) Verify(ctx context.Context, n gateway.Notification) error {
	orderID := n.Param("orderId")
	amount := n.Param("amount")
	resultCode := n.Param("resultCode")
	signature := signatureParam(n)

	if orderID == "" || amount == "" || resultCode == "" || signature == "" {
		return gateway.ErrMissingFields
	}
	if _, err := strconv.ParseInt(amount, 10, 64); err != nil {
		return gateway.ErrMissingFields
	}
	if _, err := strconv.ParseInt(resultCode, 10, 64); err != nil {
		return gateway.ErrMissingFields
	}

	expected := a.signNotification(n)
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return gateway.ErrInvalidSignature
	}
	return nil
}

// Resolve maps resultCode onto the canonical outcome: absent is unknown,
// "0"/"00" is success, anything else is a failure with the table reason.
func (a *Adapter) Resolve(n gateway.Notification) gateway.ResolvedOutcome {
	resultCode := n.Param("resultCode")

	out := gateway.ResolvedOutcome{
		Gateway: gateway.SourceMoMo,
		RawCode: resultCode,
	}
	out.OrderCode, out.OrderID = a.extractIdentity(n)

	if raw := n.Param("amount"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out.Amount = parsed
			out.HasAmount = true
		}
	}

	switch {
	case resultCode == "":
		out.Outcome = gateway.OutcomeUnknown
	default:
		if _, ok := successCodes[resultCode]; ok {
			out.Outcome = gateway.OutcomeSuccess
		} else {
			out.Outcome = gateway.OutcomeFailed
		}
		out.Reason, _ = LookupReason(resultCode)
	}
	return out
}

// extractIdentity prefers direct parameters and falls back to the decoded
// extraData payload. A numeric orderId is accepted as the internal order id;
// non-numeric values (MoMo echoes back our suffixed attempt ref there) are
// treated as an order code instead.
func (a *Adapter) extractIdentity(n gateway.Notification) (string, int64) {
	orderCode := gateway.StripOrderSuffix(n.Param("orderCode"))
	var orderID int64

	if raw := n.Param("orderId"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			orderID = parsed
		} else if orderCode == "" {
			orderCode = gateway.StripOrderSuffix(raw)
		}
	}

	if orderCode == "" && orderID == 0 {
		extra, err := DecodeExtraData(n.Param("extraData"))
		if err == nil {
			orderCode = gateway.StripOrderSuffix(extra.OrderCode)
			if parsed, parseErr := strconv.ParseInt(extra.OrderID, 10, 64); parseErr == nil {
				orderID = parsed
			}
		}
	}

	return orderCode, orderID
}

func (a *Adapter) signNotification(n gateway.Notification) string {
	raw := fmt.Sprintf(
		"accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		a.cfg.AccessKey,
		n.Param("amount"),
		n.Param("extraData"),
		n.Param("message"),
		n.Param("orderId"),
		n.Param("orderInfo"),
		n.Param("orderType"),
		n.Param("partnerCode"),
		n.Param("payType"),
		n.Param("requestId"),
		n.Param("responseTime"),
		n.Param("resultCode"),
		n.Param("transId"),
	)
	return signHMAC(raw, a.cfg.SecretKey)
}

func signatureParam(n gateway.Notification) string {
	if value := n.Param("signature"); value != "" {
		return value
	}
	return n.Param("Signature")
}

func signHMAC(raw, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
