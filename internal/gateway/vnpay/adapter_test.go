package vnpay

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/codelearn/payrec/internal/clock"
	"github.com/codelearn/payrec/internal/config"
	"github.com/codelearn/payrec/internal/gateway"
)

const testSecret = "vnpay-test-secret"

func testAdapter() *Adapter {
	return New(config.VNPayConfig{
		TmnCode:    "CODELEARN",
		HashSecret: testSecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/payments/vnpay/return",
	}, clock.Fixed{At: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)})
}

func signedParams(t *testing.T, params map[string]string) map[string]string {
	t.Helper()
	signed := make(map[string]string, len(params)+1)
	for key, value := range params {
		signed[key] = value
	}
	signed["vnp_SecureHash"] = Sign(params, testSecret)
	return signed
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	adapter := testAdapter()
	params := signedParams(t, map[string]string{
		"vnp_TxnRef":       "ORD001-VNPay-7f3a",
		"vnp_Amount":       "49900000",
		"vnp_ResponseCode": "00",
	})

	err := adapter.Verify(context.Background(), gateway.Notification{Source: gateway.SourceVNPay, Params: params})
	if err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifyRejectsTamperedAmount(t *testing.T) {
	adapter := testAdapter()
	params := signedParams(t, map[string]string{
		"vnp_TxnRef":       "ORD001",
		"vnp_Amount":       "49900000",
		"vnp_ResponseCode": "00",
	})
	params["vnp_Amount"] = "100"

	err := adapter.Verify(context.Background(), gateway.Notification{Source: gateway.SourceVNPay, Params: params})
	if !errors.Is(err, gateway.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyIgnoresSecureHashTypeInSignature(t *testing.T) {
	adapter := testAdapter()
	params := signedParams(t, map[string]string{
		"vnp_TxnRef":       "ORD001",
		"vnp_Amount":       "49900000",
		"vnp_ResponseCode": "00",
	})
	params["vnp_SecureHashType"] = "HMACSHA512"

	err := adapter.Verify(context.Background(), gateway.Notification{Source: gateway.SourceVNPay, Params: params})
	if err != nil {
		t.Fatalf("vnp_SecureHashType must not take part in signing, got %v", err)
	}
}

func TestVerifyMissingFields(t *testing.T) {
	adapter := testAdapter()
	cases := []map[string]string{
		{"vnp_Amount": "100", "vnp_ResponseCode": "00", "vnp_SecureHash": "aa"},
		{"vnp_TxnRef": "ORD001", "vnp_ResponseCode": "00", "vnp_SecureHash": "aa"},
		{"vnp_TxnRef": "ORD001", "vnp_Amount": "abc", "vnp_ResponseCode": "00", "vnp_SecureHash": "aa"},
		{"vnp_TxnRef": "ORD001", "vnp_Amount": "100", "vnp_ResponseCode": "00"},
	}
	for i, params := range cases {
		err := adapter.Verify(context.Background(), gateway.Notification{Source: gateway.SourceVNPay, Params: params})
		if !errors.Is(err, gateway.ErrMissingFields) {
			t.Fatalf("case %d: expected ErrMissingFields, got %v", i, err)
		}
	}
}

func TestResolveSuccessOnEitherField(t *testing.T) {
	adapter := testAdapter()

	out := adapter.Resolve(gateway.Notification{Params: map[string]string{
		"vnp_TxnRef":       "ORD001-VNPay-7f3a",
		"vnp_Amount":       "49900000",
		"vnp_ResponseCode": "00",
	}})
	if out.Outcome != gateway.OutcomeSuccess {
		t.Fatalf("expected success, got %q", out.Outcome)
	}
	if out.OrderCode != "ORD001" {
		t.Fatalf("expected stripped order code, got %q", out.OrderCode)
	}
	if !out.HasAmount || out.Amount != 499000 {
		t.Fatalf("expected amount 499000 VND, got %d (has=%v)", out.Amount, out.HasAmount)
	}

	out = adapter.Resolve(gateway.Notification{Params: map[string]string{
		"vnp_TxnRef":            "ORD001",
		"vnp_TransactionStatus": "00",
	}})
	if out.Outcome != gateway.OutcomeSuccess {
		t.Fatalf("expected success via vnp_TransactionStatus, got %q", out.Outcome)
	}
}

func TestResolveCancelledByCustomer(t *testing.T) {
	adapter := testAdapter()
	out := adapter.Resolve(gateway.Notification{Params: map[string]string{
		"vnp_TxnRef":       "ORD001",
		"vnp_ResponseCode": "24",
	}})
	if out.Outcome != gateway.OutcomeFailed {
		t.Fatalf("expected failed, got %q", out.Outcome)
	}
	if out.RawCode != "24" {
		t.Fatalf("expected raw code 24, got %q", out.RawCode)
	}
	if !strings.Contains(out.Reason, "hủy giao dịch") {
		t.Fatalf("code 24 reason must mention the customer cancelling, got %q", out.Reason)
	}
}

func TestResolveUnknownWhenBothCodesAbsent(t *testing.T) {
	adapter := testAdapter()
	out := adapter.Resolve(gateway.Notification{Params: map[string]string{
		"vnp_TxnRef": "ORD001",
	}})
	if out.Outcome != gateway.OutcomeUnknown {
		t.Fatalf("expected unknown outcome, got %q", out.Outcome)
	}
}

func TestLookupReasonUnknownCode(t *testing.T) {
	reason, known := LookupReason("42")
	if known {
		t.Fatalf("code 42 must not be known")
	}
	if !strings.Contains(reason, "42") {
		t.Fatalf("unknown reason must carry the code, got %q", reason)
	}
}

func TestLookupReasonGroups(t *testing.T) {
	if reason, ok := LookupReasonGroup(GroupRefund, "93"); !ok || !strings.Contains(reason, "hoàn trả") {
		t.Fatalf("refund code 93 lookup failed: %q ok=%v", reason, ok)
	}
	if reason, ok := LookupReasonGroup(GroupQuery, "91"); !ok || reason == "" {
		t.Fatalf("query code 91 lookup failed: %q ok=%v", reason, ok)
	}
}

func TestCreateCheckoutBuildsSignedURL(t *testing.T) {
	adapter := testAdapter()
	session, err := adapter.CreateCheckout(context.Background(), gateway.CheckoutRequest{
		OrderCode: "ORD001",
		Amount:    499000,
		OrderInfo: "CodeLearn - thanh toan don hang ORD001",
		ClientIP:  "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}

	if !strings.HasPrefix(session.AttemptRef, "ORD001-VNPay-") {
		t.Fatalf("attempt ref must carry the gateway suffix, got %q", session.AttemptRef)
	}
	if gateway.StripOrderSuffix(session.AttemptRef) != "ORD001" {
		t.Fatalf("attempt ref must strip back to the order code, got %q", session.AttemptRef)
	}

	parsed, err := url.Parse(session.PayURL)
	if err != nil {
		t.Fatalf("parse pay url: %v", err)
	}
	query := parsed.Query()
	if query.Get("vnp_Amount") != "49900000" {
		t.Fatalf("vnp_Amount must be VND x100, got %q", query.Get("vnp_Amount"))
	}
	if query.Get("vnp_TxnRef") != session.AttemptRef {
		t.Fatalf("vnp_TxnRef mismatch: %q", query.Get("vnp_TxnRef"))
	}

	signable := map[string]string{}
	for key, values := range query {
		if key == "vnp_SecureHash" || len(values) == 0 {
			continue
		}
		signable[key] = values[0]
	}
	if query.Get("vnp_SecureHash") != Sign(signable, testSecret) {
		t.Fatalf("pay url signature does not verify")
	}
}

func TestCreateCheckoutRejectsInvalidRequest(t *testing.T) {
	adapter := testAdapter()
	if _, err := adapter.CreateCheckout(context.Background(), gateway.CheckoutRequest{Amount: 100}); err == nil {
		t.Fatalf("expected error for empty order code")
	}
	if _, err := adapter.CreateCheckout(context.Background(), gateway.CheckoutRequest{OrderCode: "ORD001"}); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}
