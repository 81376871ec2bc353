package logger

import "testing"

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	want := "Bearer ****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskCookie(t *testing.T) {
	got := MaskCookie("session=abcdef1234; other=xyz")
	want := "session=****1234; other=****xyz"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskParamsHidesSignatures(t *testing.T) {
	masked := MaskParams(map[string]string{
		"vnp_SecureHash": "aabbccddeeff0011",
		"signature":      "1234567890abcdef",
		"vnp_TxnRef":     "ORD001",
		"resultCode":     "0",
	})
	if masked["vnp_SecureHash"] != "****0011" {
		t.Fatalf("expected masked secure hash, got %q", masked["vnp_SecureHash"])
	}
	if masked["signature"] != "****cdef" {
		t.Fatalf("expected masked signature, got %q", masked["signature"])
	}
	if masked["vnp_TxnRef"] != "ORD001" {
		t.Fatalf("order reference must stay readable, got %q", masked["vnp_TxnRef"])
	}
	if masked["resultCode"] != "0" {
		t.Fatalf("result code must stay readable, got %q", masked["resultCode"])
	}
}

func TestMaskParamsNil(t *testing.T) {
	if masked := MaskParams(nil); masked != nil {
		t.Fatalf("nil params must stay nil, got %v", masked)
	}
}
