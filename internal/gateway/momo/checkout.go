package momo

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/codelearn/payrec/internal/gateway"
)

const requestTypeCaptureWallet = "captureWallet"

type createRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type createResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
}

// CreateCheckout calls the MoMo create-payment API and returns the hosted
// payment URL. extraData carries the unsuffixed order code so later
// notifications can recover identity even if orderId parsing fails.
func (a *Adapter) CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	if req.OrderCode == "" || req.Amount <= 0 {
		return nil, fmt.Errorf("momo checkout: invalid order %q amount %d", req.OrderCode, req.Amount)
	}

	attemptRef := req.OrderCode + "-MoMo-" + attemptToken()
	requestID := attemptRef

	extraJSON, err := json.Marshal(map[string]string{"orderCode": req.OrderCode})
	if err != nil {
		return nil, err
	}
	extraData := base64.StdEncoding.EncodeToString(extraJSON)

	raw := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		a.cfg.AccessKey,
		req.Amount,
		extraData,
		a.cfg.IPNURL,
		attemptRef,
		req.OrderInfo,
		a.cfg.PartnerCode,
		a.cfg.RedirectURL,
		requestID,
		requestTypeCaptureWallet,
	)

	payload := createRequest{
		PartnerCode: a.cfg.PartnerCode,
		RequestID:   requestID,
		Amount:      req.Amount,
		OrderID:     attemptRef,
		OrderInfo:   req.OrderInfo,
		RedirectURL: a.cfg.RedirectURL,
		IPNURL:      a.cfg.IPNURL,
		RequestType: requestTypeCaptureWallet,
		ExtraData:   extraData,
		Lang:        "vi",
		Signature:   signHMAC(raw, a.cfg.SecretKey),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("momo create payment: %w", err)
	}
	defer resp.Body.Close()

	var parsed createResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("momo create payment: decode response: %w", err)
	}
	if parsed.ResultCode != 0 || parsed.PayURL == "" {
		reason, _ := LookupReason(fmt.Sprintf("%d", parsed.ResultCode))
		return nil, fmt.Errorf("momo create payment rejected: %s", reason)
	}

	return &gateway.CheckoutSession{
		Gateway:    gateway.SourceMoMo,
		PayURL:     parsed.PayURL,
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
