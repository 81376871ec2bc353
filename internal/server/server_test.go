package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	auditrepo "github.com/codelearn/payrec/internal/audit/repository"
	auditservice "github.com/codelearn/payrec/internal/audit/service"
	"github.com/codelearn/payrec/internal/clock"
	"github.com/codelearn/payrec/internal/config"
	"github.com/codelearn/payrec/internal/events"
	"github.com/codelearn/payrec/internal/gateway"
	"github.com/codelearn/payrec/internal/gateway/momo"
	"github.com/codelearn/payrec/internal/gateway/vnpay"
	"github.com/codelearn/payrec/internal/migration"
	"github.com/codelearn/payrec/internal/observability/metrics"
	orderdomain "github.com/codelearn/payrec/internal/order/domain"
	orderrepo "github.com/codelearn/payrec/internal/order/repository"
	reconcileservice "github.com/codelearn/payrec/internal/reconcile/service"
	"github.com/codelearn/payrec/internal/redirect"
)

const (
	vnpaySecret   = "vnpay-test-secret"
	momoAccessKey = "momo-access"
	momoSecretKey = "momo-secret"
	adminKey      = "payrec-admin-key"
)

var testDBSeq atomic.Int64

type testServer struct {
	server *Server
	db     *gorm.DB
	node   *snowflake.Node
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	adminHash, err := HashAPIKey(adminKey)
	if err != nil {
		t.Fatalf("hash admin key: %v", err)
	}

	cfg := config.Config{
		Environment: "test",
		ServiceName: "payrec",
		VNPay:       config.VNPayConfig{TmnCode: "CODELEARN", HashSecret: vnpaySecret},
		MoMo:        config.MoMoConfig{PartnerCode: "CODELEARN", AccessKey: momoAccessKey, SecretKey: momoSecretKey},
		Pages: config.ResultPages{
			SuccessURL: "http://localhost:3000/payment/success",
			FailureURL: "http://localhost:3000/payment/failure",
		},
		Admin: config.AdminConfig{APIKeyHash: adminHash},
	}

	clk := clock.Fixed{At: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	log := zap.NewNop()

	registry := gateway.NewRegistry(
		vnpay.New(cfg.VNPay, clk),
		momo.New(cfg.MoMo, nil),
	)
	audit := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: auditrepo.Provide(),
	})
	svc := reconcileservice.NewService(reconcileservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     orderrepo.Provide(),
		Registry: registry,
		Outbox:   events.NewOutbox(db, node, clk),
		AuditSvc: audit,
		Metrics:  metrics.Reconcile(),
	})

	engine := gin.New()
	server := NewServer(Params{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Engine:    engine,
		Reconcile: svc,
		Orders:    orderrepo.Provide(),
		Audit:     audit,
		Composer:  redirect.NewComposer(cfg),
	})
	server.RegisterRoutes()

	return &testServer{server: server, db: db, node: node}
}

func (ts *testServer) insertOrder(t *testing.T, code string, finalPrice int64) *orderdomain.Order {
	t.Helper()
	now := time.Now().UTC()
	order := &orderdomain.Order{
		ID:            ts.node.Generate(),
		OrderCode:     code,
		UserID:        ts.node.Generate(),
		CourseID:      ts.node.Generate(),
		OriginalPrice: finalPrice,
		FinalPrice:    finalPrice,
		PaymentStatus: orderdomain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := orderrepo.Provide().Insert(context.Background(), ts.db, order); err != nil {
		t.Fatalf("insert order: %v", err)
	}
	return order
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.server.engine.ServeHTTP(rec, req)
	return rec
}

func vnpayQuery(orderCode string, amountVND int64, code string) url.Values {
	params := map[string]string{
		"vnp_TxnRef":       orderCode + "-VNPay-7f3a",
		"vnp_Amount":       fmt.Sprintf("%d", amountVND*100),
		"vnp_ResponseCode": code,
		"vnp_TmnCode":      "CODELEARN",
	}
	params["vnp_SecureHash"] = vnpay.Sign(params, vnpaySecret)

	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}
	return query
}

func momoIPNBody(t *testing.T, orderCode, resultCode string, amountVND int64) []byte {
	t.Helper()
	params := map[string]any{
		"partnerCode": "CODELEARN",
		"orderId":     orderCode + "-MoMo-9cc1",
		"amount":      amountVND,
		"resultCode":  resultCode,
	}
	raw := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=&message=&orderId=%s&orderInfo=&orderType=&partnerCode=CODELEARN&payType=&requestId=&responseTime=&resultCode=%s&transId=",
		momoAccessKey,
		amountVND,
		params["orderId"],
		resultCode,
	)
	mac := hmac.New(sha256.New, []byte(momoSecretKey))
	mac.Write([]byte(raw))
	params["signature"] = hex.EncodeToString(mac.Sum(nil))

	body, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal ipn body: %v", err)
	}
	return body
}

func TestVNPayReturnSuccessRedirects(t *testing.T) {
	ts := newTestServer(t)
	ts.insertOrder(t, "ORD200", 499000)

	req := httptest.NewRequest(http.MethodGet, "/payments/vnpay/return?"+vnpayQuery("ORD200", 499000, "00").Encode(), nil)
	rec := ts.do(req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "/payment/success") {
		t.Fatalf("expected success page, got %q", location)
	}
	if !strings.Contains(location, "orderCode=ORD200") {
		t.Fatalf("expected order code in destination, got %q", location)
	}
}

func TestReturnWithUnclassifiableParamsRedirectsNot500(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/payments/vnpay/return?foo=bar", nil)
	rec := ts.do(req)

	if rec.Code != http.StatusFound {
		t.Fatalf("browser flows must redirect, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Location"), "/payment/failure") {
		t.Fatalf("expected failure page, got %q", rec.Header().Get("Location"))
	}
}

func TestReturnWithBadSignatureRedirectsToFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.insertOrder(t, "ORD201", 499000)

	query := vnpayQuery("ORD201", 499000, "00")
	query.Set("vnp_Amount", "1")
	req := httptest.NewRequest(http.MethodGet, "/payments/vnpay/return?"+query.Encode(), nil)
	rec := ts.do(req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "/payment/failure") {
		t.Fatalf("expected failure page, got %q", location)
	}
	if !strings.Contains(location, "orderCode=ORD201") {
		t.Fatalf("expected recovered identity, got %q", location)
	}
	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if parsed.Query().Get("message") != "Chữ ký không hợp lệ" {
		t.Fatalf("expected localized failure message, got %q", parsed.Query().Get("message"))
	}
}

func TestVNPayIPNAckCodes(t *testing.T) {
	ts := newTestServer(t)
	ts.insertOrder(t, "ORD202", 499000)

	req := httptest.NewRequest(http.MethodGet, "/payments/vnpay/ipn?"+vnpayQuery("ORD202", 499000, "00").Encode(), nil)
	rec := ts.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ipn must answer 200, got %d", rec.Code)
	}
	var ack redirect.VNPayAck
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.RspCode != "00" {
		t.Fatalf("expected RspCode 00, got %q", ack.RspCode)
	}

	// Same notification again: confirmed duplicate.
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/payments/vnpay/ipn?"+vnpayQuery("ORD202", 499000, "00").Encode(), nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode second ack: %v", err)
	}
	if ack.RspCode != "02" {
		t.Fatalf("expected RspCode 02 for duplicate, got %q", ack.RspCode)
	}

	// Tampered checksum.
	query := vnpayQuery("ORD202", 499000, "00")
	query.Set("vnp_SecureHash", "deadbeef")
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/payments/vnpay/ipn?"+query.Encode(), nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode checksum ack: %v", err)
	}
	if ack.RspCode != "97" {
		t.Fatalf("expected RspCode 97, got %q", ack.RspCode)
	}

	// Unknown order.
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/payments/vnpay/ipn?"+vnpayQuery("GHOST", 499000, "00").Encode(), nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode not-found ack: %v", err)
	}
	if ack.RspCode != "01" {
		t.Fatalf("expected RspCode 01, got %q", ack.RspCode)
	}
}

func TestMoMoIPN(t *testing.T) {
	ts := newTestServer(t)
	ts.insertOrder(t, "ORD203", 499000)

	body := momoIPNBody(t, "ORD203", "0", 499000)
	req := httptest.NewRequest(http.MethodPost, "/payments/momo/ipn", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", rec.Code, rec.Body.String())
	}

	order, err := orderrepo.Provide().FindByCode(context.Background(), ts.db, "ORD203")
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if order.PaymentStatus != orderdomain.PaymentStatusPaid {
		t.Fatalf("expected PAID, got %q", order.PaymentStatus)
	}

	// Tampered signature.
	ts.insertOrder(t, "ORD204", 499000)
	body = momoIPNBody(t, "ORD204", "1006", 499000)
	var payload map[string]any
	_ = json.Unmarshal(body, &payload)
	payload["resultCode"] = "0"
	tampered, _ := json.Marshal(payload)

	req = httptest.NewRequest(http.MethodPost, "/payments/momo/ipn", bytes.NewReader(tampered))
	req.Header.Set("Content-Type", "application/json")
	rec = ts.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for bad signature, got %d", rec.Code)
	}
}

func TestOrderStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.insertOrder(t, "ORD205", 499000)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/orders/ORD205/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"payment_status":"PENDING"`) {
		t.Fatalf("expected pending status, got %s", rec.Body.String())
	}

	// Suffixed codes resolve to the same order.
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/orders/ORD205-VNPay-7f3a/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("suffixed code must resolve, got %d", rec.Code)
	}

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/orders/GHOST/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCheckPayment(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/payments/check?resultCode=9000", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"successful":true`) {
		t.Fatalf("momo 9000 must check successful, got %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/payments/check?vnp_ResponseCode=24", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"successful":false`) {
		t.Fatalf("vnp 24 must check unsuccessful, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRefundRequiresAdminKey(t *testing.T) {
	ts := newTestServer(t)
	order := ts.insertOrder(t, "ORD206", 499000)

	// Settle via IPN first.
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/payments/vnpay/ipn?"+vnpayQuery("ORD206", 499000, "00").Encode(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("settle order: %d", rec.Code)
	}

	target := fmt.Sprintf("/api/admin/orders/%d/refund", int64(order.ID))
	body := bytes.NewReader([]byte(`{"amount":0,"reason":"course cancelled"}`))

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", "application/json")
	rec = ts.do(req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, target, bytes.NewReader([]byte(`{"amount":0,"reason":"course cancelled"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec = ts.do(req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, target, bytes.NewReader([]byte(`{"amount":0,"reason":"course cancelled"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminKey)
	rec = ts.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with admin key, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"payment_status":"REFUNDED"`) {
		t.Fatalf("expected refunded order, got %s", rec.Body.String())
	}
}

func TestAuditLogListing(t *testing.T) {
	ts := newTestServer(t)
	ts.insertOrder(t, "ORD207", 499000)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/payments/vnpay/ipn?"+vnpayQuery("ORD207", 499000, "00").Encode(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("settle order: %d", rec.Code)
	}

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/audit?action=payment.applied", nil)
	req.Header.Set("Authorization", "Bearer "+adminKey)
	rec = ts.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"action":"payment.applied"`) {
		t.Fatalf("expected applied entry, got %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "ORD207") {
		t.Fatalf("expected order code in metadata, got %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/audit?action=order.refunded", nil)
	req.Header.Set("Authorization", "Bearer "+adminKey)
	rec = ts.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty filter, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected no refund entries, got %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/audit?limit=zero", nil)
	req.Header.Set("Authorization", "Bearer "+adminKey)
	rec = ts.do(req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestCreateCheckoutValidation(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader([]byte(`{"order_id":"1","gateway":"paypal"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := ts.do(req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown gateway, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader([]byte(`{"order_id":"abc","gateway":"vnpay"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec = ts.do(req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad order id, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader([]byte(`{"order_id":"424242","gateway":"vnpay"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec = ts.do(req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing order, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
