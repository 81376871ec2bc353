package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codelearn/payrec/internal/gateway"
	"github.com/codelearn/payrec/internal/observability/logger"
	"github.com/codelearn/payrec/internal/redirect"
)

// VNPayReturn handles the browser arriving back from the VNPay payment page.
// Failures never surface as error pages; the buyer is redirected to the
// failure page with whatever identity could be recovered.
func (s *Server) VNPayReturn(c *gin.Context) {
	s.handleReturn(c, paramsFromQuery(c))
}

// MoMoReturn handles the browser arriving back from the MoMo wallet.
func (s *Server) MoMoReturn(c *gin.Context) {
	s.handleReturn(c, paramsFromQuery(c))
}

func (s *Server) handleReturn(c *gin.Context, params map[string]string) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	result, err := s.reconcile.Reconcile(ctx, gateway.ModeRedirect, params)
	if err != nil {
		log.Warn("redirect reconciliation failed",
			zap.Error(err),
			zap.Any("params", logger.MaskParams(params)),
		)
		c.Redirect(http.StatusFound, s.composer.FailureRedirect(params, failureMessage(err)))
		return
	}

	if result.Applied {
		s.statusCache.Delete(result.Order.OrderCode)
	}
	c.Redirect(http.StatusFound, s.composer.Redirect(result, params))
}

// VNPayIPN handles VNPay's server-to-server notification. The response is
// always HTTP 200 with VNPay's RspCode convention; non-"00" codes tell VNPay
// whether to retry.
func (s *Server) VNPayIPN(c *gin.Context) {
	ctx := c.Request.Context()
	params := paramsFromQuery(c)

	result, err := s.reconcile.Reconcile(ctx, gateway.ModeWebhook, params)
	if err != nil {
		logger.FromContext(ctx).Warn("vnpay ipn rejected",
			zap.Error(err),
			zap.Any("params", logger.MaskParams(params)),
		)
	} else if result.Applied {
		s.statusCache.Delete(result.Order.OrderCode)
	}

	c.JSON(http.StatusOK, redirect.VNPayWebhookAck(result, err))
}

// MoMoIPN handles MoMo's server-to-server notification. MoMo expects 204 on
// acceptance and retries on error statuses.
func (s *Server) MoMoIPN(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := paramsFromJSONBody(c)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, rerr := s.reconcile.Reconcile(ctx, gateway.ModeWebhook, params)
	if rerr != nil {
		logger.FromContext(ctx).Warn("momo ipn rejected",
			zap.Error(rerr),
			zap.Any("params", logger.MaskParams(params)),
		)
		c.Status(redirect.MoMoWebhookStatus(rerr))
		return
	}

	if result.Applied {
		s.statusCache.Delete(result.Order.OrderCode)
	}
	c.Status(http.StatusNoContent)
}

func paramsFromQuery(c *gin.Context) map[string]string {
	query := c.Request.URL.Query()
	params := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

// paramsFromJSONBody flattens MoMo's JSON notification into the string map
// the adapters verify. Numbers keep their wire form so the signature base
// string matches what MoMo signed.
func paramsFromJSONBody(c *gin.Context) (map[string]string, error) {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.UseNumber()

	var body map[string]any
	if err := decoder.Decode(&body); err != nil {
		return nil, err
	}

	params := make(map[string]string, len(body))
	for key, value := range body {
		switch v := value.(type) {
		case string:
			params[key] = v
		case json.Number:
			params[key] = v.String()
		case bool:
			params[key] = strconv.FormatBool(v)
		case nil:
			params[key] = ""
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			params[key] = string(raw)
		}
	}
	return params, nil
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, gateway.ErrInvalidSignature):
		return "Chữ ký không hợp lệ"
	case errors.Is(err, gateway.ErrUnknownGateway):
		return "Không xác định được cổng thanh toán"
	case errors.Is(err, gateway.ErrMissingFields):
		return "Dữ liệu thanh toán không đầy đủ"
	default:
		return "Không thể xác nhận kết quả thanh toán"
	}
}
