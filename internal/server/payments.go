package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codelearn/payrec/internal/gateway"
)

type createCheckoutRequest struct {
	OrderID string `json:"order_id"`
	Gateway string `json:"gateway"`
}

// CreateCheckout requests a hosted-payment session for a pending order and
// returns the gateway URL to send the buyer to.
func (s *Server) CreateCheckout(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orderID, err := strconv.ParseInt(strings.TrimSpace(req.OrderID), 10, 64)
	if err != nil || orderID == 0 {
		AbortWithError(c, newValidationError("order_id", "invalid_order_id", "order_id must be a numeric id"))
		return
	}

	var source gateway.Source
	switch strings.ToLower(strings.TrimSpace(req.Gateway)) {
	case string(gateway.SourceVNPay):
		source = gateway.SourceVNPay
	case string(gateway.SourceMoMo):
		source = gateway.SourceMoMo
	default:
		AbortWithError(c, newValidationError("gateway", "invalid_gateway", "gateway must be vnpay or momo"))
		return
	}

	session, err := s.reconcile.CreateCheckout(c.Request.Context(), source, orderID, c.ClientIP())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"gateway":     string(session.Gateway),
		"pay_url":     session.PayURL,
		"attempt_ref": session.AttemptRef,
	}})
}
