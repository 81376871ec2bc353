package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type refundOrderRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// RefundOrder applies an admin refund. Amount 0 refunds the full remaining
// balance. Refunds only ever enter through this route; gateway notifications
// never move an order into the refund statuses.
func (s *Server) RefundOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || orderID == 0 {
		AbortWithError(c, newValidationError("id", "invalid_order_id", "order id must be numeric"))
		return
	}

	var req refundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Amount < 0 {
		AbortWithError(c, newValidationError("amount", "invalid_amount", "amount must not be negative"))
		return
	}

	order, err := s.reconcile.Refund(c.Request.Context(), orderID, req.Amount, req.Reason, adminActorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := statusResponse(order)
	s.statusCache.Set(order.OrderCode, resp, s.statusCacheTTL)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
