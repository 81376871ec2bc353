package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codelearn/payrec/internal/gateway"
	orderdomain "github.com/codelearn/payrec/internal/order/domain"
)

type orderStatusResponse struct {
	OrderID       string     `json:"order_id"`
	OrderCode     string     `json:"order_code"`
	PaymentStatus string     `json:"payment_status"`
	Gateway       string     `json:"gateway,omitempty"`
	FinalPrice    int64      `json:"final_price"`
	RefundAmount  int64      `json:"refund_amount,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// OrderStatus serves the result-page poll. Responses are cached briefly so a
// page that polls aggressively does not hammer the database; any applied
// transition invalidates the entry.
func (s *Server) OrderStatus(c *gin.Context) {
	code := gateway.StripOrderSuffix(strings.TrimSpace(c.Param("code")))
	if code == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	if cached, ok := s.statusCache.Get(code); ok {
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}

	order, err := s.orders.FindByCode(c.Request.Context(), s.db, code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := statusResponse(order)
	s.statusCache.Set(code, resp, s.statusCacheTTL)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// CheckPayment answers whether a gateway parameter set reads as successful,
// without touching the order. Useful for result pages that only carry the
// raw redirect query.
func (s *Server) CheckPayment(c *gin.Context) {
	params := paramsFromQuery(c)
	if len(params) == 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	source, classified := gateway.Classify(params)
	resp := gin.H{
		"successful": gateway.IsPaymentSuccessful(params),
	}
	if classified {
		resp["gateway"] = string(source)
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func statusResponse(order *orderdomain.Order) orderStatusResponse {
	return orderStatusResponse{
		OrderID:       order.ID.String(),
		OrderCode:     order.OrderCode,
		PaymentStatus: string(order.PaymentStatus),
		Gateway:       order.PaymentGateway,
		FinalPrice:    order.FinalPrice,
		RefundAmount:  order.RefundAmount,
		PaidAt:        order.PaidAt,
	}
}
