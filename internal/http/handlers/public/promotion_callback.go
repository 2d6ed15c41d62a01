package public

import (
	"strings"

	"github.com/jixie-rent/server/internal/http/response"
	"github.com/jixie-rent/server/internal/service"

	"github.com/gin-gonic/gin"
)

// PromotionCallbackRequest 第三方支付回调请求
type PromotionCallbackRequest struct {
	TradeNo   string `json:"trade_no"`
	PayMethod string `json:"pay_method" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Sign      string `json:"sign" binding:"required"`
	Serial    string `json:"serial"`
}

// HandlePromotionCallback 处理推广订单第三方支付回调（无需登录，先验签再变更状态）
func (h *Handler) HandlePromotionCallback(c *gin.Context) {
	log := requestLog(c)
	orderNo := strings.TrimSpace(c.Param("order_no"))
	var req PromotionCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || orderNo == "" {
		log.Warnw("promotion_callback_bind_failed", "order_no", orderNo, "client_ip", c.ClientIP(), "error", err)
		respondError(c, response.CodeBadRequest, "error.payment_callback_invalid", nil)
		return
	}
	serial := strings.TrimSpace(req.Serial)
	if serial == "" {
		serial = strings.TrimSpace(c.GetHeader("Wechatpay-Serial"))
	}
	log.Infow("promotion_callback_received",
		"order_no", orderNo,
		"pay_method", req.PayMethod,
		"trade_no", req.TradeNo,
		"amount", req.Amount,
		"client_ip", c.ClientIP(),
	)

	result, err := h.PromotionOrderService.HandleGatewayCallback(c.Request.Context(), service.GatewayCallbackInput{
		OrderNo:   orderNo,
		TradeNo:   strings.TrimSpace(req.TradeNo),
		PayMethod: req.PayMethod,
		Amount:    strings.TrimSpace(req.Amount),
		Sign:      strings.TrimSpace(req.Sign),
		Serial:    serial,
	})
	if err != nil {
		respondPromotionCallbackError(c, err)
		return
	}
	if result.Duplicate {
		response.Success(c, gin.H{"message": "订单已处理"})
		return
	}
	response.Success(c, gin.H{"message": "success"})
}
