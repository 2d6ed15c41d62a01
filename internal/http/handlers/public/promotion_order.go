package public

import (
	"strings"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/http/response"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/repository"
	"github.com/jixie-rent/server/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePromotionOrderRequest 创建推广订单请求（不接受客户端金额）
type CreatePromotionOrderRequest struct {
	ListingID      uint   `json:"listing_id" binding:"required"`
	Tier           int    `json:"tier"`
	RegionScope    string `json:"region_scope"`
	DurationMonths int    `json:"duration_months"`
}

// PayPromotionOrderRequest 支付推广订单请求
type PayPromotionOrderRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// RefundPromotionOrderRequest 推广订单退款请求
type RefundPromotionOrderRequest struct {
	Reason string `json:"reason"`
}

// PromotionOrderCreateResponse 创建推广订单响应
type PromotionOrderCreateResponse struct {
	OrderID    uint         `json:"order_id"`
	OrderNo    string       `json:"order_no"`
	Amount     models.Money `json:"amount"`
	PaidAmount models.Money `json:"paid_amount"`
}

// CreatePromotionOrder 创建推广订单
func (h *Handler) CreatePromotionOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreatePromotionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.PromotionOrderService.Create(c.Request.Context(), service.CreatePromotionOrderInput{
		BuyerID:        uid,
		ListingID:      req.ListingID,
		Tier:           req.Tier,
		RegionScope:    req.RegionScope,
		DurationMonths: req.DurationMonths,
	})
	if err != nil {
		respondPromotionOrderCreateError(c, err)
		return
	}
	response.Success(c, PromotionOrderCreateResponse{
		OrderID:    order.ID,
		OrderNo:    order.OrderNo,
		Amount:     order.Amount,
		PaidAmount: order.PaidAmount,
	})
}

// PayPromotionOrder 支付推广订单（余额直接扣款，第三方返回支付链接）
func (h *Handler) PayPromotionOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parsePathID(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	var req PayPromotionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == constants.PaymentMethodBalance {
		if _, err := h.PromotionOrderService.PayWithBalance(c.Request.Context(), orderID, uid); err != nil {
			respondPromotionOrderPayError(c, err)
			return
		}
		response.Success(c, gin.H{"message": "支付成功，推广已生效"})
		return
	}

	result, err := h.PromotionOrderService.PayWithGateway(c.Request.Context(), orderID, uid, method)
	if err != nil {
		respondPromotionOrderPayError(c, err)
		return
	}
	response.Success(c, result)
}

// ListPromotionOrders 获取当前用户推广订单列表
func (h *Handler) ListPromotionOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	orders, total, err := h.PromotionOrderService.ListByBuyer(repository.PromotionOrderListFilter{
		Page:      page,
		PageSize:  pageSize,
		BuyerID:   uid,
		ListingID: parseQueryUint(c, "listing_id"),
		Status:    strings.TrimSpace(c.Query("status")),
		OrderNo:   strings.TrimSpace(c.Query("order_no")),
	})
	if err != nil {
		respondPromotionOrderFetchError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetPromotionOrder 获取推广订单详情
func (h *Handler) GetPromotionOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parsePathID(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	order, err := h.PromotionOrderService.GetByBuyer(orderID, uid)
	if err != nil {
		respondPromotionOrderFetchError(c, err)
		return
	}
	response.Success(c, order)
}

// RefundPromotionOrder 推广订单退款到余额
func (h *Handler) RefundPromotionOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parsePathID(c, "id", "error.order_id_invalid")
	if !ok {
		return
	}
	var req RefundPromotionOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	if _, err := h.PromotionOrderService.Refund(c.Request.Context(), orderID, uid, req.Reason); err != nil {
		respondPromotionOrderRefundError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "退款成功，金额已退回余额"})
}
