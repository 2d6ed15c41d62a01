package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/metrics"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/payment"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// callbackAmountEpsilon 回调金额允许误差（分）
var callbackAmountEpsilon = decimal.RequireFromString("0.01")

// GatewayCallbackInput 第三方支付回调输入
type GatewayCallbackInput struct {
	OrderNo   string
	TradeNo   string
	PayMethod string
	Amount    string
	Sign      string
	Serial    string
}

// GatewayCallbackResult 回调处理结果
type GatewayCallbackResult struct {
	Order     *models.PromotionOrder
	Duplicate bool
}

// HandleGatewayCallback 处理第三方支付回调（幂等：非待支付订单直接返回成功）
func (s *PromotionOrderService) HandleGatewayCallback(ctx context.Context, input GatewayCallbackInput) (*GatewayCallbackResult, error) {
	method := strings.ToLower(strings.TrimSpace(input.PayMethod))
	log := logger.FromContext(ctx, "order_no", input.OrderNo, "payment_method", method)

	result, outcome, err := s.handleGatewayCallback(ctx, input, method)
	label := method
	if _, ok := s.gateways.Get(method); !ok {
		label = "unknown"
	}
	metrics.GatewayCallbacks.WithLabelValues(label, outcome).Inc()
	if err != nil {
		log.Warnw("promotion_callback_rejected", "outcome", outcome, "error", err)
		return nil, err
	}
	if result.Duplicate {
		log.Infow("promotion_callback_duplicate", "order_id", result.Order.ID, "status", result.Order.Status)
		return result, nil
	}
	log.Infow("promotion_order_paid",
		"order_id", result.Order.ID,
		"trade_no", result.Order.GatewayTradeRef,
		"amount", result.Order.PaidAmount.String(),
	)
	return result, nil
}

func (s *PromotionOrderService) handleGatewayCallback(ctx context.Context, input GatewayCallbackInput, method string) (*GatewayCallbackResult, string, error) {
	orderNo := strings.TrimSpace(input.OrderNo)
	reported, err := decimal.NewFromString(strings.TrimSpace(input.Amount))
	if orderNo == "" || err != nil || !reported.IsPositive() {
		return nil, metrics.OutcomeInvalid, ErrPaymentCallbackInvalid
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, metrics.OutcomeError, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, metrics.OutcomeNotFound, ErrOrderNotFound
	}

	gateway, ok := s.gateways.Get(method)
	if !ok {
		return nil, metrics.OutcomeSignatureInvalid, ErrPaymentMethodInvalid
	}
	if err := gateway.VerifyCallback(ctx, payment.CallbackPayload{
		OrderNo:   orderNo,
		TradeNo:   strings.TrimSpace(input.TradeNo),
		PayMethod: method,
		Amount:    strings.TrimSpace(input.Amount),
		Sign:      input.Sign,
		Serial:    input.Serial,
	}); err != nil {
		return nil, metrics.OutcomeSignatureInvalid, ErrPaymentSignatureInvalid
	}

	if order.Status != constants.PromotionOrderStatusPending {
		return &GatewayCallbackResult{Order: order, Duplicate: true}, metrics.OutcomeDuplicate, nil
	}

	if reported.Sub(order.PaidAmount.Decimal).Abs().GreaterThanOrEqual(callbackAmountEpsilon) {
		return nil, metrics.OutcomeAmountMismatch, ErrPaymentAmountMismatch
	}

	var notification *models.Notification
	duplicate := false
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		locked, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(order.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if locked.Status != constants.PromotionOrderStatusPending {
			duplicate = true
			order = locked
			return nil
		}
		if err := s.markPaidInTx(tx, locked, method, strings.TrimSpace(input.TradeNo), s.now()); err != nil {
			if isStateConflict(err) {
				duplicate = true
				order = locked
				return nil
			}
			return err
		}
		notification, err = s.activateListingInTx(tx, locked)
		if err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, metrics.OutcomeNotFound, err
		}
		return nil, metrics.OutcomeError, err
	}
	if duplicate {
		return &GatewayCallbackResult{Order: order, Duplicate: true}, metrics.OutcomeDuplicate, nil
	}

	s.notifySvc.Publish(ctx, notification)
	metrics.PromotionOrdersPaid.WithLabelValues(method).Inc()
	return &GatewayCallbackResult{Order: order}, metrics.OutcomeProcessed, nil
}
