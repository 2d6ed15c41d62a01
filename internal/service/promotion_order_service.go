package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/metrics"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/payment"
	"github.com/jixie-rent/server/internal/pricing"
	"github.com/jixie-rent/server/internal/queue"
	"github.com/jixie-rent/server/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNoMaxAttempts = 5

// PromotionOrderService 推广订单服务
type PromotionOrderService struct {
	orderRepo   repository.PromotionOrderRepository
	listingRepo repository.ListingRepository
	walletSvc   *WalletService
	notifySvc   *NotificationService
	gateways    *payment.Registry
	pricing     pricing.Table
	queueClient *queue.Client
	pendingTTL  time.Duration
	now         func() time.Time
}

// CreatePromotionOrderInput 创建推广订单输入（金额一律由服务端计算）
type CreatePromotionOrderInput struct {
	BuyerID        uint
	ListingID      uint
	Tier           int
	RegionScope    string
	DurationMonths int
}

// NewPromotionOrderService 创建推广订单服务
func NewPromotionOrderService(
	orderRepo repository.PromotionOrderRepository,
	listingRepo repository.ListingRepository,
	walletSvc *WalletService,
	notifySvc *NotificationService,
	gateways *payment.Registry,
	table pricing.Table,
	queueClient *queue.Client,
	pendingTTLMinutes int,
) *PromotionOrderService {
	ttl := time.Duration(0)
	if pendingTTLMinutes > 0 {
		ttl = time.Duration(pendingTTLMinutes) * time.Minute
	}
	return &PromotionOrderService{
		orderRepo:   orderRepo,
		listingRepo: listingRepo,
		walletSvc:   walletSvc,
		notifySvc:   notifySvc,
		gateways:    gateways,
		pricing:     table,
		queueClient: queueClient,
		pendingTTL:  ttl,
		now:         time.Now,
	}
}

// Create 创建待支付推广订单
func (s *PromotionOrderService) Create(ctx context.Context, input CreatePromotionOrderInput) (*models.PromotionOrder, error) {
	scope := strings.ToLower(strings.TrimSpace(input.RegionScope))
	if !pricing.IsValidTier(input.Tier) {
		return nil, ErrPromotionTierInvalid
	}
	if !pricing.IsValidScope(scope) {
		return nil, ErrPromotionScopeInvalid
	}
	if !pricing.IsValidDuration(input.DurationMonths) {
		return nil, ErrPromotionDurationInvalid
	}

	listing, err := s.listingRepo.GetByID(input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	if listing.OwnerID != input.BuyerID {
		return nil, ErrListingForbidden
	}
	if listing.Status != constants.ListingStatusPublished {
		return nil, ErrListingNotPublished
	}

	unitPrice, ok := s.pricing.UnitPrice(input.Tier, scope)
	if !ok {
		return nil, ErrPromotionPriceMissing
	}
	amount, err := s.pricing.ComputeAmount(input.Tier, scope, input.DurationMonths)
	if err != nil {
		return nil, ErrPromotionPriceMissing
	}

	orderNo, err := s.nextOrderNo()
	if err != nil {
		return nil, err
	}
	now := s.now()
	order := &models.PromotionOrder{
		OrderNo:        orderNo,
		BuyerID:        input.BuyerID,
		ListingID:      listing.ID,
		Tier:           input.Tier,
		RegionScope:    scope,
		DurationMonths: input.DurationMonths,
		UnitPrice:      models.NewMoneyFromDecimal(unitPrice),
		Amount:         models.NewMoneyFromDecimal(amount),
		PaidAmount:     models.NewMoneyFromDecimal(amount),
		RefundedAmount: models.NewMoneyFromDecimal(decimal.Zero),
		Currency:       constants.CurrencyCNY,
		Status:         constants.PromotionOrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, ErrOrderCreateFailed
	}

	if s.pendingTTL > 0 && s.queueClient.Enabled() {
		if err := s.queueClient.EnqueuePromotionOrderTimeoutCancel(queue.PromotionOrderTimeoutCancelPayload{
			OrderID: order.ID,
		}, s.pendingTTL); err != nil {
			logger.FromContext(ctx).Warnw("promotion_order_enqueue_timeout_cancel_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}

	metrics.PromotionOrdersCreated.WithLabelValues(strconv.Itoa(order.Tier), order.RegionScope).Inc()
	logger.FromContext(ctx).Infow("promotion_order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"buyer_id", order.BuyerID,
		"listing_id", order.ListingID,
		"amount", order.Amount.String(),
	)
	return order, nil
}

// PayWithBalance 使用余额支付：状态流转、扣款、推广字段、通知在同一事务内完成
func (s *PromotionOrderService) PayWithBalance(ctx context.Context, orderID, buyerID uint) (*models.PromotionOrder, error) {
	if _, err := s.GetByBuyer(orderID, buyerID); err != nil {
		return nil, err
	}

	var paid *models.PromotionOrder
	var notification *models.Notification
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status != constants.PromotionOrderStatusPending {
			return ErrOrderStatusInvalid
		}
		now := s.now()
		if err := s.markPaidInTx(tx, order, constants.PaymentMethodBalance, "", now); err != nil {
			return err
		}
		orderRef := order.ID
		if _, _, err := s.walletSvc.DebitInTx(tx, WalletEntryInput{
			UserID:    order.BuyerID,
			Amount:    order.PaidAmount,
			TxnType:   constants.WalletTxnTypePromotionPay,
			Reference: buildPromotionWalletReference(order.ID, "pay"),
			Remark:    fmt.Sprintf("推广订单 %s 支付", order.OrderNo),
			OrderID:   &orderRef,
		}); err != nil {
			return err
		}
		notification, err = s.activateListingInTx(tx, order)
		if err != nil {
			return err
		}
		paid = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifySvc.Publish(ctx, notification)
	metrics.PromotionOrdersPaid.WithLabelValues(constants.PaymentMethodBalance).Inc()
	logger.FromContext(ctx).Infow("promotion_order_paid",
		"order_id", paid.ID,
		"order_no", paid.OrderNo,
		"payment_method", constants.PaymentMethodBalance,
		"amount", paid.PaidAmount.String(),
	)
	return paid, nil
}

// PayWithGateway 生成第三方支付跳转/二维码，不改变订单状态
func (s *PromotionOrderService) PayWithGateway(ctx context.Context, orderID, buyerID uint, method string) (*payment.PayResult, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method != constants.PaymentMethodAlipay && method != constants.PaymentMethodWechat {
		return nil, ErrPaymentMethodInvalid
	}
	order, err := s.GetByBuyer(orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.PromotionOrderStatusPending {
		return nil, ErrOrderStatusInvalid
	}
	gateway, ok := s.gateways.Get(method)
	if !ok {
		return nil, ErrPaymentMethodInvalid
	}
	result, err := gateway.CreatePayment(ctx, payment.PayRequest{
		OrderNo: order.OrderNo,
		Amount:  order.PaidAmount.Decimal,
		Subject: fmt.Sprintf("信息推广 %s", order.OrderNo),
	})
	if err != nil {
		logger.FromContext(ctx).Warnw("promotion_order_gateway_create_failed",
			"order_id", order.ID,
			"payment_method", method,
			"error", err,
		)
		return nil, ErrPaymentGatewayFailed
	}
	return result, nil
}

// Refund 退款到余额并撤销本单授予的推广
func (s *PromotionOrderService) Refund(ctx context.Context, orderID, buyerID uint, reason string) (*models.PromotionOrder, error) {
	if _, err := s.GetByBuyer(orderID, buyerID); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	var refunded *models.PromotionOrder
	var notification *models.Notification
	listingCleared := int64(0)
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status != constants.PromotionOrderStatusPaid {
			return ErrOrderStatusInvalid
		}
		now := s.now()
		affected, err := orderRepo.TransitionStatus(order.ID, constants.PromotionOrderStatusPaid, constants.PromotionOrderStatusRefunded, map[string]interface{}{
			"refunded_at":     now,
			"refunded_amount": order.PaidAmount,
			"refund_reason":   reason,
			"updated_at":      now,
		})
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if affected == 0 {
			return ErrOrderStatusInvalid
		}
		order.Status = constants.PromotionOrderStatusRefunded
		order.RefundedAt = &now
		order.RefundedAmount = order.PaidAmount
		order.RefundReason = reason
		order.UpdatedAt = now

		orderRef := order.ID
		if _, _, err := s.walletSvc.CreditInTx(tx, WalletEntryInput{
			UserID:    order.BuyerID,
			Amount:    order.PaidAmount,
			TxnType:   constants.WalletTxnTypePromotionRefund,
			Reference: buildPromotionWalletReference(order.ID, "refund"),
			Remark:    fmt.Sprintf("推广订单 %s 退款", order.OrderNo),
			OrderID:   &orderRef,
		}); err != nil {
			return err
		}

		listingCleared, err = s.listingRepo.WithTx(tx).ClearPromotionByOrder(order.ListingID, order.ID)
		if err != nil {
			return ErrListingUpdateFailed
		}

		notification, err = s.notifySvc.EnqueueInTx(tx, NotificationInput{
			UserID:    order.BuyerID,
			Kind:      constants.NotificationKindRefundProcessed,
			Title:     "推广退款已到账",
			Body:      fmt.Sprintf("推广订单 %s 已退款 %s 元至账户余额", order.OrderNo, order.PaidAmount.String()),
			RelatedID: order.ID,
		})
		if err != nil {
			return err
		}
		refunded = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifySvc.Publish(ctx, notification)
	metrics.PromotionOrdersRefunded.Inc()
	logger.FromContext(ctx).Infow("promotion_order_refunded",
		"order_id", refunded.ID,
		"order_no", refunded.OrderNo,
		"amount", refunded.RefundedAmount.String(),
		"listing_cleared", listingCleared > 0,
	)
	return refunded, nil
}

// CancelExpiredOrder 取消超时未支付的推广订单，已支付或已取消时为空操作
func (s *PromotionOrderService) CancelExpiredOrder(ctx context.Context, orderID uint) (bool, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, ErrOrderNotFound
	}
	if order.Status != constants.PromotionOrderStatusPending {
		return false, nil
	}
	now := s.now()
	if s.pendingTTL > 0 && now.Before(order.CreatedAt.Add(s.pendingTTL)) {
		return false, nil
	}
	affected, err := s.orderRepo.TransitionStatus(order.ID, constants.PromotionOrderStatusPending, constants.PromotionOrderStatusCancelled, map[string]interface{}{
		"cancelled_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return false, ErrOrderUpdateFailed
	}
	if affected == 0 {
		return false, nil
	}
	metrics.PromotionOrdersCancelled.Inc()
	logger.FromContext(ctx).Infow("promotion_order_cancelled",
		"order_id", order.ID,
		"order_no", order.OrderNo,
	)
	return true, nil
}

// ListByBuyer 查询购买人的推广订单
func (s *PromotionOrderService) ListByBuyer(filter repository.PromotionOrderListFilter) ([]models.PromotionOrder, int64, error) {
	if filter.BuyerID == 0 {
		return nil, 0, ErrOrderForbidden
	}
	return s.orderRepo.ListByBuyer(filter)
}

// GetByBuyer 获取购买人的推广订单详情
func (s *PromotionOrderService) GetByBuyer(orderID, buyerID uint) (*models.PromotionOrder, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if buyerID == 0 || order.BuyerID != buyerID {
		return nil, ErrOrderForbidden
	}
	return order, nil
}

// markPaidInTx 条件更新 pending -> paid，影响行数为 0 表示已被其他请求处理
func (s *PromotionOrderService) markPaidInTx(tx *gorm.DB, order *models.PromotionOrder, method, tradeRef string, now time.Time) error {
	expiresAt := addMonths(now, order.DurationMonths)
	updates := map[string]interface{}{
		"paid_at":              now,
		"payment_method":       method,
		"promotion_expires_at": expiresAt,
		"updated_at":           now,
	}
	if tradeRef != "" {
		updates["gateway_trade_ref"] = tradeRef
	}
	affected, err := s.orderRepo.WithTx(tx).TransitionStatus(order.ID, constants.PromotionOrderStatusPending, constants.PromotionOrderStatusPaid, updates)
	if err != nil {
		return ErrOrderUpdateFailed
	}
	if affected == 0 {
		return ErrOrderStatusInvalid
	}
	order.Status = constants.PromotionOrderStatusPaid
	order.PaidAt = &now
	order.PaymentMethod = method
	order.PromotionExpiresAt = &expiresAt
	order.UpdatedAt = now
	if tradeRef != "" {
		order.GatewayTradeRef = tradeRef
	}
	return nil
}

// activateListingInTx 写入信息推广字段并生成生效通知
func (s *PromotionOrderService) activateListingInTx(tx *gorm.DB, order *models.PromotionOrder) (*models.Notification, error) {
	listingRepo := s.listingRepo.WithTx(tx)
	listing, err := listingRepo.GetByIDForUpdate(order.ListingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	if order.PromotionExpiresAt == nil {
		return nil, ErrOrderUpdateFailed
	}
	if err := listingRepo.ApplyPromotion(listing.ID, repository.PromotionFields{
		Tier:      order.Tier,
		Scope:     order.RegionScope,
		ExpiresAt: *order.PromotionExpiresAt,
		OrderID:   order.ID,
	}); err != nil {
		return nil, ErrListingUpdateFailed
	}
	return s.notifySvc.EnqueueInTx(tx, NotificationInput{
		UserID:    order.BuyerID,
		Kind:      constants.NotificationKindPromotionActivated,
		Title:     "推广已生效",
		Body:      fmt.Sprintf("信息《%s》推广已生效，到期时间 %s", listing.Title, order.PromotionExpiresAt.Format("2006-01-02 15:04")),
		RelatedID: order.ID,
	})
}

func (s *PromotionOrderService) nextOrderNo() (string, error) {
	for i := 0; i < orderNoMaxAttempts; i++ {
		orderNo := generateOrderNo(s.now())
		exists, err := s.orderRepo.ExistsByOrderNo(orderNo)
		if err != nil {
			return "", err
		}
		if !exists {
			return orderNo, nil
		}
	}
	return "", ErrOrderNoGenerateFail
}

func generateOrderNo(now time.Time) string {
	return fmt.Sprintf("PR%s%s", now.Format("20060102150405"), randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String()
}

func isStateConflict(err error) bool {
	return errors.Is(err, ErrOrderStatusInvalid)
}
