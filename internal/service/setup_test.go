package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/payment"
	"github.com/jixie-rent/server/internal/pricing"
	"github.com/jixie-rent/server/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type promotionTestEnv struct {
	db        *gorm.DB
	walletSvc *WalletService
	notifySvc *NotificationService
	orderSvc  *PromotionOrderService
	expirySvc *PromotionExpiryService
	searchSvc *ListingSearchService
}

// stubGateway 以 sign == "valid" 作为验签通过条件
type stubGateway struct {
	method string
}

func (g stubGateway) Method() string { return g.method }

func (g stubGateway) CreatePayment(_ context.Context, req payment.PayRequest) (*payment.PayResult, error) {
	url := fmt.Sprintf("https://pay.example.com/%s?order_no=%s&amount=%s", g.method, req.OrderNo, req.Amount.StringFixed(2))
	return &payment.PayResult{PayURL: url, QRCode: url}, nil
}

func (g stubGateway) VerifyCallback(_ context.Context, payload payment.CallbackPayload) error {
	if strings.TrimSpace(payload.Sign) != "valid" {
		return payment.ErrSignatureInvalid
	}
	return nil
}

func setupPromotionTest(t *testing.T) *promotionTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:promotion_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	listingRepo := repository.NewListingRepository(db)
	walletSvc := NewWalletService(repository.NewWalletRepository(db), pricing.DefaultBonusTable())
	notifySvc := NewNotificationService(repository.NewNotificationRepository(db), nil, nil)
	registry := payment.NewRegistry(stubGateway{method: constants.PaymentMethodAlipay}, stubGateway{method: constants.PaymentMethodWechat})
	orderSvc := NewPromotionOrderService(
		repository.NewPromotionOrderRepository(db),
		listingRepo,
		walletSvc,
		notifySvc,
		registry,
		pricing.DefaultTable(),
		nil,
		0,
	)
	return &promotionTestEnv{
		db:        db,
		walletSvc: walletSvc,
		notifySvc: notifySvc,
		orderSvc:  orderSvc,
		expirySvc: NewPromotionExpiryService(db, listingRepo, notifySvc, 2),
		searchSvc: NewListingSearchService(listingRepo),
	}
}

func createPublishedListing(t *testing.T, db *gorm.DB, ownerID uint, title string) *models.Listing {
	t.Helper()
	publishedAt := time.Now().Add(-time.Hour)
	listing := &models.Listing{
		OwnerID:     ownerID,
		Title:       title,
		Status:      constants.ListingStatusPublished,
		CategoryID:  3,
		ProvinceID:  11,
		CityID:      1101,
		CountyID:    110101,
		Price:       models.NewMoneyFromInt(1200),
		PublishedAt: &publishedAt,
	}
	if err := db.Create(listing).Error; err != nil {
		t.Fatalf("create listing failed: %v", err)
	}
	return listing
}

func fundWallet(t *testing.T, env *promotionTestEnv, userID uint, amount int64) {
	t.Helper()
	err := env.db.Transaction(func(tx *gorm.DB) error {
		_, _, err := env.walletSvc.CreditInTx(tx, WalletEntryInput{
			UserID:    userID,
			Amount:    models.NewMoneyFromInt(amount),
			TxnType:   constants.WalletTxnTypeRecharge,
			Reference: fmt.Sprintf("test_fund:%d:%d", userID, time.Now().UnixNano()),
		})
		return err
	})
	if err != nil {
		t.Fatalf("fund wallet failed: %v", err)
	}
}

func walletBalance(t *testing.T, env *promotionTestEnv, userID uint) decimal.Decimal {
	t.Helper()
	account, err := env.walletSvc.GetAccount(userID)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	return account.Balance.Decimal
}

func reloadListing(t *testing.T, db *gorm.DB, id uint) *models.Listing {
	t.Helper()
	var listing models.Listing
	if err := db.First(&listing, id).Error; err != nil {
		t.Fatalf("reload listing failed: %v", err)
	}
	return &listing
}

func reloadOrder(t *testing.T, db *gorm.DB, id uint) *models.PromotionOrder {
	t.Helper()
	var order models.PromotionOrder
	if err := db.First(&order, id).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	return &order
}

func countNotifications(t *testing.T, db *gorm.DB, userID uint, kind string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Notification{}).Where("user_id = ? AND kind = ?", userID, kind).Count(&count).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	return count
}

func assertBaseline(t *testing.T, listing *models.Listing) {
	t.Helper()
	if listing.PromotionTier != constants.PromotionTierNone || listing.PromotionScope != nil ||
		listing.PromotionExpiresAt != nil || listing.PromotionOrderID != nil {
		t.Fatalf("expected baseline promotion fields, got tier=%d scope=%v expires=%v order=%v",
			listing.PromotionTier, listing.PromotionScope, listing.PromotionExpiresAt, listing.PromotionOrderID)
	}
}
