package router

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jixie-rent/server/internal/config"
	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/payment"
	"github.com/jixie-rent/server/internal/provider"
	"github.com/jixie-rent/server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const testJWTSecret = "router-test-secret"

type routerTestEnv struct {
	engine    *gin.Engine
	db        *gorm.DB
	container *provider.Container
	alipayKey *rsa.PrivateKey
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       string          `json:"code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupRouterTest(t *testing.T) *routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key failed: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key failed: %v", err)
	}

	cfg := config.LoadDefaults()
	cfg.Redis.Enabled = false
	cfg.Queue.Enabled = false
	cfg.UserJWT.SecretKey = testJWTSecret
	cfg.Promotion.Gateway.Alipay = config.AlipayGatewayConfig{
		Enabled:   true,
		AppID:     "2026000000000001",
		PublicKey: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
		SignType:  "RSA2",
		Gateway:   "https://openapi.alipay.com/gateway.do",
	}
	container, err := provider.NewContainer(cfg)
	if err != nil {
		t.Fatalf("new container failed: %v", err)
	}
	return &routerTestEnv{
		engine:    SetupRouter(cfg, container),
		db:        db,
		container: container,
		alipayKey: key,
	}
}

func (e *routerTestEnv) createListing(t *testing.T, ownerID uint) *models.Listing {
	t.Helper()
	now := time.Now()
	listing := &models.Listing{
		OwnerID:     ownerID,
		Title:       "25吨汽车吊出租",
		Status:      constants.ListingStatusPublished,
		ProvinceID:  32,
		CityID:      3201,
		CountyID:    320102,
		Price:       models.NewMoneyFromInt(1500),
		PublishedAt: &now,
	}
	if err := e.db.Create(listing).Error; err != nil {
		t.Fatalf("create listing failed: %v", err)
	}
	return listing
}

func (e *routerTestEnv) do(t *testing.T, method, path string, userID uint, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+signUserToken(t, testJWTSecret, userID, jwt.SigningMethodHS256))
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return w, resp
}

func (e *routerTestEnv) sign(t *testing.T, payload payment.CallbackPayload) string {
	t.Helper()
	sum := sha256.Sum256([]byte(payment.SignContent(payload)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, e.alipayKey, crypto.SHA256, sum[:])
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return base64.StdEncoding.EncodeToString(sig)
}

func (e *routerTestEnv) balance(t *testing.T, userID uint) string {
	t.Helper()
	account, err := e.container.WalletService.GetAccount(userID)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	return account.Balance.StringFixed(2)
}

type createdOrder struct {
	OrderID    uint   `json:"order_id"`
	OrderNo    string `json:"order_no"`
	Amount     string `json:"amount"`
	PaidAmount string `json:"paid_amount"`
}

func (e *routerTestEnv) createOrder(t *testing.T, userID, listingID uint) createdOrder {
	t.Helper()
	w, resp := e.do(t, http.MethodPost, "/api/v1/promotion-orders", userID, map[string]interface{}{
		"listing_id":      listingID,
		"tier":            constants.PromotionTierRecommended,
		"region_scope":    "county",
		"duration_months": 2,
		"amount":          "0.01",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create order want 200 got %d body=%s", w.Code, w.Body.String())
	}
	var created createdOrder
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("decode created order failed: %v", err)
	}
	return created
}

func TestHealthzAndMetrics(t *testing.T) {
	env := setupRouterTest(t)

	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz want 200 got %d", w.Code)
	}

	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("metrics output missing go collector")
	}
}

func TestPromotionOrderBalanceFlowOverHTTP(t *testing.T) {
	env := setupRouterTest(t)
	const owner uint = 11
	listing := env.createListing(t, owner)
	if _, err := env.container.WalletService.Recharge(service.WalletRechargeInput{
		UserID: owner,
		Amount: models.NewMoneyFromInt(300),
	}); err != nil {
		t.Fatalf("recharge failed: %v", err)
	}

	created := env.createOrder(t, owner, listing.ID)
	if created.Amount != "200.00" || created.PaidAmount != "200.00" {
		t.Fatalf("amount must be computed server side, got %+v", created)
	}

	path := fmt.Sprintf("/api/v1/promotion-orders/%d", created.OrderID)
	if w, resp := env.do(t, http.MethodGet, path, owner+1, nil); w.Code != http.StatusForbidden || resp.Code != "forbidden" {
		t.Fatalf("stranger detail want 403 forbidden got %d %s", w.Code, resp.Code)
	}

	w, _ := env.do(t, http.MethodPost, path+"/pay", owner, map[string]string{"payment_method": "balance"})
	if w.Code != http.StatusOK {
		t.Fatalf("pay want 200 got %d body=%s", w.Code, w.Body.String())
	}
	if got := env.balance(t, owner); got != "100.00" {
		t.Fatalf("balance after pay want 100.00 got %s", got)
	}

	w, resp := env.do(t, http.MethodPost, path+"/pay", owner, map[string]string{"payment_method": "balance"})
	if w.Code != http.StatusConflict || resp.Code != "invalid_state" {
		t.Fatalf("repeat pay want 409 invalid_state got %d %s", w.Code, resp.Code)
	}

	w, resp = env.do(t, http.MethodGet, "/api/v1/listings?county_id=320102", 0, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search want 200 got %d", w.Code)
	}
	var ranked []struct {
		ID        uint `json:"id"`
		RankScore int  `json:"rank_score"`
	}
	if err := json.Unmarshal(resp.Data, &ranked); err != nil {
		t.Fatalf("decode ranked listings failed: %v", err)
	}
	if len(ranked) != 1 || ranked[0].ID != listing.ID || ranked[0].RankScore == 0 {
		t.Fatalf("expected boosted listing, got %+v", ranked)
	}

	w, _ = env.do(t, http.MethodPost, path+"/refund", owner, map[string]string{"reason": "设备已租出"})
	if w.Code != http.StatusOK {
		t.Fatalf("refund want 200 got %d body=%s", w.Code, w.Body.String())
	}
	if got := env.balance(t, owner); got != "300.00" {
		t.Fatalf("balance after refund want 300.00 got %s", got)
	}

	w, resp = env.do(t, http.MethodGet, "/api/v1/promotion-orders", owner, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list want 200 got %d", w.Code)
	}
	var orders []models.PromotionOrder
	if err := json.Unmarshal(resp.Data, &orders); err != nil {
		t.Fatalf("decode orders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != constants.PromotionOrderStatusRefunded {
		t.Fatalf("expected one refunded order, got %+v", orders)
	}

	w, resp = env.do(t, http.MethodGet, "/api/v1/wallet/transactions", owner, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("wallet transactions want 200 got %d", w.Code)
	}
	var txns []models.WalletTransaction
	if err := json.Unmarshal(resp.Data, &txns); err != nil {
		t.Fatalf("decode transactions failed: %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("expected recharge, pay and refund entries, got %d", len(txns))
	}

	w, resp = env.do(t, http.MethodGet, "/api/v1/notifications", owner, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("notifications want 200 got %d", w.Code)
	}
	var notes []models.Notification
	if err := json.Unmarshal(resp.Data, &notes); err != nil {
		t.Fatalf("decode notifications failed: %v", err)
	}
	if len(notes) < 2 {
		t.Fatalf("expected activation and refund notifications, got %d", len(notes))
	}
}

func TestPromotionOrderCreateValidationOverHTTP(t *testing.T) {
	env := setupRouterTest(t)
	listing := env.createListing(t, 21)

	w, resp := env.do(t, http.MethodPost, "/api/v1/promotion-orders", 21, map[string]interface{}{
		"listing_id":      listing.ID,
		"tier":            3,
		"region_scope":    "county",
		"duration_months": 1,
	})
	if w.Code != http.StatusBadRequest || resp.Code != "invalid_argument" {
		t.Fatalf("bad tier want 400 invalid_argument got %d %s", w.Code, resp.Code)
	}

	w, resp = env.do(t, http.MethodPost, "/api/v1/promotion-orders", 22, map[string]interface{}{
		"listing_id":      listing.ID,
		"tier":            constants.PromotionTierTop,
		"region_scope":    "city",
		"duration_months": 1,
	})
	if w.Code != http.StatusForbidden || resp.Code != "forbidden" {
		t.Fatalf("foreign listing want 403 got %d %s", w.Code, resp.Code)
	}

	if w, _ := env.do(t, http.MethodPost, "/api/v1/promotion-orders", 0, map[string]interface{}{}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create want 401 got %d", w.Code)
	}
}

func TestPromotionOrderInsufficientBalanceOverHTTP(t *testing.T) {
	env := setupRouterTest(t)
	listing := env.createListing(t, 31)
	created := env.createOrder(t, 31, listing.ID)

	w, resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/promotion-orders/%d/pay", created.OrderID), 31, map[string]string{"payment_method": "balance"})
	if w.Code != http.StatusPaymentRequired || resp.Code != "insufficient_balance" {
		t.Fatalf("want 402 insufficient_balance got %d %s", w.Code, resp.Code)
	}

	w, resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/promotion-orders/%d/pay", created.OrderID), 31, map[string]string{"payment_method": "paypal"})
	if w.Code != http.StatusBadRequest || resp.Code != "invalid_argument" {
		t.Fatalf("unknown method want 400 invalid_argument got %d %s", w.Code, resp.Code)
	}
}

func TestPromotionGatewayCallbackOverHTTP(t *testing.T) {
	env := setupRouterTest(t)
	listing := env.createListing(t, 41)
	created := env.createOrder(t, 41, listing.ID)

	w, resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/promotion-orders/%d/pay", created.OrderID), 41, map[string]string{"payment_method": "alipay"})
	if w.Code != http.StatusOK {
		t.Fatalf("gateway pay want 200 got %d body=%s", w.Code, w.Body.String())
	}
	var payResult payment.PayResult
	if err := json.Unmarshal(resp.Data, &payResult); err != nil {
		t.Fatalf("decode pay result failed: %v", err)
	}
	if !strings.Contains(payResult.PayURL, created.OrderNo) {
		t.Fatalf("pay url should carry order no, got %s", payResult.PayURL)
	}

	callbackPath := "/api/v1/promotion-orders/callback/" + created.OrderNo
	payload := payment.CallbackPayload{
		OrderNo:   created.OrderNo,
		TradeNo:   "2026101422001",
		PayMethod: constants.PaymentMethodAlipay,
		Amount:    "200.00",
	}
	w, resp = env.do(t, http.MethodPost, callbackPath, 0, map[string]string{
		"trade_no":   payload.TradeNo,
		"pay_method": payload.PayMethod,
		"amount":     payload.Amount,
		"sign":       base64.StdEncoding.EncodeToString([]byte("forged")),
	})
	if w.Code != http.StatusBadRequest || resp.Code != "signature_invalid" {
		t.Fatalf("forged sign want 400 signature_invalid got %d %s", w.Code, resp.Code)
	}

	w, resp = env.do(t, http.MethodPost, callbackPath, 0, map[string]string{
		"trade_no":   payload.TradeNo,
		"pay_method": payload.PayMethod,
		"amount":     "两百",
		"sign":       env.sign(t, payload),
	})
	if w.Code != http.StatusBadRequest || resp.Code != "invalid_argument" {
		t.Fatalf("malformed amount want 400 invalid_argument got %d %s", w.Code, resp.Code)
	}

	mismatch := payload
	mismatch.Amount = "1.00"
	w, resp = env.do(t, http.MethodPost, callbackPath, 0, map[string]string{
		"trade_no":   mismatch.TradeNo,
		"pay_method": mismatch.PayMethod,
		"amount":     mismatch.Amount,
		"sign":       env.sign(t, mismatch),
	})
	if w.Code != http.StatusUnprocessableEntity || resp.Code != "amount_mismatch" {
		t.Fatalf("mismatch want 422 amount_mismatch got %d %s", w.Code, resp.Code)
	}

	body := map[string]string{
		"trade_no":   payload.TradeNo,
		"pay_method": payload.PayMethod,
		"amount":     payload.Amount,
		"sign":       env.sign(t, payload),
	}
	for i := 0; i < 2; i++ {
		w, _ = env.do(t, http.MethodPost, callbackPath, 0, body)
		if w.Code != http.StatusOK {
			t.Fatalf("callback attempt %d want 200 got %d body=%s", i, w.Code, w.Body.String())
		}
	}

	var order models.PromotionOrder
	if err := env.db.First(&order, created.OrderID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.PromotionOrderStatusPaid || order.GatewayTradeRef != payload.TradeNo {
		t.Fatalf("expected paid order with trade ref, got %+v", order)
	}
	var activated int64
	env.db.Model(&models.Notification{}).
		Where("user_id = ? AND kind = ?", 41, constants.NotificationKindPromotionActivated).
		Count(&activated)
	if activated != 1 {
		t.Fatalf("expected exactly one activation notification, got %d", activated)
	}
}
