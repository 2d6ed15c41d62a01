package alipay

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/jixie-rent/server/internal/payment"

	"github.com/shopspring/decimal"
)

func newTestGateway(t *testing.T) (*Gateway, *rsa.PrivateKey) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key failed: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key failed: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	gw, err := New(Config{
		AppID:           "2026000000000000",
		AlipayPublicKey: string(pubPEM),
		GatewayURL:      "https://openapi.alipay.com/gateway.do",
		NotifyURL:       "https://example.com/api/v1/promotion-orders/callback",
		SignType:        "rsa2",
	})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}
	return gw, privateKey
}

func signPayload(t *testing.T, key *rsa.PrivateKey, payload payment.CallbackPayload) string {
	t.Helper()
	sum := sha256.Sum256([]byte(payment.SignContent(payload)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, sum[:])
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return base64.StdEncoding.EncodeToString(sig)
}

func TestVerifyCallbackRSA2(t *testing.T) {
	gw, key := newTestGateway(t)
	payload := payment.CallbackPayload{
		OrderNo:   "PR20260301120000123456",
		TradeNo:   "2026030122001",
		PayMethod: "alipay",
		Amount:    "900.00",
	}
	payload.Sign = signPayload(t, key, payload)
	if err := gw.VerifyCallback(context.Background(), payload); err != nil {
		t.Fatalf("verify callback failed: %v", err)
	}

	tampered := payload
	tampered.Amount = "1.00"
	if err := gw.VerifyCallback(context.Background(), tampered); !errors.Is(err, payment.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid for tampered amount, got %v", err)
	}

	unsigned := payload
	unsigned.Sign = ""
	if err := gw.VerifyCallback(context.Background(), unsigned); !errors.Is(err, payment.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid for empty sign, got %v", err)
	}
}

func TestCreatePaymentBuildsGatewayURL(t *testing.T) {
	gw, _ := newTestGateway(t)
	result, err := gw.CreatePayment(context.Background(), payment.PayRequest{
		OrderNo: "PR20260301120000123456",
		Amount:  decimal.NewFromInt(900),
		Subject: "信息置顶推广",
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	parsed, err := url.Parse(result.PayURL)
	if err != nil {
		t.Fatalf("parse pay url failed: %v", err)
	}
	query := parsed.Query()
	if query.Get("out_trade_no") != "PR20260301120000123456" || query.Get("total_amount") != "900.00" {
		t.Fatalf("unexpected pay url query: %s", parsed.RawQuery)
	}
	if !strings.HasPrefix(result.PayURL, "https://openapi.alipay.com/gateway.do?") {
		t.Fatalf("unexpected pay url: %s", result.PayURL)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	if _, err := New(Config{AppID: "a", GatewayURL: "https://x", AlipayPublicKey: "not-a-key"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid for bad key, got %v", err)
	}
	if _, err := New(Config{GatewayURL: "https://x"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid for missing app id, got %v", err)
	}
}
