package wechatpay

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
		MerchantID:  "1900000109",
		PublicKeyID: "PUB_KEY_ID_0001",
		PublicKey:   string(pubPEM),
		CodeURLBase: "weixin://wxpay/bizpayurl",
	})
	if err != nil {
		t.Fatalf("new gateway failed: %v", err)
	}
	return gw, privateKey
}

func sign(t *testing.T, key *rsa.PrivateKey, payload payment.CallbackPayload) string {
	t.Helper()
	sum := sha256.Sum256([]byte(payment.SignContent(payload)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, sum[:])
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return base64.StdEncoding.EncodeToString(sig)
}

func TestVerifyCallback(t *testing.T) {
	gw, key := newTestGateway(t)
	payload := payment.CallbackPayload{
		OrderNo:   "PR20260301120000654321",
		TradeNo:   "4200000000202603010001",
		PayMethod: "wechat",
		Amount:    "300.00",
	}
	payload.Sign = sign(t, key, payload)

	if err := gw.VerifyCallback(context.Background(), payload); err != nil {
		t.Fatalf("verify callback failed: %v", err)
	}

	withSerial := payload
	withSerial.Serial = "PUB_KEY_ID_0001"
	if err := gw.VerifyCallback(context.Background(), withSerial); err != nil {
		t.Fatalf("verify callback with serial failed: %v", err)
	}

	wrongSerial := payload
	wrongSerial.Serial = "PUB_KEY_ID_9999"
	if err := gw.VerifyCallback(context.Background(), wrongSerial); !errors.Is(err, payment.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid for wrong serial, got %v", err)
	}

	tampered := payload
	tampered.TradeNo = "4200000000202603019999"
	if err := gw.VerifyCallback(context.Background(), tampered); !errors.Is(err, payment.ErrSignatureInvalid) {
		t.Fatalf("expected signature invalid for tampered payload, got %v", err)
	}
}

func TestCreatePaymentCodeURL(t *testing.T) {
	gw, _ := newTestGateway(t)
	result, err := gw.CreatePayment(context.Background(), payment.PayRequest{
		OrderNo: "PR20260301120000654321",
		Amount:  decimal.RequireFromString("300.50"),
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if !strings.HasPrefix(result.QRCode, "weixin://wxpay/bizpayurl?") || !strings.Contains(result.QRCode, "total=30050") {
		t.Fatalf("unexpected code url: %s", result.QRCode)
	}

	if _, err := gw.CreatePayment(context.Background(), payment.PayRequest{
		OrderNo: "PR1",
		Amount:  decimal.RequireFromString("0.001"),
	}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected precision error, got %v", err)
	}
}

func TestNewRequiresPublicKey(t *testing.T) {
	_, err := New(Config{MerchantID: "1", PublicKeyID: "k", CodeURLBase: "weixin://x", PublicKey: "bad"})
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid, got %v", err)
	}
}
