package alipay

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/payment"
)

var (
	ErrConfigInvalid = errors.New("alipay config invalid")
)

// Config 支付宝配置。
type Config struct {
	AppID           string
	AlipayPublicKey string
	GatewayURL      string
	NotifyURL       string
	SignType        string
}

// Gateway 支付宝网关。
type Gateway struct {
	cfg       Config
	publicKey *rsa.PublicKey
}

// New 创建支付宝网关，公钥解析失败时返回错误。
func New(cfg Config) (*Gateway, error) {
	cfg.normalize()
	if cfg.AppID == "" || cfg.GatewayURL == "" {
		return nil, fmt.Errorf("%w: app_id/gateway is required", ErrConfigInvalid)
	}
	if cfg.SignType != "RSA2" && cfg.SignType != "RSA" {
		return nil, fmt.Errorf("%w: sign_type is invalid", ErrConfigInvalid)
	}
	publicKey, err := parsePublicKey(cfg.AlipayPublicKey)
	if err != nil {
		return nil, err
	}
	return &Gateway{cfg: cfg, publicKey: publicKey}, nil
}

// Method 支付方式
func (g *Gateway) Method() string {
	return constants.PaymentMethodAlipay
}

// CreatePayment 生成支付宝收银台跳转链接，不改变订单状态。
func (g *Gateway) CreatePayment(_ context.Context, req payment.PayRequest) (*payment.PayResult, error) {
	if strings.TrimSpace(req.OrderNo) == "" || !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: order_no/amount is required", ErrConfigInvalid)
	}
	params := map[string]string{
		"app_id":       g.cfg.AppID,
		"method":       "alipay.trade.page.pay",
		"charset":      "utf-8",
		"sign_type":    g.cfg.SignType,
		"notify_url":   g.cfg.NotifyURL,
		"out_trade_no": req.OrderNo,
		"total_amount": req.Amount.StringFixed(2),
		"subject":      req.Subject,
	}
	payURL := buildGatewayPayURL(g.cfg.GatewayURL, params)
	return &payment.PayResult{PayURL: payURL, QRCode: payURL}, nil
}

// VerifyCallback 校验回调签名（RSA2 为 SHA256，RSA 为 SHA1）。
func (g *Gateway) VerifyCallback(_ context.Context, payload payment.CallbackPayload) error {
	sign := strings.TrimSpace(payload.Sign)
	if sign == "" {
		return fmt.Errorf("%w: sign is required", payment.ErrSignatureInvalid)
	}
	content := payment.SignContent(payload)
	if content == "" {
		return fmt.Errorf("%w: sign content is empty", payment.ErrSignatureInvalid)
	}
	signBytes, err := base64.StdEncoding.DecodeString(sign)
	if err != nil {
		return fmt.Errorf("%w: decode sign failed", payment.ErrSignatureInvalid)
	}
	var digest []byte
	hashType := crypto.SHA256
	if g.cfg.SignType == "RSA" {
		sum := sha1.Sum([]byte(content))
		digest = sum[:]
		hashType = crypto.SHA1
	} else {
		sum := sha256.Sum256([]byte(content))
		digest = sum[:]
	}
	if err := rsa.VerifyPKCS1v15(g.publicKey, hashType, digest, signBytes); err != nil {
		return fmt.Errorf("%w: verify failed", payment.ErrSignatureInvalid)
	}
	return nil
}

func buildGatewayPayURL(gatewayURL string, params map[string]string) string {
	form := url.Values{}
	for key, value := range params {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		form.Set(key, value)
	}
	parsed, err := url.Parse(gatewayURL)
	if err != nil {
		if strings.Contains(gatewayURL, "?") {
			return gatewayURL + "&" + form.Encode()
		}
		return gatewayURL + "?" + form.Encode()
	}
	parsed.RawQuery = form.Encode()
	return parsed.String()
}

func parsePublicKey(raw string) (*rsa.PublicKey, error) {
	normalized := strings.TrimSpace(strings.ReplaceAll(raw, "\\n", "\n"))
	if normalized == "" {
		return nil, fmt.Errorf("%w: public key is empty", ErrConfigInvalid)
	}
	if !strings.Contains(normalized, "BEGIN") {
		normalized = "-----BEGIN PUBLIC KEY-----\n" + normalized + "\n-----END PUBLIC KEY-----"
	}
	block, _ := pem.Decode([]byte(normalized))
	if block == nil {
		return nil, fmt.Errorf("%w: public key pem decode failed", ErrConfigInvalid)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err == nil {
		if publicKey, ok := parsed.(*rsa.PublicKey); ok {
			return publicKey, nil
		}
		return nil, fmt.Errorf("%w: public key type is not rsa", ErrConfigInvalid)
	}
	publicKey, parseErr := x509.ParsePKCS1PublicKey(block.Bytes)
	if parseErr == nil {
		return publicKey, nil
	}
	return nil, fmt.Errorf("%w: parse public key failed", ErrConfigInvalid)
}

func (c *Config) normalize() {
	c.AppID = strings.TrimSpace(c.AppID)
	c.GatewayURL = strings.TrimSpace(c.GatewayURL)
	c.NotifyURL = strings.TrimSpace(c.NotifyURL)
	c.SignType = strings.ToUpper(strings.TrimSpace(c.SignType))
	if c.SignType == "" {
		c.SignType = "RSA2"
	}
}
