package wechatpay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/payment"

	"github.com/shopspring/decimal"
	"github.com/wechatpay-apiv3/wechatpay-go/core/auth/verifiers"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
)

var (
	ErrConfigInvalid = errors.New("wechatpay config invalid")
)

// Config 微信支付配置（平台公钥验签模式）
type Config struct {
	MerchantID  string
	PublicKeyID string
	PublicKey   string
	CodeURLBase string
	NotifyURL   string
}

// Gateway 微信支付网关
type Gateway struct {
	cfg      Config
	verifier *verifiers.SHA256WithRSAPubkeyVerifier
}

// New 创建微信支付网关
func New(cfg Config) (*Gateway, error) {
	cfg.normalize()
	if cfg.MerchantID == "" || cfg.PublicKeyID == "" || cfg.CodeURLBase == "" {
		return nil, fmt.Errorf("%w: mch_id/public_key_id/code_url_base is required", ErrConfigInvalid)
	}
	publicKey, err := utils.LoadPublicKey(normalizePublicKey(cfg.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("%w: parse public key failed", ErrConfigInvalid)
	}
	return &Gateway{
		cfg:      cfg,
		verifier: verifiers.NewSHA256WithRSAPubkeyVerifier(cfg.PublicKeyID, *publicKey),
	}, nil
}

// Method 支付方式
func (g *Gateway) Method() string {
	return constants.PaymentMethodWechat
}

// CreatePayment 生成 Native 扫码链接
func (g *Gateway) CreatePayment(_ context.Context, req payment.PayRequest) (*payment.PayResult, error) {
	orderNo := strings.TrimSpace(req.OrderNo)
	if orderNo == "" {
		return nil, fmt.Errorf("%w: order_no is required", ErrConfigInvalid)
	}
	fen, err := convertAmountToFen(req.Amount)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("mchid", g.cfg.MerchantID)
	query.Set("out_trade_no", orderNo)
	query.Set("total", fmt.Sprintf("%d", fen))
	if g.cfg.NotifyURL != "" {
		query.Set("notify_url", g.cfg.NotifyURL)
	}
	codeURL := g.cfg.CodeURLBase
	if strings.Contains(codeURL, "?") {
		codeURL += "&" + query.Encode()
	} else {
		codeURL += "?" + query.Encode()
	}
	return &payment.PayResult{PayURL: codeURL, QRCode: codeURL}, nil
}

// VerifyCallback 使用微信支付平台公钥校验回调签名
func (g *Gateway) VerifyCallback(ctx context.Context, payload payment.CallbackPayload) error {
	sign := strings.TrimSpace(payload.Sign)
	if sign == "" {
		return fmt.Errorf("%w: sign is required", payment.ErrSignatureInvalid)
	}
	serial := strings.TrimSpace(payload.Serial)
	if serial == "" {
		serial = g.cfg.PublicKeyID
	}
	if err := g.verifier.Verify(ctx, serial, payment.SignContent(payload), sign); err != nil {
		return fmt.Errorf("%w: %v", payment.ErrSignatureInvalid, err)
	}
	return nil
}

func convertAmountToFen(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	fen := amount.Mul(decimal.NewFromInt(100))
	if !fen.Equal(fen.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount precision exceeds fen", ErrConfigInvalid)
	}
	return fen.IntPart(), nil
}

func normalizePublicKey(raw string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(raw, "\\n", "\n"))
	if normalized == "" {
		return ""
	}
	if !strings.Contains(normalized, "BEGIN") {
		return "-----BEGIN PUBLIC KEY-----\n" + normalized + "\n-----END PUBLIC KEY-----"
	}
	return normalized
}

func (c *Config) normalize() {
	c.MerchantID = strings.TrimSpace(c.MerchantID)
	c.PublicKeyID = strings.TrimSpace(c.PublicKeyID)
	c.CodeURLBase = strings.TrimSpace(c.CodeURLBase)
	c.NotifyURL = strings.TrimSpace(c.NotifyURL)
}
