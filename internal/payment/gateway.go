package payment

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrSignatureInvalid 回调签名校验失败
	ErrSignatureInvalid = errors.New("payment signature invalid")
	// ErrGatewayUnavailable 支付方式未配置或未启用
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// PayRequest 发起第三方支付请求
type PayRequest struct {
	OrderNo string
	Amount  decimal.Decimal
	Subject string
}

// PayResult 第三方支付跳转/扫码信息
type PayResult struct {
	PayURL string `json:"pay_url"`
	QRCode string `json:"qrcode"`
}

// CallbackPayload 第三方回调载荷
type CallbackPayload struct {
	OrderNo   string
	TradeNo   string
	PayMethod string
	Amount    string
	Sign      string
	Serial    string
}

// Gateway 第三方支付网关（签名校验可插拔）
type Gateway interface {
	Method() string
	CreatePayment(ctx context.Context, req PayRequest) (*PayResult, error)
	VerifyCallback(ctx context.Context, payload CallbackPayload) error
}

// Registry 支付网关注册表
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry 创建网关注册表，nil 网关会被忽略
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, gw := range gateways {
		if gw == nil {
			continue
		}
		r.gateways[strings.ToLower(gw.Method())] = gw
	}
	return r
}

// Get 按支付方式获取网关
func (r *Registry) Get(method string) (Gateway, bool) {
	if r == nil {
		return nil, false
	}
	gw, ok := r.gateways[strings.ToLower(strings.TrimSpace(method))]
	return gw, ok
}

// Methods 已注册的支付方式
func (r *Registry) Methods() []string {
	if r == nil {
		return nil
	}
	methods := make([]string, 0, len(r.gateways))
	for method := range r.gateways {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

// SignContent 回调待签名串：按键名升序拼接 k=v，跳过空值
func SignContent(payload CallbackPayload) string {
	params := map[string]string{
		"amount":     strings.TrimSpace(payload.Amount),
		"order_no":   strings.TrimSpace(payload.OrderNo),
		"pay_method": strings.TrimSpace(payload.PayMethod),
		"trade_no":   strings.TrimSpace(payload.TradeNo),
	}
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+params[key])
	}
	return strings.Join(parts, "&")
}
