package shared

// messages 错误消息表，键为稳定的消息标识
var messages = map[string]string{
	"error.bad_request":                 "请求参数错误",
	"error.unauthorized":                "未登录或登录已失效",
	"error.forbidden":                   "无权操作",
	"error.user_id_invalid":             "用户ID无效",
	"error.user_id_type_invalid":        "用户ID类型错误",
	"error.order_not_found":             "推广订单不存在",
	"error.order_forbidden":             "无权操作该推广订单",
	"error.order_status_invalid":        "订单状态不允许该操作",
	"error.order_create_failed":         "创建推广订单失败",
	"error.order_update_failed":         "更新推广订单失败",
	"error.order_fetch_failed":          "获取推广订单失败",
	"error.order_id_invalid":            "订单ID无效",
	"error.promotion_tier_invalid":      "推广档位无效",
	"error.promotion_scope_invalid":     "推广地域范围无效",
	"error.promotion_duration_invalid":  "推广时长无效",
	"error.promotion_price_missing":     "未配置该档位价格",
	"error.listing_not_found":           "信息不存在",
	"error.listing_forbidden":           "只能推广自己发布的信息",
	"error.listing_not_published":       "信息未发布，无法推广",
	"error.listing_fetch_failed":        "获取信息列表失败",
	"error.payment_method_invalid":      "支付方式无效",
	"error.payment_gateway_failed":      "支付网关请求失败",
	"error.payment_amount_mismatch":     "支付金额不一致",
	"error.payment_signature_invalid":   "支付签名校验失败",
	"error.payment_callback_invalid":    "支付回调参数错误",
	"error.wallet_insufficient_balance": "余额不足",
	"error.wallet_fetch_failed":         "获取钱包信息失败",
	"error.wallet_reference_conflict":   "钱包流水参考号冲突",
	"error.notification_fetch_failed":   "获取通知失败",
	"error.queue_unavailable":           "任务队列不可用",
	"error.rate_limit_unavailable":      "限流服务不可用",
	"error.too_many_requests":           "请求过于频繁，请稍后再试",
	"error.internal":                    "服务器内部错误",
}

// Message 返回消息标识对应的文本，未登记时原样返回
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
