package public

import "github.com/jixie-rent/server/internal/provider"

// Handler 前台接口处理器入口
// 说明：推广下单、支付、退款、钱包查询与信息搜索均由该处理器提供。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
