package router

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/jixie-rent/server/internal/http/handlers/shared"
	"github.com/jixie-rent/server/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) key(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return fmt.Sprintf("%s:%s", r.Prefix, raw)
}

// RateLimitMiddleware Redis 频率限制中间件，未配置 Redis 时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	window := time.Duration(rule.WindowSeconds) * time.Second
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}

		raw := ""
		if keyFunc != nil {
			raw = strings.TrimSpace(keyFunc(c))
		}
		if raw == "" {
			raw = c.ClientIP()
		}
		key := rule.key(raw)

		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := client.TxPipelined(c.Request.Context(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(c.Request.Context(), key)
			pipe.ExpireNX(c.Request.Context(), key, window)
			ttl = pipe.TTL(c.Request.Context(), key)
			return nil
		})
		if err != nil {
			handlershared.RequestLog(c).Warnw("rate_limit_unavailable", "key", key, "error", err)
			response.AbortWithError(c, response.CodeServiceUnavailable, response.ReasonUnavailable, handlershared.Message("error.rate_limit_unavailable"))
			return
		}

		if incr.Val() > int64(rule.MaxRequests) {
			msgKey := strings.TrimSpace(rule.MessageKey)
			if msgKey == "" {
				msgKey = "error.too_many_requests"
			}
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(ttl.Val(), rule.WindowSeconds)))
			response.AbortWithError(c, response.CodeTooManyRequests, response.ReasonTooManyRequests, handlershared.Message(msgKey))
			return
		}

		c.Next()
	}
}

func retryAfterSeconds(ttl time.Duration, windowSeconds int) int {
	seconds := int(ttl / time.Second)
	if seconds < 1 {
		seconds = windowSeconds
	}
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// KeyByIPAndParam 使用 IP + 路径参数作为限流 key
func KeyByIPAndParam(name string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.TrimSpace(c.Param(name))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}
