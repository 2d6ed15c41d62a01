package shared

import (
	"github.com/jixie-rent/server/internal/http/response"
	"github.com/jixie-rent/server/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 按消息标识返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithReason(c, code, "", key, err)
}

// RespondErrorWithReason 返回带机器可读错误码的响应。
func RespondErrorWithReason(c *gin.Context, code int, reason, key string, err error) {
	appErr := response.WrapError(code, reason, Message(key), err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"reason", appErr.Reason,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Reason, appErr.Message)
}
