package shared

import (
	"strconv"
	"strings"

	"github.com/jixie-rent/server/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UserIDKey JWT 中间件写入上下文的用户ID键
const UserIDKey = "user_id"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CurrentUserID 读取已认证用户ID，失败时已写入错误响应
func CurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}
	uid, ok := value.(uint)
	if !ok {
		RespondError(c, response.CodeInternal, "error.user_id_type_invalid", nil)
		return 0, false
	}
	if uid == 0 {
		RespondError(c, response.CodeUnauthorized, "error.user_id_invalid", nil)
		return 0, false
	}
	return uid, true
}

// NormalizePagination 页码至少为 1，每页条数默认 20 且不超过 100
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}

// ParsePagination 解析 page / page_size 查询参数
func ParsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return NormalizePagination(page, pageSize)
}

// ParseUint 解析十进制正整数，非法或为 0 时返回 false
func ParseUint(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
