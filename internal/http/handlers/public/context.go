package public

import (
	handlershared "github.com/jixie-rent/server/internal/http/handlers/shared"
	"github.com/jixie-rent/server/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.CurrentUserID(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func parsePagination(c *gin.Context) (int, int) {
	return handlershared.ParsePagination(c)
}

// parsePathID 解析路径中的正整数ID
func parsePathID(c *gin.Context, name, invalidKey string) (uint, bool) {
	id, ok := handlershared.ParseUint(c.Param(name))
	if !ok {
		respondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return id, true
}

// parseQueryUint 可选的 uint 查询参数，缺省或非法时为 0
func parseQueryUint(c *gin.Context, name string) uint {
	id, _ := handlershared.ParseUint(c.Query(name))
	return id
}
