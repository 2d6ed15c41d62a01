package public

import (
	"strings"

	"github.com/jixie-rent/server/internal/http/response"
	"github.com/jixie-rent/server/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListMyNotifications 获取当前用户站内通知
func (h *Handler) ListMyNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	notifications, total, err := h.NotificationService.ListByUser(repository.NotificationListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Kind:     strings.TrimSpace(c.Query("kind")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.notification_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, notifications, response.BuildPagination(page, pageSize, total))
}
