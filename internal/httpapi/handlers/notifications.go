package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/modelly/modelly-backend/internal/common"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	unreadOnly := c.Query("unread") == "true"

	items, err := h.Notifications.ListByUser(c.Request.Context(), uid, limit, unreadOnly)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to list notifications")
		return
	}

	unread, err := h.Notifications.UnreadCount(c.Request.Context(), uid)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to list notifications")
		return
	}

	common.OK(c, gin.H{
		"notifications": items,
		"unread_count":  unread,
	})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid notification id")
		return
	}

	if err := h.Notifications.MarkRead(c.Request.Context(), uid, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40420, "notification not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to update notification")
		return
	}

	common.OK(c, gin.H{"read": true})
}
