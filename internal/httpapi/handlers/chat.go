package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/modelly/modelly-backend/internal/chat"
	"github.com/modelly/modelly-backend/internal/common"
	"github.com/modelly/modelly-backend/internal/httpapi/middleware"
	"github.com/modelly/modelly-backend/internal/models"
)

func userIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func roleFromContext(c *gin.Context) string {
	v, ok := c.Get(middleware.RoleKey)
	if !ok {
		return ""
	}
	role, _ := v.(string)
	return role
}

// failChatError maps the chat core's error taxonomy onto the envelope.
// Only curated reasons reach the client.
func failChatError(c *gin.Context, err error) {
	var quota *chat.QuotaExceededError
	var refused *chat.SendRefusedError

	switch {
	case errors.Is(err, chat.ErrChatNotFound):
		common.Fail(c, http.StatusNotFound, 40410, "chat not found")
	case errors.Is(err, chat.ErrModelNotFound):
		common.Fail(c, http.StatusNotFound, 40411, "model not found")
	case errors.Is(err, chat.ErrAccessDenied):
		common.Fail(c, http.StatusForbidden, 40310, chat.ReasonAccessDenied)
	case errors.As(err, &quota):
		common.Fail(c, http.StatusForbidden, 40320, quota.Reason)
	case errors.As(err, &refused):
		common.Fail(c, http.StatusForbidden, 40321, refused.Reason)
	case errors.Is(err, chat.ErrBlockReasonRequired):
		common.Fail(c, http.StatusBadRequest, 10010, "block reason required")
	case errors.Is(err, chat.ErrEmptyMessage):
		common.Fail(c, http.StatusBadRequest, 10011, "message content required")
	case errors.Is(err, chat.ErrMessageTooLong):
		common.Fail(c, http.StatusBadRequest, 10012, "message content too long")
	case errors.Is(err, chat.ErrConflict):
		common.Fail(c, http.StatusConflict, 40910, "chat was modified, retry")
	default:
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}

type startChatReq struct {
	ModelID uint64 `json:"model_id" binding:"required"`
}

func (h *Handler) StartChat(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	// only the client side may open a chat
	if roleFromContext(c) != models.RoleClient {
		common.Fail(c, http.StatusForbidden, 40311, "only clients may start chats")
		return
	}

	var req startChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	chatSession, created, err := h.ChatSvc.StartChat(c.Request.Context(), uid, req.ModelID)
	if err != nil {
		failChatError(c, err)
		return
	}

	common.OK(c, gin.H{
		"chat":    chatSession,
		"created": created,
	})
}

type sendMessageReq struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	chatID := c.Param("chat_id")
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	msg, err := h.ChatSvc.SendMessage(c.Request.Context(), chatID, uid, req.Content)
	if err != nil {
		failChatError(c, err)
		return
	}

	common.OK(c, gin.H{
		"chat_id": chatID,
		"message": msg,
	})
}

func (h *Handler) ListChats(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	status := chat.Status(c.DefaultQuery("status", string(chat.StatusActive)))
	switch status {
	case chat.StatusActive, chat.StatusBlocked, chat.StatusExpired, chat.StatusClosed:
	default:
		common.Fail(c, http.StatusBadRequest, 10013, "invalid status filter")
		return
	}

	chats, err := h.ChatSvc.ListChats(c.Request.Context(), uid, status)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50002, "failed to list chats")
		return
	}

	common.OK(c, gin.H{
		"count": len(chats),
		"chats": chats,
	})
}

func (h *Handler) GetChat(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	chatID := c.Param("chat_id")
	detail, err := h.ChatSvc.GetChat(c.Request.Context(), chatID, uid)
	if err != nil {
		failChatError(c, err)
		return
	}

	common.OK(c, gin.H{"chat": detail})
}

type toggleBlockReq struct {
	Reason string `json:"reason"`
}

func (h *Handler) ToggleBlockChat(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	chatID := c.Param("chat_id")
	var req toggleBlockReq
	_ = c.ShouldBindJSON(&req) // reason optional on unblock

	chatSession, err := h.ChatSvc.ToggleBlock(c.Request.Context(), chatID, uid, req.Reason)
	if err != nil {
		failChatError(c, err)
		return
	}

	common.OK(c, gin.H{"chat": chatSession})
}
