package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/modelly/modelly-backend/internal/common"
)

// paymentWebhookReq is the payment collaborator's confirmation callback.
// The chat core only mirrors these fields; it never validates amounts.
type paymentWebhookReq struct {
	ChatID      string `json:"chat_id" binding:"required"`
	PaymentID   string `json:"payment_id" binding:"required"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status" binding:"required"`
}

func (h *Handler) PaymentWebhook(c *gin.Context) {
	if h.Cfg.PaymentWebhookSecret != "" {
		// webhook is authenticated by a shared secret header, not a user token
		if c.GetHeader("X-Webhook-Secret") != h.Cfg.PaymentWebhookSecret {
			common.Fail(c, http.StatusUnauthorized, 40103, "unauthorized")
			return
		}
	}

	var req paymentWebhookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	// only confirmed payments unlock messaging
	if req.Status != "completed" {
		common.OK(c, gin.H{"ignored": true})
		return
	}

	if err := h.ChatSvc.MarkPaid(c.Request.Context(), req.ChatID, req.PaymentID, req.AmountCents); err != nil {
		failChatError(c, err)
		return
	}

	common.OK(c, gin.H{"chat_id": req.ChatID, "is_paid": true})
}
