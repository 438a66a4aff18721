package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// CreateChat persists a new chat together with its seed system message as a
// single transaction.
func (r *Repo) CreateChat(ctx context.Context, c *Chat, seed *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		seed.ChatID = c.ChatID
		return tx.Create(seed).Error
	})
}

func (r *Repo) GetByChatID(ctx context.Context, chatID string) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindActivePair returns the active chat for a (model, client) pair, or
// gorm.ErrRecordNotFound. At most one such chat exists; blocked or expired
// duplicates for the same pair are permitted to accumulate.
func (r *Repo) FindActivePair(ctx context.Context, modelID, clientID uint64) (*Chat, error) {
	var c Chat
	if err := r.db.WithContext(ctx).
		Where("model_id = ? AND client_id = ? AND status = ?", modelID, clientID, StatusActive).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns the user's chats for one status, newest activity first,
// without message bodies.
func (r *Repo) ListByUser(ctx context.Context, userID uint64, status Status) ([]Chat, error) {
	var chats []Chat
	if err := r.db.WithContext(ctx).
		Where("status = ? AND (model_id = ? OR client_id = ?)", status, userID, userID).
		Order("last_message DESC").
		Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

// ListChatIDsByUser returns every chat id the user participates in,
// regardless of status. Used to join realtime rooms on connect.
func (r *Repo) ListChatIDsByUser(ctx context.Context, userID uint64) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&Chat{}).
		Where("model_id = ? OR client_id = ?", userID, userID).
		Pluck("chat_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListMessages returns the full ordered log, oldest first.
func (r *Repo) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// AppendText inserts a text message and bumps the denormalized counters in
// one transaction. The counter update is guarded by status = 'active', so a
// concurrent block or expiry makes the whole append fail with ErrConflict
// instead of leaving a message on a non-active chat.
func (r *Repo) AppendText(ctx context.Context, c *Chat, senderID uint64, role Role, content string, at time.Time) (*Message, error) {
	msg := &Message{
		ChatID:    c.ChatID,
		SenderID:  senderID,
		Type:      MessageTypeText,
		Content:   content,
		CreatedAt: at,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := map[string]any{
			"message_count": gorm.Expr("message_count + 1"),
			"last_message":  at,
		}
		switch role {
		case RoleClient:
			cols["client_message_count"] = gorm.Expr("client_message_count + 1")
			cols["last_client_message"] = at
		case RoleModel:
			cols["model_message_count"] = gorm.Expr("model_message_count + 1")
			cols["last_model_message"] = at
		default:
			return ErrAccessDenied
		}

		res := tx.Model(&Chat{}).
			Where("id = ? AND status = ?", c.ID, StatusActive).
			UpdateColumns(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Block transitions active -> blocked and records the system message. The
// status guard turns a lost race (double block, block-vs-expire) into
// ErrConflict.
func (r *Repo) Block(ctx context.Context, c *Chat, byUserID uint64, reason string, at time.Time) (*Message, error) {
	msg := &Message{
		ChatID:    c.ChatID,
		SenderID:  byUserID,
		Type:      MessageTypeSystem,
		Content:   "Chat bloqueado: " + reason,
		CreatedAt: at,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Chat{}).
			Where("id = ? AND status = ?", c.ID, StatusActive).
			UpdateColumns(map[string]any{
				"status":        StatusBlocked,
				"blocked_by":    byUserID,
				"block_reason":  reason,
				"message_count": gorm.Expr("message_count + 1"),
				"last_message":  at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Unblock transitions blocked -> active, clears the block fields and records
// the system message.
func (r *Repo) Unblock(ctx context.Context, c *Chat, at time.Time) (*Message, error) {
	msg := &Message{
		ChatID:    c.ChatID,
		SenderID:  c.ModelID,
		Type:      MessageTypeSystem,
		Content:   "Chat desbloqueado",
		CreatedAt: at,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Chat{}).
			Where("id = ? AND status = ?", c.ID, StatusBlocked).
			UpdateColumns(map[string]any{
				"status":        StatusActive,
				"blocked_by":    nil,
				"block_reason":  nil,
				"message_count": gorm.Expr("message_count + 1"),
				"last_message":  at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkExpired opportunistically flips active -> expired. Losing the race is
// fine: some other path already moved the chat out of active.
func (r *Repo) MarkExpired(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&Chat{}).
		Where("id = ? AND status = ?", id, StatusActive).
		UpdateColumn("status", StatusExpired).Error
}

// MarkMessagesRead stamps read_at on the counterpart's unread messages.
// read_at only ever transitions NULL -> timestamp.
func (r *Repo) MarkMessagesRead(ctx context.Context, chatID string, readerID uint64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&Message{}).
		Where("chat_id = ? AND sender_id <> ? AND read_at IS NULL", chatID, readerID).
		UpdateColumn("read_at", at).Error
}

// MarkPaid mirrors a payment confirmation from the payment collaborator.
// The chat core only ever reads these fields.
func (r *Repo) MarkPaid(ctx context.Context, chatID string, paymentID string, amountCents int64) error {
	res := r.db.WithContext(ctx).Model(&Chat{}).
		Where("chat_id = ?", chatID).
		UpdateColumns(map[string]any{
			"is_paid":              true,
			"payment_status":       PaymentCompleted,
			"payment_amount_cents": amountCents,
			"payment_id":           paymentID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsNotFound reports whether err is the storage-layer missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
