package chat

import "time"

type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
	StatusExpired Status = "expired"
	StatusClosed  Status = "closed"
)

type PaymentStatus string

const (
	PaymentNone      PaymentStatus = "none"
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
)

// MaxMessageLen bounds message content, matching the storage column.
const MaxMessageLen = 500

// Chat is a conversation between exactly one model and one client.
// Participants are immutable after creation. Counters are denormalized from
// the message log and updated atomically alongside each append.
type Chat struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	ChatID string `gorm:"type:varchar(26);uniqueIndex;not null" json:"chat_id"`

	ModelID  uint64 `gorm:"not null;index:idx_chats_pair,priority:1" json:"model_id"`
	ClientID uint64 `gorm:"not null;index:idx_chats_pair,priority:2" json:"client_id"`

	Status Status `gorm:"type:varchar(16);index;not null;default:active" json:"status"`

	MessageCount       int64 `gorm:"not null;default:0" json:"message_count"`
	ClientMessageCount int64 `gorm:"not null;default:0" json:"client_message_count"`
	ModelMessageCount  int64 `gorm:"not null;default:0" json:"model_message_count"`

	LastMessage       *time.Time `gorm:"index" json:"last_message"`
	LastClientMessage *time.Time `json:"last_client_message"`
	LastModelMessage  *time.Time `json:"last_model_message"`

	// IsPaid unlocks unlimited client messaging. Flipped by the payment
	// collaborator only; the chat core never writes it.
	IsPaid bool `gorm:"not null;default:false" json:"is_paid"`

	// ExpiresAt makes the chat inert once passed. Physical deletion is a
	// separate retention job keyed on this column.
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`

	BlockedBy   *uint64 `json:"blocked_by,omitempty"`
	BlockReason *string `gorm:"type:varchar(255)" json:"block_reason,omitempty"`

	// Informational mirror of the payment collaborator's state.
	PaymentStatus      PaymentStatus `gorm:"type:varchar(16);not null;default:none" json:"payment_status"`
	PaymentAmountCents int64         `gorm:"not null;default:0" json:"payment_amount_cents"`
	PaymentID          *string       `gorm:"type:varchar(128)" json:"payment_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `gorm:"-" json:"messages,omitempty"`
}

func (Chat) TableName() string { return "chats" }

// Role identifies which side of a chat a user is on.
type Role int

const (
	RoleNone Role = iota
	RoleModel
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleModel:
		return "model"
	case RoleClient:
		return "client"
	default:
		return "none"
	}
}

// RoleOf resolves a user id to its side of the chat.
func (c *Chat) RoleOf(userID uint64) Role {
	switch userID {
	case c.ModelID:
		return RoleModel
	case c.ClientID:
		return RoleClient
	default:
		return RoleNone
	}
}

// OtherParticipant returns the id of the participant opposite to userID.
// Returns 0 for a non-participant.
func (c *Chat) OtherParticipant(userID uint64) uint64 {
	switch c.RoleOf(userID) {
	case RoleModel:
		return c.ClientID
	case RoleClient:
		return c.ModelID
	default:
		return 0
	}
}

// Message is append-only; only ReadAt may change after insert, and it
// transitions once from NULL to a timestamp.
type Message struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID   string `gorm:"type:varchar(26);not null;index:idx_chat_msgs_chat" json:"chat_id"`
	SenderID uint64 `gorm:"not null;index" json:"sender_id"`

	Type    string `gorm:"type:varchar(16);not null;default:text" json:"type"`
	Content string `gorm:"type:varchar(500);not null" json:"content"`

	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }
