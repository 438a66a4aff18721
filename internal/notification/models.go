package notification

import (
	"encoding/json"
	"time"
)

const (
	TypeNewChat    = "new_chat"
	TypeNewMessage = "new_message"
)

// Notification is the durable record created for a recipient who missed the
// live event. It is the store-and-read side of the fire-and-forget hand-off;
// the live channel never depends on it.
type Notification struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint64 `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`

	Type    string `gorm:"type:varchar(32);index;not null" json:"type"`
	Title   string `gorm:"type:varchar(128);not null" json:"title"`
	Message string `gorm:"type:varchar(255);not null" json:"message"`

	// Data carries the original event payload for deep links.
	Data json.RawMessage `gorm:"type:text" json:"data,omitempty"`

	Read   bool       `gorm:"not null;default:false;index" json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	Priority string `gorm:"type:varchar(16);not null;default:medium" json:"priority"`

	CreatedAt time.Time `gorm:"index:idx_notifications_user_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Notification) TableName() string { return "notifications" }
