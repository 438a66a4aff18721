package profile

import (
	"context"

	"gorm.io/gorm"

	"github.com/modelly/modelly-backend/internal/chat"
	"github.com/modelly/modelly-backend/internal/models"
)

// Directory resolves user ids to display metadata for chat enrichment.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) Profile(ctx context.Context, userID uint64) (*chat.Profile, error) {
	var u models.User
	if err := d.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, err
	}
	return &chat.Profile{
		ID:           u.ID,
		Name:         u.Name,
		Role:         u.Role,
		ProfilePhoto: u.ProfilePhoto,
	}, nil
}
