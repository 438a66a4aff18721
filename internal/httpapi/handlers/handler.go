package handlers

import (
	"gorm.io/gorm"

	"github.com/modelly/modelly-backend/internal/chat"
	"github.com/modelly/modelly-backend/internal/config"
	"github.com/modelly/modelly-backend/internal/email"
	"github.com/modelly/modelly-backend/internal/notification"
	"github.com/modelly/modelly-backend/internal/store/redisstore"
)

type Handler struct {
	DB            *gorm.DB
	Cfg           config.Config
	Redis         *redisstore.Store
	SMTPSetting   email.SMTPConfig
	ChatSvc       *chat.Service
	Notifications *notification.Repo
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, chatSvc *chat.Service) *Handler {
	return &Handler{
		DB:    db,
		Cfg:   cfg,
		Redis: rds,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
		ChatSvc:       chatSvc,
		Notifications: notification.NewRepo(db),
	}
}
