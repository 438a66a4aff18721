package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/modelly/modelly-backend/internal/chat"
	"github.com/modelly/modelly-backend/internal/models"
	"github.com/modelly/modelly-backend/internal/notification"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}

func AutoMigrate(gdb *gorm.DB) {
	if err := gdb.AutoMigrate(
		&models.User{},
		&chat.Chat{},
		&chat.Message{},
		&notification.Notification{},
	); err != nil {
		log.Fatalf("automigrate: %v", err)
	}
}
