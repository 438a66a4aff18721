package models

import "time"

const (
	RoleClient = "client"
	RoleModel  = "model"
	RoleAdmin  = "admin"
)

type User struct {
	ID           uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username     string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"username"`
	Name         string     `gorm:"type:varchar(128)" json:"name"`
	PasswordHash string     `gorm:"type:varchar(128);not null" json:"-"`
	Role         string     `gorm:"type:varchar(16);index;not null;default:client" json:"role"`
	ProfilePhoto string     `gorm:"type:varchar(512)" json:"profile_photo"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }
