package models

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a marketplace participant, identified by their Telegram numeric ID.
// Created on first interaction, never deleted.
type User struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	Username   string `gorm:"size:64"`
	FullName   string `gorm:"size:128"`
	Role       string `gorm:"size:16;default:user"`
	JoinedAt   time.Time
}
