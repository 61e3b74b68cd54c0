package models

import "time"

// Support ticket statuses.
const (
	TicketOpen   = "open"
	TicketClosed = "closed"
)

// SupportTicket is a free-text message from a user to the operator.
type SupportTicket struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	UserTelegramID int64  `gorm:"index;not null"`
	Message        string `gorm:"type:text;not null"`
	Status         string `gorm:"size:16;default:open;index"`
	CreatedAt      time.Time
}
