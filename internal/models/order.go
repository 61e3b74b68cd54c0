package models

import "time"

// Order statuses.
const (
	OrderPaid      = "paid"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// Order is a buyer's claim against a listing, pending operator settlement.
// Seq comes from the "orders" counter, independent of the listing counter.
type Order struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	Seq             int64  `gorm:"uniqueIndex;not null"`
	TrackingCode    string `gorm:"size:32;uniqueIndex;not null"`
	ListingID       uint   `gorm:"index;not null"`
	BuyerTelegramID int64  `gorm:"index;not null"`
	PaymentMethod   string `gorm:"size:32"`
	ProofFileID     string `gorm:"size:128"` // opaque payment-proof attachment reference
	BuyerContact    string `gorm:"size:128"`
	Status          string `gorm:"size:16;index;not null"`
	CreatedAt       time.Time

	Listing Listing `gorm:"foreignKey:ListingID"`
}
