package models

import (
	"encoding/json"
	"time"
)

// Listing statuses.
const (
	ListingPending  = "pending"
	ListingActive   = "active"
	ListingRejected = "rejected"
	ListingSold     = "sold"
)

// Listing is a seller's published offer for an account. Seq is allocated
// exactly once at creation from the "listings" counter; TrackingCode is
// derived from it and stable for the lifetime of the row.
type Listing struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	Seq              int64  `gorm:"uniqueIndex;not null"`
	TrackingCode     string `gorm:"size:32;uniqueIndex;not null"`
	SellerTelegramID int64  `gorm:"index;not null"`
	Category         string `gorm:"size:32;index:idx_listings_cat_sub"`
	Subcategory      string `gorm:"size:64;index:idx_listings_cat_sub"`
	Description      string `gorm:"type:text"`
	ImagesJSON       string `gorm:"type:text"` // JSON array of attachment file IDs
	Price            string `gorm:"size:64"`   // free text, multiple currencies
	MethodsJSON      string `gorm:"type:text"` // JSON array of payment method keys
	DetailsJSON      string `gorm:"type:text"` // JSON object: method key -> destination detail
	SellerContact    string `gorm:"size:128"`
	Status           string `gorm:"size:16;index;not null"`
	CreatedAt        time.Time
}

// Images decodes the stored attachment references.
func (l *Listing) Images() []string {
	var imgs []string
	json.Unmarshal([]byte(l.ImagesJSON), &imgs)
	return imgs
}

// Methods decodes the accepted payment method keys.
func (l *Listing) Methods() []string {
	var keys []string
	json.Unmarshal([]byte(l.MethodsJSON), &keys)
	return keys
}

// Details decodes the per-method destination details.
func (l *Listing) Details() map[string]string {
	details := map[string]string{}
	json.Unmarshal([]byte(l.DetailsJSON), &details)
	return details
}
