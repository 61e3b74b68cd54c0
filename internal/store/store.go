// Package store is the persistence layer for the marketplace: typed CRUD
// over users, listings, orders and support tickets, plus the sequence
// counters behind tracking codes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amanex/amanex/internal/models"
)

// ErrListingUnavailable is returned when an order targets a listing that is
// no longer active at commit time.
var ErrListingUnavailable = errors.New("store: listing is not active")

// Store wraps the database with marketplace operations. The clock is
// injectable so tracking-code dates are testable.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Opts holds parameters for creating a Store.
type Opts struct {
	DB  *gorm.DB
	Now func() time.Time // defaults to time.Now
}

// New creates a Store.
func New(opts Opts) (*Store, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("store: db is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{db: opts.DB, now: now}, nil
}

// FindOrCreateUser returns the user with the given Telegram ID, creating it
// on first interaction. Existing rows are never modified.
func (s *Store) FindOrCreateUser(telegramID int64, username, fullName string) (*models.User, error) {
	var user models.User
	err := s.db.Where("telegram_id = ?", telegramID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("store: find user %d: %w", telegramID, err)
	}

	user = models.User{
		TelegramID: telegramID,
		Username:   username,
		FullName:   fullName,
		Role:       models.RoleUser,
		JoinedAt:   s.now().UTC(),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("store: create user %d: %w", telegramID, err)
	}
	return &user, nil
}

// ListingParams carries the accumulated sell-flow fields for a commit.
type ListingParams struct {
	SellerTelegramID int64
	Category         string
	Subcategory      string
	Description      string
	Images           []string
	Price            string
	Methods          []string
	Details          map[string]string
	SellerContact    string
	Status           string
}

// CreateListing allocates a listing sequence number, derives the tracking
// code and inserts the row, all in one transaction. The returned listing
// carries its committed tracking code. A failure after sequence allocation
// rolls back the allocation with the insert.
func (s *Store) CreateListing(p ListingParams) (*models.Listing, error) {
	imagesJSON, err := json.Marshal(p.Images)
	if err != nil {
		return nil, fmt.Errorf("store: marshal images: %w", err)
	}
	methodsJSON, err := json.Marshal(p.Methods)
	if err != nil {
		return nil, fmt.Errorf("store: marshal methods: %w", err)
	}
	details := p.Details
	if details == nil {
		details = map[string]string{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("store: marshal details: %w", err)
	}

	var listing models.Listing
	err = s.db.Transaction(func(tx *gorm.DB) error {
		seq, txErr := nextSeq(tx, SeqListings)
		if txErr != nil {
			return txErr
		}
		now := s.now().UTC()
		listing = models.Listing{
			Seq:              seq,
			TrackingCode:     TrackingCode(seq, 'S', now),
			SellerTelegramID: p.SellerTelegramID,
			Category:         p.Category,
			Subcategory:      p.Subcategory,
			Description:      p.Description,
			ImagesJSON:       string(imagesJSON),
			Price:            p.Price,
			MethodsJSON:      string(methodsJSON),
			DetailsJSON:      string(detailsJSON),
			SellerContact:    p.SellerContact,
			Status:           p.Status,
			CreatedAt:        now,
		}
		if txErr := tx.Create(&listing).Error; txErr != nil {
			return fmt.Errorf("insert listing: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: create listing: %w", err)
	}
	return &listing, nil
}

// ListingByID fetches a listing by primary key.
func (s *Store) ListingByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: listing %d: %w", id, err)
	}
	return &listing, nil
}

// ListingBySeq fetches a listing by its sequence number.
func (s *Store) ListingBySeq(seq int64) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Where("seq = ?", seq).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: listing seq %d: %w", seq, err)
	}
	return &listing, nil
}

// ActiveListings returns active listings for a category/subcategory pair,
// newest first, capped at limit.
func (s *Store) ActiveListings(category, subcategory string, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Where("status = ? AND category = ? AND subcategory = ?",
		models.ListingActive, category, subcategory).
		Order("id DESC").Limit(limit).Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("store: active listings %s/%s: %w", category, subcategory, err)
	}
	return listings, nil
}

// ListingsByStatus returns listings with the given status, newest first.
func (s *Store) ListingsByStatus(status string, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Where("status = ?", status).
		Order("id DESC").Limit(limit).Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("store: listings by status %s: %w", status, err)
	}
	return listings, nil
}

// ListingsBySeller returns a seller's own listings, newest first.
func (s *Store) ListingsBySeller(telegramID int64, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := s.db.Where("seller_telegram_id = ?", telegramID).
		Order("id DESC").Limit(limit).Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("store: listings by seller %d: %w", telegramID, err)
	}
	return listings, nil
}

// UpdateListingStatus sets a listing's status. Status changes are
// operator-only; order creation never calls this.
func (s *Store) UpdateListingStatus(id uint, status string) error {
	res := s.db.Model(&models.Listing{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("store: update listing %d status: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store: update listing %d status: not found", id)
	}
	return nil
}

// OrderParams carries the accumulated buy-flow fields for a commit.
type OrderParams struct {
	ListingID       uint
	BuyerTelegramID int64
	PaymentMethod   string
	ProofFileID     string
	BuyerContact    string
}

// CreateOrder allocates an order sequence number and inserts the row in one
// transaction. The listing's status is re-checked inside the transaction:
// two buyers can both see a listing as active, but only while it stays
// active does a commit succeed. Returns ErrListingUnavailable otherwise.
// The listing row itself is never mutated here.
func (s *Store) CreateOrder(p OrderParams) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		if txErr := tx.First(&listing, p.ListingID).Error; txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return ErrListingUnavailable
			}
			return fmt.Errorf("load listing %d: %w", p.ListingID, txErr)
		}
		if listing.Status != models.ListingActive {
			return ErrListingUnavailable
		}

		seq, txErr := nextSeq(tx, SeqOrders)
		if txErr != nil {
			return txErr
		}
		now := s.now().UTC()
		order = models.Order{
			Seq:             seq,
			TrackingCode:    TrackingCode(seq, 'B', now),
			ListingID:       p.ListingID,
			BuyerTelegramID: p.BuyerTelegramID,
			PaymentMethod:   p.PaymentMethod,
			ProofFileID:     p.ProofFileID,
			BuyerContact:    p.BuyerContact,
			Status:          models.OrderPaid,
			CreatedAt:       now,
		}
		if txErr := tx.Create(&order).Error; txErr != nil {
			return fmt.Errorf("insert order: %w", txErr)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrListingUnavailable) {
			return nil, ErrListingUnavailable
		}
		return nil, fmt.Errorf("store: create order: %w", err)
	}
	return &order, nil
}

// OrderBySeq fetches an order by its sequence number.
func (s *Store) OrderBySeq(seq int64) (*models.Order, error) {
	var order models.Order
	err := s.db.Where("seq = ?", seq).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: order seq %d: %w", seq, err)
	}
	return &order, nil
}

// OrdersByStatus returns orders with the given status, newest first.
func (s *Store) OrdersByStatus(status string, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Where("status = ?", status).
		Order("id DESC").Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("store: orders by status %s: %w", status, err)
	}
	return orders, nil
}

// OrdersByBuyer returns a buyer's own orders, newest first.
func (s *Store) OrdersByBuyer(telegramID int64, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Where("buyer_telegram_id = ?", telegramID).
		Order("id DESC").Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("store: orders by buyer %d: %w", telegramID, err)
	}
	return orders, nil
}

// CreateTicket stores a support ticket.
func (s *Store) CreateTicket(telegramID int64, message string) (*models.SupportTicket, error) {
	ticket := models.SupportTicket{
		UserTelegramID: telegramID,
		Message:        message,
		Status:         models.TicketOpen,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.db.Create(&ticket).Error; err != nil {
		return nil, fmt.Errorf("store: create ticket: %w", err)
	}
	return &ticket, nil
}
