package store

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amanex/amanex/internal/models"
)

// Counter names used by the marketplace.
const (
	SeqListings = "listings"
	SeqOrders   = "orders"
)

// NextSeq allocates the next value of the named counter in its own
// transaction. The first allocation for a name returns 1. Committed
// allocations are gap-free; a caller whose enclosing transaction rolls back
// may leave a gap, which is accepted.
func (s *Store) NextSeq(name string) (int64, error) {
	var value int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		value, txErr = nextSeq(tx, name)
		return txErr
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// nextSeq increments the named counter inside tx and returns the new value.
// The increment is a single UPDATE so concurrent callers serialize on the
// row instead of racing a read-then-write.
func nextSeq(tx *gorm.DB, name string) (int64, error) {
	res := tx.Model(&models.Sequence{}).
		Where("name = ?", name).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("store: increment sequence %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		// Lazily create the counter on first allocation.
		seq := models.Sequence{Name: name, Value: 1}
		if err := tx.Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("store: init sequence %q: %w", name, err)
		}
		return 1, nil
	}

	var seq models.Sequence
	if err := tx.First(&seq, "name = ?", name).Error; err != nil {
		return 0, fmt.Errorf("store: read sequence %q: %w", name, err)
	}
	return seq.Value, nil
}

// TrackingCode derives the human-readable code for a sequence value:
// the value zero-padded to 3 digits, a kind letter, and the UTC date.
// Example: seq 7, kind 'S', 2025-08-14 -> "007-S20250814". Values past 999
// widen; uniqueness comes from the sequence itself, not the padding.
func TrackingCode(seq int64, kind byte, t time.Time) string {
	return fmt.Sprintf("%03d-%c%s", seq, kind, t.UTC().Format("20060102"))
}
