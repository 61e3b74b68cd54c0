package models

// Sequence is a named monotonic counter backing tracking codes. Rows are
// created lazily on first allocation and never decremented or reset.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null"`
}
