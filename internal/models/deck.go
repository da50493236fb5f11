package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deck is the persistent header for a generated lesson deck. One row exists
// per cache key; regeneration refreshes the row in place rather than creating
// a new one.
type Deck struct {
	BaseModel

	DeckKey     string  `gorm:"not null;uniqueIndex" json:"deck_key"`
	Topic       string  `gorm:"not null;index" json:"topic"`
	GradeLevel  *string `gorm:"size:64;index" json:"grade_level"`
	Locale      *string `gorm:"size:32;index" json:"locale"`
	Title       string  `json:"title"`
	Description string  `json:"description"`

	// NasaSource records how the deck was requested; ContentJson holds the
	// serialized logical deck minus its slides, which live in normalized rows.
	NasaSource  datatypes.JSON `json:"nasa_source"`
	ContentJson datatypes.JSON `json:"content_json"`

	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`

	Slides []Slide `gorm:"foreignKey:DeckID" json:"slides,omitempty"`
}

// BeforeDelete removes owned slides so no orphaned rows survive a deck delete.
func (d *Deck) BeforeDelete(tx *gorm.DB) error {
	return tx.Where("deck_id = ?", d.ID).Delete(&Slide{}).Error
}

// Expired reports whether the deck's validity window has lapsed at the given instant.
// A deck with no expiry recorded is treated as expired so it gets regenerated.
func (d *Deck) Expired(now time.Time) bool {
	return d.ExpiresAt == nil || d.ExpiresAt.Before(now)
}
