package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eddie-kann/astrokiddo/internal/models"
)

// DeckStore is the persistence layer for deck headers and their slide rows.
type DeckStore struct {
	db *gorm.DB
}

// NewDeckStore constructs a deck store once a database handle is supplied.
func NewDeckStore(db *gorm.DB) (*DeckStore, error) {
	if db == nil {
		return nil, errors.New("deck store: db is required")
	}
	return &DeckStore{db: db}, nil
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// FindByID retrieves a deck header by its internal identifier.
func (s *DeckStore) FindByID(ctx context.Context, id string) (*models.Deck, error) {
	ctx = ensuredContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrDeckNotFound
	}

	var deck models.Deck
	if err := s.db.WithContext(ctx).First(&deck, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}
	return &deck, nil
}

// FindByDeckKey retrieves a deck header by its unique cache key.
func (s *DeckStore) FindByDeckKey(ctx context.Context, deckKey string) (*models.Deck, error) {
	ctx = ensuredContext(ctx)

	var deck models.Deck
	if err := s.db.WithContext(ctx).First(&deck, "deck_key = ?", deckKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}
	return &deck, nil
}

// Save persists a deck header, creating or updating as needed. An insert that
// loses a race on the unique deck_key adopts the winning row's identity and
// retries as an update, so the caller's content still lands (last write wins).
func (s *DeckStore) Save(ctx context.Context, deck *models.Deck) error {
	ctx = ensuredContext(ctx)

	if deck == nil {
		return errors.New("deck store: deck is required")
	}

	err := s.db.WithContext(ctx).Save(deck).Error
	if err == nil {
		return nil
	}
	if !isDuplicateKey(err) {
		return err
	}

	winner, findErr := s.FindByDeckKey(ctx, deck.DeckKey)
	if findErr != nil {
		return err
	}

	deck.ID = winner.ID
	deck.CreatedAt = winner.CreatedAt
	return s.db.WithContext(ctx).Save(deck).Error
}

// ReplaceSlides swaps out the full slide collection of a deck in one
// transaction so readers never observe a partially replaced deck.
func (s *DeckStore) ReplaceSlides(ctx context.Context, deckID string, slides []models.Slide) ([]models.Slide, error) {
	ctx = ensuredContext(ctx)

	if strings.TrimSpace(deckID) == "" {
		return nil, errors.New("deck store: deck id is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deck_id = ?", deckID).Delete(&models.Slide{}).Error; err != nil {
			return err
		}
		if len(slides) == 0 {
			return nil
		}
		return tx.Create(&slides).Error
	})
	if err != nil {
		return nil, err
	}
	return slides, nil
}

// SlidesForDeck returns a deck's slides in display order.
func (s *DeckStore) SlidesForDeck(ctx context.Context, deckID string) ([]models.Slide, error) {
	ctx = ensuredContext(ctx)

	var slides []models.Slide
	if err := s.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("position_index ASC").
		Find(&slides).Error; err != nil {
		return nil, err
	}
	return slides, nil
}

// FindSlideByUUID retrieves a slide by its stable external identifier.
func (s *DeckStore) FindSlideByUUID(ctx context.Context, slideUUID string) (*models.Slide, error) {
	ctx = ensuredContext(ctx)

	slideUUID = strings.TrimSpace(slideUUID)
	if slideUUID == "" {
		return nil, ErrSlideNotFound
	}

	var slide models.Slide
	if err := s.db.WithContext(ctx).First(&slide, "slide_uuid = ?", slideUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlideNotFound
		}
		return nil, err
	}
	return &slide, nil
}

// SaveSlide persists updates to a single slide row.
func (s *DeckStore) SaveSlide(ctx context.Context, slide *models.Slide) error {
	ctx = ensuredContext(ctx)

	if slide == nil {
		return errors.New("deck store: slide is required")
	}
	return s.db.WithContext(ctx).Save(slide).Error
}

// ListDecksOptions is an AND-combination of deck list filters. Zero values
// disable the corresponding predicate.
type ListDecksOptions struct {
	TopicContains      string
	GradeLevel         string
	Locale             string
	ProvenanceContains string
	CreatedAfter       *time.Time
	CreatedBefore      *time.Time

	Page    int
	PerPage int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalized clamps the pagination fields to their served values.
func (o ListDecksOptions) Normalized() ListDecksOptions {
	if o.Page < 0 {
		o.Page = 0
	}
	if o.PerPage <= 0 {
		o.PerPage = defaultPageSize
	}
	if o.PerPage > maxPageSize {
		o.PerPage = maxPageSize
	}
	return o
}

// List returns one page of matching deck headers together with the total
// count of the unpaginated filtered set.
func (s *DeckStore) List(ctx context.Context, opts ListDecksOptions) ([]models.Deck, int64, error) {
	ctx = ensuredContext(ctx)

	query := s.db.WithContext(ctx).Model(&models.Deck{})

	if topic := strings.ToLower(strings.TrimSpace(opts.TopicContains)); topic != "" {
		query = query.Where("LOWER(topic) LIKE ?", "%"+topic+"%")
	}
	if grade := strings.TrimSpace(opts.GradeLevel); grade != "" {
		query = query.Where("LOWER(grade_level) = ?", strings.ToLower(grade))
	}
	if locale := strings.TrimSpace(opts.Locale); locale != "" {
		query = query.Where("LOWER(locale) = ?", strings.ToLower(locale))
	}
	if provenance := strings.TrimSpace(opts.ProvenanceContains); provenance != "" {
		query = query.Where("nasa_source LIKE ?", "%"+provenance+"%")
	}
	if opts.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *opts.CreatedAfter)
	}
	if opts.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *opts.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	opts = opts.Normalized()

	var decks []models.Deck
	if err := query.
		Order("created_at DESC").
		Offset(opts.Page * opts.PerPage).
		Limit(opts.PerPage).
		Find(&decks).Error; err != nil {
		return nil, 0, err
	}

	return decks, total, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
