package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/eddie-kann/astrokiddo/internal/models"
)

// ApodStore is the persistence layer for astronomy picture rows.
type ApodStore struct {
	db *gorm.DB
}

// NewApodStore constructs an APOD store.
func NewApodStore(db *gorm.DB) (*ApodStore, error) {
	if db == nil {
		return nil, errors.New("apod store: db is required")
	}
	return &ApodStore{db: db}, nil
}

// FindByDate retrieves the stored picture for a calendar date, if any.
func (s *ApodStore) FindByDate(ctx context.Context, date time.Time) (*models.Apod, error) {
	ctx = ensuredContext(ctx)

	var apod models.Apod
	err := s.db.WithContext(ctx).
		First(&apod, "apod_date = ?", truncateToDate(date)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApodNotFound
		}
		return nil, err
	}
	return &apod, nil
}

// Save persists an APOD row, recovering from a lost insert race on the unique
// date the same way DeckStore.Save does for deck keys.
func (s *ApodStore) Save(ctx context.Context, apod *models.Apod) error {
	ctx = ensuredContext(ctx)

	if apod == nil {
		return errors.New("apod store: apod is required")
	}
	apod.ApodDate = truncateToDate(apod.ApodDate)

	err := s.db.WithContext(ctx).Save(apod).Error
	if err == nil {
		return nil
	}
	if !isDuplicateKey(err) {
		return err
	}

	winner, findErr := s.FindByDate(ctx, apod.ApodDate)
	if findErr != nil {
		return err
	}

	apod.ID = winner.ID
	apod.CreatedAt = winner.CreatedAt
	return s.db.WithContext(ctx).Save(apod).Error
}

// List returns one page of stored pictures, newest date first, plus the
// total number of stored rows.
func (s *ApodStore) List(ctx context.Context, page, perPage int) ([]models.Apod, int64, error) {
	ctx = ensuredContext(ctx)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Apod{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 0 {
		page = 0
	}
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}

	var apods []models.Apod
	if err := s.db.WithContext(ctx).
		Order("apod_date DESC").
		Offset(page * perPage).
		Limit(perPage).
		Find(&apods).Error; err != nil {
		return nil, 0, err
	}

	return apods, total, nil
}

// truncateToDate drops the time-of-day component so the unique date index
// compares calendar days, not instants.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
