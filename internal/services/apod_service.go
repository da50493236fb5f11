package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eddie-kann/astrokiddo/internal/models"
	"github.com/eddie-kann/astrokiddo/pkg/logger"
)

// defaultApodMinDate is the earliest date the picture archive is served for.
// TODO lift this once the archive backfill has run; see the ops runbook.
var defaultApodMinDate = time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)

// ApodFetcher retrieves one astronomy picture of the day from the upstream
// API. The returned row is unsaved; ApodDate may reflect the date the API
// actually answered for, which wins over the requested one.
type ApodFetcher interface {
	FetchByDate(ctx context.Context, date time.Time) (*models.Apod, error)
}

// ApodService caches astronomy pictures of the day. Reads for a stored date
// come from the database; a miss fetches from the upstream API, persists the
// row and, when audio is configured, narrates the explanation best-effort.
type ApodService struct {
	store   *ApodStore
	fetcher ApodFetcher
	tts     *TTSAudioService
	voice   string
	minDate time.Time
	zone    *time.Location
	now     func() time.Time
	log     *zap.Logger
}

// ApodServiceOption customises the ApodService.
type ApodServiceOption func(*ApodService)

// WithApodNow overrides the clock used for the date bounds check.
func WithApodNow(now func() time.Time) ApodServiceOption {
	return func(s *ApodService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithApodMinDate overrides the earliest servable picture date.
func WithApodMinDate(minDate time.Time) ApodServiceOption {
	return func(s *ApodService) {
		if !minDate.IsZero() {
			s.minDate = truncateToDate(minDate)
		}
	}
}

// WithApodZone sets the time zone in which "today" is evaluated.
func WithApodZone(zone *time.Location) ApodServiceOption {
	return func(s *ApodService) {
		if zone != nil {
			s.zone = zone
		}
	}
}

// WithApodNarration enables best-effort narration of newly fetched entries.
func WithApodNarration(tts *TTSAudioService, voice string) ApodServiceOption {
	return func(s *ApodService) {
		s.tts = tts
		s.voice = voice
	}
}

// NewApodService constructs the APOD cache service.
func NewApodService(db *gorm.DB, fetcher ApodFetcher, opts ...ApodServiceOption) (*ApodService, error) {
	if fetcher == nil {
		return nil, errors.New("apod service: fetcher is required")
	}

	store, err := NewApodStore(db)
	if err != nil {
		return nil, err
	}

	svc := &ApodService{
		store:   store,
		fetcher: fetcher,
		minDate: defaultApodMinDate,
		zone:    time.UTC,
		now:     time.Now,
		log:     logger.WithModule("apod"),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// GetOrCreateToday returns the picture for the current date in the configured
// zone, fetching and storing it first if needed.
func (s *ApodService) GetOrCreateToday(ctx context.Context) (*models.Apod, error) {
	return s.GetOrCreate(ctx, s.today())
}

// GetOrCreate returns the picture for a date. Dates before the archive floor
// or after today are rejected.
func (s *ApodService) GetOrCreate(ctx context.Context, date time.Time) (*models.Apod, error) {
	ctx = ensuredContext(ctx)

	target := truncateToDate(date)
	if date.IsZero() {
		target = s.today()
	}

	today := s.today()
	if target.Before(s.minDate) || target.After(today) {
		return nil, fmt.Errorf("%w: date must be between %s and %s",
			ErrApodDateOutOfRange,
			s.minDate.Format("2006-01-02"),
			today.Format("2006-01-02"))
	}

	apod, err := s.store.FindByDate(ctx, target)
	if err == nil {
		return apod, nil
	}
	if !errors.Is(err, ErrApodNotFound) {
		return nil, err
	}

	return s.fetchAndPersist(ctx, target)
}

// List returns one page of stored pictures, newest date first.
func (s *ApodService) List(ctx context.Context, page, perPage int) ([]models.Apod, int64, error) {
	return s.store.List(ensuredContext(ctx), page, perPage)
}

func (s *ApodService) fetchAndPersist(ctx context.Context, target time.Time) (*models.Apod, error) {
	apod, err := s.fetcher.FetchByDate(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrApodFetchFailed, err)
	}
	if apod == nil {
		return nil, fmt.Errorf("%w: empty response for date %s", ErrApodFetchFailed, target.Format("2006-01-02"))
	}

	// The API occasionally answers for a neighbouring date; its date wins.
	if apod.ApodDate.IsZero() {
		apod.ApodDate = target
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := s.store.Save(persistCtx, apod); err != nil {
		return nil, err
	}

	s.log.Info("stored new apod entry",
		zap.String("date", apod.ApodDate.Format("2006-01-02")),
		zap.String("title", apod.Title))

	s.narrate(persistCtx, apod)
	return apod, nil
}

// narrate attaches spoken audio to a stored entry. Failures are logged and
// swallowed; the entry is served without audio.
func (s *ApodService) narrate(ctx context.Context, apod *models.Apod) {
	if s.tts == nil || apod.Explanation == "" {
		return
	}

	if _, err := s.tts.ApodAudio(ctx, apod, s.voice); err != nil {
		s.log.Warn("apod narration failed",
			zap.String("date", apod.ApodDate.Format("2006-01-02")),
			zap.Error(err))
	}
}

func (s *ApodService) today() time.Time {
	return truncateToDate(s.now().In(s.zone))
}
