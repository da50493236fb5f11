package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eddie-kann/astrokiddo/internal/models"
	"github.com/eddie-kann/astrokiddo/pkg/logger"
	"github.com/eddie-kann/astrokiddo/pkg/metrics"
)

// defaultDeckValidity is how long a generated deck is served from cache
// before a request for it triggers regeneration.
const defaultDeckValidity = 60 * 24 * time.Hour

const provenanceSource = "NASA images + AI enrichment"

// GenerateDeckRequest carries the raw user inputs for deck generation.
type GenerateDeckRequest struct {
	Topic      string `json:"topic"`
	GradeLevel string `json:"gradeLevel,omitempty"`
	Locale     string `json:"locale,omitempty"`
}

// LessonGenerator is the external capability that produces a fresh deck model
// for a request. It may fail; no retry policy is applied here.
type LessonGenerator interface {
	Generate(ctx context.Context, req GenerateDeckRequest) (*models.LessonDeck, error)
}

// DeckService is the deck cache engine. It derives cache keys, decides
// whether a stored deck is still valid, regenerates on miss or expiry, and
// reconciles the normalized slide rows with the stored content blob on reads.
type DeckService struct {
	store     *DeckStore
	generator LessonGenerator
	validity  time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// DeckServiceOption customises the DeckService.
type DeckServiceOption func(*DeckService)

// WithNow overrides the clock used for expiry decisions, primarily for testing.
func WithNow(now func() time.Time) DeckServiceOption {
	return func(s *DeckService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithValidity overrides the deck validity window.
func WithValidity(d time.Duration) DeckServiceOption {
	return func(s *DeckService) {
		if d > 0 {
			s.validity = d
		}
	}
}

// NewDeckService constructs the deck cache engine.
func NewDeckService(db *gorm.DB, generator LessonGenerator, opts ...DeckServiceOption) (*DeckService, error) {
	if generator == nil {
		return nil, errors.New("deck service: generator is required")
	}

	store, err := NewDeckStore(db)
	if err != nil {
		return nil, err
	}

	svc := &DeckService{
		store:     store,
		generator: generator,
		validity:  defaultDeckValidity,
		now:       time.Now,
		log:       logger.WithModule("decks"),
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// FindOrGenerate returns the cached deck for a request, regenerating it first
// when no deck exists for the derived key or the stored one has expired.
func (s *DeckService) FindOrGenerate(ctx context.Context, req GenerateDeckRequest) (*models.LessonDeck, error) {
	ctx = ensuredContext(ctx)

	deckKey := ComputeDeckKey(req.Topic, req.GradeLevel, req.Locale)

	deck, err := s.store.FindByDeckKey(ctx, deckKey)
	switch {
	case err == nil:
		if !deck.Expired(s.now()) {
			metrics.DeckRequests.WithLabelValues("hit").Inc()
			return s.toModelWithSlides(ctx, deck)
		}
		metrics.DeckRequests.WithLabelValues("expired").Inc()
		return s.regenerateAndSave(ctx, deck, req, deckKey)
	case errors.Is(err, ErrDeckNotFound):
		metrics.DeckRequests.WithLabelValues("miss").Inc()
		return s.regenerateAndSave(ctx, nil, req, deckKey)
	default:
		return nil, err
	}
}

// GetByID returns the merged logical view of a stored deck.
func (s *DeckService) GetByID(ctx context.Context, id string) (*models.LessonDeck, error) {
	ctx = ensuredContext(ctx)

	deck, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toModelWithSlides(ctx, deck)
}

// ListDecks returns one page of merged deck models plus the total count of
// the unpaginated filtered set.
func (s *DeckService) ListDecks(ctx context.Context, opts ListDecksOptions) ([]*models.LessonDeck, int64, error) {
	ctx = ensuredContext(ctx)

	decks, total, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}

	results := make([]*models.LessonDeck, 0, len(decks))
	for i := range decks {
		model, err := s.toModelWithSlides(ctx, &decks[i])
		if err != nil {
			return nil, 0, err
		}
		results = append(results, model)
	}

	return results, total, nil
}

func (s *DeckService) regenerateAndSave(ctx context.Context, existing *models.Deck, req GenerateDeckRequest, deckKey string) (*models.LessonDeck, error) {
	model, err := s.generator.Generate(ctx, req)
	if err != nil {
		metrics.DeckGenerations.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	metrics.DeckGenerations.WithLabelValues("success").Inc()

	// Generation has side-effect cost; finish persisting even if the caller
	// walked away between generation and this point.
	return s.saveDeck(context.WithoutCancel(ctx), existing, model, req, deckKey)
}

func (s *DeckService) saveDeck(ctx context.Context, existing *models.Deck, model *models.LessonDeck, req GenerateDeckRequest, deckKey string) (*models.LessonDeck, error) {
	model.GradeLevel = NormalizeOptional(req.GradeLevel)
	model.Locale = NormalizeOptional(req.Locale)

	provenance, err := EncodeProvenance(models.DeckProvenance{
		Topic:      normalizeField(req.Topic),
		GradeLevel: model.GradeLevel,
		Locale:     model.Locale,
		Source:     provenanceSource,
	})
	if err != nil {
		return nil, err
	}

	content, err := EncodeDeckContent(model)
	if err != nil {
		return nil, err
	}

	deck := existing
	if deck == nil {
		deck = &models.Deck{}
	}
	deck.Slides = nil

	now := s.now()
	expiresAt := now.Add(s.validity)

	deck.DeckKey = deckKey
	deck.Topic = model.Topic
	deck.GradeLevel = model.GradeLevel
	deck.Locale = model.Locale
	deck.Title = model.Topic
	deck.Description = "Lesson deck for topic: " + model.Topic
	deck.NasaSource = provenance
	deck.ContentJson = content
	if deck.CreatedAt.IsZero() {
		deck.CreatedAt = now
	}
	deck.UpdatedAt = now
	deck.ExpiresAt = &expiresAt

	if err := s.store.Save(ctx, deck); err != nil {
		return nil, fmt.Errorf("save deck: %w", err)
	}

	slides, err := s.store.ReplaceSlides(ctx, deck.ID, buildSlides(deck.ID, model, now))
	if err != nil {
		return nil, fmt.Errorf("replace slides: %w", err)
	}

	s.log.Info("deck regenerated",
		zap.String("deck_id", deck.ID),
		zap.String("deck_key", deckKey),
		zap.Int("slides", len(slides)),
	)

	s.syncModelFromEntity(deck, slides, model)
	return model, nil
}

// toModelWithSlides is the read merge: normalized slide rows win when
// present; the content blob supplies metadata and enrichment and acts as the
// slide fallback for rows written before slides were normalized.
func (s *DeckService) toModelWithSlides(ctx context.Context, deck *models.Deck) (*models.LessonDeck, error) {
	slides, err := s.store.SlidesForDeck(ctx, deck.ID)
	if err != nil {
		return nil, err
	}

	model := &models.LessonDeck{
		ID:         "deck-" + deck.ID,
		Topic:      deck.Topic,
		GradeLevel: deck.GradeLevel,
		Locale:     deck.Locale,
		CreatedAt:  deck.CreatedAt,
	}

	hasRows := len(slides) > 0
	if hasRows {
		model.Slides = toSlideModels(slides)
	}

	if len(deck.ContentJson) > 0 {
		stored, err := DecodeDeckContent(deck.ContentJson)
		if err != nil {
			s.log.Error("deck content blob unreadable",
				zap.String("deck_id", deck.ID),
				zap.Error(err),
			)
			return nil, err
		}
		if stored.Enrichment != nil {
			model.Enrichment = stored.Enrichment
		}
		if !hasRows && len(stored.Slides) > 0 {
			for i := range stored.Slides {
				if stored.Slides[i].SlideUUID == "" {
					stored.Slides[i].SlideUUID = uuid.NewString()
				}
			}
			model.Slides = stored.Slides
		}
	}

	return model, nil
}

func (s *DeckService) syncModelFromEntity(deck *models.Deck, slides []models.Slide, model *models.LessonDeck) {
	if model.ID == "" {
		model.ID = "deck-" + deck.ID
	}
	model.CreatedAt = deck.CreatedAt
	model.Slides = toSlideModels(slides)
}

func buildSlides(deckID string, model *models.LessonDeck, now time.Time) []models.Slide {
	slides := make([]models.Slide, 0, len(model.Slides))
	for i, sm := range model.Slides {
		slideUUID := sm.SlideUUID
		if slideUUID == "" {
			slideUUID = uuid.NewString()
		}
		slides = append(slides, models.Slide{
			BaseModel:     models.BaseModel{CreatedAt: now, UpdatedAt: now},
			DeckID:        deckID,
			SlideUUID:     slideUUID,
			Type:          sm.Type,
			Title:         sm.Title,
			Text:          sm.Text,
			ImageURL:      sm.ImageURL,
			Attribution:   sm.Attribution,
			TTSAudioURL:   sm.TTSAudioURL,
			PositionIndex: i,
		})
	}
	return slides
}

func toSlideModels(slides []models.Slide) []models.LessonSlide {
	out := make([]models.LessonSlide, 0, len(slides))
	for _, slide := range slides {
		out = append(out, models.LessonSlide{
			SlideUUID:   slide.SlideUUID,
			Type:        slide.Type,
			Title:       slide.Title,
			Text:        slide.Text,
			ImageURL:    slide.ImageURL,
			Attribution: slide.Attribution,
			TTSAudioURL: slide.TTSAudioURL,
		})
	}
	return out
}
