package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/eddie-kann/astrokiddo/internal/database/testutil"
	"github.com/eddie-kann/astrokiddo/internal/models"
)

type fakeGenerator struct {
	calls int
	err   error
	build func(req GenerateDeckRequest) *models.LessonDeck
}

func (f *fakeGenerator) Generate(ctx context.Context, req GenerateDeckRequest) (*models.LessonDeck, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.build != nil {
		return f.build(req), nil
	}
	deck := models.NewLessonDeck(req.Topic, nil, nil)
	deck.AddSlide(models.LessonSlide{Type: models.SlideTypeIntro, Title: "Welcome", Text: "Intro text"})
	deck.AddSlide(models.LessonSlide{Type: models.SlideTypeFact, Title: "Fact", Text: "Fact text"})
	deck.Enrichment = &models.Enrichment{Summary: "summary of " + req.Topic}
	return deck, nil
}

func newTestDeckService(t *testing.T, gen *fakeGenerator, opts ...DeckServiceOption) *DeckService {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	svc, err := NewDeckService(db, gen, opts...)
	require.NoError(t, err)
	return svc
}

func TestFindOrGenerateCachesByNormalizedKey(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestDeckService(t, gen)
	ctx := context.Background()

	first, err := svc.FindOrGenerate(ctx, GenerateDeckRequest{Topic: "Mars ", GradeLevel: "K-2", Locale: "en"})
	require.NoError(t, err)
	require.Equal(t, 1, gen.calls)
	require.Len(t, first.Slides, 2)

	// Same request modulo case and whitespace: served from cache.
	second, err := svc.FindOrGenerate(ctx, GenerateDeckRequest{Topic: "mars", GradeLevel: "k-2", Locale: "EN"})
	require.NoError(t, err)
	require.Equal(t, 1, gen.calls, "cache hit must not invoke the generator")
	require.Equal(t, first.Topic, second.Topic)
	require.Len(t, second.Slides, 2)
	require.Equal(t, first.Slides[0].SlideUUID, second.Slides[0].SlideUUID)
}

func TestFindOrGenerateRegeneratesExpiredDeckInPlace(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	gen := &fakeGenerator{}
	svc := newTestDeckService(t, gen, WithNow(clock), WithValidity(24*time.Hour))
	ctx := context.Background()

	req := GenerateDeckRequest{Topic: "Saturn"}
	_, err := svc.FindOrGenerate(ctx, req)
	require.NoError(t, err)

	original, err := svc.store.FindByDeckKey(ctx, ComputeDeckKey("Saturn", "", ""))
	require.NoError(t, err)

	// Past the validity window the next request regenerates.
	now = now.Add(25 * time.Hour)
	_, err = svc.FindOrGenerate(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 2, gen.calls)

	refreshed, err := svc.store.FindByDeckKey(ctx, original.DeckKey)
	require.NoError(t, err)
	require.Equal(t, original.ID, refreshed.ID, "identity is preserved across regeneration")
	require.Equal(t, original.DeckKey, refreshed.DeckKey)
	require.True(t, original.CreatedAt.Equal(refreshed.CreatedAt))
	require.True(t, refreshed.UpdatedAt.After(original.UpdatedAt))
	require.True(t, refreshed.ExpiresAt.After(*original.ExpiresAt))
}

func TestFindOrGenerateReplacesSlidesAtomically(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{}
	svc := newTestDeckService(t, gen, WithNow(func() time.Time { return now }), WithValidity(time.Hour))
	ctx := context.Background()

	req := GenerateDeckRequest{Topic: "Jupiter"}
	_, err := svc.FindOrGenerate(ctx, req)
	require.NoError(t, err)

	// Second generation yields a different, smaller slide set.
	gen.build = func(r GenerateDeckRequest) *models.LessonDeck {
		deck := models.NewLessonDeck(r.Topic, nil, nil)
		deck.AddSlide(models.LessonSlide{Type: models.SlideTypeSummary, Title: "Only slide"})
		return deck
	}

	now = now.Add(2 * time.Hour)
	model, err := svc.FindOrGenerate(ctx, req)
	require.NoError(t, err)
	require.Len(t, model.Slides, 1)
	require.Equal(t, "Only slide", model.Slides[0].Title)

	deck, err := svc.store.FindByDeckKey(ctx, ComputeDeckKey("Jupiter", "", ""))
	require.NoError(t, err)
	rows, err := svc.store.SlidesForDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "stale slides must not survive regeneration")
	require.Equal(t, 0, rows[0].PositionIndex)
}

func TestFindOrGenerateOrdersSlidesByPosition(t *testing.T) {
	gen := &fakeGenerator{build: func(r GenerateDeckRequest) *models.LessonDeck {
		deck := models.NewLessonDeck(r.Topic, nil, nil)
		for _, title := range []string{"first", "second", "third"} {
			deck.AddSlide(models.LessonSlide{Type: models.SlideTypeFact, Title: title})
		}
		return deck
	}}
	svc := newTestDeckService(t, gen)

	model, err := svc.FindOrGenerate(context.Background(), GenerateDeckRequest{Topic: "Venus"})
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second", "third"}, []string{
		model.Slides[0].Title, model.Slides[1].Title, model.Slides[2].Title,
	})

	for _, slide := range model.Slides {
		require.NotEmpty(t, slide.SlideUUID, "persisted slides always carry an external id")
	}
}

func TestFindOrGenerateGenerationFailurePersistsNothing(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	svc := newTestDeckService(t, gen)

	_, err := svc.FindOrGenerate(context.Background(), GenerateDeckRequest{Topic: "Pluto"})
	require.ErrorIs(t, err, ErrGenerationFailed)

	_, err = svc.store.FindByDeckKey(context.Background(), ComputeDeckKey("Pluto", "", ""))
	require.ErrorIs(t, err, ErrDeckNotFound)
}

func TestFindOrGeneratePersistsOptionalFieldsAsAbsent(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestDeckService(t, gen)
	ctx := context.Background()

	_, err := svc.FindOrGenerate(ctx, GenerateDeckRequest{Topic: "Neptune", GradeLevel: "  ", Locale: ""})
	require.NoError(t, err)

	deck, err := svc.store.FindByDeckKey(ctx, ComputeDeckKey("Neptune", "", ""))
	require.NoError(t, err)
	require.Nil(t, deck.GradeLevel, "blank grade level must be stored as absent")
	require.Nil(t, deck.Locale, "blank locale must be stored as absent")
}

func TestGetByID(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestDeckService(t, gen)
	ctx := context.Background()

	_, err := svc.FindOrGenerate(ctx, GenerateDeckRequest{Topic: "Mercury"})
	require.NoError(t, err)

	deck, err := svc.store.FindByDeckKey(ctx, ComputeDeckKey("Mercury", "", ""))
	require.NoError(t, err)

	model, err := svc.GetByID(ctx, deck.ID)
	require.NoError(t, err)
	require.Equal(t, "Mercury", model.Topic)
	require.Len(t, model.Slides, 2)
	require.NotNil(t, model.Enrichment)

	_, err = svc.GetByID(ctx, "no-such-id")
	require.ErrorIs(t, err, ErrDeckNotFound)
}

func TestReadMergeFallsBackToBlobSlides(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestDeckService(t, gen)
	ctx := context.Background()

	// A row written by the older schema variant: slides only inside the blob.
	legacy := &models.Deck{
		DeckKey:     "comets||",
		Topic:       "Comets",
		ContentJson: datatypes.JSON(`{"topic":"Comets","slides":[{"type":"FACT","title":"Tails","text":"Point away from the sun."}]}`),
	}
	require.NoError(t, svc.store.Save(ctx, legacy))

	model, err := svc.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	require.Len(t, model.Slides, 1)
	require.Equal(t, "Tails", model.Slides[0].Title)
	require.NotEmpty(t, model.Slides[0].SlideUUID, "missing external ids are backfilled")
}

func TestReadMergeRejectsCorruptBlob(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestDeckService(t, gen)
	ctx := context.Background()

	broken := &models.Deck{
		DeckKey:     "broken||",
		Topic:       "Broken",
		ContentJson: datatypes.JSON(`{"topic":`),
	}
	require.NoError(t, svc.store.Save(ctx, broken))

	_, err := svc.GetByID(ctx, broken.ID)
	require.ErrorIs(t, err, ErrContentCorrupt)
}

func TestListDecksFilters(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestDeckService(t, gen)
	ctx := context.Background()

	for _, req := range []GenerateDeckRequest{
		{Topic: "Mars rovers", GradeLevel: "K-2", Locale: "en"},
		{Topic: "Mars moons", GradeLevel: "3-5", Locale: "en"},
		{Topic: "Saturn rings", GradeLevel: "K-2", Locale: "de"},
	} {
		_, err := svc.FindOrGenerate(ctx, req)
		require.NoError(t, err)
	}

	all, total, err := svc.ListDecks(ctx, ListDecksOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.EqualValues(t, 3, total)

	mars, total, err := svc.ListDecks(ctx, ListDecksOptions{TopicContains: "MARS"})
	require.NoError(t, err)
	require.Len(t, mars, 2)
	require.EqualValues(t, 2, total)

	combined, total, err := svc.ListDecks(ctx, ListDecksOptions{TopicContains: "mars", GradeLevel: "k-2"})
	require.NoError(t, err)
	require.Len(t, combined, 1)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Mars rovers", combined[0].Topic)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	windowed, _, err := svc.ListDecks(ctx, ListDecksOptions{CreatedAfter: &past, CreatedBefore: &future})
	require.NoError(t, err)
	require.Len(t, windowed, 3)

	none, total, err := svc.ListDecks(ctx, ListDecksOptions{CreatedAfter: &future})
	require.NoError(t, err)
	require.Empty(t, none)
	require.Zero(t, total)
}

func TestListDecksPagination(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestDeckService(t, gen)
	ctx := context.Background()

	for _, topic := range []string{"a", "b", "c", "d", "e"} {
		_, err := svc.FindOrGenerate(ctx, GenerateDeckRequest{Topic: topic})
		require.NoError(t, err)
	}

	page, total, err := svc.ListDecks(ctx, ListDecksOptions{Page: 0, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.EqualValues(t, 5, total, "total reflects the unpaginated filtered set")

	last, _, err := svc.ListDecks(ctx, ListDecksOptions{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, last, 1)
}
