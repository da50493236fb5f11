package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/eddie-kann/astrokiddo/internal/database/testutil"
	"github.com/eddie-kann/astrokiddo/internal/models"
)

func newTestDeckStore(t *testing.T) *DeckStore {
	t.Helper()

	store, err := NewDeckStore(testutil.MustOpenTestDB(t))
	require.NoError(t, err)
	return store
}

func TestDeckStoreSaveAndFind(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	deck := &models.Deck{DeckKey: "mars|k-2|en", Topic: "Mars"}
	require.NoError(t, store.Save(ctx, deck))
	require.NotEmpty(t, deck.ID)

	byKey, err := store.FindByDeckKey(ctx, "mars|k-2|en")
	require.NoError(t, err)
	require.Equal(t, deck.ID, byKey.ID)

	byID, err := store.FindByID(ctx, deck.ID)
	require.NoError(t, err)
	require.Equal(t, "Mars", byID.Topic)

	_, err = store.FindByDeckKey(ctx, "missing||")
	require.ErrorIs(t, err, ErrDeckNotFound)

	_, err = store.FindByID(ctx, "  ")
	require.ErrorIs(t, err, ErrDeckNotFound)
}

func TestDeckStoreSaveRecoversFromDeckKeyConflict(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	winner := &models.Deck{DeckKey: "saturn||", Topic: "Saturn", Title: "old title"}
	require.NoError(t, store.Save(ctx, winner))

	// A concurrent writer that lost the insert race still gets its content in.
	loser := &models.Deck{
		DeckKey:     "saturn||",
		Topic:       "Saturn",
		Title:       "new title",
		ContentJson: datatypes.JSON(`{"topic":"Saturn"}`),
	}
	require.NoError(t, store.Save(ctx, loser))
	require.Equal(t, winner.ID, loser.ID, "loser adopts the winning row's identity")

	stored, err := store.FindByDeckKey(ctx, "saturn||")
	require.NoError(t, err)
	require.Equal(t, winner.ID, stored.ID)
	require.Equal(t, "new title", stored.Title, "later write wins")
	require.JSONEq(t, `{"topic":"Saturn"}`, string(stored.ContentJson))

	var count int64
	require.NoError(t, store.db.Model(&models.Deck{}).Where("deck_key = ?", "saturn||").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestDeckStoreReplaceSlides(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	deck := &models.Deck{DeckKey: "jupiter||", Topic: "Jupiter"}
	require.NoError(t, store.Save(ctx, deck))

	first := []models.Slide{
		{DeckID: deck.ID, SlideUUID: "s-1", Type: models.SlideTypeIntro, Title: "a", PositionIndex: 0},
		{DeckID: deck.ID, SlideUUID: "s-2", Type: models.SlideTypeFact, Title: "b", PositionIndex: 1},
		{DeckID: deck.ID, SlideUUID: "s-3", Type: models.SlideTypeSummary, Title: "c", PositionIndex: 2},
	}
	_, err := store.ReplaceSlides(ctx, deck.ID, first)
	require.NoError(t, err)

	second := []models.Slide{
		{DeckID: deck.ID, SlideUUID: "s-4", Type: models.SlideTypeQuiz, Title: "d", PositionIndex: 0},
	}
	_, err = store.ReplaceSlides(ctx, deck.ID, second)
	require.NoError(t, err)

	slides, err := store.SlidesForDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, slides, 1)
	require.Equal(t, "s-4", slides[0].SlideUUID)

	// Clearing a deck leaves it with no slide rows.
	_, err = store.ReplaceSlides(ctx, deck.ID, nil)
	require.NoError(t, err)
	slides, err = store.SlidesForDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.Empty(t, slides)
}

func TestDeckStoreSlidesForDeckOrdering(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	deck := &models.Deck{DeckKey: "venus||", Topic: "Venus"}
	require.NoError(t, store.Save(ctx, deck))

	// Inserted out of order on purpose.
	_, err := store.ReplaceSlides(ctx, deck.ID, []models.Slide{
		{DeckID: deck.ID, SlideUUID: "v-2", Type: models.SlideTypeFact, PositionIndex: 2},
		{DeckID: deck.ID, SlideUUID: "v-0", Type: models.SlideTypeIntro, PositionIndex: 0},
		{DeckID: deck.ID, SlideUUID: "v-1", Type: models.SlideTypeImage, PositionIndex: 1},
	})
	require.NoError(t, err)

	slides, err := store.SlidesForDeck(ctx, deck.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"v-0", "v-1", "v-2"}, []string{
		slides[0].SlideUUID, slides[1].SlideUUID, slides[2].SlideUUID,
	})
}

func TestDeckStoreFindSlideByUUID(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	deck := &models.Deck{DeckKey: "moon||", Topic: "Moon"}
	require.NoError(t, store.Save(ctx, deck))
	_, err := store.ReplaceSlides(ctx, deck.ID, []models.Slide{
		{DeckID: deck.ID, SlideUUID: "m-1", Type: models.SlideTypeIntro, Text: "hello moon"},
	})
	require.NoError(t, err)

	slide, err := store.FindSlideByUUID(ctx, "m-1")
	require.NoError(t, err)
	require.Equal(t, "hello moon", slide.Text)

	slide.TTSAudioURL = "https://cdn.example/tts/slides/m-1.mp3"
	require.NoError(t, store.SaveSlide(ctx, slide))

	again, err := store.FindSlideByUUID(ctx, "m-1")
	require.NoError(t, err)
	require.Equal(t, slide.TTSAudioURL, again.TTSAudioURL)

	_, err = store.FindSlideByUUID(ctx, "nope")
	require.ErrorIs(t, err, ErrSlideNotFound)
}

func TestDeckStoreListProvenanceFilter(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	withProv := &models.Deck{
		DeckKey:    "apod-deck||",
		Topic:      "Nebulae",
		NasaSource: datatypes.JSON(`{"topic":"Nebulae","source":"NASA images + AI enrichment"}`),
	}
	require.NoError(t, store.Save(ctx, withProv))
	require.NoError(t, store.Save(ctx, &models.Deck{DeckKey: "plain||", Topic: "Plain"}))

	decks, total, err := store.List(ctx, ListDecksOptions{ProvenanceContains: "NASA images"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, decks, 1)
	require.Equal(t, "Nebulae", decks[0].Topic)
}

func TestDeckStoreListOrdersNewestFirst(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i, key := range []string{"one||", "two||", "three||"} {
		deck := &models.Deck{DeckKey: key, Topic: key}
		deck.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, deck))
	}

	decks, _, err := store.List(ctx, ListDecksOptions{})
	require.NoError(t, err)
	require.Len(t, decks, 3)
	require.Equal(t, "three||", decks[0].DeckKey)
	require.Equal(t, "one||", decks[2].DeckKey)
}

func TestDeckStoreListCapsPageSize(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &models.Deck{DeckKey: "solo||", Topic: "Solo"}))

	decks, total, err := store.List(ctx, ListDecksOptions{PerPage: 10000, Page: -5})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, decks, 1)
}
