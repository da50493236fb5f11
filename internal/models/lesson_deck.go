package models

import (
	"time"

	"github.com/google/uuid"
)

// LessonDeck is the transient, API-facing view of a deck. It is never
// persisted directly; it is derived from Deck+Slide rows plus the stored
// content blob, or produced by the lesson generator before persistence.
type LessonDeck struct {
	ID         string        `json:"id"`
	Topic      string        `json:"topic"`
	GradeLevel *string       `json:"gradeLevel,omitempty"`
	Locale     *string       `json:"locale,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	Slides     []LessonSlide `json:"slides"`
	Enrichment *Enrichment   `json:"enrichment,omitempty"`
}

// NewLessonDeck builds a fresh deck model with a generated identifier.
func NewLessonDeck(topic string, gradeLevel, locale *string) *LessonDeck {
	return &LessonDeck{
		ID:         "deck-" + uuid.NewString(),
		Topic:      topic,
		GradeLevel: gradeLevel,
		Locale:     locale,
		CreatedAt:  time.Now().UTC(),
	}
}

// AddSlide appends a slide to the deck model.
func (d *LessonDeck) AddSlide(s LessonSlide) {
	d.Slides = append(d.Slides, s)
}

// LessonSlide is the transient view of one slide.
type LessonSlide struct {
	SlideUUID   string    `json:"slideUuid,omitempty"`
	Type        SlideType `json:"type"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Attribution string    `json:"attribution,omitempty"`
	TTSAudioURL string    `json:"ttsAudioUrl,omitempty"`
}

// Enrichment carries the AI-generated extras attached to a deck.
type Enrichment struct {
	Summary   string   `json:"summary,omitempty"`
	FunFacts  []string `json:"funFacts,omitempty"`
	Questions []string `json:"questions,omitempty"`
}

// DeckProvenance records the inputs that produced a generated deck.
type DeckProvenance struct {
	Topic      string  `json:"topic"`
	GradeLevel *string `json:"gradeLevel"`
	Locale     *string `json:"locale"`
	Source     string  `json:"source"`
}
