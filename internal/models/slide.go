package models

// SlideType is the closed set of slide kinds a deck may contain.
type SlideType string

const (
	SlideTypeIntro   SlideType = "INTRO"
	SlideTypeImage   SlideType = "IMAGE"
	SlideTypeFact    SlideType = "FACT"
	SlideTypeQuiz    SlideType = "QUIZ"
	SlideTypeSummary SlideType = "SUMMARY"
)

// Slide is a single ordered page of a deck. Rows are replaced wholesale on
// every regeneration; PositionIndex is the zero-based display order.
type Slide struct {
	BaseModel

	DeckID string `gorm:"type:uuid;not null;index" json:"deck_id"`

	// SlideUUID is the stable external identifier used for addressing a slide
	// from outside the deck, e.g. when requesting TTS audio.
	SlideUUID string `gorm:"type:uuid;not null;uniqueIndex" json:"slide_uuid"`

	Type          SlideType `gorm:"size:64" json:"type"`
	Title         string    `json:"title"`
	Text          string    `gorm:"type:text" json:"text"`
	ImageURL      string    `gorm:"size:1024" json:"image_url"`
	Attribution   string    `json:"attribution"`
	PositionIndex int       `gorm:"not null" json:"position_index"`

	TTSAudioURL string `gorm:"size:1024" json:"tts_audio_url"`
	TTSTextHash string `json:"tts_text_hash"`
}
