package models

import "time"

// Apod stores one astronomy picture of the day fetched from the NASA API.
// ApodDate is unique; re-requests for a stored date are served from the row.
type Apod struct {
	BaseModel

	ApodDate       time.Time `gorm:"type:date;not null;uniqueIndex" json:"apod_date"`
	Title          string    `json:"title"`
	Explanation    string    `gorm:"type:text" json:"explanation"`
	MediaType      string    `gorm:"size:32" json:"media_type"`
	URL            string    `gorm:"size:1024" json:"url"`
	HDURL          string    `gorm:"size:1024" json:"hd_url"`
	ThumbnailURL   string    `gorm:"size:1024" json:"thumbnail_url"`
	Copyright      string    `json:"copyright"`
	ServiceVersion string    `gorm:"size:16" json:"service_version"`

	TTSAudioURL string `gorm:"size:1024" json:"tts_audio_url"`
	TTSTextHash string `json:"tts_text_hash"`
}
