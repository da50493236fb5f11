package services

import "errors"

var (
	// ErrDeckNotFound indicates the requested deck does not exist.
	ErrDeckNotFound = errors.New("deck service: deck not found")

	// ErrSlideNotFound indicates the requested slide does not exist.
	ErrSlideNotFound = errors.New("deck service: slide not found")

	// ErrApodNotFound indicates no astronomy picture is stored for the requested date.
	ErrApodNotFound = errors.New("apod service: apod not found")

	// ErrGenerationFailed wraps failures of the external lesson generator.
	ErrGenerationFailed = errors.New("deck service: lesson generation failed")

	// ErrSynthesisFailed wraps failures of the TTS synthesis or audio upload step.
	ErrSynthesisFailed = errors.New("tts service: audio synthesis failed")

	// ErrContentCorrupt indicates a stored content blob could not be decoded.
	// This is a data-integrity failure for the affected read, never retried.
	ErrContentCorrupt = errors.New("deck service: stored deck content corrupt")

	// ErrApodFetchFailed wraps failures of the upstream NASA APOD API.
	ErrApodFetchFailed = errors.New("apod service: upstream fetch failed")

	// ErrApodDateOutOfRange rejects APOD requests outside the supported window.
	ErrApodDateOutOfRange = errors.New("apod service: date out of range")
)
