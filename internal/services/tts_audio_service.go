package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eddie-kann/astrokiddo/internal/models"
	"github.com/eddie-kann/astrokiddo/pkg/logger"
	"github.com/eddie-kann/astrokiddo/pkg/metrics"
)

// Synthesizer turns text into spoken audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// ObjectStore uploads an audio blob under a key and returns its public URL.
type ObjectStore interface {
	SaveAudio(ctx context.Context, key string, data []byte) (string, error)
}

// AudioFingerprint derives the cache fingerprint for a narration. Any change
// to the text or the requested voice yields a different fingerprint, which is
// what invalidates previously synthesized audio.
func AudioFingerprint(text, voice string) string {
	sum := md5.Sum([]byte(text + "|" + strings.TrimSpace(voice)))
	return hex.EncodeToString(sum[:])
}

// TTSAudioService caches synthesized narration for slides and APOD entries.
// Audio objects are immutable: each synthesis uploads under a fresh random
// key, so a cached URL always points at the audio its fingerprint describes.
type TTSAudioService struct {
	decks   *DeckStore
	apods   *ApodStore
	synth   Synthesizer
	objects ObjectStore
	log     *zap.Logger
}

// NewTTSAudioService constructs the audio cache service.
func NewTTSAudioService(db *gorm.DB, synth Synthesizer, objects ObjectStore) (*TTSAudioService, error) {
	if synth == nil {
		return nil, errors.New("tts service: synthesizer is required")
	}
	if objects == nil {
		return nil, errors.New("tts service: object store is required")
	}

	decks, err := NewDeckStore(db)
	if err != nil {
		return nil, err
	}
	apods, err := NewApodStore(db)
	if err != nil {
		return nil, err
	}

	return &TTSAudioService{
		decks:   decks,
		apods:   apods,
		synth:   synth,
		objects: objects,
		log:     logger.WithModule("tts"),
	}, nil
}

// SlideAudio returns the narration URL for a slide, synthesizing and caching
// it on first request or whenever the slide's text or the voice changed since
// the cached audio was produced.
func (s *TTSAudioService) SlideAudio(ctx context.Context, slideUUID, voice string) (string, error) {
	ctx = ensuredContext(ctx)

	slide, err := s.decks.FindSlideByUUID(ctx, slideUUID)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(slide.Text)
	if text == "" {
		return "", fmt.Errorf("%w: slide %s has no narratable text", ErrSynthesisFailed, slideUUID)
	}

	fingerprint := AudioFingerprint(text, voice)
	if slide.TTSAudioURL != "" && slide.TTSTextHash == fingerprint {
		metrics.TTSRequests.WithLabelValues("hit").Inc()
		return slide.TTSAudioURL, nil
	}

	key := fmt.Sprintf("tts/slides/%s-%s.mp3", slide.SlideUUID, uuid.NewString())
	url, err := s.synthesizeAndStore(ctx, text, voice, key)
	if err != nil {
		return "", err
	}

	slide.TTSAudioURL = url
	slide.TTSTextHash = fingerprint
	if err := s.decks.SaveSlide(context.WithoutCancel(ctx), slide); err != nil {
		// The object is already uploaded under a fresh key; losing the row
		// update only costs a re-synthesis on the next request.
		s.log.Warn("failed to persist slide audio reference",
			zap.String("slide_uuid", slideUUID), zap.Error(err))
	}

	metrics.TTSRequests.WithLabelValues("synthesized").Inc()
	return url, nil
}

// ApodAudio returns the narration URL for a stored APOD entry, synthesizing
// from its title and explanation when no current audio is cached.
func (s *TTSAudioService) ApodAudio(ctx context.Context, apod *models.Apod, voice string) (string, error) {
	ctx = ensuredContext(ctx)

	if apod == nil {
		return "", ErrApodNotFound
	}

	text := strings.TrimSpace(apod.Explanation)
	if text == "" {
		return "", fmt.Errorf("%w: apod %s has no narratable text", ErrSynthesisFailed, apod.ApodDate.Format("2006-01-02"))
	}

	fingerprint := AudioFingerprint(text, voice)
	if apod.TTSAudioURL != "" && apod.TTSTextHash == fingerprint {
		metrics.TTSRequests.WithLabelValues("hit").Inc()
		return apod.TTSAudioURL, nil
	}

	key := fmt.Sprintf("tts/apod/%s-%s.mp3", apod.ApodDate.Format("2006-01-02"), uuid.NewString())
	url, err := s.synthesizeAndStore(ctx, text, voice, key)
	if err != nil {
		return "", err
	}

	apod.TTSAudioURL = url
	apod.TTSTextHash = fingerprint
	if err := s.apods.Save(context.WithoutCancel(ctx), apod); err != nil {
		s.log.Warn("failed to persist apod audio reference",
			zap.Time("apod_date", apod.ApodDate), zap.Error(err))
	}

	metrics.TTSRequests.WithLabelValues("synthesized").Inc()
	return url, nil
}

func (s *TTSAudioService) synthesizeAndStore(ctx context.Context, text, voice, key string) (string, error) {
	data, err := s.synth.Synthesize(ctx, text, voice)
	if err != nil {
		metrics.TTSRequests.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	url, err := s.objects.SaveAudio(ctx, key, data)
	if err != nil {
		metrics.TTSRequests.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("%w: upload: %v", ErrSynthesisFailed, err)
	}

	s.log.Info("synthesized audio",
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return url, nil
}
