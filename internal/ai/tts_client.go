package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eddie-kann/astrokiddo/pkg/logger"
)

const (
	defaultBaseURL = "https://api.cloudflare.com"
	defaultTimeout = 60 * time.Second
)

// Config identifies the Workers AI account and TTS model to run.
type Config struct {
	AccountID string
	APIToken  string
	BaseURL   string
	Provider  string
	Vendor    string
	Model     string
}

func (c Config) validate() error {
	switch {
	case strings.TrimSpace(c.AccountID) == "":
		return errors.New("cloudflare tts: account id is required")
	case strings.TrimSpace(c.APIToken) == "":
		return errors.New("cloudflare tts: api token is required")
	case c.Provider == "" || c.Vendor == "" || c.Model == "":
		return errors.New("cloudflare tts: provider, vendor and model are required")
	}
	return nil
}

// TTSClient synthesizes speech through the Cloudflare Workers AI run API.
// The response body is the raw encoded audio.
type TTSClient struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// NewTTSClient constructs a Workers AI TTS client.
func NewTTSClient(cfg Config) (*TTSClient, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &TTSClient{
		cfg:  cfg,
		http: &http.Client{Timeout: defaultTimeout},
		log:  logger.WithModule("cloudflare-tts"),
	}, nil
}

type synthesizeRequest struct {
	Text     string `json:"text"`
	Encoding string `json:"encoding"`
	Speaker  string `json:"speaker,omitempty"`
}

// Synthesize converts text to mp3 audio. An empty voice lets the model pick
// its default speaker.
func (c *TTSClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("cloudflare tts: text is required")
	}

	payload, err := json.Marshal(synthesizeRequest{
		Text:     text,
		Encoding: "mp3",
		Speaker:  strings.TrimSpace(voice),
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/client/v4/accounts/%s/ai/run/%s/%s/%s",
		c.cfg.BaseURL, c.cfg.AccountID, c.cfg.Provider, c.cfg.Vendor, c.cfg.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudflare tts: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cloudflare tts: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("cloudflare tts: call failed: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
		c.log.Warn(msg)
		return nil, errors.New(msg)
	}
	if len(body) == 0 {
		return nil, errors.New("cloudflare tts: empty audio response")
	}

	return body, nil
}
