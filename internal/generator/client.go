package generator

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

	"github.com/eddie-kann/astrokiddo/internal/models"
	"github.com/eddie-kann/astrokiddo/internal/services"
	"github.com/eddie-kann/astrokiddo/pkg/logger"
)

const defaultTimeout = 90 * time.Second

// Client asks the lesson generation service for a complete deck. Generation
// is slow by nature (it assembles NASA imagery and AI enrichment), so the
// timeout is generous and configurable.
type Client struct {
	url  string
	http *http.Client
	log  *zap.Logger
}

// NewClient constructs a generator client for the given endpoint URL.
func NewClient(url string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("generator: endpoint url is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  logger.WithModule("generator"),
	}, nil
}

// Generate requests a fresh lesson deck for a topic.
func (c *Client) Generate(ctx context.Context, req services.GenerateDeckRequest) (*models.LessonDeck, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generator: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("generator: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator: returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var deck models.LessonDeck
	if err := json.Unmarshal(body, &deck); err != nil {
		return nil, fmt.Errorf("generator: decoding deck: %w", err)
	}
	if deck.Topic == "" {
		deck.Topic = req.Topic
	}

	c.log.Info("generated lesson deck",
		zap.String("topic", req.Topic),
		zap.Int("slides", len(deck.Slides)),
		zap.Duration("took", time.Since(started)))
	return &deck, nil
}
