package nasa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eddie-kann/astrokiddo/internal/models"
	"github.com/eddie-kann/astrokiddo/pkg/logger"
)

const (
	defaultBaseURL = "https://api.nasa.gov"
	defaultTimeout = 15 * time.Second
	apodPath       = "/planetary/apod"
)

// apodResponse is the wire shape of one NASA APOD API entry.
type apodResponse struct {
	Date           string `json:"date"`
	Title          string `json:"title"`
	Explanation    string `json:"explanation"`
	MediaType      string `json:"media_type"`
	URL            string `json:"url"`
	HDURL          string `json:"hdurl"`
	ThumbnailURL   string `json:"thumbnail_url"`
	Copyright      string `json:"copyright"`
	ServiceVersion string `json:"service_version"`
}

// Client talks to the NASA APOD API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// NewClient constructs an APOD API client. An empty baseURL selects the
// public NASA endpoint.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("nasa: api key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logger.WithModule("nasa"),
	}, nil
}

// FetchByDate retrieves the picture entry for one calendar date. The date the
// API reports is kept when it parses; otherwise the requested date is used.
func (c *Client) FetchByDate(ctx context.Context, date time.Time) (*models.Apod, error) {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("date", date.Format("2006-01-02"))
	query.Set("thumbs", "true")

	endpoint := c.baseURL + apodPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nasa: apod request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("nasa: reading apod response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nasa: apod request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var wire apodResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("nasa: decoding apod response: %w", err)
	}

	return c.toEntity(wire, date), nil
}

func (c *Client) toEntity(wire apodResponse, requested time.Time) *models.Apod {
	apodDate := requested
	if wire.Date != "" {
		parsed, err := time.Parse("2006-01-02", wire.Date)
		if err != nil {
			c.log.Warn("unparseable apod date in response, using requested date",
				zap.String("date", wire.Date))
		} else {
			apodDate = parsed
		}
	}

	return &models.Apod{
		ApodDate:       apodDate,
		Title:          wire.Title,
		Explanation:    wire.Explanation,
		MediaType:      wire.MediaType,
		URL:            wire.URL,
		HDURL:          wire.HDURL,
		ThumbnailURL:   wire.ThumbnailURL,
		Copyright:      wire.Copyright,
		ServiceVersion: wire.ServiceVersion,
	}
}
