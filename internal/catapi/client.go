// Package catapi talks to TheCatAPI image search endpoint.
package catapi

import (
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vinivici/internal/logger"
	"vinivici/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultBaseURL   = "https://api.thecatapi.com/v1"
	DefaultBatchSize = 10
	defaultTimeout   = 15 * time.Second

	apiKeyHeader = "x-api-key"
	maxBodyBytes = 4 << 20
)

// Searcher fetches one batch of candidates.
type Searcher interface {
	SearchImages(ctx context.Context, limit int) ([]models.Candidate, error)
}

// Config holds the client settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the HTTP implementation of Searcher
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	sanitizer  *bluemonday.Policy
}

// NewClient creates a client. Zero values fall back to the public endpoint
// and a 15s timeout.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

// SearchImages requests `limit` images that carry breed metadata.
// Non-2xx answers return *StatusError, everything else that goes wrong
// returns *NetworkError.
func (c *Client) SearchImages(ctx context.Context, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		limit = DefaultBatchSize
	}

	q := url.Values{}
	q.Set("has_breeds", "1")
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + "/images/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{Op: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.UpstreamLog(ctx, endpoint, 0, time.Since(start), err)
		return nil, &NetworkError{Op: "do request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	logger.UpstreamLog(ctx, endpoint, resp.StatusCode, time.Since(start), err)
	if err != nil {
		return nil, &NetworkError{Op: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	var batch []models.Candidate
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, &NetworkError{Op: "decode response", Err: err}
	}

	for i := range batch {
		c.sanitize(&batch[i])
	}
	return batch, nil
}

// sanitize strips markup from the free-text fields of third-party data.
// The policy escapes entities, they are decoded again because templates
// escape on output.
func (c *Client) sanitize(cand *models.Candidate) {
	for i := range cand.Breeds {
		b := &cand.Breeds[i]
		b.Name = c.clean(b.Name)
		b.Temperament = c.clean(b.Temperament)
		b.Origin = c.clean(b.Origin)
		b.Description = c.clean(b.Description)
		b.LifeSpan = c.clean(b.LifeSpan)
	}
}

func (c *Client) clean(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
}
