// Package analyze provides the client for the statistical PII engine.
//
// The engine is an external collaborator with a fixed contract: given
// text and a set of entity type names it returns the anonymized text and
// the detected entities with offsets into the original text. The client
// targets a Presidio-style analyzer/anonymizer sidecar over HTTP.
//
// The sidecar is not documented as thread-safe, so calls through one
// Client are serialized and rate limited.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/guardd/internal/guardrail"
)

var (
	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid analyzer configuration")

	// ErrUnavailable indicates the engine rejected or failed the request.
	ErrUnavailable = errors.New("analyzer unavailable")
)

// redactionToken replaces every entity the engine anonymizes.
const redactionToken = "[REDACTED]"

// Config holds analyzer client configuration.
type Config struct {
	// BaseURL is the base URL of the analyzer sidecar.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds each HTTP call.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond limits call rate to the sidecar (0 = unlimited).
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// Client calls the PII engine over HTTP.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter

	// mu serializes calls; the sidecar gives no thread-safety guarantee.
	mu sync.Mutex
}

// New creates an analyzer client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}, nil
}

// analyzeRequest is the wire format for POST /analyze.
type analyzeRequest struct {
	Text     string   `json:"text"`
	Language string   `json:"language"`
	Entities []string `json:"entities,omitempty"`
}

// analyzeResult is one detection from the analyzer.
type analyzeResult struct {
	EntityType string  `json:"entity_type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Score      float64 `json:"score"`
}

// anonymizeRequest is the wire format for POST /anonymize.
type anonymizeRequest struct {
	Text            string                `json:"text"`
	AnalyzerResults []analyzeResult       `json:"analyzer_results"`
	Anonymizers     map[string]anonymizer `json:"anonymizers"`
}

type anonymizer struct {
	Type     string `json:"type"`
	NewValue string `json:"new_value"`
}

type anonymizeResponse struct {
	Text string `json:"text"`
}

// Process detects the requested entity types in text and anonymizes them.
// It returns the rewritten text and the detected entities with byte
// offsets into the original (pre-anonymization) text. The sidecar
// reports rune offsets; they are converted here. A failed call returns
// an error; it is never reported as an empty detection list.
func (c *Client) Process(ctx context.Context, text string, entityTypes []string) (string, []guardrail.Entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	var results []analyzeResult
	if err := c.post(ctx, "/analyze", analyzeRequest{
		Text:     text,
		Language: "en",
		Entities: entityTypes,
	}, &results); err != nil {
		return "", nil, err
	}

	offsets := byteOffsets(text)
	runes := len(offsets) - 1

	entities := make([]guardrail.Entity, 0, len(results))
	for _, r := range results {
		if r.Start < 0 || r.End > runes || r.Start >= r.End {
			return "", nil, fmt.Errorf("%w: detection span [%d,%d) out of bounds", ErrUnavailable, r.Start, r.End)
		}
		start, end := offsets[r.Start], offsets[r.End]
		entities = append(entities, guardrail.Entity{
			Text:  text[start:end],
			Label: r.EntityType,
			Start: start,
			End:   end,
		})
	}

	if len(results) == 0 {
		return text, entities, nil
	}

	var anon anonymizeResponse
	if err := c.post(ctx, "/anonymize", anonymizeRequest{
		Text:            text,
		AnalyzerResults: results,
		Anonymizers: map[string]anonymizer{
			"DEFAULT": {Type: "replace", NewValue: redactionToken},
		},
	}, &anon); err != nil {
		return "", nil, err
	}

	return anon.Text, entities, nil
}

// Ready reports whether the engine is up and its model is loaded.
func (c *Client) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// byteOffsets maps each rune index of text, plus the one-past-the-end
// index, to its byte offset. For ASCII text the mapping is the identity.
func byteOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}

// post sends a JSON request and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnavailable, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid response from %s: %v", ErrUnavailable, path, err)
	}
	return nil
}
