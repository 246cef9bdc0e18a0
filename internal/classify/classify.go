// Package classify provides the client for the zero-shot topic
// classifier collaborator.
//
// The classifier scores text against arbitrary topic labels without
// task-specific training. The client targets a HuggingFace-style
// zero-shot-classification endpoint over HTTP. As with the PII engine,
// the service is not documented thread-safe, so calls through one Client
// are serialized and rate limited.
package classify

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
)

var (
	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid classifier configuration")

	// ErrUnavailable indicates the classifier rejected or failed the request.
	ErrUnavailable = errors.New("classifier unavailable")
)

// Config holds classifier client configuration.
type Config struct {
	// BaseURL is the base URL of the classifier service.
	BaseURL string `koanf:"base_url"`

	// Timeout bounds each HTTP call.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond limits call rate to the service (0 = unlimited).
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// Result is a topic that scored at or above the requested threshold.
type Result struct {
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

// Client calls the zero-shot classifier over HTTP.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter

	mu sync.Mutex
}

// New creates a classifier client.
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

// classifyRequest is the wire format for POST /classify.
type classifyRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters classifyParameters `json:"parameters"`
}

type classifyParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type classifyResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Detect scores text against each topic and returns only topics whose top
// label matches the queried label exactly and scores at or above the
// threshold. Topics are scored one at a time, mirroring the classifier's
// single-label contract.
func (c *Client) Detect(ctx context.Context, text string, topics []string, threshold float64) ([]Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	detected := make([]Result, 0)
	for _, topic := range topics {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.classify(ctx, text, []string{topic})
		if err != nil {
			return nil, err
		}
		if len(resp.Labels) == 0 || len(resp.Scores) == 0 {
			return nil, fmt.Errorf("%w: empty classification response", ErrUnavailable)
		}

		if resp.Labels[0] == topic && resp.Scores[0] >= threshold {
			detected = append(detected, Result{Topic: topic, Score: resp.Scores[0]})
		}
	}
	return detected, nil
}

// Ready reports whether the classifier is up and its model is loaded.
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

func (c *Client) classify(ctx context.Context, text string, labels []string) (*classifyResponse, error) {
	payload, err := json.Marshal(classifyRequest{
		Inputs:     text,
		Parameters: classifyParameters{CandidateLabels: labels},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: classify returned %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrUnavailable, err)
	}
	return &out, nil
}
