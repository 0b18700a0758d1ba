// Package upstream implements a typed HTTP client against the upstream
// document backend: statistics, paginated document listing, per-document
// fetch and metadata, paginated reference tables, and document deletion.
// Retries use cenkalti/backoff/v4's exponential backoff.
package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const acceptHeader = "application/json; version=9"

// Config configures a Client. Exactly one of BearerToken or
// (BasicUsername, BasicPassword) should be set; BearerToken takes
// precedence if both are present.
type Config struct {
	BaseURL        string
	BearerToken    string
	BasicUsername  string
	BasicPassword  string
	HTTPClient     *http.Client
	MaxAttempts    int // default 3, per spec §6
	Logger         *zap.Logger
}

// Client is a thin, retrying HTTP wrapper around the upstream document
// backend's REST API.
type Client struct {
	baseURL     string
	bearer      string
	basicUser   string
	basicPass   string
	httpClient  *http.Client
	maxAttempts int
	logger      *zap.Logger
}

// New constructs a Client from cfg, filling in documented defaults.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		bearer:      cfg.BearerToken,
		basicUser:   cfg.BasicUsername,
		basicPass:   cfg.BasicPassword,
		httpClient:  httpClient,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	} else if c.basicUser != "" {
		req.SetBasicAuth(c.basicUser, c.basicPass)
	}
	return req, nil
}
