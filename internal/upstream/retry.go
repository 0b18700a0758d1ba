package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/rknightion/paperless-dedupe/internal/model"
)

const (
	maxBackoffInterval  = 30 * time.Second
	maxRetryAfterWait   = 60 * time.Second
	defaultRetryAfter   = 5 * time.Second
)

// do issues one request, retrying per spec §6/§7: network errors and HTTP
// 5xx are retried with exponential backoff capped at 30s; 429 honours
// Retry-After (capped at 60s); 401/403 surface as UpstreamAuth without
// retry; other 4xx surface as UpstreamProtocol without retry. On retry
// exhaustion the error is wrapped as UpstreamUnavailable.
func (c *Client) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	eb := backoff.NewExponentialBackOff()
	eb.MaxInterval = maxBackoffInterval
	eb.MaxElapsedTime = 0 // bounded by attempt count below, not elapsed wall time

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.maxAttempts-1)), ctx)

	var resp *http.Response
	operation := func() error {
		req, err := c.newRequest(ctx, method, path, query)
		if err != nil {
			return backoff.Permanent(err)
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("upstream request failed, retrying", zap.Error(err))
			return err
		}

		switch {
		case r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden:
			drain(r)
			return backoff.Permanent(fmt.Errorf("upstream: %w", model.ErrUpstreamAuth))

		case r.StatusCode == http.StatusTooManyRequests:
			wait := retryAfterDuration(r.Header.Get("Retry-After"), defaultRetryAfter)
			drain(r)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("upstream: rate limited (429)")

		case r.StatusCode >= 500:
			drain(r)
			return fmt.Errorf("upstream: server error (%d)", r.StatusCode)

		case r.StatusCode >= 400:
			drain(r)
			return backoff.Permanent(fmt.Errorf("upstream: %w: status %d", model.ErrUpstreamProtocol, r.StatusCode))

		default:
			resp = r
			return nil
		}
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, model.ErrUpstreamAuth) || errors.Is(err, model.ErrUpstreamProtocol) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

// retryAfterDuration parses a Retry-After header (seconds, or an HTTP
// date) and caps it at maxRetryAfterWait, falling back to def if the
// header is absent or unparseable.
func retryAfterDuration(header string, def time.Duration) time.Duration {
	if header == "" {
		return def
	}
	if secs, err := strconv.Atoi(header); err == nil {
		d := time.Duration(secs) * time.Second
		if d > maxRetryAfterWait {
			return maxRetryAfterWait
		}
		if d < 0 {
			return 0
		}
		return d
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		if d > maxRetryAfterWait {
			return maxRetryAfterWait
		}
		return d
	}
	return def
}

func drain(r *http.Response) {
	_, _ = io.Copy(io.Discard, r.Body)
	_ = r.Body.Close()
}
