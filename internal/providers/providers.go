// Package providers implements the upstream feed client. Every category of
// a subject's public record is fetched from the same aggregation feed as
// JSON, with bounded payload sizes and a retry policy on transient
// failures.
package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/opendocket/docket/internal/config"
	"github.com/opendocket/docket/internal/records"
	"github.com/opendocket/docket/pkg/formatting"
	"github.com/opendocket/docket/pkg/metrics"
)

// Client fetches raw category payloads from the upstream feed.
type Client struct {
	http        *http.Client
	baseURL     string
	token       string
	maxBytes    int64
	attempts    int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	logger      *slog.Logger
	metrics     *metrics.Manager
}

// NewClient creates a feed client from the provider and pipeline
// configuration.
func NewClient(
	providers *config.ProvidersConfig,
	pipeline *config.PipelineConfig,
	logger *slog.Logger,
	meter *metrics.Manager,
) *Client {
	return &Client{
		http:        &http.Client{Timeout: providers.TimeoutDuration()},
		baseURL:     providers.BaseURL,
		token:       providers.APIToken,
		maxBytes:    providers.MaxPayloadBytes(),
		attempts:    pipeline.RetryAttempts,
		baseBackoff: pipeline.RetryBaseBackoffDuration(),
		maxBackoff:  pipeline.RetryMaxBackoffDuration(),
		logger:      logger.With("system", "providers"),
		metrics:     meter,
	}
}

// Fetch retrieves one category's raw payload for a subject, retrying
// transient failures per the pipeline retry policy. A missing feed document
// is permanent and fails without retry.
func (c *Client) Fetch(ctx context.Context, subjectID, providerRef string, category records.Category) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s.json", c.baseURL, category, providerRef)

	var payload []byte
	operation := func() error {
		body, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		payload = body
		return nil
	}

	notify := func(err error, next time.Duration) {
		c.metrics.FetchRetried(string(category))
		c.logger.Warn("fetch failed, retrying",
			"subject", subjectID,
			"category", category,
			"next_retry_in", next,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, c.policy(ctx), notify); err != nil {
		return nil, &FetchError{SubjectID: subjectID, Category: category, Err: err}
	}

	return payload, nil
}

// FetchAll retrieves every category concurrently, one goroutine per
// category. Failures are collected per category; a failed category never
// aborts its siblings.
func (c *Client) FetchAll(ctx context.Context, subjectID, providerRef string) (map[records.Category][]byte, map[records.Category]error) {
	var mu sync.Mutex
	payloads := make(map[records.Category][]byte)
	failures := make(map[records.Category]error)

	g, gctx := errgroup.WithContext(ctx)
	for _, category := range records.Categories() {
		g.Go(func() error {
			body, err := c.Fetch(gctx, subjectID, providerRef, category)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[category] = err
			} else {
				payloads[category] = body
			}
			return nil
		})
	}
	_ = g.Wait() // workers record failures instead of returning them

	return payloads, failures
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("feed document missing: %s", url))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("feed returned %d for %s", resp.StatusCode, url)
	default:
		return nil, backoff.Permanent(fmt.Errorf("feed returned %d for %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBytes {
		return nil, backoff.Permanent(fmt.Errorf("payload exceeds %s: %s", formatting.FormatBytes(c.maxBytes, 0), url))
	}

	return body, nil
}

// policy builds the per-call retry policy: exponential backoff between the
// configured base and cap, bounded by the configured attempt count, cut
// short by context cancellation.
func (c *Client) policy(ctx context.Context) backoff.BackOffContext {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.baseBackoff
	expo.MaxInterval = c.maxBackoff
	expo.MaxElapsedTime = 0

	retries := uint64(0)
	if c.attempts > 1 {
		retries = uint64(c.attempts - 1)
	}

	return backoff.WithContext(backoff.WithMaxRetries(expo, retries), ctx)
}
