// Package notify pushes cache-revalidation hints to the public site after
// a subject's records change. Delivery is best-effort: the pipeline logs
// failures and moves on, so a down frontend never fails a run.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/opendocket/docket/internal/config"
	"github.com/opendocket/docket/pkg/metrics"
)

// revalidation is the wire body for a revalidation request.
type revalidation struct {
	Paths  []string `json:"paths"`
	Secret string   `json:"secret"`
}

// Revalidator sends revalidation requests to the configured frontend
// endpoint. A Revalidator with no endpoint configured is a no-op.
type Revalidator struct {
	http        *http.Client
	url         string
	secret      string
	attempts    int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	logger      *slog.Logger
	metrics     *metrics.Manager
}

// NewRevalidator creates a Revalidator from the notify and pipeline
// configuration.
func NewRevalidator(
	notify *config.NotifyConfig,
	pipeline *config.PipelineConfig,
	logger *slog.Logger,
	meter *metrics.Manager,
) *Revalidator {
	return &Revalidator{
		http:        &http.Client{Timeout: notify.TimeoutDuration()},
		url:         notify.RevalidateURL,
		secret:      notify.Secret,
		attempts:    pipeline.RetryAttempts,
		baseBackoff: pipeline.RetryBaseBackoffDuration(),
		maxBackoff:  pipeline.RetryMaxBackoffDuration(),
		logger:      logger.With("system", "notify"),
		metrics:     meter,
	}
}

// InvalidateSubject revalidates the pages a subject's records feed: the
// subject page, the subject's state listing, and the site root.
func (r *Revalidator) InvalidateSubject(ctx context.Context, subjectID, state string) error {
	return r.Invalidate(ctx, []string{
		"/officials/" + subjectID,
		"/officials/" + state,
		"/",
	})
}

// Invalidate posts the given paths to the revalidation endpoint, retrying
// transient failures. Returns nil immediately when no endpoint is
// configured.
func (r *Revalidator) Invalidate(ctx context.Context, paths []string) error {
	if r.url == "" {
		return nil
	}

	body, err := json.Marshal(revalidation{Paths: paths, Secret: r.secret})
	if err != nil {
		return fmt.Errorf("encode revalidation request: %w", err)
	}

	operation := func() error {
		return r.post(ctx, body)
	}

	notify := func(err error, next time.Duration) {
		r.logger.Warn("revalidation failed, retrying",
			"paths", paths,
			"next_retry_in", next,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, r.policy(ctx), notify); err != nil {
		r.metrics.NotifyFailed()
		return fmt.Errorf("revalidate %v: %w", paths, err)
	}

	return nil
}

func (r *Revalidator) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("revalidation endpoint returned %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("revalidation endpoint returned %d", resp.StatusCode))
	}
}

func (r *Revalidator) policy(ctx context.Context) backoff.BackOffContext {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.baseBackoff
	expo.MaxInterval = r.maxBackoff
	expo.MaxElapsedTime = 0

	retries := uint64(0)
	if r.attempts > 1 {
		retries = uint64(r.attempts - 1)
	}

	return backoff.WithContext(backoff.WithMaxRetries(expo, retries), ctx)
}
