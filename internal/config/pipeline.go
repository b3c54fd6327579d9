package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineConcurrency        = "DOCKET_PIPELINE_CONCURRENCY"
	EnvPipelineRetryAttempts      = "DOCKET_PIPELINE_RETRY_ATTEMPTS"
	EnvPipelineRetryBaseBackoff   = "DOCKET_PIPELINE_RETRY_BASE_BACKOFF"
	EnvPipelineRetryMaxBackoff    = "DOCKET_PIPELINE_RETRY_MAX_BACKOFF"
	EnvPipelineTimingWindowDays   = "DOCKET_PIPELINE_TIMING_WINDOW_DAYS"
	EnvPipelineCriticalGapDays    = "DOCKET_PIPELINE_CRITICAL_GAP_DAYS"
	EnvPipelineOutreachGapMonths  = "DOCKET_PIPELINE_OUTREACH_GAP_MONTHS"
	EnvPipelinePeerMissedVoteRate = "DOCKET_PIPELINE_PEER_MISSED_VOTE_RATE"
)

// PipelineConfig holds batch scheduling, retry, and scoring-threshold
// parameters. The timing window and critical gap are deployment-tunable,
// not constants.
type PipelineConfig struct {
	Concurrency        int     `toml:"concurrency"`
	RetryAttempts      int     `toml:"retry_attempts"`
	RetryBaseBackoff   string  `toml:"retry_base_backoff"`
	RetryMaxBackoff    string  `toml:"retry_max_backoff"`
	TimingWindowDays   int     `toml:"timing_window_days"`
	CriticalGapDays    int     `toml:"critical_gap_days"`
	OutreachGapMonths  int     `toml:"outreach_gap_months"`
	PeerMissedVoteRate float64 `toml:"peer_missed_vote_rate"`
}

// RetryBaseBackoffDuration returns RetryBaseBackoff as a time.Duration.
func (c *PipelineConfig) RetryBaseBackoffDuration() time.Duration {
	return asDuration(c.RetryBaseBackoff)
}

// RetryMaxBackoffDuration returns RetryMaxBackoff as a time.Duration.
func (c *PipelineConfig) RetryMaxBackoffDuration() time.Duration {
	return asDuration(c.RetryMaxBackoff)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	overlayInt(&c.Concurrency, overlay.Concurrency)
	overlayInt(&c.RetryAttempts, overlay.RetryAttempts)
	overlayString(&c.RetryBaseBackoff, overlay.RetryBaseBackoff)
	overlayString(&c.RetryMaxBackoff, overlay.RetryMaxBackoff)
	overlayInt(&c.TimingWindowDays, overlay.TimingWindowDays)
	overlayInt(&c.CriticalGapDays, overlay.CriticalGapDays)
	overlayInt(&c.OutreachGapMonths, overlay.OutreachGapMonths)
	if overlay.PeerMissedVoteRate != 0 {
		c.PeerMissedVoteRate = overlay.PeerMissedVoteRate
	}
}

func (c *PipelineConfig) loadDefaults() {
	fallbackInt(&c.Concurrency, 10)
	fallbackInt(&c.RetryAttempts, 3)
	fallbackString(&c.RetryBaseBackoff, "1s")
	fallbackString(&c.RetryMaxBackoff, "10s")
	fallbackInt(&c.TimingWindowDays, 30)
	fallbackInt(&c.CriticalGapDays, 14)
	fallbackInt(&c.OutreachGapMonths, 18)
	if c.PeerMissedVoteRate == 0 {
		c.PeerMissedVoteRate = 0.08
	}
}

func (c *PipelineConfig) loadEnv() {
	envPositiveInt(&c.Concurrency, EnvPipelineConcurrency)
	envPositiveInt(&c.RetryAttempts, EnvPipelineRetryAttempts)
	envString(&c.RetryBaseBackoff, EnvPipelineRetryBaseBackoff)
	envString(&c.RetryMaxBackoff, EnvPipelineRetryMaxBackoff)
	envPositiveInt(&c.TimingWindowDays, EnvPipelineTimingWindowDays)
	envPositiveInt(&c.CriticalGapDays, EnvPipelineCriticalGapDays)
	envPositiveInt(&c.OutreachGapMonths, EnvPipelineOutreachGapMonths)

	if v := os.Getenv(EnvPipelinePeerMissedVoteRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.PeerMissedVoteRate = f
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be positive")
	}
	if _, err := time.ParseDuration(c.RetryBaseBackoff); err != nil {
		return fmt.Errorf("invalid retry_base_backoff: %w", err)
	}
	if _, err := time.ParseDuration(c.RetryMaxBackoff); err != nil {
		return fmt.Errorf("invalid retry_max_backoff: %w", err)
	}
	if c.CriticalGapDays > c.TimingWindowDays {
		return fmt.Errorf("critical_gap_days cannot exceed timing_window_days")
	}
	if c.PeerMissedVoteRate <= 0 || c.PeerMissedVoteRate >= 1 {
		return fmt.Errorf("peer_missed_vote_rate must be in (0, 1)")
	}
	return nil
}
