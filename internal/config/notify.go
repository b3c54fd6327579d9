package config

import (
	"fmt"
	"time"
)

const (
	EnvNotifyRevalidateURL = "DOCKET_NOTIFY_REVALIDATE_URL"
	EnvNotifySecret        = "DOCKET_NOTIFY_SECRET"
	EnvNotifyTimeout       = "DOCKET_NOTIFY_TIMEOUT"
)

// NotifyConfig configures downstream cache revalidation. An empty
// RevalidateURL disables notification entirely.
type NotifyConfig struct {
	RevalidateURL string `toml:"revalidate_url"`
	Secret        string `toml:"secret"`
	Timeout       string `toml:"timeout"`
}

// Enabled reports whether revalidation requests should be sent.
func (c *NotifyConfig) Enabled() bool {
	return c.RevalidateURL != ""
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *NotifyConfig) TimeoutDuration() time.Duration {
	return asDuration(c.Timeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *NotifyConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *NotifyConfig) Merge(overlay *NotifyConfig) {
	overlayString(&c.RevalidateURL, overlay.RevalidateURL)
	overlayString(&c.Secret, overlay.Secret)
	overlayString(&c.Timeout, overlay.Timeout)
}

func (c *NotifyConfig) loadDefaults() {
	fallbackString(&c.Timeout, "10s")
}

func (c *NotifyConfig) loadEnv() {
	envString(&c.RevalidateURL, EnvNotifyRevalidateURL)
	envString(&c.Secret, EnvNotifySecret)
	envString(&c.Timeout, EnvNotifyTimeout)
}

func (c *NotifyConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid notify timeout: %w", err)
	}
	return nil
}
