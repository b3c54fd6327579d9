package config

import (
	"fmt"
	"time"

	"github.com/opendocket/docket/pkg/formatting"
)

const (
	EnvProvidersBaseURL        = "DOCKET_PROVIDERS_BASE_URL"
	EnvProvidersAPIToken       = "DOCKET_PROVIDERS_API_TOKEN"
	EnvProvidersTimeout        = "DOCKET_PROVIDERS_TIMEOUT"
	EnvProvidersMaxPayloadSize = "DOCKET_PROVIDERS_MAX_PAYLOAD_SIZE"
)

// ProvidersConfig configures the upstream feed client.
type ProvidersConfig struct {
	BaseURL        string `toml:"base_url"`
	APIToken       string `toml:"api_token"`
	Timeout        string `toml:"timeout"`
	MaxPayloadSize string `toml:"max_payload_size"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ProvidersConfig) TimeoutDuration() time.Duration {
	return asDuration(c.Timeout)
}

// MaxPayloadBytes returns MaxPayloadSize in bytes.
func (c *ProvidersConfig) MaxPayloadBytes() int64 {
	b, _ := formatting.ParseBytes(c.MaxPayloadSize)
	return b
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ProvidersConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ProvidersConfig) Merge(overlay *ProvidersConfig) {
	overlayString(&c.BaseURL, overlay.BaseURL)
	overlayString(&c.APIToken, overlay.APIToken)
	overlayString(&c.Timeout, overlay.Timeout)
	overlayString(&c.MaxPayloadSize, overlay.MaxPayloadSize)
}

func (c *ProvidersConfig) loadDefaults() {
	fallbackString(&c.Timeout, "30s")
	fallbackString(&c.MaxPayloadSize, "4MB")
}

func (c *ProvidersConfig) loadEnv() {
	envString(&c.BaseURL, EnvProvidersBaseURL)
	envString(&c.APIToken, EnvProvidersAPIToken)
	envString(&c.Timeout, EnvProvidersTimeout)
	envString(&c.MaxPayloadSize, EnvProvidersMaxPayloadSize)
}

func (c *ProvidersConfig) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("providers base_url is required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid providers timeout: %w", err)
	}
	if _, err := formatting.ParseBytes(c.MaxPayloadSize); err != nil {
		return fmt.Errorf("invalid max_payload_size: %w", err)
	}
	return nil
}
