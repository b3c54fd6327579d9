package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/opendocket/docket/pkg/database"
	"github.com/opendocket/docket/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDocketEnv             = "DOCKET_ENV"
	EnvDocketShutdownTimeout = "DOCKET_SHUTDOWN_TIMEOUT"
	EnvDocketVersion         = "DOCKET_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "DOCKET_DB_HOST",
	Port:            "DOCKET_DB_PORT",
	Name:            "DOCKET_DB_NAME",
	User:            "DOCKET_DB_USER",
	Password:        "DOCKET_DB_PASSWORD",
	SSLMode:         "DOCKET_DB_SSL_MODE",
	MaxOpenConns:    "DOCKET_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "DOCKET_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DOCKET_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DOCKET_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "DOCKET_STORAGE_CONTAINER_NAME",
	ConnectionString: "DOCKET_STORAGE_CONNECTION_STRING",
	AccountURL:       "DOCKET_STORAGE_ACCOUNT_URL",
	MaxListSize:      "DOCKET_STORAGE_MAX_LIST_SIZE",
}

// Config is the root configuration for the docket service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	Providers       ProvidersConfig `toml:"providers"`
	Notify          NotifyConfig    `toml:"notify"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the DOCKET_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDocketEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return asDuration(c.ShutdownTimeout)
}

// Load reads config.toml when present, merges the DOCKET_ENV overlay file on
// top, and finalizes all values. Without any config file, defaults and
// environment variables provide the whole configuration.
func Load() (*Config, error) {
	cfg, err := loadFile(BaseConfigFile)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}

	if env := os.Getenv(EnvDocketEnv); env != "" {
		overlay, err := loadFile(fmt.Sprintf(OverlayConfigPattern, env))
		if err != nil {
			return nil, err
		}
		if overlay != nil {
			cfg.Merge(overlay)
		}
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// loadFile parses one TOML config file, returning nil without error when the
// file does not exist.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	overlayString(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	overlayString(&c.Version, overlay.Version)
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Providers.Merge(&overlay.Providers)
	c.Notify.Merge(&overlay.Notify)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name string
		fn   func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"pipeline", c.Pipeline.Finalize},
		{"providers", c.Providers.Finalize},
		{"notify", c.Notify.Finalize},
	}
	for _, s := range sections {
		if err := s.fn(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	envString(&c.ShutdownTimeout, EnvDocketShutdownTimeout)
	envString(&c.Version, EnvDocketVersion)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

// asDuration parses a validated duration string, returning zero on failure.
func asDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// overlayString overwrites dst when the overlay value is set.
func overlayString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// overlayInt overwrites dst when the overlay value is set.
func overlayInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// fallbackString assigns value only when dst is unset.
func fallbackString(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

// fallbackInt assigns value only when dst is unset.
func fallbackInt(dst *int, value int) {
	if *dst == 0 {
		*dst = value
	}
}

// envString overwrites dst when the named environment variable is set.
func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// envInt overwrites dst when the named environment variable parses as an
// integer.
func envInt(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// envPositiveInt overwrites dst only for positive integer values.
func envPositiveInt(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
