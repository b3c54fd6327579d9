package storage

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds Azure Blob Storage connection parameters. Exactly one of
// ConnectionString or AccountURL must be set; AccountURL implies ambient
// credential auth.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
	MaxListSize      int32  `toml:"max_list_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	AccountURL       string
	MaxListSize      string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	set(&c.ContainerName, overlay.ContainerName)
	set(&c.ConnectionString, overlay.ConnectionString)
	set(&c.AccountURL, overlay.AccountURL)
	if overlay.MaxListSize > 0 {
		c.MaxListSize = overlay.MaxListSize
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "docket"
	}
	if c.MaxListSize <= 0 {
		c.MaxListSize = 50
	}
	c.MaxListSize = min(c.MaxListSize, MaxListCap)
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}

	overrides := []struct {
		dst  *string
		name string
	}{
		{&c.ContainerName, env.ContainerName},
		{&c.ConnectionString, env.ConnectionString},
		{&c.AccountURL, env.AccountURL},
	}
	for _, o := range overrides {
		if o.name == "" {
			continue
		}
		if v := os.Getenv(o.name); v != "" {
			*o.dst = v
		}
	}

	if n := positiveEnvInt(env.MaxListSize); n > 0 {
		c.MaxListSize = min(int32(n), MaxListCap)
	}
}

// positiveEnvInt reads the named variable, returning 0 when the name is
// empty, the variable is unset, or the value is not a positive integer.
func positiveEnvInt(name string) int {
	if name == "" {
		return 0
	}
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.ConnectionString == "" && c.AccountURL == "" {
		return fmt.Errorf("connection_string or account_url required")
	}
	return nil
}
