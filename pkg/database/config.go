package database

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds Postgres connection and pool parameters.
type Config struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// DSN returns the keyword/value connection string for the configured server.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns ConnMaxLifetime as a time.Duration.
func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	return duration(c.ConnMaxLifetime)
}

// ConnTimeoutDuration returns ConnTimeout as a time.Duration.
func (c *Config) ConnTimeoutDuration() time.Duration {
	return duration(c.ConnTimeout)
}

// Env names the environment variables that may override each Config field.
// Empty names are not consulted.
type Env struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge overwrites fields that are set in overlay.
func (c *Config) Merge(overlay *Config) {
	override(&c.Host, overlay.Host)
	override(&c.Port, overlay.Port)
	override(&c.Name, overlay.Name)
	override(&c.User, overlay.User)
	override(&c.Password, overlay.Password)
	override(&c.SSLMode, overlay.SSLMode)
	override(&c.MaxOpenConns, overlay.MaxOpenConns)
	override(&c.MaxIdleConns, overlay.MaxIdleConns)
	override(&c.ConnMaxLifetime, overlay.ConnMaxLifetime)
	override(&c.ConnTimeout, overlay.ConnTimeout)
}

func (c *Config) loadDefaults() {
	fallback(&c.Host, "localhost")
	fallback(&c.Port, 5432)
	fallback(&c.SSLMode, "disable")
	fallback(&c.MaxOpenConns, 25)
	fallback(&c.MaxIdleConns, 5)
	fallback(&c.ConnMaxLifetime, "15m")
	fallback(&c.ConnTimeout, "5s")
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}

	vars := []struct {
		name  string
		apply func(string)
	}{
		{env.Host, func(v string) { c.Host = v }},
		{env.Port, func(v string) { setInt(&c.Port, v) }},
		{env.Name, func(v string) { c.Name = v }},
		{env.User, func(v string) { c.User = v }},
		{env.Password, func(v string) { c.Password = v }},
		{env.SSLMode, func(v string) { c.SSLMode = v }},
		{env.MaxOpenConns, func(v string) { setInt(&c.MaxOpenConns, v) }},
		{env.MaxIdleConns, func(v string) { setInt(&c.MaxIdleConns, v) }},
		{env.ConnMaxLifetime, func(v string) { c.ConnMaxLifetime = v }},
		{env.ConnTimeout, func(v string) { c.ConnTimeout = v }},
	}

	for _, v := range vars {
		if v.name == "" {
			continue
		}
		if raw := os.Getenv(v.name); raw != "" {
			v.apply(raw)
		}
	}
}

func (c *Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.User == "" {
		return fmt.Errorf("user required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	durations := []struct{ name, value string }{
		{"conn_max_lifetime", c.ConnMaxLifetime},
		{"conn_timeout", c.ConnTimeout},
	}
	for _, d := range durations {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
	}
	return nil
}

// override copies src over dst unless src is the zero value.
func override[T comparable](dst *T, src T) {
	var zero T
	if src != zero {
		*dst = src
	}
}

// fallback sets dst to value only when dst holds the zero value.
func fallback[T comparable](dst *T, value T) {
	var zero T
	if *dst == zero {
		*dst = value
	}
}

// setInt parses raw into dst, leaving dst unchanged on malformed input.
func setInt(dst *int, raw string) {
	if n, err := strconv.Atoi(raw); err == nil {
		*dst = n
	}
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
