package middleware

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// CORSConfig holds the cross-origin resource sharing policy.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv names the environment variables that may override each CORSConfig
// field. Empty names are not consulted.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	AllowCredentials string
	MaxAge           string
}

// Finalize applies defaults and environment variable overrides.
func (c *CORSConfig) Finalize(env *CORSEnv) error {
	c.loadDefaults()
	c.loadEnv(env)
	return nil
}

// Merge overwrites fields set in overlay. Booleans always apply; lists and
// max_age only when set.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials

	mergeList(&c.Origins, overlay.Origins)
	mergeList(&c.AllowedMethods, overlay.AllowedMethods)
	mergeList(&c.AllowedHeaders, overlay.AllowedHeaders)
	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

func (c *CORSConfig) loadDefaults() {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}
}

func (c *CORSConfig) loadEnv(env *CORSEnv) {
	if env == nil {
		return
	}

	if raw := lookup(env.Enabled); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			c.Enabled = v
		}
	}
	if raw := lookup(env.Origins); raw != "" {
		c.Origins = splitList(raw)
	}
	if raw := lookup(env.AllowedMethods); raw != "" {
		c.AllowedMethods = splitList(raw)
	}
	if raw := lookup(env.AllowedHeaders); raw != "" {
		c.AllowedHeaders = splitList(raw)
	}
	if raw := lookup(env.AllowCredentials); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			c.AllowCredentials = v
		}
	}
	if raw := lookup(env.MaxAge); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			c.MaxAge = v
		}
	}
}

// mergeList replaces dst only when the overlay provided the list at all; an
// explicitly empty list still overrides.
func mergeList(dst *[]string, src []string) {
	if src != nil {
		*dst = src
	}
}

// lookup reads the named environment variable, treating an empty name as unset.
func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

// splitList parses a comma-separated value, trimming whitespace and dropping
// empty entries.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
