// Package module mounts prefixed HTTP sub-applications on a shared router,
// each carrying its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/opendocket/docket/pkg/middleware"
)

// Module is a sub-application served under a single-level path prefix. The
// prefix is stripped before requests reach the inner router.
type Module struct {
	prefix string
	router http.Handler
	stack  *middleware.Stack

	once    sync.Once
	wrapped http.Handler
}

// New creates a Module rooted at prefix, which must be a single-level path
// such as "/api".
func New(prefix string, router http.Handler) (*Module, error) {
	if err := checkPrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{
		prefix: prefix,
		router: router,
		stack:  middleware.NewStack(),
	}, nil
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use adds middleware to the module. Registration must happen before the
// first request is served; later calls have no effect.
func (m *Module) Use(fn middleware.Func) {
	m.stack.Use(fn)
}

// Handler returns the inner router wrapped with the module's middleware.
// The chain is built once on first use.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.wrapped = m.stack.Wrap(m.router)
	})
	return m.wrapped
}

// Serve strips the module prefix from the request path and dispatches to the
// wrapped router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	clone := req.Clone(req.Context())
	clone.URL.Path = stripPrefix(req.URL.Path, m.prefix)
	clone.URL.RawPath = ""
	m.Handler().ServeHTTP(w, clone)
}

func stripPrefix(path, prefix string) string {
	stripped := strings.TrimPrefix(path, prefix)
	if stripped == "" {
		return "/"
	}
	return stripped
}

func checkPrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix %q must start with /", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix %q must be a single path segment", prefix)
	}
	return nil
}
