// Package middleware provides HTTP middleware composition plus the logging
// and CORS wrappers shared by every route tree.
package middleware

import "net/http"

// Func wraps an http.Handler with additional behavior.
type Func func(http.Handler) http.Handler

// Stack composes middleware in registration order. The first Func added
// becomes the outermost wrapper.
type Stack struct {
	funcs []Func
}

// NewStack creates a Stack seeded with the given middleware.
func NewStack(funcs ...Func) *Stack {
	return &Stack{funcs: funcs}
}

// Use appends fn to the stack.
func (s *Stack) Use(fn Func) {
	s.funcs = append(s.funcs, fn)
}

// Wrap returns handler wrapped by every registered middleware.
func (s *Stack) Wrap(handler http.Handler) http.Handler {
	for i := len(s.funcs) - 1; i >= 0; i-- {
		handler = s.funcs[i](handler)
	}
	return handler
}
