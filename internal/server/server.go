// package server contains middleware & handlers for the companion daemon
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the companion daemon.
// Implementations handle specific endpoint groups (auth, content, events).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// LoggingMiddleware logs the method, path and duration of each request.
func LoggingMiddleware(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)          // Use adds middleware to the router's middleware stack
	Handle(pattern string, h http.Handler) // Handle registers a handler for a "METHOD /path" pattern
	Handler(handler Handler)               // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}
