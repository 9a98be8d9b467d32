package metrics

import (
	"net/http"
	"strings"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// routeParams maps parameterized API prefixes to their placeholder. Symbols,
// signal IDs and job IDs are collapsed so label cardinality stays bounded.
var routeParams = map[string]string{
	"/api/v1/analysis/":  "{symbol}",
	"/api/v1/candles/":   "{symbol}",
	"/api/v1/levels/":    "{symbol}",
	"/api/v1/signals/":   "{id}",
	"/api/v1/backtest/":  "{job}",
	"/api/v1/watchlist/": "{symbol}",
}

// fixedSubroutes are non-parameter trailing segments kept as-is.
var fixedSubroutes = map[string]bool{
	"/api/v1/signals/stats":    true,
	"/api/v1/analysis/trigger": true,
}

// normalizePath replaces the variable trailing segment of known API routes
// with its placeholder.
func normalizePath(path string) string {
	if fixedSubroutes[path] {
		return path
	}
	for prefix, param := range routeParams {
		rest, ok := strings.CutPrefix(path, prefix)
		if ok && rest != "" && !strings.Contains(rest, "/") {
			return prefix + param
		}
	}
	return path
}

// HTTPMiddleware returns middleware that records request counts, duration
// and in-flight gauge per method and normalized route.
func HTTPMiddleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.InFlightInc()
			defer reg.InFlightDec()

			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			reg.RecordRequest(r.Method, normalizePath(r.URL.Path), rw.statusCode, duration)
		})
	}
}
