package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// routeKey carries the route slot filled in by TagRoute.
type routeKey struct{}

// MetricsMiddleware records univault_requests_total,
// univault_request_duration_seconds and univault_requests_inflight.
//
// Requests are labelled by the ServeMux pattern of the handler that served
// them, as reported by TagRoute, or "unmatched". The outer request never
// sees r.Pattern itself because inner middleware hand the mux a copy.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InflightRequests.Inc()
		defer InflightRequests.Dec()

		route := "unmatched"
		r = r.WithContext(context.WithValue(r.Context(), routeKey{}, &route))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		class := strconv.Itoa(sw.status/100) + "xx"
		RequestsTotal.WithLabelValues(r.Method, class, route).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// TagRoute wraps a handler registered on a ServeMux so that the matched
// pattern reaches MetricsMiddleware.
func TagRoute(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slot, ok := r.Context().Value(routeKey{}).(*string); ok && r.Pattern != "" {
			*slot = r.Pattern
		}
		h.ServeHTTP(w, r)
	})
}

// statusWriter remembers the first status code written.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Flush keeps streaming responses (MCP over streamable HTTP) working.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
