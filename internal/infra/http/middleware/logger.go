package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// HTTPLogger registra cada requisição com latência, status e rota
func HTTPLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			latency := time.Since(start)

			fields := map[string]interface{}{
				"component":   "http",
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       routePattern(r),
				"status_code": ww.statusCode,
				"latency_ms":  latency.Milliseconds(),
				"ip":          clientIP(r),
				"bytes":       ww.bytesWritten,
			}
			if query := r.URL.RawQuery; query != "" {
				fields["query"] = query
			}
			if requestID := GetRequestIDFromContext(r); requestID != "" {
				fields["request_id"] = requestID
			}

			message := fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
			switch {
			case ww.statusCode >= 500:
				log.ErrorWithFields(message, fields)
			case ww.statusCode >= 400:
				log.WarnWithFields(message, fields)
			default:
				log.InfoWithFields(message, fields)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		return routeCtx.RoutePattern()
	}
	return r.URL.Path
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
