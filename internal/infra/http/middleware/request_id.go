package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/felipyfgs/onwapp-sub000/platform/config"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

type requestContextKey string

const (
	requestIDContextKey requestContextKey = "request_id"
	loggerContextKey    requestContextKey = "logger"
)

// RequestID propaga ou gera o X-Request-ID e anexa um logger com ele ao
// contexto da requisição
func RequestID(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
			ctx = context.WithValue(ctx, loggerContextKey, log.WithRequest(requestID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLoggerFromContext devolve o logger da requisição, ou um novo
func GetLoggerFromContext(r *http.Request) *logger.Logger {
	if l, ok := r.Context().Value(loggerContextKey).(*logger.Logger); ok {
		return l
	}
	return logger.New(config.LogConfig{Level: "info", Format: "console", Output: "stdout"})
}

func GetRequestIDFromContext(r *http.Request) string {
	if requestID, ok := r.Context().Value(requestIDContextKey).(string); ok {
		return requestID
	}
	return ""
}
