package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/felipyfgs/onwapp-sub000/platform/config"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// APIKeyAuth exige a chave global em todas as rotas, exceto o health
// check e o webhook de entrada do Chatwoot (que o Chatwoot chama sem ela)
func APIKeyAuth(cfg *config.Config, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if strings.HasPrefix(path, "/health") || strings.Contains(path, "/chatwoot/webhook") {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("Authorization")
			if apiKey == "" {
				apiKey = r.Header.Get("X-API-Key")
			}

			if apiKey == "" {
				log.WarnWithFields("Missing API key", map[string]interface{}{
					"path":   path,
					"method": r.Method,
					"ip":     r.RemoteAddr,
				})
				writeUnauthorized(w, "API key is required. Provide it via Authorization header or X-API-Key header", "MISSING_API_KEY")
				return
			}

			if apiKey != cfg.GlobalAPIKey {
				log.WarnWithFields("Invalid API key", map[string]interface{}{
					"path":    path,
					"method":  r.Method,
					"ip":      r.RemoteAddr,
					"api_key": maskAPIKey(apiKey),
				})
				writeUnauthorized(w, "Invalid API key", "INVALID_API_KEY")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "Unauthorized",
		"message": message,
		"code":    code,
	})
}

func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 12 {
		return strings.Repeat("*", len(apiKey))
	}
	return apiKey[:8] + strings.Repeat("*", len(apiKey)-12) + apiKey[len(apiKey)-4:]
}
