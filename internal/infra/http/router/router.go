package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/webhook"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/http/handlers"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/http/middleware"
	"github.com/felipyfgs/onwapp-sub000/platform/config"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// Handlers agrupa os handlers que o router registra
type Handlers struct {
	Session  *handlers.SessionHandler
	Message  *handlers.MessageHandler
	Webhook  *handlers.WebhookHandler
	Chatwoot *handlers.ChatwootHandler
	Health   *handlers.HealthHandler
}

// New monta o router com middleware e todas as rotas da API
func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID(log))
	r.Use(middleware.HTTPLogger(log))
	r.Use(middleware.APIKeyAuth(cfg, log))

	r.Get("/health", h.Health.Health)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/create", h.Session.Create)
		r.Get("/list", h.Session.List)

		r.Route("/{sessionId}", func(r chi.Router) {
			r.Get("/info", h.Session.Info)
			r.Post("/connect", h.Session.Connect)
			r.Post("/logout", h.Session.Logout)
			r.Delete("/delete", h.Session.Delete)
			r.Get("/qr", h.Session.QR)

			r.Post("/messages/send/text", h.Message.SendText)
			r.Post("/messages/send/media", h.Message.SendMedia)

			r.Post("/webhook/set", h.Webhook.Set)
			r.Get("/webhook/find", h.Webhook.Find)
			r.Post("/webhook/test", h.Webhook.Test)

			r.Post("/chatwoot/set", h.Chatwoot.Set)
			r.Get("/chatwoot/find", h.Chatwoot.Find)
			r.Post("/chatwoot/sync", h.Chatwoot.SyncLostMessages)
		})
	})

	// event vocabulary for webhook subscriptions
	r.Get("/webhook/events", listEvents)

	// called by Chatwoot itself, exempt from API key auth
	r.Post("/chatwoot/webhook/{sessionId}", h.Chatwoot.ReceiveWebhook)

	return r
}

func listEvents(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"events": webhook.SupportedEventTypes},
	})
}
