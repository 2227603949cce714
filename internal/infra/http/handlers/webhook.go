package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/webhook"
	integration "github.com/felipyfgs/onwapp-sub000/internal/infra/integrations/webhook"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// WebhookHandler gerencia a configuração de webhooks por sessão
type WebhookHandler struct {
	*BaseHandler
	webhookRepo ports.WebhookRepository
	dispatcher  *integration.Dispatcher
}

func NewWebhookHandler(log *logger.Logger, resolver *SessionResolver, webhookRepo ports.WebhookRepository, dispatcher *integration.Dispatcher) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: NewBaseHandler(log, resolver),
		webhookRepo: webhookRepo,
		dispatcher:  dispatcher,
	}
}

// Set grava (criando ou substituindo) a configuração da sessão
func (h *WebhookHandler) Set(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req webhook.SetConfigRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if invalid := webhook.ValidateEvents(req.Events); len(invalid) > 0 {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported event types: %v", invalid))
		return
	}

	config := webhook.NewWebhookConfig(sess.ID, req.URL, req.Events)
	if req.Enabled != nil {
		config.Enabled = *req.Enabled
	}

	if err := h.webhookRepo.Save(r.Context(), config); err != nil {
		h.logger.Error("Failed to save webhook config: " + err.Error())
		h.writeError(w, http.StatusInternalServerError, "failed to save webhook config")
		return
	}

	h.writeSuccess(w, http.StatusOK, config, "webhook configured")
}

func (h *WebhookHandler) Find(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	config, err := h.webhookRepo.GetBySessionID(r.Context(), sess.ID)
	if err != nil {
		if errors.Is(err, webhook.ErrWebhookNotFound) {
			h.writeError(w, http.StatusNotFound, "no webhook configured for session")
			return
		}
		h.logger.Error("Failed to load webhook config: " + err.Error())
		h.writeError(w, http.StatusInternalServerError, "failed to load webhook config")
		return
	}

	h.writeSuccess(w, http.StatusOK, config, "")
}

// Test dispara uma entrega sintética pelo mesmo caminho da entrega real
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	config, err := h.webhookRepo.GetBySessionID(r.Context(), sess.ID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "no webhook configured for session")
		return
	}

	result := h.dispatcher.TestDelivery(r.Context(), config)
	if !result.Success {
		h.writeJSON(w, http.StatusBadGateway, SuccessResponse{
			Success: false,
			Message: "webhook test failed",
			Data:    result,
		})
		return
	}

	h.writeSuccess(w, http.StatusOK, result, "webhook test delivered")
}
