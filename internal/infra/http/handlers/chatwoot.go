package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	integration "github.com/felipyfgs/onwapp-sub000/internal/infra/integrations/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// ChatwootHandler gerencia a configuração da bridge e recebe o webhook
// de entrada do Chatwoot
type ChatwootHandler struct {
	*BaseHandler
	manager        ports.ChatwootManager
	webhookHandler *integration.WebhookHandler
	importer       *integration.Importer
}

func NewChatwootHandler(
	log *logger.Logger,
	resolver *SessionResolver,
	manager ports.ChatwootManager,
	webhookHandler *integration.WebhookHandler,
	importer *integration.Importer,
) *ChatwootHandler {
	return &ChatwootHandler{
		BaseHandler:    NewBaseHandler(log, resolver),
		manager:        manager,
		webhookHandler: webhookHandler,
		importer:       importer,
	}
}

// Set grava a configuração da bridge e dispara a importação de histórico
// quando habilitada
func (h *ChatwootHandler) Set(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req chatwoot.SetConfigRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	config, err := h.manager.SetConfig(r.Context(), sess.ID.String(), &req)
	if err != nil {
		h.logger.Error("Failed to save chatwoot config: " + err.Error())
		h.writeError(w, http.StatusInternalServerError, "failed to save chatwoot config")
		return
	}

	if config.Enabled && config.ImportMessages {
		sessionID := sess.ID.String()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if _, err := h.importer.ImportHistory(ctx, sessionID); err != nil {
				h.logger.WarnWithFields("History import failed", map[string]interface{}{
					"session_id": sessionID,
					"error":      err.Error(),
				})
			}
		}()
	} else if config.Enabled && config.ImportContacts {
		// no message backlog to drain, contacts can import right away
		sessionID := sess.ID.String()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if _, err := h.importer.ImportContacts(ctx, sessionID); err != nil {
				h.logger.WarnWithFields("Contact import failed", map[string]interface{}{
					"session_id": sessionID,
					"error":      err.Error(),
				})
			}
		}()
	}

	h.writeSuccess(w, http.StatusOK, config, "chatwoot configured")
}

func (h *ChatwootHandler) Find(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	config, err := h.manager.GetConfig(r.Context(), sess.ID.String())
	if err != nil {
		if errors.Is(err, chatwoot.ErrConfigNotFound) {
			h.writeError(w, http.StatusNotFound, "no chatwoot config for session")
			return
		}
		h.logger.Error("Failed to load chatwoot config: " + err.Error())
		h.writeError(w, http.StatusInternalServerError, "failed to load chatwoot config")
		return
	}

	h.writeSuccess(w, http.StatusOK, config, "")
}

// SyncLostMessages dispara manualmente a reconciliação da sessão
func (h *ChatwootHandler) SyncLostMessages(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	result, err := h.importer.SyncLostMessages(r.Context(), sess.ID.String())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeSuccess(w, http.StatusOK, result, "sync completed")
}

// ReceiveWebhook é o endpoint chamado pelo Chatwoot; responde 200 mesmo
// em falha de processamento para não acumular retries do lado de lá
func (h *ChatwootHandler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	var payload chatwoot.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if err := h.webhookHandler.ProcessWebhook(r.Context(), sess.ID.String(), &payload); err != nil {
		h.logger.WarnWithFields("Chatwoot webhook processing failed", map[string]interface{}{
			"session_id": sess.ID.String(),
			"event":      payload.Event,
			"error":      err.Error(),
		})
	}

	h.writeSuccess(w, http.StatusOK, nil, "")
}
