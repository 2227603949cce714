package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// MessageHandler expõe o envio de mensagens pela API
type MessageHandler struct {
	*BaseHandler
	manager ports.WameowManager
}

func NewMessageHandler(log *logger.Logger, resolver *SessionResolver, manager ports.WameowManager) *MessageHandler {
	return &MessageHandler{
		BaseHandler: NewBaseHandler(log, resolver),
		manager:     manager,
	}
}

type sendTextRequest struct {
	To   string `json:"to" validate:"required"`
	Body string `json:"body" validate:"required"`
}

type sendMediaRequest struct {
	To       string `json:"to" validate:"required"`
	Media    string `json:"media" validate:"required"` // base64
	MimeType string `json:"mimeType" validate:"required"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

func (h *MessageHandler) SendText(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req sendTextRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.manager.SendText(r.Context(), sess.ID.String(), req.To, req.Body)
	if err != nil {
		h.logger.WarnWithFields("Failed to send text", map[string]interface{}{
			"session_id": sess.ID.String(),
			"error":      err.Error(),
		})
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeSuccess(w, http.StatusOK, result, "message sent")
}

func (h *MessageHandler) SendMedia(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	var req sendMediaRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	media, err := base64.StdEncoding.DecodeString(req.Media)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "media must be base64 encoded")
		return
	}

	result, err := h.manager.SendMedia(r.Context(), sess.ID.String(), req.To, media, req.MimeType, req.Caption, req.Filename)
	if err != nil {
		h.logger.WarnWithFields("Failed to send media", map[string]interface{}{
			"session_id": sess.ID.String(),
			"error":      err.Error(),
		})
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeSuccess(w, http.StatusOK, result, "media sent")
}
