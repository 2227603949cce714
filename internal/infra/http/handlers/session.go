package handlers

import (
	"errors"
	"net/http"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// SessionHandler expõe o ciclo de vida das sessões
type SessionHandler struct {
	*BaseHandler
	sessionRepo ports.SessionRepository
	manager     ports.WameowManager
	chatwootMgr ports.ChatwootManager
}

func NewSessionHandler(
	log *logger.Logger,
	resolver *SessionResolver,
	sessionRepo ports.SessionRepository,
	manager ports.WameowManager,
	chatwootMgr ports.ChatwootManager,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(log, resolver),
		sessionRepo: sessionRepo,
		manager:     manager,
		chatwootMgr: chatwootMgr,
	}
}

// Create cria a sessão e inicia a conexão imediatamente
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req session.CreateSessionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := ValidateSessionName(req.Name); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := session.NewSession(req.Name)
	sess.ProxyURL = req.ProxyURL

	if err := h.sessionRepo.Create(r.Context(), sess); err != nil {
		if errors.Is(err, session.ErrSessionAlreadyExists) {
			h.writeError(w, http.StatusConflict, "session already exists")
			return
		}
		h.logger.Error("Failed to create session: " + err.Error())
		h.writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	if err := h.manager.CreateSession(r.Context(), sess.ID.String()); err != nil {
		h.logger.ErrorWithFields("Failed to register session with manager", map[string]interface{}{
			"session_id": sess.ID.String(),
			"error":      err.Error(),
		})
	} else if err := h.manager.ConnectSession(r.Context(), sess.ID.String()); err != nil {
		h.logger.ErrorWithFields("Failed to start session connection", map[string]interface{}{
			"session_id": sess.ID.String(),
			"error":      err.Error(),
		})
	}

	h.writeSuccess(w, http.StatusCreated, sess, "session created")
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessionRepo.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list sessions: " + err.Error())
		h.writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	h.writeSuccess(w, http.StatusOK, sessions, "")
}

func (h *SessionHandler) Info(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	info := map[string]interface{}{
		"session":   sess,
		"connected": h.manager.IsConnected(sess.ID.String()),
	}
	h.writeSuccess(w, http.StatusOK, info, "")
}

func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	if err := h.manager.CreateSession(r.Context(), sess.ID.String()); err != nil {
		h.logger.Error("Failed to register session: " + err.Error())
		h.writeError(w, http.StatusInternalServerError, "failed to connect session")
		return
	}
	if err := h.manager.ConnectSession(r.Context(), sess.ID.String()); err != nil {
		h.logger.Error("Failed to connect session: " + err.Error())
		h.writeError(w, http.StatusInternalServerError, "failed to connect session")
		return
	}

	h.writeSuccess(w, http.StatusOK, nil, "connection started")
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	if err := h.manager.LogoutSession(r.Context(), sess.ID.String()); err != nil {
		h.logger.WarnWithFields("Logout failed", map[string]interface{}{
			"session_id": sess.ID.String(),
			"error":      err.Error(),
		})
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeSuccess(w, http.StatusOK, nil, "logged out")
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	if err := h.manager.DeleteSession(r.Context(), sess.ID.String()); err != nil {
		h.logger.WarnWithFields("Failed to release session resources", map[string]interface{}{
			"session_id": sess.ID.String(),
			"error":      err.Error(),
		})
	}
	h.chatwootMgr.Cleanup(sess.ID.String())

	if err := h.sessionRepo.Delete(r.Context(), sess.ID); err != nil {
		h.logger.Error("Failed to delete session: " + err.Error())
		h.writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	h.writeSuccess(w, http.StatusOK, nil, "session deleted")
}

// QR devolve o QR code corrente da sessão, se houver um válido
func (h *SessionHandler) QR(w http.ResponseWriter, r *http.Request) {
	sess := h.resolveSession(w, r)
	if sess == nil {
		return
	}

	qr, err := h.manager.GetQRCode(sess.ID.String())
	if err != nil {
		h.writeError(w, http.StatusNotFound, "no QR code available; connect the session first")
		return
	}

	h.writeSuccess(w, http.StatusOK, qr, "")
}
