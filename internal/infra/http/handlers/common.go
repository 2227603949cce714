package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

var validate = validator.New()

// SuccessResponse é o envelope padrão das respostas de sucesso
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse é o envelope padrão das respostas de erro
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

var sessionNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{2,49}$`)

var reservedSessionNames = map[string]bool{
	"create": true, "list": true, "info": true, "delete": true,
	"connect": true, "logout": true, "qr": true, "webhook": true,
	"chatwoot": true, "health": true, "send": true,
}

// ValidateSessionName aplica as regras de nome usadas na criação
func ValidateSessionName(name string) error {
	name = strings.TrimSpace(name)
	if !sessionNamePattern.MatchString(name) {
		return errors.New("session name must start with a letter, contain only letters, numbers, hyphens and underscores, and be 3-50 characters long")
	}
	if reservedSessionNames[strings.ToLower(name)] {
		return errors.New("session name is reserved")
	}
	return nil
}

// SessionResolver resolve o identificador da URL em uma sessão, aceitando
// tanto o UUID quanto o nome
type SessionResolver struct {
	logger      *logger.Logger
	sessionRepo ports.SessionRepository
}

func NewSessionResolver(log *logger.Logger, sessionRepo ports.SessionRepository) *SessionResolver {
	return &SessionResolver{
		logger:      log,
		sessionRepo: sessionRepo,
	}
}

func (sr *SessionResolver) Resolve(r *http.Request) (*session.Session, error) {
	identifier := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	if identifier == "" {
		return nil, session.ErrSessionNotFound
	}

	if id, err := uuid.Parse(identifier); err == nil {
		return sr.sessionRepo.GetByID(r.Context(), id)
	}
	return sr.sessionRepo.GetByName(r.Context(), identifier)
}

// BaseHandler carrega os helpers comuns de resposta
type BaseHandler struct {
	logger   *logger.Logger
	resolver *SessionResolver
}

func NewBaseHandler(log *logger.Logger, resolver *SessionResolver) *BaseHandler {
	return &BaseHandler{
		logger:   log,
		resolver: resolver,
	}
}

func (h *BaseHandler) resolveSession(w http.ResponseWriter, r *http.Request) *session.Session {
	sess, err := h.resolver.Resolve(r)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "session not found")
		} else {
			h.logger.ErrorWithFields("Failed to resolve session", map[string]interface{}{
				"path":  r.URL.Path,
				"error": err.Error(),
			})
			h.writeError(w, http.StatusInternalServerError, "failed to resolve session")
		}
		return nil
	}
	return sess
}

// decodeAndValidate decodifica o corpo JSON e aplica as tags de validação
func (h *BaseHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}

func (h *BaseHandler) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response: " + err.Error())
	}
}

func (h *BaseHandler) writeSuccess(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	h.writeJSON(w, statusCode, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *BaseHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   message,
	})
}
