package webhook

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type WebhookConfig struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID uuid.UUID `json:"sessionId" db:"sessionId"`
	URL       string    `json:"url" db:"url"`
	Enabled   bool      `json:"enabled" db:"enabled"`
	Events    []string  `json:"events" db:"events"`
	CreatedAt time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" db:"updatedAt"`
}

var (
	ErrWebhookNotFound       = errors.New("webhook not found")
	ErrInvalidWebhookURL     = errors.New("invalid webhook URL")
	ErrWebhookDeliveryFailed = errors.New("webhook delivery failed")
)

type SetConfigRequest struct {
	URL     string   `json:"url" validate:"required,url"`
	Events  []string `json:"events" validate:"required,min=1"`
	Enabled *bool    `json:"enabled,omitempty"`
}

// WebhookEvent é o envelope entregue ao endpoint configurado
type WebhookEvent struct {
	SessionID string      `json:"sessionId"`
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// SupportedEventTypes é o vocabulário fechado de eventos assináveis,
// espelhando os nomes dos eventos do whatsmeow
var SupportedEventTypes = []string{
	"Message",
	"UndecryptableMessage",
	"Receipt",
	"ReadReceipt",
	"MediaRetry",

	"GroupInfo",
	"JoinedGroup",
	"Picture",
	"Blocklist",
	"BlocklistChange",

	"Connected",
	"Disconnected",
	"ConnectFailure",
	"KeepAliveRestored",
	"KeepAliveTimeout",
	"LoggedOut",
	"ClientOutdated",
	"TemporaryBan",
	"StreamError",
	"StreamReplaced",
	"PairSuccess",
	"PairError",
	"QR",

	"PrivacySettings",
	"PushNameSetting",

	"AppState",
	"AppStateSyncComplete",
	"HistorySync",
	"OfflineSyncCompleted",

	"CallOffer",
	"CallAccept",
	"CallTerminate",

	"Presence",
	"ChatPresence",

	"IdentityChange",

	"All",
}

var eventTypeMap map[string]bool

func init() {
	eventTypeMap = make(map[string]bool)
	for _, eventType := range SupportedEventTypes {
		eventTypeMap[eventType] = true
	}
}

func IsValidEventType(eventType string) bool {
	return eventTypeMap[eventType]
}

// ValidateEvents retorna os nomes fora do vocabulário suportado
func ValidateEvents(events []string) []string {
	var invalid []string
	for _, event := range events {
		if !IsValidEventType(event) {
			invalid = append(invalid, event)
		}
	}
	return invalid
}

func NewWebhookConfig(sessionID uuid.UUID, url string, events []string) *WebhookConfig {
	now := time.Now()
	return &WebhookConfig{
		ID:        uuid.New(),
		SessionID: sessionID,
		URL:       url,
		Events:    events,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasEvent verifica se o evento está assinado; lista vazia assina todos
func (w *WebhookConfig) HasEvent(eventType string) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, event := range w.Events {
		if event == "All" || event == eventType {
			return true
		}
	}
	return false
}

func NewWebhookEvent(sessionID, eventType string, data interface{}) *WebhookEvent {
	return &WebhookEvent{
		SessionID: sessionID,
		Event:     eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
