package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrContactNotFound = errors.New("contact not found")
	ErrMessageNotFound = errors.New("message not found")
)

type Chat struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	SessionID     uuid.UUID  `json:"sessionId" db:"sessionId"`
	Jid           string     `json:"jid" db:"jid"`
	Name          *string    `json:"name,omitempty" db:"name"`
	IsGroup       bool       `json:"isGroup" db:"isGroup"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" db:"lastMessageAt"`
	CreatedAt     time.Time  `json:"createdAt" db:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updatedAt"`
}

type Contact struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SessionID    uuid.UUID `json:"sessionId" db:"sessionId"`
	Jid          string    `json:"jid" db:"jid"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Name         *string   `json:"name,omitempty" db:"name"`
	PushName     *string   `json:"pushName,omitempty" db:"pushName"`
	BusinessName *string   `json:"businessName,omitempty" db:"businessName"`
	CreatedAt    time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updatedAt"`
}

// Message status ladder. Only forward movement is allowed.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusError     = "error"
)

var statusRank = map[string]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// StatusAdvances informa se mover de from para to sobe a escada de status.
// Status desconhecidos nunca avançam; "error" é terminal e fica fora da escada.
func StatusAdvances(from, to string) bool {
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank > fromRank
}

type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID uuid.UUID `json:"sessionId" db:"sessionId"`
	ChatJid   string    `json:"chatJid" db:"chatJid"`
	SenderJid string    `json:"senderJid" db:"senderJid"`
	MsgID     string    `json:"msgId" db:"msgId"`
	Type      string    `json:"type" db:"type"`
	Content   *string   `json:"content,omitempty" db:"content"`
	MediaType *string   `json:"mediaType,omitempty" db:"mediaType"`
	FromMe    bool      `json:"fromMe" db:"fromMe"`
	Status    string    `json:"status" db:"status"`
	IsDeleted bool      `json:"isDeleted" db:"isDeleted"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Correlação com o Chatwoot, preenchida pela bridge após o envio
	CwConversationID *int    `json:"cwConversationId,omitempty" db:"cwConversationId"`
	CwMessageID      *int    `json:"cwMessageId,omitempty" db:"cwMessageId"`
	SourceID         *string `json:"sourceId,omitempty" db:"sourceId"`

	CreatedAt time.Time `json:"createdAt" db:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" db:"updatedAt"`
}

func NewMessage(sessionID uuid.UUID, chatJid, senderJid, msgID string) *Message {
	now := time.Now()
	return &Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		ChatJid:   chatJid,
		SenderJid: senderJid,
		MsgID:     msgID,
		Type:      "text",
		Status:    StatusPending,
		Timestamp: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
