package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chat"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/webhook"
)

// SessionRepository defines persistence for session rows
type SessionRepository interface {
	Create(ctx context.Context, sess *session.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error)
	GetByName(ctx context.Context, name string) (*session.Session, error)
	List(ctx context.Context) ([]*session.Session, error)
	ListByStatus(ctx context.Context, status string) ([]*session.Session, error)
	Update(ctx context.Context, sess *session.Session) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChatRepository defines persistence for chat rows
type ChatRepository interface {
	Upsert(ctx context.Context, c *chat.Chat) error
	UpsertBatch(ctx context.Context, chats []*chat.Chat) (int, error)
	GetByJid(ctx context.Context, sessionID uuid.UUID, jid string) (*chat.Chat, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*chat.Chat, error)
}

// ContactRepository defines persistence for contact rows
type ContactRepository interface {
	Upsert(ctx context.Context, c *chat.Contact) error
	UpsertBatch(ctx context.Context, contacts []*chat.Contact) (int, error)
	GetByJid(ctx context.Context, sessionID uuid.UUID, jid string) (*chat.Contact, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*chat.Contact, error)
}

// MessageRepository defines persistence for message rows including the
// Chatwoot correlation columns
type MessageRepository interface {
	Upsert(ctx context.Context, m *chat.Message) error
	UpsertBatch(ctx context.Context, messages []*chat.Message) (int, error)
	GetByMsgID(ctx context.Context, sessionID uuid.UUID, chatJid, msgID string) (*chat.Message, error)
	ListBySourceID(ctx context.Context, sessionID uuid.UUID, sourceID string) ([]*chat.Message, error)
	GetByCwMessageID(ctx context.Context, sessionID uuid.UUID, cwMessageID int) (*chat.Message, error)
	UpdateStatus(ctx context.Context, sessionID uuid.UUID, chatJid, msgID, status string) error
	UpdateChatwootFields(ctx context.Context, sessionID uuid.UUID, msgID string, cwConversationID, cwMessageID int, sourceID string) error
	MarkDeleted(ctx context.Context, sessionID uuid.UUID, chatJid, msgID string) error
	Delete(ctx context.Context, sessionID uuid.UUID, chatJid, msgID string) error
}

// WebhookRepository defines persistence for webhook configs
type WebhookRepository interface {
	Save(ctx context.Context, config *webhook.WebhookConfig) error
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*webhook.WebhookConfig, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// ChatwootRepository defines persistence for chatwoot bridge configs
type ChatwootRepository interface {
	Save(ctx context.Context, config *chatwoot.ChatwootConfig) error
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*chatwoot.ChatwootConfig, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}
