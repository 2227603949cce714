package ports

import (
	"context"
	"io"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
)

// ChatwootClient is the Chatwoot REST API surface the bridge depends on
type ChatwootClient interface {
	CreateInbox(ctx context.Context, name, webhookURL string) (*ChatwootInbox, error)
	ListInboxes(ctx context.Context) ([]ChatwootInbox, error)
	GetInbox(ctx context.Context, inboxID int) (*ChatwootInbox, error)

	CreateContact(ctx context.Context, inboxID int, phone, name, identifier string) (*ChatwootContact, error)
	SearchContact(ctx context.Context, query string) ([]ChatwootContact, error)
	FilterContacts(ctx context.Context, phoneNumbers []string) ([]ChatwootContact, error)
	MergeContacts(ctx context.Context, baseContactID, mergeContactID int) error

	CreateConversation(ctx context.Context, contactID, inboxID int, sourceID string) (*ChatwootConversation, error)
	ListContactConversations(ctx context.Context, contactID int) ([]ChatwootConversation, error)
	ToggleConversationStatus(ctx context.Context, conversationID int, status string) error

	CreateMessage(ctx context.Context, conversationID int, req *CreateMessageRequest) (*ChatwootMessage, error)
	CreateMediaMessage(ctx context.Context, conversationID int, req *CreateMessageRequest, attachment io.Reader, filename, mimeType string) (*ChatwootMessage, error)
	DeleteMessage(ctx context.Context, conversationID, messageID int) error

	AddConversationLabels(ctx context.Context, conversationID int, labels []string) error
}

// ChatwootManager controls per-session bridge lifecycle and client caching
type ChatwootManager interface {
	GetClient(ctx context.Context, sessionID string) (ChatwootClient, *chatwoot.ChatwootConfig, error)
	IsEnabled(ctx context.Context, sessionID string) bool
	SetConfig(ctx context.Context, sessionID string, req *chatwoot.SetConfigRequest) (*chatwoot.ChatwootConfig, error)
	GetConfig(ctx context.Context, sessionID string) (*chatwoot.ChatwootConfig, error)
	Cleanup(sessionID string)
}

// CreateMessageRequest is the body for message creation in a conversation
type CreateMessageRequest struct {
	Content           string                 `json:"content"`
	MessageType       string                 `json:"message_type"`
	Private           bool                   `json:"private,omitempty"`
	SourceID          string                 `json:"source_id,omitempty"`
	ContentAttributes map[string]interface{} `json:"content_attributes,omitempty"`
}

type ChatwootInbox struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ChannelType string `json:"channel_type"`
	WebhookURL  string `json:"webhook_url,omitempty"`
}

type ChatwootContact struct {
	ID            int                    `json:"id"`
	Name          string                 `json:"name"`
	PhoneNumber   string                 `json:"phone_number"`
	Identifier    string                 `json:"identifier,omitempty"`
	Email         string                 `json:"email,omitempty"`
	ContactInboxes []ChatwootContactInbox `json:"contact_inboxes,omitempty"`
}

type ChatwootContactInbox struct {
	SourceID string `json:"source_id"`
	InboxID  int    `json:"inbox_id"`
}

type ChatwootConversation struct {
	ID        int    `json:"id"`
	ContactID int    `json:"contact_id,omitempty"`
	InboxID   int    `json:"inbox_id"`
	Status    string `json:"status"`
}

type ChatwootMessage struct {
	ID             int    `json:"id"`
	ConversationID int    `json:"conversation_id"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	Private        bool   `json:"private"`
	SourceID       string `json:"source_id,omitempty"`
}
