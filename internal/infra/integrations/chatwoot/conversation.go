package chatwoot

import (
	"context"
	"fmt"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/wameow"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// ConversationSync resolve a conversa do Chatwoot para um contato
type ConversationSync struct {
	logger *logger.Logger
	client ports.ChatwootClient
	config *chatwoot.ChatwootConfig
}

func NewConversationSync(log *logger.Logger, client ports.ChatwootClient, config *chatwoot.ChatwootConfig) *ConversationSync {
	return &ConversationSync{
		logger: log.WithModule("chatwoot-conversation"),
		client: client,
		config: config,
	}
}

// ResolveConversation encontra ou cria a conversa do contato no inbox
// configurado. Grupos sempre reutilizam a mesma conversa; para contatos
// individuais a reutilização de conversas resolvidas segue reopenConv.
func (cv *ConversationSync) ResolveConversation(ctx context.Context, contact *ports.ChatwootContact, chatJid string) (*ports.ChatwootConversation, error) {
	inboxID, err := cv.inboxID()
	if err != nil {
		return nil, err
	}

	conversations, err := cv.client.ListContactConversations(ctx, contact.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact conversations: %w", err)
	}

	isGroup := wameow.IsGroupJID(chatJid)

	var existing *ports.ChatwootConversation
	for i := range conversations {
		if conversations[i].InboxID != inboxID {
			continue
		}
		if conversations[i].Status != "resolved" {
			existing = &conversations[i]
			break
		}
		// resolved conversations are reused for groups or when reopening
		if isGroup || cv.config.ReopenConv {
			existing = &conversations[i]
		}
	}

	if existing != nil {
		if existing.Status == "resolved" {
			status := "open"
			if cv.config.ConvPending && !isGroup {
				status = "pending"
			}
			if err := cv.client.ToggleConversationStatus(ctx, existing.ID, status); err != nil {
				cv.logger.WarnWithFields("Failed to reopen conversation", map[string]interface{}{
					"conversation_id": existing.ID,
					"error":           err.Error(),
				})
			} else {
				existing.Status = status
			}
		}
		return existing, nil
	}

	sourceID := ""
	for _, ci := range contact.ContactInboxes {
		if ci.InboxID == inboxID {
			sourceID = ci.SourceID
			break
		}
	}

	conversation, err := cv.client.CreateConversation(ctx, contact.ID, inboxID, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	if cv.config.ConvPending {
		if err := cv.client.ToggleConversationStatus(ctx, conversation.ID, "pending"); err != nil {
			cv.logger.WarnWithFields("Failed to set conversation pending", map[string]interface{}{
				"conversation_id": conversation.ID,
				"error":           err.Error(),
			})
		} else {
			conversation.Status = "pending"
		}
	}

	cv.logger.InfoWithFields("Chatwoot conversation created", map[string]interface{}{
		"conversation_id": conversation.ID,
		"contact_id":      contact.ID,
	})
	return conversation, nil
}

// EnsureOpen reabre a conversa quando um agente responde por ela
func (cv *ConversationSync) EnsureOpen(ctx context.Context, conversationID int, status string) {
	if status != "resolved" {
		return
	}
	if err := cv.client.ToggleConversationStatus(ctx, conversationID, "open"); err != nil {
		cv.logger.WarnWithFields("Failed to reopen conversation", map[string]interface{}{
			"conversation_id": conversationID,
			"error":           err.Error(),
		})
	}
}

func (cv *ConversationSync) inboxID() (int, error) {
	if cv.config.InboxID == nil || *cv.config.InboxID == "" {
		return 0, fmt.Errorf("chatwoot inbox is not configured")
	}
	var id int
	if _, err := fmt.Sscanf(*cv.config.InboxID, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid inbox ID %q: %w", *cv.config.InboxID, err)
	}
	return id, nil
}
