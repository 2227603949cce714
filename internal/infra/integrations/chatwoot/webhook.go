package chatwoot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chat"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/wameow"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

const chatwootSourcePrefix = "CWID:"

// WebhookHandler processa o webhook de entrada do Chatwoot e espelha as
// ações dos agentes no WhatsApp
type WebhookHandler struct {
	logger     *logger.Logger
	bridge     *Bridge
	httpClient *http.Client
}

func NewWebhookHandler(log *logger.Logger, bridge *Bridge) *WebhookHandler {
	return &WebhookHandler{
		logger: log.WithModule("chatwoot-webhook"),
		bridge: bridge,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ProcessWebhook trata um payload recebido do Chatwoot para a sessão
func (h *WebhookHandler) ProcessWebhook(ctx context.Context, sessionID string, payload *chatwoot.WebhookPayload) error {
	// Messages that originated on WhatsApp echo back through the webhook
	// carrying their WAID source ID; forwarding them again would loop
	if payload.SourceID != nil && strings.HasPrefix(*payload.SourceID, sourceIDPrefix) {
		return nil
	}

	switch payload.Event {
	case "message_created":
		return h.handleMessageCreated(ctx, sessionID, payload)
	case "message_updated":
		if h.isMessageDeleted(payload) {
			return h.handleMessageDeleted(ctx, sessionID, payload)
		}
		return nil
	default:
		h.logger.DebugWithFields("Unhandled Chatwoot webhook event", map[string]interface{}{
			"event":      payload.Event,
			"session_id": sessionID,
		})
		return nil
	}
}

func (h *WebhookHandler) handleMessageCreated(ctx context.Context, sessionID string, payload *chatwoot.WebhookPayload) error {
	if payload.Private {
		return nil
	}
	// only agent replies cross the bridge
	if payload.MessageType != "outgoing" || payload.Sender.Type != "user" {
		return nil
	}

	client, cfg, err := h.bridge.manager.GetClient(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("chatwoot is not configured for session %s: %w", sessionID, err)
	}

	targetJid, err := h.resolveTarget(ctx, sessionID, payload)
	if err != nil {
		return err
	}

	content := payload.Content
	if cfg.SignMsg && payload.Sender.Name != "" && content != "" {
		content = fmt.Sprintf("*%s:*%s%s", payload.Sender.Name, cfg.SignDelimiter, content)
	}

	// every WhatsApp message spawned by this Chatwoot message shares one
	// source ID, so a later deletion can fan out over all of them
	sourceID := fmt.Sprintf("%s%d", chatwootSourcePrefix, payload.ID)

	if len(payload.Attachments) == 0 {
		if content == "" {
			return nil
		}
		result, err := h.bridge.wameow.SendText(ctx, sessionID, targetJid, content)
		if err != nil {
			return fmt.Errorf("failed to send message to WhatsApp: %w", err)
		}
		h.persistOutbound(ctx, sessionID, targetJid, result.MessageID, payload, sourceID)
	} else {
		for i, attachment := range payload.Attachments {
			caption := ""
			if i == 0 {
				caption = content
			}
			result, err := h.sendAttachment(ctx, sessionID, targetJid, &attachment, caption)
			if err != nil {
				h.logger.ErrorWithFields("Failed to send attachment to WhatsApp", map[string]interface{}{
					"session_id":    sessionID,
					"attachment_id": attachment.ID,
					"error":         err.Error(),
				})
				continue
			}
			h.persistOutbound(ctx, sessionID, targetJid, result.MessageID, payload, sourceID)
		}
	}

	// an agent reply on a resolved conversation nudges it back open
	NewConversationSync(h.logger, client, cfg).EnsureOpen(ctx, payload.Conversation.ID, payload.Conversation.Status)

	return nil
}

// resolveTarget descobre o JID de destino e revalida o número no WhatsApp
func (h *WebhookHandler) resolveTarget(ctx context.Context, sessionID string, payload *chatwoot.WebhookPayload) (string, error) {
	identifier := payload.Conversation.Meta.Sender.Identifier
	if wameow.IsGroupJID(identifier) {
		return identifier, nil
	}

	phone := payload.Conversation.Meta.Sender.PhoneNumber
	if phone == "" {
		phone = payload.Sender.PhoneNumber
	}
	if phone == "" && identifier != "" {
		return wameow.NormalizeJID(identifier), nil
	}
	if phone == "" {
		return "", fmt.Errorf("no target phone number in webhook payload")
	}

	phone = strings.TrimPrefix(phone, "+")
	candidates := []string{phone}
	if alternative := strings.TrimPrefix(wameow.GetBrazilianAlternativeNumber(phone), "+"); alternative != "" {
		candidates = append(candidates, alternative)
	}

	resolved, err := h.bridge.wameow.IsOnWhatsApp(ctx, sessionID, candidates)
	if err != nil {
		h.logger.WarnWithFields("Number revalidation failed, using raw phone", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return wameow.NormalizeJID(phone), nil
	}

	for _, candidate := range candidates {
		if jid := resolved[candidate]; jid != "" {
			return jid, nil
		}
	}
	return "", fmt.Errorf("number %s is not on WhatsApp", phone)
}

func (h *WebhookHandler) sendAttachment(ctx context.Context, sessionID, targetJid string, attachment *chatwoot.Attachment, caption string) (*wameowSendResult, error) {
	data, mimeType, err := h.downloadAttachment(ctx, attachment.DataURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download attachment: %w", err)
	}

	filename := attachment.FileName
	if filename == "" {
		filename = attachment.FileType + extensionFromMime(mimeType)
	}

	result, err := h.bridge.wameow.SendMedia(ctx, sessionID, targetJid, data, mimeType, caption, filename)
	if err != nil {
		return nil, err
	}
	return &wameowSendResult{MessageID: result.MessageID}, nil
}

type wameowSendResult struct {
	MessageID string
}

func (h *WebhookHandler) downloadAttachment(ctx context.Context, dataURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dataURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("attachment download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	mimeType := strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0]
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return data, mimeType, nil
}

// persistOutbound grava a correlação da mensagem enviada pelo agente
func (h *WebhookHandler) persistOutbound(ctx context.Context, sessionID, chatJid, msgID string, payload *chatwoot.WebhookPayload, sourceID string) {
	sessionUUID := h.bridge.mustUUID(sessionID)

	msg := chat.NewMessage(sessionUUID, chatJid, "", msgID)
	msg.FromMe = true
	msg.Status = chat.StatusSent
	if payload.Content != "" {
		content := payload.Content
		msg.Content = &content
	}
	conversationID := payload.Conversation.ID
	messageID := payload.ID
	msg.CwConversationID = &conversationID
	msg.CwMessageID = &messageID
	msg.SourceID = &sourceID

	if err := h.bridge.messageRepo.Upsert(ctx, msg); err != nil {
		h.logger.WarnWithFields("Failed to persist outbound message", map[string]interface{}{
			"session_id": sessionID,
			"message_id": msgID,
			"error":      err.Error(),
		})
	}
}

// handleMessageDeleted revoga no WhatsApp todas as mensagens que
// compartilham o source ID da mensagem apagada no Chatwoot
func (h *WebhookHandler) handleMessageDeleted(ctx context.Context, sessionID string, payload *chatwoot.WebhookPayload) error {
	sourceID := fmt.Sprintf("%s%d", chatwootSourcePrefix, payload.ID)
	sessionUUID := h.bridge.mustUUID(sessionID)

	rows, err := h.bridge.messageRepo.ListBySourceID(ctx, sessionUUID, sourceID)
	if err != nil {
		return fmt.Errorf("failed to list messages by source ID: %w", err)
	}
	if len(rows) == 0 {
		// WhatsApp-origin message deleted by an agent
		if msg, err := h.bridge.messageRepo.GetByCwMessageID(ctx, sessionUUID, payload.ID); err == nil {
			rows = append(rows, msg)
		}
	}

	for _, row := range rows {
		if err := h.bridge.wameow.RevokeMessage(ctx, sessionID, row.ChatJid, row.MsgID); err != nil {
			h.logger.WarnWithFields("Failed to revoke WhatsApp message", map[string]interface{}{
				"session_id": sessionID,
				"message_id": row.MsgID,
				"error":      err.Error(),
			})
		}
		if err := h.bridge.messageRepo.MarkDeleted(ctx, sessionUUID, row.ChatJid, row.MsgID); err != nil {
			h.logger.WarnWithFields("Failed to mark message deleted", map[string]interface{}{
				"session_id": sessionID,
				"message_id": row.MsgID,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

func (h *WebhookHandler) isMessageDeleted(payload *chatwoot.WebhookPayload) bool {
	if payload.ContentAttributes == nil {
		return false
	}
	deleted, exists := payload.ContentAttributes["deleted"]
	return exists && deleted != nil
}
