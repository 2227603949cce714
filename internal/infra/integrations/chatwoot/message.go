package chatwoot

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/wameow"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/config"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// Prefixo do source ID das mensagens originadas no WhatsApp; a presença
// dele no webhook de entrada identifica ecos e evita loops
const sourceIDPrefix = "WAID:"

const botContactPhone = "+123456"

// Bridge liga o pipeline de eventos do WhatsApp ao Chatwoot e vice-versa
type Bridge struct {
	logger      *logger.Logger
	manager     ports.ChatwootManager
	wameow      ports.WameowManager
	messageRepo ports.MessageRepository
	chatRepo    ports.ChatRepository
	sessionRepo ports.SessionRepository

	mediaTimeout time.Duration
	importCfg    config.ChatwootConfig
	importer     *Importer
}

func NewBridge(
	log *logger.Logger,
	manager ports.ChatwootManager,
	wameowManager ports.WameowManager,
	messageRepo ports.MessageRepository,
	chatRepo ports.ChatRepository,
	sessionRepo ports.SessionRepository,
	cfg config.ChatwootConfig,
) *Bridge {
	return &Bridge{
		logger:       log.WithModule("chatwoot-bridge"),
		manager:      manager,
		wameow:       wameowManager,
		messageRepo:  messageRepo,
		chatRepo:     chatRepo,
		sessionRepo:  sessionRepo,
		mediaTimeout: time.Duration(cfg.MediaTimeout) * time.Second,
		importCfg:    cfg,
	}
}

// SetImporter liga o importador de histórico usado após a configuração
func (b *Bridge) SetImporter(importer *Importer) {
	b.importer = importer
}

// IsEnabled implementa wameow.ChatwootSink
func (b *Bridge) IsEnabled(sessionID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.manager.IsEnabled(ctx, sessionID)
}

// ProcessQRCode publica o QR code na conversa do contato bot da sessão
func (b *Bridge) ProcessQRCode(sessionID, code string) {
	if !b.IsEnabled(sessionID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, cfg, err := b.manager.GetClient(ctx, sessionID)
	if err != nil {
		return
	}

	conversation, err := b.resolveBotConversation(ctx, client, cfg)
	if err != nil {
		b.logger.DebugWithFields("No bot conversation for QR code", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}

	_, err = client.CreateMessage(ctx, conversation.ID, &ports.CreateMessageRequest{
		Content:     fmt.Sprintf("QR code updated, scan to connect:\n%s", code),
		MessageType: "incoming",
	})
	if err != nil {
		b.logger.WarnWithFields("Failed to publish QR code to Chatwoot", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

// resolveBotConversation localiza a conversa do contato de controle
func (b *Bridge) resolveBotConversation(ctx context.Context, client ports.ChatwootClient, cfg *chatwoot.ChatwootConfig) (*ports.ChatwootConversation, error) {
	contactSync := NewContactSync(b.logger, client, cfg)
	inboxID, err := contactSync.inboxID()
	if err != nil {
		return nil, err
	}

	name := "onwapp"
	if cfg.InboxName != nil && *cfg.InboxName != "" {
		name = *cfg.InboxName
	}

	contacts, err := client.SearchContact(ctx, botContactPhone)
	if err != nil {
		return nil, err
	}
	var contact *ports.ChatwootContact
	for i := range contacts {
		if contacts[i].PhoneNumber == botContactPhone {
			contact = &contacts[i]
			break
		}
	}
	if contact == nil {
		contact, err = client.CreateContact(ctx, inboxID, botContactPhone, name+" bot", "")
		if err != nil {
			return nil, err
		}
	}

	return NewConversationSync(b.logger, client, cfg).ResolveConversation(ctx, contact, "")
}

// ProcessMessage espelha uma mensagem do WhatsApp para o Chatwoot
func (b *Bridge) ProcessMessage(ctx context.Context, sessionID string, evt *events.Message, msgType, content string) {
	chatJid := evt.Info.Chat.String()
	if evt.Info.Chat.Server == "broadcast" {
		return
	}

	client, cfg, err := b.manager.GetClient(ctx, sessionID)
	if err != nil {
		return
	}
	if cfg.ShouldIgnoreJid(chatJid) {
		return
	}

	contactName := evt.Info.PushName
	if wameow.IsGroupJID(chatJid) {
		contactName = ""
		if chatRow, err := b.chatRepo.GetByJid(ctx, b.mustUUID(sessionID), chatJid); err == nil && chatRow.Name != nil {
			contactName = *chatRow.Name
		}
	}

	contactSync := NewContactSync(b.logger, client, cfg)
	contact, err := contactSync.ResolveContact(ctx, chatJid, contactName)
	if err != nil {
		b.logger.ErrorWithFields("Failed to resolve Chatwoot contact", map[string]interface{}{
			"session_id": sessionID,
			"chat":       chatJid,
			"error":      err.Error(),
		})
		return
	}

	conversation, err := NewConversationSync(b.logger, client, cfg).ResolveConversation(ctx, contact, chatJid)
	if err != nil {
		b.logger.ErrorWithFields("Failed to resolve Chatwoot conversation", map[string]interface{}{
			"session_id": sessionID,
			"chat":       chatJid,
			"error":      err.Error(),
		})
		return
	}

	messageType := "incoming"
	if evt.Info.IsFromMe {
		messageType = "outgoing"
	}

	// group messages carry the participant name so agents can tell
	// senders apart inside the single group conversation
	if wameow.IsGroupJID(chatJid) && !evt.Info.IsFromMe && evt.Info.PushName != "" {
		content = fmt.Sprintf("**%s:**%s%s", evt.Info.PushName, cfg.SignDelimiter, content)
	}

	sourceID := sourceIDPrefix + evt.Info.ID
	req := &ports.CreateMessageRequest{
		Content:     content,
		MessageType: messageType,
		SourceID:    sourceID,
	}

	// quoted replies resolve through the stored correlation
	if stanzaID := quotedMessageID(evt.Message); stanzaID != "" {
		if quoted, err := b.messageRepo.GetByMsgID(ctx, b.mustUUID(sessionID), chatJid, stanzaID); err == nil && quoted.CwMessageID != nil {
			req.ContentAttributes = map[string]interface{}{"in_reply_to": *quoted.CwMessageID}
		}
	}

	var created *ports.ChatwootMessage
	if msgType != wameow.MessageTypeText && msgType != wameow.MessageTypeLocation && msgType != wameow.MessageTypeContact {
		created = b.sendMediaMessage(ctx, client, conversation.ID, req, sessionID, evt, msgType)
	}
	if created == nil {
		created, err = client.CreateMessage(ctx, conversation.ID, req)
		if err != nil {
			b.logger.ErrorWithFields("Failed to create Chatwoot message", map[string]interface{}{
				"session_id": sessionID,
				"message_id": evt.Info.ID,
				"error":      err.Error(),
			})
			return
		}
	}

	if err := b.messageRepo.UpdateChatwootFields(ctx, b.mustUUID(sessionID), evt.Info.ID, conversation.ID, created.ID, sourceID); err != nil {
		b.logger.WarnWithFields("Failed to persist Chatwoot correlation", map[string]interface{}{
			"session_id": sessionID,
			"message_id": evt.Info.ID,
			"error":      err.Error(),
		})
	}
}

// sendMediaMessage baixa a mídia com timeout limitado e envia como anexo;
// em caso de falha devolve nil e o chamador cai para texto puro
func (b *Bridge) sendMediaMessage(ctx context.Context, client ports.ChatwootClient, conversationID int, req *ports.CreateMessageRequest, sessionID string, evt *events.Message, msgType string) *ports.ChatwootMessage {
	mediaCtx, cancel := context.WithTimeout(ctx, b.mediaTimeout)
	defer cancel()

	data, mimeType, err := b.wameow.DownloadMedia(mediaCtx, sessionID, evt.Message)
	if err != nil {
		b.logger.WarnWithFields("Media download failed, falling back to text", map[string]interface{}{
			"session_id": sessionID,
			"message_id": evt.Info.ID,
			"error":      err.Error(),
		})
		if req.Content == "" {
			req.Content = fmt.Sprintf("[%s not available]", msgType)
		}
		return nil
	}

	filename := msgType + extensionFromMime(mimeType)
	created, err := client.CreateMediaMessage(ctx, conversationID, req, bytes.NewReader(data), filename, mimeType)
	if err != nil {
		b.logger.WarnWithFields("Media upload failed, falling back to text", map[string]interface{}{
			"session_id": sessionID,
			"message_id": evt.Info.ID,
			"error":      err.Error(),
		})
		if req.Content == "" {
			req.Content = fmt.Sprintf("[%s not available]", msgType)
		}
		return nil
	}
	return created
}

// ProcessEdit propaga a edição como nova mensagem na mesma conversa
func (b *Bridge) ProcessEdit(ctx context.Context, sessionID, chatJid, targetID, newContent string) {
	client, _, err := b.manager.GetClient(ctx, sessionID)
	if err != nil {
		return
	}

	msg, err := b.messageRepo.GetByMsgID(ctx, b.mustUUID(sessionID), chatJid, targetID)
	if err != nil || msg.CwConversationID == nil {
		return
	}

	messageType := "incoming"
	if msg.FromMe {
		messageType = "outgoing"
	}

	// the WAID source ID keeps the Chatwoot echo out of the inbound filter
	_, err = client.CreateMessage(ctx, *msg.CwConversationID, &ports.CreateMessageRequest{
		Content:     fmt.Sprintf("✏️ %s", newContent),
		MessageType: messageType,
		SourceID:    sourceIDPrefix + targetID,
	})
	if err != nil {
		b.logger.WarnWithFields("Failed to propagate edit to Chatwoot", map[string]interface{}{
			"session_id": sessionID,
			"message_id": targetID,
			"error":      err.Error(),
		})
	}
}

// ProcessRevoke apaga no Chatwoot todas as mensagens que compartilham o
// source ID da mensagem revogada
func (b *Bridge) ProcessRevoke(ctx context.Context, sessionID, chatJid, targetID string) {
	client, _, err := b.manager.GetClient(ctx, sessionID)
	if err != nil {
		return
	}

	sessionUUID := b.mustUUID(sessionID)
	msg, err := b.messageRepo.GetByMsgID(ctx, sessionUUID, chatJid, targetID)
	if err != nil || msg.SourceID == nil {
		return
	}

	rows, err := b.messageRepo.ListBySourceID(ctx, sessionUUID, *msg.SourceID)
	if err != nil {
		return
	}

	for _, row := range rows {
		if err := b.messageRepo.MarkDeleted(ctx, sessionUUID, row.ChatJid, row.MsgID); err != nil {
			b.logger.WarnWithFields("Failed to mark message deleted", map[string]interface{}{
				"session_id": sessionID,
				"message_id": row.MsgID,
				"error":      err.Error(),
			})
		}
		if row.CwConversationID == nil || row.CwMessageID == nil {
			continue
		}
		if err := client.DeleteMessage(ctx, *row.CwConversationID, *row.CwMessageID); err != nil {
			b.logger.WarnWithFields("Failed to delete Chatwoot message", map[string]interface{}{
				"session_id":      sessionID,
				"cw_message_id":   *row.CwMessageID,
				"cw_conversation": *row.CwConversationID,
				"error":           err.Error(),
			})
		}
	}
}

var _ wameow.ChatwootSink = (*Bridge)(nil)

func (b *Bridge) mustUUID(sessionID string) uuid.UUID {
	id, _ := uuid.Parse(sessionID)
	return id
}

// quotedMessageID devolve o ID da mensagem citada, quando houver
func quotedMessageID(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	var ci *waE2E.ContextInfo
	switch {
	case msg.GetExtendedTextMessage() != nil:
		ci = msg.GetExtendedTextMessage().GetContextInfo()
	case msg.GetImageMessage() != nil:
		ci = msg.GetImageMessage().GetContextInfo()
	case msg.GetVideoMessage() != nil:
		ci = msg.GetVideoMessage().GetContextInfo()
	case msg.GetAudioMessage() != nil:
		ci = msg.GetAudioMessage().GetContextInfo()
	case msg.GetDocumentMessage() != nil:
		ci = msg.GetDocumentMessage().GetContextInfo()
	}
	return ci.GetStanzaID()
}

func extensionFromMime(mimeType string) string {
	mimeType = strings.SplitN(mimeType, ";", 2)[0]
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "video/mp4":
		return ".mp4"
	case "application/pdf":
		return ".pdf"
	default:
		if idx := strings.Index(mimeType, "/"); idx > 0 && idx < len(mimeType)-1 {
			return "." + mimeType[idx+1:]
		}
		return ".bin"
	}
}
