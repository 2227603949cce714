package wameow

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/proto/waHistorySync"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chat"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// Message type constants
const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeAudio    = "audio"
	MessageTypeVideo    = "video"
	MessageTypeDocument = "document"
	MessageTypeSticker  = "sticker"
	MessageTypeLocation = "location"
	MessageTypeContact  = "contact"
)

const persistTimeout = 10 * time.Second

// WebhookSink recebe todos os eventos do pipeline para entrega HTTP
type WebhookSink interface {
	DeliverEvent(sessionID, eventType string, payload interface{})
}

// ChatwootSink recebe os eventos relevantes para a bridge do Chatwoot
type ChatwootSink interface {
	IsEnabled(sessionID string) bool
	ProcessQRCode(sessionID, code string)
	ProcessMessage(ctx context.Context, sessionID string, evt *events.Message, msgType, content string)
	ProcessEdit(ctx context.Context, sessionID, chatJid, targetID, newContent string)
	ProcessRevoke(ctx context.Context, sessionID, chatJid, targetID string)
}

type eventHandler struct {
	manager     *Manager
	sessionID   string
	sessionUUID uuid.UUID
	logger      *logger.Logger
}

func newEventHandler(m *Manager, sessionID string) *eventHandler {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		m.logger.WarnWithFields("Event handler created with invalid session ID", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
	return &eventHandler{
		manager:     m,
		sessionID:   sessionID,
		sessionUUID: id,
		logger:      m.logger,
	}
}

func (h *eventHandler) HandleEvent(evt interface{}) {
	h.deliverToWebhook(evt)

	switch v := evt.(type) {
	case *events.Connected:
		h.manager.handleConnected(h.sessionID)
	case *events.PairSuccess:
		h.handlePairSuccess(v)
	case *events.Disconnected:
		h.manager.handleDisconnect(h.sessionID, reasonOther)
	case *events.StreamReplaced:
		h.manager.handleDisconnect(h.sessionID, reasonRestartRequired)
	case *events.ClientOutdated:
		h.manager.handleDisconnect(h.sessionID, reasonRestartRequired)
	case *events.LoggedOut:
		h.logger.InfoWithFields("Session logged out remotely", map[string]interface{}{
			"session_id": h.sessionID,
			"reason":     v.Reason.String(),
		})
		h.manager.handleDisconnect(h.sessionID, reasonLoggedOut)
	case *events.QR:
		// QR events are handled by the client QR channel to avoid duplication
		h.logger.DebugWithFields("QR event received but skipped (handled by client channel)", map[string]interface{}{
			"session_id": h.sessionID,
		})
	case *events.Message:
		h.handleMessage(v)
	case *events.Receipt:
		h.handleReceipt(v)
	case *events.Contact:
		h.handleContact(v)
	case *events.PushName:
		h.handlePushName(v)
	case *events.BusinessName:
		h.handleBusinessName(v)
	case *events.HistorySync:
		h.handleHistorySync(v)
	case *events.Presence:
		h.handlePresence(v)
	case *events.ChatPresence:
		h.handleChatPresence(v)
	case *events.Blocklist:
		h.handleBlocklist(v)
	default:
		h.logger.DebugWithFields("Unhandled event", map[string]interface{}{
			"session_id": h.sessionID,
			"event_type": getEventType(evt),
		})
	}
}

// getEventType deriva o nome do evento a partir do tipo concreto
func getEventType(evt interface{}) string {
	if evt == nil {
		return "Unknown"
	}
	return strings.TrimPrefix(reflect.TypeOf(evt).String(), "*events.")
}

func (h *eventHandler) deliverToWebhook(evt interface{}) {
	if h.manager.webhookSink == nil {
		return
	}
	h.manager.webhookSink.DeliverEvent(h.sessionID, getEventType(evt), evt)
}

func (h *eventHandler) handlePairSuccess(evt *events.PairSuccess) {
	h.logger.InfoWithFields("Pairing succeeded", map[string]interface{}{
		"session_id": h.sessionID,
		"device_jid": evt.ID.String(),
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		sess, err := h.manager.loadSession(ctx, h.sessionID)
		if err != nil {
			h.logger.ErrorWithFields("Failed to load session after pairing", map[string]interface{}{
				"session_id": h.sessionID,
				"error":      err.Error(),
			})
			return
		}

		deviceJid := evt.ID.String()
		sess.DeviceJid = &deviceJid
		sess.QRCode = nil
		sess.QRCodeExpiresAt = nil
		sess.UpdatedAt = time.Now()

		if err := h.manager.sessionRepo.Update(ctx, sess); err != nil {
			h.logger.ErrorWithFields("Failed to persist device JID", map[string]interface{}{
				"session_id": h.sessionID,
				"error":      err.Error(),
			})
		}
	}()
}

func (h *eventHandler) handleMessage(evt *events.Message) {
	if evt.Message == nil {
		return
	}

	// Edits and revokes travel as protocol messages referencing the
	// original message ID. Neither creates a new message row.
	if pm := evt.Message.GetProtocolMessage(); pm != nil {
		switch pm.GetType() {
		case waE2E.ProtocolMessage_MESSAGE_EDIT:
			h.handleEdit(evt, pm)
			return
		case waE2E.ProtocolMessage_REVOKE:
			h.handleRevoke(evt, pm)
			return
		}
	}

	msgType, content := extractMessageContent(evt.Message)

	h.logger.DebugWithFields("Message received", map[string]interface{}{
		"session_id":   h.sessionID,
		"message_id":   evt.Info.ID,
		"from":         evt.Info.Sender.String(),
		"chat":         evt.Info.Chat.String(),
		"message_type": msgType,
		"from_me":      evt.Info.IsFromMe,
	})

	h.persistIncomingMessage(evt, msgType, content)

	if h.manager.chatwootSink != nil && h.manager.chatwootSink.IsEnabled(h.sessionID) {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		h.manager.chatwootSink.ProcessMessage(ctx, h.sessionID, evt, msgType, content)
	}
}

func (h *eventHandler) handleEdit(evt *events.Message, pm *waE2E.ProtocolMessage) {
	targetID := pm.GetKey().GetID()
	if targetID == "" {
		return
	}

	_, newContent := extractMessageContent(pm.GetEditedMessage())

	h.logger.InfoWithFields("Message edit received", map[string]interface{}{
		"session_id": h.sessionID,
		"target_id":  targetID,
		"chat":       evt.Info.Chat.String(),
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		msg, err := h.manager.messageRepo.GetByMsgID(ctx, h.sessionUUID, evt.Info.Chat.String(), targetID)
		if err != nil {
			h.logger.DebugWithFields("Edit target not found locally", map[string]interface{}{
				"session_id": h.sessionID,
				"target_id":  targetID,
			})
			return
		}

		msg.Content = &newContent
		msg.UpdatedAt = time.Now()
		if err := h.manager.messageRepo.Upsert(ctx, msg); err != nil {
			h.logger.ErrorWithFields("Failed to persist edited content", map[string]interface{}{
				"session_id": h.sessionID,
				"target_id":  targetID,
				"error":      err.Error(),
			})
		}
	}()

	if h.manager.chatwootSink != nil && h.manager.chatwootSink.IsEnabled(h.sessionID) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.manager.chatwootSink.ProcessEdit(ctx, h.sessionID, evt.Info.Chat.String(), targetID, newContent)
	}
}

func (h *eventHandler) handleRevoke(evt *events.Message, pm *waE2E.ProtocolMessage) {
	targetID := pm.GetKey().GetID()
	if targetID == "" {
		return
	}

	h.logger.InfoWithFields("Message revoke received", map[string]interface{}{
		"session_id": h.sessionID,
		"target_id":  targetID,
		"chat":       evt.Info.Chat.String(),
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := h.manager.messageRepo.MarkDeleted(ctx, h.sessionUUID, evt.Info.Chat.String(), targetID); err != nil {
			h.logger.ErrorWithFields("Failed to mark revoked message deleted", map[string]interface{}{
				"session_id": h.sessionID,
				"target_id":  targetID,
				"error":      err.Error(),
			})
		}
	}()

	if h.manager.chatwootSink != nil && h.manager.chatwootSink.IsEnabled(h.sessionID) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		h.manager.chatwootSink.ProcessRevoke(ctx, h.sessionID, evt.Info.Chat.String(), targetID)
	}
}

// persistIncomingMessage grava o chat, o contato e a mensagem em background
func (h *eventHandler) persistIncomingMessage(evt *events.Message, msgType, content string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		chatJid := evt.Info.Chat.String()

		chatRow := &chat.Chat{
			ID:        uuid.New(),
			SessionID: h.sessionUUID,
			Jid:       chatJid,
			IsGroup:   IsGroupJID(chatJid),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		ts := evt.Info.Timestamp
		chatRow.LastMessageAt = &ts
		if err := h.manager.chatRepo.Upsert(ctx, chatRow); err != nil {
			h.logger.ErrorWithFields("Failed to upsert chat", map[string]interface{}{
				"session_id": h.sessionID,
				"chat":       chatJid,
				"error":      err.Error(),
			})
		}

		if !evt.Info.IsFromMe && evt.Info.PushName != "" {
			h.upsertContact(ctx, evt.Info.Sender, evt.Info.PushName, "", "")
		}

		msg := chat.NewMessage(h.sessionUUID, chatJid, evt.Info.Sender.String(), evt.Info.ID)
		msg.Type = msgType
		if content != "" {
			msg.Content = &content
		}
		msg.FromMe = evt.Info.IsFromMe
		msg.Timestamp = evt.Info.Timestamp
		if evt.Info.IsFromMe {
			msg.Status = chat.StatusSent
		} else {
			msg.Status = chat.StatusDelivered
		}
		if mime := extractMimeType(evt.Message); mime != "" {
			msg.MediaType = &mime
		}

		if err := h.manager.messageRepo.Upsert(ctx, msg); err != nil {
			h.logger.ErrorWithFields("Failed to upsert message", map[string]interface{}{
				"session_id": h.sessionID,
				"message_id": evt.Info.ID,
				"error":      err.Error(),
			})
		}
	}()
}

func (h *eventHandler) handleReceipt(evt *events.Receipt) {
	var status string
	switch evt.Type {
	case types.ReceiptTypeDelivered:
		status = chat.StatusDelivered
	case types.ReceiptTypeRead, types.ReceiptTypeReadSelf:
		status = chat.StatusRead
	default:
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		for _, msgID := range evt.MessageIDs {
			err := h.manager.messageRepo.UpdateStatus(ctx, h.sessionUUID, evt.Chat.String(), msgID, status)
			if err != nil {
				h.logger.DebugWithFields("Receipt for unknown message", map[string]interface{}{
					"session_id": h.sessionID,
					"message_id": msgID,
					"status":     status,
				})
			}
		}
	}()
}

func (h *eventHandler) handleContact(evt *events.Contact) {
	name := evt.Action.GetFullName()
	if name == "" {
		name = evt.Action.GetFirstName()
	}
	if name == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		h.upsertContact(ctx, evt.JID, "", name, "")
	}()
}

func (h *eventHandler) handlePushName(evt *events.PushName) {
	if evt.NewPushName == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		h.upsertContact(ctx, evt.JID, evt.NewPushName, "", "")
	}()
}

func (h *eventHandler) handleBusinessName(evt *events.BusinessName) {
	if evt.NewBusinessName == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		h.upsertContact(ctx, evt.JID, "", "", evt.NewBusinessName)
	}()
}

// upsertContact grava um contato preenchendo apenas os campos conhecidos
func (h *eventHandler) upsertContact(ctx context.Context, jid types.JID, pushName, name, businessName string) {
	contact := &chat.Contact{
		ID:        uuid.New(),
		SessionID: h.sessionUUID,
		Jid:       jid.String(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if phone := ExtractPhoneFromJID(jid.String()); phone != "" {
		contact.Phone = &phone
	}
	if pushName != "" {
		contact.PushName = &pushName
	}
	if name != "" {
		contact.Name = &name
	}
	if businessName != "" {
		contact.BusinessName = &businessName
	}

	if err := h.manager.contactRepo.Upsert(ctx, contact); err != nil {
		h.logger.ErrorWithFields("Failed to upsert contact", map[string]interface{}{
			"session_id": h.sessionID,
			"jid":        jid.String(),
			"error":      err.Error(),
		})
	}
}

func (h *eventHandler) handleHistorySync(evt *events.HistorySync) {
	if evt.Data == nil {
		return
	}

	syncType := evt.Data.GetSyncType()
	h.logger.InfoWithFields("History sync received", map[string]interface{}{
		"session_id":    h.sessionID,
		"sync_type":     syncType.String(),
		"conversations": len(evt.Data.GetConversations()),
		"pushnames":     len(evt.Data.GetPushnames()),
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if pushnames := evt.Data.GetPushnames(); len(pushnames) > 0 {
			h.importPushnames(ctx, pushnames)
		}

		switch syncType {
		case waHistorySync.HistorySync_INITIAL_BOOTSTRAP, waHistorySync.HistorySync_RECENT:
			for _, conv := range evt.Data.GetConversations() {
				h.importConversation(ctx, conv)
			}
		}
	}()
}

func (h *eventHandler) importPushnames(ctx context.Context, pushnames []*waHistorySync.Pushname) {
	contacts := make([]*chat.Contact, 0, len(pushnames))
	for _, pn := range pushnames {
		jid := pn.GetID()
		pushName := pn.GetPushname()
		if jid == "" || pushName == "" {
			continue
		}
		contact := &chat.Contact{
			ID:        uuid.New(),
			SessionID: h.sessionUUID,
			Jid:       jid,
			PushName:  &pushName,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if phone := ExtractPhoneFromJID(jid); phone != "" {
			contact.Phone = &phone
		}
		contacts = append(contacts, contact)
	}

	if len(contacts) == 0 {
		return
	}

	saved, err := h.manager.contactRepo.UpsertBatch(ctx, contacts)
	if err != nil {
		h.logger.ErrorWithFields("Failed to import pushnames", map[string]interface{}{
			"session_id": h.sessionID,
			"error":      err.Error(),
		})
		return
	}
	h.logger.DebugWithFields("Pushnames imported", map[string]interface{}{
		"session_id": h.sessionID,
		"count":      saved,
	})
}

func (h *eventHandler) importConversation(ctx context.Context, conv *waHistorySync.Conversation) {
	chatJid := conv.GetID()
	if chatJid == "" {
		return
	}

	chatRow := &chat.Chat{
		ID:        uuid.New(),
		SessionID: h.sessionUUID,
		Jid:       chatJid,
		IsGroup:   IsGroupJID(chatJid),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if name := conv.GetName(); name != "" {
		chatRow.Name = &name
	}

	var lastMessageAt time.Time
	messages := make([]*chat.Message, 0, len(conv.GetMessages()))

	for _, hm := range conv.GetMessages() {
		wmi := hm.GetMessage()
		if wmi == nil {
			continue
		}
		key := wmi.GetKey()
		if key == nil || key.GetID() == "" {
			continue
		}

		msgType, content := extractMessageContent(wmi.GetMessage())
		if content == "" && msgType == MessageTypeText {
			continue
		}

		senderJid := chatJid
		if key.GetFromMe() {
			if client := h.manager.getClient(h.sessionID); client != nil {
				senderJid = client.GetJID().String()
			}
		} else if p := key.GetParticipant(); p != "" {
			senderJid = p
		}

		ts := time.Unix(int64(wmi.GetMessageTimestamp()), 0)
		if ts.After(lastMessageAt) {
			lastMessageAt = ts
		}

		msg := chat.NewMessage(h.sessionUUID, chatJid, senderJid, key.GetID())
		msg.Type = msgType
		if content != "" {
			msg.Content = &content
		}
		msg.FromMe = key.GetFromMe()
		msg.Timestamp = ts
		if key.GetFromMe() {
			msg.Status = chat.StatusSent
		} else {
			msg.Status = chat.StatusDelivered
		}
		if mime := extractMimeType(wmi.GetMessage()); mime != "" {
			msg.MediaType = &mime
		}
		messages = append(messages, msg)
	}

	if !lastMessageAt.IsZero() {
		chatRow.LastMessageAt = &lastMessageAt
	}

	if err := h.manager.chatRepo.Upsert(ctx, chatRow); err != nil {
		h.logger.ErrorWithFields("Failed to import chat from history", map[string]interface{}{
			"session_id": h.sessionID,
			"chat":       chatJid,
			"error":      err.Error(),
		})
		return
	}

	if len(messages) > 0 {
		saved, err := h.manager.messageRepo.UpsertBatch(ctx, messages)
		if err != nil {
			h.logger.ErrorWithFields("Failed to import messages from history", map[string]interface{}{
				"session_id": h.sessionID,
				"chat":       chatJid,
				"error":      err.Error(),
			})
			return
		}
		h.logger.DebugWithFields("History messages imported", map[string]interface{}{
			"session_id": h.sessionID,
			"chat":       chatJid,
			"count":      saved,
		})
	}
}

func (h *eventHandler) handlePresence(evt *events.Presence) {
	h.manager.presenceCache.Set(h.sessionID+":"+evt.From.String(), map[string]interface{}{
		"unavailable": evt.Unavailable,
		"last_seen":   evt.LastSeen,
	})
}

func (h *eventHandler) handleChatPresence(evt *events.ChatPresence) {
	h.manager.presenceCache.Set(h.sessionID+":chat:"+evt.Chat.String(), map[string]interface{}{
		"sender": evt.Sender.String(),
		"state":  string(evt.State),
		"media":  string(evt.Media),
	})
}

func (h *eventHandler) handleBlocklist(evt *events.Blocklist) {
	h.manager.blocklistCache.Set(h.sessionID, evt)
}

// extractMessageContent devolve o tipo e o conteúdo textual da mensagem
func extractMessageContent(msg *waE2E.Message) (string, string) {
	if msg == nil {
		return MessageTypeText, ""
	}

	switch {
	case msg.GetConversation() != "":
		return MessageTypeText, msg.GetConversation()
	case msg.GetExtendedTextMessage() != nil:
		return MessageTypeText, msg.GetExtendedTextMessage().GetText()
	case msg.GetImageMessage() != nil:
		if caption := msg.GetImageMessage().GetCaption(); caption != "" {
			return MessageTypeImage, caption
		}
		return MessageTypeImage, ""
	case msg.GetAudioMessage() != nil:
		return MessageTypeAudio, ""
	case msg.GetVideoMessage() != nil:
		if caption := msg.GetVideoMessage().GetCaption(); caption != "" {
			return MessageTypeVideo, caption
		}
		return MessageTypeVideo, ""
	case msg.GetDocumentMessage() != nil:
		if title := msg.GetDocumentMessage().GetTitle(); title != "" {
			return MessageTypeDocument, title
		}
		return MessageTypeDocument, ""
	case msg.GetStickerMessage() != nil:
		return MessageTypeSticker, ""
	case msg.GetLocationMessage() != nil:
		return MessageTypeLocation, "Location shared"
	case msg.GetContactMessage() != nil:
		return MessageTypeContact, msg.GetContactMessage().GetDisplayName()
	default:
		return MessageTypeText, ""
	}
}

// extractMimeType devolve o mimetype quando a mensagem carrega mídia
func extractMimeType(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	switch {
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage().GetMimetype()
	case msg.GetAudioMessage() != nil:
		return msg.GetAudioMessage().GetMimetype()
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage().GetMimetype()
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage().GetMimetype()
	case msg.GetStickerMessage() != nil:
		return msg.GetStickerMessage().GetMimetype()
	default:
		return ""
	}
}
