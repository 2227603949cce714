package chatwoot

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow/proto/waE2E"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chat"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/config"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.New(config.LogConfig{Level: "error", Format: "console", Output: "stderr"})
}

// fakeChatwootClient records API calls for assertions
type fakeChatwootClient struct {
	mu sync.Mutex

	searchResults        map[string][]ports.ChatwootContact
	filterResults        []ports.ChatwootContact
	contactConversations []ports.ChatwootConversation

	createdMessages []ports.CreateMessageRequest
	createdContacts []ports.ChatwootContact
	toggledStatus   []string
	deletedMessages []int
	merges          [][2]int

	nextContactID int
}

func (f *fakeChatwootClient) CreateInbox(ctx context.Context, name, webhookURL string) (*ports.ChatwootInbox, error) {
	return &ports.ChatwootInbox{ID: 1, Name: name}, nil
}

func (f *fakeChatwootClient) ListInboxes(ctx context.Context) ([]ports.ChatwootInbox, error) {
	return nil, nil
}

func (f *fakeChatwootClient) GetInbox(ctx context.Context, inboxID int) (*ports.ChatwootInbox, error) {
	return &ports.ChatwootInbox{ID: inboxID}, nil
}

func (f *fakeChatwootClient) CreateContact(ctx context.Context, inboxID int, phone, name, identifier string) (*ports.ChatwootContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextContactID++
	contact := ports.ChatwootContact{
		ID:          f.nextContactID,
		Name:        name,
		PhoneNumber: phone,
		Identifier:  identifier,
	}
	f.createdContacts = append(f.createdContacts, contact)
	return &contact, nil
}

func (f *fakeChatwootClient) SearchContact(ctx context.Context, query string) ([]ports.ChatwootContact, error) {
	return f.searchResults[query], nil
}

func (f *fakeChatwootClient) FilterContacts(ctx context.Context, phoneNumbers []string) ([]ports.ChatwootContact, error) {
	return f.filterResults, nil
}

func (f *fakeChatwootClient) MergeContacts(ctx context.Context, baseContactID, mergeContactID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges = append(f.merges, [2]int{baseContactID, mergeContactID})
	return nil
}

func (f *fakeChatwootClient) CreateConversation(ctx context.Context, contactID, inboxID int, sourceID string) (*ports.ChatwootConversation, error) {
	return &ports.ChatwootConversation{ID: 100, ContactID: contactID, InboxID: inboxID, Status: "open"}, nil
}

func (f *fakeChatwootClient) ListContactConversations(ctx context.Context, contactID int) ([]ports.ChatwootConversation, error) {
	return f.contactConversations, nil
}

func (f *fakeChatwootClient) ToggleConversationStatus(ctx context.Context, conversationID int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggledStatus = append(f.toggledStatus, status)
	return nil
}

func (f *fakeChatwootClient) CreateMessage(ctx context.Context, conversationID int, req *ports.CreateMessageRequest) (*ports.ChatwootMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdMessages = append(f.createdMessages, *req)
	return &ports.ChatwootMessage{ID: len(f.createdMessages), ConversationID: conversationID}, nil
}

func (f *fakeChatwootClient) CreateMediaMessage(ctx context.Context, conversationID int, req *ports.CreateMessageRequest, attachment io.Reader, filename, mimeType string) (*ports.ChatwootMessage, error) {
	return f.CreateMessage(ctx, conversationID, req)
}

func (f *fakeChatwootClient) DeleteMessage(ctx context.Context, conversationID, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedMessages = append(f.deletedMessages, messageID)
	return nil
}

func (f *fakeChatwootClient) AddConversationLabels(ctx context.Context, conversationID int, labels []string) error {
	return nil
}

var _ ports.ChatwootClient = (*fakeChatwootClient)(nil)

// fakeChatwootManager serves a fixed client/config pair
type fakeChatwootManager struct {
	client *fakeChatwootClient
	config *chatwoot.ChatwootConfig
	err    error
}

func (f *fakeChatwootManager) GetClient(ctx context.Context, sessionID string) (ports.ChatwootClient, *chatwoot.ChatwootConfig, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.client, f.config, nil
}

func (f *fakeChatwootManager) IsEnabled(ctx context.Context, sessionID string) bool {
	return f.err == nil && f.config != nil && f.config.Enabled
}

func (f *fakeChatwootManager) SetConfig(ctx context.Context, sessionID string, req *chatwoot.SetConfigRequest) (*chatwoot.ChatwootConfig, error) {
	return f.config, nil
}

func (f *fakeChatwootManager) GetConfig(ctx context.Context, sessionID string) (*chatwoot.ChatwootConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.config, nil
}

func (f *fakeChatwootManager) Cleanup(sessionID string) {}

var _ ports.ChatwootManager = (*fakeChatwootManager)(nil)

type sentText struct {
	To   string
	Body string
}

type sentMedia struct {
	To       string
	MimeType string
	Caption  string
	Filename string
}

type revokedMessage struct {
	To        string
	MessageID string
}

// fakeWameowManager records outbound WhatsApp operations
type fakeWameowManager struct {
	mu sync.Mutex

	texts   []sentText
	media   []sentMedia
	revoked []revokedMessage

	onWhatsApp    map[string]string
	onWhatsAppErr error

	nextMessageID int
}

func (f *fakeWameowManager) CreateSession(ctx context.Context, sessionID string) error  { return nil }
func (f *fakeWameowManager) ConnectSession(ctx context.Context, sessionID string) error { return nil }
func (f *fakeWameowManager) DisconnectSession(sessionID string) error                   { return nil }
func (f *fakeWameowManager) LogoutSession(ctx context.Context, sessionID string) error  { return nil }
func (f *fakeWameowManager) DeleteSession(ctx context.Context, sessionID string) error  { return nil }

func (f *fakeWameowManager) GetQRCode(sessionID string) (*session.QRCodeResponse, error) {
	return nil, errors.New("no QR code")
}

func (f *fakeWameowManager) IsConnected(sessionID string) bool { return true }

func (f *fakeWameowManager) SendText(ctx context.Context, sessionID, to, body string) (*ports.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentText{To: to, Body: body})
	f.nextMessageID++
	return &ports.SendResult{MessageID: uuid.NewString()}, nil
}

func (f *fakeWameowManager) SendMedia(ctx context.Context, sessionID, to string, media []byte, mimeType, caption, filename string) (*ports.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.media = append(f.media, sentMedia{To: to, MimeType: mimeType, Caption: caption, Filename: filename})
	f.nextMessageID++
	return &ports.SendResult{MessageID: uuid.NewString()}, nil
}

func (f *fakeWameowManager) RevokeMessage(ctx context.Context, sessionID, to, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, revokedMessage{To: to, MessageID: messageID})
	return nil
}

func (f *fakeWameowManager) IsOnWhatsApp(ctx context.Context, sessionID string, phones []string) (map[string]string, error) {
	if f.onWhatsAppErr != nil {
		return nil, f.onWhatsAppErr
	}
	result := make(map[string]string)
	for _, phone := range phones {
		if jid, ok := f.onWhatsApp[phone]; ok {
			result[phone] = jid
		}
	}
	return result, nil
}

func (f *fakeWameowManager) DownloadMedia(ctx context.Context, sessionID string, msg *waE2E.Message) ([]byte, string, error) {
	return []byte("media-bytes"), "image/jpeg", nil
}

var _ ports.WameowManager = (*fakeWameowManager)(nil)

// fakeMessageRepo keeps message rows in memory
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*chat.Message
}

func (f *fakeMessageRepo) Upsert(ctx context.Context, m *chat.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessageRepo) UpsertBatch(ctx context.Context, messages []*chat.Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, messages...)
	return len(messages), nil
}

func (f *fakeMessageRepo) GetByMsgID(ctx context.Context, sessionID uuid.UUID, chatJid, msgID string) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ChatJid == chatJid && m.MsgID == msgID {
			return m, nil
		}
	}
	return nil, chat.ErrMessageNotFound
}

func (f *fakeMessageRepo) ListBySourceID(ctx context.Context, sessionID uuid.UUID, sourceID string) ([]*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []*chat.Message
	for _, m := range f.messages {
		if m.SourceID != nil && *m.SourceID == sourceID {
			rows = append(rows, m)
		}
	}
	return rows, nil
}

func (f *fakeMessageRepo) GetByCwMessageID(ctx context.Context, sessionID uuid.UUID, cwMessageID int) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.CwMessageID != nil && *m.CwMessageID == cwMessageID {
			return m, nil
		}
	}
	return nil, chat.ErrMessageNotFound
}

func (f *fakeMessageRepo) UpdateStatus(ctx context.Context, sessionID uuid.UUID, chatJid, msgID, status string) error {
	return nil
}

func (f *fakeMessageRepo) UpdateChatwootFields(ctx context.Context, sessionID uuid.UUID, msgID string, cwConversationID, cwMessageID int, sourceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.MsgID == msgID {
			m.CwConversationID = &cwConversationID
			m.CwMessageID = &cwMessageID
			m.SourceID = &sourceID
		}
	}
	return nil
}

func (f *fakeMessageRepo) MarkDeleted(ctx context.Context, sessionID uuid.UUID, chatJid, msgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ChatJid == chatJid && m.MsgID == msgID {
			m.IsDeleted = true
		}
	}
	return nil
}

func (f *fakeMessageRepo) Delete(ctx context.Context, sessionID uuid.UUID, chatJid, msgID string) error {
	return nil
}

var _ ports.MessageRepository = (*fakeMessageRepo)(nil)

// fakeChatRepo keeps chat rows in memory
type fakeChatRepo struct {
	mu    sync.Mutex
	chats []*chat.Chat
}

func (f *fakeChatRepo) Upsert(ctx context.Context, c *chat.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, c)
	return nil
}

func (f *fakeChatRepo) UpsertBatch(ctx context.Context, chats []*chat.Chat) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, chats...)
	return len(chats), nil
}

func (f *fakeChatRepo) GetByJid(ctx context.Context, sessionID uuid.UUID, jid string) (*chat.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chats {
		if c.Jid == jid {
			return c, nil
		}
	}
	return nil, chat.ErrChatNotFound
}

func (f *fakeChatRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*chat.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chats, nil
}

var _ ports.ChatRepository = (*fakeChatRepo)(nil)
