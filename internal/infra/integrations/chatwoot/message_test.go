package chatwoot

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow/proto/waE2E"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chat"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/wameow"
	"github.com/felipyfgs/onwapp-sub000/platform/config"
)

func newBridgeFixture(cfg *chatwoot.ChatwootConfig) (*Bridge, *fakeChatwootClient, *fakeMessageRepo, *fakeChatRepo) {
	client := &fakeChatwootClient{}
	manager := &fakeChatwootManager{client: client, config: cfg}
	wa := &fakeWameowManager{onWhatsApp: map[string]string{}}
	messageRepo := &fakeMessageRepo{}
	chatRepo := &fakeChatRepo{}

	bridge := NewBridge(testLogger(), manager, wa, messageRepo, chatRepo, nil, config.ChatwootConfig{MediaTimeout: 5})
	return bridge, client, messageRepo, chatRepo
}

func incomingEvent(chatJid waTypes.JID, msgID, pushName string) *events.Message {
	return &events.Message{
		Info: waTypes.MessageInfo{
			MessageSource: waTypes.MessageSource{
				Chat:   chatJid,
				Sender: waTypes.NewJID("5511999999999", waTypes.DefaultUserServer),
			},
			ID:       msgID,
			PushName: pushName,
		},
	}
}

func TestProcessMessageCreatesIncoming(t *testing.T) {
	t.Parallel()

	bridge, client, repo, _ := newBridgeFixture(contactConfig(false))

	sessionID := uuid.New()
	msg := chat.NewMessage(sessionID, "5511999999999@s.whatsapp.net", "5511999999999@s.whatsapp.net", "WA-100")
	repo.messages = append(repo.messages, msg)

	evt := incomingEvent(waTypes.NewJID("5511999999999", waTypes.DefaultUserServer), "WA-100", "Maria")
	bridge.ProcessMessage(context.Background(), sessionID.String(), evt, wameow.MessageTypeText, "hello there")

	if len(client.createdMessages) != 1 {
		t.Fatalf("expected 1 Chatwoot message, got %d", len(client.createdMessages))
	}
	created := client.createdMessages[0]
	if created.Content != "hello there" {
		t.Errorf("Content = %q", created.Content)
	}
	if created.MessageType != "incoming" {
		t.Errorf("MessageType = %q, want incoming", created.MessageType)
	}
	if created.SourceID != "WAID:WA-100" {
		t.Errorf("SourceID = %q, want WAID:WA-100", created.SourceID)
	}

	// correlation persisted back onto the local row
	if msg.SourceID == nil || *msg.SourceID != "WAID:WA-100" {
		t.Errorf("local row SourceID = %v", msg.SourceID)
	}
	if msg.CwConversationID == nil {
		t.Error("local row should have a conversation ID")
	}
}

func TestProcessMessageOutgoingType(t *testing.T) {
	t.Parallel()

	bridge, client, _, _ := newBridgeFixture(contactConfig(false))

	evt := incomingEvent(waTypes.NewJID("5511999999999", waTypes.DefaultUserServer), "WA-101", "")
	evt.Info.IsFromMe = true
	bridge.ProcessMessage(context.Background(), uuid.NewString(), evt, wameow.MessageTypeText, "sent from phone")

	if len(client.createdMessages) != 1 {
		t.Fatalf("expected 1 Chatwoot message, got %d", len(client.createdMessages))
	}
	if client.createdMessages[0].MessageType != "outgoing" {
		t.Errorf("MessageType = %q, want outgoing", client.createdMessages[0].MessageType)
	}
}

func TestProcessMessageGroupSenderPrefix(t *testing.T) {
	t.Parallel()

	cfg := contactConfig(false)
	cfg.SignDelimiter = "\n"
	bridge, client, _, chatRepo := newBridgeFixture(cfg)

	sessionID := uuid.New()
	groupJid := waTypes.NewJID("123456789-987654", waTypes.GroupServer)
	groupName := "Family Group"
	chatRepo.chats = append(chatRepo.chats, &chat.Chat{
		SessionID: sessionID,
		Jid:       groupJid.String(),
		Name:      &groupName,
		IsGroup:   true,
	})

	evt := incomingEvent(groupJid, "WA-102", "Maria")
	bridge.ProcessMessage(context.Background(), sessionID.String(), evt, wameow.MessageTypeText, "hi all")

	if len(client.createdMessages) != 1 {
		t.Fatalf("expected 1 Chatwoot message, got %d", len(client.createdMessages))
	}
	if client.createdMessages[0].Content != "**Maria:**\nhi all" {
		t.Errorf("Content = %q", client.createdMessages[0].Content)
	}
}

func TestProcessMessageIgnoredJid(t *testing.T) {
	t.Parallel()

	cfg := contactConfig(false)
	cfg.IgnoreJids = []string{"5511999999999@s.whatsapp.net"}
	bridge, client, _, _ := newBridgeFixture(cfg)

	evt := incomingEvent(waTypes.NewJID("5511999999999", waTypes.DefaultUserServer), "WA-103", "Maria")
	bridge.ProcessMessage(context.Background(), uuid.NewString(), evt, wameow.MessageTypeText, "ignored")

	if len(client.createdMessages) != 0 {
		t.Error("ignored JID should not reach Chatwoot")
	}
}

func TestProcessMessageMediaAttachment(t *testing.T) {
	t.Parallel()

	bridge, client, _, _ := newBridgeFixture(contactConfig(false))

	evt := incomingEvent(waTypes.NewJID("5511999999999", waTypes.DefaultUserServer), "WA-104", "Maria")
	bridge.ProcessMessage(context.Background(), uuid.NewString(), evt, wameow.MessageTypeImage, "caption")

	// fakeWameowManager serves media, fakeChatwootClient routes
	// CreateMediaMessage through CreateMessage
	if len(client.createdMessages) != 1 {
		t.Fatalf("expected 1 Chatwoot message, got %d", len(client.createdMessages))
	}
	if client.createdMessages[0].Content != "caption" {
		t.Errorf("Content = %q", client.createdMessages[0].Content)
	}
}

func TestProcessMessageQuotedReply(t *testing.T) {
	t.Parallel()

	bridge, client, repo, _ := newBridgeFixture(contactConfig(false))

	sessionID := uuid.New()
	quotedCwID := 77
	quoted := chat.NewMessage(sessionID, "5511999999999@s.whatsapp.net", "5511999999999@s.whatsapp.net", "WA-QUOTED")
	quoted.CwMessageID = &quotedCwID
	repo.messages = append(repo.messages, quoted)

	evt := incomingEvent(waTypes.NewJID("5511999999999", waTypes.DefaultUserServer), "WA-105", "Maria")
	evt.Message = &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:        proto.String("replying"),
			ContextInfo: &waE2E.ContextInfo{StanzaID: proto.String("WA-QUOTED")},
		},
	}
	bridge.ProcessMessage(context.Background(), sessionID.String(), evt, wameow.MessageTypeText, "replying")

	if len(client.createdMessages) != 1 {
		t.Fatalf("expected 1 Chatwoot message, got %d", len(client.createdMessages))
	}
	attrs := client.createdMessages[0].ContentAttributes
	if attrs == nil || attrs["in_reply_to"] != quotedCwID {
		t.Errorf("ContentAttributes = %v, want in_reply_to %d", attrs, quotedCwID)
	}
}

func TestProcessEditPropagates(t *testing.T) {
	t.Parallel()

	bridge, client, repo, _ := newBridgeFixture(contactConfig(false))

	sessionID := uuid.New()
	conversationID := 100
	msg := chat.NewMessage(sessionID, "5511999999999@s.whatsapp.net", "", "WA-200")
	msg.CwConversationID = &conversationID
	repo.messages = append(repo.messages, msg)

	bridge.ProcessEdit(context.Background(), sessionID.String(), "5511999999999@s.whatsapp.net", "WA-200", "edited text")

	if len(client.createdMessages) != 1 {
		t.Fatalf("expected 1 edit message, got %d", len(client.createdMessages))
	}
	if !strings.HasSuffix(client.createdMessages[0].Content, "edited text") {
		t.Errorf("Content = %q", client.createdMessages[0].Content)
	}
	// without a WAID source ID the Chatwoot echo of the edit would come
	// back through the inbound webhook and be re-sent to WhatsApp
	if client.createdMessages[0].SourceID != "WAID:WA-200" {
		t.Errorf("SourceID = %q, want WAID:WA-200", client.createdMessages[0].SourceID)
	}
}

func TestProcessEditUnknownMessage(t *testing.T) {
	t.Parallel()

	bridge, client, _, _ := newBridgeFixture(contactConfig(false))

	bridge.ProcessEdit(context.Background(), uuid.NewString(), "5511999999999@s.whatsapp.net", "WA-404", "edited")

	if len(client.createdMessages) != 0 {
		t.Error("edit of unknown message should be dropped")
	}
}

func TestProcessRevokeDeletesAllShares(t *testing.T) {
	t.Parallel()

	bridge, client, repo, _ := newBridgeFixture(contactConfig(false))

	sessionID := uuid.New()
	sourceID := "CWID:42"
	conversationID := 100
	for i, msgID := range []string{"WA-300", "WA-301"} {
		row := chat.NewMessage(sessionID, "5511999999999@s.whatsapp.net", "", msgID)
		row.SourceID = &sourceID
		row.CwConversationID = &conversationID
		cwID := 500 + i
		row.CwMessageID = &cwID
		repo.messages = append(repo.messages, row)
	}

	bridge.ProcessRevoke(context.Background(), sessionID.String(), "5511999999999@s.whatsapp.net", "WA-300")

	if len(client.deletedMessages) != 2 {
		t.Fatalf("expected 2 deletions, got %d", len(client.deletedMessages))
	}
	if client.deletedMessages[0] != 500 || client.deletedMessages[1] != 501 {
		t.Errorf("deletedMessages = %v", client.deletedMessages)
	}
	for _, row := range repo.messages {
		if !row.IsDeleted {
			t.Errorf("row %s not marked deleted locally", row.MsgID)
		}
	}
}

func TestProcessRevokeUncorrelatedMessage(t *testing.T) {
	t.Parallel()

	bridge, client, repo, _ := newBridgeFixture(contactConfig(false))

	sessionID := uuid.New()
	row := chat.NewMessage(sessionID, "5511999999999@s.whatsapp.net", "", "WA-302")
	repo.messages = append(repo.messages, row)

	bridge.ProcessRevoke(context.Background(), sessionID.String(), "5511999999999@s.whatsapp.net", "WA-302")

	if len(client.deletedMessages) != 0 {
		t.Error("uncorrelated message should not trigger deletions")
	}
}

func TestExtensionFromMime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", ".jpg"},
		{"image/png", ".png"},
		{"audio/ogg; codecs=opus", ".ogg"},
		{"video/mp4", ".mp4"},
		{"application/pdf", ".pdf"},
		{"application/zip", ".zip"},
		{"garbage", ".bin"},
	}

	for _, tt := range tests {
		if got := extensionFromMime(tt.mime); got != tt.want {
			t.Errorf("extensionFromMime(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
