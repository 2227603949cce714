package wameow

import (
	"testing"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func TestExtractMessageContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		msg         *waE2E.Message
		wantType    string
		wantContent string
	}{
		{
			"nil message",
			nil,
			MessageTypeText, "",
		},
		{
			"conversation",
			&waE2E.Message{Conversation: proto.String("hello")},
			MessageTypeText, "hello",
		},
		{
			"extended text",
			&waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("linked text")}},
			MessageTypeText, "linked text",
		},
		{
			"image with caption",
			&waE2E.Message{ImageMessage: &waE2E.ImageMessage{Caption: proto.String("look at this")}},
			MessageTypeImage, "look at this",
		},
		{
			"image without caption",
			&waE2E.Message{ImageMessage: &waE2E.ImageMessage{}},
			MessageTypeImage, "",
		},
		{
			"audio",
			&waE2E.Message{AudioMessage: &waE2E.AudioMessage{}},
			MessageTypeAudio, "",
		},
		{
			"video with caption",
			&waE2E.Message{VideoMessage: &waE2E.VideoMessage{Caption: proto.String("clip")}},
			MessageTypeVideo, "clip",
		},
		{
			"document title",
			&waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{Title: proto.String("report.pdf")}},
			MessageTypeDocument, "report.pdf",
		},
		{
			"sticker",
			&waE2E.Message{StickerMessage: &waE2E.StickerMessage{}},
			MessageTypeSticker, "",
		},
		{
			"location",
			&waE2E.Message{LocationMessage: &waE2E.LocationMessage{}},
			MessageTypeLocation, "Location shared",
		},
		{
			"contact card",
			&waE2E.Message{ContactMessage: &waE2E.ContactMessage{DisplayName: proto.String("John Doe")}},
			MessageTypeContact, "John Doe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotContent := extractMessageContent(tt.msg)
			if gotType != tt.wantType || gotContent != tt.wantContent {
				t.Errorf("extractMessageContent = (%q, %q), want (%q, %q)",
					gotType, gotContent, tt.wantType, tt.wantContent)
			}
		})
	}
}

func TestExtractMimeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil", nil, ""},
		{"text has no mime", &waE2E.Message{Conversation: proto.String("hi")}, ""},
		{
			"image",
			&waE2E.Message{ImageMessage: &waE2E.ImageMessage{Mimetype: proto.String("image/jpeg")}},
			"image/jpeg",
		},
		{
			"audio",
			&waE2E.Message{AudioMessage: &waE2E.AudioMessage{Mimetype: proto.String("audio/ogg; codecs=opus")}},
			"audio/ogg; codecs=opus",
		},
		{
			"document",
			&waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{Mimetype: proto.String("application/pdf")}},
			"application/pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractMimeType(tt.msg); got != tt.want {
				t.Errorf("extractMimeType = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetEventType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		evt  interface{}
		want string
	}{
		{"message", &events.Message{}, "Message"},
		{"receipt", &events.Receipt{}, "Receipt"},
		{"connected", &events.Connected{}, "Connected"},
		{"logged out", &events.LoggedOut{}, "LoggedOut"},
		{"history sync", &events.HistorySync{}, "HistorySync"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getEventType(tt.evt); got != tt.want {
				t.Errorf("getEventType(%T) = %q, want %q", tt.evt, got, tt.want)
			}
		})
	}
}
