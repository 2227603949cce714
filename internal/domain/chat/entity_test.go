package chat

import (
	"testing"

	"github.com/google/uuid"
)

func TestStatusAdvances(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"pending to sent", StatusPending, StatusSent, true},
		{"pending to delivered", StatusPending, StatusDelivered, true},
		{"pending to read", StatusPending, StatusRead, true},
		{"sent to delivered", StatusSent, StatusDelivered, true},
		{"sent to read", StatusSent, StatusRead, true},
		{"delivered to read", StatusDelivered, StatusRead, true},
		{"read to delivered regression", StatusRead, StatusDelivered, false},
		{"delivered to sent regression", StatusDelivered, StatusSent, false},
		{"sent to pending regression", StatusSent, StatusPending, false},
		{"same status", StatusDelivered, StatusDelivered, false},
		{"error is outside the ladder", StatusSent, StatusError, false},
		{"from error never advances", StatusError, StatusRead, false},
		{"unknown from", "bogus", StatusRead, false},
		{"unknown to", StatusPending, "bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusAdvances(tt.from, tt.to); got != tt.want {
				t.Errorf("StatusAdvances(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNewMessageDefaults(t *testing.T) {
	t.Parallel()

	sessionID := uuid.New()
	msg := NewMessage(sessionID, "5511999999999@s.whatsapp.net", "5511888888888@s.whatsapp.net", "3EB0ABC123")

	if msg.SessionID != sessionID {
		t.Errorf("SessionID = %v, want %v", msg.SessionID, sessionID)
	}
	if msg.Type != "text" {
		t.Errorf("Type = %q, want %q", msg.Type, "text")
	}
	if msg.Status != StatusPending {
		t.Errorf("Status = %q, want %q", msg.Status, StatusPending)
	}
	if msg.ID == uuid.Nil {
		t.Error("ID should be generated")
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if msg.CwConversationID != nil || msg.CwMessageID != nil || msg.SourceID != nil {
		t.Error("chatwoot correlation fields should start unset")
	}
}
