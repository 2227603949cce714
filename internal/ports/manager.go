package ports

import (
	"context"

	"go.mau.fi/whatsmeow/proto/waE2E"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
)

// WameowManager defines the WhatsApp session management surface exposed to
// handlers and integrations
type WameowManager interface {
	CreateSession(ctx context.Context, sessionID string) error
	ConnectSession(ctx context.Context, sessionID string) error
	DisconnectSession(sessionID string) error
	LogoutSession(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error

	GetQRCode(sessionID string) (*session.QRCodeResponse, error)
	IsConnected(sessionID string) bool

	SendText(ctx context.Context, sessionID, to, body string) (*SendResult, error)
	SendMedia(ctx context.Context, sessionID, to string, media []byte, mimeType, caption, filename string) (*SendResult, error)
	RevokeMessage(ctx context.Context, sessionID, to, messageID string) error

	IsOnWhatsApp(ctx context.Context, sessionID string, phones []string) (map[string]string, error)
	DownloadMedia(ctx context.Context, sessionID string, msg *waE2E.Message) ([]byte, string, error)
}

// SendResult carries the provider message ID and timestamp of a sent message
type SendResult struct {
	MessageID string `json:"messageId"`
	Timestamp int64  `json:"timestamp"`
}
