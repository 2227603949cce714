package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status values a session moves through. The lifecycle manager is the only
// writer; transitions are persisted fire-and-forget.
const (
	StatusCreated      = "created"
	StatusConnecting   = "connecting"
	StatusQRCode       = "qr"
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
	StatusLoggedOut    = "logged_out"
)

// MaxLogoutAttempts limita tentativas de logout remoto antes da limpeza local
const MaxLogoutAttempts = 5

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrSessionNotConnected  = errors.New("session not connected")
	ErrSessionNotLoggedIn   = errors.New("session has no stored credentials")
)

type Session struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Status          string     `json:"status" db:"status"`
	DeviceJid       *string    `json:"deviceJid,omitempty" db:"deviceJid"`
	Phone           *string    `json:"phone,omitempty" db:"phone"`
	QRCode          *string    `json:"qrCode,omitempty" db:"qrCode"`
	QRCodeExpiresAt *time.Time `json:"qrCodeExpiresAt,omitempty" db:"qrCodeExpiresAt"`
	ConnectionError *string    `json:"connectionError,omitempty" db:"connectionError"`
	LogoutAttempts  int        `json:"-" db:"logoutAttempts"`
	ProxyURL        *string    `json:"proxyUrl,omitempty" db:"proxyUrl"`
	CreatedAt       time.Time  `json:"createdAt" db:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updatedAt"`
	ConnectedAt     *time.Time `json:"connectedAt,omitempty" db:"connectedAt"`
	LastSeen        *time.Time `json:"lastSeen,omitempty" db:"lastSeen"`
}

func NewSession(name string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Name:      name,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetConnected marca a sessão como conectada e limpa o estado de QR
func (s *Session) SetConnected(deviceJid, phone string) {
	now := time.Now()
	s.Status = StatusConnected
	s.DeviceJid = &deviceJid
	s.Phone = &phone
	s.QRCode = nil
	s.QRCodeExpiresAt = nil
	s.ConnectionError = nil
	s.LogoutAttempts = 0
	s.ConnectedAt = &now
	s.LastSeen = &now
	s.UpdatedAt = now
}

// SetDisconnected marca a sessão como desconectada
func (s *Session) SetDisconnected() {
	s.Status = StatusDisconnected
	s.UpdatedAt = time.Now()
}

// SetLoggedOut limpa o vínculo com o dispositivo após logout remoto
func (s *Session) SetLoggedOut() {
	s.Status = StatusLoggedOut
	s.DeviceJid = nil
	s.Phone = nil
	s.QRCode = nil
	s.QRCodeExpiresAt = nil
	s.UpdatedAt = time.Now()
}

// SetQRCode registra um novo código QR com validade
func (s *Session) SetQRCode(code string, expiresAt time.Time) {
	s.Status = StatusQRCode
	s.QRCode = &code
	s.QRCodeExpiresAt = &expiresAt
	s.UpdatedAt = time.Now()
}

// SetConnectionError registra falha de conexão
func (s *Session) SetConnectionError(errorMsg string) {
	s.Status = StatusDisconnected
	s.ConnectionError = &errorMsg
	s.UpdatedAt = time.Now()
}

func (s *Session) IsConnected() bool {
	return s.Status == StatusConnected
}

func (s *Session) CanLogout() bool {
	return s.DeviceJid != nil
}

func (s *Session) UpdateLastSeen() {
	now := time.Now()
	s.LastSeen = &now
	s.UpdatedAt = now
}

type CreateSessionRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	ProxyURL *string `json:"proxyUrl,omitempty" validate:"omitempty,url"`
}

type QRCodeResponse struct {
	QRCode      string    `json:"qrCode"`
	QRCodeImage string    `json:"qrCodeImage,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TimeoutSecs int       `json:"timeoutSeconds"`
}
