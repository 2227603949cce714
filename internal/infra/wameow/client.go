package wameow

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"

	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// qrCodeValidity é a validade aproximada de cada código antes da renovação
const qrCodeValidity = 60 * time.Second

// wameowClient envolve um *whatsmeow.Client de uma única sessão e cuida do
// loop de QR code e do ciclo de conexão
type wameowClient struct {
	sessionID string
	client    *whatsmeow.Client
	logger    *logger.Logger

	// onQR recebe cada novo código com a imagem base64 já gerada
	onQR func(code, base64Image string, expiresAt time.Time)
	// onQRResult informa o desfecho do pareamento (success ou timeout)
	onQRResult func(event string)

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	qrMu       sync.RWMutex
	qrCode     string
	qrBase64   string
	qrLoopOn   bool
	qrLoopStop chan struct{}
}

func newWameowClient(sessionID string, deviceJid string, container *sqlstore.Container, log *logger.Logger) (*wameowClient, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	deviceStore := deviceStoreForSession(sessionID, deviceJid, container, log)
	if deviceStore == nil {
		return nil, fmt.Errorf("failed to create device store for session %s", sessionID)
	}

	client := whatsmeow.NewClient(deviceStore, NewWameowLogger(log))

	ctx, cancel := context.WithCancel(context.Background())
	return &wameowClient{
		sessionID:  sessionID,
		client:     client,
		logger:     log.WithSession(sessionID),
		ctx:        ctx,
		cancel:     cancel,
		qrLoopStop: make(chan struct{}, 1),
	}, nil
}

// deviceStoreForSession carrega o device store do JID vinculado ou cria um novo
func deviceStoreForSession(sessionID, deviceJid string, container *sqlstore.Container, log *logger.Logger) *store.Device {
	if deviceJid != "" {
		jid, err := waTypes.ParseJID(deviceJid)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			deviceStore, err := container.GetDevice(ctx, jid)
			if err == nil && deviceStore != nil {
				return deviceStore
			}
			log.WarnWithFields("Failed to load existing device store, creating new", map[string]interface{}{
				"session_id": sessionID,
				"device_jid": deviceJid,
			})
		}
	}

	return container.NewDevice()
}

func (c *wameowClient) Connect() error {
	c.stopQRLoop()

	if c.client.IsConnected() {
		c.client.Disconnect()
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.mu.Unlock()

	go c.runConnectLoop()
	return nil
}

func (c *wameowClient) runConnectLoop() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorWithFields("Client loop panic", map[string]interface{}{
				"error": r,
			})
		}
	}()

	if c.client.Store.ID == nil {
		c.startQRRegistration()
		return
	}

	if err := c.client.Connect(); err != nil {
		c.logger.ErrorWithFields("Failed to connect existing device", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// startQRRegistration abre o canal de QR antes de conectar e consome os
// códigos até pareamento, timeout ou cancelamento
func (c *wameowClient) startQRRegistration() {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	qrChan, err := c.client.GetQRChannel(ctx)
	if err != nil {
		c.logger.ErrorWithFields("Failed to get QR channel", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := c.client.Connect(); err != nil {
		c.logger.ErrorWithFields("Failed to connect for QR registration", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	c.runQRLoop(ctx, qrChan)
}

func (c *wameowClient) runQRLoop(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) {
	c.qrMu.Lock()
	c.qrLoopOn = true
	c.qrMu.Unlock()

	defer func() {
		c.qrMu.Lock()
		c.qrLoopOn = false
		c.qrMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-c.qrLoopStop:
			return

		case evt, ok := <-qrChan:
			if !ok {
				return
			}
			c.handleQREvent(evt)
			if evt.Event != "code" {
				return
			}
		}
	}
}

func (c *wameowClient) handleQREvent(evt whatsmeow.QRChannelItem) {
	switch evt.Event {
	case "code":
		c.qrMu.RLock()
		duplicate := c.qrCode == evt.Code
		c.qrMu.RUnlock()
		if duplicate {
			return
		}

		base64Image := generateQRCodeImage(evt.Code, c.logger)

		c.qrMu.Lock()
		c.qrCode = evt.Code
		c.qrBase64 = base64Image
		c.qrMu.Unlock()

		displayQRCodeInTerminal(evt.Code)

		if c.onQR != nil {
			c.onQR(evt.Code, base64Image, time.Now().Add(qrCodeValidity))
		}

	case "success":
		c.logger.Info("QR code scanned successfully")
		c.clearQRCode()
		if c.onQRResult != nil {
			c.onQRResult("success")
		}

	case "timeout":
		c.logger.Warn("QR code timed out without being scanned")
		c.clearQRCode()
		if c.onQRResult != nil {
			c.onQRResult("timeout")
		}

	default:
		c.logger.InfoWithFields("QR channel event", map[string]interface{}{
			"event": evt.Event,
		})
	}
}

func (c *wameowClient) GetQRCode() (code, base64Image string) {
	c.qrMu.RLock()
	defer c.qrMu.RUnlock()
	return c.qrCode, c.qrBase64
}

func (c *wameowClient) clearQRCode() {
	c.qrMu.Lock()
	c.qrCode = ""
	c.qrBase64 = ""
	c.qrMu.Unlock()
}

func (c *wameowClient) stopQRLoop() {
	c.qrMu.RLock()
	active := c.qrLoopOn
	c.qrMu.RUnlock()
	if !active {
		return
	}

	select {
	case c.qrLoopStop <- struct{}{}:
	default:
	}
	time.Sleep(100 * time.Millisecond)
}

func (c *wameowClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopQRLoop()

	if c.client.IsConnected() {
		c.client.Disconnect()
	}

	if c.cancel != nil {
		c.cancel()
	}
}

func (c *wameowClient) IsConnected() bool {
	return c.client.IsConnected()
}

func (c *wameowClient) IsLoggedIn() bool {
	return c.client.IsLoggedIn()
}

func (c *wameowClient) GetJID() waTypes.JID {
	if c.client.Store.ID == nil {
		return waTypes.EmptyJID
	}
	return *c.client.Store.ID
}

// generateQRCodeImage retorna a imagem PNG do código em data URI base64
func generateQRCodeImage(qrText string, log *logger.Logger) string {
	if qrText == "" {
		return ""
	}

	png, err := qrcode.Encode(qrText, qrcode.Medium, 256)
	if err != nil {
		log.ErrorWithFields("Failed to generate QR code image", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

var qrTerminalMu sync.Mutex

func displayQRCodeInTerminal(qrCode string) {
	if qrCode == "" {
		return
	}

	qrTerminalMu.Lock()
	defer qrTerminalMu.Unlock()

	fmt.Println("Scan this QR code with WhatsApp:")
	qrterminal.GenerateHalfBlock(qrCode, qrterminal.L, os.Stdout)
}
