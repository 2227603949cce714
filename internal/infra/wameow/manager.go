package wameow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chat"
	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// Reconnect delays are fixed per disconnect classification.
const (
	reconnectDelayOrdinary = 2 * time.Second
	reconnectDelayRestart  = 10 * time.Second
)

// disconnect classification
type disconnectReason int

const (
	reasonOther disconnectReason = iota
	reasonRestartRequired
	reasonLoggedOut
)

// Manager mantém o registro de clientes whatsmeow, um por sessão, e dirige o
// ciclo de vida de conexão
type Manager struct {
	container   *sqlstore.Container
	sessionRepo ports.SessionRepository
	messageRepo ports.MessageRepository
	chatRepo    ports.ChatRepository
	contactRepo ports.ContactRepository
	logger      *logger.Logger

	webhookSink  WebhookSink
	chatwootSink ChatwootSink

	clientsMu sync.RWMutex
	clients   map[string]*wameowClient
	stopped   map[string]bool

	presenceCache  *TTLCache
	blocklistCache *TTLCache
}

func NewManager(
	container *sqlstore.Container,
	sessionRepo ports.SessionRepository,
	messageRepo ports.MessageRepository,
	chatRepo ports.ChatRepository,
	contactRepo ports.ContactRepository,
	log *logger.Logger,
) *Manager {
	return &Manager{
		container:   container,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		contactRepo: contactRepo,
		logger:      log.WithModule("wameow"),
		clients:     make(map[string]*wameowClient),
		stopped:     make(map[string]bool),

		presenceCache:  NewTTLCache(presenceTTL),
		blocklistCache: NewTTLCache(presenceTTL),
	}
}

// Caches expõe os caches efêmeros para a varredura agendada
func (m *Manager) Caches() []*TTLCache {
	return []*TTLCache{m.presenceCache, m.blocklistCache}
}

// SetWebhookSink liga o despachante de webhooks ao pipeline de eventos
func (m *Manager) SetWebhookSink(sink WebhookSink) {
	m.webhookSink = sink
}

// SetChatwootSink liga a bridge do Chatwoot ao pipeline de eventos
func (m *Manager) SetChatwootSink(sink ChatwootSink) {
	m.chatwootSink = sink
}

func (m *Manager) getClient(sessionID string) *wameowClient {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	return m.clients[sessionID]
}

// CreateSession registra um cliente para a sessão. Apenas um cliente vivo por
// sessão é permitido.
func (m *Manager) CreateSession(ctx context.Context, sessionID string) error {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	if _, exists := m.clients[sessionID]; exists {
		return fmt.Errorf("session %s already has a live client", sessionID)
	}

	deviceJid := ""
	if sess, err := m.loadSession(ctx, sessionID); err == nil && sess.DeviceJid != nil {
		deviceJid = *sess.DeviceJid
	}

	client, err := newWameowClient(sessionID, deviceJid, m.container, m.logger)
	if err != nil {
		return fmt.Errorf("failed to create client for session %s: %w", sessionID, err)
	}

	handler := newEventHandler(m, sessionID)
	client.client.AddEventHandler(func(evt interface{}) {
		handler.HandleEvent(evt)
	})
	client.onQR = func(code, base64Image string, expiresAt time.Time) {
		m.handleQRCode(sessionID, code, base64Image, expiresAt)
	}
	client.onQRResult = func(event string) {
		if event == "timeout" {
			m.persistStatus(sessionID, session.StatusDisconnected)
		}
	}

	m.clients[sessionID] = client
	delete(m.stopped, sessionID)

	return nil
}

func (m *Manager) ConnectSession(ctx context.Context, sessionID string) error {
	client := m.getClient(sessionID)
	if client == nil {
		if err := m.CreateSession(ctx, sessionID); err != nil {
			return err
		}
		client = m.getClient(sessionID)
	}

	m.clientsMu.Lock()
	delete(m.stopped, sessionID)
	m.clientsMu.Unlock()

	m.persistStatus(sessionID, session.StatusConnecting)

	if err := client.Connect(); err != nil {
		m.persistConnectionError(sessionID, err.Error())
		return fmt.Errorf("failed to connect session %s: %w", sessionID, err)
	}

	return nil
}

// DisconnectSession derruba a conexão sem desvincular o dispositivo
func (m *Manager) DisconnectSession(sessionID string) error {
	client := m.getClient(sessionID)
	if client == nil {
		return session.ErrSessionNotFound
	}

	m.clientsMu.Lock()
	m.stopped[sessionID] = true
	m.clientsMu.Unlock()

	client.Disconnect()
	m.persistStatus(sessionID, session.StatusDisconnected)

	m.clientsMu.Lock()
	delete(m.clients, sessionID)
	m.clientsMu.Unlock()

	return nil
}

// LogoutSession desvincula o dispositivo remoto. Falhas consecutivas são
// contadas; ao atingir o teto a limpeza é feita apenas localmente.
func (m *Manager) LogoutSession(ctx context.Context, sessionID string) error {
	client := m.getClient(sessionID)
	if client == nil {
		return session.ErrSessionNotFound
	}

	sess, err := m.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}

	m.clientsMu.Lock()
	m.stopped[sessionID] = true
	m.clientsMu.Unlock()

	if err := client.client.Logout(ctx); err != nil {
		sess.LogoutAttempts++
		if sess.LogoutAttempts < session.MaxLogoutAttempts {
			m.clientsMu.Lock()
			delete(m.stopped, sessionID)
			m.clientsMu.Unlock()

			if updateErr := m.sessionRepo.Update(ctx, sess); updateErr != nil {
				m.logger.ErrorWithFields("Failed to persist logout attempt count", map[string]interface{}{
					"session_id": sessionID,
					"error":      updateErr.Error(),
				})
			}
			return fmt.Errorf("logout failed (attempt %d of %d): %w",
				sess.LogoutAttempts, session.MaxLogoutAttempts, err)
		}

		m.logger.WarnWithFields("Logout attempt ceiling reached, purging local credentials", map[string]interface{}{
			"session_id": sessionID,
			"attempts":   sess.LogoutAttempts,
		})
		m.purgeCredentials(ctx, client)
	}

	client.Disconnect()

	sess.SetLoggedOut()
	sess.LogoutAttempts = 0
	if err := m.sessionRepo.Update(ctx, sess); err != nil {
		m.logger.ErrorWithFields("Failed to persist logged out session", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}

	m.clientsMu.Lock()
	delete(m.clients, sessionID)
	m.clientsMu.Unlock()

	return nil
}

// DeleteSession remove o cliente e as credenciais locais da sessão
func (m *Manager) DeleteSession(ctx context.Context, sessionID string) error {
	client := m.getClient(sessionID)
	if client == nil {
		return nil
	}

	m.clientsMu.Lock()
	m.stopped[sessionID] = true
	m.clientsMu.Unlock()

	client.Disconnect()
	m.purgeCredentials(ctx, client)

	m.clientsMu.Lock()
	delete(m.clients, sessionID)
	delete(m.stopped, sessionID)
	m.clientsMu.Unlock()

	return nil
}

func (m *Manager) purgeCredentials(ctx context.Context, client *wameowClient) {
	if client.client.Store.ID == nil {
		return
	}
	if err := client.client.Store.Delete(ctx); err != nil {
		m.logger.ErrorWithFields("Failed to delete device credentials", map[string]interface{}{
			"session_id": client.sessionID,
			"error":      err.Error(),
		})
	}
}

func (m *Manager) GetQRCode(sessionID string) (*session.QRCodeResponse, error) {
	client := m.getClient(sessionID)
	if client == nil {
		return nil, session.ErrSessionNotFound
	}

	code, base64Image := client.GetQRCode()
	if code == "" {
		return nil, fmt.Errorf("no QR code available for session %s", sessionID)
	}

	return &session.QRCodeResponse{
		QRCode:      code,
		QRCodeImage: base64Image,
		ExpiresAt:   time.Now().Add(qrCodeValidity),
		TimeoutSecs: int(qrCodeValidity.Seconds()),
	}, nil
}

func (m *Manager) IsConnected(sessionID string) bool {
	client := m.getClient(sessionID)
	return client != nil && client.IsConnected()
}

// ConnectOnStartup reconecta toda sessão que estava conectada quando o
// processo parou
func (m *Manager) ConnectOnStartup(ctx context.Context) error {
	sessions, err := m.sessionRepo.ListByStatus(ctx, session.StatusConnected)
	if err != nil {
		return fmt.Errorf("failed to list previously connected sessions: %w", err)
	}

	if len(sessions) == 0 {
		return nil
	}

	m.logger.InfoWithFields("Reconnecting previously connected sessions", map[string]interface{}{
		"count": len(sessions),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, sess := range sessions {
		id := sess.ID.String()
		g.Go(func() error {
			if err := m.ConnectSession(gctx, id); err != nil {
				m.logger.ErrorWithFields("Startup reconnect failed", map[string]interface{}{
					"session_id": id,
					"error":      err.Error(),
				})
			}
			return nil
		})
	}

	return g.Wait()
}

// Shutdown desconecta todos os clientes sem alterar o status persistido,
// para que as sessões voltem a conectar no próximo boot
func (m *Manager) Shutdown() {
	m.clientsMu.Lock()
	clients := make([]*wameowClient, 0, len(m.clients))
	for id, client := range m.clients {
		m.stopped[id] = true
		clients = append(clients, client)
	}
	m.clients = make(map[string]*wameowClient)
	m.clientsMu.Unlock()

	for _, client := range clients {
		client.Disconnect()
	}
}

// ===== ENVIO =====

func (m *Manager) SendText(ctx context.Context, sessionID, to, body string) (*ports.SendResult, error) {
	client := m.getClient(sessionID)
	if client == nil || !client.IsLoggedIn() {
		return nil, session.ErrSessionNotConnected
	}

	jid, err := ParseJID(to)
	if err != nil {
		return nil, fmt.Errorf("invalid JID: %w", err)
	}

	msg := &waE2E.Message{Conversation: proto.String(body)}

	resp, err := client.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send text message: %w", err)
	}

	m.persistOutgoingMessage(sessionID, jid.String(), client.GetJID().String(), resp.ID, "text", body, nil, resp.Timestamp)

	return &ports.SendResult{MessageID: resp.ID, Timestamp: resp.Timestamp.Unix()}, nil
}

func (m *Manager) SendMedia(ctx context.Context, sessionID, to string, media []byte, mimeType, caption, filename string) (*ports.SendResult, error) {
	client := m.getClient(sessionID)
	if client == nil || !client.IsLoggedIn() {
		return nil, session.ErrSessionNotConnected
	}

	jid, err := ParseJID(to)
	if err != nil {
		return nil, fmt.Errorf("invalid JID: %w", err)
	}

	mediaKind, uploadType := mediaTypeFromMime(mimeType)

	uploaded, err := client.client.Upload(ctx, media, uploadType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	msg := buildMediaMessage(mediaKind, uploaded, mimeType, caption, filename, uint64(len(media)))

	resp, err := client.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to send media message: %w", err)
	}

	m.persistOutgoingMessage(sessionID, jid.String(), client.GetJID().String(), resp.ID, mediaKind, caption, &mimeType, resp.Timestamp)

	return &ports.SendResult{MessageID: resp.ID, Timestamp: resp.Timestamp.Unix()}, nil
}

// RevokeMessage apaga para todos uma mensagem enviada pela sessão
func (m *Manager) RevokeMessage(ctx context.Context, sessionID, to, messageID string) error {
	client := m.getClient(sessionID)
	if client == nil || !client.IsLoggedIn() {
		return session.ErrSessionNotConnected
	}

	jid, err := ParseJID(to)
	if err != nil {
		return fmt.Errorf("invalid JID: %w", err)
	}

	_, err = client.client.SendMessage(ctx, jid, client.client.BuildRevoke(jid, waTypes.EmptyJID, messageID))
	if err != nil {
		return fmt.Errorf("failed to revoke message: %w", err)
	}

	return nil
}

// IsOnWhatsApp valida números e devolve o JID registrado de cada um; números
// fora do WhatsApp mapeiam para string vazia
func (m *Manager) IsOnWhatsApp(ctx context.Context, sessionID string, phones []string) (map[string]string, error) {
	client := m.getClient(sessionID)
	if client == nil || !client.IsLoggedIn() {
		return nil, session.ErrSessionNotConnected
	}

	results, err := client.client.IsOnWhatsApp(phones)
	if err != nil {
		return nil, fmt.Errorf("failed to check numbers on whatsapp: %w", err)
	}

	out := make(map[string]string, len(results))
	for _, result := range results {
		if result.IsIn {
			out[result.Query] = result.JID.String()
		} else {
			out[result.Query] = ""
		}
	}

	return out, nil
}

// DownloadMedia baixa o conteúdo de mídia da mensagem
func (m *Manager) DownloadMedia(ctx context.Context, sessionID string, msg *waE2E.Message) ([]byte, string, error) {
	client := m.getClient(sessionID)
	if client == nil {
		return nil, "", session.ErrSessionNotFound
	}

	downloadable, mimeType := downloadablePart(msg)
	if downloadable == nil {
		return nil, "", fmt.Errorf("message has no downloadable media")
	}

	data, err := client.client.Download(ctx, downloadable)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download media: %w", err)
	}

	return data, mimeType, nil
}

func downloadablePart(msg *waE2E.Message) (whatsmeow.DownloadableMessage, string) {
	switch {
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage(), msg.GetImageMessage().GetMimetype()
	case msg.GetAudioMessage() != nil:
		return msg.GetAudioMessage(), msg.GetAudioMessage().GetMimetype()
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage(), msg.GetVideoMessage().GetMimetype()
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage(), msg.GetDocumentMessage().GetMimetype()
	case msg.GetStickerMessage() != nil:
		return msg.GetStickerMessage(), msg.GetStickerMessage().GetMimetype()
	default:
		return nil, ""
	}
}

func mediaTypeFromMime(mimeType string) (string, whatsmeow.MediaType) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image", whatsmeow.MediaImage
	case strings.HasPrefix(mimeType, "audio/"):
		return "audio", whatsmeow.MediaAudio
	case strings.HasPrefix(mimeType, "video/"):
		return "video", whatsmeow.MediaVideo
	default:
		return "document", whatsmeow.MediaDocument
	}
}

func buildMediaMessage(kind string, uploaded whatsmeow.UploadResponse, mimeType, caption, filename string, fileLength uint64) *waE2E.Message {
	switch kind {
	case "image":
		return &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(caption),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(mimeType),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(fileLength),
		}}
	case "audio":
		return &waE2E.Message{AudioMessage: &waE2E.AudioMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(mimeType),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(fileLength),
		}}
	case "video":
		return &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			Caption:       proto.String(caption),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(mimeType),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(fileLength),
		}}
	default:
		if filename == "" {
			filename = "document"
		}
		doc := &waE2E.DocumentMessage{
			Title:         proto.String(filename),
			FileName:      proto.String(filename),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			Mimetype:      proto.String(mimeType),
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(fileLength),
		}
		if caption != "" {
			doc.Caption = proto.String(caption)
		}
		return &waE2E.Message{DocumentMessage: doc}
	}
}

// ===== TRANSIÇÕES DE ESTADO =====

func (m *Manager) loadSession(ctx context.Context, sessionID string) (*session.Session, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID %s: %w", sessionID, err)
	}
	return m.sessionRepo.GetByID(ctx, id)
}

// persistStatus grava a transição de status em background; falhas viram log
func (m *Manager) persistStatus(sessionID, status string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		id, err := uuid.Parse(sessionID)
		if err != nil {
			return
		}
		if err := m.sessionRepo.UpdateStatus(ctx, id, status); err != nil {
			m.logger.ErrorWithFields("Failed to persist session status", map[string]interface{}{
				"session_id": sessionID,
				"status":     status,
				"error":      err.Error(),
			})
		}
	}()
}

func (m *Manager) persistConnectionError(sessionID, errorMsg string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		sess, err := m.loadSession(ctx, sessionID)
		if err != nil {
			return
		}
		sess.SetConnectionError(errorMsg)
		if err := m.sessionRepo.Update(ctx, sess); err != nil {
			m.logger.ErrorWithFields("Failed to persist connection error", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}()
}

// handleConnected limpa o QR, grava deviceJid e telefone e zera o contador de
// logout
func (m *Manager) handleConnected(sessionID string) {
	client := m.getClient(sessionID)
	if client == nil {
		return
	}

	deviceJid := client.GetJID().String()
	phone := ExtractPhoneFromJID(deviceJid)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		sess, err := m.loadSession(ctx, sessionID)
		if err != nil {
			m.logger.ErrorWithFields("Session row missing on connect", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
			return
		}

		sess.SetConnected(deviceJid, phone)
		if err := m.sessionRepo.Update(ctx, sess); err != nil {
			m.logger.ErrorWithFields("Failed to persist connected session", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}()
}

// handleDisconnect classifica o motivo e agenda a reconexão com o atraso fixo
// da classificação
func (m *Manager) handleDisconnect(sessionID string, reason disconnectReason) {
	switch reason {
	case reasonLoggedOut:
		m.handleRemoteLogout(sessionID)
		return
	case reasonRestartRequired:
		// the stream restart is already scheduled, the session is on its
		// way back up rather than down
		m.persistStatus(sessionID, session.StatusConnecting)
		m.scheduleReconnect(sessionID, reconnectDelayRestart)
	default:
		m.persistStatus(sessionID, session.StatusDisconnected)
		m.scheduleReconnect(sessionID, reconnectDelayOrdinary)
	}
}

// handleRemoteLogout trata o desvinculo feito pelo telefone: credenciais são
// removidas e não há reconexão
func (m *Manager) handleRemoteLogout(sessionID string) {
	client := m.getClient(sessionID)

	m.clientsMu.Lock()
	m.stopped[sessionID] = true
	delete(m.clients, sessionID)
	m.clientsMu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if client != nil {
			client.Disconnect()
			m.purgeCredentials(ctx, client)
		}

		sess, err := m.loadSession(ctx, sessionID)
		if err != nil {
			return
		}
		sess.SetLoggedOut()
		if err := m.sessionRepo.Update(ctx, sess); err != nil {
			m.logger.ErrorWithFields("Failed to persist remote logout", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}()
}

func (m *Manager) scheduleReconnect(sessionID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		m.clientsMu.RLock()
		stopped := m.stopped[sessionID]
		client := m.clients[sessionID]
		m.clientsMu.RUnlock()

		if stopped || client == nil || client.IsConnected() {
			return
		}

		m.logger.InfoWithFields("Reconnecting session", map[string]interface{}{
			"session_id": sessionID,
			"delay":      delay.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.ConnectSession(ctx, sessionID); err != nil {
			m.logger.ErrorWithFields("Reconnect attempt failed", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	})
}

// handleQRCode persiste o código na sessão e repassa à bridge
func (m *Manager) handleQRCode(sessionID, code, base64Image string, expiresAt time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		sess, err := m.loadSession(ctx, sessionID)
		if err != nil {
			return
		}
		sess.SetQRCode(base64Image, expiresAt)
		if err := m.sessionRepo.Update(ctx, sess); err != nil {
			m.logger.ErrorWithFields("Failed to persist QR code", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}()

	if m.chatwootSink != nil {
		m.chatwootSink.ProcessQRCode(sessionID, code)
	}
}

// persistOutgoingMessage grava em background a mensagem enviada pela API
func (m *Manager) persistOutgoingMessage(sessionID, chatJid, senderJid, msgID, msgType, content string, mediaType *string, ts time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		id, err := uuid.Parse(sessionID)
		if err != nil {
			return
		}

		msg := chat.NewMessage(id, chatJid, senderJid, msgID)
		msg.Type = msgType
		msg.FromMe = true
		msg.Status = chat.StatusSent
		msg.Timestamp = ts
		msg.MediaType = mediaType
		if content != "" {
			msg.Content = &content
		}

		if err := m.messageRepo.Upsert(ctx, msg); err != nil {
			m.logger.ErrorWithFields("Failed to persist outgoing message", map[string]interface{}{
				"session_id": sessionID,
				"msg_id":     msgID,
				"error":      err.Error(),
			})
		}
	}()
}

var _ ports.WameowManager = (*Manager)(nil)
