package chatwoot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// Manager implementa ports.ChatwootManager com cache de clientes por sessão.
// O cache é invalidado quando a chave (url, conta, token) muda.
type Manager struct {
	logger     *logger.Logger
	repository ports.ChatwootRepository
	serverHost string

	mu      sync.RWMutex
	clients map[string]*cachedClient
	configs map[string]*chatwoot.ChatwootConfig
}

type cachedClient struct {
	client *Client
	key    string
}

func NewManager(log *logger.Logger, repository ports.ChatwootRepository, serverHost string) *Manager {
	return &Manager{
		logger:     log.WithModule("chatwoot"),
		repository: repository,
		serverHost: serverHost,
		clients:    make(map[string]*cachedClient),
		configs:    make(map[string]*chatwoot.ChatwootConfig),
	}
}

func clientKey(config *chatwoot.ChatwootConfig) string {
	return fmt.Sprintf("%s|%s|%s", config.URL, config.AccountID, config.Token)
}

// GetClient devolve o cliente da sessão, criando e cacheando se preciso
func (m *Manager) GetClient(ctx context.Context, sessionID string) (ports.ChatwootClient, *chatwoot.ChatwootConfig, error) {
	config, err := m.GetConfig(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !config.Enabled || !config.IsConfigured() {
		return nil, nil, fmt.Errorf("chatwoot integration is disabled for session %s", sessionID)
	}

	key := clientKey(config)

	m.mu.RLock()
	cached, exists := m.clients[sessionID]
	m.mu.RUnlock()

	if exists && cached.key == key {
		return cached.client, config, nil
	}

	client := NewClient(config.URL, config.Token, config.AccountID, m.logger)

	m.mu.Lock()
	m.clients[sessionID] = &cachedClient{client: client, key: key}
	m.mu.Unlock()

	return client, config, nil
}

// IsEnabled informa se a bridge está ativa para a sessão; ausência de
// configuração é o caso normal e não gera log de erro
func (m *Manager) IsEnabled(ctx context.Context, sessionID string) bool {
	config, err := m.GetConfig(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, chatwoot.ErrConfigNotFound) {
			m.logger.ErrorWithFields("Failed to check if Chatwoot is enabled", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		return false
	}
	return config.Enabled && config.IsConfigured()
}

// SetConfig grava a configuração e invalida os caches da sessão
func (m *Manager) SetConfig(ctx context.Context, sessionID string, req *chatwoot.SetConfigRequest) (*chatwoot.ChatwootConfig, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	config, err := m.repository.GetBySessionID(ctx, id)
	switch {
	case err == nil:
		config.Update(req)
	case errors.Is(err, chatwoot.ErrConfigNotFound):
		config = chatwoot.NewChatwootConfig(id, req)
	default:
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.AutoCreate && config.Enabled && (config.InboxID == nil || *config.InboxID == "") {
		if err := m.ensureInbox(ctx, sessionID, config); err != nil {
			m.logger.WarnWithFields("Failed to auto-create inbox", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}

	if err := m.repository.Save(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	m.mu.Lock()
	m.configs[sessionID] = config
	delete(m.clients, sessionID)
	m.mu.Unlock()

	return config, nil
}

// ensureInbox resolve o inbox pelo nome configurado, criando no Chatwoot se
// não existir, e grava o ID resolvido na configuração
func (m *Manager) ensureInbox(ctx context.Context, sessionID string, config *chatwoot.ChatwootConfig) error {
	name := "onwapp"
	if config.InboxName != nil && *config.InboxName != "" {
		name = *config.InboxName
	}

	client := NewClient(config.URL, config.Token, config.AccountID, m.logger)

	inboxes, err := client.ListInboxes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list inboxes: %w", err)
	}
	for _, inbox := range inboxes {
		if inbox.Name == name {
			id := strconv.Itoa(inbox.ID)
			config.InboxID = &id
			return nil
		}
	}

	webhookURL := fmt.Sprintf("%s/chatwoot/webhook/%s", strings.TrimSuffix(m.serverHost, "/"), sessionID)
	inbox, err := client.CreateInbox(ctx, name, webhookURL)
	if err != nil {
		return fmt.Errorf("failed to create inbox: %w", err)
	}

	id := strconv.Itoa(inbox.ID)
	config.InboxID = &id
	m.logger.InfoWithFields("Inbox created", map[string]interface{}{
		"session_id": sessionID,
		"inbox_id":   id,
		"inbox_name": name,
	})
	return nil
}

func (m *Manager) GetConfig(ctx context.Context, sessionID string) (*chatwoot.ChatwootConfig, error) {
	m.mu.RLock()
	config, exists := m.configs[sessionID]
	m.mu.RUnlock()

	if exists {
		return config, nil
	}

	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	config, err = m.repository.GetBySessionID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.configs[sessionID] = config
	m.mu.Unlock()

	return config, nil
}

// Cleanup descarta o cliente e a configuração cacheados da sessão
func (m *Manager) Cleanup(sessionID string) {
	m.mu.Lock()
	delete(m.clients, sessionID)
	delete(m.configs, sessionID)
	m.mu.Unlock()
}

var _ ports.ChatwootManager = (*Manager)(nil)
