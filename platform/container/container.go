package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/robfig/cron/v3"

	"github.com/felipyfgs/onwapp-sub000/internal/infra/http/handlers"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/http/router"
	chatwootintg "github.com/felipyfgs/onwapp-sub000/internal/infra/integrations/chatwoot"
	webhookintg "github.com/felipyfgs/onwapp-sub000/internal/infra/integrations/webhook"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/repository"
	"github.com/felipyfgs/onwapp-sub000/internal/infra/wameow"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/config"
	"github.com/felipyfgs/onwapp-sub000/platform/database"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// Container é o container de Dependency Injection da aplicação
type Container struct {
	config   *config.Config
	logger   *logger.Logger
	database *database.Database

	sessionRepo  ports.SessionRepository
	messageRepo  ports.MessageRepository
	chatRepo     ports.ChatRepository
	contactRepo  ports.ContactRepository
	webhookRepo  ports.WebhookRepository
	chatwootRepo ports.ChatwootRepository

	wameowManager   *wameow.Manager
	dispatcher      *webhookintg.Dispatcher
	chatwootManager *chatwootintg.Manager
	bridge          *chatwootintg.Bridge
	importer        *chatwootintg.Importer
	webhookReceiver *chatwootintg.WebhookHandler

	cacheSweeper *cron.Cron
	handler      http.Handler
}

// Config estrutura de configuração para o container
type Config struct {
	AppConfig *config.Config
	Logger    *logger.Logger
	Database  *database.Database
}

// New cria o container e monta o grafo completo de dependências
func New(cfg *Config) (*Container, error) {
	c := &Container{
		config:   cfg.AppConfig,
		logger:   cfg.Logger,
		database: cfg.Database,
	}

	if err := c.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}

	cfg.Logger.Info("Dependency injection container initialized successfully")
	return c, nil
}

func (c *Container) initialize() error {
	c.logger.Debug("Initializing container...")

	// 1. Repositórios
	c.sessionRepo = repository.NewSessionRepository(c.database.DB, c.logger)
	c.messageRepo = repository.NewMessageRepository(c.database.DB, c.logger)
	c.chatRepo = repository.NewChatRepository(c.database.DB, c.logger)
	c.contactRepo = repository.NewContactRepository(c.database.DB, c.logger)
	c.webhookRepo = repository.NewWebhookRepository(c.database.DB, c.logger)
	c.chatwootRepo = repository.NewChatwootRepository(c.database.DB, c.logger)

	// 2. sqlstore do whatsmeow compartilha o mesmo banco
	waContainer, err := wameow.NewContainer(c.database.DB.DB, c.logger)
	if err != nil {
		return fmt.Errorf("failed to create whatsmeow container: %w", err)
	}

	// 3. Gerenciador de sessões WhatsApp
	c.wameowManager = wameow.NewManager(
		waContainer,
		c.sessionRepo,
		c.messageRepo,
		c.chatRepo,
		c.contactRepo,
		c.logger,
	)

	// 4. Despachante de webhooks
	c.dispatcher = webhookintg.NewDispatcher(c.logger, c.webhookRepo, c.config.Webhook.Workers)

	// 5. Integração Chatwoot
	c.chatwootManager = chatwootintg.NewManager(c.logger, c.chatwootRepo, c.config.Server.Host)
	c.bridge = chatwootintg.NewBridge(
		c.logger,
		c.chatwootManager,
		c.wameowManager,
		c.messageRepo,
		c.chatRepo,
		c.sessionRepo,
		c.config.Chatwoot,
	)
	c.importer = chatwootintg.NewImporter(c.logger, c.database.DB, c.bridge)
	c.bridge.SetImporter(c.importer)
	c.webhookReceiver = chatwootintg.NewWebhookHandler(c.logger, c.bridge)

	// 6. Liga o pipeline de eventos aos consumidores
	c.wameowManager.SetWebhookSink(c.dispatcher)
	c.wameowManager.SetChatwootSink(c.bridge)

	// 7. Camada HTTP
	resolver := handlers.NewSessionResolver(c.logger, c.sessionRepo)
	c.handler = router.New(c.config, c.logger, &router.Handlers{
		Session:  handlers.NewSessionHandler(c.logger, resolver, c.sessionRepo, c.wameowManager, c.chatwootManager),
		Message:  handlers.NewMessageHandler(c.logger, resolver, c.wameowManager),
		Webhook:  handlers.NewWebhookHandler(c.logger, resolver, c.webhookRepo, c.dispatcher),
		Chatwoot: handlers.NewChatwootHandler(c.logger, resolver, c.chatwootManager, c.webhookReceiver, c.importer),
		Health:   handlers.NewHealthHandler(c.logger, c.database),
	})

	c.logger.Debug("Container initialized successfully")
	return nil
}

// Handler retorna o handler HTTP raiz da aplicação
func (c *Container) Handler() http.Handler {
	return c.handler
}

// GetConfig retorna a configuração da aplicação
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger retorna o logger da aplicação
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// GetDatabase retorna a instância do banco de dados
func (c *Container) GetDatabase() *database.Database {
	return c.database
}

// GetWameowManager retorna o gerenciador de sessões WhatsApp
func (c *Container) GetWameowManager() *wameow.Manager {
	return c.wameowManager
}

// Start inicia os componentes de longa duração: workers de webhook,
// scheduler de sincronização, varredura de caches e reconexão das
// sessões persistidas como conectadas
func (c *Container) Start(ctx context.Context) error {
	c.logger.Info("Starting container components...")

	c.dispatcher.Start(ctx)

	if err := c.importer.StartScheduler(); err != nil {
		return fmt.Errorf("failed to start chatwoot sync scheduler: %w", err)
	}

	c.cacheSweeper = wameow.StartCacheSweeper(c.logger, c.wameowManager.Caches()...)

	if err := c.wameowManager.ConnectOnStartup(ctx); err != nil {
		c.logger.ErrorWithFields("Failed to reconnect sessions on startup", map[string]interface{}{
			"error": err.Error(),
		})
	}

	c.logger.Info("Container components started")
	return nil
}

// Stop encerra os componentes na ordem inversa da inicialização
func (c *Container) Stop(ctx context.Context) error {
	c.logger.Info("Stopping container components...")

	c.importer.StopScheduler()

	if c.cacheSweeper != nil {
		sweepCtx := c.cacheSweeper.Stop()
		select {
		case <-sweepCtx.Done():
		case <-ctx.Done():
		}
	}

	c.wameowManager.Shutdown()

	c.logger.Info("Container components stopped")
	return nil
}
