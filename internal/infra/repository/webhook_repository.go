package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/webhook"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

type webhookRepository struct {
	db     *sqlx.DB
	logger *logger.Logger
}

func NewWebhookRepository(db *sqlx.DB, log *logger.Logger) ports.WebhookRepository {
	return &webhookRepository{
		db:     db,
		logger: log.WithModule("webhook-repository"),
	}
}

type webhookModel struct {
	ID        uuid.UUID      `db:"id"`
	SessionID uuid.UUID      `db:"sessionId"`
	URL       string         `db:"url"`
	Enabled   bool           `db:"enabled"`
	Events    pq.StringArray `db:"events"`
	CreatedAt time.Time      `db:"createdAt"`
	UpdatedAt time.Time      `db:"updatedAt"`
}

func (m *webhookModel) toDomain() *webhook.WebhookConfig {
	return &webhook.WebhookConfig{
		ID:        m.ID,
		SessionID: m.SessionID,
		URL:       m.URL,
		Enabled:   m.Enabled,
		Events:    []string(m.Events),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toWebhookModel(c *webhook.WebhookConfig) *webhookModel {
	return &webhookModel{
		ID:        c.ID,
		SessionID: c.SessionID,
		URL:       c.URL,
		Enabled:   c.Enabled,
		Events:    pq.StringArray(c.Events),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Save cria ou substitui a configuração de webhook da sessão
func (r *webhookRepository) Save(ctx context.Context, config *webhook.WebhookConfig) error {
	query := `
		INSERT INTO "onwWebhooks" (
			id, "sessionId", url, enabled, events, "createdAt", "updatedAt"
		) VALUES (
			:id, :sessionId, :url, :enabled, :events, :createdAt, :updatedAt
		)
		ON CONFLICT ("sessionId") DO UPDATE SET
			url = EXCLUDED.url,
			enabled = EXCLUDED.enabled,
			events = EXCLUDED.events,
			"updatedAt" = NOW()
	`

	if _, err := r.db.NamedExecContext(ctx, query, toWebhookModel(config)); err != nil {
		return fmt.Errorf("failed to save webhook config: %w", err)
	}

	return nil
}

func (r *webhookRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*webhook.WebhookConfig, error) {
	var model webhookModel
	query := `SELECT * FROM "onwWebhooks" WHERE "sessionId" = $1`

	err := r.db.GetContext(ctx, &model, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, webhook.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("failed to get webhook config: %w", err)
	}

	return model.toDomain(), nil
}

func (r *webhookRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM "onwWebhooks" WHERE "sessionId" = $1`

	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete webhook config: %w", err)
	}

	return nil
}
