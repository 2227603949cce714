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

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chatwoot"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

type chatwootRepository struct {
	db     *sqlx.DB
	logger *logger.Logger
}

func NewChatwootRepository(db *sqlx.DB, log *logger.Logger) ports.ChatwootRepository {
	return &chatwootRepository{
		db:     db,
		logger: log.WithModule("chatwoot-repository"),
	}
}

type chatwootConfigModel struct {
	ID             uuid.UUID      `db:"id"`
	SessionID      uuid.UUID      `db:"sessionId"`
	URL            string         `db:"url"`
	Token          string         `db:"token"`
	AccountID      string         `db:"accountId"`
	InboxID        sql.NullString `db:"inboxId"`
	Enabled        bool           `db:"enabled"`
	InboxName      sql.NullString `db:"inboxName"`
	AutoCreate     bool           `db:"autoCreate"`
	SignMsg        bool           `db:"signMsg"`
	SignDelimiter  string         `db:"signDelimiter"`
	ReopenConv     bool           `db:"reopenConv"`
	ConvPending    bool           `db:"convPending"`
	ImportContacts bool           `db:"importContacts"`
	ImportMessages bool           `db:"importMessages"`
	ImportDays     int            `db:"importDays"`
	MergeBrazil    bool           `db:"mergeBrazil"`
	Organization   sql.NullString `db:"organization"`
	Logo           sql.NullString `db:"logo"`
	Number         sql.NullString `db:"number"`
	IgnoreJids     pq.StringArray `db:"ignoreJids"`
	CreatedAt      time.Time      `db:"createdAt"`
	UpdatedAt      time.Time      `db:"updatedAt"`
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toChatwootModel(c *chatwoot.ChatwootConfig) *chatwootConfigModel {
	return &chatwootConfigModel{
		ID:             c.ID,
		SessionID:      c.SessionID,
		URL:            c.URL,
		Token:          c.Token,
		AccountID:      c.AccountID,
		InboxID:        nullableString(c.InboxID),
		Enabled:        c.Enabled,
		InboxName:      nullableString(c.InboxName),
		AutoCreate:     c.AutoCreate,
		SignMsg:        c.SignMsg,
		SignDelimiter:  c.SignDelimiter,
		ReopenConv:     c.ReopenConv,
		ConvPending:    c.ConvPending,
		ImportContacts: c.ImportContacts,
		ImportMessages: c.ImportMessages,
		ImportDays:     c.ImportDays,
		MergeBrazil:    c.MergeBrazil,
		Organization:   nullableString(c.Organization),
		Logo:           nullableString(c.Logo),
		Number:         nullableString(c.Number),
		IgnoreJids:     pq.StringArray(c.IgnoreJids),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (m *chatwootConfigModel) toDomain() *chatwoot.ChatwootConfig {
	return &chatwoot.ChatwootConfig{
		ID:             m.ID,
		SessionID:      m.SessionID,
		URL:            m.URL,
		Token:          m.Token,
		AccountID:      m.AccountID,
		InboxID:        stringPtr(m.InboxID),
		Enabled:        m.Enabled,
		InboxName:      stringPtr(m.InboxName),
		AutoCreate:     m.AutoCreate,
		SignMsg:        m.SignMsg,
		SignDelimiter:  m.SignDelimiter,
		ReopenConv:     m.ReopenConv,
		ConvPending:    m.ConvPending,
		ImportContacts: m.ImportContacts,
		ImportMessages: m.ImportMessages,
		ImportDays:     m.ImportDays,
		MergeBrazil:    m.MergeBrazil,
		Organization:   stringPtr(m.Organization),
		Logo:           stringPtr(m.Logo),
		Number:         stringPtr(m.Number),
		IgnoreJids:     []string(m.IgnoreJids),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// Save cria ou substitui a configuração do Chatwoot da sessão
func (r *chatwootRepository) Save(ctx context.Context, config *chatwoot.ChatwootConfig) error {
	query := `
		INSERT INTO "onwChatwoot" (
			id, "sessionId", url, token, "accountId", "inboxId", enabled,
			"inboxName", "autoCreate", "signMsg", "signDelimiter", "reopenConv",
			"convPending", "importContacts", "importMessages", "importDays",
			"mergeBrazil", organization, logo, number, "ignoreJids",
			"createdAt", "updatedAt"
		) VALUES (
			:id, :sessionId, :url, :token, :accountId, :inboxId, :enabled,
			:inboxName, :autoCreate, :signMsg, :signDelimiter, :reopenConv,
			:convPending, :importContacts, :importMessages, :importDays,
			:mergeBrazil, :organization, :logo, :number, :ignoreJids,
			:createdAt, :updatedAt
		)
		ON CONFLICT ("sessionId") DO UPDATE SET
			url = EXCLUDED.url,
			token = EXCLUDED.token,
			"accountId" = EXCLUDED."accountId",
			"inboxId" = EXCLUDED."inboxId",
			enabled = EXCLUDED.enabled,
			"inboxName" = EXCLUDED."inboxName",
			"autoCreate" = EXCLUDED."autoCreate",
			"signMsg" = EXCLUDED."signMsg",
			"signDelimiter" = EXCLUDED."signDelimiter",
			"reopenConv" = EXCLUDED."reopenConv",
			"convPending" = EXCLUDED."convPending",
			"importContacts" = EXCLUDED."importContacts",
			"importMessages" = EXCLUDED."importMessages",
			"importDays" = EXCLUDED."importDays",
			"mergeBrazil" = EXCLUDED."mergeBrazil",
			organization = EXCLUDED.organization,
			logo = EXCLUDED.logo,
			number = EXCLUDED.number,
			"ignoreJids" = EXCLUDED."ignoreJids",
			"updatedAt" = NOW()
	`

	if _, err := r.db.NamedExecContext(ctx, query, toChatwootModel(config)); err != nil {
		return fmt.Errorf("failed to save chatwoot config: %w", err)
	}

	return nil
}

func (r *chatwootRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*chatwoot.ChatwootConfig, error) {
	var model chatwootConfigModel
	query := `SELECT * FROM "onwChatwoot" WHERE "sessionId" = $1`

	err := r.db.GetContext(ctx, &model, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, chatwoot.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get chatwoot config: %w", err)
	}

	return model.toDomain(), nil
}

func (r *chatwootRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM "onwChatwoot" WHERE "sessionId" = $1`

	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete chatwoot config: %w", err)
	}

	return nil
}
