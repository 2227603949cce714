package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chat"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

type contactRepository struct {
	db     *sqlx.DB
	logger *logger.Logger
}

func NewContactRepository(db *sqlx.DB, log *logger.Logger) ports.ContactRepository {
	return &contactRepository{
		db:     db,
		logger: log.WithModule("contact-repository"),
	}
}

const contactUpsertQuery = `
	INSERT INTO "onwContacts" (
		id, "sessionId", jid, phone, name, "pushName", "businessName", "createdAt", "updatedAt"
	) VALUES (
		:id, :sessionId, :jid, :phone, :name, :pushName, :businessName, :createdAt, :updatedAt
	)
	ON CONFLICT ("sessionId", jid) DO UPDATE SET
		phone = COALESCE(EXCLUDED.phone, "onwContacts".phone),
		name = COALESCE(EXCLUDED.name, "onwContacts".name),
		"pushName" = COALESCE(EXCLUDED."pushName", "onwContacts"."pushName"),
		"businessName" = COALESCE(EXCLUDED."businessName", "onwContacts"."businessName"),
		"updatedAt" = NOW()
`

func (r *contactRepository) Upsert(ctx context.Context, c *chat.Contact) error {
	if _, err := r.db.NamedExecContext(ctx, contactUpsertQuery, c); err != nil {
		return fmt.Errorf("failed to upsert contact: %w", err)
	}
	return nil
}

// UpsertBatch persists contacts in chunks; a failed chunk does not stop the
// remaining chunks.
func (r *contactRepository) UpsertBatch(ctx context.Context, contacts []*chat.Contact) (int, error) {
	persisted := 0

	for start := 0; start < len(contacts); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(contacts) {
			end = len(contacts)
		}
		chunk := contacts[start:end]

		if err := execChunk(ctx, r.db, contactUpsertQuery, toAnySlice(chunk)); err != nil {
			r.logger.ErrorWithFields("Contact import chunk failed", map[string]interface{}{
				"offset": start,
				"size":   len(chunk),
				"error":  err.Error(),
			})
			continue
		}
		persisted += len(chunk)
	}

	return persisted, nil
}

func (r *contactRepository) GetByJid(ctx context.Context, sessionID uuid.UUID, jid string) (*chat.Contact, error) {
	var c chat.Contact
	query := `SELECT * FROM "onwContacts" WHERE "sessionId" = $1 AND jid = $2`

	err := r.db.GetContext(ctx, &c, query, sessionID, jid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, chat.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &c, nil
}

func (r *contactRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*chat.Contact, error) {
	var contacts []*chat.Contact
	query := `SELECT * FROM "onwContacts" WHERE "sessionId" = $1 ORDER BY name ASC NULLS LAST`

	if err := r.db.SelectContext(ctx, &contacts, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return contacts, nil
}
