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

// batchChunkSize limits how many rows go into a single import transaction
const batchChunkSize = 50

type chatRepository struct {
	db     *sqlx.DB
	logger *logger.Logger
}

func NewChatRepository(db *sqlx.DB, log *logger.Logger) ports.ChatRepository {
	return &chatRepository{
		db:     db,
		logger: log.WithModule("chat-repository"),
	}
}

const chatUpsertQuery = `
	INSERT INTO "onwChats" (
		id, "sessionId", jid, name, "isGroup", "lastMessageAt", "createdAt", "updatedAt"
	) VALUES (
		:id, :sessionId, :jid, :name, :isGroup, :lastMessageAt, :createdAt, :updatedAt
	)
	ON CONFLICT ("sessionId", jid) DO UPDATE SET
		name = COALESCE(EXCLUDED.name, "onwChats".name),
		"isGroup" = EXCLUDED."isGroup",
		"lastMessageAt" = GREATEST("onwChats"."lastMessageAt", EXCLUDED."lastMessageAt"),
		"updatedAt" = NOW()
`

func (r *chatRepository) Upsert(ctx context.Context, c *chat.Chat) error {
	if _, err := r.db.NamedExecContext(ctx, chatUpsertQuery, c); err != nil {
		return fmt.Errorf("failed to upsert chat: %w", err)
	}
	return nil
}

// UpsertBatch persists chats in chunks, one transaction per chunk. A failed
// chunk is logged and skipped so the remaining chunks still land.
func (r *chatRepository) UpsertBatch(ctx context.Context, chats []*chat.Chat) (int, error) {
	persisted := 0

	for start := 0; start < len(chats); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(chats) {
			end = len(chats)
		}
		chunk := chats[start:end]

		if err := execChunk(ctx, r.db, chatUpsertQuery, toAnySlice(chunk)); err != nil {
			r.logger.ErrorWithFields("Chat import chunk failed", map[string]interface{}{
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

func (r *chatRepository) GetByJid(ctx context.Context, sessionID uuid.UUID, jid string) (*chat.Chat, error) {
	var c chat.Chat
	query := `SELECT * FROM "onwChats" WHERE "sessionId" = $1 AND jid = $2`

	err := r.db.GetContext(ctx, &c, query, sessionID, jid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, chat.ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	return &c, nil
}

func (r *chatRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*chat.Chat, error) {
	var chats []*chat.Chat
	query := `SELECT * FROM "onwChats" WHERE "sessionId" = $1 ORDER BY "lastMessageAt" DESC NULLS LAST`

	if err := r.db.SelectContext(ctx, &chats, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	return chats, nil
}

// execChunk runs a named upsert for every row of the chunk inside one
// transaction
func execChunk(ctx context.Context, db *sqlx.DB, query string, rows []interface{}) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chunk transaction: %w", err)
	}

	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				return fmt.Errorf("chunk rollback failed: %v (after: %w)", rollbackErr, err)
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk: %w", err)
	}
	return nil
}

func toAnySlice[T any](items []T) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
