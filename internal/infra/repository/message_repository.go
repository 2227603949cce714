package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/chat"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

// correlationRetryDelay bounds the single retry of UpdateChatwootFields when
// the message row has not landed yet
const correlationRetryDelay = 500 * time.Millisecond

type messageRepository struct {
	db     *sqlx.DB
	logger *logger.Logger
}

func NewMessageRepository(db *sqlx.DB, log *logger.Logger) ports.MessageRepository {
	return &messageRepository{
		db:     db,
		logger: log.WithModule("message-repository"),
	}
}

const messageUpsertQuery = `
	INSERT INTO "onwMessages" (
		id, "sessionId", "chatJid", "senderJid", "msgId", type, content,
		"mediaType", "fromMe", status, "isDeleted", timestamp,
		"cwConversationId", "cwMessageId", "sourceId", "createdAt", "updatedAt"
	) VALUES (
		:id, :sessionId, :chatJid, :senderJid, :msgId, :type, :content,
		:mediaType, :fromMe, :status, :isDeleted, :timestamp, :cwConversationId,
		:cwMessageId, :sourceId, :createdAt, :updatedAt
	)
	ON CONFLICT ("sessionId", "chatJid", "msgId") DO UPDATE SET
		content = COALESCE(EXCLUDED.content, "onwMessages".content),
		"mediaType" = COALESCE(EXCLUDED."mediaType", "onwMessages"."mediaType"),
		"cwConversationId" = COALESCE(EXCLUDED."cwConversationId", "onwMessages"."cwConversationId"),
		"cwMessageId" = COALESCE(EXCLUDED."cwMessageId", "onwMessages"."cwMessageId"),
		"sourceId" = COALESCE(EXCLUDED."sourceId", "onwMessages"."sourceId"),
		"updatedAt" = NOW()
`

func (r *messageRepository) Upsert(ctx context.Context, m *chat.Message) error {
	if _, err := r.db.NamedExecContext(ctx, messageUpsertQuery, m); err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

// UpsertBatch persists messages in chunks of batchChunkSize, one transaction
// per chunk, continuing past failed chunks.
func (r *messageRepository) UpsertBatch(ctx context.Context, messages []*chat.Message) (int, error) {
	persisted := 0

	for start := 0; start < len(messages); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(messages) {
			end = len(messages)
		}
		chunk := messages[start:end]

		if err := execChunk(ctx, r.db, messageUpsertQuery, toAnySlice(chunk)); err != nil {
			r.logger.ErrorWithFields("Message import chunk failed", map[string]interface{}{
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

func (r *messageRepository) GetByMsgID(ctx context.Context, sessionID uuid.UUID, chatJid, msgID string) (*chat.Message, error) {
	var m chat.Message
	query := `SELECT * FROM "onwMessages" WHERE "sessionId" = $1 AND "chatJid" = $2 AND "msgId" = $3`

	err := r.db.GetContext(ctx, &m, query, sessionID, chatJid, msgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, chat.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &m, nil
}

// ListBySourceID returns every row sharing the correlation source ID.
// Multi-attachment sends produce several rows with the same source ID, so
// deletion propagation needs all of them.
func (r *messageRepository) ListBySourceID(ctx context.Context, sessionID uuid.UUID, sourceID string) ([]*chat.Message, error) {
	var messages []*chat.Message
	query := `SELECT * FROM "onwMessages" WHERE "sessionId" = $1 AND "sourceId" = $2 ORDER BY timestamp ASC`

	if err := r.db.SelectContext(ctx, &messages, query, sessionID, sourceID); err != nil {
		return nil, fmt.Errorf("failed to list messages by source ID: %w", err)
	}

	return messages, nil
}

func (r *messageRepository) GetByCwMessageID(ctx context.Context, sessionID uuid.UUID, cwMessageID int) (*chat.Message, error) {
	var m chat.Message
	query := `SELECT * FROM "onwMessages" WHERE "sessionId" = $1 AND "cwMessageId" = $2 LIMIT 1`

	err := r.db.GetContext(ctx, &m, query, sessionID, cwMessageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, chat.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message by chatwoot ID: %w", err)
	}

	return &m, nil
}

// UpdateStatus moves the message up the delivery ladder. The row is locked
// while the ladder check runs so a late receipt racing a newer one cannot
// move the status backwards.
func (r *messageRepository) UpdateStatus(ctx context.Context, sessionID uuid.UUID, chatJid, msgID, status string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin status update: %w", err)
	}
	defer tx.Rollback()

	var current string
	query := `SELECT status FROM "onwMessages" WHERE "sessionId" = $1 AND "chatJid" = $2 AND "msgId" = $3 FOR UPDATE`
	if err := tx.GetContext(ctx, &current, query, sessionID, chatJid, msgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chat.ErrMessageNotFound
		}
		return fmt.Errorf("failed to load message status: %w", err)
	}

	if !chat.StatusAdvances(current, status) {
		return nil
	}

	update := `UPDATE "onwMessages" SET status = $4, "updatedAt" = NOW() WHERE "sessionId" = $1 AND "chatJid" = $2 AND "msgId" = $3`
	if _, err := tx.ExecContext(ctx, update, sessionID, chatJid, msgID, status); err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}

	return tx.Commit()
}

// UpdateChatwootFields patches the correlation columns after the bridge has
// delivered the message. The WhatsApp event side may not have persisted the
// row yet, so a zero-row update is retried exactly once after a short delay.
func (r *messageRepository) UpdateChatwootFields(ctx context.Context, sessionID uuid.UUID, msgID string, cwConversationID, cwMessageID int, sourceID string) error {
	query := `
		UPDATE "onwMessages" SET
			"cwConversationId" = $3,
			"cwMessageId" = $4,
			"sourceId" = $5,
			"updatedAt" = NOW()
		WHERE "sessionId" = $1 AND "msgId" = $2
	`

	exec := func() (int64, error) {
		result, err := r.db.ExecContext(ctx, query, sessionID, msgID, cwConversationID, cwMessageID, sourceID)
		if err != nil {
			return 0, err
		}
		return result.RowsAffected()
	}

	rows, err := exec()
	if err != nil {
		return fmt.Errorf("failed to update chatwoot fields: %w", err)
	}
	if rows > 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(correlationRetryDelay):
	}

	rows, err = exec()
	if err != nil {
		return fmt.Errorf("failed to update chatwoot fields on retry: %w", err)
	}
	if rows == 0 {
		r.logger.WarnWithFields("Message row missing for chatwoot correlation", map[string]interface{}{
			"session_id": sessionID.String(),
			"msg_id":     msgID,
		})
		return chat.ErrMessageNotFound
	}

	return nil
}

// MarkDeleted flags a revoked or deleted message while keeping the row for
// correlation history
func (r *messageRepository) MarkDeleted(ctx context.Context, sessionID uuid.UUID, chatJid, msgID string) error {
	query := `
		UPDATE "onwMessages" SET "isDeleted" = TRUE, "updatedAt" = NOW()
		WHERE "sessionId" = $1 AND "chatJid" = $2 AND "msgId" = $3
	`

	if _, err := r.db.ExecContext(ctx, query, sessionID, chatJid, msgID); err != nil {
		return fmt.Errorf("failed to mark message deleted: %w", err)
	}

	return nil
}

func (r *messageRepository) Delete(ctx context.Context, sessionID uuid.UUID, chatJid, msgID string) error {
	query := `DELETE FROM "onwMessages" WHERE "sessionId" = $1 AND "chatJid" = $2 AND "msgId" = $3`

	if _, err := r.db.ExecContext(ctx, query, sessionID, chatJid, msgID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}
