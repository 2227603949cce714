package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/felipyfgs/onwapp-sub000/internal/domain/session"
	"github.com/felipyfgs/onwapp-sub000/internal/ports"
	"github.com/felipyfgs/onwapp-sub000/platform/logger"
)

type sessionRepository struct {
	db     *sqlx.DB
	logger *logger.Logger
}

func NewSessionRepository(db *sqlx.DB, log *logger.Logger) ports.SessionRepository {
	return &sessionRepository{
		db:     db,
		logger: log.WithModule("session-repository"),
	}
}

func (r *sessionRepository) Create(ctx context.Context, sess *session.Session) error {
	query := `
		INSERT INTO "onwSessions" (
			id, name, status, "deviceJid", phone, "qrCode", "qrCodeExpiresAt",
			"connectionError", "logoutAttempts", "proxyUrl", "createdAt",
			"updatedAt", "connectedAt", "lastSeen"
		) VALUES (
			:id, :name, :status, :deviceJid, :phone, :qrCode, :qrCodeExpiresAt,
			:connectionError, :logoutAttempts, :proxyUrl, :createdAt,
			:updatedAt, :connectedAt, :lastSeen
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, sess)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return session.ErrSessionAlreadyExists
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	var sess session.Session
	query := `SELECT * FROM "onwSessions" WHERE id = $1`

	err := r.db.GetContext(ctx, &sess, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session by ID: %w", err)
	}

	return &sess, nil
}

func (r *sessionRepository) GetByName(ctx context.Context, name string) (*session.Session, error) {
	var sess session.Session
	query := `SELECT * FROM "onwSessions" WHERE name = $1`

	err := r.db.GetContext(ctx, &sess, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session by name: %w", err)
	}

	return &sess, nil
}

func (r *sessionRepository) List(ctx context.Context) ([]*session.Session, error) {
	var sessions []*session.Session
	query := `SELECT * FROM "onwSessions" ORDER BY "createdAt" ASC`

	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) ListByStatus(ctx context.Context, status string) ([]*session.Session, error) {
	var sessions []*session.Session
	query := `SELECT * FROM "onwSessions" WHERE status = $1 ORDER BY "createdAt" ASC`

	if err := r.db.SelectContext(ctx, &sessions, query, status); err != nil {
		return nil, fmt.Errorf("failed to list sessions by status: %w", err)
	}

	return sessions, nil
}

func (r *sessionRepository) Update(ctx context.Context, sess *session.Session) error {
	query := `
		UPDATE "onwSessions" SET
			name = :name,
			status = :status,
			"deviceJid" = :deviceJid,
			phone = :phone,
			"qrCode" = :qrCode,
			"qrCodeExpiresAt" = :qrCodeExpiresAt,
			"connectionError" = :connectionError,
			"logoutAttempts" = :logoutAttempts,
			"proxyUrl" = :proxyUrl,
			"updatedAt" = NOW(),
			"connectedAt" = :connectedAt,
			"lastSeen" = :lastSeen
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, sess)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

func (r *sessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE "onwSessions" SET status = $1, "updatedAt" = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM "onwSessions" WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}
