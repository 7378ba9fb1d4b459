package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rifayetuxbd/craftshop-api/internal/database"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists authorization (session) rows.
type SessionRepository struct {
	db *bun.DB
}

func NewSessionRepository(db *bun.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert refreshes an existing session in place or inserts a new one. The
// update is guarded by user_id so a session id belonging to another user
// is never overwritten; when it matches nothing a fresh row with a
// server-generated session id is inserted. The insert carries an
// ON CONFLICT clause so two racing logins cannot violate the session_id
// unique constraint.
func (r *SessionRepository) Upsert(ctx context.Context, userID, sessionID uuid.UUID, refreshToken, userAgent string) (uuid.UUID, error) {
	now := time.Now()

	if sessionID != uuid.Nil {
		result, err := r.db.NewUpdate().
			Model((*database.Authorization)(nil)).
			Set("refresh_token = ?", refreshToken).
			Set("user_agent = ?", userAgent).
			Set("last_login_at = ?", now).
			Set("updated_at = ?", now).
			Where("session_id = ?", sessionID).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to update session: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to check rows affected: %w", err)
		}
		if rowsAffected > 0 {
			return sessionID, nil
		}
	}

	row := &database.Authorization{
		UserID:       userID,
		SessionID:    uuid.New(),
		RefreshToken: refreshToken,
		UserAgent:    userAgent,
		LastLoginAt:  &now,
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (session_id) DO UPDATE").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("user_agent = EXCLUDED.user_agent").
		Set("last_login_at = EXCLUDED.last_login_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return row.SessionID, nil
}

// FindForUser resolves a session by (owner email, session id).
func (r *SessionRepository) FindForUser(ctx context.Context, email string, sessionID uuid.UUID) (*Session, error) {
	row := new(database.Authorization)
	err := r.db.NewSelect().
		Model(row).
		Join("JOIN users AS u ON u.user_id = a.user_id").
		Where("u.email = ?", email).
		Where("a.session_id = ?", sessionID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return mapDBAuthorizationToModel(row), nil
}

// Delete removes a session record. Missing rows are treated as success so
// repeated sign-outs stay idempotent.
func (r *SessionRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*database.Authorization)(nil)).
		Where("session_id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func mapDBAuthorizationToModel(row *database.Authorization) *Session {
	return &Session{
		ID:           row.ID,
		UserID:       row.UserID,
		SessionID:    row.SessionID,
		RefreshToken: row.RefreshToken,
		UserAgent:    row.UserAgent,
		LastLoginAt:  row.LastLoginAt,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
