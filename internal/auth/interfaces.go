package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/rifayetuxbd/craftshop-api/internal/user"
)

// UserStore is the credential-store surface the auth flows need. The bun
// repository in internal/user implements it; tests use in-memory fakes.
type UserStore interface {
	Create(ctx context.Context, displayName, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmailAndCode(ctx context.Context, email, code string) (*user.User, error)
	GetByResetCode(ctx context.Context, code string) (*user.User, error)
	SetVerification(ctx context.Context, email, code, token string) error
	MarkEmailVerified(ctx context.Context, email string) error
	SetPasswordReset(ctx context.Context, email, code, token string) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// SessionStore manages session (authorization) records.
type SessionStore interface {
	// Upsert updates the session matching (userID, sessionID) in place, or
	// inserts a fresh record with a server-generated session id. Returns
	// the session id the client should keep.
	Upsert(ctx context.Context, userID, sessionID uuid.UUID, refreshToken, userAgent string) (uuid.UUID, error)

	// FindForUser resolves a session scoped through the user owning email,
	// so a guessed session id never crosses user boundaries.
	FindForUser(ctx context.Context, email string, sessionID uuid.UUID) (*Session, error)

	// Delete removes a session; a missing record is success.
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// EmailSender delivers account emails. Sends are tolerated to fail; the
// flows decide whether a failure is surfaced.
type EmailSender interface {
	SendVerificationCode(ctx context.Context, to, displayName, code, token string) error
	SendPasswordReset(ctx context.Context, to, displayName, code string) error
}
