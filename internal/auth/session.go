package auth

import (
	"time"

	"github.com/google/uuid"
)

// Session is one logged-in device for a user. The session id is the opaque
// correlation key handed to the client; the refresh token stays
// server-side on this record.
type Session struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	SessionID    uuid.UUID
	RefreshToken string
	UserAgent    string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
