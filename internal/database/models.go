package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun model for the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID              uuid.UUID `bun:"user_id,pk,type:uuid,default:gen_random_uuid()"`
	FirstName       *string   `bun:"first_name"`
	LastName        *string   `bun:"last_name"`
	DisplayName     string    `bun:"display_name,notnull"`
	Email           string    `bun:"email,unique,notnull"`
	Phone           *string   `bun:"phone"`
	Password        string    `bun:"password,notnull"`
	ProfilePhotoURL *string   `bun:"profile_photo_url"`
	EmailVerified   bool      `bun:"email_verified,notnull,default:false"`
	PhoneVerified   bool      `bun:"phone_verified,notnull,default:false"`
	Role            string    `bun:"user_role,notnull,default:'user'"`

	// Email verification workflow. The code is globally unique while present.
	VerificationCode       *string    `bun:"verification_code,unique"`
	EmailVerificationToken *string    `bun:"email_verification_token"`
	VerificationLastSentAt *time.Time `bun:"email_verification_code_last_sent_at"`
	VerificationSentCount  *int       `bun:"email_verification_code_sent_count"`

	// Password reset workflow. The code is globally unique while present.
	PasswordResetToken *string `bun:"password_reset_token"`
	PasswordResetCode  *string `bun:"password_reset_code,unique"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Authorization is the bun model for one logged-in device session.
// Rows are cascade-deleted with the owning user.
type Authorization struct {
	bun.BaseModel `bun:"table:authorizations,alias:a"`

	ID           uuid.UUID  `bun:"authorization_id,pk,type:uuid,default:gen_random_uuid()"`
	UserID       uuid.UUID  `bun:"user_id,notnull,type:uuid"`
	SessionID    uuid.UUID  `bun:"session_id,unique,notnull,type:uuid"`
	RefreshToken string     `bun:"refresh_token,notnull"`
	UserAgent    string     `bun:"user_agent,notnull"`
	LastLoginAt  *time.Time `bun:"last_login_at"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
