package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the domain model for an account. Workflow fields (verification,
// password reset) stay server-side and are never serialized.
type User struct {
	ID              uuid.UUID `json:"userId"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	DisplayName     string    `json:"displayName"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone"`
	Password        string    `json:"-"`
	ProfilePhotoURL *string   `json:"profilePhotoUrl"`
	EmailVerified   bool      `json:"emailVerified"`
	PhoneVerified   bool      `json:"phoneVerified"`
	Role            string    `json:"role"`

	VerificationCode       *string    `json:"-"`
	EmailVerificationToken *string    `json:"-"`
	VerificationLastSentAt *time.Time `json:"-"`
	VerificationSentCount  *int       `json:"-"`
	PasswordResetToken     *string    `json:"-"`
	PasswordResetCode      *string    `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
