package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rifayetuxbd/craftshop-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrDuplicateCode  = errors.New("code already in use")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. Email verification and role fields start at
// their defaults (unverified, role "user").
func (r *Repository) Create(ctx context.Context, displayName, email, passwordHash string) (*User, error) {
	dbUser := &database.User{
		DisplayName: displayName,
		Email:       email,
		Password:    passwordHash,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("user_id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmailAndCode retrieves a user by the (email, verification code) pair.
func (r *Repository) GetByEmailAndCode(ctx context.Context, email, code string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Where("verification_code = ?", code).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email and code: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByResetCode retrieves a user by password reset code.
func (r *Repository) GetByResetCode(ctx context.Context, code string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("password_reset_code = ?", code).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset code: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetVerification rotates the verification code and token, bumps the sent
// count and stamps the last-sent time.
func (r *Repository) SetVerification(ctx context.Context, email, code, token string) error {
	now := time.Now()
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("verification_code = ?", code).
		Set("email_verification_token = ?", token).
		Set("email_verification_code_last_sent_at = ?", now).
		Set("email_verification_code_sent_count = COALESCE(email_verification_code_sent_count, 0) + 1").
		Set("updated_at = ?", now).
		Where("email = ?", email).
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to set verification fields: %w", err)
	}

	return requireRows(result)
}

// MarkEmailVerified sets the verified flag and clears every verification
// workflow field.
func (r *Repository) MarkEmailVerified(ctx context.Context, email string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("email_verified = ?", true).
		Set("verification_code = NULL").
		Set("email_verification_token = NULL").
		Set("email_verification_code_last_sent_at = NULL").
		Set("email_verification_code_sent_count = NULL").
		Set("updated_at = ?", time.Now()).
		Where("email = ?", email).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return requireRows(result)
}

// SetPasswordReset stores a fresh reset code and token.
func (r *Repository) SetPasswordReset(ctx context.Context, email, code, token string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_reset_code = ?", code).
		Set("password_reset_token = ?", token).
		Set("updated_at = ?", time.Now()).
		Where("email = ?", email).
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("failed to set password reset fields: %w", err)
	}

	return requireRows(result)
}

// ResetPassword rotates the password hash and clears the reset fields for
// exactly one user.
func (r *Repository) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password = ?", passwordHash).
		Set("password_reset_code = NULL").
		Set("password_reset_token = NULL").
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return requireRows(result)
}

// List returns users ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*User, error) {
	var dbUsers []database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(dbUsers))
	for i := range dbUsers {
		users = append(users, mapDBUserToModel(&dbUsers[i]))
	}
	return users, nil
}

// Delete removes a user. Session rows go with it via the FK cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.User)(nil)).
		Where("user_id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return requireRows(result)
}

// UpdateRole changes a user's role. The caller validates the role value.
func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("user_role = ?", role).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	return requireRows(result)
}

func requireRows(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                     dbu.ID,
		FirstName:              dbu.FirstName,
		LastName:               dbu.LastName,
		DisplayName:            dbu.DisplayName,
		Email:                  dbu.Email,
		Phone:                  dbu.Phone,
		Password:               dbu.Password,
		ProfilePhotoURL:        dbu.ProfilePhotoURL,
		EmailVerified:          dbu.EmailVerified,
		PhoneVerified:          dbu.PhoneVerified,
		Role:                   dbu.Role,
		VerificationCode:       dbu.VerificationCode,
		EmailVerificationToken: dbu.EmailVerificationToken,
		VerificationLastSentAt: dbu.VerificationLastSentAt,
		VerificationSentCount:  dbu.VerificationSentCount,
		PasswordResetToken:     dbu.PasswordResetToken,
		PasswordResetCode:      dbu.PasswordResetCode,
		CreatedAt:              dbu.CreatedAt,
		UpdatedAt:              dbu.UpdatedAt,
	}
}
