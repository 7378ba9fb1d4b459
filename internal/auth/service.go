package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rifayetuxbd/craftshop-api/internal/apperror"
	"github.com/rifayetuxbd/craftshop-api/internal/logging"
	"github.com/rifayetuxbd/craftshop-api/internal/user"
)

const (
	verificationCodeLength = 6
	resetCodeLength        = 20

	// retries when a freshly generated code collides with the unique
	// constraint on its column
	codeInsertAttempts = 3
)

// Profile is the signed-in account view returned by login and
// verify-token.
type Profile struct {
	UserID          uuid.UUID `json:"userId"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	DisplayName     string    `json:"displayName"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone"`
	ProfilePhotoURL *string   `json:"profilePhotoUrl"`
	EmailVerified   bool      `json:"emailVerified"`
	PhoneVerified   bool      `json:"phoneVerified"`
	Role            string    `json:"role"`
	SessionID       uuid.UUID `json:"sessionId"`
	AccessToken     string    `json:"accessToken"`
	RefreshToken    string    `json:"refreshToken"`
}

// Service implements the account flows on top of the credential store,
// session store, token service and email sender.
type Service struct {
	users    UserStore
	sessions SessionStore
	tokens   *TokenService
	email    EmailSender
	logger   *logging.Logger
}

func NewService(users UserStore, sessions SessionStore, tokens *TokenService, email EmailSender, logger *logging.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		email:    email,
		logger:   logger,
	}
}

// Register creates an unverified account and kicks off the verification
// email in the background. The response never waits on SMTP.
func (s *Service) Register(ctx context.Context, displayName, email, password string) (*user.User, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	u, err := s.users.Create(ctx, displayName, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, apperror.Conflict("Email is already in use", "auth/email-not-available")
		}
		return nil, apperror.Internal(err)
	}

	go func() {
		ctx := context.Background()
		if err := s.sendVerificationCode(ctx, u.Email, u.DisplayName); err != nil {
			s.logger.Warn("failed to send verification email", "email", u.Email, "error", err)
		}
	}()

	return u, nil
}

// Login checks credentials and upserts the device session. Unknown email
// and wrong password produce the same response so accounts cannot be
// enumerated.
func (s *Service) Login(ctx context.Context, email, password, userAgent string, sessionID uuid.UUID) (*Profile, error) {
	if userAgent == "" {
		return nil, apperror.Forbidden("Invalid or no browser detected", "auth/not-browser")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, apperror.Forbidden("Invalid email or password", "auth/invalid-user")
		}
		return nil, apperror.Internal(err)
	}

	if !CheckPasswordHash(password, u.Password) {
		return nil, apperror.Forbidden("Invalid email or password", "auth/invalid-user")
	}

	if !u.EmailVerified {
		return nil, apperror.Forbidden("User email is not verified", "auth/email-not-verified")
	}

	claims := TokenClaims{Email: u.Email, DisplayName: u.DisplayName}
	accessToken, err := s.tokens.Issue(TokenAccess, claims)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	refreshToken, err := s.tokens.Issue(TokenRefresh, claims)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	newSessionID, err := s.sessions.Upsert(ctx, u.ID, sessionID, refreshToken, userAgent)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	profile := profileFromUser(u)
	profile.SessionID = newSessionID
	profile.AccessToken = accessToken
	profile.RefreshToken = refreshToken
	return profile, nil
}

// VerifyEmail marks an account verified when (email, code) match a pending
// verification and its stored token is still live.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	u, err := s.users.GetByEmailAndCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperror.BadRequest("Invalid email or verification code", "auth/invalid-input")
		}
		return apperror.Internal(err)
	}

	if u.EmailVerified {
		return apperror.BadRequest("Email is already verified", "auth/email-verified")
	}

	if u.EmailVerificationToken == nil {
		return apperror.Forbidden("Token not found", "auth/token-missing")
	}

	claims, err := s.tokens.Verify(TokenEmailVerification, *u.EmailVerificationToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return apperror.Forbidden("Token expired. Try resending email verification code again", "auth/resend-email-verification")
		}
		return apperror.Forbidden("Invalid token. Try resending the verification email", "auth/resend-email-verification")
	}
	if claims.Email != email || claims.Code != code {
		return apperror.Forbidden("Invalid token. Try resending the verification email", "auth/resend-email-verification")
	}

	if err := s.users.MarkEmailVerified(ctx, email); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// ResendVerification rotates the verification code and sends it again,
// subject to the escalating cooldown policy.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperror.BadRequest("Invalid email address", "auth/invalid-email")
		}
		return apperror.Internal(err)
	}

	if u.EmailVerified {
		return apperror.BadRequest("Email is already verified", "auth/email-verified")
	}

	sentCount := 0
	if u.VerificationSentCount != nil {
		sentCount = *u.VerificationSentCount
	}
	decision := NextResendDelay(sentCount, u.VerificationLastSentAt, time.Now())
	if !decision.Allowed {
		message := fmt.Sprintf("%sYou can resend email again after %s", decision.Warning, FormatDurationLong(decision.Wait))
		return apperror.BadRequest(message, "auth/resend-failed")
	}

	if err := s.sendVerificationCode(ctx, u.Email, u.DisplayName); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// ForgotPassword issues a reset code and emails it to the account holder.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperror.BadRequest("Email address not found", "auth/email-not-found")
		}
		return apperror.Internal(err)
	}

	var code string
	for attempt := 0; ; attempt++ {
		var err error
		code, err = generateRandomString(resetCodeLength, false)
		if err != nil {
			return apperror.Internal(err)
		}

		token, err := s.tokens.Issue(TokenPasswordReset, TokenClaims{Email: u.Email, Code: code})
		if err != nil {
			return apperror.Internal(err)
		}

		err = s.users.SetPasswordReset(ctx, u.Email, code, token)
		if err == nil {
			break
		}
		if !errors.Is(err, user.ErrDuplicateCode) || attempt >= codeInsertAttempts-1 {
			return apperror.Internal(err)
		}
	}

	if err := s.email.SendPasswordReset(ctx, u.Email, u.DisplayName, code); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// ResetPassword sets a new password for the account behind the reset code
// and invalidates the caller's current session.
func (s *Service) ResetPassword(ctx context.Context, code, password string, sessionID uuid.UUID) error {
	u, err := s.users.GetByResetCode(ctx, code)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperror.Forbidden("Invalid code", "auth/invalid-code")
		}
		return apperror.Internal(err)
	}

	if u.PasswordResetToken == nil {
		return apperror.Forbidden("Token not found", "auth/reset-token-missing")
	}

	claims, err := s.tokens.Verify(TokenPasswordReset, *u.PasswordResetToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return apperror.Forbidden("Token expired. Request password reset again", "auth/reset-password")
		}
		return apperror.Forbidden("Invalid token. Request password reset again", "auth/reset-password")
	}
	if claims.Code != code {
		return apperror.Forbidden("Invalid token. Request password reset again", "auth/reset-password")
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return apperror.Internal(err)
	}

	if err := s.users.ResetPassword(ctx, u.ID, passwordHash); err != nil {
		return apperror.Internal(err)
	}

	if sessionID != uuid.Nil {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("failed to delete session after password reset", "sessionId", sessionID, "error", err)
		}
	}
	return nil
}

// SignOut deletes one device session. The session must belong to the
// given user.
func (s *Service) SignOut(ctx context.Context, userID, sessionID uuid.UUID) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperror.Forbidden("Invalid user id", "auth/invalid-user-id")
		}
		return apperror.Internal(err)
	}

	sess, err := s.sessions.FindForUser(ctx, u.Email, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return apperror.Forbidden("Invalid session id", "auth/invalid-session-id")
		}
		return apperror.Internal(err)
	}

	if err := s.sessions.Delete(ctx, sess.SessionID); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// VerifyToken rebuilds the signed-in profile for a caller holding a valid
// access token and a live session. Used by front-end route guards.
func (s *Service) VerifyToken(ctx context.Context, claims *TokenClaims, accessToken string, sessionID uuid.UUID) (*Profile, error) {
	u, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, apperror.Forbidden("Invalid token", "auth/invalid-token")
		}
		return nil, apperror.Internal(err)
	}

	if !u.EmailVerified {
		return nil, apperror.Forbidden("User email is not verified", "auth/email-not-verified")
	}

	sess, err := s.sessions.FindForUser(ctx, u.Email, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperror.Forbidden("Invalid token", "auth/invalid-token")
		}
		return nil, apperror.Internal(err)
	}

	profile := profileFromUser(u)
	profile.SessionID = sess.SessionID
	profile.AccessToken = accessToken
	profile.RefreshToken = sess.RefreshToken
	return profile, nil
}

// sendVerificationCode rotates the stored verification code and token,
// then emails them. Email delivery failures are logged, not returned, so
// the stored state always reflects the latest send attempt.
func (s *Service) sendVerificationCode(ctx context.Context, email, displayName string) error {
	var code, token string
	for attempt := 0; ; attempt++ {
		var err error
		code, err = generateRandomString(verificationCodeLength, true)
		if err != nil {
			return err
		}

		token, err = s.tokens.Issue(TokenEmailVerification, TokenClaims{Email: email, Code: code})
		if err != nil {
			return err
		}

		err = s.users.SetVerification(ctx, email, code, token)
		if err == nil {
			break
		}
		if !errors.Is(err, user.ErrDuplicateCode) || attempt >= codeInsertAttempts-1 {
			return err
		}
	}

	if err := s.email.SendVerificationCode(ctx, email, displayName, code, token); err != nil {
		s.logger.Warn("failed to deliver verification email", "email", email, "error", err)
	}
	return nil
}

func profileFromUser(u *user.User) *Profile {
	return &Profile{
		UserID:          u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		DisplayName:     u.DisplayName,
		Email:           u.Email,
		Phone:           u.Phone,
		ProfilePhotoURL: u.ProfilePhotoURL,
		EmailVerified:   u.EmailVerified,
		PhoneVerified:   u.PhoneVerified,
		Role:            u.Role,
	}
}
