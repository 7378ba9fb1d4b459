package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rifayetuxbd/craftshop-api/internal/apperror"
	"github.com/rifayetuxbd/craftshop-api/internal/config"
	"github.com/rifayetuxbd/craftshop-api/internal/logging"
	"github.com/rifayetuxbd/craftshop-api/internal/user"
)

// --- in-memory fakes ---

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*user.User // keyed by email
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*user.User)}
}

func (s *fakeUserStore) Create(_ context.Context, displayName, email, passwordHash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; ok {
		return nil, user.ErrDuplicateEmail
	}

	u := &user.User{
		ID:          uuid.New(),
		DisplayName: displayName,
		Email:       email,
		Password:    passwordHash,
		Role:        string(user.RoleUser),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.users[email] = u

	clone := *u
	return &clone, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeUserStore) GetByEmailAndCode(_ context.Context, email, code string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok || u.VerificationCode == nil || *u.VerificationCode != code {
		return nil, user.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *fakeUserStore) GetByResetCode(_ context.Context, code string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.PasswordResetCode != nil && *u.PasswordResetCode == code {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeUserStore) SetVerification(_ context.Context, email, code, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.users {
		if other.Email != email && other.VerificationCode != nil && *other.VerificationCode == code {
			return user.ErrDuplicateCode
		}
	}

	u, ok := s.users[email]
	if !ok {
		return user.ErrNotFound
	}

	count := 1
	if u.VerificationSentCount != nil {
		count = *u.VerificationSentCount + 1
	}
	now := time.Now()
	u.VerificationCode = &code
	u.EmailVerificationToken = &token
	u.VerificationSentCount = &count
	u.VerificationLastSentAt = &now
	return nil
}

func (s *fakeUserStore) MarkEmailVerified(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return user.ErrNotFound
	}
	u.EmailVerified = true
	u.VerificationCode = nil
	u.EmailVerificationToken = nil
	u.VerificationSentCount = nil
	u.VerificationLastSentAt = nil
	return nil
}

func (s *fakeUserStore) SetPasswordReset(_ context.Context, email, code, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.users {
		if other.Email != email && other.PasswordResetCode != nil && *other.PasswordResetCode == code {
			return user.ErrDuplicateCode
		}
	}

	u, ok := s.users[email]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordResetCode = &code
	u.PasswordResetToken = &token
	return nil
}

func (s *fakeUserStore) ResetPassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == id {
			u.Password = passwordHash
			u.PasswordResetCode = nil
			u.PasswordResetToken = nil
			return nil
		}
	}
	return user.ErrNotFound
}

// mutate runs fn on the stored record, for test setup
func (s *fakeUserStore) mutate(email string, fn func(*user.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		fn(u)
	}
}

type fakeSessionStore struct {
	mu       sync.Mutex
	users    *fakeUserStore
	sessions map[uuid.UUID]*Session
}

func newFakeSessionStore(users *fakeUserStore) *fakeSessionStore {
	return &fakeSessionStore{
		users:    users,
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (s *fakeSessionStore) Upsert(_ context.Context, userID, sessionID uuid.UUID, refreshToken, userAgent string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if sessionID != uuid.Nil {
		if sess, ok := s.sessions[sessionID]; ok && sess.UserID == userID {
			sess.RefreshToken = refreshToken
			sess.UserAgent = userAgent
			sess.LastLoginAt = &now
			sess.UpdatedAt = now
			return sessionID, nil
		}
	}

	sess := &Session{
		ID:           uuid.New(),
		UserID:       userID,
		SessionID:    uuid.New(),
		RefreshToken: refreshToken,
		UserAgent:    userAgent,
		LastLoginAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.sessions[sess.SessionID] = sess
	return sess.SessionID, nil
}

func (s *fakeSessionStore) FindForUser(ctx context.Context, email string, sessionID uuid.UUID) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.UserID != u.ID {
		return nil, ErrSessionNotFound
	}
	clone := *sess
	return &clone, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *fakeSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type fakeEmailSender struct {
	mu         sync.Mutex
	sendErr    error
	resetCodes []string

	verificationCodes chan string
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{verificationCodes: make(chan string, 16)}
}

func (s *fakeEmailSender) SendVerificationCode(_ context.Context, _, _, code, _ string) error {
	s.mu.Lock()
	err := s.sendErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.verificationCodes <- code
	return nil
}

func (s *fakeEmailSender) SendPasswordReset(_ context.Context, _, _, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.resetCodes = append(s.resetCodes, code)
	return nil
}

func (s *fakeEmailSender) lastResetCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.resetCodes) == 0 {
		return ""
	}
	return s.resetCodes[len(s.resetCodes)-1]
}

func (s *fakeEmailSender) waitForVerificationCode(t *testing.T) string {
	t.Helper()
	select {
	case code := <-s.verificationCodes:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for verification email")
		return ""
	}
}

// --- helpers ---

type testEnv struct {
	svc      *Service
	users    *fakeUserStore
	sessions *fakeSessionStore
	email    *fakeEmailSender
	tokens   *TokenService
}

func newTestEnv(t *testing.T, cfg config.TokenConfig) *testEnv {
	t.Helper()

	tokens, err := NewTokenService(cfg)
	require.NoError(t, err)

	users := newFakeUserStore()
	sessions := newFakeSessionStore(users)
	sender := newFakeEmailSender()

	return &testEnv{
		svc:      NewService(users, sessions, tokens, sender, logging.NewLogger(true)),
		users:    users,
		sessions: sessions,
		email:    sender,
		tokens:   tokens,
	}
}

func requireAppError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, code, appErr.Code)
}

// registerVerified creates an account and walks it through verification.
func (e *testEnv) registerVerified(t *testing.T, displayName, email, password string) *user.User {
	t.Helper()
	ctx := context.Background()

	u, err := e.svc.Register(ctx, displayName, email, password)
	require.NoError(t, err)

	code := e.email.waitForVerificationCode(t)
	require.NoError(t, e.svc.VerifyEmail(ctx, email, code))
	return u
}

// --- tests ---

func TestService_Register(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	u, err := env.svc.Register(ctx, "amina", "amina@example.com", "sturdy-pass")
	require.NoError(t, err)
	assert.Equal(t, "amina", u.DisplayName)
	assert.False(t, u.EmailVerified)

	// the verification email carries a six digit numeric code
	code := env.email.waitForVerificationCode(t)
	assert.Len(t, code, 6)

	stored, err := env.users.GetByEmail(ctx, "amina@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationCode)
	assert.Equal(t, code, *stored.VerificationCode)
	require.NotNil(t, stored.VerificationSentCount)
	assert.Equal(t, 1, *stored.VerificationSentCount)
	assert.NotEqual(t, "sturdy-pass", stored.Password)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "amina", "amina@example.com", "sturdy-pass")
	require.NoError(t, err)
	env.email.waitForVerificationCode(t)

	_, err = env.svc.Register(ctx, "other", "amina@example.com", "different")
	requireAppError(t, err, http.StatusConflict, "auth/email-not-available")
}

func TestService_Register_EmailFailureStillSucceeds(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	env.email.sendErr = context.DeadlineExceeded

	_, err := env.svc.Register(context.Background(), "amina", "amina@example.com", "sturdy-pass")
	require.NoError(t, err)
}

func TestService_Login_Unverified(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "amina", "amina@example.com", "sturdy-pass")
	require.NoError(t, err)
	env.email.waitForVerificationCode(t)

	_, err = env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.Nil)
	requireAppError(t, err, http.StatusForbidden, "auth/email-not-verified")
}

func TestService_Login_EnumerationIdentical(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")

	_, errWrongPassword := env.svc.Login(ctx, "amina@example.com", "bad-pass", "Mozilla/5.0", uuid.Nil)
	_, errUnknownEmail := env.svc.Login(ctx, "nobody@example.com", "bad-pass", "Mozilla/5.0", uuid.Nil)

	var e1, e2 *apperror.Error
	require.ErrorAs(t, errWrongPassword, &e1)
	require.ErrorAs(t, errUnknownEmail, &e2)
	assert.Equal(t, e1.Status, e2.Status)
	assert.Equal(t, e1.Code, e2.Code)
	assert.Equal(t, e1.Message, e2.Message)
}

func TestService_Login_NoUserAgent(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())

	_, err := env.svc.Login(context.Background(), "amina@example.com", "sturdy-pass", "", uuid.Nil)
	requireAppError(t, err, http.StatusForbidden, "auth/not-browser")
}

func TestService_Login_Success(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")

	profile, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.Nil)
	require.NoError(t, err)

	assert.Equal(t, "amina@example.com", profile.Email)
	assert.Equal(t, string(user.RoleUser), profile.Role)
	assert.True(t, profile.EmailVerified)
	assert.NotEqual(t, uuid.Nil, profile.SessionID)
	assert.NotEmpty(t, profile.AccessToken)
	assert.NotEmpty(t, profile.RefreshToken)

	// the access token verifies against the access key
	claims, err := env.tokens.Verify(TokenAccess, profile.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", claims.Email)
	assert.Equal(t, "amina", claims.DisplayName)

	// the session stores the issued refresh token
	sess, err := env.sessions.FindForUser(ctx, "amina@example.com", profile.SessionID)
	require.NoError(t, err)
	assert.Equal(t, profile.RefreshToken, sess.RefreshToken)
	assert.Equal(t, "Mozilla/5.0", sess.UserAgent)
}

func TestService_Login_SessionReuse(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")

	first, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.Nil)
	require.NoError(t, err)

	// presenting the same session id refreshes the row in place
	second, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", first.SessionID)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 1, env.sessions.count())

	// an unknown session id starts a fresh session
	third, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.New())
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, third.SessionID)
	assert.Equal(t, 2, env.sessions.count())
}

func TestService_Login_SessionNeverCrossesUsers(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")
	env.registerVerified(t, "badr", "badr@example.com", "sturdy-pass")

	aminaLogin, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.Nil)
	require.NoError(t, err)

	// presenting another user's session id must not hijack their row
	badrLogin, err := env.svc.Login(ctx, "badr@example.com", "sturdy-pass", "Mozilla/5.0", aminaLogin.SessionID)
	require.NoError(t, err)
	assert.NotEqual(t, aminaLogin.SessionID, badrLogin.SessionID)

	sess, err := env.sessions.FindForUser(ctx, "amina@example.com", aminaLogin.SessionID)
	require.NoError(t, err)
	assert.Equal(t, aminaLogin.RefreshToken, sess.RefreshToken)
}

func TestService_VerifyEmail_WrongCode(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "amina", "amina@example.com", "sturdy-pass")
	require.NoError(t, err)
	env.email.waitForVerificationCode(t)

	err = env.svc.VerifyEmail(ctx, "amina@example.com", "000000")
	requireAppError(t, err, http.StatusBadRequest, "auth/invalid-input")
}

func TestService_VerifyEmail_AlreadyVerified(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")

	// a stale code on an already verified account is rejected up front
	code := "135790"
	env.users.mutate("amina@example.com", func(u *user.User) {
		u.VerificationCode = &code
	})

	err := env.svc.VerifyEmail(ctx, "amina@example.com", code)
	requireAppError(t, err, http.StatusBadRequest, "auth/email-verified")
}

func TestService_VerifyEmail_ExpiredToken(t *testing.T) {
	cfg := testTokenConfig()
	cfg.EmailVerificationTTL = time.Millisecond
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "amina", "amina@example.com", "sturdy-pass")
	require.NoError(t, err)
	code := env.email.waitForVerificationCode(t)

	time.Sleep(10 * time.Millisecond)

	err = env.svc.VerifyEmail(ctx, "amina@example.com", code)
	requireAppError(t, err, http.StatusForbidden, "auth/resend-email-verification")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "Token expired")
}

func TestService_VerifyEmail_ClearsWorkflowFields(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")

	stored, err := env.users.GetByEmail(ctx, "amina@example.com")
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)
	assert.Nil(t, stored.VerificationCode)
	assert.Nil(t, stored.EmailVerificationToken)
	assert.Nil(t, stored.VerificationSentCount)
	assert.Nil(t, stored.VerificationLastSentAt)
}

func TestService_ResendVerification_Cooldown(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "amina", "amina@example.com", "sturdy-pass")
	require.NoError(t, err)
	env.email.waitForVerificationCode(t)

	// immediately after the register send the base cooldown applies
	err = env.svc.ResendVerification(ctx, "amina@example.com")
	requireAppError(t, err, http.StatusBadRequest, "auth/resend-failed")

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "You can resend email again after")

	// backdating the last send past the cooldown lets it through
	past := time.Now().Add(-4 * time.Minute)
	env.users.mutate("amina@example.com", func(u *user.User) {
		u.VerificationLastSentAt = &past
	})

	require.NoError(t, env.svc.ResendVerification(ctx, "amina@example.com"))
	newCode := env.email.waitForVerificationCode(t)
	assert.Len(t, newCode, 6)

	stored, err := env.users.GetByEmail(ctx, "amina@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationSentCount)
	assert.Equal(t, 2, *stored.VerificationSentCount)
}

func TestService_ResendVerification_UnknownEmail(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())

	err := env.svc.ResendVerification(context.Background(), "nobody@example.com")
	requireAppError(t, err, http.StatusBadRequest, "auth/invalid-email")
}

func TestService_ResendVerification_AlreadyVerified(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")

	err := env.svc.ResendVerification(ctx, "amina@example.com")
	requireAppError(t, err, http.StatusBadRequest, "auth/email-verified")
}

func TestService_ForgotPassword(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")

	require.NoError(t, env.svc.ForgotPassword(ctx, "amina@example.com"))

	code := env.email.lastResetCode()
	assert.Len(t, code, 20)

	stored, err := env.users.GetByEmail(ctx, "amina@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordResetCode)
	assert.Equal(t, code, *stored.PasswordResetCode)
	assert.NotNil(t, stored.PasswordResetToken)
}

func TestService_ForgotPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())

	err := env.svc.ForgotPassword(context.Background(), "nobody@example.com")
	requireAppError(t, err, http.StatusBadRequest, "auth/email-not-found")
}

func TestService_ResetPassword(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")
	profile, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.Nil)
	require.NoError(t, err)

	require.NoError(t, env.svc.ForgotPassword(ctx, "amina@example.com"))
	code := env.email.lastResetCode()

	require.NoError(t, env.svc.ResetPassword(ctx, code, "brand-new-pass", profile.SessionID))

	stored, err := env.users.GetByEmail(ctx, "amina@example.com")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("brand-new-pass", stored.Password))
	assert.Nil(t, stored.PasswordResetCode)
	assert.Nil(t, stored.PasswordResetToken)

	// the current session was invalidated
	_, err = env.sessions.FindForUser(ctx, "amina@example.com", profile.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// and the new password works
	_, err = env.svc.Login(ctx, "amina@example.com", "brand-new-pass", "Mozilla/5.0", uuid.Nil)
	assert.NoError(t, err)
}

func TestService_ResetPassword_UnknownCode(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())

	err := env.svc.ResetPassword(context.Background(), "aaaaaaaaaaaaaaaaaaaa", "brand-new-pass", uuid.Nil)
	requireAppError(t, err, http.StatusForbidden, "auth/invalid-code")
}

func TestService_ResetPassword_ExpiredToken(t *testing.T) {
	cfg := testTokenConfig()
	cfg.PasswordResetTTL = time.Millisecond
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")
	require.NoError(t, env.svc.ForgotPassword(ctx, "amina@example.com"))
	code := env.email.lastResetCode()

	time.Sleep(10 * time.Millisecond)

	err := env.svc.ResetPassword(ctx, code, "brand-new-pass", uuid.Nil)
	requireAppError(t, err, http.StatusForbidden, "auth/reset-password")
}

func TestService_SignOut(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	u := env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")
	profile, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.Nil)
	require.NoError(t, err)

	require.NoError(t, env.svc.SignOut(ctx, u.ID, profile.SessionID))
	assert.Equal(t, 0, env.sessions.count())

	// a second sign-out no longer finds the session
	err = env.svc.SignOut(ctx, u.ID, profile.SessionID)
	requireAppError(t, err, http.StatusForbidden, "auth/invalid-session-id")
}

func TestService_SignOut_CrossUser(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")
	badr := env.registerVerified(t, "badr", "badr@example.com", "sturdy-pass")

	aminaLogin, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.Nil)
	require.NoError(t, err)

	// badr cannot terminate amina's session
	err = env.svc.SignOut(ctx, badr.ID, aminaLogin.SessionID)
	requireAppError(t, err, http.StatusForbidden, "auth/invalid-session-id")
	assert.Equal(t, 1, env.sessions.count())
}

func TestService_SignOut_UnknownUser(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())

	err := env.svc.SignOut(context.Background(), uuid.New(), uuid.New())
	requireAppError(t, err, http.StatusForbidden, "auth/invalid-user-id")
}

func TestService_VerifyToken(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")
	login, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.Nil)
	require.NoError(t, err)

	claims, err := env.tokens.Verify(TokenAccess, login.AccessToken)
	require.NoError(t, err)

	profile, err := env.svc.VerifyToken(ctx, claims, login.AccessToken, login.SessionID)
	require.NoError(t, err)
	assert.Equal(t, login.AccessToken, profile.AccessToken)
	// the stored refresh token is reused, not reissued
	assert.Equal(t, login.RefreshToken, profile.RefreshToken)
	assert.Equal(t, login.SessionID, profile.SessionID)
}

func TestService_VerifyToken_MissingSession(t *testing.T) {
	env := newTestEnv(t, testTokenConfig())
	ctx := context.Background()

	env.registerVerified(t, "amina", "amina@example.com", "sturdy-pass")
	login, err := env.svc.Login(ctx, "amina@example.com", "sturdy-pass", "Mozilla/5.0", uuid.Nil)
	require.NoError(t, err)

	claims, err := env.tokens.Verify(TokenAccess, login.AccessToken)
	require.NoError(t, err)

	_, err = env.svc.VerifyToken(ctx, claims, login.AccessToken, uuid.New())
	requireAppError(t, err, http.StatusForbidden, "auth/invalid-token")
}
