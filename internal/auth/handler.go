package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rifayetuxbd/craftshop-api/internal/apperror"
	"github.com/rifayetuxbd/craftshop-api/internal/httputil"
	"github.com/rifayetuxbd/craftshop-api/internal/logging"
	"github.com/rifayetuxbd/craftshop-api/internal/ratelimit"
)

// Handler contains HTTP handlers for the authentication endpoints.
type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
	production  bool
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, production bool) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		production:  production,
	}
}

// RegisterRequest is the registration request body
type RegisterRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// RegisteredUser is the public shape of a freshly created account
type RegisteredUser struct {
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
}

// RegisterResponse is the registration response
type RegisterResponse struct {
	User    RegisteredUser `json:"user"`
	Message string         `json:"message"`
}

// LoginRequest is the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest carries the code the user received by email
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendVerificationRequest is the resend verification request body
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordRequest is the password reset request body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries the emailed reset code and the new password
type ResetPasswordRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

// SignOutRequest names the session being terminated
type SignOutRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

// MessageResponse is a plain confirmation body
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles account creation
// @Summary      Register a new account
// @Description  Create an unverified account. A verification code is emailed in the background.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration fields"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already in use"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		h.respondError(w, logger, apperror.New(http.StatusTooManyRequests, "Too many requests, please try again later", "rate/too-many-requests"))
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		h.respondError(w, logger, apperror.BadRequest("Invalid form data", "auth/invalid-form").WithCause(err))
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	if appErr := validateRegisterInput(req.DisplayName, req.Email, req.Password); appErr != nil {
		logger.Warn("registration failed: validation error", "fields", appErr.Fields)
		h.respondError(w, logger, appErr)
		return
	}

	newUser, err := h.service.Register(r.Context(), req.DisplayName, req.Email, req.Password)
	if err != nil {
		h.respondError(w, logger, err)
		return
	}

	logger.Info("user registered", "userId", newUser.ID)

	httputil.RespondJSON(w, RegisterResponse{
		User: RegisteredUser{
			UserID:      newUser.ID,
			DisplayName: newUser.DisplayName,
			Email:       newUser.Email,
		},
		Message: "Registration successful. Please check your email to verify your account.",
	}, http.StatusCreated)
}

// Login handles credential sign-in
// @Summary      Sign in
// @Description  Authenticate with email and password. Reuses the session named by the x-session-id header when it belongs to the caller, otherwise starts a fresh one.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        x-session-id header string false "Existing session id"
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} Profile
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      403 {object} httputil.ErrorResponse "Invalid credentials or unverified email"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		h.respondError(w, logger, apperror.New(http.StatusTooManyRequests, "Too many requests, please try again later", "rate/too-many-requests"))
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		h.respondError(w, logger, apperror.BadRequest("Invalid email or password", "auth/invalid-user").WithCause(err))
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	if req.Email == "" || req.Password == "" {
		logger.Warn("login failed: missing credentials")
		h.respondError(w, logger, apperror.BadRequest("Invalid email or password", "auth/invalid-user"))
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())
	profile, err := h.service.Login(r.Context(), req.Email, req.Password, r.UserAgent(), sessionID)
	if err != nil {
		h.respondError(w, logger, err)
		return
	}

	logger.Info("user logged in", "userId", profile.UserID, "sessionId", profile.SessionID)
	httputil.RespondJSON(w, profile, http.StatusOK)
}

// VerifyEmail confirms ownership of an email address
// @Summary      Verify email
// @Description  Mark an account verified using the emailed six digit code.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyEmailRequest true "Email and code"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid input or already verified"
// @Failure      403 {object} httputil.ErrorResponse "Missing, expired or invalid verification token"
// @Router       /auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify email request body", "error", err.Error())
		h.respondError(w, logger, apperror.BadRequest("Invalid email or verification code", "auth/invalid-input").WithCause(err))
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if _, ok := validateEmail(req.Email); !ok || len(req.Code) != verificationCodeLength {
		logger.Warn("verify email failed: validation error")
		h.respondError(w, logger, apperror.BadRequest("Invalid email or verification code", "auth/invalid-input"))
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		h.respondError(w, logger, err)
		return
	}

	logger.Info("email verified")
	httputil.RespondJSON(w, MessageResponse{Message: "Email verified successfully"}, http.StatusOK)
}

// ResendVerification sends a fresh verification code
// @Summary      Resend verification email
// @Description  Rotate the verification code and send it again, subject to the escalating cooldown.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResendVerificationRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid email, already verified, or cooldown active"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/resend-email-verification-code [post]
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend verification request body", "error", err.Error())
		h.respondError(w, logger, apperror.BadRequest("Invalid email address", "auth/invalid-email").WithCause(err))
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if msg, ok := validateEmail(req.Email); !ok {
		logger.Warn("resend verification failed: validation error", "reason", msg)
		h.respondError(w, logger, apperror.BadRequest("Invalid email address", "auth/invalid-email"))
		return
	}

	if !h.checkSendLimits(w, r, logger, req.Email) {
		return
	}

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		h.respondError(w, logger, err)
		return
	}

	logger.Info("verification email resent")
	httputil.RespondJSON(w, MessageResponse{Message: "Verification email sent"}, http.StatusOK)
}

// ForgotPassword starts the password reset flow
// @Summary      Request password reset
// @Description  Email a password reset code to the account holder.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Email not found"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		h.respondError(w, logger, apperror.BadRequest("Invalid email address", "auth/invalid-email").WithCause(err))
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if msg, ok := validateEmail(req.Email); !ok {
		logger.Warn("forgot password failed: validation error", "reason", msg)
		h.respondError(w, logger, apperror.BadRequest("Invalid email address", "auth/invalid-email"))
		return
	}

	if !h.checkSendLimits(w, r, logger, req.Email) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.respondError(w, logger, err)
		return
	}

	logger.Info("password reset email sent")
	httputil.RespondJSON(w, MessageResponse{Message: "Password reset email sent"}, http.StatusOK)
}

// ResetPassword completes the password reset flow
// @Summary      Reset password
// @Description  Set a new password using the emailed reset code. The caller's current session is invalidated.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        x-session-id header string false "Session to invalidate"
// @Param        request body ResetPasswordRequest true "Reset code and new password"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid password"
// @Failure      403 {object} httputil.ErrorResponse "Invalid code or token"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		h.respondError(w, logger, apperror.BadRequest("Invalid password", "auth/invalid-password").WithCause(err))
		return
	}

	if msg, ok := validatePassword(req.Password); !ok {
		logger.Warn("reset password failed: validation error", "reason", msg)
		h.respondError(w, logger, apperror.BadRequest(msg, "auth/invalid-password"))
		return
	}
	if len(req.Code) != resetCodeLength {
		logger.Warn("reset password failed: malformed code")
		h.respondError(w, logger, apperror.Forbidden("Invalid code", "auth/invalid-code"))
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())
	if err := h.service.ResetPassword(r.Context(), req.Code, req.Password, sessionID); err != nil {
		h.respondError(w, logger, err)
		return
	}

	logger.Info("password reset")
	httputil.RespondJSON(w, MessageResponse{Message: "Password reset successful"}, http.StatusOK)
}

// SignOut terminates one device session
// @Summary      Sign out
// @Description  Delete the named session. Requires a valid access token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignOutRequest true "User id and session id"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Malformed ids"
// @Failure      403 {object} httputil.ErrorResponse "Unknown user or session"
// @Router       /auth/sign-out [post]
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req SignOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid sign out request body", "error", err.Error())
		h.respondError(w, logger, apperror.BadRequest("Invalid user id or session id", "auth/invalid-data").WithCause(err))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		logger.Warn("sign out failed: malformed user id")
		h.respondError(w, logger, apperror.BadRequest("Invalid user id or session id", "auth/invalid-data"))
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		logger.Warn("sign out failed: malformed session id")
		h.respondError(w, logger, apperror.BadRequest("Invalid user id or session id", "auth/invalid-data"))
		return
	}

	if err := h.service.SignOut(r.Context(), userID, sessionID); err != nil {
		h.respondError(w, logger, err)
		return
	}

	logger.Info("user signed out", "userId", userID, "sessionId", sessionID)
	httputil.RespondJSON(w, MessageResponse{Message: "Signed out successfully"}, http.StatusOK)
}

// VerifyToken rebuilds the signed-in profile for route guards
// @Summary      Verify access token
// @Description  Validate the bearer token and session, returning the current profile and the stored refresh token.
// @Tags         auth
// @Produce      json
// @Param        Authorization header string true "Bearer access token"
// @Param        x-session-id header string true "Session id"
// @Success      200 {object} Profile
// @Failure      403 {object} httputil.ErrorResponse "Invalid token or session"
// @Router       /auth/verify-token [get]
func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	claims, ok := AccessClaimsFromContext(r.Context())
	if !ok {
		h.respondError(w, logger, apperror.Forbidden("Missing validated token", "auth/missing-validated-token"))
		return
	}
	accessToken, _ := AccessTokenFromContext(r.Context())
	sessionID, _ := SessionIDFromContext(r.Context())

	profile, err := h.service.VerifyToken(r.Context(), claims, accessToken, sessionID)
	if err != nil {
		h.respondError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, profile, http.StatusOK)
}

// checkSendLimits applies the shared transport limits on email-sending
// endpoints: per-IP fixed window plus a short per-address cooldown.
// Limiter failures never block the request. Returns false when the
// response has already been written.
func (h *Handler) checkSendLimits(w http.ResponseWriter, r *http.Request, logger *logging.Logger, email string) bool {
	ip := getClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip)
		h.respondError(w, logger, apperror.New(http.StatusTooManyRequests, "Too many requests, please try again later", "rate/too-many-requests"))
		return false
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", email)
		h.respondError(w, logger, apperror.New(http.StatusTooManyRequests, "Please wait before requesting another email", "rate/cooldown-active"))
		return false
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, logger *logging.Logger, err error) {
	appErr := apperror.From(err)
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", appErr.Code, "error", appErr.Error())
	} else {
		logger.Warn("request rejected", "code", appErr.Code, "status", appErr.Status)
	}
	httputil.RespondAppError(w, appErr, h.production)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port"
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
