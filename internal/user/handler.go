package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rifayetuxbd/craftshop-api/internal/apperror"
	"github.com/rifayetuxbd/craftshop-api/internal/httputil"
	"github.com/rifayetuxbd/craftshop-api/internal/logging"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handler contains HTTP handlers for the user-administration endpoints.
// Role gating happens in middleware; these handlers assume the caller was
// already admitted.
type Handler struct {
	repo       *Repository
	production bool
}

func NewHandler(repo *Repository, production bool) *Handler {
	return &Handler{repo: repo, production: production}
}

// ProfileResponse is the public account view, without credentials or
// workflow fields.
type ProfileResponse struct {
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
}

// ListResponse is the paginated user list
type ListResponse struct {
	Users  []ProfileResponse `json:"users"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// UpdateRoleRequest is the role change request body
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// MessageResponse is a plain confirmation body
type MessageResponse struct {
	Message string `json:"message"`
}

// Me returns the caller's own profile
// @Summary      Current user
// @Description  Return the profile of the authenticated caller.
// @Tags         users
// @Produce      json
// @Success      200 {object} ProfileResponse
// @Failure      403 {object} httputil.ErrorResponse "Not authenticated"
// @Router       /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		h.respondError(w, logger, apperror.Forbidden("Missing validated token", "auth/missing-validated-token"))
		return
	}

	u, err := h.repo.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.respondError(w, logger, apperror.Forbidden("Invalid token", "auth/invalid-token"))
			return
		}
		h.respondError(w, logger, apperror.Internal(err))
		return
	}

	httputil.RespondJSON(w, profileResponse(u), http.StatusOK)
}

// List returns a page of accounts
// @Summary      List users
// @Description  Paginated account list. Requires the clerk role or above.
// @Tags         users
// @Produce      json
// @Param        limit query int false "Page size (max 100)"
// @Param        offset query int false "Page offset"
// @Success      200 {object} ListResponse
// @Failure      401 {object} httputil.ErrorResponse "Insufficient role"
// @Router       /users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	users, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		h.respondError(w, logger, apperror.Internal(err))
		return
	}

	resp := ListResponse{
		Users:  make([]ProfileResponse, 0, len(users)),
		Limit:  limit,
		Offset: offset,
	}
	for _, u := range users {
		resp.Users = append(resp.Users, profileResponse(u))
	}

	httputil.RespondJSON(w, resp, http.StatusOK)
}

// Delete removes an account
// @Summary      Delete user
// @Description  Delete an account and its sessions. Requires the manager role or above.
// @Tags         users
// @Produce      json
// @Param        userId path string true "User id"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Malformed user id"
// @Failure      404 {object} httputil.ErrorResponse "Unknown user"
// @Router       /users/{userId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.respondError(w, logger, apperror.BadRequest("Invalid user id", "users/invalid-user-id"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.respondError(w, logger, apperror.NotFound("User not found", "users/not-found"))
			return
		}
		h.respondError(w, logger, apperror.Internal(err))
		return
	}

	logger.Info("user deleted", "userId", id)
	httputil.RespondJSON(w, MessageResponse{Message: "User deleted"}, http.StatusOK)
}

// UpdateRole changes an account's role
// @Summary      Update user role
// @Description  Set an account's role. Admin only.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userId path string true "User id"
// @Param        request body UpdateRoleRequest true "New role"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Malformed id or unknown role"
// @Failure      404 {object} httputil.ErrorResponse "Unknown user"
// @Router       /users/{userId}/role [patch]
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.respondError(w, logger, apperror.BadRequest("Invalid user id", "users/invalid-user-id"))
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, logger, apperror.BadRequest("Invalid role", "users/invalid-role").WithCause(err))
		return
	}

	role, ok := ParseRole(req.Role)
	if !ok {
		h.respondError(w, logger, apperror.BadRequest("Invalid role", "users/invalid-role"))
		return
	}

	if err := h.repo.UpdateRole(r.Context(), id, string(role)); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.respondError(w, logger, apperror.NotFound("User not found", "users/not-found"))
			return
		}
		h.respondError(w, logger, apperror.Internal(err))
		return
	}

	logger.Info("user role updated", "userId", id, "role", role)
	httputil.RespondJSON(w, MessageResponse{Message: "Role updated"}, http.StatusOK)
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

func profileResponse(u *User) ProfileResponse {
	return ProfileResponse{
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

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
