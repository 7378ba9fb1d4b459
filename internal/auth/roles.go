package auth

import (
	"net/http"

	"github.com/rifayetuxbd/craftshop-api/internal/user"
)

// RequireClerk admits clerk, manager and admin.
func (m *Middleware) RequireClerk(next http.Handler) http.Handler {
	return m.requireRole(next, func(r user.Role) bool {
		return r.AtLeast(user.RoleClerk)
	})
}

// RequireManager admits manager and admin.
func (m *Middleware) RequireManager(next http.Handler) http.Handler {
	return m.requireRole(next, func(r user.Role) bool {
		return r.AtLeast(user.RoleManager)
	})
}

// RequireAdmin admits admin alone. Exact match, not "at least": admin is
// treated as a ceiling role here, unlike the other two gates.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.requireRole(next, func(r user.Role) bool {
		return r == user.RoleAdmin
	})
}
