package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/rifayetuxbd/craftshop-api/internal/auth"
	"github.com/rifayetuxbd/craftshop-api/internal/config"
	"github.com/rifayetuxbd/craftshop-api/internal/httputil"
	"github.com/rifayetuxbd/craftshop-api/internal/logging"
	"github.com/rifayetuxbd/craftshop-api/internal/user"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, authHandler *auth.Handler, authMiddleware *auth.Middleware, userHandler *user.Handler, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-session-id"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - development only; production builds don't carry the route
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.With(authMiddleware.ValidateSessionID).Post("/login", authHandler.Login)
		r.Post("/verify-email", authHandler.VerifyEmail)
		r.Post("/resend-email-verification-code", authHandler.ResendVerification)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.With(authMiddleware.ValidateSessionID).Post("/reset-password", authHandler.ResetPassword)
		r.With(authMiddleware.ValidateAccessToken, authMiddleware.ValidateSessionID).
			Get("/verify-token", authHandler.VerifyToken)
		r.With(authMiddleware.ValidateAccessToken).Post("/sign-out", authHandler.SignOut)
	})

	// Protected routes (verified account required)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.ValidateAccessToken, authMiddleware.ValidateUser)

		r.Get("/me", userHandler.Me)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireClerk)
			r.Get("/users", userHandler.List)
		})
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireManager)
			r.Delete("/users/{userID}", userHandler.Delete)
		})
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAdmin)
			r.Patch("/users/{userID}/role", userHandler.UpdateRole)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
