package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WhisperLily/task-management-api/internal/auth"
	"github.com/WhisperLily/task-management-api/internal/service"
	"github.com/WhisperLily/task-management-api/pkg/health"
	"github.com/WhisperLily/task-management-api/pkg/middleware"
)

// RouterConfig holds router-level settings that come from the environment.
type RouterConfig struct {
	CORS               middleware.CORSConfig
	AuthRateLimitRPS   int
	AuthRateLimitBurst int
	TracingEnabled     bool
}

// NewRouter creates a chi router with all task API routes registered.
func NewRouter(
	userService *service.UserService,
	taskService *service.TaskService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("task-api"))
	if cfg.TracingEnabled {
		r.Use(middleware.Tracing("task-api"))
	}
	// After RequestLogging and Tracing so the context logger picks up
	// correlation and trace IDs.
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	tokenValidator := accessTokenValidator(jwtManager)

	// Auth endpoints. Credential endpoints are public and rate limited per
	// client IP; change-password requires a valid access token.
	authHandler := NewAuthHandler(userService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger))

			r.Post("/register", authHandler.Register)
			r.Post("/token", authHandler.Token)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/change-password", authHandler.ChangePassword)
		})
	})

	// User profile endpoints (auth required)
	userHandler := NewUserHandler(userService, logger)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/me", userHandler.GetProfile)
		r.Put("/me", userHandler.UpdateProfile)
	})

	// Task endpoints (auth required)
	taskHandler := NewTaskHandler(taskService, logger)
	r.Route("/api/v1/tasks", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Post("/", taskHandler.Create)
		r.Get("/", taskHandler.List)
		r.Get("/stats/summary", taskHandler.Stats)

		r.Get("/{id}", taskHandler.Get)
		r.Put("/{id}", taskHandler.Update)
		r.Delete("/{id}", taskHandler.Delete)
	})

	return r
}

// accessTokenValidator bridges the auth middleware to the internal JWTManager.
// Validation failures are mapped to their API error codes so an expired or
// wrong-type token gets a distinct 401 body.
func accessTokenValidator(jwtManager *auth.JWTManager) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, service.TokenError(err)
		}
		return &middleware.Claims{
			UserID:   claims.UserID,
			Username: claims.Username,
		}, nil
	}
}
