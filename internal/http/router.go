package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/minh-le0205/tour-rest-api/internal/auth"
	"github.com/minh-le0205/tour-rest-api/internal/config"
	"github.com/minh-le0205/tour-rest-api/internal/httputil"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
	"github.com/minh-le0205/tour-rest-api/internal/metrics"
	"github.com/minh-le0205/tour-rest-api/internal/ratelimit"
	"github.com/minh-le0205/tour-rest-api/internal/review"
	"github.com/minh-le0205/tour-rest-api/internal/tour"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

// Dependencies are the collaborators the router mounts. Metrics and
// Limiter may be nil.
type Dependencies struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Limiter *ratelimit.Limiter

	Gate    *auth.Middleware
	Auth    *auth.Handler
	Users   *user.Handler
	Tours   *tour.Handler
	Reviews *review.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps Dependencies) *chi.Mux {
	cfg := deps.Config
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.TrustedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			MaxAge:         300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	// Forwarded headers are client-controlled unless a proxy overwrites them
	if cfg.Server.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.RequestLogger(deps.Logger))
	r.Use(deps.Metrics.Middleware)
	r.Use(BodyLimit(cfg.Server.MaxBodyBytes))
	r.Use(middleware.Compress(5))

	r.NotFound(handleNotFound)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		deps.Logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	apiLimit, authLimit := rateLimits(deps.Limiter, cfg.RateLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiLimit)

		r.Route("/users", func(r chi.Router) {
			r.With(authLimit).Post("/signup", deps.Auth.SignUp)
			r.With(authLimit).Post("/login", deps.Auth.Login)
			r.With(authLimit).Post("/forgot-password", deps.Auth.ForgotPassword)
			r.Patch("/reset-password/{token}", deps.Auth.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(deps.Gate.Protect)

				r.Patch("/update-password", deps.Auth.UpdatePassword)
				r.Get("/me", deps.Auth.GetMe)
				r.Patch("/update-me", deps.Auth.UpdateMe)
				r.Delete("/delete-me", deps.Auth.DeleteMe)

				r.Group(func(r chi.Router) {
					r.Use(auth.RestrictTo(user.RoleAdmin))

					r.Get("/", deps.Users.List)
					r.Post("/", deps.Users.Create)
					r.Get("/{id}", deps.Users.Get)
					r.Patch("/{id}", deps.Users.Update)
					r.Delete("/{id}", deps.Users.Deactivate)
				})
			})
		})

		r.Route("/tours", func(r chi.Router) {
			r.Get("/", deps.Tours.List)
			r.Get("/{id}", deps.Tours.Get)

			r.Group(func(r chi.Router) {
				r.Use(deps.Gate.Protect)
				r.Use(auth.RestrictTo(user.RoleAdmin, user.RoleLeadGuide))

				r.Post("/", deps.Tours.Create)
				r.Patch("/{id}", deps.Tours.Update)
				r.Delete("/{id}", deps.Tours.Delete)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(deps.Gate.Protect)

			r.Get("/", deps.Reviews.List)
			r.With(auth.RestrictTo(user.RoleUser)).Post("/", deps.Reviews.Create)
			r.With(auth.RestrictTo(user.RoleUser, user.RoleAdmin)).Delete("/{id}", deps.Reviews.Delete)
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

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.RespondErrorWithCode(w,
		fmt.Sprintf("Can not find %s on this server", r.URL.Path),
		httputil.CodeRouteNotFound,
		http.StatusNotFound,
	)
}
