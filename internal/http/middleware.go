package http

import (
	"net/http"
	"strings"

	"github.com/minh-le0205/tour-rest-api/internal/config"
	"github.com/minh-le0205/tour-rest-api/internal/ratelimit"
)

// SecurityHeaders adds security-related headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		w.Header().Set("X-DNS-Prefetch-Control", "off")
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		}

		// Swagger UI needs scripts, styles, and images to render
		if strings.HasPrefix(r.URL.Path, "/swagger/") {
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		} else {
			w.Header().Set("Content-Security-Policy", "default-src 'none'")
		}

		next.ServeHTTP(w, r)
	})
}

// BodyLimit caps request bodies at n bytes. Decoding a larger body fails
// with *http.MaxBytesError.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	apiLimitMessage  = "Too many requests from this IP, please try again in an hour."
	authLimitMessage = "Too many authentication attempts from this IP, please try again later."
)

func passthrough(next http.Handler) http.Handler { return next }

// rateLimits builds the /api limiter and the tighter one for credential
// endpoints. Both are no-ops when limiting is disabled.
func rateLimits(l *ratelimit.Limiter, cfg config.RateLimitConfig) (api, auth func(http.Handler) http.Handler) {
	if l == nil || !cfg.Enabled {
		return passthrough, passthrough
	}
	api = ratelimit.Middleware(l, "api",
		ratelimit.Rule{Limit: cfg.APIRequests, Window: cfg.APIWindow},
		ratelimit.ClientIP, apiLimitMessage)
	auth = ratelimit.Middleware(l, "auth",
		ratelimit.Rule{Limit: cfg.AuthRequests, Window: cfg.AuthWindow},
		ratelimit.ClientIP, authLimitMessage)
	return api, auth
}
