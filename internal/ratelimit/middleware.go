package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/minh-le0205/tour-rest-api/internal/apperr"
	"github.com/minh-le0205/tour-rest-api/internal/httputil"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
)

// KeyFunc extracts a rate limit key from the request.
type KeyFunc func(r *http.Request) string

// ClientIP keys requests by the socket peer address. Forwarded headers only
// count when the router mounted chi's RealIP, which rewrites RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// Middleware creates an HTTP middleware for rate limiting. Redis failures
// let the request through.
func Middleware(l *Limiter, purpose string, rule Rule, keyFunc KeyFunc, message string) func(http.Handler) http.Handler {
	tooMany := apperr.TooManyRequests(httputil.CodeTooManyRequests, message)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := l.Allow(r.Context(), purpose, key, rule)
			if err != nil {
				logging.GetLoggerFromContext(r.Context()).Error("failed to check rate limit",
					"purpose", purpose, "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				if retryAfter := int(result.RetryAfter(l.now()).Seconds()); retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				logging.GetLoggerFromContext(r.Context()).Warn("rate limit exceeded",
					"purpose", purpose, "key", key)
				httputil.RespondError(w, r, tooMany)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
