package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/tenxcards/internal/auth"
	"github.com/vytor/tenxcards/internal/errors"
	"github.com/vytor/tenxcards/internal/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

type contextKey string

const (
	identityContextKey contextKey = "identity"
	authErrContextKey  contextKey = "auth_error"

	accessTokenCookie  = "sb-access-token"
	refreshTokenCookie = "sb-refresh-token"
)

// Pages that need a session. A path matches when it equals an entry or
// continues it with "/".
var protectedPages = []string{"/generate", "/flashcards", "/account", "/settings"}

// Prefixes the page gate never redirects.
var publicPrefixes = []string{"/api", "/login", "/register", "/forgot-password", "/reset-password", "/auth/"}

func identityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(auth.Identity)
	return id, ok
}

func authErrFromContext(ctx context.Context) error {
	err, _ := ctx.Value(authErrContextKey).(error)
	return err
}

// loggingMiddleware logs HTTP requests with timing, status codes, and request IDs.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		log := logger.Default().WithFields(map[string]any{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		if r.RemoteAddr != "" {
			log = log.WithField("remote_addr", r.RemoteAddr)
		}

		r = r.WithContext(logger.NewContext(r.Context(), log))
		w.Header().Set("X-Request-ID", requestID)
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		log.Debug("request started")
		next.ServeHTTP(wrapped, r)

		log = log.WithFields(map[string]any{
			"status":      wrapped.status,
			"size":        wrapped.size,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if wrapped.status >= 500 {
			log.Error("request completed with server error")
		} else if wrapped.status >= 400 {
			log.Warn("request completed with client error")
		} else {
			log.Info("request completed")
		}
	})
}

// recoveryMiddleware recovers from panics and answers with a generic
// INTERNAL_ERROR body.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.FromContext(r.Context()).Error("panic recovered: %v", rec)
				writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: errorDetail{
					Code:    errors.ErrCodeInternal,
					Message: "An unexpected error occurred",
				}})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware resolves the caller's identity from the Authorization
// header, falling back to the session cookie. It never rejects; later gates
// decide what an anonymous request may reach.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			if c, err := r.Cookie(accessTokenCookie); err == nil {
				token = c.Value
			}
		}

		ctx := r.Context()
		id, err := s.Auth.Authenticate(ctx, token)
		if err != nil {
			logger.FromContext(ctx).Debug("session rejected: %v", err)
			ctx = context.WithValue(ctx, authErrContextKey, err)
		} else {
			ctx = context.WithValue(ctx, identityContextKey, id)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).WithField("user_id", id.UserID))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func matchesPath(path, base string) bool {
	return path == base || strings.HasPrefix(path, base+"/")
}

func isProtectedPage(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	for _, p := range protectedPages {
		if matchesPath(path, p) {
			return true
		}
	}
	return false
}

// pageAuthMiddleware redirects anonymous visitors of protected pages to
// the landing page.
func pageAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isProtectedPage(r.URL.Path) {
			if _, ok := identityFromContext(r.Context()); !ok {
				logger.FromContext(r.Context()).Debug("no session, redirecting to /")
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// apiAuthMiddleware rejects anonymous requests to /api, except the session
// endpoints under /api/auth.
func apiAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !matchesPath(path, "/api") || strings.HasPrefix(path, "/api/auth/") {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := identityFromContext(r.Context()); !ok {
			err := authErrFromContext(r.Context())
			if err == nil {
				err = errors.NewUnauthorizedError("")
			}
			handleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware counts authenticated /api requests against the
// per-user window. Store failures are logged and the request is admitted.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Limiter == nil || !matchesPath(r.URL.Path, "/api") {
			next.ServeHTTP(w, r)
			return
		}
		id, ok := identityFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		decision, err := s.Limiter.Allow(r.Context(), id.UserID)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeRateLimit) {
				handleError(w, r, err)
				return
			}
			logger.FromContext(r.Context()).Warn("rate limit store unavailable, admitting request: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		next.ServeHTTP(w, r)
	})
}
