// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchbook/internal/api/auth"
	"github.com/pitchside/pitchbook/internal/api/authz"
	"github.com/pitchside/pitchbook/internal/profiles"
	"github.com/pitchside/pitchbook/internal/session"
)

type Middleware func(http.Handler) http.Handler

func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		event := log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start))
		if requestID, ok := r.Context().Value(requestIDKey).(string); ok {
			event = event.Str("request_id", requestID)
		}
		event.Msg("Request completed")
	})
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger := log.Ctx(r.Context())
				stack := debug.Stack()
				logger.Error().
					Interface("error", err).
					Str("stack", string(stack)).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type contextKey int

const requestIDKey contextKey = iota

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		logger := log.With().Str("request_id", requestID).Logger()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = logger.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "" {
			r.Header.Set("Accept", "text/html")
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession resolves the session for every request and attaches it to the
// context. Resolution runs per request so a provider-side sign-out is
// observed on the next navigation. The middleware applies the resolver's
// cache directives; handlers only read the session from the context.
func WithSession(resolver *session.Resolver, cache *session.CookieCache, defaultRole profiles.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			cached, _ := cache.Get(r)

			res := resolver.Resolve(r.Context(), token, cached, defaultRole)
			switch {
			case res.UpdateCache:
				cache.Set(w, res.Session)
			case res.ClearCache:
				cache.Clear(w)
			case res.Outcome == session.Unauthenticated && cached == nil:
				// Drop any unreadable leftover cookie.
				if _, err := r.Cookie(session.CacheCookieName); err == nil {
					cache.Clear(w)
				}
			}

			if res.Session != nil {
				ctx := authz.ContextWithSession(r.Context(), res.Session)
				r = r.WithContext(ctx)
			}

			log.Ctx(r.Context()).Debug().
				Stringer("outcome", res.Outcome).
				Msg("Session resolved")
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated guards routes that need any signed-in user.
func RequireAuthenticated(next http.Handler) http.Handler {
	return RequireRole("")(next)
}

// RequireRole guards routes behind a role. The three authorization outcomes
// render distinctly: no session redirects to login, the wrong role redirects
// to the unauthorized page, a match passes through.
func RequireRole(role profiles.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := authz.SessionFromContext(r.Context())
			switch authz.Authorize(sess, authz.Requirement{Role: role}) {
			case authz.Allow:
				next.ServeHTTP(w, r)
			case authz.RedirectLogin:
				if isPageRequest(r) {
					http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
					return
				}
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			default:
				logEvent := log.Ctx(r.Context()).Warn().Str("path", r.URL.Path)
				if sess != nil {
					logEvent = logEvent.Str("user_id", sess.UserID).Str("role", string(sess.Role))
				}
				logEvent.Msg("Access denied: insufficient role")
				if isPageRequest(r) {
					http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
					return
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
			}
		})
	}
}

// RequireLiveSession rejects mutations carried by a cached session. Cached
// sessions only exist to avoid flicker on reads; a write must re-prove the
// identity against the provider first.
func RequireLiveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		sess := authz.SessionFromContext(r.Context())
		if !authz.RequireLive(sess) {
			log.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Mutation rejected: session not freshly validated")
			http.Error(w, "Session expired, sign in again", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isPageRequest(r *http.Request) bool {
	return r.Method == http.MethodGet && r.Header.Get("HX-Request") == ""
}

// responseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
