// Package authz decides whether a resolved session may reach a route. The
// decision is a pure function of the session and the route's requirement so
// every surface (page handlers, API handlers, jobs) renders the same three
// outcomes the same way.
package authz

import (
	"context"

	"github.com/pitchside/pitchbook/internal/profiles"
	"github.com/pitchside/pitchbook/internal/session"
)

// Decision is the guard verdict for one request.
type Decision int

const (
	// Allow lets the request through to the handler.
	Allow Decision = iota
	// RedirectLogin sends the visitor to the sign-in page.
	RedirectLogin
	// RedirectUnauthorized sends an authenticated user without the required
	// role to the unauthorized page. Never the login page: re-authenticating
	// would not change the answer.
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	default:
		return "redirect_unauthorized"
	}
}

// Requirement describes what a route demands. The zero value means the route
// only needs an authenticated session, any role.
type Requirement struct {
	Role profiles.Role
}

// Authorize evaluates a session against a route requirement.
//
// An unauthenticated (nil or unresolved) session always redirects to login.
// An authenticated session with no role requirement is allowed, including a
// degraded role-indeterminate one. A role requirement needs a matching role;
// a degraded session cannot prove one, so it is treated as unauthorized
// rather than unauthenticated.
func Authorize(s *session.Session, req Requirement) Decision {
	if s == nil || !s.Authenticated {
		return RedirectLogin
	}
	if req.Role == "" {
		return Allow
	}
	if s.Role == req.Role {
		return Allow
	}
	return RedirectUnauthorized
}

// RequireLive reports whether the session may authorize a state-changing
// operation. Cached sessions render pages but never authorize mutations.
func RequireLive(s *session.Session) bool {
	return s.Live()
}

type contextKey int

const sessionKey contextKey = iota

// ContextWithSession attaches the resolved session to the request context.
func ContextWithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session attached by the middleware, or nil.
func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}
