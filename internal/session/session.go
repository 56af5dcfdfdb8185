// Package session resolves "who is this user and what can they do" from the
// identity provider, the profile store, and a client-side cookie cache.
package session

import (
	"github.com/pitchside/pitchbook/internal/profiles"
)

// Source records whether a session came from a fresh provider check or from
// the local fallback cache.
type Source string

const (
	SourceLive   Source = "live"
	SourceCached Source = "cached"
)

// Session is the consolidated view of an authenticated user. It is derived
// on every resolution, never persisted on its own.
type Session struct {
	UserID        string
	Email         string
	Role          profiles.Role
	Authenticated bool
	Source        Source
}

// Live reports whether the session was validated against the identity
// provider within this resolution. Cached sessions exist to avoid redirect
// flicker between navigations and must not authorize state-changing
// operations.
func (s *Session) Live() bool {
	return s != nil && s.Authenticated && s.Source == SourceLive
}

// Outcome is the three-valued result of a resolution. It is a normal result
// type, not an error: connectivity failures degrade, they do not propagate.
type Outcome int

const (
	// Unauthenticated means no live identity and no usable cached session.
	Unauthenticated Outcome = iota
	// Resolved means an authenticated session with a known role.
	Resolved
	// Degraded means authenticated but role-indeterminate: the profile row
	// could not be read or created. No role-gated action may proceed.
	Degraded
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Degraded:
		return "degraded"
	default:
		return "unauthenticated"
	}
}

// Resolution is what a single Resolve call produces. UpdateCache asks the
// caller to overwrite the cookie cache with Session; ClearCache asks the
// caller to drop it (live identity contradicted the cached one, or sign-out).
// The two are never both set.
type Resolution struct {
	Outcome     Outcome
	Session     *Session
	UpdateCache bool
	ClearCache  bool
}
