package auth

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// ClerkTokenScheme routes Clerk SSO sessions through the provider mux.
const ClerkTokenScheme = "clerk"

// clerkSessionCookie is the cookie Clerk's frontend sets after a hosted
// sign-in on the same domain.
const clerkSessionCookie = "__session"

var clerkEnabled bool

// InitClerk marks the SSO path as available. The provider itself is built
// in server wiring and registered on the provider mux.
func InitClerk(enabled bool) {
	clerkEnabled = enabled
	if enabled {
		log.Info().Msg("Clerk SSO callback enabled")
	}
}

// HandleClerkCallback lands after a hosted Clerk sign-in. It moves the
// Clerk session token into our token slot; the next request's session
// resolution verifies it and creates the profile row if missing.
func HandleClerkCallback(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !clerkEnabled {
		logger.Error().Msg("Clerk callback hit but SSO not configured")
		http.Error(w, "Authentication service not available", http.StatusServiceUnavailable)
		return
	}

	cookie, err := r.Cookie(clerkSessionCookie)
	if err != nil || cookie.Value == "" {
		logger.Warn().Msg("Clerk callback without a session cookie")
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	SetTokenCookie(w, ClerkTokenScheme+":"+cookie.Value)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
