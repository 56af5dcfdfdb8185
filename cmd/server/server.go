package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchbook/internal/api"
	"github.com/pitchside/pitchbook/internal/api/auth"
	"github.com/pitchside/pitchbook/internal/api/authz"
	"github.com/pitchside/pitchbook/internal/api/bookings"
	"github.com/pitchside/pitchbook/internal/api/fields"
	"github.com/pitchside/pitchbook/internal/api/friends"
	"github.com/pitchside/pitchbook/internal/api/member"
	"github.com/pitchside/pitchbook/internal/api/teams"
	"github.com/pitchside/pitchbook/internal/config"
	"github.com/pitchside/pitchbook/internal/profiles"
	"github.com/pitchside/pitchbook/internal/session"
	"github.com/pitchside/pitchbook/internal/templates/layouts"
)

func newServer(cfg *config.Config, resolver *session.Resolver, cache *session.CookieCache) *http.Server {
	router := http.NewServeMux()

	// The last middleware listed wraps outermost. Session resolution runs
	// inside request ID assignment so its logs carry the request context.
	handler := api.ChainMiddleware(
		router,
		api.WithSession(resolver, cache, profiles.RolePlayer),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/fields", http.StatusSeeOther)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/unauthorized", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		sess := authz.SessionFromContext(r.Context())
		component := layouts.Base("Unauthorized", layouts.NavFrom(sess), layouts.Message("You do not have access to that page."))
		component.Render(r.Context(), w)
	})

	// Auth routes
	mux.HandleFunc("GET /auth/login", auth.HandleLoginPage)
	mux.HandleFunc("POST /auth/login", auth.HandleLogin)
	mux.HandleFunc("GET /auth/signup", auth.HandleSignupPage)
	mux.HandleFunc("POST /auth/signup", auth.HandleSignup)
	mux.HandleFunc("POST /auth/confirm", auth.HandleConfirm)
	mux.HandleFunc("POST /auth/logout", auth.HandleLogout)
	mux.HandleFunc("POST /auth/local", auth.HandleLocalLogin)
	mux.HandleFunc("GET /auth/clerk/callback", auth.HandleClerkCallback)

	// Public catalog
	mux.HandleFunc("/fields", fields.HandleFieldsPage)
	mux.HandleFunc("/fields/detail", fields.HandleFieldDetail)

	// Owner console: role-gated, and mutations require a live session.
	ownerOnly := func(h http.HandlerFunc) http.Handler {
		return api.RequireRole(profiles.RoleOwner)(api.RequireLiveSession(h))
	}
	mux.Handle("/owner/fields", ownerOnly(fields.HandleOwnerFieldsPage))
	mux.Handle("POST /owner/fields", ownerOnly(fields.HandleCreateField))
	mux.Handle("/owner/fields/update", ownerOnly(fields.HandleUpdateField))
	mux.Handle("/owner/fields/hours", ownerOnly(fields.HandleSetHours))
	mux.Handle("/owner/fields/bookings", ownerOnly(bookings.HandleOwnerFieldBookings))

	// Signed-in routes
	signedIn := func(h http.HandlerFunc) http.Handler {
		return api.RequireAuthenticated(api.RequireLiveSession(h))
	}
	// Booking mutations are player actions: a degraded session has no proven
	// role and must not pass.
	playerOnly := func(h http.HandlerFunc) http.Handler {
		return api.RequireRole(profiles.RolePlayer)(api.RequireLiveSession(h))
	}
	mux.Handle("/bookings", signedIn(bookings.HandleBookingsPage))
	mux.Handle("POST /bookings", playerOnly(bookings.HandleCreateBooking))
	mux.Handle("/bookings/cancel", playerOnly(bookings.HandleCancelBooking))

	mux.Handle("/teams", signedIn(teams.HandleTeamsPage))
	mux.Handle("POST /teams", signedIn(teams.HandleCreateTeam))
	mux.Handle("/teams/members", signedIn(teams.HandleAddMember))
	mux.Handle("/teams/members/remove", signedIn(teams.HandleRemoveMember))
	mux.Handle("/teams/leave", signedIn(teams.HandleLeaveTeam))

	mux.Handle("/friends", signedIn(friends.HandleFriendsPage))
	mux.Handle("POST /friends", signedIn(friends.HandleSendRequest))
	mux.Handle("/friends/respond", signedIn(friends.HandleRespond))

	mux.Handle("/profile", signedIn(member.HandleProfilePage))
	mux.Handle("POST /profile", signedIn(member.HandleUpdateProfile))

	// Static assets
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "build/bin/static"
	}
	fs := http.FileServer(http.Dir(staticDir))
	mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug().
			Str("path", r.URL.Path).
			Str("static_dir", staticDir).
			Msg("Static file request")
		http.StripPrefix("/static/", fs).ServeHTTP(w, r)
	}))
}
