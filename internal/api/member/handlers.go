// Package member serves the signed-in user's profile settings. Owners edit
// club details, players edit position and home city.
package member

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchbook/internal/api/authz"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/profiles"
	"github.com/pitchside/pitchbook/internal/session"
	"github.com/pitchside/pitchbook/internal/templates/layouts"
)

var (
	queries *dbgen.Queries
	store   *profiles.Store
)

func InitHandlers(q *dbgen.Queries, s *profiles.Store) {
	queries = q
	store = s
}

// HandleProfilePage shows the role-specific settings form.
func HandleProfilePage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	var content templ.Component
	switch sess.Role {
	case profiles.RoleOwner:
		// Missing profile row renders an empty form.
		profile, err := queries.GetOwnerProfile(r.Context(), sess.UserID)
		if err != nil {
			profile = dbgen.OwnerProfile{}
		}
		content = ownerFormComponent(sess, profile)
	case profiles.RolePlayer:
		profile, err := queries.GetPlayerProfile(r.Context(), sess.UserID)
		if err != nil {
			profile = dbgen.PlayerProfile{}
		}
		content = playerFormComponent(sess, profile)
	default:
		content = layouts.Message("Your account is still syncing. Settings become available once it completes.")
	}

	component := layouts.Base("Profile", layouts.NavFrom(sess), content)
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render profile page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleUpdateProfile persists the role-specific settings.
func HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch sess.Role {
	case profiles.RoleOwner:
		err = store.UpsertOwnerProfile(r.Context(), sess.UserID, r.FormValue("club_name"), r.FormValue("contact_phone"))
	case profiles.RolePlayer:
		err = store.UpsertPlayerProfile(r.Context(), sess.UserID, r.FormValue("position"), r.FormValue("city"))
	default:
		http.Error(w, "Profile settings are unavailable until your account finishes syncing", http.StatusConflict)
		return
	}
	if err != nil {
		if errors.Is(err, profiles.ErrInvalidPhone) {
			http.Error(w, "That phone number could not be understood", http.StatusBadRequest)
			return
		}
		logger.Error().Err(err).Msg("Failed to update profile")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().Str("user_id", sess.UserID).Str("role", string(sess.Role)).Msg("Profile updated")
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func ownerFormComponent(sess *session.Session, profile dbgen.OwnerProfile) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		phone := ""
		if profile.ContactPhone.Valid {
			phone = profile.ContactPhone.String
		}
		_, err := io.WriteString(w, fmt.Sprintf(
			`<div class="space-y-6"><h1 class="text-2xl font-semibold text-gray-900">Profile</h1>`+
				`<p class="text-sm text-gray-500">Signed in as %s</p>`+
				`<form method="post" action="/profile" class="space-y-3 rounded border bg-white p-4">`+
				`<label class="block text-sm">Club name<input type="text" name="club_name" value="%s" class="mt-1 w-full rounded border px-3 py-2"></label>`+
				`<label class="block text-sm">Contact phone<input type="tel" name="contact_phone" value="%s" class="mt-1 w-full rounded border px-3 py-2"></label>`+
				`<button type="submit" class="rounded bg-green-700 px-4 py-2 text-white">Save</button></form></div>`,
			html.EscapeString(sess.Email),
			html.EscapeString(profile.ClubName),
			html.EscapeString(phone),
		))
		return err
	})
}

func playerFormComponent(sess *session.Session, profile dbgen.PlayerProfile) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, fmt.Sprintf(
			`<div class="space-y-6"><h1 class="text-2xl font-semibold text-gray-900">Profile</h1>`+
				`<p class="text-sm text-gray-500">Signed in as %s</p>`+
				`<form method="post" action="/profile" class="space-y-3 rounded border bg-white p-4">`+
				`<label class="block text-sm">Position<input type="text" name="position" value="%s" placeholder="striker, keeper" class="mt-1 w-full rounded border px-3 py-2"></label>`+
				`<label class="block text-sm">City<input type="text" name="city" value="%s" class="mt-1 w-full rounded border px-3 py-2"></label>`+
				`<button type="submit" class="rounded bg-green-700 px-4 py-2 text-white">Save</button></form></div>`,
			html.EscapeString(sess.Email),
			html.EscapeString(profile.Position),
			html.EscapeString(profile.City),
		))
		return err
	})
}
