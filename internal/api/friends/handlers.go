// Package friends implements the friend graph: requests by email, with the
// addressee accepting or declining.
package friends

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchbook/internal/api/authz"
	"github.com/pitchside/pitchbook/internal/db"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/templates/layouts"
)

var queries *dbgen.Queries

func InitHandlers(d *db.DB) {
	queries = d.Queries
}

// HandleFriendsPage shows accepted friends and requests waiting on the
// signed-in user.
func HandleFriendsPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	friends, err := queries.ListFriends(r.Context(), sess.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list friends")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pending, err := queries.ListPendingRequests(r.Context(), sess.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list pending requests")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	requesters := make(map[string]string, len(pending))
	for _, req := range pending {
		user, err := queries.GetUserByID(r.Context(), req.RequesterID)
		if err == nil {
			requesters[req.RequesterID] = user.Email
		}
	}

	component := layouts.Base("Friends", layouts.NavFrom(sess), friendsComponent(friends, pending, requesters))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render friends page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleSendRequest creates a pending friend request addressed by email.
// A friendship in either direction, whatever its status, blocks a new one.
func HandleSendRequest(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	friendEmail := strings.TrimSpace(r.FormValue("email"))
	if friendEmail == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}

	addressee, err := queries.GetUserByEmail(r.Context(), friendEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "No account with that email", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Msg("Failed to look up user")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if addressee.ID == sess.UserID {
		http.Error(w, "You cannot befriend yourself", http.StatusBadRequest)
		return
	}

	_, err = queries.GetFriendship(r.Context(), dbgen.GetFriendshipParams{
		UserA: sess.UserID,
		UserB: addressee.ID,
	})
	if err == nil {
		http.Error(w, "A request between you already exists", http.StatusConflict)
		return
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msg("Failed to check friendship")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := queries.CreateFriendRequest(r.Context(), dbgen.CreateFriendRequestParams{
		RequesterID: sess.UserID,
		AddresseeID: addressee.ID,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to create friend request")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().Str("requester_id", sess.UserID).Str("addressee_id", addressee.ID).Msg("Friend request sent")
	http.Redirect(w, r, "/friends", http.StatusSeeOther)
}

// HandleRespond accepts or declines a pending request. Only the addressee
// may respond; the update matches pending rows only, so repeat responses
// change nothing.
func HandleRespond(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requesterID := strings.TrimSpace(r.FormValue("requester_id"))
	if requesterID == "" {
		http.Error(w, "requester_id is required", http.StatusBadRequest)
		return
	}

	var status string
	switch r.FormValue("action") {
	case "accept":
		status = "accepted"
	case "decline":
		status = "declined"
	default:
		http.Error(w, "action must be accept or decline", http.StatusBadRequest)
		return
	}

	if err := queries.SetFriendRequestStatus(r.Context(), dbgen.SetFriendRequestStatusParams{
		Status:      status,
		RequesterID: requesterID,
		AddresseeID: sess.UserID,
	}); err != nil {
		logger.Error().Err(err).Str("requester_id", requesterID).Msg("Failed to update friend request")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().Str("requester_id", requesterID).Str("status", status).Msg("Friend request updated")
	http.Redirect(w, r, "/friends", http.StatusSeeOther)
}

func friendsComponent(friends []dbgen.User, pending []dbgen.Friendship, requesters map[string]string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="space-y-6"><h1 class="text-2xl font-semibold text-gray-900">Friends</h1>`); err != nil {
			return err
		}
		if _, err := io.WriteString(w, buildPendingHTML(pending, requesters)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, buildFriendListHTML(friends)); err != nil {
			return err
		}
		if _, err := io.WriteString(w, buildRequestFormHTML()); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func buildPendingHTML(pending []dbgen.Friendship, requesters map[string]string) string {
	if len(pending) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(`<div class="rounded border bg-white p-4"><h2 class="font-medium text-gray-900">Requests</h2><ul class="mt-2 text-sm text-gray-600">`)
	for _, req := range pending {
		label := requesters[req.RequesterID]
		if label == "" {
			label = req.RequesterID
		}
		fmt.Fprintf(&builder,
			`<li>%s <form method="post" action="/friends/respond" class="inline"><input type="hidden" name="requester_id" value="%s">`+
				`<button type="submit" name="action" value="accept" class="text-xs text-green-700">accept</button> `+
				`<button type="submit" name="action" value="decline" class="text-xs text-red-600">decline</button></form></li>`,
			html.EscapeString(label), html.EscapeString(req.RequesterID))
	}
	builder.WriteString(`</ul></div>`)
	return builder.String()
}

func buildFriendListHTML(friends []dbgen.User) string {
	if len(friends) == 0 {
		return `<div class="rounded border border-dashed p-6 text-center text-sm text-gray-500">No friends yet.</div>`
	}

	var builder strings.Builder
	builder.WriteString(`<ul class="rounded border bg-white p-4 text-sm text-gray-600">`)
	for _, friend := range friends {
		fmt.Fprintf(&builder, `<li>%s</li>`, html.EscapeString(friend.Email))
	}
	builder.WriteString(`</ul>`)
	return builder.String()
}

func buildRequestFormHTML() string {
	return `<form method="post" action="/friends" class="flex gap-2">` +
		`<input type="email" name="email" placeholder="Add by email" required class="rounded border px-3 py-2">` +
		`<button type="submit" class="rounded bg-green-700 px-4 py-2 text-white">Send request</button></form>`
}
