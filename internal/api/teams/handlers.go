// Package teams manages player squads: a captain creates a team and curates
// its roster.
package teams

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

	"github.com/pitchside/pitchbook/internal/api/apiutil"
	"github.com/pitchside/pitchbook/internal/api/authz"
	"github.com/pitchside/pitchbook/internal/db"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/templates/layouts"
)

var (
	database *db.DB
	queries  *dbgen.Queries
)

func InitHandlers(d *db.DB) {
	database = d
	queries = d.Queries
}

// HandleTeamsPage lists the signed-in user's teams with their rosters.
func HandleTeamsPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	teams, err := queries.ListTeamsForUser(r.Context(), sess.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list teams")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rosters := make(map[int64][]dbgen.User, len(teams))
	for _, team := range teams {
		members, err := queries.ListTeamMembers(r.Context(), team.ID)
		if err != nil {
			logger.Error().Err(err).Int64("team_id", team.ID).Msg("Failed to list team members")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		rosters[team.ID] = members
	}

	component := layouts.Base("Teams", layouts.NavFrom(sess), teamsComponent(sess.UserID, teams, rosters))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render teams page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

// HandleCreateTeam creates a team and enrolls the captain, atomically.
func HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "Team name is required", http.StatusBadRequest)
		return
	}

	err := database.RunInTx(r.Context(), func(tx *db.DB) error {
		team, err := tx.Queries.CreateTeam(r.Context(), dbgen.CreateTeamParams{
			Name:      name,
			CaptainID: sess.UserID,
		})
		if err != nil {
			return err
		}
		return tx.Queries.AddTeamMember(r.Context(), dbgen.AddTeamMemberParams{
			TeamID: team.ID,
			UserID: sess.UserID,
		})
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create team")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	logger.Info().Str("captain_id", sess.UserID).Str("name", name).Msg("Team created")
	http.Redirect(w, r, "/teams", http.StatusSeeOther)
}

// HandleAddMember adds a user to the roster by email. Captain only.
func HandleAddMember(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	teamID, err := apiutil.ParsePositiveInt64Field(r.FormValue("team_id"), "team_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	memberEmail := strings.TrimSpace(r.FormValue("email"))
	if memberEmail == "" {
		http.Error(w, "Email is required", http.StatusBadRequest)
		return
	}

	if team := loadTeamForCaptain(w, r, teamID, sess.UserID); team == nil {
		return
	}

	member, err := queries.GetUserByEmail(r.Context(), memberEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "No account with that email", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Msg("Failed to look up user")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := queries.AddTeamMember(r.Context(), dbgen.AddTeamMemberParams{
		TeamID: teamID,
		UserID: member.ID,
	}); err != nil {
		// Re-adding an existing member is a no-op to the user.
		logger.Debug().Err(err).Int64("team_id", teamID).Msg("Add team member insert failed")
	}

	http.Redirect(w, r, "/teams", http.StatusSeeOther)
}

// HandleRemoveMember removes a user from the roster. Captain only; the
// captain cannot remove themselves.
func HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	teamID, err := apiutil.ParsePositiveInt64Field(r.FormValue("team_id"), "team_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID := strings.TrimSpace(r.FormValue("user_id"))
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	team := loadTeamForCaptain(w, r, teamID, sess.UserID)
	if team == nil {
		return
	}
	if userID == team.CaptainID {
		http.Error(w, "The captain cannot leave their own team", http.StatusBadRequest)
		return
	}

	if err := queries.RemoveTeamMember(r.Context(), dbgen.RemoveTeamMemberParams{
		TeamID: teamID,
		UserID: userID,
	}); err != nil {
		logger.Error().Err(err).Int64("team_id", teamID).Msg("Failed to remove team member")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/teams", http.StatusSeeOther)
}

// HandleLeaveTeam removes the signed-in user from a roster. Captains must
// keep their team.
func HandleLeaveTeam(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	sess := authz.SessionFromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	teamID, err := apiutil.ParsePositiveInt64Field(r.FormValue("team_id"), "team_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	team, err := queries.GetTeam(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logger.Error().Err(err).Int64("team_id", teamID).Msg("Failed to load team")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if team.CaptainID == sess.UserID {
		http.Error(w, "The captain cannot leave their own team", http.StatusBadRequest)
		return
	}

	if err := queries.RemoveTeamMember(r.Context(), dbgen.RemoveTeamMemberParams{
		TeamID: teamID,
		UserID: sess.UserID,
	}); err != nil {
		logger.Error().Err(err).Int64("team_id", teamID).Msg("Failed to leave team")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/teams", http.StatusSeeOther)
}

// loadTeamForCaptain fetches the team and writes the error response itself
// when the team is missing or the caller is not its captain.
func loadTeamForCaptain(w http.ResponseWriter, r *http.Request, teamID int64, userID string) *dbgen.Team {
	team, err := queries.GetTeam(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return nil
		}
		log.Ctx(r.Context()).Error().Err(err).Int64("team_id", teamID).Msg("Failed to load team")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	if team.CaptainID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil
	}
	return &team
}

func teamsComponent(viewerID string, teams []dbgen.Team, rosters map[int64][]dbgen.User) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="space-y-6"><h1 class="text-2xl font-semibold text-gray-900">Teams</h1>`); err != nil {
			return err
		}
		if len(teams) == 0 {
			if _, err := io.WriteString(w, `<div class="rounded border border-dashed p-6 text-center text-sm text-gray-500">You are not on a team yet.</div>`); err != nil {
				return err
			}
		}
		for _, team := range teams {
			if _, err := io.WriteString(w, buildTeamCardHTML(viewerID, team, rosters[team.ID])); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, buildCreateTeamFormHTML()); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

func buildTeamCardHTML(viewerID string, team dbgen.Team, members []dbgen.User) string {
	var builder strings.Builder
	isCaptain := viewerID == team.CaptainID

	fmt.Fprintf(&builder, `<div class="rounded border bg-white p-4"><h2 class="font-medium text-gray-900">%s</h2><ul class="mt-2 text-sm text-gray-600">`,
		html.EscapeString(team.Name))
	for _, member := range members {
		badge := ""
		if member.ID == team.CaptainID {
			badge = ` <span class="text-xs text-gray-400">(captain)</span>`
		}
		remove := ""
		if isCaptain && member.ID != team.CaptainID {
			remove = fmt.Sprintf(
				` <form method="post" action="/teams/members/remove" class="inline"><input type="hidden" name="team_id" value="%d">`+
					`<input type="hidden" name="user_id" value="%s"><button type="submit" class="text-xs text-red-600">remove</button></form>`,
				team.ID, html.EscapeString(member.ID))
		}
		fmt.Fprintf(&builder, `<li>%s%s%s</li>`, html.EscapeString(member.Email), badge, remove)
	}
	builder.WriteString(`</ul>`)

	if isCaptain {
		fmt.Fprintf(&builder,
			`<form method="post" action="/teams/members" class="mt-3 flex gap-2"><input type="hidden" name="team_id" value="%d">`+
				`<input type="email" name="email" placeholder="Invite by email" required class="rounded border px-3 py-1">`+
				`<button type="submit" class="rounded bg-green-700 px-3 py-1 text-white">Add</button></form>`,
			team.ID)
	} else {
		fmt.Fprintf(&builder,
			`<form method="post" action="/teams/leave" class="mt-3"><input type="hidden" name="team_id" value="%d">`+
				`<button type="submit" class="text-sm text-red-600">Leave team</button></form>`,
			team.ID)
	}
	builder.WriteString(`</div>`)
	return builder.String()
}

func buildCreateTeamFormHTML() string {
	return `<form method="post" action="/teams" class="flex gap-2">` +
		`<input type="text" name="name" placeholder="New team name" required class="rounded border px-3 py-2">` +
		`<button type="submit" class="rounded bg-green-700 px-4 py-2 text-white">Create team</button></form>`
}
