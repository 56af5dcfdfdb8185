package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/identity"
)

// LocalTokenScheme routes bcrypt-backed development logins through the
// provider mux. Tokens look like "local:<user id>".
const LocalTokenScheme = "local"

// LocalProvider resolves "local:" tokens against the users table so the
// whole session pipeline can be exercised without a hosted provider. Wire
// it only when auth.local_login is enabled, which config restricts to
// development.
type LocalProvider struct {
	queries *dbgen.Queries
}

func NewLocalProvider(q *dbgen.Queries) *LocalProvider {
	return &LocalProvider{queries: q}
}

func (p *LocalProvider) CurrentSession(ctx context.Context, token string) (*identity.Identity, error) {
	userID := strings.TrimSpace(token)
	if userID == "" {
		return nil, nil
	}

	user, err := p.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", identity.ErrUnreachable, err)
	}

	return &identity.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: LocalTokenScheme + ":" + user.ID,
		Confirmed:   true,
	}, nil
}

// HandleLocalLogin signs in against the local login table. 404 unless
// local login is enabled.
func HandleLocalLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if appConfig == nil || !appConfig.Auth.LocalLogin {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		renderLoginError(w, r, "Email and password are required", http.StatusBadRequest)
		return
	}

	login, err := queries.GetLocalLogin(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			renderLoginError(w, r, "Incorrect email or password", http.StatusUnauthorized)
			return
		}
		logger.Error().Err(err).Msg("Local login lookup failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !VerifyPassword(login.PasswordHash, password) {
		renderLoginError(w, r, "Incorrect email or password", http.StatusUnauthorized)
		return
	}

	SetTokenCookie(w, LocalTokenScheme+":"+login.UserID)
	logger.Info().Str("user_id", login.UserID).Msg("Local development sign-in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
