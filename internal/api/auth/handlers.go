package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/pitchside/pitchbook/internal/api/authz"
	"github.com/pitchside/pitchbook/internal/config"
	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
	"github.com/pitchside/pitchbook/internal/identity"
	"github.com/pitchside/pitchbook/internal/profiles"
	"github.com/pitchside/pitchbook/internal/ratelimit"
	"github.com/pitchside/pitchbook/internal/session"
	"github.com/pitchside/pitchbook/internal/templates/layouts"
)

// IdentityService is the slice of the identity client the handlers use.
type IdentityService interface {
	SignUp(ctx context.Context, email, password string) (*identity.Identity, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignIn(ctx context.Context, email, password string) (*identity.Identity, error)
	SignOut(ctx context.Context, accessToken string) error
}

var (
	queries        *dbgen.Queries
	identityClient IdentityService
	profileStore   *profiles.Store
	limiter        *ratelimit.Limiter
	appConfig      *config.Config

	// Coarse global throttle on credential endpoints, on top of the
	// per-account limiter.
	authThrottle = rate.NewLimiter(rate.Limit(100), 10)
)

func InitHandlers(cfg *config.Config, q *dbgen.Queries, client IdentityService, store *profiles.Store, l *ratelimit.Limiter) {
	appConfig = cfg
	queries = q
	identityClient = client
	profileStore = store
	limiter = l
}

func HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if sess := authz.SessionFromContext(r.Context()); sess != nil && sess.Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	component := layouts.Base("Sign in", nil, loginFormComponent(""))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render login page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !authThrottle.Allow() {
		renderLoginError(w, r, "Too many attempts, try again later", http.StatusTooManyRequests)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		renderLoginError(w, r, "Email and password are required", http.StatusBadRequest)
		return
	}

	ip := ratelimit.GetClientIP(r, appConfig.App.Environment != "development")
	if result := limiter.CheckSignIn(email, ip); !result.Allowed {
		ratelimit.LogRateLimitExceeded("signin", email, ip, result.Reason)
		renderLoginError(w, r, "Too many attempts, try again later", http.StatusTooManyRequests)
		return
	}
	limiter.RecordSignInAttempt(ip)

	ident, err := identityClient.SignIn(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			if locked := limiter.RecordSignInFailure(email, ip); locked {
				logger.Warn().Str("identifier", ratelimit.SanitizeIdentifier(email)).Msg("Account locked out after repeated failures")
			}
			renderLoginError(w, r, "Incorrect email or password", http.StatusUnauthorized)
		case errors.Is(err, identity.ErrUnconfirmedIdentity):
			renderConfirmPage(w, r, email, "Confirm your email to finish signing up")
		case errors.Is(err, identity.ErrUnreachable):
			logger.Warn().Err(err).Msg("Identity provider unreachable during sign-in")
			renderLoginError(w, r, "Sign-in is temporarily unavailable, try again shortly", http.StatusServiceUnavailable)
		default:
			logger.Error().Err(err).Msg("Sign-in failed")
			renderLoginError(w, r, "Something went wrong, try again", http.StatusInternalServerError)
		}
		return
	}

	limiter.ResetSignIn(email)
	SetTokenCookie(w, ident.AccessToken)
	logger.Info().Str("user_id", ident.UserID).Msg("User signed in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func HandleSignupPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	component := layouts.Base("Sign up", nil, signupFormComponent(""))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render signup page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func HandleSignup(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !authThrottle.Allow() {
		renderSignupError(w, r, "Too many attempts, try again later", http.StatusTooManyRequests)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	role, roleOK := profiles.ParseRole(r.FormValue("role"))
	if email == "" || password == "" {
		renderSignupError(w, r, "Email and password are required", http.StatusBadRequest)
		return
	}
	if !roleOK || role == profiles.RoleAdmin {
		renderSignupError(w, r, "Choose whether you play or run a field", http.StatusBadRequest)
		return
	}

	ip := ratelimit.GetClientIP(r, appConfig.App.Environment != "development")
	if result := limiter.CheckSignUp(ip); !result.Allowed {
		ratelimit.LogRateLimitExceeded("signup", email, ip, result.Reason)
		renderSignupError(w, r, "Too many sign-ups from this network, try again later", http.StatusTooManyRequests)
		return
	}
	limiter.RecordSignUp(ip)

	ident, err := identityClient.SignUp(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrIdentityExists):
			renderSignupError(w, r, "An account with that email already exists", http.StatusConflict)
		case errors.Is(err, identity.ErrUnreachable):
			logger.Warn().Err(err).Msg("Identity provider unreachable during sign-up")
			renderSignupError(w, r, "Sign-up is temporarily unavailable, try again shortly", http.StatusServiceUnavailable)
		default:
			logger.Error().Err(err).Msg("Sign-up failed")
			renderSignupError(w, r, "Something went wrong, try again", http.StatusInternalServerError)
		}
		return
	}

	// Record the chosen role now. If this write fails the resolver recreates
	// the profile on first sign-in, defaulting to player, so an owner signup
	// losing this write is worth the error log.
	if err := profileStore.CreateProfile(r.Context(), ident.UserID, email, role); err != nil {
		logger.Error().Err(err).Str("user_id", ident.UserID).Str("role", string(role)).Msg("Failed to store profile at sign-up")
	}

	logger.Info().Str("user_id", ident.UserID).Str("role", string(role)).Msg("User signed up")
	renderConfirmPage(w, r, email, "We emailed you a confirmation code")
}

func HandleConfirm(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	code := strings.TrimSpace(r.FormValue("code"))
	if email == "" || code == "" {
		renderConfirmPage(w, r, email, "Email and code are required")
		return
	}

	if err := identityClient.ConfirmSignUp(r.Context(), email, code); err != nil {
		switch {
		case errors.Is(err, identity.ErrUnreachable):
			logger.Warn().Err(err).Msg("Identity provider unreachable during confirmation")
			renderConfirmPage(w, r, email, "Confirmation is temporarily unavailable, try again shortly")
		default:
			renderConfirmPage(w, r, email, "That code did not match, check the email and try again")
		}
		return
	}

	logger.Info().Str("identifier", ratelimit.SanitizeIdentifier(email)).Msg("Account confirmed")
	component := layouts.Base("Sign in", nil, loginFormComponent("Account confirmed, sign in to continue"))
	if err := component.Render(r.Context(), w); err != nil {
		logger.Error().Err(err).Msg("Failed to render login page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func HandleLogout(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := TokenFromRequest(r)
	// Scheme-prefixed tokens (local, clerk) have no provider-side session to
	// revoke; dropping the cookies signs them out.
	if token != "" && !strings.Contains(token, ":") {
		if err := identityClient.SignOut(r.Context(), token); err != nil {
			logger.Warn().Err(err).Msg("Provider sign-out failed, clearing cookies anyway")
		}
	}

	ClearTokenCookie(w)
	clearSessionCacheCookie(w)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// Sign-out must always clear the cached session, even when the provider
// cannot be reached.
func clearSessionCacheCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CacheCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func renderLoginError(w http.ResponseWriter, r *http.Request, message string, status int) {
	w.WriteHeader(status)
	component := layouts.Base("Sign in", nil, loginFormComponent(message))
	if err := component.Render(r.Context(), w); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to render login page")
	}
}

func renderSignupError(w http.ResponseWriter, r *http.Request, message string, status int) {
	w.WriteHeader(status)
	component := layouts.Base("Sign up", nil, signupFormComponent(message))
	if err := component.Render(r.Context(), w); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to render signup page")
	}
}

func renderConfirmPage(w http.ResponseWriter, r *http.Request, email, message string) {
	component := layouts.Base("Confirm your email", nil, confirmFormComponent(email, message))
	if err := component.Render(r.Context(), w); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to render confirmation page")
	}
}

func loginFormComponent(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="mx-auto max-w-sm space-y-4"><h1 class="text-xl font-semibold">Sign in</h1>`+
			buildNoticeHTML(message)+
			`<form method="post" action="/auth/login" class="space-y-3">`+
			`<input type="email" name="email" placeholder="Email" required class="w-full rounded border px-3 py-2">`+
			`<input type="password" name="password" placeholder="Password" required class="w-full rounded border px-3 py-2">`+
			`<button type="submit" class="w-full rounded bg-green-700 px-3 py-2 text-white">Sign in</button></form>`+
			`<p class="text-sm text-gray-500">New here? <a href="/auth/signup" class="text-green-700">Create an account</a></p></div>`)
		return err
	})
}

func signupFormComponent(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="mx-auto max-w-sm space-y-4"><h1 class="text-xl font-semibold">Create an account</h1>`+
			buildNoticeHTML(message)+
			`<form method="post" action="/auth/signup" class="space-y-3">`+
			`<input type="email" name="email" placeholder="Email" required class="w-full rounded border px-3 py-2">`+
			`<input type="password" name="password" placeholder="Password" required minlength="8" class="w-full rounded border px-3 py-2">`+
			`<select name="role" class="w-full rounded border px-3 py-2">`+
			`<option value="player">I want to book fields</option>`+
			`<option value="owner">I run a field</option></select>`+
			`<button type="submit" class="w-full rounded bg-green-700 px-3 py-2 text-white">Sign up</button></form>`+
			`<p class="text-sm text-gray-500">Already registered? <a href="/auth/login" class="text-green-700">Sign in</a></p></div>`)
		return err
	})
}

func confirmFormComponent(email, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="mx-auto max-w-sm space-y-4"><h1 class="text-xl font-semibold">Confirm your email</h1>`+
			buildNoticeHTML(message)+
			`<form method="post" action="/auth/confirm" class="space-y-3">`+
			fmt.Sprintf(`<input type="email" name="email" value="%s" required class="w-full rounded border px-3 py-2">`, html.EscapeString(email))+
			`<input type="text" name="code" placeholder="Confirmation code" required class="w-full rounded border px-3 py-2">`+
			`<button type="submit" class="w-full rounded bg-green-700 px-3 py-2 text-white">Confirm</button></form></div>`)
		return err
	})
}

func buildNoticeHTML(message string) string {
	if message == "" {
		return ""
	}
	return fmt.Sprintf(`<div class="rounded bg-yellow-50 px-3 py-2 text-sm text-yellow-800">%s</div>`, html.EscapeString(message))
}
