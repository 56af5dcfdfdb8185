package auth

import (
	"net/http"
	"time"
)

// tokenCookieName holds the provider access token between requests. The
// session middleware revalidates it against the provider on every request;
// the cookie itself proves nothing.
const tokenCookieName = "pitchbook_token"

const tokenCookieTTL = 24 * time.Hour

// TokenFromRequest returns the provider token carried by the request, or "".
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(tokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetTokenCookie stores the provider token. Expiry is a housekeeping bound;
// a revoked token reads as signed out regardless of the cookie's lifetime.
func SetTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(tokenCookieTTL),
		MaxAge:   int(tokenCookieTTL.Seconds()),
	})
}

// ClearTokenCookie drops the provider token.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecureCookie(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func isSecureCookie() bool {
	return appConfig == nil || appConfig.App.Environment != "development"
}
