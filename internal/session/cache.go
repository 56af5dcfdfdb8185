package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pitchside/pitchbook/internal/profiles"
)

// CacheCookieName is the single client-side slot the cache owns.
const CacheCookieName = "pitchbook_session"

// CookieCache is the one named client-side slot holding a serialized session.
// The payload is HMAC-signed so a tampered cookie reads as absent. It is a
// flicker-avoidance cache, never a trust source: consumers see Source ==
// SourceCached and must re-validate before state-changing actions.
type CookieCache struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

type cachedPayload struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// NewCookieCache builds the cache codec. The TTL is an explicit staleness
// bound on top of the cookie's own expiry.
func NewCookieCache(secret string, ttl time.Duration, secure bool) (*CookieCache, error) {
	if secret == "" {
		return nil, errors.New("session cache requires a secret key")
	}
	if ttl <= 0 {
		return nil, errors.New("session cache requires a positive ttl")
	}
	return &CookieCache{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}, nil
}

// Get reads the cached session from the request. Missing, tampered, or
// expired payloads all read as absent.
func (c *CookieCache) Get(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(CacheCookieName)
	if err != nil {
		return nil, false
	}

	parts := strings.SplitN(cookie.Value, ".", 2)
	if len(parts) != 2 {
		return nil, false
	}
	encodedPayload, signature := parts[0], parts[1]

	if !hmac.Equal([]byte(signature), []byte(c.sign(encodedPayload))) {
		return nil, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, false
	}

	var payload cachedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, false
	}
	if payload.ExpiresAt <= c.now().Unix() {
		return nil, false
	}
	role, ok := profiles.ParseRole(payload.Role)
	if !ok {
		return nil, false
	}

	return &Session{
		UserID:        payload.UserID,
		Email:         payload.Email,
		Role:          role,
		Authenticated: true,
		Source:        SourceCached,
	}, true
}

// Set overwrites the cache slot with the given session. The write replaces
// the whole cookie, so readers never observe a partial payload.
func (c *CookieCache) Set(w http.ResponseWriter, s *Session) {
	if s == nil || s.UserID == "" || s.Role == "" {
		return
	}

	now := c.now()
	expiresAt := now.Add(c.ttl)
	payload, err := json.Marshal(cachedPayload{
		UserID:    s.UserID,
		Email:     s.Email,
		Role:      string(s.Role),
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return
	}

	encodedPayload := base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     CacheCookieName,
		Value:    encodedPayload + "." + c.sign(encodedPayload),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(c.ttl.Seconds()),
	})
}

// Clear drops the cache slot.
func (c *CookieCache) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CacheCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (c *CookieCache) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
