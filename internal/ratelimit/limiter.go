// Package ratelimit throttles credential endpoints. Sign-in attempts are
// limited per account with a lockout after repeated failures; sign-ups are
// limited per IP.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	// Sign-in limits
	SignInMaxFailures  int           // Failed attempts per account before lockout (default: 5)
	SignInLockout      time.Duration // Lockout duration after max failures (default: 5m)
	SignInMaxIPPerHour int           // Sign-in attempts per IP per hour (default: 30)

	// Sign-up limits
	SignUpMaxIPPerHour int // Account creations per IP per hour (default: 10)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		SignInMaxFailures:  5,
		SignInLockout:      5 * time.Minute,
		SignInMaxIPPerHour: 30,
		SignUpMaxIPPerHour: 10,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry tracks request counts and timestamps.
type entry struct {
	count    int
	firstAt  time.Time
	lastAt   time.Time
	lockedAt time.Time // zero if not locked
}

// Limiter enforces the credential-endpoint limits. Keys are hashed so raw
// emails and IPs never sit in memory longer than a request.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.RWMutex

	signInByID map[string]*entry
	signInByIP map[string]*entry
	signUpByIP map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		signInByID:    make(map[string]*entry),
		signInByIP:    make(map[string]*entry),
		signUpByIP:    make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// CheckSignIn reports whether a sign-in attempt for this account may proceed.
// Does NOT record the attempt; call RecordSignInFailure after a bad password
// and ResetSignIn after a good one.
func (l *Limiter) CheckSignIn(identifier, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	idKey := l.hashKey("signin:id:", normalizeIdentifier(identifier))
	ipKey := l.hashKey("signin:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.signInByID[idKey]; e != nil {
		if !e.lockedAt.IsZero() {
			elapsed := now.Sub(e.lockedAt)
			if elapsed < l.config.SignInLockout {
				return LimitResult{
					Allowed:    false,
					RetryAfter: l.config.SignInLockout - elapsed,
					Reason:     "lockout",
				}
			}
			// Lockout expired, allow and let the next record reset it
		} else if e.count >= l.config.SignInMaxFailures {
			return LimitResult{
				Allowed:    false,
				RetryAfter: l.config.SignInLockout,
				Reason:     "max_failures",
			}
		}
	}

	if e := l.signInByIP[ipKey]; e != nil {
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.SignInMaxIPPerHour {
			return LimitResult{
				Allowed:    false,
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "ip_hourly_limit",
			}
		}
	}

	return LimitResult{Allowed: true}
}

// RecordSignInFailure records a failed sign-in. Returns true if this failure
// triggered the account lockout.
func (l *Limiter) RecordSignInFailure(identifier, ip string) (lockedOut bool) {
	now := l.clock.Now()
	idKey := l.hashKey("signin:id:", normalizeIdentifier(identifier))
	ipKey := l.hashKey("signin:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.signInByID[idKey]
	if e == nil {
		l.signInByID[idKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else if !e.lockedAt.IsZero() && now.Sub(e.lockedAt) >= l.config.SignInLockout {
		// Lockout expired, start over
		l.signInByID[idKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else {
		e.count++
		e.lastAt = now
		if e.count >= l.config.SignInMaxFailures && e.lockedAt.IsZero() {
			e.lockedAt = now
			lockedOut = true
		}
	}

	l.bumpIP(l.signInByIP, ipKey, now)
	return lockedOut
}

// RecordSignInAttempt counts an attempt against the per-IP budget regardless
// of outcome.
func (l *Limiter) RecordSignInAttempt(ip string) {
	now := l.clock.Now()
	ipKey := l.hashKey("signin:ip:", ip)

	l.mu.Lock()
	l.bumpIP(l.signInByIP, ipKey, now)
	l.mu.Unlock()
}

// ResetSignIn clears the failure counter after a successful sign-in.
func (l *Limiter) ResetSignIn(identifier string) {
	idKey := l.hashKey("signin:id:", normalizeIdentifier(identifier))
	l.mu.Lock()
	delete(l.signInByID, idKey)
	l.mu.Unlock()
}

// CheckSignUp reports whether this IP may create another account.
func (l *Limiter) CheckSignUp(ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	ipKey := l.hashKey("signup:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.signUpByIP[ipKey]; e != nil {
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.SignUpMaxIPPerHour {
			return LimitResult{
				Allowed:    false,
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "ip_hourly_limit",
			}
		}
	}
	return LimitResult{Allowed: true}
}

// RecordSignUp records an account creation attempt.
func (l *Limiter) RecordSignUp(ip string) {
	now := l.clock.Now()
	ipKey := l.hashKey("signup:ip:", ip)

	l.mu.Lock()
	l.bumpIP(l.signUpByIP, ipKey, now)
	l.mu.Unlock()
}

func (l *Limiter) bumpIP(m map[string]*entry, key string, now time.Time) {
	e := m[key]
	if e == nil || now.Sub(e.firstAt) >= time.Hour {
		m[key] = &entry{count: 1, firstAt: now, lastAt: now}
	} else {
		e.count++
		e.lastAt = now
	}
}

func (l *Limiter) hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeIdentifier lowercases the identifier to prevent case-based bypass.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	maxAge := l.config.SignInLockout + time.Hour
	for k, e := range l.signInByID {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.signInByID, k)
		}
	}
	for k, e := range l.signInByIP {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.signInByIP, k)
		}
	}
	for k, e := range l.signUpByIP {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.signUpByIP, k)
		}
	}
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost IP from X-Forwarded-For (added by your proxy).
// When trustProxy is false, ignores X-Forwarded-For entirely (prevents spoofing).
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			return strings.TrimSpace(parts[len(parts)-1])
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// SanitizeIdentifier masks an identifier for logging.
func SanitizeIdentifier(identifier string) string {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if strings.Contains(identifier, "@") {
		parts := strings.Split(identifier, "@")
		if len(parts[0]) > 2 {
			return parts[0][:2] + "***@" + parts[1]
		}
		return "***@" + parts[1]
	}
	if len(identifier) >= 4 {
		return "***" + identifier[len(identifier)-4:]
	}
	return "***"
}

// LogRateLimitExceeded logs a rate limit event with sanitized identifier.
func LogRateLimitExceeded(limitType, identifier, ip, reason string) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Str("type", limitType).
		Str("identifier", SanitizeIdentifier(identifier)).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Credential rate limit exceeded")
}
