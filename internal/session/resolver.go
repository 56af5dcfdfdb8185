package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchbook/internal/identity"
	"github.com/pitchside/pitchbook/internal/profiles"
)

// IdentityProvider is the slice of the identity client the resolver needs.
type IdentityProvider interface {
	CurrentSession(ctx context.Context, accessToken string) (*identity.Identity, error)
}

// ProfileStore is the slice of the profile store adapter the resolver needs.
type ProfileStore interface {
	FetchRole(ctx context.Context, userID string) (profiles.Role, bool, error)
	CreateProfile(ctx context.Context, userID, email string, role profiles.Role) error
}

const (
	defaultCallTimeout  = 3 * time.Second
	defaultRetryBackoff = 150 * time.Millisecond
)

// Resolver turns a raw provider token plus the cookie cache into a resolved
// session. One Resolve call walks:
//
//	Start -> CheckingLive -> {LiveFound, LiveAbsent} -> ProfileLookup
//	      -> {Resolved, Degraded, Unauthenticated}
//
// Connectivity failures never propagate; they degrade to the cached session
// or to Unauthenticated.
type Resolver struct {
	provider IdentityProvider
	store    ProfileStore

	// callTimeout bounds each external call; retryBackoff separates the
	// single store retry the resolver owns (the adapter never retries).
	callTimeout  time.Duration
	retryBackoff time.Duration
	sleep        func(context.Context, time.Duration)
}

type ResolverOption func(*Resolver)

// WithCallTimeout overrides the per-call timeout for external calls.
func WithCallTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.callTimeout = d
		}
	}
}

// WithRetryBackoff overrides the backoff before the single store retry.
func WithRetryBackoff(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.retryBackoff = d
	}
}

func NewResolver(provider IdentityProvider, store ProfileStore, options ...ResolverOption) *Resolver {
	r := &Resolver{
		provider:     provider,
		store:        store,
		callTimeout:  defaultCallTimeout,
		retryBackoff: defaultRetryBackoff,
		sleep:        sleepCtx,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Resolve produces the session for one request. accessToken is the provider
// token (possibly empty), cached is whatever the cookie cache held (possibly
// nil), defaultRole is the client-supplied default used only if a profile
// row must be created. The caller applies UpdateCache/ClearCache and must
// discard the result if its own context is already done.
func (r *Resolver) Resolve(ctx context.Context, accessToken string, cached *Session, defaultRole profiles.Role) Resolution {
	ident, err := r.currentSession(ctx, accessToken)
	if err != nil {
		// CheckingLive failed: degrade to the cache rather than erroring.
		log.Ctx(ctx).Warn().Err(err).Msg("Identity provider unavailable, falling back to cached session")
		return r.fromCache(cached)
	}

	if ident == nil {
		// LiveAbsent.
		return r.fromCache(cached)
	}

	// LiveFound -> ProfileLookup.
	role, found, err := r.fetchRoleWithRetry(ctx, ident.UserID)
	if err != nil {
		return r.storeUnavailable(ctx, ident, cached, err)
	}

	if !found {
		if defaultRole == "" {
			// No row and nothing to create one with: surface the missing
			// profile explicitly instead of defaulting silently.
			return Resolution{
				Outcome: Degraded,
				Session: &Session{
					UserID:        ident.UserID,
					Email:         ident.Email,
					Authenticated: true,
					Source:        SourceLive,
				},
			}
		}
		if err := r.createProfileWithRetry(ctx, ident, defaultRole); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("user_id", ident.UserID).Msg("Failed to create profile for live identity")
			return r.storeUnavailable(ctx, ident, cached, err)
		}
		role = defaultRole
	}

	return Resolution{
		Outcome: Resolved,
		Session: &Session{
			UserID:        ident.UserID,
			Email:         ident.Email,
			Role:          role,
			Authenticated: true,
			Source:        SourceLive,
		},
		// A live result always overwrites the cache, even when the cached
		// entry names a different user. Never merged.
		UpdateCache: true,
	}
}

func (r *Resolver) currentSession(ctx context.Context, accessToken string) (*identity.Identity, error) {
	cctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.provider.CurrentSession(cctx, accessToken)
}

func (r *Resolver) fetchRoleWithRetry(ctx context.Context, userID string) (profiles.Role, bool, error) {
	role, found, err := r.fetchRole(ctx, userID)
	if err != nil && errors.Is(err, profiles.ErrStoreUnreachable) {
		r.sleep(ctx, r.retryBackoff)
		role, found, err = r.fetchRole(ctx, userID)
	}
	return role, found, err
}

func (r *Resolver) fetchRole(ctx context.Context, userID string) (profiles.Role, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.store.FetchRole(cctx, userID)
}

func (r *Resolver) createProfileWithRetry(ctx context.Context, ident *identity.Identity, role profiles.Role) error {
	err := r.createProfile(ctx, ident, role)
	if err != nil && errors.Is(err, profiles.ErrStoreUnreachable) {
		r.sleep(ctx, r.retryBackoff)
		err = r.createProfile(ctx, ident, role)
	}
	return err
}

func (r *Resolver) createProfile(ctx context.Context, ident *identity.Identity, role profiles.Role) error {
	cctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()
	return r.store.CreateProfile(cctx, ident.UserID, ident.Email, role)
}

// storeUnavailable handles a live identity whose profile could not be read
// or created. The cached session may stand in only when it names the same
// user; a cached session for someone else is cleared, never consulted.
func (r *Resolver) storeUnavailable(ctx context.Context, ident *identity.Identity, cached *Session, cause error) Resolution {
	if cached != nil && cached.UserID == ident.UserID {
		log.Ctx(ctx).Warn().Err(cause).Str("user_id", ident.UserID).Msg("Profile store unavailable, using cached role")
		return Resolution{Outcome: Resolved, Session: cached}
	}

	res := Resolution{
		Outcome: Degraded,
		Session: &Session{
			UserID:        ident.UserID,
			Email:         ident.Email,
			Authenticated: true,
			Source:        SourceLive,
		},
	}
	if cached != nil {
		res.ClearCache = true
	}
	return res
}

func (r *Resolver) fromCache(cached *Session) Resolution {
	if cached == nil {
		return Resolution{Outcome: Unauthenticated}
	}
	// The cookie cache already enforced signature and TTL on read.
	return Resolution{Outcome: Resolved, Session: cached}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
