package identity

import (
	"context"
	"strings"
	"sync"
)

// Provider validates an access token and returns the identity behind it.
// A missing or invalid token yields (nil, nil); only connectivity problems
// surface as errors.
type Provider interface {
	CurrentSession(ctx context.Context, accessToken string) (*Identity, error)
}

// ProviderMux routes tokens to providers by scheme prefix. A token of the
// form "scheme:rest" goes to the provider registered for "scheme"; anything
// else (bare provider tokens) goes to the fallback.
type ProviderMux struct {
	fallback Provider

	mu      sync.RWMutex
	schemes map[string]Provider
}

func NewProviderMux(fallback Provider) *ProviderMux {
	return &ProviderMux{
		fallback: fallback,
		schemes:  make(map[string]Provider),
	}
}

// Register routes tokens prefixed "scheme:" to p. The prefix is stripped
// before the provider sees the token.
func (m *ProviderMux) Register(scheme string, p Provider) {
	m.mu.Lock()
	m.schemes[scheme] = p
	m.mu.Unlock()
}

func (m *ProviderMux) CurrentSession(ctx context.Context, accessToken string) (*Identity, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, nil
	}

	if scheme, rest, ok := strings.Cut(accessToken, ":"); ok {
		m.mu.RLock()
		p := m.schemes[scheme]
		m.mu.RUnlock()
		if p != nil {
			return p.CurrentSession(ctx, rest)
		}
	}

	return m.fallback.CurrentSession(ctx, accessToken)
}
