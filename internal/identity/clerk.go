package identity

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"

	"github.com/rs/zerolog/log"
)

// ClerkProvider validates Clerk session tokens for users who signed in
// through SSO instead of the password flow. It satisfies Provider so the
// mux can route "clerk:" tokens here.
type ClerkProvider struct{}

// NewClerkProvider configures the Clerk SDK and returns the provider.
func NewClerkProvider(secretKey string) (*ClerkProvider, error) {
	if secretKey == "" {
		return nil, errors.New("clerk provider requires a secret key")
	}
	clerk.SetKey(secretKey)
	log.Info().Msg("Clerk SSO provider initialized")
	return &ClerkProvider{}, nil
}

func (p *ClerkProvider) CurrentSession(ctx context.Context, sessionToken string) (*Identity, error) {
	if sessionToken == "" {
		return nil, nil
	}

	claims, err := clerkjwt.Verify(ctx, &clerkjwt.VerifyParams{Token: sessionToken})
	if err != nil {
		if isConnectivityError(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		// Expired or forged tokens read as signed out.
		return nil, nil
	}

	u, err := clerkuser.Get(ctx, claims.Subject)
	if err != nil {
		if isConnectivityError(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		return nil, nil
	}

	return &Identity{
		UserID:      claims.Subject,
		Email:       primaryEmail(u),
		AccessToken: "clerk:" + sessionToken,
		Confirmed:   true,
	}, nil
}

func primaryEmail(u *clerk.User) string {
	if u == nil || u.PrimaryEmailAddressID == nil {
		return ""
	}
	for _, email := range u.EmailAddresses {
		if email.ID == *u.PrimaryEmailAddressID {
			return email.EmailAddress
		}
	}
	return ""
}

func isConnectivityError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
