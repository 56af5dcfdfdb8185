// Package identity wraps the hosted identity provider. All trust decisions
// about who a user is start here; role resolution lives elsewhere.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// ErrUnreachable marks errors caused by the provider being unreachable.
var ErrUnreachable = errors.New("identity provider unreachable")

// ErrInvalidCredentials marks errors returned when the provider rejects credentials.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnconfirmedIdentity marks accounts that exist but have not confirmed
// their email and therefore cannot authenticate yet.
var ErrUnconfirmedIdentity = errors.New("identity not confirmed")

// ErrIdentityExists marks sign-up attempts for an already registered email.
var ErrIdentityExists = errors.New("identity already exists")

// Identity is the provider's view of an authenticated (or registering) user.
type Identity struct {
	UserID      string // provider subject, opaque
	Email       string
	AccessToken string
	Confirmed   bool
}

// Client wraps Cognito user pool operations.
type Client struct {
	client   *cognitoidentityprovider.Client
	poolID   string
	clientID string

	mu          sync.Mutex
	subscribers map[int]func(*Identity)
	nextSubID   int
}

// NewClient creates a new identity client from pool ID and client ID.
// The region is extracted from the pool ID (format: "region_poolid").
func NewClient(poolID, clientID string) (*Client, error) {
	region, err := regionFromPoolID(poolID)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Client{
		client:      cognitoidentityprovider.NewFromConfig(awsCfg),
		poolID:      poolID,
		clientID:    clientID,
		subscribers: make(map[int]func(*Identity)),
	}, nil
}

// SignUp registers a new account. The account is unconfirmed until the
// emailed code is verified with ConfirmSignUp.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	out, err := c.client.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		return nil, mapIdentityError(err)
	}

	return &Identity{
		UserID:    aws.ToString(out.UserSub),
		Email:     email,
		Confirmed: out.UserConfirmed,
	}, nil
}

// ConfirmSignUp verifies the confirmation code sent to the account's email.
func (c *Client) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := c.client.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
	})
	if err != nil {
		return mapIdentityError(err)
	}
	return nil
}

// SignIn authenticates with email and password and returns the identity
// holding a live access token. Subscribers are notified on success.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	out, err := c.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return nil, mapIdentityError(err)
	}
	if out.AuthenticationResult == nil || out.AuthenticationResult.AccessToken == nil {
		return nil, fmt.Errorf("sign in: no authentication result for %q", email)
	}

	ident, err := c.CurrentSession(ctx, aws.ToString(out.AuthenticationResult.AccessToken))
	if err != nil {
		return nil, err
	}
	if ident == nil {
		return nil, fmt.Errorf("sign in: token rejected immediately after issuance")
	}

	c.notify(ident)
	return ident, nil
}

// CurrentSession validates an access token and returns the identity behind
// it. A missing or invalid token yields (nil, nil) - "not logged in" is not
// an error. Only connectivity problems surface as errors.
func (c *Client) CurrentSession(ctx context.Context, accessToken string) (*Identity, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, nil
	}

	out, err := c.client.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		mapped := mapIdentityError(err)
		if errors.Is(mapped, ErrInvalidCredentials) {
			return nil, nil
		}
		return nil, mapped
	}

	ident := &Identity{
		AccessToken: accessToken,
		Confirmed:   true,
	}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			ident.UserID = aws.ToString(attr.Value)
		case "email":
			ident.Email = aws.ToString(attr.Value)
		}
	}
	if ident.UserID == "" {
		ident.UserID = aws.ToString(out.Username)
	}

	return ident, nil
}

// SignOut revokes the token everywhere the provider issued it. Subscribers
// are notified with nil.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}

	_, err := c.client.GlobalSignOut(ctx, &cognitoidentityprovider.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	if err != nil {
		mapped := mapIdentityError(err)
		// Token already dead counts as signed out.
		if !errors.Is(mapped, ErrInvalidCredentials) {
			return mapped
		}
	}

	c.notify(nil)
	return nil
}

// Subscribe registers fn to run whenever the provider session transitions
// (sign-in, sign-out). fn receives the new identity, nil on sign-out. The
// returned function unsubscribes.
func (c *Client) Subscribe(fn func(*Identity)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	if c.subscribers == nil {
		c.subscribers = make(map[int]func(*Identity))
	}
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

func (c *Client) notify(ident *Identity) {
	c.mu.Lock()
	fns := make([]func(*Identity), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ident)
	}
}

func mapIdentityError(err error) error {
	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	var userNotFound *types.UserNotFoundException
	if errors.As(err, &userNotFound) {
		// Indistinguishable from a bad password on purpose.
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	var unconfirmed *types.UserNotConfirmedException
	if errors.As(err, &unconfirmed) {
		return fmt.Errorf("%w: %v", ErrUnconfirmedIdentity, err)
	}
	var userExists *types.UsernameExistsException
	if errors.As(err, &userExists) {
		return fmt.Errorf("%w: %v", ErrIdentityExists, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return err
}

func regionFromPoolID(poolID string) (string, error) {
	parts := strings.SplitN(poolID, "_", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("invalid user pool id: %q", poolID)
	}
	return parts[0], nil
}
