package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

func TestMapIdentityErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not authorized", &types.NotAuthorizedException{}, ErrInvalidCredentials},
		{"user not found", &types.UserNotFoundException{}, ErrInvalidCredentials},
		{"unconfirmed", &types.UserNotConfirmedException{}, ErrUnconfirmedIdentity},
		{"exists", &types.UsernameExistsException{}, ErrIdentityExists},
		{"deadline", context.DeadlineExceeded, ErrUnreachable},
		{"wrapped deadline", fmt.Errorf("request: %w", context.DeadlineExceeded), ErrUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapIdentityError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMapIdentityErrorPassesUnknownThrough(t *testing.T) {
	unknown := errors.New("something else")
	got := mapIdentityError(unknown)
	if !errors.Is(got, unknown) {
		t.Fatalf("expected unknown error passed through, got %v", got)
	}
	for _, sentinel := range []error{ErrUnreachable, ErrInvalidCredentials, ErrUnconfirmedIdentity} {
		if errors.Is(got, sentinel) {
			t.Fatalf("unknown error must not match %v", sentinel)
		}
	}
}

func TestSubscribeNotifyAndUnsubscribe(t *testing.T) {
	c := &Client{subscribers: make(map[int]func(*Identity))}

	var got []*Identity
	unsubscribe := c.Subscribe(func(ident *Identity) {
		got = append(got, ident)
	})

	ident := &Identity{UserID: "user-a", Email: "a@example.com"}
	c.notify(ident)
	c.notify(nil)

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0] != ident {
		t.Fatalf("expected first notification to carry the identity")
	}
	if got[1] != nil {
		t.Fatalf("expected second notification to be nil (sign-out)")
	}

	unsubscribe()
	c.notify(ident)
	if len(got) != 2 {
		t.Fatalf("expected no notifications after unsubscribe, got %d", len(got))
	}
}

func TestRegionFromPoolID(t *testing.T) {
	region, err := regionFromPoolID("eu-west-1_abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if region != "eu-west-1" {
		t.Fatalf("expected eu-west-1, got %q", region)
	}

	if _, err := regionFromPoolID("nounderscore"); err == nil {
		t.Fatal("expected error for malformed pool id")
	}
	if _, err := regionFromPoolID("_pool"); err == nil {
		t.Fatal("expected error for empty region")
	}
}
