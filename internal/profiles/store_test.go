package profiles

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pitchside/pitchbook/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database := testutil.NewTestDB(t)
	return NewStore(database.Queries)
}

func TestFetchRoleAbsentIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	role, exists, err := store.FetchRole(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("fetch role: %v", err)
	}
	if exists {
		t.Fatalf("expected no row, got role %q", role)
	}
}

func TestCreateProfileThenFetchRole(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateProfile(ctx, "user-1", "one@example.com", RolePlayer); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	role, exists, err := store.FetchRole(ctx, "user-1")
	if err != nil {
		t.Fatalf("fetch role: %v", err)
	}
	if !exists {
		t.Fatal("expected row to exist")
	}
	if role != RolePlayer {
		t.Fatalf("expected role player, got %q", role)
	}
}

func TestCreateProfileIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateProfile(ctx, "user-1", "one@example.com", RoleOwner); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := store.CreateProfile(ctx, "user-1", "one@example.com", RolePlayer); err != nil {
		t.Fatalf("second create should be success, got: %v", err)
	}

	// The first write wins; the retry must not change the recorded role.
	role, _, err := store.FetchRole(ctx, "user-1")
	if err != nil {
		t.Fatalf("fetch role: %v", err)
	}
	if role != RoleOwner {
		t.Fatalf("expected role owner preserved, got %q", role)
	}
}

func TestCreateProfileConcurrentSingleRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.CreateProfile(ctx, "user-1", "one@example.com", RolePlayer)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent create failed: %v", err)
		}
	}

	user, err := store.FetchUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("fetch user: %v", err)
	}
	if user.Role != string(RolePlayer) {
		t.Fatalf("expected role player, got %q", user.Role)
	}
}

func TestCreateProfileConflictingEmailStaysAnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateProfile(ctx, "user-1", "shared@example.com", RolePlayer); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Different identity, same email: not idempotence, a real conflict.
	if err := store.CreateProfile(ctx, "user-2", "shared@example.com", RolePlayer); err == nil {
		t.Fatal("expected conflict error for duplicate email on another identity")
	}
}

func TestUpsertOwnerProfileNormalizesPhone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateProfile(ctx, "owner-1", "owner@example.com", RoleOwner); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if err := store.UpsertOwnerProfile(ctx, "owner-1", "FC Rovers", "020 7946 0123"); err != nil {
		t.Fatalf("upsert owner profile: %v", err)
	}

	profile, err := store.queries.GetOwnerProfile(ctx, "owner-1")
	if err != nil {
		t.Fatalf("get owner profile: %v", err)
	}
	if !profile.ContactPhone.Valid || profile.ContactPhone.String != "+442079460123" {
		t.Fatalf("expected normalized phone, got %+v", profile.ContactPhone)
	}
}

func TestUpsertOwnerProfileRejectsBadPhone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateProfile(ctx, "owner-1", "owner@example.com", RoleOwner); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	err := store.UpsertOwnerProfile(ctx, "owner-1", "FC Rovers", "not a phone")
	if !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"player", RolePlayer, true},
		{" Owner ", RoleOwner, true},
		{"ADMIN", RoleAdmin, true},
		{"coach", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
