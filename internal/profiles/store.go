// Package profiles adapts the users table (and role-specific profile rows)
// behind a thin, observable boundary. The adapter performs no retries; retry
// policy belongs to the caller.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/mattn/go-sqlite3"

	dbgen "github.com/pitchside/pitchbook/internal/db/generated"
)

// Role is the application-level role recorded for an identity. It is never
// guessed: authorization always reads the stored value.
type Role string

const (
	RolePlayer Role = "player"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

// ParseRole validates a client-supplied role string. Client input is only
// ever accepted as a profile-creation default, never as an authorization
// input.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.TrimSpace(strings.ToLower(s))) {
	case RolePlayer:
		return RolePlayer, true
	case RoleOwner:
		return RoleOwner, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// ErrStoreUnreachable marks errors caused by the data store being unreachable.
var ErrStoreUnreachable = errors.New("profile store unreachable")

// ErrConflict marks uniqueness violations.
var ErrConflict = errors.New("profile conflict")

// ErrNotFound marks reads of rows that do not exist.
var ErrNotFound = errors.New("profile not found")

// ErrInvalidPhone marks contact phones that cannot be normalized to E.164.
var ErrInvalidPhone = errors.New("invalid contact phone")

// Store reads and writes profile rows through the generated query layer.
type Store struct {
	queries *dbgen.Queries
}

func NewStore(q *dbgen.Queries) *Store {
	return &Store{queries: q}
}

// FetchRole returns the recorded role for userID. Absence of a row is a
// valid, non-error outcome reported through the bool.
func (s *Store) FetchRole(ctx context.Context, userID string) (Role, bool, error) {
	role, err := s.queries.GetUserRole(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, mapStoreError(err)
	}
	return Role(role), true, nil
}

// CreateProfile inserts the users row for a newly seen identity. It is
// idempotent for the same userID: a uniqueness violation where the row
// already exists is treated as success, so two concurrent resolutions cannot
// produce duplicates or spurious failures.
func (s *Store) CreateProfile(ctx context.Context, userID, email string, role Role) error {
	err := s.queries.CreateUser(ctx, dbgen.CreateUserParams{
		ID:    userID,
		Email: email,
		Role:  string(role),
	})
	if err == nil {
		return nil
	}

	mapped := mapStoreError(err)
	if !errors.Is(mapped, ErrConflict) {
		return mapped
	}

	// Conflict: success iff the winning row belongs to this identity. A
	// conflicting row for a different identity (shared email) stays an error.
	if _, exists, ferr := s.FetchRole(ctx, userID); ferr == nil && exists {
		return nil
	}
	return mapped
}

// FetchUser returns the full users row for display purposes.
func (s *Store) FetchUser(ctx context.Context, userID string) (dbgen.User, error) {
	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.User{}, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return dbgen.User{}, mapStoreError(err)
	}
	return user, nil
}

// UpsertOwnerProfile records the owner-specific profile row. The contact
// phone is normalized to E.164; an unparseable phone is rejected.
func (s *Store) UpsertOwnerProfile(ctx context.Context, userID, clubName, contactPhone string) error {
	phone := sql.NullString{}
	if strings.TrimSpace(contactPhone) != "" {
		normalized := NormalizePhone(contactPhone)
		if normalized == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPhone, contactPhone)
		}
		phone = sql.NullString{String: normalized, Valid: true}
	}

	err := s.queries.UpsertOwnerProfile(ctx, dbgen.UpsertOwnerProfileParams{
		UserID:       userID,
		ClubName:     strings.TrimSpace(clubName),
		ContactPhone: phone,
	})
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}

// UpsertPlayerProfile records the player-specific profile row.
func (s *Store) UpsertPlayerProfile(ctx context.Context, userID, position, city string) error {
	err := s.queries.UpsertPlayerProfile(ctx, dbgen.UpsertPlayerProfileParams{
		UserID:   userID,
		Position: strings.TrimSpace(position),
		City:     strings.TrimSpace(city),
	})
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}

func mapStoreError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen:
			return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	return err
}
