package dbgen

import (
	"context"
	"database/sql"
)

const createUser = `-- name: CreateUser :exec
INSERT INTO users (id, email, role)
VALUES (?, ?, ?)
`

type CreateUserParams struct {
	ID    string
	Email string
	Role  string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser, arg.ID, arg.Email, arg.Role)
	return err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, role, created_at
FROM users
WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.Role, &i.CreatedAt)
	return i, err
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, role, created_at
FROM users
WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.Role, &i.CreatedAt)
	return i, err
}

const getUserRole = `-- name: GetUserRole :one
SELECT role
FROM users
WHERE id = ?
`

func (q *Queries) GetUserRole(ctx context.Context, id string) (string, error) {
	row := q.db.QueryRowContext(ctx, getUserRole, id)
	var role string
	err := row.Scan(&role)
	return role, err
}

const upsertOwnerProfile = `-- name: UpsertOwnerProfile :exec
INSERT INTO owner_profiles (user_id, club_name, contact_phone, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (user_id) DO UPDATE SET
    club_name = excluded.club_name,
    contact_phone = excluded.contact_phone,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertOwnerProfileParams struct {
	UserID       string
	ClubName     string
	ContactPhone sql.NullString
}

func (q *Queries) UpsertOwnerProfile(ctx context.Context, arg UpsertOwnerProfileParams) error {
	_, err := q.db.ExecContext(ctx, upsertOwnerProfile, arg.UserID, arg.ClubName, arg.ContactPhone)
	return err
}

const getOwnerProfile = `-- name: GetOwnerProfile :one
SELECT user_id, club_name, contact_phone, updated_at
FROM owner_profiles
WHERE user_id = ?
`

func (q *Queries) GetOwnerProfile(ctx context.Context, userID string) (OwnerProfile, error) {
	row := q.db.QueryRowContext(ctx, getOwnerProfile, userID)
	var i OwnerProfile
	err := row.Scan(&i.UserID, &i.ClubName, &i.ContactPhone, &i.UpdatedAt)
	return i, err
}

const upsertPlayerProfile = `-- name: UpsertPlayerProfile :exec
INSERT INTO player_profiles (user_id, position, city, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (user_id) DO UPDATE SET
    position = excluded.position,
    city = excluded.city,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertPlayerProfileParams struct {
	UserID   string
	Position string
	City     string
}

func (q *Queries) UpsertPlayerProfile(ctx context.Context, arg UpsertPlayerProfileParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayerProfile, arg.UserID, arg.Position, arg.City)
	return err
}

const getPlayerProfile = `-- name: GetPlayerProfile :one
SELECT user_id, position, city, updated_at
FROM player_profiles
WHERE user_id = ?
`

func (q *Queries) GetPlayerProfile(ctx context.Context, userID string) (PlayerProfile, error) {
	row := q.db.QueryRowContext(ctx, getPlayerProfile, userID)
	var i PlayerProfile
	err := row.Scan(&i.UserID, &i.Position, &i.City, &i.UpdatedAt)
	return i, err
}

const getLocalLogin = `-- name: GetLocalLogin :one
SELECT email, user_id, password_hash, created_at
FROM local_logins
WHERE email = ?
`

func (q *Queries) GetLocalLogin(ctx context.Context, email string) (LocalLogin, error) {
	row := q.db.QueryRowContext(ctx, getLocalLogin, email)
	var i LocalLogin
	err := row.Scan(&i.Email, &i.UserID, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const createLocalLogin = `-- name: CreateLocalLogin :exec
INSERT INTO local_logins (email, user_id, password_hash)
VALUES (?, ?, ?)
`

type CreateLocalLoginParams struct {
	Email        string
	UserID       string
	PasswordHash string
}

func (q *Queries) CreateLocalLogin(ctx context.Context, arg CreateLocalLoginParams) error {
	_, err := q.db.ExecContext(ctx, createLocalLogin, arg.Email, arg.UserID, arg.PasswordHash)
	return err
}
