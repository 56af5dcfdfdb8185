package dbgen

import (
	"context"
	"time"
)

const createFriendRequest = `-- name: CreateFriendRequest :exec
INSERT INTO friendships (requester_id, addressee_id, status)
VALUES (?, ?, 'pending')
`

type CreateFriendRequestParams struct {
	RequesterID string
	AddresseeID string
}

func (q *Queries) CreateFriendRequest(ctx context.Context, arg CreateFriendRequestParams) error {
	_, err := q.db.ExecContext(ctx, createFriendRequest, arg.RequesterID, arg.AddresseeID)
	return err
}

const setFriendRequestStatus = `-- name: SetFriendRequestStatus :exec
UPDATE friendships
SET status = ?
WHERE requester_id = ? AND addressee_id = ? AND status = 'pending'
`

type SetFriendRequestStatusParams struct {
	Status      string
	RequesterID string
	AddresseeID string
}

func (q *Queries) SetFriendRequestStatus(ctx context.Context, arg SetFriendRequestStatusParams) error {
	_, err := q.db.ExecContext(ctx, setFriendRequestStatus, arg.Status, arg.RequesterID, arg.AddresseeID)
	return err
}

const getFriendship = `-- name: GetFriendship :one
SELECT requester_id, addressee_id, status, created_at
FROM friendships
WHERE (requester_id = ? AND addressee_id = ?)
   OR (requester_id = ? AND addressee_id = ?)
`

type GetFriendshipParams struct {
	UserA string
	UserB string
}

func (q *Queries) GetFriendship(ctx context.Context, arg GetFriendshipParams) (Friendship, error) {
	row := q.db.QueryRowContext(ctx, getFriendship, arg.UserA, arg.UserB, arg.UserB, arg.UserA)
	var i Friendship
	err := row.Scan(&i.RequesterID, &i.AddresseeID, &i.Status, &i.CreatedAt)
	return i, err
}

const listFriends = `-- name: ListFriends :many
SELECT u.id, u.email, u.role, u.created_at
FROM friendships f
JOIN users u ON u.id = CASE WHEN f.requester_id = ? THEN f.addressee_id ELSE f.requester_id END
WHERE (f.requester_id = ? OR f.addressee_id = ?)
  AND f.status = 'accepted'
ORDER BY u.email
`

func (q *Queries) ListFriends(ctx context.Context, userID string) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listFriends, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(&i.ID, &i.Email, &i.Role, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPendingRequests = `-- name: ListPendingRequests :many
SELECT requester_id, addressee_id, status, created_at
FROM friendships
WHERE addressee_id = ? AND status = 'pending'
ORDER BY created_at
`

func (q *Queries) ListPendingRequests(ctx context.Context, addresseeID string) ([]Friendship, error) {
	rows, err := q.db.QueryContext(ctx, listPendingRequests, addresseeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Friendship
	for rows.Next() {
		var i Friendship
		if err := rows.Scan(&i.RequesterID, &i.AddresseeID, &i.Status, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteDeclinedRequestsBefore = `-- name: DeleteDeclinedRequestsBefore :execrows
DELETE FROM friendships
WHERE status = 'declined' AND created_at < ?
`

func (q *Queries) DeleteDeclinedRequestsBefore(ctx context.Context, createdAt time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDeclinedRequestsBefore, createdAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
