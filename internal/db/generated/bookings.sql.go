package dbgen

import (
	"context"
	"time"
)

const createBooking = `-- name: CreateBooking :exec
INSERT INTO bookings (id, field_id, player_id, starts_at, ends_at, status)
VALUES (?, ?, ?, ?, ?, 'confirmed')
`

type CreateBookingParams struct {
	ID       string
	FieldID  int64
	PlayerID string
	StartsAt time.Time
	EndsAt   time.Time
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) error {
	_, err := q.db.ExecContext(ctx, createBooking,
		arg.ID,
		arg.FieldID,
		arg.PlayerID,
		arg.StartsAt,
		arg.EndsAt,
	)
	return err
}

const getBooking = `-- name: GetBooking :one
SELECT id, field_id, player_id, starts_at, ends_at, status, reminder_sent, created_at
FROM bookings
WHERE id = ?
`

func (q *Queries) GetBooking(ctx context.Context, id string) (Booking, error) {
	row := q.db.QueryRowContext(ctx, getBooking, id)
	var i Booking
	err := row.Scan(
		&i.ID,
		&i.FieldID,
		&i.PlayerID,
		&i.StartsAt,
		&i.EndsAt,
		&i.Status,
		&i.ReminderSent,
		&i.CreatedAt,
	)
	return i, err
}

const countOverlappingBookings = `-- name: CountOverlappingBookings :one
SELECT COUNT(*)
FROM bookings
WHERE field_id = ?
  AND status = 'confirmed'
  AND starts_at < ?
  AND ends_at > ?
`

type CountOverlappingBookingsParams struct {
	FieldID  int64
	EndsAt   time.Time
	StartsAt time.Time
}

func (q *Queries) CountOverlappingBookings(ctx context.Context, arg CountOverlappingBookingsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countOverlappingBookings, arg.FieldID, arg.EndsAt, arg.StartsAt)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listBookingsByPlayer = `-- name: ListBookingsByPlayer :many
SELECT id, field_id, player_id, starts_at, ends_at, status, reminder_sent, created_at
FROM bookings
WHERE player_id = ?
ORDER BY starts_at DESC
`

func (q *Queries) ListBookingsByPlayer(ctx context.Context, playerID string) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, listBookingsByPlayer, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		var i Booking
		if err := rows.Scan(
			&i.ID,
			&i.FieldID,
			&i.PlayerID,
			&i.StartsAt,
			&i.EndsAt,
			&i.Status,
			&i.ReminderSent,
			&i.CreatedAt,
		); err != nil {
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

const listBookingsByField = `-- name: ListBookingsByField :many
SELECT id, field_id, player_id, starts_at, ends_at, status, reminder_sent, created_at
FROM bookings
WHERE field_id = ?
  AND starts_at >= ?
  AND starts_at < ?
ORDER BY starts_at
`

type ListBookingsByFieldParams struct {
	FieldID int64
	From    time.Time
	To      time.Time
}

func (q *Queries) ListBookingsByField(ctx context.Context, arg ListBookingsByFieldParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, listBookingsByField, arg.FieldID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		var i Booking
		if err := rows.Scan(
			&i.ID,
			&i.FieldID,
			&i.PlayerID,
			&i.StartsAt,
			&i.EndsAt,
			&i.Status,
			&i.ReminderSent,
			&i.CreatedAt,
		); err != nil {
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

const cancelBooking = `-- name: CancelBooking :exec
UPDATE bookings
SET status = 'cancelled'
WHERE id = ?
`

func (q *Queries) CancelBooking(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, cancelBooking, id)
	return err
}

const listBookingsDueReminder = `-- name: ListBookingsDueReminder :many
SELECT id, field_id, player_id, starts_at, ends_at, status, reminder_sent, created_at
FROM bookings
WHERE status = 'confirmed'
  AND reminder_sent = 0
  AND starts_at > ?
  AND starts_at <= ?
ORDER BY starts_at
`

type ListBookingsDueReminderParams struct {
	After  time.Time
	Before time.Time
}

func (q *Queries) ListBookingsDueReminder(ctx context.Context, arg ListBookingsDueReminderParams) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, listBookingsDueReminder, arg.After, arg.Before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		var i Booking
		if err := rows.Scan(
			&i.ID,
			&i.FieldID,
			&i.PlayerID,
			&i.StartsAt,
			&i.EndsAt,
			&i.Status,
			&i.ReminderSent,
			&i.CreatedAt,
		); err != nil {
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

const markReminderSent = `-- name: MarkReminderSent :exec
UPDATE bookings
SET reminder_sent = 1
WHERE id = ?
`

func (q *Queries) MarkReminderSent(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markReminderSent, id)
	return err
}

const deleteCancelledBookingsBefore = `-- name: DeleteCancelledBookingsBefore :execrows
DELETE FROM bookings
WHERE status = 'cancelled' AND ends_at < ?
`

func (q *Queries) DeleteCancelledBookingsBefore(ctx context.Context, endsAt time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCancelledBookingsBefore, endsAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
