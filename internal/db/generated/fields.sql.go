package dbgen

import (
	"context"
)

const createField = `-- name: CreateField :one
INSERT INTO fields (owner_id, name, city, surface, price_cents, published)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, owner_id, name, city, surface, price_cents, published, created_at
`

type CreateFieldParams struct {
	OwnerID    string
	Name       string
	City       string
	Surface    string
	PriceCents int64
	Published  bool
}

func (q *Queries) CreateField(ctx context.Context, arg CreateFieldParams) (Field, error) {
	row := q.db.QueryRowContext(ctx, createField,
		arg.OwnerID,
		arg.Name,
		arg.City,
		arg.Surface,
		arg.PriceCents,
		arg.Published,
	)
	var i Field
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.City,
		&i.Surface,
		&i.PriceCents,
		&i.Published,
		&i.CreatedAt,
	)
	return i, err
}

const updateField = `-- name: UpdateField :exec
UPDATE fields
SET name = ?, city = ?, surface = ?, price_cents = ?, published = ?
WHERE id = ? AND owner_id = ?
`

type UpdateFieldParams struct {
	Name       string
	City       string
	Surface    string
	PriceCents int64
	Published  bool
	ID         int64
	OwnerID    string
}

func (q *Queries) UpdateField(ctx context.Context, arg UpdateFieldParams) error {
	_, err := q.db.ExecContext(ctx, updateField,
		arg.Name,
		arg.City,
		arg.Surface,
		arg.PriceCents,
		arg.Published,
		arg.ID,
		arg.OwnerID,
	)
	return err
}

const getField = `-- name: GetField :one
SELECT id, owner_id, name, city, surface, price_cents, published, created_at
FROM fields
WHERE id = ?
`

func (q *Queries) GetField(ctx context.Context, id int64) (Field, error) {
	row := q.db.QueryRowContext(ctx, getField, id)
	var i Field
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.City,
		&i.Surface,
		&i.PriceCents,
		&i.Published,
		&i.CreatedAt,
	)
	return i, err
}

const listPublishedFields = `-- name: ListPublishedFields :many
SELECT id, owner_id, name, city, surface, price_cents, published, created_at
FROM fields
WHERE published = 1 AND (? = '' OR city = ?)
ORDER BY city, name
`

func (q *Queries) ListPublishedFields(ctx context.Context, city string) ([]Field, error) {
	rows, err := q.db.QueryContext(ctx, listPublishedFields, city, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Field
	for rows.Next() {
		var i Field
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Name,
			&i.City,
			&i.Surface,
			&i.PriceCents,
			&i.Published,
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

const listFieldsByOwner = `-- name: ListFieldsByOwner :many
SELECT id, owner_id, name, city, surface, price_cents, published, created_at
FROM fields
WHERE owner_id = ?
ORDER BY name
`

func (q *Queries) ListFieldsByOwner(ctx context.Context, ownerID string) ([]Field, error) {
	rows, err := q.db.QueryContext(ctx, listFieldsByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Field
	for rows.Next() {
		var i Field
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Name,
			&i.City,
			&i.Surface,
			&i.PriceCents,
			&i.Published,
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

const setFieldHours = `-- name: SetFieldHours :exec
INSERT INTO field_hours (field_id, weekday, open_minute, close_minute)
VALUES (?, ?, ?, ?)
ON CONFLICT (field_id, weekday) DO UPDATE SET
    open_minute = excluded.open_minute,
    close_minute = excluded.close_minute
`

type SetFieldHoursParams struct {
	FieldID     int64
	Weekday     int64
	OpenMinute  int64
	CloseMinute int64
}

func (q *Queries) SetFieldHours(ctx context.Context, arg SetFieldHoursParams) error {
	_, err := q.db.ExecContext(ctx, setFieldHours,
		arg.FieldID,
		arg.Weekday,
		arg.OpenMinute,
		arg.CloseMinute,
	)
	return err
}

const getFieldHours = `-- name: GetFieldHours :one
SELECT field_id, weekday, open_minute, close_minute
FROM field_hours
WHERE field_id = ? AND weekday = ?
`

type GetFieldHoursParams struct {
	FieldID int64
	Weekday int64
}

func (q *Queries) GetFieldHours(ctx context.Context, arg GetFieldHoursParams) (FieldHour, error) {
	row := q.db.QueryRowContext(ctx, getFieldHours, arg.FieldID, arg.Weekday)
	var i FieldHour
	err := row.Scan(&i.FieldID, &i.Weekday, &i.OpenMinute, &i.CloseMinute)
	return i, err
}

const listFieldHours = `-- name: ListFieldHours :many
SELECT field_id, weekday, open_minute, close_minute
FROM field_hours
WHERE field_id = ?
ORDER BY weekday
`

func (q *Queries) ListFieldHours(ctx context.Context, fieldID int64) ([]FieldHour, error) {
	rows, err := q.db.QueryContext(ctx, listFieldHours, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FieldHour
	for rows.Next() {
		var i FieldHour
		if err := rows.Scan(&i.FieldID, &i.Weekday, &i.OpenMinute, &i.CloseMinute); err != nil {
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
