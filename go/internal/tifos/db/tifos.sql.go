package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const upsertGroup = `-- name: UpsertGroup :one
INSERT INTO groups (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id
`

func (q *Queries) UpsertGroup(ctx context.Context, name string) (uuid.UUID, error) {
	row := q.db.QueryRowContext(ctx, upsertGroup, name)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const upsertTifo = `-- name: UpsertTifo :one
INSERT INTO tifos (group_id, name, places, mp3_url, settings)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (group_id, name) DO UPDATE SET
    places = EXCLUDED.places,
    mp3_url = EXCLUDED.mp3_url,
    settings = EXCLUDED.settings,
    updated_at = NOW()
RETURNING id, group_id, name, places, mp3_url, settings, created_at, updated_at
`

type UpsertTifoParams struct {
	GroupID  uuid.UUID
	Name     string
	Places   int32
	Mp3Url   sql.NullString
	Settings pqtype.NullRawMessage
}

func (q *Queries) UpsertTifo(ctx context.Context, arg UpsertTifoParams) (Tifo, error) {
	row := q.db.QueryRowContext(ctx, upsertTifo,
		arg.GroupID,
		arg.Name,
		arg.Places,
		arg.Mp3Url,
		arg.Settings,
	)
	var i Tifo
	err := row.Scan(
		&i.ID,
		&i.GroupID,
		&i.Name,
		&i.Places,
		&i.Mp3Url,
		&i.Settings,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getTifo = `-- name: GetTifo :one
SELECT t.id, t.group_id, t.name, t.places, t.mp3_url, t.settings, t.created_at, t.updated_at, g.name AS group_name
FROM tifos t
JOIN groups g ON g.id = t.group_id
WHERE t.id = $1
`

func (q *Queries) GetTifo(ctx context.Context, id uuid.UUID) (TifoWithGroup, error) {
	row := q.db.QueryRowContext(ctx, getTifo, id)
	return scanTifoWithGroup(row)
}

const getTifoByGroupAndName = `-- name: GetTifoByGroupAndName :one
SELECT t.id, t.group_id, t.name, t.places, t.mp3_url, t.settings, t.created_at, t.updated_at, g.name AS group_name
FROM tifos t
JOIN groups g ON g.id = t.group_id
WHERE g.name = $1 AND t.name = $2
`

type GetTifoByGroupAndNameParams struct {
	GroupName string
	TifoName  string
}

func (q *Queries) GetTifoByGroupAndName(ctx context.Context, arg GetTifoByGroupAndNameParams) (TifoWithGroup, error) {
	row := q.db.QueryRowContext(ctx, getTifoByGroupAndName, arg.GroupName, arg.TifoName)
	return scanTifoWithGroup(row)
}

const listTifos = `-- name: ListTifos :many
SELECT t.id, t.group_id, t.name, t.places, t.mp3_url, t.settings, t.created_at, t.updated_at, g.name AS group_name
FROM tifos t
JOIN groups g ON g.id = t.group_id
ORDER BY g.name, t.name
`

func (q *Queries) ListTifos(ctx context.Context) ([]TifoWithGroup, error) {
	rows, err := q.db.QueryContext(ctx, listTifos)
	if err != nil {
		return nil, err
	}
	return collectTifosWithGroup(rows)
}

const listTifosByGroup = `-- name: ListTifosByGroup :many
SELECT t.id, t.group_id, t.name, t.places, t.mp3_url, t.settings, t.created_at, t.updated_at, g.name AS group_name
FROM tifos t
JOIN groups g ON g.id = t.group_id
WHERE t.group_id = $1
ORDER BY t.name
`

func (q *Queries) ListTifosByGroup(ctx context.Context, groupID uuid.UUID) ([]TifoWithGroup, error) {
	rows, err := q.db.QueryContext(ctx, listTifosByGroup, groupID)
	if err != nil {
		return nil, err
	}
	return collectTifosWithGroup(rows)
}

const deleteTifoDurations = `-- name: DeleteTifoDurations :exec
DELETE FROM tifo_durations WHERE tifo_id = $1
`

func (q *Queries) DeleteTifoDurations(ctx context.Context, tifoID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteTifoDurations, tifoID)
	return err
}

const deleteTifoIcons = `-- name: DeleteTifoIcons :exec
DELETE FROM tifo_icons WHERE tifo_id = $1
`

func (q *Queries) DeleteTifoIcons(ctx context.Context, tifoID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteTifoIcons, tifoID)
	return err
}

const deleteTifoPalette = `-- name: DeleteTifoPalette :exec
DELETE FROM tifo_palette WHERE tifo_id = $1
`

func (q *Queries) DeleteTifoPalette(ctx context.Context, tifoID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteTifoPalette, tifoID)
	return err
}

const deleteTifoPlaces = `-- name: DeleteTifoPlaces :exec
DELETE FROM tifo_places WHERE tifo_id = $1
`

func (q *Queries) DeleteTifoPlaces(ctx context.Context, tifoID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteTifoPlaces, tifoID)
	return err
}

const insertTifoDuration = `-- name: InsertTifoDuration :exec
INSERT INTO tifo_durations (tifo_id, position, duration)
VALUES ($1, $2, $3)
`

type InsertTifoDurationParams struct {
	TifoID   uuid.UUID
	Position int32
	Duration int32
}

func (q *Queries) InsertTifoDuration(ctx context.Context, arg InsertTifoDurationParams) error {
	_, err := q.db.ExecContext(ctx, insertTifoDuration, arg.TifoID, arg.Position, arg.Duration)
	return err
}

const insertTifoIcon = `-- name: InsertTifoIcon :exec
INSERT INTO tifo_icons (tifo_id, position, icon)
VALUES ($1, $2, $3)
`

type InsertTifoIconParams struct {
	TifoID   uuid.UUID
	Position int32
	Icon     string
}

func (q *Queries) InsertTifoIcon(ctx context.Context, arg InsertTifoIconParams) error {
	_, err := q.db.ExecContext(ctx, insertTifoIcon, arg.TifoID, arg.Position, arg.Icon)
	return err
}

const insertTifoPaletteColor = `-- name: InsertTifoPaletteColor :exec
INSERT INTO tifo_palette (tifo_id, position, color)
VALUES ($1, $2, $3)
`

type InsertTifoPaletteColorParams struct {
	TifoID   uuid.UUID
	Position int32
	Color    string
}

func (q *Queries) InsertTifoPaletteColor(ctx context.Context, arg InsertTifoPaletteColorParams) error {
	_, err := q.db.ExecContext(ctx, insertTifoPaletteColor, arg.TifoID, arg.Position, arg.Color)
	return err
}

const insertTifoPlace = `-- name: InsertTifoPlace :exec
INSERT INTO tifo_places (tifo_id, place_number, position, color_index)
VALUES ($1, $2, $3, $4)
`

type InsertTifoPlaceParams struct {
	TifoID      uuid.UUID
	PlaceNumber int32
	Position    int32
	ColorIndex  int32
}

func (q *Queries) InsertTifoPlace(ctx context.Context, arg InsertTifoPlaceParams) error {
	_, err := q.db.ExecContext(ctx, insertTifoPlace, arg.TifoID, arg.PlaceNumber, arg.Position, arg.ColorIndex)
	return err
}

const listTifoDurations = `-- name: ListTifoDurations :many
SELECT duration FROM tifo_durations
WHERE tifo_id = $1
ORDER BY position
`

func (q *Queries) ListTifoDurations(ctx context.Context, tifoID uuid.UUID) ([]int32, error) {
	rows, err := q.db.QueryContext(ctx, listTifoDurations, tifoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int32
	for rows.Next() {
		var duration int32
		if err := rows.Scan(&duration); err != nil {
			return nil, err
		}
		items = append(items, duration)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTifoIcons = `-- name: ListTifoIcons :many
SELECT icon FROM tifo_icons
WHERE tifo_id = $1
ORDER BY position
`

func (q *Queries) ListTifoIcons(ctx context.Context, tifoID uuid.UUID) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listTifoIcons, tifoID)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

const listTifoPalette = `-- name: ListTifoPalette :many
SELECT color FROM tifo_palette
WHERE tifo_id = $1
ORDER BY position
`

func (q *Queries) ListTifoPalette(ctx context.Context, tifoID uuid.UUID) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listTifoPalette, tifoID)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

const listTifoPlaces = `-- name: ListTifoPlaces :many
SELECT place_number, position, color_index FROM tifo_places
WHERE tifo_id = $1
ORDER BY place_number, position
`

func (q *Queries) ListTifoPlaces(ctx context.Context, tifoID uuid.UUID) ([]TifoPlace, error) {
	rows, err := q.db.QueryContext(ctx, listTifoPlaces, tifoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TifoPlace
	for rows.Next() {
		var i TifoPlace
		if err := rows.Scan(&i.PlaceNumber, &i.Position, &i.ColorIndex); err != nil {
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

const listSeatColors = `-- name: ListSeatColors :many
SELECT color_index FROM tifo_places
WHERE tifo_id = $1 AND place_number = $2
ORDER BY position
`

type ListSeatColorsParams struct {
	TifoID      uuid.UUID
	PlaceNumber int32
}

func (q *Queries) ListSeatColors(ctx context.Context, arg ListSeatColorsParams) ([]int32, error) {
	rows, err := q.db.QueryContext(ctx, listSeatColors, arg.TifoID, arg.PlaceNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int32
	for rows.Next() {
		var colorIndex int32
		if err := rows.Scan(&colorIndex); err != nil {
			return nil, err
		}
		items = append(items, colorIndex)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLastPlace = `-- name: GetLastPlace :one
SELECT COALESCE(MAX(place_number), 0)::INTEGER AS last_place
FROM tifo_places
WHERE tifo_id = $1
`

func (q *Queries) GetLastPlace(ctx context.Context, tifoID uuid.UUID) (int32, error) {
	row := q.db.QueryRowContext(ctx, getLastPlace, tifoID)
	var lastPlace int32
	err := row.Scan(&lastPlace)
	return lastPlace, err
}

func scanTifoWithGroup(row *sql.Row) (TifoWithGroup, error) {
	var i TifoWithGroup
	err := row.Scan(
		&i.ID,
		&i.GroupID,
		&i.Name,
		&i.Places,
		&i.Mp3Url,
		&i.Settings,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.GroupName,
	)
	return i, err
}

func collectTifosWithGroup(rows *sql.Rows) ([]TifoWithGroup, error) {
	defer rows.Close()
	var items []TifoWithGroup
	for rows.Next() {
		var i TifoWithGroup
		if err := rows.Scan(
			&i.ID,
			&i.GroupID,
			&i.Name,
			&i.Places,
			&i.Mp3Url,
			&i.Settings,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.GroupName,
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

func collectStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
