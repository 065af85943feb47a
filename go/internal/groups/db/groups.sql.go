package db

import (
	"context"

	"github.com/google/uuid"
)

const upsertGroup = `-- name: UpsertGroup :one
INSERT INTO groups (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, created_at
`

func (q *Queries) UpsertGroup(ctx context.Context, name string) (Group, error) {
	row := q.db.QueryRowContext(ctx, upsertGroup, name)
	var i Group
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getGroup = `-- name: GetGroup :one
SELECT id, name, created_at FROM groups
WHERE id = $1
`

func (q *Queries) GetGroup(ctx context.Context, id uuid.UUID) (Group, error) {
	row := q.db.QueryRowContext(ctx, getGroup, id)
	var i Group
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getGroupByName = `-- name: GetGroupByName :one
SELECT id, name, created_at FROM groups
WHERE name = $1
`

func (q *Queries) GetGroupByName(ctx context.Context, name string) (Group, error) {
	row := q.db.QueryRowContext(ctx, getGroupByName, name)
	var i Group
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const listGroupsWithTifoCount = `-- name: ListGroupsWithTifoCount :many
SELECT g.id, g.name, g.created_at, COUNT(t.id) AS tifo_count
FROM groups g
LEFT JOIN tifos t ON t.group_id = g.id
GROUP BY g.id, g.name, g.created_at
ORDER BY g.name
`

func (q *Queries) ListGroupsWithTifoCount(ctx context.Context) ([]GroupWithTifoCount, error) {
	rows, err := q.db.QueryContext(ctx, listGroupsWithTifoCount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GroupWithTifoCount
	for rows.Next() {
		var i GroupWithTifoCount
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt, &i.TifoCount); err != nil {
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

const deleteGroup = `-- name: DeleteGroup :exec
DELETE FROM groups WHERE id = $1
`

func (q *Queries) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteGroup, id)
	return err
}
