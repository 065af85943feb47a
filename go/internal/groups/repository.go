package groups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcdev12/tiforama/go/internal/groups/db"
	"github.com/mcdev12/tiforama/go/internal/models"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	UpsertGroup(ctx context.Context, name string) (db.Group, error)
	GetGroupByName(ctx context.Context, name string) (db.Group, error)
	ListGroupsWithTifoCount(ctx context.Context) ([]db.GroupWithTifoCount, error)
}

// Repository implements group data access operations
type Repository struct {
	queries Querier
}

// NewRepository creates a new groups repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// UpsertGroup creates the group or returns the existing one with that name
func (r *Repository) UpsertGroup(ctx context.Context, name string) (*models.Group, error) {
	dbGroup, err := r.queries.UpsertGroup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert group: %w", err)
	}

	return r.dbGroupToModel(dbGroup, 0), nil
}

// GetGroupByName retrieves a group by its unique name
func (r *Repository) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	dbGroup, err := r.queries.GetGroupByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by name: %w", err)
	}

	return r.dbGroupToModel(dbGroup, 0), nil
}

// ListGroups retrieves all groups with the number of tifos each owns
func (r *Repository) ListGroups(ctx context.Context) ([]models.Group, error) {
	rows, err := r.queries.ListGroupsWithTifoCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groups := make([]models.Group, len(rows))
	for i, row := range rows {
		groups[i] = *r.dbGroupToModel(db.Group{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}, int(row.TifoCount))
	}

	return groups, nil
}

// dbGroupToModel converts a database group to domain model
func (r *Repository) dbGroupToModel(dbGroup db.Group, tifoCount int) *models.Group {
	return &models.Group{
		ID:        dbGroup.ID,
		Name:      dbGroup.Name,
		TifoCount: tifoCount,
		CreatedAt: dbGroup.CreatedAt,
	}
}
