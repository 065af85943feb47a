package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/models"
)

var (
	// ErrGroupNotFound is returned when no group has the requested name
	ErrGroupNotFound = errors.New("group not found")
	// ErrInvalidGroup is returned for requests failing validation
	ErrInvalidGroup = errors.New("invalid group")
)

const maxGroupNameLength = 100

// GroupsRepository defines what the app layer needs from the repository
type GroupsRepository interface {
	UpsertGroup(ctx context.Context, name string) (*models.Group, error)
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
}

// App handles groups business logic
type App struct {
	repo GroupsRepository
}

// NewApp creates a new groups App
func NewApp(repo GroupsRepository) *App {
	return &App{
		repo: repo,
	}
}

// ListGroups returns every group ordered by name
func (a *App) ListGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := a.repo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a group, returning the existing one when the name is taken
func (a *App) CreateGroup(ctx context.Context, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if err := validateGroupName(name); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	group, err := a.repo.UpsertGroup(ctx, name)
	if err != nil {
		return nil, err
	}

	log.Info().Str("group_id", group.ID.String()).Str("name", group.Name).Msg("group saved")
	return group, nil
}

// GetGroupByName looks a group up by name
func (a *App) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	return a.repo.GetGroupByName(ctx, strings.TrimSpace(name))
}

func validateGroupName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidGroup)
	}
	if len(name) > maxGroupNameLength {
		return fmt.Errorf("%w: name cannot exceed %d characters", ErrInvalidGroup, maxGroupNameLength)
	}
	return nil
}
