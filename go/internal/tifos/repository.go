package tifos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/models"
	"github.com/mcdev12/tiforama/go/internal/sqlutil"
	"github.com/mcdev12/tiforama/go/internal/tifos/db"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	GetTifo(ctx context.Context, id uuid.UUID) (db.TifoWithGroup, error)
	GetTifoByGroupAndName(ctx context.Context, arg db.GetTifoByGroupAndNameParams) (db.TifoWithGroup, error)
	ListTifos(ctx context.Context) ([]db.TifoWithGroup, error)
	ListTifosByGroup(ctx context.Context, groupID uuid.UUID) ([]db.TifoWithGroup, error)
	ListTifoDurations(ctx context.Context, tifoID uuid.UUID) ([]int32, error)
	ListTifoIcons(ctx context.Context, tifoID uuid.UUID) ([]string, error)
	ListTifoPalette(ctx context.Context, tifoID uuid.UUID) ([]string, error)
	ListTifoPlaces(ctx context.Context, tifoID uuid.UUID) ([]db.TifoPlace, error)
	ListSeatColors(ctx context.Context, arg db.ListSeatColorsParams) ([]int32, error)
	GetLastPlace(ctx context.Context, tifoID uuid.UUID) (int32, error)
}

// Repository implements tifo data access operations
type Repository struct {
	db      *sql.DB
	queries Querier
}

// NewRepository creates a new tifos repository. Writes run in transactions on database.
func NewRepository(database *sql.DB, querier Querier) *Repository {
	return &Repository{
		db:      database,
		queries: querier,
	}
}

// CreateTifo upserts the group and tifo and replaces every part of the
// choreography in one transaction.
func (r *Repository) CreateTifo(ctx context.Context, req CreateTifoRequest) (*models.Tifo, error) {
	settings, err := sqlutil.ToNullRawMessage(req.Settings)
	if err != nil {
		return nil, err
	}

	saved, err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) *db.Queries { return db.New(tx) }, func(q *db.Queries) (db.Tifo, error) {
		groupID, err := q.UpsertGroup(ctx, req.GroupName)
		if err != nil {
			return db.Tifo{}, fmt.Errorf("failed to upsert group: %w", err)
		}

		saved, err := q.UpsertTifo(ctx, db.UpsertTifoParams{
			GroupID:  groupID,
			Name:     req.TifoName,
			Places:   int32(req.Places),
			Mp3Url:   sqlutil.ToSqlString(req.MP3URL),
			Settings: settings,
		})
		if err != nil {
			return db.Tifo{}, fmt.Errorf("failed to upsert tifo: %w", err)
		}

		return saved, r.replaceParts(ctx, q, saved.ID, req)
	})
	if err != nil {
		return nil, err
	}

	tifo, err := r.dbTifoToModel(db.TifoWithGroup{
		ID:        saved.ID,
		GroupID:   saved.GroupID,
		Name:      saved.Name,
		Places:    saved.Places,
		Mp3Url:    saved.Mp3Url,
		Settings:  saved.Settings,
		CreatedAt: saved.CreatedAt,
		UpdatedAt: saved.UpdatedAt,
		GroupName: req.GroupName,
	})
	if err != nil {
		return nil, err
	}
	return tifo, nil
}

func (r *Repository) replaceParts(ctx context.Context, q *db.Queries, tifoID uuid.UUID, req CreateTifoRequest) error {
	if err := q.DeleteTifoDurations(ctx, tifoID); err != nil {
		return fmt.Errorf("failed to clear durations: %w", err)
	}
	if err := q.DeleteTifoIcons(ctx, tifoID); err != nil {
		return fmt.Errorf("failed to clear icons: %w", err)
	}
	if err := q.DeleteTifoPalette(ctx, tifoID); err != nil {
		return fmt.Errorf("failed to clear palette: %w", err)
	}
	if err := q.DeleteTifoPlaces(ctx, tifoID); err != nil {
		return fmt.Errorf("failed to clear places: %w", err)
	}

	for i, d := range req.Durations {
		if err := q.InsertTifoDuration(ctx, db.InsertTifoDurationParams{TifoID: tifoID, Position: int32(i), Duration: int32(d)}); err != nil {
			return fmt.Errorf("failed to insert duration %d: %w", i, err)
		}
	}
	for i, icon := range req.Icons {
		if err := q.InsertTifoIcon(ctx, db.InsertTifoIconParams{TifoID: tifoID, Position: int32(i), Icon: icon}); err != nil {
			return fmt.Errorf("failed to insert icon %d: %w", i, err)
		}
	}
	for i, color := range req.Palette {
		if err := q.InsertTifoPaletteColor(ctx, db.InsertTifoPaletteColorParams{TifoID: tifoID, Position: int32(i), Color: color}); err != nil {
			return fmt.Errorf("failed to insert palette color %d: %w", i, err)
		}
	}

	places := make([]int, 0, len(req.Collections))
	for place := range req.Collections {
		places = append(places, place)
	}
	sort.Ints(places)

	for _, place := range places {
		for i, colorIndex := range req.Collections[place] {
			err := q.InsertTifoPlace(ctx, db.InsertTifoPlaceParams{
				TifoID:      tifoID,
				PlaceNumber: int32(place),
				Position:    int32(i),
				ColorIndex:  int32(colorIndex),
			})
			if err != nil {
				return fmt.Errorf("failed to insert place %d color %d: %w", place, i, err)
			}
		}
	}
	return nil
}

// GetTifo retrieves a tifo with every part of its choreography
func (r *Repository) GetTifo(ctx context.Context, id uuid.UUID) (*models.TifoDetail, error) {
	dbTifo, err := r.queries.GetTifo(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTifoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tifo: %w", err)
	}

	tifo, err := r.dbTifoToModel(dbTifo)
	if err != nil {
		return nil, err
	}

	durations, icons, palette, err := r.listParts(ctx, id)
	if err != nil {
		return nil, err
	}

	places, err := r.queries.ListTifoPlaces(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	collections := make(map[int][]int)
	for _, p := range places {
		collections[int(p.PlaceNumber)] = append(collections[int(p.PlaceNumber)], int(p.ColorIndex))
	}

	return &models.TifoDetail{
		Tifo:        *tifo,
		Durations:   durations,
		Icons:       icons,
		Palette:     palette,
		Collections: collections,
	}, nil
}

// GetTifoByGroupAndName retrieves a tifo header by its group and tifo names
func (r *Repository) GetTifoByGroupAndName(ctx context.Context, groupName, tifoName string) (*models.Tifo, error) {
	dbTifo, err := r.queries.GetTifoByGroupAndName(ctx, db.GetTifoByGroupAndNameParams{
		GroupName: groupName,
		TifoName:  tifoName,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTifoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tifo by name: %w", err)
	}

	return r.dbTifoToModel(dbTifo)
}

// ListTifos retrieves tifo headers, optionally restricted to one group
func (r *Repository) ListTifos(ctx context.Context, groupID *uuid.UUID) ([]models.Tifo, error) {
	var (
		rows []db.TifoWithGroup
		err  error
	)
	if groupID != nil {
		rows, err = r.queries.ListTifosByGroup(ctx, *groupID)
	} else {
		rows, err = r.queries.ListTifos(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tifos: %w", err)
	}

	tifos := make([]models.Tifo, len(rows))
	for i, row := range rows {
		tifo, err := r.dbTifoToModel(row)
		if err != nil {
			return nil, err
		}
		tifos[i] = *tifo
	}
	return tifos, nil
}

// GetLastPlace returns the highest place number holding choreography data, 0 if none
func (r *Repository) GetLastPlace(ctx context.Context, tifoID uuid.UUID) (int, error) {
	last, err := r.queries.GetLastPlace(ctx, tifoID)
	if err != nil {
		return 0, fmt.Errorf("failed to get last place: %w", err)
	}
	return int(last), nil
}

// GetSeatBundle assembles the choreography bundle for one seat of tifo
func (r *Repository) GetSeatBundle(ctx context.Context, tifo *models.Tifo, place int) (choreography.Bundle, error) {
	colors, err := r.queries.ListSeatColors(ctx, db.ListSeatColorsParams{
		TifoID:      tifo.ID,
		PlaceNumber: int32(place),
	})
	if err != nil {
		return choreography.Bundle{}, fmt.Errorf("failed to list seat colors: %w", err)
	}

	durations, icons, palette, err := r.listParts(ctx, tifo.ID)
	if err != nil {
		return choreography.Bundle{}, err
	}

	bundle := choreography.Bundle{
		Colors:    make([]int, len(colors)),
		Durations: durations,
		Palette:   palette,
		Icons:     icons,
		Places:    tifo.Places,
		Unit:      choreography.Unit(tifo.Settings.Unit),
	}
	for i, c := range colors {
		bundle.Colors[i] = int(c)
	}
	if tifo.MP3URL != nil {
		bundle.MP3URL = *tifo.MP3URL
	}
	return bundle, nil
}

func (r *Repository) listParts(ctx context.Context, tifoID uuid.UUID) ([]int, []string, []string, error) {
	dbDurations, err := r.queries.ListTifoDurations(ctx, tifoID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list durations: %w", err)
	}
	icons, err := r.queries.ListTifoIcons(ctx, tifoID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list icons: %w", err)
	}
	palette, err := r.queries.ListTifoPalette(ctx, tifoID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list palette: %w", err)
	}

	durations := make([]int, len(dbDurations))
	for i, d := range dbDurations {
		durations[i] = int(d)
	}
	return durations, icons, palette, nil
}

// dbTifoToModel converts a database tifo to domain model
func (r *Repository) dbTifoToModel(dbTifo db.TifoWithGroup) (*models.Tifo, error) {
	tifo := &models.Tifo{
		ID:        dbTifo.ID,
		GroupID:   dbTifo.GroupID,
		GroupName: dbTifo.GroupName,
		Name:      dbTifo.Name,
		Places:    int(dbTifo.Places),
		MP3URL:    sqlutil.FromSqlStringPtr(dbTifo.Mp3Url),
		CreatedAt: dbTifo.CreatedAt,
		UpdatedAt: dbTifo.UpdatedAt,
	}
	if err := sqlutil.FromNullRawMessage(dbTifo.Settings, &tifo.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings for tifo %s: %w", dbTifo.ID, err)
	}
	return tifo, nil
}
