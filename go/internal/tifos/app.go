package tifos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/events"
	"github.com/mcdev12/tiforama/go/internal/models"
)

const maxNameLength = 100

// TifosRepository defines what the app layer needs from the repository
type TifosRepository interface {
	CreateTifo(ctx context.Context, req CreateTifoRequest) (*models.Tifo, error)
	GetTifo(ctx context.Context, id uuid.UUID) (*models.TifoDetail, error)
	GetTifoByGroupAndName(ctx context.Context, groupName, tifoName string) (*models.Tifo, error)
	ListTifos(ctx context.Context, groupID *uuid.UUID) ([]models.Tifo, error)
	GetLastPlace(ctx context.Context, tifoID uuid.UUID) (int, error)
	GetSeatBundle(ctx context.Context, tifo *models.Tifo, place int) (choreography.Bundle, error)
}

// App handles tifo business logic. The demo tifo is always served under
// demo/demo, and listings fall back to it while storage is unreachable.
type App struct {
	repo      TifosRepository
	publisher events.Publisher
}

// NewApp creates a new tifos App
func NewApp(repo TifosRepository, publisher events.Publisher) *App {
	return &App{
		repo:      repo,
		publisher: publisher,
	}
}

// ListTifos lists tifo headers, optionally for one group
func (a *App) ListTifos(ctx context.Context, groupID *uuid.UUID) ([]models.Tifo, error) {
	tifos, err := a.repo.ListTifos(ctx, groupID)
	if err != nil {
		log.Warn().Err(err).Msg("tifo listing unavailable, serving demo tifo")
		return []models.Tifo{demoTifo()}, nil
	}
	return tifos, nil
}

// GetTifo returns a tifo with its full choreography
func (a *App) GetTifo(ctx context.Context, id uuid.UUID) (*models.TifoDetail, error) {
	if id == DemoTifoID {
		return demoDetail(), nil
	}

	tifo, err := a.repo.GetTifo(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return tifo, nil
}

// CreateTifo validates and stores a choreography, then announces it on the bus
func (a *App) CreateTifo(ctx context.Context, req CreateTifoRequest) (*models.Tifo, error) {
	req.GroupName = strings.TrimSpace(req.GroupName)
	req.TifoName = strings.TrimSpace(req.TifoName)
	if err := validateCreateTifo(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	tifo, err := a.repo.CreateTifo(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	log.Info().
		Str("tifo_id", tifo.ID.String()).
		Str("group", tifo.GroupName).
		Str("tifo", tifo.Name).
		Int("places", tifo.Places).
		Int("frames", len(req.Durations)).
		Msg("tifo saved")

	a.publishTifoPublished(ctx, tifo, len(req.Durations))
	return tifo, nil
}

// ValidateSeat checks that group/tifo exist and place is within 1..places
func (a *App) ValidateSeat(ctx context.Context, groupName, tifoName string, place int) (*models.Tifo, error) {
	groupName, tifoName = strings.TrimSpace(groupName), strings.TrimSpace(tifoName)

	var tifo *models.Tifo
	if isDemo(groupName, tifoName) {
		t := demoTifo()
		tifo = &t
	} else {
		var err error
		tifo, err = a.repo.GetTifoByGroupAndName(ctx, groupName, tifoName)
		if err != nil {
			return nil, classify(err)
		}
	}

	if place < 1 || place > tifo.Places {
		return nil, fmt.Errorf("%w: %d is outside 1..%d", ErrInvalidPlace, place, tifo.Places)
	}
	return tifo, nil
}

// GetLastPlace returns the highest place number holding choreography data
func (a *App) GetLastPlace(ctx context.Context, tifoID uuid.UUID) (int, error) {
	if tifoID == DemoTifoID {
		return choreography.DemoBundle().Places, nil
	}

	last, err := a.repo.GetLastPlace(ctx, tifoID)
	if err != nil {
		return 0, classify(err)
	}
	return last, nil
}

// GetSeatChoreography returns the playable choreography for one seat
func (a *App) GetSeatChoreography(ctx context.Context, groupName, tifoName string, place int) (*SeatChoreography, error) {
	tifo, err := a.ValidateSeat(ctx, groupName, tifoName, place)
	if err != nil {
		return nil, err
	}
	if tifo.ID == DemoTifoID {
		return demoSeat(), nil
	}

	bundle, err := a.repo.GetSeatBundle(ctx, tifo, place)
	if err != nil {
		return nil, classify(err)
	}
	if len(bundle.Colors) == 0 {
		return nil, fmt.Errorf("%w %d of %s/%s", ErrSeatNotFound, place, tifo.GroupName, tifo.Name)
	}
	if _, err := choreography.Load(bundle); err != nil {
		return nil, fmt.Errorf("stored choreography for place %d is not playable: %w", place, err)
	}

	return &SeatChoreography{
		TifoID:   tifo.ID,
		Settings: tifo.Settings,
		Bundle:   bundle,
	}, nil
}

func (a *App) publishTifoPublished(ctx context.Context, tifo *models.Tifo, frames int) {
	event, err := events.NewEvent(events.EventTypeTifoPublished, tifo.ID, events.TifoPublishedPayload{
		TifoID:      tifo.ID.String(),
		GroupName:   tifo.GroupName,
		TifoName:    tifo.Name,
		Places:      tifo.Places,
		FrameCount:  frames,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Str("tifo_id", tifo.ID.String()).Msg("failed to build tifo event")
		return
	}

	if err := a.publisher.Publish(ctx, event); err != nil {
		log.Error().Err(err).Str("tifo_id", tifo.ID.String()).Msg("failed to publish tifo event")
	}
}

// classify maps storage failures other than missing rows to ErrCatalogUnavailable
func classify(err error) error {
	if errors.Is(err, ErrTifoNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
}

func validateCreateTifo(req CreateTifoRequest) error {
	if err := validateName("group_name", req.GroupName); err != nil {
		return err
	}
	if err := validateName("tifo_name", req.TifoName); err != nil {
		return err
	}
	if isDemo(req.GroupName, req.TifoName) {
		return fmt.Errorf("%w: %s/%s is reserved", ErrInvalidTifo, DemoGroupName, DemoTifoName)
	}
	if req.Places < 1 {
		return fmt.Errorf("%w: places must be at least 1", ErrInvalidTifo)
	}
	if len(req.Durations) == 0 {
		return fmt.Errorf("%w: durations are required", ErrInvalidTifo)
	}
	for i, d := range req.Durations {
		if d <= 0 {
			return fmt.Errorf("%w: duration %d must be positive", ErrInvalidTifo, i)
		}
	}
	if len(req.Palette) == 0 {
		return fmt.Errorf("%w: palette is required", ErrInvalidTifo)
	}

	switch choreography.Unit(req.Settings.Unit) {
	case "", choreography.UnitSeconds, choreography.UnitMilliseconds:
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidTifo, req.Settings.Unit)
	}
	switch req.Settings.DisplayMode {
	case "", models.DisplayModeColor:
	case models.DisplayModeIcon:
		if len(req.Icons) == 0 {
			return fmt.Errorf("%w: icon display mode needs icons", ErrInvalidTifo)
		}
	default:
		return fmt.Errorf("%w: unknown display mode %q", ErrInvalidTifo, req.Settings.DisplayMode)
	}

	if len(req.Collections) == 0 {
		return fmt.Errorf("%w: collections are required", ErrInvalidTifo)
	}
	for place, colors := range req.Collections {
		if place < 1 || place > req.Places {
			return fmt.Errorf("%w: place %d is outside 1..%d", ErrInvalidTifo, place, req.Places)
		}
		if len(colors) != len(req.Durations) {
			return fmt.Errorf("%w: place %d has %d colors for %d durations", ErrInvalidTifo, place, len(colors), len(req.Durations))
		}
		for i, c := range colors {
			if c < 1 {
				return fmt.Errorf("%w: place %d color %d must be at least 1", ErrInvalidTifo, place, i)
			}
		}
	}
	return nil
}

func validateName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidTifo, field)
	}
	if len(value) > maxNameLength {
		return fmt.Errorf("%w: %s cannot exceed %d characters", ErrInvalidTifo, field, maxNameLength)
	}
	return nil
}
