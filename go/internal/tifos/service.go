package tifos

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/tiforama/go/internal/models"
	"github.com/mcdev12/tiforama/go/internal/rpcjson"
)

// TifosApp defines what the service layer needs from the tifos application
type TifosApp interface {
	ListTifos(ctx context.Context, groupID *uuid.UUID) ([]models.Tifo, error)
	GetTifo(ctx context.Context, id uuid.UUID) (*models.TifoDetail, error)
	CreateTifo(ctx context.Context, req CreateTifoRequest) (*models.Tifo, error)
	ValidateSeat(ctx context.Context, groupName, tifoName string, place int) (*models.Tifo, error)
	GetLastPlace(ctx context.Context, tifoID uuid.UUID) (int, error)
	GetSeatChoreography(ctx context.Context, groupName, tifoName string, place int) (*SeatChoreography, error)
}

// Service implements the TifoService RPC interface
type Service struct {
	app TifosApp
}

// NewService creates a new tifos RPC service
func NewService(app TifosApp) *Service {
	return &Service{
		app: app,
	}
}

func (s *Service) ListTifos(ctx context.Context, req *connect.Request[ListTifosRequest]) (*connect.Response[ListTifosResponse], error) {
	tifos, err := s.app.ListTifos(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if tifos == nil {
		tifos = []models.Tifo{}
	}
	return connect.NewResponse(&ListTifosResponse{Tifos: tifos}), nil
}

func (s *Service) GetTifo(ctx context.Context, req *connect.Request[GetTifoRequest]) (*connect.Response[GetTifoResponse], error) {
	tifo, err := s.app.GetTifo(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetTifoResponse{Tifo: *tifo}), nil
}

func (s *Service) CreateTifo(ctx context.Context, req *connect.Request[CreateTifoRequest]) (*connect.Response[CreateTifoResponse], error) {
	tifo, err := s.app.CreateTifo(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateTifoResponse{TifoID: tifo.ID}), nil
}

func (s *Service) ValidateSeat(ctx context.Context, req *connect.Request[ValidateSeatRequest]) (*connect.Response[ValidateSeatResponse], error) {
	tifo, err := s.app.ValidateSeat(ctx, req.Msg.GroupName, req.Msg.TifoName, req.Msg.Place)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ValidateSeatResponse{TifoID: tifo.ID, Places: tifo.Places}), nil
}

func (s *Service) GetLastPlace(ctx context.Context, req *connect.Request[GetLastPlaceRequest]) (*connect.Response[GetLastPlaceResponse], error) {
	last, err := s.app.GetLastPlace(ctx, req.Msg.TifoID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetLastPlaceResponse{LastPlace: last}), nil
}

func (s *Service) GetSeatChoreography(ctx context.Context, req *connect.Request[GetSeatChoreographyRequest]) (*connect.Response[GetSeatChoreographyResponse], error) {
	seat, err := s.app.GetSeatChoreography(ctx, req.Msg.GroupName, req.Msg.TifoName, req.Msg.Place)
	if err != nil {
		return nil, toConnectError(err)
	}

	mode := seat.Settings.DisplayMode
	if mode == "" {
		mode = models.DisplayModeColor
	}
	return connect.NewResponse(&GetSeatChoreographyResponse{
		TifoID:      seat.TifoID,
		DisplayMode: mode,
		Slideshow:   seat.Settings.Slideshow,
		Bundle:      seat.Bundle,
	}), nil
}

// NewTifoServiceHandler builds an HTTP handler serving every TifoService
// procedure. It returns the path prefix to mount it on.
func NewTifoServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{rpcjson.WithCodec()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListTifosProcedure, connect.NewUnaryHandler(ListTifosProcedure, svc.ListTifos, opts...))
	mux.Handle(GetTifoProcedure, connect.NewUnaryHandler(GetTifoProcedure, svc.GetTifo, opts...))
	mux.Handle(CreateTifoProcedure, connect.NewUnaryHandler(CreateTifoProcedure, svc.CreateTifo, opts...))
	mux.Handle(ValidateSeatProcedure, connect.NewUnaryHandler(ValidateSeatProcedure, svc.ValidateSeat, opts...))
	mux.Handle(GetLastPlaceProcedure, connect.NewUnaryHandler(GetLastPlaceProcedure, svc.GetLastPlace, opts...))
	mux.Handle(GetSeatChoreographyProcedure, connect.NewUnaryHandler(GetSeatChoreographyProcedure, svc.GetSeatChoreography, opts...))
	return "/" + TifoServiceName + "/", mux
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidTifo), errors.Is(err, ErrInvalidPlace):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ErrTifoNotFound), errors.Is(err, ErrSeatNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrCatalogUnavailable):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
