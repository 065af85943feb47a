package groups

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mcdev12/tiforama/go/internal/models"
	"github.com/mcdev12/tiforama/go/internal/rpcjson"
)

// GroupsApp defines what the service layer needs from the groups application
type GroupsApp interface {
	ListGroups(ctx context.Context) ([]models.Group, error)
	CreateGroup(ctx context.Context, name string) (*models.Group, error)
}

// Service implements the GroupService RPC interface
type Service struct {
	app GroupsApp
}

// NewService creates a new groups RPC service
func NewService(app GroupsApp) *Service {
	return &Service{
		app: app,
	}
}

// ListGroups lists groups with their tifo counts
func (s *Service) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	groups, err := s.app.ListGroups(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	if groups == nil {
		groups = []models.Group{}
	}
	return connect.NewResponse(&ListGroupsResponse{Groups: groups}), nil
}

// CreateGroup creates or returns a group by name
func (s *Service) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	group, err := s.app.CreateGroup(ctx, req.Msg.Name)
	if errors.Is(err, ErrInvalidGroup) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&CreateGroupResponse{Group: *group}), nil
}

// NewGroupServiceHandler builds an HTTP handler serving every GroupService
// procedure. It returns the path prefix to mount it on.
func NewGroupServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{rpcjson.WithCodec()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListGroupsProcedure, connect.NewUnaryHandler(ListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(CreateGroupProcedure, connect.NewUnaryHandler(CreateGroupProcedure, svc.CreateGroup, opts...))
	return "/" + GroupServiceName + "/", mux
}
