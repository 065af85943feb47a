package tifoapi

import (
	"context"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/tiforama/go/clients"
	"github.com/mcdev12/tiforama/go/internal/groups"
	"github.com/mcdev12/tiforama/go/internal/models"
	"github.com/mcdev12/tiforama/go/internal/rpcjson"
	"github.com/mcdev12/tiforama/go/internal/tifos"
)

// DefaultTimeout bounds a single catalog call
const DefaultTimeout = 10 * time.Second

// TifoAPIClient talks to the catalog services of a tiforama API server
type TifoAPIClient struct {
	*clients.BaseClient

	listGroups          *connect.Client[groups.ListGroupsRequest, groups.ListGroupsResponse]
	validateSeat        *connect.Client[tifos.ValidateSeatRequest, tifos.ValidateSeatResponse]
	getLastPlace        *connect.Client[tifos.GetLastPlaceRequest, tifos.GetLastPlaceResponse]
	getSeatChoreography *connect.Client[tifos.GetSeatChoreographyRequest, tifos.GetSeatChoreographyResponse]
}

func NewTifoAPIClient(baseURL string) *TifoAPIClient {
	base := clients.NewBaseClient(baseURL)
	base.SetTimeout(DefaultTimeout)

	httpClient := base.HTTPClient()
	return &TifoAPIClient{
		BaseClient:          base,
		listGroups:          connect.NewClient[groups.ListGroupsRequest, groups.ListGroupsResponse](httpClient, baseURL+groups.ListGroupsProcedure, rpcjson.WithCodec()),
		validateSeat:        connect.NewClient[tifos.ValidateSeatRequest, tifos.ValidateSeatResponse](httpClient, baseURL+tifos.ValidateSeatProcedure, rpcjson.WithCodec()),
		getLastPlace:        connect.NewClient[tifos.GetLastPlaceRequest, tifos.GetLastPlaceResponse](httpClient, baseURL+tifos.GetLastPlaceProcedure, rpcjson.WithCodec()),
		getSeatChoreography: connect.NewClient[tifos.GetSeatChoreographyRequest, tifos.GetSeatChoreographyResponse](httpClient, baseURL+tifos.GetSeatChoreographyProcedure, rpcjson.WithCodec()),
	}
}

func (c *TifoAPIClient) ListGroups(ctx context.Context) ([]models.Group, error) {
	res, err := c.listGroups.CallUnary(ctx, connect.NewRequest(&groups.ListGroupsRequest{}))
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return res.Msg.Groups, nil
}

// ValidateSeat returns the tifo id and place count when place is a valid seat
func (c *TifoAPIClient) ValidateSeat(ctx context.Context, groupName, tifoName string, place int) (*tifos.ValidateSeatResponse, error) {
	res, err := c.validateSeat.CallUnary(ctx, connect.NewRequest(&tifos.ValidateSeatRequest{
		GroupName: groupName,
		TifoName:  tifoName,
		Place:     place,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to validate seat: %w", err)
	}
	return res.Msg, nil
}

func (c *TifoAPIClient) GetLastPlace(ctx context.Context, tifoID uuid.UUID) (int, error) {
	res, err := c.getLastPlace.CallUnary(ctx, connect.NewRequest(&tifos.GetLastPlaceRequest{TifoID: tifoID}))
	if err != nil {
		return 0, fmt.Errorf("failed to get last place: %w", err)
	}
	return res.Msg.LastPlace, nil
}

// GetSeatChoreography fetches the bundle for one seat
func (c *TifoAPIClient) GetSeatChoreography(ctx context.Context, groupName, tifoName string, place int) (*tifos.GetSeatChoreographyResponse, error) {
	res, err := c.getSeatChoreography.CallUnary(ctx, connect.NewRequest(&tifos.GetSeatChoreographyRequest{
		GroupName: groupName,
		TifoName:  tifoName,
		Place:     place,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to get seat choreography: %w", err)
	}
	return res.Msg, nil
}
