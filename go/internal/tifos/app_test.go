package tifos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/events"
	"github.com/mcdev12/tiforama/go/internal/models"
	"github.com/mcdev12/tiforama/go/internal/rpcjson"
)

type storedTifo struct {
	tifo models.Tifo
	req  CreateTifoRequest
}

type fakeRepo struct {
	mu    sync.Mutex
	tifos map[uuid.UUID]*storedTifo
	err   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tifos: make(map[uuid.UUID]*storedTifo)}
}

func (f *fakeRepo) CreateTifo(_ context.Context, req CreateTifoRequest) (*models.Tifo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, st := range f.tifos {
		if st.tifo.GroupName == req.GroupName && st.tifo.Name == req.TifoName {
			st.req = req
			st.tifo.Places = req.Places
			st.tifo.Settings = req.Settings
			t := st.tifo
			return &t, nil
		}
	}
	st := &storedTifo{
		tifo: models.Tifo{
			ID:        uuid.New(),
			GroupID:   uuid.New(),
			GroupName: req.GroupName,
			Name:      req.TifoName,
			Places:    req.Places,
			MP3URL:    req.MP3URL,
			Settings:  req.Settings,
			CreatedAt: time.Now(),
		},
		req: req,
	}
	f.tifos[st.tifo.ID] = st
	t := st.tifo
	return &t, nil
}

func (f *fakeRepo) GetTifo(_ context.Context, id uuid.UUID) (*models.TifoDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	st, ok := f.tifos[id]
	if !ok {
		return nil, ErrTifoNotFound
	}
	return &models.TifoDetail{
		Tifo:        st.tifo,
		Durations:   st.req.Durations,
		Icons:       st.req.Icons,
		Palette:     st.req.Palette,
		Collections: st.req.Collections,
	}, nil
}

func (f *fakeRepo) GetTifoByGroupAndName(_ context.Context, groupName, tifoName string) (*models.Tifo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, st := range f.tifos {
		if st.tifo.GroupName == groupName && st.tifo.Name == tifoName {
			t := st.tifo
			return &t, nil
		}
	}
	return nil, ErrTifoNotFound
}

func (f *fakeRepo) ListTifos(_ context.Context, groupID *uuid.UUID) ([]models.Tifo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Tifo
	for _, st := range f.tifos {
		if groupID == nil || st.tifo.GroupID == *groupID {
			out = append(out, st.tifo)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetLastPlace(_ context.Context, tifoID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	last := 0
	if st, ok := f.tifos[tifoID]; ok {
		for place := range st.req.Collections {
			last = max(last, place)
		}
	}
	return last, nil
}

func (f *fakeRepo) GetSeatBundle(_ context.Context, tifo *models.Tifo, place int) (choreography.Bundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return choreography.Bundle{}, f.err
	}
	st := f.tifos[tifo.ID]
	return choreography.Bundle{
		Colors:    st.req.Collections[place],
		Durations: st.req.Durations,
		Palette:   st.req.Palette,
		Icons:     st.req.Icons,
		Places:    st.req.Places,
		Unit:      choreography.Unit(st.req.Settings.Unit),
	}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func validRequest() CreateTifoRequest {
	return CreateTifoRequest{
		GroupName: "Curva Sud",
		TifoName:  "derby",
		Durations: []int{2, 3, 1},
		Icons:     []string{"star", "heart"},
		Palette:   []string{"#FF0000", "#FFFFFF"},
		Places:    3,
		Collections: map[int][]int{
			1: {1, 1, 2},
			2: {2, 2, 1},
			3: {1, 2, 1},
		},
	}
}

func TestCreateTifoPublishesEvent(t *testing.T) {
	repo := newFakeRepo()
	pub := &recordingPublisher{}
	app := NewApp(repo, pub)

	req := validRequest()
	req.GroupName = "  Curva Sud  "
	tifo, err := app.CreateTifo(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Curva Sud", tifo.GroupName)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.EventTypeTifoPublished, pub.events[0].EventType)
	assert.Equal(t, tifo.ID, pub.events[0].TifoID)
}

func TestCreateTifoSurvivesPublishFailure(t *testing.T) {
	app := NewApp(newFakeRepo(), &recordingPublisher{err: errors.New("nats down")})
	_, err := app.CreateTifo(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestCreateTifoValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateTifoRequest)
	}{
		{name: "missing group", mutate: func(r *CreateTifoRequest) { r.GroupName = " " }},
		{name: "missing tifo", mutate: func(r *CreateTifoRequest) { r.TifoName = "" }},
		{name: "reserved demo", mutate: func(r *CreateTifoRequest) { r.GroupName, r.TifoName = "demo", "demo" }},
		{name: "zero places", mutate: func(r *CreateTifoRequest) { r.Places = 0 }},
		{name: "no durations", mutate: func(r *CreateTifoRequest) { r.Durations = nil }},
		{name: "zero duration", mutate: func(r *CreateTifoRequest) { r.Durations[1] = 0 }},
		{name: "empty palette", mutate: func(r *CreateTifoRequest) { r.Palette = nil }},
		{name: "no collections", mutate: func(r *CreateTifoRequest) { r.Collections = nil }},
		{name: "place out of range", mutate: func(r *CreateTifoRequest) { r.Collections[4] = []int{1, 1, 1} }},
		{name: "short collection", mutate: func(r *CreateTifoRequest) { r.Collections[2] = []int{1, 1} }},
		{name: "color below one", mutate: func(r *CreateTifoRequest) { r.Collections[1] = []int{1, 0, 1} }},
		{name: "unknown unit", mutate: func(r *CreateTifoRequest) { r.Settings.Unit = "min" }},
		{name: "icon mode without icons", mutate: func(r *CreateTifoRequest) {
			r.Settings.DisplayMode = models.DisplayModeIcon
			r.Icons = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			app := NewApp(newFakeRepo(), pub)

			req := validRequest()
			tt.mutate(&req)

			_, err := app.CreateTifo(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidTifo)
			assert.Empty(t, pub.events)
		})
	}
}

func TestValidateSeat(t *testing.T) {
	app := NewApp(newFakeRepo(), &recordingPublisher{})
	created, err := app.CreateTifo(context.Background(), validRequest())
	require.NoError(t, err)

	tifo, err := app.ValidateSeat(context.Background(), "Curva Sud", "derby", 3)
	require.NoError(t, err)
	assert.Equal(t, created.ID, tifo.ID)

	_, err = app.ValidateSeat(context.Background(), "Curva Sud", "derby", 0)
	assert.ErrorIs(t, err, ErrInvalidPlace)

	_, err = app.ValidateSeat(context.Background(), "Curva Sud", "derby", 4)
	assert.ErrorIs(t, err, ErrInvalidPlace)

	_, err = app.ValidateSeat(context.Background(), "Curva Sud", "final", 1)
	assert.ErrorIs(t, err, ErrTifoNotFound)
}

func TestGetSeatChoreography(t *testing.T) {
	app := NewApp(newFakeRepo(), &recordingPublisher{})
	_, err := app.CreateTifo(context.Background(), validRequest())
	require.NoError(t, err)

	seat, err := app.GetSeatChoreography(context.Background(), "Curva Sud", "derby", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, seat.Bundle.Colors)
	assert.Equal(t, []int{2, 3, 1}, seat.Bundle.Durations)

	model, err := choreography.Load(seat.Bundle)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Second, model.TotalDuration())
}

func TestGetSeatChoreographyMissingSeat(t *testing.T) {
	app := NewApp(newFakeRepo(), &recordingPublisher{})
	req := validRequest()
	req.Places = 5
	_, err := app.CreateTifo(context.Background(), req)
	require.NoError(t, err)

	_, err = app.GetSeatChoreography(context.Background(), "Curva Sud", "derby", 5)
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestDemoTifoServedWithoutStorage(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("dial tcp: connection refused")
	app := NewApp(repo, &recordingPublisher{})
	ctx := context.Background()

	tifos, err := app.ListTifos(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tifos, 1)
	assert.Equal(t, DemoTifoID, tifos[0].ID)

	seat, err := app.GetSeatChoreography(ctx, DemoGroupName, DemoTifoName, 42)
	require.NoError(t, err)
	assert.Equal(t, choreography.DemoBundle(), seat.Bundle)

	detail, err := app.GetTifo(ctx, DemoTifoID)
	require.NoError(t, err)
	assert.Len(t, detail.Collections, 100)

	last, err := app.GetLastPlace(ctx, DemoTifoID)
	require.NoError(t, err)
	assert.Equal(t, 100, last)

	_, err = app.GetSeatChoreography(ctx, "Curva Sud", "derby", 1)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestTifoServiceOverHTTP(t *testing.T) {
	repo := newFakeRepo()
	path, handler := NewTifoServiceHandler(NewService(NewApp(repo, &recordingPublisher{})))

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	create := connect.NewClient[CreateTifoRequest, CreateTifoResponse](srv.Client(), srv.URL+CreateTifoProcedure, rpcjson.WithCodec())
	get := connect.NewClient[GetTifoRequest, GetTifoResponse](srv.Client(), srv.URL+GetTifoProcedure, rpcjson.WithCodec())
	seat := connect.NewClient[GetSeatChoreographyRequest, GetSeatChoreographyResponse](srv.Client(), srv.URL+GetSeatChoreographyProcedure, rpcjson.WithCodec())
	last := connect.NewClient[GetLastPlaceRequest, GetLastPlaceResponse](srv.Client(), srv.URL+GetLastPlaceProcedure, rpcjson.WithCodec())
	validate := connect.NewClient[ValidateSeatRequest, ValidateSeatResponse](srv.Client(), srv.URL+ValidateSeatProcedure, rpcjson.WithCodec())

	created, err := create.CallUnary(ctx, connect.NewRequest(ptr(validRequest())))
	require.NoError(t, err)
	tifoID := created.Msg.TifoID

	detail, err := get.CallUnary(ctx, connect.NewRequest(&GetTifoRequest{ID: tifoID}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1}, detail.Msg.Tifo.Collections[3])

	res, err := seat.CallUnary(ctx, connect.NewRequest(&GetSeatChoreographyRequest{GroupName: "Curva Sud", TifoName: "derby", Place: 1}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, res.Msg.Bundle.Colors)
	assert.Equal(t, models.DisplayModeColor, res.Msg.DisplayMode)

	lastRes, err := last.CallUnary(ctx, connect.NewRequest(&GetLastPlaceRequest{TifoID: tifoID}))
	require.NoError(t, err)
	assert.Equal(t, 3, lastRes.Msg.LastPlace)

	tests := []struct {
		name string
		call func() error
		code connect.Code
	}{
		{
			name: "invalid create",
			call: func() error {
				req := validRequest()
				req.Palette = nil
				_, err := create.CallUnary(ctx, connect.NewRequest(&req))
				return err
			},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "unknown tifo",
			call: func() error {
				_, err := get.CallUnary(ctx, connect.NewRequest(&GetTifoRequest{ID: uuid.New()}))
				return err
			},
			code: connect.CodeNotFound,
		},
		{
			name: "place out of range",
			call: func() error {
				_, err := validate.CallUnary(ctx, connect.NewRequest(&ValidateSeatRequest{GroupName: "Curva Sud", TifoName: "derby", Place: 9}))
				return err
			},
			code: connect.CodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}

	repo.err = errors.New("connection refused")
	_, err = get.CallUnary(ctx, connect.NewRequest(&GetTifoRequest{ID: tifoID}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
}

func ptr[T any](v T) *T { return &v }
