package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/tiforama/go/internal/animation"
	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/events"
	"github.com/mcdev12/tiforama/go/internal/tifos"
)

var seatTifoID = uuid.MustParse("9d3c2c7e-5a4b-4a8e-9b43-2f3f1d6f7a10")

type fakeSeats struct{}

func (fakeSeats) GetSeatChoreography(_ context.Context, groupName, tifoName string, place int) (*tifos.SeatChoreography, error) {
	if groupName != "north" || tifoName != "derby" {
		return nil, tifos.ErrTifoNotFound
	}
	if place < 1 || place > 100 {
		return nil, tifos.ErrInvalidPlace
	}
	return &tifos.SeatChoreography{TifoID: seatTifoID, Bundle: choreography.DemoBundle()}, nil
}

type clockTime struct {
	clock clockwork.Clock
}

func (c clockTime) Now() time.Time        { return c.clock.Now() }
func (c clockTime) Offset() time.Duration { return 0 }
func (c clockTime) Offline() bool         { return false }

type wireMessage struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wireSnapshot struct {
	Lifecycle            string `json:"lifecycle"`
	CountdownRemainingMs int64  `json:"countdown_remaining_ms"`
}

type harness struct {
	cm      *ConnectionManager
	handler *WebSocketHandler
	server  *httptest.Server
	cancel  context.CancelFunc
}

func newHarness(t *testing.T, second int) *harness {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 4, 20, 14, second, 0, time.UTC))
	cm := NewConnectionManager(DefaultConnectionConfig())
	handler := NewWebSocketHandler(cm, fakeSeats{}, clock, clockTime{clock: clock}, animation.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go cm.Start(ctx)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	server := httptest.NewServer(mux)

	h := &harness{cm: cm, handler: handler, server: server, cancel: cancel}
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return h
}

func (h *harness) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/play?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// reader keeps messages skipped while waiting for another type, since cues
// and snapshots travel on different goroutines and may interleave.
type reader struct {
	t       *testing.T
	conn    *websocket.Conn
	pending []wireMessage
}

func newReader(t *testing.T, conn *websocket.Conn) *reader {
	return &reader{t: t, conn: conn}
}

func (r *reader) next(match func(wireMessage) bool) wireMessage {
	r.t.Helper()
	for i, msg := range r.pending {
		if match(msg) {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return msg
		}
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(r.t, r.conn.SetReadDeadline(deadline))
		var msg wireMessage
		require.NoError(r.t, r.conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
		r.pending = append(r.pending, msg)
	}
}

func (r *reader) until(want MessageType) wireMessage {
	r.t.Helper()
	return r.next(func(m wireMessage) bool { return m.Type == want })
}

func (r *reader) snapshot(lifecycle string) wireSnapshot {
	r.t.Helper()
	var snap wireSnapshot
	r.next(func(m wireMessage) bool {
		if m.Type != MessageTypeSnapshot {
			return false
		}
		var s wireSnapshot
		if json.Unmarshal(m.Data, &s) != nil || s.Lifecycle != lifecycle {
			return false
		}
		snap = s
		return true
	})
	return snap
}

func TestPlayStartAndStop(t *testing.T) {
	h := newHarness(t, 45)
	conn := h.dial(t, "group=north&tifo=derby&place=7")
	r := newReader(t, conn)

	r.snapshot("idle")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeStart}))

	cue := r.until(MessageTypeCue)
	var cueData CueData
	require.NoError(t, json.Unmarshal(cue.Data, &cueData))
	assert.Equal(t, "countdown", string(cueData.Cue))
	assert.Equal(t, "countdown.mp3", cueData.File)
	assert.Equal(t, 1.0, cueData.Volume)

	snap := r.snapshot("counting_down")
	assert.Equal(t, int64(15000), snap.CountdownRemainingMs)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeStop}))

	stop := r.until(MessageTypeCueStop)
	var stopData CueStopData
	require.NoError(t, json.Unmarshal(stop.Data, &stopData))
	assert.True(t, stopData.All)

	r.snapshot("idle")
}

func TestStartRejectedBeforeGate(t *testing.T) {
	h := newHarness(t, 10)
	conn := h.dial(t, "group=north&tifo=derby&place=7")
	r := newReader(t, conn)
	r.snapshot("idle")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeStart}))

	msg := r.until(MessageTypeError)
	var data ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Contains(t, data.Message, "not available")
}

func TestUnknownClientMessage(t *testing.T) {
	h := newHarness(t, 45)
	conn := h.dial(t, "group=north&tifo=derby&place=7")
	r := newReader(t, conn)
	r.snapshot("idle")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"dance"}`)))
	r.until(MessageTypeError)
}

func TestPlayRejectsBadSeats(t *testing.T) {
	h := newHarness(t, 45)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{name: "missing tifo", query: "group=north&place=1", status: http.StatusBadRequest},
		{name: "non numeric place", query: "group=north&tifo=derby&place=x", status: http.StatusBadRequest},
		{name: "place out of range", query: "group=north&tifo=derby&place=101", status: http.StatusBadRequest},
		{name: "unknown tifo", query: "group=north&tifo=final&place=1", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/play?" + tt.query
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestTifoUpdatedBroadcast(t *testing.T) {
	h := newHarness(t, 45)
	conn := h.dial(t, "group=north&tifo=derby&place=3")
	r := newReader(t, conn)
	r.snapshot("idle")

	event, err := events.NewEvent(events.EventTypeTifoPublished, seatTifoID, events.TifoPublishedPayload{
		TifoID:   seatTifoID.String(),
		TifoName: "derby",
		Places:   100,
	})
	require.NoError(t, err)
	data, err := event.Encode()
	require.NoError(t, err)

	consumer := &EventConsumer{connectionManager: h.cm}
	require.NoError(t, consumer.HandleEvent(data))

	msg := r.until(MessageTypeTifoUpdated)
	var updated TifoUpdatedData
	require.NoError(t, json.Unmarshal(msg.Data, &updated))
	assert.Equal(t, event.ID.String(), updated.EventID)
	assert.Equal(t, "derby", updated.TifoName)
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	consumer := &EventConsumer{connectionManager: NewConnectionManager(DefaultConnectionConfig())}

	event, err := events.NewEvent("GroupRenamed", uuid.New(), map[string]string{"name": "x"})
	require.NoError(t, err)
	data, err := event.Encode()
	require.NoError(t, err)

	assert.NoError(t, consumer.HandleEvent(data))
	assert.Error(t, consumer.HandleEvent([]byte("{")))
}

func TestDisconnectReleasesSeat(t *testing.T) {
	h := newHarness(t, 45)
	conn := h.dial(t, "group=north&tifo=derby&place=3")
	r := newReader(t, conn)
	r.snapshot("idle")

	assert.Equal(t, 1, h.cm.Stats().TotalConnections)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageTypeStart}))
	r.snapshot("counting_down")
	conn.Close()

	assert.Eventually(t, func() bool {
		return h.cm.Stats().TotalConnections == 0
	}, 3*time.Second, 10*time.Millisecond)
}
