package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/animation"
	"github.com/mcdev12/tiforama/go/internal/choreography"
	"github.com/mcdev12/tiforama/go/internal/tifos"
)

// SeatSource resolves a seat's choreography
type SeatSource interface {
	GetSeatChoreography(ctx context.Context, groupName, tifoName string, place int) (*tifos.SeatChoreography, error)
}

// WebSocketHandler handles WebSocket upgrade requests for spectator seats
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	seats             SeatSource
	clock             clockwork.Clock
	time              animation.TimeSource
	engineConfig      animation.Config
}

// NewWebSocketHandler creates a new WebSocket handler. Every connection gets
// an engine built from engineConfig, driven by clock and corrected by ts.
func NewWebSocketHandler(cm *ConnectionManager, seats SeatSource, clock clockwork.Clock, ts animation.TimeSource, engineConfig animation.Config) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		seats:             seats,
		clock:             clock,
		time:              ts,
		engineConfig:      engineConfig,
	}
}

// HandlePlay serves GET /ws/play?group=&tifo=&place=
func (h *WebSocketHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	groupName := strings.TrimSpace(query.Get("group"))
	tifoName := strings.TrimSpace(query.Get("tifo"))
	if groupName == "" || tifoName == "" {
		http.Error(w, "group and tifo are required", http.StatusBadRequest)
		return
	}

	place, err := strconv.Atoi(query.Get("place"))
	if err != nil {
		http.Error(w, "place must be a number", http.StatusBadRequest)
		return
	}

	seat, err := h.seats.GetSeatChoreography(r.Context(), groupName, tifoName, place)
	if err != nil {
		log.Warn().
			Err(err).
			Str("group", groupName).
			Str("tifo", tifoName).
			Int("place", place).
			Msg("seat lookup failed")
		http.Error(w, err.Error(), seatErrorStatus(err))
		return
	}

	model, err := choreography.Load(seat.Bundle)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	config := h.engineConfig
	config.Slideshow = config.Slideshow || seat.Settings.Slideshow
	newEngine := func(player *SocketPlayer) *animation.Engine {
		return animation.NewEngine(h.clock, h.time, player, config)
	}

	if err := h.connectionManager.Attach(w, r, seat.TifoID, place, model, newEngine); err != nil {
		log.Error().
			Err(err).
			Str("tifo_id", seat.TifoID.String()).
			Int("place", place).
			Msg("failed to attach WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/play", h.HandlePlay)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}

func seatErrorStatus(err error) int {
	switch {
	case errors.Is(err, tifos.ErrInvalidPlace):
		return http.StatusBadRequest
	case errors.Is(err, tifos.ErrTifoNotFound), errors.Is(err, tifos.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, tifos.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
