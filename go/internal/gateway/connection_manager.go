package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/animation"
	"github.com/mcdev12/tiforama/go/internal/choreography"
)

// ConnectionManager manages spectator WebSocket connections
type ConnectionManager struct {
	// Connection pools organized by tifo ID
	tifoConnections map[uuid.UUID]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection is one spectator seat. Each connection owns its engine.
type Connection struct {
	ID      string
	TifoID  uuid.UUID
	Place   int
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager
	Engine  *animation.Engine

	ConnectedAt time.Time

	sendMu sync.Mutex
	closed bool
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration             `yaml:"write_timeout"`
	ReadTimeout     time.Duration             `yaml:"read_timeout"`
	PingInterval    time.Duration             `yaml:"ping_interval"`
	MaxMessageSize  int64                     `yaml:"max_message_size"`
	ReadBufferSize  int                       `yaml:"read_buffer_size"`
	WriteBufferSize int                       `yaml:"write_buffer_size"`
	SendBufferSize  int                       `yaml:"send_buffer_size"`
	CheckOrigin     func(r *http.Request) bool `yaml:"-"`
}

// BroadcastMessage is a pre-encoded message for every connection on a tifo
type BroadcastMessage struct {
	TifoID uuid.UUID
	Data   []byte
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = DefaultConnectionConfig().SendBufferSize
	}
	return &ConnectionManager{
		tifoConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start processes broadcast messages until ctx is done
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Attach upgrades the request and runs a seat: the engine's state and cues
// flow to the socket, start/stop commands flow back. The engine is closed
// when the socket goes away.
func (cm *ConnectionManager) Attach(w http.ResponseWriter, r *http.Request, tifoID uuid.UUID, place int, model *choreography.Model, newEngine func(sound *SocketPlayer) *animation.Engine) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		TifoID:      tifoID,
		Place:       place,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}
	connection.Engine = newEngine(NewSocketPlayer(connection))
	if err := connection.Engine.Load(model); err != nil {
		conn.Close()
		return fmt.Errorf("failed to load choreography: %w", err)
	}

	snapshots, _ := connection.Engine.Subscribe()

	cm.registerConnection(connection)
	connection.sendSnapshot(connection.Engine.Snapshot())

	go connection.forwardSnapshots(snapshots)
	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("tifo_id", tifoID.String()).
		Int("place", place).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.tifoConnections[conn.TifoID] == nil {
		cm.tifoConnections[conn.TifoID] = make(map[*Connection]bool)
	}
	cm.tifoConnections[conn.TifoID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("tifo_id", conn.TifoID.String()).
		Int("total_connections", len(cm.tifoConnections[conn.TifoID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if connections, exists := cm.tifoConnections[conn.TifoID]; exists {
		if _, exists := connections[conn]; exists {
			delete(connections, conn)
			conn.closeSend()

			if len(connections) == 0 {
				delete(cm.tifoConnections, conn.TifoID)
			}

			log.Info().
				Str("connection_id", conn.ID).
				Str("tifo_id", conn.TifoID.String()).
				Int("place", conn.Place).
				Msg("connection unregistered")
		}
	}
}

// BroadcastToTifo queues a message for every connection playing tifoID
func (cm *ConnectionManager) BroadcastToTifo(tifoID uuid.UUID, data []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{TifoID: tifoID, Data: data}:
	default:
		log.Warn().Str("tifo_id", tifoID.String()).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.tifoConnections[message.TifoID]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	targetConnections := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targetConnections = append(targetConnections, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targetConnections {
		if !conn.trySend(message.Data) {
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("tifo_id", message.TifoID.String()).
		Int("connections", len(targetConnections)).
		Msg("message broadcasted")
}

// ConnectionStats summarizes active connections
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveTifos      int            `json:"active_tifos"`
	TifoConnections  map[string]int `json:"tifo_connections"`
}

// Stats returns statistics about active connections
func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActiveTifos:     len(cm.tifoConnections),
		TifoConnections: make(map[string]int, len(cm.tifoConnections)),
	}
	for tifoID, connections := range cm.tifoConnections {
		stats.TotalConnections += len(connections)
		stats.TifoConnections[tifoID.String()] = len(connections)
	}
	return stats
}

// trySend queues data without blocking. It reports false when the buffer is
// full or the connection is gone.
func (c *Connection) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Connection) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Connection) sendMessage(t MessageType, data any) {
	msg, err := encodeMessage(t, data)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to encode message")
		return
	}
	if !c.trySend(msg) {
		log.Debug().Str("connection_id", c.ID).Str("type", string(t)).Msg("dropping message for slow connection")
	}
}

func (c *Connection) sendSnapshot(snap animation.Snapshot) {
	data := SnapshotData{Snapshot: snap}
	if model := c.Engine.Model(); model != nil && (snap.Lifecycle == animation.Playing || snap.Lifecycle == animation.Finished) {
		if frame, ok := model.Frame(snap.CurrentFrameIndex); ok {
			data.Color = model.PaletteColor(frame.ColorIndex)
			if icon, err := model.IconFor(frame.ColorIndex); err == nil {
				data.Icon = icon
			}
		}
	}
	c.sendMessage(MessageTypeSnapshot, data)
}

func (c *Connection) forwardSnapshots(snapshots <-chan animation.Snapshot) {
	for snap := range snapshots {
		c.sendSnapshot(snap)
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection. Leaving
// it tears the seat down.
func (c *Connection) readPump() {
	defer func() {
		c.Engine.Close()
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage applies a start or stop command to the seat's engine
func (c *Connection) handleClientMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.sendMessage(MessageTypeError, ErrorData{Message: "malformed message"})
		return
	}

	log.Debug().
		Str("connection_id", c.ID).
		Str("type", string(msg.Type)).
		Msg("received client message")

	switch msg.Type {
	case MessageTypeStart:
		if !c.Engine.CanStart() {
			c.sendMessage(MessageTypeError, ErrorData{Message: "start is not available yet"})
			return
		}
		c.Engine.Start()
	case MessageTypeStop:
		c.Engine.Stop()
	default:
		c.sendMessage(MessageTypeError, ErrorData{Message: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}
