// Package gateway is the WebSocket transport for race rooms. It upgrades
// client connections, decodes inbound join/input/rematch messages into
// session coordinator calls, and implements the coordinator's broadcast
// sink by fanning events out to every socket registered to a room.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/duelgrid/server/internal/events"
	"github.com/duelgrid/server/internal/physics"
	"github.com/duelgrid/server/internal/session"
)

// SessionAPI is what the gateway needs from the session coordinator.
type SessionAPI interface {
	JoinRoom(playerID, roomID string) session.JoinResult
	HandlePlayerInput(playerID, roomID string, in physics.Input)
	HandleDisconnect(playerID string)
	HandleRematchRequest(playerID, roomID string)
}

// ConnectionManager tracks WebSocket connections and their room
// membership, and delivers room broadcasts.
type ConnectionManager struct {
	mu        sync.RWMutex
	conns     map[*Connection]string            // connection -> room id ("" before join)
	roomConns map[string]map[*Connection]bool   // room id -> pool

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan broadcastMessage
}

// Connection is one player's WebSocket connection.
type Connection struct {
	ID       string
	PlayerID string

	manager *ConnectionManager
	conn    *websocket.Conn
	send    chan []byte

	ConnectedAt time.Time
}

// ConnectionConfig holds transport tuning for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcastMessage struct {
	roomID string
	data   []byte
}

// DefaultConnectionConfig returns the default WebSocket tuning.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		conns:     make(map[*Connection]string),
		roomConns: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Start processes broadcast messages until ctx is cancelled.
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

// Broadcast implements session.Broadcaster: it marshals the event envelope
// once and queues it for delivery to every socket in the room. Delivery is
// fire and forget; a full queue drops the message rather than stalling the
// simulation.
func (cm *ConnectionManager) Broadcast(roomID string, event events.Type, payload any) {
	data, err := json.Marshal(events.Message{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", string(event)).Msg("failed to marshal event for broadcast")
		return
	}

	select {
	case cm.broadcastCh <- broadcastMessage{roomID: roomID, data: data}:
	default:
		log.Warn().Str("room_id", roomID).Str("event", string(event)).Msg("broadcast channel full, dropping message")
	}
}

// handleBroadcast delivers one queued message to the room's pool. The
// sends happen under the read lock: unregister closes send channels under
// the write lock, so a channel reachable here cannot be closed mid-send.
// Slow connections are collected and torn down after the lock is released.
func (cm *ConnectionManager) handleBroadcast(message broadcastMessage) {
	var slow []*Connection

	cm.mu.RLock()
	for conn := range cm.roomConns[message.roomID] {
		select {
		case conn.send <- message.data:
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		// Connection is slow/dead, close it
		log.Warn().
			Str("connection_id", conn.ID).
			Str("player_id", conn.PlayerID).
			Msg("connection send buffer full, closing connection")
		cm.unregister(conn)
		conn.conn.Close()
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection and
// starts its read/write pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, playerID string, api SessionAPI) error {
	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	conn := &Connection{
		ID:          uuid.New().String(),
		PlayerID:    playerID,
		manager:     cm,
		conn:        ws,
		send:        make(chan []byte, 256),
		ConnectedAt: time.Now(),
	}

	cm.mu.Lock()
	cm.conns[conn] = ""
	cm.mu.Unlock()

	go conn.writePump()
	go conn.readPump(api)

	log.Info().
		Str("connection_id", conn.ID).
		Str("player_id", playerID).
		Msg("WebSocket connection established")
	return nil
}

// joinRoom adds the connection to a room pool so broadcasts for that room
// reach it.
func (cm *ConnectionManager) joinRoom(conn *Connection, roomID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, ok := cm.conns[conn]; !ok {
		return
	}
	cm.leaveRoomLocked(conn)
	cm.conns[conn] = roomID
	if cm.roomConns[roomID] == nil {
		cm.roomConns[roomID] = make(map[*Connection]bool)
	}
	cm.roomConns[roomID][conn] = true
}

// roomOf returns the room the connection is registered to, or "" when it
// has not joined one.
func (cm *ConnectionManager) roomOf(conn *Connection) string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conns[conn]
}

// leaveRoom detaches the connection from its room pool without closing it.
// Used when a join is rejected by the coordinator.
func (cm *ConnectionManager) leaveRoom(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.leaveRoomLocked(conn)
}

func (cm *ConnectionManager) leaveRoomLocked(conn *Connection) {
	roomID, ok := cm.conns[conn]
	if !ok || roomID == "" {
		return
	}
	cm.conns[conn] = ""
	if pool, ok := cm.roomConns[roomID]; ok {
		delete(pool, conn)
		if len(pool) == 0 {
			delete(cm.roomConns, roomID)
		}
	}
}

// unregister removes a connection entirely and closes its send channel.
// Safe to call from both pumps; only the first call tears down.
func (cm *ConnectionManager) unregister(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, ok := cm.conns[conn]; !ok {
		return
	}
	cm.leaveRoomLocked(conn)
	delete(cm.conns, conn)
	close(conn.send)

	log.Info().
		Str("connection_id", conn.ID).
		Str("player_id", conn.PlayerID).
		Msg("connection unregistered")
}

// Stats returns counts of active connections and room pools.
type Stats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveRooms      int            `json:"active_rooms"`
	RoomConnections  map[string]int `json:"room_connections"`
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() Stats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := Stats{
		TotalConnections: len(cm.conns),
		ActiveRooms:      len(cm.roomConns),
		RoomConnections:  make(map[string]int, len(cm.roomConns)),
	}
	for roomID, pool := range cm.roomConns {
		stats.RoomConnections[roomID] = len(pool)
	}
	return stats
}
