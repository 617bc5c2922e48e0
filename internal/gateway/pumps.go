package gateway

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/duelgrid/server/internal/events"
	"github.com/duelgrid/server/internal/session"
)

// writePump sends queued messages and keepalive pings to the socket.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.manager.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client messages and dispatches them into the session
// coordinator. When the socket drops, the player is disconnected from
// their room.
func (c *Connection) readPump(api SessionAPI) {
	defer func() {
		c.manager.unregister(c)
		c.conn.Close()
		api.HandleDisconnect(c.PlayerID)
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}
		c.handleClientMessage(api, raw)
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}

// handleClientMessage decodes one inbound message and routes it.
func (c *Connection) handleClientMessage(api SessionAPI, raw []byte) {
	msg, err := events.ParseClientMessage(raw)
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.ID).
			Msg("discarding malformed client message")
		return
	}

	switch msg.Type {
	case events.ClientJoin:
		c.handleJoin(api, msg.RoomID)
	case events.ClientInput:
		if msg.Input == nil {
			return
		}
		api.HandlePlayerInput(c.PlayerID, msg.RoomID, *msg.Input)
	case events.ClientRematch:
		api.HandleRematchRequest(c.PlayerID, msg.RoomID)
	default:
		log.Debug().
			Str("connection_id", c.ID).
			Str("type", msg.Type).
			Msg("unknown client message type")
	}
}

// handleJoin performs transport-level room registration around the
// coordinator's join. A socket already registered to a room is rejected
// outright, so it cannot migrate its pool membership while the coordinator
// still counts the player in the old room. Otherwise the socket registers
// with the room pool first so the resulting playerJoined broadcast reaches
// the joining player too; a rejected join rolls the registration back.
func (c *Connection) handleJoin(api SessionAPI, roomID string) {
	if c.manager.roomOf(c) != "" {
		c.sendMessage(events.TypeJoinResult, session.JoinResult{Message: "Already in a room"})
		return
	}

	c.manager.joinRoom(c, roomID)

	result := api.JoinRoom(c.PlayerID, roomID)
	if !result.Success {
		c.manager.leaveRoom(c)
	}
	c.sendMessage(events.TypeJoinResult, result)
}

// sendMessage queues one event for this connection only. The registration
// check and the send share the manager's read lock so the channel cannot
// be closed by a concurrent unregister between them.
func (c *Connection) sendMessage(event events.Type, payload any) {
	data, err := json.Marshal(events.Message{Type: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", string(event)).Msg("failed to marshal message")
		return
	}

	c.manager.mu.RLock()
	defer c.manager.mu.RUnlock()
	if _, ok := c.manager.conns[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("send buffer full, dropping message")
	}
}
