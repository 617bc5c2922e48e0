// Package session implements the authoritative race session coordinator:
// the public join/input/disconnect/rematch operations, the per-room
// countdown sequencing, and the global simulation tick that advances every
// racing room.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/duelgrid/server/internal/events"
	"github.com/duelgrid/server/internal/physics"
	"github.com/duelgrid/server/internal/race"
)

// Broadcaster is the external collaborator used to push a named event to
// every socket currently associated with a room. Delivery is fire and
// forget; the coordinator never waits on it.
type Broadcaster interface {
	Broadcast(roomID string, event events.Type, payload any)
}

// JoinResult is the synchronous outcome of a join, consumed by the
// transport to decide whether to keep the socket registered to the room.
type JoinResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Config holds the coordinator's scheduling parameters and the shared
// physics tunables.
type Config struct {
	Physics           physics.Config
	TickInterval      time.Duration // global simulation step, ~60 Hz
	CountdownInterval time.Duration // spacing of countdown broadcasts
}

// DefaultConfig returns the reference scheduling configuration.
func DefaultConfig() Config {
	return Config{
		Physics:           physics.DefaultConfig(),
		TickInterval:      16 * time.Millisecond,
		CountdownInterval: time.Second,
	}
}

// Coordinator owns the room registry and is the only component that
// creates, mutates or destroys rooms. All public operations are
// synchronous, bounded-time mutations; per-room atomicity comes from each
// room's own lock, so unrelated rooms never serialize against each other.
type Coordinator struct {
	registry *race.Registry
	sink     Broadcaster
	clock    clockwork.Clock
	cfg      Config

	countdownsMu sync.Mutex
	countdowns   map[string]*countdown
}

// countdown tracks one outstanding per-room countdown timer so it can be
// cancelled before it fires into a destroyed or reset room.
type countdown struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

// NewCoordinator creates a coordinator pushing events through sink. Pass
// clockwork.NewRealClock() in production; tests inject a fake clock.
func NewCoordinator(sink Broadcaster, clock clockwork.Clock, cfg Config) *Coordinator {
	return &Coordinator{
		registry:   race.NewRegistry(),
		sink:       sink,
		clock:      clock,
		cfg:        cfg,
		countdowns: make(map[string]*countdown),
	}
}

// JoinRoom adds a player to roomID, creating the room on first use. On the
// join that fills the room the countdown sequence is scheduled. The result
// is returned synchronously; playerJoined is broadcast on success.
func (c *Coordinator) JoinRoom(playerID, roomID string) JoinResult {
	var (
		room           *race.Room
		startCountdown bool
		err            error
	)
	for {
		var created bool
		room, created = c.registry.GetOrCreate(roomID)
		if created {
			log.Info().Str("room_id", roomID).Msg("room created")
		}

		startCountdown, err = room.AddPlayer(playerID)
		if !errors.Is(err, race.ErrRoomClosed) {
			break
		}
		// Lost a race with the room's destruction; take a fresh one.
	}
	if err != nil {
		log.Debug().Err(err).Str("room_id", roomID).Str("player_id", playerID).Msg("join rejected")
		switch {
		case errors.Is(err, race.ErrRoomFull):
			return JoinResult{Message: "Room is full"}
		case errors.Is(err, race.ErrDuplicatePlayer):
			return JoinResult{Message: "Player already in room"}
		default:
			return JoinResult{Message: err.Error()}
		}
	}

	log.Info().Str("room_id", roomID).Str("player_id", playerID).Msg("player joined")
	c.sink.Broadcast(roomID, events.TypePlayerJoined, events.PlayerJoinedPayload{
		PlayerID: playerID,
		Players:  room.Players(),
	})

	if startCountdown {
		c.scheduleCountdown(roomID)
	}
	return JoinResult{Success: true}
}

// HandlePlayerInput overwrites the player's input and immediately pushes a
// state snapshot, independent of the fixed tick, for input responsiveness.
// Unknown rooms and players are a silent no-op: the message may legitimately
// race with a disconnect.
func (c *Coordinator) HandlePlayerInput(playerID, roomID string, in physics.Input) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}
	if !room.SetInput(playerID, in) {
		return
	}
	c.sink.Broadcast(roomID, events.TypeGameStateUpdate, room.Snapshot())
}

// HandleDisconnect removes the player from whichever room holds them,
// cancels any countdown that can no longer complete, notifies the survivors
// and destroys the room once empty.
func (c *Coordinator) HandleDisconnect(playerID string) {
	for _, room := range c.registry.Rooms() {
		removed, remaining := room.RemovePlayer(playerID)
		if !removed {
			continue
		}

		// A race cannot continue one-sided; whatever countdown was in
		// flight must not fire into the downgraded room.
		c.cancelCountdown(room.ID)

		log.Info().
			Str("room_id", room.ID).
			Str("player_id", playerID).
			Int("remaining", remaining).
			Msg("player disconnected")

		c.sink.Broadcast(room.ID, events.TypePlayerLeft, events.PlayerLeftPayload{
			Players:            room.Players(),
			DisconnectedPlayer: playerID,
		})

		if c.registry.DeleteIfEmpty(room.ID) {
			log.Info().Str("room_id", room.ID).Msg("room destroyed")
		}
	}
}

// HandleRematchRequest records a rematch vote. When both players have
// voted the room resets to a fresh race, rematchAccepted is broadcast and
// the countdown path re-enters as if the second player had just joined.
func (c *Coordinator) HandleRematchRequest(playerID, roomID string) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}
	if !room.RequestRematch(playerID) {
		return
	}

	log.Info().Str("room_id", roomID).Msg("rematch accepted")
	c.sink.Broadcast(roomID, events.TypeRematchAccepted, nil)

	if room.BeginCountdown() {
		c.scheduleCountdown(roomID)
	}
}

// Run drives the global simulation tick until ctx is cancelled. A single
// ticker advances every racing room; rooms in any other phase are skipped
// entirely.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := c.clock.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", c.cfg.TickInterval).Msg("simulation loop started")
	for {
		select {
		case <-ctx.Done():
			c.cancelAllCountdowns()
			log.Info().Msg("simulation loop stopped")
			return
		case <-ticker.Chan():
			c.step()
		}
	}
}

// step applies one integration pass to every racing room and broadcasts
// the resulting state.
func (c *Coordinator) step() {
	for _, room := range c.registry.Rooms() {
		snapshot, racing := room.Tick(c.cfg.Physics)
		if racing {
			c.sink.Broadcast(room.ID, events.TypeGameStateUpdate, snapshot)
		}
	}
}

// Stats reports live room and player counts.
func (c *Coordinator) Stats() (rooms, players int) {
	all := c.registry.Rooms()
	for _, room := range all {
		players += len(room.Players())
	}
	return len(all), players
}
