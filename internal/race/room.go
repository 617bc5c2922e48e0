package race

import (
	"sync"

	"github.com/duelgrid/server/internal/physics"
)

const (
	// MaxPlayers is the hard room capacity.
	MaxPlayers = 2
	// CountdownSeconds is the value the pre-race countdown starts from.
	CountdownSeconds = 3
)

// Room is an isolated two-player race session. It owns its state and
// vehicles exclusively; the mutex is the room's single serialization point,
// so tick integration, input writes, joins, disconnects and countdown steps
// never interleave incoherently. Rooms never share locks with each other.
type Room struct {
	ID string

	mu              sync.Mutex
	players         []string // join order; also drives full / can-start checks
	state           *State
	rematchRequests map[string]struct{}
	closed          bool // set when the registry drops the room; joins must not land after
}

// NewRoom creates an empty waiting-phase room with the caller-supplied id.
func NewRoom(id string) *Room {
	return &Room{
		ID:              id,
		state:           NewState(),
		rematchRequests: make(map[string]struct{}),
	}
}

// AddPlayer appends a freshly-initialized vehicle for playerID. It reports
// whether the join filled the room, in which case the phase has moved to
// countdown and the caller must schedule the countdown sequence.
func (r *Room) AddPlayer(playerID string) (startCountdown bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, ErrRoomClosed
	}
	if len(r.players) >= MaxPlayers {
		return false, ErrRoomFull
	}
	for _, id := range r.players {
		if id == playerID {
			return false, ErrDuplicatePlayer
		}
	}

	r.players = append(r.players, playerID)
	r.state.Players[playerID] = physics.NewVehicle(playerID)

	if len(r.players) == MaxPlayers {
		r.state.Phase = PhaseCountdown
		r.state.Countdown = CountdownSeconds
		return true, nil
	}
	return false, nil
}

// RemovePlayer deletes the player's id and vehicle. A race cannot continue
// one-sided: if exactly one player remains the room is forced back to
// waiting. Unknown ids are a no-op.
func (r *Room) RemovePlayer(playerID string) (removed bool, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, id := range r.players {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, len(r.players)
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.state.Players, playerID)
	delete(r.rematchRequests, playerID)

	if len(r.players) == 1 {
		r.state.Phase = PhaseWaiting
		r.state.Countdown = 0
	}
	return true, len(r.players)
}

// SetInput overwrites the player's input verbatim (last-write-wins, no
// sequencing). It reports whether the player is known to the room.
func (r *Room) SetInput(playerID string, in physics.Input) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.state.Players[playerID]
	if !ok {
		return false
	}
	v.Input = in
	return true
}

// RequestRematch records a rematch request from playerID. When both players
// have asked, the state is reset to a fresh waiting-phase race and the
// request set is cleared; accepted reports that reset. Requests from ids
// that are not room members are ignored.
func (r *Room) RequestRematch(playerID string) (accepted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	member := false
	for _, id := range r.players {
		if id == playerID {
			member = true
			break
		}
	}
	if !member {
		return false
	}

	r.rematchRequests[playerID] = struct{}{}
	if len(r.rematchRequests) < MaxPlayers {
		return false
	}

	r.state = NewState()
	for _, id := range r.players {
		r.state.Players[id] = physics.NewVehicle(id)
	}
	r.rematchRequests = make(map[string]struct{})
	return true
}

// BeginCountdown re-enters the countdown phase, as if the second player had
// just joined. It is a no-op unless the room is full and waiting.
func (r *Room) BeginCountdown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) != MaxPlayers || r.state.Phase != PhaseWaiting {
		return false
	}
	r.state.Phase = PhaseCountdown
	r.state.Countdown = CountdownSeconds
	return true
}

// CountdownStep advances the one-second countdown by one firing. value is
// the integer to broadcast for this step; raceStart reports that the
// countdown completed and the phase is now racing. ok is false when the
// room is no longer counting down, which makes a stale timer firing after a
// disconnect or reset harmless.
func (r *Room) CountdownStep() (value int, raceStart bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase != PhaseCountdown {
		return 0, false, false
	}
	value = r.state.Countdown
	if value <= 0 {
		r.state.Phase = PhaseRacing
		return value, true, true
	}
	r.state.Countdown--
	return value, false, true
}

// Tick applies one integration step to every vehicle and returns a snapshot
// for broadcast. Rooms not in the racing phase are skipped entirely: no
// vehicle is mutated and racing reports false.
func (r *Room) Tick(cfg physics.Config) (snapshot State, racing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase != PhaseRacing {
		return State{}, false
	}
	for _, v := range r.state.Players {
		physics.Integrate(v, cfg)
	}
	return r.state.clone(), true
}

// Snapshot returns a deep copy of the current state.
func (r *Room) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone()
}

// Players returns the player ids in join order.
func (r *Room) Players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.players))
	copy(out, r.players)
	return out
}

// HasPlayer reports whether playerID is a member of the room.
func (r *Room) HasPlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.players {
		if id == playerID {
			return true
		}
	}
	return false
}

// Empty reports whether the room has no players left.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0
}

// Phase returns the current lifecycle phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Phase
}

// closeIfEmpty marks the room closed when it has no players, so a join
// holding a stale pointer fails instead of landing in a room the registry
// has already dropped. Only the registry calls this, under its write lock.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) > 0 {
		return false
	}
	r.closed = true
	return true
}

// close marks the room closed unconditionally.
func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}
