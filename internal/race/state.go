package race

import "github.com/duelgrid/server/internal/physics"

// Phase is a room's position in its lifecycle state machine.
//
//	waiting --(2nd player joins)--> countdown --(reaches 0)--> racing
//	racing is left only by a completed rematch or by a disconnection that
//	drops the room back to one player. finished exists in the model but is
//	unreachable until a win rule is defined.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhaseRacing    Phase = "racing"
	PhaseFinished  Phase = "finished"
)

// State is the shared race state of one room. Vehicle positions are mutated
// by the integrator only while Phase is racing; input may be recorded in any
// phase.
type State struct {
	Players   map[string]*physics.Vehicle `json:"players"`
	Phase     Phase                       `json:"phase"`
	Countdown int                         `json:"countdown"` // seconds remaining, meaningful in countdown only
	Winner    string                      `json:"winner,omitempty"`
}

// NewState returns an empty waiting-phase state.
func NewState() *State {
	return &State{
		Players: make(map[string]*physics.Vehicle),
		Phase:   PhaseWaiting,
	}
}

// clone deep-copies the state so a broadcast never observes a vehicle
// mid-mutation. Callers must hold the owning room's lock.
func (s *State) clone() State {
	players := make(map[string]*physics.Vehicle, len(s.Players))
	for id, v := range s.Players {
		copied := *v
		players[id] = &copied
	}
	return State{
		Players:   players,
		Phase:     s.Phase,
		Countdown: s.Countdown,
		Winner:    s.Winner,
	}
}
