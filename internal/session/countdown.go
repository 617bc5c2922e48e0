package session

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/duelgrid/server/internal/events"
)

// scheduleCountdown arms a one-shot timer for the room's next countdown
// step. Each firing broadcasts the remaining value and re-arms until the
// countdown completes; the chain is broken by cancelCountdown or by the
// room leaving the countdown phase.
func (c *Coordinator) scheduleCountdown(roomID string) {
	timer := c.clock.NewTimer(c.cfg.CountdownInterval)
	cd := &countdown{timer: timer, cancel: make(chan struct{})}
	c.replaceCountdown(roomID, cd)

	go func() {
		select {
		case <-timer.Chan():
			c.clearCountdown(roomID, cd)
			c.fireCountdown(roomID)
		case <-cd.cancel:
		}
	}()
}

// fireCountdown performs one countdown step against the room. The step is
// validated under the room lock, so a timer that outlived a disconnect or
// a reset simply finds the room no longer counting down and does nothing.
func (c *Coordinator) fireCountdown(roomID string) {
	room, ok := c.registry.Get(roomID)
	if !ok {
		return
	}
	value, raceStart, ok := room.CountdownStep()
	if !ok {
		return
	}

	c.sink.Broadcast(roomID, events.TypeCountdownUpdate, value)
	if raceStart {
		log.Info().Str("room_id", roomID).Msg("race started")
		c.sink.Broadcast(roomID, events.TypeRaceStart, nil)
		return
	}
	c.scheduleCountdown(roomID)
}

// replaceCountdown atomically swaps in a new countdown timer for a room,
// cancelling any timer already armed. Cancelling before replacing closes
// the window where two timers could both fire for the same room.
func (c *Coordinator) replaceCountdown(roomID string, cd *countdown) {
	c.countdownsMu.Lock()
	defer c.countdownsMu.Unlock()

	if old, ok := c.countdowns[roomID]; ok {
		stopAndDrainTimer(old.timer)
		close(old.cancel)
	}
	c.countdowns[roomID] = cd
}

// clearCountdown removes the entry once its timer has fired, but only if a
// newer timer has not replaced it in the meantime.
func (c *Coordinator) clearCountdown(roomID string, cd *countdown) {
	c.countdownsMu.Lock()
	defer c.countdownsMu.Unlock()

	if current, ok := c.countdowns[roomID]; ok && current == cd {
		delete(c.countdowns, roomID)
	}
}

// cancelCountdown stops and discards the room's outstanding timer, if any.
// Called when a room is destroyed or downgraded so a dangling timer cannot
// broadcast into a disappeared or reinitialized room.
func (c *Coordinator) cancelCountdown(roomID string) {
	c.countdownsMu.Lock()
	defer c.countdownsMu.Unlock()

	if cd, ok := c.countdowns[roomID]; ok {
		stopAndDrainTimer(cd.timer)
		close(cd.cancel)
		delete(c.countdowns, roomID)
		log.Debug().Str("room_id", roomID).Msg("countdown cancelled")
	}
}

// cancelAllCountdowns tears down every outstanding timer at shutdown.
func (c *Coordinator) cancelAllCountdowns() {
	c.countdownsMu.Lock()
	defer c.countdownsMu.Unlock()

	for roomID, cd := range c.countdowns {
		stopAndDrainTimer(cd.timer)
		close(cd.cancel)
		delete(c.countdowns, roomID)
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel, following
// the pattern from the time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
