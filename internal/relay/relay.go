// Package relay mirrors every room broadcast onto NATS subjects so
// out-of-process consumers (spectator feeds, ops tooling) can tap the
// event stream without holding a WebSocket into the room. It decorates the
// session coordinator's broadcast sink; the in-room path is never delayed
// or failed by the relay.
package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/duelgrid/server/internal/events"
	"github.com/duelgrid/server/internal/session"
)

// Config holds NATS connection settings for the relay. Reconnect tuning is
// fixed at construction; only the URL and subject prefix are configurable
// from the file.
type Config struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"` // e.g. "race.events"

	MaxReconnects int           `yaml:"-"`
	ReconnectWait time.Duration `yaml:"-"`
}

// DefaultConfig returns the default relay settings. The empty URL leaves
// the relay disabled.
func DefaultConfig() Config {
	return Config{
		SubjectPrefix: "race.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Envelope is the relayed event record.
type Envelope struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      events.Type     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Relay is a session.Broadcaster decorator that forwards every event to
// both the wrapped sink and a NATS subject per room.
type Relay struct {
	next   session.Broadcaster
	nc     *nats.Conn
	prefix string
}

// New connects to NATS and wraps next.
func New(next session.Broadcaster, cfg Config) (*Relay, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().Str("url", cfg.URL).Str("prefix", cfg.SubjectPrefix).Msg("event relay connected")
	return &Relay{next: next, nc: nc, prefix: cfg.SubjectPrefix}, nil
}

// Broadcast implements session.Broadcaster.
func (r *Relay) Broadcast(roomID string, event events.Type, payload any) {
	r.next.Broadcast(roomID, event, payload)
	r.publish(roomID, event, payload)
}

func (r *Relay) publish(roomID string, event events.Type, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", string(event)).Msg("failed to marshal relayed payload")
		return
	}

	envelope := Envelope{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal relay envelope")
		return
	}

	if err := r.nc.Publish(r.Subject(roomID), raw); err != nil {
		log.Error().
			Err(err).
			Str("room_id", roomID).
			Str("event", string(event)).
			Msg("failed to publish relayed event")
	}
}

// Subject returns the NATS subject carrying a room's events.
func (r *Relay) Subject(roomID string) string {
	return fmt.Sprintf("%s.%s", r.prefix, roomID)
}

// Close flushes and closes the NATS connection.
func (r *Relay) Close() {
	if err := r.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}
