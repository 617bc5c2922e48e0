package main

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/duelgrid/server/internal/gateway"
	"github.com/duelgrid/server/internal/relay"
	"github.com/duelgrid/server/internal/session"
)

type Services struct {
	Coordinator *session.Coordinator
	Gateway     *gateway.Service
	Relay       *relay.Relay // nil when no NATS URL is configured
}

func setupServices(cfg *Config) (*Services, error) {
	// The connection manager doubles as the coordinator's broadcast sink,
	// so it is built first; the gateway service is wired with the
	// coordinator afterwards for the inbound direction.
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	var sink session.Broadcaster = cm
	var rly *relay.Relay
	if cfg.Relay.URL != "" {
		var err error
		rly, err = relay.New(cm, cfg.Relay)
		if err != nil {
			return nil, fmt.Errorf("setup event relay: %w", err)
		}
		sink = rly
	}

	coordinator := session.NewCoordinator(sink, clockwork.NewRealClock(), cfg.sessionConfig())
	gatewayService := gateway.NewService(cm, coordinator)

	return &Services{
		Coordinator: coordinator,
		Gateway:     gatewayService,
		Relay:       rly,
	}, nil
}
