package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service bundles the connection manager and its HTTP handlers. The
// manager must be constructed first (it is the coordinator's broadcast
// sink); the service is then wired with the coordinator for the inbound
// direction.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
}

// NewService creates the gateway service around an existing connection
// manager.
func NewService(cm *ConnectionManager, api SessionAPI) *Service {
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, api),
	}
}

// Start runs broadcast delivery until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.connectionManager.Start(ctx)
}

// RegisterRoutes registers the WebSocket HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("race gateway routes registered")
}

// Stats returns statistics about active connections.
func (s *Service) Stats() Stats {
	return s.connectionManager.GetConnectionStats()
}
