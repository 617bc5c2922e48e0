package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for race connections.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	api               SessionAPI
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(cm *ConnectionManager, api SessionAPI) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		api:               api,
	}
}

// HandleRaceConnection upgrades a race client connection. The player id is
// taken from the query string when the client supplies a stable identity;
// otherwise one is minted for the lifetime of the socket.
func (h *WebSocketHandler) HandleRaceConnection(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		playerID = uuid.New().String()
	}

	if err := h.connectionManager.UpgradeConnection(w, r, playerID, h.api); err != nil {
		log.Error().
			Err(err).
			Str("player_id", playerID).
			Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/race", h.HandleRaceConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
