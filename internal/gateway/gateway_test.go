package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duelgrid/server/internal/events"
	"github.com/duelgrid/server/internal/session"
)

type testServer struct {
	srv   *httptest.Server
	coord *session.Coordinator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cm := NewConnectionManager(DefaultConnectionConfig())
	coord := session.NewCoordinator(cm, clockwork.NewRealClock(), session.DefaultConfig())
	svc := NewService(cm, coord)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, coord: coord}
}

func (ts *testServer) dial(t *testing.T, playerID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws/race?player_id=" + playerID
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireMessage struct {
	Type events.Type     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want events.Type) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg wireMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return msg.Data
		}
	}
	t.Fatalf("no %s message received", want)
	return nil
}

func join(t *testing.T, conn *websocket.Conn, roomID string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(events.ClientMessage{Type: events.ClientJoin, RoomID: roomID}))
}

func TestJoinRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "p1")

	join(t, conn, "r1")

	var res session.JoinResult
	require.NoError(t, json.Unmarshal(readUntil(t, conn, events.TypeJoinResult), &res))
	assert.True(t, res.Success)

	var joined events.PlayerJoinedPayload
	require.NoError(t, json.Unmarshal(readUntil(t, conn, events.TypePlayerJoined), &joined))
	assert.Equal(t, "p1", joined.PlayerID)
	assert.Equal(t, []string{"p1"}, joined.Players)
}

func TestJoinFullRoomRejectedOverWire(t *testing.T) {
	ts := newTestServer(t)
	first := ts.dial(t, "p1")
	second := ts.dial(t, "p2")
	third := ts.dial(t, "p3")

	join(t, first, "r1")
	readUntil(t, first, events.TypeJoinResult)
	join(t, second, "r1")
	readUntil(t, second, events.TypeJoinResult)

	join(t, third, "r1")
	var res session.JoinResult
	require.NoError(t, json.Unmarshal(readUntil(t, third, events.TypeJoinResult), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "Room is full", res.Message)
}

func TestSecondJoinSeesBothPlayers(t *testing.T) {
	ts := newTestServer(t)
	first := ts.dial(t, "p1")
	second := ts.dial(t, "p2")

	join(t, first, "r1")
	readUntil(t, first, events.TypeJoinResult)

	join(t, second, "r1")
	var joined events.PlayerJoinedPayload
	require.NoError(t, json.Unmarshal(readUntil(t, second, events.TypePlayerJoined), &joined))
	assert.Equal(t, "p2", joined.PlayerID)
	assert.Equal(t, []string{"p1", "p2"}, joined.Players)

	// The filled room begins its countdown.
	var countdown int
	require.NoError(t, json.Unmarshal(readUntil(t, second, events.TypeCountdownUpdate), &countdown))
	assert.Equal(t, 3, countdown)
}

func TestDisconnectReachesCoordinator(t *testing.T) {
	ts := newTestServer(t)
	first := ts.dial(t, "p1")
	second := ts.dial(t, "p2")

	join(t, first, "r1")
	readUntil(t, first, events.TypeJoinResult)
	join(t, second, "r1")
	readUntil(t, second, events.TypeJoinResult)

	second.Close()

	var left events.PlayerLeftPayload
	require.NoError(t, json.Unmarshal(readUntil(t, first, events.TypePlayerLeft), &left))
	assert.Equal(t, "p2", left.DisconnectedPlayer)
	assert.Equal(t, []string{"p1"}, left.Players)
}

func TestRejoinWhileInRoomRejected(t *testing.T) {
	ts := newTestServer(t)
	first := ts.dial(t, "p1")

	join(t, first, "r1")
	readUntil(t, first, events.TypeJoinResult)

	// A socket already in a room must not migrate; the player would stay
	// behind as a ghost member of the first room.
	join(t, first, "r2")
	var res session.JoinResult
	require.NoError(t, json.Unmarshal(readUntil(t, first, events.TypeJoinResult), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "Already in a room", res.Message)

	// The socket still receives broadcasts for its original room.
	second := ts.dial(t, "p2")
	join(t, second, "r1")
	var joined events.PlayerJoinedPayload
	require.NoError(t, json.Unmarshal(readUntil(t, first, events.TypePlayerJoined), &joined))
	assert.Equal(t, []string{"p1", "p2"}, joined.Players)
}

// Broadcast delivery must stay safe against concurrent connection
// teardown: unregister closes send channels, and a send on a closed
// channel would panic the broadcast loop.
func TestBroadcastConcurrentWithUnregister(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	for i := 0; i < 64; i++ {
		conn := &Connection{
			ID:       "c",
			PlayerID: "p",
			manager:  cm,
			// Capacity covers every broadcast below: these fixtures carry no
			// real socket, so the slow-consumer path (which closes the
			// underlying websocket) must never trigger.
			send: make(chan []byte, 1000),
		}
		cm.mu.Lock()
		cm.conns[conn] = ""
		cm.mu.Unlock()
		cm.joinRoom(conn, "r1")

		// Stand-in for the write pump: drain until unregister closes the
		// channel.
		go func(ch chan []byte) {
			for range ch {
			}
		}(conn.send)
		go cm.unregister(conn)
	}

	for i := 0; i < 1000; i++ {
		cm.handleBroadcast(broadcastMessage{roomID: "r1", data: []byte(`{}`)})
	}
}

func TestConnectionStatsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial(t, "p1")
	join(t, conn, "r1")
	readUntil(t, conn, events.TypeJoinResult)

	resp, err := http.Get(ts.srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalConnections)
	assert.Equal(t, 1, stats.RoomConnections["r1"])
}
