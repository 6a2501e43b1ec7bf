package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solardelta/internal/model"
)

type staticSource struct {
	snaps []model.EntrySnapshot
}

func (s *staticSource) Snapshots() []model.EntrySnapshot {
	return s.snaps
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readJSON reads the next JSON message from the connection.
func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestHandler_PrimesNewClient(t *testing.T) {
	hub := NewHub()
	src := &staticSource{snaps: []model.EntrySnapshot{
		testSnapshot("Pool Pump"),
		testSnapshot("Wallbox"),
	}}
	handler := NewHandler(hub, src)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	var names []string
	for i := 0; i < 2; i++ {
		env := readJSON(t, conn)
		require.Equal(t, TypeEntrySnapshot, env.Type)
		var snap model.EntrySnapshot
		require.NoError(t, json.Unmarshal(env.Payload, &snap))
		names = append(names, snap.Name)
	}
	assert.Equal(t, []string{"Pool Pump", "Wallbox"}, names)
}

func TestHandler_BroadcastReachesClient(t *testing.T) {
	hub := NewHub()
	handler := NewHandler(hub, &staticSource{})

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	bridge := NewBridge(hub)
	bridge.OnSnapshot(testSnapshot("Heater"))

	env := readJSON(t, conn)
	assert.Equal(t, TypeEntrySnapshot, env.Type)
}

func TestHandler_IgnoresClientMessages(t *testing.T) {
	hub := NewHub()
	handler := NewHandler(hub, &staticSource{})

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// Arbitrary client frames must not kill the connection
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	time.Sleep(50 * time.Millisecond)

	NewBridge(hub).OnSnapshot(testSnapshot("Heater"))
	env := readJSON(t, conn)
	assert.Equal(t, TypeEntrySnapshot, env.Type)
}
