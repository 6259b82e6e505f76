package inspect

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/orrery/orrery/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSnapshot(x float32) Snapshot {
	return Snapshot{
		Scene: "duel",
		Kind:  "combat",
		Entities: []EntityView{
			{Name: "Red", Role: "ship", Position: [3]float32{x, 0, 0}, Rotation: [4]float32{1, 0, 0, 0}, Scale: [3]float32{1, 1, 1}},
		},
	}
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(time.Second, zap.NewNop())
	srv := httptest.NewServer(NewServer(config.InspectorConfig{}, hub, zap.NewNop()).Handler())
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func TestPublishSkipsUnchanged(t *testing.T) {
	hub := NewHub(time.Second, zap.NewNop())
	sent, err := hub.Publish(1, testSnapshot(1))
	require.NoError(t, err)
	require.True(t, sent)

	sent, err = hub.Publish(2, testSnapshot(1))
	require.NoError(t, err)
	require.False(t, sent)

	sent, err = hub.Publish(3, testSnapshot(2))
	require.NoError(t, err)
	require.True(t, sent)

	var env Envelope
	require.NoError(t, json.Unmarshal(hub.Last(), &env))
	require.Equal(t, uint64(3), env.Frame)
	require.Len(t, env.Hash, 16)
}

func TestSnapshotEndpoints(t *testing.T) {
	hub, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/snapshot")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	_, err = hub.Publish(7, testSnapshot(4))
	require.NoError(t, err)

	resp, err = http.Get(srv.URL + "/api/snapshot")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var env Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	require.Equal(t, uint64(7), env.Frame)

	resp, err = http.Get(srv.URL + "/api/entities/Red")
	require.NoError(t, err)
	var ev EntityView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ev))
	resp.Body.Close()
	require.Equal(t, float32(4), ev.Position[0])

	resp, err = http.Get(srv.URL + "/api/entities/Nobody")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebsocketFeed(t *testing.T) {
	hub, srv := newTestServer(t)
	_, err := hub.Publish(1, testSnapshot(1))
	require.NoError(t, err)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The latest snapshot is replayed on connect.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, uint64(1), env.Frame)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	_, err = hub.Publish(2, testSnapshot(9))
	require.NoError(t, err)
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, uint64(2), env.Frame)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(env.Snapshot, &snap))
	require.Equal(t, float32(9), snap.Entities[0].Position[0])
}
