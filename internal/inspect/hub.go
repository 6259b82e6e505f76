package inspect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendQueue    = 16
	pingInterval = 30 * time.Second
)

// Envelope is the websocket frame sent to clients.
type Envelope struct {
	Frame    uint64          `json:"frame"`
	Hash     string          `json:"hash"`
	Snapshot json.RawMessage `json:"snapshot"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans snapshots out to websocket clients. Publish is called from the
// frame goroutine; it never blocks on a slow client, whose frames are dropped.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	last     []byte
	lastSnap Snapshot
	lastHash uint64
	hasLast  bool

	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	dropped      int
	log          *zap.Logger
}

func NewHub(writeTimeout time.Duration, log *zap.Logger) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Hub{
		clients:      make(map[*client]struct{}),
		upgrader:     websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// Publish broadcasts snap unless it is identical to the previous one.
// It reports whether anything was sent.
func (h *Hub) Publish(frame uint64, snap Snapshot) (bool, error) {
	body, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("marshal snapshot: %w", err)
	}
	sum := xxhash.Sum64(body)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasLast && sum == h.lastHash {
		return false, nil
	}
	msg, err := json.Marshal(Envelope{Frame: frame, Hash: fmt.Sprintf("%016x", sum), Snapshot: body})
	if err != nil {
		return false, fmt.Errorf("marshal envelope: %w", err)
	}
	h.last, h.lastSnap, h.lastHash, h.hasLast = msg, snap, sum, true
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped++
		}
	}
	return true, nil
}

// Last returns the most recent envelope, or nil before the first publish.
func (h *Hub) Last() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// LastSnapshot returns the most recent snapshot.
func (h *Hub) LastSnapshot() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastSnap, h.hasLast
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many client frames were skipped on full queues.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// ServeWS upgrades the request and streams snapshots until the client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("inspector upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueue)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	h.log.Info("inspector client connected", zap.String("remote", r.RemoteAddr))

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client input and unregisters on the first read error.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("inspector write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
