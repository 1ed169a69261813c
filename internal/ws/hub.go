package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/plantpulse/plantpulse/internal/api"
	"github.com/plantpulse/plantpulse/internal/store"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// maxRequestBytes bounds incoming subscribe requests.
	maxRequestBytes = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins; callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients on every broadcast tick.
type Message struct {
	Event string               `json:"event"`
	Data  api.SnapshotResponse `json:"data"`
}

// subscribeRequest is the only client-to-server message the hub accepts.
// A dashboard showing a single line sends the groups it renders and stops
// receiving the rest of the plant; an empty group list restores the full
// feed.
type subscribeRequest struct {
	Action string   `json:"action"` // "subscribe"
	Groups []string `json:"groups"`
}

// Hub manages WebSocket client connections and broadcasts the current
// sensor snapshot to them every interval. Clients receive the whole plant
// by default and may narrow the feed to named groups.
type Hub struct {
	store    *store.Store
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client and its group filter.
type client struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	groups map[string]struct{} // empty = all groups
}

// New creates a Hub that reads from st and broadcasts every interval.
func New(st *store.Store, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Run starts the broadcast ticker loop. It sends the current snapshot to all
// connected clients every interval. Run blocks until ctx is cancelled, then
// closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// It sends the current snapshot immediately on connect, then continues to
// receive broadcasts from the ticker loop. Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(c)
	defer h.unregister(c)

	// Send the current snapshot immediately so the UI has data right away.
	// The client has not subscribed yet, so it gets the full plant.
	if data, err := marshalSnapshot(api.BuildSnapshot(h.store)); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast builds the snapshot once, then sends each client its view of it:
// the full payload for unfiltered clients, a per-client subset for
// subscribed ones.
func (h *Hub) broadcast() {
	snap := api.BuildSnapshot(h.store)
	full, err := marshalSnapshot(snap)
	if err != nil {
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		data := full
		if c.isFiltered() {
			b, err := marshalSnapshot(c.filter(snap))
			if err != nil {
				continue
			}
			data = b
		}
		select {
		case c.send <- data:
		default:
			// Client's outgoing buffer is full, disconnect it.
			h.unregister(c)
		}
	}
}

func marshalSnapshot(snap api.SnapshotResponse) ([]byte, error) {
	return json.Marshal(Message{Event: "snapshot", Data: snap})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// --- client -----------------------------------------------------------------

// setGroups replaces the client's group filter. An empty list clears it.
func (c *client) setGroups(groups []string) {
	set := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g != "" {
			set[g] = struct{}{}
		}
	}
	c.mu.Lock()
	c.groups = set
	c.mu.Unlock()
}

func (c *client) isFiltered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.groups) > 0
}

// filter returns the subset of snap covering the client's subscribed groups.
func (c *client) filter(snap api.SnapshotResponse) api.SnapshotResponse {
	c.mu.Lock()
	groups := c.groups
	c.mu.Unlock()

	out := snap
	out.Sensors = make([]api.SensorResponse, 0, len(groups))
	for _, s := range snap.Sensors {
		if _, ok := groups[s.Group]; ok {
			out.Sensors = append(out.Sensors, s)
		}
	}
	return out
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to handle subscribe requests and
// control messages (pong, close) and to detect disconnects. Malformed or
// unrecognized messages are ignored. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxRequestBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var req subscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			continue
		}
		if req.Action == "subscribe" {
			c.setGroups(req.Groups)
		}
	}
}
