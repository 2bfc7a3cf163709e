// Package gateway is the HTTP/WebSocket surface of the trainer. User
// intents (load data, step, trade, toggle overlays) come in over WebSocket
// or REST; every applied action produces a derived snapshot that is fanned
// out to all connected clients of the session.
package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/rising-stones13/chart-trade-trainer/internal/metrics"
	"github.com/rising-stones13/chart-trade-trainer/internal/session"
	"github.com/rising-stones13/chart-trade-trainer/internal/sim"
)

// Hub manages WebSocket clients and snapshot fan-out for one session.
type Hub struct {
	Session *session.Session
	Metrics *metrics.Metrics // optional

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  []byte // last broadcast envelope, replayed to new clients
	seq     int64
}

// NewHub creates a Hub bound to the given session and wires itself as the
// session's snapshot listener.
func NewHub(sess *session.Session, m *metrics.Metrics) *Hub {
	h := &Hub{
		Session: sess,
		Metrics: m,
		clients: make(map[*Client]bool),
	}
	sess.OnSnapshot = h.Broadcast
	return h
}

// Dispatch forwards an action to the session. The resulting snapshot
// reaches clients through the OnSnapshot hook.
func (h *Hub) Dispatch(a sim.Action) {
	start := time.Now()
	h.Session.Dispatch(a)
	if h.Metrics != nil {
		h.Metrics.SnapshotBuildDur.Observe(time.Since(start).Seconds())
	}
}

// Broadcast wraps a snapshot in an envelope and fans it out to every
// connected client. Slow clients are skipped rather than blocking the
// session loop.
func (h *Hub) Broadcast(snap session.Snapshot) {
	h.mu.Lock()
	h.seq++
	envelope, err := json.Marshal(map[string]interface{}{
		"type": "snapshot",
		"data": snap,
		"ts":   time.Now().UTC().Format(time.RFC3339Nano),
		"seq":  h.seq,
	})
	if err != nil {
		h.mu.Unlock()
		log.Printf("[gateway] snapshot marshal error: %v", err)
		return
	}
	h.latest = envelope

	for client := range h.clients {
		select {
		case client.send <- envelope:
		default:
			if h.Metrics != nil {
				h.Metrics.BroadcastDrops.Inc()
			}
		}
	}
	h.mu.Unlock()
}

// AddClient registers a client and replays the latest snapshot to it.
func (h *Hub) AddClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	if h.latest != nil {
		select {
		case c.send <- h.latest:
		default:
		}
	}
	h.mu.Unlock()

	if h.Metrics != nil {
		h.Metrics.WSClients.Set(float64(n))
	}
	log.Printf("[gateway] ws client connected (%d total)", n)
}

// RemoveClient unregisters a client and closes its send channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if h.Metrics != nil {
		h.Metrics.WSClients.Set(float64(n))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
