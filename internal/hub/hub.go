// internal/hub/hub.go
// Provides the Hub, which owns the set of live connections and fans out
// accepted messages to all of them.
package hub

import (
	"sync"
	"time"

	"github.com/erilali/chathub/internal/logger"
	"github.com/erilali/chathub/internal/message"
)

// Hub tracks live connections and their identities. Every mutation and every
// broadcast enumeration happens under mu, so a dispatch step (validate,
// mutate, fan out) is atomic with respect to connects and disconnects.
type Hub struct {
	mu          sync.Mutex
	connections map[*Connection]struct{}

	Mirror    *EventMirror // optional, nil disables event mirroring
	StartTime time.Time
	Logger    *logger.Logger
}

// Stats is a point-in-time view of the hub's membership.
type Stats struct {
	Connections int `json:"connections"`
	Joined      int `json:"joined"`
}

// NewHub creates an empty Hub. mirror may be nil.
func NewHub(mirror *EventMirror, logger *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[*Connection]struct{}),
		Mirror:      mirror,
		StartTime:   time.Now(),
		Logger:      logger,
	}
}

// Stats counts live connections and how many of them have joined.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Stats{Connections: len(h.connections)}
	for c := range h.connections {
		if c.state == Joined {
			s.Joined++
		}
	}
	return s
}

// Identity returns the connection's display name and whether it has joined.
func (h *Hub) Identity(c *Connection) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return c.name, c.state == Joined
}

// Broadcast sends out to every live connection and returns the number of
// connections the frame was handed to.
func (h *Hub) Broadcast(out message.Outbound) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.broadcastLocked(out)
}

// broadcastLocked serializes out once and offers the same bytes to every
// ready connection. Connections that are mid-close are skipped.
func (h *Hub) broadcastLocked(out message.Outbound) int {
	data, err := message.Encode(out)
	if err != nil {
		h.Logger.Errorf("Failed to encode broadcast: %v", err)
		return 0
	}

	delivered := 0
	for c := range h.connections {
		if !c.handle.Ready() {
			continue
		}
		if err := c.handle.Send(data); err != nil {
			h.Logger.Debugf("Dropped broadcast for %s: %v", c.ID, err)
			continue
		}
		delivered++
	}
	return delivered
}

// sendLocked delivers out to a single connection.
func (h *Hub) sendLocked(c *Connection, out message.Outbound) {
	if !c.handle.Ready() {
		return
	}
	data, err := message.Encode(out)
	if err != nil {
		h.Logger.Errorf("Failed to encode notice: %v", err)
		return
	}
	if err := c.handle.Send(data); err != nil {
		h.Logger.Debugf("Dropped notice for %s: %v", c.ID, err)
	}
}
