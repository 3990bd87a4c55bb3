// internal/hub/messaging.go
package hub

import (
	"errors"

	"github.com/erilali/chathub/internal/message"
)

// OnConnect registers a freshly accepted transport handle and greets it.
func (h *Hub) OnConnect(handle Handle) *Connection {
	c := newConnection(handle)

	h.mu.Lock()
	h.connections[c] = struct{}{}
	total := len(h.connections)
	h.sendLocked(c, message.Greeting())
	h.mu.Unlock()

	h.Logger.WithField("connection_id", c.ID).Infof("Connection opened. Total connections: %d", total)
	return c
}

// OnFrame handles one inbound frame from c. Protocol errors are reported to
// c alone; accepted joins and messages are broadcast to every connection,
// c included.
func (h *Hub) OnFrame(c *Connection, raw []byte) {
	h.mu.Lock()
	if _, ok := h.connections[c]; !ok {
		h.mu.Unlock()
		return
	}
	ev, err := h.dispatchLocked(c, raw)
	if err != nil {
		var rej *message.Rejection
		if errors.As(err, &rej) {
			h.sendLocked(c, rej.Notice())
		}
	}
	name := c.name
	h.mu.Unlock()

	if err != nil {
		h.Logger.WithField("connection_id", c.ID).LogEvent("debug", "frame_rejected", name, err.Error())
		return
	}
	h.Logger.LogEvent("info", ev.Event, ev.Name, ev.Text)
	h.Mirror.Publish(ev)
}

// dispatchLocked runs the join/msg state machine for one frame.
func (h *Hub) dispatchLocked(c *Connection, raw []byte) (Event, error) {
	in, err := message.Decode(raw)
	if err != nil {
		return Event{}, err
	}

	switch in.Type {
	case message.TypeJoin:
		j, err := in.Join()
		if err != nil {
			return Event{}, err
		}
		// A second join silently replaces the name; names are not unique.
		c.join(j.Name)
		h.broadcastLocked(message.Joined(j.Name))
		return newEvent(EventJoined, c, ""), nil

	case message.TypeMsg:
		if c.state != Joined {
			return Event{}, message.ErrMustJoinFirst
		}
		chat, err := in.Chat()
		if err != nil {
			return Event{}, err
		}
		h.broadcastLocked(message.ChatFrom(c.name, chat.Text))
		return newEvent(EventMsg, c, chat.Text), nil
	}
	return Event{}, message.ErrUnknownType
}

// OnDisconnect removes c. A joined connection's departure is announced to
// the remaining connections. Repeated calls for the same connection are
// no-ops.
func (h *Hub) OnDisconnect(c *Connection) {
	h.mu.Lock()
	if _, ok := h.connections[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.connections, c)
	total := len(h.connections)
	joined := c.state == Joined
	if joined {
		h.broadcastLocked(message.Left(c.name))
	}
	ev := newEvent(EventLeft, c, "")
	h.mu.Unlock()

	h.Logger.WithField("connection_id", c.ID).Infof("Connection closed. Total connections: %d", total)
	if joined {
		h.Logger.LogEvent("info", ev.Event, ev.Name, "")
		h.Mirror.Publish(ev)
	}
}
