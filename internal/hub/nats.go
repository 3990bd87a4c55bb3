// internal/hub/nats.go
package hub

import (
	"encoding/json"
	"time"

	"github.com/erilali/chathub/internal/logger"
)

const (
	EventJoined = "joined"
	EventMsg    = "msg"
	EventLeft   = "left"

	DefaultSubjectPrefix = "chat"
)

// Publisher is the subset of *nats.Conn the mirror needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the record mirrored for every accepted join, message and leave.
type Event struct {
	Event        string `json:"event"`
	ConnectionID string `json:"connection_id"`
	Name         string `json:"name"`
	Text         string `json:"text,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

func newEvent(kind string, c *Connection, text string) Event {
	return Event{
		Event:        kind,
		ConnectionID: c.ID,
		Name:         c.name,
		Text:         text,
		Timestamp:    time.Now().Unix(),
	}
}

// EventMirror republishes hub events to NATS subjects <prefix>.<event>.
// Delivery is best-effort; failures are logged and never reach clients.
type EventMirror struct {
	pub    Publisher
	prefix string
	logger *logger.Logger
}

// NewEventMirror returns a mirror publishing through pub.
func NewEventMirror(pub Publisher, prefix string, logger *logger.Logger) *EventMirror {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &EventMirror{pub: pub, prefix: prefix, logger: logger}
}

// Subject returns the subject an event of the given kind is published on.
func (m *EventMirror) Subject(kind string) string {
	return m.prefix + "." + kind
}

// Publish mirrors ev. It is safe to call on a nil mirror.
func (m *EventMirror) Publish(ev Event) {
	if m == nil || m.pub == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		m.logger.Errorf("Failed to marshal %s event: %v", ev.Event, err)
		return
	}
	if err := m.pub.Publish(m.Subject(ev.Event), data); err != nil {
		m.logger.Errorf("Failed to publish %s event to NATS: %v", ev.Event, err)
	}
}
