// internal/hub/client.go
package hub

import "github.com/google/uuid"

// State is the protocol state of a connection.
type State int

const (
	// Unjoined connections may only send join.
	Unjoined State = iota
	// Joined connections carry a display name and may send msg.
	Joined
)

func (s State) String() string {
	if s == Joined {
		return "joined"
	}
	return "unjoined"
}

// Handle is the transport side of a connection. Send is a best-effort,
// non-blocking enqueue; Ready reports whether the connection is still open.
type Handle interface {
	Send(frame []byte) error
	Ready() bool
}

// Connection is one client session. Its state and name are guarded by the
// owning Hub's mutex.
type Connection struct {
	ID     string
	handle Handle
	state  State
	name   string
}

func newConnection(handle Handle) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		handle: handle,
		state:  Unjoined,
	}
}

func (c *Connection) join(name string) {
	c.state = Joined
	c.name = name
}
