// internal/hub/websocket.go
package hub

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/erilali/chathub/internal/logger"
)

const (
	webSocketReadDeadline  = 60 * time.Second
	webSocketWriteDeadline = 10 * time.Second
	webSocketPingPeriod    = (webSocketReadDeadline * 9) / 10 // Must be less than readDeadline

	DefaultReadLimit  = 100 << 20 // 100 MiB
	DefaultSendBuffer = 256
)

var (
	// ErrHandleClosed is returned by Send once the connection is closing.
	ErrHandleClosed = errors.New("hub: connection closed")
	// ErrSendQueueFull is returned by Send when the outbound queue is full.
	ErrSendQueueFull = errors.New("hub: send queue full")
)

// TransportConfig tunes the websocket transport.
type TransportConfig struct {
	ReadLimit   int64
	SendBuffer  int
	CheckOrigin func(r *http.Request) bool
}

// Transport accepts websocket connections and feeds them to a Hub.
type Transport struct {
	hub        *Hub
	upgrader   websocket.Upgrader
	readLimit  int64
	sendBuffer int
	logger     *logger.Logger
}

// NewTransport creates a websocket transport for h.
func NewTransport(h *Hub, cfg TransportConfig, logger *logger.Logger) *Transport {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = DefaultReadLimit
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		// Terminal clients send no Origin header; browsers are not a target.
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Transport{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		readLimit:  cfg.ReadLimit,
		sendBuffer: cfg.SendBuffer,
		logger:     logger,
	}
}

// ServeWs upgrades the HTTP connection to a WebSocket and registers it.
func (t *Transport) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	handle := &wsHandle{
		conn: conn,
		send: make(chan []byte, t.sendBuffer),
	}
	client := t.hub.OnConnect(handle)
	t.logger.WithFields(map[string]interface{}{
		"connection_id": client.ID,
		"remote_addr":   r.RemoteAddr,
	}).Debug("WebSocket accepted")

	go t.writePump(handle, client)
	go t.readPump(handle, client)
}

// wsHandle is the Handle for one websocket connection. The send channel is
// closed only after the hub has forgotten the connection.
type wsHandle struct {
	conn *websocket.Conn
	send chan []byte

	mu       sync.Mutex
	closed   bool
	released bool
}

func (w *wsHandle) Send(frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrHandleClosed
	}
	select {
	case w.send <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (w *wsHandle) Ready() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed
}

func (w *wsHandle) markClosed() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

func (w *wsHandle) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if !w.released {
		w.released = true
		close(w.send)
	}
}

// readPump reads frames until the connection fails, then reports the
// disconnect to the hub exactly once.
func (t *Transport) readPump(handle *wsHandle, client *Connection) {
	defer func() {
		handle.markClosed()
		t.hub.OnDisconnect(client)
		handle.release()
		handle.conn.Close()
	}()

	handle.conn.SetReadLimit(t.readLimit)
	handle.conn.SetReadDeadline(time.Now().Add(webSocketReadDeadline))
	handle.conn.SetPongHandler(func(string) error {
		handle.conn.SetReadDeadline(time.Now().Add(webSocketReadDeadline))
		return nil
	})

	for {
		_, data, err := handle.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				t.logger.WithField("connection_id", client.ID).Warnf("WebSocket read error: %v", err)
			}
			return
		}
		t.hub.OnFrame(client, data)
	}
}

// writePump writes one text frame per queued message and keeps the
// connection alive with pings.
func (t *Transport) writePump(handle *wsHandle, client *Connection) {
	ticker := time.NewTicker(webSocketPingPeriod)
	defer func() {
		ticker.Stop()
		handle.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-handle.send:
			handle.conn.SetWriteDeadline(time.Now().Add(webSocketWriteDeadline))
			if !ok {
				// The hub released the connection.
				handle.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := handle.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				handle.markClosed()
				t.logger.WithField("connection_id", client.ID).Debugf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			handle.conn.SetWriteDeadline(time.Now().Add(webSocketWriteDeadline))
			if err := handle.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				handle.markClosed()
				return
			}
		}
	}
}
