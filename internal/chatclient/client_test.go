// internal/chatclient/client_test.go
package chatclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erilali/chathub/internal/hub"
	"github.com/erilali/chathub/internal/logger"
)

func TestFormat(t *testing.T) {
	line, ok := Format([]byte(`{"type":"system","text":"A joined"}`))
	require.True(t, ok)
	assert.Equal(t, "[system] A joined", line)

	line, ok = Format([]byte(`{"type":"msg","from":"A","text":"hi"}`))
	require.True(t, ok)
	assert.Equal(t, "[A] hi", line)

	_, ok = Format([]byte(`{"type":"pong"}`))
	assert.False(t, ok)

	_, ok = Format([]byte(`garbage`))
	assert.False(t, ok)
}

// fakeConn records written frames and blocks reads until closed.
type fakeConn struct {
	mu      sync.Mutex
	written []string
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{closed: make(chan struct{})} }

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if messageType == websocket.CloseMessage {
		f.written = append(f.written, "close")
		return nil
	}
	f.written = append(f.written, string(data))
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func TestRunSendsJoinMessagesAndQuits(t *testing.T) {
	conn := newFakeConn()
	in := strings.NewReader("  hello  \n\n/quit\nnever sent\n")
	var out bytes.Buffer

	err := Run(context.Background(), conn, "A", in, &out)
	require.NoError(t, err)

	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.Equal(t, []string{
		`{"type":"join","name":"A"}`,
		`{"type":"msg","text":"hello"}`,
		`{"type":"msg","text":""}`,
		"close",
	}, conn.written)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	conn := newFakeConn()
	pr, pw := io.Pipe()
	defer pw.Close()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, conn, "A", pr, io.Discard) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// syncBuffer is a bytes.Buffer safe for the client's concurrent prints.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestRunAgainstHub(t *testing.T) {
	h := hub.NewHub(nil, logger.Nop())
	tr := hub.NewTransport(h, hub.TransportConfig{}, logger.Nop())
	srv := httptest.NewServer(http.HandlerFunc(tr.ServeWs))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	connA, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	connB, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	inA, writeA := io.Pipe()
	inB, writeB := io.Pipe()
	var outA, outB syncBuffer

	doneA := make(chan error, 1)
	doneB := make(chan error, 1)
	go func() { doneA <- Run(context.Background(), connA, "A", inA, &outA) }()
	require.Eventually(t, func() bool {
		return strings.Contains(outA.String(), "[system] A joined")
	}, 2*time.Second, 10*time.Millisecond)

	go func() { doneB <- Run(context.Background(), connB, "B", inB, &outB) }()
	require.Eventually(t, func() bool {
		return strings.Contains(outB.String(), "[system] B joined")
	}, 2*time.Second, 10*time.Millisecond)

	_, err = io.WriteString(writeA, "hi\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(outB.String(), "[A] hi")
	}, 2*time.Second, 10*time.Millisecond)

	_, err = io.WriteString(writeA, "/quit\n")
	require.NoError(t, err)
	require.NoError(t, <-doneA)
	require.Eventually(t, func() bool {
		return strings.Contains(outB.String(), "[system] A left")
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, strings.HasPrefix(outA.String(), "[system] send join first\n"))

	_, err = io.WriteString(writeB, "/quit\n")
	require.NoError(t, err)
	require.NoError(t, <-doneB)
	writeA.Close()
	writeB.Close()
}
