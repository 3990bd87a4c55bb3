// internal/chatclient/client.go

// Package chatclient is a terminal client for the chat hub: it joins on
// connect, sends each input line as a message and prints what it receives.
package chatclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/erilali/chathub/internal/message"
)

const quitCommand = "/quit"

// Conn is the part of *websocket.Conn the client uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Format renders a server frame for the terminal. ok is false for frames
// that are not meant to be shown.
func Format(raw []byte) (line string, ok bool) {
	out, err := message.DecodeOutbound(raw)
	if err != nil {
		return "", false
	}
	switch out.Type {
	case message.TypeSystem:
		return "[system] " + out.Text, true
	case message.TypeMsg:
		return fmt.Sprintf("[%s] %s", out.From, out.Text), true
	}
	return "", false
}

type joinFrame struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type msgFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Run joins as name and relays frames until in is exhausted, the user types
// /quit, ctx is cancelled or the server closes the connection.
func Run(ctx context.Context, conn Conn, name string, in io.Reader, out io.Writer) error {
	out = &lockedWriter{w: out}
	if err := writeJSON(conn, joinFrame{Type: message.TypeJoin, Name: name}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	readDone := make(chan error, 1)
	go func() {
		readDone <- readLoop(conn, out)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			closeConn(conn)
			return ctx.Err()

		case err := <-readDone:
			fmt.Fprintln(out, "disconnected")
			return err

		case line, ok := <-lines:
			text := strings.TrimSpace(line)
			if !ok || text == quitCommand {
				closeConn(conn)
				fmt.Fprintln(out, "disconnected")
				return nil
			}
			// Empty lines are sent too; the server answers with a notice.
			if err := writeJSON(conn, msgFrame{Type: message.TypeMsg, Text: text}); err != nil {
				return fmt.Errorf("send msg: %w", err)
			}
		}
	}
}

func readLoop(conn Conn, out io.Writer) error {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if line, ok := Format(raw); ok {
			fmt.Fprintln(out, line)
		}
	}
}

func writeJSON(conn Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func closeConn(conn Conn) {
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
}

// lockedWriter serializes prints from the read loop and the input loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
