// cmd/chatclient/main.go
// Command chatclient connects a terminal to a chat hub.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/erilali/chathub/internal/chatclient"
	"github.com/erilali/chathub/internal/logger"
)

func main() {
	url := flag.String("url", "ws://localhost:8080", "hub websocket URL")
	name := flag.String("name", "", "display name to join with")
	flag.Parse()

	cfg := logger.DefaultLogConfig()
	cfg.Level = "warn"
	logger.InitLoggerWithOutput(cfg, os.Stderr)
	clientLogger := logger.NewLogger("client")

	if *name == "" {
		clientLogger.Fatal("-name is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *url, nil)
	if err != nil {
		clientLogger.Fatalf("Dial %s: %v", *url, err)
	}
	os.Stdout.WriteString("connected\n")

	if err := chatclient.Run(ctx, conn, *name, os.Stdin, os.Stdout); err != nil && err != context.Canceled {
		clientLogger.Errorf("Connection ended: %v", err)
		os.Exit(1)
	}
}
