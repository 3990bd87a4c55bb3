// main.go
// Application entry point: loads configuration, initializes the logger and
// starts the chat hub server.
package main

import (
	"flag"
	"fmt"

	"github.com/erilali/chathub/internal/api"
	"github.com/erilali/chathub/internal/logger"
	"github.com/erilali/chathub/internal/util"
)

func main() {
	configPath := flag.String("config", "server_config.json", "path to the JSON server configuration")
	logConfigPath := flag.String("log-config", "", "optional JSON logger configuration, replaces the server config's logger section")
	flag.Parse()

	config, err := util.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading server config: %v\n", err)
		return
	}
	if *logConfigPath != "" {
		if err := util.OverrideLoggerConfig(&config, *logConfigPath); err != nil {
			fmt.Printf("Error loading logger config: %v, keeping server config logger\n", err)
		}
	}

	logger.InitLogger(config.Logger)
	serverLogger := logger.NewLogger("server")
	serverLogger.WithFields(map[string]interface{}{
		"port":        config.Port,
		"level":       config.Logger.Level,
		"log_to_file": config.Logger.LogToFile,
		"log_to_json": config.Logger.LogToJSON,
		"nats":        config.NatsURL != "",
	}).Info("Configuration loaded")

	if err := api.StartServer(config, serverLogger); err != nil {
		serverLogger.Fatalf("ListenAndServe: %v", err)
	}
}
