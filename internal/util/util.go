// internal/util/util.go

// Package util loads the server and logger configuration from JSON files
// and environment variables.
package util

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/erilali/chathub/internal/hub"
	"github.com/erilali/chathub/internal/logger"
)

// ServerConfig holds everything the chat server needs at startup.
type ServerConfig struct {
	Port              int
	ReadLimit         int64 // bytes per inbound frame
	SendBuffer        int   // queued outbound frames per connection
	NatsURL           string
	NatsSubjectPrefix string
	GinMode           string
	Logger            logger.LogConfig
}

// DefaultServerConfig returns the configuration used when no file or
// environment overrides are present. NATS mirroring is off by default.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:              8080,
		ReadLimit:         hub.DefaultReadLimit,
		SendBuffer:        hub.DefaultSendBuffer,
		NatsSubjectPrefix: hub.DefaultSubjectPrefix,
		GinMode:           "release",
		Logger:            logger.DefaultLogConfig(),
	}
}

// Addr is the listen address for the configured port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Env abstracts environment lookups so tests can supply their own values.
type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

// LoadServerConfig reads filePath (a missing file means defaults) and then
// applies environment overrides.
func LoadServerConfig(filePath string) (ServerConfig, error) {
	return LoadServerConfigFromEnv(filePath, osEnv{})
}

// LoadServerConfigFromEnv is LoadServerConfig with an explicit environment.
func LoadServerConfigFromEnv(filePath string, env Env) (ServerConfig, error) {
	config := DefaultServerConfig()
	if err := decodeFile(filePath, &config); err != nil {
		return config, fmt.Errorf("load server config %s: %w", filePath, err)
	}
	if err := ApplyEnv(&config, env); err != nil {
		return config, err
	}
	if config.Port <= 0 || config.Port > 65535 {
		return config, fmt.Errorf("invalid port %d", config.Port)
	}
	switch config.GinMode {
	case "debug", "release", "test":
	default:
		return config, fmt.Errorf("invalid gin mode %q", config.GinMode)
	}
	return config, nil
}

// ApplyEnv overlays PORT, NATS_URL, NATS_SUBJECT_PREFIX, LOG_LEVEL and
// GIN_MODE onto config.
func ApplyEnv(config *ServerConfig, env Env) error {
	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid PORT %q", raw)
		}
		config.Port = port
	}
	if raw := env.Getenv("NATS_URL"); raw != "" {
		config.NatsURL = raw
	}
	if raw := env.Getenv("NATS_SUBJECT_PREFIX"); raw != "" {
		config.NatsSubjectPrefix = raw
	}
	if raw := env.Getenv("LOG_LEVEL"); raw != "" {
		config.Logger.Level = raw
	}
	if raw := env.Getenv("GIN_MODE"); raw != "" {
		config.GinMode = raw
	}
	return nil
}

// LoadLoggerConfig loads the logger configuration from a JSON file
func LoadLoggerConfig(filePath string) (logger.LogConfig, error) {
	config := logger.DefaultLogConfig()
	if err := decodeFile(filePath, &config); err != nil {
		return logger.DefaultLogConfig(), err
	}
	return config, nil
}

// OverrideLoggerConfig replaces config.Logger with the logger file at
// filePath. LOG_LEVEL still wins over the file.
func OverrideLoggerConfig(config *ServerConfig, filePath string) error {
	return OverrideLoggerConfigFromEnv(config, filePath, osEnv{})
}

// OverrideLoggerConfigFromEnv is OverrideLoggerConfig with an explicit environment.
func OverrideLoggerConfigFromEnv(config *ServerConfig, filePath string, env Env) error {
	logConfig, err := LoadLoggerConfig(filePath)
	if err != nil {
		return fmt.Errorf("load logger config %s: %w", filePath, err)
	}
	config.Logger = logConfig
	if raw := env.Getenv("LOG_LEVEL"); raw != "" {
		config.Logger.Level = raw
	}
	return nil
}

func decodeFile(filePath string, dst interface{}) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(dst)
}
