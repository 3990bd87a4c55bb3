// internal/util/util_test.go
package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEnv map[string]string

func (m mapEnv) Getenv(key string) string { return m[key] }

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadServerConfigFromEnv(filepath.Join(t.TempDir(), "absent.json"), mapEnv{})
	require.NoError(t, err)
	assert.Equal(t, DefaultServerConfig(), cfg)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Empty(t, cfg.NatsURL)
	assert.EqualValues(t, 100<<20, cfg.ReadLimit)
}

func TestFileValuesOverrideDefaults(t *testing.T) {
	path := writeFile(t, `{
		"port": 9090,
		"readLimit": 1024,
		"natsURL": "nats://broker:4222",
		"logger": {"level": "debug", "logToJSON": true}
	}`)

	cfg, err := LoadServerConfigFromEnv(path, mapEnv{})
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.EqualValues(t, 1024, cfg.ReadLimit)
	assert.Equal(t, "nats://broker:4222", cfg.NatsURL)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Logger.LogToJSON)
	assert.Equal(t, 256, cfg.SendBuffer)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, `{"port": 9090}`)

	cfg, err := LoadServerConfigFromEnv(path, mapEnv{
		"PORT":                "7000",
		"NATS_URL":            "nats://localhost:4222",
		"NATS_SUBJECT_PREFIX": "lobby",
		"LOG_LEVEL":           "warn",
		"GIN_MODE":            "debug",
	})
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "nats://localhost:4222", cfg.NatsURL)
	assert.Equal(t, "lobby", cfg.NatsSubjectPrefix)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "debug", cfg.GinMode)
}

func TestInvalidPortIsAnError(t *testing.T) {
	_, err := LoadServerConfigFromEnv("", mapEnv{"PORT": "eighty"})
	require.Error(t, err)

	path := writeFile(t, `{"port": 70000}`)
	_, err = LoadServerConfigFromEnv(path, mapEnv{})
	require.Error(t, err)
}

func TestMalformedFileIsAnError(t *testing.T) {
	path := writeFile(t, `{"port":`)
	_, err := LoadServerConfigFromEnv(path, mapEnv{})
	require.Error(t, err)
}

func TestLoadLoggerConfig(t *testing.T) {
	path := writeFile(t, `{"Level":"error","LogToFile":true,"FilePath":"x.log"}`)
	cfg, err := LoadLoggerConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Level)
	assert.True(t, cfg.LogToFile)
	assert.Equal(t, "x.log", cfg.FilePath)
	assert.Equal(t, 5, cfg.MaxBackups)
}

func TestInvalidGinModeIsAnError(t *testing.T) {
	_, err := LoadServerConfigFromEnv("", mapEnv{"GIN_MODE": "verbose"})
	require.Error(t, err)
}

func TestOverrideLoggerConfigReplacesLoggerSection(t *testing.T) {
	path := writeFile(t, `{"Level":"debug","LogToJSON":true}`)
	cfg := DefaultServerConfig()

	require.NoError(t, OverrideLoggerConfigFromEnv(&cfg, path, mapEnv{}))
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Logger.LogToJSON)
	assert.Equal(t, 8080, cfg.Port)

	require.NoError(t, OverrideLoggerConfigFromEnv(&cfg, path, mapEnv{"LOG_LEVEL": "error"}))
	assert.Equal(t, "error", cfg.Logger.Level)
}

func TestOverrideLoggerConfigKeepsExistingOnError(t *testing.T) {
	path := writeFile(t, `{"Level":`)
	cfg := DefaultServerConfig()
	cfg.Logger.Level = "warn"

	require.Error(t, OverrideLoggerConfigFromEnv(&cfg, path, mapEnv{}))
	assert.Equal(t, "warn", cfg.Logger.Level)
}
