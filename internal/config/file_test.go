package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	clearEnv()
	defer clearEnv()

	path := writeFile(t, "bare.yaml", `
BARE_SERVER: https://proxy.example/bare/v3/
BARE_CLOSE_TIMEOUT: 2s
BARE_BREAKER_FAILURES: 3
log_level: debug
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://proxy.example/bare/v3/", cfg.Bare.Server)
	assert.Equal(t, 2*time.Second, cfg.Bare.CloseTimeout)
	assert.Equal(t, uint32(3), cfg.Breaker.Failures)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFileTOML(t *testing.T) {
	clearEnv()
	defer clearEnv()

	path := writeFile(t, "bare.toml", `
BARE_SERVER = "https://proxy.example/"
BARE_RATE_LIMIT_RPS = 2.5
LOG_DEV = true
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://proxy.example/", cfg.Bare.Server)
	assert.Equal(t, 2.5, cfg.Bare.RateLimitRPS)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadFileEnvironmentWins(t *testing.T) {
	clearEnv()
	defer clearEnv()

	os.Setenv("BARE_SERVER", "http://env.example/")
	path := writeFile(t, "bare.yml", "BARE_SERVER: http://file.example/\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example/", cfg.Bare.Server)
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv()
	defer clearEnv()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "bare.json", `{}`))
	assert.ErrorContains(t, err, "unsupported config file type")

	_, err = LoadFile(writeFile(t, "nested.yaml", "BARE:\n  SERVER: x\n"))
	assert.ErrorContains(t, err, "nested values")

	_, err = LoadFile(writeFile(t, "bad.toml", "BARE_SERVER = "))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "invalid.yaml", "BARE_SERVER: ftp://x/\n"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "count.yaml", "BARE_BREAKER_FAILURES: many\n"))
	assert.ErrorContains(t, err, "BARE_BREAKER_FAILURES")

	_, err = LoadFile(writeFile(t, "duration.toml", `BARE_CLOSE_TIMEOUT = "soon"`))
	assert.ErrorContains(t, err, "BARE_CLOSE_TIMEOUT")
}

func TestLoadFileLeavesEnvironment(t *testing.T) {
	clearEnv()
	defer clearEnv()

	path := writeFile(t, "bare.yaml", `
BARE_SERVER: https://file.example/
LOG_LEVEL: warn
UNRELATED_KEY: ignored
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example/", cfg.Bare.Server)

	for _, key := range []string{"BARE_SERVER", "LOG_LEVEL", "UNRELATED_KEY"} {
		_, set := os.LookupEnv(key)
		assert.False(t, set, key)
	}

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/bare/v3/", cfg.Bare.Server)
	assert.Equal(t, "info", cfg.Logging.Level)
}
