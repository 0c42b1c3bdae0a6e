package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 500

redis:
  enabled: true
  addr: "redis:6379"
  password: "secret"
  db: 1

game:
  round_duration: 60
  reveal_delay: 5
  restart_delay_ms: 500
  word_options: 3
  words_file: "words.yaml"
  shutdown_timeout: 15
  shutdown_check_interval: 2

security:
  allowed_origins:
    - "http://localhost:5173"
    - "https://example.com"
  rate_limit:
    max_per_second: 20
    max_per_minute: 120
    ban_duration: 120
  message_limit:
    max_per_second: 50
    burst: 80
  chat_limit:
    max_per_second: 2
    max_per_minute: 60
    cooldown: 10

log:
  level: debug
  format: json
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Server.MaxConnections)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, 60, cfg.Game.RoundDuration)
	assert.Equal(t, 5, cfg.Game.RevealDelay)
	assert.Equal(t, 3, cfg.Game.WordOptions)
	assert.Equal(t, "words.yaml", cfg.Game.WordsFile)
	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.Equal(t, 80, cfg.Security.MessageLimit.Burst)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, 75, cfg.Game.RoundDuration)
	assert.Equal(t, 3, cfg.Game.RevealDelay)
	assert.Equal(t, 1000, cfg.Game.RestartDelayMs)
	assert.Equal(t, 4, cfg.Game.WordOptions)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, defaultMsgPerSecond*2, cfg.Security.MessageLimit.Burst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestDefault(t *testing.T) {
	// Not parallel: Default() reads environment overrides

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultRoundDuration, cfg.Game.RoundDuration)
	assert.Equal(t, defaultWordOptions, cfg.Game.WordOptions)
}

func TestGameConfig_DurationMethods(t *testing.T) {
	t.Parallel()

	cfg := &GameConfig{
		RoundDuration:         75,
		RevealDelay:           3,
		RestartDelayMs:        1000,
		ShutdownTimeout:       10,
		ShutdownCheckInterval: 5,
	}

	assert.Equal(t, 75*time.Second, cfg.RoundDurationTime())
	assert.Equal(t, 3*time.Second, cfg.RevealDelayDuration())
	assert.Equal(t, time.Second, cfg.RestartDelayDuration())
	assert.Equal(t, 10*time.Minute, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, 5*time.Second, cfg.ShutdownCheckIntervalDuration())
}

func TestSecurityConfig_Durations(t *testing.T) {
	t.Parallel()

	rl := &RateLimitConfig{BanDuration: 120}
	assert.Equal(t, 120*time.Second, rl.BanDurationTime())

	cl := &ChatLimitConfig{Cooldown: 10}
	assert.Equal(t, 10*time.Second, cl.CooldownDuration())
}

func TestLoadFromEnv(t *testing.T) {
	// Not parallel because it modifies environment variables
	t.Setenv("SERVER_HOST", "env-host")
	t.Setenv("PORT", "9999")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("GAME_ROUND_DURATION", "90")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.com, http://b.com,")

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 90, cfg.Game.RoundDuration)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.Security.AllowedOrigins)
}

func TestLoadFromEnv_ServerPortWins(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("SERVER_PORT", "5000")

	cfg := Default()
	assert.Equal(t, 5000, cfg.Server.Port)
}
