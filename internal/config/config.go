package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 3001
	defaultMaxConnections = 2000
	defaultRedisAddr      = "localhost:6379"

	defaultRoundDuration         = 75 // 秒
	defaultRevealDelay           = 3  // 秒
	defaultRestartDelayMs        = 1000
	defaultWordOptions           = 4
	defaultShutdownTimeout       = 10 // 分钟
	defaultShutdownCheckInterval = 5  // 秒

	defaultConnPerSecond = 10
	defaultConnPerMinute = 60
	defaultBanDuration   = 60 // 秒
	defaultMsgPerSecond  = 60 // 笔画数据较密集
	defaultChatPerSecond = 2
	defaultChatPerMinute = 40
	defaultChatCooldown  = 5 // 秒
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置，关闭时不写房间快照
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	RoundDuration         int    `yaml:"round_duration"`          // 每回合作画时长（秒）
	RevealDelay           int    `yaml:"reveal_delay"`            // 揭晓答案后进入下一回合的间隔（秒）
	RestartDelayMs        int    `yaml:"restart_delay_ms"`        // 重开后第一回合的延迟（毫秒）
	WordOptions           int    `yaml:"word_options"`            // 画手候选词数量
	WordsFile             string `yaml:"words_file"`              // 自定义词库（YAML），为空使用内置词库
	ShutdownTimeout       int    `yaml:"shutdown_timeout"`        // 优雅关闭最长等待（分钟）
	ShutdownCheckInterval int    `yaml:"shutdown_check_interval"` // 关闭时检查进行中游戏的间隔（秒）
}

// RoundDurationTime 返回回合时长
func (c *GameConfig) RoundDurationTime() time.Duration {
	return time.Duration(c.RoundDuration) * time.Second
}

// RevealDelayDuration 返回揭晓间隔
func (c *GameConfig) RevealDelayDuration() time.Duration {
	return time.Duration(c.RevealDelay) * time.Second
}

// RestartDelayDuration 返回重开延迟
func (c *GameConfig) RestartDelayDuration() time.Duration {
	return time.Duration(c.RestartDelayMs) * time.Millisecond
}

// ShutdownTimeoutDuration 返回优雅关闭最长等待
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Minute
}

// ShutdownCheckIntervalDuration 返回关闭检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
	ChatLimit      ChatLimitConfig    `yaml:"chat_limit"`
}

// RateLimitConfig 单 IP 建连速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	Burst        int `yaml:"burst"`
}

// ChatLimitConfig 聊天速率限制
type ChatLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	Cooldown     int `yaml:"cooldown"` // 超限后禁言（秒）
}

// CooldownDuration 返回禁言时长
func (c *ChatLimitConfig) CooldownDuration() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug/info/warn/error
	Format string `yaml:"format"` // console/json
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Default 返回默认配置（仍然读取环境变量覆盖）
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg
}

// applyDefaults 为零值字段设置默认值
func (cfg *Config) applyDefaults() {
	setDefault(&cfg.Server.Host, defaultHost)
	setDefault(&cfg.Server.Port, defaultPort)
	setDefault(&cfg.Server.MaxConnections, defaultMaxConnections)
	setDefault(&cfg.Redis.Addr, defaultRedisAddr)

	setDefault(&cfg.Game.RoundDuration, defaultRoundDuration)
	setDefault(&cfg.Game.RevealDelay, defaultRevealDelay)
	setDefault(&cfg.Game.RestartDelayMs, defaultRestartDelayMs)
	setDefault(&cfg.Game.WordOptions, defaultWordOptions)
	setDefault(&cfg.Game.ShutdownTimeout, defaultShutdownTimeout)
	setDefault(&cfg.Game.ShutdownCheckInterval, defaultShutdownCheckInterval)

	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}
	setDefault(&cfg.Security.RateLimit.MaxPerSecond, defaultConnPerSecond)
	setDefault(&cfg.Security.RateLimit.MaxPerMinute, defaultConnPerMinute)
	setDefault(&cfg.Security.RateLimit.BanDuration, defaultBanDuration)
	setDefault(&cfg.Security.MessageLimit.MaxPerSecond, defaultMsgPerSecond)
	setDefault(&cfg.Security.MessageLimit.Burst, cfg.Security.MessageLimit.MaxPerSecond*2)
	setDefault(&cfg.Security.ChatLimit.MaxPerSecond, defaultChatPerSecond)
	setDefault(&cfg.Security.ChatLimit.MaxPerMinute, defaultChatPerMinute)
	setDefault(&cfg.Security.ChatLimit.Cooldown, defaultChatCooldown)

	setDefault(&cfg.Log.Level, defaultLogLevel)
	setDefault(&cfg.Log.Format, defaultLogFormat)
}

// applyEnv 环境变量覆盖配置文件
func (cfg *Config) applyEnv() {
	envString("SERVER_HOST", &cfg.Server.Host)
	envInt("PORT", &cfg.Server.Port)
	envInt("SERVER_PORT", &cfg.Server.Port)
	envBool("REDIS_ENABLED", &cfg.Redis.Enabled)
	envString("REDIS_ADDR", &cfg.Redis.Addr)
	envString("REDIS_PASSWORD", &cfg.Redis.Password)
	envInt("GAME_ROUND_DURATION", &cfg.Game.RoundDuration)
	envString("GAME_WORDS_FILE", &cfg.Game.WordsFile)
	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)

	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		origins := make([]string, 0)
		for o := range strings.SplitSeq(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.Security.AllowedOrigins = origins
		}
	}
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

func envString(key string, field *string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

func envInt(key string, field *int) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		*field = v
	}
}

func envBool(key string, field *bool) {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*field = v
	}
}
