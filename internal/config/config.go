package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/park285/autobattler-league/internal/irisfast"
	"github.com/park285/autobattler-league/internal/obslog"
)

const (
	RosterSQLite = "sqlite"
	RosterRedis  = "redis"
	RosterMemory = "memory"
)

type AppConfig struct {
	IrisBaseURL string `env:"IRIS_BASE_URL"`
	IrisWSURL   string `env:"IRIS_WS_URL"`

	IrisTimeout           time.Duration `env:"IRIS_TIMEOUT" envDefault:"10s"`
	IrisRetries           int           `env:"IRIS_RETRIES" envDefault:"3"`
	IrisReconnectAttempts int           `env:"IRIS_RECONNECT_ATTEMPTS" envDefault:"5"`
	IrisReconnectDelay    time.Duration `env:"IRIS_RECONNECT_DELAY" envDefault:"1s"`

	BotPrefix string `env:"BOT_PREFIX" envDefault:"!league"`

	XUserID    string `env:"X_USER_ID"`
	XUserEmail string `env:"X_USER_EMAIL"`
	XSessionID string `env:"X_SESSION_ID"`

	AllowedRooms []string `env:"ALLOWED_ROOMS" envSeparator:","`

	EgressMode   string `env:"EGRESS_MODE" envDefault:"http"`
	EgressDryRun bool   `env:"EGRESS_DRYRUN" envDefault:"false"`

	RosterBackend    string `env:"ROSTER_BACKEND" envDefault:"sqlite"`
	RosterKey        string `env:"ROSTER_KEY" envDefault:"autoBattlerPlayers"`
	RosterSQLitePath string `env:"ROSTER_SQLITE_PATH" envDefault:"data/league.db"`

	RedisURL    string `env:"REDIS_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	MessagesDir string `env:"MESSAGES_DIR"`
	StatusImage bool   `env:"STATUS_IMAGE" envDefault:"true"`
	PairingSeed uint64 `env:"PAIRING_SEED" envDefault:"0"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"legacy"`
	LogToConsole bool   `env:"LOG_TO_CONSOLE" envDefault:"true"`
	LogToFile    bool   `env:"LOG_TO_FILE" envDefault:"false"`
	LogFile      string `env:"LOG_FILE" envDefault:"logs/league.log"`
	LogCaller    bool   `env:"LOG_CALLER" envDefault:"false"`
}

// Load reads the environment. The Iris endpoints and BOT_PREFIX are required.
func Load() (*AppConfig, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	return cfg, nil
}

// Parse reads and normalises the environment without requiring the Iris
// endpoints.
func Parse() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()

	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	if cfg.IrisTimeout <= 0 || cfg.IrisRetries < 1 {
		return nil, errors.New("IRIS_TIMEOUT must be positive and IRIS_RETRIES at least 1")
	}
	if cfg.IrisReconnectAttempts < 0 {
		return nil, errors.New("IRIS_RECONNECT_ATTEMPTS must not be negative")
	}
	switch cfg.EgressMode {
	case irisfast.EgressHTTP, irisfast.EgressWS, irisfast.EgressAuto:
	default:
		return nil, fmt.Errorf("EGRESS_MODE must be http, ws or auto: %q", cfg.EgressMode)
	}
	switch cfg.RosterBackend {
	case RosterSQLite:
		if cfg.RosterSQLitePath == "" {
			return nil, errors.New("ROSTER_SQLITE_PATH is required for the sqlite roster")
		}
	case RosterRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for the redis roster")
		}
	case RosterMemory:
	default:
		return nil, fmt.Errorf("ROSTER_BACKEND must be sqlite, redis or memory: %q", cfg.RosterBackend)
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.IrisBaseURL = strings.TrimSpace(c.IrisBaseURL)
	c.IrisWSURL = strings.TrimSpace(c.IrisWSURL)
	c.BotPrefix = strings.TrimSpace(c.BotPrefix)
	c.XUserID = strings.TrimSpace(c.XUserID)
	c.XUserEmail = strings.TrimSpace(c.XUserEmail)
	c.XSessionID = strings.TrimSpace(c.XSessionID)
	c.EgressMode = strings.ToLower(strings.TrimSpace(c.EgressMode))
	c.RosterBackend = strings.ToLower(strings.TrimSpace(c.RosterBackend))
	c.RosterKey = strings.TrimSpace(c.RosterKey)
	c.RosterSQLitePath = strings.TrimSpace(c.RosterSQLitePath)
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.MessagesDir = strings.TrimSpace(c.MessagesDir)

	rooms := c.AllowedRooms[:0]
	for _, r := range c.AllowedRooms {
		if s := strings.TrimSpace(r); s != "" {
			rooms = append(rooms, s)
		}
	}
	c.AllowedRooms = rooms
}

// Headers are the X-User-* headers sent to Iris on every request.
func (c *AppConfig) Headers() map[string]string {
	h := map[string]string{}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

// IrisSettings shapes the Iris REST client.
func (c *AppConfig) IrisSettings() irisfast.Settings {
	return irisfast.Settings{
		Timeout: c.IrisTimeout,
		Retries: c.IrisRetries,
		Headers: c.Headers,
	}
}

// IrisSocket builds the Iris push socket with the configured redial policy.
func (c *AppConfig) IrisSocket() *irisfast.WebSocket {
	ws := irisfast.NewWebSocket(c.IrisWSURL, c.IrisReconnectAttempts, c.IrisReconnectDelay)
	ws.SetHeaderProvider(c.Headers)
	return ws
}

// RoomAllowed reports whether room may use the bot. An empty list allows all.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	room = strings.TrimSpace(room)
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func (c *AppConfig) LogOptions() obslog.Options {
	return obslog.Options{
		Level:     c.LogLevel,
		Format:    c.LogFormat,
		ToConsole: c.LogToConsole,
		ToFile:    c.LogToFile,
		File:      c.LogFile,
		Caller:    c.LogCaller,
	}
}
