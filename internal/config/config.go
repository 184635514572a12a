// Package config loads bot configuration from the environment, optionally
// layered over a YAML file. Environment variables always win, so a deployment
// can ship a config file and still override secrets per-process.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.yaml.in/yaml/v3"
)

// DefaultAdminID is the built-in fallback admin when ADMIN_IDS is unset.
const DefaultAdminID int64 = 1631555366

type Config struct {
	// Token is the Telegram bot token. Required; startup aborts without it.
	Token string `yaml:"token" env:"BOT_TOKEN"`

	// AdminIDs is the fixed admin set. It is immutable configuration, not
	// part of the persisted settings record.
	AdminIDs []int64 `yaml:"admin_ids" env:"ADMIN_IDS" envSeparator:","`

	// Channel is the default force-join channel (e.g. "@mychannel").
	// The persisted settings record can override it at runtime.
	Channel string `yaml:"channel" env:"FORCE_JOIN_CHANNEL"`

	State State `yaml:"state" envPrefix:"STATE_"`
	Log   Log   `yaml:"log"`

	Telegram  Telegram  `yaml:"telegram"`
	Content   Content   `yaml:"content"`
	Broadcast Broadcast `yaml:"broadcast"`
	Push      Push      `yaml:"push"`

	// RefreshUsers refreshes a user's name/handle on every message instead
	// of keeping the first-seen snapshot. Off by default to match the
	// historical behavior.
	RefreshUsers bool `yaml:"refresh_users" env:"REFRESH_USERS_ON_MESSAGE"`
}

type State struct {
	// Dir holds users.json / stats.json / settings.json (file driver) or
	// the sqlite database file.
	Dir string `yaml:"dir" env:"DIR"`
	// Driver selects the storage backend: "file" (default) or "sqlite".
	Driver string `yaml:"driver" env:"DRIVER"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	// File enables an additional JSON log sink when non-empty.
	File string `yaml:"file" env:"LOG_FILE"`
}

type Telegram struct {
	PollTimeout time.Duration `yaml:"poll_timeout" env:"POLL_TIMEOUT"`
	SendTimeout time.Duration `yaml:"send_timeout" env:"SEND_TIMEOUT"`
}

type Content struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"FETCH_TIMEOUT"`
}

type Broadcast struct {
	// RatePerSec paces outbound broadcast sends; 0 disables pacing and
	// keeps the historical unpaced fan-out.
	RatePerSec int `yaml:"rate_per_sec" env:"BROADCAST_RATE"`
	// SendTimeout bounds each individual delivery.
	SendTimeout time.Duration `yaml:"send_timeout" env:"BROADCAST_SEND_TIMEOUT"`
}

type Push struct {
	// DailyCron is a standard 5-field cron spec for the scheduled daily
	// pack push. Empty disables the push.
	DailyCron string `yaml:"daily_cron" env:"DAILY_PUSH_CRON"`
}

// Load reads the optional YAML file at path (empty path skips the file),
// overlays environment variables, applies defaults and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.AdminIDs) == 0 {
		c.AdminIDs = []int64{DefaultAdminID}
	}
	if strings.TrimSpace(c.State.Dir) == "" {
		c.State.Dir = "."
	}
	if strings.TrimSpace(c.State.Driver) == "" {
		c.State.Driver = "file"
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = 10 * time.Second
	}
	if c.Telegram.SendTimeout <= 0 {
		c.Telegram.SendTimeout = 10 * time.Second
	}
	if c.Content.FetchTimeout <= 0 {
		c.Content.FetchTimeout = 10 * time.Second
	}
	if c.Broadcast.SendTimeout <= 0 {
		c.Broadcast.SendTimeout = 10 * time.Second
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("bot token is missing (set BOT_TOKEN)")
	}
	switch strings.ToLower(strings.TrimSpace(c.State.Driver)) {
	case "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unknown state driver %q", c.State.Driver)
	}
	if c.Broadcast.RatePerSec < 0 {
		return fmt.Errorf("broadcast rate must be >= 0, got %d", c.Broadcast.RatePerSec)
	}
	return nil
}

// IsAdmin reports whether id is in the fixed admin set.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}
