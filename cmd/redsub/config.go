package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/mixer/redutil/conn"
)

// Config holds everything redsub needs to run a session.
type Config struct {
	Conn conn.ConnectionParam

	Channels []string
	Patterns []string

	// ExitPayload is the message payload that makes redsub drop the
	// subscription it arrived on. Empty disables it.
	ExitPayload string
	// Heartbeat is the interval between keep-alive PINGs. Zero disables
	// them.
	Heartbeat time.Duration
	// Reconnect re-dials and re-subscribes when the connection is lost.
	Reconnect bool
	// ReconnectDelay selects a static reconnect policy. Zero keeps the
	// logarithmic default.
	ReconnectDelay time.Duration

	LogLevel zerolog.Level
}

// redsub config.toml key mapping to Config.
type fileConfig struct {
	Address        string   `toml:"address"`
	Password       string   `toml:"password"`
	Database       int      `toml:"database"`
	DialTimeout    string   `toml:"dial_timeout"`
	WriteTimeout   string   `toml:"write_timeout"`
	Channels       []string `toml:"channels"`
	Patterns       []string `toml:"patterns"`
	ExitPayload    string   `toml:"exit_payload"`
	Heartbeat      string   `toml:"heartbeat"`
	Reconnect      bool     `toml:"reconnect"`
	ReconnectDelay string   `toml:"reconnect_delay"`
	LogLevel       string   `toml:"log_level"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Conn: conn.ConnectionParam{
			Address: "127.0.0.1:6379",
			Timeout: 5 * time.Second,
		},
		ExitPayload: "exit",
		Heartbeat:   30 * time.Second,
		Reconnect:   true,
		LogLevel:    zerolog.InfoLevel,
	}
}

// LoadConfig overlays the keys defined in the TOML file at path onto
// DefaultConfig. The result is not validated, since flags may still
// complete it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load redsub config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load redsub config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("address") {
		cfg.Conn.Address = strings.TrimSpace(raw.Address)
	}
	if meta.IsDefined("password") {
		cfg.Conn.Password = raw.Password
	}
	if meta.IsDefined("database") {
		cfg.Conn.Database = raw.Database
	}
	if meta.IsDefined("channels") {
		cfg.Channels = raw.Channels
	}
	if meta.IsDefined("patterns") {
		cfg.Patterns = raw.Patterns
	}
	if meta.IsDefined("exit_payload") {
		cfg.ExitPayload = raw.ExitPayload
	}
	if meta.IsDefined("reconnect") {
		cfg.Reconnect = raw.Reconnect
	}

	durations := []struct {
		key   string
		value string
		into  *time.Duration
	}{
		{"dial_timeout", raw.DialTimeout, &cfg.Conn.Timeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Conn.WriteTimeout},
		{"heartbeat", raw.Heartbeat, &cfg.Heartbeat},
		{"reconnect_delay", raw.ReconnectDelay, &cfg.ReconnectDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return Config{}, fmt.Errorf("load redsub config: %s: %w", d.key, err)
		}
		*d.into = parsed
	}

	if meta.IsDefined("log_level") {
		level, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return Config{}, fmt.Errorf("load redsub config: log_level: %w", err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

// Validate reports settings redsub can't run with.
func (c Config) Validate() error {
	if c.Conn.Address == "" {
		return errors.New("redsub: address is required")
	}
	if len(c.Channels) == 0 && len(c.Patterns) == 0 {
		return errors.New("redsub: at least one channel or pattern is required")
	}
	if c.Heartbeat < 0 || c.ReconnectDelay < 0 {
		return errors.New("redsub: durations must not be negative")
	}

	return nil
}

// Policy returns the reconnect policy described by the config.
func (c Config) Policy() conn.ReconnectPolicy {
	if c.ReconnectDelay > 0 {
		return &conn.StaticReconnectPolicy{Delay: c.ReconnectDelay}
	}

	return &conn.LogReconnectPolicy{Base: 2, Factor: time.Second}
}
