package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/tusharrohilla/ringhistory/ringbuffer"
)

// Config holds server settings. Values come from defaults, then an optional
// TOML file, then environment variables, then flags.
type Config struct {
	Addr                string
	APIKey              string
	HistorySize         int
	SubscriberQueueSize int
	HeartbeatInterval   time.Duration
	ReadLimitBytes      int64
	ShutdownTimeout     time.Duration
}

type fileConfig struct {
	Addr                string `toml:"addr"`
	APIKey              string `toml:"api_key"`
	HistorySize         *int   `toml:"history_size"`
	SubscriberQueueSize *int   `toml:"subscriber_queue_size"`
	HeartbeatInterval   string `toml:"heartbeat_interval"`
	ReadLimitBytes      *int64 `toml:"read_limit_bytes"`
	ShutdownTimeout     string `toml:"shutdown_timeout"`
}

func defaultConfig() Config {
	return Config{
		Addr:                ":8080",
		HistorySize:         100,
		SubscriberQueueSize: 100,
		HeartbeatInterval:   20 * time.Second,
		ReadLimitBytes:      1 << 20, // 1MB
		ShutdownTimeout:     5 * time.Second,
	}
}

// loadConfig builds a Config from path (may be empty) and the environment.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c *Config) applyFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.Addr != "" {
		c.Addr = fc.Addr
	}
	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if fc.HistorySize != nil {
		c.HistorySize = *fc.HistorySize
	}
	if fc.SubscriberQueueSize != nil {
		c.SubscriberQueueSize = *fc.SubscriberQueueSize
	}
	if fc.ReadLimitBytes != nil {
		c.ReadLimitBytes = *fc.ReadLimitBytes
	}
	if fc.HeartbeatInterval != "" {
		d, err := time.ParseDuration(fc.HeartbeatInterval)
		if err != nil {
			return fmt.Errorf("config %s: heartbeat_interval: %w", path, err)
		}
		c.HeartbeatInterval = d
	}
	if fc.ShutdownTimeout != "" {
		d, err := time.ParseDuration(fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("config %s: shutdown_timeout: %w", path, err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Addr = getEnv("ADDR", c.Addr)
	c.APIKey = getEnv("API_KEY", c.APIKey)
	if v := os.Getenv("HISTORY_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HISTORY_SIZE: %w", err)
		}
		c.HistorySize = n
	}
	// a bad SUBSCRIBER_QUEUE_SIZE falls back to the current value
	if v := os.Getenv("SUBSCRIBER_QUEUE_SIZE"); v != "" {
		if n, _ := strconv.Atoi(v); n > 0 {
			c.SubscriberQueueSize = n
		}
	}
	if v := os.Getenv("HEARTBEAT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HEARTBEAT_INTERVAL: %w", err)
		}
		c.HeartbeatInterval = d
	}
	return nil
}

func (c Config) validate() error {
	if c.HistorySize <= 0 {
		return fmt.Errorf("history size %d: %w", c.HistorySize, ringbuffer.ErrInvalidArgument)
	}
	if c.SubscriberQueueSize <= 0 {
		return errors.New("subscriber queue size must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("heartbeat interval must be positive")
	}
	if c.ReadLimitBytes <= 0 {
		return errors.New("read limit must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}
