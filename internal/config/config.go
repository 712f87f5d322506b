package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config aggregates every setting the service reads, all from the
// environment, once at startup. DATABASE_URL is mandatory: the process must
// refuse to accept connections without a configured message store.
type Config struct {
	Port                string        `envconfig:"PORT" default:"8080"`
	DatabaseURL         string        `envconfig:"DATABASE_URL" required:"true"`
	DatabaseBusyTimeout time.Duration `envconfig:"DATABASE_BUSY_TIMEOUT" default:"5s"`

	HistoryLimit  int `envconfig:"HISTORY_LIMIT" default:"50"`
	SendQueueSize int `envconfig:"SEND_QUEUE_SIZE" default:"256"`

	MessageRatePerSec float64 `envconfig:"MESSAGE_RATE_PER_SEC" default:"10"`
	MessageBurst      int     `envconfig:"MESSAGE_BURST" default:"20"`

	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogConsole bool   `envconfig:"LOG_CONSOLE" default:"false"`
}

// Load populates the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if strings.Contains(c.Port, " ") {
		return fmt.Errorf("invalid PORT value: %q", c.Port)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("HISTORY_LIMIT must not be negative")
	}
	if c.SendQueueSize < 1 {
		return fmt.Errorf("SEND_QUEUE_SIZE must be at least 1")
	}
	if c.MessageRatePerSec <= 0 {
		return fmt.Errorf("MESSAGE_RATE_PER_SEC must be positive")
	}
	if c.MessageBurst < 1 {
		return fmt.Errorf("MESSAGE_BURST must be at least 1")
	}
	return nil
}

// Addr returns the listen address. PORT may be a bare port ("8080") or a
// full address (":8080", "127.0.0.1:8080").
func (c *Config) Addr() string {
	port := strings.TrimSpace(c.Port)
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
