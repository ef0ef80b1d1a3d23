// Package config loads liveview server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Server struct {
	Addr           string        `env:"LIVEVIEW_ADDR" envDefault:"127.0.0.1:4000"`
	PingInterval   time.Duration `env:"LIVEVIEW_PING_INTERVAL" envDefault:"25s"`
	PingTimeout    time.Duration `env:"LIVEVIEW_PING_TIMEOUT" envDefault:"5s"`
	BufferSize     int           `env:"LIVEVIEW_BUFFER_SIZE" envDefault:"1024"`
	MaxConnections int           `env:"LIVEVIEW_MAX_CONNECTIONS" envDefault:"100"`
	Compression    bool          `env:"LIVEVIEW_COMPRESSION" envDefault:"false"`
	Debug          bool          `env:"LIVEVIEW_DEBUG" envDefault:"false"`
	MetricsPath    string        `env:"LIVEVIEW_METRICS_PATH" envDefault:"/metrics"`
	// AllowedOrigins restricts websocket upgrades to these Origin values.
	// Empty accepts any origin.
	AllowedOrigins []string      `env:"LIVEVIEW_ALLOWED_ORIGINS" envSeparator:","`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Load() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if cfg.PingInterval <= 0 {
		return Server{}, fmt.Errorf("LIVEVIEW_PING_INTERVAL must be positive, got %s", cfg.PingInterval)
	}
	if cfg.BufferSize <= 0 {
		return Server{}, fmt.Errorf("LIVEVIEW_BUFFER_SIZE must be positive, got %d", cfg.BufferSize)
	}
	return cfg, nil
}
