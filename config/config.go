// Package config loads keep-alive settings from the environment.
//
// Configuration is parsed with github.com/caarlos0/env; a .env file in the working
// directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/st-keller/keepalive-client/target"
)

// LogLevel wraps slog.Level so it can be parsed from the environment.
type LogLevel slog.Level

// UnmarshalText implements encoding.TextUnmarshaler for LogLevel.
func (l *LogLevel) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "debug":
		*l = LogLevel(slog.LevelDebug)
	case "info", "":
		*l = LogLevel(slog.LevelInfo)
	case "warn", "warning":
		*l = LogLevel(slog.LevelWarn)
	case "error":
		*l = LogLevel(slog.LevelError)
	default:
		return fmt.Errorf("invalid LogLevel: %q (valid options: debug, info, warn, error)", v)
	}
	return nil
}

// Level returns the slog level.
func (l LogLevel) Level() slog.Level {
	return slog.Level(l)
}

// TLSConfig holds optional mTLS material for https origins.
type TLSConfig struct {
	CertPath string `env:"CERT"`
	KeyPath  string `env:"KEY"`
	CAPath   string `env:"CA"`
}

// Config is the keep-alive runtime configuration.
type Config struct {
	// Origin is any URL of the app being kept alive; only scheme, host and port are used.
	Origin string `env:"ORIGIN"`

	// Path is the keep-alive route on the companion server.
	Path string `env:"PATH" envDefault:"/flaskwebgui-keep-server-alive"`

	// Interval between pings.
	Interval time.Duration `env:"INTERVAL" envDefault:"15s"`

	LogLevel LogLevel `env:"LOG_LEVEL" envDefault:"info"`

	// MetricsAddr serves Prometheus metrics when non-empty (e.g., "127.0.0.1:9091").
	MetricsAddr string `env:"METRICS_ADDR"`

	TLS TLSConfig `envPrefix:"TLS_"`
}

// Prefix is prepended to every variable name.
const Prefix = "KEEPALIVE_"

// Load reads .env (if present) and the KEEPALIVE_* environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// Sanitize trims values and restores defaults for unusable ones.
func (c *Config) Sanitize() {
	c.Origin = strings.TrimSpace(c.Origin)
	c.Path = strings.TrimSpace(c.Path)
	if c.Path == "" {
		c.Path = target.DefaultPath
	}
	c.MetricsAddr = strings.TrimSpace(c.MetricsAddr)
	c.TLS.CertPath = strings.TrimSpace(c.TLS.CertPath)
	c.TLS.KeyPath = strings.TrimSpace(c.TLS.KeyPath)
	c.TLS.CAPath = strings.TrimSpace(c.TLS.CAPath)
}

// Validate checks that the configuration can start a heartbeat.
func (c *Config) Validate() error {
	if c.Origin == "" {
		return errors.New("origin required (set KEEPALIVE_ORIGIN or pass it as argument)")
	}
	if _, err := target.Resolve(c.Origin, c.Path); err != nil {
		return err
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be > 0, got %s", c.Interval)
	}
	return nil
}
