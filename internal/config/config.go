package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds process-level configuration for the bridge binary. It is
// unrelated to UserConfig, which is the filter predicate the core
// evaluates against decoded records.
//
// Tags:
//
//	env: environment variable name
//	envDefault: value used when the variable is unset
type Config struct {
	// Egress transport.
	Addr string `env:"WS_ADDR" envDefault:":9345"`

	// Ingress.
	DatagramAddr string `env:"BRIDGE_DATAGRAM_ADDR" envDefault:"127.0.0.1:34254"`

	// Capacity.
	MaxClients      int `env:"BRIDGE_MAX_CLIENTS" envDefault:"500"`
	BusCapacity     int `env:"BRIDGE_BUS_CAPACITY" envDefault:"1024"`
	ClientQueueSize int `env:"BRIDGE_CLIENT_QUEUE_SIZE" envDefault:"1024"`

	// Rate limiting.
	IngestBurst        int `env:"BRIDGE_INGEST_BURST" envDefault:"200"`
	IngestRatePerSec   int `env:"BRIDGE_INGEST_RATE" envDefault:"100"`
	ClientBurst        int `env:"BRIDGE_CLIENT_BURST" envDefault:"20"`
	ClientRatePerSec   int `env:"BRIDGE_CLIENT_RATE" envDefault:"10"`

	// Monitoring.
	MetricsInterval time.Duration `env:"BRIDGE_METRICS_INTERVAL" envDefault:"15s"`

	// Logging.
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Load reads configuration from an optional .env file and then from the
// environment. Priority: environment variables > .env file > defaults.
func Load(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Info().Msg("no .env file found, using environment variables only")
		}
	} else if logger != nil {
		logger.Info().Msg("loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// Validate rejects out-of-range or nonsensical values before the server
// starts.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("WS_ADDR is required")
	}
	if c.DatagramAddr == "" {
		return fmt.Errorf("BRIDGE_DATAGRAM_ADDR is required")
	}
	if c.MaxClients < 1 {
		return fmt.Errorf("BRIDGE_MAX_CLIENTS must be > 0, got %d", c.MaxClients)
	}
	if c.BusCapacity < 1 {
		return fmt.Errorf("BRIDGE_BUS_CAPACITY must be > 0, got %d", c.BusCapacity)
	}
	if c.ClientQueueSize < 1 {
		return fmt.Errorf("BRIDGE_CLIENT_QUEUE_SIZE must be > 0, got %d", c.ClientQueueSize)
	}
	if c.IngestBurst < 1 || c.IngestRatePerSec < 1 {
		return fmt.Errorf("BRIDGE_INGEST_BURST and BRIDGE_INGEST_RATE must be > 0")
	}
	if c.ClientBurst < 1 || c.ClientRatePerSec < 1 {
		return fmt.Errorf("BRIDGE_CLIENT_BURST and BRIDGE_CLIENT_RATE must be > 0")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error (got %q)", c.LogLevel)
	}
	validLogFormats := map[string]bool{"json": true, "pretty": true}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, pretty (got %q)", c.LogFormat)
	}
	return nil
}

// LogFields logs the loaded configuration using structured fields.
func (c *Config) LogFields(logger zerolog.Logger) {
	logger.Info().
		Str("environment", c.Environment).
		Str("addr", c.Addr).
		Str("datagram_addr", c.DatagramAddr).
		Int("max_clients", c.MaxClients).
		Int("bus_capacity", c.BusCapacity).
		Int("client_queue_size", c.ClientQueueSize).
		Int("ingest_burst", c.IngestBurst).
		Int("ingest_rate", c.IngestRatePerSec).
		Int("client_burst", c.ClientBurst).
		Int("client_rate", c.ClientRatePerSec).
		Dur("metrics_interval", c.MetricsInterval).
		Str("log_level", c.LogLevel).
		Str("log_format", c.LogFormat).
		Msg("configuration loaded")
}
