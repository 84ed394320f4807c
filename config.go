package lodestar

import (
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

const (
	// DefaultFrameRate is the number of frames per second StartLoop targets when the
	// environment does not say otherwise.
	DefaultFrameRate = 60
)

// Config is the world's environment-driven configuration.
type Config struct {
	// LogLevel sets the minimum level for the world logger.
	LogLevel string `env:"LODESTAR_LOG_LEVEL" envDefault:"info"`

	// FrameRate is the target frames per second for StartLoop.
	FrameRate int `env:"LODESTAR_FRAME_RATE" envDefault:"60"`

	// EventBufferCapacity sizes each per-type event queue.
	EventBufferCapacity int `env:"LODESTAR_EVENT_BUFFER_CAPACITY" envDefault:"256"`

	// CommandBufferCapacity sizes the deferred command queues.
	CommandBufferCapacity int `env:"LODESTAR_COMMAND_BUFFER_CAPACITY" envDefault:"256"`
}

func loadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, eris.Wrap(err, "failed to parse config from environment")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	if c.FrameRate < 1 {
		return eris.Errorf("frame rate must be at least 1, got %d", c.FrameRate)
	}
	if c.EventBufferCapacity < 1 {
		return eris.Errorf("event buffer capacity must be at least 1, got %d", c.EventBufferCapacity)
	}
	if c.CommandBufferCapacity < 1 {
		return eris.Errorf("command buffer capacity must be at least 1, got %d", c.CommandBufferCapacity)
	}
	return nil
}

func (c *Config) logLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
