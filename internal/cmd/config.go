package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/duelgrid/server/internal/physics"
	"github.com/duelgrid/server/internal/relay"
	"github.com/duelgrid/server/internal/session"
)

// Config is the process configuration: HTTP listen settings, simulation
// scheduling, the shared physics tunables and the optional NATS relay.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Game    GameConfig     `yaml:"game"`
	Physics physics.Config `yaml:"physics"`
	Relay   relay.Config   `yaml:"relay"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GameConfig struct {
	TickRate int `yaml:"tick_rate"` // simulation steps per second
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Game: GameConfig{
			TickRate: 60,
		},
		Physics: physics.DefaultConfig(),
		Relay:   relay.DefaultConfig(),
	}
}

// loadConfig reads the YAML config at path, starting from the defaults. An
// empty path skips the file entirely. Environment variables override the
// listen port and NATS URL last.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		config.Relay.URL = url
	}

	if config.Game.TickRate <= 0 {
		return nil, fmt.Errorf("tick_rate must be positive, got %d", config.Game.TickRate)
	}
	return config, nil
}

// sessionConfig maps the file-level settings onto the coordinator's
// scheduling parameters.
func (c *Config) sessionConfig() session.Config {
	return session.Config{
		Physics:           c.Physics,
		TickInterval:      time.Second / time.Duration(c.Game.TickRate),
		CountdownInterval: time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
