package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ClientConfig configures the dashboard command that talks to the server.
type ClientConfig struct {
	APIURL   string        `env:"EVENTOPS_API_URL" envDefault:"http://localhost:8000"`
	Email    string        `env:"EVENTOPS_EMAIL"`
	Password string        `env:"EVENTOPS_PASSWORD"`
	Token    string        `env:"EVENTOPS_TOKEN"`
	Timeout  time.Duration `env:"EVENTOPS_TIMEOUT" envDefault:"15s"`
}

// LoadClientConfig parses ClientConfig from the environment.
func LoadClientConfig() (ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Timeout <= 0 {
		return ClientConfig{}, fmt.Errorf("parse env: EVENTOPS_TIMEOUT must be positive")
	}
	return cfg, nil
}
