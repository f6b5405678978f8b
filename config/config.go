/*
Package config loads server configuration from the environment.

PURPOSE:
  One flat struct parsed once at startup. Defaults suit local development;
  production deployments override via environment variables.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable the server reads.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"./data/farm.db"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// StartingCoins is the balance first-time owners are provisioned with.
	StartingCoins int64 `env:"STARTING_COINS" envDefault:"1000"`

	// SeedDemo populates a demo farm for the demo owner on startup.
	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
