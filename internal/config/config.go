package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                int    `env:"PORT" envDefault:"8080"`
	ConfigPath          string `env:"OPENCLAW_CONFIG_PATH" envDefault:"openclaw.json"`
	DatabaseURL         string `env:"DATABASE_URL"`
	RedisURL            string `env:"REDIS_URL"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
	PairRateLimitPerMin int    `env:"PAIR_RATE_LIMIT_PER_MIN" envDefault:"30"`
	AgentID             string `env:"AGENT_ID" envDefault:"main"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DeliveryLogEnabled reports whether the optional Postgres delivery log is wired in.
func (c *Config) DeliveryLogEnabled() bool {
	return c.DatabaseURL != ""
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
