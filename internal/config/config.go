// Package config reads the process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/snipelabs/sniper/internal/auction"
)

// Config is everything the sniper needs to start.
type Config struct {
	// HTTPAddr is where the UI listens.
	HTTPAddr string `env:"SNIPER_HTTP_ADDR" envDefault:"0.0.0.0:3000"`

	// DatabaseURL selects the PostgreSQL backend; empty selects the
	// in-memory one.
	DatabaseURL string `env:"SNIPER_DATABASE_URL"`

	// AMQPURL selects the RabbitMQ auction house client; empty selects
	// the in-process stub.
	AMQPURL string `env:"SNIPER_AMQP_URL"`

	// OpeningBid is what the engine offers on an auction with no bids
	// yet. The auction house's literal behavior is zero.
	OpeningBid auction.Amount `env:"SNIPER_OPENING_BID" envDefault:"0"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
