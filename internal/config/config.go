// Package config loads the service configuration from the environment.
//
// Configuration is read once at startup into an immutable Config value that
// is passed down to the components that need it. Nothing reads environment
// variables at request time.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains all service configuration.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/userd.db"`

	// FrontendCallbackURL is where the OAuth callback redirects the browser
	// after a successful login, with the issued token as a query value.
	FrontendCallbackURL string `env:"FRONTEND_CALLBACK_URL" envDefault:"http://localhost:5173/oauth/callback"`

	JWT    JWT    `envPrefix:"JWT_"`
	GitHub GitHub `envPrefix:"GITHUB_"`
}

// JWT contains token signing parameters. The secret has no default: an
// unset JWT_SECRET fails startup rather than silently signing with a
// well-known value.
type JWT struct {
	Secret string        `env:"SECRET,required,notEmpty"`
	Issuer string        `env:"ISSUER" envDefault:"userd"`
	TTL    time.Duration `env:"TTL" envDefault:"15m"`
}

// GitHub contains OAuth app credentials. Empty values leave the OAuth
// routes registered but answering with a configuration error.
type GitHub struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

// Load reads a .env file if one exists, then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	return &cfg, nil
}
