// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration.
//
// JWT_SECRET signs every token the process issues and ADMIN_KEY is the
// bootstrap secret that grants superuser at signup. Both are required —
// weak or missing values are a deployment concern, so the only check here
// is presence (the token service additionally enforces a minimum length).
type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"DB_PATH" envDefault:"data/marketplace.db"`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"uploads"`

	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
	AdminKey  string `env:"ADMIN_KEY,required,notEmpty"`

	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"` // 30 days
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}
	return cfg, nil
}
