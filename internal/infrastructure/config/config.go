package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config is constructed once at process start and passed by reference into
// the stores and the engine; there is no global configuration state.
type Config struct {
	Port     string `env:"PORT,     default=8080"`
	Env      string `env:"ENV,      default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// SessionExpiryHours fixes session lifetime at creation time.
	SessionExpiryHours int `env:"SESSION_EXPIRY_HOURS, default=8"`
	// TokenLength is the number of random bytes per bearer token.
	TokenLength int `env:"TOKEN_LENGTH, default=32"`
	// BcryptCost is the password hash work factor.
	BcryptCost int `env:"BCRYPT_COST, default=12"`

	Mongo MongoConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=vet_auth"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
