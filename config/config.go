package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DB" envDefault:"medsim"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	ModelBaseURL string        `env:"MODEL_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	ModelAPIKey  string        `env:"MODEL_API_KEY,required"`
	ModelName    string        `env:"MODEL_NAME" envDefault:"openai/gpt-4o-mini"`
	ModelTimeout time.Duration `env:"MODEL_TIMEOUT" envDefault:"30s"`

	DialogueCacheTTL time.Duration `env:"DIALOGUE_CACHE_TTL" envDefault:"1h"`
	TermCacheTTL     time.Duration `env:"TERM_CACHE_TTL" envDefault:"1h"`

	// HistoryWindow bounds how many past attempts feed a prediction.
	HistoryWindow int `env:"HISTORY_WINDOW" envDefault:"10"`

	// JWTSecret is generated at startup when unset.
	JWTSecret string `env:"JWT_SECRET"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func GenerateRandomKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
