// Package config builds runtime configuration from the environment so main
// stays lean. A .env file is honored when present; real environment
// variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr       string
	BaseDomain string

	JWTSigningKey string
	TokenIssuer   string
	TokenTTL      time.Duration

	DatabaseDSN string
	RedisAddr   string

	LogLevel string
}

// minSigningKeyLen mirrors the token codec's requirement; checking here turns
// a misconfiguration into a startup failure with a readable message.
const minSigningKeyLen = 32

// FromEnv builds the configuration from environment variables, honoring a
// .env file when one exists.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:          envOr("ERPCORE_ADDR", ":8080"),
		BaseDomain:    os.Getenv("ERPCORE_BASE_DOMAIN"),
		JWTSigningKey: os.Getenv("ERPCORE_JWT_SIGNING_KEY"),
		TokenIssuer:   envOr("ERPCORE_TOKEN_ISSUER", "erpcore"),
		TokenTTL:      30 * time.Minute,
		DatabaseDSN:   os.Getenv("ERPCORE_DATABASE_DSN"),
		RedisAddr:     os.Getenv("ERPCORE_REDIS_ADDR"),
		LogLevel:      envOr("ERPCORE_LOG_LEVEL", "info"),
	}

	if raw := os.Getenv("ERPCORE_TOKEN_TTL_MINUTES"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("invalid ERPCORE_TOKEN_TTL_MINUTES %q", raw)
		}
		cfg.TokenTTL = time.Duration(minutes) * time.Minute
	}

	if len(cfg.JWTSigningKey) < minSigningKeyLen {
		return Config{}, fmt.Errorf("ERPCORE_JWT_SIGNING_KEY must be set to at least %d characters", minSigningKeyLen)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
