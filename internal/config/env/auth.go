package env

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Lina3386/monk-finance/internal/config"
)

const (
	jwtSecretEnvName = "JWT_SECRET"
	jwtTTLEnvName    = "JWT_TTL"
)

const (
	minSecretLength = 32
	defaultTokenTTL = 30 * 24 * time.Hour
)

type authConfig struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthConfig() (config.AuthConfig, error) {
	secret := os.Getenv(jwtSecretEnvName)
	if secret == "" {
		return nil, errors.New("JWT_SECRET not found")
	}
	if len(secret) < minSecretLength {
		return nil, errors.New("JWT_SECRET must be at least 32 bytes")
	}

	ttl := defaultTokenTTL
	if raw := os.Getenv(jwtTTLEnvName); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration, got %q", jwtTTLEnvName, raw)
		}
		ttl = d
	}

	return &authConfig{secret: []byte(secret), ttl: ttl}, nil
}

func (cfg *authConfig) JWTSecret() []byte {
	return cfg.secret
}

// TokenTTL - lifetime of tokens issued by the bot's /token command
func (cfg *authConfig) TokenTTL() time.Duration {
	return cfg.ttl
}
