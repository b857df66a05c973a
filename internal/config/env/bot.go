package env

import (
	"errors"
	"os"

	"github.com/Lina3386/monk-finance/internal/config"
)

const (
	botTokenEnvName = "TELEGRAM_BOT_TOKEN"
	botDebugEnvName = "TELEGRAM_DEBUG"
)

type botConfig struct {
	token string
	debug bool
}

func NewBotConfig() (config.BotConfig, error) {
	token := os.Getenv(botTokenEnvName)
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN not found")
	}

	return &botConfig{
		token: token,
		debug: parseBool(os.Getenv(botDebugEnvName), false),
	}, nil
}

func (cfg *botConfig) Token() string {
	return cfg.token
}

func (cfg *botConfig) Debug() bool {
	return cfg.debug
}
