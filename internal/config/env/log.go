package env

import (
	"os"
	"strconv"

	"github.com/Lina3386/monk-finance/internal/config"
)

const logLevelEnvName = "LOG_LEVEL"

type logConfig struct {
	level string
}

func NewLogConfig() (config.LogConfig, error) {
	level := os.Getenv(logLevelEnvName)
	if level == "" {
		level = "info"
	}
	return &logConfig{level: level}, nil
}

func (cfg *logConfig) Level() string {
	return cfg.level
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
