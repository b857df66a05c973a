package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

type PGConfig interface {
	DSN() string
	Migrate() bool
}

type BotConfig interface {
	Token() string
	Debug() bool
}

type HTTPConfig interface {
	Address() string
	RateLimit() int
}

type GRPCConfig interface {
	Address() string
}

type AuthConfig interface {
	JWTSecret() []byte
	TokenTTL() time.Duration
}

type SchedulerConfig interface {
	Interval() time.Duration
	MaxCatchUp() int
}

type ParserConfig interface {
	CategoriesFile() string
}

type LogConfig interface {
	Level() string
}

// Load reads variables from the .env file at path into the process environment.
// A missing file is not an error: variables may come from the real environment.
func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
