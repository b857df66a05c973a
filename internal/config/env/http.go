package env

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/Lina3386/monk-finance/internal/config"
)

const (
	httpHostEnvName      = "HTTP_HOST"
	httpPortEnvName      = "HTTP_PORT"
	httpRateLimitEnvName = "HTTP_RATE_LIMIT"
)

type httpConfig struct {
	host      string
	port      string
	rateLimit int
}

func NewHTTPConfig() (config.HTTPConfig, error) {
	host := os.Getenv(httpHostEnvName)

	port := os.Getenv(httpPortEnvName)
	if port == "" {
		port = "8080"
	}

	rateLimit := 60
	if raw := os.Getenv(httpRateLimitEnvName); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", httpRateLimitEnvName, raw)
		}
		rateLimit = n
	}

	return &httpConfig{
		host:      host,
		port:      port,
		rateLimit: rateLimit,
	}, nil
}

func (cfg *httpConfig) Address() string {
	return net.JoinHostPort(cfg.host, cfg.port)
}

// RateLimit - max requests per client per minute
func (cfg *httpConfig) RateLimit() int {
	return cfg.rateLimit
}
