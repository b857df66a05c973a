package env

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Lina3386/monk-finance/internal/config"
)

const (
	schedulerIntervalEnvName   = "RECURRENCE_CHECK_INTERVAL"
	schedulerMaxCatchUpEnvName = "RECURRENCE_MAX_CATCH_UP"
)

const (
	defaultSchedulerInterval = time.Hour
	defaultMaxCatchUp        = 12
)

type schedulerConfig struct {
	interval   time.Duration
	maxCatchUp int
}

func NewSchedulerConfig() (config.SchedulerConfig, error) {
	cfg := &schedulerConfig{
		interval:   defaultSchedulerInterval,
		maxCatchUp: defaultMaxCatchUp,
	}

	if raw := os.Getenv(schedulerIntervalEnvName); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration, got %q", schedulerIntervalEnvName, raw)
		}
		cfg.interval = d
	}

	if raw := os.Getenv(schedulerMaxCatchUpEnvName); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer, got %q", schedulerMaxCatchUpEnvName, raw)
		}
		cfg.maxCatchUp = n
	}

	return cfg, nil
}

func (cfg *schedulerConfig) Interval() time.Duration {
	return cfg.interval
}

// MaxCatchUp - 0 means no limit
func (cfg *schedulerConfig) MaxCatchUp() int {
	return cfg.maxCatchUp
}
