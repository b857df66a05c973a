package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Lina3386/monk-finance/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init app")
	}

	if err := a.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
