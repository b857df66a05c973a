package app

import (
	"context"
	"flag"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Lina3386/monk-finance/internal/closer"
	"github.com/Lina3386/monk-finance/internal/config"
	"github.com/Lina3386/monk-finance/internal/handlers/bot_handler"
	"github.com/Lina3386/monk-finance/internal/logger"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config-path", ".env", "path to config file")
}

type App struct {
	serviceProvider *ServiceProvider
	bot             *tgbotapi.BotAPI
	log             zerolog.Logger
}

func NewApp(ctx context.Context) (*App, error) {
	a := &App{}

	err := a.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Run serves the bot, the HTTP API, the gRPC health service and the
// recurrence scheduler until ctx is cancelled or one of the servers fails.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := closer.CloseAll(); err != nil {
			a.log.Error().Err(err).Msg("failed to close resources")
		}
		closer.Wait()
	}()

	ctx, cancel := context.WithCancel(logger.WithContext(ctx, a.log))
	defer cancel()

	errCh := make(chan error, 2)
	wg := sync.WaitGroup{}
	wg.Add(4)

	go func() {
		defer wg.Done()
		a.serviceProvider.Scheduler(ctx).Start(ctx)
	}()

	go func() {
		defer wg.Done()
		a.serviceProvider.HealthServer(ctx).Watch(ctx)
	}()

	go func() {
		defer wg.Done()
		if err := a.runHealthServer(ctx); err != nil {
			errCh <- err
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.runAPIServer(ctx); err != nil {
			errCh <- err
		}
	}()

	botDone := a.runTelegramBot(ctx)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.log.Error().Err(runErr).Msg("server stopped")
	case <-botDone:
	}

	a.log.Info().Msg("shutting down")
	cancel()
	if err := closer.CloseAll(); err != nil {
		a.log.Error().Err(err).Msg("failed to close resources")
	}
	wg.Wait()

	return runErr
}

func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initServiceProvider,
		a.initTelegramBot,
		a.initServers,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *App) initConfig(context.Context) error {
	flag.Parse()

	err := config.Load(configPath)
	if err != nil {
		return err
	}
	return nil
}

func (a *App) initServiceProvider(context.Context) error {
	a.serviceProvider = NewServiceProvider()
	a.log = a.serviceProvider.Logger()
	return nil
}

func (a *App) initTelegramBot(ctx context.Context) error {
	bot, err := a.serviceProvider.TelegramBot(ctx)
	if err != nil {
		return err
	}
	a.bot = bot
	return nil
}

// initServers builds every component up front so the run goroutines only read them.
func (a *App) initServers(ctx context.Context) error {
	a.serviceProvider.Scheduler(ctx)
	a.serviceProvider.BotHandler(ctx)
	a.serviceProvider.APIServer(ctx)
	a.serviceProvider.HealthServer(ctx)
	a.serviceProvider.HTTPConfig()
	a.serviceProvider.GRPCConfig()
	return nil
}

func (a *App) runAPIServer(ctx context.Context) error {
	server := a.serviceProvider.APIServer(ctx)
	return server.Listen(a.serviceProvider.HTTPConfig().Address())
}

func (a *App) runHealthServer(ctx context.Context) error {
	server := a.serviceProvider.HealthServer(ctx)
	err := server.ListenAndServe(a.serviceProvider.GRPCConfig().Address())
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// runTelegramBot dispatches updates until ctx is done or the update channel closes.
// The returned channel is closed when the loop exits.
func (a *App) runTelegramBot(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)
	botHandler := a.serviceProvider.BotHandler(ctx)
	a.log.Info().Msg("bot is running")

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					a.log.Warn().Msg("update channel closed")
					return
				}
				handleUpdate(ctx, botHandler, update)
			}
		}
	}()

	return done
}

// handleUpdate keeps one failing update from stopping the loop.
func handleUpdate(ctx context.Context, h *bot_handler.BotHandler, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.FromContext(ctx)
			log.Error().Interface("panic", r).Int("update_id", update.UpdateID).Msg("update handler panicked")
		}
	}()
	h.HandleUpdate(ctx, update)
}
