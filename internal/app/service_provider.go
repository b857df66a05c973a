package app

import (
	"context"
	"database/sql"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Lina3386/monk-finance/internal/api"
	"github.com/Lina3386/monk-finance/internal/client/db"
	"github.com/Lina3386/monk-finance/internal/client/db/migrations"
	"github.com/Lina3386/monk-finance/internal/client/db/pg"
	"github.com/Lina3386/monk-finance/internal/closer"
	"github.com/Lina3386/monk-finance/internal/config"
	"github.com/Lina3386/monk-finance/internal/config/env"
	"github.com/Lina3386/monk-finance/internal/handlers/bot_handler"
	"github.com/Lina3386/monk-finance/internal/health"
	"github.com/Lina3386/monk-finance/internal/insights"
	"github.com/Lina3386/monk-finance/internal/logger"
	"github.com/Lina3386/monk-finance/internal/parser"
	"github.com/Lina3386/monk-finance/internal/recurrence"
	"github.com/Lina3386/monk-finance/internal/repository"
	"github.com/Lina3386/monk-finance/internal/services"
	"github.com/Lina3386/monk-finance/internal/state"
)

type ServiceProvider struct {
	pgConfig        config.PGConfig
	botConfig       config.BotConfig
	httpConfig      config.HTTPConfig
	grpcConfig      config.GRPCConfig
	authConfig      config.AuthConfig
	schedulerConfig config.SchedulerConfig
	parserConfig    config.ParserConfig
	logConfig       config.LogConfig

	log      *zerolog.Logger
	dbClient db.Client

	// Repositories
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
	recurrenceRepo  *repository.RecurrenceRepository

	// Core
	parser       *parser.Parser
	materializer *recurrence.Materializer
	analyzer     *insights.Analyzer

	// Services
	financeService *services.FinanceService
	scheduler      *services.Scheduler

	// Handlers
	botHandler *bot_handler.BotHandler
	apiServer  *api.Server
	healthSrv  *health.Server

	// State
	stateManager *state.StateManager

	// Bot
	bot *tgbotapi.BotAPI
}

func NewServiceProvider() *ServiceProvider {
	return &ServiceProvider{}
}

func (s *ServiceProvider) LogConfig() config.LogConfig {
	if s.logConfig == nil {
		logConfig, err := env.NewLogConfig()
		if err != nil {
			panic(err)
		}
		s.logConfig = logConfig
	}
	return s.logConfig
}

func (s *ServiceProvider) Logger() zerolog.Logger {
	if s.log == nil {
		log := logger.New(s.LogConfig().Level())
		s.log = &log
	}
	return *s.log
}

func (s *ServiceProvider) PGConfig() config.PGConfig {
	if s.pgConfig == nil {
		pgConfig, err := env.NewPGConfig()
		if err != nil {
			s.fatal(err, "failed to get pg config")
		}
		s.pgConfig = pgConfig
	}
	return s.pgConfig
}

func (s *ServiceProvider) BotConfig() config.BotConfig {
	if s.botConfig == nil {
		botConfig, err := env.NewBotConfig()
		if err != nil {
			s.fatal(err, "failed to get bot config")
		}
		s.botConfig = botConfig
	}
	return s.botConfig
}

func (s *ServiceProvider) HTTPConfig() config.HTTPConfig {
	if s.httpConfig == nil {
		httpConfig, err := env.NewHTTPConfig()
		if err != nil {
			s.fatal(err, "failed to get http config")
		}
		s.httpConfig = httpConfig
	}
	return s.httpConfig
}

func (s *ServiceProvider) GRPCConfig() config.GRPCConfig {
	if s.grpcConfig == nil {
		grpcConfig, err := env.NewGRPCConfig()
		if err != nil {
			s.fatal(err, "failed to get grpc config")
		}
		s.grpcConfig = grpcConfig
	}
	return s.grpcConfig
}

func (s *ServiceProvider) AuthConfig() config.AuthConfig {
	if s.authConfig == nil {
		authConfig, err := env.NewAuthConfig()
		if err != nil {
			s.fatal(err, "failed to get auth config")
		}
		s.authConfig = authConfig
	}
	return s.authConfig
}

func (s *ServiceProvider) SchedulerConfig() config.SchedulerConfig {
	if s.schedulerConfig == nil {
		schedulerConfig, err := env.NewSchedulerConfig()
		if err != nil {
			s.fatal(err, "failed to get scheduler config")
		}
		s.schedulerConfig = schedulerConfig
	}
	return s.schedulerConfig
}

func (s *ServiceProvider) ParserConfig() config.ParserConfig {
	if s.parserConfig == nil {
		parserConfig, err := env.NewParserConfig()
		if err != nil {
			s.fatal(err, "failed to get parser config")
		}
		s.parserConfig = parserConfig
	}
	return s.parserConfig
}

func (s *ServiceProvider) DBClient(ctx context.Context) db.Client {
	if s.dbClient == nil {
		cl, err := pg.New(ctx, s.PGConfig().DSN())
		if err != nil {
			s.fatal(err, "failed to get db client")
		}

		if s.PGConfig().Migrate() {
			if err := migrations.Up(ctx, cl.DB(), s.Logger()); err != nil {
				s.fatal(err, "failed to apply migrations")
			}
		}

		log := s.Logger()
		if version, err := migrations.Version(ctx, cl.DB()); err != nil {
			log.Warn().Err(err).Msg("failed to read schema version")
		} else {
			log.Info().Int64("schema_version", version).Msg("database connected")
		}

		closer.Add(cl.Close)
		s.dbClient = cl
	}
	return s.dbClient
}

func (s *ServiceProvider) SQLDB(ctx context.Context) *sql.DB {
	return s.DBClient(ctx).DB()
}

func (s *ServiceProvider) UserRepository(ctx context.Context) *repository.UserRepository {
	if s.userRepo == nil {
		s.userRepo = repository.NewUserRepository(s.SQLDB(ctx))
	}
	return s.userRepo
}

func (s *ServiceProvider) TransactionRepository(ctx context.Context) *repository.TransactionRepository {
	if s.transactionRepo == nil {
		s.transactionRepo = repository.NewTransactionRepository(s.SQLDB(ctx))
	}
	return s.transactionRepo
}

func (s *ServiceProvider) RecurrenceRepository(ctx context.Context) *repository.RecurrenceRepository {
	if s.recurrenceRepo == nil {
		s.recurrenceRepo = repository.NewRecurrenceRepository(s.SQLDB(ctx))
	}
	return s.recurrenceRepo
}

// Parser uses the YAML category table from PARSER_CATEGORIES_FILE when set.
func (s *ServiceProvider) Parser() *parser.Parser {
	if s.parser == nil {
		var table parser.Table
		if path := s.ParserConfig().CategoriesFile(); path != "" {
			loaded, err := parser.LoadTable(path)
			if err != nil {
				s.fatal(err, "failed to load category table")
			}
			table = loaded
			log := s.Logger()
			log.Info().Str("path", path).Int("rules", len(table)).Msg("category table loaded")
		}
		s.parser = parser.New(table)
	}
	return s.parser
}

func (s *ServiceProvider) Materializer(ctx context.Context) *recurrence.Materializer {
	if s.materializer == nil {
		s.materializer = recurrence.NewMaterializer(
			s.RecurrenceRepository(ctx),
			s.TransactionRepository(ctx),
			s.SchedulerConfig().MaxCatchUp(),
			s.Logger(),
		)
	}
	return s.materializer
}

func (s *ServiceProvider) Analyzer(ctx context.Context) *insights.Analyzer {
	if s.analyzer == nil {
		s.analyzer = insights.NewAnalyzer(s.TransactionRepository(ctx))
	}
	return s.analyzer
}

func (s *ServiceProvider) FinanceService(ctx context.Context) *services.FinanceService {
	if s.financeService == nil {
		s.financeService = services.NewFinanceService(
			s.UserRepository(ctx),
			s.TransactionRepository(ctx),
			s.RecurrenceRepository(ctx),
			s.Parser(),
			s.Materializer(ctx),
			s.Analyzer(ctx),
			s.Logger(),
		)
	}
	return s.financeService
}

func (s *ServiceProvider) StateManager() *state.StateManager {
	if s.stateManager == nil {
		s.stateManager = state.NewStateManager()
	}
	return s.stateManager
}

func (s *ServiceProvider) TelegramBot(ctx context.Context) (*tgbotapi.BotAPI, error) {
	if s.bot == nil {
		bot, err := tgbotapi.NewBotAPI(s.BotConfig().Token())
		if err != nil {
			return nil, err
		}
		bot.Debug = s.BotConfig().Debug()
		log := s.Logger()
		log.Info().Str("username", bot.Self.UserName).Msg("bot authorized")

		closer.Add(func() error {
			bot.StopReceivingUpdates()
			return nil
		})
		s.bot = bot
	}
	return s.bot, nil
}

func (s *ServiceProvider) Scheduler(ctx context.Context) *services.Scheduler {
	if s.scheduler == nil {
		bot, err := s.TelegramBot(ctx)
		if err != nil {
			s.fatal(err, "failed to create bot")
		}
		s.scheduler = services.NewScheduler(
			bot,
			s.FinanceService(ctx),
			s.SchedulerConfig().Interval(),
			s.Logger(),
		)
	}
	return s.scheduler
}

func (s *ServiceProvider) BotHandler(ctx context.Context) *bot_handler.BotHandler {
	if s.botHandler == nil {
		bot, err := s.TelegramBot(ctx)
		if err != nil {
			s.fatal(err, "failed to create bot")
		}
		s.botHandler = bot_handler.NewBotHandler(
			bot,
			s.FinanceService(ctx),
			s.StateManager(),
			api.NewTokenIssuer(s.AuthConfig().JWTSecret(), s.AuthConfig().TokenTTL()),
			s.Logger(),
		)
	}
	return s.botHandler
}

func (s *ServiceProvider) APIServer(ctx context.Context) *api.Server {
	if s.apiServer == nil {
		s.apiServer = api.NewServer(
			s.FinanceService(ctx),
			s.DBClient(ctx),
			s.AuthConfig().JWTSecret(),
			s.HTTPConfig().RateLimit(),
			s.Logger(),
		)
		closer.Add(s.apiServer.Shutdown)
	}
	return s.apiServer
}

func (s *ServiceProvider) HealthServer(ctx context.Context) *health.Server {
	if s.healthSrv == nil {
		s.healthSrv = health.NewServer(s.DBClient(ctx), 0, s.Logger())
		closer.Add(s.healthSrv.Stop)
	}
	return s.healthSrv
}

func (s *ServiceProvider) fatal(err error, msg string) {
	log := s.Logger()
	log.Fatal().Err(err).Msg(msg)
}
