package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Lina3386/monk-finance/internal/services"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether the storage behind the API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	app            *fiber.App
	financeService *services.FinanceService
	pinger         Pinger
	log            zerolog.Logger
	now            func() time.Time
}

func NewServer(
	financeService *services.FinanceService,
	pinger Pinger,
	secret []byte,
	rateLimitPerMinute int,
	log zerolog.Logger,
) *Server {
	log = log.With().Str("component", "api").Logger()

	s := &Server{
		financeService: financeService,
		pinger:         pinger,
		log:            log,
		now:            time.Now,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "monk-finance",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	s.app.Use(requestLogger(log))

	s.app.Get("/health", s.health)

	api := s.app.Group("/api", jwtAuth(secret, financeService.GetUser), rateLimit(rateLimitPerMinute))
	api.Post("/parse", s.parse)

	api.Post("/transactions", s.createTransaction)
	api.Get("/transactions", s.listTransactions)
	api.Get("/transactions/:id", s.getTransaction)
	api.Delete("/transactions/:id", s.deleteTransaction)
	api.Get("/summary", s.summary)

	api.Post("/recurrences", s.createRecurrence)
	api.Get("/recurrences", s.listRecurrences)
	api.Post("/recurrences/check", s.checkRecurrences)
	api.Get("/recurrences/:id", s.getRecurrence)
	api.Delete("/recurrences/:id", s.deactivateRecurrence)

	api.Get("/insights/subscriptions", s.subscriptions)
	api.Get("/insights/average", s.categoryAverage)

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(address string) error {
	s.log.Info().Str("address", address).Msg("http api listening")
	return s.app.Listen(address)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) health(c *fiber.Ctx) error {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.log.Warn().Err(err).Msg("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}
