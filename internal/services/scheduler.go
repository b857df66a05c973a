package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Lina3386/monk-finance/internal/models"
	"github.com/Lina3386/monk-finance/internal/recurrence"
)

// Sender is the part of tgbotapi.BotAPI the scheduler needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Scheduler struct {
	bot            Sender
	financeService *FinanceService
	interval       time.Duration
	log            zerolog.Logger
}

func NewScheduler(bot Sender, financeService *FinanceService, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		bot:            bot,
		financeService: financeService,
		interval:       interval,
		log:            log.With().Str("component", "scheduler").Logger(),
	}
}

// Start checks recurrences right away and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	s.checkRecurrences(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			s.checkRecurrences(ctx)
		}
	}
}

func (s *Scheduler) checkRecurrences(ctx context.Context) {
	userIDs, err := s.financeService.UsersWithActiveRecurrences(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list users with recurrences")
		return
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}

		report, err := s.financeService.CheckRecurrences(ctx, userID)
		if err != nil {
			s.log.Error().Err(err).Int64("user_id", userID).Msg("recurrence check failed")
			continue
		}
		if err := report.Err(); err != nil {
			s.log.Warn().
				Err(err).
				Int64("user_id", userID).
				Int("failed_rules", len(report.Errors)).
				Msg("some recurrences were not materialized, retrying next check")
		}
		if len(report.Generated) == 0 {
			continue
		}

		user, err := s.financeService.GetUser(ctx, userID)
		if err != nil {
			s.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load user for notification")
			continue
		}
		s.sendNotification(user.TelegramID, FormatGenerated(report))
	}
}

func (s *Scheduler) sendNotification(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		s.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send notification")
	}
}

// FormatGenerated lists the transactions produced by a materializer run.
func FormatGenerated(report recurrence.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔁 %d lançamento(s) recorrente(s) gerado(s):\n\n", len(report.Generated))
	for _, tx := range report.Generated {
		sign := "-"
		if tx.Type == models.TypeIncome {
			sign = "+"
		}
		fmt.Fprintf(&b, "• %s %s%s (%s)\n", tx.Description, sign, models.FormatBRL(tx.Amount), tx.Date.Format("02/01/2006"))
	}
	if len(report.Errors) > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d recorrência(s) não puderam ser processadas, tentaremos novamente.", len(report.Errors))
	}
	return b.String()
}
