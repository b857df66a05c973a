package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Lina3386/monk-finance/internal/insights"
	"github.com/Lina3386/monk-finance/internal/models"
	"github.com/Lina3386/monk-finance/internal/recurrence"
)

const DefaultListLimit = 10

// manualCategories can be picked for a draft although no parser rule detects them.
var manualCategories = []string{"Delivery", insights.SubscriptionCategory, "Investimentos", models.DefaultCategory}

type UserRepository interface {
	EnsureUser(ctx context.Context, telegramID int64, username string) (*models.User, error)
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
}

type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, userID int64, id uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error)
	Summary(ctx context.Context, userID int64, from, to time.Time) (*models.Summary, error)
	DeleteTransaction(ctx context.Context, userID int64, id uuid.UUID) error
}

type RecurrenceRepository interface {
	CreateRecurrence(ctx context.Context, rule *models.RecurrenceRule) error
	GetRecurrence(ctx context.Context, userID int64, id uuid.UUID) (*models.RecurrenceRule, error)
	ListRecurrences(ctx context.Context, userID int64) ([]models.RecurrenceRule, error)
	DeactivateRecurrence(ctx context.Context, userID int64, id uuid.UUID) error
	UsersWithActiveRules(ctx context.Context) ([]int64, error)
}

type DraftParser interface {
	Parse(input string) models.Draft
	Categories() []string
}

type RecurrenceRunner interface {
	Run(ctx context.Context, userID int64, now time.Time) (recurrence.Report, error)
}

type Insights interface {
	DetectSubscriptions(ctx context.Context, userID int64, now time.Time) ([]models.Subscription, error)
	PreviousInCategory(ctx context.Context, tx models.Transaction) (*models.Transaction, error)
	CategoryAverage(ctx context.Context, userID int64, category string, months int, now time.Time) (decimal.Decimal, error)
}

type FinanceService struct {
	userRepo        UserRepository
	transactionRepo TransactionRepository
	recurrenceRepo  RecurrenceRepository
	parser          DraftParser
	materializer    RecurrenceRunner
	insights        Insights
	log             zerolog.Logger
	now             func() time.Time
}

func NewFinanceService(
	userRepo UserRepository,
	transactionRepo TransactionRepository,
	recurrenceRepo RecurrenceRepository,
	parser DraftParser,
	materializer RecurrenceRunner,
	analyzer Insights,
	log zerolog.Logger,
) *FinanceService {
	return &FinanceService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		recurrenceRepo:  recurrenceRepo,
		parser:          parser,
		materializer:    materializer,
		insights:        analyzer,
		log:             log.With().Str("component", "finance").Logger(),
		now:             time.Now,
	}
}

// EnsureUser returns the user bound to a Telegram account, creating it on first contact.
func (s *FinanceService) EnsureUser(ctx context.Context, telegramID int64, username string) (*models.User, error) {
	user, err := s.userRepo.EnsureUser(ctx, telegramID, username)
	if err != nil {
		s.log.Error().Err(err).Int64("telegram_id", telegramID).Msg("failed to ensure user")
		return nil, err
	}
	return user, nil
}

func (s *FinanceService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *FinanceService) ParseDraft(input string) models.Draft {
	return s.parser.Parse(input)
}

// Categories lists the categories a draft can be moved to: the parser's
// categories followed by the manual ones, without duplicates.
func (s *FinanceService) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range append(s.parser.Categories(), manualCategories...) {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// IsCategory reports whether name is one of Categories.
func (s *FinanceService) IsCategory(name string) bool {
	for _, c := range s.Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// SaveDraft turns a confirmed draft into a completed transaction dated date.
func (s *FinanceService) SaveDraft(ctx context.Context, userID int64, draft models.Draft, date time.Time) (*models.Transaction, error) {
	amount, err := ParseAmount(draft.Amount)
	if err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:       userID,
		Amount:       amount,
		Description:  draft.Description,
		Type:         draft.Type,
		Category:     draft.Category,
		Tags:         draft.Tags,
		Date:         date,
		Status:       models.StatusCompleted,
		Installments: draft.Installments,
	}
	if err := s.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// CreateTransaction validates tx, fills defaults and stores it.
func (s *FinanceService) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if err := ValidateAmount(tx.Amount); err != nil {
		return err
	}
	if tx.Type == "" {
		tx.Type = models.TypeExpense
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}

	tx.Description = strings.TrimSpace(tx.Description)
	if tx.Description == "" {
		tx.Description = "Sem descrição"
	}
	if tx.Category == "" {
		tx.Category = models.DefaultCategory
	}
	if tx.Tags == nil {
		tx.Tags = []string{}
	}
	if tx.Status == "" {
		tx.Status = models.StatusCompleted
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	tx.Date = recurrence.DateOf(tx.Date)
	tx.Amount = tx.Amount.Round(2)

	if err := s.transactionRepo.CreateTransaction(ctx, tx); err != nil {
		s.log.Error().Err(err).Int64("user_id", tx.UserID).Msg("failed to create transaction")
		return err
	}

	s.log.Info().
		Int64("user_id", tx.UserID).
		Str("transaction_id", tx.ID.String()).
		Str("type", string(tx.Type)).
		Str("category", tx.Category).
		Msg("transaction created")
	return nil
}

func (s *FinanceService) GetTransaction(ctx context.Context, userID int64, id uuid.UUID) (*models.Transaction, error) {
	return s.transactionRepo.GetTransaction(ctx, userID, id)
}

func (s *FinanceService) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.transactionRepo.ListTransactions(ctx, userID, limit)
}

// Summary totals the transactions dated within [from, to].
func (s *FinanceService) Summary(ctx context.Context, userID int64, from, to time.Time) (*models.Summary, error) {
	return s.transactionRepo.Summary(ctx, userID, recurrence.DateOf(from), recurrence.DateOf(to))
}

// MonthSummary totals the calendar month containing now.
func (s *FinanceService) MonthSummary(ctx context.Context, userID int64) (*models.Summary, error) {
	today := recurrence.DateOf(s.now())
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	return s.Summary(ctx, userID, from, to)
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID int64, id uuid.UUID) error {
	if err := s.transactionRepo.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", userID).Str("transaction_id", id.String()).Msg("transaction deleted")
	return nil
}

// PriceAlert returns the previous expense of the same category when tx costs
// at least twice as much.
func (s *FinanceService) PriceAlert(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	if tx.Type != models.TypeExpense {
		return nil, nil
	}
	previous, err := s.insights.PreviousInCategory(ctx, tx)
	if err != nil || previous == nil {
		return nil, err
	}
	if !insights.IsPriceAlert(tx.Amount, previous.Amount) {
		return nil, nil
	}
	return previous, nil
}

func (s *FinanceService) Subscriptions(ctx context.Context, userID int64) ([]models.Subscription, error) {
	return s.insights.DetectSubscriptions(ctx, userID, s.now())
}

// CategoryAverage is the mean expense in category over the last months.
func (s *FinanceService) CategoryAverage(ctx context.Context, userID int64, category string, months int) (decimal.Decimal, error) {
	return s.insights.CategoryAverage(ctx, userID, category, months, s.now())
}

// CreateRecurrence stores a new active rule and materializes its due
// occurrences right away. A materialization failure does not undo the rule;
// it is reported and retried by the next check.
func (s *FinanceService) CreateRecurrence(ctx context.Context, rule *models.RecurrenceRule) (recurrence.Report, error) {
	if err := s.validateRecurrence(rule); err != nil {
		return recurrence.Report{}, err
	}
	rule.Active = true

	if err := s.recurrenceRepo.CreateRecurrence(ctx, rule); err != nil {
		s.log.Error().Err(err).Int64("user_id", rule.UserID).Msg("failed to create recurrence")
		return recurrence.Report{}, err
	}
	s.log.Info().
		Int64("user_id", rule.UserID).
		Str("rule_id", rule.ID.String()).
		Str("frequency", string(rule.Frequency)).
		Msg("recurrence created")

	report, err := s.CheckRecurrences(ctx, rule.UserID)
	if err != nil {
		s.log.Warn().Err(err).Str("rule_id", rule.ID.String()).Msg("recurrence created but not materialized")
	}
	return report, nil
}

func (s *FinanceService) validateRecurrence(rule *models.RecurrenceRule) error {
	rule.Name = strings.TrimSpace(rule.Name)
	if err := ValidateName(rule.Name); err != nil {
		return err
	}
	if err := ValidateAmount(rule.Amount); err != nil {
		return err
	}
	rule.Amount = rule.Amount.Round(2)

	if rule.Type == "" {
		rule.Type = models.TypeExpense
	}
	if !rule.Type.Valid() {
		return ErrInvalidType
	}
	if !rule.Frequency.Valid() {
		return ErrInvalidFrequency
	}

	// due day is optional except for monthly rules
	if rule.Frequency == models.FrequencyMonthly || rule.DueDay != 0 {
		if err := ValidateDayOfMonth(rule.DueDay); err != nil {
			return err
		}
	}

	if rule.Category == "" {
		rule.Category = models.DefaultCategory
	}
	if rule.StartDate.IsZero() {
		rule.StartDate = s.now()
	}
	rule.StartDate = recurrence.DateOf(rule.StartDate)
	if rule.EndDate != nil {
		end := recurrence.DateOf(*rule.EndDate)
		if end.Before(rule.StartDate) {
			return ErrInvalidEndDate
		}
		rule.EndDate = &end
	}
	return nil
}

func (s *FinanceService) GetRecurrence(ctx context.Context, userID int64, id uuid.UUID) (*models.RecurrenceRule, error) {
	return s.recurrenceRepo.GetRecurrence(ctx, userID, id)
}

func (s *FinanceService) ListRecurrences(ctx context.Context, userID int64) ([]models.RecurrenceRule, error) {
	return s.recurrenceRepo.ListRecurrences(ctx, userID)
}

func (s *FinanceService) DeactivateRecurrence(ctx context.Context, userID int64, id uuid.UUID) error {
	if err := s.recurrenceRepo.DeactivateRecurrence(ctx, userID, id); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", userID).Str("rule_id", id.String()).Msg("recurrence deactivated")
	return nil
}

// CheckRecurrences materializes every due occurrence of the user's active rules.
func (s *FinanceService) CheckRecurrences(ctx context.Context, userID int64) (recurrence.Report, error) {
	report, err := s.materializer.Run(ctx, userID, s.now())
	if err != nil {
		return report, fmt.Errorf("failed to check recurrences: %w", err)
	}
	return report, nil
}

func (s *FinanceService) UsersWithActiveRecurrences(ctx context.Context) ([]int64, error) {
	return s.recurrenceRepo.UsersWithActiveRules(ctx)
}
