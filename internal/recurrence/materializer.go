// Package recurrence materializes recurrence rules into transactions.
//
// Every generated transaction carries the rule id and the period key of its
// occurrence. The store inserts it only if no transaction exists for that
// (rule, period) pair, so repeated or concurrent runs never duplicate.
package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Lina3386/monk-finance/internal/models"
)

// DefaultMaxCatchUp bounds how many missed occurrences of one rule are
// generated per run. The rest follow on the next runs.
const DefaultMaxCatchUp = 12

type RuleStore interface {
	ActiveRules(ctx context.Context, userID int64) ([]models.RecurrenceRule, error)
}

type OccurrenceStore interface {
	// LastOccurrence returns the date of the latest transaction generated from the rule.
	LastOccurrence(ctx context.Context, ruleID uuid.UUID) (time.Time, bool, error)
	// InsertOccurrence inserts tx unless a transaction with the same
	// recurrence id and occurrence period exists. It reports whether a row was written.
	InsertOccurrence(ctx context.Context, tx *models.Transaction) (bool, error)
}

type RuleError struct {
	RuleID uuid.UUID
	Name   string
	Err    error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s (%s): %v", e.RuleID, e.Name, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

type Report struct {
	Generated []models.Transaction
	// Skipped counts occurrences that already had a transaction.
	Skipped int
	Errors  []*RuleError
}

// Err joins all per-rule errors, nil if every rule succeeded.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return errors.Join(errs...)
}

type Materializer struct {
	rules       RuleStore
	occurrences OccurrenceStore
	maxCatchUp  int
	log         zerolog.Logger
}

// NewMaterializer - maxCatchUp <= 0 disables the per-run cap.
func NewMaterializer(rules RuleStore, occurrences OccurrenceStore, maxCatchUp int, log zerolog.Logger) *Materializer {
	return &Materializer{
		rules:       rules,
		occurrences: occurrences,
		maxCatchUp:  maxCatchUp,
		log:         log.With().Str("component", "recurrence").Logger(),
	}
}

// Run generates every due, not yet generated occurrence of the user's active
// rules. Failing to load the rules aborts the run; a failure inside one rule
// is recorded in the report and the remaining rules are still processed.
func (m *Materializer) Run(ctx context.Context, userID int64, now time.Time) (Report, error) {
	var report Report

	rules, err := m.rules.ActiveRules(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("failed to fetch active rules: %w", err)
	}

	m.log.Debug().Int64("user_id", userID).Int("rules", len(rules)).Msg("checking recurrences")

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !rule.Active {
			continue
		}

		generated, skipped, err := m.materializeRule(ctx, rule, now)
		report.Generated = append(report.Generated, generated...)
		report.Skipped += skipped
		if err != nil {
			m.log.Error().
				Err(err).
				Int64("user_id", userID).
				Str("rule_id", rule.ID.String()).
				Msg("failed to materialize rule")
			report.Errors = append(report.Errors, &RuleError{RuleID: rule.ID, Name: rule.Name, Err: err})
		}
	}

	if len(report.Generated) > 0 {
		m.log.Info().
			Int64("user_id", userID).
			Int("generated", len(report.Generated)).
			Int("skipped", report.Skipped).
			Msg("recurrences materialized")
	}

	return report, nil
}

// materializeRule stops at the first failing occurrence so that later
// occurrences are not generated past a gap.
func (m *Materializer) materializeRule(ctx context.Context, rule models.RecurrenceRule, now time.Time) ([]models.Transaction, int, error) {
	var after *time.Time
	last, ok, err := m.occurrences.LastOccurrence(ctx, rule.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get last occurrence: %w", err)
	}
	if ok {
		after = &last
	}

	dates := Occurrences(rule, after, now, m.maxCatchUp)
	if m.maxCatchUp > 0 && len(dates) == m.maxCatchUp {
		if more := Occurrences(rule, &dates[len(dates)-1], now, 1); len(more) > 0 {
			m.log.Warn().
				Str("rule_id", rule.ID.String()).
				Int("limit", m.maxCatchUp).
				Msg("catch-up limit reached, remaining occurrences deferred")
		}
	}

	var (
		generated []models.Transaction
		skipped   int
	)
	for _, date := range dates {
		tx := newOccurrence(rule, date)

		inserted, err := m.occurrences.InsertOccurrence(ctx, &tx)
		if err != nil {
			return generated, skipped, fmt.Errorf("failed to insert occurrence %s: %w", tx.OccurrencePeriod, err)
		}
		if !inserted {
			skipped++
			continue
		}

		m.log.Debug().
			Str("rule_id", rule.ID.String()).
			Str("period", tx.OccurrencePeriod).
			Msg("occurrence generated")
		generated = append(generated, tx)
	}

	return generated, skipped, nil
}

func newOccurrence(rule models.RecurrenceRule, date time.Time) models.Transaction {
	ruleID := rule.ID
	category := rule.Category
	if category == "" {
		category = models.DefaultCategory
	}

	return models.Transaction{
		ID:               uuid.New(),
		UserID:           rule.UserID,
		Amount:           rule.Amount,
		Description:      rule.Name,
		Type:             rule.Type,
		Category:         category,
		Tags:             []string{},
		Date:             date,
		Status:           models.StatusPending,
		RecurrenceID:     &ruleID,
		OccurrencePeriod: Period(rule, date),
	}
}
