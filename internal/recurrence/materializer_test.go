package recurrence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Lina3386/monk-finance/internal/models"
)

// memStore keeps rules and generated transactions in memory and enforces the
// (recurrence id, period) uniqueness the Postgres schema enforces.
type memStore struct {
	mu        sync.Mutex
	rules     []models.RecurrenceRule
	txs       []models.Transaction
	keys      map[string]bool
	rulesErr  error
	failRules map[uuid.UUID]bool
	noResume  bool
}

func newMemStore(rules ...models.RecurrenceRule) *memStore {
	return &memStore{
		rules:     rules,
		keys:      map[string]bool{},
		failRules: map[uuid.UUID]bool{},
	}
}

func (s *memStore) ActiveRules(ctx context.Context, userID int64) ([]models.RecurrenceRule, error) {
	if s.rulesErr != nil {
		return nil, s.rulesErr
	}
	var out []models.RecurrenceRule
	for _, r := range s.rules {
		if r.UserID == userID && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) LastOccurrence(ctx context.Context, ruleID uuid.UUID) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.noResume {
		return time.Time{}, false, nil
	}
	var last time.Time
	found := false
	for _, tx := range s.txs {
		if tx.RecurrenceID != nil && *tx.RecurrenceID == ruleID && tx.Date.After(last) {
			last, found = tx.Date, true
		}
	}
	return last, found, nil
}

func (s *memStore) InsertOccurrence(ctx context.Context, tx *models.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failRules[*tx.RecurrenceID] {
		return false, errors.New("connection reset")
	}
	key := tx.RecurrenceID.String() + "/" + tx.OccurrencePeriod
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	s.txs = append(s.txs, *tx)
	return true, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

func monthlyRule(userID int64, name string, dueDay int, start time.Time) models.RecurrenceRule {
	return models.RecurrenceRule{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Amount:    decimal.RequireFromString("1500.00"),
		Type:      models.TypeExpense,
		Category:  "Moradia",
		Frequency: models.FrequencyMonthly,
		DueDay:    dueDay,
		StartDate: start,
		Active:    true,
	}
}

func TestMaterializer_Run_GeneratesMonthly(t *testing.T) {
	rule := monthlyRule(1, "Aluguel", 5, date(2026, 1, 10))
	store := newMemStore(rule)
	m := NewMaterializer(store, store, DefaultMaxCatchUp, zerolog.Nop())

	report, err := m.Run(context.Background(), 1, date(2026, 4, 10))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Generated) != 3 || report.Skipped != 0 || len(report.Errors) != 0 {
		t.Fatalf("unexpected report: generated=%d skipped=%d errors=%v", len(report.Generated), report.Skipped, report.Errors)
	}

	tx := report.Generated[0]
	if tx.Description != "Aluguel" || tx.Category != "Moradia" || tx.Type != models.TypeExpense {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	if !tx.Amount.Equal(rule.Amount) {
		t.Errorf("amount = %s, want %s", tx.Amount, rule.Amount)
	}
	if tx.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", tx.Status)
	}
	if tx.RecurrenceID == nil || *tx.RecurrenceID != rule.ID {
		t.Errorf("recurrence id not linked")
	}
	if tx.OccurrencePeriod != "2026-02" || !tx.Date.Equal(date(2026, 2, 5)) {
		t.Errorf("first occurrence = %s (%s), want 2026-02-05", tx.Date, tx.OccurrencePeriod)
	}
}

func TestMaterializer_Run_Idempotent(t *testing.T) {
	for _, noResume := range []bool{false, true} {
		store := newMemStore(monthlyRule(1, "Aluguel", 5, date(2026, 1, 3)))
		store.noResume = noResume
		m := NewMaterializer(store, store, 0, zerolog.Nop())
		now := date(2026, 4, 6)

		first, err := m.Run(context.Background(), 1, now)
		if err != nil {
			t.Fatal(err)
		}
		second, err := m.Run(context.Background(), 1, now)
		if err != nil {
			t.Fatal(err)
		}

		if len(first.Generated) != 4 {
			t.Errorf("noResume=%v: first run generated %d, want 4", noResume, len(first.Generated))
		}
		if len(second.Generated) != 0 {
			t.Errorf("noResume=%v: second run generated %d, want 0", noResume, len(second.Generated))
		}
		if noResume && second.Skipped != 4 {
			t.Errorf("second run skipped %d, want 4", second.Skipped)
		}
		if store.count() != 4 {
			t.Errorf("noResume=%v: store has %d transactions, want 4", noResume, store.count())
		}
	}
}

func TestMaterializer_Run_InactiveRule(t *testing.T) {
	rule := monthlyRule(1, "Academia", 1, date(2020, 1, 1))
	rule.Active = false
	store := newMemStore(rule)
	m := NewMaterializer(store, store, 0, zerolog.Nop())

	// the rule store is bypassed to make sure the materializer checks the flag itself
	m.rules = ruleStoreFunc(func(context.Context, int64) ([]models.RecurrenceRule, error) {
		return []models.RecurrenceRule{rule}, nil
	})

	report, err := m.Run(context.Background(), 1, date(2026, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Generated) != 0 || store.count() != 0 {
		t.Errorf("inactive rule generated %d transactions", store.count())
	}
}

type ruleStoreFunc func(context.Context, int64) ([]models.RecurrenceRule, error)

func (f ruleStoreFunc) ActiveRules(ctx context.Context, userID int64) ([]models.RecurrenceRule, error) {
	return f(ctx, userID)
}

func TestMaterializer_Run_IsolatesRuleFailures(t *testing.T) {
	broken := monthlyRule(1, "Internet", 10, date(2026, 1, 1))
	healthy := monthlyRule(1, "Aluguel", 5, date(2026, 1, 1))
	store := newMemStore(broken, healthy)
	store.failRules[broken.ID] = true
	m := NewMaterializer(store, store, 0, zerolog.Nop())

	report, err := m.Run(context.Background(), 1, date(2026, 3, 15))
	if err != nil {
		t.Fatalf("per-rule failures must not fail the run: %v", err)
	}

	if len(report.Generated) != 3 {
		t.Errorf("healthy rule generated %d, want 3", len(report.Generated))
	}
	if len(report.Errors) != 1 || report.Errors[0].RuleID != broken.ID {
		t.Fatalf("expected one error for the broken rule, got %v", report.Errors)
	}
	if report.Err() == nil {
		t.Error("Report.Err should not be nil")
	}
	for _, tx := range report.Generated {
		if *tx.RecurrenceID != healthy.ID {
			t.Errorf("unexpected transaction from rule %s", tx.RecurrenceID)
		}
	}

	// next run picks the failed rule up once the store recovers
	store.failRules = map[uuid.UUID]bool{}
	report, err = m.Run(context.Background(), 1, date(2026, 3, 15))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Generated) != 3 || report.Err() != nil {
		t.Errorf("retry generated %d (errors %v), want 3", len(report.Generated), report.Errors)
	}
}

func TestMaterializer_Run_RulesFetchError(t *testing.T) {
	store := newMemStore()
	store.rulesErr = errors.New("db down")
	m := NewMaterializer(store, store, 0, zerolog.Nop())

	_, err := m.Run(context.Background(), 1, date(2026, 1, 1))
	if !errors.Is(err, store.rulesErr) {
		t.Errorf("expected wrapped rules error, got %v", err)
	}
}

func TestMaterializer_Run_CatchUpLimit(t *testing.T) {
	rule := monthlyRule(1, "Seguro", 1, date(2025, 8, 1))
	store := newMemStore(rule)
	m := NewMaterializer(store, store, 2, zerolog.Nop())
	now := date(2025, 12, 15) // Aug..Dec = 5 occurrences

	var counts []int
	for i := 0; i < 4; i++ {
		report, err := m.Run(context.Background(), 1, now)
		if err != nil {
			t.Fatal(err)
		}
		counts = append(counts, len(report.Generated))
	}

	want := []int{2, 2, 1, 0}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("generated per run = %v, want %v", counts, want)
		}
	}
}

func TestMaterializer_Run_OnlyOwnRules(t *testing.T) {
	store := newMemStore(
		monthlyRule(1, "Aluguel", 5, date(2026, 1, 1)),
		monthlyRule(2, "Aluguel", 5, date(2026, 1, 1)),
	)
	m := NewMaterializer(store, store, 0, zerolog.Nop())

	report, err := m.Run(context.Background(), 2, date(2026, 1, 31))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Generated) != 1 || report.Generated[0].UserID != 2 {
		t.Errorf("unexpected generation: %+v", report.Generated)
	}
}

func TestMaterializer_Run_Concurrent(t *testing.T) {
	rules := []models.RecurrenceRule{
		monthlyRule(1, "Aluguel", 5, date(2025, 1, 1)),
		monthlyRule(1, "Internet", 20, date(2025, 6, 1)),
	}
	store := newMemStore(rules...)
	store.noResume = true
	m := NewMaterializer(store, store, 0, zerolog.Nop())
	now := date(2026, 1, 25)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Run(context.Background(), 1, now); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	// 13 (Jan 2025..Jan 2026) + 8 (Jun 2025..Jan 2026)
	if got := store.count(); got != 21 {
		t.Errorf("store has %d transactions, want 21", got)
	}
}

func TestMaterializer_Run_CancelledContext(t *testing.T) {
	store := newMemStore(monthlyRule(1, "Aluguel", 5, date(2026, 1, 1)))
	m := NewMaterializer(store, store, 0, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Run(ctx, 1, date(2026, 6, 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if store.count() != 0 {
		t.Errorf("nothing should be generated after cancel, got %d", store.count())
	}
}

func TestMaterializer_Run_DefaultCategory(t *testing.T) {
	rule := monthlyRule(1, "Mesada", 1, date(2026, 1, 1))
	rule.Category = ""
	rule.Type = models.TypeIncome
	store := newMemStore(rule)
	m := NewMaterializer(store, store, 0, zerolog.Nop())

	report, err := m.Run(context.Background(), 1, date(2026, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Generated) != 1 {
		t.Fatalf("generated %d, want 1", len(report.Generated))
	}
	if tx := report.Generated[0]; tx.Category != models.DefaultCategory || tx.Type != models.TypeIncome {
		t.Errorf("got %q/%s", tx.Category, tx.Type)
	}
}
