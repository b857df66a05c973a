// Package insights derives spending signals from transaction history.
package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Lina3386/monk-finance/internal/models"
)

const (
	SubscriptionCategory = "Streaming"
	subscriptionMonths   = 6
	minSubscriptionHits  = 2
)

var priceChangeThreshold = decimal.RequireFromString("0.50")

type TransactionStore interface {
	// ListByCategorySince returns the user's transactions of the given type and
	// category dated on or after since, newest first.
	ListByCategorySince(
		ctx context.Context,
		userID int64,
		typ models.TransactionType,
		category string,
		since time.Time,
	) ([]models.Transaction, error)
}

type Analyzer struct {
	store    TransactionStore
	category string
}

func NewAnalyzer(store TransactionStore) *Analyzer {
	return &Analyzer{
		store:    store,
		category: SubscriptionCategory,
	}
}

// DetectSubscriptions groups the last six months of subscription-category
// expenses by description. A description seen at least twice is a subscription.
func (a *Analyzer) DetectSubscriptions(ctx context.Context, userID int64, now time.Time) ([]models.Subscription, error) {
	since := now.AddDate(0, -subscriptionMonths, 0)
	txs, err := a.store.ListByCategorySince(ctx, userID, models.TypeExpense, a.category, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription candidates: %w", err)
	}

	var (
		order   []string
		grouped = map[string][]models.Transaction{}
	)
	for _, tx := range txs {
		key := strings.ToLower(strings.TrimSpace(tx.Description))
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], tx)
	}

	subs := make([]models.Subscription, 0, len(order))
	for _, key := range order {
		group := grouped[key]
		if len(group) < minSubscriptionHits {
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Date.After(group[j].Date)
		})
		latest, previous := group[0], group[1]

		sub := models.Subscription{
			TransactionID: latest.ID,
			Name:          latest.Description,
			Amount:        latest.Amount,
			Category:      latest.Category,
			DetectedAt:    latest.Date,
		}
		if sub.Category == "" {
			sub.Category = a.category
		}
		if latest.Amount.Sub(previous.Amount).Abs().GreaterThan(priceChangeThreshold) {
			last := previous.Amount
			sub.LastAmount = &last
		}
		subs = append(subs, sub)
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Amount.GreaterThan(subs[j].Amount)
	})
	return subs, nil
}

// CategoryAverage is the mean expense amount in category over the last months.
func (a *Analyzer) CategoryAverage(ctx context.Context, userID int64, category string, months int, now time.Time) (decimal.Decimal, error) {
	if months <= 0 {
		months = 3
	}
	txs, err := a.store.ListByCategorySince(ctx, userID, models.TypeExpense, category, now.AddDate(0, -months, 0))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load category expenses: %w", err)
	}
	if len(txs) == 0 {
		return decimal.Zero, nil
	}

	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total.Div(decimal.NewFromInt(int64(len(txs)))), nil
}

// PreviousInCategory returns the latest expense in the same category as tx,
// excluding tx itself. nil when there is none.
func (a *Analyzer) PreviousInCategory(ctx context.Context, tx models.Transaction) (*models.Transaction, error) {
	if tx.Category == "" {
		return nil, nil
	}
	txs, err := a.store.ListByCategorySince(ctx, tx.UserID, models.TypeExpense, tx.Category, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to load category expenses: %w", err)
	}
	for i := range txs {
		if txs[i].ID != tx.ID {
			return &txs[i], nil
		}
	}
	return nil, nil
}

// IsPriceAlert reports an amount at least double the previous one.
func IsPriceAlert(amount, previous decimal.Decimal) bool {
	if previous.IsZero() {
		return false
	}
	return amount.GreaterThanOrEqual(previous.Mul(decimal.NewFromInt(2)))
}
