package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Lina3386/monk-finance/internal/models"
)

const transactionColumns = `id, user_id, amount, description, type, category, tags, date, status,
	installments, recurrence_id, occurrence_period, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Tags == nil {
		tx.Tags = []string{}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (id, user_id, amount, description, type, category, tags, date, status, installments)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		tx.ID, tx.UserID, tx.Amount, tx.Description, tx.Type, tx.Category,
		pq.Array(tx.Tags), tx.Date, tx.Status, tx.Installments,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// InsertOccurrence writes a generated transaction unless one already exists
// for the same rule and period. The unique index makes this atomic.
func (r *TransactionRepository) InsertOccurrence(ctx context.Context, tx *models.Transaction) (bool, error) {
	if tx.RecurrenceID == nil || tx.OccurrencePeriod == "" {
		return false, errors.New("occurrence requires recurrence id and period")
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Tags == nil {
		tx.Tags = []string{}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (id, user_id, amount, description, type, category, tags, date, status,
		                           installments, recurrence_id, occurrence_period)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (recurrence_id, occurrence_period) WHERE recurrence_id IS NOT NULL DO NOTHING
		 RETURNING created_at`,
		tx.ID, tx.UserID, tx.Amount, tx.Description, tx.Type, tx.Category,
		pq.Array(tx.Tags), tx.Date, tx.Status, tx.Installments,
		*tx.RecurrenceID, tx.OccurrencePeriod,
	).Scan(&tx.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert occurrence: %w", err)
	}
	return true, nil
}

func (r *TransactionRepository) LastOccurrence(ctx context.Context, ruleID uuid.UUID) (time.Time, bool, error) {
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM transactions WHERE recurrence_id = $1`,
		ruleID,
	).Scan(&last)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get last occurrence: %w", err)
	}
	return last.Time, last.Valid, nil
}

func (r *TransactionRepository) GetTransaction(ctx context.Context, userID int64, id uuid.UUID) (*models.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func (r *TransactionRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return collectTransactions(rows)
}

// ListByCategorySince returns transactions of one type and category dated on or after since, newest first.
func (r *TransactionRepository) ListByCategorySince(
	ctx context.Context,
	userID int64,
	typ models.TransactionType,
	category string,
	since time.Time,
) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE user_id = $1 AND type = $2 AND category = $3 AND date >= $4
		 ORDER BY date DESC, created_at DESC`,
		userID, typ, category, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by category: %w", err)
	}
	return collectTransactions(rows)
}

// Summary sums incomes and expenses dated within [from, to].
func (r *TransactionRepository) Summary(ctx context.Context, userID int64, from, to time.Time) (*models.Summary, error) {
	s := &models.Summary{}
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0),
			COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0)
		 FROM transactions
		 WHERE user_id = $1 AND date BETWEEN $2 AND $3 AND status <> 'cancelled'`,
		userID, from, to,
	).Scan(&s.Income, &s.Expense)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s, nil
}

func (r *TransactionRepository) DeleteTransaction(ctx context.Context, userID int64, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var (
		recurrenceID uuid.NullUUID
		period       sql.NullString
		tags         pq.StringArray
	)
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Amount,
		&tx.Description,
		&tx.Type,
		&tx.Category,
		&tags,
		&tx.Date,
		&tx.Status,
		&tx.Installments,
		&recurrenceID,
		&period,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Tags = []string(tags)
	if tx.Tags == nil {
		tx.Tags = []string{}
	}
	if recurrenceID.Valid {
		id := recurrenceID.UUID
		tx.RecurrenceID = &id
		tx.OccurrencePeriod = period.String
	}
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}
