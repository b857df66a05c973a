package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Lina3386/monk-finance/internal/models"
)

var ErrNotFound = errors.New("not found")

const recurrenceColumns = `id, user_id, name, amount, type, category, frequency, due_day,
	start_date, end_date, active, created_at`

type RecurrenceRepository struct {
	db *sql.DB
}

func NewRecurrenceRepository(db *sql.DB) *RecurrenceRepository {
	return &RecurrenceRepository{db: db}
}

func (r *RecurrenceRepository) CreateRecurrence(ctx context.Context, rule *models.RecurrenceRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	var dueDay sql.NullInt32
	if rule.DueDay > 0 {
		dueDay = sql.NullInt32{Int32: int32(rule.DueDay), Valid: true}
	}
	var endDate sql.NullTime
	if rule.EndDate != nil {
		endDate = sql.NullTime{Time: *rule.EndDate, Valid: true}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO recurrences (id, user_id, name, amount, type, category, frequency, due_day, start_date, end_date, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at`,
		rule.ID, rule.UserID, rule.Name, rule.Amount, rule.Type, rule.Category,
		rule.Frequency, dueDay, rule.StartDate, endDate, rule.Active,
	).Scan(&rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recurrence: %w", err)
	}
	return nil
}

// ActiveRules - select rules where user_id = ? and active = true
func (r *RecurrenceRepository) ActiveRules(ctx context.Context, userID int64) ([]models.RecurrenceRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurrenceColumns+`
		 FROM recurrences
		 WHERE user_id = $1 AND active
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get active recurrences: %w", err)
	}
	return collectRecurrences(rows)
}

func (r *RecurrenceRepository) ListRecurrences(ctx context.Context, userID int64) ([]models.RecurrenceRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurrenceColumns+`
		 FROM recurrences
		 WHERE user_id = $1
		 ORDER BY active DESC, created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurrences: %w", err)
	}
	return collectRecurrences(rows)
}

func (r *RecurrenceRepository) GetRecurrence(ctx context.Context, userID int64, id uuid.UUID) (*models.RecurrenceRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurrenceColumns+` FROM recurrences WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	rule, err := scanRecurrence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recurrence: %w", err)
	}
	return rule, nil
}

// DeactivateRecurrence stops future generation. Rules are never deleted so
// generated transactions keep their link.
func (r *RecurrenceRepository) DeactivateRecurrence(ctx context.Context, userID int64, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurrences SET active = FALSE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate recurrence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate recurrence: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UsersWithActiveRules lists ids of users owning at least one active rule.
func (r *RecurrenceRepository) UsersWithActiveRules(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM recurrences WHERE active ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with active recurrences: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanRecurrence(row rowScanner) (*models.RecurrenceRule, error) {
	rule := &models.RecurrenceRule{}
	var (
		dueDay  sql.NullInt32
		endDate sql.NullTime
	)
	err := row.Scan(
		&rule.ID,
		&rule.UserID,
		&rule.Name,
		&rule.Amount,
		&rule.Type,
		&rule.Category,
		&rule.Frequency,
		&dueDay,
		&rule.StartDate,
		&endDate,
		&rule.Active,
		&rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.DueDay = int(dueDay.Int32)
	if endDate.Valid {
		end := endDate.Time
		rule.EndDate = &end
	}
	return rule, nil
}

func collectRecurrences(rows *sql.Rows) ([]models.RecurrenceRule, error) {
	defer rows.Close()

	var rules []models.RecurrenceRule
	for rows.Next() {
		rule, err := scanRecurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurrence: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}
