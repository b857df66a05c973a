package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Lina3386/monk-finance/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureUser creates the user on first contact and refreshes the username afterwards.
func (r *UserRepository) EnsureUser(ctx context.Context, telegramID int64, username string) (*models.User, error) {
	user := &models.User{TelegramID: telegramID, Username: username}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (telegram_id, username) VALUES ($1, $2)
		 ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username
		 RETURNING id, created_at`,
		telegramID, username,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, username, created_at FROM users WHERE telegram_id = $1`, telegramID,
	).Scan(&user.ID, &user.TelegramID, &user.Username, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, username, created_at FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.TelegramID, &user.Username, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
