package db

import (
	"context"
	"database/sql"
)

type Client interface {
	DB() *sql.DB
	Ping(ctx context.Context) error
	Close() error
}
