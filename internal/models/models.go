package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusPaid      TransactionStatus = "paid"
	StatusCancelled TransactionStatus = "cancelled"
)

// DefaultCategory is used when neither the user nor the parser picked one.
const DefaultCategory = "Outros"

// User - owner of transactions and recurrence rules
type User struct {
	ID         int64
	TelegramID int64
	Username   string
	CreatedAt  time.Time
}

// Draft - parser output, waits for confirmation before it becomes a Transaction
type Draft struct {
	Amount       string          `json:"amount"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Type         TransactionType `json:"type"`
	Tags         []string        `json:"tags"`
	Installments int             `json:"installments,omitempty"`
}

type Transaction struct {
	ID           uuid.UUID         `json:"id"`
	UserID       int64             `json:"user_id"`
	Amount       decimal.Decimal   `json:"amount"`
	Description  string            `json:"description"`
	Type         TransactionType   `json:"type"`
	Category     string            `json:"category"`
	Tags         []string          `json:"tags"`
	Date         time.Time         `json:"date"`
	Status       TransactionStatus `json:"status"`
	Installments int               `json:"installments,omitempty"`

	// set only on transactions generated from a recurrence rule
	RecurrenceID     *uuid.UUID `json:"recurrence_id,omitempty"`
	OccurrencePeriod string     `json:"occurrence_period,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RecurrenceRule - "recorrência": a template materialized into transactions
type RecurrenceRule struct {
	ID        uuid.UUID       `json:"id"`
	UserID    int64           `json:"user_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Type      TransactionType `json:"type"`
	Category  string          `json:"category"`
	Frequency Frequency       `json:"frequency"`
	DueDay    int             `json:"due_day"`
	StartDate time.Time       `json:"start_date"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Subscription - recurring expense detected from transaction history
type Subscription struct {
	TransactionID uuid.UUID        `json:"transaction_id"`
	Name          string           `json:"name"`
	Amount        decimal.Decimal  `json:"amount"`
	LastAmount    *decimal.Decimal `json:"last_amount,omitempty"`
	Category      string           `json:"category"`
	DetectedAt    time.Time        `json:"detected_at"`
}
