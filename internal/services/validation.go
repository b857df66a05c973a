package services

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MaxNameLength = 50
	MinDayOfMonth = 1
	MaxDayOfMonth = 31
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidType      = errors.New("type must be income or expense")
	ErrInvalidFrequency = errors.New("frequency must be daily, weekly, monthly or yearly")
	ErrInvalidDueDay    = errors.New("due day must be between 1 and 31")
	ErrInvalidEndDate   = errors.New("end date must not be before start date")
	ErrEmptyName        = errors.New("name must not be empty")
	ErrNameTooLong      = errors.New("name is too long")
)

var maxAmount = decimal.NewFromInt(999_999_999)

func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmount accepts "12.50" and "12,50".
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.Replace(raw, ",", ".", 1))
	if raw == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount.Round(2), nil
}

func ValidateDayOfMonth(day int) error {
	if day < MinDayOfMonth || day > MaxDayOfMonth {
		return ErrInvalidDueDay
	}
	return nil
}

// IsValidationError reports errors caused by bad user input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrInvalidType,
		ErrInvalidFrequency,
		ErrInvalidDueDay,
		ErrInvalidEndDate,
		ErrEmptyName,
		ErrNameTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
