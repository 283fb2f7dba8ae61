package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

type (
	// TransactionType is the closed income/expense enumeration. Historical
	// records may carry other values; those are tolerated on read and
	// excluded from aggregation, but rejected on insert.
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is the atomic ledger record. ID is assigned by the store
	// on insert and immutable afterwards; records are never updated in place.
	Transaction struct {
		ID       int64
		Type     TransactionType
		Category string
		Amount   Money
		Date     Date
	}
)

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidCategory = errors.New("invalid category")
)

// ParseTransactionType validates a raw type string from the request boundary.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. Empty input is rejected; callers
// that want a default should substitute "today" before parsing.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// InPeriod reports whether the date falls in the given calendar year+month.
func (d Date) InPeriod(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

// String renders the date in wire format.
func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

// ValidatePeriod checks a year+month aggregation period before it reaches
// the store. Month must be 1-12; year must be a plausible calendar year.
func ValidatePeriod(year, month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// Validate checks the structural invariants of a transaction. The sign
// policy for amounts is configurable and enforced by the service layer.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Category) > 200 {
		return fmt.Errorf("%w: longer than 200 characters", ErrInvalidCategory)
	}
	return nil
}
