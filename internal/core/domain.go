package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record belonging to one owner.
	// Owner is empty for records kept in the anonymous local store.
	Transaction struct {
		ID          string
		Owner       string
		Source      string
		Amount      Money
		Type        TransactionType
		Date        Date
		Description string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptySource     = errors.New("empty source")
	ErrSourceTooLong   = errors.New("source too long (max 100 characters)")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
)

// DateLayout is the wire format for calendar dates. No time component.
const DateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
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

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String renders the date in wire format.
func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// Validate is the single shared validation routine invoked at the storage
// boundary. Handlers do not duplicate these checks.
func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Source)) == 0 {
		return ErrEmptySource
	}
	if len(t.Source) > 100 {
		return ErrSourceTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

// IsReportable reports whether the record qualifies for aggregation: a real
// calendar date, a positive amount, and a non-empty type. Records failing the
// check contribute zero to every bucket and summary but stay visible in the
// raw history list. Kept separate from Validate so records written before
// validation existed, or written to the store by other tools, degrade
// silently instead of breaking reports.
func (t Transaction) IsReportable() bool {
	return !t.Date.IsZero() && t.Amount.Cents > 0 && t.Type != ""
}
