package core

import (
	"errors"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryShopping      Category = "Shopping"
	CategorySavings       Category = "Savings"
	CategoryHealth        Category = "Health"
	CategoryOther         Category = "Other"
)

type (
	// Kind tells whether a transaction moves money in or out.
	Kind string

	// Category is one of a closed set of spending/earning buckets.
	Category string

	// Date is a calendar day, normalized to UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single immutable ledger entry. The sign of the
	// movement is carried by Kind; Amount is always non-negative.
	Transaction struct {
		ID           string
		Kind         Kind
		Amount       Money
		Reason       string // free text, may be empty
		Category     Category
		Counterparty string // received from / sent to
		Date         Date   // day the movement occurred
		TimeOfDay    string // "15:04", informational only
		CreatedAt    time.Time
	}
)

var (
	ErrUnknownKind      = errors.New("unknown transaction kind")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
)

// Categories returns the full closed set in declaration order. The order is
// also the deterministic tie-break order for category extremal lookups.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTravel,
		CategoryBills,
		CategoryEntertainment,
		CategoryShopping,
		CategorySavings,
		CategoryHealth,
		CategoryOther,
	}
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// ParseKind maps user input to a Kind. It accepts the canonical lowercase
// names plus the capitalized spellings found in legacy CSV exports.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "income", "Income":
		return KindIncome, nil
	case "expense", "Expense":
		return KindExpense, nil
	}
	return "", ErrUnknownKind
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory maps user input to a Category. Adding a category means
// extending the closed set above; free-form values are rejected here, at the
// insert boundary, rather than tolerated inside aggregation.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", ErrUnknownCategory
	}
	return c, nil
}

// NewDate creates a Date from year, month, day. Out-of-range values are
// normalized by the calendar (day 0 of month m is the last day of m-1).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// AddDays returns the date n days later (or earlier, for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns the difference m minus o. The result may be negative; signed
// values only appear in derived figures such as net cashflow.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrUnknownKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Category.Valid() {
		return ErrUnknownCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.TimeOfDay != "" {
		if _, err := time.Parse("15:04", t.TimeOfDay); err != nil {
			return ErrInvalidTimeOfDay
		}
	}
	return nil
}
