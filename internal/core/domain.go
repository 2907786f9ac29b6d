package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxDescriptionLength caps descriptions in characters, not bytes.
const MaxDescriptionLength = 200

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	SourceManual Source = "manual"
	SourceAlipay Source = "alipay"
	SourceWeChat Source = "wechat"
	SourceImport Source = "import"
)

type (
	// Kind tells income and expense transactions apart.
	Kind string

	// Source records where a transaction entered the system.
	Source string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense entry. Amount is always
	// expressed in the canonical currency (USD).
	Transaction struct {
		ID          int64
		UserID      int64
		Kind        Kind
		Amount      Money
		Category    string
		Date        Date
		Description string
		Notes       string
		Source      Source
		ExternalID  string
		CreatedAt   time.Time
	}

	// Period is an inclusive calendar window.
	Period struct {
		Start Date
		End   Date
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrEmptyCategory      = errors.New("empty category")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrUnknownCurrency    = errors.New("unknown currency")
	ErrUnknownLocale      = errors.New("unknown locale")
	ErrInvalidTheme       = errors.New("invalid theme")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPasswordTooShort   = errors.New("password too short (min 6 characters)")
	ErrInvalidGoalStatus  = errors.New("invalid goal status")
)

const dateLayout = "2006-01-02"

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

// ParseKind accepts "income"/"expense" as well as the plural route names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "incomes":
		return Income, nil
	case "expense", "expenses":
		return Expense, nil
	default:
		return "", ErrInvalidKind
	}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD). Longer RFC 3339
// timestamps are truncated to their date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current UTC calendar date.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON shadows the embedded time.Time encoding so dates travel as
// plain calendar dates.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthPeriod returns the first and last calendar day of the month.
func MonthPeriod(year, month int) Period {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return Period{Start: first, End: last}
}

// CurrentMonth returns the period covering the current UTC month.
func CurrentMonth() Period {
	now := time.Now().UTC()
	return MonthPeriod(now.Year(), int(now.Month()))
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrInvalidPeriod
	}
	if p.End.Before(p.Start.Time) {
		return ErrInvalidPeriod
	}
	return nil
}

// Contains reports whether d falls inside the period, bounds included.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.Start.Time) && !d.After(p.End.Time)
}

// Previous returns the calendar month before the one p starts in.
func (p Period) Previous() Period {
	prev := p.Start.AddDate(0, -1, 0)
	return MonthPeriod(prev.Year(), int(prev.Month()))
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// SplitByKind partitions a mixed list into income and expense lists,
// preserving the input order within each.
func SplitByKind(txs []Transaction) (income, expense []Transaction) {
	for _, t := range txs {
		switch t.Kind {
		case Income:
			income = append(income, t)
		case Expense:
			expense = append(expense, t)
		}
	}
	return income, expense
}
