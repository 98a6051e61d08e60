package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindExpense CategoryKind = "expense"
	KindIncome  CategoryKind = "income"
)

type (
	// CategoryKind distinguishes spending from earning categories.
	CategoryKind string

	User struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		CreatedAt string `json:"created_at"`
	}

	Category struct {
		ID        int64        `json:"id"`
		UserID    int64        `json:"user_id"`
		Name      string       `json:"name"`
		Kind      CategoryKind `json:"kind"`
		CreatedAt string       `json:"created_at"`
	}

	// Transaction is a single financial record. Dates are stored as
	// YYYY-MM-DD strings; month scoping matches on the first 7 characters.
	Transaction struct {
		ID          int64   `json:"id"`
		UserID      int64   `json:"user_id"`
		CategoryID  int64   `json:"category_id"`
		Amount      float64 `json:"amount"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
		CreatedAt   string  `json:"created_at"`
	}

	Budget struct {
		ID         int64   `json:"id"`
		UserID     int64   `json:"user_id"`
		CategoryID int64   `json:"category_id"`
		Month      string  `json:"month"`
		Amount     float64 `json:"amount"`
		CreatedAt  string  `json:"created_at"`
	}

	// MonthlySummary is the persisted per-(user, month) rollup. It is
	// upserted whole; recomputing from the same records yields the same row.
	MonthlySummary struct {
		ID          int64   `json:"id"`
		UserID      int64   `json:"user_id"`
		Month       string  `json:"month"`
		TotalSpent  float64 `json:"total_spent"`
		TotalIncome float64 `json:"total_income"`
		SummaryText string  `json:"summary_text"`
		CreatedAt   string  `json:"created_at"`
	}

	// DailyTotal is one point of a derived daily spending series.
	DailyTotal struct {
		Date  string  `json:"date"`
		Total float64 `json:"total_amount"`
	}

	// CategoryTotal is an amount aggregated under one category name.
	CategoryTotal struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
	}

	// TransactionDetail is a transaction joined with its category name,
	// the shape most insight queries consume.
	TransactionDetail struct {
		ID          int64   `json:"id"`
		Date        string  `json:"date"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Category    string  `json:"category_name"`
	}

	// BudgetOverrun reports a category whose month spend exceeded its budget.
	BudgetOverrun struct {
		Category string  `json:"category"`
		Budgeted float64 `json:"budgeted"`
		Spent    float64 `json:"spent"`
	}
)

var (
	ErrInvalidKind = errors.New("category kind must be expense or income")
	ErrInvalidDate = errors.New("invalid date")

	// ErrParseDate marks a date string that matched none of the accepted
	// formats. Callers distinguish it from data errors with errors.Is.
	ErrParseDate = errors.New("unparseable date")
)

func (k CategoryKind) Validate() error {
	if k != KindExpense && k != KindIncome {
		return ErrInvalidKind
	}
	return nil
}

// MonthOf truncates a YYYY-MM-DD date string to its YYYY-MM month.
func MonthOf(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// ValidMonth reports whether s looks like a YYYY-MM month reference.
func ValidMonth(s string) bool {
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	t, err := time.Parse("2006-01", s)
	return err == nil && t.Format("2006-01") == s
}

// dateLayouts are tried in order when parsing transaction dates. The
// canonical form comes first; the rest tolerate other ISO-8601 shapes.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseDay parses a transaction date string, accepting the canonical
// YYYY-MM-DD form and any ISO-8601 representation as a fallback. A string
// that fails every layout returns an error wrapping ErrParseDate.
func ParseDay(date string) (time.Time, error) {
	s := strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrParseDate, date)
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(date string) (bool, error) {
	t, err := ParseDay(date)
	if err != nil {
		return false, err
	}
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday, nil
}

// DisplayName resolves how a user is addressed in generated prose:
// name, then the local part of the email, then a numeric placeholder.
func (u *User) DisplayName() string {
	if u == nil {
		return "there"
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		if at := strings.IndexByte(u.Email, '@'); at > 0 {
			return u.Email[:at]
		}
		return u.Email
	}
	return fmt.Sprintf("User %d", u.ID)
}
