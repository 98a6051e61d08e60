package query

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
	"github.com/Raajp10/ai-expense-tracker/internal/storage"
)

// Month resolution notes carried into the debug trace.
const (
	noteMonthFromQuestion = "month taken from question"
	noteMonthFromLatest   = "month inferred as latest month with data"
	noteNoMonth           = "no month found and user has no data"
)

// Context is everything retrieved for one generic question: resolved
// month, numeric totals, the stored summary prose, and the full
// transaction list for the month.
type Context struct {
	UserID         int64
	UserName       string
	UserEmail      string
	Month          string
	TotalSpent     float64
	TotalIncome    float64
	NetSavings     float64
	NumericSummary string
	SummaryText    string
	TopCategories  []core.CategoryTotal
	Transactions   []core.TransactionDetail
}

// resolveMonth picks the month for a question: an explicit mention wins,
// otherwise the user's latest month with data. The note records which.
func (r *Router) resolveMonth(ctx context.Context, userID int64, question string) (string, string, error) {
	if months := ExtractMonths(question); len(months) > 0 {
		return months[0], noteMonthFromQuestion, nil
	}
	latest, err := r.store.LatestMonth(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", noteNoMonth, nil
	}
	if err != nil {
		return "", "", fmt.Errorf("latest month for user %d: %w", userID, err)
	}
	return latest, noteMonthFromLatest, nil
}

// retrieve gathers the full context for a generic question. A nil Context
// with a nil error means the month could not be resolved; the note says
// why.
func (r *Router) retrieve(ctx context.Context, userID int64, question string) (*Context, string, error) {
	month, note, err := r.resolveMonth(ctx, userID, question)
	if err != nil {
		return nil, "", err
	}
	if month == "" {
		return nil, note, nil
	}

	user, err := r.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		user = core.User{ID: userID}
	} else if err != nil {
		return nil, "", fmt.Errorf("get user %d: %w", userID, err)
	}

	summary, err := BuildMonthlySummary(ctx, r.store, userID, month)
	if err != nil {
		return nil, "", fmt.Errorf("build summary for %s: %w", month, err)
	}

	top, err := r.store.TopExpenseCategories(ctx, userID, month, 0)
	if err != nil {
		return nil, "", fmt.Errorf("top categories for %s: %w", month, err)
	}
	txs, err := r.store.MonthTransactions(ctx, userID, month)
	if err != nil {
		return nil, "", fmt.Errorf("transactions for %s: %w", month, err)
	}

	spent := math.Abs(summary.TotalSpent)
	net := summary.TotalIncome - spent
	rc := &Context{
		UserID:      userID,
		UserName:    user.DisplayName(),
		UserEmail:   user.Email,
		Month:       month,
		TotalSpent:  spent,
		TotalIncome: summary.TotalIncome,
		NetSavings:  net,
		NumericSummary: fmt.Sprintf(
			"User %d, month %s: total_spent=%.2f, total_income=%.2f, net_savings=%.2f",
			userID, month, spent, summary.TotalIncome, net),
		SummaryText:   summary.SummaryText,
		TopCategories: top,
		Transactions:  txs,
	}
	return rc, fmt.Sprintf("retrieval_ok; %s", note), nil
}
