// Package features converts a user-month of transactions into the fixed
// numeric vector the segmenter consumes: per-category totals, per-category
// ratios, and three temporal features (transaction count, daily spending
// std, weekend spending ratio).
package features

import (
	"context"
	"fmt"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/stats"
)

// Store is the read access the builder needs from the record store.
type Store interface {
	ListCategoryNames(ctx context.Context) ([]string, error)
	CategoryExpenseTotals(ctx context.Context, userID int64, month string) (map[string]float64, error)
	ExpenseCount(ctx context.Context, userID int64, month string) (int, error)
	DailyExpenseTotals(ctx context.Context, userID int64, month string) ([]core.DailyTotal, error)
	ExpenseTransactions(ctx context.Context, userID int64, month string) ([]core.TransactionDetail, error)
}

// Vector is a user-month spending profile. Values lays the features out as
// [category totals..., category ratios..., tx count, daily std, weekend
// ratio] in the order of Categories, which is the global category list and
// stable within one process run.
type Vector struct {
	UserID       int64              `json:"user_id"`
	Month        string             `json:"month"`
	Categories   []string           `json:"categories"`
	Totals       map[string]float64 `json:"totals"`
	Ratios       map[string]float64 `json:"ratios"`
	GrandTotal   float64            `json:"grand_total"`
	TxCount      int                `json:"tx_count"`
	DailyStd     float64            `json:"daily_std"`
	WeekendRatio float64            `json:"weekend_ratio"`
	Values       []float64          `json:"vector"`
}

// Dominant returns the category with the highest spending ratio. Ties go
// to the earliest category in the fixed ordering. ok is false when the
// user spent nothing in the month.
func (v Vector) Dominant() (name string, ratio float64, ok bool) {
	best := -1.0
	for _, c := range v.Categories {
		if r := v.Ratios[c]; r > best {
			best = r
			name = c
		}
	}
	if best <= 0 {
		return "", 0, false
	}
	return name, best, true
}

// Builder derives feature vectors from the record store.
type Builder struct {
	store Store
}

func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

// Build assembles the feature vector for (userID, month). Every category
// known to the system appears in the vector, zero-valued if the user never
// transacted in it; ratios sum to 1 when the grand total is positive and
// are all zero otherwise.
func (b *Builder) Build(ctx context.Context, userID int64, month string) (Vector, error) {
	categories, err := b.store.ListCategoryNames(ctx)
	if err != nil {
		return Vector{}, fmt.Errorf("list categories: %w", err)
	}

	spent, err := b.store.CategoryExpenseTotals(ctx, userID, month)
	if err != nil {
		return Vector{}, fmt.Errorf("category totals: %w", err)
	}

	v := Vector{
		UserID:     userID,
		Month:      month,
		Categories: categories,
		Totals:     make(map[string]float64, len(categories)),
		Ratios:     make(map[string]float64, len(categories)),
	}
	for _, name := range categories {
		total := spent[name]
		v.Totals[name] = total
		v.GrandTotal += total
	}
	for _, name := range categories {
		if v.GrandTotal > 0 {
			v.Ratios[name] = v.Totals[name] / v.GrandTotal
		} else {
			v.Ratios[name] = 0
		}
	}

	if v.TxCount, err = b.store.ExpenseCount(ctx, userID, month); err != nil {
		return Vector{}, fmt.Errorf("transaction count: %w", err)
	}

	daily, err := b.store.DailyExpenseTotals(ctx, userID, month)
	if err != nil {
		return Vector{}, fmt.Errorf("daily totals: %w", err)
	}
	totals := make([]float64, len(daily))
	for i, row := range daily {
		totals[i] = row.Total
	}
	_, v.DailyStd = stats.Describe(totals)

	if v.WeekendRatio, err = b.weekendRatio(ctx, userID, month); err != nil {
		return Vector{}, err
	}

	v.Values = make([]float64, 0, 2*len(categories)+3)
	for _, name := range categories {
		v.Values = append(v.Values, v.Totals[name])
	}
	for _, name := range categories {
		v.Values = append(v.Values, v.Ratios[name])
	}
	v.Values = append(v.Values, float64(v.TxCount), v.DailyStd, v.WeekendRatio)

	return v, nil
}

// weekendRatio is the share of the month's expense amount spent on
// Saturdays and Sundays, 0 when nothing was spent at all.
func (b *Builder) weekendRatio(ctx context.Context, userID int64, month string) (float64, error) {
	txs, err := b.store.ExpenseTransactions(ctx, userID, month)
	if err != nil {
		return 0, fmt.Errorf("expense transactions: %w", err)
	}

	var weekend, weekday float64
	for _, tx := range txs {
		isWeekend, err := core.IsWeekend(tx.Date)
		if err != nil {
			return 0, fmt.Errorf("weekend classification for transaction %d: %w", tx.ID, err)
		}
		if isWeekend {
			weekend += tx.Amount
		} else {
			weekday += tx.Amount
		}
	}

	if total := weekend + weekday; total > 0 {
		return weekend / total, nil
	}
	return 0, nil
}
