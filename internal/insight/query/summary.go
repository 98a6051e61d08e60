package query

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
)

// SummaryStore is the slice of the record store the summary build needs.
type SummaryStore interface {
	TotalByKind(ctx context.Context, userID int64, month string, kind core.CategoryKind) (float64, error)
	TopExpenseCategories(ctx context.Context, userID int64, month string, limit int) ([]core.CategoryTotal, error)
	OverspentBudgets(ctx context.Context, userID int64, month string) ([]core.BudgetOverrun, error)
	UpsertMonthlySummary(ctx context.Context, s core.MonthlySummary) (core.MonthlySummary, error)
}

// BuildMonthlySummary recomputes the numeric stats and the prose summary
// for (userID, month) and upserts the row. The text is a pure function of
// the underlying transactions, so rebuilding with unchanged data writes an
// identical summary.
func BuildMonthlySummary(ctx context.Context, store SummaryStore, userID int64, month string) (core.MonthlySummary, error) {
	totalSpent, err := store.TotalByKind(ctx, userID, month, core.KindExpense)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("total expenses: %w", err)
	}
	totalIncome, err := store.TotalByKind(ctx, userID, month, core.KindIncome)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("total income: %w", err)
	}
	netSavings := totalIncome - math.Abs(totalSpent)

	topCategories, err := store.TopExpenseCategories(ctx, userID, month, 3)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("top categories: %w", err)
	}
	topText := "No spending categories recorded."
	if len(topCategories) > 0 {
		parts := make([]string, len(topCategories))
		for i, c := range topCategories {
			parts[i] = fmt.Sprintf("%s: %.2f", c.Name, c.Total)
		}
		topText = strings.Join(parts, "; ")
	}

	overruns, err := store.OverspentBudgets(ctx, userID, month)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("overspent budgets: %w", err)
	}
	budgetText := "No categories exceeded their budget."
	if len(overruns) > 0 {
		parts := make([]string, len(overruns))
		for i, o := range overruns {
			parts[i] = fmt.Sprintf("%s: spent %.2f vs budget %.2f", o.Category, o.Spent, o.Budgeted)
		}
		budgetText = strings.Join(parts, "; ")
	}

	lines := []string{
		fmt.Sprintf("Summary for %s:", month),
		fmt.Sprintf("- Total expenses: %.2f", math.Abs(totalSpent)),
		fmt.Sprintf("- Total income: %.2f", totalIncome),
		fmt.Sprintf("- Net savings: %.2f", netSavings),
		fmt.Sprintf("- Top spending categories: %s", topText),
		fmt.Sprintf("- Budget status: %s", budgetText),
	}

	summary := core.MonthlySummary{
		UserID:      userID,
		Month:       month,
		TotalSpent:  totalSpent,
		TotalIncome: totalIncome,
		SummaryText: strings.Join(lines, "\n"),
	}
	stored, err := store.UpsertMonthlySummary(ctx, summary)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("upsert summary: %w", err)
	}
	return stored, nil
}
