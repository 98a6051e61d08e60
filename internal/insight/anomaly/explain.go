package anomaly

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
)

// ExplanationKind is the machine-readable reason attached to an
// explanation, mirrored into the router's debug trace.
type ExplanationKind string

const (
	KindNoDailyData    ExplanationKind = "no_daily_data"
	KindNoSuchDate     ExplanationKind = "no_such_date"
	KindNotAnomaly     ExplanationKind = "not_anomaly"
	KindNoTransactions ExplanationKind = "anomaly_no_transactions"
	KindIsAnomaly      ExplanationKind = "is_anomaly"
)

// Explanation pairs prose for the user with a machine-readable kind.
type Explanation struct {
	Text string          `json:"text"`
	Kind ExplanationKind `json:"kind"`
}

// ExplainDate explains why a given date is (or is not) anomalous within
// its month. Dates with no data are reported as explanation kinds, not
// errors: an empty month is KindNoDailyData, a quiet day in an otherwise
// active month is KindNoSuchDate.
func (d *Detector) ExplainDate(ctx context.Context, userID int64, date string, threshold float64) (Explanation, error) {
	month := core.MonthOf(date)
	summary, err := d.Daily(ctx, userID, month, threshold)
	if err != nil {
		return Explanation{}, fmt.Errorf("daily anomalies for %s: %w", month, err)
	}

	if len(summary.Points) == 0 {
		return Explanation{
			Text: fmt.Sprintf(
				"There is no expense data for user %d in month %s, so I cannot analyze %s.",
				userID, month, date),
			Kind: KindNoDailyData,
		}, nil
	}

	var day *Point
	for i := range summary.Points {
		if summary.Points[i].Date == date {
			day = &summary.Points[i]
			break
		}
	}
	if day == nil {
		return Explanation{
			Text: fmt.Sprintf("There are no recorded expenses on %s for user %d.", date, userID),
			Kind: KindNoSuchDate,
		}, nil
	}

	if !day.Anomalous {
		return Explanation{
			Text: fmt.Sprintf(
				"%s is not flagged as anomalous. You spent %.2f on that day, compared to an average daily spending of %.2f (z-score %.2f, threshold %.2f).",
				date, day.Total, summary.Mean, day.ZScore, threshold),
			Kind: KindNotAnomaly,
		}, nil
	}

	txs, err := d.store.ExpensesOnDate(ctx, userID, date)
	if err != nil {
		return Explanation{}, fmt.Errorf("transactions on %s: %w", date, err)
	}
	if len(txs) == 0 {
		return Explanation{
			Text: fmt.Sprintf(
				"%s is mathematically anomalous (z-score %.2f), but no individual transactions were found for that date.",
				date, day.ZScore),
			Kind: KindNoTransactions,
		}, nil
	}

	return Explanation{
		Text: fmt.Sprintf(
			"On %s, you spent %.2f, which is much higher than your average daily spending of %.2f (z-score %.2f, threshold %.2f). Most of this spending came from these categories: %s. Some of the largest transactions were: %s.",
			date, day.Total, summary.Mean, day.ZScore, threshold,
			categoryBreakdown(txs), topTransactions(txs, 3)),
		Kind: KindIsAnomaly,
	}, nil
}

// categoryBreakdown groups the day's transactions by category, largest
// total first.
func categoryBreakdown(txs []core.TransactionDetail) string {
	totals := make(map[string]float64)
	for _, tx := range txs {
		totals[tx.Category] += tx.Amount
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] != totals[names[j]] {
			return totals[names[i]] > totals[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %.2f", name, totals[name]))
	}
	return strings.Join(parts, "; ")
}

// topTransactions lists the n largest transactions; txs arrive already
// ordered by amount descending.
func topTransactions(txs []core.TransactionDetail, n int) string {
	if len(txs) > n {
		txs = txs[:n]
	}
	parts := make([]string, 0, len(txs))
	for _, tx := range txs {
		desc := tx.Description
		if desc == "" {
			desc = "(no description)"
		}
		parts = append(parts, fmt.Sprintf("%s (%s, %.2f)", desc, tx.Category, tx.Amount))
	}
	return strings.Join(parts, "; ")
}
