// Package anomaly flags z-score outliers in a user's spending at three
// granularities: daily totals, per-category daily totals, and individual
// transactions. All three share the stats package core; a series with no
// spread (std=0) produces z=0 everywhere and therefore no anomalies,
// which is the intended degenerate-case policy rather than an error.
package anomaly

import (
	"context"
	"fmt"
	"math"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/stats"
)

// DefaultThreshold is the z-score magnitude at which a point is flagged.
const DefaultThreshold = 2.0

// Store is the read access the detector needs from the record store.
type Store interface {
	DailyExpenseTotals(ctx context.Context, userID int64, month string) ([]core.DailyTotal, error)
	DailyExpenseTotalsByCategory(ctx context.Context, userID int64, month, categoryName string) ([]core.DailyTotal, error)
	ExpenseTransactions(ctx context.Context, userID int64, month string) ([]core.TransactionDetail, error)
	ExpensesOnDate(ctx context.Context, userID int64, date string) ([]core.TransactionDetail, error)
}

// Point is one day of a scored daily series.
type Point struct {
	Date      string  `json:"date"`
	Total     float64 `json:"total_amount"`
	ZScore    float64 `json:"z_score"`
	Anomalous bool    `json:"is_anomaly"`
}

// Summary carries the statistics and scored points for one daily series.
// An empty underlying series yields mean=std=0 and no points.
type Summary struct {
	UserID    int64   `json:"user_id"`
	Month     string  `json:"month"`
	Scope     string  `json:"scope,omitempty"`
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Threshold float64 `json:"z_threshold"`
	Points    []Point `json:"points"`
}

// TransactionPoint is one scored individual transaction.
type TransactionPoint struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category_name"`
	ZScore      float64 `json:"z_score"`
	Anomalous   bool    `json:"is_anomaly"`
}

// TransactionSummary is the transaction-granularity counterpart of Summary.
type TransactionSummary struct {
	UserID    int64              `json:"user_id"`
	Month     string             `json:"month"`
	Mean      float64            `json:"mean"`
	Std       float64            `json:"std"`
	Threshold float64            `json:"z_threshold"`
	Points    []TransactionPoint `json:"points"`
}

// PlotSeries is the raw daily series with mean and ±sigma bands for charting.
type PlotSeries struct {
	UserID    int64            `json:"user_id"`
	Month     string           `json:"month"`
	Mean      float64          `json:"mean"`
	Std       float64          `json:"std"`
	UpperBand float64          `json:"upper_band"`
	LowerBand float64          `json:"lower_band"`
	Points    []core.DailyTotal `json:"points"`
}

// Detector computes anomaly summaries from the record store.
type Detector struct {
	store Store
}

func NewDetector(store Store) *Detector {
	return &Detector{store: store}
}

// Daily scores the user's daily expense totals for the month.
func (d *Detector) Daily(ctx context.Context, userID int64, month string, threshold float64) (Summary, error) {
	series, err := d.store.DailyExpenseTotals(ctx, userID, month)
	if err != nil {
		return Summary{}, fmt.Errorf("load daily series: %w", err)
	}
	return scoreDaily(userID, month, "", series, threshold), nil
}

// DailyByCategory scores the daily series restricted to one category
// (exact name match).
func (d *Detector) DailyByCategory(ctx context.Context, userID int64, month, categoryName string, threshold float64) (Summary, error) {
	series, err := d.store.DailyExpenseTotalsByCategory(ctx, userID, month, categoryName)
	if err != nil {
		return Summary{}, fmt.Errorf("load category series: %w", err)
	}
	return scoreDaily(userID, month, "category="+categoryName, series, threshold), nil
}

func scoreDaily(userID int64, month, scope string, series []core.DailyTotal, threshold float64) Summary {
	summary := Summary{
		UserID:    userID,
		Month:     month,
		Scope:     scope,
		Threshold: threshold,
		Points:    []Point{},
	}
	if len(series) == 0 {
		return summary
	}

	totals := make([]float64, len(series))
	for i, row := range series {
		totals[i] = row.Total
	}
	summary.Mean, summary.Std = stats.Describe(totals)

	for _, row := range series {
		z := stats.ZScore(row.Total, summary.Mean, summary.Std)
		summary.Points = append(summary.Points, Point{
			Date:      row.Date,
			Total:     row.Total,
			ZScore:    z,
			Anomalous: math.Abs(z) >= threshold,
		})
	}
	return summary
}

// Transactions scores each individual expense transaction of the month
// against the month's transaction amounts, ordered by (date, id).
func (d *Detector) Transactions(ctx context.Context, userID int64, month string, threshold float64) (TransactionSummary, error) {
	txs, err := d.store.ExpenseTransactions(ctx, userID, month)
	if err != nil {
		return TransactionSummary{}, fmt.Errorf("load transactions: %w", err)
	}

	summary := TransactionSummary{
		UserID:    userID,
		Month:     month,
		Threshold: threshold,
		Points:    []TransactionPoint{},
	}
	if len(txs) == 0 {
		return summary, nil
	}

	amounts := make([]float64, len(txs))
	for i, tx := range txs {
		amounts[i] = tx.Amount
	}
	summary.Mean, summary.Std = stats.Describe(amounts)

	for _, tx := range txs {
		z := stats.ZScore(tx.Amount, summary.Mean, summary.Std)
		summary.Points = append(summary.Points, TransactionPoint{
			ID:          tx.ID,
			Date:        tx.Date,
			Amount:      tx.Amount,
			Description: tx.Description,
			Category:    tx.Category,
			ZScore:      z,
			Anomalous:   math.Abs(z) >= threshold,
		})
	}
	return summary, nil
}

// Plot returns the daily series plus mean ± bandsSigma·std bands. The
// lower band is clamped at zero since daily spending cannot go negative.
func (d *Detector) Plot(ctx context.Context, userID int64, month string, bandsSigma float64) (PlotSeries, error) {
	series, err := d.store.DailyExpenseTotals(ctx, userID, month)
	if err != nil {
		return PlotSeries{}, fmt.Errorf("load daily series: %w", err)
	}

	plot := PlotSeries{
		UserID: userID,
		Month:  month,
		Points: []core.DailyTotal{},
	}
	if len(series) == 0 {
		return plot, nil
	}

	totals := make([]float64, len(series))
	for i, row := range series {
		totals[i] = row.Total
	}
	plot.Mean, plot.Std = stats.Describe(totals)
	plot.UpperBand = plot.Mean + bandsSigma*plot.Std
	plot.LowerBand = math.Max(0, plot.Mean-bandsSigma*plot.Std)
	plot.Points = series
	return plot, nil
}
