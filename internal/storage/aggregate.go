package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
)

// The aggregation layer. Every query scopes by user id and matches the
// month on the first 7 characters of the transaction date (YYYY-MM), and
// each transaction is counted exactly once.

// DailyExpenseTotals returns one row per distinct date with at least one
// expense transaction, ordered by date ascending.
func (r *SQLiteRepository) DailyExpenseTotals(ctx context.Context, userID int64, month string) ([]core.DailyTotal, error) {
	return r.dailyTotals(ctx, userID, month, "")
}

// DailyExpenseTotalsByCategory restricts the daily series to a single
// category by exact name match.
func (r *SQLiteRepository) DailyExpenseTotalsByCategory(ctx context.Context, userID int64, month, categoryName string) ([]core.DailyTotal, error) {
	return r.dailyTotals(ctx, userID, month, categoryName)
}

func (r *SQLiteRepository) dailyTotals(ctx context.Context, userID int64, month, categoryName string) ([]core.DailyTotal, error) {
	query := `
		SELECT t.transaction_date, SUM(t.amount)
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		  AND c.kind = 'expense'
		  AND substr(t.transaction_date, 1, 7) = ?`
	args := []any{userID, month}
	if categoryName != "" {
		query += ` AND c.name = ?`
		args = append(args, categoryName)
	}
	query += `
		GROUP BY t.transaction_date
		ORDER BY t.transaction_date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("daily expense totals: %w", err)
	}
	defer rows.Close()

	var totals []core.DailyTotal
	for rows.Next() {
		var dt core.DailyTotal
		if err := rows.Scan(&dt.Date, &dt.Total); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, dt)
	}
	return totals, rows.Err()
}

// ExpenseTransactions returns the month's individual expense transactions
// ordered by (date, id) ascending.
func (r *SQLiteRepository) ExpenseTransactions(ctx context.Context, userID int64, month string) ([]core.TransactionDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.transaction_date, t.amount, COALESCE(t.description, ''), c.name
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		  AND c.kind = 'expense'
		  AND substr(t.transaction_date, 1, 7) = ?
		ORDER BY t.transaction_date ASC, t.id ASC`,
		userID, month)
	if err != nil {
		return nil, fmt.Errorf("expense transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactionDetails(rows)
}

// ExpensesOnDate lists a single day's expense transactions, largest first.
func (r *SQLiteRepository) ExpensesOnDate(ctx context.Context, userID int64, date string) ([]core.TransactionDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.transaction_date, t.amount, COALESCE(t.description, ''), c.name
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		  AND c.kind = 'expense'
		  AND t.transaction_date = ?
		ORDER BY t.amount DESC`,
		userID, date)
	if err != nil {
		return nil, fmt.Errorf("expenses on date: %w", err)
	}
	defer rows.Close()
	return scanTransactionDetails(rows)
}

// MonthTransactions returns every transaction (expense and income) for the
// month, ordered by (date, id) ascending. Used for answer retrieval context.
func (r *SQLiteRepository) MonthTransactions(ctx context.Context, userID int64, month string) ([]core.TransactionDetail, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.transaction_date, t.amount, COALESCE(t.description, ''), c.name
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		  AND substr(t.transaction_date, 1, 7) = ?
		ORDER BY t.transaction_date ASC, t.id ASC`,
		userID, month)
	if err != nil {
		return nil, fmt.Errorf("month transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactionDetails(rows)
}

func scanTransactionDetails(rows *sql.Rows) ([]core.TransactionDetail, error) {
	var details []core.TransactionDetail
	for rows.Next() {
		var d core.TransactionDetail
		if err := rows.Scan(&d.ID, &d.Date, &d.Amount, &d.Description, &d.Category); err != nil {
			return nil, fmt.Errorf("scan transaction detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// CategoryExpenseTotals sums the month's expenses per category name.
// Categories without transactions are absent from the map.
func (r *SQLiteRepository) CategoryExpenseTotals(ctx context.Context, userID int64, month string) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, SUM(t.amount)
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		  AND c.kind = 'expense'
		  AND substr(t.transaction_date, 1, 7) = ?
		GROUP BY c.name`,
		userID, month)
	if err != nil {
		return nil, fmt.Errorf("category expense totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var name string
		var total float64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals[name] = total
	}
	return totals, rows.Err()
}

// ExpenseCount counts the user's expense transactions in the month.
func (r *SQLiteRepository) ExpenseCount(ctx context.Context, userID int64, month string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		  AND c.kind = 'expense'
		  AND substr(t.transaction_date, 1, 7) = ?`,
		userID, month).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("expense count: %w", err)
	}
	return n, nil
}

// TotalByKind sums the month's amounts for one category kind.
// An empty month sums to zero, never an error.
func (r *SQLiteRepository) TotalByKind(ctx context.Context, userID int64, month string, kind core.CategoryKind) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		  AND c.kind = ?
		  AND substr(t.transaction_date, 1, 7) = ?`,
		userID, string(kind), month).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total by kind %s: %w", kind, err)
	}
	return total, nil
}

// TopExpenseCategories returns the month's categories by descending spend.
// limit <= 0 means no limit.
func (r *SQLiteRepository) TopExpenseCategories(ctx context.Context, userID int64, month string, limit int) ([]core.CategoryTotal, error) {
	query := `
		SELECT c.name, SUM(t.amount) AS total
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ?
		  AND c.kind = 'expense'
		  AND substr(t.transaction_date, 1, 7) = ?
		GROUP BY c.id, c.name
		ORDER BY total DESC`
	args := []any{userID, month}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top expense categories: %w", err)
	}
	defer rows.Close()

	var tops []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Name, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan top category: %w", err)
		}
		tops = append(tops, ct)
	}
	return tops, rows.Err()
}

// OverspentBudgets lists budget rows for the month whose actual spend
// exceeds the budgeted amount.
func (r *SQLiteRepository) OverspentBudgets(ctx context.Context, userID int64, month string) ([]core.BudgetOverrun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, b.amount, COALESCE(SUM(t.amount), 0) AS spent
		FROM budgets b
		JOIN categories c ON b.category_id = c.id
		LEFT JOIN transactions t
		  ON t.user_id = b.user_id
		 AND t.category_id = b.category_id
		 AND substr(t.transaction_date, 1, 7) = b.month
		WHERE b.user_id = ? AND b.month = ?
		GROUP BY c.name, b.month, b.amount
		HAVING COALESCE(SUM(t.amount), 0) > b.amount`,
		userID, month)
	if err != nil {
		return nil, fmt.Errorf("overspent budgets: %w", err)
	}
	defer rows.Close()

	var overruns []core.BudgetOverrun
	for rows.Next() {
		var o core.BudgetOverrun
		if err := rows.Scan(&o.Category, &o.Budgeted, &o.Spent); err != nil {
			return nil, fmt.Errorf("scan budget overrun: %w", err)
		}
		overruns = append(overruns, o)
	}
	return overruns, rows.Err()
}

// LatestMonth returns the most recent YYYY-MM with any transaction for the
// user, or ErrNotFound when the user has no data at all.
func (r *SQLiteRepository) LatestMonth(ctx context.Context, userID int64) (string, error) {
	var latest sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(transaction_date) FROM transactions WHERE user_id = ?`,
		userID).Scan(&latest)
	if err != nil {
		return "", fmt.Errorf("latest month: %w", err)
	}
	if !latest.Valid || latest.String == "" {
		return "", ErrNotFound
	}
	return core.MonthOf(latest.String), nil
}

// UserIDsWithExpenses lists users having at least one expense transaction
// in the month, in ascending id order.
func (r *SQLiteRepository) UserIDsWithExpenses(ctx context.Context, month string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT t.user_id
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE c.kind = 'expense'
		  AND substr(t.transaction_date, 1, 7) = ?
		ORDER BY t.user_id ASC`,
		month)
	if err != nil {
		return nil, fmt.Errorf("user ids with expenses: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
