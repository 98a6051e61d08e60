package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Raajp10/ai-expense-tracker/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// SQLiteRepository is the record store: users, categories, transactions,
// budgets and monthly summaries, plus the aggregation queries the insight
// engine reads from (see aggregate.go).
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email) VALUES (?, ?)
		 RETURNING id, name, email, created_at`,
		name, email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", u.ID, "email", u.Email)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Kind.Validate(); err != nil {
		return core.Category{}, err
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (user_id, name, kind) VALUES (?, ?, ?)
		 RETURNING id, created_at`,
		c.UserID, c.Name, string(c.Kind),
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", c.ID, "name", c.Name, "kind", c.Kind)
	return c, nil
}

// ListCategoryNames returns every category name known to the system in
// insertion order. This ordering fixes the feature-vector layout, so it
// must be stable across calls within one process run.
func (r *SQLiteRepository) ListCategoryNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list category names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, kind, created_at FROM categories
		 WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	day, err := core.ParseDay(t.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	// Stored canonical so the substr-based month filters match.
	t.Date = day.Format("2006-01-02")

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO transactions (user_id, category_id, amount, transaction_date, description)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id, created_at`,
		t.UserID, t.CategoryID, t.Amount, t.Date, t.Description,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", t.ID,
		"user_id", t.UserID,
		"amount", t.Amount,
		"date", t.Date)
	return t, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if !core.ValidMonth(b.Month) {
		return core.Budget{}, fmt.Errorf("%w: budget month %q", core.ErrParseDate, b.Month)
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, category_id, month, amount)
		 VALUES (?, ?, ?, ?)
		 RETURNING id, created_at`,
		b.UserID, b.CategoryID, b.Month, b.Amount,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"id", b.ID,
		"user_id", b.UserID,
		"month", b.Month,
		"amount", b.Amount)
	return b, nil
}

func (r *SQLiteRepository) GetMonthlySummary(ctx context.Context, userID int64, month string) (core.MonthlySummary, error) {
	var s core.MonthlySummary
	var text sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, total_spent, total_income, summary_text, created_at
		 FROM monthly_summaries WHERE user_id = ? AND month = ?`,
		userID, month,
	).Scan(&s.ID, &s.UserID, &s.Month, &s.TotalSpent, &s.TotalIncome, &text, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlySummary{}, ErrNotFound
	}
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("get monthly summary: %w", err)
	}
	s.SummaryText = text.String
	return s, nil
}

// UpsertMonthlySummary replaces the (user, month) summary row atomically.
// Concurrent writers race last-write-wins, which is safe because the
// recomputation is idempotent; the transaction only guarantees the row is
// never half-written.
func (r *SQLiteRepository) UpsertMonthlySummary(ctx context.Context, s core.MonthlySummary) (core.MonthlySummary, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("begin summary upsert: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO monthly_summaries (user_id, month, total_spent, total_income, summary_text, created_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT (user_id, month) DO UPDATE SET
		   total_spent = excluded.total_spent,
		   total_income = excluded.total_income,
		   summary_text = excluded.summary_text,
		   created_at = excluded.created_at
		 RETURNING id, created_at`,
		s.UserID, s.Month, s.TotalSpent, s.TotalIncome, s.SummaryText,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("upsert monthly summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.MonthlySummary{}, fmt.Errorf("commit summary upsert: %w", err)
	}

	slog.InfoContext(ctx, "Monthly summary upserted",
		"user_id", s.UserID,
		"month", s.Month,
		"total_spent", s.TotalSpent,
		"total_income", s.TotalIncome)
	return s, nil
}
