package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Raajp10/ai-expense-tracker/internal/core"
)

// newTestRepo opens a fresh database under t.TempDir and seeds one user
// with expense and income categories.
func newTestRepo(t *testing.T) (*SQLiteRepository, core.User, map[string]core.Category) {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	user, err := repo.CreateUser(ctx, "Asha", "asha@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	cats := make(map[string]core.Category)
	for _, c := range []struct {
		name string
		kind core.CategoryKind
	}{
		{"Food", core.KindExpense},
		{"Travel", core.KindExpense},
		{"Salary", core.KindIncome},
	} {
		cat, err := repo.CreateCategory(ctx, core.Category{
			UserID: user.ID, Name: c.name, Kind: c.kind,
		})
		if err != nil {
			t.Fatalf("create category %s: %v", c.name, err)
		}
		cats[c.name] = cat
	}
	return repo, user, cats
}

func addTx(t *testing.T, repo *SQLiteRepository, userID, catID int64, amount float64, date, desc string) {
	t.Helper()
	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID: userID, CategoryID: catID, Amount: amount, Date: date, Description: desc,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
}

func TestDailyExpenseTotals(t *testing.T) {
	repo, user, cats := newTestRepo(t)
	ctx := context.Background()

	addTx(t, repo, user.ID, cats["Food"].ID, 10, "2024-05-01", "groceries")
	addTx(t, repo, user.ID, cats["Food"].ID, 5, "2024-05-01", "coffee")
	addTx(t, repo, user.ID, cats["Travel"].ID, 20, "2024-05-02", "bus")
	// Income must not leak into expense totals.
	addTx(t, repo, user.ID, cats["Salary"].ID, 3000, "2024-05-01", "pay")
	// Different month must be excluded.
	addTx(t, repo, user.ID, cats["Food"].ID, 99, "2024-06-01", "june")

	totals, err := repo.DailyExpenseTotals(ctx, user.ID, "2024-05")
	if err != nil {
		t.Fatalf("DailyExpenseTotals: %v", err)
	}

	want := []core.DailyTotal{
		{Date: "2024-05-01", Total: 15},
		{Date: "2024-05-02", Total: 20},
	}
	if len(totals) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(totals), len(want), totals)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, totals[i], want[i])
		}
	}
}

func TestDailyExpenseTotalsByCategory(t *testing.T) {
	repo, user, cats := newTestRepo(t)
	ctx := context.Background()

	addTx(t, repo, user.ID, cats["Food"].ID, 10, "2024-05-01", "")
	addTx(t, repo, user.ID, cats["Travel"].ID, 20, "2024-05-01", "")

	totals, err := repo.DailyExpenseTotalsByCategory(ctx, user.ID, "2024-05", "Food")
	if err != nil {
		t.Fatalf("DailyExpenseTotalsByCategory: %v", err)
	}
	if len(totals) != 1 || totals[0].Total != 10 {
		t.Fatalf("got %+v, want one Food row of 10", totals)
	}

	none, err := repo.DailyExpenseTotalsByCategory(ctx, user.ID, "2024-05", "Rent")
	if err != nil {
		t.Fatalf("unknown category should be empty, not error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("unknown category returned rows: %+v", none)
	}
}

func TestExpensesOnDateOrdering(t *testing.T) {
	repo, user, cats := newTestRepo(t)
	ctx := context.Background()

	addTx(t, repo, user.ID, cats["Food"].ID, 5, "2024-05-03", "small")
	addTx(t, repo, user.ID, cats["Travel"].ID, 80, "2024-05-03", "big")
	addTx(t, repo, user.ID, cats["Food"].ID, 15, "2024-05-03", "mid")

	txs, err := repo.ExpensesOnDate(ctx, user.ID, "2024-05-03")
	if err != nil {
		t.Fatalf("ExpensesOnDate: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	if txs[0].Description != "big" || txs[1].Description != "mid" || txs[2].Description != "small" {
		t.Errorf("not ordered by amount desc: %+v", txs)
	}
}

func TestTotalByKindAndTopCategories(t *testing.T) {
	repo, user, cats := newTestRepo(t)
	ctx := context.Background()

	addTx(t, repo, user.ID, cats["Food"].ID, 120, "2024-05-01", "")
	addTx(t, repo, user.ID, cats["Travel"].ID, 300, "2024-05-02", "")
	addTx(t, repo, user.ID, cats["Salary"].ID, 2500, "2024-05-05", "")

	spent, err := repo.TotalByKind(ctx, user.ID, "2024-05", core.KindExpense)
	if err != nil {
		t.Fatalf("TotalByKind expense: %v", err)
	}
	if spent != 420 {
		t.Errorf("total spent = %v, want 420", spent)
	}

	income, err := repo.TotalByKind(ctx, user.ID, "2024-05", core.KindIncome)
	if err != nil {
		t.Fatalf("TotalByKind income: %v", err)
	}
	if income != 2500 {
		t.Errorf("total income = %v, want 2500", income)
	}

	empty, err := repo.TotalByKind(ctx, user.ID, "2030-01", core.KindExpense)
	if err != nil {
		t.Fatalf("empty month should sum to zero: %v", err)
	}
	if empty != 0 {
		t.Errorf("empty month total = %v, want 0", empty)
	}

	tops, err := repo.TopExpenseCategories(ctx, user.ID, "2024-05", 3)
	if err != nil {
		t.Fatalf("TopExpenseCategories: %v", err)
	}
	if len(tops) != 2 || tops[0].Name != "Travel" || tops[1].Name != "Food" {
		t.Errorf("top categories = %+v, want Travel then Food", tops)
	}
}

func TestLatestMonth(t *testing.T) {
	repo, user, cats := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.LatestMonth(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LatestMonth with no data: err = %v, want ErrNotFound", err)
	}

	addTx(t, repo, user.ID, cats["Food"].ID, 10, "2024-03-10", "")
	addTx(t, repo, user.ID, cats["Food"].ID, 10, "2024-05-02", "")

	month, err := repo.LatestMonth(ctx, user.ID)
	if err != nil {
		t.Fatalf("LatestMonth: %v", err)
	}
	if month != "2024-05" {
		t.Errorf("LatestMonth = %q, want 2024-05", month)
	}
}

func TestUpsertMonthlySummaryOverwrites(t *testing.T) {
	repo, user, _ := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.UpsertMonthlySummary(ctx, core.MonthlySummary{
		UserID: user.ID, Month: "2024-05", TotalSpent: 100, TotalIncome: 200,
		SummaryText: "v1",
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	_, err = repo.UpsertMonthlySummary(ctx, core.MonthlySummary{
		UserID: user.ID, Month: "2024-05", TotalSpent: 150, TotalIncome: 200,
		SummaryText: "v2",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetMonthlySummary(ctx, user.ID, "2024-05")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("upsert created a second row: id %d then %d", first.ID, got.ID)
	}
	if got.TotalSpent != 150 || got.SummaryText != "v2" {
		t.Errorf("summary not overwritten: %+v", got)
	}
}

func TestOverspentBudgets(t *testing.T) {
	repo, user, cats := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateBudget(ctx, core.Budget{
		UserID: user.ID, CategoryID: cats["Food"].ID, Month: "2024-05", Amount: 50,
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if _, err := repo.CreateBudget(ctx, core.Budget{
		UserID: user.ID, CategoryID: cats["Travel"].ID, Month: "2024-05", Amount: 500,
	}); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	addTx(t, repo, user.ID, cats["Food"].ID, 80, "2024-05-01", "")
	addTx(t, repo, user.ID, cats["Travel"].ID, 100, "2024-05-01", "")

	overruns, err := repo.OverspentBudgets(ctx, user.ID, "2024-05")
	if err != nil {
		t.Fatalf("OverspentBudgets: %v", err)
	}
	if len(overruns) != 1 {
		t.Fatalf("got %d overruns, want 1: %+v", len(overruns), overruns)
	}
	if overruns[0].Category != "Food" || overruns[0].Budgeted != 50 || overruns[0].Spent != 80 {
		t.Errorf("overrun = %+v, want Food 80 vs 50", overruns[0])
	}
}

func TestCreateTransactionRejectsBadDate(t *testing.T) {
	repo, user, cats := newTestRepo(t)

	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID: user.ID, CategoryID: cats["Food"].ID, Amount: 5, Date: "05/01/2024",
	})
	if !errors.Is(err, core.ErrParseDate) {
		t.Fatalf("err = %v, want ErrParseDate", err)
	}
}

func TestUserIDsWithExpenses(t *testing.T) {
	repo, user, cats := newTestRepo(t)
	ctx := context.Background()

	other, err := repo.CreateUser(ctx, "Ravi", "ravi@example.com")
	if err != nil {
		t.Fatalf("create second user: %v", err)
	}
	otherCat, err := repo.CreateCategory(ctx, core.Category{
		UserID: other.ID, Name: "Rent", Kind: core.KindExpense,
	})
	if err != nil {
		t.Fatalf("create second category: %v", err)
	}

	addTx(t, repo, user.ID, cats["Food"].ID, 10, "2024-05-01", "")
	addTx(t, repo, other.ID, otherCat.ID, 700, "2024-05-01", "")
	// Income-only users must not appear.
	addTx(t, repo, user.ID, cats["Salary"].ID, 100, "2024-06-01", "")

	ids, err := repo.UserIDsWithExpenses(ctx, "2024-05")
	if err != nil {
		t.Fatalf("UserIDsWithExpenses: %v", err)
	}
	if len(ids) != 2 || ids[0] != user.ID || ids[1] != other.ID {
		t.Errorf("ids = %v, want [%d %d]", ids, user.ID, other.ID)
	}

	june, err := repo.UserIDsWithExpenses(ctx, "2024-06")
	if err != nil {
		t.Fatalf("UserIDsWithExpenses june: %v", err)
	}
	if len(june) != 0 {
		t.Errorf("june ids = %v, want none (income only)", june)
	}
}
