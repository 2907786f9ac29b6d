package memory

import (
	"context"
	"errors"
	"testing"

	"moneybook/internal/core"
	"moneybook/internal/store"
)

func expense(user int64, day int, cents int64, cat string) core.Transaction {
	return core.Transaction{
		UserID:   user,
		Kind:     core.Expense,
		Amount:   core.Money{Cents: cents},
		Category: cat,
		Date:     core.NewDate(2025, 3, day),
		Source:   core.SourceManual,
	}
}

func TestTransactionsFilteredAndNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, tx := range []core.Transaction{
		expense(1, 5, 100, "Food"),
		expense(1, 20, 200, "Transport"),
		expense(2, 10, 300, "Food"),
		expense(1, 20, 400, "Food"),
	} {
		if _, err := s.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	income := core.Transaction{UserID: 1, Kind: core.Income, Amount: core.Money{Cents: 1}, Category: "Salary", Date: core.NewDate(2025, 3, 1)}
	if _, err := s.InsertTransaction(ctx, income); err != nil {
		t.Fatalf("insert income: %v", err)
	}

	got, err := s.ListTransactions(ctx, 1, core.Expense, core.Period{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(got))
	}
	if got[0].Amount.Cents != 400 || got[1].Amount.Cents != 200 || got[2].Amount.Cents != 100 {
		t.Fatalf("unexpected order: %+v", got)
	}

	got, _ = s.ListTransactions(ctx, 1, core.Expense, core.Period{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 3, 10)})
	if len(got) != 1 || got[0].Amount.Cents != 100 {
		t.Fatalf("unexpected period filter result: %+v", got)
	}

	if _, err := s.InsertTransaction(ctx, expense(1, 1, 0, "Food")); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestUsersConflictAndPreferences(t *testing.T) {
	ctx := context.Background()
	s := New()
	u, err := s.CreateUser(ctx, core.User{Username: "ann", Email: "ann@example.com", Preferences: core.DefaultPreferences()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateUser(ctx, core.User{Username: "other", Email: "ANN@example.com"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	prefs := core.Preferences{Currency: core.EUR, Locale: core.Spanish, Theme: core.ThemeDark}
	if err := s.UpdatePreferences(ctx, u.ID, prefs); err != nil {
		t.Fatalf("update prefs: %v", err)
	}
	got, err := s.GetUserByEmail(ctx, "ann@example.com")
	if err != nil || got.Preferences != prefs {
		t.Fatalf("unexpected user %+v err=%v", got, err)
	}
	if _, err := s.GetUser(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGoalsAndReports(t *testing.T) {
	ctx := context.Background()
	s := New()
	g, err := s.CreateGoal(ctx, core.Goal{UserID: 1, Name: "Trip", TargetAmount: core.Money{Cents: 1000}, Status: core.GoalActive})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	g.CurrentAmount = core.Money{Cents: 500}
	g.UserID = 99
	updated, err := s.UpdateGoal(ctx, g)
	if err != nil || updated.UserID != 1 || updated.CurrentAmount.Cents != 500 {
		t.Fatalf("unexpected update %+v err=%v", updated, err)
	}
	if err := s.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteGoal(ctx, g.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	r := core.Report{UserID: 1, Year: 2025, Month: 3, TopExpenseCategory: "Food"}
	_ = s.UpsertReport(ctx, r)
	r.TopExpenseCategory = "Housing"
	_ = s.UpsertReport(ctx, r)
	got, err := s.GetReport(ctx, 1, 2025, 3)
	if err != nil || got.TopExpenseCategory != "Housing" {
		t.Fatalf("unexpected report %+v err=%v", got, err)
	}
}
