package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"moneybook/internal/auth"
	"moneybook/internal/core"
	apihttp "moneybook/internal/http"
	applog "moneybook/internal/log"
	"moneybook/internal/services"
	"moneybook/internal/store/memory"
)

func newAPI(t *testing.T) *Client {
	t.Helper()
	mem := memory.New()
	issuer := auth.NewIssuer("0123456789abcdef", time.Hour)
	analysis := services.NewAnalysisService(mem, nil)
	srv := apihttp.NewServer(":0", apihttp.Deps{
		Store:              mem,
		Users:              services.NewUserService(mem, issuer),
		Transactions:       services.NewTransactionService(mem, nil, analysis),
		Analysis:           analysis,
		Goals:              services.NewGoalService(mem),
		Issuer:             issuer,
		Logger:             applog.New(applog.Config{Output: io.Discard}),
		RateLimitPerMinute: 1000,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	c, err := New(ts.URL+"/", WithHTTPClient(ts.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func login(t *testing.T, c *Client, name string) *Session {
	t.Helper()
	ctx := context.Background()
	if err := c.Register(ctx, name, name+"@example.com", "secret123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	sess, err := c.Login(ctx, name+"@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return sess
}

func TestNew(t *testing.T) {
	for i, raw := range []string{"ftp://example.com", "://bad"} {
		if _, err := New(raw); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
	c, err := New("https://api.example.com/v1/", WithTimeout(time.Second))
	if err != nil || c.baseURL.String() != "https://api.example.com/v1" || c.http.Timeout != time.Second {
		t.Fatalf("unexpected client %+v err=%v", c, err)
	}
}

func TestSessionFlow(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()
	sess := login(t, c, "alice")
	if sess.UserID == 0 || sess.Token == "" || sess.Expired(time.Now()) {
		t.Fatalf("unexpected session %+v", sess)
	}
	if !sess.Expired(sess.ExpiresAt) {
		t.Fatalf("session should be expired at its expiry")
	}

	if _, err := c.Login(ctx, "alice@example.com", "nope-nope"); !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401, got %v", err)
	}
	if err := c.Register(ctx, "alice", "alice@example.com", "secret123"); !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409, got %v", err)
	}

	adds := []NewTransaction{
		{Kind: core.Income, Amount: core.Money{Cents: 100000}, Category: "Salary", Date: core.NewDate(2025, 3, 1)},
		{Kind: core.Expense, Amount: core.Money{Cents: 1250}, Category: "food", Date: core.NewDate(2025, 3, 2), Description: "lunch"},
		{Kind: core.Expense, Amount: core.Money{Cents: 4000}, Category: "Housing", Date: core.NewDate(2025, 2, 20)},
	}
	for i, in := range adds {
		if _, err := c.AddTransaction(ctx, sess, in); err != nil {
			t.Fatalf("case %d add: %v", i, err)
		}
	}
	if _, err := c.AddTransaction(ctx, sess, NewTransaction{Kind: core.Expense, Category: "Food"}); !IsStatus(err, http.StatusUnprocessableEntity) {
		t.Fatalf("expected 422 for zero amount, got %v", err)
	}

	march, err := c.Transactions(ctx, sess, core.Expense, core.MonthPeriod(2025, 3))
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(march) != 1 || march[0].Amount.Cents != 1250 || march[0].Category != "Food" || march[0].UserID != sess.UserID {
		t.Fatalf("unexpected march expenses %+v", march)
	}
	all, err := c.Transactions(ctx, sess, core.Expense, core.Period{})
	if err != nil || len(all) != 2 {
		t.Fatalf("expected two expenses, got %d err=%v", len(all), err)
	}

	if _, err := c.Transactions(ctx, nil, core.Expense, core.Period{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := c.Transactions(ctx, sess, core.Kind("gift"), core.Period{}); !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
	if _, err := c.Transactions(ctx, &Session{Token: "forged"}, core.Income, core.Period{}); !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 for forged token, got %v", err)
	}

	a, err := c.Analysis(ctx, sess, 2025, 3, core.EUR)
	if err != nil {
		t.Fatalf("analysis: %v", err)
	}
	if a.Currency != core.EUR || a.Summary.TotalIncome != 1000 || len(a.Categories) != 1 || a.Categories[0].Category != "Food" {
		t.Fatalf("unexpected analysis %+v", a)
	}
}

func TestSessionStoreFeedsLocalAnalysis(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()
	sess := login(t, c, "bob")

	remote := c.Store(sess)
	for _, tx := range []core.Transaction{
		{Kind: core.Income, Amount: core.Money{Cents: 200000}, Category: "Salary", Date: core.NewDate(2025, 4, 1)},
		{Kind: core.Expense, Amount: core.Money{Cents: 15000}, Category: "Food", Date: core.NewDate(2025, 4, 3)},
		{Kind: core.Expense, Amount: core.Money{Cents: 5000}, Category: "Transport", Date: core.NewDate(2025, 4, 4)},
	} {
		if _, err := remote.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	a, err := services.NewAnalysisService(remote, nil).Analyze(ctx, sess.UserID, core.MonthPeriod(2025, 4))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if a.Summary.Balance.Cents != 180000 || a.Summary.SavingsRate != 90 {
		t.Fatalf("unexpected summary %+v", a.Summary)
	}
	if len(a.Expense) != 2 || a.Expense[0].Category != "Food" || a.Expense[0].Percentage != 75 {
		t.Fatalf("unexpected expense aggregates %+v", a.Expense)
	}
}

func TestGoalsAndAdvice(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()
	sess := login(t, c, "carol")

	body := map[string]any{"name": "Trip", "target_amount": 500, "current_amount": "125.50"}
	if err := c.do(ctx, sess, http.MethodPost, "/goals", nil, body, nil); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	goals, err := c.Goals(ctx, sess)
	if err != nil {
		t.Fatalf("goals: %v", err)
	}
	if len(goals) != 1 || goals[0].CurrentAmount.Cents != 12550 || goals[0].Progress() != 25.1 || goals[0].Status != core.GoalActive {
		t.Fatalf("unexpected goals %+v", goals)
	}

	advice, err := c.Advice(ctx, sess, "Where does my spending go?", core.Chinese)
	if err != nil {
		t.Fatalf("advice: %v", err)
	}
	if advice.Answer == "" || len(advice.Suggestions) != 10 {
		t.Fatalf("unexpected advice %+v", advice)
	}
}
