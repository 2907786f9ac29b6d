package client

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
)

// Analysis mirrors GET /budget/analysis.
type Analysis struct {
	Period struct {
		Start core.Date `json:"start"`
		End   core.Date `json:"end"`
	} `json:"period"`
	Currency core.CurrencyCode `json:"currency"`
	Locale   core.Locale       `json:"locale"`
	Summary  struct {
		TotalIncome  float64           `json:"total_income"`
		TotalExpense float64           `json:"total_expense"`
		Balance      float64           `json:"balance"`
		SavingsRate  float64           `json:"savings_rate"`
		Display      map[string]string `json:"display"`
	} `json:"summary"`
	Categories       []Category `json:"categories"`
	IncomeCategories []Category `json:"income_categories"`
}

type Category struct {
	Category   string  `json:"category"`
	Label      string  `json:"label"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Display    string  `json:"display"`
}

type Advice struct {
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
	Answer      string   `json:"answer"`
}

// money converts a two-decimal JSON amount back to exact cents.
func money(f float64) core.Money {
	return core.Money{Cents: decimal.NewFromFloat(f).Shift(2).Round(0).IntPart()}
}

type wireTransaction struct {
	ID          int64       `json:"id"`
	Kind        core.Kind   `json:"kind"`
	Amount      float64     `json:"amount"`
	Category    string      `json:"category"`
	Date        core.Date   `json:"date"`
	Description string      `json:"description"`
	Notes       string      `json:"notes"`
	Source      core.Source `json:"source"`
	ExternalID  string      `json:"external_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (w wireTransaction) toCore(userID int64) core.Transaction {
	return core.Transaction{
		ID:          w.ID,
		UserID:      userID,
		Kind:        w.Kind,
		Amount:      money(w.Amount),
		Category:    w.Category,
		Date:        w.Date,
		Description: w.Description,
		Notes:       w.Notes,
		Source:      w.Source,
		ExternalID:  w.ExternalID,
		CreatedAt:   w.CreatedAt,
	}
}

type wireGoal struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  float64         `json:"target_amount"`
	CurrentAmount float64         `json:"current_amount"`
	Deadline      core.Date       `json:"deadline"`
	Description   string          `json:"description"`
	Status        core.GoalStatus `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (w wireGoal) toCore(userID int64) core.Goal {
	return core.Goal{
		ID:            w.ID,
		UserID:        userID,
		Name:          w.Name,
		TargetAmount:  money(w.TargetAmount),
		CurrentAmount: money(w.CurrentAmount),
		Deadline:      w.Deadline,
		Description:   w.Description,
		Status:        w.Status,
		CreatedAt:     w.CreatedAt,
	}
}

// SessionStore exposes the API as a transaction store bound to one session,
// so analyses can be computed on the caller's side. The userID arguments
// are ignored; the session decides whose data is read.
type SessionStore struct {
	client *Client
	sess   *Session
}

func (c *Client) Store(sess *Session) *SessionStore {
	return &SessionStore{client: c, sess: sess}
}

func (s *SessionStore) ListTransactions(ctx context.Context, _ int64, kind core.Kind, period core.Period) ([]core.Transaction, error) {
	return s.client.Transactions(ctx, s.sess, kind, period)
}

func (s *SessionStore) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return s.client.AddTransaction(ctx, s.sess, NewTransaction{
		Kind:        t.Kind,
		Amount:      t.Amount,
		Category:    t.Category,
		Date:        t.Date,
		Description: t.Description,
		Notes:       t.Notes,
	})
}
