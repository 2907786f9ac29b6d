// Package importer pulls bills from payment apps and maps them onto
// transactions. The providers serve fixed sample bills; no remote API is
// contacted.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"moneybook/internal/core"
)

var ErrUnknownSource = errors.New("unknown import source")

// Transaction is a bill already mapped to our kinds and categories but not
// yet stored.
type Transaction struct {
	ExternalID  string
	Date        core.Date
	Amount      core.Money
	Description string
	Category    string
	Kind        core.Kind
	Source      core.Source
}

// Summary reports what an import stored.
type Summary struct {
	BatchID      string
	Income       int
	IncomeTotal  core.Money
	Expense      int
	ExpenseTotal core.Money
}

// Add counts t into the summary.
func (s *Summary) Add(t core.Transaction) {
	switch t.Kind {
	case core.Income:
		s.Income++
		s.IncomeTotal = s.IncomeTotal.Add(t.Amount)
	case core.Expense:
		s.Expense++
		s.ExpenseTotal = s.ExpenseTotal.Add(t.Amount)
	}
}

// Provider fetches bills for a date range. Implementations may ignore the
// range.
type Provider interface {
	Source() core.Source
	Fetch(ctx context.Context, from, to core.Date) ([]Transaction, error)
}

var providers = map[core.Source]Provider{
	core.SourceAlipay: alipay{},
	core.SourceWeChat: wechat{},
}

// Lookup returns the provider registered for name (case-insensitive).
func Lookup(name string) (Provider, error) {
	p, ok := providers[core.Source(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return p, nil
}

// mapCategory resolves a provider category through table, then the
// catalogue. Anything unresolved becomes Other.
func mapCategory(kind core.Kind, raw string, table map[string]string) string {
	if kind == core.Expense {
		mapped, ok := table[raw]
		if !ok {
			return core.OtherCategory
		}
		raw = mapped
	}
	key := core.NormalizeCategory(kind, raw)
	if !core.IsKnownCategory(kind, key) {
		return core.OtherCategory
	}
	return key
}

func newTransaction(source core.Source, id, date string, amount float64, desc, category string, kind core.Kind, table map[string]string) (Transaction, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return Transaction{}, fmt.Errorf("bill %s: %w", id, err)
	}
	m, err := core.MoneyFromFloat(amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("bill %s: %w", id, err)
	}
	return Transaction{
		ExternalID:  id,
		Date:        d,
		Amount:      m,
		Description: desc,
		Category:    mapCategory(kind, category, table),
		Kind:        kind,
		Source:      source,
	}, nil
}
