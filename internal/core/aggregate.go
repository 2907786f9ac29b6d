package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAggregate is the total of one category within a list of
// transactions of the same kind. Percentage is 0-100 with one decimal.
type CategoryAggregate struct {
	Category   string
	Total      Money
	Percentage float64
}

// AggregateByCategory groups transactions by their exact category string,
// sums them and computes each group's share of the total. The result is
// sorted by total, descending; equal totals keep first-seen order.
// An empty input yields an empty, non-nil slice.
func AggregateByCategory(txs []Transaction) []CategoryAggregate {
	sums := make(map[string]int64)
	order := make([]string, 0)
	var total int64
	for _, t := range txs {
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] += t.Amount.Cents
		total += t.Amount.Cents
	}

	out := make([]CategoryAggregate, 0, len(order))
	for _, name := range order {
		out = append(out, CategoryAggregate{
			Category:   name,
			Total:      Money{Cents: sums[name]},
			Percentage: percentOf(sums[name], total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	return out
}

// TotalOf sums the totals of a set of aggregates.
func TotalOf(aggs []CategoryAggregate) Money {
	var total Money
	for _, a := range aggs {
		total = total.Add(a.Total)
	}
	return total
}

// Top returns the largest aggregate, if any.
func Top(aggs []CategoryAggregate) (CategoryAggregate, bool) {
	if len(aggs) == 0 {
		return CategoryAggregate{}, false
	}
	return aggs[0], true
}

func percentOf(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	p, _ := decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		Round(1).
		Float64()
	return p
}
