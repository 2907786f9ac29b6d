package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodSummary combines income and expense totals over a period.
// Balance is always TotalIncome - TotalExpense in exact cents.
type PeriodSummary struct {
	Period       Period
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
	SavingsRate  float64 // percent, two decimals; 0 when there is no income
}

// Analysis is a summary together with the aggregates it was built from.
type Analysis struct {
	Summary PeriodSummary
	Income  []CategoryAggregate
	Expense []CategoryAggregate
}

// Report is a persisted monthly snapshot of an analysis.
type Report struct {
	UserID             int64
	Year               int
	Month              int
	Summary            PeriodSummary
	TopExpenseCategory string
	GeneratedAt        time.Time
}

// BuildSummary computes the summary of a period from the income and
// expense aggregates.
func BuildSummary(income, expense []CategoryAggregate, period Period) PeriodSummary {
	totalIncome := TotalOf(income)
	totalExpense := TotalOf(expense)
	balance := totalIncome.Sub(totalExpense)

	return PeriodSummary{
		Period:       period,
		TotalIncome:  totalIncome,
		TotalExpense: totalExpense,
		Balance:      balance,
		SavingsRate:  savingsRate(balance, totalIncome),
	}
}

func savingsRate(balance, income Money) float64 {
	if income.Cents == 0 {
		return 0
	}
	r, _ := decimal.NewFromInt(balance.Cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(income.Cents)).
		Round(2).
		Float64()
	return r
}

// Analyze aggregates both lists and builds their summary.
func Analyze(income, expense []Transaction, period Period) Analysis {
	inc := AggregateByCategory(income)
	exp := AggregateByCategory(expense)
	return Analysis{
		Summary: BuildSummary(inc, exp, period),
		Income:  inc,
		Expense: exp,
	}
}

// Report snapshots the analysis for a user and month.
func (a Analysis) Report(userID int64, year, month int, at time.Time) Report {
	r := Report{
		UserID:      userID,
		Year:        year,
		Month:       month,
		Summary:     a.Summary,
		GeneratedAt: at,
	}
	if top, ok := Top(a.Expense); ok {
		r.TopExpenseCategory = top.Category
	}
	return r
}
