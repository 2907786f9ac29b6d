package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"moneybook/internal/core"
)

const lastColumn = "I"

var reportHeader = []any{
	"User", "Year", "Month", "Income", "Expenses", "Balance", "Saving Rate", "Top Category", "Generated At",
}

// reportRow lays a report out over columns A..I. Amounts are canonical
// dollars so the sheet can sum them.
func reportRow(r core.Report) []any {
	s := r.Summary
	return []any{
		r.UserID,
		r.Year,
		r.Month,
		s.TotalIncome.Dollars(),
		s.TotalExpense.Dollars(),
		s.Balance.Dollars(),
		s.SavingsRate,
		r.TopExpenseCategory,
		r.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// findReportRow returns the 1-based row holding the given report key, or 0.
func findReportRow(values [][]any, userID int64, year, month int) int {
	for i, raw := range values {
		cols := toStrings(raw)
		if len(cols) < 3 {
			continue
		}
		u, err := strconv.ParseInt(cols[0], 10, 64)
		if err != nil || u != userID {
			continue
		}
		if atoi(cols[1]) == year && atoi(cols[2]) == month {
			return i + 1
		}
	}
	return 0
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
