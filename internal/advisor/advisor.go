// Package advisor produces canned financial advice from a period analysis.
// All text comes from static per-locale tables.
package advisor

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"moneybook/internal/core"
)

// Advice is the reply to a question.
type Advice struct {
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
	Answer      string   `json:"answer"`
}

// Resolve maps a BCP 47 tag or Accept-Language value onto a supported
// locale, falling back to English.
func Resolve(tag string) core.Locale {
	if strings.TrimSpace(tag) == "" {
		return core.English
	}
	return core.MatchLocale(tag)
}

func table(loc core.Locale) texts {
	if t, ok := tables[loc]; ok {
		return t
	}
	return tables[core.English]
}

func Suggestions(loc core.Locale) []string {
	return append([]string(nil), table(loc).suggestions...)
}

func Questions(loc core.Locale) []string {
	return append([]string(nil), table(loc).questions...)
}

// Unavailable is the apology shown when advice cannot be produced.
func Unavailable(loc core.Locale) string {
	return table(loc).unavailable
}

// Summary renders totals, balance, saving rate and the highest expense
// category in the given display currency.
func Summary(a core.Analysis, currency core.CurrencyCode, loc core.Locale) string {
	t := table(loc)
	s := a.Summary
	var b strings.Builder
	b.WriteString(t.summaryTitle)
	fmt.Fprintf(&b, "\n- %s: %s", t.income, core.FormatCanonical(s.TotalIncome, currency))
	fmt.Fprintf(&b, "\n- %s: %s", t.expenses, core.FormatCanonical(s.TotalExpense, currency))
	fmt.Fprintf(&b, "\n- %s: %s", t.balance, core.FormatCanonical(s.Balance, currency))
	fmt.Fprintf(&b, "\n- %s: %.1f%%", t.savingRate, s.SavingsRate)
	if top, ok := core.Top(a.Expense); ok {
		fmt.Fprintf(&b, "\n- %s: %s (%s)", t.topCategory,
			core.CategoryLabel(core.Expense, top.Category, loc),
			core.FormatCanonical(top.Total, currency))
	}
	return b.String()
}

var folder = cases.Fold()

func classify(question string) topic {
	q := folder.String(question)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(q, w) {
				return k.topic
			}
		}
	}
	return topicDefault
}

// Advise answers question using canned text selected by its keywords.
func Advise(question string, a core.Analysis, currency core.CurrencyCode, loc core.Locale) Advice {
	t := table(loc)
	top := "-"
	if agg, ok := core.Top(a.Expense); ok {
		top = core.CategoryLabel(core.Expense, agg.Category, loc)
	}
	return Advice{
		Summary:     Summary(a, currency, loc),
		Suggestions: Suggestions(loc),
		Answer:      fmt.Sprintf(t.answers[classify(question)], a.Summary.SavingsRate, top),
	}
}

// Tag returns the BCP 47 tag of a supported locale.
func Tag(loc core.Locale) language.Tag {
	switch loc {
	case core.Chinese:
		return language.Chinese
	case core.Spanish:
		return language.Spanish
	default:
		return language.English
	}
}
