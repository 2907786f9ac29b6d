package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// OtherCategory is the fallback key for both kinds.
const OtherCategory = "Other"

type categoryEntry struct {
	key     string
	labels  map[Locale]string
	aliases []string
}

var incomeCatalog = []categoryEntry{
	{key: "Salary", labels: map[Locale]string{English: "Salary", Chinese: "工资", Spanish: "Salario"}, aliases: []string{"wage", "wages", "paycheck"}},
	{key: "Bonus", labels: map[Locale]string{English: "Bonus", Chinese: "奖金", Spanish: "Bono"}},
	{key: "Investment", labels: map[Locale]string{English: "Investment", Chinese: "投资", Spanish: "Inversión"}, aliases: []string{"investments", "dividends"}},
	{key: "Freelance", labels: map[Locale]string{English: "Freelance", Chinese: "自由职业", Spanish: "Freelance"}},
	{key: OtherCategory, labels: map[Locale]string{English: "Other Income", Chinese: "其他收入", Spanish: "Otros Ingresos"}, aliases: []string{"income", "其他"}},
}

var expenseCatalog = []categoryEntry{
	{key: "Food", labels: map[Locale]string{English: "Food", Chinese: "食物", Spanish: "Comida"}, aliases: []string{"restaurant", "groceries", "餐饮"}},
	{key: "Transport", labels: map[Locale]string{English: "Transport", Chinese: "交通", Spanish: "Transporte"}, aliases: []string{"transportation"}},
	{key: "Housing", labels: map[Locale]string{English: "Housing", Chinese: "住房", Spanish: "Vivienda"}, aliases: []string{"rent"}},
	{key: "Entertainment", labels: map[Locale]string{English: "Entertainment", Chinese: "娱乐", Spanish: "Entretenimiento"}},
	{key: "Shopping", labels: map[Locale]string{English: "Shopping", Chinese: "购物", Spanish: "Compras"}},
	{key: "Utilities", labels: map[Locale]string{English: "Utilities", Chinese: "水电费", Spanish: "Servicios"}},
	{key: OtherCategory, labels: map[Locale]string{English: "Other", Chinese: "其他", Spanish: "Otro"}},
}

func catalogFor(kind Kind) []categoryEntry {
	if kind == Income {
		return incomeCatalog
	}
	return expenseCatalog
}

// Categories returns the canonical category keys for a kind.
func Categories(kind Kind) []string {
	cat := catalogFor(kind)
	out := make([]string, 0, len(cat))
	for _, e := range cat {
		out = append(out, e.key)
	}
	return out
}

// NormalizeCategory maps user input onto a canonical key. Matching is
// case-insensitive over keys, localized labels and aliases. Input that
// matches nothing is returned trimmed but otherwise untouched.
func NormalizeCategory(kind Kind, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	fold := cases.Fold()
	needle := fold.String(trimmed)
	for _, e := range catalogFor(kind) {
		if fold.String(e.key) == needle {
			return e.key
		}
		for _, l := range e.labels {
			if fold.String(l) == needle {
				return e.key
			}
		}
		for _, a := range e.aliases {
			if fold.String(a) == needle {
				return e.key
			}
		}
	}
	return trimmed
}

// IsKnownCategory reports whether key is a canonical key of kind.
func IsKnownCategory(kind Kind, key string) bool {
	for _, e := range catalogFor(kind) {
		if e.key == key {
			return true
		}
	}
	return false
}

// CategoryLabel returns the localized label of a canonical key, or the key
// itself when it is not in the catalog.
func CategoryLabel(kind Kind, key string, loc Locale) string {
	for _, e := range catalogFor(kind) {
		if e.key != key {
			continue
		}
		if l, ok := e.labels[loc]; ok {
			return l
		}
		return e.labels[English]
	}
	return key
}
