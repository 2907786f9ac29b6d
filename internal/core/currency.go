package core

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CurrencyCode is an ISO 4217 code from the supported set.
type CurrencyCode string

const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	GBP CurrencyCode = "GBP"
	JPY CurrencyCode = "JPY"
	CNY CurrencyCode = "CNY"
)

// CanonicalCurrency is the currency every stored amount is expressed in.
const CanonicalCurrency = USD

const fallbackSymbol = "$"

type currencyInfo struct {
	rate        decimal.Decimal // units per 1 USD
	symbol      string
	zeroDecimal bool
}

// Static table; there is no live-rate source.
var currencies = map[CurrencyCode]currencyInfo{
	USD: {rate: decimal.NewFromInt(1), symbol: "$"},
	EUR: {rate: decimal.RequireFromString("0.93"), symbol: "€"},
	GBP: {rate: decimal.RequireFromString("0.80"), symbol: "£"},
	JPY: {rate: decimal.RequireFromString("155.67"), symbol: "¥", zeroDecimal: true},
	CNY: {rate: decimal.RequireFromString("7.24"), symbol: "¥", zeroDecimal: true},
}

// Currencies lists the supported codes in display order.
func Currencies() []CurrencyCode {
	return []CurrencyCode{USD, EUR, GBP, JPY, CNY}
}

// ParseCurrency validates a currency code, case-insensitively.
func ParseCurrency(s string) (CurrencyCode, error) {
	c := CurrencyCode(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := currencies[c]; !ok {
		return "", ErrUnknownCurrency
	}
	return c, nil
}

func (c CurrencyCode) Valid() bool {
	_, ok := currencies[c]
	return ok
}

// Symbol returns the display symbol, "$" for unknown codes.
func Symbol(c CurrencyCode) string {
	if info, ok := currencies[c]; ok {
		return info.symbol
	}
	return fallbackSymbol
}

// Rate returns units of c per 1 USD.
func Rate(c CurrencyCode) (float64, bool) {
	info, ok := currencies[c]
	if !ok {
		return 0, false
	}
	f, _ := info.rate.Float64()
	return f, true
}

// Convert converts amount from one currency to another through the static
// USD-relative rate table and rounds to two decimals. It never fails: NaN or
// infinite amounts and unknown codes yield 0. Same-currency conversion
// returns the amount unchanged.
func Convert(amount float64, from, to CurrencyCode) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	if from == to {
		return amount
	}
	src, ok := currencies[from]
	if !ok {
		return 0
	}
	dst, ok := currencies[to]
	if !ok {
		return 0
	}
	v, _ := decimal.NewFromFloat(amount).Div(src.rate).Mul(dst.rate).Round(2).Float64()
	return v
}

// Format renders amount in currency without converting it. JPY and CNY are
// rounded to whole units and grouped by thousands; other currencies get two
// decimals. The symbol always comes first, so negatives read "$-50.00".
// NaN and infinities render as symbol + "0.00".
func Format(amount float64, currency CurrencyCode) string {
	info, ok := currencies[currency]
	if !ok {
		info = currencyInfo{symbol: fallbackSymbol}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return info.symbol + "0.00"
	}
	if info.zeroDecimal {
		return info.symbol + humanize.BigComma(decimal.NewFromFloat(amount).Round(0).BigInt())
	}
	return info.symbol + decimal.NewFromFloat(amount).StringFixed(2)
}

// FormatCanonical converts a stored amount into currency and formats it.
func FormatCanonical(m Money, currency CurrencyCode) string {
	return Format(Convert(m.Dollars(), CanonicalCurrency, currency), currency)
}

// ConvertMoney is Convert for canonical amounts.
func ConvertMoney(m Money, to CurrencyCode) float64 {
	return Convert(m.Dollars(), CanonicalCurrency, to)
}
