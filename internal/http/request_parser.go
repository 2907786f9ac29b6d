// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, period query parameters, path ids and amounts.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON document into dst. Malformed bodies are
// reported as bad requests; amount errors keep their domain meaning.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrInvalidDate) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// amount accepts a JSON number or a decimal string ("12.50", "12,50") and
// holds it as exact cents. Zero is accepted here; the services decide
// whether zero is valid.
type amount struct {
	core.Money
	set bool
}

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.ReplaceAll(strings.Trim(s, `"`), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return core.ErrInvalidAmount
	}
	a.Money = core.Money{Cents: d.Shift(2).Round(0).IntPart()}
	a.set = true
	return nil
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

func atoiParam(query url.Values, key string) (int, bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be a number", errBadRequest, key)
	}
	return n, true, nil
}

// ParseMonthParams extracts year and month from query parameters, using
// the current month for missing values.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}
	if y, ok, err := atoiParam(query, "year"); err != nil {
		return MonthParams{}, err
	} else if ok {
		params.Year = y
	}
	if m, ok, err := atoiParam(query, "month"); err != nil {
		return MonthParams{}, err
	} else if ok {
		params.Month = m
	}
	if params.Month < 1 || params.Month > 12 {
		return MonthParams{}, core.ErrInvalidMonth
	}
	if params.Year < 1 || params.Year > 9999 {
		return MonthParams{}, core.ErrInvalidDate
	}
	return params, nil
}

// ParseListPeriod reads the optional filter of a list request: either an
// explicit from/to date range or year/month. No parameters means no bound;
// a year alone covers the whole year; a month alone refers to the current
// year.
func ParseListPeriod(query url.Values, now time.Time) (core.Period, error) {
	if query.Get("from") != "" || query.Get("to") != "" {
		from, err := core.ParseDate(query.Get("from"))
		if err != nil {
			return core.Period{}, err
		}
		to, err := core.ParseDate(query.Get("to"))
		if err != nil {
			return core.Period{}, err
		}
		p := core.Period{Start: from, End: to}
		if err := p.Validate(); err != nil {
			return core.Period{}, err
		}
		return p, nil
	}
	if query.Get("year") == "" && query.Get("month") == "" {
		return core.Period{}, nil
	}
	if query.Get("month") == "" {
		y, _, err := atoiParam(query, "year")
		if err != nil {
			return core.Period{}, err
		}
		if y < 1 || y > 9999 {
			return core.Period{}, core.ErrInvalidDate
		}
		return core.Period{Start: core.NewDate(y, 1, 1), End: core.NewDate(y, 12, 31)}, nil
	}
	mp, err := ParseMonthParams(query, now)
	if err != nil {
		return core.Period{}, err
	}
	return core.MonthPeriod(mp.Year, mp.Month), nil
}

// parseCurrencyParam validates the optional currency parameter, falling
// back to the given default.
func parseCurrencyParam(query url.Values, fallback core.CurrencyCode) (core.CurrencyCode, error) {
	v := strings.TrimSpace(query.Get("currency"))
	if v == "" {
		if fallback.Valid() {
			return fallback, nil
		}
		return core.CanonicalCurrency, nil
	}
	return core.ParseCurrency(v)
}

// parseID reads a positive numeric path parameter.
func parseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return id, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
