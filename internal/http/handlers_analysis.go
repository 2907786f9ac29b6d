package http

import (
	"net/http"
	"strings"

	"moneybook/internal/advisor"
	"moneybook/internal/core"
	applog "moneybook/internal/log"
)

type periodResponse struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

type categoryResponse struct {
	Category   string  `json:"category"`
	Label      string  `json:"label"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Display    string  `json:"display"`
}

type summaryResponse struct {
	TotalIncome  float64           `json:"total_income"`
	TotalExpense float64           `json:"total_expense"`
	Balance      float64           `json:"balance"`
	SavingsRate  float64           `json:"savings_rate"`
	Display      map[string]string `json:"display"`
}

func newCategoryResponses(kind core.Kind, aggs []core.CategoryAggregate, cur core.CurrencyCode, loc core.Locale) []categoryResponse {
	out := make([]categoryResponse, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, categoryResponse{
			Category:   a.Category,
			Label:      core.CategoryLabel(kind, a.Category, loc),
			Total:      a.Total.Dollars(),
			Percentage: a.Percentage,
			Display:    core.FormatCanonical(a.Total, cur),
		})
	}
	return out
}

func newSummaryResponse(p core.PeriodSummary, cur core.CurrencyCode) summaryResponse {
	return summaryResponse{
		TotalIncome:  p.TotalIncome.Dollars(),
		TotalExpense: p.TotalExpense.Dollars(),
		Balance:      p.Balance.Dollars(),
		SavingsRate:  p.SavingsRate,
		Display: map[string]string{
			"total_income":  core.FormatCanonical(p.TotalIncome, cur),
			"total_expense": core.FormatCanonical(p.TotalExpense, cur),
			"balance":       core.FormatCanonical(p.Balance, cur),
		},
	}
}

// viewSettings resolves the display currency and locale of a request from
// the query string and the user's preferences.
func (s *Server) viewSettings(r *http.Request, uid int64) (core.CurrencyCode, core.Locale, error) {
	prefs, err := s.deps.Users.Preferences(r.Context(), uid)
	if err != nil {
		return "", "", err
	}
	cur, err := parseCurrencyParam(r.URL.Query(), prefs.Currency)
	if err != nil {
		return "", "", err
	}
	return cur, resolveLocale(r, r.URL.Query().Get("locale"), prefs), nil
}

// resolveLocale picks an explicit locale first, then Accept-Language, then
// the stored preference.
func resolveLocale(r *http.Request, explicit string, prefs core.Preferences) core.Locale {
	if v := strings.TrimSpace(explicit); v != "" {
		return advisor.Resolve(v)
	}
	if v := r.Header.Get("Accept-Language"); v != "" {
		return advisor.Resolve(v)
	}
	if prefs.Locale != "" {
		return prefs.Locale
	}
	return core.English
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	mp, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	cur, loc, err := s.viewSettings(r, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	period := core.MonthPeriod(mp.Year, mp.Month)
	a, err := s.deps.Analysis.Analyze(r.Context(), uid, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period":            periodResponse{Start: period.Start, End: period.End},
		"currency":          cur,
		"locale":            loc,
		"summary":           newSummaryResponse(a.Summary, cur),
		"categories":        newCategoryResponses(core.Expense, a.Expense, cur, loc),
		"income_categories": newCategoryResponses(core.Income, a.Income, cur, loc),
	})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind := core.Expense
	if v := r.URL.Query().Get("kind"); v != "" {
		if kind, err = core.ParseKind(v); err != nil {
			writeError(w, r, err)
			return
		}
	}
	mp, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	cur, loc, err := s.viewSettings(r, uid)
	if err != nil {
		writeError(w, r, err)
		return
	}

	period := core.MonthPeriod(mp.Year, mp.Month)
	aggs, err := s.deps.Analysis.Statistics(r.Context(), uid, kind, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total := core.TotalOf(aggs)
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":          kind,
		"period":        periodResponse{Start: period.Start, End: period.End},
		"currency":      cur,
		"total":         total.Dollars(),
		"total_display": core.FormatCanonical(total, cur),
		"categories":    newCategoryResponses(kind, aggs, cur, loc),
	})
}

// handleAdvice answers a question about the current month. When the
// analysis cannot be built the canned "unavailable" text is returned.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Question string `json:"question"`
		Locale   string `json:"locale"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := s.deps.Users.Preferences(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loc := resolveLocale(r, req.Locale, prefs)
	cur := prefs.Currency
	if !cur.Valid() {
		cur = core.CanonicalCurrency
	}
	w.Header().Set("Content-Language", advisor.Tag(loc).String())

	now := s.now()
	a, err := s.deps.Analysis.Analyze(r.Context(), uid, core.MonthPeriod(now.Year(), int(now.Month())))
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Advice analysis failed",
			applog.FieldUserID, uid,
			applog.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, advisor.Unavailable(loc)).Write(w)
		return
	}
	writeJSON(w, http.StatusOK, advisor.Advise(sanitizeInput(req.Question), a, cur, loc))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := s.deps.Users.Preferences(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loc := resolveLocale(r, r.URL.Query().Get("locale"), prefs)
	w.Header().Set("Content-Language", advisor.Tag(loc).String())
	writeJSON(w, http.StatusOK, map[string]any{
		"locale":      loc,
		"suggestions": advisor.Suggestions(loc),
		"questions":   advisor.Questions(loc),
	})
}
