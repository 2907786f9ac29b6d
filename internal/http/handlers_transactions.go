package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"moneybook/internal/core"
	"moneybook/internal/importer"
	applog "moneybook/internal/log"
	"moneybook/internal/services"
)

type transactionResponse struct {
	ID          int64       `json:"id"`
	Kind        core.Kind   `json:"kind"`
	Amount      float64     `json:"amount"`
	Category    string      `json:"category"`
	Date        core.Date   `json:"date"`
	Description string      `json:"description"`
	Notes       string      `json:"notes,omitempty"`
	Source      core.Source `json:"source"`
	ExternalID  string      `json:"external_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Kind:        t.Kind,
		Amount:      t.Amount.Dollars(),
		Category:    t.Category,
		Date:        t.Date,
		Description: t.Description,
		Notes:       t.Notes,
		Source:      t.Source,
		ExternalID:  t.ExternalID,
		CreatedAt:   t.CreatedAt,
	}
}

type importSummaryResponse struct {
	BatchID      string  `json:"batch_id"`
	Income       int     `json:"income"`
	IncomeTotal  float64 `json:"income_total"`
	Expense      int     `json:"expense"`
	ExpenseTotal float64 `json:"expense_total"`
}

func newImportSummaryResponse(s importer.Summary) importSummaryResponse {
	return importSummaryResponse{
		BatchID:      s.BatchID,
		Income:       s.Income,
		IncomeTotal:  s.IncomeTotal.Dollars(),
		Expense:      s.Expense,
		ExpenseTotal: s.ExpenseTotal.Dollars(),
	}
}

// kindFromPath maps /income and /expenses onto a transaction kind.
func kindFromPath(r *http.Request) (core.Kind, error) {
	return core.ParseKind(strings.Trim(r.URL.Path, "/"))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := kindFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Amount      amount    `json:"amount"`
		Category    string    `json:"category"`
		Date        core.Date `json:"date"`
		Description string    `json:"description"`
		Notes       string    `json:"notes"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Amount.set {
		writeError(w, r, core.ErrInvalidAmount)
		return
	}

	t, err := s.deps.Transactions.Create(r.Context(), uid, services.TransactionInput{
		Kind:        kind,
		Amount:      req.Amount.Money,
		Category:    sanitizeInput(req.Category),
		Date:        req.Date,
		Description: sanitizeInput(req.Description),
		Notes:       sanitizeInput(req.Notes),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.countCreated()
	writeJSON(w, http.StatusCreated, newTransactionResponse(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := kindFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := ParseListPeriod(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.deps.Transactions.List(r.Context(), uid, kind, period)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]transactionResponse, 0, len(txs))
	var total core.Money
	for _, t := range txs {
		items = append(items, newTransactionResponse(t))
		total = total.Add(t.Amount)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":         kind,
		"transactions": items,
		"count":        len(items),
		"total":        total.Dollars(),
	})
}

type importItem struct {
	ExternalID  string    `json:"external_id"`
	Date        core.Date `json:"date"`
	Amount      amount    `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Kind        string    `json:"kind"`
}

// handleImport stores a batch of transactions supplied by the client.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Transactions []importItem `json:"transactions"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]importer.Transaction, 0, len(req.Transactions))
	for i, it := range req.Transactions {
		kind, err := core.ParseKind(it.Kind)
		if err != nil {
			writeError(w, r, fmt.Errorf("item %d: %w", i, err))
			return
		}
		items = append(items, importer.Transaction{
			ExternalID:  sanitizeInput(it.ExternalID),
			Date:        it.Date,
			Amount:      it.Amount.Money,
			Description: sanitizeInput(it.Description),
			Category:    sanitizeInput(it.Category),
			Kind:        kind,
		})
	}
	s.runImport(w, r, uid, core.SourceImport, items)
}

// handleImportSource pulls the bills of a payment app and imports them.
// The optional from/to query parameters are passed to the provider.
func (s *Server) handleImportSource(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	provider, err := importer.Lookup(r.PathValue("source"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var from, to core.Date
	for key, dst := range map[string]*core.Date{"from": &from, "to": &to} {
		if v := r.URL.Query().Get(key); v != "" {
			if *dst, err = core.ParseDate(v); err != nil {
				writeError(w, r, err)
				return
			}
		}
	}
	items, err := provider.Fetch(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.runImport(w, r, uid, provider.Source(), items)
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, uid int64, source core.Source, items []importer.Transaction) {
	summary, err := s.deps.Transactions.Import(r.Context(), uid, source, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.countImported(summary.Income + summary.Expense)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Import completed",
		applog.FieldUserID, uid,
		applog.FieldSource, source,
		applog.FieldCount, summary.Income+summary.Expense)
	writeJSON(w, http.StatusCreated, newImportSummaryResponse(summary))
}
