package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"moneybook/internal/amqp"
	"moneybook/internal/core"
	"moneybook/internal/importer"
	"moneybook/internal/store"
)

// TransactionInput is what a caller supplies to record a transaction.
type TransactionInput struct {
	Kind        core.Kind
	Amount      core.Money
	Category    string
	Date        core.Date
	Description string
	Notes       string
}

// TransactionService records transactions, then tells the cache and the
// report worker about it.
type TransactionService struct {
	store  store.TransactionStore
	events EventPublisher
	cache  CacheInvalidator
	today  func() core.Date
}

func NewTransactionService(s store.TransactionStore, events EventPublisher, cache CacheInvalidator) *TransactionService {
	return &TransactionService{store: s, events: events, cache: cache, today: core.Today}
}

func (s *TransactionService) build(userID int64, in TransactionInput, source core.Source) (core.Transaction, error) {
	if err := in.Kind.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		UserID:      userID,
		Kind:        in.Kind,
		Amount:      in.Amount,
		Category:    core.NormalizeCategory(in.Kind, in.Category),
		Date:        in.Date,
		Description: strings.TrimSpace(in.Description),
		Notes:       strings.TrimSpace(in.Notes),
		Source:      source,
	}
	if t.Date.IsZero() {
		t.Date = s.today()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Create saves a manual transaction. Publishing the change event is best
// effort; the saved transaction is returned even when it fails.
func (s *TransactionService) Create(ctx context.Context, userID int64, in TransactionInput) (core.Transaction, error) {
	t, err := s.build(userID, in, core.SourceManual)
	if err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", saved.ID,
		"user_id", userID,
		"kind", saved.Kind,
		"category", saved.Category,
		"amount_cents", saved.Amount.Cents)

	s.changed(ctx, userID, []core.Transaction{saved})
	return saved, nil
}

// List returns a user's transactions of one kind, newest first. A zero period
// lists everything.
func (s *TransactionService) List(ctx context.Context, userID int64, kind core.Kind, period core.Period) ([]core.Transaction, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if !period.Start.IsZero() {
		if err := period.Validate(); err != nil {
			return nil, err
		}
	}
	txs, err := s.store.ListTransactions(ctx, userID, kind, period)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Import validates every item before storing any of them, then stores them
// one by one with an "Imported from" note.
func (s *TransactionService) Import(ctx context.Context, userID int64, source core.Source, items []importer.Transaction) (importer.Summary, error) {
	summary := importer.Summary{BatchID: uuid.NewString()}
	if len(items) == 0 {
		return summary, nil
	}

	txs := make([]core.Transaction, 0, len(items))
	for i, item := range items {
		if item.Date.IsZero() {
			return importer.Summary{}, fmt.Errorf("item %d: %w", i, core.ErrInvalidDate)
		}
		src := item.Source
		if src == "" {
			src = source
		}
		t, err := s.build(userID, TransactionInput{
			Kind:        item.Kind,
			Amount:      item.Amount,
			Category:    item.Category,
			Date:        item.Date,
			Description: item.Description,
			Notes:       "Imported from " + string(src),
		}, src)
		if err != nil {
			return importer.Summary{}, fmt.Errorf("item %d: %w", i, err)
		}
		t.ExternalID = item.ExternalID
		txs = append(txs, t)
	}

	saved := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		st, err := s.store.InsertTransaction(ctx, t)
		if err != nil {
			s.changed(ctx, userID, saved)
			return importer.Summary{}, fmt.Errorf("save imported transaction %s: %w", t.ExternalID, err)
		}
		saved = append(saved, st)
		summary.Add(st)
	}

	slog.InfoContext(ctx, "Transactions imported",
		"batch_id", summary.BatchID,
		"user_id", userID,
		"source", source,
		"income", summary.Income,
		"expense", summary.Expense)

	s.changed(ctx, userID, saved)
	return summary, nil
}

type monthKind struct {
	year, month int
	kind        core.Kind
}

// changed invalidates cached analyses and publishes one event per touched
// month and kind.
func (s *TransactionService) changed(ctx context.Context, userID int64, txs []core.Transaction) {
	if len(txs) == 0 {
		return
	}
	if s.cache != nil {
		s.cache.Invalidate(userID)
	}
	if s.events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping transaction event")
		return
	}

	counts := make(map[monthKind]int)
	var order []monthKind
	for _, t := range txs {
		k := monthKind{t.Date.Year(), int(t.Date.Month()), t.Kind}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	for _, k := range order {
		event := amqp.NewTransactionEvent(userID, k.year, k.month, string(k.kind), counts[k])
		if err := s.events.PublishTransactionChanged(ctx, event); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction event",
				"user_id", userID,
				"year", k.year,
				"month", k.month,
				"error", err)
		}
	}
}
