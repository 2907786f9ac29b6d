package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"moneybook/internal/cache"
	"moneybook/internal/core"
	"moneybook/internal/store"
)

const (
	DefaultAnalysisTTL  = 5 * time.Minute
	defaultAnalysisSize = 200
)

// AnalysisService builds period analyses and caches them per user and period.
type AnalysisService struct {
	store store.TransactionStore
	cache cache.Cache[core.Analysis]

	// generations counts invalidations per user. An analysis is cached only
	// if no invalidation happened while it was computed.
	mu          sync.Mutex
	generations map[int64]uint64
}

// NewAnalysisService uses c for caching, or a fresh LRU when c is nil.
func NewAnalysisService(s store.TransactionStore, c cache.Cache[core.Analysis]) *AnalysisService {
	if c == nil {
		c = cache.NewLRUCache[core.Analysis](defaultAnalysisSize, DefaultAnalysisTTL)
	}
	return &AnalysisService{store: s, cache: c, generations: make(map[int64]uint64)}
}

func (s *AnalysisService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// remember caches a unless the user's data changed since gen was read.
func (s *AnalysisService) remember(userID int64, gen uint64, period core.Period, a core.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		return
	}
	s.cache.Set(analysisKey(userID, period), a)
}

func userPrefix(userID int64) string {
	return fmt.Sprintf("analysis:%d:", userID)
}

func analysisKey(userID int64, p core.Period) string {
	return userPrefix(userID) + p.Start.String() + ":" + p.End.String()
}

// Analyze loads income and expenses concurrently and summarises them.
func (s *AnalysisService) Analyze(ctx context.Context, userID int64, period core.Period) (core.Analysis, error) {
	if err := period.Validate(); err != nil {
		return core.Analysis{}, err
	}
	if a, ok := s.cache.Get(analysisKey(userID, period)); ok {
		return a, nil
	}

	gen := s.generation(userID)
	a, err := s.compute(ctx, userID, period)
	if err != nil {
		return core.Analysis{}, err
	}
	s.remember(userID, gen, period, a)
	return a, nil
}

func (s *AnalysisService) compute(ctx context.Context, userID int64, period core.Period) (core.Analysis, error) {
	var income, expense []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.store.ListTransactions(gctx, userID, core.Income, period)
		if err != nil {
			return fmt.Errorf("load income: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expense, err = s.store.ListTransactions(gctx, userID, core.Expense, period)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Analysis{}, err
	}

	a := core.Analyze(income, expense, period)
	slog.DebugContext(ctx, "Analysis computed",
		"user_id", userID,
		"period_start", period.Start.String(),
		"income_categories", len(a.Income),
		"expense_categories", len(a.Expense))
	return a, nil
}

// Statistics returns the category breakdown of one kind.
func (s *AnalysisService) Statistics(ctx context.Context, userID int64, kind core.Kind, period core.Period) ([]core.CategoryAggregate, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	a, err := s.Analyze(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	if kind == core.Income {
		return a.Income, nil
	}
	return a.Expense, nil
}

// MonthlyReport recomputes a month from storage, bypassing the cache.
func (s *AnalysisService) MonthlyReport(ctx context.Context, userID int64, year, month int, at time.Time) (core.Report, error) {
	if month < 1 || month > 12 {
		return core.Report{}, core.ErrInvalidMonth
	}
	period := core.MonthPeriod(year, month)
	gen := s.generation(userID)
	a, err := s.compute(ctx, userID, period)
	if err != nil {
		return core.Report{}, err
	}
	s.remember(userID, gen, period, a)
	return a.Report(userID, year, month, at), nil
}

// CacheStats reports the traffic of the analysis cache.
func (s *AnalysisService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Invalidate drops every cached analysis of the user.
func (s *AnalysisService) Invalidate(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++
	s.cache.DeletePrefix(userPrefix(userID))
}
