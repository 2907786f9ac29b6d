package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"moneybook/internal/core"
	"moneybook/internal/store"
)

type reportKey struct {
	userID      int64
	year, month int
}

// Store keeps everything in process memory. It is meant for development and
// tests; data is lost on restart.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	txs     []core.Transaction
	users   []core.User
	goals   map[int64]core.Goal
	reports map[reportKey]core.Report
	now     func() time.Time
}

func New() *Store {
	return &Store{
		goals:   make(map[int64]core.Goal),
		reports: make(map[reportKey]core.Report),
		now:     time.Now,
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// InsertTransaction stores the transaction and assigns it an id.
func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64, kind core.Kind, period core.Period) ([]core.Transaction, error) {
	bounded := !period.Start.IsZero()
	s.mu.Lock()
	out := make([]core.Transaction, 0)
	for _, t := range s.txs {
		if t.UserID != userID || t.Kind != kind {
			continue
		}
		if bounded && !period.Contains(t.Date) {
			continue
		}
		out = append(out, t)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) || existing.Username == u.Username {
			return core.User{}, fmt.Errorf("user %s: %w", u.Email, store.ErrConflict)
		}
	}
	u.ID = s.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

func (s *Store) UpdatePreferences(_ context.Context, id int64, prefs core.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].Preferences = prefs
			return nil
		}
	}
	return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User(nil), s.users...), nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.id()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now().UTC()
	}
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, id int64) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return core.Goal{}, fmt.Errorf("goal %d: %w", id, store.ErrNotFound)
	}
	return g, nil
}

// ListGoals returns the user's goals, newest first.
func (s *Store) ListGoals(_ context.Context, userID int64) ([]core.Goal, error) {
	s.mu.Lock()
	out := make([]core.Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[g.ID]
	if !ok {
		return core.Goal{}, fmt.Errorf("goal %d: %w", g.ID, store.ErrNotFound)
	}
	g.UserID = existing.UserID
	g.CreatedAt = existing.CreatedAt
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return fmt.Errorf("goal %d: %w", id, store.ErrNotFound)
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) UpsertReport(_ context.Context, r core.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[reportKey{r.UserID, r.Year, r.Month}] = r
	return nil
}

func (s *Store) GetReport(_ context.Context, userID int64, year, month int) (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[reportKey{userID, year, month}]
	if !ok {
		return core.Report{}, fmt.Errorf("report %d/%04d-%02d: %w", userID, year, month, store.ErrNotFound)
	}
	return r, nil
}
