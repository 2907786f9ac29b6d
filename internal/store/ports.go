// Package store declares the persistence ports the services depend on.
// Backends live in internal/store/memory and internal/storage.
package store

import (
	"context"
	"errors"

	"moneybook/internal/core"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type (
	// TransactionStore supplies and records income and expense entries.
	TransactionStore interface {
		InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// ListTransactions returns one kind of transaction for a user, newest
		// first. A zero period means no date bound.
		ListTransactions(ctx context.Context, userID int64, kind core.Kind, period core.Period) ([]core.Transaction, error)
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		UpdatePreferences(ctx context.Context, id int64, prefs core.Preferences) error
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		GetGoal(ctx context.Context, id int64) (core.Goal, error)
		ListGoals(ctx context.Context, userID int64) ([]core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		DeleteGoal(ctx context.Context, id int64) error
	}

	// ReportStore keeps one monthly report per user and month.
	ReportStore interface {
		UpsertReport(ctx context.Context, r core.Report) error
		GetReport(ctx context.Context, userID int64, year, month int) (core.Report, error)
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionStore
		UserStore
		GoalStore
		ReportStore
		Ping(ctx context.Context) error
		Close() error
	}
)
