// Package store persists users, transactions, goals and recurring
// templates behind narrow interfaces so handlers and workers depend on
// capabilities, not on SQLite.
package store

import (
	"context"
	"errors"
	"time"

	"finview/internal/core"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a user email already exists.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserStore manages local account profiles.
type UserStore interface {
	CreateUser(ctx context.Context, email, hashedPassword, fullName string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

// TransactionStore manages a user's dated monetary events.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	ListTransactionsByPeriod(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
}

// GoalStore manages savings goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, goal core.Goal) (core.Goal, error)
	ListGoals(ctx context.Context, userID int64) ([]core.Goal, error)
	UpdateGoalAmount(ctx context.Context, userID, id int64, current core.Money) error
	DeleteGoal(ctx context.Context, userID, id int64) error
}

// RecurringStore manages monthly transaction templates.
type RecurringStore interface {
	CreateRecurring(ctx context.Context, rec core.RecurringTransaction) (core.RecurringTransaction, error)
	ListActiveRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
	MarkRecurringRun(ctx context.Context, id int64, at time.Time) error
}

// Store is the full persistence surface the application wires up.
type Store interface {
	UserStore
	TransactionStore
	GoalStore
	RecurringStore

	Health(ctx context.Context) error
	Close() error
}
