package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finview/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testUser(t *testing.T, repo *SQLiteRepository) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), "user@example.com", "hashed", "Test User")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := testUser(t, repo)
	if created.ID == 0 {
		t.Fatal("CreateUser() returned zero ID")
	}
	if !created.IsActive {
		t.Fatal("new user should be active")
	}

	got, err := repo.GetUserByEmail(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != created.ID || got.Email != created.Email || got.FullName != "Test User" {
		t.Fatalf("GetUserByEmail() = %+v, want %+v", got, created)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	testUser(t, repo)
	if _, err := repo.CreateUser(ctx, "user@example.com", "other", "Other"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("CreateUser(duplicate) error = %v, want ErrDuplicateEmail", err)
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUserByEmail(missing) error = %v, want ErrNotFound", err)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := testUser(t, repo)

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:      user.ID,
		Date:        time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		Description: "groceries",
		Amount:      core.Money{Cents: 4250},
		Kind:        core.Expense,
		Category:    "food",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if tx.ID == 0 {
		t.Fatal("CreateTransaction() returned zero ID")
	}

	list, err := repo.ListTransactions(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListTransactions() returned %d rows, want 1", len(list))
	}
	got := list[0]
	if got.Description != "groceries" || got.Amount.Cents != 4250 || got.Kind != core.Expense {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Date.Equal(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date round trip = %v", got.Date)
	}

	if err := repo.DeleteTransaction(ctx, user.ID, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if err := repo.DeleteTransaction(ctx, user.ID, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteTransaction(gone) error = %v, want ErrNotFound", err)
	}
}

func TestListTransactionsByPeriod(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := testUser(t, repo)

	dates := []time.Time{
		time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{
			UserID:      user.ID,
			Date:        d,
			Description: "entry",
			Amount:      core.Money{Cents: 100},
			Kind:        core.Expense,
		}); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	got, err := repo.ListTransactionsByPeriod(ctx, user.ID,
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListTransactionsByPeriod() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("period query returned %d rows, want 2 (bounds inclusive)", len(got))
	}
}

func TestTransactionsScopedToUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := testUser(t, repo)
	bob, err := repo.CreateUser(ctx, "bob@example.com", "hashed", "Bob")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:      alice.ID,
		Date:        time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		Description: "private",
		Amount:      core.Money{Cents: 100},
		Kind:        core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	list, err := repo.ListTransactions(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("bob sees %d of alice's transactions", len(list))
	}
	if err := repo.DeleteTransaction(ctx, bob.ID, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-user delete error = %v, want ErrNotFound", err)
	}
}

func TestGoalLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := testUser(t, repo)

	goal, err := repo.CreateGoal(ctx, core.Goal{
		UserID:       user.ID,
		Name:         "emergency fund",
		Description:  "six months of expenses",
		TargetAmount: core.Money{Cents: 1000000},
		Deadline:     time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}

	if err := repo.UpdateGoalAmount(ctx, user.ID, goal.ID, core.Money{Cents: 250000}); err != nil {
		t.Fatalf("UpdateGoalAmount() error = %v", err)
	}

	goals, err := repo.ListGoals(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("ListGoals() returned %d rows, want 1", len(goals))
	}
	g := goals[0]
	if g.CurrentAmount.Cents != 250000 {
		t.Fatalf("current amount = %d, want 250000", g.CurrentAmount.Cents)
	}
	if g.Deadline.IsZero() {
		t.Fatal("deadline lost in round trip")
	}

	if err := repo.DeleteGoal(ctx, user.ID, goal.ID); err != nil {
		t.Fatalf("DeleteGoal() error = %v", err)
	}
	if err := repo.DeleteGoal(ctx, user.ID, goal.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteGoal(gone) error = %v, want ErrNotFound", err)
	}
}

func TestRecurringLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := testUser(t, repo)

	rec, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		UserID:      user.ID,
		Description: "monthly rent",
		Amount:      core.Money{Cents: 120000},
		Kind:        core.Expense,
		Category:    "housing",
		DayOfMonth:  1,
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	active, err := repo.ListActiveRecurring(ctx)
	if err != nil {
		t.Fatalf("ListActiveRecurring() error = %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("ListActiveRecurring() returned %d rows, want 1", len(active))
	}
	if !active[0].LastRunAt.IsZero() {
		t.Fatalf("fresh template should have zero LastRunAt, got %v", active[0].LastRunAt)
	}

	ranAt := time.Date(2024, time.March, 1, 6, 0, 0, 0, time.UTC)
	if err := repo.MarkRecurringRun(ctx, rec.ID, ranAt); err != nil {
		t.Fatalf("MarkRecurringRun() error = %v", err)
	}

	active, err = repo.ListActiveRecurring(ctx)
	if err != nil {
		t.Fatalf("ListActiveRecurring() error = %v", err)
	}
	if !active[0].LastRunAt.Equal(ranAt) {
		t.Fatalf("LastRunAt = %v, want %v", active[0].LastRunAt, ranAt)
	}
}

func TestHealth(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
}
