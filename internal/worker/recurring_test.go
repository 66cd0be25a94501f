package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finview/internal/core"
	"finview/internal/log"
)

type fakeRecurringStore struct {
	templates []core.RecurringTransaction
	marked    map[int64]time.Time
	listErr   error
}

func (f *fakeRecurringStore) CreateRecurring(ctx context.Context, rec core.RecurringTransaction) (core.RecurringTransaction, error) {
	return rec, nil
}

func (f *fakeRecurringStore) ListActiveRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	return f.templates, f.listErr
}

func (f *fakeRecurringStore) MarkRecurringRun(ctx context.Context, id int64, at time.Time) error {
	if f.marked == nil {
		f.marked = make(map[int64]time.Time)
	}
	f.marked[id] = at
	return nil
}

type fakeTxStore struct {
	created   []core.Transaction
	createErr error
}

func (f *fakeTxStore) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	tx.ID = int64(len(f.created) + 1)
	f.created = append(f.created, tx)
	return tx, nil
}

func (f *fakeTxStore) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return f.created, nil
}

func (f *fakeTxStore) ListTransactionsByPeriod(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error) {
	return nil, nil
}

func (f *fakeTxStore) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return nil
}

type fakePublisher struct {
	events []int64
}

func (f *fakePublisher) PublishTransactionCreated(ctx context.Context, userID, transactionID int64, year, month int) error {
	f.events = append(f.events, transactionID)
	return nil
}

func newTestProcessor(rec *fakeRecurringStore, txs *fakeTxStore, pub EventPublisher) *RecurringProcessor {
	return &RecurringProcessor{
		recurring: rec,
		txs:       txs,
		publisher: pub,
		logger:    log.New(log.DefaultConfig()),
		now:       time.Now,
	}
}

func template(id int64, day int, lastRun time.Time) core.RecurringTransaction {
	return core.RecurringTransaction{
		ID:          id,
		UserID:      7,
		Description: "monthly rent",
		Amount:      core.Money{Cents: 120000},
		Kind:        core.Expense,
		Category:    "housing",
		DayOfMonth:  day,
		IsActive:    true,
		LastRunAt:   lastRun,
	}
}

func TestProcessDueCreatesTransaction(t *testing.T) {
	rec := &fakeRecurringStore{templates: []core.RecurringTransaction{template(1, 5, time.Time{})}}
	txs := &fakeTxStore{}
	pub := &fakePublisher{}
	p := newTestProcessor(rec, txs, pub)
	p.now = func() time.Time { return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC) }

	created, err := p.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	tx := txs.created[0]
	if !tx.Date.Equal(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("transaction date = %v, want 2024-03-05", tx.Date)
	}
	if tx.UserID != 7 || tx.Amount.Cents != 120000 || tx.Kind != core.Expense {
		t.Fatalf("transaction fields wrong: %+v", tx)
	}
	if _, ok := rec.marked[1]; !ok {
		t.Fatal("template not marked as run")
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
}

func TestProcessDueSkipsBeforeRunDay(t *testing.T) {
	rec := &fakeRecurringStore{templates: []core.RecurringTransaction{template(1, 15, time.Time{})}}
	txs := &fakeTxStore{}
	p := newTestProcessor(rec, txs, nil)
	p.now = func() time.Time { return time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC) }

	created, err := p.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0 before run day", created)
	}
}

func TestProcessDueSkipsAlreadyRunThisMonth(t *testing.T) {
	lastRun := time.Date(2024, time.March, 5, 6, 0, 0, 0, time.UTC)
	rec := &fakeRecurringStore{templates: []core.RecurringTransaction{template(1, 5, lastRun)}}
	txs := &fakeTxStore{}
	p := newTestProcessor(rec, txs, nil)
	p.now = func() time.Time { return time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC) }

	created, err := p.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0 when already run this month", created)
	}
}

func TestProcessDueRunsAgainNextMonth(t *testing.T) {
	lastRun := time.Date(2024, time.February, 5, 6, 0, 0, 0, time.UTC)
	rec := &fakeRecurringStore{templates: []core.RecurringTransaction{template(1, 5, lastRun)}}
	txs := &fakeTxStore{}
	p := newTestProcessor(rec, txs, nil)
	p.now = func() time.Time { return time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC) }

	created, err := p.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1 in a new month", created)
	}
}

func TestProcessDueClampsToShortMonth(t *testing.T) {
	rec := &fakeRecurringStore{templates: []core.RecurringTransaction{template(1, 31, time.Time{})}}
	txs := &fakeTxStore{}
	p := newTestProcessor(rec, txs, nil)
	p.now = func() time.Time { return time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC) }

	created, err := p.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1 (day 31 clamps to Feb 29)", created)
	}
	if got := txs.created[0].Date; !got.Equal(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("transaction date = %v, want 2024-02-29", got)
	}
}

func TestProcessDueContinuesPastFailures(t *testing.T) {
	rec := &fakeRecurringStore{templates: []core.RecurringTransaction{
		template(1, 1, time.Time{}),
		template(2, 1, time.Time{}),
	}}
	txs := &fakeTxStore{createErr: errors.New("db locked")}
	p := newTestProcessor(rec, txs, nil)
	p.now = func() time.Time { return time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC) }

	created, err := p.ProcessDue(context.Background())
	if err != nil {
		t.Fatalf("ProcessDue() error = %v, want nil (per-template failures logged)", err)
	}
	if created != 0 {
		t.Fatalf("created = %d, want 0", created)
	}
	if len(rec.marked) != 0 {
		t.Fatal("failed templates must not be marked as run")
	}
}

func TestClampDay(t *testing.T) {
	cases := []struct {
		day   int
		year  int
		month time.Month
		want  int
	}{
		{31, 2024, time.January, 31},
		{31, 2024, time.February, 29},
		{31, 2023, time.February, 28},
		{31, 2024, time.April, 30},
		{15, 2024, time.February, 15},
	}
	for _, tc := range cases {
		if got := clampDay(tc.day, tc.year, tc.month); got != tc.want {
			t.Errorf("clampDay(%d, %d, %v) = %d, want %d", tc.day, tc.year, tc.month, got, tc.want)
		}
	}
}
