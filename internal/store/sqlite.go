package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finview/internal/core"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// SQLiteRepository implements Store on a single SQLite database file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Health verifies the database connection is alive.
func (r *SQLiteRepository) Health(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, hashedPassword, fullName string) (core.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, full_name, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		email, hashedPassword, fullName, now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, fmt.Errorf("create user %s: %w", email, ErrDuplicateEmail)
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user: last insert id: %w", err)
	}

	return core.User{
		ID:        id,
		Email:     email,
		FullName:  fullName,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var (
		u                    core.User
		isActive             int64
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, is_active, created_at, updated_at
		 FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.FullName, &isActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("get user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}

	u.IsActive = isActive != 0
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

// --- transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, date, description, amount_cents, kind, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.Date.Format(dateLayout), tx.Description, tx.Amount.Cents,
		string(tx.Kind), tx.Category, now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: last insert id: %w", err)
	}

	tx.ID = id
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, description, amount_cents, kind, category, created_at, updated_at
		 FROM transactions WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByPeriod(ctx context.Context, userID int64, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, description, amount_cents, kind, category, created_at, updated_at
		 FROM transactions
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date DESC, id DESC`,
		userID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list transactions by period: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var (
			tx                   core.Transaction
			date, kind           string
			cents                int64
			createdAt, updatedAt string
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &date, &tx.Description, &cents,
			&kind, &tx.Category, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date = parseTime(date)
		tx.Amount = core.Money{Cents: cents}
		tx.Kind = core.Kind(kind)
		tx.CreatedAt = parseTime(createdAt)
		tx.UpdatedAt = parseTime(updatedAt)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// --- goals ---

func (r *SQLiteRepository) CreateGoal(ctx context.Context, goal core.Goal) (core.Goal, error) {
	now := time.Now().UTC()
	deadline := ""
	if !goal.Deadline.IsZero() {
		deadline = goal.Deadline.Format(dateLayout)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (user_id, name, description, target_amount_cents, current_amount_cents, deadline, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		goal.UserID, goal.Name, goal.Description, goal.TargetAmount.Cents,
		goal.CurrentAmount.Cents, deadline, now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: last insert id: %w", err)
	}

	goal.ID = id
	goal.IsActive = true
	goal.CreatedAt = now
	goal.UpdatedAt = now
	return goal, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, description, target_amount_cents, current_amount_cents, deadline, is_active, created_at, updated_at
		 FROM goals WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g                              core.Goal
			target, current, isActive      int64
			deadline, createdAt, updatedAt string
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &target,
			&current, &deadline, &isActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.TargetAmount = core.Money{Cents: target}
		g.CurrentAmount = core.Money{Cents: current}
		if deadline != "" {
			g.Deadline = parseTime(deadline)
		}
		g.IsActive = isActive != 0
		g.CreatedAt = parseTime(createdAt)
		g.UpdatedAt = parseTime(updatedAt)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateGoalAmount(ctx context.Context, userID, id int64, current core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET current_amount_cents = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		current.Cents, time.Now().UTC().Format(timeLayout), id, userID)
	if err != nil {
		return fmt.Errorf("update goal amount: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update goal %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete goal %d: %w", id, ErrNotFound)
	}
	return nil
}

// --- recurring templates ---

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rec core.RecurringTransaction) (core.RecurringTransaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (user_id, description, amount_cents, kind, category, day_of_month, is_active, last_run_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, '')`,
		rec.UserID, rec.Description, rec.Amount.Cents, string(rec.Kind), rec.Category, rec.DayOfMonth)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: last insert id: %w", err)
	}

	rec.ID = id
	rec.IsActive = true
	return rec, nil
}

func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, description, amount_cents, kind, category, day_of_month, is_active, last_run_at
		 FROM recurring_transactions WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		var (
			rec                         core.RecurringTransaction
			cents, dayOfMonth, isActive int64
			kind, lastRunAt             string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Description, &cents,
			&kind, &rec.Category, &dayOfMonth, &isActive, &lastRunAt); err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		rec.Amount = core.Money{Cents: cents}
		rec.Kind = core.Kind(kind)
		rec.DayOfMonth = int(dayOfMonth)
		rec.IsActive = isActive != 0
		if lastRunAt != "" {
			rec.LastRunAt = parseTime(lastRunAt)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkRecurringRun(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET last_run_at = ? WHERE id = ?`,
		at.UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("mark recurring run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark recurring run %d: %w", id, ErrNotFound)
	}
	return nil
}

// parseTime accepts the date and timestamp layouts the schema stores.
// Unparseable values yield the zero time rather than an error; the schema
// guarantees well-formed values for rows written by this package.
func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
