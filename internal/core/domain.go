package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind is the direction of a transaction: money in or money out.
	Kind string

	Money struct {
		Cents int64
	}

	// Transaction is a single dated monetary event belonging to a user.
	// Amount is always a non-negative magnitude; direction lives in Kind.
	Transaction struct {
		ID          int64
		UserID      int64
		Date        time.Time
		Description string
		Amount      Money
		Kind        Kind
		Category    string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Goal is a user-defined savings target. CurrentAmount is maintained
	// outside this package; progress is derived at read time.
	Goal struct {
		ID            int64
		UserID        int64
		Name          string
		Description   string
		TargetAmount  Money
		CurrentAmount Money
		Deadline      time.Time // zero when no deadline is set
		IsActive      bool
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	// RecurringTransaction is a template materialized into a Transaction
	// once per month on DayOfMonth (clamped to the month's last day).
	RecurringTransaction struct {
		ID          int64
		UserID      int64
		Description string
		Amount      Money
		Kind        Kind
		Category    string
		DayOfMonth  int
		IsActive    bool
		LastRunAt   time.Time
	}

	// User is the profile row kept alongside the external identity record.
	User struct {
		ID        int64
		Email     string
		FullName  string
		IsActive  bool
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDescription = errors.New("description must be between 3 and 100 characters")
	ErrInvalidCategory    = errors.New("category must be between 2 and 50 characters")
	ErrInvalidDayOfMonth  = errors.New("day of month must be between 1 and 31")
	ErrEmptyGoalName      = errors.New("empty goal name")
	ErrInvalidTarget      = errors.New("invalid target amount")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	desc := strings.TrimSpace(t.Description)
	if len(desc) < 3 || len(desc) > 100 {
		return ErrInvalidDescription
	}
	// Category is optional; uncategorized expenses group under "Other".
	if cat := strings.TrimSpace(t.Category); cat != "" && (len(cat) < 2 || len(cat) > 50) {
		return ErrInvalidCategory
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGoalName
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidTarget
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r RecurringTransaction) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	desc := strings.TrimSpace(r.Description)
	if len(desc) < 3 || len(desc) > 100 {
		return ErrInvalidDescription
	}
	if cat := strings.TrimSpace(r.Category); cat != "" && (len(cat) < 2 || len(cat) > 50) {
		return ErrInvalidCategory
	}
	if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	return nil
}
