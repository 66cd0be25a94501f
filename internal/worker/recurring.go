// Package worker materializes recurring transaction templates into real
// transactions once per month.
package worker

import (
	"context"
	"fmt"
	"time"

	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/store"
)

// EventPublisher announces created transactions to interested processes.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, userID, transactionID int64, year, month int) error
}

// RecurringProcessor walks active templates and creates this month's
// transaction for each one that is due.
type RecurringProcessor struct {
	recurring store.RecurringStore
	txs       store.TransactionStore
	publisher EventPublisher // nil when AMQP is not configured
	logger    *log.Logger
	now       func() time.Time
}

func NewRecurringProcessor(recurring store.RecurringStore, txs store.TransactionStore, publisher EventPublisher, logger *log.Logger) *RecurringProcessor {
	return &RecurringProcessor{
		recurring: recurring,
		txs:       txs,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// ProcessDue creates transactions for every active template that is due and
// returns how many were created. Failures on one template do not stop the
// rest.
func (p *RecurringProcessor) ProcessDue(ctx context.Context) (int, error) {
	templates, err := p.recurring.ListActiveRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring transactions: %w", err)
	}

	now := p.now()
	created := 0
	for _, tmpl := range templates {
		due, runDate := dueThisMonth(tmpl, now)
		if !due {
			continue
		}

		tx, err := p.txs.CreateTransaction(ctx, core.Transaction{
			UserID:      tmpl.UserID,
			Date:        runDate,
			Description: tmpl.Description,
			Amount:      tmpl.Amount,
			Kind:        tmpl.Kind,
			Category:    tmpl.Category,
		})
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to materialize recurring transaction",
				log.FieldError, err.Error(),
				"recurring_id", tmpl.ID,
				log.FieldUserID, tmpl.UserID)
			continue
		}

		if err := p.recurring.MarkRecurringRun(ctx, tmpl.ID, now); err != nil {
			// The transaction exists; a failed mark means one duplicate
			// next run at worst.
			p.logger.ErrorContext(ctx, "Failed to mark recurring run",
				log.FieldError, err.Error(),
				"recurring_id", tmpl.ID)
		}

		if p.publisher != nil {
			if err := p.publisher.PublishTransactionCreated(ctx, tx.UserID, tx.ID, runDate.Year(), int(runDate.Month())); err != nil {
				p.logger.WarnContext(ctx, "Failed to publish transaction event",
					log.FieldError, err.Error(),
					log.FieldTxID, tx.ID)
			}
		}

		p.logger.InfoContext(ctx, "Materialized recurring transaction",
			"recurring_id", tmpl.ID,
			log.FieldTxID, tx.ID,
			log.FieldUserID, tx.UserID,
			log.FieldAmount, tx.Amount.Cents)
		created++
	}

	return created, nil
}

// Run processes due templates immediately and then on every tick until the
// context is cancelled.
func (p *RecurringProcessor) Run(ctx context.Context, interval time.Duration) error {
	if _, err := p.ProcessDue(ctx); err != nil {
		p.logger.ErrorContext(ctx, "Recurring pass failed", log.FieldError, err.Error())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.ProcessDue(ctx); err != nil {
				p.logger.ErrorContext(ctx, "Recurring pass failed", log.FieldError, err.Error())
			}
		}
	}
}

// dueThisMonth reports whether tmpl should run now and, if so, the date the
// materialized transaction carries. A template is due once the clamped run
// day has been reached and it has not already run in the current month.
func dueThisMonth(tmpl core.RecurringTransaction, now time.Time) (bool, time.Time) {
	day := clampDay(tmpl.DayOfMonth, now.Year(), now.Month())
	if now.Day() < day {
		return false, time.Time{}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if !tmpl.LastRunAt.IsZero() && !tmpl.LastRunAt.Before(monthStart) {
		return false, time.Time{}
	}

	return true, time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, time.UTC)
}

// clampDay limits a template's day-of-month to the last day of the given
// month, so a day-31 template runs on Feb 28/29.
func clampDay(day, year int, month time.Month) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
