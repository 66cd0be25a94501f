package http

import (
	"time"

	"finview/internal/core"
)

// dashboardView is the fully formatted dashboard payload. It is what the
// per-user cache stores, so building it must stay free of I/O.
type dashboardView struct {
	Balance              string
	BalanceVariation     string
	MonthlyIncome        string
	IncomeVariation      string
	MonthlyExpenses      string
	ExpensesVariation    string
	SavingsRate          string
	SavingsRateVariation string

	Evolution  []evolutionPoint
	Categories []categoryRow
	Goals      []goalRow
}

type evolutionPoint struct {
	Label    string
	Income   string
	Expenses string
	// Bar heights as a percentage of the window's tallest value.
	IncomeHeight  int
	ExpenseHeight int
}

type categoryRow struct {
	Label  string
	Amount string
	// Bar width as a percentage of the largest category.
	Width int
}

type goalRow struct {
	ID       int64
	Name     string
	Target   string
	Current  string
	Progress string
	// Progress bar width, capped at 100.
	Width    int
	Deadline string
}

// buildDashboardView derives every dashboard block from a user's full
// transaction set and goals.
func buildDashboardView(txs []core.Transaction, goals []core.Goal, now time.Time) dashboardView {
	ov := core.ComputeOverview(txs, now)
	ev := core.ComputeMonthlyEvolution(txs, now)

	currentStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var monthExpenses []core.Transaction
	for _, t := range txs {
		if t.Kind == core.Expense && !t.Date.Before(currentStart) && !t.Date.After(now) {
			monthExpenses = append(monthExpenses, t)
		}
	}
	byCat := core.ComputeExpensesByCategory(monthExpenses)

	view := dashboardView{
		Balance:              formatAmount(ov.CurrentBalance.Cents),
		BalanceVariation:     formatPercent(ov.BalanceVariation),
		MonthlyIncome:        formatAmount(ov.MonthlyIncome.Cents),
		IncomeVariation:      formatPercent(ov.IncomeVariation),
		MonthlyExpenses:      formatAmount(ov.MonthlyExpenses.Cents),
		ExpensesVariation:    formatPercent(ov.ExpensesVariation),
		SavingsRate:          formatPercent(ov.SavingsRate),
		SavingsRateVariation: formatPercent(ov.SavingsRateVariation),
	}

	var tallest int64
	for i := range ev.Labels {
		if ev.Income[i].Cents > tallest {
			tallest = ev.Income[i].Cents
		}
		if ev.Expenses[i].Cents > tallest {
			tallest = ev.Expenses[i].Cents
		}
	}
	for i, label := range ev.Labels {
		view.Evolution = append(view.Evolution, evolutionPoint{
			Label:         label,
			Income:        formatAmount(ev.Income[i].Cents),
			Expenses:      formatAmount(ev.Expenses[i].Cents),
			IncomeHeight:  barSize(ev.Income[i].Cents, tallest),
			ExpenseHeight: barSize(ev.Expenses[i].Cents, tallest),
		})
	}

	var maxCat int64
	for _, m := range byCat.Totals {
		if m.Cents > maxCat {
			maxCat = m.Cents
		}
	}
	for i, label := range byCat.Labels {
		view.Categories = append(view.Categories, categoryRow{
			Label:  label,
			Amount: formatAmount(byCat.Totals[i].Cents),
			Width:  barSize(byCat.Totals[i].Cents, maxCat),
		})
	}

	for _, g := range goals {
		if !g.IsActive {
			continue
		}
		progress := core.GoalProgress(g)
		width := int(progress)
		if width > 100 {
			width = 100
		}
		row := goalRow{
			ID:       g.ID,
			Name:     g.Name,
			Target:   formatAmount(g.TargetAmount.Cents),
			Current:  formatAmount(g.CurrentAmount.Cents),
			Progress: formatPercent(progress),
			Width:    width,
		}
		if !g.Deadline.IsZero() {
			row.Deadline = g.Deadline.Format("02 Jan 2006")
		}
		view.Goals = append(view.Goals, row)
	}

	return view
}

// barSize scales cents to a 0-100 percentage of max, keeping tiny non-zero
// values visible.
func barSize(cents, max int64) int {
	if max <= 0 || cents <= 0 {
		return 0
	}
	size := int((cents*100 + max/2) / max)
	if size < 2 {
		size = 2
	}
	if size > 100 {
		size = 100
	}
	return size
}
