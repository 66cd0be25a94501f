package core

import (
	"sort"
	"time"
)

// evolutionMonths is the size of the trailing dashboard window.
const evolutionMonths = 6

// OtherCategory labels expense groups whose transactions carry no category.
const OtherCategory = "Other"

type (
	// FinancialOverview is the headline dashboard block. Variations are
	// percent changes versus the previous calendar month, except
	// SavingsRateVariation which is a percentage-point difference.
	FinancialOverview struct {
		CurrentBalance       Money
		BalanceVariation     float64
		MonthlyIncome        Money
		IncomeVariation      float64
		MonthlyExpenses      Money
		ExpensesVariation    float64
		SavingsRate          float64
		SavingsRateVariation float64
	}

	// MonthlyEvolution holds parallel series for the 6 trailing month
	// buckets, oldest first.
	MonthlyEvolution struct {
		Labels   []string
		Income   []Money
		Expenses []Money
	}

	// ExpensesByCategory holds parallel label/total series sorted by
	// descending total.
	ExpensesByCategory struct {
		Labels []string
		Totals []Money
	}
)

// ComputeOverview derives the financial overview from a user's full
// transaction set and a reference instant. It is pure: no I/O, no errors.
// Every division-by-zero case degrades to 0 by policy.
func ComputeOverview(txs []Transaction, now time.Time) FinancialOverview {
	currentStart := firstOfMonth(now)
	prevStart := firstOfMonth(currentStart.AddDate(0, 0, -1))

	var currentIncome, currentExpenses, prevIncome, prevExpenses int64
	var balance, prevBalance int64

	for _, t := range txs {
		signed := t.Amount.Cents
		if t.Kind == Expense {
			signed = -signed
		}
		if !t.Date.After(now) {
			balance += signed
		}
		if t.Date.Before(currentStart) {
			prevBalance += signed
		}

		switch {
		case !t.Date.Before(currentStart) && !t.Date.After(now):
			if t.Kind == Income {
				currentIncome += t.Amount.Cents
			} else {
				currentExpenses += t.Amount.Cents
			}
		case !t.Date.Before(prevStart) && t.Date.Before(currentStart):
			if t.Kind == Income {
				prevIncome += t.Amount.Cents
			} else {
				prevExpenses += t.Amount.Cents
			}
		}
	}

	savingsRate := rate(currentIncome-currentExpenses, currentIncome)
	prevSavingsRate := rate(prevIncome-prevExpenses, prevIncome)

	return FinancialOverview{
		CurrentBalance:       Money{Cents: balance},
		BalanceVariation:     variation(balance, prevBalance),
		MonthlyIncome:        Money{Cents: currentIncome},
		IncomeVariation:      variation(currentIncome, prevIncome),
		MonthlyExpenses:      Money{Cents: currentExpenses},
		ExpensesVariation:    variation(currentExpenses, prevExpenses),
		SavingsRate:          savingsRate,
		SavingsRateVariation: savingsRate - prevSavingsRate,
	}
}

// ComputeMonthlyEvolution buckets income and expense totals into the 6
// trailing months ending with the month containing now, oldest first.
//
// Bucket starts step back from the first of the current month in fixed
// 30-day increments and are then snapped to the first of their month;
// ends are start+32 days snapped to the first of that month, minus one
// day. The 30-day step is not true calendar arithmetic and can drift
// across month-length boundaries; the window layout is part of the
// dashboard contract and is pinned by tests.
func ComputeMonthlyEvolution(txs []Transaction, now time.Time) MonthlyEvolution {
	currentStart := firstOfMonth(now)

	ev := MonthlyEvolution{
		Labels:   make([]string, 0, evolutionMonths),
		Income:   make([]Money, 0, evolutionMonths),
		Expenses: make([]Money, 0, evolutionMonths),
	}

	for i := evolutionMonths - 1; i >= 0; i-- {
		start := firstOfMonth(currentStart.AddDate(0, 0, -i*30))
		end := firstOfMonth(start.AddDate(0, 0, 32)).AddDate(0, 0, -1)

		var income, expenses int64
		for _, t := range txs {
			if t.Date.Before(start) || t.Date.After(end) {
				continue
			}
			if t.Kind == Income {
				income += t.Amount.Cents
			} else {
				expenses += t.Amount.Cents
			}
		}

		ev.Labels = append(ev.Labels, start.Format("Jan/2006"))
		ev.Income = append(ev.Income, Money{Cents: income})
		ev.Expenses = append(ev.Expenses, Money{Cents: expenses})
	}

	return ev
}

// ComputeExpensesByCategory groups expense transactions by category and
// sums their amounts. Callers pass the expense set for the target period;
// no date filtering happens here. Transactions without a category land in
// OtherCategory. Groups are ordered by total descending, ties by label.
func ComputeExpensesByCategory(txs []Transaction) ExpensesByCategory {
	totals := make(map[string]int64)
	for _, t := range txs {
		cat := t.Category
		if cat == "" {
			cat = OtherCategory
		}
		totals[cat] += t.Amount.Cents
	}

	labels := make([]string, 0, len(totals))
	for cat := range totals {
		labels = append(labels, cat)
	}
	sort.Slice(labels, func(i, j int) bool {
		if totals[labels[i]] != totals[labels[j]] {
			return totals[labels[i]] > totals[labels[j]]
		}
		return labels[i] < labels[j]
	})

	out := ExpensesByCategory{
		Labels: labels,
		Totals: make([]Money, len(labels)),
	}
	for i, cat := range labels {
		out.Totals[i] = Money{Cents: totals[cat]}
	}
	return out
}

// GoalProgress returns the goal's completion as a percentage. A zero
// target yields 0 rather than a division error.
func GoalProgress(g Goal) float64 {
	if g.TargetAmount.Cents == 0 {
		return 0
	}
	return float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
}

// firstOfMonth truncates t to the first instant of its calendar month.
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// variation is the percent change of cur versus prev, 0 when prev is 0.
func variation(cur, prev int64) float64 {
	if prev == 0 {
		return 0
	}
	abs := prev
	if abs < 0 {
		abs = -abs
	}
	return float64(cur-prev) / float64(abs) * 100
}

// rate is num/den as a percentage, 0 when den is 0.
func rate(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}
