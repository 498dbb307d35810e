// Package ledger aggregates expenses into running totals, category
// subtotals and budget progress.
package ledger

import (
	"slices"
	"sort"
	"strings"

	"travelapp/internal/core"
)

// Ledger is an immutable list of expenses with its running total. Add and
// Delete return a new Ledger and adjust the total incrementally; the total
// always equals the sum of the listed amounts because both paths read the
// same Amount field.
type Ledger struct {
	expenses []core.Expense
	total    core.Money
}

// New builds a ledger from expenses, in the given order.
func New(expenses ...core.Expense) Ledger {
	l := Ledger{expenses: append([]core.Expense(nil), expenses...)}
	for _, e := range l.expenses {
		l.total = l.total.Add(e.Amount)
	}
	return l
}

// Add appends e and raises the total by its amount. An expense whose id is
// already listed replaces the listed one in place instead.
func (l Ledger) Add(e core.Expense) Ledger {
	if i := l.index(e.ID); i >= 0 {
		expenses := slices.Clone(l.expenses)
		old := expenses[i]
		expenses[i] = e
		return Ledger{
			expenses: expenses,
			total:    l.total.Sub(old.Amount).Add(e.Amount),
		}
	}
	return Ledger{
		expenses: append(slices.Clip(l.expenses), e),
		total:    l.total.Add(e.Amount),
	}
}

// Delete removes the expense with the given id and lowers the total by its
// amount. An unknown id leaves the ledger unchanged and reports false.
func (l Ledger) Delete(id string) (Ledger, bool) {
	i := l.index(id)
	if i < 0 {
		return l, false
	}
	removed := l.expenses[i]
	return Ledger{
		expenses: slices.Delete(slices.Clone(l.expenses), i, i+1),
		total:    l.total.Sub(removed.Amount),
	}, true
}

func (l Ledger) index(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, e := range l.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the expense with the given id.
func (l Ledger) Find(id string) (core.Expense, bool) {
	if i := l.index(id); i >= 0 {
		return l.expenses[i], true
	}
	return core.Expense{}, false
}

func (l Ledger) Total() core.Money { return l.total }

func (l Ledger) Len() int { return len(l.expenses) }

// Expenses returns a copy of the listed expenses.
func (l Ledger) Expenses() []core.Expense {
	return slices.Clone(l.expenses)
}

// ForTrip narrows the ledger to one trip key (core.Unassigned for loose expenses).
func (l Ledger) ForTrip(tripID string) Ledger {
	tripID = strings.TrimSpace(tripID)
	var out []core.Expense
	for _, e := range l.expenses {
		if e.TripKey() == tripID {
			out = append(out, e)
		}
	}
	return New(out...)
}

// Newest returns the listed expenses sorted by date, latest first.
func (l Ledger) Newest() []core.Expense {
	out := slices.Clone(l.expenses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// GroupByCategory subtotals the ledger per category in display order.
// Categories without expenses are absent.
func (l Ledger) GroupByCategory() []core.CategoryAmount {
	byCat := map[core.Category]*core.CategoryAmount{}
	for _, e := range l.expenses {
		ca, ok := byCat[e.Category]
		if !ok {
			ca = &core.CategoryAmount{Category: e.Category}
			byCat[e.Category] = ca
		}
		ca.Amount = ca.Amount.Add(e.Amount)
		ca.Count++
	}
	out := make([]core.CategoryAmount, 0, len(byCat))
	for _, ca := range byCat {
		out = append(out, *ca)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Category.Rank(), out[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// CategoryTotals is GroupByCategory as a map.
func (l Ledger) CategoryTotals() map[core.Category]core.Money {
	out := map[core.Category]core.Money{}
	for _, e := range l.expenses {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}

// Progress is spending measured against a budget.
type Progress struct {
	Spent  core.Money
	Budget core.Money
	Ratio  float64
	// Set is false when no budget was given; Ratio is then meaningless.
	Set bool
}

// ComputeBudgetProgress returns total/budget. A zero budget means unset and
// yields Set == false instead of dividing by zero.
func ComputeBudgetProgress(total, budget core.Money) Progress {
	p := Progress{Spent: total, Budget: budget}
	if budget.Cents <= 0 {
		return p
	}
	p.Set = true
	p.Ratio = float64(total.Cents) / float64(budget.Cents)
	if p.Ratio < 0 {
		p.Ratio = 0
	}
	return p
}

// Over reports whether spending reached the budget.
func (p Progress) Over() bool {
	return p.Set && p.Ratio >= 1
}

// Remaining is budget minus spending; negative once over budget.
func (p Progress) Remaining() core.Money {
	return p.Budget.Sub(p.Spent)
}

// Percent is the ratio as a whole percentage, for display.
func (p Progress) Percent() int {
	if !p.Set {
		return 0
	}
	return int(p.Ratio*100 + 0.5)
}
