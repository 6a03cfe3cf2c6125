// Package reconcile derives dashboard figures from periods and transactions.
// Everything here is pure: no I/O, no shared state, inputs are never mutated.
package reconcile

import (
	"sort"

	"clubdash/internal/core"
)

// Palette is the fixed cyclic color palette for the spending breakdown.
var Palette = []string{"#EF4444", "#F59E0B", "#3B82F6", "#10B981", "#8B5CF6", "#EC4899"}

// Breakdown is the spending-by-category result in first-seen order.
type Breakdown []core.CategorySpend

// Total sums every entry.
func (b Breakdown) Total() core.Amount {
	var total core.Amount
	for _, e := range b {
		total = total.Add(e.TotalAbs)
	}
	return total
}

// SortPeriods returns a copy ordered by PeriodEnd, most recent first.
// Equal end dates keep their input order.
func SortPeriods(periods []core.FinancialPeriod) []core.FinancialPeriod {
	out := make([]core.FinancialPeriod, len(periods))
	copy(out, periods)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PeriodEnd.After(out[j].PeriodEnd)
	})
	return out
}

// SelectDefaultPeriod returns the period with the latest PeriodEnd, or nil
// when there are none. Ties go to the earliest in input order.
func SelectDefaultPeriod(periods []core.FinancialPeriod) *core.FinancialPeriod {
	if len(periods) == 0 {
		return nil
	}
	sorted := SortPeriods(periods)
	p := sorted[0]
	return &p
}

// SortTransactionsByDateDesc returns a stable copy, most recent date first.
func SortTransactionsByDateDesc(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Classify maps a category to its classification.
func Classify(category string) core.Classification {
	return core.Classify(category)
}

// SpendingByCategory sums absolute amounts of expense transactions grouped by
// the raw category string. Colors follow first-seen order through Palette, so
// the same input always yields the same assignment.
func SpendingByCategory(txs []core.Transaction) Breakdown {
	out := Breakdown{}
	index := map[string]int{}
	for _, tx := range txs {
		if core.Classify(tx.Category) != core.Expense {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategorySpend{
				Category: tx.Category,
				Color:    Palette[i%len(Palette)],
			})
		}
		out[i].TotalAbs = out[i].TotalAbs.Add(tx.Amount.Abs())
	}
	return out
}

// DeriveTotals sums the three revenue and the three expense fields.
// CurrentBalance is not consulted.
func DeriveTotals(p core.FinancialPeriod) core.Totals {
	return core.Totals{
		Revenue: p.Donations.Add(p.Fundraising).Add(p.Sponsorship),
		Expense: p.Food.Add(p.Giveaway).Add(p.Uniforms),
	}
}

// FindPeriodForDate returns the first period whose range contains date.
func FindPeriodForDate(periods []core.FinancialPeriod, date core.Date) (core.FinancialPeriod, bool) {
	for _, p := range periods {
		if p.Contains(date) {
			return p, true
		}
	}
	return core.FinancialPeriod{}, false
}
