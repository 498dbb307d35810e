package sheets

import (
	"context"
	"sort"

	"travelapp/internal/core"
)

// Ports for outbound report adapters.
type (
	// ReportWriter appends a trip's expenses to an external report.
	ReportWriter interface {
		AppendExpenses(ctx context.Context, tripLabel string, expenses []core.Expense) error
	}
)

// Header is the column layout of an expense report row.
var Header = []any{"Date", "Title", "Category", "Amount", "Payment method", "Trip"}

// Rows converts expenses into report rows ordered by date then title.
// Every expense is validated first; nothing is returned if one fails.
func Rows(tripLabel string, expenses []core.Expense) ([][]any, error) {
	sorted := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		e = e.Normalize()
		if err := e.Validate(); err != nil {
			return nil, core.Invalid("export expenses", err)
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.Before(sorted[j].Date.Time)
		}
		return sorted[i].Title < sorted[j].Title
	})

	rows := make([][]any, 0, len(sorted))
	for _, e := range sorted {
		rows = append(rows, []any{
			e.Date.String(),
			e.Title,
			string(e.Category),
			e.Amount.Units(),
			e.PaymentMethod,
			tripLabel,
		})
	}
	return rows, nil
}
