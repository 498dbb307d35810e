package memory

import (
	"context"
	"sync"

	"travelapp/internal/core"
	ports "travelapp/internal/sheets"
)

// Recorder keeps exported rows in memory. Used for dry runs and tests.
type Recorder struct {
	mu   sync.Mutex
	rows [][]any
}

var _ ports.ReportWriter = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{}
}

// AppendExpenses records one row per expense in report order.
func (r *Recorder) AppendExpenses(_ context.Context, tripLabel string, expenses []core.Expense) error {
	rows, err := ports.Rows(tripLabel, expenses)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return nil
}

// Rows returns a copy of everything recorded so far.
func (r *Recorder) Rows() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]any, len(r.rows))
	for i, row := range r.rows {
		out[i] = append([]any(nil), row...)
	}
	return out
}
