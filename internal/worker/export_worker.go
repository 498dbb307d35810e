// Package worker turns change notifications into follow-up work.
package worker

import (
	"context"
	"errors"
	"fmt"

	"travelapp/internal/amqp"
	"travelapp/internal/core"
	"travelapp/internal/ledger"
	applog "travelapp/internal/log"
	"travelapp/internal/sheets"
	"travelapp/internal/storage"
)

const exportedPrefix = "exported:"

// Expenses is the part of the ledger service the worker reads.
type Expenses interface {
	Refresh(ctx context.Context) (ledger.Ledger, error)
}

// ExportWorker appends newly added expenses to the report as their
// notifications arrive. Each expense is exported at most once; the marks
// live in the local store so a restart does not duplicate rows.
type ExportWorker struct {
	expenses Expenses
	reports  sheets.ReportWriter
	marks    storage.Store
	logger   *applog.Logger
}

func NewExportWorker(expenses Expenses, reports sheets.ReportWriter, marks storage.Store, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &ExportWorker{
		expenses: expenses,
		reports:  reports,
		marks:    marks,
		logger:   logger.WithComponent(applog.ComponentSheets),
	}
}

// HandleMessage processes a single change notification. Kinds other than
// expense.added are acknowledged without work.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	switch msg.Kind {
	case amqp.KindExpenseAdded:
		return w.exportExpense(ctx, msg)
	case amqp.KindExpenseDeleted:
		// Report rows are append-only.
		w.logger.DebugContext(ctx, "Expense deleted after export; report row kept",
			applog.FieldExpenseID, msg.EntityID)
		return nil
	default:
		return nil
	}
}

func (w *ExportWorker) exportExpense(ctx context.Context, msg *amqp.ChangeMessage) error {
	key := exportedPrefix + msg.EntityID
	switch _, err := w.marks.Get(ctx, key); {
	case err == nil:
		w.logger.DebugContext(ctx, "Expense already exported", applog.FieldExpenseID, msg.EntityID)
		return nil
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("read export mark: %w", err)
	}

	l, err := w.expenses.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh expenses: %w", err)
	}
	e, ok := l.Find(msg.EntityID)
	if !ok {
		w.logger.WarnContext(ctx, "Expense from notification not found",
			applog.FieldExpenseID, msg.EntityID)
		return nil
	}

	label := e.TripID
	if label == core.Unassigned {
		label = "unassigned"
	}
	if err := w.reports.AppendExpenses(ctx, label, []core.Expense{e}); err != nil {
		if errors.Is(err, core.ErrValidation) {
			// Permanent: marked so redelivery is a no-op.
			w.logger.WarnContext(ctx, "Expense cannot be exported",
				applog.FieldExpenseID, e.ID,
				applog.FieldError, err)
			return w.mark(ctx, key, msg)
		}
		w.logger.ErrorContext(ctx, "Failed to export expense",
			applog.FieldExpenseID, e.ID,
			applog.FieldError, err)
		return fmt.Errorf("export expense: %w", err)
	}
	if err := w.mark(ctx, key, msg); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Successfully exported expense",
		applog.FieldExpenseID, e.ID,
		applog.FieldTripID, e.TripID)
	return nil
}

func (w *ExportWorker) mark(ctx context.Context, key string, msg *amqp.ChangeMessage) error {
	if err := w.marks.Set(ctx, key, []byte(msg.ID)); err != nil {
		return fmt.Errorf("save export mark: %w", err)
	}
	return nil
}
