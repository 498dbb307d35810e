package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"travelapp/internal/amqp"
	"travelapp/internal/core"
	applog "travelapp/internal/log"
	"travelapp/internal/sheets"
)

// Remote is the subset of the API client the ledger needs.
type Remote interface {
	FetchExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	AddExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// Budgets stores per-trip budgets and identifies the signed-in user.
type Budgets interface {
	UserID(ctx context.Context) (string, error)
	Budget(ctx context.Context, tripID string) (core.Money, error)
	SetBudget(ctx context.Context, tripID string, budget core.Money) error
}

// Summary is a trip's spending with its budget progress.
type Summary struct {
	core.TripSummary
	Progress Progress
}

// Service keeps the user's ledger in step with the backend. Remote calls
// come first; local state changes only after the backend acknowledged them.
type Service struct {
	remote    Remote
	budgets   Budgets
	publisher amqp.Publisher
	reports   sheets.ReportWriter
	logger    *applog.Logger

	mu      sync.Mutex
	ledger  Ledger
	deleted map[string]struct{}
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithPublisher sends change notifications after each mutation.
func WithPublisher(p amqp.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithReports enables Export.
func WithReports(w sheets.ReportWriter) Option {
	return func(s *Service) { s.reports = w }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.WithComponent(applog.ComponentLedger)
		}
	}
}

func NewService(remote Remote, budgets Budgets, opts ...Option) *Service {
	s := &Service{
		remote:  remote,
		budgets: budgets,
		logger:  applog.Discard(),
		deleted: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger returns the current local ledger.
func (s *Service) Ledger() Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger
}

// Refresh replaces the local ledger with the backend's list. Expenses deleted
// during this process are dropped even if the backend still returns them.
func (s *Service) Refresh(ctx context.Context) (Ledger, error) {
	userID, err := s.budgets.UserID(ctx)
	if err != nil {
		return Ledger{}, err
	}
	expenses, err := s.remote.FetchExpenses(ctx, userID)
	if err != nil {
		return Ledger{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := expenses[:0:0]
	for _, e := range expenses {
		if _, gone := s.deleted[e.ID]; gone {
			continue
		}
		kept = append(kept, e)
	}
	s.ledger = New(kept...)
	s.logger.DebugContext(ctx, "Ledger refreshed",
		applog.FieldOperation, applog.OpRefresh,
		"count", s.ledger.Len(),
		applog.FieldAmountCents, s.ledger.Total().Cents)
	return s.ledger, nil
}

// Add validates e, records it remotely and appends the stored expense. Nothing
// changes locally when the backend rejects it.
func (s *Service) Add(ctx context.Context, e core.Expense) (core.Expense, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return core.Expense{}, core.Invalid("add expense", err)
	}
	if e.UserID == "" {
		userID, err := s.budgets.UserID(ctx)
		if err != nil {
			return core.Expense{}, err
		}
		e.UserID = userID
	}

	stored, err := s.remote.AddExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	s.ledger = s.ledger.Add(stored)
	total := s.ledger.Total()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense added",
		applog.FieldExpenseID, stored.ID,
		applog.FieldAmountCents, stored.Amount.Cents,
		applog.FieldCategory, string(stored.Category),
		"total_cents", total.Cents)
	s.publish(ctx, amqp.KindExpenseAdded, stored.ID, stored.UserID, stored.TripID)
	return stored, nil
}

// Delete removes the expense remotely, then locally. Deleting an id the
// ledger does not hold is a no-op and reports false.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	existing, ok := s.ledger.Find(id)
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	if err := s.remote.DeleteExpense(ctx, id); err != nil {
		return false, err
	}

	s.mu.Lock()
	s.ledger, _ = s.ledger.Delete(id)
	s.deleted[id] = struct{}{}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense deleted",
		applog.FieldExpenseID, id,
		applog.FieldAmountCents, existing.Amount.Cents)
	s.publish(ctx, amqp.KindExpenseDeleted, id, existing.UserID, existing.TripID)
	return true, nil
}

// Summary totals one trip key and measures it against its budget.
func (s *Service) Summary(ctx context.Context, tripID string) (Summary, error) {
	tripID = strings.TrimSpace(tripID)
	budget, err := s.budgets.Budget(ctx, tripID)
	if err != nil {
		return Summary{}, err
	}
	trip := s.Ledger().ForTrip(tripID)
	return Summary{
		TripSummary: core.TripSummary{
			TripID:     tripID,
			Total:      trip.Total(),
			Budget:     budget,
			ByCategory: trip.GroupByCategory(),
		},
		Progress: ComputeBudgetProgress(trip.Total(), budget),
	}, nil
}

func (s *Service) SetBudget(ctx context.Context, tripID string, budget core.Money) error {
	return s.budgets.SetBudget(ctx, tripID, budget)
}

func (s *Service) Budget(ctx context.Context, tripID string) (core.Money, error) {
	return s.budgets.Budget(ctx, tripID)
}

// ErrExportDisabled is returned by Export when no report writer is configured.
var ErrExportDisabled = errors.New("expense export is not configured")

// Export appends the trip's expenses to the report. It returns the number
// of rows written.
func (s *Service) Export(ctx context.Context, tripID, label string) (int, error) {
	if s.reports == nil {
		return 0, ErrExportDisabled
	}
	expenses := s.Ledger().ForTrip(tripID).Expenses()
	if len(expenses) == 0 {
		return 0, nil
	}
	if err := s.reports.AppendExpenses(ctx, label, expenses); err != nil {
		return 0, fmt.Errorf("export expenses: %w", err)
	}
	s.logger.InfoContext(ctx, "Expenses exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldTripID, tripID,
		"count", len(expenses))
	return len(expenses), nil
}

func (s *Service) publish(ctx context.Context, kind amqp.Kind, entityID, userID, tripID string) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP publisher not available, skipping change message", "kind", string(kind))
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewChangeMessage(kind, entityID, userID, tripID)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change message",
			"kind", string(kind),
			applog.FieldError, err)
	}
}
