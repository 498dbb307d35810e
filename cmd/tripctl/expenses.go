package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/peterbourgon/ff/v4"

	"travelapp/internal/core"
	"travelapp/internal/ledger"
	"travelapp/internal/sheets"
	"travelapp/internal/sheets/memory"
)

func (r *runtime) expensesCommand() *ff.Command {
	return &ff.Command{
		Name:      "expenses",
		Usage:     "tripctl expenses <list|add|delete|summary|export> ...",
		ShortHelp: "record and review expenses",
		Flags:     r.flags("expenses"),
		Subcommands: []*ff.Command{
			r.expensesListCommand(),
			r.expensesAddCommand(),
			r.expensesDeleteCommand(),
			r.expensesSummaryCommand(),
			r.expensesExportCommand(),
		},
	}
}

func (r *runtime) expensesListCommand() *ff.Command {
	fs := r.flags("list")
	trip := fs.StringLong("trip", "", "only this trip id")
	all := fs.BoolLong("all", "include every trip")
	return &ff.Command{
		Name:      "list",
		Usage:     "tripctl expenses list [--trip ID | --all]",
		ShortHelp: "list expenses, newest first",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			l, err := r.ledger().Refresh(ctx)
			if err != nil {
				return err
			}
			if !*all {
				l = l.ForTrip(*trip)
			}
			if l.Len() == 0 {
				fmt.Fprintln(r.stdout, "No expenses yet.")
				return nil
			}
			tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTITLE\tCATEGORY\tAMOUNT\tPAYMENT\tTRIP")
			for _, e := range l.Newest() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.Date, e.Title, e.Category, e.Amount, e.PaymentMethod, tripLabel(e.TripID))
			}
			fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\t\t\n", l.Total())
			return tw.Flush()
		},
	}
}

func (r *runtime) expensesAddCommand() *ff.Command {
	fs := r.flags("add")
	var (
		title    = fs.StringLong("title", "", "what was bought")
		amount   = fs.StringLong("amount", "", "amount, e.g. 12.50")
		category = fs.StringLong("category", string(core.Others), "one of "+categoryList())
		date     = fs.StringLong("date", "", "YYYY-MM-DD (default today)")
		trip     = fs.StringLong("trip", "", "trip id (empty for unassigned)")
		payment  = fs.StringLong("payment", core.DefaultPaymentMethod, "payment method")
	)
	return &ff.Command{
		Name:      "add",
		Usage:     "tripctl expenses add --title TEXT --amount N [--category C] [--date D] [--trip ID]",
		ShortHelp: "record an expense",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			e, err := buildExpense(*title, *amount, *category, *date, *trip, *payment)
			if err != nil {
				return err
			}
			svc := r.ledger()
			if _, err := svc.Refresh(ctx); err != nil {
				return err
			}
			stored, err := svc.Add(ctx, e)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.stdout, "Added %s (%s) %s\n", stored.Title, stored.Category, stored.Amount)
			return r.printProgress(ctx, svc, stored.TripID)
		},
	}
}

func buildExpense(title, amount, category, date, trip, payment string) (core.Expense, error) {
	const op = "add expense"
	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Expense{}, core.Invalid(op, err)
	}
	cat, err := core.ParseCategory(category)
	if err != nil {
		return core.Expense{}, core.Invalid(op, err)
	}
	d := core.Today()
	if strings.TrimSpace(date) != "" {
		if d, err = core.ParseDate(date); err != nil {
			return core.Expense{}, core.Invalid(op, err)
		}
	}
	return core.Expense{
		Title:         title,
		Amount:        m,
		Category:      cat,
		Date:          d,
		TripID:        trip,
		PaymentMethod: payment,
	}, nil
}

func (r *runtime) expensesDeleteCommand() *ff.Command {
	return &ff.Command{
		Name:      "delete",
		Usage:     "tripctl expenses delete ID",
		ShortHelp: "delete an expense",
		Flags:     r.flags("delete"),
		Exec: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 1, "tripctl expenses delete ID"); err != nil {
				return err
			}
			svc := r.ledger()
			if _, err := svc.Refresh(ctx); err != nil {
				return err
			}
			removed, err := svc.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(r.stdout, "No expense with id %s\n", args[0])
				return nil
			}
			fmt.Fprintf(r.stdout, "Deleted expense %s. Total is now %s\n", args[0], svc.Ledger().Total())
			return nil
		},
	}
}

func (r *runtime) expensesSummaryCommand() *ff.Command {
	fs := r.flags("summary")
	trip := fs.StringLong("trip", "", "trip id (empty for unassigned)")
	return &ff.Command{
		Name:      "summary",
		Usage:     "tripctl expenses summary [--trip ID]",
		ShortHelp: "totals per category and budget progress",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			svc := r.ledger()
			if _, err := svc.Refresh(ctx); err != nil {
				return err
			}
			sum, err := svc.Summary(ctx, *trip)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.stdout, "Trip: %s\n", tripLabel(sum.TripID))
			tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
			for _, ca := range sum.ByCategory {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", ca.Category, ca.Count, ca.Amount)
			}
			fmt.Fprintf(tw, "Total\t\t%s\n", sum.Total)
			if err := tw.Flush(); err != nil {
				return err
			}
			writeProgress(r, sum.Progress)
			return nil
		},
	}
}

func (r *runtime) expensesExportCommand() *ff.Command {
	fs := r.flags("export")
	var (
		trip   = fs.StringLong("trip", "", "trip id (empty for unassigned)")
		label  = fs.StringLong("label", "", "trip label written in the report (default trip id)")
		dryRun = fs.BoolLong("dry-run", "print rows instead of writing to the spreadsheet")
	)
	return &ff.Command{
		Name:      "export",
		Usage:     "tripctl expenses export [--trip ID] [--label TEXT] [--dry-run]",
		ShortHelp: "append a trip's expenses to the configured spreadsheet",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			text := firstNonEmpty(*label, tripLabel(*trip))

			var rec *memory.Recorder
			svc := r.ledger()
			if *dryRun || r.app.Backend.Reports == nil {
				if !*dryRun {
					fmt.Fprintln(r.stderr, "Sheets export is not configured; showing a dry run.")
				}
				rec = memory.New()
				svc = ledger.NewService(r.app.API, r.app.Session,
					ledger.WithReports(rec),
					ledger.WithLogger(r.app.Logger))
			}
			if _, err := svc.Refresh(ctx); err != nil {
				return err
			}
			n, err := svc.Export(ctx, *trip, text)
			if err != nil {
				return err
			}
			if rec != nil {
				tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
				writeRow(tw, sheets.Header)
				for _, row := range rec.Rows() {
					writeRow(tw, row)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			fmt.Fprintf(r.stdout, "Exported %d expenses\n", n)
			return nil
		},
	}
}

func writeRow(tw *tabwriter.Writer, row []any) {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
}

func (r *runtime) budgetCommand() *ff.Command {
	setFlags := r.flags("set")
	setTrip := setFlags.StringLong("trip", "", "trip id (empty for unassigned)")
	showFlags := r.flags("show")
	showTrip := showFlags.StringLong("trip", "", "trip id (empty lists every budget)")
	return &ff.Command{
		Name:      "budget",
		Usage:     "tripctl budget <set|show> ...",
		ShortHelp: "manage per-trip budgets",
		Flags:     r.flags("budget"),
		Subcommands: []*ff.Command{
			{
				Name:      "set",
				Usage:     "tripctl budget set AMOUNT [--trip ID]",
				ShortHelp: "set a budget; 0 clears it",
				Flags:     setFlags,
				Exec: func(ctx context.Context, args []string) error {
					if err := requireArgs(args, 1, "tripctl budget set AMOUNT [--trip ID]"); err != nil {
						return err
					}
					m, err := core.ParseMoney(args[0])
					if err != nil {
						return core.Invalid("set budget", err)
					}
					if err := r.ledger().SetBudget(ctx, *setTrip, m); err != nil {
						return err
					}
					if m.IsZero() {
						fmt.Fprintf(r.stdout, "Budget cleared for %s\n", tripLabel(*setTrip))
						return nil
					}
					fmt.Fprintf(r.stdout, "Budget for %s set to %s\n", tripLabel(*setTrip), m)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "tripctl budget show [--trip ID]",
				ShortHelp: "show budgets",
				Flags:     showFlags,
				Exec: func(ctx context.Context, _ []string) error {
					if *showTrip != "" {
						svc := r.ledger()
						if _, err := svc.Refresh(ctx); err != nil {
							return err
						}
						return r.printProgress(ctx, svc, *showTrip)
					}
					budgets, err := r.app.Session.Budgets(ctx)
					if err != nil {
						return err
					}
					if len(budgets) == 0 {
						fmt.Fprintln(r.stdout, "No budgets set.")
						return nil
					}
					keys := make([]string, 0, len(budgets))
					for k := range budgets {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					tw := tabwriter.NewWriter(r.stdout, 0, 4, 2, ' ', 0)
					for _, k := range keys {
						fmt.Fprintf(tw, "%s\t%s\n", tripLabel(k), budgets[k])
					}
					return tw.Flush()
				},
			},
		},
	}
}

func (r *runtime) printProgress(ctx context.Context, svc *ledger.Service, tripID string) error {
	sum, err := svc.Summary(ctx, tripID)
	if err != nil {
		return err
	}
	writeProgress(r, sum.Progress)
	return nil
}

func writeProgress(r *runtime, p ledger.Progress) {
	if !p.Set {
		fmt.Fprintf(r.stdout, "Spent %s (no budget set)\n", p.Spent)
		return
	}
	fmt.Fprintf(r.stdout, "Spent %s of %s (%d%%)\n", p.Spent, p.Budget, p.Percent())
	if p.Over() {
		fmt.Fprintf(r.stdout, "Over budget by %s\n", p.Spent.Sub(p.Budget))
		return
	}
	fmt.Fprintf(r.stdout, "Remaining %s\n", p.Remaining())
}

func tripLabel(tripID string) string {
	if tripID == core.Unassigned {
		return "unassigned"
	}
	return tripID
}

func categoryList() string {
	names := make([]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
