package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"travelapp/internal/cli"
	"travelapp/internal/core"
	"travelapp/internal/itinerary"
	"travelapp/internal/ledger"
	applog "travelapp/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// runtime carries the process I/O and, once opened, the wired application.
type runtime struct {
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer

	rootFlags *ff.FlagSet
	verbose   *bool

	app *cli.App
}

func run(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer) error {
	cli.LoadEnvFile()

	r := &runtime{stdin: stdin, stdout: stdout, stderr: stderr}
	root := r.rootCommand()
	if err := root.Parse(args, ff.WithEnvVarPrefix("TRIPCTL")); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		if errors.Is(err, ff.ErrHelp) {
			return nil
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return err
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return err
	}
	if *r.verbose {
		cfg.LogLevel = "debug"
	}
	logger := cli.SetupLogger(cfg, stderr)

	app, err := cli.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", applog.FieldError, err)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Cleanup failed", applog.FieldError, err)
		}
	}()
	r.app = app

	err = root.Run(ctx)
	if errors.Is(err, ff.ErrNoExec) {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(root.GetSelected()))
		return err
	}
	return r.report(ctx, err)
}

// report prints err for the user. Session expiry clears the stored session.
func (r *runtime) report(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	r.app.Logger.DebugContext(ctx, "Command failed",
		applog.FieldError, err,
		applog.FieldErrorKind, string(core.KindOf(err)))

	if core.IsSessionExpired(err) {
		if cerr := r.app.Session.Clear(ctx); cerr != nil {
			r.app.Logger.WarnContext(ctx, "Failed to clear expired session", applog.FieldError, cerr)
		}
		fmt.Fprintln(r.stderr, "Your session has expired. Run `tripctl login` to sign in again.")
		return err
	}
	if core.KindOf(err) != "" {
		fmt.Fprintf(r.stderr, "error: %s\n", core.UserMessage(err))
		return err
	}
	fmt.Fprintf(r.stderr, "error: %v\n", err)
	return err
}

func (r *runtime) rootCommand() *ff.Command {
	r.rootFlags = ff.NewFlagSet("tripctl")
	r.verbose = r.rootFlags.BoolLong("verbose", "log debug output")

	return &ff.Command{
		Name:      "tripctl",
		Usage:     "tripctl [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "plan trips and track travel expenses",
		Flags:     r.rootFlags,
		Subcommands: []*ff.Command{
			r.loginCommand(),
			r.logoutCommand(),
			r.signupCommand(),
			r.resetPasswordCommand(),
			r.profileCommand(),
			r.expensesCommand(),
			r.budgetCommand(),
			r.tripsCommand(),
			r.placesCommand(),
			r.weatherCommand(),
			r.locationsCommand(),
			r.calendarCommand(),
			r.watchCommand(),
		},
	}
}

func (r *runtime) flags(name string) *ff.FlagSet {
	return ff.NewFlagSet(name).SetParent(r.rootFlags)
}

func (r *runtime) ledger() *ledger.Service {
	return ledger.NewService(r.app.API, r.app.Session,
		ledger.WithPublisher(r.app.Backend.Publisher),
		ledger.WithReports(r.app.Backend.Reports),
		ledger.WithLogger(r.app.Logger),
	)
}

func (r *runtime) planner() *itinerary.Planner {
	return itinerary.NewPlanner(r.app.API, r.app.Session, r.app.Backend.Publisher, r.app.Logger)
}

func requireArgs(args []string, n int, usage string) error {
	if len(args) < n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}
