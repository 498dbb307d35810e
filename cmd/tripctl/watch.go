package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peterbourgon/ff/v4"

	"travelapp/internal/amqp"
	"travelapp/internal/cli"
	applog "travelapp/internal/log"
	"travelapp/internal/worker"
)

const watchShutdownTimeout = 5 * time.Second

func (r *runtime) watchCommand() *ff.Command {
	fs := r.flags("watch")
	export := fs.BoolLong("export", "append newly added expenses to the configured spreadsheet")
	return &ff.Command{
		Name:      "watch",
		Usage:     "tripctl watch [--export]",
		ShortHelp: "stream change notifications until interrupted",
		LongHelp:  "Requires AMQP_URL. Reconnects with backoff when the broker goes away.",
		Flags:     fs,
		Exec: func(ctx context.Context, _ []string) error {
			cfg := r.app.Config
			if !cfg.AMQPEnabled() {
				return errors.New("change notifications are not configured: set AMQP_URL")
			}
			var exporter *worker.ExportWorker
			if *export {
				if r.app.Backend.Reports == nil {
					return errors.New("sheets export is not configured: set GOOGLE_SPREADSHEET_ID")
				}
				exporter = worker.NewExportWorker(r.ledger(), r.app.Backend.Reports, r.app.Backend.Store, r.app.Logger)
			}
			consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, r.app.Logger)
			if err != nil {
				return fmt.Errorf("connect to broker: %w", err)
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			ctx, done := cli.GracefulShutdown(ctx, r.app.Logger, watchShutdownTimeout, func() {
				if err := consumer.Close(); err != nil {
					r.app.Logger.Warn("Failed to close AMQP consumer", applog.FieldError, err)
				}
			})

			fmt.Fprintf(r.stderr, "Watching %s for changes (Ctrl-C to stop)\n", cfg.AMQPQueue)
			err = consumer.ConsumeWithReconnect(ctx, func(ctx context.Context, msg *amqp.ChangeMessage) error {
				fmt.Fprintf(r.stdout, "%s  %-16s %s", msg.Timestamp.Local().Format(time.DateTime), msg.Kind, msg.EntityID)
				if msg.TripID != "" {
					fmt.Fprintf(r.stdout, "  trip=%s", msg.TripID)
				}
				fmt.Fprintln(r.stdout)
				if exporter != nil {
					return exporter.HandleMessage(ctx, msg)
				}
				return nil
			})
			cancel()
			cli.WaitForShutdown(ctx, done)
			if errors.Is(err, context.Canceled) || errors.Is(err, amqp.ErrClientClosed) {
				return nil
			}
			return err
		},
	}
}
