package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/inventario/internal/scheduler"
	"github.com/mamadbah2/inventario/internal/service/reporting"
	"github.com/mamadbah2/inventario/pkg/logger"
)

const jobTimeout = 2 * time.Minute

func newReportCommand(rt *app) *cobra.Command {
	var publish bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a stock report",
		Example: "  inventario report\n" +
			"  inventario report --publish",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rt.openStore(false)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var opts []reporting.Option
			if publish {
				sinkOpts, cleanup, err := buildSinks(ctx, rt.cfg, rt.logger)
				if err != nil {
					return err
				}
				defer cleanup()
				opts = sinkOpts
			}

			svc := reporting.NewService(store, rt.cfg.Inventory.LowStockThreshold, logger.Named(rt.logger, "svc.reporting"), opts...)
			report := svc.Generate(time.Now())
			fmt.Fprintln(rt.out, reporting.Format(report))

			if !publish {
				return nil
			}
			if !svc.HasSinks() {
				return errors.New("no report sink configured (set MONGODB_URI, GOOGLE_SHEET_DATABASE_ID or WHATSAPP_TOKEN)")
			}
			return svc.Publish(ctx, report)
		},
	}

	cmd.Flags().BoolVar(&publish, "publish", false, "send the report to the configured sinks")
	return cmd
}

func newScheduleCommand(rt *app) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Publish stock reports on REPORT_CRON_SCHEDULE until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := rt.openStore(false)
			if err != nil {
				return err
			}

			opts, cleanup, err := buildSinks(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer cleanup()

			svc := reporting.NewService(store, rt.cfg.Inventory.LowStockThreshold, logger.Named(rt.logger, "svc.reporting"), opts...)
			if !svc.HasSinks() {
				rt.logger.Warn("no report sink configured, reports will only be logged")
			}

			job := func(ctx context.Context) error {
				if _, err := store.Reload(); err != nil {
					return fmt.Errorf("reload inventory: %w", err)
				}
				report := svc.Generate(time.Now())
				rt.logger.Info("stock report", zap.Int("products", report.Products), zap.Float64("total_value", report.TotalValue), zap.Int("low_stock", len(report.LowStock)))
				return svc.Publish(ctx, report)
			}

			sched, err := scheduler.NewScheduler(rt.cfg.Reporting.CronSchedule, rt.cfg.Reporting.Timezone, jobTimeout, job, logger.Named(rt.logger, "scheduler"))
			if err != nil {
				return err
			}

			if runNow {
				if err := sched.RunOnce(ctx); err != nil {
					rt.logger.Error("initial report failed", zap.Error(err))
				}
			}

			sched.Start()
			defer sched.Stop()
			fmt.Fprintf(rt.out, "[INFO] Next report at %s. Press Ctrl+C to stop.\n", sched.Next().Format(time.RFC1123))

			<-ctx.Done()
			rt.logger.Info("shutdown signal received")
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "publish one report immediately before waiting for the schedule")
	return cmd
}
