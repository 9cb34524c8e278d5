package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lanraragi/lrrctl/internal/log"
	"github.com/lanraragi/lrrctl/internal/notify"
	"github.com/lanraragi/lrrctl/internal/service"
)

func daemonCmd() *cobra.Command {
	var once, now bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "run the configured schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := log.ContextAttrs(cmd.Context(), slog.Group("lrrctl",
				slog.String("cmd", "daemon"),
				slog.Int("pid", os.Getpid()),
			))

			// unattended: notifications go to the log
			a, err := newApp(ctx, config, notify.NewLog(ctx, slog.Default()), notify.NopView{}, nil)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			var opts []service.Option
			if now {
				opts = append(opts, service.WithStartImmediately())
			}
			scheduler, err := service.NewScheduler(ctx, config.Schedule, a.ops, a.guard, opts...)
			if err != nil {
				return err
			}
			if once {
				return scheduler.RunOnce(ctx)
			}
			return scheduler.Do(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run every scheduled task once and exit")
	cmd.Flags().BoolVar(&now, "now", false, "run every task at start, then follow the schedule")
	return cmd
}
