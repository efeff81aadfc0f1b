package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/cascade/internal/app"
	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/fsutil"
	"github.com/specialistvlad/cascade/internal/watch"
)

func newWatchCommand(c *commandContext) *cobra.Command {
	var (
		flags    runFlags
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run once, then run again whenever the content changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sink, err := flags.sink(c.outW)
			if err != nil {
				return err
			}
			a, err := c.newApp(flags.concurrency)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.StartHealthcheck(); err != nil {
				return err
			}

			matcher, err := fsutil.NewMatcher(a.Model().Project.Ignore...)
			if err != nil {
				return err
			}
			logger := ctxlog.FromContext(a.Context())

			// Only the first run honors --force; later runs pick up edits.
			force := flags.force
			trigger := func(ctx context.Context) error {
				report, err := a.Run(ctx, app.RunOptions{Force: force}, sink)
				force = false
				if errors.Is(err, app.ErrLocked) {
					logger.Warn("Skipping run: state directory is locked.")
					return nil
				}
				if report != nil && flags.output == "text" {
					printSummary(c.outW, report.Terminal.Summary)
				}
				return err
			}

			ctx := ctxlog.WithLogger(cmd.Context(), logger)
			if err := trigger(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Initial run failed.", "error", err)
			}
			return watch.New(a.Model().ContentDir(), matcher, trigger, watch.WithDebounce(debounce)).Run(ctx)
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a change triggers a run")
	return cmd
}
