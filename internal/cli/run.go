package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/cascade/internal/app"
	"github.com/specialistvlad/cascade/internal/progress"
)

// runFlags are shared by run and watch.
type runFlags struct {
	force       bool
	concurrency int
	output      string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.force, "force", false, "Treat every artifact as changed")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Override the manifest concurrency")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "Event output: 'text' or 'json' (NDJSON)")
}

func (f *runFlags) sink(w io.Writer) (progress.Sink, error) {
	switch f.output {
	case "text":
		return progress.NewTextSink(w), nil
	case "json":
		return progress.NewJSONSink(w), nil
	default:
		return nil, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("invalid output %q: must be 'text' or 'json'", f.output)}
	}
}

func newRunCommand(c *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Recompute and deploy every changed artifact",
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

			report, err := a.Run(cmd.Context(), app.RunOptions{Force: flags.force}, sink)
			if report != nil && flags.output == "text" {
				printSummary(c.outW, report.Terminal.Summary)
			}
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func printSummary(w io.Writer, s *progress.Summary) {
	if s == nil {
		return
	}
	rows := [][]string{
		{"Batches", strconv.Itoa(s.Batches)},
		{"Succeeded", strconv.Itoa(s.Succeeded)},
		{"Failed", strconv.Itoa(s.Failed)},
		{"Unprocessed", strconv.Itoa(s.Unprocessed)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
	fmt.Fprintln(w, renderTable([]string{"Run", ""}, rows, []columnAlignment{alignLeft, alignRight}))
}
