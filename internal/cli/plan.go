package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/cascade/internal/app"
)

func newPlanCommand(c *commandContext) *cobra.Command {
	var (
		force       bool
		asJSON      bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the batches the next run would execute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(concurrency)
			if err != nil {
				return err
			}
			p, err := a.Plan(cmd.Context(), force)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(c.outW)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			printPlan(c.outW, p)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Treat every artifact as changed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Override the manifest concurrency")
	return cmd
}

func printPlan(w io.Writer, p *app.Plan) {
	if p.Empty() && len(p.Unprocessed) == 0 {
		fmt.Fprintln(w, "Nothing to do: every artifact is up to date.")
		return
	}

	var rows [][]string
	for i, batch := range p.Batches {
		for _, path := range batch {
			rows = append(rows, []string{strconv.Itoa(i), path})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(w, renderTable([]string{"Batch", "Path"}, rows, []columnAlignment{alignRight, alignLeft}))
	}

	if len(p.Issues) > 0 {
		issues := make([][]string, 0, len(p.Issues))
		for _, is := range p.Issues {
			issues = append(issues, []string{is.Path, string(is.Reason), strings.Join(is.Related, " → ")})
		}
		fmt.Fprintln(w, "Unprocessed:")
		fmt.Fprintln(w, renderTable([]string{"Path", "Reason", "Related"}, issues, nil))
	}
}
