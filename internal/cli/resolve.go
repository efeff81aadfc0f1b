package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newResolveCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve PATH",
		Short: "Show which artifact route a path resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.newApp(0)
			if err != nil {
				return err
			}
			m, ok, err := a.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return &ExitError{Code: ExitRuntime, Message: fmt.Sprintf("no route matches %q", args[0])}
			}

			rows := [][]string{{"pattern", m.Pattern()}, {"kind", m.Kind.String()}}
			names := make([]string, 0, len(m.Params))
			for name := range m.Params {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				rows = append(rows, []string{"[" + name + "]", m.Params[name]})
			}
			fmt.Fprintln(c.outW, renderTable([]string{"Route", m.Path}, rows, nil))
			return nil
		},
	}
}
