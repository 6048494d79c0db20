package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallridge/backroom/internal/harness"
)

// NewRunCommand creates the run command: execute a conformance scenario
// and print its deterministic trace.
func NewRunCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario-file>",
		Short: "Run a YAML scenario and print its trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(opts, cmd)
			scenario, err := harness.LoadScenario(args[0])
			if err != nil {
				out.Error(ErrCodeScenario, err.Error(), nil)
				return NewExitError(ExitCommandError, "loading scenario")
			}

			result, err := harness.Run(scenario)
			if err != nil {
				out.Error(ErrCodeScenario, err.Error(), nil)
				return NewExitError(ExitFailure, "scenario failed")
			}

			if out.Format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			for _, ev := range result.Events {
				line := fmt.Sprintf("%2d %-14s view=[%s] total=%d",
					ev.Seq, ev.Op, strings.Join(ev.ViewIDs, " "), ev.Total)
				if ev.Status != "" {
					line += " status=" + ev.Status
				}
				if ev.Guard != nil {
					line += fmt.Sprintf(" guard=%d subcategories/%d products",
						ev.Guard.Subcategories, ev.Guard.Products)
				}
				if len(ev.Selection) > 0 {
					line += " selected=[" + strings.Join(ev.Selection, " ") + "]"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	return cmd
}
