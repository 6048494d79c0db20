package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command: compile the kind
// schemas and report them without touching any data.
func NewValidateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compile and validate the kind schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(opts, cmd)
			kinds, err := resolveKinds(opts)
			if err != nil {
				out.Error(ErrCodeSchema, err.Error(), nil)
				return NewExitError(ExitFailure, "schema validation failed")
			}

			names := make([]string, 0, len(kinds))
			for name := range kinds {
				names = append(names, name)
			}
			sort.Strings(names)

			if out.Format == "json" {
				list := make([]any, 0, len(names))
				for _, name := range names {
					sc := kinds[name]
					list = append(list, map[string]any{
						"kind":       name,
						"fields":     sc.FieldNames(),
						"searchable": sc.Searchable,
						"required":   sc.Required,
					})
				}
				return out.Success(map[string]any{"kinds": list})
			}

			for _, name := range names {
				sc := kinds[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, strings.Join(sc.FieldNames(), ", "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d kind(s) valid\n", len(names))
			return nil
		},
	}
	return cmd
}
