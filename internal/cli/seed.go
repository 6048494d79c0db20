package cli

import (
	"github.com/spf13/cobra"

	"github.com/tallridge/backroom/internal/catalog"
	"github.com/tallridge/backroom/internal/tree"
)

// NewSeedCommand creates the seed command: load a YAML seed file and
// write it as the kind's next snapshot. Tree seeds keep their category
// structure, so later tree deletes can address branches by id chain.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <seed-file>",
		Short: "Load a YAML seed file into the snapshot store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := resolveKinds(opts)
			if err != nil {
				return err
			}
			seed, err := catalog.LoadFile(args[0], kinds)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading seed", err)
			}

			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			if len(seed.Tree) > 0 {
				if err := st.SaveTree(cmd.Context(), seed.Kind, seed.Tree); err != nil {
					return WrapExitError(ExitCommandError, "saving tree snapshot", err)
				}
				return formatter(opts, cmd).Success(map[string]any{
					"kind":       seed.Kind,
					"categories": len(seed.Tree),
					"records":    len(tree.Items(seed.Tree)),
				})
			}

			if err := st.SaveSnapshot(cmd.Context(), seed.Kind, seed.Records); err != nil {
				return WrapExitError(ExitCommandError, "saving snapshot", err)
			}
			return formatter(opts, cmd).Success(map[string]any{
				"kind":    seed.Kind,
				"records": len(seed.Records),
			})
		},
	}
	return cmd
}
