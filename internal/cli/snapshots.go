package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewSnapshotsCommand creates the snapshots command: list and prune a
// kind's stored snapshots.
func NewSnapshotsCommand(opts *RootOptions) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "snapshots <kind>",
		Short: "List a kind's snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			if keep > 0 {
				deleted, err := st.Prune(cmd.Context(), kind, keep)
				if err != nil {
					return WrapExitError(ExitCommandError, "pruning snapshots", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d snapshot(s)\n", deleted)
			}

			versions, err := st.Versions(cmd.Context(), kind)
			if err != nil {
				return WrapExitError(ExitCommandError, "listing snapshots", err)
			}

			out := formatter(opts, cmd)
			if out.Format == "json" {
				list := make([]any, 0, len(versions))
				for _, v := range versions {
					list = append(list, map[string]any{
						"version":      v.Version,
						"saved_at":     v.SavedAt.UTC().Format(time.RFC3339Nano),
						"record_count": v.RecordCount,
					})
				}
				return out.Success(map[string]any{"kind": kind, "snapshots": list})
			}

			for _, v := range versions {
				fmt.Fprintf(cmd.OutOrStdout(), "v%d  %s  %d record(s)\n",
					v.Version, v.SavedAt.UTC().Format(time.RFC3339), v.RecordCount)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d snapshot(s)\n", len(versions))
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "prune", 0, "prune to the newest N snapshots before listing")
	return cmd
}
