package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallridge/backroom/internal/mutate"
	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/store"
	"github.com/tallridge/backroom/internal/tree"
)

// NewDeleteCommand creates the delete command. Deletes are two-phase on
// the command line as well: without --confirm the command only reports
// what would be removed and exits with a non-zero code.
//
// Flat kinds address a record with --id. Tree kinds address a branch
// with --category, optionally narrowed by --subcategory and --id; for a
// non-leaf branch the report carries the guard counts of everything the
// confirmed delete would remove.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	var (
		id          string
		category    string
		subcategory string
		confirm     bool
	)

	cmd := &cobra.Command{
		Use:   "delete <kind> (--id <record-id> | --category <id> [--subcategory <id>] [--id <item-id>])",
		Short: "Delete a record or a tree branch (requires --confirm to apply)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := resolveKind(opts, args[0])
			if err != nil {
				return err
			}
			if category == "" && id == "" {
				return NewExitError(ExitCommandError, "either --id or --category is required")
			}
			if category == "" && subcategory != "" {
				return NewExitError(ExitCommandError, "--subcategory requires --category")
			}
			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			if category != "" {
				path := tree.Path{CategoryID: category, SubcategoryID: subcategory, ItemID: id}
				return deleteTreeBranch(cmd, opts, st, sc, path, confirm)
			}
			return deleteRecord(cmd, opts, st, sc, id, confirm)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "record id (or tree item id) to delete")
	cmd.Flags().StringVar(&category, "category", "", "category id for tree deletes")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "subcategory id for tree deletes")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm the delete")

	return cmd
}

// deleteRecord runs the two-phase delete of one flat record.
func deleteRecord(cmd *cobra.Command, opts *RootOptions, st *store.Store, sc record.Schema, id string, confirm bool) error {
	records, _, err := st.LoadLatest(cmd.Context(), sc)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading snapshot", err)
	}

	coordinator := mutate.NewCoordinator(sc, mutate.SystemClock{}, mutate.UUIDv7Generator{})
	ticket, res := coordinator.RequestDelete(records, id)
	out := formatter(opts, cmd)
	if res.Status == mutate.StatusNotFound {
		out.Error(ErrCodeNotFound, fmt.Sprintf("record %q not found", id), nil)
		return NewExitError(ExitFailure, "record not found")
	}

	if !confirm {
		out.Error(ErrCodeValidation,
			fmt.Sprintf("deleting %q requires --confirm; nothing was changed", id), nil)
		return NewExitError(ExitFailure, "confirmation required")
	}

	res = coordinator.ConfirmDelete(records, ticket)
	if !res.OK() {
		out.Error(ErrCodeGeneric, string(res.Status), nil)
		return NewExitError(ExitFailure, string(res.Status))
	}
	if err := st.SaveSnapshot(cmd.Context(), sc.Kind, res.Collection); err != nil {
		return WrapExitError(ExitCommandError, "saving snapshot", err)
	}
	return out.Success(map[string]any{
		"kind":      sc.Kind,
		"record_id": id,
		"records":   len(res.Collection),
	})
}

// deleteTreeBranch runs the guarded two-phase delete of one tree node.
// The guard counts are always reported; without --confirm the tree is
// untouched.
func deleteTreeBranch(cmd *cobra.Command, opts *RootOptions, st *store.Store, sc record.Schema, path tree.Path, confirm bool) error {
	cats, _, err := st.LoadLatestTree(cmd.Context(), sc)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading tree snapshot", err)
	}

	coordinator := mutate.NewCoordinator(sc, mutate.SystemClock{}, mutate.UUIDv7Generator{})
	mut := tree.NewMutator(coordinator, mutate.UUIDv7Generator{})
	ticket, res := mut.RequestDelete(cats, path)
	out := formatter(opts, cmd)
	if res.Status == mutate.StatusNotFound {
		out.Error(ErrCodeNotFound, fmt.Sprintf("%s not found", treePathLabel(res.Path)), nil)
		return NewExitError(ExitFailure, "tree node not found")
	}

	if !confirm {
		out.Error(ErrCodeValidation, fmt.Sprintf(
			"deleting %s removes %d subcategories and %d products; re-run with --confirm",
			treePathLabel(path), res.Guard.SubcategoryCount, res.Guard.ProductCount), nil)
		return NewExitError(ExitFailure, "confirmation required")
	}

	res = mut.ConfirmDelete(cats, ticket)
	if !res.OK() {
		out.Error(ErrCodeGeneric, string(res.Status), nil)
		return NewExitError(ExitFailure, string(res.Status))
	}
	if err := st.SaveTree(cmd.Context(), sc.Kind, res.Categories); err != nil {
		return WrapExitError(ExitCommandError, "saving tree snapshot", err)
	}
	return out.Success(map[string]any{
		"kind":        sc.Kind,
		"category":    path.CategoryID,
		"subcategory": path.SubcategoryID,
		"record_id":   path.ItemID,
		"categories":  len(res.Categories),
	})
}

// treePathLabel renders a tree path for messages.
func treePathLabel(p tree.Path) string {
	label := "category " + p.CategoryID
	if p.SubcategoryID != "" {
		label += "/" + p.SubcategoryID
	}
	if p.ItemID != "" {
		label += " item " + p.ItemID
	}
	return label
}
