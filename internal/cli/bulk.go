package cli

import (
	"github.com/spf13/cobra"

	"github.com/tallridge/backroom/internal/mutate"
)

// NewBulkCommand creates the bulk command: apply one change to a set of
// records in a single atomic operation.
func NewBulkCommand(opts *RootOptions) *cobra.Command {
	var (
		ids     []string
		field   string
		value   string
		percent float64
	)

	cmd := &cobra.Command{
		Use:   "bulk <kind>",
		Short: "Apply a field assignment or percentage adjustment to many records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := resolveKind(opts, args[0])
			if err != nil {
				return err
			}
			if (value != "") == cmd.Flags().Changed("percent") {
				return NewExitError(ExitCommandError, "exactly one of --value or --percent is required")
			}

			spec := mutate.BulkSpec{TargetIDs: ids, Field: field}
			if value != "" {
				parsed, err := mutate.ParseValue(sc, field, value)
				if err != nil {
					return WrapExitError(ExitCommandError, "parsing value", err)
				}
				spec.Mode, spec.Value = mutate.BulkAssign, parsed
			} else {
				spec.Mode, spec.Percent = mutate.BulkAdjustPercent, percent
			}

			st, err := openStore(opts)
			if err != nil {
				return err
			}
			defer st.Close()

			records, _, err := st.LoadLatest(cmd.Context(), sc)
			if err != nil {
				return WrapExitError(ExitCommandError, "loading snapshot", err)
			}

			coordinator := mutate.NewCoordinator(sc, mutate.SystemClock{}, mutate.UUIDv7Generator{})
			res := coordinator.Bulk(records, spec)

			out := formatter(opts, cmd)
			switch res.Status {
			case mutate.StatusSuccess:
				if err := st.SaveSnapshot(cmd.Context(), sc.Kind, res.Collection); err != nil {
					return WrapExitError(ExitCommandError, "saving snapshot", err)
				}
				return out.Success(map[string]any{
					"kind":    sc.Kind,
					"field":   field,
					"targets": len(ids),
				})
			case mutate.StatusEmptySelection:
				out.Error(ErrCodeValidation, "bulk action requires --ids", nil)
				return NewExitError(ExitFailure, "empty selection")
			case mutate.StatusNotFound:
				out.Error(ErrCodeNotFound, "target record "+res.RecordID+" not found", nil)
				return NewExitError(ExitFailure, "record not found")
			case mutate.StatusValidationError:
				out.Error(ErrCodeValidation, "validation failed", res.FieldErrors)
				return NewExitError(ExitFailure, "validation failed")
			default:
				out.Error(ErrCodeGeneric, string(res.Status), nil)
				return NewExitError(ExitFailure, string(res.Status))
			}
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "target record ids")
	cmd.Flags().StringVar(&field, "field", "", "field to change")
	cmd.Flags().StringVar(&value, "value", "", "value to assign")
	cmd.Flags().Float64Var(&percent, "percent", 0, "percentage adjustment for a numeric field")
	cmd.MarkFlagRequired("field")

	return cmd
}
