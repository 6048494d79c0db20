package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallridge/backroom/internal/mutate"
)

// NewSetCommand creates the set command: create or update one record.
func NewSetCommand(opts *RootOptions) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "set <kind> field=value [field=value ...]",
		Short: "Create (no --id) or update (--id) one record",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := resolveKind(opts, args[0])
			if err != nil {
				return err
			}
			fields, err := parseFieldArgs(args[1:])
			if err != nil {
				return WrapExitError(ExitCommandError, "parsing fields", err)
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
			res := coordinator.Upsert(records, mutate.Payload{ID: id, Fields: fields})

			out := formatter(opts, cmd)
			switch res.Status {
			case mutate.StatusSuccess:
				if err := st.SaveSnapshot(cmd.Context(), sc.Kind, res.Collection); err != nil {
					return WrapExitError(ExitCommandError, "saving snapshot", err)
				}
				return out.Success(map[string]any{
					"kind":      sc.Kind,
					"record_id": res.RecordID,
					"records":   len(res.Collection),
				})
			case mutate.StatusNotFound:
				out.Error(ErrCodeNotFound, fmt.Sprintf("record %q not found", id), nil)
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

	cmd.Flags().StringVar(&id, "id", "", "record id to update (empty creates)")
	return cmd
}

// parseFieldArgs converts key=value arguments into a payload field map.
func parseFieldArgs(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		fields[name] = value
	}
	return fields, nil
}
