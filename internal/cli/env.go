package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallridge/backroom/internal/record"
	"github.com/tallridge/backroom/internal/schema"
	"github.com/tallridge/backroom/internal/store"
)

// formatter builds the command's output formatter from the root options.
func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
}

// resolveKinds loads the kind set: the CUE schema directory when given,
// the embedded builtins otherwise.
func resolveKinds(opts *RootOptions) (map[string]record.Schema, error) {
	if opts.Schemas != "" {
		kinds, err := schema.LoadDir(opts.Schemas)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "loading schemas", err)
		}
		return kinds, nil
	}
	kinds, err := schema.Builtin()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "builtin schemas", err)
	}
	return kinds, nil
}

// resolveKind loads one kind schema by name.
func resolveKind(opts *RootOptions, kind string) (record.Schema, error) {
	kinds, err := resolveKinds(opts)
	if err != nil {
		return record.Schema{}, err
	}
	sc, ok := kinds[kind]
	if !ok {
		return record.Schema{}, NewExitError(ExitCommandError, fmt.Sprintf("unknown kind %q", kind))
	}
	return sc, nil
}

// openStore opens the snapshot database.
func openStore(opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening snapshot store", err)
	}
	return st, nil
}

// formatValue renders a field value for text output.
func formatValue(v record.Value) string {
	switch val := v.(type) {
	case record.String:
		return string(val)
	case record.Number:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", float64(val)), "0"), ".")
	case record.Bool:
		return fmt.Sprintf("%t", bool(val))
	case record.Time:
		return time.Time(val).UTC().Format(time.RFC3339)
	case record.Strings:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// recordData renders one record for JSON output: id plus a field map
// with display-formatted values, keys sorted for stable output.
func recordData(r record.Record) map[string]any {
	fields := make(map[string]string, len(r.Fields))
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fields[name] = formatValue(r.Fields[name])
	}
	return map[string]any{"id": r.ID, "fields": fields}
}
