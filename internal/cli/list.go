package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallridge/backroom/internal/query"
)

// NewListCommand creates the list command: derive and print a view of a
// kind's latest snapshot.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var (
		search   string
		sortKey  string
		desc     bool
		pageSize int
		pages    int
		minPrice float64
		maxPrice float64
		onSale   bool
		status   []string
	)

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List records of a kind through the query pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := resolveKind(opts, args[0])
			if err != nil {
				return err
			}
			if onSale && sc.DiscountField == "" {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("kind %s declares no discount field, --on-sale does not apply", sc.Kind))
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

			var filters []query.Filter
			if len(status) > 0 {
				filters = append(filters, query.MatchSet{Field: "status", Values: status})
			}
			if maxPrice > 0 {
				filters = append(filters, query.NumericRange{Field: sc.PriceField, Min: minPrice, Max: maxPrice})
			}
			if onSale {
				filters = append(filters, query.Flag{Field: sc.DiscountField, Active: true})
			}

			params := query.Params{
				Search:   search,
				Filters:  filters,
				SortKey:  sortKey,
				PageSize: pageSize,
			}
			if desc {
				params.SortDir = query.Descending
			}
			if pages < 1 {
				pages = 1
			}
			view := query.DeriveView(sc, records, params, pages*params.EffectivePageSize())

			out := formatter(opts, cmd)
			if out.Format == "json" {
				items := make([]any, 0, len(view.Items))
				for _, r := range view.Items {
					items = append(items, recordData(r))
				}
				return out.Success(map[string]any{
					"kind":     sc.Kind,
					"items":    items,
					"total":    view.Total,
					"has_more": view.HasMore,
				})
			}

			for _, r := range view.Items {
				parts := []string{r.ID}
				for _, name := range sc.FieldNames() {
					if v, ok := r.Get(name); ok {
						parts = append(parts, fmt.Sprintf("%s=%s", name, formatValue(v)))
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, "  "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d record(s)", len(view.Items), view.Total)
			if view.HasMore {
				fmt.Fprint(cmd.OutOrStdout(), " (more available, use --pages)")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "free-text search")
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort field")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size (default 10)")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to reveal")
	cmd.Flags().Float64Var(&minPrice, "min-price", 0, "minimum effective price")
	cmd.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum effective price (0 disables)")
	cmd.Flags().BoolVar(&onSale, "on-sale", false, "only discounted records")
	cmd.Flags().StringSliceVar(&status, "status", nil, "status filter values")

	return cmd
}
