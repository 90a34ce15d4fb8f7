package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/listing"
	"github.com/frahmantamala/asset-management/internal/resource"
	"github.com/spf13/cobra"
)

// queryFlags are the list options shared by list, view, bulk-delete and export.
type queryFlags struct {
	page    int
	limit   int
	sort    string
	desc    bool
	search  string
	filters []string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "rows per page (10, 25, 50 or 100)")
	cmd.Flags().StringVar(&f.sort, "sort", "", "column to sort by")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "free text search")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "column filter as key=value, repeatable")
}

func (f *queryFlags) query(def resource.Definition, defaultLimit int) (resource.Query, error) {
	limit := f.limit
	if limit == 0 {
		limit = defaultLimit
	}
	if !resource.ValidPageSize(limit) {
		return resource.Query{}, internal.NewValidationError(
			fmt.Sprintf("Page size must be one of %v", resource.PageSizes), internal.ErrCodeInvalidPageSize)
	}
	if f.page < 1 {
		return resource.Query{}, internal.NewValidationError("Page must be at least 1", internal.ErrCodeValidationFailed)
	}

	q := resource.NewQuery(limit)
	q.Page = f.page
	q.Search = strings.TrimSpace(f.search)
	if f.sort != "" {
		if !def.Sortable(f.sort) {
			return resource.Query{}, internal.NewValidationError(
				fmt.Sprintf("Cannot sort %s by %q, use one of %s", def.Label, f.sort, strings.Join(def.SortColumns, ", ")),
				internal.ErrCodeValidationFailed)
		}
		q.SortColumn = f.sort
		if f.desc {
			q.SortDirection = resource.SortDesc
		}
	}

	filters, err := parseAssignments(f.filters, "filter")
	if err != nil {
		return resource.Query{}, err
	}
	for k, v := range filters {
		if resource.IsReservedParam(k) {
			return resource.Query{}, internal.NewValidationError(
				fmt.Sprintf("%q is reserved and cannot be used as a filter", k), internal.ErrCodeValidationFailed)
		}
		q.Filters[k] = v
	}
	return q, nil
}

// parseAssignments turns repeated key=value flags into a map. The value may
// be empty and may itself contain '='.
func parseAssignments(pairs []string, flag string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, internal.NewValidationError(
				fmt.Sprintf("Invalid --%s %q, expected key=value", flag, pair), internal.ErrCodeValidationFailed)
		}
		out[key] = value
	}
	return out, nil
}

func confirmer(a *app, yes bool) listing.Confirmer {
	if yes {
		return listing.AlwaysConfirm
	}
	return listing.PromptConfirmer{In: a.in, Out: a.out}
}

// cancelled turns a declined prompt into a normal exit.
func cancelled(a *app, err error) error {
	if errors.Is(err, listing.ErrCancelled) {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	return err
}

func newListCmd(g *globalOptions) *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:     "list <resource>",
		Aliases: []string{"ls"},
		Short:   "List one page of records",
		Args:    cobra.ExactArgs(1),
	}
	qf.register(cmd)
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, args []string) error {
		r, err := lookupRunner(args[0])
		if err != nil {
			return err
		}
		q, err := qf.query(r.Definition(), a.cfg.Listing.PageSize)
		if err != nil {
			return err
		}
		return r.List(ctx, a, q)
	})
	return cmd
}

func newViewCmd(g *globalOptions) *cobra.Command {
	var (
		qf         queryFlags
		next, prev int
	)
	cmd := &cobra.Command{
		Use:   "view <resource> <id>",
		Short: "Show one record and step to its neighbours in the list",
		Args:  cobra.ExactArgs(2),
	}
	qf.register(cmd)
	cmd.Flags().IntVar(&next, "next", 0, "step forward this many records")
	cmd.Flags().IntVar(&prev, "prev", 0, "step back this many records")
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, args []string) error {
		r, err := lookupRunner(args[0])
		if err != nil {
			return err
		}
		q, err := qf.query(r.Definition(), a.cfg.Listing.PageSize)
		if err != nil {
			return err
		}
		return r.View(ctx, a, q, resource.ID(args[1]), next-prev)
	})
	return cmd
}

func newCreateCmd(g *globalOptions) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "create <resource>",
		Short: "Create a record from --set field=value pairs",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as name=value, repeatable")
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, args []string) error {
		r, err := lookupRunner(args[0])
		if err != nil {
			return err
		}
		values, err := parseAssignments(sets, "set")
		if err != nil {
			return err
		}
		return r.Save(ctx, a, "", values)
	})
	return cmd
}

func newUpdateCmd(g *globalOptions) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "update <resource> <id>",
		Short: "Change fields of a record",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field value as name=value, repeatable")
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, args []string) error {
		r, err := lookupRunner(args[0])
		if err != nil {
			return err
		}
		values, err := parseAssignments(sets, "set")
		if err != nil {
			return err
		}
		if len(values) == 0 {
			return internal.NewValidationError("Nothing to update, pass at least one --set", internal.ErrCodeValidationFailed)
		}
		return r.Save(ctx, a, resource.ID(args[1]), values)
	})
	return cmd
}

func newDeleteCmd(g *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <resource> <id>",
		Aliases: []string{"rm"},
		Short:   "Delete one record",
		Args:    cobra.ExactArgs(2),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, args []string) error {
		r, err := lookupRunner(args[0])
		if err != nil {
			return err
		}
		return cancelled(a, r.Delete(ctx, a, resource.ID(args[1]), confirmer(a, yes)))
	})
	return cmd
}

func newBulkDeleteCmd(g *globalOptions) *cobra.Command {
	var (
		qf  queryFlags
		yes bool
		all bool
	)
	cmd := &cobra.Command{
		Use:   "bulk-delete <resource> [id...]",
		Short: "Delete several records of one page in a single request",
		Args:  cobra.MinimumNArgs(1),
	}
	qf.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&all, "all", false, "select every record on the page")
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, args []string) error {
		r, err := lookupRunner(args[0])
		if err != nil {
			return err
		}
		q, err := qf.query(r.Definition(), a.cfg.Listing.PageSize)
		if err != nil {
			return err
		}
		ids := resource.ParseIDs(args[1:])
		if len(ids) == 0 && !all {
			return listing.ErrNothingSelected
		}
		return cancelled(a, r.BulkDelete(ctx, a, q, ids, all, confirmer(a, yes)))
	})
	return cmd
}

func newImportCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <resource> <file>",
		Short: "Upload a spreadsheet of records",
		Args:  cobra.ExactArgs(2),
	}
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, args []string) error {
		r, err := lookupRunner(args[0])
		if err != nil {
			return err
		}
		return r.Import(ctx, a, args[1])
	})
	return cmd
}

func newExportCmd(g *globalOptions) *cobra.Command {
	var (
		qf     queryFlags
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <resource>",
		Short: "Download every record matching the filters",
		Args:  cobra.ExactArgs(1),
	}
	qf.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "export format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout when empty")
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, args []string) error {
		r, err := lookupRunner(args[0])
		if err != nil {
			return err
		}
		q, err := qf.query(r.Definition(), a.cfg.Listing.PageSize)
		if err != nil {
			return err
		}

		export := func(w io.Writer) (int64, error) { return r.Export(ctx, a, q, format, w) }
		var n int64
		if output == "" {
			n, err = export(a.out)
		} else {
			n, err = exportToFile(output, export)
		}
		if err != nil {
			return err
		}
		a.logger.Info("Export: written", "resource", r.Definition().Kind, "bytes", n, "output", output)
		if output != "" {
			fmt.Fprintf(a.out, "Wrote %d bytes to %s\n", n, output)
		}
		return nil
	})
	return cmd
}

// exportToFile runs export into a new file at path. The file is removed when
// the export or the final close fails, so no truncated output is left.
func exportToFile(path string, export func(io.Writer) (int64, error)) (n int64, err error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to write %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return export(file)
}
