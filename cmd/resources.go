package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/apiclient"
	"github.com/frahmantamala/asset-management/internal/detail"
	"github.com/frahmantamala/asset-management/internal/form"
	"github.com/frahmantamala/asset-management/internal/listing"
	"github.com/frahmantamala/asset-management/internal/resource"
	"github.com/spf13/cobra"
)

// row is satisfied by every resource type of the catalog.
type row interface {
	resource.Editable
	resource.Tabular
}

// runner erases the record type so commands can dispatch on a kind name.
type runner interface {
	Definition() resource.Definition
	List(ctx context.Context, a *app, q resource.Query) error
	View(ctx context.Context, a *app, q resource.Query, id resource.ID, step int) error
	Save(ctx context.Context, a *app, id resource.ID, values map[string]string) error
	Delete(ctx context.Context, a *app, id resource.ID, confirm listing.Confirmer) error
	BulkDelete(ctx context.Context, a *app, q resource.Query, ids []resource.ID, all bool, confirm listing.Confirmer) error
	Import(ctx context.Context, a *app, path string) error
	Export(ctx context.Context, a *app, q resource.Query, format string, w io.Writer) (int64, error)
}

var runners = map[string]func(resource.Definition) runner{
	resource.KindCategory:      newRunner[resource.Category],
	resource.KindDepartment:    newRunner[resource.Department],
	resource.KindSite:          newRunner[resource.Site],
	resource.KindLocation:      newRunner[resource.Location],
	resource.KindSecurityGroup: newRunner[resource.SecurityGroup],
	resource.KindDocument:      newRunner[resource.Document],
	resource.KindImage:         newRunner[resource.Image],
	resource.KindAsset:         newRunner[resource.Asset],
	resource.KindInventory:     newRunner[resource.InventoryItem],
	resource.KindCustomField:   newRunner[resource.CustomField],
}

// lookupRunner accepts a kind ("category") or its collection path ("categories").
func lookupRunner(name string) (runner, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, def := range resource.Definitions() {
		if def.Kind != name && strings.TrimPrefix(def.Path, "/") != name {
			continue
		}
		if build, ok := runners[def.Kind]; ok {
			return build(def), nil
		}
	}
	return nil, internal.NewValidationError(
		fmt.Sprintf("Unknown resource %q, run `assetctl resources` for the list", name),
		internal.ErrCodeValidationFailed)
}

type typedRunner[T row] struct {
	def resource.Definition
}

func newRunner[T row](def resource.Definition) runner {
	return &typedRunner[T]{def: def}
}

func (r *typedRunner[T]) Definition() resource.Definition {
	return r.def
}

func (r *typedRunner[T]) api(a *app) *apiclient.Resource[T] {
	return apiclient.NewResource[T](a.client, r.def.Path)
}

func (r *typedRunner[T]) controller(a *app, q resource.Query, confirm listing.Confirmer) *listing.Controller[T] {
	return listing.NewController[T](r.api(a), listOptions(a, r.def, q, confirm))
}

func listOptions(a *app, def resource.Definition, q resource.Query, confirm listing.Confirmer) listing.Options {
	opts := listing.Options{
		Kind:              def.Kind,
		PageSize:          a.cfg.Listing.PageSize,
		SearchDebounce:    a.cfg.Listing.SearchDebounce,
		ImportMaxBytes:    a.cfg.Import.MaxBytes,
		AllowedExtensions: a.cfg.Import.AllowedExtensions,
		InitialQuery:      &q,
		Confirmer:         confirm,
		Bus:               a.bus,
		Logger:            a.logger,
	}
	if a.client != nil {
		opts.Auth = a.client
	}
	return opts
}

func (r *typedRunner[T]) List(ctx context.Context, a *app, q resource.Query) error {
	c := r.controller(a, q, nil)
	defer c.Close()

	if err := c.Fetch(ctx); err != nil {
		return err
	}
	return writeTable(a.out, r.def, c.State())
}

// View shows one record. A positive step walks forward through the result
// set, a negative one backward.
func (r *typedRunner[T]) View(ctx context.Context, a *app, q resource.Query, id resource.ID, step int) error {
	c := r.controller(a, q, nil)
	defer c.Close()

	if err := c.Fetch(ctx); err != nil {
		return err
	}
	nav := detail.NewNavigator[T](c, id, a.logger)

	record, onPage := nav.Current()
	if !onPage {
		if step != 0 {
			return internal.NewValidationError(
				fmt.Sprintf("Record %s is not on page %d of the list", id, q.Page), internal.ErrCodeValidationFailed)
		}
		got, err := r.api(a).Get(ctx, id)
		if err != nil {
			return err
		}
		return writeDetail(a.out, r.def, got, nil)
	}

	var err error
	for ; step > 0; step-- {
		if record, err = nav.Next(ctx); err != nil {
			return err
		}
	}
	for ; step < 0; step++ {
		if record, err = nav.Prev(ctx); err != nil {
			return err
		}
	}

	var hints []string
	if nav.HasPrev() {
		hints = append(hints, "--prev")
	}
	if nav.HasNext() {
		hints = append(hints, "--next")
	}
	return writeDetail(a.out, r.def, record, hints)
}

// Save creates a record when id is zero and updates it otherwise. The values
// go through the same draft, lock and validation rules as the modal form.
func (r *typedRunner[T]) Save(ctx context.Context, a *app, id resource.ID, values map[string]string) error {
	api := r.api(a)
	f := form.New[T](r.def, api, form.Options{Bus: a.bus, Logger: a.logger})

	if id.IsZero() {
		f.OpenCreate()
	} else {
		current, err := api.Get(ctx, id)
		if err != nil {
			return err
		}
		f.OpenEdit(current)
	}
	defer f.Cancel()

	for _, name := range sortedKeys(values) {
		if err := f.Set(name, values[name]); err != nil {
			return err
		}
	}

	saved, err := f.Submit(ctx)
	if err != nil {
		if state := f.State(); len(state.Errors) > 0 {
			return internal.NewValidationFieldsError(state.Errors)
		}
		return err
	}
	return writeDetail(a.out, r.def, saved, nil)
}

func (r *typedRunner[T]) Delete(ctx context.Context, a *app, id resource.ID, confirm listing.Confirmer) error {
	c := r.controller(a, resource.NewQuery(resource.PageSizes[len(resource.PageSizes)-1]), confirm)
	defer c.Close()

	if err := c.Fetch(ctx); err != nil {
		return err
	}
	return c.Delete(ctx, id)
}

// BulkDelete deletes ids, or every row of the page when all is set. Only rows
// on the listed page can be selected.
func (r *typedRunner[T]) BulkDelete(ctx context.Context, a *app, q resource.Query, ids []resource.ID, all bool, confirm listing.Confirmer) error {
	c := r.controller(a, q, confirm)
	defer c.Close()

	if err := c.Fetch(ctx); err != nil {
		return err
	}
	if all {
		c.ToggleSelectAllOnPage()
	} else if kept := c.SelectIDs(ids); kept < len(ids) {
		selected := map[resource.ID]bool{}
		for _, id := range c.State().Selected {
			selected[id] = true
		}
		var missing []string
		for _, id := range ids {
			if !selected[id] {
				missing = append(missing, id.String())
			}
		}
		return internal.NewValidationError(
			fmt.Sprintf("Not on page %d of the list: %s", q.Page, strings.Join(missing, ", ")),
			internal.ErrCodeValidationFailed)
	}
	return c.BulkDelete(ctx)
}

func (r *typedRunner[T]) Import(ctx context.Context, a *app, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return internal.NewValidationError(fmt.Sprintf("Cannot open %s: %v", path, err), internal.ErrCodeInvalidFile)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return internal.NewValidationError(fmt.Sprintf("Cannot read %s: %v", path, err), internal.ErrCodeInvalidFile)
	}

	c := r.controller(a, resource.NewQuery(a.cfg.Listing.PageSize), nil)
	defer c.Close()

	result, err := c.Import(ctx, path, info.Size(), file)
	if err != nil && result.TotalRows == 0 {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d of %d rows (%d failed)\n", result.ImportedCount, result.TotalRows, result.FailedCount)
	for _, msg := range result.Errors {
		fmt.Fprintf(a.out, "  %s\n", msg)
	}
	return nil
}

func (r *typedRunner[T]) Export(ctx context.Context, a *app, q resource.Query, format string, w io.Writer) (int64, error) {
	c := r.controller(a, q, nil)
	defer c.Close()
	return c.Export(ctx, format, w)
}

func writeTable[T row](w io.Writer, def resource.Definition, state listing.State[T]) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(def.Columns, "\t"))
	for _, record := range state.Rows {
		fmt.Fprintln(tw, strings.Join(record.TableRow(), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p := state.Pagination
	if p.TotalRecords == 0 {
		_, err := fmt.Fprintln(w, "No records found")
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d-%d of %d (page %d of %d)\n",
		p.StartRecord, p.EndRecord, p.TotalRecords, state.Query.Page, p.TotalPages)
	return err
}

func writeDetail(w io.Writer, def resource.Definition, record resource.Tabular, hints []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, line := range detail.Describe(def, record) {
		fmt.Fprintf(tw, "%s:\t%s\n", line.Label, line.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(hints) > 0 {
		_, err := fmt.Fprintf(w, "(%s available)\n", strings.Join(hints, ", "))
		return err
	}
	return nil
}

func newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resource kinds the client can manage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tPATH\tLABEL\tSORTABLE")
			for _, def := range resource.Definitions() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.Kind, def.Path, def.Label, strings.Join(def.SortColumns, ","))
			}
			return tw.Flush()
		},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
