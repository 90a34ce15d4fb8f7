package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/dashboard"
	"github.com/spf13/cobra"
)

func newDashboardCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show and arrange the dashboard widgets and charts",
	}
	cmd.AddCommand(
		newDashboardShowCmd(g),
		newDashboardSelectCmd(g),
		newDashboardUnselectCmd(g),
		newDashboardResizeCmd(g),
		newDashboardColumnsCmd(g),
	)
	return cmd
}

func newEditor(a *app) *dashboard.Editor {
	return dashboard.NewEditor(a.client, editorOptions(a))
}

func editorOptions(a *app) dashboard.Options {
	return dashboard.Options{
		WidgetColumns: a.cfg.Dashboard.WidgetColumns,
		ChartColumns:  a.cfg.Dashboard.ChartColumns,
		BannerTTL:     a.cfg.Dashboard.BannerTTL,
		Bus:           a.bus,
		Logger:        a.logger,
	}
}

// editDashboard loads the saved layout, applies change and saves it back.
func editDashboard(g *globalOptions, change func(e *dashboard.Editor, args []string) error) func(*cobra.Command, []string) error {
	return withApp(g, func(ctx context.Context, a *app, args []string) error {
		e := newEditor(a)
		defer e.Close()

		if err := e.Load(ctx); err != nil {
			return err
		}
		if err := change(e, args); err != nil {
			return err
		}
		if err := e.Save(ctx); err != nil {
			return err
		}
		return writeDashboard(a.out, e)
	})
}

// itemKind finds the kind of a catalog item so callers can name items by id alone.
func itemKind(id string) (dashboard.Kind, error) {
	for _, item := range dashboard.DefaultCatalog() {
		if item.ID == id {
			return item.Kind, nil
		}
	}
	return "", internal.NewValidationError(fmt.Sprintf("Unknown dashboard item %q", id), internal.ErrCodeValidationFailed)
}

func parseKind(raw string) (dashboard.Kind, error) {
	switch raw {
	case "widget", "widgets":
		return dashboard.KindWidget, nil
	case "chart", "charts":
		return dashboard.KindChart, nil
	}
	return "", internal.NewValidationError(fmt.Sprintf("Unknown item kind %q, use widgets or charts", raw), internal.ErrCodeValidationFailed)
}

func parseNumber(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, internal.NewValidationFieldsError(map[string]string{name: fmt.Sprintf("%s must be a number", name)})
	}
	return n, nil
}

func newDashboardShowCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the selected and available items",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withApp(g, func(ctx context.Context, a *app, _ []string) error {
		e := newEditor(a)
		defer e.Close()

		if err := e.Load(ctx); err != nil {
			return err
		}
		return writeDashboard(a.out, e)
	})
	return cmd
}

func newDashboardSelectCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select <item-id>...",
		Short: "Move items onto the dashboard, in the given order",
		Args:  cobra.MinimumNArgs(1),
		RunE: editDashboard(g, func(e *dashboard.Editor, args []string) error {
			for _, id := range args {
				kind, err := itemKind(id)
				if err != nil {
					return err
				}
				if err := e.MoveToSelected(id, kind); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func newDashboardUnselectCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unselect <item-id>...",
		Short: "Take items off the dashboard",
		Args:  cobra.MinimumNArgs(1),
		RunE: editDashboard(g, func(e *dashboard.Editor, args []string) error {
			for _, id := range args {
				kind, err := itemKind(id)
				if err != nil {
					return err
				}
				if err := e.MoveToAvailable(id, kind); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func newDashboardResizeCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resize <chart-id> <size>",
		Short: fmt.Sprintf("Set the size of a selected chart (%d-%d)", dashboard.MinSize, dashboard.MaxSize),
		Args:  cobra.ExactArgs(2),
		RunE: editDashboard(g, func(e *dashboard.Editor, args []string) error {
			size, err := parseNumber("size", args[1])
			if err != nil {
				return err
			}
			return e.SetSize(args[0], size)
		}),
	}
}

func newDashboardColumnsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <widgets|charts> <n>",
		Short: "Set the column count of one item kind",
		Args:  cobra.ExactArgs(2),
		RunE: editDashboard(g, func(e *dashboard.Editor, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			n, err := parseNumber("columns", args[1])
			if err != nil {
				return err
			}
			return e.SetColumns(kind, n)
		}),
	}
}

func writeDashboard(w io.Writer, e *dashboard.Editor) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, kind := range []dashboard.Kind{dashboard.KindWidget, dashboard.KindChart} {
		fmt.Fprintf(tw, "%sS (%d columns)\n", kindTitle(kind), e.Columns(kind))
		for i, item := range e.Selected(kind) {
			size := ""
			if kind == dashboard.KindChart {
				size = fmt.Sprintf("size %d", e.Size(item.ID))
			}
			fmt.Fprintf(tw, "  %d.\t%s\t%s\t%s\n", i+1, item.ID, item.Name, size)
		}
		for _, item := range e.Available(kind) {
			fmt.Fprintf(tw, "  -\t%s\t%s\tavailable\n", item.ID, item.Name)
		}
	}
	return tw.Flush()
}

func kindTitle(kind dashboard.Kind) string {
	if kind == dashboard.KindChart {
		return "CHART"
	}
	return "WIDGET"
}
