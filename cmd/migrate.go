package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newMigrateCmd(g *globalOptions) *cobra.Command {
	var rollback, status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded migrations of the local session store",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVarP(&rollback, "rollback", "r", false, "roll back the latest migration")
	cmd.Flags().BoolVar(&status, "status", false, "print the migration status only")

	cmd.RunE = withApp(g, func(ctx context.Context, a *app, _ []string) error {
		switch {
		case rollback:
			result, err := a.store.Rollback(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Rolled back version %d (%s)\n", result.Source.Version, result.Duration.Round(time.Millisecond))
			return nil
		case status:
		default:
			results, err := a.store.Migrate(ctx)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(a.out, "Applied version %d (%s)\n", r.Source.Version, r.Duration.Round(time.Millisecond))
			}
		}

		statuses, err := a.store.Status(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT")
		for _, s := range statuses {
			applied := ""
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Local().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Source.Version, s.State, applied)
		}
		return tw.Flush()
	})
	return cmd
}
