package cmd

import (
	"fmt"

	recordDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/record"
	"github.com/frahmantamala/asset-management/internal/sandbox"
	sandboxPostgres "github.com/frahmantamala/asset-management/internal/sandbox/postgres"
	"github.com/frahmantamala/asset-management/internal/user"
	userPostgres "github.com/frahmantamala/asset-management/internal/user/postgres"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newSandboxSeedCmd(g *globalOptions) *cobra.Command {
	var clearData bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the sandbox database with sample data",
		Long:  `Create the login user and sample records for development and testing purposes.`,
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing records before seeding")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		deps, err := initializeSandbox(cmd, g)
		if err != nil {
			return err
		}
		defer deps.Close()
		return seedSandbox(cmd, deps, clearData)
	}
	return cmd
}

func seedSandbox(cmd *cobra.Command, deps *sandboxDeps, clearData bool) error {
	out := cmd.OutOrStdout()
	cfg := deps.Config.Sandbox

	if clearData {
		result := deps.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&recordDatamodel.Record{})
		if result.Error != nil {
			return fmt.Errorf("failed to clear records: %w", result.Error)
		}
		fmt.Fprintf(out, "Cleared %d record(s)\n", result.RowsAffected)
	}

	users := user.NewService(userPostgres.NewUserRepository(deps.DB), deps.Logger)
	created, err := users.EnsureUser(cfg.SeedEmail, "Administrator", cfg.SeedPassword)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(out, "Seeded user:", cfg.SeedEmail)
	} else {
		fmt.Fprintln(out, "User already exists:", cfg.SeedEmail)
	}

	records := sandbox.NewService(sandboxPostgres.NewRecordRepository(deps.DB), deps.Logger)
	n, err := records.Seed()
	if err != nil {
		return fmt.Errorf("failed to seed records: %w", err)
	}
	if n == 0 {
		fmt.Fprintln(out, "Records already present, nothing seeded")
		return nil
	}
	fmt.Fprintf(out, "Seeded %d record(s)\n", n)
	return nil
}
