package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/asset-management/internal"
	sandboxPostgres "github.com/frahmantamala/asset-management/internal/sandbox/postgres"
	"github.com/frahmantamala/asset-management/internal/transport/rest"
	"github.com/frahmantamala/asset-management/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

func newSandboxCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Run a local API backend for development",
		Long:  `Serve the asset management REST API from a local sqlite or postgres database.`,
	}
	cmd.AddCommand(newSandboxServeCmd(g), newSandboxSeedCmd(g))
	return cmd
}

// sandboxDeps is what both sandbox subcommands need.
type sandboxDeps struct {
	Config *internal.Config
	DB     *gorm.DB
	Logger *slog.Logger
}

func (d *sandboxDeps) Close() {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeSandbox(cmd *cobra.Command, g *globalOptions) (*sandboxDeps, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Sandbox.Validate(); err != nil {
		return nil, fmt.Errorf("error validating sandbox config: %w", err)
	}
	logger.InitWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	db, err := sandboxPostgres.Open(cfg.Sandbox.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &sandboxDeps{Config: cfg, DB: db, Logger: logger.LoggerWrapper()}, nil
}

func newSandboxServeCmd(g *globalOptions) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sandbox HTTP server",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "seed sample data before serving")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		deps, err := initializeSandbox(cmd, g)
		if err != nil {
			return err
		}
		defer deps.Close()

		if seed {
			if err := seedSandbox(cmd, deps, false); err != nil {
				return err
			}
		}
		return startHTTPServer(cmd.Context(), deps)
	}
	return cmd
}

func startHTTPServer(ctx context.Context, deps *sandboxDeps) error {
	cfg := deps.Config.Sandbox
	addr := fmt.Sprintf(":%d", cfg.Port)

	router, err := rest.NewSandboxRouter(deps.DB, *deps.Config, fmt.Sprintf("http://localhost:%d", cfg.Port), deps.Logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	deps.Logger.Info("Starting HTTP server", "address", addr, "driver", cfg.Database.Driver)

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
	case <-ctx.Done():
		deps.Logger.Info("Context cancelled, shutting down...")
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("Server shutdown error", "error", err)
	}
	deps.Logger.Info("Server stopped")
	return nil
}
