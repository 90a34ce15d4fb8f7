package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/apiclient"
	"github.com/frahmantamala/asset-management/internal/core/events"
	"github.com/frahmantamala/asset-management/internal/session"
	"github.com/frahmantamala/asset-management/internal/session/store"
	"github.com/frahmantamala/asset-management/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "ASSETCTL"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configDir string
	profile   string
	baseURL   string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:           "assetctl",
		Short:         "Asset Management",
		Long:          `Console client for the asset and inventory management API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configDir, "config", "c", ".", "directory holding config.yml")
	root.PersistentFlags().StringVarP(&g.profile, "profile", "p", "", "session profile to use")
	root.PersistentFlags().StringVar(&g.baseURL, "base-url", "", "API base URL, overrides api.base_url")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level, overrides logging.level")

	root.AddCommand(
		newLoginCmd(g),
		newLogoutCmd(g),
		newWhoamiCmd(g),
		newResourcesCmd(),
		newListCmd(g),
		newViewCmd(g),
		newCreateCmd(g),
		newUpdateCmd(g),
		newDeleteCmd(g),
		newBulkDeleteCmd(g),
		newImportCmd(g),
		newExportCmd(g),
		newDashboardCmd(g),
		newMigrateCmd(g),
		newSandboxCmd(g),
	)
	return root
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", errorText(err))
		os.Exit(1)
	}
}

// errorText is what the user sees for a failed command.
func errorText(err error) string {
	msg := internal.DisplayMessage(err, "Request failed")
	if errors.Is(err, internal.ErrAuthMissing) || errors.Is(err, internal.ErrTokenExpired) {
		return msg + " (run `assetctl login`)"
	}
	appErr, ok := internal.IsAppError(err)
	if !ok || len(appErr.Fields) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for _, name := range sortedKeys(appErr.Fields) {
		fmt.Fprintf(&b, "\n  %s: %s", name, appErr.Fields[name])
	}
	return b.String()
}

// loadConfig layers config.yml under path and ASSETCTL_* variables over the
// built in defaults. A missing config file is not an error.
func loadConfig(path string) (*internal.Config, error) {
	v := viper.New()
	for key, value := range internal.Defaults() {
		v.SetDefault(key, value)
	}
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func (g *globalOptions) config() (*internal.Config, error) {
	cfg, err := loadConfig(g.configDir)
	if err != nil {
		return nil, err
	}
	if g.baseURL != "" {
		cfg.API.BaseURL = g.baseURL
	}
	if g.profile != "" {
		cfg.Session.Profile = g.profile
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}
	return cfg, nil
}

// app is the client side object graph of one command invocation.
type app struct {
	cfg     *internal.Config
	logger  *slog.Logger
	store   *store.SessionStore
	session *session.Session
	client  *apiclient.Client
	bus     *events.EventBus
	in      io.Reader
	out     io.Writer
}

func newApp(cmd *cobra.Command, g *globalOptions) (*app, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	logger.InitWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	log := logger.LoggerWrapper()

	sessions, err := store.Open(cmd.Context(), cfg.Session.StorePath, log)
	if err != nil {
		return nil, err
	}
	sess := session.New(sessions, cfg.Session.Profile)

	bus := events.NewEventBus(log)
	errOut := cmd.ErrOrStderr()
	// errors come back as the command's result and are printed by Execute
	bus.Subscribe(events.EventTypeAlert, func(_ context.Context, e events.Event) error {
		if alert, ok := e.(*events.AlertEvent); ok && alert.Message != "" && alert.Level != events.AlertError {
			fmt.Fprintf(errOut, "[%s] %s\n", alert.Level, alert.Message)
		}
		return nil
	})

	return &app{
		cfg:     cfg,
		logger:  log,
		store:   sessions,
		session: sess,
		client:  apiclient.NewClient(apiclient.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, sess, log),
		bus:     bus,
		in:      cmd.InOrStdin(),
		out:     cmd.OutOrStdout(),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("SessionStore: close failed", "error", err)
	}
}

// withApp adapts a function taking the wired app into a cobra RunE.
func withApp(g *globalOptions, run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, g)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd.Context(), a, args)
	}
}
