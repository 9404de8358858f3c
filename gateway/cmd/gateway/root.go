package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lotuspetal/lotuspetal-api/common/logging"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/cli/output"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/config"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/events"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Lotuspetal hub gateway",
	Long: `gateway serves the public lotuspetal API in front of the connector hub.

It forwards connection, table, row, export and submission calls to the hub
with tenant resolution and a single error envelope, and keeps a local store
of sourcing events.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		if !output.ValidFormat(format) {
			return fmt.Errorf("unknown output format %q (table, json, yaml)", format)
		}
		return nil
	},
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		output.New(output.FormatTable).Error("%v", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or /etc/lotuspetal/gateway/config.yaml)")
	rootCmd.PersistentFlags().String("output", output.FormatTable, "output format: table, json, yaml")

	rootCmd.AddCommand(serveCmd, migrateCmd, eventsCmd, routesCmd)
}

func printer(cmd *cobra.Command) *output.Printer {
	format, _ := cmd.Flags().GetString("output")
	p := output.New(format)
	p.Out = cmd.OutOrStdout()
	p.Err = cmd.ErrOrStderr()
	return p
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("gateway"))
	logging.SetDefault(logger)
	return logger
}

// openStore returns the Postgres store when database.url is set and the
// in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (events.Store, error) {
	if cfg.Database.URL == "" {
		return events.NewMemoryStore(), nil
	}
	store, err := events.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	return store, nil
}

// requireDatabase opens the Postgres store for commands that only make
// sense against a persistent store.
func requireDatabase(ctx context.Context, cfg *config.Config) (events.Store, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is not configured")
	}
	return openStore(ctx, cfg)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
