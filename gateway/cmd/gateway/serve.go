package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lotuspetal/lotuspetal-api/common/database"
	"github.com/lotuspetal/lotuspetal-api/common/logging"
	"github.com/lotuspetal/lotuspetal-api/common/messaging"
	natsclient "github.com/lotuspetal/lotuspetal-api/common/messaging/nats"
	"github.com/lotuspetal/lotuspetal-api/common/usagestats"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/config"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/events"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/handlers"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/hubclient"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/routes"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/server"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/tenant"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	Long: `Run the HTTP gateway until SIGINT or SIGTERM.

Usage stats are recorded to redis when redis.enabled is set, and sourcing
events are ingested from NATS when nats.enabled is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply database migrations before serving (see `gateway migrate --help` for the source path)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting gateway",
		slog.Int("port", cfg.Server.Port),
		slog.String("hub_url", cfg.Hub.URL),
		slog.String("auth_mode", cfg.Hub.AuthMode),
		slog.String("default_tenant", cfg.Hub.DefaultTenant),
		slog.String("log_level", cfg.Logging.Level),
	)

	if serveMigrate {
		if cfg.Database.URL == "" {
			slog.Warn("--migrate ignored: database.url is not configured")
		} else {
			res, err := database.Migrate(cfg.Database.Migrations, cfg.Database.URL)
			if err != nil {
				return err
			}
			slog.Info("Database migrated", slog.Uint64("version", uint64(res.Version)), slog.Bool("changed", res.Changed))
		}
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if cfg.Database.URL == "" {
		slog.Warn("database.url not set - sourcing events are kept in memory only")
	}

	var (
		recorder hubclient.Recorder
		stats    handlers.StatsReader
	)
	if cfg.Redis.Enabled {
		hostname, _ := os.Hostname()
		instanceID := fmt.Sprintf("%s-%d", hostname, os.Getpid())

		statsClient, err := usagestats.NewClient(cfg.Redis.URL, instanceID)
		if err != nil {
			slog.Warn("Usage stats disabled: redis unavailable", logging.Error(err))
		} else {
			collector := usagestats.NewCollector(statsClient, cfg.Redis.FlushInterval, logger.Logger)
			defer statsClient.Close()
			defer collector.Stop()
			recorder = collector
			stats = statsClient
			slog.Info("Usage stats enabled", slog.String("instance", instanceID), slog.Duration("flush_interval", cfg.Redis.FlushInterval))
		}
	} else {
		slog.Info("Redis disabled - tenant usage stats will not be collected")
	}

	var bus messaging.Client
	if cfg.NATS.Enabled {
		nc, ingestor, err := startIngestor(cfg, store, logger)
		if err != nil {
			return err
		}
		defer nc.Close()
		defer ingestor.Stop()
		bus = nc
	} else {
		slog.Info("NATS disabled - sourcing events are not ingested from the bus")
	}

	client := hubclient.New(hubclient.Options{
		BaseURL:             cfg.Hub.URL,
		Token:               cfg.Hub.Token,
		AuthMode:            cfg.Hub.AuthMode,
		Timeout:             cfg.Hub.Timeout,
		MaxIdleConnsPerHost: cfg.Hub.MaxIdleConnsPerHost,
		Recorder:            recorder,
	})
	resolver := tenant.NewResolver(cfg.Hub.DefaultTenant)

	gw := handlers.NewGateway(client, resolver, handlers.Timeouts{
		Control: cfg.Hub.Timeout,
		Read:    cfg.Hub.ReadTimeout,
	}, logger)
	svc := &handlers.Service{
		Routes:   routes.Table(),
		Resolver: resolver,
		HubURL:   client.BaseURL(),
		Store:    store,
		Stats:    stats,
		Bus:      bus,
		Logger:   logger,
	}

	srv := server.New(cfg, server.NewRouter(gw, svc, cfg.Server.CORSOrigins, logger))
	slog.Info("Gateway listening", slog.String("addr", srv.Addr))
	if err := server.Run(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func startIngestor(cfg *config.Config, store events.Store, logger *logging.Logger) (*natsclient.Client, *events.Ingestor, error) {
	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Logger = logger.Logger

	nc, err := natsclient.NewClient(natsCfg)
	if err != nil {
		return nil, nil, err
	}

	ingestor := events.NewIngestor(nc, nc, store, logger.Logger)
	if err := ingestor.Start(cfg.NATS.Subject, cfg.NATS.Queue); err != nil {
		nc.Close()
		return nil, nil, err
	}
	return nc, ingestor, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply pending migrations from database.migrations to database.url.

The default source, file://gateway/migrations, is relative to the working
directory, so run from the repository root or set an absolute source:
  GATEWAY_DATABASE_MIGRATIONS=file:///opt/lotuspetal/migrations gateway migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return fmt.Errorf("database.url is not configured")
		}

		res, err := database.Migrate(cfg.Database.Migrations, cfg.Database.URL)
		if err != nil {
			return err
		}

		p := printer(cmd)
		if done, err := p.Structured(res); done {
			return err
		}
		if res.Changed {
			p.Success("Migrated to version %d", res.Version)
		} else {
			p.Info("Already at version %d", res.Version)
		}
		if res.Dirty {
			p.Warn("Schema is marked dirty")
		}
		return nil
	},
}
