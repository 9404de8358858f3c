package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lotuspetal/lotuspetal-api/common/messaging"
	natsclient "github.com/lotuspetal/lotuspetal-api/common/messaging/nats"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/cli/output"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Sourcing event store commands",
	Long:  "List, upsert, generate and publish sourcing events",
}

var eventsListCmd = &cobra.Command{
	Use:     "list [tenant]",
	Aliases: []string{"ls"},
	Short:   "List stored sourcing events for a tenant",
	Long:    "List stored sourcing events for a tenant (default: hub.default_tenant)",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		store, err := requireDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		tenantID := cfg.Hub.DefaultTenant
		if len(args) == 1 {
			tenantID = args[0]
		}

		list, err := store.List(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}
		return renderEvents(printer(cmd), tenantID, list)
	},
}

var eventsUpsertCmd = &cobra.Command{
	Use:   "upsert FILE",
	Short: "Upsert sourcing events from a JSON file",
	Long: `Upsert sourcing events from a JSON file ("-" reads stdin).

The file holds one event object or an array of them:
  {"id": "se-1", "tenant_id": "acme", "title": "Steel RFQ", "status": "open"}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := readEvents(cmd, args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		store, err := requireDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Upsert(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to upsert events: %w", err)
		}
		printer(cmd).Success("Upserted %d events", n)
		return nil
	},
}

var (
	seedTenant string
	seedCount  int
	seedValue  int64
)

var eventsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate fake sourcing events into the store",
	Long: `Generate fake sourcing events into the store for local development.

Examples:
  gateway events seed --tenant acme --count 25
  gateway events seed --count 10 --seed 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedCount < 1 {
			return fmt.Errorf("--count must be at least 1")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)
		store, err := requireDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		tenantID := seedTenant
		if tenantID == "" {
			tenantID = cfg.Hub.DefaultTenant
		}

		n, err := store.Upsert(ctx, events.Fake(tenantID, seedCount, seedValue))
		if err != nil {
			return fmt.Errorf("failed to seed events: %w", err)
		}
		printer(cmd).Success("Seeded %d events for tenant %s", n, tenantID)
		return nil
	},
}

var (
	publishFile    string
	publishTenant  string
	publishCount   int
	publishSubject string
)

var eventsPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish sourcing events to the ingestion subject",
	Long: `Publish sourcing events to NATS for a running gateway to ingest.

Events come from --file, or are generated with --count when no file is given.
--tenant is sent as a message header and fills tenant_id where it is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.NATS.URL == "" {
			return fmt.Errorf("nats.url is not configured")
		}

		tenantID := publishTenant
		if tenantID == "" {
			tenantID = cfg.Hub.DefaultTenant
		}

		var batch []events.SourcingEvent
		if publishFile != "" {
			if batch, err = readEvents(cmd, publishFile); err != nil {
				return err
			}
		} else {
			if publishCount < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			batch = events.Fake(tenantID, publishCount, time.Now().UnixNano())
		}

		data, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("failed to encode events: %w", err)
		}

		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = "lotuspetal-gateway-cli"
		nc, err := natsclient.NewClient(natsCfg)
		if err != nil {
			return err
		}
		defer nc.Close()

		subject := publishSubject
		if subject == "" {
			subject = cfg.NATS.Subject
		}
		err = nc.PublishMsg(commandContext(cmd), &messaging.Message{
			Subject:  subject,
			Data:     data,
			Metadata: map[string]string{messaging.HeaderTenant: tenantID},
		})
		if err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}
		if err := nc.Drain(); err != nil {
			return fmt.Errorf("failed to flush NATS connection: %w", err)
		}

		printer(cmd).Success("Published %d events to %s", len(batch), subject)
		return nil
	},
}

func init() {
	eventsSeedCmd.Flags().StringVar(&seedTenant, "tenant", "", "tenant to seed (default: hub.default_tenant)")
	eventsSeedCmd.Flags().IntVar(&seedCount, "count", 10, "number of events to generate")
	eventsSeedCmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed (0 = random)")

	eventsPublishCmd.Flags().StringVar(&publishFile, "file", "", "JSON file with events (\"-\" reads stdin)")
	eventsPublishCmd.Flags().StringVar(&publishTenant, "tenant", "", "tenant header (default: hub.default_tenant)")
	eventsPublishCmd.Flags().IntVar(&publishCount, "count", 5, "number of events to generate when --file is not set")
	eventsPublishCmd.Flags().StringVar(&publishSubject, "subject", "", "subject (default: nats.subject)")

	eventsCmd.AddCommand(eventsListCmd, eventsUpsertCmd, eventsSeedCmd, eventsPublishCmd)
}

func readEvents(cmd *cobra.Command, path string) ([]events.SourcingEvent, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return events.DecodeEvents(data)
}

func renderEvents(p *output.Printer, tenantID string, list []events.SourcingEvent) error {
	if done, err := p.Structured(list); done {
		return err
	}
	if len(list) == 0 {
		p.Info("No sourcing events for tenant %s", tenantID)
		return nil
	}

	table := output.NewTable("ID", "Title", "Status", "Created", "Due", "Platform")
	for _, ev := range list {
		table.AddRow(ev.ID, deref(ev.Title), deref(ev.Status), deref(ev.CreatedAt), deref(ev.DueAt), ev.Platform)
	}
	table.Render(p.Out)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
