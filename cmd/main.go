package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wesm/htb-notion-sync/config"
	"github.com/wesm/htb-notion-sync/internal/api"
	"github.com/wesm/htb-notion-sync/internal/db"
	"github.com/wesm/htb-notion-sync/internal/log"
	"github.com/wesm/htb-notion-sync/internal/metrics"
	"github.com/wesm/htb-notion-sync/internal/sync"
	"github.com/wesm/htb-notion-sync/internal/template"
)

// Version is set via -ldflags at build time
var Version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:          "htb-notion-sync",
		Short:        "Import HTB Machines to Notion",
		Long:         "Creates a Notion database page for every Hack The Box machine and keeps\ndifficulty, rating and own status of existing pages up to date.",
		Version:      Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(log.Config{
				Debug:      cfg.Debug,
				JSONOutput: cfg.LogJSON,
				Output:     cmd.ErrOrStderr(),
			})

			if err := runSync(cmd.Context(), cfg, logger); err != nil {
				logFailure(logger, err)
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.HTBToken, "htb-token", "", "HTB App Token")
	flags.StringVar(&cfg.NotionToken, "notion-token", "", "Notion API secret")
	flags.StringVar(&cfg.NotionDatabaseID, "notion-db", "", "Notion database ID")
	flags.BoolVar(&cfg.Debug, "debug", false, "Enable debugging")
	flags.BoolVar(&cfg.LogJSON, "log-json", false, "Write logs as JSON lines")
	flags.BoolVar(&cfg.DryRun, "dry-run", false, "Log planned creates and updates without writing to Notion")
	flags.StringVar(&cfg.JournalPath, "journal", "", "Record runs and applied actions in this SQLite file")
	flags.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	flags.StringVar(&cfg.TemplatePath, "template", "", "Markdown writeup template attached to new pages")
	flags.DurationVar(&cfg.Timeout, "timeout", 0, "HTTP request timeout (0 for none)")

	flags.StringVar(&cfg.HTBBaseURL, "htb-url", cfg.HTBBaseURL, "HTB site origin")
	flags.StringVar(&cfg.HTBAPIBaseURL, "htb-api-url", cfg.HTBAPIBaseURL, "HTB API base URL")
	flags.StringVar(&cfg.NotionAPIBaseURL, "notion-api-url", cfg.NotionAPIBaseURL, "Notion API base URL")
	for _, name := range []string{"htb-url", "htb-api-url", "notion-api-url"} {
		_ = flags.MarkHidden(name)
	}

	for _, name := range []string{"htb-token", "notion-token", "notion-db"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// runSync wires the clients, journal and metrics together and performs one sync
func runSync(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, err := cfg.LoadTemplate()
	if err != nil {
		return err
	}
	blocks, err := template.Load(source)
	if err != nil {
		return fmt.Errorf("failed to parse writeup template: %w", err)
	}

	m := metrics.New()
	opts := sync.Options{
		DatabaseID: cfg.NotionDatabaseID,
		Template:   blocks,
		DryRun:     cfg.DryRun,
		Metrics:    m,
	}

	if cfg.JournalPath != "" {
		database, err := db.New(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer database.Close()

		if err := database.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize journal: %w", err)
		}

		last, err := database.GetLastRun()
		if err != nil {
			return err
		}
		if last != nil {
			logger.Info().
				Str("run_id", last.ID).
				Str("status", last.Status).
				Time("started_at", last.StartedAt).
				Msg("Previous sync")
		}
		opts.Journal = database
	}

	htb := api.NewHTBClient(cfg, log.WithComponent(logger, "htb"), m)
	notion := api.NewNotionClient(cfg, log.WithComponent(logger, "notion"), m)
	syncer := sync.New(htb, notion, log.WithComponent(logger, "sync"), opts)

	result, runErr := syncer.Run(ctx)

	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Warn().Err(err).Msg("Failed to write metrics")
	}

	if runErr != nil {
		return runErr
	}

	logger.Info().
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("unchanged", result.Unchanged).
		Bool("dry_run", result.DryRun).
		Msg("Sync completed")
	return nil
}

// logFailure logs err, including the response body for API failures
func logFailure(logger zerolog.Logger, err error) {
	event := logger.Error().Err(err)
	if apiErr, ok := api.AsAPIError(err); ok {
		event = event.
			Str("service", apiErr.Service).
			Int("status", apiErr.StatusCode).
			Str("body", apiErr.Body)
	}
	event.Msg("Sync failed")
}
