package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wesm/htb-notion-sync/internal/api"
	"github.com/wesm/htb-notion-sync/internal/db"
	"github.com/wesm/htb-notion-sync/internal/metrics"
	"github.com/wesm/htb-notion-sync/internal/models"
)

// MachineSource lists HTB machines by retirement status
type MachineSource interface {
	GetMachines(ctx context.Context, retired bool) ([]models.Machine, error)
}

// PageStore reads and writes machine pages in a Notion database
type PageStore interface {
	GetExistingPages(ctx context.Context, databaseID string) (map[int64]models.PageRef, error)
	CreatePage(ctx context.Context, databaseID string, machine models.Machine, children []api.Block) (string, error)
	UpdatePage(ctx context.Context, pageID string, machine models.Machine) error
}

// Journal records sync runs and the actions they applied
type Journal interface {
	StartRun(startedAt time.Time) (string, error)
	RecordAction(runID string, action models.Action, appliedAt time.Time) error
	FinishRun(summary models.RunSummary) error
}

// Options configures a Syncer
type Options struct {
	DatabaseID string
	// Template is attached as the body of every created page
	Template []api.Block
	// DryRun computes and logs the plan without writing to Notion
	DryRun bool
	// Journal is optional
	Journal Journal
	// Metrics is optional
	Metrics *metrics.Metrics
}

// Result summarizes a completed sync run
type Result struct {
	RunID     string
	Fetched   int
	Created   int
	Updated   int
	Unchanged int
	DryRun    bool
}

// Syncer handles syncing HTB machines into a Notion database
type Syncer struct {
	htb    MachineSource
	notion PageStore
	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a new syncer
func New(htb MachineSource, notion PageStore, logger zerolog.Logger, opts Options) *Syncer {
	return &Syncer{
		htb:    htb,
		notion: notion,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Plan decides what to do for every machine. Machines without a page are
// created; machines whose comparable properties differ from their page are
// updated with the full property set. Unchanged machines produce no action.
func Plan(machines []models.Machine, existing map[int64]models.PageRef) ([]models.Action, int) {
	var actions []models.Action
	unchanged := 0

	for _, m := range machines {
		page, ok := existing[m.ID]
		if !ok {
			actions = append(actions, models.Action{Kind: models.ActionCreate, Machine: m})
			continue
		}

		if !page.Incomplete && page.Properties == m.Properties() {
			unchanged++
			continue
		}

		actions = append(actions, models.Action{Kind: models.ActionUpdate, Machine: m, PageID: page.PageID})
	}

	return actions, unchanged
}

// Run fetches retired then active machines, reads the existing pages and
// applies the plan. The first failed request aborts the run.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	timer := metrics.NewTimer()
	startedAt := s.now()

	var runID string
	if s.opts.Journal != nil {
		id, err := s.opts.Journal.StartRun(startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to start journal run: %w", err)
		}
		runID = id
	}

	result := &Result{RunID: runID, DryRun: s.opts.DryRun}
	err := s.run(ctx, result)

	s.opts.Metrics.ObserveRun(timer.Duration(), err == nil)
	s.finishJournal(result, err)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Syncer) run(ctx context.Context, result *Result) error {
	retired, err := s.htb.GetMachines(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to get retired machines: %w", err)
	}

	active, err := s.htb.GetMachines(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to get active machines: %w", err)
	}

	machines := make([]models.Machine, 0, len(retired)+len(active))
	machines = append(machines, retired...)
	machines = append(machines, active...)
	result.Fetched = len(machines)

	s.logger.Info().
		Int("retired", len(retired)).
		Int("active", len(active)).
		Msg("Fetched HTB machines")

	existing, err := s.notion.GetExistingPages(ctx, s.opts.DatabaseID)
	if err != nil {
		return fmt.Errorf("failed to get existing pages: %w", err)
	}

	s.logger.Info().Int("pages", len(existing)).Msg("Read Notion database")

	actions, unchanged := Plan(machines, existing)
	result.Unchanged = unchanged
	for i := 0; i < unchanged; i++ {
		s.opts.Metrics.ObserveAction("unchanged")
	}

	for _, action := range actions {
		if err := s.apply(ctx, &action, result); err != nil {
			return err
		}
	}

	return nil
}

// apply performs a single action and records it
func (s *Syncer) apply(ctx context.Context, action *models.Action, result *Result) error {
	logger := s.logger.With().
		Str("action", string(action.Kind)).
		Int64("machine_id", action.Machine.ID).
		Str("machine", action.Machine.Name).
		Logger()

	if s.opts.DryRun {
		logger.Info().Msg("Dry run, skipping")
		s.count(action.Kind, result)
		return nil
	}

	switch action.Kind {
	case models.ActionCreate:
		pageID, err := s.notion.CreatePage(ctx, s.opts.DatabaseID, action.Machine, s.opts.Template)
		if err != nil {
			return err
		}
		action.PageID = pageID
		logger.Info().Str("page_id", pageID).Msg("Created page")

	case models.ActionUpdate:
		if err := s.notion.UpdatePage(ctx, action.PageID, action.Machine); err != nil {
			return err
		}
		logger.Info().Str("page_id", action.PageID).Msg("Updated page")

	default:
		return fmt.Errorf("unknown action %q", action.Kind)
	}

	s.count(action.Kind, result)

	if s.opts.Journal != nil {
		if err := s.opts.Journal.RecordAction(result.RunID, *action, s.now()); err != nil {
			logger.Warn().Err(err).Msg("Failed to record action in journal")
		}
	}

	return nil
}

func (s *Syncer) count(kind models.ActionKind, result *Result) {
	switch kind {
	case models.ActionCreate:
		result.Created++
	case models.ActionUpdate:
		result.Updated++
	}
	s.opts.Metrics.ObserveAction(string(kind))
}

// finishJournal closes the journal run with the final counters
func (s *Syncer) finishJournal(result *Result, runErr error) {
	if s.opts.Journal == nil {
		return
	}

	summary := models.RunSummary{
		ID:         result.RunID,
		Status:     db.StatusSucceeded,
		FinishedAt: s.now(),
		Fetched:    result.Fetched,
		Created:    result.Created,
		Updated:    result.Updated,
		Unchanged:  result.Unchanged,
	}
	if runErr != nil {
		summary.Status = db.StatusFailed
		summary.Error = runErr.Error()
	}

	if err := s.opts.Journal.FinishRun(summary); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to finish journal run")
	}
}
