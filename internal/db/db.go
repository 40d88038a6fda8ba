package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/wesm/htb-notion-sync/internal/models"
)

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// DB represents the sync journal database connection
type DB struct {
	*sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Initialize creates the database schema if it doesn't exist
func (db *DB) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		status TEXT NOT NULL,
		fetched INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		unchanged INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS sync_actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		machine_id INTEGER NOT NULL,
		machine_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		page_id TEXT,
		applied_at TIMESTAMP NOT NULL,
		FOREIGN KEY (run_id) REFERENCES sync_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_sync_actions_machine ON sync_actions(machine_id);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// StartRun records the start of a sync run and returns its ID
func (db *DB) StartRun(startedAt time.Time) (string, error) {
	id := uuid.NewString()

	_, err := db.Exec(
		`INSERT INTO sync_runs (id, started_at, status) VALUES (?, ?, ?)`,
		id, startedAt.UTC(), StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	return id, nil
}

// RecordAction saves an applied create or update
func (db *DB) RecordAction(runID string, action models.Action, appliedAt time.Time) error {
	query := `
	INSERT INTO sync_actions (run_id, machine_id, machine_name, kind, page_id, applied_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(
		query,
		runID,
		action.Machine.ID,
		action.Machine.Name,
		string(action.Kind),
		action.PageID,
		appliedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}

	return nil
}

// FinishRun stores the final status and counters of a run
func (db *DB) FinishRun(summary models.RunSummary) error {
	query := `
	UPDATE sync_runs SET
		finished_at = ?,
		status = ?,
		fetched = ?,
		created = ?,
		updated = ?,
		unchanged = ?,
		error = ?
	WHERE id = ?
	`

	var errText sql.NullString
	if summary.Error != "" {
		errText = sql.NullString{String: summary.Error, Valid: true}
	}

	res, err := db.Exec(
		query,
		summary.FinishedAt.UTC(),
		summary.Status,
		summary.Fetched,
		summary.Created,
		summary.Updated,
		summary.Unchanged,
		errText,
		summary.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to finish run: unknown run %s", summary.ID)
	}

	return nil
}

// GetLastRun gets the most recently started run, or nil if there is none
func (db *DB) GetLastRun() (*models.RunSummary, error) {
	query := `
	SELECT id, status, started_at, finished_at, fetched, created, updated, unchanged, error
	FROM sync_runs
	ORDER BY started_at DESC
	LIMIT 1
	`

	var run models.RunSummary
	var finishedAt sql.NullTime
	var errText sql.NullString
	err := db.QueryRow(query).Scan(
		&run.ID,
		&run.Status,
		&run.StartedAt,
		&finishedAt,
		&run.Fetched,
		&run.Created,
		&run.Updated,
		&run.Unchanged,
		&errText,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	run.Error = errText.String

	return &run, nil
}

// GetRunActions gets the actions applied during a run, in order
func (db *DB) GetRunActions(runID string) ([]models.Action, error) {
	rows, err := db.Query(
		`SELECT machine_id, machine_name, kind, page_id FROM sync_actions WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run actions: %w", err)
	}
	defer rows.Close()

	var actions []models.Action
	for rows.Next() {
		var action models.Action
		var kind string
		var pageID sql.NullString
		if err := rows.Scan(&action.Machine.ID, &action.Machine.Name, &kind, &pageID); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		action.Kind = models.ActionKind(kind)
		action.PageID = pageID.String
		actions = append(actions, action)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run actions: %w", err)
	}

	return actions, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
