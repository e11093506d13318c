package storage

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"arts_scrooper/models"
)

// SQLiteStore is the operational database: run history, logs, per-site
// stats and the command queue.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		events_found INTEGER DEFAULT 0,
		events_added INTEGER DEFAULT 0,
		duplicates INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_id TEXT
	);

	CREATE TABLE IF NOT EXISTS site_stats (
		site_id TEXT PRIMARY KEY,
		last_run_at DATETIME,
		last_status TEXT,
		last_found INTEGER DEFAULT 0,
		total_found INTEGER DEFAULT 0,
		failures_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS commands (
		id INTEGER PRIMARY KEY,
		command TEXT,
		params JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_commands_pending ON commands(processed_at) WHERE processed_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON scrape_runs(status, started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO scrape_runs (started_at, status, events_found, events_added, duplicates, errors_count)
		VALUES (?, ?, 0, 0, 0, 0)`,
		run.StartedAt, run.Status)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: create run")
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, events_found = ?,
			events_added = ?, duplicates = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.EventsFound, run.EventsAdded,
		run.Duplicates, run.ErrorsCount, run.ID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run %d", run.ID)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(limit int) ([]models.ScrapeRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, status, events_found, events_added, duplicates, errors_count
		FROM scrape_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		var run models.ScrapeRun
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.StartedAt, &finished, &run.Status,
			&run.EventsFound, &run.EventsAdded, &run.Duplicates, &run.ErrorsCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, siteID string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, siteID)
	if err != nil {
		return eris.Wrap(err, "sqlite: write log")
	}
	return nil
}

func (s *SQLiteStore) LogsForRun(runID int64) ([]models.ScrapeLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message, site_id
		FROM scrape_logs WHERE run_id = ? ORDER BY timestamp, id`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query logs")
	}
	defer rows.Close()

	var logs []models.ScrapeLog
	for rows.Next() {
		var l models.ScrapeLog
		var site sql.NullString
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &site); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan log")
		}
		l.SiteID = site.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// RecordSiteResult folds one site's outcome into site_stats.
func (s *SQLiteStore) RecordSiteResult(siteID string, found int, failed bool, at time.Time) error {
	status := string(models.RunStatusCompleted)
	failures := 0
	if failed {
		status = string(models.RunStatusFailed)
		failures = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO site_stats (site_id, last_run_at, last_status, last_found, total_found, failures_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_id) DO UPDATE SET
			last_run_at = excluded.last_run_at,
			last_status = excluded.last_status,
			last_found = excluded.last_found,
			total_found = site_stats.total_found + excluded.total_found,
			failures_count = site_stats.failures_count + excluded.failures_count`,
		siteID, at, status, found, found, failures)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update stats for %s", siteID)
	}
	return nil
}

func (s *SQLiteStore) GetSiteStats() ([]models.SiteStats, error) {
	rows, err := s.db.Query(`
		SELECT site_id, last_run_at, last_status, last_found, total_found, failures_count
		FROM site_stats ORDER BY site_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query site stats")
	}
	defer rows.Close()

	var stats []models.SiteStats
	for rows.Next() {
		var st models.SiteStats
		var lastRun sql.NullTime
		var lastStatus sql.NullString
		if err := rows.Scan(&st.SiteID, &lastRun, &lastStatus, &st.LastFound, &st.TotalFound, &st.FailuresCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan site stats")
		}
		if lastRun.Valid {
			t := lastRun.Time
			st.LastRunAt = &t
		}
		st.LastStatus = lastStatus.String
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *SQLiteStore) EnqueueCommand(cmd models.CommandType, params json.RawMessage) (int64, error) {
	var p interface{}
	if len(params) > 0 {
		p = string(params)
	}
	result, err := s.db.Exec(`INSERT INTO commands (command, params, created_at) VALUES (?, ?, ?)`,
		cmd, p, time.Now())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: enqueue command")
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) GetPendingCommands() ([]models.Command, error) {
	rows, err := s.db.Query(`
		SELECT id, command, params, created_at, processed_at
		FROM commands WHERE processed_at IS NULL ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query commands")
	}
	defer rows.Close()

	var cmds []models.Command
	for rows.Next() {
		var cmd models.Command
		var params sql.NullString
		if err := rows.Scan(&cmd.ID, &cmd.Command, &params, &cmd.CreatedAt, &cmd.ProcessedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan command")
		}
		if params.Valid {
			cmd.Params = json.RawMessage(params.String)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

func (s *SQLiteStore) MarkCommandProcessed(id int64) error {
	_, err := s.db.Exec(`UPDATE commands SET processed_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark command %d", id)
	}
	return nil
}
