package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type ScrapeRun struct {
	ID          int64      `json:"id" db:"id"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at" db:"finished_at"`
	Status      RunStatus  `json:"status" db:"status"`
	EventsFound int        `json:"events_found" db:"events_found"`
	EventsAdded int        `json:"events_added" db:"events_added"`
	Duplicates  int        `json:"duplicates" db:"duplicates"`
	ErrorsCount int        `json:"errors_count" db:"errors_count"`
}

type SiteStats struct {
	SiteID        string     `json:"site_id" db:"site_id"`
	LastRunAt     *time.Time `json:"last_run_at" db:"last_run_at"`
	LastStatus    string     `json:"last_status" db:"last_status"`
	LastFound     int        `json:"last_found" db:"last_found"`
	TotalFound    int        `json:"total_found" db:"total_found"`
	FailuresCount int        `json:"failures_count" db:"failures_count"`
}
