package services

import (
	"context"

	"arts_scrooper/models"
)

// RunLister reads recent run history. *storage.SQLiteStore implements it.
type RunLister interface {
	ListRuns(limit int) ([]models.ScrapeRun, error)
}

type HealthStatus struct {
	Status  string            `json:"status"`
	Events  int               `json:"events"`
	Paused  bool              `json:"paused"`
	LastRun *models.ScrapeRun `json:"lastRun,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// HealthcheckService reports whether the event store is readable along with
// the latest run.
type HealthcheckService struct {
	events   *EventService
	runs     RunLister
	pipeline *Pipeline
}

func NewHealthcheckService(events *EventService, runs RunLister, pipeline *Pipeline) *HealthcheckService {
	return &HealthcheckService{events: events, runs: runs, pipeline: pipeline}
}

func (s *HealthcheckService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: "ok"}
	if s.pipeline != nil {
		status.Paused = s.pipeline.IsPaused()
	}

	events, err := s.events.List(ctx)
	if err != nil {
		status.Status = "degraded"
		status.Error = err.Error()
	} else {
		status.Events = len(events)
	}

	if s.runs != nil {
		if runs, err := s.runs.ListRuns(1); err == nil && len(runs) > 0 {
			status.LastRun = &runs[0]
		}
	}
	return status
}
