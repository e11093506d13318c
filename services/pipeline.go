package services

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"arts_scrooper/models"
)

var (
	ErrPaused         = eris.New("pipeline: paused")
	ErrUnknownCommand = eris.New("pipeline: unknown command")
)

// Scraper produces one result per configured site.
type Scraper interface {
	Run(ctx context.Context) []models.SiteResult
	SiteIDs() []string
}

// RunRecorder persists run history. *storage.SQLiteStore implements it.
type RunRecorder interface {
	CreateRun(run *models.ScrapeRun) (int64, error)
	UpdateRun(run *models.ScrapeRun) error
	Log(runID *int64, level models.LogLevel, message, siteID string) error
	RecordSiteResult(siteID string, found int, failed bool, at time.Time) error
}

// RunObserver receives run metrics. *metrics.Metrics implements it.
type RunObserver interface {
	ObserveSites(results []models.SiteResult)
	ObserveMerge(report *models.ScrapeReport)
	ObserveRun(elapsed time.Duration, succeeded bool, at time.Time)
}

// Archiver stores a copy of the event list. *storage.S3Uploader implements it.
type Archiver interface {
	ArchiveSnapshot(ctx context.Context, events []models.Event, at time.Time) (string, error)
	PublicURL(key string) string
}

type PipelineDeps struct {
	Scraper  Scraper
	Events   *EventService
	Recorder RunRecorder // optional
	Metrics  RunObserver // optional
	Archiver Archiver    // optional
	Now      func() time.Time
}

// Pipeline is one scrape: every site, then merge, then bookkeeping.
type Pipeline struct {
	scraper  Scraper
	events   *EventService
	recorder RunRecorder
	metrics  RunObserver
	archiver Archiver
	now      func() time.Time

	runMu  sync.Mutex
	mu     sync.RWMutex
	paused bool
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		scraper:  deps.Scraper,
		events:   deps.Events,
		recorder: deps.Recorder,
		metrics:  deps.Metrics,
		archiver: deps.Archiver,
		now:      now,
	}
}

// Run scrapes all sites and merges the results. Only a persistence failure
// is returned as an error; site failures show up in report.Sources.
func (p *Pipeline) Run(ctx context.Context) (*models.ScrapeReport, error) {
	if p.IsPaused() {
		return nil, ErrPaused
	}

	p.runMu.Lock()
	defer p.runMu.Unlock()

	start := p.now()
	run := &models.ScrapeRun{StartedAt: start, Status: models.RunStatusRunning}
	p.createRun(run)

	results := p.scraper.Run(ctx)

	var candidates []models.RawEvent
	sources := make([]models.SourceSummary, 0, len(results))
	for _, r := range results {
		summary := models.SourceSummary{Source: r.Source, Found: len(r.Events)}
		if r.Err != nil {
			summary.Error = r.Err.Error()
			run.ErrorsCount++
			p.log(run, models.LogLevelWarn, "site failed: "+r.Err.Error(), r.SiteID)
		}
		sources = append(sources, summary)
		candidates = append(candidates, r.Events...)

		if p.recorder != nil {
			if err := p.recorder.RecordSiteResult(r.SiteID, len(r.Events), r.Err != nil, start); err != nil {
				zap.L().Warn("pipeline: record site stats", zap.String("site", r.SiteID), zap.Error(err))
			}
		}
	}
	run.EventsFound = len(candidates)
	if p.metrics != nil {
		p.metrics.ObserveSites(results)
	}

	report, err := p.events.MergeScraped(ctx, candidates)
	if err != nil {
		run.Status = models.RunStatusFailed
		p.log(run, models.LogLevelError, "merge failed: "+err.Error(), "")
		p.finishRun(run, false)
		return nil, err
	}
	report.Sources = sources

	run.EventsAdded = report.Added
	run.Duplicates = report.Duplicates
	run.Status = models.RunStatusCompleted
	if p.metrics != nil {
		p.metrics.ObserveMerge(report)
	}

	if report.Added > 0 {
		report.Snapshot = p.archive(ctx)
	}

	p.finishRun(run, true)
	zap.L().Info("pipeline: run finished",
		zap.Int("total", report.Total),
		zap.Int("added", report.Added),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("failed_sites", run.ErrorsCount),
	)
	return report, nil
}

// archive uploads the event list and returns its public URL, or "" when
// archiving is off or failed.
func (p *Pipeline) archive(ctx context.Context) string {
	if p.archiver == nil {
		return ""
	}
	events, err := p.events.Snapshot(ctx)
	if err != nil {
		zap.L().Warn("pipeline: read snapshot", zap.Error(err))
		return ""
	}
	key, err := p.archiver.ArchiveSnapshot(ctx, events, p.now())
	if err != nil {
		zap.L().Warn("pipeline: archive snapshot", zap.Error(err))
		return ""
	}
	url := p.archiver.PublicURL(key)
	zap.L().Info("pipeline: archived snapshot",
		zap.String("key", key),
		zap.String("url", url),
		zap.Int("count", len(events)),
	)
	return url
}

func (p *Pipeline) createRun(run *models.ScrapeRun) {
	if p.recorder == nil {
		return
	}
	id, err := p.recorder.CreateRun(run)
	if err != nil {
		zap.L().Warn("pipeline: create run record", zap.Error(err))
		return
	}
	run.ID = id
}

func (p *Pipeline) finishRun(run *models.ScrapeRun, succeeded bool) {
	finished := p.now()
	run.FinishedAt = &finished

	if p.metrics != nil {
		p.metrics.ObserveRun(finished.Sub(run.StartedAt), succeeded, finished)
	}
	if p.recorder == nil || run.ID == 0 {
		return
	}
	if err := p.recorder.UpdateRun(run); err != nil {
		zap.L().Warn("pipeline: update run record", zap.Int64("run_id", run.ID), zap.Error(err))
	}
}

func (p *Pipeline) log(run *models.ScrapeRun, level models.LogLevel, message, siteID string) {
	if p.recorder == nil || run.ID == 0 {
		return
	}
	runID := run.ID
	if err := p.recorder.Log(&runID, level, message, siteID); err != nil {
		zap.L().Debug("pipeline: write run log", zap.Error(err))
	}
}

// HandleCommand applies one queued command.
func (p *Pipeline) HandleCommand(ctx context.Context, cmd models.Command) error {
	switch cmd.Command {
	case models.CmdScrapeNow:
		_, err := p.Run(ctx)
		return err
	case models.CmdPause:
		p.Pause()
	case models.CmdResume:
		p.Resume()
	default:
		return eris.Wrapf(ErrUnknownCommand, "pipeline: %q", cmd.Command)
	}
	return nil
}

func (p *Pipeline) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
	zap.L().Info("pipeline: paused")
}

func (p *Pipeline) Resume() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
	zap.L().Info("pipeline: resumed")
}

func (p *Pipeline) IsPaused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused
}

func (p *Pipeline) SiteIDs() []string {
	return p.scraper.SiteIDs()
}
