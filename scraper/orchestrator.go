package scraper

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"arts_scrooper/config"
	"arts_scrooper/models"
)

const defaultMaxConcurrent = 4

// Orchestrator runs every enabled site's handler. One site failing, timing
// out or panicking never affects the others.
type Orchestrator struct {
	handlers      []Handler
	maxConcurrent int
}

func NewOrchestrator(cfg *config.Config, deps Deps) *Orchestrator {
	sites := cfg.EnabledSites()
	handlers := make([]Handler, 0, len(sites))
	for _, site := range sites {
		handlers = append(handlers, NewHandler(site, deps))
	}
	return NewOrchestratorWithHandlers(cfg.Scraper.MaxConcurrentSites, handlers...)
}

func NewOrchestratorWithHandlers(maxConcurrent int, handlers ...Handler) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Orchestrator{
		handlers:      handlers,
		maxConcurrent: maxConcurrent,
	}
}

// Run scrapes all sites and returns one result per site in table order.
func (o *Orchestrator) Run(ctx context.Context) []models.SiteResult {
	results := make([]models.SiteResult, len(o.handlers))

	g := new(errgroup.Group)
	g.SetLimit(o.maxConcurrent)

	for i, h := range o.handlers {
		g.Go(func() error {
			results[i] = o.runSite(ctx, h)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Scrape is Run flattened to the events of the sites that succeeded.
func (o *Orchestrator) Scrape(ctx context.Context) []models.RawEvent {
	var events []models.RawEvent
	for _, r := range o.Run(ctx) {
		events = append(events, r.Events...)
	}
	return events
}

func (o *Orchestrator) runSite(ctx context.Context, h Handler) (result models.SiteResult) {
	result = models.SiteResult{SiteID: h.ID(), Source: h.Source()}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result.Events = nil
			result.Err = eris.Errorf("scraper: %s panicked: %v", h.ID(), r)
		}
		if result.Err != nil {
			zap.L().Warn("scraper: site failed",
				zap.String("site", result.SiteID),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(result.Err),
			)
			return
		}
		zap.L().Info("scraper: site finished",
			zap.String("site", result.SiteID),
			zap.Int("events", len(result.Events)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	events, err := h.Scrape(ctx)
	if err != nil {
		result.Err = err
		return result
	}
	result.Events = events
	return result
}

// SiteIDs lists the configured sites in table order.
func (o *Orchestrator) SiteIDs() []string {
	ids := make([]string, 0, len(o.handlers))
	for _, h := range o.handlers {
		ids = append(ids, h.ID())
	}
	return ids
}
