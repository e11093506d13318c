package scraper

import (
	"context"
	"time"

	"arts_scrooper/config"
	"arts_scrooper/models"
)

// Handler extracts events for one configured site.
type Handler interface {
	ID() string
	Source() string
	Scrape(ctx context.Context) ([]models.RawEvent, error)
}

// Deps are the collaborators and limits shared by every handler.
type Deps struct {
	Fetcher       PageFetcher
	Renderer      Renderer
	UserAgent     string
	StaticTimeout time.Duration
	RenderTimeout time.Duration
	SettleDelay   time.Duration
}

// NewHandler picks the fetch strategy for a site.
func NewHandler(site *config.SiteConfig, deps Deps) Handler {
	switch site.Strategy {
	case config.StrategyRendered:
		return NewBrowserHandler(site, deps)
	case config.StrategyAuto:
		return NewAutoHandler(site, deps)
	default:
		return NewStaticHandler(site, deps)
	}
}
