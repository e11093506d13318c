package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"arts_scrooper/api"
	"arts_scrooper/config"
	"arts_scrooper/httputil"
	"arts_scrooper/identity"
	"arts_scrooper/metrics"
	"arts_scrooper/scraper"
	"arts_scrooper/services"
	"arts_scrooper/storage"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	sqlite   *storage.SQLiteStore
	events   *services.EventService
	pipeline *services.Pipeline
	health   *services.HealthcheckService
	metrics  *metrics.Metrics

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	store, err := a.openEventStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.sqlite, err = storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		a.Close()
		return nil, eris.Wrap(err, "open operational database")
	}
	a.closers = append(a.closers, func() { _ = a.sqlite.Close() })
	zap.L().Info("sqlite database", zap.String("path", cfg.DBPath))

	clients := httputil.NewClients(cfg)
	if cfg.Proxy.URL != "" {
		zap.L().Info("scraping through proxy", zap.String("proxy", maskConnectionString(cfg.Proxy.URL)))
	}

	orchestrator := scraper.NewOrchestrator(cfg, scraper.Deps{
		Fetcher:       scraper.NewHTTPFetcher(clients.Scraping),
		Renderer:      scraper.NewPlaywrightRenderer(cfg.Scraper.UserAgent, cfg.Scraper.Headless),
		UserAgent:     cfg.Scraper.UserAgent,
		StaticTimeout: cfg.Scraper.StaticTimeout,
		RenderTimeout: cfg.Scraper.RenderTimeout,
		SettleDelay:   cfg.Scraper.SettleDelay,
	})

	a.metrics = metrics.New()
	a.events = services.NewEventService(store, identity.TimeRandomIDs{}, time.Now)

	deps := services.PipelineDeps{
		Scraper:  orchestrator,
		Events:   a.events,
		Recorder: a.sqlite,
		Metrics:  a.metrics,
	}
	if cfg.S3.Bucket != "" {
		uploader, err := storage.NewS3Uploader(ctx, cfg.S3, clients.API)
		if err != nil {
			a.Close()
			return nil, eris.Wrap(err, "configure snapshot archive")
		}
		deps.Archiver = uploader
		zap.L().Info("archiving snapshots to s3", zap.String("bucket", cfg.S3.Bucket))
	}

	a.pipeline = services.NewPipeline(deps)
	a.health = services.NewHealthcheckService(a.events, a.sqlite, a.pipeline)
	return a, nil
}

func (a *app) openEventStore(ctx context.Context) (storage.EventStore, error) {
	switch a.cfg.Store.Driver {
	case "postgres":
		pg, err := storage.NewPostgresStore(ctx, a.cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect to postgres")
		}
		a.closers = append(a.closers, pg.Close)
		zap.L().Info("event store: postgres", zap.String("url", maskConnectionString(a.cfg.Store.DatabaseURL)))
		return pg, nil
	case "json", "":
		zap.L().Info("event store: json file", zap.String("path", a.cfg.Store.Path))
		return storage.NewJSONStore(a.cfg.Store.Path), nil
	default:
		return nil, eris.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}
}

func (a *app) server(addr string) *api.Server {
	return api.NewServer(api.Config{
		Addr:      addr,
		StaticDir: a.cfg.Server.StaticDir,
	}, api.Deps{
		Events:   a.events,
		Pipeline: a.pipeline,
		Health:   a.health,
		Metrics:  a.metrics.Handler(),
		Sites:    a.cfg.Sites,
	})
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
