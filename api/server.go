package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"arts_scrooper/config"
	"arts_scrooper/models"
	"arts_scrooper/services"
)

// Config wraps the knobs that impact runtime behavior.
type Config struct {
	Addr      string
	StaticDir string
}

type Deps struct {
	Events   *services.EventService
	Pipeline *services.Pipeline
	Health   *services.HealthcheckService
	Metrics  http.Handler // optional
	Sites    []*config.SiteConfig
}

// Server exposes the event CRUD and scrape endpoints.
type Server struct {
	router chi.Router
	cfg    Config
	deps   Deps
}

func NewServer(cfg Config, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	s := &Server{router: r, cfg: cfg, deps: deps}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("api: shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("api: listening", zap.String("addr", s.cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "api: listen")
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.deps.Metrics != nil {
		s.router.Handle("/metrics", s.deps.Metrics)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/items", s.handleListItems)
		r.Post("/items", s.handleCreateItem)
		r.Get("/items/{id}", s.handleGetItem)
		r.Put("/items/{id}", s.handleUpdateItem)
		r.Delete("/items/{id}", s.handleDeleteItem)
		r.Post("/scrape", s.handleScrape)
		r.Get("/sites", s.handleSites)
	})

	if s.cfg.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Events.List(r.Context())
	if err != nil {
		s.serverError(w, "Failed to read items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.deps.Events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.itemError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var raw models.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.deps.Events.Create(r.Context(), raw)
	if err != nil {
		s.serverError(w, "Failed to create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch models.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.deps.Events.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.itemError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Events.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.itemError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Pipeline.Run(r.Context())
	switch {
	case errors.Is(err, services.ErrPaused):
		writeError(w, http.StatusConflict, "Scraper is paused")
	case err != nil:
		zap.L().Error("api: scrape failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to scrape events",
			"details": err.Error(),
		})
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

type siteInfo struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Strategy  config.Strategy `json:"strategy"`
	URL       string          `json:"url"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Disabled  bool            `json:"disabled"`
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	sites := make([]siteInfo, 0, len(s.deps.Sites))
	for _, site := range s.deps.Sites {
		sites = append(sites, siteInfo{
			ID:        site.ID,
			Name:      site.Name,
			Strategy:  site.Strategy,
			URL:       site.URL,
			EventType: site.EventType,
			Source:    site.Source,
			Disabled:  site.Disabled,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"paused": s.deps.Pipeline.IsPaused(),
		"sites":  sites,
	})
}

func (s *Server) itemError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	s.serverError(w, "Failed to access items", err)
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	zap.L().Error("api: "+msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
