package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"arts_scrooper/models"
)

type stubRuns []models.ScrapeRun

func (s stubRuns) ListRuns(limit int) ([]models.ScrapeRun, error) {
	if len(s) > limit {
		return s[:limit], nil
	}
	return s, nil
}

func TestHealthcheck(t *testing.T) {
	store := &memStore{events: []models.Event{{ID: "a"}, {ID: "b"}}}
	svc := newTestService(store)
	p := NewPipeline(PipelineDeps{Scraper: &stubScraper{}, Events: svc})
	p.Pause()

	h := NewHealthcheckService(svc, stubRuns{{ID: 7, Status: models.RunStatusCompleted}}, p)
	status := h.Check(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 2, status.Events)
	assert.True(t, status.Paused)
	if assert.NotNil(t, status.LastRun) {
		assert.Equal(t, int64(7), status.LastRun.ID)
	}
}

func TestHealthcheck_StoreUnreadable(t *testing.T) {
	svc := newTestService(&memStore{readErr: errors.New("permission denied")})
	status := NewHealthcheckService(svc, nil, nil).Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Contains(t, status.Error, "permission denied")
}
