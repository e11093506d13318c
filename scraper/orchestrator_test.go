package scraper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arts_scrooper/config"
	"arts_scrooper/models"
)

type stubHandler struct {
	id     string
	events []models.RawEvent
	err    error
	panics bool
	delay  time.Duration

	inFlight *int32
	peak     *int32
}

func (h *stubHandler) ID() string     { return h.id }
func (h *stubHandler) Source() string { return h.id + ".test" }

func (h *stubHandler) Scrape(ctx context.Context) ([]models.RawEvent, error) {
	if h.inFlight != nil {
		n := atomic.AddInt32(h.inFlight, 1)
		defer atomic.AddInt32(h.inFlight, -1)
		for {
			p := atomic.LoadInt32(h.peak)
			if n <= p || atomic.CompareAndSwapInt32(h.peak, p, n) {
				break
			}
		}
	}
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	if h.panics {
		panic("selector engine exploded")
	}
	return h.events, h.err
}

func TestOrchestrator_IsolatesFailures(t *testing.T) {
	o := NewOrchestratorWithHandlers(4,
		&stubHandler{id: "slow", delay: 30 * time.Millisecond, events: []models.RawEvent{{Title: "Slow Show"}}},
		&stubHandler{id: "broken", err: errors.New("status 503")},
		&stubHandler{id: "panicky", panics: true},
		&stubHandler{id: "fast", events: []models.RawEvent{{Title: "Fast Show"}, {Title: "Second Show"}}},
	)

	results := o.Run(context.Background())
	require.Len(t, results, 4)

	assert.Equal(t, []string{"slow", "broken", "panicky", "fast"},
		[]string{results[0].SiteID, results[1].SiteID, results[2].SiteID, results[3].SiteID})

	assert.NoError(t, results[0].Err)
	assert.Len(t, results[0].Events, 1)

	assert.EqualError(t, results[1].Err, "status 503")
	assert.Empty(t, results[1].Events)

	require.Error(t, results[2].Err)
	assert.Contains(t, results[2].Err.Error(), "selector engine exploded")
	assert.Empty(t, results[2].Events)

	assert.NoError(t, results[3].Err)
	assert.Equal(t, "fast.test", results[3].Source)
}

func TestOrchestrator_ScrapeFlattensInTableOrder(t *testing.T) {
	o := NewOrchestratorWithHandlers(2,
		&stubHandler{id: "a", delay: 20 * time.Millisecond, events: []models.RawEvent{{Title: "A one"}}},
		&stubHandler{id: "b", err: errors.New("down")},
		&stubHandler{id: "c", events: []models.RawEvent{{Title: "C one"}, {Title: "C two"}}},
	)

	events := o.Scrape(context.Background())
	require.Len(t, events, 3)
	assert.Equal(t, "A one", events[0].Title)
	assert.Equal(t, "C one", events[1].Title)
	assert.Equal(t, "C two", events[2].Title)
}

func TestOrchestrator_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	handlers := make([]Handler, 0, 6)
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
		handlers = append(handlers, &stubHandler{
			id:       id,
			delay:    20 * time.Millisecond,
			inFlight: &inFlight,
			peak:     &peak,
		})
	}

	NewOrchestratorWithHandlers(2, handlers...).Run(context.Background())
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&peak), int32(1))
}

func TestOrchestrator_NoSites(t *testing.T) {
	o := NewOrchestratorWithHandlers(0)
	assert.Empty(t, o.Run(context.Background()))
	assert.Empty(t, o.Scrape(context.Background()))
}

func TestNewOrchestrator_SkipsDisabledSites(t *testing.T) {
	cfg := &config.Config{Sites: config.DefaultSites("Bangalore")}
	cfg.Sites[1].Disabled = true

	o := NewOrchestrator(cfg, Deps{})
	assert.Equal(t, []string{"insider", "bookmyshow", "highape"}, o.SiteIDs())
	assert.Equal(t, defaultMaxConcurrent, o.maxConcurrent)
}
