package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arts_scrooper/models"
)

func TestObserveSites(t *testing.T) {
	m := New()
	m.ObserveSites([]models.SiteResult{
		{SiteID: "insider", Source: "insider.in", Events: make([]models.RawEvent, 3)},
		{SiteID: "allevents", Source: "allevents.in", Err: errors.New("timeout")},
		{SiteID: "insider", Source: "insider.in", Events: make([]models.RawEvent, 2)},
	})

	assert.Equal(t, 5.0, testutil.ToFloat64(m.eventsFound.WithLabelValues("insider.in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.siteFailures.WithLabelValues("allevents.in")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.eventsFound.WithLabelValues("allevents.in")))
}

func TestObserveMergeAndRun(t *testing.T) {
	m := New()
	m.ObserveMerge(&models.ScrapeReport{Total: 4, Added: 3, Duplicates: 1})
	m.ObserveMerge(&models.ScrapeReport{Total: 4, Added: 0, Duplicates: 4})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.eventsAdded))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.duplicates))

	at := time.Unix(1728000000, 0)
	m.ObserveRun(2*time.Second, true, at)
	m.ObserveRun(time.Second, false, at.Add(time.Hour))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastSuccessTS))
	assert.Equal(t, 1, testutil.CollectAndCount(m.runDuration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveMerge(&models.ScrapeReport{Added: 2})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "arts_scraper_events_added_total 2")
	assert.Contains(t, string(body), "arts_scraper_run_duration_seconds")
}
