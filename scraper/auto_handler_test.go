package scraper

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	body []byte
	err  error
	urls []string
}

func (f *stubFetcher) FetchStatic(_ context.Context, url string, _ http.Header, _ time.Duration) ([]byte, error) {
	f.urls = append(f.urls, url)
	return f.body, f.err
}

type stubRenderer struct {
	raws  []RawFields
	err   error
	calls int
	url   string
	wait  WaitCriteria
	plan  ExtractionPlan
}

func (r *stubRenderer) RenderAndExtract(_ context.Context, url string, wait WaitCriteria, plan ExtractionPlan) ([]RawFields, error) {
	r.calls++
	r.url = url
	r.wait = wait
	r.plan = plan
	return r.raws, r.err
}

func TestAutoHandler_StaticPageSkipsRender(t *testing.T) {
	site := testSite(t, "highape")
	fetcher := &stubFetcher{body: []byte(`<html><body>
		<div class="event-card"><h2>Stand-up Showcase</h2></div>
	</body></html>`)}
	renderer := &stubRenderer{}

	h := NewAutoHandler(site, Deps{Fetcher: fetcher, Renderer: renderer})
	events, err := h.Scrape(context.Background())
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "Stand-up Showcase", events[0].Title)
	assert.Equal(t, 0, renderer.calls)
	assert.Equal(t, []string{site.URL}, fetcher.urls)
}

func TestAutoHandler_ScriptShellRenders(t *testing.T) {
	site := testSite(t, "highape")
	fetcher := &stubFetcher{body: loadFixture(t, "script_shell.html")}
	renderer := &stubRenderer{raws: []RawFields{{Title: "Improv Jam Session", Link: "/e/improv"}}}

	h := NewAutoHandler(site, Deps{Fetcher: fetcher, Renderer: renderer})
	events, err := h.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, renderer.calls)
	require.Len(t, events, 1)
	assert.Equal(t, "https://highape.com/e/improv", events[0].Link)
	assert.Equal(t, "Performance", events[0].EventType)
}

func TestAutoHandler_EmptyStaticPageNoRender(t *testing.T) {
	fetcher := &stubFetcher{body: loadFixture(t, "no_events.html")}
	renderer := &stubRenderer{}

	h := NewAutoHandler(testSite(t, "highape"), Deps{Fetcher: fetcher, Renderer: renderer})
	events, err := h.Scrape(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 0, renderer.calls)
}

func TestAutoHandler_FetchErrorRenders(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("unexpected status 403")}
	renderer := &stubRenderer{raws: []RawFields{{Title: "Puppet Theatre Matinee"}}}

	h := NewAutoHandler(testSite(t, "highape"), Deps{Fetcher: fetcher, Renderer: renderer})
	events, err := h.Scrape(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, renderer.calls)
	require.Len(t, events, 1)
	assert.Equal(t, "Puppet Theatre Matinee", events[0].Title)
}

func TestAutoHandler_FetchAndRenderFail(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("unexpected status 403")}
	renderer := &stubRenderer{err: errors.New("navigation timeout")}

	h := NewAutoHandler(testSite(t, "highape"), Deps{Fetcher: fetcher, Renderer: renderer})
	_, err := h.Scrape(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "navigation timeout")
}

func TestAutoHandler_CancelledContextSkipsRender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := &stubFetcher{err: context.Canceled}
	renderer := &stubRenderer{}

	h := NewAutoHandler(testSite(t, "highape"), Deps{Fetcher: fetcher, Renderer: renderer})
	_, err := h.Scrape(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, renderer.calls)
}

func TestLooksLikeScriptShell(t *testing.T) {
	assert.True(t, looksLikeScriptShell([]byte(`<body><div id="__next"></div></body>`)))
	assert.True(t, looksLikeScriptShell([]byte(`<NOSCRIPT>Please enable JavaScript</NOSCRIPT>`)))
	assert.False(t, looksLikeScriptShell([]byte(`<body><div id="root"><h1>Hi</h1></div></body>`)))
	assert.False(t, looksLikeScriptShell([]byte(`<noscript><img src="pixel.gif"></noscript>`)))
}
