package scraper

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"arts_scrooper/config"
	"arts_scrooper/models"
)

const maxBodySize = 5 * 1024 * 1024

// PageFetcher retrieves raw markup.
type PageFetcher interface {
	FetchStatic(ctx context.Context, url string, headers http.Header, timeout time.Duration) ([]byte, error)
}

// HTTPFetcher is the net/http PageFetcher.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) FetchStatic(ctx context.Context, url string, headers http.Header, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}
	return body, nil
}

// StaticHandler fetches plain HTML and queries it with goquery.
type StaticHandler struct {
	site      *config.SiteConfig
	fetcher   PageFetcher
	userAgent string
	timeout   time.Duration
}

func NewStaticHandler(site *config.SiteConfig, deps Deps) *StaticHandler {
	timeout := deps.StaticTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StaticHandler{
		site:      site,
		fetcher:   deps.Fetcher,
		userAgent: deps.UserAgent,
		timeout:   timeout,
	}
}

func (h *StaticHandler) ID() string     { return h.site.ID }
func (h *StaticHandler) Source() string { return h.site.Source }

func (h *StaticHandler) Scrape(ctx context.Context) ([]models.RawEvent, error) {
	doc, _, err := h.fetchDocument(ctx)
	if err != nil {
		return nil, err
	}
	return h.extract(doc), nil
}

func (h *StaticHandler) fetchDocument(ctx context.Context) (*goquery.Document, []byte, error) {
	if h.fetcher == nil {
		return nil, nil, eris.Errorf("static: no fetcher configured for %s", h.site.ID)
	}

	headers := http.Header{}
	if h.userAgent != "" {
		headers.Set("User-Agent", h.userAgent)
	}
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	body, err := h.fetcher.FetchStatic(ctx, h.site.URL, headers, h.timeout)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "static: fetch %s", h.site.URL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, eris.Wrap(err, "static: parse html")
	}
	return doc, body, nil
}

func (h *StaticHandler) extract(doc *goquery.Document) []models.RawEvent {
	events := normalizeAll(h.site, extractDocument(doc.Selection, h.site))
	zap.L().Debug("static: extracted events",
		zap.String("site", h.site.ID),
		zap.Int("count", len(events)),
	)
	return events
}
