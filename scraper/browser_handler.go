package scraper

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"arts_scrooper/config"
	"arts_scrooper/models"
)

// WaitCriteria bounds how long a rendered page is given to settle.
type WaitCriteria struct {
	Timeout  time.Duration // navigation, until network idle
	Settle   time.Duration // fixed pause for late script-driven content
	Selector string        // optional element to wait for
}

// ExtractionPlan is the selector table handed to the in-page extraction script.
type ExtractionPlan struct {
	Containers  []string
	Title       []string
	Venue       []string
	Date        []string
	Description []string
	Link        []string
	Limit       int
}

func planFor(site *config.SiteConfig) ExtractionPlan {
	return ExtractionPlan{
		Containers:  site.Containers,
		Title:       site.Fields.Title,
		Venue:       site.Fields.Venue,
		Date:        site.Fields.Date,
		Description: site.Fields.Description,
		Link:        site.Fields.Link,
		Limit:       MaxContainers,
	}
}

func (p ExtractionPlan) arg() map[string]interface{} {
	return map[string]interface{}{
		"containers":  p.Containers,
		"title":       p.Title,
		"venue":       p.Venue,
		"date":        p.Date,
		"description": p.Description,
		"link":        p.Link,
		"limit":       p.Limit,
	}
}

// Renderer drives a browser to url and runs the plan against the live DOM.
type Renderer interface {
	RenderAndExtract(ctx context.Context, url string, wait WaitCriteria, plan ExtractionPlan) ([]RawFields, error)
}

// BrowserHandler is the rendered strategy for sites that build their
// listings client-side.
type BrowserHandler struct {
	site     *config.SiteConfig
	renderer Renderer
	wait     WaitCriteria
}

func NewBrowserHandler(site *config.SiteConfig, deps Deps) *BrowserHandler {
	wait := WaitCriteria{
		Timeout:  deps.RenderTimeout,
		Settle:   deps.SettleDelay,
		Selector: site.WaitSelector,
	}
	if wait.Timeout <= 0 {
		wait.Timeout = 30 * time.Second
	}
	return &BrowserHandler{
		site:     site,
		renderer: deps.Renderer,
		wait:     wait,
	}
}

func (h *BrowserHandler) ID() string     { return h.site.ID }
func (h *BrowserHandler) Source() string { return h.site.Source }

func (h *BrowserHandler) Scrape(ctx context.Context) ([]models.RawEvent, error) {
	if h.renderer == nil {
		return nil, eris.Errorf("browser: no renderer configured for %s", h.site.ID)
	}

	raws, err := h.renderer.RenderAndExtract(ctx, h.site.URL, h.wait, planFor(h.site))
	if err != nil {
		return nil, eris.Wrapf(err, "browser: render %s", h.site.URL)
	}
	if len(raws) > MaxContainers {
		raws = raws[:MaxContainers]
	}

	events := normalizeAll(h.site, raws)
	zap.L().Debug("browser: extracted events",
		zap.String("site", h.site.ID),
		zap.Int("count", len(events)),
	)
	return events, nil
}

// PlaywrightRenderer starts a private playwright driver and Chromium for
// every call; nothing is shared between concurrent extractions.
type PlaywrightRenderer struct {
	userAgent string
	headless  bool
}

func NewPlaywrightRenderer(userAgent string, headless bool) *PlaywrightRenderer {
	return &PlaywrightRenderer{userAgent: userAgent, headless: headless}
}

func (r *PlaywrightRenderer) RenderAndExtract(ctx context.Context, url string, wait WaitCriteria, plan ExtractionPlan) ([]RawFields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run(&playwright.RunOptions{Verbose: false})
	if err != nil {
		return nil, eris.Wrap(err, "playwright: start driver")
	}
	defer func() {
		if err := pw.Stop(); err != nil {
			zap.L().Debug("playwright: stop driver", zap.Error(err))
		}
	}()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(r.headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "playwright: launch browser")
	}
	defer browser.Close()

	// Tear the browser down early if the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = browser.Close() })
	defer stop()

	pageOpts := playwright.BrowserNewPageOptions{}
	if r.userAgent != "" {
		pageOpts.UserAgent = playwright.String(r.userAgent)
	}
	page, err := browser.NewPage(pageOpts)
	if err != nil {
		return nil, eris.Wrap(err, "playwright: create page")
	}
	defer page.Close()

	zap.L().Debug("playwright: navigating", zap.String("url", url))
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(wait.Timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, eris.Wrapf(err, "playwright: navigate %s", url)
	}

	handleConsent(page)

	if wait.Selector != "" {
		err := page.Locator(wait.Selector).First().WaitFor(playwright.LocatorWaitForOptions{
			Timeout: playwright.Float(float64(wait.Timeout.Milliseconds())),
		})
		if err != nil {
			zap.L().Debug("playwright: wait selector not found",
				zap.String("url", url),
				zap.String("selector", wait.Selector),
				zap.Error(err),
			)
		}
	}
	if wait.Settle > 0 {
		page.WaitForTimeout(float64(wait.Settle.Milliseconds()))
	}

	result, err := page.Evaluate(extractScript, plan.arg())
	if err != nil {
		return nil, eris.Wrap(err, "playwright: evaluate extraction")
	}
	return decodeRawFields(result), nil
}

// handleConsent clicks away a cookie banner if one covers the listings.
func handleConsent(page playwright.Page) {
	consentSelectors := []string{
		"#didomi-notice-agree-button",
		"button[id*='accept']",
		"button[class*='accept']",
		"button[class*='consent']",
		"button:has-text('Accept All')",
		"button:has-text('Accept')",
		"button:has-text('I Agree')",
		"button:has-text('Got it')",
	}

	for _, selector := range consentSelectors {
		btn := page.Locator(selector).First()
		if visible, _ := btn.IsVisible(); visible {
			zap.L().Debug("playwright: clicking consent button", zap.String("selector", selector))
			_ = btn.Click()
			page.WaitForTimeout(1000)
			return
		}
	}
}

// decodeRawFields converts the script's return value. Entries of the wrong
// shape are skipped.
func decodeRawFields(result interface{}) []RawFields {
	items, ok := result.([]interface{})
	if !ok {
		return nil
	}

	out := make([]RawFields, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, RawFields{
			Title:       stringField(m, "title"),
			Venue:       stringField(m, "venue"),
			Date:        stringField(m, "date"),
			Description: stringField(m, "description"),
			Link:        stringField(m, "link"),
		})
	}
	return out
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// extractScript mirrors extractDocument inside the page: ordered container
// fallbacks, first non-empty match per field, per-element try/catch.
const extractScript = `(plan) => {
  const pickContainers = () => {
    for (const sel of plan.containers || []) {
      try {
        const found = document.querySelectorAll(sel);
        if (found.length > 0) return Array.from(found);
      } catch (e) {}
    }
    return [];
  };
  const firstText = (el, sels) => {
    for (const sel of sels || []) {
      try {
        const m = el.querySelector(sel);
        const t = m ? (m.textContent || '').trim() : '';
        if (t) return t;
      } catch (e) {}
    }
    return '';
  };
  const firstHref = (el, sels) => {
    for (const sel of sels || []) {
      try {
        const m = el.querySelector(sel);
        const h = m ? (m.getAttribute('href') || '').trim() : '';
        if (h) return h;
      } catch (e) {}
    }
    if (el.tagName === 'A') return (el.getAttribute('href') || '').trim();
    return '';
  };
  const out = [];
  for (const el of pickContainers().slice(0, plan.limit)) {
    try {
      out.push({
        title: firstText(el, plan.title),
        venue: firstText(el, plan.venue),
        date: firstText(el, plan.date),
        description: firstText(el, plan.description),
        link: firstHref(el, plan.link),
      });
    } catch (e) {}
  }
  return out;
}`
