package scraper

import (
	"bytes"
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"arts_scrooper/config"
	"arts_scrooper/models"
)

// AutoHandler tries the static strategy first and renders when the page
// turns out to be a script-only shell or the plain fetch is refused.
type AutoHandler struct {
	static   *StaticHandler
	rendered *BrowserHandler
}

func NewAutoHandler(site *config.SiteConfig, deps Deps) *AutoHandler {
	return &AutoHandler{
		static:   NewStaticHandler(site, deps),
		rendered: NewBrowserHandler(site, deps),
	}
}

func (h *AutoHandler) ID() string     { return h.static.ID() }
func (h *AutoHandler) Source() string { return h.static.Source() }

func (h *AutoHandler) Scrape(ctx context.Context) ([]models.RawEvent, error) {
	doc, body, err := h.static.fetchDocument(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		zap.L().Info("auto: static fetch failed, rendering",
			zap.String("site", h.static.site.ID),
			zap.Error(err),
		)
		events, renderErr := h.rendered.Scrape(ctx)
		if renderErr != nil {
			return nil, eris.Wrapf(renderErr, "auto: static fetch failed (%v), render", err)
		}
		return events, nil
	}

	if selectContainers(doc.Selection, h.static.site.Containers) != nil || !looksLikeScriptShell(body) {
		return h.static.extract(doc), nil
	}

	zap.L().Info("auto: page needs script execution, rendering",
		zap.String("site", h.static.site.ID),
	)
	return h.rendered.Scrape(ctx)
}

var shellMounts = [][]byte{
	[]byte(`<div id="root"></div>`),
	[]byte(`<div id="__next"></div>`),
	[]byte(`<div id="app"></div>`),
}

// looksLikeScriptShell reports whether the markup only bootstraps a
// client-side app.
func looksLikeScriptShell(body []byte) bool {
	lower := bytes.ToLower(body)
	if bytes.Contains(lower, []byte("<noscript")) && bytes.Contains(lower, []byte("enable javascript")) {
		return true
	}
	for _, mount := range shellMounts {
		if bytes.Contains(lower, mount) {
			return true
		}
	}
	return false
}
