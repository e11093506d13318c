package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"arts_scrooper/config"
)

// selectContainers returns the matches of the first container selector that
// finds anything, or nil.
func selectContainers(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		found := root.Find(sel)
		if found.Length() > 0 {
			return found
		}
	}
	return nil
}

// extractDocument pulls raw fields from at most MaxContainers containers.
// A container that blows up is skipped; its siblings are still read.
func extractDocument(root *goquery.Selection, site *config.SiteConfig) []RawFields {
	containers := selectContainers(root, site.Containers)
	if containers == nil {
		return nil
	}

	var out []RawFields
	containers.EachWithBreak(func(i int, container *goquery.Selection) bool {
		if i >= MaxContainers {
			return false
		}
		if raw, err := extractContainer(container, site); err != nil {
			zap.L().Debug("scraper: skipping element",
				zap.String("site", site.ID),
				zap.Int("index", i),
				zap.Error(err),
			)
		} else {
			out = append(out, raw)
		}
		return true
	})
	return out
}

func extractContainer(container *goquery.Selection, site *config.SiteConfig) (raw RawFields, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("scraper: extract element: %v", r)
		}
	}()

	return RawFields{
		Title:       firstText(container, site.Fields.Title),
		Venue:       firstText(container, site.Fields.Venue),
		Date:        firstText(container, site.Fields.Date),
		Description: firstText(container, site.Fields.Description),
		Link:        firstHref(container, site.Fields.Link),
	}, nil
}

// firstText returns the trimmed text of the first selector whose first match
// inside container is non-empty.
func firstText(container *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(container.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstHref is firstText for the href attribute. A container that is itself
// an anchor is used when nothing inside it carries a link.
func firstHref(container *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if href, ok := container.Find(sel).First().Attr("href"); ok {
			if href = strings.TrimSpace(href); href != "" {
				return href
			}
		}
	}
	if goquery.NodeName(container) == "a" {
		href, _ := container.Attr("href")
		return strings.TrimSpace(href)
	}
	return ""
}
