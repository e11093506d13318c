package scraper

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"arts_scrooper/config"
	"arts_scrooper/models"
)

const (
	MaxContainers     = 20
	MaxTitleLen       = 200
	MaxDescriptionLen = 500
	minTitleLen       = 3
)

// RawFields is what an extractor pulls out of one container before
// normalization.
type RawFields struct {
	Title       string `json:"title"`
	Venue       string `json:"venue"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// normalize trims, filters, truncates and fills defaults. ok is false when
// the title is too short to be a real event.
func normalize(site *config.SiteConfig, f RawFields) (models.RawEvent, bool) {
	title := strings.TrimSpace(f.Title)
	if utf8.RuneCountInString(title) <= minTitleLen {
		return models.RawEvent{}, false
	}

	description := truncate(strings.TrimSpace(f.Description), MaxDescriptionLen)
	if description == "" {
		description = site.Defaults.Description
	}

	return models.RawEvent{
		Title:       truncate(title, MaxTitleLen),
		Venue:       orDefault(strings.TrimSpace(f.Venue), site.Defaults.Venue),
		Date:        orDefault(strings.TrimSpace(f.Date), site.Defaults.Date),
		EventType:   site.EventType,
		Description: description,
		Link:        resolveLink(site.Origin, strings.TrimSpace(f.Link)),
		Source:      site.Source,
	}, true
}

func normalizeAll(site *config.SiteConfig, raws []RawFields) []models.RawEvent {
	events := make([]models.RawEvent, 0, len(raws))
	for _, raw := range raws {
		if evt, ok := normalize(site, raw); ok {
			events = append(events, evt)
		}
	}
	return events
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// resolveLink passes http(s) links through and resolves anything else
// against origin.
func resolveLink(origin, link string) string {
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "http") {
		return link
	}

	base, err := url.Parse(origin)
	if err != nil || base.Host == "" {
		return origin + link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return origin + link
	}
	return base.ResolveReference(ref).String()
}
