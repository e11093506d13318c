package models

import "time"

// RawEvent is an extracted event that has not been persisted yet.
type RawEvent struct {
	Title       string `json:"title"`
	Venue       string `json:"venue"`
	Date        string `json:"date"`
	EventType   string `json:"eventType"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Source      string `json:"source"`
}

// Event is a stored event record.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Venue       string     `json:"venue"`
	Date        string     `json:"date"`
	EventType   string     `json:"eventType"`
	Description string     `json:"description"`
	Link        string     `json:"link"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// NewEvent stamps a raw event with an id and creation time.
func NewEvent(id string, raw RawEvent, createdAt time.Time) Event {
	return Event{
		ID:          id,
		Title:       raw.Title,
		Venue:       raw.Venue,
		Date:        raw.Date,
		EventType:   raw.EventType,
		Description: raw.Description,
		Link:        raw.Link,
		Source:      raw.Source,
		CreatedAt:   createdAt,
	}
}

// EventPatch carries the fields of a partial update. Nil fields are left untouched.
type EventPatch struct {
	Title       *string `json:"title,omitempty"`
	Venue       *string `json:"venue,omitempty"`
	Date        *string `json:"date,omitempty"`
	EventType   *string `json:"eventType,omitempty"`
	Description *string `json:"description,omitempty"`
	Link        *string `json:"link,omitempty"`
	Source      *string `json:"source,omitempty"`
}

// Apply copies the set fields of the patch onto e.
func (p EventPatch) Apply(e *Event) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&e.Title, p.Title)
	set(&e.Venue, p.Venue)
	set(&e.Date, p.Date)
	set(&e.EventType, p.EventType)
	set(&e.Description, p.Description)
	set(&e.Link, p.Link)
	set(&e.Source, p.Source)
}

// SiteResult is the outcome of one site extractor run.
// Err is set when the site failed; Events is then empty.
type SiteResult struct {
	SiteID string
	Source string
	Events []RawEvent
	Err    error
}

// SourceSummary is the per-source part of a scrape report.
type SourceSummary struct {
	Source string `json:"source"`
	Found  int    `json:"found"`
	Error  string `json:"error,omitempty"`
}

// ScrapeReport is returned to callers of a scrape+merge.
type ScrapeReport struct {
	Message    string          `json:"message"`
	Total      int             `json:"total"`
	Added      int             `json:"added"`
	Duplicates int             `json:"duplicates"`
	Sources    []SourceSummary `json:"sources,omitempty"`
	// Snapshot is the archive URL when the run uploaded one.
	Snapshot   string          `json:"snapshot,omitempty"`
}
