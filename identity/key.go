package identity

import (
	"strings"

	"arts_scrooper/models"
)

// Key is the dedup identity of an event: lowercased trimmed title joined to
// the date string as-is. Venue and source do not take part.
func Key(title, date string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "-" + date
}

func RawKey(e models.RawEvent) string {
	return Key(e.Title, e.Date)
}

func EventKey(e models.Event) string {
	return Key(e.Title, e.Date)
}
