package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arts_scrooper/config"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "read fixture %s", name)
	return data
}

func parseHTML(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc.Selection
}

func TestExtractDocument_Fixture(t *testing.T) {
	site := testSite(t, "insider")
	root := parseHTML(t, string(loadFixture(t, "insider_listing.html")))

	raws := extractDocument(root, site)
	require.Len(t, raws, 4)

	assert.Equal(t, "Jazz Night at the Courtyard", raws[0].Title)
	assert.Equal(t, "The Courtyard, Shanthala Nagar", raws[0].Venue)
	assert.Equal(t, "Sat, 12 Oct", raws[0].Date)
	assert.Equal(t, "An evening of standards and originals.", raws[0].Description)
	assert.Equal(t, "/event/jazz-night", raws[0].Link)

	// Whitespace-only h2 falls through to the [class*="title"] selector.
	assert.Equal(t, "Kathak Recital by Guest Troupe", raws[3].Title)
	assert.Equal(t, "Ranga Shankara", raws[3].Venue)

	events := normalizeAll(site, raws)
	require.Len(t, events, 3)
	assert.Equal(t, "https://insider.in/event/jazz-night", events[0].Link)
	assert.Equal(t, "Bangalore", events[1].Venue)
	assert.Equal(t, "https://tickets.example.com/pottery", events[1].Link)
	assert.Equal(t, config.DefaultDate, events[2].Date)
}

func TestExtractDocument_CapsContainers(t *testing.T) {
	site := testSite(t, "insider")

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, `<div class="event-card"><h3>Event number %d</h3></div>`, i)
	}
	b.WriteString("</body></html>")

	raws := extractDocument(parseHTML(t, b.String()), site)
	require.Len(t, raws, MaxContainers)
	assert.Equal(t, "Event number 19", raws[MaxContainers-1].Title)
}

func TestExtractDocument_ContainerFallback(t *testing.T) {
	site := testSite(t, "insider")
	html := `<html><body>
		<section class="card-event"><h2>Sculpture Walk</h2></section>
		<section class="card-event"><h2>Mural Tour Downtown</h2></section>
	</body></html>`

	raws := extractDocument(parseHTML(t, html), site)
	require.Len(t, raws, 2)
	assert.Equal(t, "Sculpture Walk", raws[0].Title)
	assert.Equal(t, "Mural Tour Downtown", raws[1].Title)
}

func TestExtractDocument_NoContainers(t *testing.T) {
	site := testSite(t, "insider")
	raws := extractDocument(parseHTML(t, string(loadFixture(t, "no_events.html"))), site)
	assert.Empty(t, raws)
}

func TestFirstHref_AnchorContainer(t *testing.T) {
	root := parseHTML(t, `<html><body>
		<a class="tile" href="/plays/hamlet"><h3>Hamlet Retold</h3></a>
	</body></html>`)

	container := root.Find("a.tile").First()
	assert.Equal(t, "/plays/hamlet", firstHref(container, []string{"a"}))
	assert.Equal(t, "Hamlet Retold", firstText(container, []string{"h4", "h3"}))
}

func TestExtractDocument_SelectorPriorityOverDocumentOrder(t *testing.T) {
	site := testSite(t, "insider")
	html := `<html><body>
		<div class="event-card"><span class="event-title">Jazz Night Live</span><h3>Featured pick</h3></div>
	</body></html>`

	raws := extractDocument(parseHTML(t, html), site)
	require.Len(t, raws, 1)
	// h3 is listed before .event-title, so it wins even though it comes later in the markup.
	assert.Equal(t, "Featured pick", raws[0].Title)
}
