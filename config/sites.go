package config

// Strategy names how a site's page content is obtained.
type Strategy string

const (
	StrategyStatic   Strategy = "static"
	StrategyRendered Strategy = "rendered"
	StrategyAuto     Strategy = "auto"
)

const (
	DefaultDate        = "Date TBA"
	DefaultDescription = "No description available"
)

// SiteConfig is one row of the source table.
type SiteConfig struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Strategy  Strategy `yaml:"strategy"`
	URL       string   `yaml:"url"`
	Origin    string   `yaml:"origin"`
	EventType string   `yaml:"event_type"`
	Source    string   `yaml:"source"`
	Disabled  bool     `yaml:"disabled"`

	// Containers are tried in order; the first selector that matches wins.
	Containers []string       `yaml:"containers"`
	Fields     FieldSelectors `yaml:"fields"`
	Defaults   FieldDefaults  `yaml:"defaults"`

	// WaitSelector is waited for after navigation when rendering. Optional.
	WaitSelector string `yaml:"wait_selector"`
}

type FieldSelectors struct {
	Title       []string `yaml:"title"`
	Venue       []string `yaml:"venue"`
	Date        []string `yaml:"date"`
	Description []string `yaml:"description"`
	Link        []string `yaml:"link"`
}

type FieldDefaults struct {
	Venue       string `yaml:"venue"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
}

func (s *SiteConfig) applyDefaults(city string) {
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.Strategy == "" {
		s.Strategy = StrategyStatic
	}
	if s.Source == "" {
		s.Source = s.ID
	}
	if s.Defaults.Venue == "" {
		s.Defaults.Venue = city
	}
	if s.Defaults.Date == "" {
		s.Defaults.Date = DefaultDate
	}
	if s.Defaults.Description == "" {
		s.Defaults.Description = DefaultDescription
	}
	if len(s.Fields.Link) == 0 {
		s.Fields.Link = []string{"a"}
	}
}

// DefaultSites is the built-in source table for city.
func DefaultSites(city string) []*SiteConfig {
	sites := []*SiteConfig{
		{
			ID:         "insider",
			Name:       "Insider",
			Strategy:   StrategyStatic,
			URL:        "https://insider.in/bangalore/arts",
			Origin:     "https://insider.in",
			EventType:  "Art",
			Source:     "insider.in",
			Containers: []string{".event-card", ".card-event", `[class*="event"]`},
			Fields: FieldSelectors{
				Title:       []string{"h2", "h3", ".event-title", `[class*="title"]`},
				Venue:       []string{".venue", ".location", `[class*="venue"]`, `[class*="location"]`},
				Date:        []string{".date", ".time", `[class*="date"]`},
				Description: []string{".description", "p"},
			},
		},
		{
			ID:         "allevents",
			Name:       "AllEvents",
			Strategy:   StrategyStatic,
			URL:        "https://allevents.in/bangalore/arts",
			Origin:     "https://allevents.in",
			EventType:  "Creative",
			Source:     "allevents.in",
			Containers: []string{".event-card", ".event-item", `[class*="event"]`},
			Fields: FieldSelectors{
				Title:       []string{"h2", "h3", "h4", ".title", `[class*="title"]`},
				Venue:       []string{".venue", ".location", `[class*="venue"]`},
				Date:        []string{".date", ".time", `[class*="date"]`},
				Description: []string{".description", "p"},
			},
		},
		{
			ID:         "bookmyshow",
			Name:       "BookMyShow Plays",
			Strategy:   StrategyRendered,
			URL:        "https://in.bookmyshow.com/explore/plays-bengaluru",
			Origin:     "https://in.bookmyshow.com",
			EventType:  "Theater",
			Source:     "bookmyshow.com",
			Containers: []string{`a[href*="/plays/"]`, `[class*="card"]`, `[class*="event"]`},
			Fields: FieldSelectors{
				Title:       []string{"h3", "h4", `[class*="title"]`, `[class*="name"]`},
				Venue:       []string{`[class*="venue"]`, `[class*="location"]`},
				Date:        []string{`[class*="date"]`, "time"},
				Description: []string{`[class*="genre"]`, `[class*="description"]`, "p"},
			},
			WaitSelector: `[class*="card"]`,
		},
		{
			ID:         "highape",
			Name:       "HighApe Performances",
			Strategy:   StrategyAuto,
			URL:        "https://highape.com/bangalore/performances",
			Origin:     "https://highape.com",
			EventType:  "Performance",
			Source:     "highape.com",
			Containers: []string{".event-card", ".eventCard", `[class*="event"]`},
			Fields: FieldSelectors{
				Title:       []string{".event-name", "h2", "h3", `[class*="title"]`},
				Venue:       []string{".venue", `[class*="venue"]`, `[class*="location"]`},
				Date:        []string{".date", `[class*="date"]`, "time"},
				Description: []string{".description", `[class*="desc"]`, "p"},
			},
		},
	}

	for _, s := range sites {
		s.applyDefaults(city)
	}
	return sites
}
