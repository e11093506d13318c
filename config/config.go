package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

type Config struct {
	City      string          `mapstructure:"city"`
	Store     StoreConfig     `mapstructure:"store"`
	DBPath    string          `mapstructure:"db_path"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Proxy     ProxyConfig     `mapstructure:"proxy"`
	S3        S3Config        `mapstructure:"s3"`

	// SitesDir holds optional per-site YAML overrides.
	SitesDir string `mapstructure:"sites_dir"`
	// Sites keeps table order; the orchestrator iterates it as-is.
	Sites []*SiteConfig `mapstructure:"-"`
}

// StoreConfig selects the event store backend: "json" or "postgres".
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	DatabaseURL string `mapstructure:"database_url"`
}

type ScraperConfig struct {
	UserAgent          string        `mapstructure:"user_agent"`
	StaticTimeout      time.Duration `mapstructure:"static_timeout"`
	RenderTimeout      time.Duration `mapstructure:"render_timeout"`
	SettleDelay        time.Duration `mapstructure:"settle_delay"`
	MaxConcurrentSites int           `mapstructure:"max_concurrent_sites"`
	Headless           bool          `mapstructure:"headless"`
}

type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Cron     string        `mapstructure:"cron"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type ProxyConfig struct {
	URL string `mapstructure:"url"`
}

// S3Config enables snapshot archiving when Bucket is set.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ARTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	cfg.Sites = DefaultSites(cfg.City)
	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("city", "Bangalore")
	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "data.json")
	v.SetDefault("store.database_url", "")
	v.SetDefault("db_path", "scraper.db")
	v.SetDefault("sites_dir", "config/sites")
	v.SetDefault("scraper.user_agent", defaultUserAgent)
	v.SetDefault("scraper.static_timeout", 10*time.Second)
	v.SetDefault("scraper.render_timeout", 30*time.Second)
	v.SetDefault("scraper.settle_delay", 2*time.Second)
	v.SetDefault("scraper.max_concurrent_sites", 4)
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scheduler.cron", "")
	v.SetDefault("scheduler.interval", time.Duration(0))
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "daemon.log")
	v.SetDefault("proxy.url", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
}

// loadSiteConfigs merges config/sites/*.yaml into the table. A file whose id
// matches a built-in site replaces it in place; unknown ids are appended.
func (c *Config) loadSiteConfigs() error {
	if c.SitesDir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.SitesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrap(err, "config: read sites dir")
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(c.SitesDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "config: read %s", path)
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return eris.Wrapf(err, "config: parse %s", path)
		}
		if site.ID == "" {
			return eris.Errorf("config: %s has no id", path)
		}
		site.applyDefaults(c.City)

		c.upsertSite(&site)
	}

	return nil
}

func (c *Config) upsertSite(site *SiteConfig) {
	for i, existing := range c.Sites {
		if existing.ID == site.ID {
			c.Sites[i] = site
			return
		}
	}
	c.Sites = append(c.Sites, site)
}

// EnabledSites returns the sites that are not disabled, in table order.
func (c *Config) EnabledSites() []*SiteConfig {
	var sites []*SiteConfig
	for _, s := range c.Sites {
		if !s.Disabled {
			sites = append(sites, s)
		}
	}
	return sites
}

// Site looks up a site by id.
func (c *Config) Site(id string) (*SiteConfig, bool) {
	for _, s := range c.Sites {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}
