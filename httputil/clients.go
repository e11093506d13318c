package httputil

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"arts_scrooper/config"
)

type Clients struct {
	Scraping *http.Client // optionally proxied, for listing sites
	API      *http.Client // direct, for S3 and friends
}

// NewClients builds the shared HTTP clients. Per-request timeouts come from
// the caller's context; the client timeout is a backstop.
func NewClients(cfg *config.Config) *Clients {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 4,
	}

	if cfg.Proxy.URL != "" {
		proxyURL, err := url.Parse(cfg.Proxy.URL)
		if err != nil {
			zap.L().Warn("httputil: ignoring invalid proxy url", zap.Error(err))
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	timeout := cfg.Scraper.StaticTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Clients{
		Scraping: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		API: &http.Client{Timeout: 30 * time.Second},
	}
}
