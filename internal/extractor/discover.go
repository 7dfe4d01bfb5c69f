package extractor

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// DiscovererConfig controls link discovery behavior.
type DiscovererConfig struct {
	UserAgent string
	Timeout   time.Duration
	MaxDepth  int
}

// Discoverer finds same-domain page URLs for best-effort site crawls. It
// uses a plain HTTP collector: discovery needs only the anchor hrefs, not a
// rendered DOM.
type Discoverer struct {
	cfg DiscovererConfig
}

// NewDiscoverer constructs a Discoverer.
func NewDiscoverer(cfg DiscovererConfig) *Discoverer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 2
	}
	return &Discoverer{cfg: cfg}
}

// Discover returns up to limit same-domain URLs reachable from startURL,
// starting with startURL itself, in first-seen order.
func (d *Discoverer) Discover(startURL string, limit int) ([]string, error) {
	base, err := url.Parse(startURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid start url: %s", startURL)
	}
	if limit <= 0 {
		limit = 10
	}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.MaxDepth(d.cfg.MaxDepth),
	)
	if d.cfg.UserAgent != "" {
		c.UserAgent = d.cfg.UserAgent
	}
	c.SetRequestTimeout(d.cfg.Timeout)

	seen := map[string]bool{normalizeLink(startURL): true}
	links := []string{normalizeLink(startURL)}

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if len(links) >= limit {
			return
		}
		link := normalizeLink(e.Request.AbsoluteURL(e.Attr("href")))
		if link == "" || seen[link] {
			return
		}
		parsed, parseErr := url.Parse(link)
		if parseErr != nil || parsed.Hostname() != base.Hostname() {
			return
		}
		seen[link] = true
		links = append(links, link)
		// Best effort: visit errors just stop that branch of discovery.
		_ = e.Request.Visit(link)
	})

	if err := c.Visit(startURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", startURL, err)
	}
	return links, nil
}

func normalizeLink(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parsed.Fragment = ""
	return strings.TrimSuffix(parsed.String(), "/")
}
