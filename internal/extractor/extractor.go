// Package extractor turns rendered markup into normalized page content.
package extractor

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/stitchpress/content-crawler/internal/cms"
)

// contentSelectors is tried in order; the first selector matching any
// element wins. No scoring or merging across selectors.
var contentSelectors = []string{
	"article",
	"[role=main]",
	"main",
	".content",
	".post-content",
	".entry-content",
	".article-content",
	"#content",
}

const boilerplateSelector = "script, style, nav, header, footer, aside, .sidebar, .comments, .advertisement"

// rehostCap bounds how many collected images one extraction will rehost.
// Images past the cap keep only their remote URL.
const rehostCap = 50

// Options controls one extraction.
type Options struct {
	WaitSelector  string
	Timeout       time.Duration
	ExtractImages bool
	RehostImages  bool
}

// DefaultOptions returns the documented extraction defaults.
func DefaultOptions() Options {
	return Options{
		WaitSelector:  "body",
		Timeout:       30 * time.Second,
		ExtractImages: true,
		RehostImages:  false,
	}
}

// Extractor loads a URL through a JavaScript-capable renderer and applies
// heuristic content selection.
type Extractor struct {
	renderer cms.Renderer
	rehoster cms.Rehoster
	logger   *zap.Logger
}

// New constructs an Extractor. The rehoster may be nil when local rehosting
// is never requested.
func New(renderer cms.Renderer, rehoster cms.Rehoster, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		renderer: renderer,
		rehoster: rehoster,
		logger:   logger,
	}
}

// Extract renders the URL and produces a normalized page record.
func (e *Extractor) Extract(ctx context.Context, pageURL string, opts Options) (cms.ExtractedPage, error) {
	html, err := e.renderer.Render(ctx, pageURL, cms.RenderOptions{
		WaitSelector: opts.WaitSelector,
		Timeout:      opts.Timeout,
	})
	if err != nil {
		return cms.ExtractedPage{}, fmt.Errorf("render %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return cms.ExtractedPage{}, fmt.Errorf("parse markup: %w", err)
	}

	page := cms.ExtractedPage{
		URL:       pageURL,
		Title:     extractTitle(doc),
		Content:   extractContent(doc),
		Metadata:  extractMetadata(doc, pageURL),
		CrawledAt: time.Now().UTC(),
	}

	if opts.ExtractImages {
		page.Images = e.collectImages(ctx, doc, pageURL, opts.RehostImages)
	}

	return page, nil
}

// extractTitle resolves the page title: <title> text, first <h1>, og:title,
// then the literal fallback.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return "Untitled"
}

func extractContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		element := doc.Find(selector)
		if element.Length() == 0 {
			continue
		}
		element.Find(boilerplateSelector).Remove()
		content, err := element.First().Html()
		if err != nil {
			continue
		}
		return cleanHTML(content)
	}

	body := doc.Find("body")
	body.Find(boilerplateSelector).Remove()
	content, err := body.Html()
	if err != nil {
		return ""
	}
	return cleanHTML(content)
}

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	interTagSpace  = regexp.MustCompile(`>\s+<`)
)

// cleanHTML removes elements carrying neither text nor embedded media, then
// collapses whitespace runs and inter-tag whitespace.
func cleanHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" && s.Find("img, video, iframe").Length() == 0 {
			s.Remove()
		}
	})
	cleaned, err := doc.Find("body").Html()
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	cleaned = whitespaceRuns.ReplaceAllString(cleaned, " ")
	cleaned = interTagSpace.ReplaceAllString(cleaned, "><")
	return strings.TrimSpace(cleaned)
}

// collectImages scans img[src|data-src], resolves to absolute URLs and
// dedupes by resolved URL in first-seen DOM order. When rehosting is
// requested the first rehostCap images are run through the pipeline.
func (e *Extractor) collectImages(ctx context.Context, doc *goquery.Document, pageURL string, rehost bool) []cms.ExtractedImage {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var images []cms.ExtractedImage
	seen := make(map[string]bool)
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" {
			return
		}
		ref, parseErr := url.Parse(src)
		if parseErr != nil {
			return
		}
		absolute := base.ResolveReference(ref).String()
		if seen[absolute] {
			return
		}
		seen[absolute] = true
		alt, _ := s.Attr("alt")
		images = append(images, cms.ExtractedImage{URL: absolute, Alt: alt})
	})

	if rehost && e.rehoster != nil && len(images) > 0 {
		limit := len(images)
		if limit > rehostCap {
			limit = rehostCap
		}
		reqs := make([]cms.RehostRequest, limit)
		for i := range reqs {
			reqs[i] = cms.RehostRequest{URL: images[i].URL}
		}
		results := e.rehoster.RehostAll(ctx, reqs, nil)
		for i, res := range results {
			if res.Success {
				images[i].LocalURL = res.PublicURL
			}
		}
	}

	return images
}

func extractMetadata(doc *goquery.Document, pageURL string) cms.PageMetadata {
	meta := cms.PageMetadata{
		Keywords:  metaContent(doc, `meta[name="keywords"]`),
		Author:    metaContent(doc, `meta[name="author"]`),
		OGImage:   metaContent(doc, `meta[property="og:image"]`),
		Canonical: pageURL,
	}
	meta.Description = metaContent(doc, `meta[name="description"]`)
	if meta.Description == "" {
		meta.Description = metaContent(doc, `meta[property="og:description"]`)
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok && canonical != "" {
		meta.Canonical = canonical
	}
	return meta
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).Attr("content")
	return content
}
