// Package cms defines core types shared across subsystems.
package cms

import (
	"time"
)

// JobStatus represents the lifecycle state of a crawl job.
type JobStatus string

// Job status values persisted in the job store. Transitions are
// one-directional: PENDING -> PROCESSING -> {COMPLETED | FAILED},
// and COMPLETED -> IMPORTED once consumed by the importer.
const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusImported   JobStatus = "IMPORTED"
)

// Terminal reports whether the extractor has settled the job.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusImported:
		return true
	default:
		return false
	}
}

// CrawlJob is the metadata persisted for each crawl request.
type CrawlJob struct {
	ID        string           `json:"id"`
	SourceURL string           `json:"source_url"`
	Status    JobStatus        `json:"status"`
	Title     string           `json:"title,omitempty"`
	Content   string           `json:"content,omitempty"`
	Images    []ExtractedImage `json:"images,omitempty"`
	Metadata  PageMetadata     `json:"metadata"`
	ErrorText string           `json:"error_text,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ExtractedImage is one image reference collected during extraction.
// LocalURL is set only when local rehosting was requested and succeeded.
type ExtractedImage struct {
	URL      string `json:"url"`
	Alt      string `json:"alt"`
	LocalURL string `json:"local_url,omitempty"`
}

// PageMetadata holds the head/meta fields collected during extraction.
type PageMetadata struct {
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	Author      string `json:"author"`
	OGImage     string `json:"og_image"`
	Canonical   string `json:"canonical"`
}

// ExtractedPage is the normalized result of one extraction.
type ExtractedPage struct {
	URL       string           `json:"url"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Images    []ExtractedImage `json:"images"`
	Metadata  PageMetadata     `json:"metadata"`
	CrawledAt time.Time        `json:"crawled_at"`
}

// RehostedImage is the image pipeline's per-item result. A failed rehost
// carries Success=false plus ErrorText; it is never surfaced as an error
// return.
type RehostedImage struct {
	OriginalURL string `json:"original_url"`
	StoredPath  string `json:"stored_path,omitempty"`
	PublicURL   string `json:"public_url,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Success     bool   `json:"success"`
	ErrorText   string `json:"error,omitempty"`
}

// MediaRecord is persisted for each rehosted image kept in the library.
type MediaRecord struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"path"`
	URL          string    `json:"url"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	Alt          string    `json:"alt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ImportResult tallies the entities a bulk import persisted. It counts
// successes only; per-item failures are visible in the logs.
type ImportResult struct {
	Pages             int `json:"pages"`
	Images            int `json:"images"`
	Menus             int `json:"menus"`
	Settings          int `json:"settings"`
	PostCategories    int `json:"post_categories"`
	Posts             int `json:"posts"`
	ProductCategories int `json:"product_categories"`
	Products          int `json:"products"`
}

// PageStatus enumerates content page lifecycle states.
type PageStatus string

// Page status values.
const (
	PageStatusDraft     PageStatus = "DRAFT"
	PageStatusPublished PageStatus = "PUBLISHED"
)

// ContentBlock is one block of a page's structured content.
type ContentBlock struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Page is a content page persisted by the content store.
type Page struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Template      string         `json:"template"`
	Blocks        []ContentBlock `json:"blocks"`
	Excerpt       string         `json:"excerpt,omitempty"`
	FeaturedImage string         `json:"featured_image,omitempty"`
	Status        PageStatus     `json:"status"`
	IsHomepage    bool           `json:"is_homepage"`
	SEOTitle      string         `json:"seo_title,omitempty"`
	SEODesc       string         `json:"seo_desc,omitempty"`
	AuthorID      int64          `json:"author_id,omitempty"`
}

// Category is a post or product category keyed by slug.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

// Product is a catalog entry keyed by slug. CategoryID is nil when the
// declared category slug did not resolve during import.
type Product struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Slug           string   `json:"slug"`
	Description    string   `json:"description,omitempty"`
	Price          float64  `json:"price"`
	SalePrice      *float64 `json:"sale_price,omitempty"`
	SKU            string   `json:"sku,omitempty"`
	Images         []string `json:"images"`
	Stock          int      `json:"stock"`
	IsFeatured     bool     `json:"is_featured"`
	Specifications string   `json:"specifications,omitempty"`
	SEOTitle       string   `json:"seo_title,omitempty"`
	SEODesc        string   `json:"seo_desc,omitempty"`
	CategoryID     *int64   `json:"category_id,omitempty"`
}

// Post is a blog entry keyed by slug.
type Post struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Content       string   `json:"content,omitempty"`
	Excerpt       string   `json:"excerpt,omitempty"`
	FeaturedImage string   `json:"featured_image,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	IsFeatured    bool     `json:"is_featured"`
	SEOTitle      string   `json:"seo_title,omitempty"`
	SEODesc       string   `json:"seo_desc,omitempty"`
	CategoryID    *int64   `json:"category_id,omitempty"`
	AuthorID      int64    `json:"author_id,omitempty"`
}

// Menu is a navigation menu keyed by slug. Items is the raw JSON menu tree.
type Menu struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Location string `json:"location,omitempty"`
	Items    string `json:"items"`
}
