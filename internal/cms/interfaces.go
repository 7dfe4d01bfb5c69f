package cms

import (
	"context"
	"time"
)

// JobStore persists crawl job metadata.
type JobStore interface {
	CreateJob(ctx context.Context, job CrawlJob) error
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errText string) error
	SetJobResult(ctx context.Context, jobID string, page ExtractedPage) error
	GetJob(ctx context.Context, jobID string) (CrawlJob, error)
	ListJobs(ctx context.Context, status JobStatus, limit, offset int) ([]CrawlJob, error)
	DeleteJob(ctx context.Context, jobID string) error
}

// ContentStore persists the CMS entities touched by the importer. Upserts
// are keyed by natural key (slug, or setting key) and return the row id
// where the importer needs it for foreign-key resolution.
type ContentStore interface {
	UpsertProductCategory(ctx context.Context, cat Category) (int64, error)
	UpsertPostCategory(ctx context.Context, cat Category) (int64, error)
	UpsertProduct(ctx context.Context, p Product) error
	UpsertPost(ctx context.Context, p Post) error
	UpsertPage(ctx context.Context, p Page) error
	UpsertMenu(ctx context.Context, m Menu) error
	UpsertSetting(ctx context.Context, key, value string) error

	// CreatePage is the interactive single-page path. Unlike UpsertPage it
	// enforces homepage exclusivity: a page created with IsHomepage=true
	// unsets the flag on any prior homepage first.
	CreatePage(ctx context.Context, p Page) (int64, error)
	FindPageBySlug(ctx context.Context, slug string) (Page, error)
}

// MediaStore records rehosted images in the media library.
type MediaStore interface {
	CreateMedia(ctx context.Context, m MediaRecord) error
}

// Renderer loads a URL in a JavaScript-capable fetcher and returns the
// rendered markup.
type Renderer interface {
	Render(ctx context.Context, url string, opts RenderOptions) (string, error)
}

// RenderOptions controls one render.
type RenderOptions struct {
	WaitSelector string
	Timeout      time.Duration
}

// Rehoster downloads a remote image and re-serves it locally.
type Rehoster interface {
	Rehost(ctx context.Context, url, suggestedName string) RehostedImage
	RehostAll(ctx context.Context, reqs []RehostRequest, onProgress ProgressFunc) []RehostedImage
}

// RehostRequest names one remote image to rehost. Filename is optional.
type RehostRequest struct {
	URL      string
	Filename string
}

// ProgressFunc is invoked after each batch item settles, success or not.
type ProgressFunc func(p Progress)

// Progress reports batch completion state.
type Progress struct {
	Completed int
	Total     int
	Current   string
	Err       string
}

// BlobStore writes raw artifacts and returns the stored path plus a public URL.
type BlobStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) (storedPath string, publicURL string, err error)
	Delete(ctx context.Context, name string) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
