// Package crawls owns the crawl job lifecycle: start, poll, delete, and
// import-as-page.
package crawls

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/stitchpress/content-crawler/internal/cms"
	"github.com/stitchpress/content-crawler/internal/extractor"
	"github.com/stitchpress/content-crawler/internal/metrics"
)

// Extractor is the slice of the page extractor this service needs.
type Extractor interface {
	Extract(ctx context.Context, url string, opts extractor.Options) (cms.ExtractedPage, error)
}

// Discoverer finds candidate page URLs for site crawls.
type Discoverer interface {
	Discover(startURL string, limit int) ([]string, error)
}

// Config controls service defaults.
type Config struct {
	WaitSelector    string
	Timeout         time.Duration
	MaxPagesDefault int
}

// Service coordinates crawl jobs. The triggering call acknowledges
// immediately; a detached goroutine owns the transition to COMPLETED or
// FAILED, and observers learn the outcome by polling.
type Service struct {
	jobs       cms.JobStore
	content    cms.ContentStore
	extractor  Extractor
	discoverer Discoverer
	idGen      cms.IDGenerator
	clock      cms.Clock
	cfg        Config
	logger     *zap.Logger

	wg sync.WaitGroup
}

// New constructs a Service. The discoverer may be nil when site crawls are
// not exposed.
func New(
	jobs cms.JobStore,
	content cms.ContentStore,
	ex Extractor,
	disc Discoverer,
	idGen cms.IDGenerator,
	clock cms.Clock,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.WaitSelector == "" {
		cfg.WaitSelector = "body"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxPagesDefault <= 0 {
		cfg.MaxPagesDefault = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		jobs:       jobs,
		content:    content,
		extractor:  ex,
		discoverer: disc,
		idGen:      idGen,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
}

// Options controls one crawl. Nil pointer fields take the configured
// defaults.
type Options struct {
	WaitSelector  string
	Timeout       time.Duration
	ExtractImages *bool
	RehostImages  *bool
}

func (s *Service) extractOptions(opts Options) extractor.Options {
	out := extractor.DefaultOptions()
	out.WaitSelector = s.cfg.WaitSelector
	out.Timeout = s.cfg.Timeout
	if opts.WaitSelector != "" {
		out.WaitSelector = opts.WaitSelector
	}
	if opts.Timeout > 0 {
		out.Timeout = opts.Timeout
	}
	if opts.ExtractImages != nil {
		out.ExtractImages = *opts.ExtractImages
	}
	if opts.RehostImages != nil {
		out.RehostImages = *opts.RehostImages
	}
	return out
}

// Start validates the URL, records a job and kicks off extraction in the
// background. The returned job is already in PROCESSING.
func (s *Service) Start(ctx context.Context, sourceURL string, opts Options) (cms.CrawlJob, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return cms.CrawlJob{}, cms.NewValidationError("url", "invalid URL format")
	}

	jobID, err := s.idGen.NewID()
	if err != nil {
		return cms.CrawlJob{}, fmt.Errorf("generate job id: %w", err)
	}

	job := cms.CrawlJob{
		ID:        jobID,
		SourceURL: sourceURL,
		Status:    cms.JobStatusPending,
		CreatedAt: s.clock.Now(),
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return cms.CrawlJob{}, fmt.Errorf("create job: %w", err)
	}
	if err := s.jobs.UpdateJobStatus(ctx, jobID, cms.JobStatusProcessing, ""); err != nil {
		return cms.CrawlJob{}, fmt.Errorf("mark job processing: %w", err)
	}
	job.Status = cms.JobStatusProcessing

	s.wg.Add(1)
	go s.run(jobID, sourceURL, s.extractOptions(opts))

	return job, nil
}

// run executes one extraction and settles the job. It owns the COMPLETED /
// FAILED transition; the request context is long gone by the time it runs.
func (s *Service) run(jobID, sourceURL string, opts extractor.Options) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout+30*time.Second)
	defer cancel()

	start := s.clock.Now()
	page, err := s.extractor.Extract(ctx, sourceURL, opts)
	if err != nil {
		s.logger.Warn("crawl failed",
			zap.String("job_id", jobID),
			zap.String("url", sourceURL),
			zap.Error(err),
		)
		metrics.ObserveCrawl(sourceURL, string(cms.JobStatusFailed), s.clock.Now().Sub(start))
		if updateErr := s.jobs.UpdateJobStatus(ctx, jobID, cms.JobStatusFailed, err.Error()); updateErr != nil {
			s.logger.Error("fail job status update", zap.String("job_id", jobID), zap.Error(updateErr))
		}
		return
	}

	if err := s.jobs.SetJobResult(ctx, jobID, page); err != nil {
		s.logger.Error("store job result", zap.String("job_id", jobID), zap.Error(err))
		if updateErr := s.jobs.UpdateJobStatus(ctx, jobID, cms.JobStatusFailed, err.Error()); updateErr != nil {
			s.logger.Error("fail job status update", zap.String("job_id", jobID), zap.Error(updateErr))
		}
		return
	}

	metrics.ObserveCrawl(sourceURL, string(cms.JobStatusCompleted), s.clock.Now().Sub(start))
	s.logger.Info("crawl completed",
		zap.String("job_id", jobID),
		zap.String("url", sourceURL),
		zap.String("title", page.Title),
	)
}

// Wait blocks until all in-flight extractions settle.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Get returns one job.
func (s *Service) Get(ctx context.Context, jobID string) (cms.CrawlJob, error) {
	return s.jobs.GetJob(ctx, jobID)
}

// List returns jobs, optionally filtered by status, newest first.
func (s *Service) List(ctx context.Context, status cms.JobStatus, limit, offset int) ([]cms.CrawlJob, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.jobs.ListJobs(ctx, status, limit, offset)
}

// Delete removes a job in any state.
func (s *Service) Delete(ctx context.Context, jobID string) error {
	return s.jobs.DeleteJob(ctx, jobID)
}

// Overrides customizes the page created from a crawl job.
type Overrides struct {
	Title    string
	Slug     string
	Template string
	AuthorID int64
}

// ImportAsPage turns a COMPLETED job into a draft content page and marks the
// job IMPORTED. The transition is terminal: an already-IMPORTED job is
// rejected the same way any non-COMPLETED job is.
func (s *Service) ImportAsPage(ctx context.Context, jobID string, ov Overrides) (int64, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return 0, err
	}
	if job.Status != cms.JobStatusCompleted {
		return 0, fmt.Errorf("cannot import: crawl job not completed: %w", cms.ErrInvalidState)
	}

	title := ov.Title
	if title == "" {
		title = job.Title
	}
	if title == "" {
		title = "Imported Page"
	}
	slug := ov.Slug
	if slug == "" {
		slug = fmt.Sprintf("imported-%d", s.clock.Now().Unix())
	}
	template := ov.Template
	if template == "" {
		template = "page"
	}

	page := cms.Page{
		Title:    title,
		Slug:     slug,
		Template: template,
		Blocks: []cms.ContentBlock{
			{Type: "html", Content: job.Content},
		},
		Status:   cms.PageStatusDraft,
		SEOTitle: job.Title,
		SEODesc:  job.Metadata.Description,
		AuthorID: ov.AuthorID,
	}

	pageID, err := s.content.CreatePage(ctx, page)
	if err != nil {
		return 0, fmt.Errorf("create page: %w", err)
	}

	if err := s.jobs.UpdateJobStatus(ctx, jobID, cms.JobStatusImported, ""); err != nil {
		return 0, fmt.Errorf("mark job imported: %w", err)
	}
	return pageID, nil
}

// StartSite discovers same-domain pages from startURL and starts one crawl
// job per page, best effort. Discovery or per-page failures never abort the
// pages already started.
func (s *Service) StartSite(ctx context.Context, startURL string, maxPages int, opts Options) ([]cms.CrawlJob, error) {
	if s.discoverer == nil {
		return nil, fmt.Errorf("site crawling is not enabled")
	}
	if maxPages <= 0 {
		maxPages = s.cfg.MaxPagesDefault
	}

	links, err := s.discoverer.Discover(startURL, maxPages)
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}

	jobs := make([]cms.CrawlJob, 0, len(links))
	for _, link := range links {
		job, startErr := s.Start(ctx, link, opts)
		if startErr != nil {
			s.logger.Warn("skipping page in site crawl", zap.String("url", link), zap.Error(startErr))
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
