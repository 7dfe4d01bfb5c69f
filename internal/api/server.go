// Package api exposes the HTTP interface for the crawler service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stitchpress/content-crawler/internal/cms"
	"github.com/stitchpress/content-crawler/internal/config"
	"github.com/stitchpress/content-crawler/internal/crawls"
	"github.com/stitchpress/content-crawler/internal/importer"
	"github.com/stitchpress/content-crawler/internal/metrics"
)

// Server wires HTTP handlers to the crawl service and the bulk importer.
type Server struct {
	router   chi.Router
	crawls   *crawls.Service
	importer *importer.Importer
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(crawlSvc *crawls.Service, imp *importer.Importer, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		crawls:   crawlSvc,
		importer: imp,
		cfg:      cfg,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metricsMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/crawl", func(r chi.Router) {
			r.Post("/", s.startCrawl)
			r.Post("/site", s.startSiteCrawl)
			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", s.listJobs)
				r.Route("/{job_id}", func(r chi.Router) {
					r.Get("/", s.getJob)
					r.Delete("/", s.deleteJob)
					r.Post("/import", s.importJob)
				})
			})
		})
		r.Post("/import/demo", s.importDemo)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type startCrawlRequest struct {
	URL           string `json:"url"`
	WaitSelector  string `json:"wait_selector,omitempty"`
	TimeoutSec    int    `json:"timeout_seconds,omitempty"`
	ExtractImages *bool  `json:"extract_images,omitempty"`
	RehostImages  *bool  `json:"rehost_images,omitempty"`
}

func (req startCrawlRequest) options() crawls.Options {
	opts := crawls.Options{
		WaitSelector:  req.WaitSelector,
		ExtractImages: req.ExtractImages,
		RehostImages:  req.RehostImages,
	}
	if req.TimeoutSec > 0 {
		opts.Timeout = time.Duration(req.TimeoutSec) * time.Second
	}
	return opts
}

func (s *Server) startCrawl(w http.ResponseWriter, r *http.Request) {
	var req startCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	job, err := s.crawls.Start(r.Context(), req.URL, req.options())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

type startSiteCrawlRequest struct {
	startCrawlRequest
	MaxPages int `json:"max_pages,omitempty"`
}

func (s *Server) startSiteCrawl(w http.ResponseWriter, r *http.Request) {
	var req startSiteCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	jobs, err := s.crawls.StartSite(r.Context(), req.URL, req.MaxPages, req.options())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	ids := make([]string, len(jobs))
	for i, job := range jobs {
		ids[i] = job.ID
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_ids": ids,
		"status":  string(cms.JobStatusProcessing),
	})
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := cms.JobStatus(q.Get("status"))
	limit := intQueryParam(q.Get("limit"), 50)
	offset := intQueryParam(q.Get("offset"), 0)

	jobs, err := s.crawls.List(r.Context(), status, limit, offset)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if jobs == nil {
		jobs = []cms.CrawlJob{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.crawls.Get(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) deleteJob(w http.ResponseWriter, r *http.Request) {
	if err := s.crawls.Delete(r.Context(), chi.URLParam(r, "job_id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type importJobRequest struct {
	Title    string `json:"title,omitempty"`
	Slug     string `json:"slug,omitempty"`
	Template string `json:"template,omitempty"`
	AuthorID int64  `json:"author_id,omitempty"`
}

func (s *Server) importJob(w http.ResponseWriter, r *http.Request) {
	var req importJobRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	pageID, err := s.crawls.ImportAsPage(r.Context(), chi.URLParam(r, "job_id"), crawls.Overrides{
		Title:    req.Title,
		Slug:     req.Slug,
		Template: req.Template,
		AuthorID: req.AuthorID,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"page_id": pageID})
}

type importDemoRequest struct {
	Document json.RawMessage `json:"document"`
	AuthorID int64           `json:"author_id,omitempty"`
}

func (s *Server) importDemo(w http.ResponseWriter, r *http.Request) {
	var req importDemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Document) == 0 {
		writeError(w, http.StatusBadRequest, "document is required")
		return
	}
	doc, err := importer.ParseDocument(req.Document)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	result, err := s.importer.ImportDocument(r.Context(), doc, req.AuthorID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeServiceError maps service-layer sentinels onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case cms.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cms.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, cms.ErrInvalidState), errors.Is(err, cms.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func intQueryParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
