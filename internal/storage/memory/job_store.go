// Package memory provides in-memory store implementations for development
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/stitchpress/content-crawler/internal/cms"
)

// JobStore keeps crawl jobs in a mutex-guarded map.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]cms.CrawlJob
}

// NewJobStore returns an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]cms.CrawlJob)}
}

// CreateJob stores a new job. A duplicate id is a conflict.
func (s *JobStore) CreateJob(_ context.Context, job cms.CrawlJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return cms.ErrConflict
	}
	s.jobs[job.ID] = job
	return nil
}

// UpdateJobStatus sets the status and error text of an existing job.
func (s *JobStore) UpdateJobStatus(_ context.Context, jobID string, status cms.JobStatus, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return cms.ErrNotFound
	}
	job.Status = status
	job.ErrorText = errText
	s.jobs[jobID] = job
	return nil
}

// SetJobResult stores the extraction result and marks the job COMPLETED.
func (s *JobStore) SetJobResult(_ context.Context, jobID string, page cms.ExtractedPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return cms.ErrNotFound
	}
	job.Title = page.Title
	job.Content = page.Content
	job.Images = page.Images
	job.Metadata = page.Metadata
	job.Status = cms.JobStatusCompleted
	job.ErrorText = ""
	s.jobs[jobID] = job
	return nil
}

// GetJob returns one job by id.
func (s *JobStore) GetJob(_ context.Context, jobID string) (cms.CrawlJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return cms.CrawlJob{}, cms.ErrNotFound
	}
	return job, nil
}

// ListJobs returns jobs newest first, optionally filtered by status.
func (s *JobStore) ListJobs(_ context.Context, status cms.JobStatus, limit, offset int) ([]cms.CrawlJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]cms.CrawlJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if status != "" && job.Status != status {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteJob removes a job in any state.
func (s *JobStore) DeleteJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return cms.ErrNotFound
	}
	delete(s.jobs, jobID)
	return nil
}
