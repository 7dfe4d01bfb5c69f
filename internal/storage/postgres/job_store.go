package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stitchpress/content-crawler/internal/cms"
)

// JobStore persists crawl jobs in Postgres.
type JobStore struct {
	pool dbPool
}

// NewJobStore constructs a store from an existing pool.
func NewJobStore(pool dbPool) (*JobStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &JobStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *JobStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateJob inserts a new job row.
func (s *JobStore) CreateJob(ctx context.Context, job cms.CrawlJob) error {
	images, err := json.Marshal(job.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	metadata, err := json.Marshal(job.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	query := `
INSERT INTO crawl_jobs (id, source_url, status, title, content, images, metadata, error_text, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = s.pool.Exec(ctx, query,
		job.ID, job.SourceURL, string(job.Status), job.Title, job.Content,
		images, metadata, job.ErrorText, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert crawl job: %w", mapError(err))
	}
	return nil
}

// UpdateJobStatus sets status and error text on an existing job.
func (s *JobStore) UpdateJobStatus(ctx context.Context, jobID string, status cms.JobStatus, errText string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE crawl_jobs SET status = $2, error_text = $3 WHERE id = $1`,
		jobID, string(status), errText,
	)
	if err != nil {
		return fmt.Errorf("update crawl job status: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return cms.ErrNotFound
	}
	return nil
}

// SetJobResult stores the extraction result and marks the job COMPLETED.
func (s *JobStore) SetJobResult(ctx context.Context, jobID string, page cms.ExtractedPage) error {
	images, err := json.Marshal(page.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	metadata, err := json.Marshal(page.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE crawl_jobs
SET status = $2, title = $3, content = $4, images = $5, metadata = $6, error_text = ''
WHERE id = $1`,
		jobID, string(cms.JobStatusCompleted), page.Title, page.Content, images, metadata,
	)
	if err != nil {
		return fmt.Errorf("store crawl result: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return cms.ErrNotFound
	}
	return nil
}

const jobColumns = `id, source_url, status, title, content, images, metadata, error_text, created_at`

// GetJob returns one job by id.
func (s *JobStore) GetJob(ctx context.Context, jobID string) (cms.CrawlJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM crawl_jobs WHERE id = $1`, jobID)

	var (
		job      cms.CrawlJob
		status   string
		images   []byte
		metadata []byte
	)
	err := row.Scan(&job.ID, &job.SourceURL, &status, &job.Title, &job.Content,
		&images, &metadata, &job.ErrorText, &job.CreatedAt)
	if err != nil {
		return cms.CrawlJob{}, mapError(err)
	}
	job.Status = cms.JobStatus(status)
	if err := json.Unmarshal(images, &job.Images); err != nil {
		return cms.CrawlJob{}, fmt.Errorf("unmarshal images: %w", err)
	}
	if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
		return cms.CrawlJob{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return job, nil
}

// ListJobs returns jobs newest first, optionally filtered by status.
func (s *JobStore) ListJobs(ctx context.Context, status cms.JobStatus, limit, offset int) ([]cms.CrawlJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + jobColumns + ` FROM crawl_jobs`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
		args = append(args, string(status), limit, offset)
	} else {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list crawl jobs: %w", mapError(err))
	}
	defer rows.Close()

	var out []cms.CrawlJob
	for rows.Next() {
		var (
			job      cms.CrawlJob
			st       string
			images   []byte
			metadata []byte
		)
		if err := rows.Scan(&job.ID, &job.SourceURL, &st, &job.Title, &job.Content,
			&images, &metadata, &job.ErrorText, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan crawl job: %w", err)
		}
		job.Status = cms.JobStatus(st)
		if err := json.Unmarshal(images, &job.Images); err != nil {
			return nil, fmt.Errorf("unmarshal images: %w", err)
		}
		if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list crawl jobs: %w", err)
	}
	return out, nil
}

// DeleteJob removes a job in any state.
func (s *JobStore) DeleteJob(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM crawl_jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("delete crawl job: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return cms.ErrNotFound
	}
	return nil
}
