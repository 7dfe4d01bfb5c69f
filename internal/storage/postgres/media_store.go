package postgres

import (
	"context"
	"fmt"

	"github.com/stitchpress/content-crawler/internal/cms"
)

// MediaStore persists media library records in Postgres.
type MediaStore struct {
	pool dbPool
}

// NewMediaStore constructs a store from an existing pool.
func NewMediaStore(pool dbPool) (*MediaStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &MediaStore{pool: pool}, nil
}

// CreateMedia inserts one media record.
func (s *MediaStore) CreateMedia(ctx context.Context, m cms.MediaRecord) error {
	query := `
INSERT INTO media (filename, original_name, path, url, mime_type, size, width, height, alt, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := s.pool.Exec(ctx, query,
		m.Filename, m.OriginalName, m.Path, m.URL, m.MimeType, m.Size,
		m.Width, m.Height, m.Alt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert media record: %w", mapError(err))
	}
	return nil
}
