package memory

import (
	"context"
	"sync"

	"github.com/stitchpress/content-crawler/internal/cms"
)

// MediaStore keeps media library records in insertion order.
type MediaStore struct {
	mu      sync.RWMutex
	records []cms.MediaRecord
}

// NewMediaStore returns an empty MediaStore.
func NewMediaStore() *MediaStore {
	return &MediaStore{}
}

// CreateMedia appends one record.
func (s *MediaStore) CreateMedia(_ context.Context, m cms.MediaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, m)
	return nil
}

// ListMedia returns all records in insertion order.
func (s *MediaStore) ListMedia(_ context.Context) ([]cms.MediaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]cms.MediaRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}
