package renderer

import (
	"context"
	"errors"

	"github.com/stitchpress/content-crawler/internal/cms"
)

// Noop implements cms.Renderer but always returns an error to indicate that
// headless rendering is not available in the current build.
type Noop struct{}

// NewNoop creates a new Noop renderer.
func NewNoop() *Noop {
	return &Noop{}
}

// Render returns an error since this is a stub implementation.
func (Noop) Render(_ context.Context, _ string, _ cms.RenderOptions) (string, error) {
	return "", errors.New("headless renderer not configured")
}
