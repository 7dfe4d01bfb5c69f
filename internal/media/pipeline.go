package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/stitchpress/content-crawler/internal/cms"
	"github.com/stitchpress/content-crawler/internal/metrics"
)

// Config controls pipeline behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxEdgePx   int
	JPEGQuality int
	MaxParallel int
}

// Pipeline downloads remote images, normalizes them and writes them to a
// blob store.
type Pipeline struct {
	client *http.Client
	blobs  cms.BlobStore
	cfg    Config
	logger *zap.Logger
}

var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "svg": true,
}

var invalidFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// New constructs a Pipeline over the given blob store.
func New(blobs cms.BlobStore, cfg Config, logger *zap.Logger) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxEdgePx <= 0 {
		cfg.MaxEdgePx = 1920
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 85
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		client: &http.Client{Timeout: cfg.Timeout},
		blobs:  blobs,
		cfg:    cfg,
		logger: logger,
	}
}

// Rehost downloads one remote image, normalizes it and stores it. Failures
// are reported in the result, never as a fault.
func (p *Pipeline) Rehost(ctx context.Context, sourceURL, suggestedName string) cms.RehostedImage {
	result := p.rehost(ctx, sourceURL, suggestedName)
	metrics.ObserveRehost(result.Success)
	if !result.Success {
		p.logger.Warn("image rehost failed",
			zap.String("url", sourceURL),
			zap.String("error", result.ErrorText),
		)
	}
	return result
}

func (p *Pipeline) rehost(ctx context.Context, sourceURL, suggestedName string) cms.RehostedImage {
	result := cms.RehostedImage{OriginalURL: sourceURL}

	data, err := p.download(ctx, sourceURL)
	if err != nil {
		result.ErrorText = err.Error()
		return result
	}

	ext := extensionFromURL(sourceURL)
	name := uniqueFilename(suggestedName, ext)

	var (
		payload     []byte
		contentType string
	)
	if ext == "svg" {
		// SVG is vector; pass bytes through untouched.
		payload = data
		contentType = "image/svg+xml"
	} else {
		encoded, w, h, procErr := p.processRaster(data)
		if procErr != nil {
			result.ErrorText = fmt.Sprintf("process image: %v", procErr)
			return result
		}
		payload = encoded
		contentType = "image/jpeg"
		result.Width = w
		result.Height = h
	}

	storedPath, publicURL, err := p.blobs.Put(ctx, name, contentType, payload)
	if err != nil {
		result.ErrorText = fmt.Sprintf("store image: %v", err)
		return result
	}

	result.StoredPath = storedPath
	result.PublicURL = publicURL
	result.Success = true
	return result
}

// RehostAll downloads a batch with bounded concurrency. Individual failures
// never abort the batch; onProgress fires after each item settles. Results
// are returned in input order.
func (p *Pipeline) RehostAll(ctx context.Context, reqs []cms.RehostRequest, onProgress cms.ProgressFunc) []cms.RehostedImage {
	results := make([]cms.RehostedImage, len(reqs))
	var (
		mu        sync.Mutex
		completed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxParallel)
	for i, req := range reqs {
		g.Go(func() error {
			res := p.Rehost(gctx, req.URL, req.Filename)
			results[i] = res

			mu.Lock()
			completed++
			progress := cms.Progress{
				Completed: completed,
				Total:     len(reqs),
				Current:   req.URL,
				Err:       res.ErrorText,
			}
			mu.Unlock()
			if onProgress != nil {
				onProgress(progress)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// CopyLocal normalizes an on-disk image into the blob store, returning the
// same result shape as a remote rehost. Used for theme demo assets shipped
// with the service.
func (p *Pipeline) CopyLocal(ctx context.Context, srcPath string) cms.RehostedImage {
	result := cms.RehostedImage{OriginalURL: srcPath}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		result.ErrorText = fmt.Sprintf("read source: %v", err)
		return result
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(srcPath)), ".")
	if !allowedExtensions[ext] {
		ext = "jpg"
	}
	name := uniqueFilename(filepath.Base(srcPath), ext)

	if ext == "svg" {
		storedPath, publicURL, putErr := p.blobs.Put(ctx, name, "image/svg+xml", data)
		if putErr != nil {
			result.ErrorText = fmt.Sprintf("store image: %v", putErr)
			return result
		}
		result.StoredPath = storedPath
		result.PublicURL = publicURL
		result.Success = true
		return result
	}

	encoded, w, h, procErr := p.processRaster(data)
	if procErr != nil {
		result.ErrorText = fmt.Sprintf("process image: %v", procErr)
		return result
	}
	storedPath, publicURL, putErr := p.blobs.Put(ctx, name, "image/jpeg", encoded)
	if putErr != nil {
		result.ErrorText = fmt.Sprintf("store image: %v", putErr)
		return result
	}
	result.StoredPath = storedPath
	result.PublicURL = publicURL
	result.Width = w
	result.Height = h
	result.Success = true
	return result
}

func (p *Pipeline) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to download: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// processRaster decodes a raster image, constrains the longest edge to the
// configured maximum without upscaling, and re-encodes as JPEG. Returned
// dimensions are the intrinsic (pre-resize) ones.
func (p *Pipeline) processRaster(data []byte) ([]byte, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	longest := width
	if height > longest {
		longest = height
	}
	if longest > p.cfg.MaxEdgePx {
		scale := float64(p.cfg.MaxEdgePx) / float64(longest)
		dstW := int(float64(width) * scale)
		dstH := int(float64(height) * scale)
		if dstW < 1 {
			dstW = 1
		}
		if dstH < 1 {
			dstH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
		draw.CatmullRom.Scale(dst, dst.Rect, img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.cfg.JPEGQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), width, height, nil
}

// extensionFromURL derives a file extension from the URL path, falling back
// to jpg when it is absent or outside the allow-list.
func extensionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "jpg"
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	if !allowedExtensions[ext] {
		return "jpg"
	}
	return ext
}

// uniqueFilename builds a collision-resistant stored name from an optional
// suggested name.
func uniqueFilename(suggested, ext string) string {
	name := invalidFilenameChars.ReplaceAllString(suggested, "_")
	if name == "" || name == "_" {
		name = uuid.NewString() + "." + ext
	} else if path.Ext(name) == "" {
		name += "." + ext
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), name)
}
