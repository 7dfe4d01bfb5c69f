package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stitchpress/content-crawler/internal/cms"
	"github.com/stitchpress/content-crawler/internal/config"
	"github.com/stitchpress/content-crawler/internal/crawls"
	"github.com/stitchpress/content-crawler/internal/extractor"
	"github.com/stitchpress/content-crawler/internal/importer"
	"github.com/stitchpress/content-crawler/internal/storage/memory"
)

type stubExtractor struct {
	page cms.ExtractedPage
	err  error
}

func (e *stubExtractor) Extract(context.Context, string, extractor.Options) (cms.ExtractedPage, error) {
	return e.page, e.err
}

type stubRehoster struct{}

func (stubRehoster) Rehost(_ context.Context, url, suggestedName string) cms.RehostedImage {
	name := suggestedName
	if name == "" {
		name = "image.jpg"
	}
	return cms.RehostedImage{
		OriginalURL: url,
		StoredPath:  "/var/uploads/" + name,
		PublicURL:   "/uploads/" + name,
		Success:     true,
	}
}

func (r stubRehoster) RehostAll(ctx context.Context, reqs []cms.RehostRequest, onProgress cms.ProgressFunc) []cms.RehostedImage {
	out := make([]cms.RehostedImage, len(reqs))
	for i, req := range reqs {
		out[i] = r.Rehost(ctx, req.URL, req.Filename)
		if onProgress != nil {
			onProgress(cms.Progress{Completed: i + 1, Total: len(reqs), Current: req.URL})
		}
	}
	return out
}

type seqIDs struct{ n int }

func (g *seqIDs) NewID() (string, error) {
	g.n++
	return fmt.Sprintf("job-%d", g.n), nil
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type testEnv struct {
	server  *Server
	service *crawls.Service
	content *memory.ContentStore
}

func newTestEnv(t *testing.T, ex crawls.Extractor, cfg config.Config) *testEnv {
	t.Helper()

	jobs := memory.NewJobStore()
	content := memory.NewContentStore()
	media := memory.NewMediaStore()

	svc := crawls.New(jobs, content, ex, nil, &seqIDs{}, realClock{}, crawls.Config{}, zap.NewNop())
	imp := importer.New(content, media, stubRehoster{}, realClock{}, zap.NewNop())

	return &testEnv{
		server:  NewServer(svc, imp, cfg, zap.NewNop()),
		service: svc,
		content: content,
	}
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, config.Config{})
	h := env.server.Handler()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestStartCrawlAccepted(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{page: cms.ExtractedPage{Title: "T", Content: "<p>x</p>"}}, config.Config{})
	h := env.server.Handler()

	rec := doRequest(t, h, http.MethodPost, "/v1/crawl", map[string]string{"url": "https://example.com/"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "job-1", resp["job_id"])
	assert.Equal(t, "PROCESSING", resp["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	env.service.Wait()
}

func TestStartCrawlRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, config.Config{})
	h := env.server.Handler()

	rec := doRequest(t, h, http.MethodPost, "/v1/crawl", map[string]string{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/crawl", bytes.NewBufferString("{broken"))
	raw := httptest.NewRecorder()
	h.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{page: cms.ExtractedPage{
		Title:    "Example",
		Content:  "<p>hi</p>",
		Metadata: cms.PageMetadata{Description: "d"},
	}}, config.Config{})
	h := env.server.Handler()

	rec := doRequest(t, h, http.MethodPost, "/v1/crawl", map[string]string{"url": "https://example.com/"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.service.Wait()

	rec = doRequest(t, h, http.MethodGet, "/v1/crawl/jobs/job-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var job cms.CrawlJob
	decodeJSON(t, rec, &job)
	assert.Equal(t, cms.JobStatusCompleted, job.Status)
	assert.Equal(t, "Example", job.Title)

	rec = doRequest(t, h, http.MethodGet, "/v1/crawl/jobs?status=COMPLETED", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Jobs []cms.CrawlJob `json:"jobs"`
	}
	decodeJSON(t, rec, &list)
	require.Len(t, list.Jobs, 1)

	rec = doRequest(t, h, http.MethodPost, "/v1/crawl/jobs/job-1/import", map[string]any{"slug": "landing", "author_id": 7})
	require.Equal(t, http.StatusCreated, rec.Code)
	var imported map[string]int64
	decodeJSON(t, rec, &imported)
	assert.NotZero(t, imported["page_id"])

	page, err := env.content.FindPageBySlug(context.Background(), "landing")
	require.NoError(t, err)
	assert.Equal(t, "Example", page.Title)
	assert.Equal(t, cms.PageStatusDraft, page.Status)

	rec = doRequest(t, h, http.MethodDelete, "/v1/crawl/jobs/job-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/v1/crawl/jobs/job-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportJobNotCompletedConflicts(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{err: fmt.Errorf("boom")}, config.Config{})
	h := env.server.Handler()

	rec := doRequest(t, h, http.MethodPost, "/v1/crawl", map[string]string{"url": "https://example.com/"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.service.Wait()

	rec = doRequest(t, h, http.MethodPost, "/v1/crawl/jobs/job-1/import", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]string
	decodeJSON(t, rec, &resp)
	assert.Contains(t, resp["error"], "cannot import: crawl job not completed")
}

func TestImportJobUnknownID(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, config.Config{})
	rec := doRequest(t, env.server.Handler(), http.MethodPost, "/v1/crawl/jobs/nope/import", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportDemo(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, config.Config{})
	h := env.server.Handler()

	doc := map[string]any{
		"images": []map[string]string{
			{"placeholder": "{{p1}}", "url": "https://cdn.example.test/a.jpg", "filename": "a.jpg"},
		},
		"product_categories": []map[string]any{{"name": "Chairs", "slug": "chairs"}},
		"products": []map[string]any{
			{"name": "Oak Chair", "slug": "oak-chair", "price": 49.99, "images": []string{"{{p1}}"}, "category_slug": "chairs"},
		},
		"settings": map[string]string{"site_title": "Demo"},
	}
	rec := doRequest(t, h, http.MethodPost, "/v1/import/demo", map[string]any{"document": doc, "author_id": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	var result cms.ImportResult
	decodeJSON(t, rec, &result)
	assert.Equal(t, 1, result.Images)
	assert.Equal(t, 1, result.ProductCategories)
	assert.Equal(t, 1, result.Products)
	assert.Equal(t, 1, result.Settings)
}

func TestImportDemoRejectsMalformedDocument(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{}, config.Config{})
	h := env.server.Handler()

	rec := doRequest(t, h, http.MethodPost, "/v1/import/demo", map[string]any{
		"document": map[string]any{"products": "nope"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/v1/import/demo", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	cfg := config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	env := newTestEnv(t, &stubExtractor{}, cfg)
	h := env.server.Handler()

	rec := doRequest(t, h, http.MethodGet, "/v1/crawl/jobs", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/crawl/jobs", nil)
	req.Header.Set("X-API-Key", "secret")
	good := httptest.NewRecorder()
	h.ServeHTTP(good, req)
	assert.Equal(t, http.StatusOK, good.Code)

	// Health stays open without a key.
	rec = doRequest(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListJobsPaginationParams(t *testing.T) {
	env := newTestEnv(t, &stubExtractor{page: cms.ExtractedPage{Title: "T"}}, config.Config{})
	h := env.server.Handler()

	for i := 0; i < 3; i++ {
		rec := doRequest(t, h, http.MethodPost, "/v1/crawl", map[string]string{
			"url": fmt.Sprintf("https://example.com/%d", i),
		})
		require.Equal(t, http.StatusAccepted, rec.Code)
	}
	env.service.Wait()

	rec := doRequest(t, h, http.MethodGet, "/v1/crawl/jobs?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Jobs []cms.CrawlJob `json:"jobs"`
	}
	decodeJSON(t, rec, &list)
	assert.Len(t, list.Jobs, 2)

	// Bad numbers fall back to defaults instead of erroring.
	rec = doRequest(t, h, http.MethodGet, "/v1/crawl/jobs?limit=banana&offset=-2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
