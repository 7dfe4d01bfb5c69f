package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitchpress/content-crawler/internal/cms"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestJobStoreCreateJob(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewJobStore(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	job := cms.CrawlJob{
		ID:        "job-1",
		SourceURL: "https://example.com/",
		Status:    cms.JobStatusPending,
		CreatedAt: now,
	}

	mock.ExpectExec("INSERT INTO crawl_jobs").
		WithArgs(
			job.ID, job.SourceURL, "PENDING", "", "",
			[]byte("null"), []byte(`{"description":"","keywords":"","author":"","og_image":"","canonical":""}`),
			"", now,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStoreCreateJobDuplicate(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewJobStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO crawl_jobs").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = store.CreateJob(context.Background(), cms.CrawlJob{ID: "job-1"})
	assert.ErrorIs(t, err, cms.ErrConflict)
}

func TestJobStoreUpdateStatus(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewJobStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE crawl_jobs SET status").
		WithArgs("job-1", "FAILED", "navigation timed out").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.UpdateJobStatus(context.Background(), "job-1", cms.JobStatusFailed, "navigation timed out"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStoreUpdateStatusMissing(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewJobStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE crawl_jobs SET status").
		WithArgs("nope", "FAILED", "x").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.UpdateJobStatus(context.Background(), "nope", cms.JobStatusFailed, "x")
	assert.ErrorIs(t, err, cms.ErrNotFound)
}

func TestJobStoreSetJobResult(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewJobStore(mock)
	require.NoError(t, err)

	page := cms.ExtractedPage{
		Title:   "Example",
		Content: "<p>hi</p>",
		Images:  []cms.ExtractedImage{{URL: "https://example.com/a.jpg", Alt: "a"}},
	}

	mock.ExpectExec("UPDATE crawl_jobs").
		WithArgs("job-1", "COMPLETED", page.Title, page.Content,
			[]byte(`[{"url":"https://example.com/a.jpg","alt":"a"}]`),
			[]byte(`{"description":"","keywords":"","author":"","og_image":"","canonical":""}`),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SetJobResult(context.Background(), "job-1", page))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStoreGetJob(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewJobStore(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{
		"id", "source_url", "status", "title", "content", "images", "metadata", "error_text", "created_at",
	}).AddRow(
		"job-1", "https://example.com/", "COMPLETED", "Example", "<p>hi</p>",
		[]byte(`[{"url":"https://example.com/a.jpg","alt":"a"}]`),
		[]byte(`{"description":"d","keywords":"","author":"","og_image":"","canonical":"https://example.com/"}`),
		"", now,
	)
	mock.ExpectQuery("SELECT (.+) FROM crawl_jobs WHERE id").
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := store.GetJob(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, cms.JobStatusCompleted, job.Status)
	assert.Equal(t, "Example", job.Title)
	require.Len(t, job.Images, 1)
	assert.Equal(t, "a", job.Images[0].Alt)
	assert.Equal(t, "d", job.Metadata.Description)
	assert.Equal(t, now, job.CreatedAt)
}

func TestJobStoreGetJobMissing(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewJobStore(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM crawl_jobs WHERE id").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, cms.ErrNotFound)
}

func TestJobStoreListJobsWithStatusFilter(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewJobStore(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{
		"id", "source_url", "status", "title", "content", "images", "metadata", "error_text", "created_at",
	}).AddRow(
		"job-2", "https://example.com/b", "FAILED", "", "",
		[]byte(`null`), []byte(`{}`), "boom", now,
	)
	mock.ExpectQuery("SELECT (.+) FROM crawl_jobs WHERE status").
		WithArgs("FAILED", 10, 0).
		WillReturnRows(rows)

	jobs, err := store.ListJobs(context.Background(), cms.JobStatusFailed, 10, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-2", jobs[0].ID)
	assert.Equal(t, "boom", jobs[0].ErrorText)
}

func TestJobStoreDeleteJobMissing(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewJobStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM crawl_jobs").
		WithArgs("nope").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, store.DeleteJob(context.Background(), "nope"), cms.ErrNotFound)
}

func TestContentStoreUpsertCategoryReturnsID(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewContentStore(mock)
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO product_categories").
		WithArgs("Chairs", "chairs", "Seating", "", 0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(12)))

	id, err := store.UpsertProductCategory(context.Background(), cms.Category{
		Name: "Chairs", Slug: "chairs", Description: "Seating",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentStoreUpsertProduct(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewContentStore(mock)
	require.NoError(t, err)

	catID := int64(12)
	mock.ExpectExec("INSERT INTO products").
		WithArgs("Oak Chair", "oak-chair", "", 49.99, (*float64)(nil), "OAK-CHAIR",
			[]byte(`["/uploads/a.jpg"]`), 100, false, "", "", "", &catID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.UpsertProduct(context.Background(), cms.Product{
		Name:       "Oak Chair",
		Slug:       "oak-chair",
		Price:      49.99,
		SKU:        "OAK-CHAIR",
		Images:     []string{"/uploads/a.jpg"},
		Stock:      100,
		CategoryID: &catID,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentStoreUpsertSetting(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewContentStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO settings").
		WithArgs("site_title", "Demo Shop").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.UpsertSetting(context.Background(), "site_title", "Demo Shop"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentStoreCreatePageClearsPriorHomepage(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewContentStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE pages SET is_homepage = FALSE").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO pages").
		WithArgs("Home", "home", "page", []byte(`[{"type":"html","content":"<p>x</p>"}]`),
			"", "", "DRAFT", true, "", "", int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := store.CreatePage(context.Background(), cms.Page{
		Title:      "Home",
		Slug:       "home",
		Template:   "page",
		Blocks:     []cms.ContentBlock{{Type: "html", Content: "<p>x</p>"}},
		Status:     cms.PageStatusDraft,
		IsHomepage: true,
		AuthorID:   1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentStoreCreatePageSlugConflict(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewContentStore(mock)
	require.NoError(t, err)

	mock.ExpectQuery("INSERT INTO pages").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = store.CreatePage(context.Background(), cms.Page{Title: "A", Slug: "a"})
	assert.ErrorIs(t, err, cms.ErrConflict)
}

func TestContentStoreFindPageBySlug(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewContentStore(mock)
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{
		"id", "title", "slug", "template", "blocks", "excerpt", "featured_image",
		"status", "is_homepage", "seo_title", "seo_desc", "author_id",
	}).AddRow(
		int64(3), "Home", "home", "page", []byte(`[{"type":"html","content":"<p>x</p>"}]`),
		"", "", "PUBLISHED", true, "Home", "", int64(1),
	)
	mock.ExpectQuery("SELECT (.+) FROM pages WHERE slug").
		WithArgs("home").
		WillReturnRows(rows)

	page, err := store.FindPageBySlug(context.Background(), "home")
	require.NoError(t, err)
	assert.Equal(t, cms.PageStatusPublished, page.Status)
	assert.True(t, page.IsHomepage)
	require.Len(t, page.Blocks, 1)
	assert.Equal(t, "<p>x</p>", page.Blocks[0].Content)
}

func TestMediaStoreCreateMedia(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store, err := NewMediaStore(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := cms.MediaRecord{
		Filename:     "a.jpg",
		OriginalName: "photo.jpg",
		Path:         "/var/uploads/a.jpg",
		URL:          "/uploads/a.jpg",
		MimeType:     "image/jpeg",
		Size:         1024,
		Width:        640,
		Height:       480,
		Alt:          "photo",
		CreatedAt:    now,
	}
	mock.ExpectExec("INSERT INTO media").
		WithArgs(rec.Filename, rec.OriginalName, rec.Path, rec.URL, rec.MimeType,
			rec.Size, rec.Width, rec.Height, rec.Alt, rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.CreateMedia(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}
