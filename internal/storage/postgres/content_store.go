package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stitchpress/content-crawler/internal/cms"
)

// ContentStore persists CMS entities in Postgres. Upserts are keyed by slug
// (or setting key) with ON CONFLICT DO UPDATE, so re-running an import
// updates in place.
type ContentStore struct {
	pool dbPool
}

// NewContentStore constructs a store from an existing pool.
func NewContentStore(pool dbPool) (*ContentStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ContentStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *ContentStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *ContentStore) upsertCategory(ctx context.Context, table string, cat cms.Category) (int64, error) {
	query := fmt.Sprintf(`
INSERT INTO %s (name, slug, description, image, sort_order)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name, description = EXCLUDED.description, image = EXCLUDED.image
RETURNING id`, table)

	var id int64
	err := s.pool.QueryRow(ctx, query, cat.Name, cat.Slug, cat.Description, cat.Image, cat.SortOrder).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert category: %w", mapError(err))
	}
	return id, nil
}

// UpsertProductCategory inserts or updates a product category by slug.
func (s *ContentStore) UpsertProductCategory(ctx context.Context, cat cms.Category) (int64, error) {
	return s.upsertCategory(ctx, "product_categories", cat)
}

// UpsertPostCategory inserts or updates a post category by slug.
func (s *ContentStore) UpsertPostCategory(ctx context.Context, cat cms.Category) (int64, error) {
	return s.upsertCategory(ctx, "post_categories", cat)
}

// UpsertProduct inserts or updates a product by slug.
func (s *ContentStore) UpsertProduct(ctx context.Context, p cms.Product) error {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal product images: %w", err)
	}
	query := `
INSERT INTO products (name, slug, description, price, sale_price, sku, images, stock,
	is_featured, specifications, seo_title, seo_desc, category_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
	sale_price = EXCLUDED.sale_price, sku = EXCLUDED.sku, images = EXCLUDED.images,
	stock = EXCLUDED.stock, is_featured = EXCLUDED.is_featured,
	specifications = EXCLUDED.specifications, seo_title = EXCLUDED.seo_title,
	seo_desc = EXCLUDED.seo_desc, category_id = EXCLUDED.category_id`
	_, err = s.pool.Exec(ctx, query,
		p.Name, p.Slug, p.Description, p.Price, p.SalePrice, p.SKU, images, p.Stock,
		p.IsFeatured, p.Specifications, p.SEOTitle, p.SEODesc, p.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", mapError(err))
	}
	return nil
}

// UpsertPost inserts or updates a post by slug.
func (s *ContentStore) UpsertPost(ctx context.Context, p cms.Post) error {
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("marshal post tags: %w", err)
	}
	query := `
INSERT INTO posts (title, slug, content, excerpt, featured_image, tags, is_featured,
	seo_title, seo_desc, category_id, author_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (slug) DO UPDATE
SET title = EXCLUDED.title, content = EXCLUDED.content, excerpt = EXCLUDED.excerpt,
	featured_image = EXCLUDED.featured_image, tags = EXCLUDED.tags,
	is_featured = EXCLUDED.is_featured, seo_title = EXCLUDED.seo_title,
	seo_desc = EXCLUDED.seo_desc, category_id = EXCLUDED.category_id`
	_, err = s.pool.Exec(ctx, query,
		p.Title, p.Slug, p.Content, p.Excerpt, p.FeaturedImage, tags, p.IsFeatured,
		p.SEOTitle, p.SEODesc, p.CategoryID, p.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("upsert post: %w", mapError(err))
	}
	return nil
}

// UpsertPage inserts or updates a page by slug. This bulk path leaves other
// pages' homepage flags alone.
func (s *ContentStore) UpsertPage(ctx context.Context, p cms.Page) error {
	blocks, err := json.Marshal(p.Blocks)
	if err != nil {
		return fmt.Errorf("marshal page blocks: %w", err)
	}
	query := `
INSERT INTO pages (title, slug, template, blocks, excerpt, featured_image, status,
	is_homepage, seo_title, seo_desc, author_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (slug) DO UPDATE
SET title = EXCLUDED.title, template = EXCLUDED.template, blocks = EXCLUDED.blocks,
	excerpt = EXCLUDED.excerpt, featured_image = EXCLUDED.featured_image,
	status = EXCLUDED.status, is_homepage = EXCLUDED.is_homepage,
	seo_title = EXCLUDED.seo_title, seo_desc = EXCLUDED.seo_desc`
	_, err = s.pool.Exec(ctx, query,
		p.Title, p.Slug, p.Template, blocks, p.Excerpt, p.FeaturedImage, string(p.Status),
		p.IsHomepage, p.SEOTitle, p.SEODesc, p.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("upsert page: %w", mapError(err))
	}
	return nil
}

// UpsertMenu inserts or updates a menu by slug.
func (s *ContentStore) UpsertMenu(ctx context.Context, m cms.Menu) error {
	items := m.Items
	if items == "" {
		items = "[]"
	}
	query := `
INSERT INTO menus (name, slug, location, items)
VALUES ($1,$2,$3,$4)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name, location = EXCLUDED.location, items = EXCLUDED.items`
	if _, err := s.pool.Exec(ctx, query, m.Name, m.Slug, m.Location, []byte(items)); err != nil {
		return fmt.Errorf("upsert menu: %w", mapError(err))
	}
	return nil
}

// UpsertSetting inserts or updates a setting by key.
func (s *ContentStore) UpsertSetting(ctx context.Context, key, value string) error {
	query := `
INSERT INTO settings (key, value)
VALUES ($1,$2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert setting: %w", mapError(err))
	}
	return nil
}

// CreatePage inserts a new page and fails with ErrConflict on a slug
// collision. A homepage insert clears the flag on any prior holder first.
func (s *ContentStore) CreatePage(ctx context.Context, p cms.Page) (int64, error) {
	blocks, err := json.Marshal(p.Blocks)
	if err != nil {
		return 0, fmt.Errorf("marshal page blocks: %w", err)
	}
	if p.IsHomepage {
		if _, err := s.pool.Exec(ctx, `UPDATE pages SET is_homepage = FALSE WHERE is_homepage`); err != nil {
			return 0, fmt.Errorf("clear homepage flag: %w", mapError(err))
		}
	}
	query := `
INSERT INTO pages (title, slug, template, blocks, excerpt, featured_image, status,
	is_homepage, seo_title, seo_desc, author_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
RETURNING id`
	var id int64
	err = s.pool.QueryRow(ctx, query,
		p.Title, p.Slug, p.Template, blocks, p.Excerpt, p.FeaturedImage, string(p.Status),
		p.IsHomepage, p.SEOTitle, p.SEODesc, p.AuthorID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create page: %w", mapError(err))
	}
	return id, nil
}

// FindPageBySlug returns one page by slug.
func (s *ContentStore) FindPageBySlug(ctx context.Context, slug string) (cms.Page, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, title, slug, template, blocks, excerpt, featured_image, status,
	is_homepage, seo_title, seo_desc, author_id
FROM pages WHERE slug = $1`, slug)

	var (
		p      cms.Page
		status string
		blocks []byte
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Template, &blocks, &p.Excerpt,
		&p.FeaturedImage, &status, &p.IsHomepage, &p.SEOTitle, &p.SEODesc, &p.AuthorID)
	if err != nil {
		return cms.Page{}, mapError(err)
	}
	p.Status = cms.PageStatus(status)
	if err := json.Unmarshal(blocks, &p.Blocks); err != nil {
		return cms.Page{}, fmt.Errorf("unmarshal page blocks: %w", err)
	}
	return p, nil
}
