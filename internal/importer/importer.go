package importer

import (
	"context"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/stitchpress/content-crawler/internal/cms"
	"github.com/stitchpress/content-crawler/internal/metrics"
)

// Importer runs bulk demo-data imports. Every phase is best effort: a failed
// item is logged and skipped, and the tally counts successes only.
type Importer struct {
	content  cms.ContentStore
	media    cms.MediaStore
	rehoster cms.Rehoster
	clock    cms.Clock
	logger   *zap.Logger
}

// New builds an Importer.
func New(content cms.ContentStore, media cms.MediaStore, rehoster cms.Rehoster, clock cms.Clock, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		content:  content,
		media:    media,
		rehoster: rehoster,
		clock:    clock,
		logger:   logger,
	}
}

// substitution replaces known placeholder tokens in string fields. Tokens
// whose rehost failed were never entered, so they stay verbatim.
type substitution map[string]string

func (s substitution) apply(in string) string {
	if in == "" || len(s) == 0 {
		return in
	}
	out := in
	for token, replacement := range s {
		out = strings.ReplaceAll(out, token, replacement)
	}
	return out
}

func (s substitution) applySlice(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = s.apply(v)
	}
	return out
}

// ImportDocument runs the phased import. The phase order is load-bearing:
// images first (the substitution map feeds every later phase), then
// categories (their ids feed products and posts), then the entities that
// depend on neither.
func (im *Importer) ImportDocument(ctx context.Context, doc Document, actingUserID int64) (cms.ImportResult, error) {
	if err := doc.Validate(); err != nil {
		return cms.ImportResult{}, err
	}

	var result cms.ImportResult
	subs := im.importImages(ctx, doc.Images, &result)

	productCats := im.importCategories(ctx, doc.ProductCategories, subs, im.content.UpsertProductCategory, "product category", &result.ProductCategories)
	postCats := im.importCategories(ctx, doc.PostCategories, subs, im.content.UpsertPostCategory, "post category", &result.PostCategories)

	im.importProducts(ctx, doc.Products, subs, productCats, &result)
	im.importPosts(ctx, doc.Posts, subs, postCats, actingUserID, &result)
	im.importPages(ctx, doc.Pages, subs, actingUserID, &result)
	im.importMenus(ctx, doc.Menus, subs, &result)
	im.importSettings(ctx, doc.Settings, subs, &result)

	metrics.ObserveImport("image", result.Images)
	metrics.ObserveImport("product_category", result.ProductCategories)
	metrics.ObserveImport("post_category", result.PostCategories)
	metrics.ObserveImport("product", result.Products)
	metrics.ObserveImport("post", result.Posts)
	metrics.ObserveImport("page", result.Pages)
	metrics.ObserveImport("menu", result.Menus)
	metrics.ObserveImport("setting", result.Settings)

	im.logger.Info("demo import finished",
		zap.Int("images", result.Images),
		zap.Int("product_categories", result.ProductCategories),
		zap.Int("post_categories", result.PostCategories),
		zap.Int("products", result.Products),
		zap.Int("posts", result.Posts),
		zap.Int("pages", result.Pages),
		zap.Int("menus", result.Menus),
		zap.Int("settings", result.Settings),
	)
	return result, nil
}

// importImages rehosts the declared images and builds the substitution map.
// A failed rehost leaves its token out of the map entirely.
func (im *Importer) importImages(ctx context.Context, images []DemoImage, result *cms.ImportResult) substitution {
	subs := substitution{}
	if len(images) == 0 {
		return subs
	}

	reqs := make([]cms.RehostRequest, len(images))
	for i, img := range images {
		reqs[i] = cms.RehostRequest{URL: img.URL, Filename: img.Filename}
	}

	rehosted := im.rehoster.RehostAll(ctx, reqs, nil)
	for i, r := range rehosted {
		img := images[i]
		if !r.Success {
			im.logger.Warn("demo image rehost failed",
				zap.String("url", img.URL),
				zap.String("error", r.ErrorText),
			)
			continue
		}
		subs[img.Key()] = r.PublicURL

		filename := path.Base(r.StoredPath)
		originalName := img.OriginalName
		if originalName == "" {
			originalName = filename
		}
		record := cms.MediaRecord{
			Filename:     filename,
			OriginalName: originalName,
			Path:         r.StoredPath,
			URL:          r.PublicURL,
			MimeType:     mimeTypeForName(filename),
			Width:        r.Width,
			Height:       r.Height,
			Alt:          img.Alt,
			CreatedAt:    im.clock.Now(),
		}
		if err := im.media.CreateMedia(ctx, record); err != nil {
			im.logger.Warn("media record not saved", zap.String("filename", filename), zap.Error(err))
			continue
		}
		result.Images++
	}
	return subs
}

func mimeTypeForName(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "svg":
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}

func (im *Importer) importCategories(
	ctx context.Context,
	cats []DemoCategory,
	subs substitution,
	upsert func(context.Context, cms.Category) (int64, error),
	kind string,
	tally *int,
) map[string]int64 {
	slugToID := make(map[string]int64, len(cats))
	for _, cat := range cats {
		slug := cat.Slug
		if slug == "" {
			slug = cms.Slugify(cat.Name)
		}
		id, err := upsert(ctx, cms.Category{
			Name:        cat.Name,
			Slug:        slug,
			Description: cat.Description,
			Image:       subs.apply(cat.Image),
			SortOrder:   cat.SortOrder,
		})
		if err != nil {
			im.logger.Warn("category not imported",
				zap.String("kind", kind),
				zap.String("slug", slug),
				zap.Error(err),
			)
			continue
		}
		slugToID[slug] = id
		*tally++
	}
	return slugToID
}

func (im *Importer) importProducts(ctx context.Context, products []DemoProduct, subs substitution, categories map[string]int64, result *cms.ImportResult) {
	for _, p := range products {
		slug := p.Slug
		if slug == "" {
			slug = cms.Slugify(p.Name)
		}
		sku := p.SKU
		if sku == "" {
			sku = strings.ToUpper(slug)
		}
		stock := 100
		if p.Stock != nil {
			stock = *p.Stock
		}
		var categoryID *int64
		if p.CategorySlug != "" {
			if id, ok := categories[p.CategorySlug]; ok {
				categoryID = &id
			}
		}
		err := im.content.UpsertProduct(ctx, cms.Product{
			Name:           p.Name,
			Slug:           slug,
			Description:    subs.apply(p.Description),
			Price:          p.Price,
			SalePrice:      p.SalePrice,
			SKU:            sku,
			Images:         subs.applySlice(p.Images),
			Stock:          stock,
			IsFeatured:     p.IsFeatured,
			Specifications: subs.apply(p.Specifications),
			SEOTitle:       p.SEOTitle,
			SEODesc:        p.SEODesc,
			CategoryID:     categoryID,
		})
		if err != nil {
			im.logger.Warn("product not imported", zap.String("slug", slug), zap.Error(err))
			continue
		}
		result.Products++
	}
}

func (im *Importer) importPosts(ctx context.Context, posts []DemoPost, subs substitution, categories map[string]int64, actingUserID int64, result *cms.ImportResult) {
	for _, p := range posts {
		slug := p.Slug
		if slug == "" {
			slug = cms.Slugify(p.Title)
		}
		var categoryID *int64
		if p.CategorySlug != "" {
			if id, ok := categories[p.CategorySlug]; ok {
				categoryID = &id
			}
		}
		err := im.content.UpsertPost(ctx, cms.Post{
			Title:         p.Title,
			Slug:          slug,
			Content:       subs.apply(p.Content),
			Excerpt:       p.Excerpt,
			FeaturedImage: subs.apply(p.FeaturedImage),
			Tags:          p.Tags,
			IsFeatured:    p.IsFeatured,
			SEOTitle:      p.SEOTitle,
			SEODesc:       p.SEODesc,
			CategoryID:    categoryID,
			AuthorID:      actingUserID,
		})
		if err != nil {
			im.logger.Warn("post not imported", zap.String("slug", slug), zap.Error(err))
			continue
		}
		result.Posts++
	}
}

// importPages upserts pages by slug. Unlike the interactive create path it
// does not enforce homepage exclusivity; a document declaring two homepages
// persists both flags as given.
func (im *Importer) importPages(ctx context.Context, pages []DemoPage, subs substitution, actingUserID int64, result *cms.ImportResult) {
	for _, p := range pages {
		slug := p.Slug
		if slug == "" {
			slug = cms.Slugify(p.Title)
		}
		template := p.Template
		if template == "" {
			template = "page"
		}
		seoTitle := p.SEOTitle
		if seoTitle == "" {
			seoTitle = p.Title
		}
		seoDesc := p.SEODesc
		if seoDesc == "" {
			seoDesc = p.Excerpt
		}
		blocks := make([]cms.ContentBlock, len(p.Blocks))
		for i, b := range p.Blocks {
			blocks[i] = cms.ContentBlock{Type: b.Type, Content: subs.apply(b.Content)}
		}
		err := im.content.UpsertPage(ctx, cms.Page{
			Title:         p.Title,
			Slug:          slug,
			Template:      template,
			Blocks:        blocks,
			Excerpt:       p.Excerpt,
			FeaturedImage: subs.apply(p.FeaturedImage),
			Status:        cms.PageStatusPublished,
			IsHomepage:    p.IsHomepage,
			SEOTitle:      seoTitle,
			SEODesc:       seoDesc,
			AuthorID:      actingUserID,
		})
		if err != nil {
			im.logger.Warn("page not imported", zap.String("slug", slug), zap.Error(err))
			continue
		}
		result.Pages++
	}
}

func (im *Importer) importMenus(ctx context.Context, menus []DemoMenu, subs substitution, result *cms.ImportResult) {
	for _, m := range menus {
		slug := m.Slug
		if slug == "" {
			slug = cms.Slugify(m.Name)
		}
		err := im.content.UpsertMenu(ctx, cms.Menu{
			Name:     m.Name,
			Slug:     slug,
			Location: m.Location,
			Items:    subs.apply(string(m.Items)),
		})
		if err != nil {
			im.logger.Warn("menu not imported", zap.String("slug", slug), zap.Error(err))
			continue
		}
		result.Menus++
	}
}

func (im *Importer) importSettings(ctx context.Context, settings map[string]string, subs substitution, result *cms.ImportResult) {
	for key, value := range settings {
		if err := im.content.UpsertSetting(ctx, key, subs.apply(value)); err != nil {
			im.logger.Warn("setting not imported", zap.String("key", key), zap.Error(err))
			continue
		}
		result.Settings++
	}
}
