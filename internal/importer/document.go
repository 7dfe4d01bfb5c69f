// Package importer performs ordered, idempotent bulk imports of demo-data
// documents.
package importer

import (
	"encoding/json"

	"github.com/stitchpress/content-crawler/internal/cms"
)

// DemoImage declares one remote image to rehost. Placeholder is the token
// substituted in downstream string fields; it falls back to the URL when
// absent.
type DemoImage struct {
	Placeholder  string `json:"placeholder"`
	URL          string `json:"url"`
	Filename     string `json:"filename,omitempty"`
	OriginalName string `json:"original_name,omitempty"`
	Alt          string `json:"alt,omitempty"`
}

// Key returns the substitution token for this image.
func (i DemoImage) Key() string {
	if i.Placeholder != "" {
		return i.Placeholder
	}
	return i.URL
}

// DemoCategory declares a post or product category. Slug is derived from
// Name when absent.
type DemoCategory struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SortOrder   int    `json:"sort_order,omitempty"`
}

// DemoProduct declares a catalog entry. CategorySlug is resolved against the
// categories imported earlier in the same run; an unknown slug leaves the
// product uncategorized.
type DemoProduct struct {
	Name           string   `json:"name"`
	Slug           string   `json:"slug,omitempty"`
	Description    string   `json:"description,omitempty"`
	Price          float64  `json:"price"`
	SalePrice      *float64 `json:"sale_price,omitempty"`
	SKU            string   `json:"sku,omitempty"`
	Images         []string `json:"images,omitempty"`
	Stock          *int     `json:"stock,omitempty"`
	IsFeatured     bool     `json:"is_featured,omitempty"`
	Specifications string   `json:"specifications,omitempty"`
	SEOTitle       string   `json:"seo_title,omitempty"`
	SEODesc        string   `json:"seo_desc,omitempty"`
	CategorySlug   string   `json:"category_slug,omitempty"`
}

// DemoPost declares a blog entry.
type DemoPost struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug,omitempty"`
	Content       string   `json:"content,omitempty"`
	Excerpt       string   `json:"excerpt,omitempty"`
	FeaturedImage string   `json:"featured_image,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	IsFeatured    bool     `json:"is_featured,omitempty"`
	SEOTitle      string   `json:"seo_title,omitempty"`
	SEODesc       string   `json:"seo_desc,omitempty"`
	CategorySlug  string   `json:"category_slug,omitempty"`
}

// DemoPage declares a content page.
type DemoPage struct {
	Title         string             `json:"title"`
	Slug          string             `json:"slug,omitempty"`
	Template      string             `json:"template,omitempty"`
	Blocks        []cms.ContentBlock `json:"blocks,omitempty"`
	Excerpt       string             `json:"excerpt,omitempty"`
	FeaturedImage string             `json:"featured_image,omitempty"`
	IsHomepage    bool               `json:"is_homepage,omitempty"`
	SEOTitle      string             `json:"seo_title,omitempty"`
	SEODesc       string             `json:"seo_desc,omitempty"`
}

// DemoMenu declares a navigation menu. Items is kept as raw JSON; tokens in
// it are still substituted as text.
type DemoMenu struct {
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Location string          `json:"location,omitempty"`
	Items    json.RawMessage `json:"items,omitempty"`
}

// Document is the demo-data bundle accepted by the bulk importer.
type Document struct {
	Images            []DemoImage       `json:"images,omitempty"`
	ProductCategories []DemoCategory    `json:"product_categories,omitempty"`
	PostCategories    []DemoCategory    `json:"post_categories,omitempty"`
	Products          []DemoProduct     `json:"products,omitempty"`
	Posts             []DemoPost        `json:"posts,omitempty"`
	Pages             []DemoPage        `json:"pages,omitempty"`
	Menus             []DemoMenu        `json:"menus,omitempty"`
	Settings          map[string]string `json:"settings,omitempty"`
}

// ParseDocument decodes and validates a demo-data document. A document that
// does not decode, or that fails the boundary checks, is rejected with a
// ValidationError; nothing is persisted.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, cms.NewValidationError("document", "malformed demo document: "+err.Error())
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks the structural requirements the import phases rely on.
func (d Document) Validate() error {
	for _, img := range d.Images {
		if img.URL == "" {
			return cms.NewValidationError("images", "image entry is missing a url")
		}
	}
	for _, cat := range d.ProductCategories {
		if cat.Name == "" && cat.Slug == "" {
			return cms.NewValidationError("product_categories", "category entry needs a name or slug")
		}
	}
	for _, cat := range d.PostCategories {
		if cat.Name == "" && cat.Slug == "" {
			return cms.NewValidationError("post_categories", "category entry needs a name or slug")
		}
	}
	for _, p := range d.Products {
		if p.Name == "" && p.Slug == "" {
			return cms.NewValidationError("products", "product entry needs a name or slug")
		}
	}
	for _, p := range d.Posts {
		if p.Title == "" && p.Slug == "" {
			return cms.NewValidationError("posts", "post entry needs a title or slug")
		}
	}
	for _, p := range d.Pages {
		if p.Title == "" && p.Slug == "" {
			return cms.NewValidationError("pages", "page entry needs a title or slug")
		}
	}
	for _, m := range d.Menus {
		if m.Name == "" && m.Slug == "" {
			return cms.NewValidationError("menus", "menu entry needs a name or slug")
		}
	}
	return nil
}
