package memory

import (
	"context"
	"sync"

	"github.com/stitchpress/content-crawler/internal/cms"
)

// ContentStore keeps CMS entities in mutex-guarded maps, keyed by their
// natural keys.
type ContentStore struct {
	mu sync.RWMutex

	productCategories map[string]cms.Category
	postCategories    map[string]cms.Category
	products          map[string]cms.Product
	posts             map[string]cms.Post
	pages             map[string]cms.Page
	menus             map[string]cms.Menu
	settings          map[string]string

	nextID int64
}

// NewContentStore returns an empty ContentStore.
func NewContentStore() *ContentStore {
	return &ContentStore{
		productCategories: make(map[string]cms.Category),
		postCategories:    make(map[string]cms.Category),
		products:          make(map[string]cms.Product),
		posts:             make(map[string]cms.Post),
		pages:             make(map[string]cms.Page),
		menus:             make(map[string]cms.Menu),
		settings:          make(map[string]string),
	}
}

func (s *ContentStore) allocID() int64 {
	s.nextID++
	return s.nextID
}

// UpsertProductCategory inserts or updates a product category by slug and
// returns its id.
func (s *ContentStore) UpsertProductCategory(_ context.Context, cat cms.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertCategory(s.productCategories, cat), nil
}

// UpsertPostCategory inserts or updates a post category by slug and returns
// its id.
func (s *ContentStore) UpsertPostCategory(_ context.Context, cat cms.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertCategory(s.postCategories, cat), nil
}

func (s *ContentStore) upsertCategory(m map[string]cms.Category, cat cms.Category) int64 {
	if existing, ok := m[cat.Slug]; ok {
		cat.ID = existing.ID
	} else {
		cat.ID = s.allocID()
	}
	m[cat.Slug] = cat
	return cat.ID
}

// UpsertProduct inserts or updates a product by slug.
func (s *ContentStore) UpsertProduct(_ context.Context, p cms.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.products[p.Slug]; ok {
		p.ID = existing.ID
	} else {
		p.ID = s.allocID()
	}
	s.products[p.Slug] = p
	return nil
}

// UpsertPost inserts or updates a post by slug.
func (s *ContentStore) UpsertPost(_ context.Context, p cms.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.posts[p.Slug]; ok {
		p.ID = existing.ID
	} else {
		p.ID = s.allocID()
	}
	s.posts[p.Slug] = p
	return nil
}

// UpsertPage inserts or updates a page by slug. The bulk path does not touch
// other pages' homepage flags.
func (s *ContentStore) UpsertPage(_ context.Context, p cms.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.pages[p.Slug]; ok {
		p.ID = existing.ID
	} else {
		p.ID = s.allocID()
	}
	s.pages[p.Slug] = p
	return nil
}

// UpsertMenu inserts or updates a menu by slug.
func (s *ContentStore) UpsertMenu(_ context.Context, m cms.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.menus[m.Slug]; ok {
		m.ID = existing.ID
	} else {
		m.ID = s.allocID()
	}
	s.menus[m.Slug] = m
	return nil
}

// UpsertSetting inserts or updates a setting by key.
func (s *ContentStore) UpsertSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

// CreatePage inserts a new page. A slug collision is a conflict. When the
// new page is the homepage, the flag is cleared on any prior holder first.
func (s *ContentStore) CreatePage(_ context.Context, p cms.Page) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[p.Slug]; ok {
		return 0, cms.ErrConflict
	}
	if p.IsHomepage {
		for slug, existing := range s.pages {
			if existing.IsHomepage {
				existing.IsHomepage = false
				s.pages[slug] = existing
			}
		}
	}
	p.ID = s.allocID()
	s.pages[p.Slug] = p
	return p.ID, nil
}

// FindPageBySlug returns one page by slug.
func (s *ContentStore) FindPageBySlug(_ context.Context, slug string) (cms.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[slug]
	if !ok {
		return cms.Page{}, cms.ErrNotFound
	}
	return p, nil
}

// GetSetting returns one setting value by key.
func (s *ContentStore) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	if !ok {
		return "", cms.ErrNotFound
	}
	return v, nil
}
