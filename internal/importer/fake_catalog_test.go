package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"catalog-import-service/internal/models"
)

// fakeCatalog is an in-memory Catalog that also counts writes, so tests
// can assert that re-runs converge without extra persistence.
type fakeCatalog struct {
	products  map[uuid.UUID]*models.Product
	members   map[uuid.UUID][]uuid.UUID
	children  map[uuid.UUID][]uuid.UUID
	downloads map[uuid.UUID][]models.Download
	tagged    map[uuid.UUID][]uuid.UUID

	categories map[string]*models.Category
	terms      map[string]*models.AttributeTerm
	tags       map[string]*models.Tag

	creates int
	saves   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:   make(map[uuid.UUID]*models.Product),
		members:    make(map[uuid.UUID][]uuid.UUID),
		children:   make(map[uuid.UUID][]uuid.UUID),
		downloads:  make(map[uuid.UUID][]models.Download),
		tagged:     make(map[uuid.UUID][]uuid.UUID),
		categories: make(map[string]*models.Category),
		terms:      make(map[string]*models.AttributeTerm),
		tags:       make(map[string]*models.Tag),
	}
}

func (f *fakeCatalog) FindBySKU(_ context.Context, sku string) (*models.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) FindBundleByBaseSKU(_ context.Context, baseSKU string, downloadable bool) (*models.Product, error) {
	for _, p := range f.products {
		if p.Type == models.ProductTypeBundle && p.BundleBaseSKU != nil &&
			*p.BundleBaseSKU == baseSKU && p.Downloadable == downloadable {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) FindGroupedByBaseSKU(_ context.Context, baseSKU string) (*models.Product, error) {
	for _, p := range f.products {
		if p.Type == models.ProductTypeGrouped && p.GroupedBaseSKU != nil && *p.GroupedBaseSKU == baseSKU {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) Create(_ context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	f.products[p.ID] = &cp
	f.creates++
	return nil
}

func (f *fakeCatalog) Save(_ context.Context, p *models.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return fmt.Errorf("save of unknown product %s", p.SKU)
	}
	cp := *p
	f.products[p.ID] = &cp
	f.saves++
	return nil
}

func (f *fakeCatalog) SetBundleMembers(_ context.Context, bundleID uuid.UUID, memberIDs []uuid.UUID) error {
	f.members[bundleID] = append([]uuid.UUID(nil), memberIDs...)
	return nil
}

func (f *fakeCatalog) SetGroupedChildren(_ context.Context, parentID uuid.UUID, childIDs []uuid.UUID) error {
	f.children[parentID] = append([]uuid.UUID(nil), childIDs...)
	return nil
}

func (f *fakeCatalog) SetDownloads(_ context.Context, productID uuid.UUID, downloads []models.Download) error {
	f.downloads[productID] = append([]models.Download(nil), downloads...)
	return nil
}

func (f *fakeCatalog) ResolveCategory(_ context.Context, name string) (*models.Category, error) {
	if c, ok := f.categories[name]; ok {
		return c, nil
	}
	c := &models.Category{ID: uuid.New(), Name: name, Slug: Slugify(name)}
	f.categories[name] = c
	return c, nil
}

func (f *fakeCatalog) ResolveAttributeTerm(_ context.Context, attribute, name string) (*models.AttributeTerm, error) {
	key := attribute + "/" + name
	if t, ok := f.terms[key]; ok {
		return t, nil
	}
	t := &models.AttributeTerm{ID: uuid.New(), Attribute: attribute, Name: name, Slug: Slugify(name)}
	f.terms[key] = t
	return t, nil
}

func (f *fakeCatalog) ResolveTag(_ context.Context, slug, name string) (*models.Tag, error) {
	if t, ok := f.tags[slug]; ok {
		return t, nil
	}
	t := &models.Tag{ID: uuid.New(), Name: name, Slug: slug}
	f.tags[slug] = t
	return t, nil
}

func (f *fakeCatalog) SetTags(_ context.Context, productID uuid.UUID, tagIDs []uuid.UUID) error {
	f.tagged[productID] = append([]uuid.UUID(nil), tagIDs...)
	return nil
}

// bySKU fetches the stored product for assertions.
func (f *fakeCatalog) bySKU(sku string) *models.Product {
	for _, p := range f.products {
		if p.SKU == sku {
			return p
		}
	}
	return nil
}

var _ Catalog = (*fakeCatalog)(nil)
