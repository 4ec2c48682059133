// Package importer turns catalog CSV rows into products, bundles, and
// grouped containers. It is organized around an import session with
// four phases: stage the CSV, process row chunks, reconcile families,
// and process bundle chunks.
package importer

import (
	"context"

	"github.com/google/uuid"

	"catalog-import-service/internal/models"
)

// Catalog is the persistence surface the importer needs. Lookups return
// (nil, nil) when nothing matches; errors are reserved for storage
// failures.
type Catalog interface {
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	// FindBundleByBaseSKU finds the bundle aggregating a family base,
	// split by medium: downloadable selects the digital bundle.
	FindBundleByBaseSKU(ctx context.Context, baseSKU string, downloadable bool) (*models.Product, error)
	FindGroupedByBaseSKU(ctx context.Context, baseSKU string) (*models.Product, error)

	Create(ctx context.Context, p *models.Product) error
	Save(ctx context.Context, p *models.Product) error

	// SetBundleMembers replaces a bundle's member list wholesale, in
	// the given order.
	SetBundleMembers(ctx context.Context, bundleID uuid.UUID, memberIDs []uuid.UUID) error
	// SetGroupedChildren replaces a grouped container's child list.
	SetGroupedChildren(ctx context.Context, parentID uuid.UUID, childIDs []uuid.UUID) error
	// SetDownloads replaces a product's protected download list.
	SetDownloads(ctx context.Context, productID uuid.UUID, downloads []models.Download) error

	ResolveCategory(ctx context.Context, name string) (*models.Category, error)
	ResolveAttributeTerm(ctx context.Context, attribute, name string) (*models.AttributeTerm, error)
	ResolveTag(ctx context.Context, slug, name string) (*models.Tag, error)
	// SetTags replaces a product's tag list wholesale.
	SetTags(ctx context.Context, productID uuid.UUID, tagIDs []uuid.UUID) error
}
