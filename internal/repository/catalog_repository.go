// Package repository persists the catalog in PostgreSQL, with a Redis
// lookup cache in front of the hot SKU path.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-import-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL  = 5 * time.Minute
	TaxonomyCacheTTL = 30 * time.Minute // categories, terms, and tags rarely change
)

// CatalogRepository is the gorm-backed catalog store. The Redis client
// is optional; with a nil client every lookup goes straight to the
// database.
type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	return &CatalogRepository{db: db, redis: redisClient}
}

func skuCacheKey(sku string) string {
	return "catalog:product:sku:" + sku
}

func (r *CatalogRepository) cacheProduct(ctx context.Context, p *models.Product) {
	if r.redis == nil {
		return
	}
	if data, err := json.Marshal(p); err == nil {
		r.redis.Set(ctx, skuCacheKey(p.SKU), data, ProductCacheTTL)
	}
}

func (r *CatalogRepository) invalidateProduct(ctx context.Context, sku string) {
	if r.redis != nil {
		r.redis.Del(ctx, skuCacheKey(sku))
	}
}

// FindBySKU returns the product with the given SKU, or (nil, nil) when
// none exists.
func (r *CatalogRepository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, skuCacheKey(sku)).Result(); err == nil {
			var p models.Product
			if err := json.Unmarshal([]byte(val), &p); err == nil {
				return &p, nil
			}
		}
	}

	var p models.Product
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product by sku: %w", err)
	}
	r.cacheProduct(ctx, &p)
	return &p, nil
}

// FindBundleByBaseSKU returns the bundle aggregating a family base for
// one medium: downloadable true selects the digital bundle.
func (r *CatalogRepository) FindBundleByBaseSKU(ctx context.Context, baseSKU string, downloadable bool) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Where("type = ? AND bundle_base_sku = ? AND downloadable = ?", models.ProductTypeBundle, baseSKU, downloadable).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bundle by base sku: %w", err)
	}
	return &p, nil
}

// FindGroupedByBaseSKU returns the grouped container for a family base.
func (r *CatalogRepository) FindGroupedByBaseSKU(ctx context.Context, baseSKU string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Where("type = ? AND grouped_base_sku = ?", models.ProductTypeGrouped, baseSKU).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped container by base sku: %w", err)
	}
	return &p, nil
}

// Create inserts a product.
func (r *CatalogRepository) Create(ctx context.Context, p *models.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	r.cacheProduct(ctx, p)
	return nil
}

// Save persists changes to an existing product.
func (r *CatalogRepository) Save(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	r.invalidateProduct(ctx, p.SKU)
	return nil
}

// SetBundleMembers replaces a bundle's membership wholesale, preserving
// the given order. All members carry the fixed policy: quantity one,
// required.
func (r *CatalogRepository) SetBundleMembers(ctx context.Context, bundleID uuid.UUID, memberIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bundle_id = ?", bundleID).Delete(&models.BundleMember{}).Error; err != nil {
			return fmt.Errorf("failed to clear bundle members: %w", err)
		}
		for i, id := range memberIDs {
			member := models.BundleMember{
				BundleID:  bundleID,
				ProductID: id,
				Position:  i,
				Quantity:  1,
				Required:  true,
			}
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("failed to add bundle member: %w", err)
			}
		}
		return nil
	})
}

// SetGroupedChildren replaces a grouped container's child list.
func (r *CatalogRepository) SetGroupedChildren(ctx context.Context, parentID uuid.UUID, childIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", parentID).Delete(&models.GroupedChild{}).Error; err != nil {
			return fmt.Errorf("failed to clear grouped children: %w", err)
		}
		for i, id := range childIDs {
			child := models.GroupedChild{ParentID: parentID, ProductID: id, Position: i}
			if err := tx.Create(&child).Error; err != nil {
				return fmt.Errorf("failed to add grouped child: %w", err)
			}
		}
		return nil
	})
}

// SetDownloads replaces a product's protected download list.
func (r *CatalogRepository) SetDownloads(ctx context.Context, productID uuid.UUID, downloads []models.Download) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.Download{}).Error; err != nil {
			return fmt.Errorf("failed to clear downloads: %w", err)
		}
		for i := range downloads {
			downloads[i].ProductID = productID
			if err := tx.Create(&downloads[i]).Error; err != nil {
				return fmt.Errorf("failed to add download: %w", err)
			}
		}
		return nil
	})
}

var slugCleanup = regexp.MustCompile(`[^a-z0-9-]+`)

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugCleanup.ReplaceAllString(s, "")
	return strings.Trim(s, "-")
}

// ResolveCategory finds a category by name, creating it when missing.
// Resolution is cached in Redis since imports hit the same few
// categories thousands of times.
func (r *CatalogRepository) ResolveCategory(ctx context.Context, name string) (*models.Category, error) {
	slug := slugify(name)
	cacheKey := "catalog:category:" + slug

	if r.redis != nil {
		if val, err := r.redis.Get(ctx, cacheKey).Result(); err == nil {
			var c models.Category
			if err := json.Unmarshal([]byte(val), &c); err == nil {
				return &c, nil
			}
		}
	}

	var c models.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = models.Category{ID: uuid.New(), Name: name, Slug: slug}
		if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
			return nil, fmt.Errorf("failed to create category %q: %w", name, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	if r.redis != nil {
		if data, err := json.Marshal(&c); err == nil {
			r.redis.Set(ctx, cacheKey, data, TaxonomyCacheTTL)
		}
	}
	return &c, nil
}

// ResolveAttributeTerm finds a term within an attribute taxonomy,
// creating it when missing.
func (r *CatalogRepository) ResolveAttributeTerm(ctx context.Context, attribute, name string) (*models.AttributeTerm, error) {
	slug := slugify(name)

	var term models.AttributeTerm
	err := r.db.WithContext(ctx).
		Where("attribute = ? AND slug = ?", attribute, slug).
		First(&term).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		term = models.AttributeTerm{ID: uuid.New(), Attribute: attribute, Name: name, Slug: slug}
		if err := r.db.WithContext(ctx).Create(&term).Error; err != nil {
			return nil, fmt.Errorf("failed to create %s term %q: %w", attribute, name, err)
		}
		return &term, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query attribute term: %w", err)
	}
	return &term, nil
}

// ResolveTag finds a tag by slug, creating it when missing.
func (r *CatalogRepository) ResolveTag(ctx context.Context, slug, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tag = models.Tag{ID: uuid.New(), Name: name, Slug: slug}
		if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
			return nil, fmt.Errorf("failed to create tag %q: %w", slug, err)
		}
		return &tag, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}
	return &tag, nil
}

// ListProducts returns a page of products, optionally filtered by type.
func (r *CatalogRepository) ListProducts(ctx context.Context, productType string, page, limit int) ([]models.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if productType != "" {
		query = query.Where("type = ?", strings.ToUpper(productType))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	err := query.
		Order("sku ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// SetTags replaces a product's tag list wholesale.
func (r *CatalogRepository) SetTags(ctx context.Context, productID uuid.UUID, tagIDs []uuid.UUID) error {
	product := models.Product{ID: productID}
	tags := make([]models.Tag, len(tagIDs))
	for i, id := range tagIDs {
		tags[i] = models.Tag{ID: id}
	}
	if err := r.db.WithContext(ctx).Model(&product).Association("Tags").Replace(&tags); err != nil {
		return fmt.Errorf("failed to tag product: %w", err)
	}
	return nil
}
