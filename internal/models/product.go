package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductType represents the catalog product type
type ProductType string

const (
	ProductTypeSimple  ProductType = "SIMPLE"
	ProductTypeBundle  ProductType = "BUNDLE"
	ProductTypeGrouped ProductType = "GROUPED"
)

// ProductStatus represents the publication status of a product
type ProductStatus string

const (
	ProductStatusPublished ProductStatus = "PUBLISHED"
	ProductStatusDraft     ProductStatus = "DRAFT"
)

// CatalogVisibility controls where a product surfaces in the storefront
type CatalogVisibility string

const (
	VisibilityVisible CatalogVisibility = "VISIBLE"
	VisibilityHidden  CatalogVisibility = "HIDDEN"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Product represents a catalog entry: a simple part, a full-set bundle,
// or a grouped container. Attribute values (difficulty, ensemble type,
// instrumentation, byline) reference attribute terms by slug.
type Product struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Type        ProductType       `json:"type" gorm:"not null;default:'SIMPLE';index"`
	SKU         string            `json:"sku" gorm:"not null;uniqueIndex:idx_products_sku"`
	Name        string            `json:"name" gorm:"not null"`
	Slug        string            `json:"slug" gorm:"not null;uniqueIndex:idx_products_slug"`
	Description *string           `json:"description,omitempty"`
	Price       string            `json:"price" gorm:"not null;default:'0'"`
	Status      ProductStatus     `json:"status" gorm:"not null;default:'PUBLISHED'"`
	Visibility  CatalogVisibility `json:"visibility" gorm:"not null;default:'VISIBLE'"`

	// Digital products are both virtual (no shipping) and downloadable.
	Virtual      bool `json:"virtual" gorm:"not null;default:false"`
	Downloadable bool `json:"downloadable" gorm:"not null;default:false"`

	CategoryID *uuid.UUID `json:"categoryId,omitempty" gorm:"type:uuid;index"`
	Category   *Category  `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	// Family linkage: bundles and grouped containers record which base SKU
	// they aggregate, so later runs can find them without parsing slugs.
	BundleBaseSKU  *string `json:"bundleBaseSku,omitempty" gorm:"index"`
	GroupedBaseSKU *string `json:"groupedBaseSku,omitempty" gorm:"index"`

	// Imported marks rows created by the importer, so a re-run can
	// distinguish "imported" from "updated" in its counts.
	Imported bool `json:"imported" gorm:"not null;default:false"`

	ImageURL        *string    `json:"imageUrl,omitempty" gorm:"column:image_url"`
	OriginalURL     *string    `json:"originalUrl,omitempty" gorm:"column:original_url"`
	SoundcloudLink  *string    `json:"soundcloudLink,omitempty" gorm:"column:soundcloud_link"`
	SoundcloudLink2 *string    `json:"soundcloudLink2,omitempty" gorm:"column:soundcloud_link_2"`
	SoundSamples    *JSONArray `json:"soundSamples,omitempty" gorm:"type:jsonb"`
	Attributes      *JSON      `json:"attributes,omitempty" gorm:"type:jsonb"`

	Downloads []Download     `json:"downloads,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Members   []BundleMember `json:"members,omitempty" gorm:"foreignKey:BundleID;constraint:OnDelete:CASCADE"`
	Children  []GroupedChild `json:"children,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
	Tags      []Tag          `json:"tags,omitempty" gorm:"many2many:product_tags"`

	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// BundleMember links a bundle to one of its member products, ordered by
// position. All members carry the same policy: quantity one, required,
// priced and shipped with the bundle, visible in the bundle listing.
type BundleMember struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BundleID  uuid.UUID `json:"bundleId" gorm:"type:uuid;not null;index;uniqueIndex:idx_bundle_member"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_bundle_member"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	Required  bool      `json:"required" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupedChild links a grouped container to one of its child products.
type GroupedChild struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ParentID  uuid.UUID `json:"parentId" gorm:"type:uuid;not null;index;uniqueIndex:idx_grouped_child"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_grouped_child"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category represents a product category resolved or created by name
// during import.
type Category struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string          `json:"name" gorm:"not null"`
	Slug        string          `json:"slug" gorm:"not null;uniqueIndex"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// AttributeTerm is a value within a named attribute taxonomy
// (difficulty, ensemble-type, instrumentation, byline).
type AttributeTerm struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Attribute string    `json:"attribute" gorm:"not null;uniqueIndex:idx_attribute_terms"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"not null;uniqueIndex:idx_attribute_terms"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tag is a free-form product label. Imported parts carry the
// "individual-single-instrument" tag unless their row is flagged
// standalone, so the storefront can fold them under their family.
type Tag struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"createdAt"`
}

// TagSingleInstrument is the slug applied to non-standalone parts.
const TagSingleInstrument = "individual-single-instrument"

// Download is a protected file attached to a downloadable product.
type Download struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Path      string    `json:"path" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// Attachment records a media file copied into the public media tree.
type Attachment struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex"`
	Path      string    `json:"path" gorm:"not null"`
	MimeType  string    `json:"mimeType" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details *JSON  `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the BundleMember model
func (BundleMember) TableName() string {
	return "bundle_members"
}

// TableName returns the table name for the GroupedChild model
func (GroupedChild) TableName() string {
	return "grouped_children"
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// TableName returns the table name for the AttributeTerm model
func (AttributeTerm) TableName() string {
	return "attribute_terms"
}

// TableName returns the table name for the Tag model
func (Tag) TableName() string {
	return "tags"
}

// TableName returns the table name for the Download model
func (Download) TableName() string {
	return "downloads"
}

// TableName returns the table name for the Attachment model
func (Attachment) TableName() string {
	return "attachments"
}
