package importer

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/assets"
	"catalog-import-service/internal/models"
)

// RowOutcome classifies what a processed row did to the catalog.
type RowOutcome int

const (
	RowCreated RowOutcome = iota
	RowUpdated
	RowSkipped
)

// attributeColumns maps attribute taxonomy names to their CSV columns.
var attributeColumns = map[string]string{
	"difficulty":      models.ColDifficulty,
	"ensemble-type":   models.ColEnsembleType,
	"instrumentation": models.ColInstrumentation,
	"byline":          models.ColByline,
}

// RowImporter imports individual CSV rows as simple products.
type RowImporter struct {
	catalog Catalog
	assets  *assets.Resolver
	diag    *assets.Diagnostics
	log     *logrus.Entry
}

// NewRowImporter builds a row importer over a catalog and asset resolver.
func NewRowImporter(catalog Catalog, resolver *assets.Resolver, diag *assets.Diagnostics, log *logrus.Entry) *RowImporter {
	return &RowImporter{catalog: catalog, assets: resolver, diag: diag, log: log}
}

// ImportRow imports one CSV row as a simple product. Full-set and group
// rows are not simple products and are skipped; they are consumed by
// family reconciliation instead. The returned error is reserved for
// storage and filesystem failures; data problems come back as a
// *models.ImportRowError.
func (ri *RowImporter) ImportRow(ctx context.Context, row models.Row, updateExisting bool) (RowOutcome, *models.ImportRowError, error) {
	sku := row.SKU()
	if sku == "" {
		return RowSkipped, nil, nil
	}
	title := row.Title()
	if title == "" {
		return RowSkipped, &models.ImportRowError{
			Row: row.Line, Column: models.ColProductTitle,
			Code: "MISSING_TITLE", Message: "row has no product title",
		}, nil
	}

	medium, heuristic := row.ResolveMedium()
	if medium == models.MediumGroup || row.IsFullSet() {
		return RowSkipped, nil, nil
	}
	if heuristic {
		ri.log.WithFields(logrus.Fields{
			"sku":    sku,
			"line":   row.Line,
			"medium": medium,
		}).Warn("Medium column blank, resolved from product file heuristic")
	}

	existing, err := ri.catalog.FindBySKU(ctx, sku)
	if err != nil {
		return RowSkipped, nil, fmt.Errorf("failed to look up sku %s: %w", sku, err)
	}
	if existing != nil && !updateExisting {
		return RowSkipped, nil, nil
	}

	desired, err := ri.buildProduct(ctx, row, medium)
	if err != nil {
		return RowSkipped, nil, err
	}

	outcome := RowUpdated
	var target *models.Product
	if existing == nil {
		desired.Imported = true
		if err := ri.catalog.Create(ctx, desired); err != nil {
			return RowSkipped, nil, fmt.Errorf("failed to create product %s: %w", sku, err)
		}
		target = desired
		outcome = RowCreated
	} else {
		if applyProduct(existing, desired) {
			if err := ri.catalog.Save(ctx, existing); err != nil {
				return RowSkipped, nil, fmt.Errorf("failed to update product %s: %w", sku, err)
			}
		}
		target = existing
	}

	if err := ri.attachAssets(ctx, target, row, medium); err != nil {
		return outcome, nil, err
	}
	// Parts default to the single-instrument tag; the standalone column
	// opts a row out, and replacement semantics clear a stale tag.
	var tagIDs []uuid.UUID
	if !row.IsStandalone() {
		tag, err := ri.catalog.ResolveTag(ctx, models.TagSingleInstrument, "Individual Single Instrument")
		if err != nil {
			return outcome, nil, fmt.Errorf("failed to resolve tag: %w", err)
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	if err := ri.catalog.SetTags(ctx, target.ID, tagIDs); err != nil {
		return outcome, nil, fmt.Errorf("failed to tag product %s: %w", sku, err)
	}
	return outcome, nil, nil
}

// buildProduct assembles the desired product state for a row, resolving
// category and attribute terms through the catalog.
func (ri *RowImporter) buildProduct(ctx context.Context, row models.Row, medium models.Medium) (*models.Product, error) {
	digital := medium == models.MediumDigital
	price := row.Get(models.ColPrice)
	if price == "" {
		price = "0"
	}

	p := &models.Product{
		Type:         models.ProductTypeSimple,
		SKU:          row.SKU(),
		Name:         row.Title(),
		Slug:         Slugify(row.Title()) + MediumSlugSuffix(medium),
		Price:        price,
		Status:       models.ProductStatusPublished,
		Visibility:   models.VisibilityVisible,
		Virtual:      digital,
		Downloadable: digital,
	}
	if d := row.Description(); d != "" {
		p.Description = &d
	}
	if u := row.Get(models.ColOriginalURL); u != "" {
		p.OriginalURL = &u
	}
	if s := row.Get(models.ColSoundcloudLink1); s != "" {
		p.SoundcloudLink = &s
	}
	if s := row.Get(models.ColSoundcloudLink2); s != "" {
		p.SoundcloudLink2 = &s
	}

	if name := row.Category(); name != "" {
		cat, err := ri.catalog.ResolveCategory(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %w", name, err)
		}
		p.CategoryID = &cat.ID
	}

	attrs := models.JSON{}
	for attribute, column := range attributeColumns {
		value := row.Get(column)
		if value == "" {
			continue
		}
		term, err := ri.catalog.ResolveAttributeTerm(ctx, attribute, value)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s term %q: %w", attribute, value, err)
		}
		attrs[attribute] = term.Slug
	}
	if len(attrs) > 0 {
		p.Attributes = &attrs
	}
	return p, nil
}

// applyProduct copies the desired row-derived state onto an existing
// product, reporting whether anything changed. The imported flag and
// identity fields are left alone.
func applyProduct(dst, src *models.Product) bool {
	changed := false
	if dst.Name != src.Name {
		dst.Name, changed = src.Name, true
	}
	if dst.Slug != src.Slug {
		dst.Slug, changed = src.Slug, true
	}
	if dst.Price != src.Price {
		dst.Price, changed = src.Price, true
	}
	if dst.Virtual != src.Virtual {
		dst.Virtual, changed = src.Virtual, true
	}
	if dst.Downloadable != src.Downloadable {
		dst.Downloadable, changed = src.Downloadable, true
	}
	if !strPtrEqual(dst.Description, src.Description) {
		dst.Description, changed = src.Description, true
	}
	if !strPtrEqual(dst.OriginalURL, src.OriginalURL) {
		dst.OriginalURL, changed = src.OriginalURL, true
	}
	if !strPtrEqual(dst.SoundcloudLink, src.SoundcloudLink) {
		dst.SoundcloudLink, changed = src.SoundcloudLink, true
	}
	if !strPtrEqual(dst.SoundcloudLink2, src.SoundcloudLink2) {
		dst.SoundcloudLink2, changed = src.SoundcloudLink2, true
	}
	if !uuidPtrEqual(dst.CategoryID, src.CategoryID) {
		dst.CategoryID, changed = src.CategoryID, true
	}
	if !reflect.DeepEqual(dst.Attributes, src.Attributes) {
		dst.Attributes, changed = src.Attributes, true
	}
	return changed
}

// attachAssets resolves and copies the row's media, recording misses as
// diagnostics rather than failures.
func (ri *RowImporter) attachAssets(ctx context.Context, p *models.Product, row models.Row, medium models.Medium) error {
	sku, title := row.SKU(), row.Title()
	dirty := false

	if img := row.Get(models.ColImageFile); img != "" {
		dest, found, err := ri.assets.ImportImage(img)
		if err != nil {
			return fmt.Errorf("failed to import image for %s: %w", sku, err)
		}
		if !found {
			ri.diag.Report(sku, title, img, models.AssetClassImage, row.Line)
		} else if p.ImageURL == nil || *p.ImageURL != dest {
			p.ImageURL = &dest
			dirty = true
		}
	}

	if list := row.Get(models.ColSoundFiles); list != "" {
		copied, missing, err := ri.assets.ImportSounds(list)
		if err != nil {
			return fmt.Errorf("failed to import sounds for %s: %w", sku, err)
		}
		for _, name := range missing {
			ri.diag.Report(sku, title, name, models.AssetClassSound, row.Line)
		}
		if len(copied) > 0 {
			samples := make(models.JSONArray, len(copied))
			for i, c := range copied {
				samples[i] = c
			}
			if !reflect.DeepEqual(p.SoundSamples, &samples) {
				p.SoundSamples = &samples
				dirty = true
			}
		}
	}

	if file := row.Get(models.ColProductFile); file != "" && medium == models.MediumDigital {
		dest, found, err := ri.assets.ImportProtected(models.BaseSKU(sku), file)
		if err != nil {
			return fmt.Errorf("failed to import product file for %s: %w", sku, err)
		}
		if !found {
			ri.diag.Report(sku, title, file, models.AssetClassProtected, row.Line)
		} else {
			// The display name keeps the CSV's nominal filename even
			// when the stored copy carries a uniqueness suffix.
			downloads := []models.Download{{
				ProductID: p.ID,
				Name:      file,
				Path:      dest,
			}}
			if err := ri.catalog.SetDownloads(ctx, p.ID, downloads); err != nil {
				return fmt.Errorf("failed to set downloads for %s: %w", sku, err)
			}
		}
	}

	if dirty {
		if err := ri.catalog.Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save media fields for %s: %w", sku, err)
		}
	}
	return nil
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
