package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/models"
)

// Reconciler synthesizes full-set bundles and grouped containers from
// computed families. Reconciliation is idempotent: membership is
// replaced wholesale, so re-running an import converges on the CSV.
type Reconciler struct {
	catalog Catalog
	rows    *RowImporter
	log     *logrus.Entry
}

// NewReconciler builds a reconciler. The row importer is reused for
// attaching full-set row assets to synthesized bundles.
func NewReconciler(catalog Catalog, rows *RowImporter, log *logrus.Entry) *Reconciler {
	return &Reconciler{catalog: catalog, rows: rows, log: log}
}

// ReconcileFamily brings one family's bundles and grouped container in
// line with the CSV.
func (rc *Reconciler) ReconcileFamily(ctx context.Context, fam Family) (models.PhaseResult, error) {
	var result models.PhaseResult
	bundles := make(map[models.Medium]*models.Product)

	for _, medium := range []models.Medium{models.MediumDigital, models.MediumHardcopy} {
		if _, ok := fam.FullSets[medium]; !ok {
			continue
		}
		bundle, created, errs, err := rc.reconcileBundle(ctx, fam, medium)
		if err != nil {
			return result, err
		}
		result.Errors = append(result.Errors, errs...)
		if created {
			result.Counts.BundlesCreated++
		}
		bundles[medium] = bundle
	}

	created, errs, err := rc.reconcileGrouped(ctx, fam, bundles, &result)
	if err != nil {
		return result, err
	}
	result.Errors = append(result.Errors, errs...)
	if created {
		result.Counts.GroupedCreated++
	}
	return result, nil
}

// memberIDs resolves the family's member SKUs for a medium to product
// IDs, preserving CSV order. Members whose rows failed to import are
// skipped with a warning.
func (rc *Reconciler) memberIDs(ctx context.Context, fam Family, medium models.Medium) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, m := range fam.Members[medium] {
		p, err := rc.catalog.FindBySKU(ctx, m.SKU)
		if err != nil {
			return nil, fmt.Errorf("failed to look up member %s: %w", m.SKU, err)
		}
		if p == nil {
			rc.log.WithFields(logrus.Fields{
				"base": fam.BaseSKU,
				"sku":  m.SKU,
				"line": m.Line,
			}).Warn("Bundle member not found in catalog, skipping")
			continue
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// reconcileBundle creates or updates the family's bundle for one medium
// and replaces its membership wholesale.
func (rc *Reconciler) reconcileBundle(ctx context.Context, fam Family, medium models.Medium) (*models.Product, bool, []models.ImportRowError, error) {
	var rowErrs []models.ImportRowError
	digital := medium == models.MediumDigital
	base := fam.BaseSKU

	ids, err := rc.memberIDs(ctx, fam, medium)
	if err != nil {
		return nil, false, nil, err
	}
	if len(ids) == 0 {
		line := 0
		if row, ok := fam.FullSets[medium]; ok {
			line = row.Line
		}
		rowErrs = append(rowErrs, models.ImportRowError{
			Row:     line,
			Code:    "EMPTY_BUNDLE",
			Message: fmt.Sprintf("full set %s (%s) has no member products", base, medium),
		})
	}

	bundle, err := rc.catalog.FindBundleByBaseSKU(ctx, base, digital)
	if err != nil {
		return nil, false, rowErrs, fmt.Errorf("failed to look up bundle for %s: %w", base, err)
	}

	// A full-set row carries the bundle's own price, description,
	// category, and attributes. A lazily synthesized bundle has none.
	row, hasRow := fam.FullSets[medium]
	var desired *models.Product
	if hasRow {
		desired, err = rc.rows.buildProduct(ctx, row, medium)
		if err != nil {
			return nil, false, rowErrs, err
		}
	} else {
		desired = &models.Product{Price: "0", Virtual: digital, Downloadable: digital}
	}
	title := fam.BundleTitle(medium)
	desired.Type = models.ProductTypeBundle
	desired.SKU = fam.BundleSKU(medium)
	desired.Name = title
	desired.Slug = Slugify(title) + MediumSlugSuffix(medium)
	desired.Status = models.ProductStatusPublished
	desired.Visibility = models.VisibilityVisible
	desired.BundleBaseSKU = &base

	created := false
	if bundle == nil {
		desired.Imported = true
		if err := rc.catalog.Create(ctx, desired); err != nil {
			return nil, false, rowErrs, fmt.Errorf("failed to create bundle %s: %w", desired.SKU, err)
		}
		bundle = desired
		created = true
	} else if applyProduct(bundle, desired) {
		if err := rc.catalog.Save(ctx, bundle); err != nil {
			return nil, false, rowErrs, fmt.Errorf("failed to update bundle %s: %w", bundle.SKU, err)
		}
	}

	if hasRow {
		if err := rc.rows.attachAssets(ctx, bundle, row, medium); err != nil {
			return nil, created, rowErrs, err
		}
	}

	if err := rc.catalog.SetBundleMembers(ctx, bundle.ID, ids); err != nil {
		return nil, created, rowErrs, fmt.Errorf("failed to set members for %s: %w", bundle.SKU, err)
	}
	return bundle, created, rowErrs, nil
}

// reconcileGrouped creates or updates the family's grouped container.
// Its children are the per-medium bundles; hardcopy member parts with
// no full-set row still get a bundle, created lazily here.
func (rc *Reconciler) reconcileGrouped(ctx context.Context, fam Family, bundles map[models.Medium]*models.Product, result *models.PhaseResult) (bool, []models.ImportRowError, error) {
	var rowErrs []models.ImportRowError
	base := fam.BaseSKU

	var children []uuid.UUID
	for _, medium := range []models.Medium{models.MediumDigital, models.MediumHardcopy} {
		bundle := bundles[medium]
		// Only the hardcopy bundle is synthesized on demand; a digital
		// bundle exists solely when its full-set row does.
		if bundle == nil && medium == models.MediumHardcopy && len(fam.Members[medium]) > 0 {
			lazy, created, errs, err := rc.reconcileBundle(ctx, fam, medium)
			if err != nil {
				return false, rowErrs, err
			}
			rowErrs = append(rowErrs, errs...)
			if created {
				result.Counts.BundlesCreated++
			}
			bundle = lazy
		}
		if bundle != nil {
			children = append(children, bundle.ID)
		}
	}

	grouped, err := rc.catalog.FindGroupedByBaseSKU(ctx, base)
	if err != nil {
		return false, rowErrs, fmt.Errorf("failed to look up grouped container for %s: %w", base, err)
	}

	sku := fam.ContainerSKU()
	title := fam.DisplayTitle()

	// Shared description/category/attributes come from the full-set
	// rows when present, otherwise from the group or first member row.
	var desired *models.Product
	if meta := fam.MetadataRow(); meta != nil {
		desired, err = rc.rows.buildProduct(ctx, *meta, models.MediumGroup)
		if err != nil {
			return false, rowErrs, err
		}
	} else {
		desired = &models.Product{}
	}
	desired.Type = models.ProductTypeGrouped
	desired.SKU = sku
	desired.Name = title
	desired.Slug = Slugify(title)
	desired.Price = "0"
	desired.Virtual = false
	desired.Downloadable = false
	desired.Status = models.ProductStatusPublished
	desired.Visibility = models.VisibilityVisible
	desired.GroupedBaseSKU = &base

	created := false
	if grouped == nil {
		// An earlier import may have written this SKU as another type;
		// the family wins and the product is converted in place.
		grouped, err = rc.catalog.FindBySKU(ctx, sku)
		if err != nil {
			return false, rowErrs, fmt.Errorf("failed to look up sku %s: %w", sku, err)
		}
	}
	if grouped == nil {
		desired.Imported = true
		if err := rc.catalog.Create(ctx, desired); err != nil {
			return false, rowErrs, fmt.Errorf("failed to create grouped container %s: %w", desired.SKU, err)
		}
		grouped = desired
		created = true
	} else {
		changed := applyProduct(grouped, desired)
		if grouped.Type != models.ProductTypeGrouped {
			grouped.Type, changed = models.ProductTypeGrouped, true
		}
		if grouped.GroupedBaseSKU == nil || *grouped.GroupedBaseSKU != base {
			grouped.GroupedBaseSKU, changed = &base, true
		}
		if changed {
			if err := rc.catalog.Save(ctx, grouped); err != nil {
				return false, rowErrs, fmt.Errorf("failed to update grouped container %s: %w", grouped.SKU, err)
			}
		}
	}

	// Group rows carry display media only; MediumGroup keeps the
	// protected-file branch inert.
	if fam.GroupRow != nil {
		if err := rc.rows.attachAssets(ctx, grouped, *fam.GroupRow, models.MediumGroup); err != nil {
			return created, rowErrs, err
		}
	}
	if err := rc.catalog.SetGroupedChildren(ctx, grouped.ID, children); err != nil {
		return created, rowErrs, fmt.Errorf("failed to set children for %s: %w", grouped.SKU, err)
	}
	return created, rowErrs, nil
}
