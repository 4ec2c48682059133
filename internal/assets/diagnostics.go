package assets

import (
	"sync"

	"catalog-import-service/internal/models"
)

// Diagnostics collects asset-not-found reports across a phase. Missing
// media never fails a row; it accumulates here and is surfaced in the
// phase result.
type Diagnostics struct {
	mu      sync.Mutex
	reports []models.AssetNotFoundError
}

// Report records a missing asset for a product.
func (d *Diagnostics) Report(sku, title, filename string, class models.AssetClass, line int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports = append(d.reports, models.AssetNotFoundError{
		OwnerSKU:   sku,
		OwnerTitle: title,
		Filename:   filename,
		AssetClass: class,
		Line:       line,
	})
}

// Drain returns the accumulated reports and resets the collector.
func (d *Diagnostics) Drain() []models.AssetNotFoundError {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.reports
	d.reports = nil
	return out
}
