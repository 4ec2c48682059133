package models

import (
	"strconv"
	"strings"
)

// Canonical CSV column names for the catalog import file.
const (
	ColProductID        = "Product ID"
	ColProductTitle     = "Product Title"
	ColDescription      = "Description"
	ColPrice            = "Price"
	ColCategory         = "Category"
	ColDifficulty       = "Difficulty"
	ColEnsembleType     = "Ensemble Type"
	ColInstrumentation  = "Instrumentation"
	ColByline           = "Byline"
	ColMedium           = "Digital/Hardcopy/Group"
	ColSingleInstrument = "Single Instrument"
	ColImageFile        = "Image File Name"
	ColSoundFiles       = "Sound Filenames (semicolon-separated)"
	ColProductFile      = "Product File Name"
	ColOriginalURL      = "Original URL"
	ColSoundcloudLink1  = "Soundcloud Link"
	ColSoundcloudLink2  = "Soundcloud Link 2"
)

// Medium is the digital-vs-hardcopy discriminator for a catalog entry.
type Medium string

const (
	MediumDigital     Medium = "digital"
	MediumHardcopy    Medium = "hardcopy"
	MediumGroup       Medium = "group"
	MediumUnspecified Medium = ""
)

// Row is a single CSV record keyed by canonical column name, plus the
// 1-based line number it came from for error reporting. Values are
// immutable once parsed.
type Row struct {
	Line   int               `json:"line"`
	Fields map[string]string `json:"fields"`
}

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

func (r Row) SKU() string         { return r.Get(ColProductID) }
func (r Row) Title() string       { return r.Get(ColProductTitle) }
func (r Row) Description() string { return r.Get(ColDescription) }
func (r Row) Category() string    { return r.Get(ColCategory) }

// Price parses the price column, defaulting to 0 on malformed input.
func (r Row) Price() float64 {
	v, err := strconv.ParseFloat(r.Get(ColPrice), 64)
	if err != nil {
		return 0
	}
	return v
}

// IsFullSet reports whether this row is the aggregate "buy everything"
// offering for its family.
func (r Row) IsFullSet() bool {
	return strings.EqualFold(r.Get(ColSingleInstrument), "full set")
}

// IsStandalone reports whether the row is flagged as a standalone product
// (non-empty Single Instrument value that is not the full-set marker).
func (r Row) IsStandalone() bool {
	v := r.Get(ColSingleInstrument)
	return v != "" && !strings.EqualFold(v, "full set")
}

// RawMedium returns the normalized medium column value without applying
// any fallback.
func (r Row) RawMedium() Medium {
	switch strings.ToLower(r.Get(ColMedium)) {
	case "digital":
		return MediumDigital
	case "hardcopy", "hardcover":
		return MediumHardcopy
	case "group":
		return MediumGroup
	default:
		return MediumUnspecified
	}
}

// ResolveMedium resolves the effective medium for a row. Precedence:
// explicit medium column first, then the presence of a protected product
// file as a digital/physical heuristic. The second return value reports
// whether the fallback heuristic was used, so callers can surface it as a
// data-quality signal instead of resolving it silently.
func (r Row) ResolveMedium() (Medium, bool) {
	if m := r.RawMedium(); m != MediumUnspecified {
		return m, false
	}
	if r.Get(ColProductFile) != "" {
		return MediumDigital, true
	}
	return MediumHardcopy, true
}

// BaseSKU derives the family key from a SKU: the first two hyphen-separated
// segments ("CB-1001-Flute" -> "CB-1001"). SKUs with fewer than two segments
// are their own base. Purely textual, no validation.
func BaseSKU(sku string) string {
	parts := strings.Split(sku, "-")
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return sku
}

// IsDigitalSKU reports whether a simple-product SKU follows the digital
// suffix convention ("-D", case-insensitive).
func IsDigitalSKU(sku string) bool {
	return len(sku) >= 2 && strings.EqualFold(sku[len(sku)-2:], "-D")
}
