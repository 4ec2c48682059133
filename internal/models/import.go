package models

// AssetClass identifies which kind of file an asset diagnostic refers to.
type AssetClass string

const (
	AssetClassImage     AssetClass = "image"
	AssetClassSound     AssetClass = "sound"
	AssetClassProtected AssetClass = "protected"
)

// AssetNotFoundError is a non-fatal diagnostic: a row referenced a file
// that could not be located under the asset directories. The row itself
// still imports.
type AssetNotFoundError struct {
	OwnerSKU   string     `json:"ownerSku"`
	OwnerTitle string     `json:"ownerTitle,omitempty"`
	Filename   string     `json:"filename"`
	AssetClass AssetClass `json:"assetClass"`
	Line       int        `json:"line,omitempty"`
}

// ImportRowError represents an error for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportCounts aggregates the per-phase counters. Imported and Updated
// track simple products; bundles and grouped containers are counted
// separately because they are synthesized, not read from rows.
type ImportCounts struct {
	Imported       int `json:"imported"`
	Updated        int `json:"updated"`
	Skipped        int `json:"skipped"`
	Failed         int `json:"failed"`
	BundlesCreated int `json:"bundlesCreated"`
	GroupedCreated int `json:"groupedCreated"`
}

// Add accumulates another set of counts into c.
func (c *ImportCounts) Add(o ImportCounts) {
	c.Imported += o.Imported
	c.Updated += o.Updated
	c.Skipped += o.Skipped
	c.Failed += o.Failed
	c.BundlesCreated += o.BundlesCreated
	c.GroupedCreated += o.GroupedCreated
}

// PhaseResult is the uniform per-phase outcome: counters, row-level
// errors, and asset diagnostics. A phase that returns a PhaseResult
// completed; fatal session errors are returned as Go errors instead.
type PhaseResult struct {
	Counts        ImportCounts         `json:"counts"`
	Errors        []ImportRowError     `json:"errors,omitempty"`
	AssetNotFound []AssetNotFoundError `json:"assetNotFound,omitempty"`
}

// Merge folds another phase result into r.
func (r *PhaseResult) Merge(o PhaseResult) {
	r.Counts.Add(o.Counts)
	r.Errors = append(r.Errors, o.Errors...)
	r.AssetNotFound = append(r.AssetNotFound, o.AssetNotFound...)
}

// StartResult is returned by the first phase: the session token names
// the staged copy of the uploaded CSV for subsequent chunk calls.
type StartResult struct {
	SessionToken string `json:"sessionToken"`
	TotalRows    int    `json:"totalRows"`
}

// ChunkResult is returned by the row- and bundle-processing phases.
// Total is the full item count for the phase so callers can do
// progress math without re-reading the staged file.
type ChunkResult struct {
	PhaseResult
	Processed int  `json:"processed"`
	Total     int  `json:"total"`
	Done      bool `json:"done"`
}

// FinalizeResult is returned by the reconciliation phase: families were
// computed and staged, and BundleToken names the staged family set for
// chunked bundle processing.
type FinalizeResult struct {
	PhaseResult
	FamilyCount int    `json:"familyCount"`
	BundleToken string `json:"bundleToken,omitempty"`
}

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// CatalogImportColumns returns the column definitions for catalog import
func CatalogImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: ColProductID, Description: "Unique product SKU; the first two hyphen-separated segments form the family base", Required: true, Type: "string", Example: "CB-1001-Flute-D"},
		{Name: ColProductTitle, Description: "Product title", Required: true, Type: "string", Example: "Canyon Sunrise - Flute"},
		{Name: ColDescription, Description: "Product description", Required: false, Type: "string", Example: ""},
		{Name: ColPrice, Description: "Product price", Required: false, Type: "number", Example: "12.50"},
		{Name: ColCategory, Description: "Category name - auto-creates if not exists", Required: false, Type: "string", Example: "Concert Band"},
		{Name: ColDifficulty, Description: "Difficulty attribute value", Required: false, Type: "string", Example: "Grade 3"},
		{Name: ColEnsembleType, Description: "Ensemble type attribute value", Required: false, Type: "string", Example: "Concert Band"},
		{Name: ColInstrumentation, Description: "Instrumentation attribute value", Required: false, Type: "string", Example: "Flute"},
		{Name: ColByline, Description: "Composer/arranger byline", Required: false, Type: "string", Example: "J. Smith"},
		{Name: ColMedium, Description: "Digital, Hardcopy, or Group; falls back to product-file heuristic when blank", Required: false, Type: "string", Example: "Digital"},
		{Name: ColSingleInstrument, Description: "Non-empty marks a standalone part; 'Full Set' marks the family aggregate", Required: false, Type: "string", Example: "Full Set"},
		{Name: ColImageFile, Description: "Cover image filename under the image directory", Required: false, Type: "string", Example: "canyon-sunrise.jpg"},
		{Name: ColSoundFiles, Description: "Semicolon-separated sound sample filenames", Required: false, Type: "string", Example: "canyon-1.mp3;canyon-2.mp3"},
		{Name: ColProductFile, Description: "Protected product filename; its presence implies a digital product", Required: false, Type: "string", Example: "CB-1001-Flute.pdf"},
		{Name: ColOriginalURL, Description: "URL of the product on the previous site", Required: false, Type: "string", Example: ""},
		{Name: ColSoundcloudLink1, Description: "Soundcloud embed link", Required: false, Type: "string", Example: ""},
		{Name: ColSoundcloudLink2, Description: "Second Soundcloud embed link", Required: false, Type: "string", Example: ""},
	}
}

// CatalogImportTemplate returns the template definition for catalog import
func CatalogImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "catalog",
		Version: "1.0",
		Columns: CatalogImportColumns(),
	}
}
