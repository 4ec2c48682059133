package importer

import (
	"catalog-import-service/internal/models"
)

// Family groups every CSV row sharing a base SKU: the per-medium member
// parts, the per-medium full-set rows, and the optional group row that
// requests a grouped container. Families are value types so a computed
// set can be staged as JSON between phases.
type Family struct {
	BaseSKU  string                            `json:"baseSku"`
	GroupRow *models.Row                       `json:"groupRow,omitempty"`
	BaseRow  *models.Row                       `json:"baseRow,omitempty"`
	FullSets map[models.Medium]models.Row      `json:"fullSets,omitempty"`
	Members  map[models.Medium][]Member        `json:"members,omitempty"`
}

// Member is a simple-product reference within a family, in CSV order.
type Member struct {
	SKU  string `json:"sku"`
	Line int    `json:"line"`
}

// BuildFamilies computes the family set from a full row scan. Pure: it
// reads rows and returns families, in order of first appearance. Rows
// without a SKU are ignored; row-level validation belongs to the
// per-row import phase.
func BuildFamilies(rows []models.Row) []Family {
	byBase := make(map[string]*Family)
	var order []string

	for _, row := range rows {
		sku := row.SKU()
		if sku == "" {
			continue
		}
		base := models.BaseSKU(sku)
		fam, ok := byBase[base]
		if !ok {
			fam = &Family{BaseSKU: base}
			byBase[base] = fam
			order = append(order, base)
		}

		medium := familyMedium(row)
		switch {
		case medium == models.MediumGroup:
			// A later group row wins over an earlier one.
			r := row
			fam.GroupRow = &r
		case row.IsFullSet():
			if fam.FullSets == nil {
				fam.FullSets = make(map[models.Medium]models.Row)
			}
			fam.FullSets[medium] = row
		default:
			if fam.Members == nil {
				fam.Members = make(map[models.Medium][]Member)
			}
			fam.Members[medium] = append(fam.Members[medium], Member{SKU: sku, Line: row.Line})
			if fam.BaseRow == nil {
				r := row
				fam.BaseRow = &r
			}
		}
	}

	out := make([]Family, 0, len(order))
	for _, base := range order {
		out = append(out, *byBase[base])
	}
	return out
}

// familyMedium buckets a row within its family: the explicit medium
// column wins, otherwise the SKU suffix convention decides ("-D" parts
// are digital, anything else hardcopy). The product-file heuristic
// stays out of family math, so a blank-medium "-D" part cannot fall
// out of its digital bundle.
func familyMedium(row models.Row) models.Medium {
	if m := row.RawMedium(); m != models.MediumUnspecified {
		return m
	}
	if models.IsDigitalSKU(row.SKU()) {
		return models.MediumDigital
	}
	return models.MediumHardcopy
}

// FilterImportable keeps only families that synthesize something: a
// digital full-set row with at least one member part, or a hardcopy
// full-set row (even memberless, which yields an empty bundle). A
// family of loose parts with no full-set row produces nothing.
func FilterImportable(families []Family) []Family {
	out := families[:0:0]
	for _, f := range families {
		if _, ok := f.FullSets[models.MediumDigital]; ok && f.memberCount() > 0 {
			out = append(out, f)
			continue
		}
		if _, ok := f.FullSets[models.MediumHardcopy]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (f Family) memberCount() int {
	n := 0
	for _, members := range f.Members {
		n += len(members)
	}
	return n
}

// DisplayTitle is the family-level title: the group row's title when
// one exists, otherwise a full-set title, otherwise the first member
// row's title, each with its medium markers stripped. Digital wins
// over hardcopy as the full-set source.
func (f Family) DisplayTitle() string {
	if f.GroupRow != nil {
		if t := f.GroupRow.Title(); t != "" {
			return StripMediumSuffixes(t)
		}
	}
	for _, m := range []models.Medium{models.MediumDigital, models.MediumHardcopy, models.MediumUnspecified} {
		if row, ok := f.FullSets[m]; ok {
			if t := row.Title(); t != "" {
				return StripMediumSuffixes(t)
			}
		}
	}
	if f.BaseRow != nil {
		if t := f.BaseRow.Title(); t != "" {
			return StripMediumSuffixes(t)
		}
	}
	return f.BaseSKU
}

// MetadataRow picks the row that supplies the family's shared
// description, category, and attributes: the digital full set, then
// the hardcopy full set, then the group row, then the first member.
func (f Family) MetadataRow() *models.Row {
	for _, m := range []models.Medium{models.MediumDigital, models.MediumHardcopy} {
		if row, ok := f.FullSets[m]; ok {
			r := row
			return &r
		}
	}
	if f.GroupRow != nil {
		return f.GroupRow
	}
	return f.BaseRow
}

// ContainerSKU is the grouped container's SKU: the group row's own SKU
// when the CSV carries one, otherwise the base SKU itself.
func (f Family) ContainerSKU() string {
	if f.GroupRow != nil && f.GroupRow.SKU() != "" {
		return f.GroupRow.SKU()
	}
	return f.BaseSKU
}

// BundleSKU returns the SKU for the family's bundle in a medium: the
// full-set row's own SKU when present, otherwise a synthesized one so a
// lazily created bundle still has a stable key.
func (f Family) BundleSKU(m models.Medium) string {
	if row, ok := f.FullSets[m]; ok && row.SKU() != "" {
		return row.SKU()
	}
	if m == models.MediumHardcopy {
		return f.BaseSKU + "-SET-H"
	}
	return f.BaseSKU + "-SET-D"
}

// BundleTitle returns the title for the family's bundle in a medium.
func (f Family) BundleTitle(m models.Medium) string {
	if row, ok := f.FullSets[m]; ok {
		if t := row.Title(); t != "" {
			return StripFullSet(t)
		}
	}
	return f.DisplayTitle()
}
