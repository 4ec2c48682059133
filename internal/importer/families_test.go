package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/models"
)

func mkRow(line int, fields map[string]string) models.Row {
	return models.Row{Line: line, Fields: fields}
}

func TestBuildFamilies(t *testing.T) {
	rows := []models.Row{
		mkRow(2, map[string]string{
			models.ColProductID: "CB-1001-Flute-D", models.ColProductTitle: "Canyon Sunrise - Flute",
			models.ColMedium: "Digital",
		}),
		mkRow(3, map[string]string{
			models.ColProductID: "CB-1001-Set-D", models.ColProductTitle: "Canyon Sunrise - Full Set",
			models.ColMedium: "Digital", models.ColSingleInstrument: "Full Set",
		}),
		mkRow(4, map[string]string{
			models.ColProductID: "CB-1001-Oboe-H", models.ColProductTitle: "Canyon Sunrise - Oboe",
			models.ColMedium: "Hardcopy",
		}),
		mkRow(5, map[string]string{
			models.ColProductID: "CB-1001", models.ColProductTitle: "Canyon Sunrise",
			models.ColMedium: "Group",
		}),
		mkRow(6, map[string]string{
			models.ColProductID: "SQ-22-Violin-D", models.ColProductTitle: "Evening Air - Violin",
			models.ColMedium: "Digital",
		}),
	}

	families := BuildFamilies(rows)
	require.Len(t, families, 2)

	cb := families[0]
	assert.Equal(t, "CB-1001", cb.BaseSKU)
	require.NotNil(t, cb.GroupRow)
	assert.Equal(t, "CB-1001", cb.GroupRow.SKU())
	require.Contains(t, cb.FullSets, models.MediumDigital)
	require.NotNil(t, cb.BaseRow)
	assert.Equal(t, "CB-1001-Flute-D", cb.BaseRow.SKU())
	assert.Equal(t, []Member{{SKU: "CB-1001-Flute-D", Line: 2}}, cb.Members[models.MediumDigital])
	assert.Equal(t, []Member{{SKU: "CB-1001-Oboe-H", Line: 4}}, cb.Members[models.MediumHardcopy])

	assert.Equal(t, "SQ-22", families[1].BaseSKU)
	assert.Nil(t, families[1].GroupRow)
}

func TestBuildFamiliesBucketsBlankMediumBySKUSuffix(t *testing.T) {
	rows := []models.Row{
		mkRow(2, map[string]string{models.ColProductID: "CB-1001-Flute-D", models.ColProductTitle: "Flute"}),
		mkRow(3, map[string]string{models.ColProductID: "CB-1001-Flute-H", models.ColProductTitle: "Flute"}),
	}
	families := BuildFamilies(rows)
	require.Len(t, families, 1)
	assert.Equal(t, []Member{{SKU: "CB-1001-Flute-D", Line: 2}}, families[0].Members[models.MediumDigital])
	assert.Equal(t, []Member{{SKU: "CB-1001-Flute-H", Line: 3}}, families[0].Members[models.MediumHardcopy])
}

func TestBuildFamiliesLaterGroupRowWins(t *testing.T) {
	rows := []models.Row{
		mkRow(2, map[string]string{
			models.ColProductID: "CB-1001", models.ColProductTitle: "Old Title", models.ColMedium: "Group",
		}),
		mkRow(3, map[string]string{
			models.ColProductID: "CB-1001-G2", models.ColProductTitle: "New Title", models.ColMedium: "Group",
		}),
	}
	families := BuildFamilies(rows)
	require.Len(t, families, 1)
	assert.Equal(t, "New Title", families[0].GroupRow.Title())
}

func TestFilterImportable(t *testing.T) {
	member := []Member{{SKU: "A-1-Flute-D", Line: 2}}
	families := []Family{
		{BaseSKU: "A",
			FullSets: map[models.Medium]models.Row{models.MediumDigital: {}},
			Members:  map[models.Medium][]Member{models.MediumDigital: member}},
		{BaseSKU: "B", Members: map[models.Medium][]Member{models.MediumDigital: member}},
		// A digital full set with no scanned members synthesizes nothing.
		{BaseSKU: "C", FullSets: map[models.Medium]models.Row{models.MediumDigital: {}}},
		// A hardcopy full set with no members still imports (empty bundle
		// is flagged later, not dropped here).
		{BaseSKU: "D", FullSets: map[models.Medium]models.Row{models.MediumHardcopy: {}}},
		{BaseSKU: "E", GroupRow: &models.Row{}},
	}
	kept := FilterImportable(families)
	require.Len(t, kept, 2)
	assert.Equal(t, "A", kept[0].BaseSKU)
	assert.Equal(t, "D", kept[1].BaseSKU)
}

func TestFamilyDisplayTitle(t *testing.T) {
	group := mkRow(2, map[string]string{models.ColProductTitle: "Canyon Sunrise"})
	fullSet := mkRow(3, map[string]string{models.ColProductTitle: "Canyon Sunrise - Full Set - Digital"})

	withGroup := Family{BaseSKU: "CB-1001", GroupRow: &group}
	assert.Equal(t, "Canyon Sunrise", withGroup.DisplayTitle())

	fromFullSet := Family{
		BaseSKU:  "CB-1001",
		FullSets: map[models.Medium]models.Row{models.MediumDigital: fullSet},
	}
	assert.Equal(t, "Canyon Sunrise", fromFullSet.DisplayTitle())

	memberRow := mkRow(4, map[string]string{models.ColProductTitle: "Canyon Sunrise Hardcopy"})
	fromMember := Family{BaseSKU: "CB-1001", BaseRow: &memberRow}
	assert.Equal(t, "Canyon Sunrise", fromMember.DisplayTitle())

	bare := Family{BaseSKU: "CB-1001"}
	assert.Equal(t, "CB-1001", bare.DisplayTitle())
}

func TestFamilyBundleSKU(t *testing.T) {
	fullSet := mkRow(2, map[string]string{models.ColProductID: "CB-1001-Set-D"})
	fam := Family{
		BaseSKU:  "CB-1001",
		FullSets: map[models.Medium]models.Row{models.MediumDigital: fullSet},
	}
	assert.Equal(t, "CB-1001-Set-D", fam.BundleSKU(models.MediumDigital))
	assert.Equal(t, "CB-1001-SET-H", fam.BundleSKU(models.MediumHardcopy))
}
