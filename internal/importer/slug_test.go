package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog-import-service/internal/models"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "canyon-sunrise", Slugify("Canyon Sunrise"))
	assert.Equal(t, "canyon-sunrise-flute", Slugify("Canyon Sunrise - Flute"))
	assert.Equal(t, "rondo-no-3", Slugify("  Rondo  No. 3 "))
}

func TestMediumSlugSuffix(t *testing.T) {
	assert.Equal(t, "-d", MediumSlugSuffix(models.MediumDigital))
	assert.Equal(t, "-h", MediumSlugSuffix(models.MediumHardcopy))
}

func TestStripFullSet(t *testing.T) {
	assert.Equal(t, "Canyon Sunrise", StripFullSet("Canyon Sunrise - Full Set"))
	assert.Equal(t, "Canyon Sunrise", StripFullSet("Canyon Sunrise Full Set"))
	assert.Equal(t, "Canyon Sunrise", StripFullSet("Canyon Sunrise - full set "))
	assert.Equal(t, "Full Set of Tunes", StripFullSet("Full Set of Tunes"))
}

func TestStripMediumSuffixes(t *testing.T) {
	assert.Equal(t, "Canyon Sunrise", StripMediumSuffixes("Canyon Sunrise - Full Set - Digital"))
	assert.Equal(t, "Canyon Sunrise", StripMediumSuffixes("Canyon Sunrise - Hardcopy"))
	assert.Equal(t, "Canyon Sunrise", StripMediumSuffixes("Canyon Sunrise Hardcover"))
	assert.Equal(t, "Canyon Sunrise", StripMediumSuffixes("Canyon Sunrise - Digital Full Set"))
}
