package importer

import (
	"regexp"
	"strings"

	"catalog-import-service/internal/models"
)

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9-]+`)
	slugCollapse = regexp.MustCompile(`-{2,}`)

	fullSetSuffix = regexp.MustCompile(`(?i)\s*[-–—]?\s*full\s+set\s*$`)
	mediumSuffix  = regexp.MustCompile(`(?i)\s*[-–—]?\s*(digital|hardcopy|hardcover)\s*$`)
)

// Slugify converts a title to a URL slug: lowercase, hyphen-separated,
// ASCII-safe.
func Slugify(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = strings.ReplaceAll(out, " ", "-")
	out = strings.ReplaceAll(out, "_", "-")
	out = slugStrip.ReplaceAllString(out, "")
	out = slugCollapse.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// MediumSlugSuffix returns the slug discriminator for a medium, so the
// digital and hardcopy renditions of the same title get distinct slugs.
func MediumSlugSuffix(m models.Medium) string {
	if m == models.MediumHardcopy {
		return "-h"
	}
	return "-d"
}

// StripFullSet removes a trailing "Full Set" marker from a title.
// Bundle titles come from full-set rows, but the bundle already is the
// full set.
func StripFullSet(title string) string {
	return strings.TrimSpace(fullSetSuffix.ReplaceAllString(title, ""))
}

// StripMediumSuffixes removes trailing Full Set / Digital / Hardcopy
// markers, yielding the family display title used by grouped containers.
func StripMediumSuffixes(title string) string {
	out := strings.TrimSpace(title)
	for {
		next := fullSetSuffix.ReplaceAllString(out, "")
		next = mediumSuffix.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == out {
			return out
		}
		out = next
	}
}
