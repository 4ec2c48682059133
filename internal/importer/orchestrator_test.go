package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/models"
)

const catalogCSV = `Product ID,Product Title,Price,Digital/Hardcopy/Group,Single Instrument
CB-1001-Flute-D,Canyon Sunrise - Flute,12.50,Digital,
CB-1001-Oboe-D,Canyon Sunrise - Oboe,12.50,Digital,
CB-1001-Set-D,Canyon Sunrise - Full Set,45.00,Digital,Full Set
CB-1001-Flute-H,Canyon Sunrise - Flute,15.00,Hardcopy,
CB-1001,Canyon Sunrise,0,Group,
SQ-22-Violin-D,Evening Air - Violin,9.00,Digital,
`

func newTestOrchestrator(t *testing.T) (*Orchestrator, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	o := NewOrchestrator(env.catalog, env.resolver, env.workDir, testLog())
	return o, env
}

func runSession(t *testing.T, o *Orchestrator, csv string, chunkSize int) (models.PhaseResult, models.FinalizeResult) {
	t.Helper()
	ctx := context.Background()

	start, err := o.StartImport(ctx, strings.NewReader(csv))
	require.NoError(t, err)

	var total models.PhaseResult
	for offset := 0; ; {
		chunk, err := o.ProcessChunk(ctx, start.SessionToken, offset, chunkSize, true)
		require.NoError(t, err)
		require.Equal(t, start.TotalRows, chunk.Total)
		total.Merge(chunk.PhaseResult)
		offset += chunk.Processed
		if chunk.Done {
			require.Equal(t, start.TotalRows, offset, "chunks must cover every row exactly once")
			break
		}
	}

	fin, err := o.Finalize(ctx, start.SessionToken)
	require.NoError(t, err)
	total.Merge(fin.PhaseResult)

	if fin.BundleToken != "" {
		for offset := 0; ; {
			chunk, err := o.ProcessBundleChunk(ctx, fin.BundleToken, offset, chunkSize)
			require.NoError(t, err)
			total.Merge(chunk.PhaseResult)
			offset += chunk.Processed
			if chunk.Done {
				break
			}
		}
	}
	return total, fin
}

func TestImportSessionEndToEnd(t *testing.T) {
	o, env := newTestOrchestrator(t)

	total, fin := runSession(t, o, catalogCSV, 2)

	// Four simple parts; the full-set and group rows synthesize instead.
	assert.Equal(t, 4, total.Counts.Imported)
	assert.Equal(t, 2, total.Counts.Skipped)
	assert.Equal(t, 0, total.Counts.Failed)
	// SQ-22 has parts but no aggregate row, so only CB-1001 survives
	// the importable filter.
	assert.Equal(t, 1, fin.FamilyCount)

	// CB-1001 digital bundle, lazy hardcopy bundle, grouped container.
	assert.Equal(t, 2, total.Counts.BundlesCreated)
	assert.Equal(t, 1, total.Counts.GroupedCreated)

	bundle := env.catalog.bySKU("CB-1001-Set-D")
	require.NotNil(t, bundle)
	assert.Equal(t, "Canyon Sunrise", bundle.Name)
	require.Len(t, env.catalog.members[bundle.ID], 2)

	grouped := env.catalog.bySKU("CB-1001")
	require.NotNil(t, grouped)
	require.Len(t, env.catalog.children[grouped.ID], 2)

	// SQ-22 has no full set and no group row: simple only, no bundle.
	assert.NotNil(t, env.catalog.bySKU("SQ-22-Violin-D"))
	sq, err := env.catalog.FindBundleByBaseSKU(context.Background(), "SQ-22", true)
	require.NoError(t, err)
	assert.Nil(t, sq)
}

func TestImportSessionRerunConverges(t *testing.T) {
	o, env := newTestOrchestrator(t)

	runSession(t, o, catalogCSV, 3)
	creates := env.catalog.creates

	total, _ := runSession(t, o, catalogCSV, 3)
	assert.Equal(t, 0, total.Counts.Imported)
	assert.Equal(t, 4, total.Counts.Updated)
	assert.Equal(t, 0, total.Counts.BundlesCreated)
	assert.Equal(t, 0, total.Counts.GroupedCreated)
	assert.Equal(t, creates, env.catalog.creates)
}

func TestProcessChunkClampsSize(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	start, err := o.StartImport(ctx, strings.NewReader(catalogCSV))
	require.NoError(t, err)

	// Zero size falls back to the default chunk size.
	chunk, err := o.ProcessChunk(ctx, start.SessionToken, 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, start.TotalRows, chunk.Processed)

	chunk, err = o.ProcessChunk(ctx, start.SessionToken, 0, o.MaxChunkSize+50, false)
	require.NoError(t, err)
	assert.True(t, chunk.Done)
}

func TestSessionTokenValidation(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.ProcessChunk(ctx, "not-a-token", 0, 10, false)
	assert.Error(t, err)

	_, err = o.ProcessChunk(ctx, "0b39cf2e-5b0c-4a0e-8f6d-111111111111", 0, 10, false)
	assert.Error(t, err, "unknown token must not resolve")

	_, err = o.ProcessBundleChunk(ctx, "../../etc/passwd", 0, 10)
	assert.Error(t, err)
}

func TestFinalizeReleasesSession(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	start, err := o.StartImport(ctx, strings.NewReader(catalogCSV))
	require.NoError(t, err)
	_, err = o.Finalize(ctx, start.SessionToken)
	require.NoError(t, err)

	_, err = o.ProcessChunk(ctx, start.SessionToken, 0, 10, false)
	assert.Error(t, err, "staged csv is gone after finalize")
}

func TestSessionsDoNotShareResolverState(t *testing.T) {
	o, env := newTestOrchestrator(t)
	ctx := context.Background()

	// The case-variant name forces the directory-listing scan, which is
	// what each session caches.
	csv := "Product ID,Product Title,Digital/Hardcopy/Group,Image File Name\n" +
		"CB-1001-Flute-D,Canyon Sunrise - Flute,Digital,COVER.jpg\n"

	start, err := o.StartImport(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	chunk, err := o.ProcessChunk(ctx, start.SessionToken, 0, 10, true)
	require.NoError(t, err)
	require.Len(t, chunk.AssetNotFound, 1)

	// The image lands after the first session scanned the directory; a
	// later session gets a fresh listing cache and must find it.
	env.touchAsset(t, "images", "cover.jpg")

	start2, err := o.StartImport(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	chunk, err = o.ProcessChunk(ctx, start2.SessionToken, 0, 10, true)
	require.NoError(t, err)
	assert.Empty(t, chunk.AssetNotFound)
}

func TestStartImportRejectsEmpty(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	_, err := o.StartImport(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}
