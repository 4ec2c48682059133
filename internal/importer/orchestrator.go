package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-import-service/internal/assets"
	"catalog-import-service/internal/csvtable"
	"catalog-import-service/internal/models"
)

// Orchestrator drives an import session through its phases. Uploaded
// CSVs and computed family sets are staged as files in the work
// directory, keyed by opaque session tokens, so each phase call is
// stateless and chunks can arrive across separate requests.
type Orchestrator struct {
	catalog  Catalog
	resolver *assets.Resolver
	workDir  string
	log      *logrus.Entry

	DefaultChunkSize int
	MaxChunkSize     int
}

// NewOrchestrator wires an orchestrator over a catalog, asset resolver,
// and staging work directory.
func NewOrchestrator(catalog Catalog, resolver *assets.Resolver, workDir string, log *logrus.Entry) *Orchestrator {
	return &Orchestrator{
		catalog:          catalog,
		resolver:         resolver,
		workDir:          workDir,
		log:              log,
		DefaultChunkSize: 20,
		MaxChunkSize:     100,
	}
}

// session builds the per-call import machinery. The resolver's listing
// cache and the diagnostics collector live for one phase call only, so
// independent sessions share nothing but the catalog.
func (o *Orchestrator) session() (*RowImporter, *Reconciler, *assets.Diagnostics) {
	diag := &assets.Diagnostics{}
	rows := NewRowImporter(o.catalog, o.resolver.Session(), diag, o.log)
	return rows, NewReconciler(o.catalog, rows, o.log), diag
}

// StartImport stages an uploaded CSV and reports its row count. The
// returned session token names the staged copy for the chunk phases.
func (o *Orchestrator) StartImport(ctx context.Context, r io.Reader) (models.StartResult, error) {
	if err := os.MkdirAll(o.workDir, 0o755); err != nil {
		return models.StartResult{}, fmt.Errorf("failed to create work directory: %w", err)
	}
	token := uuid.New().String()
	path := o.csvPath(token)

	f, err := os.Create(path)
	if err != nil {
		return models.StartResult{}, fmt.Errorf("failed to stage csv: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return models.StartResult{}, fmt.Errorf("failed to stage csv: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return models.StartResult{}, fmt.Errorf("failed to stage csv: %w", err)
	}

	table, err := o.loadTable(token)
	if err != nil {
		os.Remove(path)
		return models.StartResult{}, err
	}
	o.log.WithFields(logrus.Fields{
		"session": token,
		"rows":    table.Len(),
	}).Info("Import session started")
	return models.StartResult{SessionToken: token, TotalRows: table.Len()}, nil
}

// ProcessChunk imports rows [offset, offset+size) of a staged CSV as
// simple products. The CSV is streamed, so only the chunk itself is
// held in memory.
func (o *Orchestrator) ProcessChunk(ctx context.Context, token string, offset, size int, updateExisting bool) (models.ChunkResult, error) {
	if err := validToken(token); err != nil {
		return models.ChunkResult{}, err
	}
	f, err := os.Open(o.csvPath(token))
	if err != nil {
		return models.ChunkResult{}, fmt.Errorf("unknown or expired session token")
	}
	defer f.Close()

	size = o.clampChunk(size)
	if offset < 0 {
		offset = 0
	}
	rows, total, err := csvtable.ParseSlice(f, offset, size, o.log)
	if err != nil {
		return models.ChunkResult{}, err
	}
	ri, _, diag := o.session()

	var result models.ChunkResult
	for _, row := range rows {
		outcome, rowErr, err := ri.ImportRow(ctx, row, updateExisting)
		result.Processed++
		if err != nil {
			// Row-fatal failures are recorded and the loop continues;
			// only session problems abort a chunk.
			result.Counts.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{
				Row: row.Line, Code: "ROW_FAILED", Message: err.Error(),
			})
			continue
		}
		switch {
		case rowErr != nil:
			result.Counts.Failed++
			result.Errors = append(result.Errors, *rowErr)
		case outcome == RowCreated:
			result.Counts.Imported++
		case outcome == RowUpdated:
			result.Counts.Updated++
		default:
			result.Counts.Skipped++
		}
	}
	result.AssetNotFound = diag.Drain()
	result.Total = total
	result.Done = offset+result.Processed >= total
	return result, nil
}

// Finalize scans the whole staged CSV, computes the family set, and
// stages it for chunked bundle processing. The staged CSV is released.
func (o *Orchestrator) Finalize(ctx context.Context, token string) (models.FinalizeResult, error) {
	table, err := o.loadTable(token)
	if err != nil {
		return models.FinalizeResult{}, err
	}

	families := FilterImportable(BuildFamilies(table.Rows))
	var result models.FinalizeResult
	result.FamilyCount = len(families)

	if len(families) > 0 {
		data, err := json.Marshal(families)
		if err != nil {
			return result, fmt.Errorf("failed to encode family set: %w", err)
		}
		bundleToken := uuid.New().String()
		if err := os.WriteFile(o.familiesPath(bundleToken), data, 0o644); err != nil {
			return result, fmt.Errorf("failed to stage family set: %w", err)
		}
		result.BundleToken = bundleToken
	}

	os.Remove(o.csvPath(token))
	o.log.WithFields(logrus.Fields{
		"session":  token,
		"families": len(families),
	}).Info("Import session finalized")
	return result, nil
}

// ProcessBundleChunk reconciles families [offset, offset+size) of a
// staged family set. The staged set is released after the last chunk.
func (o *Orchestrator) ProcessBundleChunk(ctx context.Context, bundleToken string, offset, size int) (models.ChunkResult, error) {
	families, err := o.loadFamilies(bundleToken)
	if err != nil {
		return models.ChunkResult{}, err
	}
	size = o.clampChunk(size)

	end := offset + size
	if offset < 0 || offset > len(families) {
		offset, end = len(families), len(families)
	} else if end > len(families) {
		end = len(families)
	}

	_, rec, diag := o.session()

	var result models.ChunkResult
	for _, fam := range families[offset:end] {
		phase, err := rec.ReconcileFamily(ctx, fam)
		result.Merge(phase)
		result.Processed++
		if err != nil {
			// Family-fatal: record and move on to the next family.
			result.Counts.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{
				Code:    "FAMILY_FAILED",
				Message: fmt.Sprintf("family %s: %v", fam.BaseSKU, err),
			})
		}
	}
	result.AssetNotFound = append(result.AssetNotFound, diag.Drain()...)
	result.Total = len(families)
	result.Done = offset+result.Processed >= len(families)
	if result.Done {
		os.Remove(o.familiesPath(bundleToken))
	}
	return result, nil
}

func (o *Orchestrator) clampChunk(size int) int {
	if size <= 0 {
		return o.DefaultChunkSize
	}
	if size > o.MaxChunkSize {
		return o.MaxChunkSize
	}
	return size
}

// csvPath maps a session token to its staged CSV. Tokens must be UUIDs,
// which also keeps path traversal out of the work directory.
func (o *Orchestrator) csvPath(token string) string {
	return filepath.Join(o.workDir, token+".csv")
}

func (o *Orchestrator) familiesPath(token string) string {
	return filepath.Join(o.workDir, token+".families.json")
}

func validToken(token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return fmt.Errorf("invalid session token")
	}
	return nil
}

func (o *Orchestrator) loadTable(token string) (*csvtable.Table, error) {
	if err := validToken(token); err != nil {
		return nil, err
	}
	f, err := os.Open(o.csvPath(token))
	if err != nil {
		return nil, fmt.Errorf("unknown or expired session token")
	}
	defer f.Close()
	return csvtable.Parse(f, o.log)
}

func (o *Orchestrator) loadFamilies(token string) ([]Family, error) {
	if err := validToken(token); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(o.familiesPath(token))
	if err != nil {
		return nil, fmt.Errorf("unknown or expired bundle token")
	}
	var families []Family
	if err := json.Unmarshal(data, &families); err != nil {
		return nil, fmt.Errorf("failed to decode family set: %w", err)
	}
	return families, nil
}
