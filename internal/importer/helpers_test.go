package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"catalog-import-service/internal/assets"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

type testEnv struct {
	catalog  *fakeCatalog
	resolver *assets.Resolver
	diag     *assets.Diagnostics
	rows     *RowImporter
	rec      *Reconciler
	workDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"images", "sounds", "files", "media", "protected", "work"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	log := testLog()
	resolver := assets.NewResolver(
		filepath.Join(root, "images"),
		filepath.Join(root, "sounds"),
		filepath.Join(root, "files"),
		filepath.Join(root, "media"),
		filepath.Join(root, "protected"),
		log,
	)
	catalog := newFakeCatalog()
	diag := &assets.Diagnostics{}
	rows := NewRowImporter(catalog, resolver, diag, log)
	return &testEnv{
		catalog:  catalog,
		resolver: resolver,
		diag:     diag,
		rows:     rows,
		rec:      NewReconciler(catalog, rows, log),
		workDir:  filepath.Join(root, "work"),
	}
}

func (e *testEnv) touchAsset(t *testing.T, parts ...string) {
	t.Helper()
	base := map[string]string{
		"images": e.resolver.ImageDir,
		"sounds": e.resolver.SoundDir,
		"files":  e.resolver.FileDir,
	}[parts[0]]
	path := filepath.Join(append([]string{base}, parts[1:]...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}
