package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	root := t.TempDir()
	dirs := []string{"images", "sounds", "files", "media", "protected"}
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return NewResolver(
		filepath.Join(root, "images"),
		filepath.Join(root, "sounds"),
		filepath.Join(root, "files"),
		filepath.Join(root, "media"),
		filepath.Join(root, "protected"),
		logrus.NewEntry(l),
	)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Canyon-Sunrise.jpg", SanitizeFilename("Canyon Sunrise.jpg"))
	assert.Equal(t, "a-b.pdf", SanitizeFilename("a   &  b.pdf"))
	assert.Equal(t, "score.mp3", SanitizeFilename(" score.mp3 "))
}

func TestResolveLiteral(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.ImageDir, "cover.jpg"))

	p, ok := r.Resolve(r.ImageDir, "cover.jpg", DefaultImageExt)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(r.ImageDir, "cover.jpg"), p)
}

func TestResolveDefaultExtension(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.ImageDir, "cover.jpg"))

	_, ok := r.Resolve(r.ImageDir, "cover", DefaultImageExt)
	assert.True(t, ok)
}

func TestResolveSpaceVariants(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.ImageDir, "canyon-sunrise.jpg"))
	touch(t, filepath.Join(r.ImageDir, "canyon_dusk.jpg"))
	touch(t, filepath.Join(r.ImageDir, "canyonnight.jpg"))

	_, ok := r.Resolve(r.ImageDir, "canyon sunrise.jpg", DefaultImageExt)
	assert.True(t, ok, "space to hyphen")
	_, ok = r.Resolve(r.ImageDir, "canyon dusk.jpg", DefaultImageExt)
	assert.True(t, ok, "space to underscore")
	_, ok = r.Resolve(r.ImageDir, "canyon night.jpg", DefaultImageExt)
	assert.True(t, ok, "space removed")
}

func TestResolveCaseInsensitive(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.ImageDir, "Canyon-Sunrise.JPG"))

	p, ok := r.Resolve(r.ImageDir, "canyon-sunrise.jpg", DefaultImageExt)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(r.ImageDir, "Canyon-Sunrise.JPG"), p)
}

func TestResolveMissing(t *testing.T) {
	r := newTestResolver(t)
	_, ok := r.Resolve(r.ImageDir, "nope.jpg", DefaultImageExt)
	assert.False(t, ok)
}

func TestResolveProtectedProjectFolder(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.FileDir, "CB-1001 Canyon Sunrise", "CB-1001-Flute.pdf"))

	p, ok := r.ResolveProtected("CB-1001", "CB-1001-Flute.pdf")
	require.True(t, ok)
	assert.Contains(t, p, "CB-1001 Canyon Sunrise")

	// A folder for a different base must not match.
	_, ok = r.ResolveProtected("CB-2002", "CB-1001-Flute.pdf")
	assert.False(t, ok)
}

func TestResolveProtectedPrefersProjectFolderOverRoot(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.FileDir, "part.pdf"))
	touch(t, filepath.Join(r.FileDir, "CB-1001 Canyon Sunrise", "part.pdf"))

	p, ok := r.ResolveProtected("CB-1001", "part.pdf")
	require.True(t, ok)
	assert.Contains(t, p, "CB-1001 Canyon Sunrise")

	// Without a project folder hit, the flat root still serves.
	p, ok = r.ResolveProtected("SQ-22", "part.pdf")
	require.True(t, ok)
	assert.NotContains(t, p, "CB-1001 Canyon Sunrise")
}

func TestImportImageCopiesOnce(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.ImageDir, "cover.jpg"))

	dest, found, err := r.ImportImage("cover.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.FileExists(t, dest)

	// Second import reuses the existing copy.
	dest2, found, err := r.ImportImage("cover.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, dest, dest2)

	entries, err := os.ReadDir(r.MediaDest)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImportImageReusesSuffixedCopy(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.ImageDir, "cover.jpg"))
	// Simulate an earlier collision rename in the media tree.
	touch(t, filepath.Join(r.MediaDest, "cover-2.jpg"))

	dest, found, err := r.ImportImage("cover.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, filepath.Join(r.MediaDest, "cover-2.jpg"), dest)
}

func TestImportSounds(t *testing.T) {
	r := newTestResolver(t)
	touch(t, filepath.Join(r.SoundDir, "one.mp3"))
	touch(t, filepath.Join(r.SoundDir, "two.mp3"))

	copied, missing, err := r.ImportSounds("one.mp3; two.mp3 ;three.mp3;")
	require.NoError(t, err)
	assert.Len(t, copied, 2)
	assert.Equal(t, []string{"three.mp3"}, missing)
}

func TestImportImageNotFound(t *testing.T) {
	r := newTestResolver(t)
	_, found, err := r.ImportImage("ghost.jpg")
	require.NoError(t, err)
	assert.False(t, found)
}
