// Package assets locates catalog media on disk and copies it into the
// serving trees. All filesystem access for the importer goes through
// Resolver, so the reconciliation logic stays pure.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Default extensions appended when a CSV filename carries none.
const (
	DefaultImageExt = ".jpg"
	DefaultFileExt  = ".pdf"
	DefaultSoundExt = ".mp3"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename normalizes a filename the way the media library
// stores uploads: spaces become hyphens, unsafe characters are dropped,
// repeated separators collapse.
func SanitizeFilename(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeFileChars.ReplaceAllString(s, "")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// Resolver finds source files under the configured asset directories
// using a tolerant match and copies them into the media and protected
// destination trees. Directory listings are cached per run; a Resolver
// is scoped to one import session.
type Resolver struct {
	ImageDir     string
	SoundDir     string
	FileDir      string
	MediaDest    string
	ProtectedDst string

	log *logrus.Entry

	mu       sync.Mutex
	listings map[string][]string
}

// NewResolver builds a resolver over the configured source and
// destination directories.
func NewResolver(imageDir, soundDir, fileDir, mediaDest, protectedDest string, log *logrus.Entry) *Resolver {
	return &Resolver{
		ImageDir:     imageDir,
		SoundDir:     soundDir,
		FileDir:      fileDir,
		MediaDest:    mediaDest,
		ProtectedDst: protectedDest,
		log:          log,
		listings:     make(map[string][]string),
	}
}

// Session returns a resolver over the same directories with a fresh
// listing cache. Each import phase call gets its own, so one session's
// directory scans never leak into another's.
func (r *Resolver) Session() *Resolver {
	return NewResolver(r.ImageDir, r.SoundDir, r.FileDir, r.MediaDest, r.ProtectedDst, r.log)
}

// variants returns the candidate filenames tried for a raw CSV value,
// in order of preference.
func variants(name string) []string {
	out := []string{name}
	seen := map[string]bool{name: true}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	add(SanitizeFilename(name))
	add(strings.ReplaceAll(name, " ", "-"))
	add(strings.ReplaceAll(name, " ", "_"))
	add(strings.ReplaceAll(name, " ", ""))
	return out
}

// ensureExt appends defaultExt when name has no extension.
func ensureExt(name, defaultExt string) string {
	if filepath.Ext(name) == "" {
		return name + defaultExt
	}
	return name
}

// listDir returns the cached entry names of a directory. Missing
// directories list as empty.
func (r *Resolver) listDir(dir string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if names, ok := r.listings[dir]; ok {
		return names
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.listings[dir] = nil
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	r.listings[dir] = names
	return names
}

// Resolve locates a file under dir. It tries each filename variant
// literally, then falls back to a case-insensitive scan of the
// directory listing. Returns the absolute path and whether it was found.
func (r *Resolver) Resolve(dir, filename, defaultExt string) (string, bool) {
	if filename == "" || dir == "" {
		return "", false
	}
	want := ensureExt(filename, defaultExt)
	for _, v := range variants(want) {
		p := filepath.Join(dir, v)
		if fileExists(p) {
			return p, true
		}
	}
	// Case-insensitive pass over the listing.
	for _, v := range variants(want) {
		lower := strings.ToLower(v)
		for _, name := range r.listDir(dir) {
			if strings.ToLower(name) == lower {
				return filepath.Join(dir, name), true
			}
		}
	}
	return "", false
}

// ResolveProtected locates a protected product file. Project subfolders
// whose names start with the family base SKU are searched before the
// flat file root, so a stale root copy cannot shadow the project file.
func (r *Resolver) ResolveProtected(baseSKU, filename string) (string, bool) {
	if baseSKU != "" {
		prefix := strings.ToLower(baseSKU)
		for _, name := range r.listDir(r.FileDir) {
			sub := filepath.Join(r.FileDir, name)
			if !dirExists(sub) || !strings.HasPrefix(strings.ToLower(name), prefix) {
				continue
			}
			if p, ok := r.Resolve(sub, filename, DefaultFileExt); ok {
				return p, true
			}
		}
	}
	return r.Resolve(r.FileDir, filename, DefaultFileExt)
}

// dedupPattern matches "name-3.ext" style suffixes produced by earlier
// copies of the same file.
var dedupSuffix = regexp.MustCompile(`^(.*)-\d+(\.[^.]+)$`)

// existingCopy looks for a previous copy of base in destDir, tolerating
// the "-N" suffix a collision rename would have produced.
func (r *Resolver) existingCopy(destDir, base string) (string, bool) {
	direct := filepath.Join(destDir, base)
	if fileExists(direct) {
		return direct, true
	}
	lower := strings.ToLower(base)
	for _, name := range r.listDir(destDir) {
		cand := strings.ToLower(name)
		if cand == lower {
			return filepath.Join(destDir, name), true
		}
		if m := dedupSuffix.FindStringSubmatch(cand); m != nil && m[1]+m[2] == lower {
			return filepath.Join(destDir, name), true
		}
	}
	return "", false
}

// copyInto places src into destDir under its sanitized name. A file
// already present under that name is reused as-is, so repeated imports
// do not duplicate media.
func (r *Resolver) copyInto(src, destDir string) (string, error) {
	base := SanitizeFilename(filepath.Base(src))
	if p, ok := r.existingCopy(destDir, base); ok {
		return p, nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}
	dest := filepath.Join(destDir, base)
	if err := fastCopy(src, dest); err != nil {
		return "", err
	}
	r.invalidate(destDir)
	return dest, nil
}

// ImportImage copies a cover image into the media destination.
func (r *Resolver) ImportImage(filename string) (string, bool, error) {
	src, ok := r.Resolve(r.ImageDir, filename, DefaultImageExt)
	if !ok {
		return "", false, nil
	}
	dest, err := r.copyInto(src, r.MediaDest)
	if err != nil {
		return "", true, err
	}
	return dest, true, nil
}

// ImportSounds copies each entry of a semicolon-separated filename list
// into the media destination. Missing files are returned by name so the
// caller can report them without aborting the row.
func (r *Resolver) ImportSounds(list string) (copied []string, missing []string, err error) {
	for _, raw := range strings.Split(list, ";") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		src, ok := r.Resolve(r.SoundDir, name, DefaultSoundExt)
		if !ok {
			missing = append(missing, name)
			continue
		}
		dest, cerr := r.copyInto(src, r.MediaDest)
		if cerr != nil {
			return copied, missing, cerr
		}
		copied = append(copied, dest)
	}
	return copied, missing, nil
}

// ImportProtected copies a protected product file into the protected
// destination, searching base-SKU project folders when needed.
func (r *Resolver) ImportProtected(baseSKU, filename string) (string, bool, error) {
	src, ok := r.ResolveProtected(baseSKU, filename)
	if !ok {
		return "", false, nil
	}
	dest, err := r.copyInto(src, r.ProtectedDst)
	if err != nil {
		return "", true, err
	}
	return dest, true, nil
}

func (r *Resolver) invalidate(dir string) {
	r.mu.Lock()
	delete(r.listings, dir)
	r.mu.Unlock()
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func dirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
