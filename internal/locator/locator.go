// Package locator resolves module identifiers to documentation source files
// under an ordered list of search roots. Roots are passed at construction;
// nothing is read from process-wide state at lookup time.
package locator

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docbrowse/internal/modpath"
)

// ErrNotFound is returned when no search root contains documentation for the
// requested module. An unreadable file is reported the same way; callers
// cannot meaningfully distinguish absent from inaccessible.
var ErrNotFound = errors.New("module documentation not found")

// DefaultExtensions are the candidate file extensions, tried in order.
var DefaultExtensions = []string{".md", ".markdown"}

// Locator searches a fixed, ordered set of filesystem roots.
type Locator struct {
	roots      []string
	extensions []string
}

// New builds a Locator over the given roots. Extensions may be nil, in which
// case DefaultExtensions apply.
func New(roots []string, extensions []string) *Locator {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Locator{roots: roots, extensions: extensions}
}

// Roots returns the configured search roots in order.
func (l *Locator) Roots() []string {
	out := make([]string, len(l.roots))
	copy(out, l.roots)
	return out
}

// Locate returns the path of the first documentation file found for the
// module, trying roots then extensions in configured order. Returns
// ErrNotFound when nothing matches.
func (l *Locator) Locate(id modpath.Identifier) (string, error) {
	rel := filepath.FromSlash(id.Path())
	for _, root := range l.roots {
		for _, ext := range l.extensions {
			candidate := filepath.Join(root, rel+ext)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
	}
	return "", ErrNotFound
}

// Read locates the module and returns the file content. Read failures map to
// ErrNotFound so the caller's redirect behavior is uniform.
func (l *Locator) Read(id modpath.Identifier) ([]byte, error) {
	path, err := l.Locate(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrNotFound
	}
	return data, nil
}

// List walks all roots and returns every module identifier that has a
// documentation file, deduplicated (first root wins) but otherwise unordered.
// Unreadable directories are skipped rather than failing the walk.
func (l *Locator) List() []modpath.Identifier {
	seen := make(map[string]struct{})
	var out []modpath.Identifier

	for _, root := range l.roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			ext := filepath.Ext(path)
			if !l.knownExtension(ext) {
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return nil
			}
			rel = strings.TrimSuffix(rel, ext)
			id, idErr := modpath.FromPath(filepath.ToSlash(rel))
			if idErr != nil {
				return nil
			}
			if _, dup := seen[id.Canonical()]; dup {
				return nil
			}
			seen[id.Canonical()] = struct{}{}
			out = append(out, id)
			return nil
		})
	}
	return out
}

func (l *Locator) knownExtension(ext string) bool {
	for _, e := range l.extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
