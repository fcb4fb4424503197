package inputfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/ecohtml/internal/errors"
)

// Dir walks a set of root paths on disk. Roots may be directories or
// single files; a file root is always included, even when excluded by
// pattern.
type Dir struct {
	Roots []string
	// Exclude patterns are matched against each base name and each
	// slash-separated path relative to its root.
	Exclude []string
	// TestPatterns mark a file as TypeTest when its base name matches.
	TestPatterns []string
}

// InputFiles walks every root in order and returns the files matching
// pred. Hidden directories are skipped. A path reached from two roots is
// listed once.
func (d Dir) InputFiles(pred Predicate) ([]InputFile, error) {
	var out []InputFile
	seen := make(map[string]bool)

	add := func(path string) {
		clean := filepath.Clean(path)
		if seen[clean] {
			return
		}
		seen[clean] = true
		f := InputFile{Path: clean, Language: LanguageOf(clean), Type: d.typeOf(clean)}
		if pred(f) {
			out = append(out, f)
		}
	}

	for _, root := range d.Roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeFileNotFound, root)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, d.walkFunc(root, add))
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, root)
		}
	}

	return out, nil
}

// walkFunc visits the entries under root, handing each included regular
// file to add. An unreadable entry below root is skipped so that the rest
// of the tree is still listed; an unreadable root fails the walk.
func (d Dir) walkFunc(root string, add func(path string)) fs.WalkDirFunc {
	return func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		excluded := d.excluded(entry.Name(), filepath.ToSlash(rel))

		if entry.IsDir() {
			if excluded || strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded || !entry.Type().IsRegular() {
			return nil
		}

		add(path)
		return nil
	}
}

func (d Dir) excluded(base, rel string) bool {
	for _, pattern := range d.Exclude {
		if match(pattern, base) || match(pattern, rel) {
			return true
		}
	}
	return false
}

func (d Dir) typeOf(path string) Type {
	base := filepath.Base(path)
	for _, pattern := range d.TestPatterns {
		if match(pattern, base) {
			return TypeTest
		}
	}
	return TypeMain
}

func match(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
