// Package inputfs enumerates the files handed to the sensor and the
// predicates used to select among them.
package inputfs

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Type distinguishes production sources from test sources.
type Type int

const (
	TypeMain Type = iota
	TypeTest
)

func (t Type) String() string {
	if t == TypeTest {
		return "test"
	}
	return "main"
}

// Language keys assigned by extension.
const (
	LanguageHTML = "html"
	LanguageJSP  = "jsp"
)

var languageByExt = map[string]string{
	"html":   LanguageHTML,
	"htm":    LanguageHTML,
	"xhtml":  LanguageHTML,
	"cshtml": LanguageHTML,
	"vbhtml": LanguageHTML,
	"aspx":   LanguageHTML,
	"ascx":   LanguageHTML,
	"rhtml":  LanguageHTML,
	"erb":    LanguageHTML,
	"shtm":   LanguageHTML,
	"shtml":  LanguageHTML,
	"cmp":    LanguageHTML,
	"twig":   LanguageHTML,
	"jsp":    LanguageJSP,
	"jspf":   LanguageJSP,
	"jspx":   LanguageJSP,
}

// LanguageOf returns the language key for a file name, or "" when the
// extension belongs to no known language.
func LanguageOf(name string) string {
	return languageByExt[extension(name)]
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// InputFile is one file to analyze.
type InputFile struct {
	Path     string
	Language string
	Type     Type
}

// NewInputFile builds a main file with its language derived from path.
func NewInputFile(path string) InputFile {
	return InputFile{Path: path, Language: LanguageOf(path), Type: TypeMain}
}

// Filename returns the base name of the file.
func (f InputFile) Filename() string {
	return filepath.Base(f.Path)
}

// Extension returns the lowercased extension without its dot.
func (f InputFile) Extension() string {
	return extension(f.Path)
}

// Open opens the file for reading.
func (f InputFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f InputFile) String() string {
	return f.Path
}

// Predicate selects input files.
type Predicate func(InputFile) bool

// All matches every file.
func All() Predicate {
	return func(InputFile) bool { return true }
}

// HasType matches files of type t.
func HasType(t Type) Predicate {
	return func(f InputFile) bool { return f.Type == t }
}

// HasLanguages matches files whose language is one of langs.
func HasLanguages(langs ...string) Predicate {
	return func(f InputFile) bool {
		for _, l := range langs {
			if f.Language == l {
				return true
			}
		}
		return false
	}
}

// HasExtension matches files with the given extension, compared without
// case and with or without a leading dot.
func HasExtension(ext string) Predicate {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return func(f InputFile) bool { return f.Extension() == ext }
}

// And matches when every predicate matches.
func And(ps ...Predicate) Predicate {
	return func(f InputFile) bool {
		for _, p := range ps {
			if !p(f) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches. An empty Or matches nothing.
func Or(ps ...Predicate) Predicate {
	return func(f InputFile) bool {
		for _, p := range ps {
			if p(f) {
				return true
			}
		}
		return false
	}
}

// FileSystem lists the files available for analysis.
type FileSystem interface {
	InputFiles(pred Predicate) ([]InputFile, error)
}

// Files is a fixed list of input files.
type Files []InputFile

// InputFiles returns the files matching pred, in list order.
func (fs Files) InputFiles(pred Predicate) ([]InputFile, error) {
	var out []InputFile
	for _, f := range fs {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out, nil
}
