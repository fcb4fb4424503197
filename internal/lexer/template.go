package lexer

import (
	"bytes"
	"io"

	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/tree"
)

// Delimiters bound one template interpolation region.
type Delimiters struct {
	Open  string
	Close string
}

// DefaultDelimiters are the mustache delimiters used by Vue templates.
var DefaultDelimiters = []Delimiters{{Open: "{{", Close: "}}"}}

// TemplateLexer lexes markup with embedded template syntax. Interpolation
// regions are opaque: markup characters inside them never open tags or
// end attribute values, and their text reaches the tree unchanged.
type TemplateLexer struct {
	delims []Delimiters
}

// NewTemplateLexer creates a template lexer. With no delimiters given it
// uses DefaultDelimiters.
func NewTemplateLexer(delims ...Delimiters) *TemplateLexer {
	if len(delims) == 0 {
		delims = DefaultDelimiters
	}
	return &TemplateLexer{delims: delims}
}

// Parse reads r fully and builds the document tree.
func (l *TemplateLexer) Parse(r io.Reader) (*tree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeReadFailed, "cannot read document", err)
	}
	return build(src, l.mask(src)), nil
}

// mask returns a copy of src where every complete interpolation region is
// overwritten with filler of the same length. Newlines are kept so line
// numbers do not move. An opening delimiter without a matching close is
// left as is.
func (l *TemplateLexer) mask(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	i := 0
	for i < len(src) {
		open, d := l.nextOpen(src, i)
		if open < 0 {
			break
		}
		rel := bytes.Index(src[open+len(d.Open):], []byte(d.Close))
		if rel < 0 {
			break
		}
		end := open + len(d.Open) + rel + len(d.Close)
		for k := open; k < end; k++ {
			if src[k] != '\n' && src[k] != '\r' {
				out[k] = '_'
			}
		}
		i = end
	}
	return out
}

// nextOpen finds the earliest opening delimiter at or after from.
func (l *TemplateLexer) nextOpen(src []byte, from int) (int, Delimiters) {
	best := -1
	var found Delimiters
	for _, d := range l.delims {
		if d.Open == "" || d.Close == "" {
			continue
		}
		idx := bytes.Index(src[from:], []byte(d.Open))
		if idx >= 0 && (best < 0 || from+idx < best) {
			best = from + idx
			found = d
		}
	}
	return best, found
}
