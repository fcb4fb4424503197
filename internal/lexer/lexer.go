// Package lexer turns raw markup into a tree.Document.
//
// Tokenizing is delegated to golang.org/x/net/html's Tokenizer rather than
// html.Parse: the parser rewrites the document (inserting html/head/body,
// reparenting misnested tags) and drops source positions, while the
// tokenizer hands back the raw bytes of every token so each node can be
// placed at its original line and column.
//
// Both lexers are error tolerant. Unclosed elements are closed at end of
// input, a start tag cut off by end of input still yields its element,
// stray end tags are dropped and nothing short of a read failure makes
// Parse return an error.
package lexer

import (
	"bufio"
	"bytes"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/tree"
)

// Lexer parses one document.
type Lexer interface {
	Parse(r io.Reader) (*tree.Document, error)
}

// ForFile picks the lexer for a file name: Vue single-file components get
// the template-tolerant lexer, everything else the page lexer.
func ForFile(name string) Lexer {
	if strings.EqualFold(filepath.Ext(name), ".vue") {
		return NewTemplateLexer()
	}
	return NewPageLexer()
}

// Decode returns a reader producing UTF-8 from r, detecting the encoding
// from a BOM, the contentType hint or a <meta charset> in the first
// kilobyte. An empty input decodes to an empty reader.
func Decode(r io.Reader, contentType string) (io.Reader, error) {
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err == io.EOF {
		return br, nil
	}
	decoded, err := charset.NewReader(br, contentType)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeDecodeFailed, "cannot decode file content", err)
	}
	return decoded, nil
}

// PageLexer lexes plain HTML, JSP and PHP pages.
type PageLexer struct{}

// NewPageLexer creates a page lexer.
func NewPageLexer() *PageLexer {
	return &PageLexer{}
}

// Parse reads r fully and builds the document tree.
func (l *PageLexer) Parse(r io.Reader) (*tree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeReadFailed, "cannot read document", err)
	}
	return build(src, src), nil
}

// voidElements never have content, even without a trailing slash.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// lineIndex maps byte offsets to 1-based positions.
type lineIndex struct {
	src    []byte
	starts []int
}

func newLineIndex(src []byte) *lineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, starts: starts}
}

func (li *lineIndex) pos(off int) tree.Position {
	if off > len(li.src) {
		off = len(li.src)
	}
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > off }) - 1
	return tree.Position{
		Line:   i + 1,
		Column: utf8.RuneCount(li.src[li.starts[i]:off]) + 1,
	}
}

func (li *lineIndex) rng(start, end int) tree.Range {
	return tree.Range{Start: li.pos(start), End: li.pos(end)}
}

// build tokenizes masked and builds the tree with text taken from src.
// Both slices have the same length; masked may differ from src only where
// template regions were blanked out.
func build(src, masked []byte) *tree.Document {
	doc := tree.NewDocument()
	lines := newLineIndex(src)
	z := html.NewTokenizer(bytes.NewReader(masked))

	var stack []tree.NodeID
	parent := func() tree.NodeID {
		if len(stack) == 0 {
			return tree.NoParent
		}
		return stack[len(stack)-1]
	}

	off := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// A start tag cut off by end of input is still an element.
			if z.Err() == io.EOF && isTagOpen(masked[off:]) {
				if n, ok := danglingStartTag(src, masked, off, lines); ok {
					doc.Append(parent(), n)
				}
			}
			break
		}
		raw := z.Raw()
		start, end := off, off+len(raw)
		off = end

		switch tt {
		case html.TextToken:
			doc.Append(parent(), tree.Node{
				Kind:  tree.KindText,
				Data:  string(src[start:end]),
				Range: lines.rng(start, end),
			})

		case html.CommentToken:
			kind := tree.KindComment
			if !bytes.HasPrefix(masked[start:end], []byte("<!--")) {
				// <?php ?>, <![CDATA[ ]]> and other bogus comments
				kind = tree.KindDirective
			}
			doc.Append(parent(), tree.Node{
				Kind:  kind,
				Data:  string(z.Text()),
				Range: lines.rng(start, end),
			})

		case html.DoctypeToken:
			doc.Append(parent(), tree.Node{
				Kind:  tree.KindDirective,
				Data:  string(z.Text()),
				Range: lines.rng(start, end),
			})

		case html.StartTagToken, html.SelfClosingTagToken:
			n := startTagNode(z, tt, src, masked, start, end, lines)
			id := doc.Append(parent(), n)
			if !n.SelfClosing {
				stack = append(stack, id)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			lname := string(name)
			for i := len(stack) - 1; i >= 0; i-- {
				if doc.Node(stack[i]).Name != lname {
					continue
				}
				// implicitly close everything opened after the match
				for j := len(stack) - 1; j > i; j-- {
					doc.Node(stack[j]).Range.End = lines.pos(start)
				}
				doc.Node(stack[i]).Range.End = lines.pos(end)
				stack = stack[:i]
				break
			}
		}
	}

	eof := lines.pos(len(src))
	for _, id := range stack {
		doc.Node(id).Range.End = eof
	}
	return doc
}

// startTagNode builds the element for the start tag z is positioned on,
// which spans src[start:end].
func startTagNode(z *html.Tokenizer, tt html.TokenType, src, masked []byte, start, end int, lines *lineIndex) tree.Node {
	name, hasAttr := z.TagName()
	lname := string(name)
	n := tree.Node{
		Kind:        tree.KindElement,
		Name:        lname,
		RawName:     rawTagName(src[start:end], len(name)),
		SelfClosing: tt == html.SelfClosingTagToken || voidElements[lname],
		Range:       lines.rng(start, end),
		StartTag:    lines.rng(start, end),
	}
	if hasAttr {
		n.Attrs = readAttrs(z, src, masked, start, end, len(name), lines)
	}
	return n
}

// danglingStartTag re-reads the unterminated tag at masked[off:] as if it
// were closed and returns it as a childless element ending at end of input.
func danglingStartTag(src, masked []byte, off int, lines *lineIndex) (tree.Node, bool) {
	tail := make([]byte, 0, len(masked)-off+1)
	tail = append(tail, masked[off:]...)
	tail = append(tail, '>')

	z := html.NewTokenizer(bytes.NewReader(tail))
	tt := z.Next()
	if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
		return tree.Node{}, false
	}
	return startTagNode(z, tt, src, masked, off, len(src), lines), true
}

// isTagOpen reports whether b begins with '<' followed by an ASCII letter.
func isTagOpen(b []byte) bool {
	if len(b) < 2 || b[0] != '<' {
		return false
	}
	c := b[1]
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

// rawTagName returns the tag name as written in the source.
func rawTagName(raw []byte, n int) string {
	if len(raw) < 1+n {
		return ""
	}
	return string(raw[1 : 1+n])
}

// readAttrs drains the tokenizer's attributes for the current tag and
// locates each one in the masked tag bytes; names and values are then
// read back from src. The first occurrence of a name wins; later
// duplicates are dropped.
func readAttrs(z *html.Tokenizer, src, masked []byte, start, end, nameLen int, lines *lineIndex) []tree.Attribute {
	var attrs []tree.Attribute
	seen := make(map[string]bool)
	cursor := start + 1 + nameLen

	for {
		key, _, more := z.TagAttr()
		k := string(key)

		aStart, aEnd, vStart, vEnd := locateAttr(masked, cursor, end, k)
		if aStart >= 0 {
			cursor = aEnd
		}

		if k != "" && !seen[k] {
			seen[k] = true
			attr := tree.Attribute{Name: k, RawName: k}
			if aStart >= 0 {
				attr.RawName = string(src[aStart : aStart+len(k)])
				attr.Range = lines.rng(aStart, aEnd)
				if vStart >= 0 {
					attr.Value = html.UnescapeString(string(src[vStart:vEnd]))
				}
			}
			attrs = append(attrs, attr)
		}

		if !more {
			break
		}
	}
	return attrs
}

// locateAttr finds the attribute named key (case-insensitive) in
// src[from:limit]. It returns the span of the whole attribute and the span
// of its value, or -1s when not found / no value.
func locateAttr(src []byte, from, limit int, key string) (aStart, aEnd, vStart, vEnd int) {
	aStart, aEnd, vStart, vEnd = -1, -1, -1, -1
	if key == "" || from >= limit {
		return
	}

	i := from
	for i < limit {
		// skip whitespace and stray slashes between attributes
		for i < limit && (isSpace(src[i]) || src[i] == '/') {
			i++
		}
		if i >= limit || src[i] == '>' {
			return
		}
		nameStart := i
		for i < limit && !isSpace(src[i]) && src[i] != '=' && src[i] != '>' && (src[i] != '/' || i == nameStart) {
			i++
		}
		nameEnd := i

		j := i
		for j < limit && isSpace(src[j]) {
			j++
		}
		valStart, valEnd := -1, -1
		if j < limit && src[j] == '=' {
			j++
			for j < limit && isSpace(src[j]) {
				j++
			}
			if j < limit && (src[j] == '"' || src[j] == '\'') {
				q := src[j]
				j++
				valStart = j
				for j < limit && src[j] != q {
					j++
				}
				valEnd = j
				if j < limit {
					j++
				}
			} else {
				valStart = j
				for j < limit && !isSpace(src[j]) && src[j] != '>' {
					j++
				}
				valEnd = j
			}
			i = j
		}

		if strings.EqualFold(string(src[nameStart:nameEnd]), key) {
			return nameStart, i, valStart, valEnd
		}
	}
	return
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
