//go:build property
// +build property

package checks

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/ecohtml/internal/lexer"
	"github.com/conneroisu/ecohtml/internal/sink"
	"github.com/conneroisu/ecohtml/internal/visitor"
)

// recase flips the case of every letter whose mask bit is set.
func recase(s string, mask uint64) string {
	var b strings.Builder
	for i, r := range s {
		if mask&(1<<(uint(i)%64)) != 0 {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func countIssues(src string) int {
	doc, err := lexer.NewPageLexer().Parse(strings.NewReader(src))
	if err != nil {
		return -1
	}
	s := visitor.NewScanner()
	s.AddVisitor(AvoidAutoplayKey, AvoidAutoplay{})
	out := sink.NewSourceCode("prop.html")
	if err := s.Scan(doc, out); err != nil {
		return -1
	}
	return len(out.Issues())
}

func TestAvoidAutoplayProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Casing of the tag and attribute never changes the result.
	properties.Property("case insensitive", prop.ForAll(
		func(tag string, tagMask, attrMask uint64) bool {
			name := recase(tag, tagMask)
			src := fmt.Sprintf("<%s %s></%s>", name, recase("autoplay", attrMask), name)
			return countIssues(src) == 1
		},
		gen.OneConstOf("audio", "video"),
		gen.UInt64(),
		gen.UInt64(),
	))

	// One issue per offending element, whatever else surrounds it.
	properties.Property("one issue per element", prop.ForAll(
		func(n int, filler string) bool {
			var b strings.Builder
			for i := 0; i < n; i++ {
				b.WriteString(`<div>` + filler + `</div><video autoplay src="x.mp4"></video>`)
			}
			return countIssues(b.String()) == n
		},
		gen.IntRange(0, 20),
		gen.RegexMatch(`^[a-zA-Z0-9 ]*$`),
	))

	// Elements other than audio and video are never reported.
	properties.Property("other elements ignored", prop.ForAll(
		func(tag string) bool {
			if strings.EqualFold(tag, "audio") || strings.EqualFold(tag, "video") {
				return true
			}
			return countIssues(fmt.Sprintf("<%s autoplay></%s>", tag, tag)) == 0
		},
		gen.RegexMatch(`^[a-z][a-z0-9]{0,8}$`),
	))

	properties.TestingRun(t)
}
