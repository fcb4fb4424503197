// Package sink accumulates the issues and measures produced while one file
// is scanned. A SourceCode lives exactly as long as that file's pass.
package sink

import (
	"fmt"
	"sort"

	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/tree"
)

// MetricKind enumerates the per-file measures.
type MetricKind string

const (
	MetricLines        MetricKind = "lines"
	MetricNCLOC        MetricKind = "ncloc"
	MetricCommentLines MetricKind = "comment_lines"
	MetricComplexity   MetricKind = "complexity"
	MetricElements     MetricKind = "elements"
)

// Issue is one rule violation.
type Issue struct {
	RuleKey string `json:"rule" yaml:"rule"`
	Message string `json:"message" yaml:"message"`

	// Line is 1-based; 0 means the issue is on the file itself.
	Line int `json:"line,omitempty" yaml:"line,omitempty"`

	// Range is set for precise issues only.
	Range *tree.Range `json:"range,omitempty" yaml:"range,omitempty"`

	// Cost is the optional remediation effort, in minutes.
	Cost *float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// NewIssue creates a line-level issue.
func NewIssue(ruleKey string, line int, message string) Issue {
	return Issue{RuleKey: ruleKey, Line: line, Message: message}
}

// NewPreciseIssue creates an issue spanning rng. The range must not end
// before it starts.
func NewPreciseIssue(ruleKey string, rng tree.Range, message string) (Issue, error) {
	if !rng.Valid() {
		return Issue{}, errors.NewValidationError(
			errors.ErrCodeInvalidRange,
			fmt.Sprintf("issue range %s ends before it starts", rng),
		).WithRule(ruleKey)
	}
	r := rng
	return Issue{RuleKey: ruleKey, Line: rng.Start.Line, Range: &r, Message: message}, nil
}

// WithCost returns a copy of the issue carrying a remediation cost.
func (i Issue) WithCost(cost float64) Issue {
	i.Cost = &cost
	return i
}

// Precise reports whether the issue carries a column range.
func (i Issue) Precise() bool {
	return i.Range != nil
}

// Measure is one (kind, value) pair.
type Measure struct {
	Kind  MetricKind `json:"kind" yaml:"kind"`
	Value int        `json:"value" yaml:"value"`
}

// SourceCode is the per-file sink.
type SourceCode struct {
	path     string
	issues   []Issue
	measures map[MetricKind]int
}

// NewSourceCode creates an empty sink for the file at path.
func NewSourceCode(path string) *SourceCode {
	return &SourceCode{
		path:     path,
		measures: make(map[MetricKind]int),
	}
}

// Path returns the file the sink belongs to.
func (s *SourceCode) Path() string {
	return s.path
}

// AddIssue appends an issue. Identical issues are kept.
func (s *SourceCode) AddIssue(issue Issue) {
	s.issues = append(s.issues, issue)
}

// AddMeasure sets the value of a measure, replacing any previous value.
func (s *SourceCode) AddMeasure(kind MetricKind, value int) {
	s.measures[kind] = value
}

// Measure returns the value of a measure and whether it was set.
func (s *SourceCode) Measure(kind MetricKind) (int, bool) {
	v, ok := s.measures[kind]
	return v, ok
}

// Issues returns the issues in the order they were reported.
func (s *SourceCode) Issues() []Issue {
	out := make([]Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// Measures returns every measure, sorted by kind.
func (s *SourceCode) Measures() []Measure {
	out := make([]Measure, 0, len(s.measures))
	for k, v := range s.measures {
		out = append(out, Measure{Kind: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
