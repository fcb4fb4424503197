package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/rules"
	"github.com/conneroisu/ecohtml/internal/sink"
)

// Format selects the report rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeValidationFailed,
			fmt.Sprintf("unknown format %q (want text, json or yaml)", s))
	}
}

// IssueRecord is an issue enriched with its rule metadata.
type IssueRecord struct {
	File      string  `json:"file" yaml:"file"`
	Rule      string  `json:"rule" yaml:"rule"`
	Severity  string  `json:"severity,omitempty" yaml:"severity,omitempty"`
	Title     string  `json:"title,omitempty" yaml:"title,omitempty"`
	Message   string  `json:"message" yaml:"message"`
	Line      int     `json:"line,omitempty" yaml:"line,omitempty"`
	Column    int     `json:"column,omitempty" yaml:"column,omitempty"`
	EndLine   int     `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	EndColumn int     `json:"end_column,omitempty" yaml:"end_column,omitempty"`
	Effort    float64 `json:"effort_minutes,omitempty" yaml:"effort_minutes,omitempty"`
}

// FileMeasures holds the measures of one file.
type FileMeasures struct {
	File     string         `json:"file" yaml:"file"`
	Measures map[string]int `json:"measures" yaml:"measures"`
}

// Summary aggregates a report.
type Summary struct {
	Files      int            `json:"files" yaml:"files"`
	Issues     int            `json:"issues" yaml:"issues"`
	Errors     int            `json:"errors" yaml:"errors"`
	BySeverity map[string]int `json:"by_severity,omitempty" yaml:"by_severity,omitempty"`
}

// Report is the rendered view of a collector.
type Report struct {
	Summary  Summary            `json:"summary" yaml:"summary"`
	Issues   []IssueRecord      `json:"issues" yaml:"issues"`
	Measures []FileMeasures     `json:"measures,omitempty" yaml:"measures,omitempty"`
	Errors   []errors.FileError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Build assembles a report from c, looking rule metadata up in catalog.
// Issues are sorted by file, then position.
func Build(c *Collector, catalog *rules.Catalog) *Report {
	r := &Report{Issues: []IssueRecord{}}
	files := c.Files()
	sort.Strings(files)

	for _, file := range files {
		for _, issue := range c.Issues(file) {
			r.Issues = append(r.Issues, record(file, issue, catalog))
		}
		if ms := c.Measures(file); len(ms) > 0 {
			fm := FileMeasures{File: file, Measures: make(map[string]int, len(ms))}
			for _, m := range ms {
				fm.Measures[string(m.Kind)] = m.Value
			}
			r.Measures = append(r.Measures, fm)
		}
	}

	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	r.Errors = c.AnalysisErrors()
	sort.SliceStable(r.Errors, func(i, j int) bool { return r.Errors[i].File < r.Errors[j].File })

	r.Summary = Summary{
		Files:  len(files),
		Issues: len(r.Issues),
		Errors: len(r.Errors),
	}
	for _, issue := range r.Issues {
		if issue.Severity == "" {
			continue
		}
		if r.Summary.BySeverity == nil {
			r.Summary.BySeverity = make(map[string]int)
		}
		r.Summary.BySeverity[issue.Severity]++
	}

	return r
}

func record(file string, issue sink.Issue, catalog *rules.Catalog) IssueRecord {
	rec := IssueRecord{
		File:    file,
		Rule:    issue.RuleKey,
		Message: issue.Message,
		Line:    issue.Line,
	}
	if issue.Precise() {
		rec.Line = issue.Range.Start.Line
		rec.Column = issue.Range.Start.Column
		rec.EndLine = issue.Range.End.Line
		rec.EndColumn = issue.Range.End.Column
	}
	if issue.Cost != nil {
		rec.Effort = *issue.Cost
	}
	if catalog != nil {
		if rule, ok := catalog.Lookup(issue.RuleKey); ok {
			rec.Severity = rule.Severity
			rec.Title = rule.Title
		}
	}
	return rec
}

// Options tune rendering.
type Options struct {
	Format Format
	// Color enables ANSI colors in the text format.
	Color bool
	// Measures includes per-file measures in the text format.
	Measures bool
}

// Render writes r to w.
func Render(w io.Writer, r *Report, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, r, opts)
	default:
		return errors.NewValidationError(errors.ErrCodeValidationFailed,
			fmt.Sprintf("unknown format %q", opts.Format))
	}
}

type palette struct {
	file, location, rule, ok, errc *color.Color
	severity                       map[string]*color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		file:     color.New(color.Bold),
		location: color.New(color.Faint),
		rule:     color.New(color.FgCyan),
		ok:       color.New(color.FgGreen, color.Bold),
		errc:     color.New(color.FgRed, color.Bold),
		severity: map[string]*color.Color{
			"Blocker":  color.New(color.FgRed, color.Bold),
			"Critical": color.New(color.FgRed),
			"Major":    color.New(color.FgYellow),
			"Minor":    color.New(color.FgBlue),
			"Info":     color.New(color.FgWhite),
		},
	}
	all := []*color.Color{p.file, p.location, p.rule, p.ok, p.errc}
	for _, c := range p.severity {
		all = append(all, c)
	}
	for _, c := range all {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) sev(name string) *color.Color {
	if c, ok := p.severity[name]; ok {
		return c
	}
	return p.location
}

func renderText(w io.Writer, r *Report, opts Options) error {
	p := newPalette(opts.Color)
	ew := &errWriter{w: w}

	current := ""
	for _, issue := range r.Issues {
		if issue.File != current {
			if current != "" {
				ew.printf("\n")
			}
			current = issue.File
			ew.write(p.file.Sprint(issue.File) + "\n")
		}
		loc := fmt.Sprintf("%d:%d", issue.Line, issue.Column)
		if issue.Line == 0 {
			loc = "file"
		}
		sev := issue.Severity
		if sev == "" {
			sev = "Unknown"
		}
		ew.printf("  %s  %s  %s %s\n",
			p.location.Sprintf("%-7s", loc),
			p.sev(issue.Severity).Sprintf("%-8s", sev),
			issue.Message,
			p.rule.Sprintf("(%s)", issue.Rule))
	}

	if opts.Measures && len(r.Measures) > 0 {
		if len(r.Issues) > 0 {
			ew.printf("\n")
		}
		for _, fm := range r.Measures {
			keys := make([]string, 0, len(fm.Measures))
			for k := range fm.Measures {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for i, k := range keys {
				parts[i] = fmt.Sprintf("%s=%d", k, fm.Measures[k])
			}
			ew.printf("%s  %s\n", p.file.Sprint(fm.File), strings.Join(parts, " "))
		}
	}

	if len(r.Errors) > 0 {
		if len(r.Issues) > 0 || opts.Measures {
			ew.printf("\n")
		}
		for _, fe := range r.Errors {
			ew.printf("%s %s: %s\n", p.errc.Sprint("error"), fe.File, fe.Message)
		}
	}

	if len(r.Issues) > 0 || len(r.Errors) > 0 {
		ew.printf("\n")
	}
	summary := fmt.Sprintf("%d files analyzed, %d issues, %d errors", r.Summary.Files, r.Summary.Issues, r.Summary.Errors)
	if r.Summary.Issues == 0 && r.Summary.Errors == 0 {
		ew.write(p.ok.Sprint(summary) + "\n")
	} else {
		ew.write(p.errc.Sprint(summary) + "\n")
	}

	return ew.err
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) write(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *errWriter) printf(format string, args ...interface{}) {
	e.write(fmt.Sprintf(format, args...))
}
