// Package report collects analysis results and renders them for humans and
// machines.
package report

import (
	"sync"

	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/inputfs"
	"github.com/conneroisu/ecohtml/internal/sink"
)

// Event is one forwarded result, in the order the sensor forwarded it.
type Event struct {
	File    string
	Measure *sink.Measure
	Issue   *sink.Issue
	Error   string
}

// Collector is an in-memory sensor.Reporter. It is safe for concurrent
// use.
type Collector struct {
	mu       sync.Mutex
	events   []Event
	issues   map[string][]sink.Issue
	measures map[string][]sink.Measure
	files    []string
	errs     *errors.ErrorCollector
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		issues:   make(map[string][]sink.Issue),
		measures: make(map[string][]sink.Measure),
		errs:     errors.NewErrorCollector(),
	}
}

func (c *Collector) touch(file string) {
	if _, ok := c.measures[file]; ok {
		return
	}
	if _, ok := c.issues[file]; ok {
		return
	}
	c.files = append(c.files, file)
	c.measures[file] = nil
}

// SaveMeasure records a measure on file.
func (c *Collector) SaveMeasure(file inputfs.InputFile, kind sink.MetricKind, value int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch(file.Path)
	m := sink.Measure{Kind: kind, Value: value}
	c.measures[file.Path] = append(c.measures[file.Path], m)
	c.events = append(c.events, Event{File: file.Path, Measure: &m})
}

// SaveIssue records an issue on file.
func (c *Collector) SaveIssue(file inputfs.InputFile, issue sink.Issue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch(file.Path)
	c.issues[file.Path] = append(c.issues[file.Path], issue)
	c.events = append(c.events, Event{File: file.Path, Issue: &issue})
}

// SaveAnalysisError records that file could not be analyzed.
func (c *Collector) SaveAnalysisError(file inputfs.InputFile, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs.Add(errors.FileError{
		File:     file.Path,
		Message:  message,
		Severity: errors.SeverityError,
	})
	c.events = append(c.events, Event{File: file.Path, Error: message})
}

// Events returns every forwarded result in arrival order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Issues returns the issues recorded on file.
func (c *Collector) Issues(file string) []sink.Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sink.Issue(nil), c.issues[file]...)
}

// IssueCount returns the number of issues over all files.
func (c *Collector) IssueCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, issues := range c.issues {
		n += len(issues)
	}
	return n
}

// Measures returns the measures recorded on file.
func (c *Collector) Measures(file string) []sink.Measure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sink.Measure(nil), c.measures[file]...)
}

// Files returns the files that received a measure or an issue, in arrival
// order.
func (c *Collector) Files() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.files...)
}

// AnalysisErrors returns the files that failed.
func (c *Collector) AnalysisErrors() []errors.FileError {
	return c.errs.GetErrors()
}

// Reset drops everything recorded so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
	c.files = nil
	c.issues = make(map[string][]sink.Issue)
	c.measures = make(map[string][]sink.Measure)
	c.errs.Clear()
}
