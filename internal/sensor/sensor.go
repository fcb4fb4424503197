// Package sensor drives the analysis of a set of files: it selects the
// files to analyze, lexes and scans each one, and forwards measures, issues
// and per-file failures to a Reporter.
package sensor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/ecohtml/internal/checks"
	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/inputfs"
	"github.com/conneroisu/ecohtml/internal/lexer"
	"github.com/conneroisu/ecohtml/internal/logging"
	"github.com/conneroisu/ecohtml/internal/rules"
	"github.com/conneroisu/ecohtml/internal/sink"
	"github.com/conneroisu/ecohtml/internal/visitor"
)

// LanguageName is the display name of the sensor.
const LanguageName = "HTML"

// DefaultSuffixes are the extensions analyzed in addition to the html and
// jsp languages.
var DefaultSuffixes = []string{"php", "php3", "php4", "php5", "phtml", "inc", "vue"}

// Reporter receives the results of an analysis.
type Reporter interface {
	SaveMeasure(file inputfs.InputFile, kind sink.MetricKind, value int)
	SaveIssue(file inputfs.InputFile, issue sink.Issue)
	SaveAnalysisError(file inputfs.InputFile, message string)
}

// Descriptor describes what the sensor runs on.
type Descriptor struct {
	Name                        string
	OnlyOnType                  inputfs.Type
	ProcessesFilesIndependently bool
}

// Sensor analyzes files with a fixed set of active checks.
type Sensor struct {
	catalog  *rules.Catalog
	active   []checks.Descriptor
	metrics  []visitor.Check
	suffixes []string
	charset  string
	logger   logging.Logger
}

// Option configures a Sensor.
type Option func(*Sensor) error

// WithLogger sets the logger used for per-file failures.
func WithLogger(logger logging.Logger) Option {
	return func(s *Sensor) error {
		s.logger = logger
		return nil
	}
}

// WithSuffixes replaces the extra extensions analyzed regardless of
// language.
func WithSuffixes(suffixes ...string) Option {
	return func(s *Sensor) error {
		s.suffixes = append([]string(nil), suffixes...)
		return nil
	}
}

// WithCharset sets the encoding files are read with. An empty charset
// detects the encoding from a BOM or a <meta charset> instead.
func WithCharset(charset string) Option {
	return func(s *Sensor) error {
		s.charset = charset
		return nil
	}
}

// WithChecks replaces the rule checks considered for activation.
func WithChecks(descs ...checks.Descriptor) Option {
	return func(s *Sensor) error {
		s.active = append([]checks.Descriptor(nil), descs...)
		return nil
	}
}

// WithRules filters the active checks. When enabled is non-empty only the
// listed rules run; disabled rules never run. Keys may be current or
// deprecated keys from the catalog.
func WithRules(enabled, disabled []string) Option {
	return func(s *Sensor) error {
		var err error
		s.active, err = Activate(s.catalog, s.active, enabled, disabled)
		return err
	}
}

// New creates a sensor running every check of the catalog. Options apply
// in order, so WithChecks must precede WithRules.
func New(catalog *rules.Catalog, opts ...Option) (*Sensor, error) {
	s := &Sensor{
		catalog:  catalog,
		active:   checks.All(),
		metrics:  checks.Metrics(),
		suffixes: DefaultSuffixes,
		charset:  "utf-8",
		logger:   logging.NewLogger(nil),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.WithComponent("sensor")
	return s, nil
}

// Activate filters descs through the enabled and disabled rule lists.
func Activate(catalog *rules.Catalog, descs []checks.Descriptor, enabled, disabled []string) ([]checks.Descriptor, error) {
	resolve := func(keys []string) (map[string]bool, error) {
		set := make(map[string]bool, len(keys))
		for _, k := range keys {
			rule, ok := catalog.Lookup(k)
			if !ok {
				return nil, errors.NewConfigError(errors.ErrCodeUnknownRule, fmt.Sprintf("unknown rule %q", k))
			}
			set[rule.Key] = true
		}
		return set, nil
	}

	on, err := resolve(enabled)
	if err != nil {
		return nil, err
	}
	off, err := resolve(disabled)
	if err != nil {
		return nil, err
	}

	var out []checks.Descriptor
	for _, d := range descs {
		if len(on) > 0 && !on[d.Key] {
			continue
		}
		if off[d.Key] {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Describe returns the sensor descriptor.
func (s *Sensor) Describe() Descriptor {
	return Descriptor{
		Name:                        LanguageName,
		OnlyOnType:                  inputfs.TypeMain,
		ProcessesFilesIndependently: true,
	}
}

// ActiveRules returns the keys of the checks that run, in order.
func (s *Sensor) ActiveRules() []string {
	keys := make([]string, len(s.active))
	for i, d := range s.active {
		keys[i] = d.Key
	}
	return keys
}

// Predicate returns the selection applied to the file system: main files
// that are html or jsp, or carry one of the configured extensions.
func (s *Sensor) Predicate() inputfs.Predicate {
	exts := make([]inputfs.Predicate, len(s.suffixes))
	for i, suffix := range s.suffixes {
		exts[i] = inputfs.HasExtension(suffix)
	}
	return inputfs.And(
		inputfs.HasType(inputfs.TypeMain),
		inputfs.Or(
			inputfs.HasLanguages(inputfs.LanguageHTML, inputfs.LanguageJSP),
			inputfs.Or(exts...),
		),
	)
}

func (s *Sensor) scanner() *visitor.Scanner {
	sc := visitor.NewScanner()
	for _, d := range s.active {
		var opts []visitor.Option
		if rule, ok := s.catalog.Lookup(d.Key); ok {
			if cost, ok := rule.Cost(); ok {
				opts = append(opts, visitor.WithCost(cost))
			}
		}
		sc.AddVisitor(d.Key, d.New(), opts...)
	}
	for _, m := range s.metrics {
		sc.AddVisitor("", m)
	}
	return sc
}

type result struct {
	file inputfs.InputFile
	src  *sink.SourceCode
	err  error
	done bool
}

// Execute analyzes the selected files one after the other. Cancellation is
// checked before each file; results already forwarded stay forwarded and
// the call returns nil. A failure on one file is reported as an analysis
// error on that file and does not stop the others.
func (s *Sensor) Execute(ctx context.Context, fs inputfs.FileSystem, reporter Reporter) error {
	files, err := fs.InputFiles(s.Predicate())
	if err != nil {
		return err
	}

	op := logging.StartOperation(s.logger, "execute")
	analyzed := 0
	defer func() { op.End(ctx, "files", len(files), "analyzed", analyzed) }()

	sc := s.scanner()
	for _, file := range files {
		if ctx.Err() != nil {
			s.logger.Info(ctx, "Analysis cancelled", "remaining", file.Path)
			return nil
		}
		s.forward(ctx, reporter, s.analyze(sc, file))
		analyzed++
	}

	return nil
}

// ExecuteParallel analyzes up to workers files at once. Each file gets its
// own document and sink; results are forwarded from the calling goroutine
// in file order, so the reporter sees the same sequence as Execute.
func (s *Sensor) ExecuteParallel(ctx context.Context, fs inputfs.FileSystem, reporter Reporter, workers int) error {
	if workers <= 1 {
		return s.Execute(ctx, fs, reporter)
	}

	files, err := fs.InputFiles(s.Predicate())
	if err != nil {
		return err
	}

	op := logging.StartOperation(s.logger, "execute_parallel")
	analyzed := 0
	defer func() { op.End(ctx, "files", len(files), "analyzed", analyzed, "workers", workers) }()

	sc := s.scanner()
	results := make([]result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results[i] = s.analyze(sc, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		if !r.done {
			s.logger.Info(ctx, "Analysis cancelled", "remaining", r.file.Path)
			return nil
		}
		s.forward(ctx, reporter, r)
		analyzed++
	}

	return nil
}

func (s *Sensor) analyze(sc *visitor.Scanner, file inputfs.InputFile) (res result) {
	res = result{file: file, done: true}

	defer func() {
		if r := recover(); r != nil {
			res.src = nil
			res.err = errors.FromPanic(r, "").WithLocation(file.Path, 0, 0)
		}
	}()

	rc, err := file.Open()
	if err != nil {
		res.err = errors.WrapIO(err, errors.ErrCodeReadFailed, file.Path)
		return res
	}
	defer rc.Close()

	contentType := ""
	if s.charset != "" {
		contentType = "text/html; charset=" + s.charset
	}
	r, err := lexer.Decode(rc, contentType)
	if err != nil {
		res.err = err
		return res
	}

	doc, err := lexer.ForFile(file.Filename()).Parse(r)
	if err != nil {
		res.err = errors.Wrap(err, errors.ErrorTypeLex, errors.ErrCodeReadFailed, "cannot lex file")
		return res
	}

	src := sink.NewSourceCode(file.Path)
	if err := sc.Scan(doc, src); err != nil {
		res.err = err
		return res
	}
	res.src = src
	return res
}

func (s *Sensor) forward(ctx context.Context, reporter Reporter, r result) {
	if r.err != nil {
		s.logger.Error(ctx, r.err, "Cannot analyze file", "file", r.file.Path)
		reporter.SaveAnalysisError(r.file, errors.Message(r.err))
		return
	}
	for _, m := range r.src.Measures() {
		reporter.SaveMeasure(r.file, m.Kind, m.Value)
	}
	for _, issue := range r.src.Issues() {
		reporter.SaveIssue(r.file, issue)
	}
}
