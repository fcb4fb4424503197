package sensor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ecohtml/internal/checks"
	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/inputfs"
	"github.com/conneroisu/ecohtml/internal/logging"
	"github.com/conneroisu/ecohtml/internal/report"
	"github.com/conneroisu/ecohtml/internal/rules"
	"github.com/conneroisu/ecohtml/internal/sink"
	"github.com/conneroisu/ecohtml/internal/testutils"
	"github.com/conneroisu/ecohtml/internal/tree"
	"github.com/conneroisu/ecohtml/internal/visitor"
)

const exampleVue = `<template>
  <div class="player">
    <h1>{{ title }}</h1>
    <video :src="url" v-if="ready" autoplay muted></video>
    <p>{{ count > 1 ? "many" : "one" }}</p>
  </div>
</template>

<script>
export default {
  data() {
    return { title: "Clip", ready: true, count: 2 }
  }
}
</script>
`

func newSensor(t *testing.T, opts ...Option) *Sensor {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewTestLogger())}, opts...)
	s, err := New(rules.MustLoad(), opts...)
	require.NoError(t, err)
	return s
}

func TestDescribe(t *testing.T) {
	d := newSensor(t).Describe()
	assert.Equal(t, "HTML", d.Name)
	assert.Equal(t, inputfs.TypeMain, d.OnlyOnType)
	assert.True(t, d.ProcessesFilesIndependently)
}

func TestExecute_VueFile(t *testing.T) {
	dir := testutils.CreateTempSite(t, map[string]string{"example.vue": exampleVue})
	fs := inputfs.Files{inputfs.NewInputFile(filepath.Join(dir, "example.vue"))}

	c := report.NewCollector()
	require.NoError(t, newSensor(t).Execute(context.Background(), fs, c))

	issues := c.Issues(fs[0].Path)
	require.Len(t, issues, 1)
	assert.Equal(t, "GCI8000", issues[0].RuleKey)
	assert.Equal(t, "Avoid using autoplay attribute in video element", issues[0].Message)
	assert.Equal(t, 4, issues[0].Line)
	require.NotNil(t, issues[0].Cost)
	assert.Equal(t, 5.0, *issues[0].Cost)
	assert.Empty(t, c.AnalysisErrors())

	var kinds []sink.MetricKind
	for _, m := range c.Measures(fs[0].Path) {
		kinds = append(kinds, m.Kind)
	}
	assert.ElementsMatch(t, []sink.MetricKind{
		sink.MetricLines, sink.MetricNCLOC, sink.MetricCommentLines,
		sink.MetricComplexity, sink.MetricElements,
	}, kinds)
}

func TestExecute_Cancelled(t *testing.T) {
	dir := testutils.CreateTempSite(t, map[string]string{"example.vue": exampleVue})
	fs := inputfs.Files{inputfs.NewInputFile(filepath.Join(dir, "example.vue"))}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := report.NewCollector()
	require.NoError(t, newSensor(t).Execute(ctx, fs, c))
	assert.Empty(t, c.Events())

	require.NoError(t, newSensor(t).ExecuteParallel(ctx, fs, c, 4))
	assert.Empty(t, c.Events())
}

type cancelAfter struct {
	*report.Collector
	cancel context.CancelFunc
}

func (c *cancelAfter) SaveIssue(file inputfs.InputFile, issue sink.Issue) {
	c.Collector.SaveIssue(file, issue)
	c.cancel()
}

func TestExecute_CancelledMidway(t *testing.T) {
	dir := testutils.CreateTempSite(t, map[string]string{
		"a.html": `<video autoplay></video>`,
		"b.html": `<audio autoplay></audio>`,
	})
	fs := inputfs.Files{
		inputfs.NewInputFile(filepath.Join(dir, "a.html")),
		inputfs.NewInputFile(filepath.Join(dir, "b.html")),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &cancelAfter{Collector: report.NewCollector(), cancel: cancel}

	require.NoError(t, newSensor(t).Execute(ctx, fs, c))
	assert.Len(t, c.Issues(fs[0].Path), 1)
	assert.Empty(t, c.Issues(fs[1].Path))
	assert.Empty(t, c.Measures(fs[1].Path))
}

func TestExecute_CancelledRunLogsTiming(t *testing.T) {
	dir := testutils.CreateTempSite(t, map[string]string{
		"a.html": `<video autoplay></video>`,
		"b.html": `<audio autoplay></audio>`,
	})
	fs := inputfs.Files{
		inputfs.NewInputFile(filepath.Join(dir, "a.html")),
		inputfs.NewInputFile(filepath.Join(dir, "b.html")),
	}
	var logs testutils.LockedBuffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelDebug, Format: "json", Output: &logs})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &cancelAfter{Collector: report.NewCollector(), cancel: cancel}

	require.NoError(t, newSensor(t, WithLogger(logger)).Execute(ctx, fs, c))
	assert.Contains(t, logs.String(), `"operation":"execute"`)
	assert.Contains(t, logs.String(), `"msg":"Operation completed"`)
	assert.Contains(t, logs.String(), `"analyzed":1`)

	require.NoError(t, newSensor(t, WithLogger(logger)).ExecuteParallel(ctx, fs, report.NewCollector(), 4))
	assert.Contains(t, logs.String(), `"operation":"execute_parallel"`)
	assert.Contains(t, logs.String(), `"analyzed":0`)
}

func TestExecute_FailureIsolated(t *testing.T) {
	dir := testutils.CreateTempSite(t, map[string]string{
		"one.html":   `<video autoplay></video>`,
		"three.html": `<audio autoplay></audio>`,
	})
	fs := inputfs.Files{
		inputfs.NewInputFile(filepath.Join(dir, "one.html")),
		inputfs.NewInputFile(filepath.Join(dir, "two.html")),
		inputfs.NewInputFile(filepath.Join(dir, "three.html")),
	}

	c := report.NewCollector()
	require.NoError(t, newSensor(t).Execute(context.Background(), fs, c))

	assert.Len(t, c.Issues(fs[0].Path), 1)
	assert.Len(t, c.Issues(fs[2].Path), 1)
	assert.Empty(t, c.Issues(fs[1].Path))
	assert.Empty(t, c.Measures(fs[1].Path))

	errs := c.AnalysisErrors()
	require.Len(t, errs, 1)
	assert.Equal(t, fs[1].Path, errs[0].File)
	assert.Contains(t, errs[0].Message, "cannot read file")
}

type boom struct {
	visitor.BaseCheck
}

func (boom) StartElement(_ *visitor.Context, n *tree.Node) {
	if n.IsElement("boom") {
		panic("exploded")
	}
}

func TestExecute_PanickingCheckIsolated(t *testing.T) {
	dir := testutils.CreateTempSite(t, map[string]string{
		"a.html": `<p>fine</p>`,
		"b.html": `<div><boom></boom></div>`,
		"c.html": `<video autoplay></video>`,
	})
	fs := inputfs.Files{
		inputfs.NewInputFile(filepath.Join(dir, "a.html")),
		inputfs.NewInputFile(filepath.Join(dir, "b.html")),
		inputfs.NewInputFile(filepath.Join(dir, "c.html")),
	}

	s := newSensor(t, WithChecks(
		checks.Descriptor{Key: "GCI8000", New: func() visitor.Check { return boom{} }},
		checks.All()[0],
	))

	c := report.NewCollector()
	require.NoError(t, s.Execute(context.Background(), fs, c))

	assert.NotEmpty(t, c.Measures(fs[0].Path))
	assert.Empty(t, c.Measures(fs[1].Path))
	assert.Len(t, c.Issues(fs[2].Path), 1)

	errs := c.AnalysisErrors()
	require.Len(t, errs, 1)
	assert.Equal(t, fs[1].Path, errs[0].File)
	assert.Contains(t, errs[0].Message, "exploded")
}

func TestExecuteParallel_MatchesSequential(t *testing.T) {
	var fs inputfs.Files
	dir := t.TempDir()
	for i, src := range []string{
		`<video autoplay></video>`,
		`<p>nothing here</p>`,
		`<audio AUTOPLAY></audio><video autoplay="false"></video>`,
		`<!-- c --><div><span>x</span></div>`,
		`<VIDEO Autoplay/>`,
		"<ul>\n<li>a</li>\n<li>b</li>\n</ul>",
	} {
		name := testutils.WriteFile(t, dir, string(rune('a'+i))+".html", src)
		fs = append(fs, inputfs.NewInputFile(name))
	}
	fs = append(fs, inputfs.NewInputFile(filepath.Join(dir, "missing.html")))

	seq := report.NewCollector()
	require.NoError(t, newSensor(t).Execute(context.Background(), fs, seq))

	par := report.NewCollector()
	require.NoError(t, newSensor(t).ExecuteParallel(context.Background(), fs, par, 4))

	assert.Equal(t, seq.IssueCount(), par.IssueCount())
	assert.Equal(t, 4, seq.IssueCount())

	seqEvents, parEvents := seq.Events(), par.Events()
	require.Equal(t, len(seqEvents), len(parEvents))
	for i := range seqEvents {
		assert.Equal(t, seqEvents[i].File, parEvents[i].File)
		assert.Equal(t, seqEvents[i].Issue, parEvents[i].Issue)
		assert.Equal(t, seqEvents[i].Measure, parEvents[i].Measure)
		assert.Equal(t, seqEvents[i].Error, parEvents[i].Error)
	}
}

func TestPredicate(t *testing.T) {
	fs := inputfs.Files{
		{Path: "a.html", Language: inputfs.LanguageHTML, Type: inputfs.TypeMain},
		{Path: "b.jsp", Language: inputfs.LanguageJSP, Type: inputfs.TypeMain},
		{Path: "c.php", Type: inputfs.TypeMain},
		{Path: "d.VUE", Type: inputfs.TypeMain},
		{Path: "e.spec.html", Language: inputfs.LanguageHTML, Type: inputfs.TypeTest},
		{Path: "f.txt", Type: inputfs.TypeMain},
		{Path: "g.inc", Type: inputfs.TypeMain},
	}

	got, err := fs.InputFiles(newSensor(t).Predicate())
	require.NoError(t, err)
	var paths []string
	for _, f := range got {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.html", "b.jsp", "c.php", "d.VUE", "g.inc"}, paths)

	got, err = fs.InputFiles(newSensor(t, WithSuffixes("txt")).Predicate())
	require.NoError(t, err)
	paths = paths[:0]
	for _, f := range got {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.html", "b.jsp", "f.txt"}, paths)
}

func TestWithRules(t *testing.T) {
	dir := testutils.CreateTempSite(t, map[string]string{"a.html": `<video autoplay></video>`})
	fs := inputfs.Files{inputfs.NewInputFile(filepath.Join(dir, "a.html"))}

	s := newSensor(t, WithRules(nil, []string{"GCI8000"}))
	assert.Empty(t, s.ActiveRules())

	c := report.NewCollector()
	require.NoError(t, s.Execute(context.Background(), fs, c))
	assert.Zero(t, c.IssueCount())
	assert.NotEmpty(t, c.Measures(fs[0].Path))

	s = newSensor(t, WithRules([]string{"EC8000"}, nil))
	assert.Equal(t, []string{"GCI8000"}, s.ActiveRules())

	_, err := New(rules.MustLoad(), WithRules([]string{"GCI9999"}, nil))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestExecute_Latin1Page(t *testing.T) {
	dir := testutils.CreateTempSite(t, map[string]string{
		"latin.html": "<meta charset=\"iso-8859-1\">\n<p>caf\xe9</p>\n<audio autoplay></audio>",
	})
	fs := inputfs.Files{inputfs.NewInputFile(filepath.Join(dir, "latin.html"))}

	c := report.NewCollector()
	require.NoError(t, newSensor(t, WithCharset("")).Execute(context.Background(), fs, c))

	issues := c.Issues(fs[0].Path)
	require.Len(t, issues, 1)
	assert.Equal(t, 3, issues[0].Line)
	assert.Empty(t, c.AnalysisErrors())
}

func TestExecute_DirFileSystem(t *testing.T) {
	dir := testutils.CreateTempSite(t, map[string]string{
		"index.html":         `<video autoplay></video>`,
		"player.spec.html":   `<video autoplay></video>`,
		"legacy/page.php":    `<?php echo 1; ?><audio autoplay></audio>`,
		"node_modules/x.vue": `<template><video autoplay></video></template>`,
		"notes.md":           `<video autoplay></video>`,
	})
	fs := inputfs.Dir{
		Roots:        []string{dir},
		Exclude:      []string{"node_modules"},
		TestPatterns: []string{"*.spec.html"},
	}

	c := report.NewCollector()
	require.NoError(t, newSensor(t).Execute(context.Background(), fs, c))

	assert.Equal(t, 2, c.IssueCount())
	assert.Len(t, c.Issues(filepath.Join(dir, "index.html")), 1)
	assert.Len(t, c.Issues(filepath.Join(dir, "legacy", "page.php")), 1)
}
