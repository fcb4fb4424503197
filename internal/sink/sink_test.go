package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ecohtml/internal/errors"
	"github.com/conneroisu/ecohtml/internal/tree"
)

func TestNewPreciseIssue(t *testing.T) {
	rng := tree.Range{Start: tree.Position{Line: 2, Column: 3}, End: tree.Position{Line: 2, Column: 20}}

	issue, err := NewPreciseIssue("GCI8000", rng, "msg")
	require.NoError(t, err)
	assert.True(t, issue.Precise())
	assert.Equal(t, 2, issue.Line)
	assert.Equal(t, rng, *issue.Range)
}

func TestNewPreciseIssue_RejectsReversedRange(t *testing.T) {
	rng := tree.Range{Start: tree.Position{Line: 5, Column: 1}, End: tree.Position{Line: 4, Column: 1}}

	_, err := NewPreciseIssue("GCI8000", rng, "msg")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestIssue_WithCost(t *testing.T) {
	issue := NewIssue("GCI8000", 1, "msg")
	costly := issue.WithCost(5)

	assert.Nil(t, issue.Cost)
	require.NotNil(t, costly.Cost)
	assert.Equal(t, 5.0, *costly.Cost)
	assert.False(t, costly.Precise())
}

func TestSourceCode_NoDeduplication(t *testing.T) {
	src := NewSourceCode("page.html")
	issue := NewIssue("GCI8000", 3, "same")

	src.AddIssue(issue)
	src.AddIssue(issue)
	src.AddIssue(NewIssue("GCI8001", 1, "other"))

	issues := src.Issues()
	require.Len(t, issues, 3)
	assert.Equal(t, "GCI8000", issues[0].RuleKey)
	assert.Equal(t, "GCI8001", issues[2].RuleKey)

	// returned slice is a copy
	issues[0].Message = "changed"
	assert.Equal(t, "same", src.Issues()[0].Message)
}

func TestSourceCode_Measures(t *testing.T) {
	src := NewSourceCode("page.html")
	src.AddMeasure(MetricNCLOC, 4)
	src.AddMeasure(MetricLines, 10)
	src.AddMeasure(MetricComplexity, 1)
	src.AddMeasure(MetricLines, 12)

	assert.Equal(t, []Measure{
		{Kind: MetricComplexity, Value: 1},
		{Kind: MetricLines, Value: 12},
		{Kind: MetricNCLOC, Value: 4},
	}, src.Measures())

	v, ok := src.Measure(MetricLines)
	assert.True(t, ok)
	assert.Equal(t, 12, v)
	_, ok = src.Measure(MetricElements)
	assert.False(t, ok)
	assert.Equal(t, "page.html", src.Path())
}
