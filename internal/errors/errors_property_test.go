//go:build property

package errors

import (
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestErrorCollectorProperties validates error collection and aggregation properties
func TestErrorCollectorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: Error collector should handle concurrent error addition safely
	properties.Property("concurrent error addition is thread-safe", prop.ForAll(
		func(goroutineCount int, errorsPerGoroutine int) bool {
			collector := NewErrorCollector()

			var wg sync.WaitGroup
			for g := 0; g < goroutineCount; g++ {
				wg.Add(1)
				go func(goroutineID int) {
					defer wg.Done()
					for e := 0; e < errorsPerGoroutine; e++ {
						collector.Add(FileError{
							File:     fmt.Sprintf("page_%d_%d.html", goroutineID, e),
							Message:  "cannot read file",
							Severity: SeverityError,
						})
					}
				}(g)
			}
			wg.Wait()

			return len(collector.GetErrors()) == goroutineCount*errorsPerGoroutine
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 50),
	))

	// Property: errors grouped by file partition the collected errors
	properties.Property("errors by file partition all errors", prop.ForAll(
		func(files []int) bool {
			collector := NewErrorCollector()
			counts := make(map[string]int)
			for _, f := range files {
				name := fmt.Sprintf("page%d.html", f)
				counts[name]++
				collector.Add(FileError{File: name, Message: "boom"})
			}

			total := 0
			for name, want := range counts {
				got := collector.GetErrorsByFile(name)
				if len(got) != want {
					return false
				}
				total += len(got)
			}
			return total == len(collector.GetErrors())
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	// Property: every added error carries a timestamp
	properties.Property("timestamps are filled in", prop.ForAll(
		func(n int) bool {
			collector := NewErrorCollector()
			for i := 0; i < n; i++ {
				collector.Add(FileError{File: "a.html"})
			}
			for _, fe := range collector.GetErrors() {
				if fe.Timestamp.IsZero() {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 20),
	))

	// Property: Clear empties the collector
	properties.Property("clear removes everything", prop.ForAll(
		func(fileErrs, generic int) bool {
			collector := NewErrorCollector()
			for i := 0; i < fileErrs; i++ {
				collector.Add(FileError{File: "a.html"})
			}
			for i := 0; i < generic; i++ {
				collector.AddError(fmt.Errorf("error %d", i))
			}
			if collector.HasErrors() != (fileErrs+generic > 0) {
				return false
			}
			if len(collector.GetAllErrors()) != fileErrs+generic {
				return false
			}
			collector.Clear()
			return !collector.HasErrors() && len(collector.GetAllErrors()) == 0
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// TestWrapProperties validates that wrapping keeps what callers rely on
func TestWrapProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: the location of an analysis error survives any number of wraps
	properties.Property("location survives re-wrapping", prop.ForAll(
		func(line, column, depth int) bool {
			var err error = NewLexError(ErrCodeDecodeFailed, "bad bytes", nil).
				WithLocation("index.html", line, column)
			for i := 0; i < depth; i++ {
				err = Wrap(err, ErrorTypeAnalysis, ErrCodeInternalError, fmt.Sprintf("layer %d", i))
			}

			ae := err.(*AnalysisError)
			return ae.FilePath == "index.html" && ae.Line == line && ae.Column == column
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 200),
		gen.IntRange(0, 5),
	))

	// Property: Message contains every layer, outermost first
	properties.Property("message lists every layer", prop.ForAll(
		func(depth int) bool {
			var err error = fmt.Errorf("root cause")
			for i := 0; i < depth; i++ {
				err = Wrap(err, ErrorTypeIO, ErrCodeReadFailed, fmt.Sprintf("layer %d", i))
			}

			want := "root cause"
			for i := 0; i < depth; i++ {
				want = fmt.Sprintf("layer %d: %s", i, want)
			}
			return Message(err) == want
		},
		gen.IntRange(0, 6),
	))

	// Property: FromPanic always yields an analysis error naming the rule
	properties.Property("panics become analysis errors", prop.ForAll(
		func(value string, rule string) bool {
			ae := FromPanic(value, rule)
			return IsType(ae, ErrorTypeAnalysis) && ae.Rule == rule && ae.Code == ErrCodeCheckPanicked
		},
		gen.AnyString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
