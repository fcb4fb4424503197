//go:build property

package watcher

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates the batching guarantees of the debouncer
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// Property: a burst is delivered once, one event per distinct path, sorted
	properties.Property("burst collapses to distinct sorted paths", prop.ForAll(
		func(ids []int) bool {
			if len(ids) == 0 {
				return true
			}

			d := newDebouncer(time.Millisecond)
			distinct := make(map[string]bool)
			for _, id := range ids {
				path := fmt.Sprintf("page%d.html", id)
				distinct[path] = true
				d.pending = append(d.pending, ChangeEvent{Type: EventTypeModified, Path: path})
			}
			d.flush()

			events := <-d.output
			if len(events) != len(distinct) {
				return false
			}
			return sort.SliceIsSorted(events, func(i, j int) bool { return events[i].Path < events[j].Path })
		},
		gen.SliceOf(gen.IntRange(0, 30)),
	))

	// Property: the last event for a path wins
	properties.Property("latest event wins", prop.ForAll(
		func(types []int) bool {
			if len(types) == 0 {
				return true
			}

			d := newDebouncer(time.Millisecond)
			for _, typ := range types {
				d.pending = append(d.pending, ChangeEvent{Type: EventType(typ), Path: "index.html"})
			}
			d.flush()

			events := <-d.output
			return len(events) == 1 && events[0].Type == EventType(types[len(types)-1])
		},
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
