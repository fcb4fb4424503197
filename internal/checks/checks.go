// Package checks holds the rule checks and metric visitors run by the
// sensor. Every check is independent of the others and keeps its per-file
// state in the visitor.Context.
package checks

import "github.com/conneroisu/ecohtml/internal/visitor"

// Descriptor ties a rule key to a constructor for its check.
type Descriptor struct {
	Key string
	New func() visitor.Check
}

// All returns every rule check in registration order.
func All() []Descriptor {
	return []Descriptor{
		{Key: AvoidAutoplayKey, New: func() visitor.Check { return AvoidAutoplay{} }},
	}
}

// Metrics returns the visitors computing per-file measures.
func Metrics() []visitor.Check {
	return []visitor.Check{Lines{}, Complexity{}}
}
