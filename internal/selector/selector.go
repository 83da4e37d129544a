// Package selector decides which optional package categories an invocation asks for.
package selector

import (
	"strings"

	"github.com/frederic-klein/yadi/internal/deps"
)

// Selection is the set of optional categories to install after runtime.
type Selection struct {
	chosen map[deps.Category]bool
}

// New returns a selection with the given categories. Runtime is ignored.
func New(categories ...deps.Category) Selection {
	s := Selection{chosen: make(map[deps.Category]bool)}
	for _, c := range categories {
		s = s.With(c)
	}
	return s
}

// FromArgs selects every optional category whose trigger word occurs
// anywhere in the space-joined arguments. Matching is by substring, so
// "no-include-test" still selects the test category; generated install
// scripts have always behaved this way.
func FromArgs(args []string) Selection {
	joined := strings.Join(args, " ")

	s := New()
	for _, c := range deps.Optional {
		if strings.Contains(joined, c.Flag()) {
			s = s.With(c)
		}
	}
	return s
}

// With returns a copy of the selection with c added.
func (s Selection) With(c deps.Category) Selection {
	if c == deps.Runtime {
		return s
	}
	out := Selection{chosen: make(map[deps.Category]bool, len(s.chosen)+1)}
	for k := range s.chosen {
		out.chosen[k] = true
	}
	out.chosen[c] = true
	return out
}

// Merge returns the union of two selections.
func (s Selection) Merge(other Selection) Selection {
	out := s
	for c := range other.chosen {
		out = out.With(c)
	}
	return out
}

// Has reports whether c is selected. Runtime is always selected.
func (s Selection) Has(c deps.Category) bool {
	return c == deps.Runtime || s.chosen[c]
}

// Categories returns the selected optional categories in install order.
func (s Selection) Categories() []deps.Category {
	var out []deps.Category
	for _, c := range deps.Optional {
		if s.chosen[c] {
			out = append(out, c)
		}
	}
	return out
}

// String lists the selected categories, e.g. "runtime+debug+test".
func (s Selection) String() string {
	parts := []string{string(deps.Runtime)}
	for _, c := range s.Categories() {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, "+")
}
