// Package ratio keeps three linked percentage sliders within a 100% budget.
package ratio

import (
	"fmt"
	"math"
	"strings"
)

// Total is the budget the three percentages share.
const Total = 100

// Field names one of the three percentages.
type Field int

const (
	Humanities Field = iota
	Science
	Engineering
)

// Fields lists the fields in display order.
var Fields = []Field{Humanities, Science, Engineering}

func (f Field) String() string {
	switch f {
	case Humanities:
		return "humanities"
	case Science:
		return "science"
	case Engineering:
		return "engineering"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ParseField resolves a field name.
func ParseField(name string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "humanities":
		return Humanities, nil
	case "science":
		return Science, nil
	case "engineering":
		return Engineering, nil
	}
	return 0, fmt.Errorf("unknown ratio field %q", name)
}

// Triple holds the three percentages.
type Triple struct {
	Humanities  int
	Science     int
	Engineering int
}

// Get returns the value of a field.
func (t Triple) Get(f Field) int {
	switch f {
	case Science:
		return t.Science
	case Engineering:
		return t.Engineering
	default:
		return t.Humanities
	}
}

func (t *Triple) set(f Field, v int) {
	switch f {
	case Science:
		t.Science = v
	case Engineering:
		t.Engineering = v
	default:
		t.Humanities = v
	}
}

// Sum returns the combined percentage.
func (t Triple) Sum() int {
	return t.Humanities + t.Science + t.Engineering
}

// String formats the triple as h/s/e.
func (t Triple) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Humanities, t.Science, t.Engineering)
}

// others returns the two fields that absorb a change to f. The first one is
// rounded, the second takes the residue.
func others(f Field) (Field, Field) {
	switch f {
	case Science:
		return Humanities, Engineering
	case Engineering:
		return Humanities, Science
	default:
		return Science, Engineering
	}
}

// Rebalance sets changed to value and, when the sum then exceeds Total, shares
// the remaining budget between the other two fields in proportion to their
// current values. value is expected to be clamped already. When both other
// fields are zero nothing is redistributed and the sum may stay above Total.
func Rebalance(t Triple, changed Field, value int) Triple {
	t.set(changed, value)
	if t.Sum() <= Total {
		return t
	}
	a, b := others(changed)
	va, vb := t.Get(a), t.Get(b)
	if va+vb == 0 {
		return t
	}
	remaining := Total - value
	na := int(math.Round(float64(va) / float64(va+vb) * float64(remaining)))
	t.set(a, na)
	t.set(b, remaining-na)
	return t
}

// Bounds is a slider's declared range.
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds is the 0-100 slider range.
var DefaultBounds = Bounds{Min: 0, Max: Total}

// Clamp limits v to the bounds.
func (b Bounds) Clamp(v int) int {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Group is one independent set of three linked sliders.
type Group struct {
	bounds Bounds
	triple Triple
}

// NewGroup returns a group starting at initial with 0-100 sliders.
func NewGroup(initial Triple) *Group {
	return &Group{bounds: DefaultBounds, triple: initial}
}

// Triple returns the current values.
func (g *Group) Triple() Triple {
	return g.triple
}

// Set clamps value to the slider bounds and rebalances the group.
func (g *Group) Set(f Field, value int) Triple {
	g.triple = Rebalance(g.triple, f, g.bounds.Clamp(value))
	return g.triple
}

// Nudge moves a field by delta.
func (g *Group) Nudge(f Field, delta int) Triple {
	return g.Set(f, g.triple.Get(f)+delta)
}
