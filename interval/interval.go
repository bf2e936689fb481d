// Package interval defines the interval capability shared by all engines:
// begin/end accessors, value equality, the two endian orderings, and the
// binary search primitives the engines are built on.
package interval

import "math"

// Reserved sentinels on the int32 coordinate space. Engines use these
// internally for parent bookkeeping; user intervals never carry them.
const (
	NotContained       = math.MinInt32
	ContainmentUnknown = 0
)

// Interval is the minimal contract every stored element obeys. Begin and End
// are inclusive bounds with Begin <= End; behaviour for Begin > End is
// undefined. EqualsInterval is value equality including any payload, so two
// intervals with identical coordinates but different payloads are not equal.
type Interval interface {
	Begin() int32
	End() int32
	EqualsInterval(other Interval) bool
}

// CompareBigEndian orders by begin ascending, ties broken by end descending,
// so [10,100] sorts ahead of [10,80]. A stable big-endian sort places every
// container immediately before the intervals it contains, which is what the
// nest-building sweeps rely on.
func CompareBigEndian(a, b Interval) int {
	if c := compareInt32(a.Begin(), b.Begin()); c != 0 {
		return c
	}
	return compareInt32(b.End(), a.End())
}

// CompareLittleEndian orders by begin ascending, ties broken by end
// ascending, so [10,80] sorts ahead of [10,100].
func CompareLittleEndian(a, b Interval) int {
	if c := compareInt32(a.Begin(), b.Begin()); c != 0 {
		return c
	}
	return compareInt32(a.End(), b.End())
}

func compareInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Overlaps returns true if a and b share at least one position.
func Overlaps(a, b Interval) bool {
	return a.Begin() <= b.End() && b.Begin() <= a.End()
}

// OverlapsRange returns true if i shares at least one position with [from, to].
func OverlapsRange(i Interval, from, to int32) bool {
	return i.Begin() <= to && i.End() >= from
}

// Contains returns true if outer contains (or matches) inner, based solely on
// coordinates.
func Contains(outer, inner Interval) bool {
	return inner.Begin() >= outer.Begin() && inner.End() <= outer.End()
}

// ProperlyContains returns true if outer contains inner and they differ in at
// least one endpoint.
func ProperlyContains(outer, inner Interval) bool {
	return Contains(outer, inner) &&
		(inner.Begin() > outer.Begin() || inner.End() < outer.End())
}
