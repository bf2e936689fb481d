package interval

import "fmt"

// Range is a plain start-end interval with no payload. Two ranges are equal
// when their coordinates match.
type Range struct {
	Start int32
	Stop  int32
}

// NewRange creates a range over [start, stop].
func NewRange(start, stop int32) *Range {
	return &Range{Start: start, Stop: stop}
}

// Begin returns the inclusive lower bound.
func (r *Range) Begin() int32 {
	return r.Start
}

// End returns the inclusive upper bound.
func (r *Range) End() int32 {
	return r.Stop
}

// EqualsInterval reports coordinate equality with another range.
func (r *Range) EqualsInterval(i Interval) bool {
	o, ok := i.(*Range)
	return ok && r.Start == o.Start && r.Stop == o.Stop
}

func (r *Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.Stop)
}
