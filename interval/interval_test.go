package interval

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareBigEndian(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Range
		expected int
	}{
		{"a before b", NewRange(1, 5), NewRange(2, 5), -1},
		{"a after b", NewRange(3, 5), NewRange(2, 9), 1},
		{"equal", NewRange(2, 5), NewRange(2, 5), 0},
		{"same begin longer first", NewRange(10, 100), NewRange(10, 80), -1},
		{"same begin shorter second", NewRange(10, 80), NewRange(10, 100), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompareBigEndian(tt.a, tt.b))
		})
	}
}

func TestCompareLittleEndian(t *testing.T) {
	// little-endian reverses only the tie-break direction
	assert.Equal(t, 1, CompareLittleEndian(NewRange(10, 100), NewRange(10, 80)))
	assert.Equal(t, -1, CompareLittleEndian(NewRange(10, 80), NewRange(10, 100)))
	assert.Equal(t, -1, CompareLittleEndian(NewRange(1, 5), NewRange(2, 2)))
	assert.Equal(t, 0, CompareLittleEndian(NewRange(2, 5), NewRange(2, 5)))
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Range
		expected bool
	}{
		{"disjoint before", NewRange(1, 5), NewRange(6, 10), false},
		{"touching endpoints", NewRange(1, 5), NewRange(5, 10), true},
		{"partial overlap", NewRange(1, 7), NewRange(5, 10), true},
		{"containment", NewRange(1, 10), NewRange(3, 4), true},
		{"zero width", NewRange(5, 5), NewRange(5, 5), true},
		{"disjoint after", NewRange(20, 30), NewRange(1, 19), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.expected, Overlaps(tt.b, tt.a))
			assert.Equal(t, tt.expected, OverlapsRange(tt.a, tt.b.Begin(), tt.b.End()))
		})
	}
}

func TestContainment(t *testing.T) {
	outer := NewRange(10, 20)

	assert.True(t, Contains(outer, NewRange(10, 20)))
	assert.True(t, Contains(outer, NewRange(12, 18)))
	assert.False(t, Contains(outer, NewRange(9, 20)))
	assert.False(t, Contains(outer, NewRange(10, 21)))

	assert.False(t, ProperlyContains(outer, NewRange(10, 20)))
	assert.True(t, ProperlyContains(outer, NewRange(10, 19)))
	assert.True(t, ProperlyContains(outer, NewRange(11, 20)))
	assert.True(t, ProperlyContains(outer, NewRange(12, 18)))
}

func TestRangeEquality(t *testing.T) {
	assert.True(t, NewRange(1, 2).EqualsInterval(NewRange(1, 2)))
	assert.False(t, NewRange(1, 2).EqualsInterval(NewRange(1, 3)))
	// a range is never equal to a feature, even with matching coordinates
	assert.False(t, NewRange(1, 2).EqualsInterval(NewFeature(1, 2, "")))
}

func TestFeatureEquality(t *testing.T) {
	assert.True(t, NewFeature(1, 2, "x").EqualsInterval(NewFeature(1, 2, "x")))
	assert.False(t, NewFeature(1, 2, "x").EqualsInterval(NewFeature(1, 2, "y")))
	assert.False(t, NewFeature(1, 2, "x").EqualsInterval(NewRange(1, 2)))
}

func sortedRanges(pairs ...[2]int32) []Interval {
	ivs := make([]Interval, len(pairs))
	for i, p := range pairs {
		ivs[i] = NewRange(p[0], p[1])
	}
	sort.SliceStable(ivs, func(i, j int) bool {
		return CompareBigEndian(ivs[i], ivs[j]) < 0
	})
	return ivs
}

func TestFirstEndNotBefore(t *testing.T) {
	// ends ascending, as in any nest block
	a := sortedRanges([2]int32{1, 3}, [2]int32{4, 6}, [2]int32{7, 9}, [2]int32{10, 12})

	assert.Equal(t, 0, FirstEndNotBefore(a, 0, 0, 3))
	assert.Equal(t, 0, FirstEndNotBefore(a, 3, 0, 3))
	assert.Equal(t, 1, FirstEndNotBefore(a, 4, 0, 3))
	assert.Equal(t, 3, FirstEndNotBefore(a, 12, 0, 3))
	assert.Equal(t, 4, FirstEndNotBefore(a, 13, 0, 3))
	// restricted subrange
	assert.Equal(t, 2, FirstEndNotBefore(a, 0, 2, 3))
	assert.Equal(t, 4, FirstEndNotBefore(a, 13, 2, 3))
}

func TestLastBeginNotAfter(t *testing.T) {
	a := sortedRanges([2]int32{1, 3}, [2]int32{4, 6}, [2]int32{7, 9})

	assert.Equal(t, -1, LastBeginNotAfter(a, 0))
	assert.Equal(t, 0, LastBeginNotAfter(a, 1))
	assert.Equal(t, 0, LastBeginNotAfter(a, 3))
	assert.Equal(t, 1, LastBeginNotAfter(a, 6))
	assert.Equal(t, 2, LastBeginNotAfter(a, 100))
	assert.Equal(t, -1, LastBeginNotAfter(nil, 5))
}

func TestIdentitySearch(t *testing.T) {
	features := []Interval{
		NewFeature(10, 20, "a"),
		NewFeature(10, 20, "b"),
		NewFeature(10, 20, "c"),
		NewFeature(15, 21, "d"),
		NewFeature(20, 30, "e"),
	}

	for i, f := range features {
		target := NewFeature(f.Begin(), f.End(), f.(*Feature).Description)
		assert.Equal(t, i, IdentitySearch(features, target, true, nil),
			"IdentitySearch(%v)", target)
	}

	// missing: equal coordinates, unknown description
	pt := IdentitySearch(features, NewFeature(10, 20, "zzz"), true, nil)
	assert.Negative(t, pt)

	// missing entirely: returns -1-insertionPoint
	assert.Equal(t, -1-5, IdentitySearch(features, NewFeature(25, 30, "x"), true, nil))
	assert.Equal(t, -1-0, IdentitySearch(features, NewFeature(5, 8, "x"), true, nil))
}

func TestIdentitySearchSkip(t *testing.T) {
	features := []Interval{
		NewFeature(10, 20, "a"),
		NewFeature(10, 20, "a"),
	}

	// masking index 0 finds the duplicate at index 1
	skip := func(i int) bool { return i == 0 }
	assert.Equal(t, 1, IdentitySearch(features, NewFeature(10, 20, "a"), true, skip))

	// masking both reports not found
	skipAll := func(i int) bool { return true }
	assert.Negative(t, IdentitySearch(features, NewFeature(10, 20, "a"), true, skipAll))
}

func TestIdentitySearchLittleEndian(t *testing.T) {
	features := []Interval{
		NewFeature(10, 15, "a"),
		NewFeature(10, 20, "b"),
		NewFeature(12, 13, "c"),
	}

	for i, f := range features {
		target := NewFeature(f.Begin(), f.End(), f.(*Feature).Description)
		assert.Equal(t, i, IdentitySearch(features, target, false, nil))
	}
}
