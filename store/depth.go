package store

import (
	"sort"

	"github.com/inodb/vibe-intervals/interval"
)

// containmentDepth answers the maximum containment chain length in a
// big-endian sorted slice: 0 when empty, 1 when no interval properly
// contains another. A single sweep keeps the stack of enclosing ancestors;
// big-endian order guarantees every container is visited before its
// contents.
func containmentDepth(sorted []interval.Interval) int {
	maxDepth := 0
	stack := make([]interval.Interval, 0, 8)
	for _, iv := range sorted {
		for len(stack) > 0 && !interval.ProperlyContains(stack[len(stack)-1], iv) {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, iv)
		if len(stack) > maxDepth {
			maxDepth = len(stack)
		}
	}
	return maxDepth
}

// topLevelWidth answers the number of intervals in a big-endian sorted slice
// that are not properly contained by any other.
func topLevelWidth(sorted []interval.Interval) int {
	width := 0
	stack := make([]interval.Interval, 0, 8)
	for _, iv := range sorted {
		for len(stack) > 0 && !interval.ProperlyContains(stack[len(stack)-1], iv) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			width++
		}
		stack = append(stack, iv)
	}
	return width
}

// sortBigEndian sorts a slice of intervals in place under the big-endian
// comparator.
func sortBigEndian(ivs []interval.Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		return interval.CompareBigEndian(ivs[i], ivs[j]) < 0
	})
}
