// Package nclist implements a Nested Containment List, as described in
// Alekseyenko & Lee, "Nested Containment List (NCList): a new algorithm for
// accelerating interval query of genome alignment and interval databases"
// (doi:10.1093/bioinformatics/btl647).
package nclist

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-intervals/interval"
)

// ErrInvalidContainment reports an internal precondition failure: a node was
// asked to enclose an interval that its range does not contain. It is raised
// by panic, since it indicates a bug in the engine rather than user misuse.
var ErrInvalidContainment = errors.New("invalid containment")

// NCList stores intervals as a list, ordered by start position, of nodes
// whose sub-lists hold the intervals nested within them. Overlap queries
// bound their scan with a binary search at each level.
type NCList struct {
	// subranges is ordered by start ascending; no subrange properly
	// contains a sibling
	subranges []*Node
	size      int
	logger    *zap.Logger
}

// New builds an NCList from the given intervals. The slice may be reordered
// as a side effect; nil entries are skipped.
func New(ranges []interval.Interval) *NCList {
	l := &NCList{logger: zap.NewNop()}
	if len(ranges) == 0 {
		return l
	}
	valid := make([]interval.Interval, 0, len(ranges))
	for _, r := range ranges {
		if r != nil {
			valid = append(valid, r)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return interval.CompareBigEndian(valid[i], valid[j]) < 0
	})
	l.build(valid)
	return l
}

// newFromSorted builds an NCList over intervals already in big-endian order.
func newFromSorted(sorted []interval.Interval) *NCList {
	l := &NCList{logger: zap.NewNop()}
	l.build(sorted)
	return l
}

// SetLogger sets the logger used to report structural check failures.
func (l *NCList) SetLogger(lg *zap.Logger) {
	l.logger = lg
}

// build partitions the sorted input into maximal nested subranges and
// converts each to a node.
func (l *NCList) build(sorted []interval.Interval) {
	for _, sub := range PartitionNestedSublists(sorted) {
		l.subranges = append(l.subranges,
			newNodeFromSorted(sorted[sub[0]:sub[1]+1]))
	}
	l.size = len(sorted)
}

// PartitionNestedSublists sweeps big-endian sorted input and answers the
// inclusive index ranges of its maximal subranges: runs in which each entry
// is properly contained by the run's first interval. Shared with the
// list-plus-NCList store, whose bulk constructor splits input on the same
// partition.
func PartitionNestedSublists(sorted []interval.Interval) [][2]int {
	var sublists [][2]int
	if len(sorted) == 0 {
		return sublists
	}
	listStart := 0
	lastParent := sorted[0]
	for i := 1; i < len(sorted); i++ {
		next := sorted[i]
		if !interval.ProperlyContains(lastParent, next) {
			sublists = append(sublists, [2]int{listStart, i - 1})
			listStart = i
			lastParent = next
		}
	}
	return append(sublists, [2]int{listStart, len(sorted) - 1})
}

// Add inserts one interval. Returns false only for a nil interval.
func (l *NCList) Add(entry interval.Interval) bool {
	if entry == nil {
		return false
	}
	l.addNode(newNode(entry))
	return true
}

// addNode inserts a node (and its subtree) at the correct position.
//
// Cases at each level:
//  1. precedes all subranges: prepend
//  2. follows all subranges: append
//  3. coordinates match a subrange: insert adjacent
//  4. properly enclosed by a subrange: recurse into it
//  5. properly encloses one or more subranges: push them inside it
//  6. spans two subranges without enclosing either: insert between them
func (l *NCList) addNode(newNode *Node) {
	start := newNode.Begin()
	end := newNode.End()
	l.size += newNode.Size()

	candidateIndex := l.findFirstOverlap(start)

	enclosing := false
	firstEnclosed := 0
	lastEnclosed := 0

	for j := candidateIndex; j < len(l.subranges); j++ {
		subrange := l.subranges[j]

		if subrange.Begin() == start && subrange.End() == end {
			// matching interval: insert adjacent
			l.insertAt(j, newNode)
			return
		}

		if end < subrange.Begin() && !enclosing {
			// lies between subranges j-1 and j
			l.insertAt(j, newNode)
			return
		}

		if interval.ProperlyContains(subrange.region, newNode.region) {
			subrange.addNode(newNode)
			return
		}

		if start <= subrange.Begin() {
			if end >= subrange.End() {
				// encloses this subrange; extend the enclosed run
				if !enclosing {
					firstEnclosed = j
				}
				lastEnclosed = j
				enclosing = true
				continue
			}
			if enclosing {
				l.push(newNode, firstEnclosed, lastEnclosed)
			} else {
				// overlaps two subranges without enclosing either
				l.insertAt(j, newNode)
			}
			return
		}
	}

	// encloses all remaining subranges, or follows the last one
	if enclosing {
		l.push(newNode, firstEnclosed, lastEnclosed)
	} else {
		l.subranges = append(l.subranges, newNode)
	}
}

// push replaces subranges i..j (inclusive) with node, moving them inside it.
// Panics with ErrInvalidContainment if any of them lies outside node's range.
func (l *NCList) push(node *Node, i, j int) {
	for k := i; k <= j; k++ {
		n := l.subranges[k]
		if !interval.Contains(node.region, n.region) {
			panic(fmt.Errorf("%w: cannot push %s inside %s",
				ErrInvalidContainment, stringify(n.region), stringify(node.region)))
		}
		node.addNode(n)
	}
	rest := l.subranges[j+1:]
	l.subranges = append(l.subranges[:i], node)
	l.subranges = append(l.subranges, rest...)
}

// insertAt places node at index i in the sibling list.
func (l *NCList) insertAt(i int, node *Node) {
	l.subranges = append(l.subranges, nil)
	copy(l.subranges[i+1:], l.subranges[i:])
	l.subranges[i] = node
}

// removeAt deletes the node at index i from the sibling list.
func (l *NCList) removeAt(i int) {
	copy(l.subranges[i:], l.subranges[i+1:])
	l.subranges[len(l.subranges)-1] = nil
	l.subranges = l.subranges[:len(l.subranges)-1]
}

// findFirstOverlap answers the index of the first subrange whose end is not
// before from, or the number of subranges if none qualifies. Sibling ends are
// non-decreasing, so a binary search applies.
func (l *NCList) findFirstOverlap(from int32) int {
	return sort.Search(len(l.subranges), func(i int) bool {
		return l.subranges[i].End() >= from
	})
}

// FindOverlaps returns every stored interval overlapping [from, to].
func (l *NCList) FindOverlaps(from, to int32) []interval.Interval {
	return l.AppendOverlaps(from, to, nil)
}

// AppendOverlaps appends every stored interval overlapping [from, to] to
// result and returns the extended slice.
func (l *NCList) AppendOverlaps(from, to int32, result []interval.Interval) []interval.Interval {
	for i := l.findFirstOverlap(from); i < len(l.subranges); i++ {
		candidate := l.subranges[i]
		if candidate.Begin() > to {
			// past the end of the target range
			break
		}
		result = candidate.appendOverlaps(from, to, result)
	}
	return result
}

// Contains reports whether the list holds an interval equal to entry under
// EqualsInterval.
func (l *NCList) Contains(entry interval.Interval) bool {
	if entry == nil {
		return false
	}
	to := entry.End()
	for i := l.findFirstOverlap(entry.Begin()); i < len(l.subranges); i++ {
		candidate := l.subranges[i]
		if candidate.Begin() > to {
			break
		}
		if candidate.contains(entry) {
			return true
		}
	}
	return false
}

// Remove deletes the first interval equal to entry under EqualsInterval.
// If the removed interval had nested children they are promoted, each
// re-inserted at the current level.
func (l *NCList) Remove(entry interval.Interval) bool {
	if entry == nil {
		return false
	}
	for i := l.findFirstOverlap(entry.Begin()); i < len(l.subranges); i++ {
		subrange := l.subranges[i]
		if subrange.Begin() > entry.Begin() {
			return false
		}
		if subrange.region.EqualsInterval(entry) {
			sub := subrange.subregions
			l.removeAt(i)
			l.size -= subrange.Size()
			if sub != nil {
				for _, r := range sub.subranges {
					l.addNode(r)
				}
			}
			return true
		}
		if subrange.remove(entry) {
			l.size--
			return true
		}
	}
	return false
}

// Size returns the number of intervals stored.
func (l *NCList) Size() int {
	return l.size
}

func (l *NCList) isEmpty() bool {
	return l.size == 0
}

// Depth returns the maximum containment chain length, 0 for an empty list.
func (l *NCList) Depth() int {
	depth := 0
	for _, subrange := range l.subranges {
		if d := subrange.Depth(); d > depth {
			depth = d
		}
	}
	return depth
}

// Entries returns all stored intervals in depth-first order.
func (l *NCList) Entries() []interval.Interval {
	return l.appendEntries(make([]interval.Interval, 0, l.size))
}

func (l *NCList) appendEntries(result []interval.Interval) []interval.Interval {
	for _, subrange := range l.subranges {
		result = subrange.appendEntries(result)
	}
	return result
}

// Clear empties the list.
func (l *NCList) Clear() {
	l.subranges = nil
	l.size = 0
}

// IsValid checks the structure: the interval count is consistent, each
// sub-list is ordered by start ascending, every child lies within its parent,
// and no sibling properly contains an adjacent sibling. For use in testing
// and debugging.
func (l *NCList) IsValid() bool {
	count := 0
	for _, subrange := range l.subranges {
		count += subrange.Size()
	}
	if count != l.size {
		l.logger.Warn("nclist size mismatch",
			zap.Int("counted", count), zap.Int("size", l.size))
		return false
	}
	return l.isValidRange(math.MinInt32, math.MaxInt32)
}

func (l *NCList) isValidRange(start, end int32) bool {
	var last *Node
	for _, subrange := range l.subranges {
		if subrange.Begin() < start || subrange.End() > end {
			l.logger.Warn("nclist subrange outside parent bounds",
				zap.String("subrange", stringify(subrange.region)),
				zap.Int32("start", start), zap.Int32("end", end))
			return false
		}
		if last != nil {
			if subrange.Begin() < last.Begin() {
				l.logger.Warn("nclist subranges out of order",
					zap.String("subrange", stringify(subrange.region)),
					zap.String("previous", stringify(last.region)))
				return false
			}
			if interval.ProperlyContains(subrange.region, last.region) ||
				interval.ProperlyContains(last.region, subrange.region) {
				l.logger.Warn("nclist sibling containment",
					zap.String("subrange", stringify(subrange.region)),
					zap.String("previous", stringify(last.region)))
				return false
			}
		}
		last = subrange
		if !subrange.isValid() {
			return false
		}
	}
	return true
}

// String formats the list as a bracketed tree, e.g.
// [1-100 [10-30 [10-20]], 150-300 [200-200]].
func (l *NCList) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, subrange := range l.subranges {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(subrange.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// PrettyPrint returns the list as an indented tree, one interval per line.
func (l *NCList) PrettyPrint() string {
	var sb strings.Builder
	l.prettyPrint(&sb, 0, 2)
	sb.WriteByte('\n')
	return sb.String()
}

func (l *NCList) prettyPrint(sb *strings.Builder, offset, indent int) {
	for i, subrange := range l.subranges {
		if i > 0 {
			sb.WriteByte('\n')
		}
		subrange.prettyPrint(sb, offset, indent)
	}
}

func stringify(i interval.Interval) string {
	if s, ok := i.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%d-%d", i.Begin(), i.End())
}
