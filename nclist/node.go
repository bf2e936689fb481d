package nclist

import (
	"strings"

	"github.com/inodb/vibe-intervals/interval"
)

// Node wraps one root interval and an optional sub-list of intervals nested
// within it.
type Node struct {
	region     interval.Interval
	subregions *NCList
}

// newNode creates a leaf node for a single interval.
func newNode(region interval.Interval) *Node {
	return &Node{region: region}
}

// newNodeFromSorted creates a node rooted on ranges[0], with any remaining
// entries forming its nested sub-list. ranges must already be sorted
// big-endian with every entry contained by ranges[0].
func newNodeFromSorted(ranges []interval.Interval) *Node {
	n := &Node{region: ranges[0]}
	if len(ranges) > 1 {
		n.subregions = newFromSorted(ranges[1:])
	}
	return n
}

// Begin returns the inclusive lower bound of the node's root interval.
func (n *Node) Begin() int32 {
	return n.region.Begin()
}

// End returns the inclusive upper bound of the node's root interval.
func (n *Node) End() int32 {
	return n.region.End()
}

// Region returns the node's root interval.
func (n *Node) Region() interval.Interval {
	return n.region
}

// SubRegions returns the nested sub-list, or nil if the node is a leaf.
func (n *Node) SubRegions() *NCList {
	return n.subregions
}

// Size returns the number of intervals in the node's subtree, including the
// root.
func (n *Node) Size() int {
	if n.subregions == nil {
		return 1
	}
	return 1 + n.subregions.Size()
}

// Depth returns the length of the longest containment chain in the subtree.
func (n *Node) Depth() int {
	if n.subregions == nil {
		return 1
	}
	return 1 + n.subregions.Depth()
}

// addNode pushes other into this node's sub-list. The caller must have
// verified containment.
func (n *Node) addNode(other *Node) {
	if n.subregions == nil {
		n.subregions = New(nil)
	}
	n.subregions.addNode(other)
}

// appendOverlaps adds the root interval to result if it overlaps [from, to],
// then recurses into the sub-list.
func (n *Node) appendOverlaps(from, to int32, result []interval.Interval) []interval.Interval {
	if interval.OverlapsRange(n.region, from, to) {
		result = append(result, n.region)
	}
	if n.subregions != nil {
		result = n.subregions.AppendOverlaps(from, to, result)
	}
	return result
}

// contains reports whether the subtree holds an interval equal to entry.
func (n *Node) contains(entry interval.Interval) bool {
	if n.region.EqualsInterval(entry) {
		return true
	}
	return n.subregions != nil && n.subregions.Contains(entry)
}

// remove deletes the first interval in the sub-list equal to entry. The root
// interval itself is handled by the parent NCList. An emptied sub-list is
// dropped.
func (n *Node) remove(entry interval.Interval) bool {
	if n.subregions == nil || !n.subregions.Remove(entry) {
		return false
	}
	if n.subregions.isEmpty() {
		n.subregions = nil
	}
	return true
}

// appendEntries adds the subtree's intervals to result, root first.
func (n *Node) appendEntries(result []interval.Interval) []interval.Interval {
	result = append(result, n.region)
	if n.subregions != nil {
		result = n.subregions.appendEntries(result)
	}
	return result
}

// isValid checks the subtree's structure: the region has ordered endpoints
// and the sub-list obeys the nesting rules within the region's bounds.
func (n *Node) isValid() bool {
	if n.region == nil || n.region.Begin() > n.region.End() {
		return false
	}
	if n.subregions == nil {
		return true
	}
	if n.subregions.isEmpty() {
		// an empty sub-list should have been nilled out
		return false
	}
	return n.subregions.isValidRange(n.region.Begin(), n.region.End())
}

func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString(stringify(n.region))
	if n.subregions != nil {
		sb.WriteString(" ")
		sb.WriteString(n.subregions.String())
	}
	return sb.String()
}

// prettyPrint writes the subtree in indented form.
func (n *Node) prettyPrint(sb *strings.Builder, offset, indent int) {
	for i := 0; i < offset; i++ {
		sb.WriteByte(' ')
	}
	sb.WriteString(stringify(n.region))
	if n.subregions != nil {
		sb.WriteByte('\n')
		n.subregions.prettyPrint(sb, offset+indent, indent)
	}
}
