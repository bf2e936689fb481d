// Package store provides interval store engines with logarithmic overlap
// queries: Store, backed by a top-level list plus a nested containment list,
// and Flat, which packs the same nesting relation into contiguous arrays.
package store

import (
	"math"
	"sort"
	"strings"

	"github.com/willf/bitset"
	"go.uber.org/zap"

	"github.com/inodb/vibe-intervals/interval"
)

const initialCapacity = 8

// Flat is a packed-array interval store. Intervals are kept in one sorted
// slice; the nesting relation is carried by a permutation array (nests) in
// which every parent's children occupy a contiguous, binary-searchable range.
// Two reserved pseudo-nodes index the upper levels: unnested holds the
// top-level intervals (those nested in no other) and is scanned without
// recursion, since its members carry no child blocks; root holds the
// intervals nested directly inside them, each heading its own subtree. With
// NoUnnest, root holds the top-level intervals themselves.
//
// Additions and removals are buffered: out-of-order adds land in the spare
// capacity at the top of the slice, threaded on per-position insertion
// chains; removals flip bits in a deletion bitmap. The next query or
// Revalidate call drains both buffers and rebuilds the nest arrays.
//
// Flat is not safe for concurrent use; mutation and query must be externally
// serialized.
type Flat struct {
	compare   func(a, b interval.Interval) int
	bigendian bool
	presort   bool
	unnest    bool

	isSorted  bool
	isTainted bool

	minStart int32
	maxStart int32
	maxEnd   int32

	// intervals has length == capacity; live entries occupy [0,count),
	// stashed additions grow down from the top
	intervals []interval.Interval
	offsets   []int
	count     int
	added     int

	deleted    int
	deletedSet *bitset.BitSet

	nests       []interval.Interval
	nestOffsets []int
	nestLengths []int
	root        int
	unnested    int

	logger *zap.Logger
}

// FlatOption configures a Flat store at construction.
type FlatOption func(*Flat)

// LittleEndian selects the little-endian ordering (begin ascending, ties by
// end ascending) instead of the default big-endian one.
func LittleEndian() FlatOption {
	return func(s *Flat) { s.bigendian = false }
}

// NoPresort disables ordered insertion; the store sorts in bulk on the first
// query instead. Speeds up initial loading at the cost of delaying the first
// FindOverlaps.
func NoPresort() FlatOption {
	return func(s *Flat) { s.presort = false }
}

// NoUnnest disables the separate unnested block; the top-level intervals then
// form the root nest, each with its own child block.
func NoUnnest() FlatOption {
	return func(s *Flat) { s.unnest = false }
}

// NewFlat creates a flat store seeded with the given intervals. The slice is
// not retained; nil entries are skipped.
func NewFlat(ivs []interval.Interval, opts ...FlatOption) *Flat {
	s := &Flat{
		bigendian: true,
		presort:   true,
		unnest:    true,
		minStart:  math.MaxInt32,
		maxStart:  math.MinInt32,
		maxEnd:    math.MinInt32,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.bigendian {
		s.compare = interval.CompareBigEndian
	} else {
		s.compare = interval.CompareLittleEndian
	}

	valid := make([]interval.Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv != nil {
			valid = append(valid, iv)
		}
	}
	if len(valid) > 0 {
		sort.SliceStable(valid, func(i, j int) bool {
			return s.compare(valid[i], valid[j]) < 0
		})
		s.intervals = valid
		s.count = len(valid)
	} else {
		s.intervals = make([]interval.Interval, initialCapacity)
	}

	if s.presort && s.count > 1 {
		s.updateMinMaxStart()
		s.isSorted = true
		s.isTainted = true
		s.ensureFinalized()
	} else {
		s.isSorted = s.presort
		s.isTainted = true
	}
	return s
}

// SetLogger sets the logger used to report structural check failures.
func (s *Flat) SetLogger(lg *zap.Logger) {
	s.logger = lg
}

// Add inserts one interval, allowing duplicates. Returns false for nil.
func (s *Flat) Add(iv interval.Interval) bool {
	return s.add(iv, true)
}

// AddIfAbsent inserts one interval unless an equal one (under EqualsInterval)
// is already stored.
func (s *Flat) AddIfAbsent(iv interval.Interval) bool {
	return s.add(iv, false)
}

// add writes the interval either at the sorted tail or into the fast-add
// buffer: the stash at the top of the spare capacity, linked to its logical
// position through the offsets insertion chains. The chains are merged back
// into sorted order by finalizeAddition, keeping the amortised cost of an
// ordered add at O(log N).
func (s *Flat) add(iv interval.Interval, allowDuplicates bool) bool {
	if iv == nil {
		return false
	}
	if s.deleted > 0 {
		s.finalizeDeletion()
	}
	if !s.isTainted {
		s.offsets = nil
		s.isTainted = true
	}

	index := s.count
	start := iv.Begin()

	if s.count+s.added+1 >= len(s.intervals) {
		grown := len(s.intervals) * 2
		if grown < initialCapacity {
			grown = initialCapacity
		}
		s.intervals = s.finalizeAddition(make([]interval.Interval, grown))
	}

	if s.presort && s.isSorted {
		if s.count > 0 {
			index = s.findInterval(iv)
			if !allowDuplicates && index >= 0 {
				return false
			}
			if index < 0 {
				index = -1 - index
			} else if index < s.count {
				index++
			}
			// an equal interval found inside a stash chain keeps its own
			// index as the chain key, so the new entry links directly
			// after it
		}
	} else {
		if !allowDuplicates && s.findInterval(iv) >= 0 {
			return false
		}
		s.isSorted = false
	}

	if index == s.count {
		s.intervals[s.count] = iv
		s.count++
	} else {
		s.added++
		pt := len(s.intervals) - s.added
		s.intervals[pt] = iv
		if s.offsets == nil {
			s.offsets = make([]int, len(s.intervals))
		}
		s.offsets[pt] = s.offsets[index]
		s.offsets[index] = pt
	}

	if start < s.minStart {
		s.minStart = start
	}
	if start > s.maxStart {
		s.maxStart = start
	}
	if iv.End() > s.maxEnd {
		s.maxEnd = iv.End()
	}
	return true
}

// finalizeAddition merges the insertion chains back into sorted position in
// a single reverse sweep, writing into dest (which may be the current slice)
// and returning it.
func (s *Flat) finalizeAddition(dest []interval.Interval) []interval.Interval {
	if dest == nil {
		dest = s.intervals
	}
	if s.added == 0 {
		if s.count > 0 && &dest[0] != &s.intervals[0] {
			copy(dest, s.intervals[:s.count])
		}
		return dest
	}

	// the array is [0..count) sorted, spare capacity, then (added) stashed
	// entries at the top; chains through offsets record where each stashed
	// entry belongs
	ntotal := s.count + s.added
	ptShift := ntotal
	for pt := s.count; pt >= 0; {
		pt0 := pt
		pt--
		for pt >= 0 && s.offsets[pt] == 0 {
			pt--
		}
		if pt < 0 {
			pt = 0
		}
		nOK := pt0 - pt
		// shift the run of already-placed intervals right
		ptShift -= nOK
		if nOK > 0 {
			copy(dest[ptShift:ptShift+nOK], s.intervals[pt:pt0])
		}
		if s.added == 0 {
			break
		}
		for offset := s.offsets[pt]; offset > 0; offset = s.offsets[offset] {
			ptShift--
			dest[ptShift] = s.intervals[offset]
			s.added--
		}
	}
	s.offsets = nil
	s.count = ntotal
	return dest
}

// findInterval finds the interval, or the position it should occupy, which
// may lie inside an insertion chain. Returns the index when found, or
// -1-insertionPoint when absent.
func (s *Flat) findInterval(iv interval.Interval) int {
	if !s.isSorted {
		for i := s.count - 1; i >= 0; i-- {
			if s.intervals[i].EqualsInterval(iv) {
				return i
			}
		}
		return -1
	}

	pt := s.identitySearch(iv, nil)
	if pt >= 0 || s.added == 0 || pt == -1-s.count {
		return pt
	}
	pt = -1 - pt
	start := iv.Begin()
	end := iv.End()
	match := pt
	for pt = s.offsets[pt]; pt != 0; pt = s.offsets[pt] {
		cand := s.intervals[pt]
		switch interval.CompareToRange(cand, start, end, s.bigendian) {
		case -1:
			// sorts before the target; keep walking
		case 0:
			if cand.EqualsInterval(iv) {
				return pt
			}
			match = pt
		case 1:
			match = pt
		}
	}
	return -1 - match
}

// identitySearch wraps interval.IdentitySearch with the envelope shortcuts.
func (s *Flat) identitySearch(iv interval.Interval, skip func(int) bool) int {
	begin := iv.Begin()
	if s.count == 0 || begin < s.minStart {
		return -1
	}
	if begin > s.maxStart {
		return -1 - s.count
	}
	return interval.IdentitySearch(s.intervals[:s.count], iv, s.bigendian, skip)
}

func (s *Flat) skipDeleted() func(int) bool {
	if s.deletedSet == nil {
		return nil
	}
	return func(i int) bool { return s.deletedSet.Test(uint(i)) }
}

// Contains reports whether an interval equal to entry is stored.
func (s *Flat) Contains(entry interval.Interval) bool {
	if entry == nil || (s.count == 0 && s.added == 0) {
		return false
	}
	if !s.isSorted || s.deleted > 0 {
		s.sort()
	}
	return s.findInterval(entry) >= 0
}

// Remove deletes the first stored interval equal to entry under
// EqualsInterval. The slot is only flagged in the deletion bitmap; the array
// is compacted on the next finalisation.
func (s *Flat) Remove(entry interval.Interval) bool {
	if entry == nil || s.count == 0 {
		return false
	}
	return s.removeInterval(entry)
}

func (s *Flat) removeInterval(iv interval.Interval) bool {
	if !s.isSorted || s.added > 0 {
		s.sort()
	}
	i := s.identitySearch(iv, s.skipDeleted())
	if i < 0 {
		return false
	}
	if s.deleted == 0 {
		if s.deletedSet == nil {
			s.deletedSet = bitset.New(uint(s.count))
		} else {
			s.deletedSet.ClearAll()
		}
	}
	s.deletedSet.Set(uint(i))
	s.deleted++
	s.isTainted = true
	return true
}

// finalizeDeletion reclaims the slots of flagged intervals.
func (s *Flat) finalizeDeletion() {
	if s.deleted == 0 {
		return
	}
	first, ok := s.deletedSet.NextSet(0)
	if ok {
		pt := int(first)
		for i := pt; i < s.count; i++ {
			if !s.deletedSet.Test(uint(i)) {
				s.intervals[pt] = s.intervals[i]
				pt++
			}
		}
		for i := pt; i < s.count; i++ {
			s.intervals[i] = nil
		}
		s.count = pt
	}
	s.deleted = 0
	s.deletedSet.ClearAll()
}

// sort drains whichever buffer is pending, or re-sorts in bulk after
// unordered additions.
func (s *Flat) sort() {
	switch {
	case s.added > 0:
		s.intervals = s.finalizeAddition(make([]interval.Interval, s.count+s.added))
	case s.deleted > 0:
		s.finalizeDeletion()
	default:
		live := s.intervals[:s.count]
		sort.SliceStable(live, func(i, j int) bool {
			return s.compare(live[i], live[j]) < 0
		})
	}
	s.updateMinMaxStart()
	s.isSorted = true
}

func (s *Flat) updateMinMaxStart() {
	if s.count > 0 {
		s.minStart = s.intervals[0].Begin()
		s.maxStart = s.intervals[s.count-1].Begin()
	} else {
		s.minStart = math.MaxInt32
		s.maxStart = math.MinInt32
	}
}

// ensureFinalized drains pending work and rebuilds the nest arrays so the
// store is ready for queries.
func (s *Flat) ensureFinalized() {
	if !s.isTainted {
		return
	}
	if !s.isSorted || s.added > 0 || s.deleted > 0 {
		s.sort()
	}
	if s.count > 0 {
		s.createArrays()
	}
	s.isTainted = false
}

// isNested is the strict containment test used to build the nest arrays: the
// parent must exceed the child on at least one endpoint, so runs of
// equal-range intervals never stack.
func isNested(childStart, childEnd, parentStart, parentEnd int32) bool {
	return parentStart <= childStart && parentEnd > childEnd ||
		parentStart < childStart && parentEnd == childEnd
}

// createArrays rebuilds nests, nestOffsets and nestLengths from the sorted
// intervals in two phases: assign each interval its container, then lay each
// container's children out contiguously.
func (s *Flat) createArrays() {
	n := s.count
	size := n + 1
	if s.unnest {
		size = n + 2
	}
	s.root = n
	s.unnested = n + 1

	s.nests = make([]interval.Interval, n)
	s.nestOffsets = make([]int, size)
	s.nestLengths = make([]int, size)

	myContainer := make([]int, n)
	counts := make([]int, size)

	// Phase one: sweep left to right deciding each interval's container.
	if s.unnest {
		myContainer[0] = s.unnested
	} else {
		myContainer[0] = s.root
	}
	counts[myContainer[0]] = 1

	beginLast := s.intervals[0].Begin()
	endLast := s.intervals[0].End()
	maxEnd := endLast

	// memories for the last unnested interval
	ptLastNested := s.root
	beginLast2 := beginLast
	endLast2 := endLast

	for i := 1; i < n; i++ {
		pt := i - 1
		begin := s.intervals[i].Begin()
		end := s.intervals[i].End()
		if end > maxEnd {
			maxEnd = end
		}

		myContainer[i] = myContainer[0]

		var nested bool
		if s.unnest {
			// An interval nested in the last unnested interval must not
			// itself land in the unnested block; it belongs to the subtree
			// of the last nested interval, or failing that to the root.
			nested = isNested(begin, end, beginLast2, endLast2)
			if nested {
				pt = ptLastNested
				nested = pt == s.root || isNested(begin, end,
					s.intervals[pt].Begin(), s.intervals[pt].End())
				if !nested {
					myContainer[i] = s.root
				}
			}
		} else {
			nested = isNested(begin, end, beginLast, endLast)
		}

		if nested {
			myContainer[i] = pt
		} else {
			// walk up the container chain for the first ancestor that
			// strictly contains this interval
			for {
				pt = myContainer[pt]
				if pt >= s.root {
					break
				}
				if isNested(begin, end, s.intervals[pt].Begin(),
					s.intervals[pt].End()) {
					myContainer[i] = pt
					break
				}
			}
		}

		counts[myContainer[i]]++
		if myContainer[i] == s.unnested && s.unnest {
			beginLast2 = begin
			endLast2 = end
		} else {
			ptLastNested = i
			beginLast = begin
			endLast = end
		}
	}
	s.maxEnd = maxEnd

	// Phase two: allocate each container's block in nests and fill it.
	// startPt tracks, per container, the slot in nestOffsets holding that
	// container's block offset.
	startPt := make([]int, size)
	startPt[s.root] = s.root
	nextStart := counts[s.root]
	if s.unnest {
		s.nestOffsets[s.root] = counts[s.unnested]
		nextStart += counts[s.unnested]
		startPt[s.unnested] = s.unnested
	}

	for i := 0; i < n; i++ {
		ptOffset := startPt[myContainer[i]]
		p := s.nestOffsets[ptOffset] + s.nestLengths[ptOffset]
		s.nestLengths[ptOffset]++
		s.nests[p] = s.intervals[i]
		if counts[i] > 0 {
			// a container: reserve its children's block
			startPt[i] = p
			s.nestOffsets[p] = nextStart
			nextStart += counts[i]
		}
	}
}

// FindOverlaps returns every stored interval overlapping [from, to],
// inclusively.
func (s *Flat) FindOverlaps(from, to int32) []interval.Interval {
	return s.AppendOverlaps(from, to, nil)
}

// AppendOverlaps appends every stored interval overlapping [from, to] to
// result and returns the extended slice. Triggers finalisation of any
// pending work.
func (s *Flat) AppendOverlaps(from, to int32, result []interval.Interval) []interval.Interval {
	switch {
	case s.count+s.added == 0:
		return result
	case s.count+s.added == 1 && s.deleted == 0:
		if iv := s.intervals[0]; interval.OverlapsRange(iv, from, to) {
			result = append(result, iv)
		}
		return result
	}

	s.ensureFinalized()

	if s.count == 0 || from > s.maxEnd || to < s.minStart {
		return result
	}
	if s.unnest && s.nestLengths[s.unnested] > 0 {
		result = s.searchUnnested(from, to, result)
	}
	if s.nestLengths[s.root] > 0 {
		result = s.search(from, to, s.root, result)
	}
	return result
}

// searchUnnested scans the childless top-level block, which needs no
// recursion.
func (s *Flat) searchUnnested(from, to int32, result []interval.Interval) []interval.Interval {
	start := s.nestOffsets[s.unnested]
	end := start + s.nestLengths[s.unnested] - 1
	for pt := interval.FirstEndNotBefore(s.nests, from, start, end); pt <= end; pt++ {
		iv := s.nests[pt]
		if iv.Begin() > to {
			break
		}
		result = append(result, iv)
	}
	return result
}

// search walks one nest's contiguous block, recursing into any child that is
// itself a container.
func (s *Flat) search(from, to int32, nest int, result []interval.Interval) []interval.Interval {
	start := s.nestOffsets[nest]
	n := s.nestLengths[nest]
	end := start + n - 1
	first := s.nests[start]
	last := s.nests[end]

	if last.End() < from || first.Begin() > to {
		return result
	}

	var pt int
	switch n {
	case 1:
		// the only interval already passed the range test
		pt = start
	case 2:
		if first.End() >= from {
			pt = start
		} else {
			pt = end
		}
	default:
		pt = interval.FirstEndNotBefore(s.nests, from, start, end)
	}

	for ; pt <= end; pt++ {
		iv := s.nests[pt]
		if iv.Begin() > to {
			break
		}
		result = append(result, iv)
		if s.nestLengths[pt] > 0 {
			result = s.search(from, to, pt, result)
		}
	}
	return result
}

// Get returns the i-th interval in the configured order, or nil when out of
// range. Triggers finalisation.
func (s *Flat) Get(i int) interval.Interval {
	if i < 0 || i >= s.count+s.added {
		return nil
	}
	s.ensureFinalized()
	if i >= s.count {
		return nil
	}
	return s.intervals[i]
}

// Size returns the stored interval count, including pending additions and
// net of pending deletions.
func (s *Flat) Size() int {
	return s.count + s.added - s.deleted
}

// Depth returns the maximum containment chain length: 0 for an empty store,
// 1 when no interval properly contains another. The unnested optimisation
// flattens parts of the nest structure, so the depth is computed from the
// sorted intervals rather than the nest arrays. When big-endian the slice is
// already in sweep order; little-endian stores sort a copy.
func (s *Flat) Depth() int {
	if s.Size() == 0 {
		return 0
	}
	s.ensureFinalized()
	if s.bigendian {
		return containmentDepth(s.intervals[:s.count])
	}
	sorted := make([]interval.Interval, s.count)
	copy(sorted, s.intervals[:s.count])
	sortBigEndian(sorted)
	return containmentDepth(sorted)
}

// Width returns the number of top-level intervals: those not properly
// contained by any other stored interval.
func (s *Flat) Width() int {
	if s.Size() == 0 {
		return 0
	}
	s.ensureFinalized()
	if s.bigendian {
		return topLevelWidth(s.intervals[:s.count])
	}
	sorted := make([]interval.Interval, s.count)
	copy(sorted, s.intervals[:s.count])
	sortBigEndian(sorted)
	return topLevelWidth(sorted)
}

// Entries returns the stored intervals in the configured order. Triggers
// finalisation.
func (s *Flat) Entries() []interval.Interval {
	s.ensureFinalized()
	out := make([]interval.Interval, s.count)
	copy(out, s.intervals[:s.count])
	return out
}

// IsValid checks the structure after finalisation: the interval slice is
// sorted under the configured comparator, and every nest block is ordered
// with its members inside the parent's range. For use in testing and
// debugging.
func (s *Flat) IsValid() bool {
	s.ensureFinalized()
	if s.count == 0 {
		return true
	}
	for i := 1; i < s.count; i++ {
		if s.compare(s.intervals[i-1], s.intervals[i]) > 0 {
			s.logger.Warn("flat store out of order", zap.Int("index", i))
			return false
		}
	}
	if !s.checkNest(s.root, nil) {
		return false
	}
	if s.unnest && !s.checkNest(s.unnested, nil) {
		return false
	}
	return true
}

func (s *Flat) checkNest(pt int, parent interval.Interval) bool {
	start := s.nestOffsets[pt]
	n := s.nestLengths[pt]
	var last interval.Interval
	for i := start; i < start+n; i++ {
		iv := s.nests[i]
		if parent != nil &&
			!isNested(iv.Begin(), iv.End(), parent.Begin(), parent.End()) {
			s.logger.Warn("nest member outside parent",
				zap.Int32("begin", iv.Begin()), zap.Int32("end", iv.End()))
			return false
		}
		if last != nil &&
			(iv.Begin() < last.Begin() || iv.End() < last.End()) {
			s.logger.Warn("nest block out of order", zap.Int("slot", i))
			return false
		}
		last = iv
		if s.nestLengths[i] > 0 && !s.checkNest(i, iv) {
			return false
		}
	}
	return true
}

// Revalidate forces a full re-sort and rebuild of the nest arrays, for use
// after stored intervals have been mutated externally.
func (s *Flat) Revalidate() bool {
	s.isTainted = true
	s.isSorted = false
	s.ensureFinalized()
	return true
}

// Clear resets the store to empty.
func (s *Flat) Clear() {
	s.count = 0
	s.added = 0
	s.deleted = 0
	s.isSorted = true
	s.isTainted = true
	s.offsets = nil
	s.intervals = make([]interval.Interval, initialCapacity)
	s.nests = nil
	s.nestOffsets = nil
	s.nestLengths = nil
	s.deletedSet = nil
	s.minStart = math.MaxInt32
	s.maxStart = math.MinInt32
	s.maxEnd = math.MinInt32
}

// PrettyPrint returns the nest structure as an indented tree. Triggers
// finalisation.
func (s *Flat) PrettyPrint() string {
	s.ensureFinalized()
	if s.count == 0 {
		return ""
	}
	var sb strings.Builder
	if s.unnest {
		sb.WriteString("unnested:")
		s.dump(s.unnested, &sb, "\n")
		sb.WriteString("\nnested:")
	}
	s.dump(s.root, &sb, "\n")
	return sb.String()
}

func (s *Flat) dump(nest int, sb *strings.Builder, sep string) {
	pt := s.nestOffsets[nest]
	n := s.nestLengths[nest]
	sep += "  "
	for i := 0; i < n; i++ {
		sb.WriteString(sep)
		sb.WriteString(stringify(s.nests[pt+i]))
		if s.nestLengths[pt+i] > 0 {
			s.dump(pt+i, sb, sep+"  ")
		}
	}
}

func (s *Flat) String() string {
	return s.PrettyPrint()
}
