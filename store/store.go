package store

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-intervals/interval"
	"github.com/inodb/vibe-intervals/nclist"
)

// Store holds intervals in two tiers: a sorted top-level slice of intervals
// with no mutual containment, and a nested containment list for everything
// else. The top-level slice covers the common case where overlap is shallow;
// the NCList is only created once an enclosing interval shows up.
//
// Store is not safe for concurrent use; mutation and query must be
// externally serialized.
type Store struct {
	// nonNested is sorted by begin ascending; no member properly contains
	// another
	nonNested []interval.Interval
	nested    *nclist.NCList
	logger    *zap.Logger
}

// NewStore creates a store seeded with the given intervals. The slice may be
// reordered as a side effect; nil entries are skipped.
func NewStore(ivs []interval.Interval) *Store {
	s := &Store{logger: zap.NewNop()}
	valid := make([]interval.Interval, 0, len(ivs))
	for _, iv := range ivs {
		if iv != nil {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return s
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return interval.CompareBigEndian(valid[i], valid[j]) < 0
	})

	// Each partition's root interval (and any co-located duplicates of it)
	// is top-level; the remainder of the partition is nested.
	var nested []interval.Interval
	for _, sub := range nclist.PartitionNestedSublists(valid) {
		root := valid[sub[0]]
		for i := sub[0]; i <= sub[1]; i++ {
			iv := valid[i]
			if iv.Begin() == root.Begin() && iv.End() == root.End() {
				s.nonNested = append(s.nonNested, iv)
			} else {
				nested = append(nested, iv)
			}
		}
	}
	if len(nested) > 0 {
		s.nested = nclist.New(nested)
	}
	return s
}

// SetLogger sets the logger used to report structural check failures.
func (s *Store) SetLogger(lg *zap.Logger) {
	s.logger = lg
	if s.nested != nil {
		s.nested.SetLogger(lg)
	}
}

// Add inserts one interval, allowing duplicates. Returns false for nil.
func (s *Store) Add(entry interval.Interval) bool {
	if entry == nil {
		return false
	}
	if !s.addNonNested(entry) {
		// enclosure detected: the interval goes into the NCList
		s.addNested(entry)
	}
	return true
}

// AddIfAbsent inserts one interval unless an equal one (under
// EqualsInterval) is already stored.
func (s *Store) AddIfAbsent(entry interval.Interval) bool {
	if entry == nil || s.Contains(entry) {
		return false
	}
	return s.Add(entry)
}

// addNonNested tries to place the interval in the top-level slice. It fails
// when enclosure is detected against a neighbour, in which case the interval
// belongs in the NCList.
func (s *Store) addNonNested(entry interval.Interval) bool {
	pos := interval.FirstBeginNotBefore(s.nonNested, entry.Begin())
	if pos > 0 && interval.ProperlyContains(s.nonNested[pos-1], entry) {
		return false
	}
	if pos < len(s.nonNested) {
		following := s.nonNested[pos]
		if interval.ProperlyContains(entry, following) ||
			interval.ProperlyContains(following, entry) {
			return false
		}
	}
	s.nonNested = append(s.nonNested, nil)
	copy(s.nonNested[pos+1:], s.nonNested[pos:])
	s.nonNested[pos] = entry
	return true
}

func (s *Store) addNested(entry interval.Interval) {
	if s.nested == nil {
		s.nested = nclist.New(nil)
		s.nested.SetLogger(s.logger)
	}
	s.nested.Add(entry)
}

// Contains reports whether an interval equal to entry is stored.
func (s *Store) Contains(entry interval.Interval) bool {
	if entry == nil {
		return false
	}
	if s.listContains(entry) {
		return true
	}
	return s.nested != nil && s.nested.Contains(entry)
}

// listContains scans the top-level slice for an equal interval, starting at
// the first entry that does not precede it.
func (s *Store) listContains(entry interval.Interval) bool {
	from := entry.Begin()
	for pos := interval.FirstBeginNotBefore(s.nonNested, from); pos < len(s.nonNested); pos++ {
		iv := s.nonNested[pos]
		if iv.Begin() > from {
			return false
		}
		if iv.EqualsInterval(entry) {
			return true
		}
	}
	return false
}

// Remove deletes the first stored interval equal to entry under
// EqualsInterval.
func (s *Store) Remove(entry interval.Interval) bool {
	if entry == nil {
		return false
	}
	if s.removeNonNested(entry) {
		return true
	}
	return s.nested != nil && s.nested.Remove(entry)
}

func (s *Store) removeNonNested(entry interval.Interval) bool {
	from := entry.Begin()
	for i := interval.FirstBeginNotBefore(s.nonNested, from); i < len(s.nonNested); i++ {
		iv := s.nonNested[i]
		if iv.Begin() > from {
			break
		}
		if iv.EqualsInterval(entry) {
			copy(s.nonNested[i:], s.nonNested[i+1:])
			s.nonNested[len(s.nonNested)-1] = nil
			s.nonNested = s.nonNested[:len(s.nonNested)-1]
			return true
		}
	}
	return false
}

// FindOverlaps returns every stored interval overlapping [from, to],
// inclusively.
func (s *Store) FindOverlaps(from, to int32) []interval.Interval {
	return s.AppendOverlaps(from, to, nil)
}

// AppendOverlaps appends every stored interval overlapping [from, to] to
// result and returns the extended slice.
func (s *Store) AppendOverlaps(from, to int32, result []interval.Interval) []interval.Interval {
	result = s.appendNonNestedOverlaps(from, to, result)
	if s.nested != nil {
		result = s.nested.AppendOverlaps(from, to, result)
	}
	return result
}

// appendNonNestedOverlaps scans the top-level slice from the first entry
// whose end does not precede the query start.
func (s *Store) appendNonNestedOverlaps(from, to int32, result []interval.Interval) []interval.Interval {
	n := len(s.nonNested)
	for i := interval.FirstEndNotBefore(s.nonNested, from, 0, n-1); i < n; i++ {
		iv := s.nonNested[i]
		if iv.Begin() > to {
			break
		}
		if iv.End() >= from {
			result = append(result, iv)
		}
	}
	return result
}

// Size returns the number of stored intervals.
func (s *Store) Size() int {
	n := len(s.nonNested)
	if s.nested != nil {
		n += s.nested.Size()
	}
	return n
}

// Depth returns the maximum containment chain length: 0 for an empty store,
// 1 when no interval properly contains another.
func (s *Store) Depth() int {
	if s.Size() == 0 {
		return 0
	}
	sorted := s.Entries()
	sortBigEndian(sorted)
	return containmentDepth(sorted)
}

// Width returns the number of top-level intervals: those not properly
// contained by any other stored interval.
func (s *Store) Width() int {
	if s.Size() == 0 {
		return 0
	}
	sorted := s.Entries()
	sortBigEndian(sorted)
	return topLevelWidth(sorted)
}

// Entries returns all stored intervals, top-level first, in no further
// guaranteed order.
func (s *Store) Entries() []interval.Interval {
	result := make([]interval.Interval, 0, s.Size())
	result = append(result, s.nonNested...)
	if s.nested != nil {
		result = append(result, s.nested.Entries()...)
	}
	return result
}

// IsValid checks the structure: the top-level slice is ordered by start with
// no mutual containment between neighbours, and the NCList obeys its nesting
// rules. For use in testing and debugging.
func (s *Store) IsValid() bool {
	for i := 0; i+1 < len(s.nonNested); i++ {
		i1 := s.nonNested[i]
		i2 := s.nonNested[i+1]
		if i2.Begin() < i1.Begin() {
			s.logger.Warn("non-nested intervals out of start order",
				zap.String("first", stringify(i1)), zap.String("second", stringify(i2)))
			return false
		}
		if interval.ProperlyContains(i1, i2) || interval.ProperlyContains(i2, i1) {
			s.logger.Warn("non-nested interval containment",
				zap.String("first", stringify(i1)), zap.String("second", stringify(i2)))
			return false
		}
	}
	if s.nested == nil {
		return true
	}
	return s.nested.IsValid()
}

// Revalidate rebuilds the store from its current entries, for use after
// stored intervals have been mutated externally.
func (s *Store) Revalidate() bool {
	rebuilt := NewStore(s.Entries())
	s.nonNested = rebuilt.nonNested
	s.nested = rebuilt.nested
	if s.nested != nil {
		s.nested.SetLogger(s.logger)
	}
	return true
}

// Clear resets the store to empty.
func (s *Store) Clear() {
	s.nonNested = nil
	s.nested = nil
}

func (s *Store) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, iv := range s.nonNested {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(stringify(iv))
	}
	sb.WriteByte(']')
	if s.nested != nil {
		sb.WriteByte('\n')
		sb.WriteString(s.nested.String())
	}
	return sb.String()
}

// PrettyPrint returns the store contents with the nested tree in indented
// form.
func (s *Store) PrettyPrint() string {
	var sb strings.Builder
	for _, iv := range s.nonNested {
		sb.WriteString(stringify(iv))
		sb.WriteByte('\n')
	}
	if s.nested != nil {
		sb.WriteString(s.nested.PrettyPrint())
	}
	return sb.String()
}

func stringify(i interval.Interval) string {
	if s, ok := i.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%d-%d", i.Begin(), i.End())
}
