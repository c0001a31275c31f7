// Package timeline tracks which citation is active for a given playback
// position. Citations partition the video into half-open intervals
// [offset_i, offset_i+1); the last interval is open-ended.
package timeline

import "sort"

// None is the active index when no citation interval contains the current time.
const None = -1

// ActiveIndex returns the index of the citation whose interval contains
// currentTime, given offsets sorted ascending. It returns None when
// currentTime precedes the first offset or offsets is empty. When several
// citations share an offset, the last of the run wins.
func ActiveIndex(offsets []int, currentTime int) int {
	i := sort.Search(len(offsets), func(i int) bool {
		return offsets[i] > currentTime
	})
	return i - 1 // sort.Search returns 0 when currentTime < offsets[0]
}

// Tracker recomputes the active citation on every time update and reports
// only transitions. It is driven from a single event loop and is not safe
// for concurrent use.
type Tracker struct {
	offsets  []int
	active   int
	onChange func(index int)
}

// NewTracker builds a tracker over offsets (which must be sorted ascending).
// onChange fires once per active-index transition, never on repeated ticks
// inside the same interval; it may be nil.
func NewTracker(offsets []int, onChange func(index int)) *Tracker {
	return &Tracker{offsets: offsets, active: None, onChange: onChange}
}

// Advance feeds the current playback time in seconds. Time may jump
// arbitrarily on seek; the tracker only cares about the resulting interval.
func (t *Tracker) Advance(currentTime int) {
	next := ActiveIndex(t.offsets, currentTime)
	if next == t.active {
		return
	}
	t.active = next
	if t.onChange != nil {
		t.onChange(next)
	}
}

// Active returns the current active index, or None.
func (t *Tracker) Active() int {
	return t.active
}

// Reset clears the active state, e.g. when a new citation list is loaded.
func (t *Tracker) Reset(offsets []int) {
	t.offsets = offsets
	t.active = None
}
