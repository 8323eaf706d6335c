package cache

// A VictimFinder decides which frame should be reused on a miss.
type VictimFinder interface {
	// FindVictim returns the index of the frame to reuse. The table has at
	// least one frame.
	FindVictim(table FrameTable) int
}

// ClockVictimFinder gives every referenced frame a second chance. A hand
// sweeps over the frames; a frame that is free or not referenced since the
// last sweep is the victim, otherwise its reference bit is cleared and the
// hand moves on.
//
// The hand keeps its position between calls.
type ClockVictimFinder struct {
	hand int
}

// NewClockVictimFinder returns a newly constructed clock victim finder.
func NewClockVictimFinder() *ClockVictimFinder {
	return &ClockVictimFinder{}
}

// Hand returns the index of the frame most recently examined.
func (e *ClockVictimFinder) Hand() int {
	return e.hand
}

// Reset moves the hand back to the first frame.
func (e *ClockVictimFinder) Reset() {
	e.hand = 0
}

// FindVictim advances the hand until it finds a victim. It returns after at
// most two sweeps.
func (e *ClockVictimFinder) FindVictim(table FrameTable) int {
	n := table.NumFrames()
	if n == 0 {
		panic("no frame to evict")
	}

	for {
		e.hand = (e.hand + 1) % n

		if !table.IsValid(e.hand) || !table.IsReferenced(e.hand) {
			return e.hand
		}

		table.ClearReferenced(e.hand)
	}
}
