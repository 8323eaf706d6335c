package cache

import "github.com/ParkGyuhwan/buffercache/blockdev"

// FrameTable is the view of the frames that a VictimFinder works on.
type FrameTable interface {
	// NumFrames returns the fixed number of frames.
	NumFrames() int

	// IsValid tells if the i-th frame holds a sector.
	IsValid(i int) bool

	// IsReferenced tells if the reference bit of the i-th frame is set.
	IsReferenced(i int) bool

	// ClearReferenced clears the reference bit of the i-th frame.
	ClearReferenced(i int)
}

// frameTable is the fixed, ordered set of frames of a cache.
type frameTable struct {
	frames []*frame
}

func newFrameTable(numFrames int) *frameTable {
	t := &frameTable{
		frames: make([]*frame, numFrames),
	}

	for i := range t.frames {
		t.frames[i] = newFrame(i)
	}

	return t
}

// Lookup finds the frame that holds the sector.
func (t *frameTable) Lookup(sector blockdev.SectorID) (*frame, bool) {
	for _, f := range t.frames {
		if f.valid && f.sector == sector {
			return f, true
		}
	}

	return nil, false
}

func (t *frameTable) Frame(i int) *frame {
	return t.frames[i]
}

func (t *frameTable) NumFrames() int {
	return len(t.frames)
}

func (t *frameTable) IsValid(i int) bool {
	return t.frames[i].valid
}

func (t *frameTable) IsReferenced(i int) bool {
	return t.frames[i].referenced.Load()
}

func (t *frameTable) ClearReferenced(i int) {
	t.frames[i].referenced.Store(false)
}

// Reset marks all the frames free. No frame may be dirty.
func (t *frameTable) Reset() {
	for _, f := range t.frames {
		f.unbind()
		clear(f.data)
	}
}

func (t *frameTable) release() {
	t.frames = nil
}

// Snapshot reports the state of every frame. The caller must hold the cache
// lock so that no binding changes during the walk.
func (t *frameTable) Snapshot() []FrameInfo {
	infos := make([]FrameInfo, 0, len(t.frames))

	for _, f := range t.frames {
		f.lock.Lock()
		info := FrameInfo{
			Index:      f.id,
			Sector:     f.sector,
			Valid:      f.valid,
			State:      f.state(),
			Referenced: f.referenced.Load(),
		}
		f.lock.Unlock()

		infos = append(infos, info)
	}

	return infos
}
