package cache

import (
	"sync"
	"sync/atomic"

	"github.com/ParkGyuhwan/buffercache/blockdev"
)

// FrameState is the life-cycle state of a cache frame.
type FrameState int

// A frame is Free until a miss loads a sector into it, Clean while it matches
// the device, and Dirty after a write until it is flushed.
const (
	FrameFree FrameState = iota
	FrameClean
	FrameDirty
)

func (s FrameState) String() string {
	switch s {
	case FrameFree:
		return "free"
	case FrameClean:
		return "clean"
	case FrameDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// A frame holds the in-memory copy of one sector.
//
// sector and valid change only while both the cache lock and the frame lock
// are held. data and dirty change only under the frame lock.
type frame struct {
	id   int
	lock sync.Mutex
	data []byte

	sector     blockdev.SectorID
	valid      bool
	dirty      bool
	referenced atomic.Bool
}

func newFrame(id int) *frame {
	return &frame{
		id:   id,
		data: make([]byte, blockdev.SectorSize),
	}
}

func (f *frame) state() FrameState {
	switch {
	case !f.valid:
		return FrameFree
	case f.dirty:
		return FrameDirty
	default:
		return FrameClean
	}
}

func (f *frame) bind(sector blockdev.SectorID) {
	f.sector = sector
	f.valid = true
	f.dirty = false
}

func (f *frame) unbind() {
	if f.dirty {
		panic("unbinding a dirty frame")
	}

	f.valid = false
	f.sector = 0
	f.referenced.Store(false)
}

// FrameInfo is a point-in-time view of a frame.
type FrameInfo struct {
	Index      int               `json:"index"`
	Sector     blockdev.SectorID `json:"sector"`
	Valid      bool              `json:"valid"`
	State      FrameState        `json:"state"`
	Referenced bool              `json:"referenced"`
}
