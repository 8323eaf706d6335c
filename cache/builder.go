package cache

import (
	"github.com/ParkGyuhwan/buffercache/blockdev"
	"github.com/ParkGyuhwan/buffercache/hooking"
	"github.com/ParkGyuhwan/buffercache/idgen"
)

// A Builder can build buffer caches.
type Builder struct {
	device       blockdev.Device
	numFrames    int
	victimFinder VictimFinder
	idGen        idgen.Generator
	hooks        []hooking.Hook
}

// MakeBuilder returns a builder with the default number of frames.
func MakeBuilder() Builder {
	return Builder{
		numFrames: DefaultNumFrames,
	}
}

// WithDevice sets the device that the cache reads from and writes back to.
func (b Builder) WithDevice(device blockdev.Device) Builder {
	b.device = device
	return b
}

// WithNumFrames sets the number of sectors the cache can hold.
func (b Builder) WithNumFrames(n int) Builder {
	b.numFrames = n
	return b
}

// WithVictimFinder sets the eviction policy. A clock victim finder is used
// if not set.
func (b Builder) WithVictimFinder(victimFinder VictimFinder) Builder {
	b.victimFinder = victimFinder
	return b
}

// WithIDGenerator sets how the IDs of the traced tasks are generated.
func (b Builder) WithIDGenerator(gen idgen.Generator) Builder {
	b.idGen = gen
	return b
}

// WithHook adds a hook to the cache being built.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

// Build creates a cache with all frames free.
func (b Builder) Build(name string) *Cache {
	b.parametersMustBeValid()

	c := &Cache{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		device:       b.device,
		victimFinder: b.victimFinder,
		idGen:        b.idGen,
		table:        newFrameTable(b.numFrames),
	}

	if c.victimFinder == nil {
		c.victimFinder = NewClockVictimFinder()
	}

	if c.idGen == nil {
		c.idGen = idgen.New()
	}

	for _, hook := range b.hooks {
		c.AcceptHook(hook)
	}

	return c
}

func (b Builder) parametersMustBeValid() {
	if b.device == nil {
		panic("device is not set")
	}

	if b.numFrames <= 0 {
		panic("number of frames must be positive")
	}
}

// New creates a cache with numFrames frames in front of the device.
func New(device blockdev.Device, numFrames int) *Cache {
	return MakeBuilder().
		WithDevice(device).
		WithNumFrames(numFrames).
		Build("BufferCache")
}
