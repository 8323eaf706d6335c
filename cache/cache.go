// Package cache implements a write-back buffer cache that keeps a fixed number
// of disk sectors in memory.
//
// A Cache serves sector reads and writes from its frames. A miss picks a
// victim frame with a VictimFinder, writes the victim back if it is dirty, and
// loads the requested sector before the transfer, so a partial write never
// clobbers the rest of the sector. Dirty data reaches the device only when a
// frame is evicted or flushed.
package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ParkGyuhwan/buffercache/blockdev"
	"github.com/ParkGyuhwan/buffercache/hooking"
	"github.com/ParkGyuhwan/buffercache/idgen"
)

// DefaultNumFrames is the number of frames a cache has unless configured
// otherwise.
const DefaultNumFrames = 64

// Cache is a write-back sector cache in front of a block device.
//
// The cache lock guards the frame bindings, the victim finder, and the
// device reads and write-backs done on a miss. Each frame has its own lock
// that guards its bytes. A caller takes the frame lock before it releases
// the cache lock, so the frame cannot be rebound while bytes are copied.
type Cache struct {
	*hooking.HookableBase

	name         string
	device       blockdev.Device
	victimFinder VictimFinder
	idGen        idgen.Generator

	lock       sync.Mutex
	table      *frameTable
	terminated bool

	stats statsCounters
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Device returns the device that the cache writes back to.
func (c *Cache) Device() blockdev.Device {
	return c.device
}

// NumFrames returns the capacity of the cache in sectors.
func (c *Cache) NumFrames() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.terminated {
		return 0
	}

	return c.table.NumFrames()
}

// Read copies length bytes starting at sectorOffset of the sector into
// dst[dstOffset:].
func (c *Cache) Read(
	sector blockdev.SectorID,
	sectorOffset, length int,
	dst []byte,
	dstOffset int,
) error {
	err := checkRange(sectorOffset, length, len(dst), dstOffset)
	if err != nil {
		return err
	}

	taskID := c.startTask("read", sectorDetail(sector))

	f, err := c.acquireFrame(taskID, sector)
	if err != nil {
		c.endTask(taskID, err)
		return err
	}

	f.referenced.Store(true)
	copy(dst[dstOffset:dstOffset+length], f.data[sectorOffset:sectorOffset+length])
	f.lock.Unlock()

	c.stats.reads.Add(1)
	c.endTask(taskID, nil)

	return nil
}

// Write copies length bytes from src[srcOffset:] into the sector starting at
// sectorOffset. The data stays in the cache until the frame is evicted or
// flushed.
func (c *Cache) Write(
	sector blockdev.SectorID,
	sectorOffset, length int,
	src []byte,
	srcOffset int,
) error {
	err := checkRange(sectorOffset, length, len(src), srcOffset)
	if err != nil {
		return err
	}

	taskID := c.startTask("write", sectorDetail(sector))

	f, err := c.acquireFrame(taskID, sector)
	if err != nil {
		c.endTask(taskID, err)
		return err
	}

	f.referenced.Store(true)
	copy(f.data[sectorOffset:sectorOffset+length], src[srcOffset:srcOffset+length])
	f.dirty = true
	f.lock.Unlock()

	c.stats.writes.Add(1)
	c.endTask(taskID, nil)

	return nil
}

// FlushOne writes the sector back to the device if it is cached and dirty.
// It does nothing if the sector is not cached.
func (c *Cache) FlushOne(sector blockdev.SectorID) error {
	taskID := c.startTask("flush", sectorDetail(sector))

	err := c.flushOne(taskID, sector)
	c.endTask(taskID, err)

	return err
}

func (c *Cache) flushOne(taskID string, sector blockdev.SectorID) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.terminated {
		return ErrTerminated
	}

	f, found := c.table.Lookup(sector)
	if !found {
		return nil
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	return c.flushFrame(taskID, f)
}

// FlushAll writes every dirty frame back to the device. A failing frame does
// not stop the others from being flushed; all the failures are returned
// together.
func (c *Cache) FlushAll() error {
	taskID := c.startTask("flush_all", "")

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.terminated {
		c.endTask(taskID, ErrTerminated)
		return ErrTerminated
	}

	err := c.flushAll(taskID)
	c.endTask(taskID, err)

	return err
}

func (c *Cache) flushAll(taskID string) error {
	var errs []error

	for i := 0; i < c.table.NumFrames(); i++ {
		f := c.table.Frame(i)

		f.lock.Lock()
		err := c.flushFrame(taskID, f)
		f.lock.Unlock()

		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Terminate flushes all the dirty frames and releases the frames. If the
// flush fails, the cache stays usable so that the caller can retry. Callers
// must not use the cache concurrently with Terminate.
func (c *Cache) Terminate() error {
	taskID := c.startTask("terminate", "")

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.terminated {
		c.endTask(taskID, ErrTerminated)
		return ErrTerminated
	}

	err := c.flushAll(taskID)
	if err != nil {
		c.endTask(taskID, err)
		return err
	}

	c.table.release()
	c.terminated = true
	c.endTask(taskID, nil)

	return nil
}

// Reset writes back the dirty frames and then drops every cached sector. The
// clock hand returns to its initial position.
func (c *Cache) Reset() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.terminated {
		return ErrTerminated
	}

	err := c.flushAll("")
	if err != nil {
		return err
	}

	c.table.Reset()

	if clock, ok := c.victimFinder.(*ClockVictimFinder); ok {
		clock.Reset()
	}

	return nil
}

// Stats returns the counters of the cache.
func (c *Cache) Stats() Stats {
	return c.stats.load()
}

// Snapshot returns the state of every frame.
func (c *Cache) Snapshot() []FrameInfo {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.terminated {
		return nil
	}

	return c.table.Snapshot()
}

// ClockHand returns the position of the clock hand, or -1 if the cache does
// not use a clock victim finder.
func (c *Cache) ClockHand() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	clock, ok := c.victimFinder.(*ClockVictimFinder)
	if !ok {
		return -1
	}

	return clock.Hand()
}

// acquireFrame returns the frame that holds the sector, loading the sector
// on a miss. The frame is returned locked.
func (c *Cache) acquireFrame(
	taskID string,
	sector blockdev.SectorID,
) (*frame, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.terminated {
		return nil, ErrTerminated
	}

	f, found := c.table.Lookup(sector)
	if found {
		f.lock.Lock()
		c.stats.hits.Add(1)
		c.tagTask(taskID, "hit", "")

		return f, nil
	}

	c.stats.misses.Add(1)
	c.tagTask(taskID, "miss", "")

	f, err := c.evict(taskID)
	if err != nil {
		return nil, err
	}

	f.bind(sector)

	err = c.device.ReadSector(sector, f.data)
	if err != nil {
		f.unbind()
		f.lock.Unlock()

		return nil, fmt.Errorf("read sector %d: %w", sector, err)
	}

	c.stats.deviceReads.Add(1)

	return f, nil
}

// evict returns a free frame, locked. A dirty victim is written back before
// it is unbound. If the write-back fails, the victim keeps its sector and its
// dirty data.
func (c *Cache) evict(taskID string) (*frame, error) {
	victim := c.table.Frame(c.victimFinder.FindVictim(c.table))

	victim.lock.Lock()

	if victim.valid {
		err := c.flushFrame(taskID, victim)
		if err != nil {
			victim.lock.Unlock()
			return nil, err
		}

		c.stats.evictions.Add(1)
		c.tagTask(taskID, "evict", sectorDetail(victim.sector))
	}

	victim.unbind()

	return victim, nil
}

// flushFrame writes a dirty frame back. The caller holds the frame lock.
func (c *Cache) flushFrame(taskID string, f *frame) error {
	if !f.valid || !f.dirty {
		return nil
	}

	err := c.device.WriteSector(f.sector, f.data)
	if err != nil {
		return fmt.Errorf("write back sector %d: %w", f.sector, err)
	}

	f.dirty = false
	c.stats.deviceWrites.Add(1)
	c.tagTask(taskID, "writeback", sectorDetail(f.sector))

	return nil
}

func (c *Cache) startTask(what, detail string) string {
	if c.NumHooks() == 0 {
		return ""
	}

	id := c.idGen.Generate()
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    hooking.HookPosTaskStart,
		Item: hooking.TaskStart{
			ID:     id,
			Kind:   "req_in",
			What:   what,
			Where:  c.name,
			Detail: detail,
		},
	})

	return id
}

func (c *Cache) tagTask(taskID, what, detail string) {
	if taskID == "" {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    hooking.HookPosTaskTag,
		Item: hooking.TaskTag{
			TaskID: taskID,
			What:   what,
			Detail: detail,
		},
	})
}

func (c *Cache) endTask(taskID string, err error) {
	if taskID == "" {
		return
	}

	end := hooking.TaskEnd{ID: taskID}
	if err != nil {
		end.Err = err.Error()
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    hooking.HookPosTaskEnd,
		Item:   end,
	})
}

func sectorDetail(sector blockdev.SectorID) string {
	return fmt.Sprintf("sector=%d", sector)
}
