package cache

import "sync/atomic"

// Stats counts what a cache has done since it was built.
type Stats struct {
	Reads        uint64 `json:"reads"`
	Writes       uint64 `json:"writes"`
	Hits         uint64 `json:"hits"`
	Misses       uint64 `json:"misses"`
	Evictions    uint64 `json:"evictions"`
	DeviceReads  uint64 `json:"device_reads"`
	DeviceWrites uint64 `json:"device_writes"`
}

// HitRate returns the fraction of accesses served without a device read.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

type statsCounters struct {
	reads        atomic.Uint64
	writes       atomic.Uint64
	hits         atomic.Uint64
	misses       atomic.Uint64
	evictions    atomic.Uint64
	deviceReads  atomic.Uint64
	deviceWrites atomic.Uint64
}

func (c *statsCounters) load() Stats {
	return Stats{
		Reads:        c.reads.Load(),
		Writes:       c.writes.Load(),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Evictions:    c.evictions.Load(),
		DeviceReads:  c.deviceReads.Load(),
		DeviceWrites: c.deviceWrites.Load(),
	}
}
