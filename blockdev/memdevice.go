package blockdev

import "sync"

// A MemDevice keeps the sectors of a device in memory.
//
// The device manages its content in units of several sectors. The unit is
// similar to the concept of a page in memory management. Units that are never
// written are not allocated and read as zeros.
type MemDevice struct {
	sync.RWMutex

	sectorsPerUnit uint64
	numSectors     uint64
	units          map[uint64][]byte
}

// NewMemDevice creates an in-memory device with the given number of sectors.
func NewMemDevice(numSectors uint64) *MemDevice {
	d := new(MemDevice)

	d.sectorsPerUnit = 8
	d.numSectors = numSectors
	d.units = make(map[uint64][]byte)

	return d
}

// NumSectors returns the capacity of the device in sectors.
func (d *MemDevice) NumSectors() uint64 {
	return d.numSectors
}

func (d *MemDevice) parseSector(sector SectorID) (unitID, inUnitOffset uint64) {
	unitID = uint64(sector) / d.sectorsPerUnit
	inUnitOffset = uint64(sector) % d.sectorsPerUnit * SectorSize

	return
}

// ReadSector copies the content of a sector into buf.
func (d *MemDevice) ReadSector(sector SectorID, buf []byte) error {
	if err := checkAccess(d, sector, buf); err != nil {
		return err
	}

	d.RLock()
	defer d.RUnlock()

	unitID, offset := d.parseSector(sector)

	unit, ok := d.units[unitID]
	if !ok {
		clear(buf)
		return nil
	}

	copy(buf, unit[offset:offset+SectorSize])

	return nil
}

// WriteSector copies buf into the sector.
func (d *MemDevice) WriteSector(sector SectorID, buf []byte) error {
	if err := checkAccess(d, sector, buf); err != nil {
		return err
	}

	d.Lock()
	defer d.Unlock()

	unitID, offset := d.parseSector(sector)

	unit, ok := d.units[unitID]
	if !ok {
		unit = make([]byte, d.sectorsPerUnit*SectorSize)
		d.units[unitID] = unit
	}

	copy(unit[offset:offset+SectorSize], buf)

	return nil
}
