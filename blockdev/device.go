// Package blockdev defines the sector-addressed block devices that sit under
// the buffer cache.
package blockdev

import "errors"

// SectorSize is the number of bytes in one sector.
const SectorSize = 512

// A SectorID is the index of a sector on a device.
type SectorID uint32

// ErrSectorOutOfRange is returned when accessing a sector beyond the end of
// the device.
var ErrSectorOutOfRange = errors.New("accessing sector beyond the device capacity")

// ErrBufferSize is returned when the buffer passed to a device is not exactly
// one sector long.
var ErrBufferSize = errors.New("buffer size must equal the sector size")

// A Device reads and writes whole sectors. Both calls block until the
// transfer completes.
type Device interface {
	// ReadSector fills buf with the content of the sector.
	ReadSector(sector SectorID, buf []byte) error

	// WriteSector stores buf as the content of the sector.
	WriteSector(sector SectorID, buf []byte) error

	// NumSectors returns the number of sectors the device holds.
	NumSectors() uint64
}

func checkAccess(d Device, sector SectorID, buf []byte) error {
	if len(buf) != SectorSize {
		return ErrBufferSize
	}

	if uint64(sector) >= d.NumSectors() {
		return ErrSectorOutOfRange
	}

	return nil
}
