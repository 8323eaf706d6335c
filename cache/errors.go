package cache

import (
	"errors"
	"fmt"

	"github.com/ParkGyuhwan/buffercache/blockdev"
)

// ErrInvalidRange is returned when an offset or a length falls outside the
// sector or the caller's buffer.
var ErrInvalidRange = errors.New("invalid range")

// ErrTerminated is returned by any operation on a terminated cache.
var ErrTerminated = errors.New("cache is terminated")

func checkRange(sectorOffset, length, bufLen, bufOffset int) error {
	if sectorOffset < 0 || length < 0 || bufOffset < 0 {
		return fmt.Errorf(
			"%w: negative offset or length (sector offset %d, length %d, buffer offset %d)",
			ErrInvalidRange, sectorOffset, length, bufOffset)
	}

	if length > blockdev.SectorSize-sectorOffset {
		return fmt.Errorf("%w: %d bytes at offset %d exceed the sector",
			ErrInvalidRange, length, sectorOffset)
	}

	if length > bufLen-bufOffset {
		return fmt.Errorf("%w: %d bytes at offset %d exceed the %d-byte buffer",
			ErrInvalidRange, length, bufOffset, bufLen)
	}

	return nil
}
