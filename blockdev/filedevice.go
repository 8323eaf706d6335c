package blockdev

import (
	"fmt"
	"io"
	"os"
)

// A FileDevice stores sectors in a disk image file. Sector i occupies bytes
// [i*SectorSize, (i+1)*SectorSize) of the file.
type FileDevice struct {
	file       *os.File
	numSectors uint64
}

// CreateImage creates a zero-filled disk image with the given number of
// sectors. It fails if the file already exists.
func CreateImage(path string, numSectors uint64) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	err = f.Truncate(int64(numSectors) * SectorSize)
	if err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// OpenFileDevice opens an existing disk image. The image size must be a
// multiple of the sector size.
func OpenFileDevice(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if info.Size()%SectorSize != 0 {
		f.Close()
		return nil, fmt.Errorf(
			"image %s has size %d, not a multiple of %d",
			path, info.Size(), SectorSize)
	}

	d := &FileDevice{
		file:       f,
		numSectors: uint64(info.Size()) / SectorSize,
	}

	return d, nil
}

// NumSectors returns the capacity of the image in sectors.
func (d *FileDevice) NumSectors() uint64 {
	return d.numSectors
}

// ReadSector reads one sector from the image.
func (d *FileDevice) ReadSector(sector SectorID, buf []byte) error {
	if err := checkAccess(d, sector, buf); err != nil {
		return err
	}

	n, err := d.file.ReadAt(buf, int64(sector)*SectorSize)
	if err == io.EOF && n < len(buf) {
		return io.ErrUnexpectedEOF
	}

	if err == io.EOF {
		return nil
	}

	return err
}

// WriteSector writes one sector to the image.
func (d *FileDevice) WriteSector(sector SectorID, buf []byte) error {
	if err := checkAccess(d, sector, buf); err != nil {
		return err
	}

	_, err := d.file.WriteAt(buf, int64(sector)*SectorSize)

	return err
}

// Sync commits the image content to stable storage.
func (d *FileDevice) Sync() error {
	return d.file.Sync()
}

// Close syncs and closes the image.
func (d *FileDevice) Close() error {
	if err := d.file.Sync(); err != nil {
		d.file.Close()
		return err
	}

	return d.file.Close()
}
