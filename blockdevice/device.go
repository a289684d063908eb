// Package blockdevice wraps a seekable byte source and exposes it as a
// sequence of fixed-size, 512-byte sectors addressed by absolute index.
//
// This is the bottom layer of the FAT16 reader: it knows nothing about
// BPBs, FATs, or directory entries. It performs no caching beyond whatever
// the underlying source itself buffers.
package blockdevice

import (
	"io"
	"os"

	"github.com/dargueta/fat16ro/errors"
)

// SectorSize is the fixed sector size this package reads in,
// regardless of what any higher layer's BPB claims. Validating a volume's
// own bytes_per_sector field against this constant is the volume layer's
// job, not this one's.
const SectorSize = 512

// Device is a handle to a seekable byte source, addressed in whole
// SectorSize-byte sectors starting at absolute sector 0.
//
// A Device is not safe for concurrent use: sector reads move the
// underlying source's seek cursor, so two goroutines sharing a Device will
// race on that cursor. Callers needing concurrent access must serialize
// externally or open independent Devices over independent sources.
type Device struct {
	source       io.ReadSeeker
	closer       io.Closer
	totalSectors uint32
}

// Open acquires a read-only Device over the disk image at path. It fails
// with errors.ErrNotFound if the file cannot be opened.
func Open(path string) (*Device, error) {
	if path == "" {
		return nil, errors.ErrFault
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.ErrNotFound.Wrap(err)
	}

	device, err := newDevice(file, file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return device, nil
}

// NewFromReadSeeker wraps an already-open seekable byte source (e.g. an
// in-memory image built for testing) as a Device. Closing the returned
// Device does not close source.
func NewFromReadSeeker(source io.ReadSeeker) (*Device, error) {
	if source == nil {
		return nil, errors.ErrFault
	}
	return newDevice(source, nil)
}

func newDevice(source io.ReadSeeker, closer io.Closer) (*Device, error) {
	size, err := source.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.ErrIO.Wrap(err)
	}
	if _, err := source.Seek(0, io.SeekStart); err != nil {
		return nil, errors.ErrIO.Wrap(err)
	}

	return &Device{
		source:       source,
		closer:       closer,
		totalSectors: uint32(size / SectorSize),
	}, nil
}

// TotalSectors returns the number of whole SectorSize-byte sectors backing
// this device. Any trailing partial sector in the underlying source is not
// addressable.
func (d *Device) TotalSectors() uint32 {
	return d.totalSectors
}

// Read reads sectorsToRead contiguous sectors starting at absolute sector
// firstSector into buffer, which must be at least sectorsToRead * SectorSize
// bytes long. It returns the number of sectors actually read.
//
// Fails with errors.ErrFault if d or buffer is nil or buffer is too small,
// errors.ErrRange if the request would extend past the device, and
// errors.ErrIO on a seek or short-read failure from the underlying source.
func (d *Device) Read(firstSector uint32, buffer []byte, sectorsToRead uint32) (uint32, error) {
	if d == nil || buffer == nil {
		return 0, errors.ErrFault
	}

	if uint64(firstSector)+uint64(sectorsToRead) > uint64(d.totalSectors) {
		return 0, errors.ErrRange.WithMessage(
			"sector read extends past end of image")
	}

	neededBytes := int(sectorsToRead) * SectorSize
	if len(buffer) < neededBytes {
		return 0, errors.ErrFault.WithMessage("buffer smaller than requested read")
	}

	offset := int64(firstSector) * SectorSize
	if _, err := d.source.Seek(offset, io.SeekStart); err != nil {
		return 0, errors.ErrIO.Wrap(err)
	}

	bytesRead, err := io.ReadFull(d.source, buffer[:neededBytes])
	sectorsRead := uint32(bytesRead / SectorSize)
	if err != nil {
		return sectorsRead, errors.ErrIO.Wrap(err)
	}
	return sectorsRead, nil
}

// Close releases the underlying source, if this Device owns it (i.e. it was
// created with Open rather than NewFromReadSeeker).
func (d *Device) Close() error {
	if d == nil {
		return errors.ErrFault
	}
	if d.closer == nil {
		return nil
	}
	if err := d.closer.Close(); err != nil {
		return errors.ErrIO.Wrap(err)
	}
	return nil
}
