package fat16

import (
	"bytes"
	"encoding/binary"

	"github.com/dargueta/fat16ro/blockdevice"
	"github.com/dargueta/fat16ro/errors"
)

// Volume is a mounted FAT16 filesystem: a validated BPB, geometry derived
// from it, and one in-memory copy of the FAT (verified byte-identical to
// every other on-disk FAT copy at mount time).
//
// A Volume borrows its Device for its entire lifetime; closing a Volume
// does not close the Device. A Volume is not safe for concurrent use.
type Volume struct {
	device      *blockdevice.Device
	firstSector uint32
	bpb         *BPB
	fat         []uint16
}

// Open mounts a FAT16 filesystem starting at absolute sector firstSector on
// device. It parses the BPB from that sector, validates it (errors.ErrInvalid
// on failure), loads the first on-disk FAT copy into memory, and verifies it
// is byte-identical to every other FAT copy (errors.ErrInvalid if any
// differs).
//
// On any failure, Open releases everything it allocated; no partial Volume
// is returned.
func Open(device *blockdevice.Device, firstSector uint32) (*Volume, error) {
	if device == nil {
		return nil, errors.ErrFault
	}

	bootSector := make([]byte, blockdevice.SectorSize)
	if _, err := device.Read(firstSector, bootSector, 1); err != nil {
		return nil, err
	}

	bpb, err := parseBPB(bootSector)
	if err != nil {
		return nil, err
	}

	fat, err := loadAndVerifyFAT(device, firstSector, bpb)
	if err != nil {
		return nil, err
	}

	return &Volume{
		device:      device,
		firstSector: firstSector,
		bpb:         bpb,
		fat:         fat,
	}, nil
}

// loadAndVerifyFAT reads the first on-disk FAT copy into memory, then reads
// every remaining copy in turn and rejects the volume the moment one
// disagrees byte-for-byte. Only one FAT copy is ever kept resident.
func loadAndVerifyFAT(device *blockdevice.Device, firstSector uint32, bpb *BPB) ([]uint16, error) {
	primary := make([]byte, bpb.FATSizeBytes)
	if _, err := device.Read(firstSector+bpb.FirstFATSector, primary, uint32(bpb.SectorsPerFAT)); err != nil {
		return nil, err
	}

	scratch := make([]byte, bpb.FATSizeBytes)
	for copyIndex := uint8(1); copyIndex < bpb.FATCount; copyIndex++ {
		copyFirstSector := firstSector + bpb.FirstFATSector + uint32(copyIndex)*uint32(bpb.SectorsPerFAT)
		if _, err := device.Read(copyFirstSector, scratch, uint32(bpb.SectorsPerFAT)); err != nil {
			return nil, err
		}
		if !bytes.Equal(primary, scratch) {
			return nil, errors.ErrInvalid.WithMessage("FAT copies are not byte-identical")
		}
	}

	entries := make([]uint16, len(primary)/2)
	if err := binary.Read(bytes.NewReader(primary), binary.LittleEndian, &entries); err != nil {
		return nil, errors.ErrIO.Wrap(err)
	}
	return entries, nil
}

// Close releases the Volume's BPB copy and FAT image. It does not close the
// underlying Device.
func (v *Volume) Close() error {
	if v == nil {
		return errors.ErrFault
	}
	v.bpb = nil
	v.fat = nil
	v.device = nil
	return nil
}

// BPB returns the volume's parsed BIOS Parameter Block and derived geometry.
func (v *Volume) BPB() BPB {
	return *v.bpb
}

// fatEntry returns the FAT entry for cluster c, or errors.ErrInvalid if c is
// outside the bounds of the in-memory FAT.
func (v *Volume) fatEntry(c ClusterID) (uint16, error) {
	if int(c) >= len(v.fat) {
		return 0, errors.ErrInvalid.WithMessage("cluster index out of FAT bounds")
	}
	return v.fat[c], nil
}

// clusterToSector returns the sector at which cluster c's data begins,
// relative to the volume's own first_sector (i.e. suitable for passing to
// readSectors, not directly to the Device).
func (v *Volume) clusterToSector(c ClusterID) uint32 {
	return v.bpb.FirstDataSector + (uint32(c)-2)*uint32(v.bpb.SectorsPerCluster)
}

// readSectors reads count sectors starting at absolute volume sector
// first (relative to the volume's own first_sector) into buffer.
func (v *Volume) readSectors(first uint32, buffer []byte, count uint32) (uint32, error) {
	return v.device.Read(v.firstSector+first, buffer, count)
}
