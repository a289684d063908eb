// Package fat16 implements a read-only interpreter for a FAT16 volume: BPB
// and FAT parsing, root-directory enumeration, and file content assembly by
// 8.3 short-name lookup. It never writes to the backing device.
package fat16

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dargueta/fat16ro/blockdevice"
	"github.com/dargueta/fat16ro/errors"
	"github.com/hashicorp/go-multierror"
)

// ClusterID is a FAT16 cluster number. Clusters 0 and 1 are reserved; valid
// data clusters start at 2.
type ClusterID uint16

// EndOfChainMin is the lowest FAT entry value that denotes end-of-chain.
// Any FAT entry >= EndOfChainMin terminates a cluster chain.
const EndOfChainMin = 0xFFF8

// BadCluster marks a cluster as unusable.
const BadCluster = 0xFFF7

// FreeCluster marks a cluster as unallocated.
const FreeCluster = 0x0000

// rawBPB is the on-disk layout of the BIOS Parameter Block fields this
// reader cares about, little-endian, packed, no padding. It mirrors the
// classic Microsoft FAT BPB layout (and the `super_t` struct of the C
// reader this package was ported from) up through the 32-bit logical
// sector count; the remainder of the boot sector (media descriptors, CHS
// geometry beyond what's listed, volume label, boot code, signature) is
// not interpreted because nothing in this package's scope needs it.
type rawBPB struct {
	JumpCode          [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCount          uint8
	RootDirCapacity   uint16
	LogicalSectors16  uint16
	MediaType         uint8
	SectorsPerFAT     uint16
	CHSSectorsPerTrk  uint16
	CHSHeadCount      uint16
	HiddenSectors     uint32
	LogicalSectors32  uint32
}

// BPB is the parsed, validated BIOS Parameter Block plus the geometry
// derived from it: sector counts for each region of the volume.
type BPB struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCount          uint8
	RootDirCapacity   uint16
	SectorsPerFAT     uint16
	TotalSectors      uint32

	// Derived geometry. FATSizeBytes is in bytes; the rest are in sectors,
	// absolute to the start of the volume (i.e. relative to the volume's
	// first_sector, not the device).
	FATSizeBytes       uint32
	RootDirSectors     uint32
	FirstFATSector     uint32
	FirstRootDirSector uint32
	FirstDataSector    uint32
	DataSectors        uint32
}

// parseBPB decodes one 512-byte sector into a validated BPB. It fails with
// errors.ErrInvalid if bytes_per_sector != 512, or if go-multierror collects
// any other geometry invariant violation (fat_count < 2, a zero
// sectors_per_cluster, a zero total sector count, or a data region that
// doesn't fit in the volume).
func parseBPB(sector []byte) (*BPB, error) {
	var raw rawBPB
	if err := binary.Read(bytes.NewReader(sector), binary.LittleEndian, &raw); err != nil {
		return nil, errors.ErrIO.Wrap(err)
	}

	if raw.BytesPerSector != blockdevice.SectorSize {
		return nil, errors.ErrInvalid.WithMessage(fmt.Sprintf(
			"bytes_per_sector must be %d, got %d", blockdevice.SectorSize, raw.BytesPerSector))
	}

	var problems error
	if raw.FATCount < 2 {
		problems = multierror.Append(problems, fmt.Errorf(
			"fat_count must be >= 2, got %d", raw.FATCount))
	}
	if raw.SectorsPerCluster == 0 {
		problems = multierror.Append(problems, fmt.Errorf(
			"sectors_per_cluster must be nonzero"))
	}

	totalSectors := uint32(raw.LogicalSectors16)
	if totalSectors == 0 {
		totalSectors = raw.LogicalSectors32
	}
	if totalSectors == 0 {
		problems = multierror.Append(problems, fmt.Errorf(
			"both logical_sectors16 and logical_sectors32 are zero"))
	}

	rootDirSectors := uint32(
		(uint32(raw.RootDirCapacity)*32 + uint32(raw.BytesPerSector) - 1) / uint32(raw.BytesPerSector))
	firstFATSector := uint32(raw.ReservedSectors)
	firstRootDirSector := firstFATSector + uint32(raw.FATCount)*uint32(raw.SectorsPerFAT)
	firstDataSector := firstRootDirSector + rootDirSectors
	reservedAndFATAndRoot := uint32(raw.ReservedSectors) + uint32(raw.FATCount)*uint32(raw.SectorsPerFAT) + rootDirSectors

	var dataSectors uint32
	if totalSectors < reservedAndFATAndRoot {
		problems = multierror.Append(problems, fmt.Errorf(
			"total_sectors (%d) is smaller than the reserved+FAT+root region (%d)",
			totalSectors, reservedAndFATAndRoot))
	} else {
		dataSectors = totalSectors - reservedAndFATAndRoot
	}

	if problems != nil {
		return nil, errors.ErrInvalid.Wrap(problems)
	}

	return &BPB{
		BytesPerSector:    raw.BytesPerSector,
		SectorsPerCluster: raw.SectorsPerCluster,
		ReservedSectors:   raw.ReservedSectors,
		FATCount:          raw.FATCount,
		RootDirCapacity:   raw.RootDirCapacity,
		SectorsPerFAT:     raw.SectorsPerFAT,
		TotalSectors:      totalSectors,

		FATSizeBytes:       uint32(raw.SectorsPerFAT) * uint32(raw.BytesPerSector),
		RootDirSectors:     rootDirSectors,
		FirstFATSector:     firstFATSector,
		FirstRootDirSector: firstRootDirSector,
		FirstDataSector:    firstDataSector,
		DataSectors:        dataSectors,
	}, nil
}
