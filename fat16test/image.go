// Package fat16test synthesizes in-memory FAT16 disk images for tests:
// building fixture images with github.com/noxer/bytewriter and exposing
// them through github.com/xaionaro-go/bytesextra's in-memory
// io.ReadWriteSeeker.
package fat16test

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/dargueta/fat16ro/blockdevice"
	"github.com/noxer/bytewriter"
	"github.com/xaionaro-go/bytesextra"
)

// Geometry is the subset of BPB fields a test fixture needs to specify.
// DataSectors is the size of the data region to allocate; Build grows it
// automatically if the files added need more room than requested.
type Geometry struct {
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCount          uint8
	RootDirCapacity   uint16
	SectorsPerFAT     uint16
	DataSectors       uint32

	// BytesPerSectorOverride, if nonzero, is written into the BPB in place
	// of the real 512. It exists solely so tests can build a
	// deliberately-invalid image with a bad bytes_per_sector value.
	BytesPerSectorOverride uint16
}

// rawBPB mirrors the field layout fat16.rawBPB parses: little-endian,
// packed, no gaps. Kept as a private duplicate here rather than exported
// from the fat16 package, so production structs stay unexported and test
// helpers know the wire format independently.
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

// Builder accumulates root directory entries and cluster data, then
// assembles them into a complete FAT16 image.
type Builder struct {
	geom            Geometry
	fat             []uint16
	rootEntries     [][32]byte
	clusterData     map[uint16][]byte
	nextFreeCluster uint16
}

// NewBuilder creates a Builder for an otherwise-empty volume with the given
// geometry. The in-memory FAT starts all-free; clusters 0 and 1 are
// reserved and never allocated.
func NewBuilder(geom Geometry) *Builder {
	fatEntries := int(geom.SectorsPerFAT) * blockdevice.SectorSize / 2
	return &Builder{
		geom:            geom,
		fat:             make([]uint16, fatEntries),
		clusterData:     map[uint16][]byte{},
		nextFreeCluster: 2,
	}
}

// AddFile appends a regular file to the root directory, auto-allocating as
// many contiguous clusters as its data needs and chaining them in the FAT.
func (b *Builder) AddFile(name, ext string, attributes uint8, data []byte) {
	clusterBytes := int(b.geom.SectorsPerCluster) * blockdevice.SectorSize
	clustersNeeded := 0
	if len(data) > 0 {
		clustersNeeded = int(math.Ceil(float64(len(data)) / float64(clusterBytes)))
	}

	start := b.nextFreeCluster
	current := start
	remaining := data
	for i := 0; i < clustersNeeded; i++ {
		chunk := remaining
		if len(chunk) > clusterBytes {
			chunk = chunk[:clusterBytes]
		}
		b.clusterData[current] = append([]byte(nil), chunk...)
		remaining = remaining[len(chunk):]

		if i == clustersNeeded-1 {
			b.fat[current] = 0xFFFF
		} else {
			b.fat[current] = current + 1
		}
		current++
	}
	b.nextFreeCluster = current

	b.rootEntries = append(b.rootEntries, buildRawEntry(name, ext, attributes, start, uint32(len(data))))
}

// AddDeletedFile appends a directory slot whose first raw byte is 0xE5, as
// if the named entry had been deleted.
func (b *Builder) AddDeletedFile(name, ext string) {
	entry := buildRawEntry(name, ext, 0, 0, 0)
	entry[0] = 0xE5
	b.rootEntries = append(b.rootEntries, entry)
}

// AddRawEntry appends a caller-constructed 32-byte directory slot verbatim,
// for tests that need to control bytes buildRawEntry wouldn't produce.
func (b *Builder) AddRawEntry(entry [32]byte) {
	b.rootEntries = append(b.rootEntries, entry)
}

// SetFATEntry overwrites a single FAT entry directly, for tests that need a
// deliberately malformed chain (a cycle, a bad-cluster link, an
// out-of-range link).
func (b *Builder) SetFATEntry(cluster uint16, value uint16) {
	b.fat[cluster] = value
}

// buildRawEntry lays out a 32-byte directory entry matching rawDirent:
// name[8] ext[3] attr[1] reserved[10] time_created[2] date_created[2]
// starting_cluster[2] file_size[4] = 32 bytes.
func buildRawEntry(name, ext string, attributes uint8, startCluster uint16, size uint32) [32]byte {
	var entry [32]byte
	copy(entry[0:8], padRight(name, 8))
	copy(entry[8:11], padRight(ext, 3))
	entry[11] = attributes
	binary.LittleEndian.PutUint16(entry[22:24], 0) // time_created
	binary.LittleEndian.PutUint16(entry[24:26], 0) // date_created
	binary.LittleEndian.PutUint16(entry[26:28], startCluster)
	binary.LittleEndian.PutUint32(entry[28:32], size)
	return entry
}

func padRight(s string, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf, s)
	return buf
}

// Build assembles the full image and returns its raw bytes.
func (b *Builder) Build() []byte {
	rootDirSectors := uint32((uint32(b.geom.RootDirCapacity)*32 + blockdevice.SectorSize - 1) / blockdevice.SectorSize)
	firstFATSector := uint32(b.geom.ReservedSectors)
	firstRootDirSector := firstFATSector + uint32(b.geom.FATCount)*uint32(b.geom.SectorsPerFAT)
	firstDataSector := firstRootDirSector + rootDirSectors

	dataSectors := b.geom.DataSectors
	highestClusterUsed := uint32(b.nextFreeCluster)
	neededDataSectors := (highestClusterUsed - 2) * uint32(b.geom.SectorsPerCluster)
	if b.nextFreeCluster <= 2 {
		neededDataSectors = 0
	}
	if neededDataSectors > dataSectors {
		dataSectors = neededDataSectors
	}

	totalSectors := firstDataSector + dataSectors
	image := make([]byte, int(totalSectors)*blockdevice.SectorSize)

	writeBPB(image, b.geom, totalSectors)
	writeFAT(image, b.geom, firstFATSector, b.fat)
	writeRootDirectory(image, firstRootDirSector, b.rootEntries)
	writeClusterData(image, firstDataSector, b.geom.SectorsPerCluster, b.clusterData)

	return image
}

func writeBPB(image []byte, geom Geometry, totalSectors uint32) {
	bytesPerSector := uint16(blockdevice.SectorSize)
	if geom.BytesPerSectorOverride != 0 {
		bytesPerSector = geom.BytesPerSectorOverride
	}

	bpb := rawBPB{
		BytesPerSector:    bytesPerSector,
		SectorsPerCluster: geom.SectorsPerCluster,
		ReservedSectors:   geom.ReservedSectors,
		FATCount:          geom.FATCount,
		RootDirCapacity:   geom.RootDirCapacity,
		SectorsPerFAT:     geom.SectorsPerFAT,
	}
	if totalSectors <= math.MaxUint16 {
		bpb.LogicalSectors16 = uint16(totalSectors)
	} else {
		bpb.LogicalSectors32 = totalSectors
	}

	writer := bytewriter.New(image[:blockdevice.SectorSize])
	if err := binary.Write(writer, binary.LittleEndian, &bpb); err != nil {
		panic(err)
	}
}

func writeFAT(image []byte, geom Geometry, firstFATSector uint32, fat []uint16) {
	fatBytes := int(geom.SectorsPerFAT) * blockdevice.SectorSize
	for copyIndex := uint8(0); copyIndex < geom.FATCount; copyIndex++ {
		offset := int(firstFATSector+uint32(copyIndex)*uint32(geom.SectorsPerFAT)) * blockdevice.SectorSize
		writer := bytewriter.New(image[offset : offset+fatBytes])
		if err := binary.Write(writer, binary.LittleEndian, fat); err != nil {
			panic(err)
		}
	}
}

func writeRootDirectory(image []byte, firstRootDirSector uint32, entries [][32]byte) {
	offset := int(firstRootDirSector) * blockdevice.SectorSize
	for _, entry := range entries {
		copy(image[offset:offset+32], entry[:])
		offset += 32
	}
}

func writeClusterData(image []byte, firstDataSector uint32, sectorsPerCluster uint8, clusters map[uint16][]byte) {
	clusterBytes := int(sectorsPerCluster) * blockdevice.SectorSize
	for cluster, data := range clusters {
		offset := int(firstDataSector+(uint32(cluster)-2)*uint32(sectorsPerCluster)) * blockdevice.SectorSize
		copy(image[offset:offset+clusterBytes], data)
	}
}

// NewDevice builds the image and wraps it in a blockdevice.Device backed
// by an in-memory bytesextra.ReadWriteSeeker, ready to hand to fat16.Open.
// It also returns the raw image bytes for assertions that want to inspect
// them directly.
func NewDevice(geom Geometry, files []FileFixture) (*blockdevice.Device, []byte) {
	builder := NewBuilder(geom)
	for _, f := range files {
		builder.AddFile(f.Name, f.Extension, f.Attributes, f.Data)
	}

	raw := builder.Build()
	seeker := bytesextra.NewReadWriteSeeker(raw)

	var rws io.ReadSeeker = seeker
	device, err := blockdevice.NewFromReadSeeker(rws)
	if err != nil {
		panic(err)
	}
	return device, raw
}

// FileFixture is a convenience for the common case of NewDevice: a file
// with automatically allocated, contiguous clusters.
type FileFixture struct {
	Name       string
	Extension  string
	Attributes uint8
	Data       []byte
}

// DeviceFromBytes wraps an already-built (and possibly deliberately
// corrupted) image in a Device, for tests that need to mutate bytes
// Builder produced before mounting them.
func DeviceFromBytes(raw []byte) *blockdevice.Device {
	seeker := bytesextra.NewReadWriteSeeker(raw)
	var rws io.ReadSeeker = seeker
	device, err := blockdevice.NewFromReadSeeker(rws)
	if err != nil {
		panic(err)
	}
	return device
}
