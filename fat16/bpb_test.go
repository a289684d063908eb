package fat16_test

import (
	"testing"

	"github.com/dargueta/fat16ro/errors"
	"github.com/dargueta/fat16ro/fat16"
	"github.com/dargueta/fat16ro/fat16test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallGeometry() fat16test.Geometry {
	return fat16test.Geometry{
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		FATCount:          2,
		RootDirCapacity:   512,
		SectorsPerFAT:     64,
	}
}

// Scenario 1: an empty FAT16 image mounts cleanly and its root directory
// snapshot has zero entries.
func TestOpenVolume_EmptyImage(t *testing.T) {
	device, _ := fat16test.NewDevice(smallGeometry(), nil)

	volume, err := fat16.Open(device, 0)
	require.NoError(t, err)
	defer volume.Close()

	dir, err := fat16.OpenDir(volume, fat16.RootPath)
	require.NoError(t, err)
	defer dir.Close()

	assert.Empty(t, dir.Names())

	var name string
	status, err := dir.Read(&name)
	require.NoError(t, err)
	assert.Equal(t, 1, status)
}

// Boundary: BPB with bytes_per_sector = 1024 fails mount with ErrInvalid.
func TestOpenVolume_BadBytesPerSector(t *testing.T) {
	geom := smallGeometry()
	geom.BytesPerSectorOverride = 1024
	device, _ := fat16test.NewDevice(geom, nil)

	_, err := fat16.Open(device, 0)
	assert.ErrorIs(t, err, errors.ErrInvalid)
}

// Boundary: two FAT copies differing in a single byte fail mount with
// ErrInvalid, and no lasting state is allocated.
func TestOpenVolume_MismatchedFATCopies(t *testing.T) {
	geom := smallGeometry()
	builder := fat16test.NewBuilder(geom)
	builder.AddFile("README", "TXT", 0, []byte("HELLO\r\n"))
	raw := builder.Build()

	// Flip one byte in the second FAT copy.
	secondFATOffset := int(geom.ReservedSectors+geom.SectorsPerFAT) * 512
	raw[secondFATOffset+10] ^= 0xFF

	device := fat16test.DeviceFromBytes(raw)
	_, err := fat16.Open(device, 0)
	assert.ErrorIs(t, err, errors.ErrInvalid)
}

func TestOpenVolume_FATCountTooLow(t *testing.T) {
	geom := smallGeometry()
	geom.FATCount = 1
	device, _ := fat16test.NewDevice(geom, nil)

	_, err := fat16.Open(device, 0)
	assert.ErrorIs(t, err, errors.ErrInvalid)
}

func TestOpenVolume_AtNonzeroFirstSector(t *testing.T) {
	geom := smallGeometry()
	builder := fat16test.NewBuilder(geom)
	builder.AddFile("README", "TXT", 0, []byte("HELLO\r\n"))
	raw := builder.Build()

	// Prefix the image with one sector of padding, as if preceded by a
	// partition table, and mount starting at sector 1.
	padded := append(make([]byte, 512), raw...)
	device := fat16test.DeviceFromBytes(padded)

	volume, err := fat16.Open(device, 1)
	require.NoError(t, err)
	defer volume.Close()

	file, err := fat16.OpenFile(volume, "README.TXT")
	require.NoError(t, err)
	defer file.Close()
	assert.EqualValues(t, 7, file.Size())
}
