package fat16_test

import (
	"testing"

	"github.com/dargueta/fat16ro/errors"
	"github.com/dargueta/fat16ro/fat16"
	"github.com/dargueta/fat16ro/fat16test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openVolume(t *testing.T, geom fat16test.Geometry, files []fat16test.FileFixture) *fat16.Volume {
	t.Helper()
	device, _ := fat16test.NewDevice(geom, files)
	volume, err := fat16.Open(device, 0)
	require.NoError(t, err)
	return volume
}

func TestDirectoryOpen_ListsNormalizedNames(t *testing.T) {
	volume := openVolume(t, smallGeometry(), []fat16test.FileFixture{
		{Name: "README", Extension: "TXT", Data: []byte("hello")},
		{Name: "AUTOEXEC", Extension: "BAT", Data: []byte("echo hi")},
	})
	defer volume.Close()

	dir, err := fat16.OpenDir(volume, fat16.RootPath)
	require.NoError(t, err)
	defer dir.Close()

	assert.ElementsMatch(t, []string{"README.TXT", "AUTOEXEC.BAT"}, dir.Names())
}

func TestDirectoryOpen_SkipsDeletedEntries(t *testing.T) {
	geom := smallGeometry()
	builder := fat16test.NewBuilder(geom)
	builder.AddFile("README", "TXT", 0, []byte("hello"))
	builder.AddDeletedFile("OLD", "TXT")
	raw := builder.Build()

	device := fat16test.DeviceFromBytes(raw)
	volume, err := fat16.Open(device, 0)
	require.NoError(t, err)
	defer volume.Close()

	dir, err := fat16.OpenDir(volume, fat16.RootPath)
	require.NoError(t, err)
	defer dir.Close()

	assert.Equal(t, []string{"README.TXT"}, dir.Names())
}

func TestDirectoryRead_TriState(t *testing.T) {
	volume := openVolume(t, smallGeometry(), []fat16test.FileFixture{
		{Name: "A", Extension: "", Data: []byte("x")},
	})
	defer volume.Close()

	dir, err := fat16.OpenDir(volume, fat16.RootPath)
	require.NoError(t, err)
	defer dir.Close()

	var name string
	status, err := dir.Read(&name)
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "A", name)

	status, err = dir.Read(&name)
	require.NoError(t, err)
	assert.Equal(t, 1, status)
}

func TestDirectoryOpen_NonRootPathRejected(t *testing.T) {
	volume := openVolume(t, smallGeometry(), []fat16test.FileFixture{
		{Name: "README", Extension: "TXT", Data: []byte("hello")},
	})
	defer volume.Close()

	_, err := fat16.OpenDir(volume, "README.TXT")
	assert.ErrorIs(t, err, errors.ErrNotADirectory)
}

func TestDirectoryOpen_UnknownPathFails(t *testing.T) {
	volume := openVolume(t, smallGeometry(), nil)
	defer volume.Close()

	_, err := fat16.OpenDir(volume, "NOPE")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestDirectoryOpen_DirectoryAttributeNameAccepted(t *testing.T) {
	geom := smallGeometry()
	builder := fat16test.NewBuilder(geom)
	builder.AddFile("SUBDIR", "", fat16.AttrDirectory, nil)
	raw := builder.Build()

	device := fat16test.DeviceFromBytes(raw)
	volume, err := fat16.Open(device, 0)
	require.NoError(t, err)
	defer volume.Close()

	dir, err := fat16.OpenDir(volume, "SUBDIR")
	require.NoError(t, err)
	defer dir.Close()
}
