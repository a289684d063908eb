package disks_test

import (
	"testing"

	"github.com/dargueta/fat16ro/disks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupFAT16Geometry(t *testing.T) {
	geometry, err := disks.LookupFAT16Geometry("zip100")
	require.NoError(t, err)
	assert.EqualValues(t, 512, geometry.BytesPerSector)
	assert.EqualValues(t, 2, geometry.FATCount)
	assert.Equal(t, "Iomega Zip 100MB", geometry.Description)
}

func TestLookupFAT16GeometryUnknownSlug(t *testing.T) {
	_, err := disks.LookupFAT16Geometry("does-not-exist")
	assert.Error(t, err)
}

func TestKnownFAT16GeometrySlugsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, disks.KnownFAT16GeometrySlugs())
}
