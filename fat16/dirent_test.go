package fat16

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeShortName_NoExtension(t *testing.T) {
	var name [8]byte
	copy(name[:], "README  ")
	var ext [3]byte
	copy(ext[:], "   ")

	assert.Equal(t, "README", normalizeShortName(name, ext))
}

func TestNormalizeShortName_WithExtension(t *testing.T) {
	var name [8]byte
	copy(name[:], "AUTOEXEC")
	var ext [3]byte
	copy(ext[:], "BAT")

	assert.Equal(t, "AUTOEXEC.BAT", normalizeShortName(name, ext))
}

// TestNormalizeShortName_NonAlphaExtensionQuirk pins down the faithfully
// reproduced counting quirk: an extension of "1BC" has two alphabetic bytes
// ('B', 'C'), so normalizeShortName copies the first two raw bytes of the
// extension field ("1B"), not the two bytes that are themselves alphabetic.
func TestNormalizeShortName_NonAlphaExtensionQuirk(t *testing.T) {
	var name [8]byte
	copy(name[:], "DATA    ")
	var ext [3]byte
	copy(ext[:], "1BC")

	assert.Equal(t, "DATA.1B", normalizeShortName(name, ext))
}

func TestNormalizeShortName_StopsAtFirstNonAlpha(t *testing.T) {
	var name [8]byte
	copy(name[:], "AB12CDEF")
	var ext [3]byte
	copy(ext[:], "   ")

	assert.Equal(t, "AB", normalizeShortName(name, ext))
}

func TestSplitShortName_PadsWithSpaces(t *testing.T) {
	name, ext := splitShortName("README.TXT")

	var expectedName [8]byte
	copy(expectedName[:], "README  ")
	var expectedExt [3]byte
	copy(expectedExt[:], "TXT")

	assert.Equal(t, expectedName, name)
	assert.Equal(t, expectedExt, ext)
}

func TestSplitShortName_NoExtension(t *testing.T) {
	name, ext := splitShortName("README")

	var expectedName [8]byte
	copy(expectedName[:], "README  ")
	var expectedExt [3]byte
	copy(expectedExt[:], "   ")

	assert.Equal(t, expectedName, name)
	assert.Equal(t, expectedExt, ext)
}

func TestSplitShortName_DigitsBecomeSpaces(t *testing.T) {
	name, _ := splitShortName("FILE123.TXT")

	var expectedName [8]byte
	copy(expectedName[:], "FILE    ")

	assert.Equal(t, expectedName, name)
}
