package fat16

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/dargueta/fat16ro/blockdevice"
	"github.com/dargueta/fat16ro/errors"
)

// Directory entry attribute flags.
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
)

// DirentSize is the size in bytes of one on-disk directory entry.
const DirentSize = 32

// deletedMarker is the first-byte value of a deleted directory slot.
const deletedMarker = 0xE5

// terminatorMarker is the first-byte value marking the end of a directory.
const terminatorMarker = 0x00

// rawDirent is the on-disk layout of a 32-byte directory entry.
type rawDirent struct {
	Name            [8]byte
	Extension       [3]byte
	Attributes      uint8
	Reserved        [10]byte
	TimeCreated     uint16
	DateCreated     uint16
	StartingCluster uint16
	FileSize        uint32
}

func parseRawDirent(slot []byte) (rawDirent, error) {
	var entry rawDirent
	if err := binary.Read(bytes.NewReader(slot), binary.LittleEndian, &entry); err != nil {
		return rawDirent{}, errors.ErrIO.Wrap(err)
	}
	return entry, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// leadingAlphaRun returns the contiguous run of alphabetic bytes at the
// start of b, up to max bytes.
func leadingAlphaRun(b []byte, max int) string {
	var sb strings.Builder
	for i := 0; i < len(b) && i < max; i++ {
		if !isAlpha(b[i]) {
			break
		}
		sb.WriteByte(b[i])
	}
	return sb.String()
}

// normalizeShortName computes the display name for a raw directory entry:
// if the extension field is blank, the name is the leading alphabetic run
// of the 8-byte name field; otherwise it's that run, a literal '.', and
// then as many leading bytes of the extension as the extension has
// alphabetic bytes *anywhere* in it.
//
// That last clause is not a typo: it faithfully reproduces the on-disk
// reader's quirk of counting how many of the 3 extension bytes are
// alphabetic, then blindly copying that many bytes starting from the
// beginning of the extension, whether or not those particular bytes are
// themselves alphabetic. An extension field of "1BC" has two alphabetic
// bytes ('B' and 'C'), so the normalized name gets the first two raw bytes
// of the field, "1B", verbatim -- not the two alphabetic bytes "BC". This
// quirk is reproduced faithfully rather than fixed.
func normalizeShortName(name [8]byte, ext [3]byte) string {
	if ext[0] == ' ' {
		return leadingAlphaRun(name[:], 8)
	}

	var sb strings.Builder
	sb.WriteString(leadingAlphaRun(name[:], 8))
	sb.WriteByte('.')

	alphaCount := 0
	for _, c := range ext {
		if isAlpha(c) {
			alphaCount++
		}
	}
	for i := 0; i < alphaCount && i < len(ext); i++ {
		sb.WriteByte(ext[i])
	}
	return sb.String()
}

// splitShortName turns a query string like "readme.txt" into the
// space-padded 8.3 name/extension pair used to compare against raw
// directory entries. Any byte that isn't alphabetic -- including digits,
// punctuation, and the padding left over from a name shorter than 8 or an
// extension shorter than 3 -- becomes a space, matching the source's
// fill_name_with_spaces. No case folding is performed: callers are expected
// to pass already-uppercase names, same as the on-disk entries they're
// compared against.
func splitShortName(query string) ([8]byte, [3]byte) {
	namePart := query
	extPart := ""
	if idx := strings.IndexByte(query, '.'); idx >= 0 {
		namePart = query[:idx]
		extPart = query[idx+1:]
	}

	var name [8]byte
	var ext [3]byte
	fillSpaceForNonAlpha(namePart, name[:])
	fillSpaceForNonAlpha(extPart, ext[:])
	return name, ext
}

func fillSpaceForNonAlpha(src string, dst []byte) {
	for i := range dst {
		if i < len(src) && isAlpha(src[i]) {
			dst[i] = src[i]
		} else {
			dst[i] = ' '
		}
	}
}

// scanRootDirectory walks the root directory sector by sector -- one sector
// per iteration, RootDirSectors iterations total -- and calls visit once
// per 32-byte slot in order. visit returns stop=true to end the scan
// early (used for the 0x00 terminator convention); any error it returns
// aborts the scan immediately.
func (v *Volume) scanRootDirectory(visit func(slot []byte) (stop bool, err error)) error {
	buffer := make([]byte, blockdevice.SectorSize)
	for i := uint32(0); i < v.bpb.RootDirSectors; i++ {
		if _, err := v.readSectors(v.bpb.FirstRootDirSector+i, buffer, 1); err != nil {
			return err
		}

		for offset := 0; offset+DirentSize <= len(buffer); offset += DirentSize {
			stop, err := visit(buffer[offset : offset+DirentSize])
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
	}
	return nil
}
