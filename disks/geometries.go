// Package disks holds predefined FAT16 geometries for common removable and
// fixed media, so callers building or identifying a volume don't have to
// hand-type BPB constants.
package disks

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// FAT16Geometry is a named, historically accurate set of BPB parameters for
// a particular kind of FAT16 media.
type FAT16Geometry struct {
	Slug              string `csv:"slug"`
	Description       string `csv:"description"`
	BytesPerSector    uint16 `csv:"bytes_per_sector"`
	SectorsPerCluster uint8  `csv:"sectors_per_cluster"`
	ReservedSectors   uint16 `csv:"reserved_sectors"`
	FATCount          uint8  `csv:"fat_count"`
	RootDirCapacity   uint16 `csv:"root_dir_capacity"`
	SectorsPerFAT     uint16 `csv:"sectors_per_fat"`
	TotalSectors      uint32 `csv:"total_sectors"`
}

//go:embed fat16-geometries.csv
var fat16GeometriesRawCSV string

var fat16Geometries map[string]FAT16Geometry

// LookupFAT16Geometry returns the predefined geometry registered under slug,
// e.g. "zip100" or "hdd32".
func LookupFAT16Geometry(slug string) (FAT16Geometry, error) {
	geometry, ok := fat16Geometries[slug]
	if !ok {
		return FAT16Geometry{}, fmt.Errorf("no predefined FAT16 geometry exists with slug %q", slug)
	}
	return geometry, nil
}

// KnownFAT16GeometrySlugs returns every registered slug, for diagnostics and
// tests.
func KnownFAT16GeometrySlugs() []string {
	slugs := make([]string, 0, len(fat16Geometries))
	for slug := range fat16Geometries {
		slugs = append(slugs, slug)
	}
	return slugs
}

func init() {
	fat16Geometries = make(map[string]FAT16Geometry)
	reader := strings.NewReader(fat16GeometriesRawCSV)

	err := gocsv.UnmarshalToCallback(reader, func(row FAT16Geometry) error {
		if _, exists := fat16Geometries[row.Slug]; exists {
			return fmt.Errorf("duplicate definition for FAT16 geometry %q", row.Slug)
		}
		fat16Geometries[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}
