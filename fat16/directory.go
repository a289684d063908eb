package fat16

import (
	"github.com/dargueta/fat16ro/errors"
)

// RootPath is the only directory path this reader can open: the root
// directory marker. Any other path must name a single 8.3 entry in the
// root that has the DIRECTORY attribute set, purely as a validation gate --
// the core never actually descends into it.
const RootPath = `\`

// Directory is a snapshot of the root directory's normalized entry names,
// captured at OpenDir time. It is a value, not a live view: later changes
// to the volume (were this reader not read-only) would not appear in it.
//
// A Directory owns its entry list; Close releases it. A Directory does not
// outlive its Volume.
type Directory struct {
	names  []string
	cursor int
}

// OpenDir validates path, then scans the root directory into a snapshot.
// The snapshot is of the root directory whichever valid path was given.
//
// path must be either RootPath or the normalized name of an existing root
// entry that has the DIRECTORY attribute set. Any other value fails with
// errors.ErrNotFound. A match that exists but is a regular file (or has
// VOLUME_ID set) fails with errors.ErrNotADirectory. This reader never
// actually descends into a non-root directory; validating the path is as
// far as it goes.
func OpenDir(volume *Volume, path string) (*Directory, error) {
	if volume == nil || path == "" {
		return nil, errors.ErrFault
	}

	if path != RootPath {
		if err := validateNonRootPath(volume, path); err != nil {
			return nil, err
		}
	}

	var names []string
	err := volume.scanRootDirectory(func(slot []byte) (bool, error) {
		if slot[0] == terminatorMarker {
			return true, nil
		}
		if slot[0] == deletedMarker {
			return false, nil
		}

		entry, err := parseRawDirent(slot)
		if err != nil {
			return false, err
		}
		if entry.Attributes&AttrVolumeID != 0 {
			return false, nil
		}

		names = append(names, normalizeShortName(entry.Name, entry.Extension))
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return &Directory{names: names}, nil
}

// validateNonRootPath implements the root-only restriction's validation
// gate: path must match an existing root entry that is itself a directory.
func validateNonRootPath(volume *Volume, path string) error {
	found := false
	err := volume.scanRootDirectory(func(slot []byte) (bool, error) {
		if slot[0] == terminatorMarker {
			return true, nil
		}
		if slot[0] == deletedMarker {
			return false, nil
		}

		entry, err := parseRawDirent(slot)
		if err != nil {
			return false, err
		}

		if normalizeShortName(entry.Name, entry.Extension) != path {
			return false, nil
		}

		if entry.Attributes&AttrVolumeID != 0 || entry.Attributes&AttrDirectory == 0 {
			return false, errors.ErrNotADirectory
		}
		found = true
		return false, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return errors.ErrNotFound
	}
	return nil
}

// Read copies the next normalized name in the snapshot into outEntry and
// advances the cursor. It returns 0 on success, 1 at end-of-directory, and
// -1 with errors.ErrFault if d or outEntry is nil.
func (d *Directory) Read(outEntry *string) (int, error) {
	if d == nil || outEntry == nil {
		return -1, errors.ErrFault
	}
	if d.cursor >= len(d.names) {
		return 1, nil
	}
	*outEntry = d.names[d.cursor]
	d.cursor++
	return 0, nil
}

// Close releases the snapshot's captured entry list.
func (d *Directory) Close() error {
	if d == nil {
		return errors.ErrFault
	}
	d.names = nil
	return nil
}

// Names returns every normalized name in the snapshot, in scan order. This
// is a convenience for Go callers that don't want to drive the Read
// tri-state protocol by hand.
func (d *Directory) Names() []string {
	return append([]string(nil), d.names...)
}
