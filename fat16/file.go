package fat16

import (
	"io"
	"strings"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/fat16ro/blockdevice"
	"github.com/dargueta/fat16ro/errors"
)

// File is a read-only, seekable handle onto one regular file's content,
// resolved by 8.3 short-name lookup in the root directory.
//
// Opening a File reconstructs its full cluster chain and eagerly reads the
// entire payload into memory. A future version could stream clusters
// lazily behind the same Read/Seek interface without breaking callers, so
// callers must not assume a file's whole content stays resident.
//
// A File owns its cluster chain and payload; Close releases both. A File
// does not outlive its Volume.
type File struct {
	shortName string
	chain     []ClusterID
	payload   []byte
	size      int64
	cursor    int64
}

// OpenFile resolves name (an 8.3 short name, e.g. "README.TXT") against the
// root directory, reconstructs its cluster chain, and materializes its full
// content.
//
// Fails with errors.ErrNotFound if no entry matches after a full root scan,
// and errors.ErrIsADirectory if the match has the DIRECTORY attribute set.
func OpenFile(volume *Volume, name string) (*File, error) {
	if volume == nil || name == "" {
		return nil, errors.ErrFault
	}

	queryName, queryExt := splitShortName(name)

	var match *rawDirent
	err := volume.scanRootDirectory(func(slot []byte) (bool, error) {
		if slot[0] == terminatorMarker {
			return true, nil
		}

		entry, err := parseRawDirent(slot)
		if err != nil {
			return false, err
		}
		if entry.Attributes&AttrVolumeID != 0 {
			return false, nil
		}
		if entry.Name != queryName || entry.Extension != queryExt {
			return false, nil
		}

		found := entry
		match = &found
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, errors.ErrNotFound
	}
	if match.Attributes&AttrDirectory != 0 {
		return nil, errors.ErrIsADirectory
	}

	var chain []ClusterID
	var payload []byte
	if match.FileSize > 0 {
		chain, err = volume.walkClusterChain(ClusterID(match.StartingCluster))
		if err != nil {
			return nil, err
		}
		payload, err = volume.readClusterChainData(chain, match.FileSize)
		if err != nil {
			return nil, err
		}
	}

	return &File{
		shortName: joinShortName(match.Name, match.Extension),
		chain:     chain,
		payload:   payload,
		size:      int64(match.FileSize),
	}, nil
}

func joinShortName(name [8]byte, ext [3]byte) string {
	trimmedName := strings.TrimRight(string(name[:]), " ")
	trimmedExt := strings.TrimRight(string(ext[:]), " ")
	if trimmedExt == "" {
		return trimmedName
	}
	return trimmedName + "." + trimmedExt
}

// walkClusterChain reconstructs the ordered list of clusters belonging to a
// file starting at start by following FAT links: cluster c is followed by
// fat[c] as long as fat[c] < EndOfChainMin; reaching a value >= EndOfChainMin
// ends the chain.
//
// Every cluster visited must satisfy 2 <= c < EndOfChainMin; a link outside
// that range, a link to a free or bad cluster, or a repeated cluster
// (cycle) all fail with errors.ErrInvalid. As a second line of defense
// against malformed images, the walk is bounded to at most
// DataSectors/SectorsPerCluster + 2 iterations.
func (v *Volume) walkClusterChain(start ClusterID) ([]ClusterID, error) {
	maxIterations := v.bpb.DataSectors/uint32(v.bpb.SectorsPerCluster) + 2
	visited := bitmap.NewSlice(len(v.fat))

	chain := make([]ClusterID, 0, maxIterations)
	current := start

	for i := uint32(0); ; i++ {
		if i >= maxIterations {
			return nil, errors.ErrInvalid.WithMessage("cluster chain exceeds maximum possible length")
		}
		if current < 2 || uint32(current) >= EndOfChainMin || int(current) >= len(v.fat) {
			return nil, errors.ErrInvalid.WithMessage("cluster chain references an out-of-range cluster")
		}
		if visited.Get(int(current)) {
			return nil, errors.ErrInvalid.WithMessage("cluster chain contains a cycle")
		}
		visited.Set(int(current), true)
		chain = append(chain, current)

		next, err := v.fatEntry(current)
		if err != nil {
			return nil, err
		}
		if next >= EndOfChainMin {
			return chain, nil
		}
		if next == FreeCluster || next == BadCluster {
			return nil, errors.ErrInvalid.WithMessage("cluster chain links to a free or bad cluster")
		}
		current = ClusterID(next)
	}
}

// readClusterChainData reads chain's clusters in order into a freshly
// allocated buffer of exactly size bytes, stopping as soon as size bytes
// have been copied (the last cluster read may be partial).
func (v *Volume) readClusterChainData(chain []ClusterID, size uint32) ([]byte, error) {
	payload := make([]byte, size)
	clusterBytes := uint32(v.bpb.SectorsPerCluster) * blockdevice.SectorSize
	clusterBuf := make([]byte, clusterBytes)

	var written uint32
	for _, c := range chain {
		if written >= size {
			break
		}

		if _, err := v.readSectors(v.clusterToSector(c), clusterBuf, uint32(v.bpb.SectorsPerCluster)); err != nil {
			return nil, err
		}

		copyLen := clusterBytes
		if written+copyLen > size {
			copyLen = size - written
		}
		copy(payload[written:written+copyLen], clusterBuf[:copyLen])
		written += copyLen
	}
	return payload, nil
}

// ShortName returns the file's normalized 8.3 name, e.g. "README.TXT" or,
// for an entry with a blank extension, just "README".
func (f *File) ShortName() string {
	return f.shortName
}

// Size returns the file's size in bytes, as recorded in its directory
// entry.
func (f *File) Size() int64 {
	return f.size
}

// Read implements io.Reader over the file's materialized payload.
func (f *File) Read(p []byte) (int, error) {
	if f == nil {
		return 0, errors.ErrFault
	}
	if f.cursor >= f.size {
		return 0, io.EOF
	}
	n := copy(p, f.payload[f.cursor:])
	f.cursor += int64(n)
	return n, nil
}

// ReadElements copies up to elementSize*elementCount bytes from the current
// cursor into dest, stopping at end-of-file, and returns the number of
// *whole* elements copied. A partial trailing element still advances the
// cursor by the bytes actually copied, but is not counted.
func (f *File) ReadElements(dest []byte, elementSize, elementCount int) (int, error) {
	if f == nil || dest == nil {
		return 0, errors.ErrFault
	}
	if elementSize <= 0 || elementCount < 0 {
		return 0, errors.ErrFault
	}

	wanted := elementSize * elementCount
	if wanted > len(dest) {
		wanted = len(dest)
	}

	n, err := f.Read(dest[:wanted])
	if err != nil && err != io.EOF {
		return 0, err
	}
	return n / elementSize, nil
}

// Seek implements io.Seeker. whence is one of io.SeekStart, io.SeekCurrent,
// or io.SeekEnd; any other value fails with errors.ErrInvalid. The
// resulting position must satisfy 0 <= pos <= Size(), or the seek fails
// with errors.ErrNoSuchAddress and the cursor is left unchanged.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f == nil {
		return 0, errors.ErrFault
	}

	var newPosition int64
	switch whence {
	case io.SeekStart:
		newPosition = offset
	case io.SeekCurrent:
		newPosition = f.cursor + offset
	case io.SeekEnd:
		newPosition = f.size + offset
	default:
		return 0, errors.ErrInvalid
	}

	if newPosition < 0 || newPosition > f.size {
		return 0, errors.ErrNoSuchAddress
	}

	f.cursor = newPosition
	return newPosition, nil
}

// Close releases the file's materialized payload and cluster chain.
func (f *File) Close() error {
	if f == nil {
		return errors.ErrFault
	}
	f.payload = nil
	f.chain = nil
	return nil
}
