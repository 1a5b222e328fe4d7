package sparse

import (
	"io"

	"github.com/cockroachdb/errors"
)

// Additional whence values accepted by the Seek methods in this package,
// mirroring lseek(2).
const (
	SeekData = 3
	SeekHole = 4
)

var (
	// ErrSeekEOF is returned when SeekData finds no data at or after the
	// requested offset.
	ErrSeekEOF = errors.New("seek beyond EOF")
	errWhence  = errors.New("Seek: invalid whence")
	errOffset  = errors.New("Seek: invalid offset")
)

// resolveSeekFinder resolves SeekData and SeekHole by asking fin where the
// data at or after ofs begins.
func resolveSeekFinder(ofs int64, whence int, fin Finder) (int64, error) {
	for {
		start, size, err := fin.Find(ofs)
		if err != nil {
			if err == io.EOF {
				if whence == SeekHole {
					return ofs, nil
				}
				return 0, ErrSeekEOF
			}
			return 0, err
		}
		if whence == SeekData {
			return max(start, ofs), nil
		}
		if ofs < start {
			// Data begins after ofs, so ofs is inside a hole.
			return ofs, nil
		}
		// ofs is inside a segment; the hole starts where it ends, or later.
		ofs = start + size
	}
}

func resolveSeek(ofs int64, whence int, currentPos, endPos int64, fin Finder) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		ofs += currentPos
	case io.SeekEnd:
		ofs += endPos
	case SeekData, SeekHole:
		if fin == nil || ofs < 0 {
			return 0, errOffset
		}
		return resolveSeekFinder(ofs, whence, fin)
	default:
		return 0, errWhence
	}
	if ofs < 0 {
		return 0, errOffset
	}
	return ofs, nil
}
