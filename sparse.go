// Package sparse holds binary memory images as sparse collections of byte
// runs scattered over a 64-bit address space.
//
// Buffer is the central type. It stores parts, runs of bytes anchored at an
// absolute address, and keeps them sorted, disjoint and never adjacent. Reads
// over the gaps between parts are synthesized from a Pattern, so a Buffer can
// describe a firmware image spanning gigabytes while only holding the few
// kilobytes that were actually written.
//
// Reader is used by types advancing forward through sparse data. The Read()
// method is used to read bytes within a segment of data, and Next() will
// advance ahead to the next segment.
//
// Finder is used by types representing addressable sparse data, where callers
// can locate segments of data and read them in a random access fashion. It
// implements Find, which is the sparse equivalent of Seek. A Buffer's Cursor
// implements both.
package sparse

import (
	"io"
)

// Reader is implemented by types wanting to stream sparse data.  When the
// stream position reaches a gap in the data (which could be at the start of
// the stream), Read returns io.EOF. Callers can use Next() to advance the
// stream position to the next segment of data, and can then call Read to
// retrieve bytes at that position. Segments may be zero-length. That is, Read
// may return io.EOF even after a successful call to Next. The true end of the
// sparse stream is reached when Next returns io.EOF.
type Reader interface {
	io.Reader
	Next() (skip int64, err error)
}

// Finder allows the discovery and reading of sparse data.  Use Find to locate
// sparse data at or after an offset, and Size() to determine the maximum extent
// of sparse data.
type Finder interface {
	// Find moves the read position to the sparse data at or after ofs. This
	// may be within a segment of sparse data, or it may be the start of the
	// next segment after ofs. Returns the absolute offset of the start of
	// this segment and its size. If there is no more data, returns io.EOF.
	Find(ofs int64) (readerOfs int64, size int64, err error)

	// Size returns the total apparent size of this data.
	Size() int64
}

// ReadFinder allows reading and discovery of sparse data.  It is is the
// sparse-friendly equivalent of ReadSeeker.
type ReadFinder interface {
	io.Reader
	Finder
}
