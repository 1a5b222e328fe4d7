package sparse

import (
	"io"
	"math"

	"github.com/cockroachdb/errors"
)

// WriteAt stores a copy of p at offset off. It implements io.WriterAt.
func (b *Buffer) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errOffset
	}
	if err := b.Set(uint64(off), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReadAt reads len(p) bytes starting at off, filling gaps from the padding
// pattern. It implements io.ReaderAt; reads past End return io.EOF.
func (b *Buffer) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, errOffset
	}
	end := b.End()
	if uint64(off) >= end {
		return 0, io.EOF
	}
	if rem := end - uint64(off); uint64(len(p)) > rem {
		p = p[:rem]
		err = io.EOF
	}
	if rerr := b.read(p, uint64(off), b.Padding()); rerr != nil {
		return 0, rerr
	}
	return len(p), err
}

// writeChunk bounds the memory used to synthesize padding in WriteTo.
const writeChunk = 32 << 10

// WriteTo writes the buffer's range, from Start to End, to w. Gaps are
// filled from the padding pattern, tiled from Start. It implements
// io.WriterTo.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if len(b.parts) == 0 {
		return 0, nil
	}
	start := b.parts[0].Start
	pad := b.Padding()
	var chunk []byte
	for i, p := range b.parts {
		if i > 0 {
			for gap := b.parts[i-1].End(); gap < p.Start; {
				size := min(p.Start-gap, writeChunk)
				if chunk == nil {
					chunk = make([]byte, writeChunk)
				}
				if pad.kind == PatternFail {
					return n, missing(gap, p.Start-gap)
				}
				if err := pad.fill(chunk[:size], gap-start); err != nil {
					return n, err
				}
				nn, err := w.Write(chunk[:size])
				n += int64(nn)
				if err != nil {
					return n, err
				}
				gap += size
			}
		}
		nn, err := w.Write(p.Data)
		n += int64(nn)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// LoadFrom reads size bytes from r starting at offset off and stores them at
// addr, replacing data already there. A negative size reads until r is
// exhausted. It returns the number of bytes stored.
func (b *Buffer) LoadFrom(r io.ReaderAt, addr uint64, off, size int64) (int64, error) {
	if off < 0 {
		return 0, errOffset
	}
	var data []byte
	if size < 0 {
		var err error
		data, err = io.ReadAll(io.NewSectionReader(r, off, math.MaxInt64-off))
		if err != nil {
			return 0, errors.Wrapf(err, "sparse: load at offset %d", off)
		}
	} else {
		data = make([]byte, size)
		nn, err := r.ReadAt(data, off)
		if nn < len(data) {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, errors.Wrapf(err, "sparse: load %d bytes at offset %d", size, off)
		}
	}
	if err := b.StoreAt(data, addr); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
