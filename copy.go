package sparse

import (
	"io"

	"github.com/cockroachdb/errors"
)

// Copy copies the sparse data from r to appropriate locations within w,
// seeking over the gaps. Returns the number of bytes copied, excluding
// regions skipped. Reaching the end of r is not an error.
func Copy(w io.WriteSeeker, r Reader) (n int64, err error) {
	for {
		var nn, skip int64
		nn, err = io.Copy(w, r)
		n += nn
		if err != nil {
			return n, err
		}

		if skip, err = r.Next(); err != nil {
			if err == io.EOF {
				err = nil
			}
			return n, err
		}
		if skip > 0 {
			if _, err = w.Seek(skip, io.SeekCurrent); err != nil {
				return n, err
			}
		}
	}
}

// Load builds a Buffer from the sparse stream r, placing its first byte at
// base.
func Load(r Reader, base uint64) (*Buffer, error) {
	var b Buffer
	w := b.Writer(base)
	if _, err := Copy(w, r); err != nil {
		return nil, errors.Wrap(err, "sparse: load")
	}
	return &b, nil
}

// Writer is an io.WriteSeeker that stores what is written into a Buffer.
type Writer struct {
	b   *Buffer
	pos int64
}

// Writer returns a Writer positioned at addr.
func (b *Buffer) Writer(addr uint64) *Writer {
	return &Writer{b: b, pos: int64(addr)}
}

// Write stores p at the current position and advances past it.
func (w *Writer) Write(p []byte) (n int, err error) {
	n, err = w.b.WriteAt(p, w.pos)
	w.pos += int64(n)
	return
}

// Seek moves the position. Any position at or above zero is allowed; writes
// past the end of the buffer leave a gap.
func (w *Writer) Seek(ofs int64, whence int) (int64, error) {
	n, err := resolveSeek(ofs, whence, w.pos, int64(w.b.End()), w.b.Cursor())
	if err != nil {
		return w.pos, err
	}
	w.pos = n
	return n, nil
}
