package sparse

import (
	"io"
)

// Zero reads nothing but zeros at every location. It is the default fallback
// for NewReader and NewReadSeeker.
var Zero = Constant(0)

// ReadSeeker implements io.ReadSeeker and io.ReaderAt from the given sparse
// ReadFinder and a fallback io.ReaderAt to fill in the gaps. If Fallback is
// nil, Zero is used. Any Pattern can serve as the fallback. Attempts to read
// beyond the last segment will result in io.EOF.
type ReadSeeker struct {
	src      ReadFinder
	Fallback io.ReaderAt
	filePos  int64
}

// NewReadSeeker creates a ReadSeeker from the sparse rd, falling back to
// fallback for reads outside of the regions covered by rd.
func NewReadSeeker(rd ReadFinder, fallback io.ReaderAt) *ReadSeeker {
	return &ReadSeeker{src: rd, Fallback: fallback}
}

// Read reads from the current position. Attempts to read beyond the final
// segment will result in io.EOF. Reads within the gaps between segments will
// read instead from the fallback reader.
func (b *ReadSeeker) Read(p []byte) (n int, err error) {
	if b == nil {
		return 0, io.EOF
	}
	n, err = b.ReadAt(p, b.filePos)
	b.filePos += int64(n)
	return
}

// Seek sets the position to ofs, relative to whence, which may be any of
// io.SeekStart, io.SeekCurrent, io.SeekEnd, SeekData or SeekHole.
func (b *ReadSeeker) Seek(ofs int64, whence int) (n int64, err error) {
	n, err = resolveSeek(ofs, whence, b.filePos, b.src.Size(), b.src)
	if err != nil {
		return b.filePos, err
	}
	b.filePos = n
	return n, nil
}

func (b *ReadSeeker) fallbackOrZero() io.ReaderAt {
	if b.Fallback != nil {
		return b.Fallback
	}
	return Zero
}

// ReadAt reads from the source at ofs into p. Reads beyond the final segment
// result in io.EOF; gaps between segments are read from the fallback at the
// same offset. This method does not affect the position used by Read, but
// may move the position of the underlying ReadFinder.
func (b *ReadSeeker) ReadAt(p []byte, ofs int64) (n int, err error) {
	for n < len(p) {
		var nn int
		var dataOfs int64
		dataOfs, _, err = b.src.Find(ofs)
		if err != nil {
			break
		}

		if ofs < dataOfs {
			// In a gap until dataOfs.
			limit := int64(len(p))
			if gapEnd := int64(n) + dataOfs - ofs; gapEnd < limit {
				limit = gapEnd
			}
			nn, err = b.fallbackOrZero().ReadAt(p[n:limit], ofs)
			n += nn
			ofs += int64(nn)
			if nn == 0 || (err != nil && err != io.EOF) {
				break
			}
			err = nil
			continue
		}

		nn, err = b.src.Read(p[n:])
		n += nn
		ofs += int64(nn)
		if err == io.EOF {
			err = nil
			continue
		}
		if err != nil {
			break
		}
	}
	return
}

type streamReader struct {
	src      Reader
	fallback io.Reader

	gap int64
	err error
}

// NewReader returns an io.Reader that reads from r (a sparse Reader) and fills
// in the gaps from fallback.  If fallback is nil, reads from Zero.  Reads from
// fallback will be continuous.  An attempt to read beyond the farthest segment
// of data in r will return io.EOF. If fallback returns io.EOF before r,
// behavior is undefined.
func NewReader(r Reader, fallback io.Reader) io.Reader {
	if fallback == nil {
		fallback = Zero
	}
	return &streamReader{src: r, fallback: fallback}
}

// Read reads into p the next available bytes.  If the position lies within a
// gap, bytes will be read from the fallback reader instead.
func (ir *streamReader) Read(p []byte) (n int, err error) {
	if ir.err != nil {
		return 0, ir.err
	}
	for n < len(p) && err == nil {
		var nn int
		for n < len(p) && ir.gap > 0 {
			want := int64(n) + ir.gap
			if want > int64(len(p)) {
				want = int64(len(p))
			}
			nn, err = ir.fallback.Read(p[n:want])
			ir.gap -= int64(nn)
			n += nn
			if err != nil {
				break
			}
		}
		if n == len(p) || err != nil {
			break
		}
		nn, err = ir.src.Read(p[n:])
		n += nn
		if err == io.EOF {
			ir.gap, ir.err = ir.src.Next()
			err = ir.err
		}
	}
	if err == io.EOF && n > 0 {
		err = nil
	}
	if err == nil && n == 0 {
		err = io.EOF
	}
	return
}
