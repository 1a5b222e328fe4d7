package sparse

import (
	"io"
)

// Cursor streams the contents of a Buffer. It implements Reader, ReadFinder
// and io.Seeker, keeping its own position so that several cursors can read
// one Buffer independently. Offsets are int64, so a Cursor cannot reach
// addresses at or above 2^63.
//
// The Buffer must not be modified while a Cursor is reading it, other than
// through a Writer positioned elsewhere and followed by a Seek or Find.
type Cursor struct {
	b   *Buffer
	pos int64
}

// Cursor returns a Cursor positioned at address 0.
func (b *Buffer) Cursor() *Cursor {
	return &Cursor{b: b}
}

// at returns the index of the first part ending after off.
func (c *Cursor) at(off int64) int {
	i := c.b.search(uint64(off))
	if i < len(c.b.parts) && c.b.parts[i].End() == uint64(off) {
		i++
	}
	return i
}

// Find moves the position to the first byte of data available at or after
// off.  If off does not point within a part, but a part lies after it, the
// position will be moved to the start of that part.  Returns the starting
// offset and size of the part found. Callers may infer that the new position
// is either off, or readerOfs if readerOfs>off. If no data lies at or after
// off, returns io.EOF.
func (c *Cursor) Find(off int64) (readerOfs, size int64, err error) {
	if off < 0 {
		return 0, 0, errOffset
	}
	i := c.at(off)
	if i >= len(c.b.parts) {
		return 0, 0, io.EOF
	}
	p := c.b.parts[i]
	c.pos = max(off, int64(p.Start))
	return int64(p.Start), int64(len(p.Data)), nil
}

// Read reads up to len(p) bytes of data found at the current position. If the
// position points to a gap, which could be at the start of the buffer,
// returns io.EOF without reading any bytes. Callers should call Next() or
// Find(off) to move ahead to the next part or to determine whether the actual
// EOF was reached.
func (c *Cursor) Read(p []byte) (n int, err error) {
	i := c.at(c.pos)
	if i >= len(c.b.parts) || !c.b.parts[i].contains(uint64(c.pos)) {
		return 0, io.EOF
	}
	part := c.b.parts[i]
	n = copy(p, part.Data[uint64(c.pos)-part.Start:])
	c.pos += int64(n)
	return n, nil
}

// Next advances to the next part.  If the position is currently within a
// part, it will be advanced beyond the end of it to the following one. If
// there is no next part, the position moves to the end of the data and the
// following call returns io.EOF.
func (c *Cursor) Next() (skip int64, err error) {
	start := c.pos
	for i := c.at(start); i < len(c.b.parts); i++ {
		if off := int64(c.b.parts[i].Start); off > start {
			c.pos = off
			return off - start, nil
		}
	}
	if size := c.Size(); start < size {
		c.pos = size
		return size - start, nil
	}
	return 0, io.EOF
}

// Size returns the address after the last stored byte.
func (c *Cursor) Size() int64 {
	return int64(c.b.End())
}

// Seek sets the position to ofs, relative to whence.  Seek supports these
// values for whence:
//
//	io.SeekStart     seek relative to the start of the address space
//	io.SeekCurrent   seek relative to the current position
//	io.SeekEnd       seek relative to the end of the stored data
//	SeekData         seek to the first data byte at or after ofs
//	SeekHole         seek to the first gap at or after ofs (or the end)
func (c *Cursor) Seek(ofs int64, whence int) (n int64, err error) {
	n, err = resolveSeek(ofs, whence, c.pos, c.Size(), c)
	if err != nil {
		return c.pos, err
	}
	c.pos = n
	return n, nil
}
