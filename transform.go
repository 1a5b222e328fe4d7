package sparse

import (
	"bytes"
	"iter"
	"maps"
	"math"
	"slices"
)

// clampEnd returns addr+size, or maxAddr when that would overflow.
func clampEnd(addr, size uint64) uint64 {
	if size > maxAddr-addr {
		return maxAddr
	}
	return addr + size
}

// Fill writes pattern bytes over [addr, addr+size), tiling p from addr. With
// overwrite false only the gaps receive the pattern, so filling twice is the
// same as filling once.
//
// A Fail() pattern synthesizes nothing: Fill reports ErrFillRequired for the
// first gap in the range and does nothing if there is none.
func (b *Buffer) Fill(addr, size uint64, p Pattern, overwrite bool) error {
	if size == 0 {
		return nil
	}
	if err := checkSpan(addr, size); err != nil {
		return err
	}
	if p.kind == PatternFail {
		if overwrite {
			return invalidf("sparse: cannot overwrite with a fail pattern")
		}
		if g, ok := b.firstGap(addr, size); ok {
			return missing(g.Start, g.Size)
		}
		return nil
	}
	if !overwrite {
		for _, h := range b.holes(addr, addr+size) {
			if err := b.fillSpan(h, p, h.Start-addr); err != nil {
				return err
			}
		}
		return nil
	}
	return b.fillSpan(Span{Start: addr, Size: size}, p, 0)
}

func (b *Buffer) fillSpan(s Span, p Pattern, phase uint64) error {
	if s.Size > math.MaxInt {
		return invalidf("sparse: fill of %d bytes is too large", s.Size)
	}
	data := make([]byte, s.Size)
	if err := p.fill(data, phase); err != nil {
		return err
	}
	return b.Write(s.Start, data, true)
}

// FillGaps fills every gap between the first and last stored byte.
func (b *Buffer) FillGaps(p Pattern) error {
	r := b.Range()
	return b.Fill(r.Start, r.Size, p, false)
}

// FillFront fills from addr up to the first stored byte. It does nothing if
// the buffer is empty or already starts at or before addr.
func (b *Buffer) FillFront(addr uint64, p Pattern) error {
	if len(b.parts) == 0 || addr >= b.Start() {
		return nil
	}
	return b.Fill(addr, b.Start()-addr, p, false)
}

// FillEnd fills from the last stored byte up to end. It does nothing if the
// buffer is empty or already ends at or after end.
func (b *Buffer) FillEnd(end uint64, p Pattern) error {
	if len(b.parts) == 0 || end <= b.End() {
		return nil
	}
	return b.Fill(b.End(), end-b.End(), p, false)
}

// Unfill is the inverse of Fill. It scans the stored bytes in
// [addr, addr+size) for runs of p's repeating unit and deletes each run that
// is at least minGap bytes long, touches either end of its part, or starts
// at addr. Runs never extend across parts. The deletions happen after the
// whole range has been scanned.
func (b *Buffer) Unfill(addr, size uint64, p Pattern, minGap uint64) error {
	tile := p.Tile()
	if tile == nil {
		return invalidf("sparse: cannot unfill a %s pattern", p.kind)
	}
	end := clampEnd(addr, size)
	var runs []Span
	i := b.search(addr)
	for ; i < len(b.parts) && b.parts[i].Start < end; i++ {
		part := b.parts[i]
		lo, hi := max(addr, part.Start), min(end, part.End())
		if lo >= hi {
			continue
		}
		data := part.Data[lo-part.Start : hi-part.Start]
		for pos := 0; pos < len(data); {
			k := bytes.Index(data[pos:], tile)
			if k < 0 {
				break
			}
			s := pos + k
			e := s + len(tile)
			for e+len(tile) <= len(data) && bytes.Equal(data[e:e+len(tile)], tile) {
				e += len(tile)
			}
			run := Span{Start: lo + uint64(s), Size: uint64(e - s)}
			if run.Size >= minGap || run.Start == part.Start || run.End() == part.End() || run.Start == addr {
				runs = append(runs, run)
			}
			pos = e
		}
	}
	for _, r := range runs {
		b.Delete(r.Start, r.Size)
	}
	return nil
}

// Crop deletes everything outside [addr, addr+size).
func (b *Buffer) Crop(addr, size uint64) {
	if addr > 0 {
		b.Delete(0, addr)
	}
	if end := clampEnd(addr, size); end < maxAddr {
		b.Delete(end, maxAddr-end)
	}
}

// Extract returns a new buffer holding a copy of [addr, addr+size). Unless
// keep is set the range is also deleted from b. The result inherits b's
// padding.
func (b *Buffer) Extract(addr, size uint64, keep bool) *Buffer {
	c := &Buffer{padding: b.padding, padSet: b.padSet}
	end := clampEnd(addr, size)
	for i := b.search(addr); i < len(b.parts) && b.parts[i].Start < end; i++ {
		p := b.parts[i]
		lo, hi := max(addr, p.Start), min(end, p.End())
		if lo >= hi {
			continue
		}
		c.parts = append(c.parts, Part{Start: lo, Data: bytes.Clone(p.Data[lo-p.Start : hi-p.Start])})
	}
	if !keep {
		b.Delete(addr, size)
	}
	return c
}

// Offset moves every part by delta. It fails with ErrRange, leaving b
// unchanged, if any byte would move below zero or past the address space.
func (b *Buffer) Offset(delta int64) error {
	if len(b.parts) == 0 || delta == 0 {
		return nil
	}
	if delta < 0 {
		d := uint64(-(delta + 1)) + 1
		if b.Start() < d {
			return rangef("sparse: offset %d moves 0x%X below zero", delta, b.Start())
		}
		b.shiftDown(d)
		return nil
	}
	d := uint64(delta)
	if b.End() > maxAddr-d {
		return rangef("sparse: offset %d moves 0x%X past the address space", delta, b.End())
	}
	b.shiftUp(d)
	return nil
}

func (b *Buffer) shiftUp(d uint64) {
	for i := range b.parts {
		b.parts[i].Start += d
	}
}

func (b *Buffer) shiftDown(d uint64) {
	for i := range b.parts {
		b.parts[i].Start -= d
	}
}

// Relocate moves the data in [addr, addr+size) so that it starts at newAddr.
// When the range is exactly the buffer's range this is an Offset; otherwise
// the data is extracted, deleted and written back at newAddr, where overwrite
// decides who wins against data already there.
func (b *Buffer) Relocate(newAddr, addr, size uint64, overwrite bool) error {
	if size == 0 {
		return nil
	}
	if err := checkSpan(addr, size); err != nil {
		return err
	}
	if err := checkSpan(newAddr, size); err != nil {
		return err
	}
	if r := b.Range(); addr == r.Start && size == r.Size {
		if newAddr >= addr {
			b.shiftUp(newAddr - addr)
		} else {
			b.shiftDown(addr - newAddr)
		}
		return nil
	}
	moved := b.Extract(addr, size, false)
	for _, p := range moved.parts {
		if err := b.Write(newAddr+(p.Start-addr), p.Data, overwrite); err != nil {
			return err
		}
	}
	return nil
}

// Add writes every part of o into b. With overwrite false, bytes already in b
// win over those from o.
func (b *Buffer) Add(o *Buffer, overwrite bool) error {
	if o == b {
		return nil
	}
	for _, p := range o.parts {
		if err := b.Write(p.Start, p.Data, overwrite); err != nil {
			return err
		}
	}
	return nil
}

// AddMap writes each address/byte pair of m into b.
func (b *Buffer) AddMap(m map[uint64]byte, overwrite bool) error {
	for _, addr := range slices.Sorted(maps.Keys(m)) {
		if err := b.Write(addr, []byte{m[addr]}, overwrite); err != nil {
			return err
		}
	}
	return nil
}

// AddSeq writes each address/byte pair produced by seq into b.
func (b *Buffer) AddSeq(seq iter.Seq2[uint64, byte], overwrite bool) error {
	var one [1]byte
	for addr, v := range seq {
		one[0] = v
		if err := b.Write(addr, one[:], overwrite); err != nil {
			return err
		}
	}
	return nil
}

// Union returns a new buffer holding the contents of b merged with o. b is
// left untouched.
func (b *Buffer) Union(o *Buffer, overwrite bool) (*Buffer, error) {
	c := b.Clone()
	if err := c.Add(o, overwrite); err != nil {
		return nil, err
	}
	return c, nil
}

// FilterFunc is called by Filter for each part in the visited window. base
// is the part's address and data its storage; data[lo:hi] is the portion
// inside the window and may be modified in place. Returning an error stops
// the walk.
type FilterFunc func(base uint64, data []byte, lo, hi int) error

// Filter calls fn once for every part overlapping [addr, addr+size). fn must
// not change the layout of b.
func (b *Buffer) Filter(addr, size uint64, fn FilterFunc) error {
	end := clampEnd(addr, size)
	for i := b.search(addr); i < len(b.parts) && b.parts[i].Start < end; i++ {
		p := b.parts[i]
		lo, hi := max(addr, p.Start), min(end, p.End())
		if lo >= hi {
			continue
		}
		if err := fn(p.Start, p.Data, int(lo-p.Start), int(hi-p.Start)); err != nil {
			return err
		}
	}
	return nil
}

// FilterFill fills the gaps in [addr, addr+size) with p and then calls fn
// once for the single part now covering the window.
func (b *Buffer) FilterFill(addr, size uint64, p Pattern, fn FilterFunc) error {
	if err := b.Fill(addr, size, p, false); err != nil {
		return err
	}
	return b.Filter(addr, size, fn)
}
