package sparse

import (
	"bytes"
	"iter"
)

// Range returns the span from the first stored byte to the last, gaps
// included. An empty buffer has the range [0,+0].
func (b *Buffer) Range() Span {
	if len(b.parts) == 0 {
		return Span{}
	}
	start := b.parts[0].Start
	return Span{Start: start, Size: b.parts[len(b.parts)-1].End() - start}
}

// Start returns the address of the first stored byte, or 0.
func (b *Buffer) Start() uint64 { return b.Range().Start }

// End returns the address after the last stored byte, or 0.
func (b *Buffer) End() uint64 { return b.Range().End() }

// Len returns the number of parts.
func (b *Buffer) Len() int { return len(b.parts) }

// UsedSize returns the number of bytes stored, gaps excluded.
func (b *Buffer) UsedSize() uint64 {
	var n uint64
	for _, p := range b.parts {
		n += uint64(len(p.Data))
	}
	return n
}

// Parts returns the extent of every part in address order.
func (b *Buffer) Parts() []Span {
	spans := make([]Span, len(b.parts))
	for i, p := range b.parts {
		spans[i] = Span{Start: p.Start, Size: uint64(len(p.Data))}
	}
	return spans
}

// Gaps returns the empty spans between consecutive parts. Space before the
// first part and after the last is not a gap.
func (b *Buffer) Gaps() []Span {
	if len(b.parts) < 2 {
		return nil
	}
	gaps := make([]Span, 0, len(b.parts)-1)
	for i := 1; i < len(b.parts); i++ {
		end := b.parts[i-1].End()
		gaps = append(gaps, Span{Start: end, Size: b.parts[i].Start - end})
	}
	return gaps
}

// IncludesGaps reports whether [addr, addr+size) is not entirely covered by
// a single part. An empty range has no gaps.
func (b *Buffer) IncludesGaps(addr, size uint64) bool {
	_, ok := b.firstGap(addr, size)
	return ok
}

// firstGap returns the first unstored span inside [addr, addr+size).
func (b *Buffer) firstGap(addr, size uint64) (Span, bool) {
	if size == 0 {
		return Span{}, false
	}
	end := addr + size
	if size > maxAddr-addr {
		end = maxAddr
	}
	i := b.search(addr)
	if i < len(b.parts) && b.parts[i].End() == addr {
		i++
	}
	if i >= len(b.parts) || addr < b.parts[i].Start {
		n := end - addr
		if i < len(b.parts) && b.parts[i].Start-addr < n {
			n = b.parts[i].Start - addr
		}
		return Span{Start: addr, Size: n}, true
	}
	pend := b.parts[i].End()
	if end <= pend {
		return Span{}, false
	}
	n := end - pend
	if i+1 < len(b.parts) && b.parts[i+1].Start-pend < n {
		n = b.parts[i+1].Start - pend
	}
	return Span{Start: pend, Size: n}, true
}

// holes returns every unstored span inside [addr, end), including the space
// before the first part and after the last.
func (b *Buffer) holes(addr, end uint64) []Span {
	var hs []Span
	i := b.search(addr)
	for addr < end {
		if i < len(b.parts) && b.parts[i].End() <= addr {
			i++
			continue
		}
		if i >= len(b.parts) {
			hs = append(hs, Span{Start: addr, Size: end - addr})
			break
		}
		p := b.parts[i]
		if addr < p.Start {
			stop := min(p.Start, end)
			hs = append(hs, Span{Start: addr, Size: stop - addr})
		}
		addr = p.End()
		i++
	}
	return hs
}

// All iterates over the parts in address order. The yielded Data aliases
// the buffer's storage and must not be modified or retained.
func (b *Buffer) All() iter.Seq[Part] {
	return func(yield func(Part) bool) {
		for _, p := range b.parts {
			if !yield(p) {
				return
			}
		}
	}
}

// Clone returns a deep copy of b that shares no storage with it.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{padding: b.padding, padSet: b.padSet}
	if len(b.parts) > 0 {
		c.parts = make([]Part, len(b.parts))
		for i, p := range b.parts {
			c.parts[i] = Part{Start: p.Start, Data: bytes.Clone(p.Data)}
		}
	}
	return c
}

// Equal reports whether b and o store the same bytes at the same addresses.
// Padding is not compared.
func (b *Buffer) Equal(o *Buffer) bool {
	if len(b.parts) != len(o.parts) {
		return false
	}
	for i := range b.parts {
		if b.parts[i].Start != o.parts[i].Start || !bytes.Equal(b.parts[i].Data, o.parts[i].Data) {
			return false
		}
	}
	return true
}
