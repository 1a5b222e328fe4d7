package sparse

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// maxAddr is the largest representable end address. The last byte that can
// be stored lives at maxAddr-1.
const maxAddr = math.MaxUint64

// Part is a contiguous run of bytes stored at a fixed address.
type Part struct {
	Start uint64
	Data  []byte
}

// End returns the address after the last byte of p.
func (p Part) End() uint64 { return p.Start + uint64(len(p.Data)) }

func (p Part) contains(addr uint64) bool {
	return p.Start <= addr && addr < p.End()
}

// Span is an address range described by its start and size.
type Span struct {
	Start uint64
	Size  uint64
}

// End returns the address after the last byte of s.
func (s Span) End() uint64 { return s.Start + s.Size }

func (s Span) String() string {
	return fmt.Sprintf("[0x%X,+%d]", s.Start, s.Size)
}

// Buffer provides a sparse in-memory image of a 64-bit address space. Data
// is kept as an ordered list of parts that never overlap and never touch:
// writes that would leave two parts adjacent merge them into one.
//
// A zero-value Buffer is empty and ready to accept writes. Buffers are not
// safe for concurrent use.
type Buffer struct {
	parts   []Part
	padding Pattern
	padSet  bool
}

// relation describes how locate's answer relates to the requested range.
type relation uint8

const (
	// usable: the part overlaps or touches the range.
	usable relation = iota
	// nextHigher: no part touches the range; the index is the first part
	// above it.
	nextHigher
	// pastEnd: the range lies after every part; the index is the last part,
	// or -1 for an empty buffer.
	pastEnd
)

// search returns the index of the first part whose end is at or after addr.
func (b *Buffer) search(addr uint64) int {
	return sort.Search(len(b.parts), func(i int) bool {
		return b.parts[i].End() >= addr
	})
}

// locate finds the part relevant to [addr, addr+size). A part is usable when
// it overlaps the range or touches either of its ends. When no part is usable
// and create is set, a zero-length part is inserted at addr and returned; the
// caller must grow it before returning control to anyone else.
func (b *Buffer) locate(addr, size uint64, create bool) (int, relation) {
	// Given parts like:
	// |0123456789012345678|
	// |....AAAAA..B..CCCCC| // A=4:9 B=11:12 C=14:19
	//
	// addr=9 size=2 touches the end of A, so A is usable.
	// addr=10 size=1 touches the start of B, so B is usable.
	// addr=2 size=1 lies in a gap, so A is the next higher part.
	// addr=20 lies past C.
	i := b.search(addr)
	if i < len(b.parts) {
		if addr+size >= b.parts[i].Start {
			return i, usable
		}
		if !create {
			return i, nextHigher
		}
		b.insertPart(i, Part{Start: addr})
		return i, usable
	}
	if !create {
		return len(b.parts) - 1, pastEnd
	}
	b.parts = append(b.parts, Part{Start: addr})
	return len(b.parts) - 1, usable
}

func (b *Buffer) insertPart(idx int, p Part) {
	b.parts = append(b.parts, Part{})
	copy(b.parts[idx+1:], b.parts[idx:])
	b.parts[idx] = p
}

func (b *Buffer) delParts(idx, num int) {
	copy(b.parts[idx:], b.parts[idx+num:])
	trunc := len(b.parts) - num
	for i := trunc; i < len(b.parts); i++ {
		b.parts[i] = Part{} // zero the part to free any memory
	}
	b.parts = b.parts[:trunc]
}

// Set stores a copy of data at addr, replacing whatever was stored there.
func (b *Buffer) Set(addr uint64, data []byte) error {
	return b.Write(addr, data, true)
}

// Write stores a copy of data at addr; like Get it fails with ErrRange when
// addr+len(data) exceeds 2^64-1. Where data overlaps bytes already
// stored, overwrite selects whether the new bytes win; with overwrite false
// only the gaps in [addr, addr+len(data)) are written.
//
// Parts touched by the write grow to absorb it, and parts bridged by it are
// merged, so the buffer never holds two adjacent parts.
func (b *Buffer) Write(addr uint64, data []byte, overwrite bool) error {
	if err := checkSpan(addr, uint64(len(data))); err != nil {
		return err
	}
	for len(data) > 0 {
		i, _ := b.locate(addr, uint64(len(data)), true)
		p := &b.parts[i]

		// Grow the part backwards over the gap before it.
		if addr < p.Start {
			n := p.Start - addr
			grown := make([]byte, 0, n+uint64(len(p.Data)))
			grown = append(grown, data[:n]...)
			p.Data = append(grown, p.Data...)
			p.Start = addr
			data = data[n:]
			addr += n
		}

		// The span shared with the part's existing bytes.
		n := p.End() - addr
		if n > uint64(len(data)) {
			n = uint64(len(data))
		}
		if overwrite {
			copy(p.Data[addr-p.Start:], data[:n])
		}
		data = data[n:]
		addr += n
		if len(data) == 0 {
			break
		}

		// addr is now the part's end. Either the rest fits before the next
		// part, or it reaches it and the two merge.
		if i+1 < len(b.parts) && b.parts[i+1].Start <= addr+uint64(len(data)) {
			next := b.parts[i+1]
			n := next.Start - addr
			p.Data = append(p.Data, data[:n]...)
			p.Data = append(p.Data, next.Data...)
			b.delParts(i+1, 1)
			data = data[n:]
			addr += n
			continue
		}
		p.Data = append(p.Data, data...)
		break
	}
	return nil
}

// StoreAt takes ownership of p and stores it at addr. StoreAt differs from
// Set in that it avoids a copy when p lands in a gap without touching any
// stored data. Callers must not modify p afterwards.
func (b *Buffer) StoreAt(p []byte, addr uint64) error {
	if len(p) == 0 {
		return nil
	}
	if err := checkSpan(addr, uint64(len(p))); err != nil {
		return err
	}
	i, rel := b.locate(addr, uint64(len(p)), false)
	switch rel {
	case nextHigher:
		b.insertPart(i, Part{Start: addr, Data: p})
	case pastEnd:
		b.parts = append(b.parts, Part{Start: addr, Data: p})
	default:
		return b.Write(addr, p, true)
	}
	return nil
}

// Get returns exactly size bytes representing [addr, addr+size). Bytes that
// are not stored are synthesized from fill, tiled from addr. If fill is
// Fail(), Get returns an error marked ErrFillRequired at the first gap.
//
// addr+size must not exceed 2^64-1, so the byte at address 2^64-1 is reserved
// and can be neither stored nor read; such requests fail with ErrRange.
func (b *Buffer) Get(addr, size uint64, fill Pattern) ([]byte, error) {
	if err := checkSpan(addr, size); err != nil {
		return nil, err
	}
	if size > math.MaxInt {
		return nil, invalidf("sparse: read of %d bytes is too large", size)
	}
	out := make([]byte, size)
	if err := b.read(out, addr, fill); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPadded is Get using the buffer's padding pattern.
func (b *Buffer) GetPadded(addr, size uint64) ([]byte, error) {
	return b.Get(addr, size, b.Padding())
}

// read fills dst with the logical content at addr.
func (b *Buffer) read(dst []byte, addr uint64, fill Pattern) error {
	base := addr
	i := b.search(addr)
	if i < len(b.parts) && b.parts[i].End() == addr {
		i++
	}
	for len(dst) > 0 {
		if i >= len(b.parts) || addr < b.parts[i].Start {
			n := uint64(len(dst))
			if i < len(b.parts) && b.parts[i].Start-addr < n {
				n = b.parts[i].Start - addr
			}
			if fill.kind == PatternFail {
				return missing(addr, n)
			}
			if err := fill.fill(dst[:n], addr-base); err != nil {
				return err
			}
			dst = dst[n:]
			addr += n
			continue
		}
		p := b.parts[i]
		n := copy(dst, p.Data[addr-p.Start:])
		dst = dst[n:]
		addr += uint64(n)
		i++
	}
	return nil
}

// Delete removes the bytes stored in [addr, addr+size). Parts are trimmed,
// removed, or split in two when the range falls strictly inside them. A range
// running past the end of the address space is clamped.
func (b *Buffer) Delete(addr, size uint64) {
	if size == 0 {
		return
	}
	end := addr + size
	if size > maxAddr-addr {
		end = maxAddr
	}
	i := b.search(addr)
	for i < len(b.parts) && b.parts[i].Start < end {
		p := &b.parts[i]
		pend := p.End()
		switch {
		case pend <= addr:
			// Touches addr but holds nothing inside the range.
			i++
		case addr <= p.Start && end >= pend:
			b.delParts(i, 1)
		case addr <= p.Start:
			p.Data = p.Data[end-p.Start:]
			p.Start = end
			i++
		case end >= pend:
			p.Data = p.Data[:addr-p.Start]
			i++
		default:
			tail := make([]byte, pend-end)
			copy(tail, p.Data[end-p.Start:])
			p.Data = p.Data[:addr-p.Start]
			b.insertPart(i+1, Part{Start: end, Data: tail})
			i += 2
		}
	}
}

// Truncate deletes all data at and after addr.
func (b *Buffer) Truncate(addr uint64) {
	b.Delete(addr, maxAddr-addr)
}

// Reset empties the buffer. The padding pattern is kept.
func (b *Buffer) Reset() {
	b.parts = nil
}

// Padding returns the pattern used for gaps when a read does not name one.
// It defaults to Constant(0xFF).
func (b *Buffer) Padding() Pattern {
	if b.padSet {
		return b.padding
	}
	return Constant(0xFF)
}

// SetPadding sets the pattern returned by Padding.
func (b *Buffer) SetPadding(p Pattern) {
	b.padding = p
	b.padSet = true
}

func (b *Buffer) String() string {
	if len(b.parts) == 0 {
		return "(empty)"
	}
	var sb strings.Builder
	for i, p := range b.parts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(Span{p.Start, uint64(len(p.Data))}.String())
	}
	return sb.String()
}
