package sparse

import (
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// PatternKind identifies how a Pattern produces bytes.
type PatternKind uint8

const (
	// PatternConstant repeats a single byte.
	PatternConstant PatternKind = iota
	// PatternSequence tiles an explicit byte sequence.
	PatternSequence
	// PatternRandom produces an independent random byte at every index.
	PatternRandom
	// PatternFail produces no bytes; consumers report ErrFillRequired.
	PatternFail
)

func (k PatternKind) String() string {
	switch k {
	case PatternConstant:
		return "constant"
	case PatternSequence:
		return "sequence"
	case PatternRandom:
		return "random"
	case PatternFail:
		return "fail"
	}
	return fmt.Sprintf("PatternKind(%d)", uint8(k))
}

// Pattern is a logical source of bytes used to synthesize the contents of
// gaps. Patterns are values; slicing a Pattern never copies its sequence.
//
// A Pattern can be tiled to any length regardless of its logical length,
// which only matters to Len, Slice, Repeat and ReadAt. The zero value is
// Constant(0) with no length bound.
type Pattern struct {
	kind   PatternKind
	value  byte
	seq    []byte
	offset int   // read offset into seq
	length int64 // 0 when unbounded
}

// Constant returns an unbounded pattern repeating b.
func Constant(b byte) Pattern {
	return Pattern{kind: PatternConstant, value: b}
}

// Sequence returns a pattern tiling seq, with a logical length of len(seq).
// The sequence is copied. Sequence panics if seq is empty; use NewSequence or
// ParsePattern to build patterns from untrusted input.
func Sequence(seq ...byte) Pattern {
	p, err := NewSequence(seq...)
	if err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "sparse: Sequence"))
	}
	return p
}

// NewSequence is Sequence for input that may be empty, which is reported as
// ErrInvalidArgument.
func NewSequence(seq ...byte) (Pattern, error) {
	if len(seq) == 0 {
		return Pattern{}, invalidf("sparse: empty pattern sequence")
	}
	if len(seq) == 1 {
		p := Constant(seq[0])
		p.length = 1
		return p, nil
	}
	s := make([]byte, len(seq))
	copy(s, seq)
	return Pattern{kind: PatternSequence, seq: s, length: int64(len(s))}, nil
}

// Random returns an unbounded pattern whose every byte is drawn
// independently. Two reads of the same index give different values.
func Random() Pattern {
	return Pattern{kind: PatternRandom}
}

// Fail returns the pattern that refuses to synthesize data. Reads that would
// need it fail with ErrFillRequired.
func Fail() Pattern {
	return Pattern{kind: PatternFail}
}

// Kind reports the variant of p.
func (p Pattern) Kind() PatternKind { return p.kind }

// Len returns the logical length of p and whether p is bounded at all.
func (p Pattern) Len() (n int64, bounded bool) {
	return p.length, p.length > 0
}

// WithLen returns p with its logical length set to n.
func (p Pattern) WithLen(n int64) (Pattern, error) {
	if n <= 0 {
		return Pattern{}, invalidf("sparse: pattern length %d must be positive", n)
	}
	p.length = n
	return p, nil
}

// Repeat returns p with its logical length multiplied by n. Unbounded
// patterns stay unbounded.
func (p Pattern) Repeat(n int) (Pattern, error) {
	if n <= 0 {
		return Pattern{}, invalidf("sparse: pattern multiplier %d must be positive", n)
	}
	if p.length == 0 {
		return p, nil
	}
	if p.length > math.MaxInt64/int64(n) {
		return Pattern{}, invalidf("sparse: pattern length %d*%d overflows", p.length, n)
	}
	p.length *= int64(n)
	return p, nil
}

// Slice returns the sub-pattern covering indexes [start, end) of p. For a
// sequence the result shares p's storage and starts reading at the matching
// phase; for the other kinds only the length changes.
func (p Pattern) Slice(start, end int64) (Pattern, error) {
	if start < 0 || end <= start {
		return Pattern{}, invalidf("sparse: invalid pattern slice [%d:%d]", start, end)
	}
	if p.length > 0 && end > p.length {
		return Pattern{}, invalidf("sparse: pattern slice [%d:%d] beyond length %d", start, end, p.length)
	}
	if p.kind == PatternSequence {
		p.offset = int((int64(p.offset) + start) % int64(len(p.seq)))
	}
	p.length = end - start
	return p, nil
}

// At returns the byte at index i. At returns 0 for Fail patterns.
func (p Pattern) At(i uint64) byte {
	switch p.kind {
	case PatternConstant:
		return p.value
	case PatternSequence:
		return p.seq[(uint64(p.offset)+i%uint64(len(p.seq)))%uint64(len(p.seq))]
	case PatternRandom:
		return byte(rand.Uint32())
	}
	return 0
}

// Tile returns a copy of the repeating unit of p, starting at the current
// phase, or nil for patterns without one.
func (p Pattern) Tile() []byte {
	switch p.kind {
	case PatternConstant:
		return []byte{p.value}
	case PatternSequence:
		t := make([]byte, 0, len(p.seq))
		t = append(t, p.seq[p.offset:]...)
		return append(t, p.seq[:p.offset]...)
	}
	return nil
}

// fill writes pattern bytes for indexes [i, i+len(dst)) into dst.
func (p Pattern) fill(dst []byte, i uint64) error {
	switch p.kind {
	case PatternConstant:
		for j := range dst {
			dst[j] = p.value
		}
	case PatternSequence:
		n := uint64(len(p.seq))
		phase := (uint64(p.offset) + i%n) % n
		for len(dst) > 0 {
			c := copy(dst, p.seq[phase:])
			dst = dst[c:]
			phase = 0
		}
	case PatternRandom:
		for j := 0; j < len(dst); j += 8 {
			v := rand.Uint64()
			for k := j; k < j+8 && k < len(dst); k++ {
				dst[k] = byte(v)
				v >>= 8
			}
		}
	case PatternFail:
		if len(dst) > 0 {
			return errors.Mark(
				errors.Newf("sparse: pattern cannot supply %d bytes at index %d", len(dst), i),
				ErrFillRequired)
		}
	}
	return nil
}

// Bytes returns the first n bytes of p, tiling past its logical length.
func (p Pattern) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, invalidf("sparse: negative pattern size %d", n)
	}
	b := make([]byte, n)
	if err := p.fill(b, 0); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadAt implements io.ReaderAt over the logical extent of p. Unbounded
// patterns never return io.EOF, which makes any Pattern usable as the
// fallback of a ReadSeeker.
func (p Pattern) ReadAt(b []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, invalidf("sparse: negative pattern offset %d", off)
	}
	if p.length > 0 {
		if off >= p.length {
			return 0, io.EOF
		}
		if rem := p.length - off; int64(len(b)) > rem {
			b = b[:rem]
			err = io.EOF
		}
	}
	if ferr := p.fill(b, uint64(off)); ferr != nil {
		return 0, ferr
	}
	return len(b), err
}

// Read fills b from the start of the pattern; it lets a Pattern stand in for
// an io.Reader fallback in NewReader.
func (p Pattern) Read(b []byte) (int, error) {
	if err := p.fill(b, 0); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p Pattern) String() string {
	switch p.kind {
	case PatternConstant:
		return fmt.Sprintf("0x%02X", p.value)
	case PatternSequence:
		return strings.ToUpper(hex.EncodeToString(p.Tile()))
	}
	return p.kind.String()
}

// ParsePattern parses the textual form of a pattern. Hex digits are always
// read as whole bytes; a number is only decimal when it cannot be hex bytes:
//
//	random          Random()
//	fail            Fail()
//	0xFF, FF, 255   Constant(0xFF)
//	10              Constant(0x10)
//	0x3             Constant(0x03)
//	DEADBEEF        Sequence(0xDE, 0xAD, 0xBE, 0xEF)
//	0100            Sequence(0x01, 0x00)
//	1,2,0x10        Sequence(1, 2, 0x10)
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "random":
		return Random(), nil
	case "fail":
		return Fail(), nil
	case "":
		return Pattern{}, invalidf("sparse: empty pattern")
	}
	if strings.Contains(s, ",") {
		var seq []byte
		for _, f := range strings.Split(s, ",") {
			v, err := parsePatternByte(strings.TrimSpace(f))
			if err != nil {
				return Pattern{}, errors.Mark(
					errors.Wrapf(err, "sparse: pattern %q", s), ErrInvalidArgument)
			}
			seq = append(seq, v)
		}
		return Sequence(seq...), nil
	}
	var seq []byte
	switch h, ok := cutHexPrefix(s); {
	case ok:
		if len(h)%2 == 1 {
			h = "0" + h
		}
		seq, _ = hex.DecodeString(h)
	case len(s)%2 == 0:
		seq, _ = hex.DecodeString(s)
	}
	if len(seq) == 0 {
		v, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return Pattern{}, invalidf("sparse: cannot parse pattern %q", s)
		}
		return Constant(byte(v)), nil
	}
	if len(seq) == 1 {
		return Constant(seq[0]), nil
	}
	return Sequence(seq...), nil
}

func cutHexPrefix(s string) (string, bool) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:], true
	}
	return s, false
}

// parsePatternByte parses one element of a comma-separated pattern: 0x-prefixed
// hex or decimal.
func parsePatternByte(s string) (byte, error) {
	base := 10
	if h, ok := cutHexPrefix(s); ok {
		s, base = h, 16
	}
	v, err := strconv.ParseUint(s, base, 8)
	return byte(v), err
}
