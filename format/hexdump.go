package format

import (
	"bufio"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2/internal/hexline"
)

// hexDumpCodec writes canonical hex dump lines:
//
//	00000100  41 42 43 -- -- -- -- --  -- -- -- -- -- -- -- --  |ABC             |
//
// Lines are aligned to BytesPerLine and only printed when they hold at
// least one stored byte. "--" marks a byte that is not stored. Decoding also
// accepts the "*" lines hexdump -C uses for repeated lines.
type hexDumpCodec struct {
	opts Options
}

func (c hexDumpCodec) Decode(r io.Reader) (*Image, error) {
	img := &Image{}
	var (
		prev     []byte // bytes of the previous line, nil if it had a gap
		prevEnd  uint64
		repeated bool
	)
	s := hexline.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if line == "*" {
			repeated = true
			continue
		}
		if i := strings.IndexByte(line, '|'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "missing address")
		}
		addr, err := hexline.ParseUint(fields[0])
		if err != nil {
			return nil, syntaxError(s.Line(), err)
		}
		if repeated {
			if prev == nil {
				return nil, decodeErrorf(s.Line(), ErrSyntax, "cannot repeat a line with gaps")
			}
			for a := prevEnd; a+uint64(len(prev)) <= addr; a += uint64(len(prev)) {
				if err := img.Data.Set(a, prev); err != nil {
					return nil, errors.Wrapf(err, "line %d", s.Line())
				}
			}
			repeated = false
		}
		prev = prev[:0]
		complete := true
		for i, f := range fields[1:] {
			if f == "--" {
				complete = false
				continue
			}
			if len(f) != 2 {
				return nil, decodeErrorf(s.Line(), ErrSyntax, "invalid byte %q", f)
			}
			b, err := hexline.Decode(f)
			if err != nil {
				return nil, syntaxError(s.Line(), err)
			}
			if err := img.Data.Set(addr+uint64(i), b); err != nil {
				return nil, errors.Wrapf(err, "line %d", s.Line())
			}
			prev = append(prev, b[0])
		}
		prevEnd = addr + uint64(len(fields)-1)
		if !complete || len(prev) == 0 {
			prev = nil
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

func (c hexDumpCodec) Encode(w io.Writer, img *Image) error {
	per := uint64(c.opts.bytesPerLine(16, 255))
	digits := 8
	if end := img.Data.End(); end > 1<<32 {
		digits = 16
	}
	if c.opts.AddressWidth > 0 {
		digits = max(digits, 2*c.opts.AddressWidth)
	}
	upper := !c.opts.Lower
	bw := bufio.NewWriter(w)
	var (
		line    []byte
		text    []byte
		present = make([]bool, per)
		vals    = make([]byte, per)
	)
	flush := func(addr uint64) error {
		line = hexline.AppendUint(line[:0], addr, digits, upper)
		line = append(line, ' ')
		text = text[:0]
		for i := range vals {
			line = append(line, ' ')
			if i > 0 && i%8 == 0 {
				line = append(line, ' ')
			}
			if present[i] {
				line = hexline.AppendByte(line, vals[i], upper)
				text = c.appendText(text, vals[i])
			} else {
				line = append(line, '-', '-')
				text = append(text, ' ')
			}
		}
		line = append(line, ' ', ' ', '|')
		line = append(line, text...)
		line = append(line, '|', '\n')
		_, err := bw.Write(line)
		return err
	}

	cur, open := uint64(0), false
	for p := range img.Data.All() {
		for i, v := range p.Data {
			a := p.Start + uint64(i)
			if lineAddr := a - a%per; !open || lineAddr != cur {
				if open {
					if err := flush(cur); err != nil {
						return err
					}
				}
				cur, open = lineAddr, true
				clear(present)
			}
			present[a-cur] = true
			vals[a-cur] = v
		}
	}
	if open {
		if err := flush(cur); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// appendText appends the printable form of b for the text column.
func (c hexDumpCodec) appendText(dst []byte, b byte) []byte {
	if c.opts.Charset == nil {
		if b >= 0x20 && b < 0x7F {
			return append(dst, b)
		}
		return append(dst, '.')
	}
	r := c.opts.Charset.DecodeByte(b)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return append(dst, '.')
	}
	return utf8.AppendRune(dst, r)
}
