package format

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
	"github.com/dnesting/sparse/v2/internal/hexline"
)

// Tektronix Extended record types.
const (
	tekSymbol      = '3'
	tekData        = '6'
	tekTermination = '8'
)

// tekHexCodec handles Tektronix Extended Hex:
//
//	%LLTCCNA...D...
//
// LL counts the characters after '%', T is the record type, CC is the sum
// of every other hex digit in the record, N is the number of address
// digits (0 for 16) and the data bytes follow the address.
type tekHexCodec struct {
	opts Options
}

func (c tekHexCodec) Decode(r io.Reader) (*Image, error) {
	img := &Image{}
	log := c.opts.logger()
	s := hexline.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if line[0] != '%' || len(line) < 7 {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "not a Tektronix record")
		}
		n, err := hexline.ParseUint(line[1:3])
		if err != nil {
			return nil, syntaxError(s.Line(), err)
		}
		if int(n) != len(line)-1 {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "length %d does not match %d characters", n, len(line)-1)
		}
		typ := line[3]
		if typ == tekSymbol {
			log.Info("skipping Tektronix symbol record", "line", s.Line())
			continue
		}
		if typ != tekData && typ != tekTermination {
			return nil, decodeErrorf(s.Line(), ErrRecordType, "record type %c", typ)
		}
		want, err := hexline.ParseUint(line[4:6])
		if err != nil {
			return nil, syntaxError(s.Line(), err)
		}
		if sum := hexline.NibbleSum(line[1:4]) + hexline.NibbleSum(line[6:]); byte(sum) != byte(want) {
			return nil, decodeErrorf(s.Line(), ErrChecksum, "checksum 0x%02X, computed 0x%02X", want, byte(sum))
		}
		alen, ok := hexline.Nibble(line[6])
		if !ok {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "invalid address length %q", line[6])
		}
		if alen == 0 {
			alen = 16
		}
		if len(line) < 7+int(alen) {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "record too short for %d address digits", alen)
		}
		addr, err := hexline.ParseUint(line[7 : 7+int(alen)])
		if err != nil {
			return nil, syntaxError(s.Line(), err)
		}
		data, err := hexline.Decode(line[7+int(alen):])
		if err != nil {
			return nil, syntaxError(s.Line(), err)
		}
		if typ == tekTermination {
			img.Entry = addr
			img.HasEntry = true
			return img, nil
		}
		if err := img.Data.Set(addr, data); err != nil {
			return nil, errors.Wrapf(err, "line %d", s.Line())
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	log.Warn("Tektronix input has no termination record", "lines", s.Line())
	return img, nil
}

// tekAddrDigits returns the number of address digits to write.
func (c tekHexCodec) tekAddrDigits(img *Image) (int, error) {
	if w := c.opts.AddressWidth; w != 0 {
		top := img.Entry
		if img.Data.Len() > 0 {
			top = max(top, img.Data.End()-1)
		}
		if w < 8 && top>>(8*w) != 0 {
			return 0, errors.Mark(
				errors.Newf("format: address width %d cannot hold 0x%X", w, top), sparse.ErrInvalidArgument)
		}
		return 2 * w, nil
	}
	if img.Data.End() > 1<<32 || img.Entry > 0xFFFFFFFF {
		return 16, nil
	}
	return 8, nil
}

type tekWriter struct {
	w      *bufio.Writer
	line   []byte
	digits int
	upper  bool
}

func (w *tekWriter) record(typ byte, addr uint64, data []byte) error {
	// Everything after the checksum, which is computed over it.
	body := hexline.AppendUint(w.line[:0], uint64(w.digits&0xF), 1, w.upper)
	body = hexline.AppendUint(body, addr, w.digits, w.upper)
	body = hexline.Append(body, data, w.upper)
	head := hexline.AppendUint(nil, uint64(len(body)+5), 2, w.upper)
	head = append(head, typ)
	sum := hexline.NibbleSum(string(head)) + hexline.NibbleSum(string(body))

	out := append([]byte{'%'}, head...)
	out = hexline.AppendUint(out, uint64(sum), 2, w.upper)
	out = append(out, body...)
	out = append(out, '\n')
	w.line = body
	_, err := w.w.Write(out)
	return err
}

func (c tekHexCodec) Encode(w io.Writer, img *Image) error {
	digits, err := c.tekAddrDigits(img)
	if err != nil {
		return err
	}
	// The record length field is two hex digits.
	per := uint64(c.opts.bytesPerLine(16, (255-6-digits)/2))
	tw := &tekWriter{w: bufio.NewWriter(w), digits: digits, upper: !c.opts.Lower}
	for p := range img.Data.All() {
		for addr, data := p.Start, p.Data; len(data) > 0; {
			n := min(uint64(len(data)), per-addr%per)
			if err := tw.record(tekData, addr, data[:n]); err != nil {
				return err
			}
			addr += n
			data = data[n:]
		}
	}
	if err := tw.record(tekTermination, img.Entry, nil); err != nil {
		return err
	}
	return tw.w.Flush()
}
