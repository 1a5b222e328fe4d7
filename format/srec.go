package format

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
	"github.com/dnesting/sparse/v2/internal/hexline"
)

// srecAddrLen is the number of address bytes of each record type S0..S9.
var srecAddrLen = [10]int{2, 2, 3, 4, 0, 2, 3, 4, 3, 2}

// srecCodec handles Motorola S-records: an optional S0 header, S1/S2/S3 data
// records, an S5/S6 record count and an S7/S8/S9 termination record that
// carries the entry point.
type srecCodec struct {
	opts Options
}

func (c srecCodec) Decode(r io.Reader) (*Image, error) {
	img := &Image{}
	log := c.opts.logger()
	var count uint64
	s := hexline.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if len(line) < 4 || line[0] != 'S' || line[1] < '0' || line[1] > '9' {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "not an S-record")
		}
		typ := int(line[1] - '0')
		buf, err := hexline.Decode(line[2:])
		if err != nil {
			return nil, syntaxError(s.Line(), err)
		}
		if int(buf[0]) != len(buf)-1 {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "count %d does not match %d bytes", buf[0], len(buf)-1)
		}
		if sum := hexline.Sum(buf); sum != 0xFF {
			return nil, decodeErrorf(s.Line(), ErrChecksum, "checksum off by 0x%02X", 0xFF-sum)
		}
		if typ == 4 {
			return nil, decodeErrorf(s.Line(), ErrRecordType, "record type S4")
		}
		alen := srecAddrLen[typ]
		if len(buf) < 1+alen+1 {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "S%d record too short", typ)
		}
		var addr uint64
		for _, b := range buf[1 : 1+alen] {
			addr = addr<<8 | uint64(b)
		}
		data := buf[1+alen : len(buf)-1]

		switch typ {
		case 0:
			img.Header = append([]byte(nil), data...)
		case 1, 2, 3:
			if err := img.Data.Set(addr, data); err != nil {
				return nil, errors.Wrapf(err, "line %d", s.Line())
			}
			count++
		case 5, 6:
			if addr != count {
				return nil, decodeErrorf(s.Line(), ErrSyntax, "record count %d, but %d data records were read", addr, count)
			}
		case 7, 8, 9:
			img.Entry = addr
			img.HasEntry = true
			log.Debug("srec termination", "line", s.Line(), "entry", addr)
			return img, nil
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	log.Warn("srec input has no termination record", "lines", s.Line())
	return img, nil
}

type srecWriter struct {
	w     *bufio.Writer
	line  []byte
	upper bool
}

func (w *srecWriter) record(typ, alen int, addr uint64, data []byte) error {
	var head [5]byte
	head[0] = byte(alen + len(data) + 1)
	for i := 0; i < alen; i++ {
		head[alen-i] = byte(addr >> (8 * i))
	}
	sum := hexline.Sum(head[:1+alen], data)
	w.line = append(w.line[:0], 'S', byte('0'+typ))
	w.line = hexline.Append(w.line, head[:1+alen], w.upper)
	w.line = hexline.Append(w.line, data, w.upper)
	w.line = hexline.AppendByte(w.line, ^sum, w.upper)
	w.line = append(w.line, '\n')
	_, err := w.w.Write(w.line)
	return err
}

// srecAddrWidth picks the data record address width for img.
func (c srecCodec) srecAddrWidth(img *Image) (int, error) {
	top := img.Entry
	if img.Data.Len() > 0 {
		top = max(top, img.Data.End()-1)
	}
	need := 2
	switch {
	case top > 0xFFFFFFFF:
		return 0, errors.Mark(errors.Newf("format: S-records cannot address 0x%X", top), sparse.ErrRange)
	case top > 0xFFFFFF:
		need = 4
	case top > 0xFFFF:
		need = 3
	}
	if w := c.opts.AddressWidth; w != 0 {
		if w < need || w > 4 {
			return 0, errors.Mark(
				errors.Newf("format: S-record address width %d cannot hold 0x%X", w, top),
				sparse.ErrInvalidArgument)
		}
		need = w
	}
	return need, nil
}

func (c srecCodec) Encode(w io.Writer, img *Image) error {
	alen, err := c.srecAddrWidth(img)
	if err != nil {
		return err
	}
	per := uint64(c.opts.bytesPerLine(16, 254-alen))
	sw := &srecWriter{w: bufio.NewWriter(w), upper: !c.opts.Lower}
	if len(img.Header) > 0 {
		if len(img.Header) > 252 {
			return errors.Mark(errors.Newf("format: S0 header of %d bytes is too long", len(img.Header)),
				sparse.ErrInvalidArgument)
		}
		if err := sw.record(0, 2, 0, img.Header); err != nil {
			return err
		}
	}
	dataType := alen - 1 // S1, S2, S3
	var count uint64
	for p := range img.Data.All() {
		for addr, data := p.Start, p.Data; len(data) > 0; {
			n := min(uint64(len(data)), per-addr%per)
			if err := sw.record(dataType, alen, addr, data[:n]); err != nil {
				return err
			}
			count++
			addr += n
			data = data[n:]
		}
	}
	switch {
	case count <= 0xFFFF:
		err = sw.record(5, 2, count, nil)
	case count <= 0xFFFFFF:
		err = sw.record(6, 3, count, nil)
	}
	if err != nil {
		return err
	}
	if err := sw.record(10-dataType, alen, img.Entry, nil); err != nil {
		return err
	}
	return sw.w.Flush()
}
