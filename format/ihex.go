package format

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
	"github.com/dnesting/sparse/v2/internal/hexline"
)

// Intel HEX record types.
const (
	ihexData         = 0x00
	ihexEOF          = 0x01
	ihexExtSegment   = 0x02
	ihexStartSegment = 0x03
	ihexExtLinear    = 0x04
	ihexStartLinear  = 0x05
)

// Offsets into a decoded record.
const (
	ihexLenOff  = 0
	ihexAddrOff = 1
	ihexTypeOff = 3
	ihexDataOff = 4
)

// intelHexCodec handles ":LLAAAATT[DD...]CC" records with 32-bit linear
// addressing.
type intelHexCodec struct {
	opts Options
}

func (c intelHexCodec) Decode(r io.Reader) (*Image, error) {
	img := &Image{}
	log := c.opts.logger()
	var base uint64 // from the last 02 or 04 record
	s := hexline.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if line[0] != ':' {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "record does not start with ':'")
		}
		buf, err := hexline.Decode(line[1:])
		if err != nil {
			return nil, syntaxError(s.Line(), err)
		}
		if len(buf) < ihexDataOff+1 {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "record too short")
		}
		if sum := hexline.Sum(buf); sum != 0 {
			return nil, decodeErrorf(s.Line(), ErrChecksum, "checksum off by 0x%02X", sum)
		}
		data := buf[ihexDataOff : len(buf)-1]
		if len(data) != int(buf[ihexLenOff]) {
			return nil, decodeErrorf(s.Line(), ErrSyntax, "length %d does not match %d data bytes",
				buf[ihexLenOff], len(data))
		}
		addr := uint64(binary.BigEndian.Uint16(buf[ihexAddrOff:]))

		switch typ := buf[ihexTypeOff]; typ {
		case ihexData:
			if err := img.Data.Set(base+addr, data); err != nil {
				return nil, errors.Wrapf(err, "line %d", s.Line())
			}
		case ihexEOF:
			return img, nil
		case ihexExtSegment, ihexExtLinear:
			if len(data) != 2 {
				return nil, decodeErrorf(s.Line(), ErrSyntax, "address record with %d bytes", len(data))
			}
			base = uint64(binary.BigEndian.Uint16(data))
			if typ == ihexExtSegment {
				base <<= 4
			} else {
				base <<= 16
			}
		case ihexStartSegment, ihexStartLinear:
			if len(data) != 4 {
				return nil, decodeErrorf(s.Line(), ErrSyntax, "start record with %d bytes", len(data))
			}
			v := binary.BigEndian.Uint32(data)
			if typ == ihexStartSegment {
				// CS:IP
				img.Entry = uint64(v>>16)<<4 + uint64(v&0xFFFF)
			} else {
				img.Entry = uint64(v)
			}
			img.HasEntry = true
		default:
			return nil, decodeErrorf(s.Line(), ErrRecordType, "record type 0x%02X", typ)
		}
		log.Debug("ihex record", "line", s.Line(), "type", buf[ihexTypeOff], "len", len(data))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return nil, decodeErrorf(s.Line(), ErrSyntax, "missing end-of-file record")
}

type ihexWriter struct {
	w     *bufio.Writer
	line  []byte
	upper bool
}

func (w *ihexWriter) record(typ byte, addr uint16, data []byte) error {
	head := [ihexDataOff]byte{byte(len(data)), byte(addr >> 8), byte(addr), typ}
	sum := hexline.Sum(head[:], data)
	w.line = append(w.line[:0], ':')
	w.line = hexline.Append(w.line, head[:], w.upper)
	w.line = hexline.Append(w.line, data, w.upper)
	w.line = hexline.AppendByte(w.line, -sum, w.upper)
	w.line = append(w.line, '\n')
	_, err := w.w.Write(w.line)
	return err
}

func (c intelHexCodec) Encode(w io.Writer, img *Image) error {
	if img.Data.Len() > 0 && img.Data.End() > 1<<32 {
		return errors.Mark(
			errors.Newf("format: Intel HEX cannot address 0x%X", img.Data.End()-1), sparse.ErrRange)
	}
	if img.HasEntry && img.Entry > 0xFFFFFFFF {
		return errors.Mark(
			errors.Newf("format: Intel HEX cannot hold entry point 0x%X", img.Entry), sparse.ErrRange)
	}
	per := uint64(c.opts.bytesPerLine(16, 255))
	iw := &ihexWriter{w: bufio.NewWriter(w), upper: !c.opts.Lower}
	var upper uint64
	for p := range img.Data.All() {
		for addr, data := p.Start, p.Data; len(data) > 0; {
			if u := addr >> 16; u != upper {
				if err := iw.record(ihexExtLinear, 0, []byte{byte(u >> 8), byte(u)}); err != nil {
					return err
				}
				upper = u
			}
			// Records never cross a line boundary or a 64 KiB segment.
			n := min(uint64(len(data)), per-addr%per, 0x10000-addr&0xFFFF)
			if err := iw.record(ihexData, uint16(addr), data[:n]); err != nil {
				return err
			}
			addr += n
			data = data[n:]
		}
	}
	if img.HasEntry {
		var e [4]byte
		binary.BigEndian.PutUint32(e[:], uint32(img.Entry))
		if err := iw.record(ihexStartLinear, 0, e[:]); err != nil {
			return err
		}
	}
	if err := iw.record(ihexEOF, 0, nil); err != nil {
		return err
	}
	return iw.w.Flush()
}
