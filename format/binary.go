package format

import (
	"bufio"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
)

// binaryCodec reads and writes raw bytes. The file holds the image from its
// first stored byte to its last, with gaps padded.
type binaryCodec struct {
	opts Options
}

func (c binaryCodec) Decode(r io.Reader) (*Image, error) {
	img := &Image{}
	if c.opts.MinGap > 0 {
		pad := c.padByte()
		b, err := sparse.Load(sparse.Make(bufio.NewReader(r), pad, c.opts.MinGap), c.opts.Base)
		if err != nil {
			return nil, err
		}
		img.Data = *b
		return img, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "format: reading binary")
	}
	if err := img.Data.StoreAt(data, c.opts.Base); err != nil {
		return nil, err
	}
	return img, nil
}

// padByte is the byte whose runs become gaps when MinGap is set. It is the
// configured constant padding, or 0xFF.
func (c binaryCodec) padByte() byte {
	if p := c.opts.Padding; p != nil && p.Kind() == sparse.PatternConstant {
		return p.At(0)
	}
	return 0xFF
}

func (c binaryCodec) Encode(w io.Writer, img *Image) error {
	data := img.Data
	data.SetPadding(c.opts.padding(img))
	bw := bufio.NewWriter(w)
	if _, err := data.WriteTo(bw); err != nil {
		return err
	}
	return bw.Flush()
}
