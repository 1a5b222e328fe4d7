// Package format reads and writes sparse memory images in the file formats
// used by firmware tooling: raw binary, hex dumps, Intel HEX, Motorola
// S-records and Tektronix Extended Hex.
//
// Every format is reached through the same Codec interface. Lookup resolves
// a Format to its Codec through a fixed table, so adding a format means
// adding an enum value and a table entry.
package format

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
)

// Format identifies a file format.
type Format uint8

const (
	// Binary is the raw image from its first stored byte to its last.
	Binary Format = iota
	// HexDump is the canonical hex dump with an address and text column.
	HexDump
	// IntelHex is Intel HEX with 32-bit linear addressing.
	IntelHex
	// SRecord is Motorola S-records, S0 through S9.
	SRecord
	// Tektronix is Tektronix Extended Hex.
	Tektronix
	numFormats
)

var formatNames = [numFormats]string{
	Binary:    "binary",
	HexDump:   "hexdump",
	IntelHex:  "ihex",
	SRecord:   "srec",
	Tektronix: "tekhex",
}

func (f Format) String() string {
	if f < numFormats {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Formats returns every supported format.
func Formats() []Format {
	fs := make([]Format, numFormats)
	for i := range fs {
		fs[i] = Format(i)
	}
	return fs
}

var formatAliases = map[string]Format{
	"bin":      Binary,
	"raw":      Binary,
	"dump":     HexDump,
	"hex":      IntelHex,
	"intel":    IntelHex,
	"s19":      SRecord,
	"s28":      SRecord,
	"s37":      SRecord,
	"mot":      SRecord,
	"motorola": SRecord,
	"tek":      Tektronix,
	"xtek":     Tektronix,
}

// ParseFormat resolves a format name or one of its common aliases.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range formatNames {
		if s == name {
			return Format(i), nil
		}
	}
	if f, ok := formatAliases[s]; ok {
		return f, nil
	}
	return 0, errors.Mark(errors.Newf("format: unknown format %q", s), sparse.ErrInvalidArgument)
}

var extensions = map[string]Format{
	".bin":     Binary,
	".img":     Binary,
	".dump":    HexDump,
	".hexdump": HexDump,
	".hex":     IntelHex,
	".ihex":    IntelHex,
	".ihx":     IntelHex,
	".srec":    SRecord,
	".s19":     SRecord,
	".s28":     SRecord,
	".s37":     SRecord,
	".mot":     SRecord,
	".tek":     Tektronix,
	".xtek":    Tektronix,
}

// Extensions returns the file extensions Detect maps to f, sorted.
func Extensions(f Format) []string {
	var exts []string
	for ext, g := range extensions {
		if g == f {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return exts
}

// Detect guesses the format of path from its extension.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return 0, errors.Mark(
		errors.Newf("format: cannot tell the format of %q from its extension", path),
		sparse.ErrInvalidArgument)
}

// Image is a decoded memory image.
type Image struct {
	// Data holds the image contents.
	Data sparse.Buffer
	// Entry is the execution start address, valid when HasEntry is set.
	Entry    uint64
	HasEntry bool
	// Header is the free-form header some formats carry (S-record S0).
	Header []byte
}

// Codec decodes and encodes one file format.
type Codec interface {
	Decode(r io.Reader) (*Image, error)
	Encode(w io.Writer, img *Image) error
}

var codecs = [numFormats]func(Options) Codec{
	Binary:    func(o Options) Codec { return binaryCodec{o} },
	HexDump:   func(o Options) Codec { return hexDumpCodec{o} },
	IntelHex:  func(o Options) Codec { return intelHexCodec{o} },
	SRecord:   func(o Options) Codec { return srecCodec{o} },
	Tektronix: func(o Options) Codec { return tekHexCodec{o} },
}

// Lookup returns the codec for f configured with opts.
func Lookup(f Format, opts Options) (Codec, error) {
	if f >= numFormats {
		return nil, errors.Mark(errors.Newf("format: unknown format %s", f), sparse.ErrInvalidArgument)
	}
	return codecs[f](opts), nil
}

// ReadFile decodes the file at path.
func ReadFile(path string, f Format, opts Options) (*Image, error) {
	c, err := Lookup(f, opts)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	img, err := c.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return img, nil
}

// WriteFile encodes img into the file at path, replacing it.
func WriteFile(path string, f Format, opts Options, img *Image) (err error) {
	c, err := Lookup(f, opts)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	if err := c.Encode(file, img); err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	return nil
}
