package format

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
	"golang.org/x/text/encoding/charmap"
)

// Options configures the codecs. The zero value selects each format's
// defaults.
type Options struct {
	// BytesPerLine is the number of data bytes per record or dump line.
	BytesPerLine int
	// AddressWidth forces the number of address bytes written, where the
	// format allows a choice. Zero picks the narrowest that fits.
	AddressWidth int
	// Padding fills gaps when a format needs contiguous data. Nil uses the
	// padding of the image's buffer.
	Padding *sparse.Pattern
	// Base is the load address of binary input.
	Base uint64
	// MinGap, when positive, makes binary input sparse: runs of at least
	// MinGap padding bytes become gaps.
	MinGap int64
	// Lower selects lowercase hex digits on output.
	Lower bool
	// Charset decodes the text column of hex dumps. Nil means ASCII.
	Charset *charmap.Charmap
	// Logger receives notes about skipped input. Nil discards them.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (o *Options) bytesPerLine(def, limit int) int {
	if o.BytesPerLine <= 0 {
		return def
	}
	return min(o.BytesPerLine, limit)
}

func (o *Options) padding(img *Image) sparse.Pattern {
	if o.Padding != nil {
		return *o.Padding
	}
	return img.Data.Padding()
}

// Settings lists the names accepted by Set.
var Settings = []string{
	"bytes-per-line", "address-width", "padding", "base", "min-gap", "lower", "charset",
}

// Set assigns the setting called name from its textual value.
func (o *Options) Set(name, value string) error {
	var err error
	switch strings.ToLower(name) {
	case "bytes-per-line":
		o.BytesPerLine, err = parseInt(value, 1, 255)
	case "address-width":
		o.AddressWidth, err = parseInt(value, 0, 8)
	case "padding":
		var p sparse.Pattern
		if p, err = sparse.ParsePattern(value); err == nil {
			o.Padding = &p
		}
	case "base":
		o.Base, err = strconv.ParseUint(value, 0, 64)
	case "min-gap":
		var n int
		n, err = parseInt(value, 0, 1<<30)
		o.MinGap = int64(n)
	case "lower":
		o.Lower, err = strconv.ParseBool(value)
	case "charset":
		o.Charset, err = LookupCharset(value)
	default:
		return errors.Mark(errors.Newf("format: unknown setting %q", name), sparse.ErrInvalidArgument)
	}
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "format: setting %s", name), sparse.ErrInvalidArgument)
	}
	return nil
}

func parseInt(s string, lo, hi int) (int, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, err
	}
	if v < int64(lo) || v > int64(hi) {
		return 0, errors.Newf("%d is outside [%d, %d]", v, lo, hi)
	}
	return int(v), nil
}

func charsetKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// LookupCharset finds a single-byte character set by name, ignoring case,
// spaces and dashes: "windows-1252", "ISO 8859-1", "ibm code page 437".
// "ascii" selects plain ASCII and returns nil.
func LookupCharset(name string) (*charmap.Charmap, error) {
	key := charsetKey(name)
	if key == "ascii" || key == "" {
		return nil, nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok && charsetKey(cm.String()) == key {
			return cm, nil
		}
	}
	return nil, errors.Newf("unknown charset %q", name)
}
