package format

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
)

// TestCodecsDataDriven runs testdata/codecs. Commands:
//
//	decode format=<name> [<setting>=<value>...]   input is the encoded file
//	encode format=<name> [entry=<addr>] [header=<text>] [<setting>=<value>...]
//	                                               input is "<addr>: <text>" lines
func TestCodecsDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/codecs", func(t *testing.T, d *datadriven.TestData) string {
		var (
			f    Format
			opts Options
			img  = &Image{}
		)
		for _, arg := range d.CmdArgs {
			var val string
			if len(arg.Vals) > 0 {
				val = arg.Vals[0]
			}
			var err error
			switch arg.Key {
			case "format":
				f, err = ParseFormat(val)
			case "entry":
				img.Entry, err = strconv.ParseUint(val, 0, 64)
				img.HasEntry = true
			case "header":
				img.Header = []byte(val)
			default:
				err = opts.Set(arg.Key, val)
			}
			if err != nil {
				d.Fatalf(t, "%s: %v", arg.Key, err)
			}
		}
		c, err := Lookup(f, opts)
		if err != nil {
			d.Fatalf(t, "%v", err)
		}

		switch d.Cmd {
		case "decode":
			got, err := c.Decode(strings.NewReader(d.Input))
			if err != nil {
				return "error: " + errorKind(err) + "\n"
			}
			return describe(got)
		case "encode":
			for _, line := range strings.Split(d.Input, "\n") {
				if line == "" {
					continue
				}
				addr, text, ok := strings.Cut(line, ": ")
				if !ok {
					d.Fatalf(t, "bad input line %q", line)
				}
				a, err := strconv.ParseUint(addr, 0, 64)
				if err != nil {
					d.Fatalf(t, "bad address %q", addr)
				}
				if err := img.Data.Set(a, []byte(text)); err != nil {
					d.Fatalf(t, "%v", err)
				}
			}
			var sb strings.Builder
			if err := c.Encode(&sb, img); err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			return sb.String()
		default:
			d.Fatalf(t, "unknown command %q", d.Cmd)
		}
		return ""
	})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrChecksum):
		return "checksum"
	case errors.Is(err, ErrRecordType):
		return "record type"
	case errors.Is(err, ErrSyntax):
		return "syntax"
	}
	return err.Error()
}

func describe(img *Image) string {
	var sb strings.Builder
	if len(img.Header) > 0 {
		fmt.Fprintf(&sb, "header: %q\n", img.Header)
	}
	for p := range img.Data.All() {
		fmt.Fprintf(&sb, "0x%X: %q\n", p.Start, p.Data)
	}
	if img.HasEntry {
		fmt.Fprintf(&sb, "entry: 0x%X\n", img.Entry)
	}
	if sb.Len() == 0 {
		return "(empty)\n"
	}
	return sb.String()
}
