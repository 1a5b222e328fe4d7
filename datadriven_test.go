package sparse_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/dnesting/sparse/v2"
)

func TestBufferDataDriven(t *testing.T) {
	var b sparse.Buffer
	datadriven.RunTest(t, "testdata/buffer", func(t *testing.T, d *datadriven.TestData) string {
		var err error
		switch d.Cmd {
		case "reset":
			b = sparse.Buffer{}
		case "set":
			err = b.Write(uintArg(t, d, "addr"), []byte(strings.TrimSuffix(d.Input, "\n")), !hasArg(d, "keep"))
		case "get":
			fill := patternArg(t, d, "fill", b.Padding())
			got, err := b.Get(uintArg(t, d, "addr"), uintArg(t, d, "size"), fill)
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			return fmt.Sprintf("%q\n", got)
		case "delete":
			b.Delete(uintArg(t, d, "addr"), uintArg(t, d, "size"))
		case "fill":
			err = b.Fill(uintArg(t, d, "addr"), uintArg(t, d, "size"),
				patternArg(t, d, "pattern", b.Padding()), hasArg(d, "overwrite"))
		case "fill-gaps":
			err = b.FillGaps(patternArg(t, d, "pattern", b.Padding()))
		case "unfill":
			err = b.Unfill(uintArg(t, d, "addr"), uintArg(t, d, "size"),
				patternArg(t, d, "pattern", b.Padding()), uintArg(t, d, "min-gap"))
		case "crop":
			b.Crop(uintArg(t, d, "addr"), uintArg(t, d, "size"))
		case "extract":
			x := b.Extract(uintArg(t, d, "addr"), uintArg(t, d, "size"), hasArg(d, "keep"))
			return "extracted:\n" + dumpBuffer(x) + "remaining:\n" + dumpBuffer(&b)
		case "offset":
			delta, perr := strconv.ParseInt(stringArg(t, d, "delta"), 0, 64)
			if perr != nil {
				d.Fatalf(t, "bad delta: %v", perr)
			}
			err = b.Offset(delta)
		case "relocate":
			err = b.Relocate(uintArg(t, d, "to"), uintArg(t, d, "addr"), uintArg(t, d, "size"), !hasArg(d, "keep"))
		case "padding":
			b.SetPadding(patternArg(t, d, "pattern", sparse.Constant(0xFF)))
			return b.Padding().String() + "\n"
		case "parts":
			return spansString(b.Parts())
		case "gaps":
			return spansString(b.Gaps())
		case "range":
			r := b.Range()
			return fmt.Sprintf("%s used=%d\n", r, b.UsedSize())
		default:
			d.Fatalf(t, "unknown command %q", d.Cmd)
		}
		if err != nil {
			return fmt.Sprintf("error: %v\n", err)
		}
		return dumpBuffer(&b)
	})
}

func dumpBuffer(b *sparse.Buffer) string {
	if b.Len() == 0 {
		return "(empty)\n"
	}
	var sb strings.Builder
	for p := range b.All() {
		fmt.Fprintf(&sb, "0x%X: %q\n", p.Start, p.Data)
	}
	return sb.String()
}

func spansString(spans []sparse.Span) string {
	if len(spans) == 0 {
		return "none\n"
	}
	var sb strings.Builder
	for _, s := range spans {
		fmt.Fprintln(&sb, s)
	}
	return sb.String()
}

func hasArg(d *datadriven.TestData, key string) bool {
	for _, a := range d.CmdArgs {
		if a.Key == key {
			return true
		}
	}
	return false
}

func stringArg(t *testing.T, d *datadriven.TestData, key string) string {
	for _, a := range d.CmdArgs {
		if a.Key == key && len(a.Vals) == 1 {
			return a.Vals[0]
		}
	}
	d.Fatalf(t, "missing argument %s", key)
	return ""
}

func uintArg(t *testing.T, d *datadriven.TestData, key string) uint64 {
	v, err := strconv.ParseUint(stringArg(t, d, key), 0, 64)
	if err != nil {
		d.Fatalf(t, "bad %s: %v", key, err)
	}
	return v
}

func patternArg(t *testing.T, d *datadriven.TestData, key string, def sparse.Pattern) sparse.Pattern {
	if !hasArg(d, key) {
		return def
	}
	p, err := sparse.ParsePattern(stringArg(t, d, key))
	if err != nil {
		d.Fatalf(t, "bad %s: %v", key, err)
	}
	return p
}
