package sparse_test

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/dnesting/sparse/v2"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	type R struct {
		data    string
		skipped int64
	}
	type T struct {
		input    string
		consec   int64
		expected []R
	}
	for _, c := range []T{
		{"abc", 3, []R{{"abc", 0}}},
		{"\000abc", 3, []R{{"\000abc", 0}}},
		{"\000\000abc", 3, []R{{"\000\000abc", 0}}},
		{"\000\000\000abc", 3, []R{{"abc", 3}}},
		{"\000\000\000\000abc", 3, []R{{"abc", 4}}},
		{"abc\000", 3, []R{{"abc\000", 0}}},
		{"abc\000\000", 3, []R{{"abc\000\000", 0}}},
		{"abc\000\000\000", 3, []R{{"abc", 0}, {"", 3}}},
		{"abc\000\000\000\000", 3, []R{{"abc", 0}, {"", 4}}},
		{"abc\000def", 3, []R{{"abc\000def", 0}}},
		{"abc\000\000def", 3, []R{{"abc\000\000def", 0}}},
		{"abc\000\000\000def", 3, []R{{"abc", 0}, {"def", 3}}},
		{"abc\000\000\000\000def", 3, []R{{"abc", 0}, {"def", 4}}},
		{"a\000b", 0, []R{{"a", 0}, {"b", 1}}},
	} {
		t.Run(fmt.Sprintf("%q", c.input), func(t *testing.T) {
			r := sparse.Make(strings.NewReader(c.input), 0, c.consec)
			var got []R
			for i := 0; i < 10; i++ {
				var skip int64
				data, err := io.ReadAll(r)
				require.NoError(t, err)
				if len(data) == 0 {
					skip, err = r.Next()
					if err == io.EOF {
						break
					}
					require.NoError(t, err)
					data, err = io.ReadAll(r)
					require.NoError(t, err)
				}
				got = append(got, R{string(data), skip})
			}
			require.Equal(t, c.expected, got)
		})
	}
}

func TestMakeErasedFlash(t *testing.T) {
	input := append([]byte{1, 2}, bytes.Repeat([]byte{0xFF}, 8)...)
	input = append(input, 3, 0xFF, 4)
	b, err := sparse.Load(sparse.Make(bytes.NewReader(input), 0xFF, 4), 0x8000)
	require.NoError(t, err)
	require.Equal(t, []sparse.Span{{Start: 0x8000, Size: 2}, {Start: 0x800A, Size: 3}}, b.Parts())
	got, err := b.Get(0x800A, 3, sparse.Fail())
	require.NoError(t, err)
	require.Equal(t, []byte{3, 0xFF, 4}, got)
}

func ExampleMake() {
	// This example creates a byte slice with spans of zeros in them, and converts
	// that slice into sparse segments, showing how those spans then get iterated on.

	// Start with a sparse buffer populated with a couple of segments of data.
	var orig sparse.Buffer
	orig.WriteAt([]byte("AAA"), 0x08)
	orig.WriteAt([]byte("BBB"), 0x18)

	// NewReader fills the gaps with zeros, producing a regular non-sparse stream.
	data, _ := io.ReadAll(sparse.NewReader(orig.Cursor(), nil))
	fmt.Print(hex.Dump(data))
	fmt.Println()

	// Make searches for those zeros and converts the bytes back into sparse
	// segments.
	rd := sparse.Make(bytes.NewBuffer(data), 0, 5) // 5 contiguous zeros = skip the span

	for i := 0; i < 10; i++ {
		skip, err := rd.Next()
		if err == io.EOF {
			break
		}
		d, _ := io.ReadAll(rd)
		fmt.Printf("iter.Next %d skipped %d bytes then gave us %q\n", i+1, skip, string(d))
	}

	// The full round-trip back into a Buffer.
	target, _ := sparse.Load(sparse.Make(bytes.NewBuffer(data), 0, 5), 0)

	c := target.Cursor()
	off, _, _ := c.Find(0x16)
	data = make([]byte, 5)
	n, _ := c.Read(data)
	fmt.Printf("Found %q at 0x%X", string(data[:n]), off)

	// Output:
	// 00000000  00 00 00 00 00 00 00 00  41 41 41 00 00 00 00 00  |........AAA.....|
	// 00000010  00 00 00 00 00 00 00 00  42 42 42                 |........BBB|
	//
	// iter.Next 1 skipped 8 bytes then gave us "AAA"
	// iter.Next 2 skipped 13 bytes then gave us "BBB"
	// Found "BBB" at 0x18
}
