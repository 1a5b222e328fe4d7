package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
	"github.com/dnesting/sparse/v2/format"
	"github.com/stretchr/testify/require"
)

// runCLI runs sparsehex with args and returns what it wrote to stdout and
// stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTestImage writes "Hello" at 0x100 and "World" at 0x200 with entry
// point 0x100 to dir/name.
func writeTestImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := &format.Image{Entry: 0x100, HasEntry: true}
	require.NoError(t, img.Data.Set(0x100, []byte("Hello")))
	require.NoError(t, img.Data.Set(0x200, []byte("World")))
	path := filepath.Join(dir, name)
	f, err := format.Detect(path)
	require.NoError(t, err)
	require.NoError(t, format.WriteFile(path, f, format.Options{}, img))
	return path
}

func readTestImage(t *testing.T, path string) *format.Image {
	t.Helper()
	f, err := format.Detect(path)
	require.NoError(t, err)
	img, err := format.ReadFile(path, f, format.Options{})
	require.NoError(t, err)
	return img
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := writeTestImage(t, dir, "in.hex")
	out := filepath.Join(dir, "out.s19")

	_, _, err := runCLI(t, "convert", "--offset", "0x1000", in, out)
	require.NoError(t, err)
	img := readTestImage(t, out)
	require.Equal(t, "[0x1100,+5] [0x1200,+5]", img.Data.String())
	require.Equal(t, uint64(0x100), img.Entry)

	_, _, err = runCLI(t, "convert", "--offset=-0x200", in, out)
	require.True(t, errors.Is(err, sparse.ErrRange), "%v", err)
}

func TestConvertCropFill(t *testing.T) {
	dir := t.TempDir()
	in := writeTestImage(t, dir, "in.hex")
	out := filepath.Join(dir, "out.img")

	_, _, err := runCLI(t, "convert", "--crop", "0x102:0x200", "--fill-gaps", "00", in, out)
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	want := "llo" + strings.Repeat("\x00", 0x200-0x105) + "World"
	require.Equal(t, want, string(got))
}

func TestConvertUnfill(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "flash.bin")
	require.NoError(t, os.WriteFile(in, []byte("AB"+strings.Repeat("\xFF", 32)+"CD"), 0o644))
	out := filepath.Join(dir, "flash.tek")

	_, _, err := runCLI(t, "convert", "--set", "base=0x8000", "--unfill", "FF", "--min-gap", "8", in, out)
	require.NoError(t, err)
	img := readTestImage(t, out)
	require.Equal(t, "[0x8000,+2] [0x8022,+2]", img.Data.String())

	_, _, err = runCLI(t, "convert", "--unfill", "random", in, out)
	require.True(t, errors.Is(err, sparse.ErrInvalidArgument), "%v", err)
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	in := writeTestImage(t, dir, "in.s28")

	stdout, _, err := runCLI(t, "info", in)
	require.NoError(t, err)
	whole := "Hello" + strings.Repeat("\xFF", 0x200-0x105) + "World"
	for _, want := range []string{
		"Range:  0x100-0x205 (261 bytes)",
		"Used:   10 bytes in 2 parts",
		"Entry:  0x100",
		"0x105",
		xxhashString("Hello"),
		xxhashString("World"),
		"XXH64:  " + xxhashString(whole),
	} {
		require.Contains(t, stdout, want)
	}

	stdout, _, err = runCLI(t, "info", "--set", "padding=0", in)
	require.NoError(t, err)
	require.Contains(t, stdout, "XXH64:  "+xxhashString("Hello"+strings.Repeat("\x00", 0x200-0x105)+"World"))
}

func xxhashString(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	in := writeTestImage(t, dir, "in.hex")

	stdout, _, err := runCLI(t, "dump", in)
	require.NoError(t, err)
	require.Equal(t,
		"00000100  48 65 6C 6C 6F -- -- --  -- -- -- -- -- -- -- --  |Hello           |\n"+
			"00000200  57 6F 72 6C 64 -- -- --  -- -- -- -- -- -- -- --  |World           |\n",
		stdout)
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.hex")
	b := filepath.Join(dir, "b.s19")
	imgA := &format.Image{}
	require.NoError(t, imgA.Data.Set(0, []byte("AAAA")))
	require.NoError(t, format.WriteFile(a, format.IntelHex, format.Options{}, imgA))
	imgB := &format.Image{Entry: 2, HasEntry: true}
	require.NoError(t, imgB.Data.Set(2, []byte("BBBB")))
	require.NoError(t, format.WriteFile(b, format.SRecord, format.Options{}, imgB))

	out := filepath.Join(dir, "out.hex")
	_, stderr, err := runCLI(t, "merge", out, a, b)
	require.NoError(t, err)
	require.Contains(t, stderr, "merge complete")
	got := readTestImage(t, out)
	data, err := got.Data.Get(0, 6, sparse.Fail())
	require.NoError(t, err)
	require.Equal(t, "AAAABB", string(data))
	require.True(t, got.HasEntry)
	require.Equal(t, uint64(2), got.Entry)

	_, stderr, err = runCLI(t, "merge", "-q", "--overwrite", out, a, b)
	require.NoError(t, err)
	require.Empty(t, stderr)
	got = readTestImage(t, out)
	data, err = got.Data.Get(0, 6, sparse.Fail())
	require.NoError(t, err)
	require.Equal(t, "AABBBB", string(data))

	_, _, err = runCLI(t, "merge", out, a, filepath.Join(dir, "missing.hex"))
	require.Error(t, err)
}

func TestSettings(t *testing.T) {
	dir := t.TempDir()
	in := writeTestImage(t, dir, "in.hex")
	for _, args := range [][]string{
		{"info", "--set", "nope", in},
		{"info", "--set", "colour=red", in},
		{"info", "--set", "bytes-per-line=0", in},
		{"info", "--from", "elf", in},
		{"convert", "--crop", "0x100", in, filepath.Join(dir, "out.bin")},
		{"convert", in, filepath.Join(dir, "out.txt")},
	} {
		_, _, err := runCLI(t, args...)
		require.True(t, errors.Is(err, sparse.ErrInvalidArgument), "%v: %v", args, err)
	}
}

func TestFormats(t *testing.T) {
	stdout, _, err := runCLI(t, "formats")
	require.NoError(t, err)
	for _, f := range format.Formats() {
		require.Contains(t, stdout, f.String())
	}
	require.Contains(t, stdout, ".hex .ihex .ihx")
}

func TestParseSpan(t *testing.T) {
	for _, c := range []struct {
		in   string
		want sparse.Span
		ok   bool
	}{
		{"0x100:0x20", sparse.Span{Start: 0x100, Size: 0x20}, true},
		{"16:32", sparse.Span{Start: 16, Size: 32}, true},
		{" 0x8000 : 1024 ", sparse.Span{Start: 0x8000, Size: 1024}, true},
		{"0x100", sparse.Span{}, false},
		{"x:1", sparse.Span{}, false},
		{"1:-1", sparse.Span{}, false},
	} {
		got, err := parseSpan(c.in)
		if !c.ok {
			require.True(t, errors.Is(err, sparse.ErrInvalidArgument), c.in)
			continue
		}
		require.NoError(t, err, c.in)
		require.Equal(t, c.want, got)
	}
}
