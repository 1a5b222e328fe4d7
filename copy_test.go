package sparse_test

import (
	"io"
	"strings"
	"testing"

	"github.com/dnesting/sparse/v2"
	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	var a, b sparse.Buffer
	require.NoError(t, a.Set(2, []byte("AAA")))
	require.NoError(t, a.Set(7, []byte("BBB")))

	n, err := sparse.Copy(b.Writer(0), a.Cursor())
	require.NoError(t, err)
	require.Equal(t, int64(6), n)
	require.True(t, a.Equal(&b), "%s != %s", &a, &b)

	c := b.Cursor()
	buf := make([]byte, 10)
	ofs, size, err := c.Find(0)
	require.NoError(t, err)
	require.Equal(t, int64(2), ofs)
	n2, _ := c.Read(buf)
	require.Equal(t, "AAA", string(buf[:n2]))

	ofs, _, err = c.Find(ofs + size)
	require.NoError(t, err)
	require.Equal(t, int64(7), ofs)
	n2, _ = c.Read(buf)
	require.Equal(t, "BBB", string(buf[:n2]))
}

func TestWriter(t *testing.T) {
	var b sparse.Buffer
	w := b.Writer(0x10)
	_, err := io.WriteString(w, "hi")
	require.NoError(t, err)
	pos, err := w.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(0x14), pos)
	_, err = io.WriteString(w, "yo")
	require.NoError(t, err)
	require.Equal(t, []sparse.Span{{Start: 0x10, Size: 2}, {Start: 0x14, Size: 2}}, b.Parts())

	pos, err = w.Seek(0, sparse.SeekHole)
	require.NoError(t, err)
	require.Equal(t, int64(0), pos)
	pos, err = w.Seek(0x10, sparse.SeekHole)
	require.NoError(t, err)
	require.Equal(t, int64(0x12), pos)
	_, err = io.WriteString(w, "--")
	require.NoError(t, err)
	require.Equal(t, []sparse.Span{{Start: 0x10, Size: 6}}, b.Parts())

	pos, err = w.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(0x16), pos)
}

func TestLoad(t *testing.T) {
	b, err := sparse.Load(sparse.Make(strings.NewReader("ab\000\000\000\000cd"), 0, 4), 0x1000)
	require.NoError(t, err)
	require.Equal(t, []sparse.Span{{Start: 0x1000, Size: 2}, {Start: 0x1006, Size: 2}}, b.Parts())
}
