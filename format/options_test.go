package format

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/dnesting/sparse/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestOptionsSet(t *testing.T) {
	var o Options
	require.NoError(t, o.Set("bytes-per-line", "32"))
	require.NoError(t, o.Set("Address-Width", "3"))
	require.NoError(t, o.Set("padding", "0x00"))
	require.NoError(t, o.Set("base", "0x8000"))
	require.NoError(t, o.Set("min-gap", "64"))
	require.NoError(t, o.Set("lower", "true"))
	require.NoError(t, o.Set("charset", "windows-1252"))

	require.Equal(t, 32, o.BytesPerLine)
	require.Equal(t, 3, o.AddressWidth)
	require.NotNil(t, o.Padding)
	require.Equal(t, sparse.Constant(0), *o.Padding)
	require.Equal(t, uint64(0x8000), o.Base)
	require.Equal(t, int64(64), o.MinGap)
	require.True(t, o.Lower)
	require.Equal(t, charmap.Windows1252, o.Charset)

	for _, c := range [][2]string{
		{"colour", "red"},
		{"bytes-per-line", "0"},
		{"bytes-per-line", "256"},
		{"address-width", "9"},
		{"padding", "nope"},
		{"base", "-1"},
		{"lower", "maybe"},
		{"charset", "klingon"},
	} {
		err := o.Set(c[0], c[1])
		require.True(t, errors.Is(err, sparse.ErrInvalidArgument), "%s=%s: %v", c[0], c[1], err)
	}
	require.Len(t, Settings, 7)
}

func TestLookupCharset(t *testing.T) {
	cm, err := LookupCharset("ISO 8859-1")
	require.NoError(t, err)
	require.Equal(t, charmap.ISO8859_1, cm)
	cm, err = LookupCharset("ibm-code-page-437")
	require.NoError(t, err)
	require.Equal(t, charmap.CodePage437, cm)
	cm, err = LookupCharset("ASCII")
	require.NoError(t, err)
	require.Nil(t, cm)
}
