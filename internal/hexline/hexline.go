// Package hexline holds the helpers shared by the line-oriented hex record
// formats: a line scanner that counts lines, hex pair coding, and the byte
// and nibble sums the formats use as checksums.
package hexline

import (
	"bufio"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// MaxLine is the longest line a Scanner accepts.
const MaxLine = 1 << 20

const (
	upperDigits = "0123456789ABCDEF"
	lowerDigits = "0123456789abcdef"
)

// ErrSyntax is returned for malformed hex text.
var ErrSyntax = errors.New("invalid hex")

// Scanner reads non-blank lines, trimming surrounding whitespace and
// carriage returns, and remembers the number of the current line.
type Scanner struct {
	s    *bufio.Scanner
	line int
	text string
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), MaxLine)
	return &Scanner{s: s}
}

// Scan advances to the next non-blank line.
func (s *Scanner) Scan() bool {
	for s.s.Scan() {
		s.line++
		s.text = strings.TrimSpace(s.s.Text())
		if s.text != "" {
			return true
		}
	}
	s.text = ""
	return false
}

// Text returns the current line without surrounding whitespace.
func (s *Scanner) Text() string { return s.text }

// Line returns the 1-based number of the current line.
func (s *Scanner) Line() int { return s.line }

// Err returns the first read error, if any.
func (s *Scanner) Err() error {
	if err := s.s.Err(); err != nil {
		return errors.Wrapf(err, "after line %d", s.line)
	}
	return nil
}

// Nibble returns the value of the hex digit c.
func Nibble(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Decode decodes an even-length string of hex digits.
func Decode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, errors.Mark(errors.Newf("odd number of hex digits in %q", s), ErrSyntax)
	}
	buf := make([]byte, len(s)/2)
	for i := range buf {
		hi, ok1 := Nibble(s[2*i])
		lo, ok2 := Nibble(s[2*i+1])
		if !ok1 || !ok2 {
			return nil, errors.Mark(errors.Newf("invalid hex digits %q", s[2*i:2*i+2]), ErrSyntax)
		}
		buf[i] = hi<<4 | lo
	}
	return buf, nil
}

// ParseUint parses exactly the hex digits of s as an unsigned number.
func ParseUint(s string) (uint64, error) {
	if s == "" || len(s) > 16 {
		return 0, errors.Mark(errors.Newf("invalid hex number %q", s), ErrSyntax)
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		n, ok := Nibble(s[i])
		if !ok {
			return 0, errors.Mark(errors.Newf("invalid hex number %q", s), ErrSyntax)
		}
		v = v<<4 | uint64(n)
	}
	return v, nil
}

// AppendByte appends the two hex digits of b to dst.
func AppendByte(dst []byte, b byte, upper bool) []byte {
	digits := lowerDigits
	if upper {
		digits = upperDigits
	}
	return append(dst, digits[b>>4], digits[b&0xF])
}

// Append appends the hex digits of every byte in src to dst.
func Append(dst, src []byte, upper bool) []byte {
	for _, b := range src {
		dst = AppendByte(dst, b, upper)
	}
	return dst
}

// AppendUint appends v as exactly n hex digits, keeping the low digits.
func AppendUint(dst []byte, v uint64, n int, upper bool) []byte {
	digits := lowerDigits
	if upper {
		digits = upperDigits
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, digits[(v>>(4*uint(i)))&0xF])
	}
	return dst
}

// Sum returns the sum of the bytes of each slice, modulo 256.
func Sum(bufs ...[]byte) byte {
	var sum byte
	for _, b := range bufs {
		for _, v := range b {
			sum += v
		}
	}
	return sum
}

// NibbleSum returns the sum of the values of the hex digits in s. Other
// characters are ignored.
func NibbleSum(s string) int {
	var sum int
	for i := 0; i < len(s); i++ {
		if n, ok := Nibble(s[i]); ok {
			sum += int(n)
		}
	}
	return sum
}
