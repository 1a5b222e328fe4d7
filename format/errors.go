package format

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrDecode marks every error caused by malformed input. The more
	// specific kinds below are marked in addition to it.
	ErrDecode = errors.New("format: decode error")

	// ErrChecksum marks a record whose checksum does not match its contents.
	ErrChecksum = errors.New("format: checksum mismatch")
	// ErrSyntax marks malformed text: bad hex, wrong lengths, missing records.
	ErrSyntax = errors.New("format: invalid syntax")
	// ErrRecordType marks a record type the codec does not handle.
	ErrRecordType = errors.New("format: unsupported record type")
)

// decodeErrorf returns a decode error of the given kind for line.
func decodeErrorf(line int, kind error, format string, args ...interface{}) error {
	err := errors.Mark(errors.Mark(errors.Newf(format, args...), kind), ErrDecode)
	return errors.Wrapf(err, "line %d", line)
}

// syntaxError marks err, typically from the hexline helpers, as a syntax
// error on line.
func syntaxError(line int, err error) error {
	return errors.Wrapf(errors.Mark(errors.Mark(err, ErrSyntax), ErrDecode), "line %d", line)
}
