package sparse

import (
	"github.com/cockroachdb/errors"
)

// Error kinds. Errors returned by this package can be tested against these
// with errors.Is; the returned errors usually carry more detail.
var (
	// ErrInvalidArgument is returned for arguments that can never be valid,
	// such as a non-positive pattern length or an empty pattern sequence.
	ErrInvalidArgument = errors.New("sparse: invalid argument")

	// ErrRange is returned when an operation would move data below address
	// zero or past the end of the 64-bit address space.
	ErrRange = errors.New("sparse: address out of range")

	// ErrFillRequired is returned when a read or fill meets a gap and the
	// pattern in use is Fail().
	ErrFillRequired = errors.New("sparse: data missing")
)

func invalidf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidArgument)
}

func rangef(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrRange)
}

func missing(addr, size uint64) error {
	return errors.Mark(
		errors.Newf("sparse: no data at 0x%X (%d bytes)", addr, size), ErrFillRequired)
}

// checkSpan fails if addr+size does not fit in the address space.
func checkSpan(addr, size uint64) error {
	if size > 0 && addr > maxAddr-size {
		return rangef("sparse: span 0x%X+%d overflows the address space", addr, size)
	}
	return nil
}
