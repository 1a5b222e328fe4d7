package sparse

import (
	"bufio"
	"io"
)

type maker struct {
	scan   *bufio.Scanner
	pad    byte
	minRun int64

	run  int64 // pad bytes seen but not yet emitted or skipped
	data []byte

	err error // only cleared by Next
}

// splitFunc is a bufio.SplitFunc that splits on sequences of the pad byte.
func (m *maker) splitFunc(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for advance < len(data) && data[advance] == m.pad {
		advance++
		m.run++
	}
	start := advance
	for advance < len(data) && data[advance] != m.pad {
		advance++
	}
	if start != advance {
		token = data[start:advance]
	}
	return
}

func (m *maker) Read(p []byte) (n int, err error) {
	for n < len(p) {
		if m.err != nil {
			// Some persistent error from Scan, often io.EOF.
			err = m.err
			break
		}
		if m.run >= m.minRun {
			// Stop reading with io.EOF until we're advanced with Next.
			break
		}
		for m.run > 0 && n < len(p) {
			// The run is too short to skip, so emit it as data.
			p[n] = m.pad
			n++
			m.run--
		}
		nn := copy(p[n:], m.data)
		m.data = m.data[nn:]
		n += nn
		if len(m.data) == 0 && m.run == 0 {
			m.readMore()
		}
	}
	if len(p) > 0 && n == 0 && err == nil {
		err = io.EOF
	}
	if n > 0 && err == io.EOF {
		err = nil
	}
	return
}

func (m *maker) Next() (skip int64, err error) {
	if m.run >= m.minRun {
		skip = m.run
		m.run = 0
	}
	err = m.err
	return
}

func (m *maker) readMore() {
	wantMore := m.scan.Scan()
	m.data = m.scan.Bytes()
	if m.scan.Err() != nil {
		// We've reached some terminal condition with the input reader, so make
		// this error persistent.
		m.err = m.scan.Err()
	}
	if !wantMore && m.run == 0 && len(m.data) == 0 {
		// We've reached the normal end of the input reader
		m.err = io.EOF
	}
}

// Make takes the stream from r and produces a sparse Reader that reads the
// segments of bytes lying between runs of at least minRun pad bytes. Shorter
// runs are kept as data. Erased flash is commonly 0xFF; use 0 for ordinary
// sparse files.
func Make(r io.Reader, pad byte, minRun int64) Reader {
	if minRun < 1 {
		minRun = 1
	}
	m := &maker{
		scan:   bufio.NewScanner(r),
		pad:    pad,
		minRun: minRun,
	}
	m.scan.Split(m.splitFunc)
	m.readMore()
	return m
}
