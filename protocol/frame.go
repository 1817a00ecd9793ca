package protocol

import "errors"

// ErrLineTooLong is returned when no terminator arrives within LineMax bytes.
// The offending bytes are discarded.
var ErrLineTooLong = errors.New("command too long")

// LineReader splits an InputBuffer into commands terminated by CR, LF or NUL.
// Empty lines are skipped.
type LineReader struct {
	in   InputBuffer
	line [LineMax]byte
}

// NewLineReader creates a reader over in
func NewLineReader(in InputBuffer) *LineReader {
	return &LineReader{in: in}
}

// Next returns the next complete command, or nil if none is buffered yet.
// The returned slice is valid until the following call.
func (r *LineReader) Next() ([]byte, error) {
	for {
		data := r.in.Data()
		end := -1
		for i, b := range data {
			if isTerminator(b) {
				end = i
				break
			}
		}
		if end < 0 {
			if len(data) > LineMax {
				r.in.Pop(len(data))
				return nil, ErrLineTooLong
			}
			return nil, nil
		}
		if end > LineMax {
			r.in.Pop(end + 1)
			return nil, ErrLineTooLong
		}
		n := copy(r.line[:], data[:end])
		r.in.Pop(end + 1)
		if n > 0 {
			return r.line[:n], nil
		}
	}
}
