// Package protocol implements the byte-level command protocol of the
// potentiostat: receive FIFO, command framing, field tokenizing and the
// little-endian encoding of exported sample buffers.
package protocol

// Protocol constants
const (
	MessageMax = 512 // Maximum text reply size
	LineMax    = 128 // Maximum command length, excluding terminator
	RxBufSize  = 256 // Receive FIFO capacity

	FieldSep = '|' // Optional separator between command fields
)

// isTerminator reports whether b ends a command
func isTerminator(b byte) bool {
	return b == '\r' || b == '\n' || b == 0
}
