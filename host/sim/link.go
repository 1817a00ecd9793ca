package sim

import "io"

// Link is the firmware's view of the host connection. Received chunks are
// queued by the runner and consumed by the instrument from the same goroutine.
type Link struct {
	pending []byte
	out     io.Writer
}

// NewLink creates a link that writes replies to out
func NewLink(out io.Writer) *Link {
	return &Link{out: out}
}

// Feed queues received bytes
func (l *Link) Feed(b []byte) {
	l.pending = append(l.pending, b...)
}

// Available returns the number of queued bytes
func (l *Link) Available() int { return len(l.pending) }

// Read takes queued bytes
func (l *Link) Read(p []byte) (int, error) {
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	if len(l.pending) == 0 {
		l.pending = nil
	}
	return n, nil
}

// Write sends a reply to the host
func (l *Link) Write(p []byte) (int, error) {
	return l.out.Write(p)
}
