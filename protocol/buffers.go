package protocol

// InputBuffer is the view LineReader needs of received bytes
type InputBuffer interface {
	// Data returns the buffered bytes in arrival order
	Data() []byte

	// Pop discards n bytes from the front
	Pop(n int)
}

// FifoBuffer holds received bytes until a full command is available. It is a
// ring; Data compacts it in place when the content wraps, so it never
// allocates after construction.
type FifoBuffer struct {
	buf   []byte
	head  int // index of the oldest byte
	count int
}

// NewFifoBuffer creates a buffer holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the number taken
func (f *FifoBuffer) Write(data []byte) int {
	n := 0
	for _, b := range data {
		if f.count == len(f.buf) {
			break
		}
		f.buf[(f.head+f.count)%len(f.buf)] = b
		f.count++
		n++
	}
	return n
}

// Read moves up to len(data) bytes out of the buffer
func (f *FifoBuffer) Read(data []byte) int {
	n := copy(data, f.Data())
	f.Pop(n)
	return n
}

// Available returns the number of buffered bytes
func (f *FifoBuffer) Available() int { return f.count }

// Free returns the room left for Write
func (f *FifoBuffer) Free() int { return len(f.buf) - f.count }

// Data returns the buffered bytes as one slice, valid until the next Write
func (f *FifoBuffer) Data() []byte {
	if f.head+f.count > len(f.buf) {
		f.compact()
	}
	return f.buf[f.head : f.head+f.count]
}

// compact rotates the ring so the oldest byte is at index 0
func (f *FifoBuffer) compact() {
	reverse(f.buf[:f.head])
	reverse(f.buf[f.head:])
	reverse(f.buf)
	f.head = 0
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Pop discards n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	if n > f.count {
		n = f.count
	}
	f.head = (f.head + n) % len(f.buf)
	f.count -= n
	if f.count == 0 {
		f.head = 0
	}
}

// Reset discards everything
func (f *FifoBuffer) Reset() {
	f.head = 0
	f.count = 0
}

// ScratchOutput assembles one text reply in a fixed buffer. Output past
// MessageMax is dropped.
type ScratchOutput struct {
	buf [MessageMax]byte
	n   int
}

// NewScratchOutput creates an empty reply buffer
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

// Output appends raw bytes
func (s *ScratchOutput) Output(data []byte) {
	s.n += copy(s.buf[s.n:], data)
}

// OutputString appends text
func (s *ScratchOutput) OutputString(str string) {
	s.n += copy(s.buf[s.n:], str)
}

// Line terminates the reply with CRLF
func (s *ScratchOutput) Line() {
	s.OutputString("\r\n")
}

// Len returns the number of bytes held
func (s *ScratchOutput) Len() int { return s.n }

// Result returns the reply so far
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.n]
}

// Reset empties the buffer
func (s *ScratchOutput) Reset() {
	s.n = 0
}
