package core

import (
	"errors"

	"pstat/protocol"
)

var (
	ErrBadChannel     = errors.New("invalid channel")
	ErrBufferNotReady = errors.New("buffer not ready")
	ErrBufferBusy     = errors.New("buffer is being written")
	ErrBufferOverrun  = errors.New("buffer overwritten during export")
	ErrBadLength      = errors.New("invalid buffer length")
)

// BufferPool owns the rotating sample buffers. Writes happen from the tick
// handlers; the main loop only reads, and only after checking the ready flag.
type BufferPool struct {
	bufs    [][]uint16
	length  []int    // samples in the last completed fill, sentinel excluded
	ready   []bool   // last fill is complete and not yet being overwritten
	fills   []uint32 // completed fill count, used to detect a torn export
	writing int      // channel currently being written, -1 if none
	target  int      // most recent target length
	scratch []byte
}

// NewBufferPool allocates channels buffers of capacity samples plus a sentinel slot
func NewBufferPool(channels, capacity int) *BufferPool {
	p := &BufferPool{
		bufs:    make([][]uint16, channels),
		length:  make([]int, channels),
		ready:   make([]bool, channels),
		fills:   make([]uint32, channels),
		writing: -1,
		scratch: make([]byte, 2*(capacity+1)),
	}
	for i := range p.bufs {
		p.bufs[i] = make([]uint16, capacity+1)
	}
	return p
}

// Channels returns the number of buffers
func (p *BufferPool) Channels() int { return len(p.bufs) }

// Capacity returns the number of samples a buffer holds before the sentinel
func (p *BufferPool) Capacity() int { return len(p.bufs[0]) - 1 }

// setTarget records the length of the run being armed. Called inside a critical section.
func (p *BufferPool) setTarget(n int) { p.target = n }

// begin marks ch as the buffer being written. Its previous fill is no longer exportable.
func (p *BufferPool) begin(ch int) {
	p.writing = ch
	p.ready[ch] = false
}

// idle marks that no buffer is being written
func (p *BufferPool) idle() { p.writing = -1 }

func (p *BufferPool) store(ch, idx int, v uint16) {
	p.bufs[ch][idx] = v
}

// complete terminates ch at idx with the sentinel and publishes it
func (p *BufferPool) complete(ch, idx int) {
	p.bufs[ch][idx] = Sentinel
	p.length[ch] = idx
	p.fills[ch]++
	p.ready[ch] = true
	if p.writing == ch {
		p.writing = -1
	}
}

// Ready reports whether ch holds a completed fill
func (p *BufferPool) Ready(ch int) bool {
	if ch < 0 || ch >= len(p.bufs) {
		return false
	}
	state := disableInterrupts()
	r := p.ready[ch]
	restoreInterrupts(state)
	return r
}

// BufferSizeBytes is the export size of a buffer filled to the most recent
// target length: two bytes per sample plus the sentinel.
func (p *BufferPool) BufferSizeBytes() int {
	state := disableInterrupts()
	n := p.target
	restoreInterrupts(state)
	return 2 * (n + 1)
}

// Export returns the little-endian bytes of ch up to and including the
// sentinel. The slice is reused by the next call. The copy does not hold off
// the writer: if a fill lands on ch meanwhile the data is still returned
// together with ErrBufferOverrun.
func (p *BufferPool) Export(ch int) ([]byte, error) {
	return p.export(ch, -1)
}

// ExportStream is Export restricted to a fill of the current streaming target length.
func (p *BufferPool) ExportStream(ch int) ([]byte, error) {
	return p.export(ch, p.targetSnapshot())
}

func (p *BufferPool) targetSnapshot() int {
	state := disableInterrupts()
	n := p.target
	restoreInterrupts(state)
	return n
}

func (p *BufferPool) export(ch, want int) ([]byte, error) {
	if ch < 0 || ch >= len(p.bufs) {
		return nil, ErrBadChannel
	}

	state := disableInterrupts()
	ready, n, gen, busy := p.ready[ch], p.length[ch], p.fills[ch], p.writing == ch
	restoreInterrupts(state)

	if busy {
		return nil, ErrBufferBusy
	}
	if !ready || (want >= 0 && n != want) {
		return nil, ErrBufferNotReady
	}

	out := p.scratch[:protocol.PutCodes(p.scratch, p.bufs[ch][:n+1])]

	state = disableInterrupts()
	torn := p.fills[ch] != gen || p.writing == ch
	restoreInterrupts(state)
	if torn {
		RecordTiming(EvtOverrun, uint8(ch), GetTime(), uint32(n), 0)
		return out, ErrBufferOverrun
	}
	return out, nil
}
