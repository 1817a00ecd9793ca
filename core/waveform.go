package core

import "errors"

// SweepType selects how the sweep segment is laid out in the table
type SweepType byte

const (
	SweepLinear SweepType = 'L'
	SweepCyclic SweepType = 'C'
)

// StartPolarity selects where the stimulus starts from
type StartPolarity byte

const (
	StartAtZero           StartPolarity = 'Z' // ramp in from the zero-stimulus code
	StartAtRequestedValue StartPolarity = 'S'
)

var (
	ErrTableTooLarge = errors.New("table too large")
	ErrEmptyTable    = errors.New("empty table")
	ErrBadSweepType  = errors.New("invalid sweep type")
	ErrBadPolarity   = errors.New("invalid start polarity")
	ErrBadIncrement  = errors.New("invalid step increment")
)

// Waveform is a stimulus look-up table. Each entry is driven out on one tick.
type Waveform struct {
	codes  []uint16
	length int
	lead   int // entries of lead-in ramp before the sweep
}

// NewWaveform allocates a table with the given capacity
func NewWaveform(capacity int) *Waveform {
	return &Waveform{codes: make([]uint16, capacity)}
}

// Len returns the number of valid entries
func (w *Waveform) Len() int { return w.length }

// Cap returns the table capacity
func (w *Waveform) Cap() int { return len(w.codes) }

// Lead returns the number of lead-in ramp entries
func (w *Waveform) Lead() int { return w.lead }

// SweepLen returns the number of entries after the lead-in ramp
func (w *Waveform) SweepLen() int { return w.length - w.lead }

// At returns entry i. The caller guarantees i < Len().
func (w *Waveform) At(i int) uint16 { return w.codes[i] }

// Codes returns the valid entries. The slice aliases the table.
func (w *Waveform) Codes() []uint16 { return w.codes[:w.length] }

// SweepParams describes a linear or cyclic voltammetry sweep
type SweepParams struct {
	Start    uint16
	End      uint16
	Sweep    SweepType
	Polarity StartPolarity
}

// SquareWaveParams describes a square-wave staircase
type SquareWaveParams struct {
	Start    uint16
	End      uint16
	Inc      uint16 // staircase step in codes
	Pulse    uint16 // pulse height in codes, applied above and below each step
	Sweep    SweepType
	Polarity StartPolarity
}

// Segment is one constant-stimulus step of a chronoamperometry table
type Segment struct {
	Code  uint16
	Ticks int
}

// Generator builds waveform tables for a given device
type Generator struct {
	cfg Config
}

// NewGenerator creates a table generator
func NewGenerator(cfg Config) *Generator {
	cfg.applyDefaults()
	return &Generator{cfg: cfg}
}

func absDiff(a, b uint16) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// fillRamp writes the half-open ramp [from, to) and returns the entry count
func fillRamp(dst []uint16, from, to uint16) int {
	n := 0
	if from <= to {
		for v := from; v < to; v++ {
			dst[n] = v
			n++
		}
		return n
	}
	for v := from; v > to; v-- {
		dst[n] = v
		n++
	}
	return n
}

// mirror appends the reverse of run after it and returns the new length
func mirror(dst []uint16, start, n int) int {
	for i := 0; i < n; i++ {
		dst[start+n+i] = dst[start+n-1-i]
	}
	return start + 2*n
}

func (g *Generator) checkShape(sweep SweepType, pol StartPolarity, codes ...uint16) error {
	if sweep != SweepLinear && sweep != SweepCyclic {
		return ErrBadSweepType
	}
	if pol != StartAtZero && pol != StartAtRequestedValue {
		return ErrBadPolarity
	}
	for _, c := range codes {
		if c > g.cfg.DACMax {
			return ErrCodeOutOfRange
		}
	}
	return nil
}

func (g *Generator) leadLen(pol StartPolarity, start uint16) int {
	if pol == StartAtZero {
		return absDiff(g.cfg.ZeroCode, start)
	}
	return 0
}

// Sweep fills dst with a linear or cyclic sweep. On error dst is unchanged.
func (g *Generator) Sweep(dst *Waveform, p SweepParams) error {
	if err := g.checkShape(p.Sweep, p.Polarity, p.Start, p.End); err != nil {
		return err
	}
	steps := absDiff(p.Start, p.End)
	lead := g.leadLen(p.Polarity, p.Start)
	total := lead + steps
	if p.Sweep == SweepCyclic {
		total += steps
	}
	if total > dst.Cap() {
		return ErrTableTooLarge
	}
	if total == 0 {
		return ErrEmptyTable
	}

	n := 0
	if lead > 0 {
		n = fillRamp(dst.codes, g.cfg.ZeroCode, p.Start)
	}
	n += fillRamp(dst.codes[n:], p.Start, p.End)
	if p.Sweep == SweepCyclic {
		n = mirror(dst.codes, lead, steps)
	}
	dst.length = n
	dst.lead = lead
	return nil
}

func (g *Generator) clampCode(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > int(g.cfg.DACMax) {
		return g.cfg.DACMax
	}
	return uint16(v)
}

// SquareWave fills dst with a square-wave staircase: each step emits the
// forward pulse then the reverse pulse. On error dst is unchanged.
func (g *Generator) SquareWave(dst *Waveform, p SquareWaveParams) error {
	if err := g.checkShape(p.Sweep, p.Polarity, p.Start, p.End); err != nil {
		return err
	}
	if p.Inc == 0 {
		return ErrBadIncrement
	}
	span := absDiff(p.Start, p.End)
	steps := (span + int(p.Inc) - 1) / int(p.Inc)
	lead := g.leadLen(p.Polarity, p.Start)
	run := 2 * steps
	total := lead + run
	if p.Sweep == SweepCyclic {
		total += run
	}
	if total > dst.Cap() {
		return ErrTableTooLarge
	}
	if total == 0 {
		return ErrEmptyTable
	}

	n := 0
	if lead > 0 {
		n = fillRamp(dst.codes, g.cfg.ZeroCode, p.Start)
	}
	dir := 1
	if p.End < p.Start {
		dir = -1
	}
	for k := 0; k < steps; k++ {
		v := int(p.Start) + dir*k*int(p.Inc)
		dst.codes[n] = g.clampCode(v + int(p.Pulse))
		dst.codes[n+1] = g.clampCode(v - int(p.Pulse))
		n += 2
	}
	if p.Sweep == SweepCyclic {
		n = mirror(dst.codes, lead, run)
	}
	dst.length = n
	dst.lead = lead
	return nil
}

// Chrono fills dst with constant-value segments in order. On error dst is unchanged.
func (g *Generator) Chrono(dst *Waveform, segs []Segment) error {
	if len(segs) == 0 {
		return ErrEmptyTable
	}
	total := 0
	for _, s := range segs {
		if s.Code > g.cfg.DACMax {
			return ErrCodeOutOfRange
		}
		if s.Ticks <= 0 {
			return ErrEmptyTable
		}
		total += s.Ticks
		if total > dst.Cap() {
			return ErrTableTooLarge
		}
	}

	n := 0
	for _, s := range segs {
		for i := 0; i < s.Ticks; i++ {
			dst.codes[n] = s.Code
			n++
		}
	}
	dst.length = n
	dst.lead = 0
	return nil
}
