package core

import "errors"

// ErrPipelineBusy is returned by operations that require an idle pipeline
var ErrPipelineBusy = errors.New("acquisition running")

// Mode is the kind of run the pipeline is armed for
type Mode uint8

const (
	ModeSweep  Mode = iota // stimulus walks a waveform table, samples land in buffer 0
	ModeStream             // fixed stimulus, samples rotate over all buffers
)

// AcquisitionState is the state shared between the tick handlers and the main loop
type AcquisitionState struct {
	Index        int
	Channel      int
	Armed        bool
	TargetLength int
	Mode         Mode
}

// Pipeline is the tick-driven stimulus/sample handler pair.
//
// While armed the handlers own st exclusively. The main loop changes it only
// through Arm*/Reset, which run with interrupts disabled.
type Pipeline struct {
	st    AcquisitionState
	table *Waveform
	pool  *BufferPool
	stim  StimulusDriver
	adc   SampleDriver
	ticks TickSource
	notes *notifier
	bits  int
}

// NewPipeline wires the handler pair to the tick source
func NewPipeline(cfg Config, pool *BufferPool, stim StimulusDriver, adc SampleDriver, ticks TickSource, notes *notifier) *Pipeline {
	cfg.applyDefaults()
	p := &Pipeline{
		pool:  pool,
		stim:  stim,
		adc:   adc,
		ticks: ticks,
		notes: notes,
		bits:  cfg.SampleBits,
	}
	ticks.Attach(IRQStimulus, p.stimulusTick)
	ticks.Attach(IRQSample, p.sampleTick)
	return p
}

// State returns a snapshot of the acquisition state
func (p *Pipeline) State() AcquisitionState {
	state := disableInterrupts()
	st := p.st
	restoreInterrupts(state)
	return st
}

// Running reports whether the handlers are armed
func (p *Pipeline) Running() bool {
	return p.State().Armed
}

// CurrentStreamingChannel returns the buffer the sample handler writes next
func (p *Pipeline) CurrentStreamingChannel() int {
	return p.State().Channel
}

// disarm stops both sources and rewinds. Must run inside a critical section.
func (p *Pipeline) disarm() {
	p.ticks.Disable(IRQStimulus)
	p.ticks.Disable(IRQSample)
	p.st.Armed = false
	p.st.Index = 0
	p.pool.idle()
}

// ArmSweep starts a table-driven run. A run in progress is aborted first.
func (p *Pipeline) ArmSweep(table *Waveform) error {
	if table == nil || table.Len() == 0 {
		return ErrEmptyTable
	}
	if table.Len() > p.pool.Capacity() {
		return ErrTableTooLarge
	}

	state := disableInterrupts()
	p.disarm()
	p.table = table
	p.st = AcquisitionState{Mode: ModeSweep, TargetLength: table.Len()}
	p.pool.setTarget(table.Len())
	p.pool.begin(0)

	p.stim.Wake()
	p.stim.SetCode(table.At(0))
	p.adc.Start()
	p.pool.store(0, 0, ClampSample(int32(p.adc.Result16()), p.bits))

	p.st.Armed = true
	p.ticks.Enable(IRQStimulus)
	p.ticks.Enable(IRQSample)
	restoreInterrupts(state)

	RecordTiming(EvtArm, uint8(ModeSweep), GetTime(), uint32(table.Len()), 0)
	return nil
}

// ArmStream starts continuous acquisition at a fixed stimulus code, filling
// points samples per buffer. A run in progress is aborted first.
func (p *Pipeline) ArmStream(code uint16, points int) error {
	if points <= 0 || points > p.pool.Capacity() {
		return ErrBadLength
	}

	state := disableInterrupts()
	p.disarm()
	p.table = nil
	p.st = AcquisitionState{Mode: ModeStream, TargetLength: points}
	p.pool.setTarget(points)
	p.pool.begin(0)

	p.stim.Wake()
	p.stim.SetCode(code)
	p.adc.Start()

	p.st.Armed = true
	p.ticks.Enable(IRQSample)
	restoreInterrupts(state)

	RecordTiming(EvtArm, uint8(ModeStream), GetTime(), uint32(points), 0)
	return nil
}

// Reset aborts any run and puts the stimulus to sleep. Safe to call when idle.
func (p *Pipeline) Reset() {
	state := disableInterrupts()
	wasArmed := p.st.Armed
	p.disarm()
	p.stim.Sleep()
	restoreInterrupts(state)

	if wasArmed {
		RecordTiming(EvtReset, 0, GetTime(), 0, 0)
	}
}

// stimulusTick runs at the start of each tick in sweep mode. It is the only
// writer of Index in that mode.
func (p *Pipeline) stimulusTick() {
	if !p.st.Armed || p.st.Mode != ModeSweep {
		return
	}
	p.stim.SetCode(p.table.At(p.st.Index))
	p.st.Index++
	if p.st.Index < p.st.TargetLength {
		return
	}

	p.ticks.Disable(IRQStimulus)
	p.ticks.Disable(IRQSample)
	p.pool.complete(0, p.st.Index)
	p.stim.Sleep()
	RecordTiming(EvtDone, 0, GetTime(), uint32(p.st.Index), 0)
	p.st.Index = 0
	p.st.Armed = false
	p.notes.post(noteSweepDone)
}

// sampleTick runs at the compare offset of each tick
func (p *Pipeline) sampleTick() {
	if !p.st.Armed {
		return
	}
	v := ClampSample(int32(p.adc.Result16()), p.bits)
	ch := p.st.Channel

	if p.st.Mode == ModeSweep {
		p.pool.store(ch, p.st.Index, v)
		return
	}

	p.pool.store(ch, p.st.Index, v)
	p.st.Index++
	if p.st.Index < p.st.TargetLength {
		return
	}
	p.pool.complete(ch, p.st.Index)
	RecordTiming(EvtDone, uint8(ch), GetTime(), uint32(p.st.Index), 0)
	p.st.Index = 0
	p.st.Channel = (ch + 1) % p.pool.Channels()
	p.pool.begin(p.st.Channel)
	p.notes.post(int8(ch))
}
