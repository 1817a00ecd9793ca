package core

import (
	"bytes"
	"errors"
	"time"
)

type fakeStim struct {
	code   uint16
	writes []uint16
	asleep bool
	wakes  int
}

func (f *fakeStim) SetCode(code uint16) {
	f.code = code
	f.writes = append(f.writes, code)
}
func (f *fakeStim) Sleep() { f.asleep = true }
func (f *fakeStim) Wake() { f.asleep = false; f.wakes++ }

// fakeADC returns next() when set, otherwise a fixed value
type fakeADC struct {
	value   int16
	next    func() int16
	running bool
	config  uint8
	waitErr error

	rejectConfig bool
}

func (f *fakeADC) read() int16 {
	if f.next != nil {
		return f.next()
	}
	return f.value
}
func (f *fakeADC) Start() { f.running = true }
func (f *fakeADC) Stop() { f.running = false }
func (f *fakeADC) Result16() int16 { return f.read() }
func (f *fakeADC) Result32() int32 { return int32(f.read()) }
func (f *fakeADC) SelectConfig(cfg uint8) error {
	if f.rejectConfig || (cfg != ADCRangeFull && cfg != ADCRangeHalf) {
		return ErrInvalidRange
	}
	f.config = cfg
	return nil
}
func (f *fakeADC) WaitResult(time.Duration) (int16, error) {
	if f.waitErr != nil {
		return 0, f.waitErr
	}
	return f.read(), nil
}

// manualTicks fires handlers only when tick is called
type manualTicks struct {
	period, compare uint16
	handlers        [2]func()
	enabled         [2]bool
}

func (m *manualTicks) WritePeriod(c uint16) { m.period = c }
func (m *manualTicks) WriteCompare(c uint16) { m.compare = c }
func (m *manualTicks) Attach(src IRQSource, h func()) { m.handlers[src] = h }
func (m *manualTicks) Enable(src IRQSource) { m.enabled[src] = true }
func (m *manualTicks) Disable(src IRQSource) { m.enabled[src] = false }
func (m *manualTicks) anyEnabled() bool { return m.enabled[0] || m.enabled[1] }

// tick runs one period: stimulus first, then sample at the compare offset
func (m *manualTicks) tick() {
	if m.enabled[IRQStimulus] {
		m.handlers[IRQStimulus]()
	}
	if m.enabled[IRQSample] {
		m.handlers[IRQSample]()
	}
}

func (m *manualTicks) run(n int) {
	for i := 0; i < n; i++ {
		m.tick()
	}
}

type fakeRef struct {
	polarity RefPolarity
	value    uint8
	on       bool
	history  []int
}

func (f *fakeRef) SetPolarity(p RefPolarity) { f.polarity = p }
func (f *fakeRef) SetValue(v uint8) {
	f.value = v
	if f.polarity == RefSink {
		f.history = append(f.history, -int(v))
	} else {
		f.history = append(f.history, int(v))
	}
}
func (f *fakeRef) Start() { f.on = true }
func (f *fakeRef) Stop() { f.on = false }

// signed returns the current reference as a signed value
func (f *fakeRef) signed() int16 {
	if f.polarity == RefSink {
		return -int16(f.value)
	}
	return int16(f.value)
}

type fakeFrontEnd struct {
	input      FrontEndInput
	resistor   int
	gain       int
	electrodes int
	shorted    bool
}

func (f *fakeFrontEnd) SelectInput(in FrontEndInput) { f.input = in }
func (f *fakeFrontEnd) SetResistor(idx int) { f.resistor = idx }
func (f *fakeFrontEnd) SetBufferGain(idx int) { f.gain = idx }
func (f *fakeFrontEnd) SetElectrodes(n int) error {
	if n != 2 && n != 3 {
		return errors.New("bad electrode count")
	}
	f.electrodes = n
	return nil
}
func (f *fakeFrontEnd) ShortTIA(on bool) { f.shorted = on }

type memStore map[uint16]uint8

func (m memStore) LoadByte(addr uint16) (uint8, error) { return m[addr], nil }
func (m memStore) StoreByte(addr uint16, v uint8) error { m[addr] = v; return nil }

type fakeLink struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (l *fakeLink) Available() int { return l.in.Len() }
func (l *fakeLink) Read(p []byte) (int, error) { return l.in.Read(p) }
func (l *fakeLink) Write(p []byte) (int, error) { return l.out.Write(p) }

// takeOutput returns and clears everything written to the host
func (l *fakeLink) takeOutput() []byte {
	b := append([]byte(nil), l.out.Bytes()...)
	l.out.Reset()
	return b
}

type rig struct {
	stim  *fakeStim
	adc   *fakeADC
	ticks *manualTicks
	ref   *fakeRef
	fe    *fakeFrontEnd
	store memStore
	link  *fakeLink
}

func newRig() *rig {
	return &rig{
		stim:  &fakeStim{},
		adc:   &fakeADC{},
		ticks: &manualTicks{},
		ref:   &fakeRef{},
		fe:    &fakeFrontEnd{},
		store: memStore{},
		link:  &fakeLink{},
	}
}

func (r *rig) drivers() Drivers {
	return Drivers{
		Stimulus:  r.stim,
		Sample:    r.adc,
		Ticks:     r.ticks,
		Link:      r.link,
		Reference: r.ref,
		FrontEnd:  r.fe,
		Store:     r.store,
	}
}
