package core

import (
	"errors"
	"time"

	"pstat/protocol"
)

// Tick timing errors
var (
	ErrCompareRange = errors.New("compare must be between 0 and period")
	ErrBadPeriod    = errors.New("period too short")
)

// EEPROM layout
const (
	voltageSourceAddr = 0x0000
	calibrationAddr   = 0x0010
)

// Voltage source selections, as persisted
const (
	SourceNotSet = 0
	SourceVDAC   = 1 // 8-bit DAC, no external capacitor
	SourceDVDAC  = 2 // dithered DAC, external capacitor fitted
)

// Instrument owns the acquisition engine and runs the main-loop side of it.
// Everything it holds is created once at power-on.
type Instrument struct {
	cfg  Config
	drv  Drivers
	gen  *Generator
	conv *Converter
	cal  *Calibrator
	pipe *Pipeline
	pool *BufferPool
	cmds *CommandTable

	table *Waveform
	notes notifier

	rx      *protocol.FifoBuffer
	lines   *protocol.LineReader
	out     *protocol.ScratchOutput
	readBuf [64]byte
	lutOut  []byte

	period  uint16
	compare uint16
	source  uint8
	errors  uint32

	saved    CalibrationRecord // last persisted fit, reapplied when its gain is selected
	hasSaved bool
}

// NewInstrument wires the engine to its drivers and registers the full command set
func NewInstrument(cfg Config, drv Drivers) (*Instrument, error) {
	cfg.applyDefaults()
	if err := drv.validate(); err != nil {
		return nil, err
	}

	in := &Instrument{
		cfg:     cfg,
		drv:     drv,
		gen:     NewGenerator(cfg),
		conv:    NewConverter(cfg),
		cal:     NewCalibrator(cfg, drv.Reference, drv.Sample, drv.FrontEnd),
		pool:    NewBufferPool(cfg.Channels, cfg.MaxLUTSize),
		cmds:    NewCommandTable(),
		table:   NewWaveform(cfg.MaxLUTSize),
		rx:      protocol.NewFifoBuffer(protocol.RxBufSize),
		out:     protocol.NewScratchOutput(),
		lutOut:  make([]byte, 2*cfg.MaxLUTSize),
		period:  cfg.Period,
		compare: cfg.Compare,
	}
	in.lines = protocol.NewLineReader(in.rx)
	in.pipe = NewPipeline(cfg, in.pool, drv.Stimulus, drv.Sample, drv.Ticks, &in.notes)
	in.registerCommands()

	drv.Ticks.WritePeriod(in.period)
	drv.Ticks.WriteCompare(in.compare)
	drv.FrontEnd.SelectInput(InputWorkingElectrode)
	drv.FrontEnd.SetResistor(0)
	drv.FrontEnd.SetBufferGain(0)
	drv.Stimulus.SetCode(cfg.ZeroCode)
	drv.Stimulus.Sleep()
	in.source = in.loadVoltageSource()
	in.saved, in.hasSaved = in.loadCalibration()
	in.applySavedCalibration()

	return in, nil
}

// Config returns the instrument configuration
func (in *Instrument) Config() Config { return in.cfg }

// Commands returns the command table, so variants can trim or extend it
func (in *Instrument) Commands() *CommandTable { return in.cmds }

// Pipeline returns the acquisition pipeline
func (in *Instrument) Pipeline() *Pipeline { return in.pipe }

// Buffers returns the export buffer pool
func (in *Instrument) Buffers() *BufferPool { return in.pool }

// Table returns the last built waveform table
func (in *Instrument) Table() *Waveform { return in.table }

// Converter returns the unit converter for the current gain setting
func (in *Instrument) Converter() *Converter { return in.conv }

// SetSleep replaces the blocking delay used by calibration
func (in *Instrument) SetSleep(fn func(time.Duration)) { in.cal.SetSleep(fn) }

// Errors returns the number of transport errors seen
func (in *Instrument) Errors() uint32 { return in.errors }

// Poll runs one main-loop pass: take input, run complete commands, fire due
// tick timers, and report completed buffers.
func (in *Instrument) Poll() {
	in.receive()
	for {
		line, err := in.lines.Next()
		if err != nil {
			in.replyError(err)
			continue
		}
		if line == nil {
			break
		}
		in.Execute(line)
	}
	ProcessTimers()
	in.FlushNotifications()
}

func (in *Instrument) receive() {
	for in.drv.Link.Available() > 0 && in.rx.Free() > 0 {
		n := in.rx.Free()
		if n > len(in.readBuf) {
			n = len(in.readBuf)
		}
		n, err := in.drv.Link.Read(in.readBuf[:n])
		if err != nil {
			in.errors++
			return
		}
		if n == 0 {
			return
		}
		in.rx.Write(in.readBuf[:n])
	}
}

// Execute runs a single framed command. Errors are reported to the host.
func (in *Instrument) Execute(line []byte) {
	if in.drv.Display != nil {
		in.drv.Display.Show(string(line))
	}
	if err := in.cmds.Dispatch(line); err != nil {
		DebugPrintln("[CMD] " + string(line[:1]) + ": " + err.Error())
		in.replyError(err)
	}
}

// FlushNotifications sends the Done messages queued by the tick handlers
func (in *Instrument) FlushNotifications() {
	for {
		ch, ok := in.notes.take()
		if !ok {
			return
		}
		in.out.Reset()
		in.out.Output(appendNote(nil, ch))
		in.write(in.out.Result())
	}
}

func (in *Instrument) write(b []byte) {
	for len(b) > 0 {
		n, err := in.drv.Link.Write(b)
		if err != nil || n == 0 {
			in.errors++
			return
		}
		b = b[n:]
	}
}

func (in *Instrument) replyText(s string) {
	in.out.Reset()
	in.out.OutputString(s)
	in.out.Line()
	in.write(in.out.Result())
}

func (in *Instrument) replyNumber(n int) {
	in.replyText(itoa(n))
}

func (in *Instrument) replyError(err error) {
	in.replyText("Error: " + err.Error())
}

func (in *Instrument) setPeriod(period uint16) error {
	if period < 2 {
		return ErrBadPeriod
	}
	in.period = period
	if in.compare == 0 || in.compare >= period {
		in.compare = period / 2
		in.drv.Ticks.WriteCompare(in.compare)
	}
	in.drv.Ticks.WritePeriod(period)
	return nil
}

func (in *Instrument) setCompare(compare uint16) error {
	if compare == 0 || compare >= in.period {
		return ErrCompareRange
	}
	in.compare = compare
	in.drv.Ticks.WriteCompare(compare)
	return nil
}

func (in *Instrument) loadVoltageSource() uint8 {
	if in.drv.Store == nil {
		return SourceNotSet
	}
	v, err := in.drv.Store.LoadByte(voltageSourceAddr)
	if err != nil || v > SourceDVDAC {
		return SourceNotSet
	}
	return v
}

func (in *Instrument) saveVoltageSource(v uint8) error {
	in.source = v
	if in.drv.Store == nil {
		return nil
	}
	return in.drv.Store.StoreByte(voltageSourceAddr, v)
}

func (in *Instrument) loadCalibration() (CalibrationRecord, bool) {
	if in.drv.Store == nil {
		return CalibrationRecord{}, false
	}
	var b [calFitLen]byte
	for i := range b {
		v, err := in.drv.Store.LoadByte(calibrationAddr + uint16(i))
		if err != nil {
			return CalibrationRecord{}, false
		}
		b[i] = v
	}
	return unmarshalFit(b[:])
}

// saveCalibration persists the fit of rec. Only the most recent one is kept.
func (in *Instrument) saveCalibration(rec CalibrationRecord) error {
	in.saved, in.hasSaved = rec, true
	if in.drv.Store == nil {
		return nil
	}
	for i, v := range rec.marshalFit() {
		if err := in.drv.Store.StoreByte(calibrationAddr+uint16(i), v); err != nil {
			return err
		}
	}
	return nil
}

func (in *Instrument) applySavedCalibration() {
	if in.hasSaved {
		in.conv.SetCalibration(in.saved)
	}
}
