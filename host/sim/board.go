// Package sim runs the potentiostat firmware core on a PC against a
// simulated analog front end.
package sim

import (
	"errors"
	"math/rand"
	"time"

	"pstat/core"
	"pstat/host/config"
)

// ErrADCStopped is returned by a blocking read before the converter is started
var ErrADCStopped = errors.New("adc not started")

// Board is the simulated analog state shared by the driver views. All of it
// is touched only from the runner goroutine.
type Board struct {
	conv  *core.Converter
	model string
	cellR float64
	noise int
	rnd   *rand.Rand
	step  float64 // amperes per reference unit
	bits  int

	code    uint16
	asleep  bool
	running bool

	refPolarity core.RefPolarity
	refValue    uint8
	refOn       bool

	input      core.FrontEndInput
	resistor   int
	gain       int
	electrodes int
	shorted    bool
}

// NewBoard creates a board for the given profile
func NewBoard(cfg *config.Config) *Board {
	c := cfg.Core()
	b := &Board{
		conv:       core.NewConverter(c),
		model:      cfg.Cell.Model,
		cellR:      cfg.Cell.ResistanceOhms,
		noise:      cfg.Cell.NoiseCodes,
		rnd:        rand.New(rand.NewSource(cfg.Cell.Seed)),
		step:       c.RefStep,
		bits:       c.SampleBits,
		code:       c.ZeroCode,
		asleep:     true,
		electrodes: 3,
	}
	return b
}

// Stimulus returns the stimulus DAC view
func (b *Board) Stimulus() core.StimulusDriver { return (*stimulus)(b) }

// ADC returns the sample converter view
func (b *Board) ADC() core.SampleDriver { return (*adc)(b) }

// Reference returns the calibration current source view
func (b *Board) Reference() core.ReferenceSource { return (*reference)(b) }

// FrontEnd returns the front end switch view
func (b *Board) FrontEnd() core.FrontEnd { return (*frontEnd)(b) }

// Code returns the stimulus code last written
func (b *Board) Code() uint16 { return b.code }

// Asleep reports whether the stimulus output is powered down
func (b *Board) Asleep() bool { return b.asleep }

// tiaOhms is the transimpedance of the selected resistor and gain
func (b *Board) tiaOhms() float64 {
	return float64(core.ResistorTable[b.resistor]) * 1000 * float64(int(1)<<b.gain)
}

// cellAmps is the current into the TIA input
func (b *Board) cellAmps() float64 {
	if b.input == core.InputCalibration {
		if !b.refOn {
			return 0
		}
		i := float64(b.refValue) * b.step
		if b.refPolarity == core.RefSink {
			i = -i
		}
		return i
	}
	if b.asleep || b.model != config.CellResistor {
		return 0
	}
	return b.conv.StimulusVolts(b.code) / b.cellR
}

// volts is the voltage presented to the converter
func (b *Board) volts() float64 {
	if b.shorted {
		return 0
	}
	if b.input == core.InputWorkingElectrode && b.model == config.CellLoopback {
		if b.asleep {
			return 0
		}
		return b.conv.StimulusVolts(b.code)
	}
	return -b.cellAmps() * b.tiaOhms()
}

func (b *Board) sample() int16 {
	code := int32(core.TwosComplement16(b.conv.VoltsToSample(b.volts())))
	if b.noise > 0 {
		code += int32(b.rnd.Intn(2*b.noise+1) - b.noise)
	}
	return core.TwosComplement16(core.ClampSample(code, b.bits))
}

type stimulus Board

func (s *stimulus) SetCode(code uint16) { s.code = code }
func (s *stimulus) Sleep() { s.asleep = true }
func (s *stimulus) Wake() { s.asleep = false }

type adc Board

func (a *adc) Start() { a.running = true }
func (a *adc) Stop() { a.running = false }

func (a *adc) Result16() int16 { return (*Board)(a).sample() }
func (a *adc) Result32() int32 { return int32((*Board)(a).sample()) }

func (a *adc) SelectConfig(sel uint8) error {
	return a.conv.SetRange(sel)
}

// WaitResult converts immediately; the timeout only matters on hardware
func (a *adc) WaitResult(time.Duration) (int16, error) {
	if !a.running {
		return 0, ErrADCStopped
	}
	return (*Board)(a).sample(), nil
}

type reference Board

func (r *reference) SetPolarity(p core.RefPolarity) { r.refPolarity = p }
func (r *reference) SetValue(v uint8) { r.refValue = v }
func (r *reference) Start() { r.refOn = true }
func (r *reference) Stop() { r.refOn = false }

type frontEnd Board

func (f *frontEnd) SelectInput(in core.FrontEndInput) { f.input = in }
func (f *frontEnd) SetResistor(idx int) { f.resistor = idx }
func (f *frontEnd) SetBufferGain(idx int) { f.gain = idx }
func (f *frontEnd) ShortTIA(on bool) { f.shorted = on }

func (f *frontEnd) SetElectrodes(n int) error {
	if n != 2 && n != 3 {
		return errors.New("electrode count must be 2 or 3")
	}
	f.electrodes = n
	return nil
}
