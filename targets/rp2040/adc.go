//go:build rp2040

package main

import (
	"errors"
	"machine"
	"time"

	"pstat/core"
)

var errADCStopped = errors.New("adc not started")

// sampleADC reads the TIA output on ADC0. The output is biased to mid-rail,
// so the 12-bit unipolar result is recentred into two's complement.
type sampleADC struct {
	adc     machine.ADC
	half    machine.Pin
	running bool
}

func newSampleADC() *sampleADC {
	machine.InitADC()
	a := &sampleADC{adc: machine.ADC{Pin: samplePin}, half: rangeHalfPin}
	a.adc.Configure(machine.ADCConfig{Resolution: 12})
	a.half.Configure(machine.PinConfig{Mode: machine.PinOutput})
	a.half.Low()
	return a
}

func (a *sampleADC) Start() { a.running = true }
func (a *sampleADC) Stop()  { a.running = false }

// Result16 converts once. TinyGo scales results to 16 bits.
func (a *sampleADC) Result16() int16 {
	return int16(a.adc.Get()>>4) - 2048
}

func (a *sampleADC) Result32() int32 {
	return int32(a.Result16())
}

func (a *sampleADC) SelectConfig(cfg uint8) error {
	switch cfg {
	case core.ADCRangeFull:
		a.half.Low()
	case core.ADCRangeHalf:
		a.half.High()
	default:
		return core.ErrInvalidRange
	}
	return nil
}

// WaitResult blocks for one conversion. A conversion takes 2 us, so the
// timeout only guards against a stopped converter.
func (a *sampleADC) WaitResult(timeout time.Duration) (int16, error) {
	if !a.running {
		return 0, errADCStopped
	}
	return a.Result16(), nil
}
