//go:build rp2040

package main

import (
	"errors"
	"machine"

	"pstat/core"
)

// analogFrontEnd drives the analog switches around the TIA
type analogFrontEnd struct {
	resistor [3]machine.Pin
	gain     [2]machine.Pin
}

func newAnalogFrontEnd() *analogFrontEnd {
	f := &analogFrontEnd{}
	for i := range f.resistor {
		f.resistor[i] = resistorPin0 + machine.Pin(i)
	}
	for i := range f.gain {
		f.gain[i] = gainPin0 + machine.Pin(i)
	}
	out := machine.PinConfig{Mode: machine.PinOutput}
	for _, p := range []machine.Pin{calSelectPin, shortPin, twoElectrode} {
		p.Configure(out)
		p.Low()
	}
	for _, p := range f.resistor {
		p.Configure(out)
	}
	for _, p := range f.gain {
		p.Configure(out)
	}
	return f
}

func (f *analogFrontEnd) SelectInput(in core.FrontEndInput) {
	calSelectPin.Set(in == core.InputCalibration)
}

func (f *analogFrontEnd) SetResistor(idx int) {
	for i, p := range f.resistor {
		p.Set(idx&(1<<i) != 0)
	}
}

func (f *analogFrontEnd) SetBufferGain(idx int) {
	for i, p := range f.gain {
		p.Set(idx&(1<<i) != 0)
	}
}

func (f *analogFrontEnd) SetElectrodes(n int) error {
	switch n {
	case 2:
		twoElectrode.High()
	case 3:
		twoElectrode.Low()
	default:
		return errors.New("electrode count must be 2 or 3")
	}
	return nil
}

func (f *analogFrontEnd) ShortTIA(on bool) { shortPin.Set(on) }
