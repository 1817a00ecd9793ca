//go:build rp2040

package main

import (
	"machine"

	"pstat/core"
)

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// pwmPeriodNS gives a 4096-step counter at the 125 MHz system clock with
// enough carrier frequency for a single-pole RC filter
const pwmPeriodNS = 32768

// slicePeripheral returns the PWM slice driving a GPIO: slice (N>>1)&7
func slicePeripheral(pin machine.Pin) pwmPeripheral {
	switch (uint8(pin) >> 1) & 0x7 {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}

// pwmOut is a filtered PWM channel used as a DAC
type pwmOut struct {
	pwm     pwmPeripheral
	channel uint8
	max     uint32
}

func newPWMOut(pin machine.Pin, max uint32) (*pwmOut, error) {
	pwm := slicePeripheral(pin)
	if err := pwm.Configure(machine.PWMConfig{Period: pwmPeriodNS}); err != nil {
		return nil, err
	}
	ch, err := pwm.Channel(pin)
	if err != nil {
		return nil, err
	}
	return &pwmOut{pwm: pwm, channel: ch, max: max}, nil
}

func (o *pwmOut) set(v uint32) {
	if v > o.max {
		v = o.max
	}
	o.pwm.Set(o.channel, v*o.pwm.Top()/o.max)
}

// stimulusDAC drives the cell potential. Called from the tick handlers, so
// it only touches registers.
type stimulusDAC struct {
	out    *pwmOut
	enable machine.Pin
	code   uint16
}

func newStimulusDAC(cfg core.Config) (*stimulusDAC, error) {
	out, err := newPWMOut(stimulusPin, uint32(cfg.DACMax))
	if err != nil {
		return nil, err
	}
	stimEnablePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	stimEnablePin.Low()
	return &stimulusDAC{out: out, enable: stimEnablePin}, nil
}

func (d *stimulusDAC) SetCode(code uint16) {
	d.code = code
	d.out.set(uint32(code))
}

func (d *stimulusDAC) Sleep() { d.enable.Low() }
func (d *stimulusDAC) Wake()  { d.enable.High() }

// refSource is the calibration current source: a PWM level into a V-to-I
// stage with a sink/source switch
type refSource struct {
	out   *pwmOut
	sink  machine.Pin
	value uint8
	on    bool
}

func newRefSource() (*refSource, error) {
	out, err := newPWMOut(refValuePin, 255)
	if err != nil {
		return nil, err
	}
	refSinkPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	out.set(0)
	return &refSource{out: out, sink: refSinkPin}, nil
}

func (r *refSource) SetPolarity(p core.RefPolarity) { r.sink.Set(p == core.RefSink) }

func (r *refSource) SetValue(units uint8) {
	r.value = units
	if r.on {
		r.out.set(uint32(units))
	}
}

func (r *refSource) Start() {
	r.on = true
	r.out.set(uint32(r.value))
}

func (r *refSource) Stop() {
	r.on = false
	r.out.set(0)
}
