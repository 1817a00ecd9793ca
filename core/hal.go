package core

import (
	"errors"
	"time"
)

// StimulusDriver is the analog stimulus output (DAC or PWM DAC).
type StimulusDriver interface {
	// SetCode drives a stimulus code. Called from interrupt context.
	SetCode(code uint16)

	// Sleep puts the output stage into low-power mode.
	Sleep()

	// Wake restores the output stage from low-power mode.
	Wake()
}

// SampleDriver is the analog-to-digital converter on the TIA output.
type SampleDriver interface {
	// Start begins continuous conversion.
	Start()

	// Stop halts conversion.
	Stop()

	// Result16 returns the latest result without waiting. Called from interrupt context.
	Result16() int16

	// Result32 returns the latest result of a 32-bit configuration.
	Result32() int32

	// SelectConfig selects the gain/range configuration (ADCRangeFull, ADCRangeHalf).
	SelectConfig(cfg uint8) error

	// WaitResult blocks until a fresh conversion is available or the timeout expires.
	WaitResult(timeout time.Duration) (int16, error)
}

// IRQSource identifies one of the two tick interrupt sources.
type IRQSource uint8

const (
	IRQStimulus IRQSource = iota // fires at the start of a tick (period)
	IRQSample                    // fires at the compare offset within a tick
)

// TickSource is the period/compare timer that paces the acquisition pipeline.
type TickSource interface {
	WritePeriod(counts uint16)
	WriteCompare(counts uint16)
	Attach(src IRQSource, handler func())
	Enable(src IRQSource)
	Disable(src IRQSource)
}

// Link is the byte transport to the host.
type Link interface {
	Available() int
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// RefPolarity selects whether the reference source sinks or sources current.
type RefPolarity uint8

const (
	RefSink RefPolarity = iota
	RefSource
)

// ReferenceSource is the calibration current source.
type ReferenceSource interface {
	SetPolarity(p RefPolarity)
	SetValue(units uint8)
	Start()
	Stop()
}

// FrontEndInput selects what the TIA is connected to.
type FrontEndInput uint8

const (
	InputWorkingElectrode FrontEndInput = iota
	InputCalibration
)

// FrontEnd controls analog routing and the TIA gain stage.
type FrontEnd interface {
	SelectInput(in FrontEndInput)
	SetResistor(idx int)
	SetBufferGain(idx int)
	SetElectrodes(n int) error
	ShortTIA(on bool)
}

// Store is a small non-volatile byte store.
type Store interface {
	LoadByte(addr uint16) (uint8, error)
	StoreByte(addr uint16, v uint8) error
}

// Display shows a short status line.
type Display interface {
	Show(line string)
}

// Drivers bundles the collaborators an Instrument needs. Store and Display
// are optional.
type Drivers struct {
	Stimulus  StimulusDriver
	Sample    SampleDriver
	Ticks     TickSource
	Link      Link
	Reference ReferenceSource
	FrontEnd  FrontEnd
	Store     Store
	Display   Display
}

func (d *Drivers) validate() error {
	switch {
	case d.Stimulus == nil:
		return errors.New("stimulus driver not configured")
	case d.Sample == nil:
		return errors.New("sample driver not configured")
	case d.Ticks == nil:
		return errors.New("tick source not configured")
	case d.Link == nil:
		return errors.New("link not configured")
	case d.Reference == nil:
		return errors.New("reference source not configured")
	case d.FrontEnd == nil:
		return errors.New("front end not configured")
	}
	return nil
}
