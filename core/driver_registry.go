package core

// Global driver singletons. Target code registers what the board has at
// power-on, then builds the Instrument from RegisteredDrivers().
var (
	stimulusDriver  StimulusDriver
	sampleDriver    SampleDriver
	tickSource      TickSource
	hostLink        Link
	referenceSource ReferenceSource
	frontEnd        FrontEnd
	storeDriver     Store
	displayDriver   Display
)

// SetStimulusDriver registers the stimulus DAC
func SetStimulusDriver(d StimulusDriver) { stimulusDriver = d }

// SetSampleDriver registers the sample ADC
func SetSampleDriver(d SampleDriver) { sampleDriver = d }

// SetTickSource registers the period/compare timer
func SetTickSource(t TickSource) { tickSource = t }

// SetLink registers the host link
func SetLink(l Link) { hostLink = l }

// SetReferenceSource registers the calibration current source
func SetReferenceSource(r ReferenceSource) { referenceSource = r }

// SetFrontEnd registers the analog front end switches
func SetFrontEnd(f FrontEnd) { frontEnd = f }

// SetStore registers the non-volatile byte store. Optional.
func SetStore(s Store) { storeDriver = s }

// SetDisplay registers the status display. Optional.
func SetDisplay(d Display) { displayDriver = d }

// RegisteredDrivers gathers the registered drivers. Missing mandatory
// drivers are reported by NewInstrument.
func RegisteredDrivers() Drivers {
	return Drivers{
		Stimulus:  stimulusDriver,
		Sample:    sampleDriver,
		Ticks:     tickSource,
		Link:      hostLink,
		Reference: referenceSource,
		FrontEnd:  frontEnd,
		Store:     storeDriver,
		Display:   displayDriver,
	}
}

// ResetDrivers clears every registration
func ResetDrivers() {
	stimulusDriver = nil
	sampleDriver = nil
	tickSource = nil
	hostLink = nil
	referenceSource = nil
	frontEnd = nil
	storeDriver = nil
	displayDriver = nil
}
