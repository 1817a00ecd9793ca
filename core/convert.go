package core

import (
	"errors"
	"math"

	"periph.io/x/conn/v3/physic"
)

// Sentinel terminates every exported sample buffer. As a signed sample it is
// -16384, below the saturated range of any sample path up to MaxSampleBits.
const Sentinel uint16 = 0xC000

// ResistorTable holds the selectable TIA feedback resistors in kOhm.
var ResistorTable = [8]uint16{20, 30, 40, 80, 120, 250, 500, 1000}

// MaxGainIndex is the largest buffer gain index (gain = 2^index).
const MaxGainIndex = 3

// ADC input range selections.
const (
	ADCRangeFull = 1 // +/- VoltageRange
	ADCRangeHalf = 2 // +/- VoltageRange/2
)

var (
	ErrInvalidResistor = errors.New("invalid resistor index")
	ErrInvalidGain     = errors.New("invalid gain index")
	ErrInvalidRange    = errors.New("invalid adc range")
	ErrCodeOutOfRange  = errors.New("stimulus code out of range")
)

// TwosComplement16 interprets a raw 16-bit sample as signed.
func TwosComplement16(code uint16) int16 {
	return int16(code)
}

// Unroll32 interprets a raw 32-bit conversion result as signed.
func Unroll32(raw uint32) int32 {
	if raw >= 1<<31 {
		return int32(int64(raw) - 1<<32)
	}
	return int32(raw)
}

// ClampSample saturates a signed conversion result to the representable range of
// a bits-wide two's-complement sample and returns it as a 16-bit code.
func ClampSample(v int32, bits int) uint16 {
	hi := int32(1)<<(bits-1) - 1
	lo := -int32(1) << (bits - 1)
	if v > hi {
		v = hi
	} else if v < lo {
		v = lo
	}
	return uint16(int16(v))
}

// ValidateGain checks a resistor/gain index pair.
func ValidateGain(resistorIdx, gainIdx int) error {
	if resistorIdx < 0 || resistorIdx >= len(ResistorTable) {
		return ErrInvalidResistor
	}
	if gainIdx < 0 || gainIdx > MaxGainIndex {
		return ErrInvalidGain
	}
	return nil
}

// Converter turns stimulus and sample codes into physical units for the
// currently selected range, resistor and gain.
type Converter struct {
	cfg      Config
	rangeV   float64
	resistor int
	gain     int
	cal      CalibrationRecord
	hasCal   bool
}

// NewConverter creates a converter with full range, 20 kOhm and unity gain
func NewConverter(cfg Config) *Converter {
	cfg.applyDefaults()
	return &Converter{cfg: cfg, rangeV: cfg.VoltageRange}
}

// SetRange selects the ADC input range (ADCRangeFull or ADCRangeHalf).
func (c *Converter) SetRange(sel uint8) error {
	switch sel {
	case ADCRangeFull:
		c.rangeV = c.cfg.VoltageRange
	case ADCRangeHalf:
		c.rangeV = c.cfg.VoltageRange / 2
	default:
		return ErrInvalidRange
	}
	c.hasCal = false
	return nil
}

// SetGain selects the TIA resistor and buffer gain. Any calibration taken
// for the previous setting is discarded.
func (c *Converter) SetGain(resistorIdx, gainIdx int) error {
	if err := ValidateGain(resistorIdx, gainIdx); err != nil {
		return err
	}
	c.resistor = resistorIdx
	c.gain = gainIdx
	c.hasCal = false
	return nil
}

// Gain returns the selected resistor and gain indices.
func (c *Converter) Gain() (resistorIdx, gainIdx int) {
	return c.resistor, c.gain
}

// SetCalibration installs a calibration record if it matches the current setting.
func (c *Converter) SetCalibration(rec CalibrationRecord) {
	if rec.ResistorIndex != c.resistor || rec.GainIndex != c.gain {
		return
	}
	c.cal = rec
	c.hasCal = rec.Slope != 0
}

// Calibration returns the active calibration record, if any.
func (c *Converter) Calibration() (CalibrationRecord, bool) {
	return c.cal, c.hasCal
}

func (c *Converter) fullScale() float64 {
	return float64(int32(1) << (c.cfg.SampleBits - 1))
}

// SampleVolts converts a sample code to the voltage at the converter input.
func (c *Converter) SampleVolts(code uint16) float64 {
	return float64(TwosComplement16(code)) * c.rangeV / c.fullScale()
}

// VoltsToSample is the inverse of SampleVolts, saturating at full scale.
func (c *Converter) VoltsToSample(v float64) uint16 {
	n := math.Round(v * c.fullScale() / c.rangeV)
	if n > math.MaxInt32 {
		n = math.MaxInt32
	} else if n < math.MinInt32 {
		n = math.MinInt32
	}
	return ClampSample(int32(n), c.cfg.SampleBits)
}

// SampleAmps converts a sample code to cell current in amperes. Without a
// calibration the nominal resistor and gain are used; the TIA inverts.
func (c *Converter) SampleAmps(code uint16) float64 {
	if c.hasCal {
		return (float64(TwosComplement16(code)) - c.cal.Offset) * c.cal.AmpsPerCode(c.cfg.RefStep)
	}
	ohms := float64(ResistorTable[c.resistor]) * 1000 * float64(int(1)<<c.gain)
	return -c.SampleVolts(code) / ohms
}

// Current is SampleAmps as a typed physical quantity.
func (c *Converter) Current(code uint16) physic.ElectricCurrent {
	return physic.ElectricCurrent(math.Round(c.SampleAmps(code) * float64(physic.Ampere)))
}

// StimulusVolts converts a stimulus code to the cell potential.
func (c *Converter) StimulusVolts(code uint16) float64 {
	return float64(int32(code)-int32(c.cfg.ZeroCode)) * c.cfg.DACStep
}

// Potential is StimulusVolts as a typed physical quantity.
func (c *Converter) Potential(code uint16) physic.ElectricPotential {
	return physic.ElectricPotential(math.Round(c.StimulusVolts(code) * float64(physic.Volt)))
}

// VoltsToStimulus returns the stimulus code nearest to v.
func (c *Converter) VoltsToStimulus(v float64) (uint16, error) {
	n := math.Round(v/c.cfg.DACStep) + float64(c.cfg.ZeroCode)
	if n < 0 || n > float64(c.cfg.DACMax) {
		return 0, ErrCodeOutOfRange
	}
	return uint16(n), nil
}

// PotentialToStimulus is VoltsToStimulus for a typed potential.
func (c *Converter) PotentialToStimulus(p physic.ElectricPotential) (uint16, error) {
	return c.VoltsToStimulus(float64(p) / float64(physic.Volt))
}
