package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestTwosComplement16(t *testing.T) {
	tests := []struct {
		code uint16
		want int16
	}{
		{0x0000, 0},
		{0x0001, 1},
		{0x7FFF, 32767},
		{0x8000, -32768},
		{0xFFFF, -1},
		{0xF800, -2048},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TwosComplement16(tt.code), "code 0x%04x", tt.code)
	}
}

func TestUnroll32(t *testing.T) {
	assert.Equal(t, int32(0), Unroll32(0))
	assert.Equal(t, int32(-1), Unroll32(0xFFFFFFFF))
	assert.Equal(t, int32(math.MinInt32), Unroll32(0x80000000))
	assert.Equal(t, int32(12345), Unroll32(12345))
}

func TestClampSample(t *testing.T) {
	assert.Equal(t, uint16(2047), ClampSample(5000, 12))
	assert.Equal(t, uint16(0xF800), ClampSample(-5000, 12))
	assert.Equal(t, uint16(0xF800), ClampSample(-16384, 12))
	assert.Equal(t, uint16(100), ClampSample(100, 12))
}

func TestValidateGain(t *testing.T) {
	assert.NoError(t, ValidateGain(0, 0))
	assert.NoError(t, ValidateGain(7, 3))
	assert.ErrorIs(t, ValidateGain(8, 0), ErrInvalidResistor)
	assert.ErrorIs(t, ValidateGain(-1, 0), ErrInvalidResistor)
	assert.ErrorIs(t, ValidateGain(0, 4), ErrInvalidGain)
}

// A 1:1 loop feeds the stimulus voltage straight into the sample path.
func TestStimulusSampleRoundTrip(t *testing.T) {
	c := NewConverter(DefaultConfig())
	for code := 0; code <= DefaultDACMax; code++ {
		v := c.StimulusVolts(uint16(code))
		sample := c.VoltsToSample(v)
		back, err := c.VoltsToStimulus(c.SampleVolts(sample))
		require.NoError(t, err)
		assert.InDelta(t, code, int(back), 1, "code %d", code)
	}
}

func TestSentinelNeverConverted(t *testing.T) {
	for bits := 1; bits <= MaxSampleBits; bits++ {
		cfg := DefaultConfig()
		cfg.SampleBits = bits
		for _, rng := range []uint8{ADCRangeFull, ADCRangeHalf} {
			c := NewConverter(cfg)
			require.NoError(t, c.SetRange(rng))
			for v := -3.0; v <= 3.0; v += 0.001 {
				require.NotEqual(t, Sentinel, c.VoltsToSample(v), "%d bits, input %f V", bits, v)
			}
			assert.NotEqual(t, Sentinel, c.VoltsToSample(math.Inf(-1)), "%d bits", bits)
			assert.NotEqual(t, Sentinel, c.VoltsToSample(-1e9), "%d bits", bits)
		}
		assert.NotEqual(t, Sentinel, ClampSample(math.MinInt32, bits), "%d bits", bits)
	}
}

func TestSampleBitsCapped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleBits = 15
	cfg.applyDefaults()
	assert.Equal(t, DefaultSampleBits, cfg.SampleBits)

	cfg = DefaultConfig()
	cfg.SampleBits = MaxSampleBits
	cfg.applyDefaults()
	assert.Equal(t, MaxSampleBits, cfg.SampleBits)
}

func TestSampleAmpsNominal(t *testing.T) {
	c := NewConverter(DefaultConfig())
	require.NoError(t, c.SetGain(0, 0))

	// 1000 codes = 1.000 V across 20 kOhm, TIA inverts
	amps := c.SampleAmps(1000)
	assert.InDelta(t, -50e-6, amps, 1e-12)
	assert.Equal(t, physic.ElectricCurrent(-50*physic.MicroAmpere), c.Current(1000))

	require.NoError(t, c.SetGain(7, 3))
	assert.InDelta(t, -1.0/8e6, c.SampleAmps(1000), 1e-15)

	require.NoError(t, c.SetRange(ADCRangeHalf))
	assert.InDelta(t, 0.5, c.SampleVolts(1000), 1e-9)
}

func TestSampleAmpsCalibrated(t *testing.T) {
	c := NewConverter(DefaultConfig())
	rec := CalibrationRecord{Slope: -2, Offset: 4}
	c.SetCalibration(rec)
	_, ok := c.Calibration()
	require.True(t, ok)

	// one reference unit moves the sample by -2 codes from the offset
	assert.InDelta(t, DefaultRefStep, c.SampleAmps(2), 1e-15)

	require.NoError(t, c.SetGain(1, 0))
	_, ok = c.Calibration()
	assert.False(t, ok, "gain change must drop the calibration")

	c.SetCalibration(rec) // recorded for resistor 0, does not apply to 1
	_, ok = c.Calibration()
	assert.False(t, ok)
}

func TestPotential(t *testing.T) {
	c := NewConverter(DefaultConfig())
	assert.Equal(t, physic.ElectricPotential(0), c.Potential(DefaultZeroCode))
	assert.Equal(t, 500*physic.MilliVolt, c.Potential(DefaultZeroCode+500))

	code, err := c.PotentialToStimulus(-250 * physic.MilliVolt)
	require.NoError(t, err)
	assert.Equal(t, uint16(DefaultZeroCode-250), code)

	_, err = c.VoltsToStimulus(10)
	assert.ErrorIs(t, err, ErrCodeOutOfRange)
}
