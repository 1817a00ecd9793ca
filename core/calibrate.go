package core

import (
	"encoding/binary"
	"math"
	"time"

	"pstat/protocol"
)

// Calibration constants
const (
	calTarget   = 8000 // reference units x kOhm x gain for roughly full-scale response
	calCeiling  = 250  // largest reference magnitude the input stage tolerates
	CalPoints   = 5
	CalReplyLen = 4 * CalPoints
)

// CalPoint is one (reference, sample) pair. Reference is signed: negative sinks.
type CalPoint struct {
	Reference int16
	Sample    int16
}

// CalibrationRecord is the result of one calibration run
type CalibrationRecord struct {
	Points        [CalPoints]CalPoint
	ResistorIndex int
	GainIndex     int
	Magnitude     int

	// Least-squares fit sample = Slope*reference + Offset
	Slope  float64
	Offset float64
}

// AmpsPerCode returns the current represented by one sample code, given the
// reference source step in amperes.
func (r *CalibrationRecord) AmpsPerCode(refStep float64) float64 {
	if r.Slope == 0 {
		return 0
	}
	return refStep / r.Slope
}

// fit computes Slope and Offset over the recorded points
func (r *CalibrationRecord) fit() {
	var sx, sy, sxx, sxy float64
	n := float64(CalPoints)
	for _, p := range r.Points {
		x, y := float64(p.Reference), float64(p.Sample)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		r.Slope, r.Offset = 0, sy/n
		return
	}
	r.Slope = (n*sxy - sx*sy) / den
	r.Offset = (sy - r.Slope*sx) / n
}

// MarshalBinary encodes the five references then the five samples as
// little-endian int16, the layout the host software reads.
func (r *CalibrationRecord) MarshalBinary() ([]byte, error) {
	out := make([]byte, CalReplyLen)
	for i, p := range r.Points {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(p.Reference))
		binary.LittleEndian.PutUint16(out[2*(CalPoints+i):], uint16(p.Sample))
	}
	return out, nil
}

// calFitLen is the persisted form: resistor, gain, slope and offset as
// float32, then a CRC-16
const calFitLen = 2 + 4 + 4 + 2

func (r *CalibrationRecord) marshalFit() []byte {
	b := make([]byte, 0, calFitLen)
	b = append(b, uint8(r.ResistorIndex), uint8(r.GainIndex))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(r.Slope)))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(r.Offset)))
	return protocol.AppendCRC16(b)
}

func unmarshalFit(b []byte) (CalibrationRecord, bool) {
	var r CalibrationRecord
	if len(b) != calFitLen || !protocol.CheckCRC16(b) {
		return r, false
	}
	r.ResistorIndex, r.GainIndex = int(b[0]), int(b[1])
	if ValidateGain(r.ResistorIndex, r.GainIndex) != nil {
		return r, false
	}
	r.Slope = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[2:])))
	r.Offset = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[6:])))
	return r, true
}

// CalibrationMagnitude returns the reference magnitude for a resistor/gain setting
func CalibrationMagnitude(resistorIdx, gainIdx int) (int, error) {
	if err := ValidateGain(resistorIdx, gainIdx); err != nil {
		return 0, err
	}
	i := calTarget / ((1 << gainIdx) * int(ResistorTable[resistorIdx]))
	if i > calCeiling {
		i /= 2
	}
	return i, nil
}

// Calibrator runs the five-point reference current sweep
type Calibrator struct {
	ref    ReferenceSource
	adc    SampleDriver
	fe     FrontEnd
	settle time.Duration
	wait   time.Duration
	sleep  func(time.Duration)
}

// NewCalibrator creates a calibrator
func NewCalibrator(cfg Config, ref ReferenceSource, adc SampleDriver, fe FrontEnd) *Calibrator {
	cfg.applyDefaults()
	return &Calibrator{
		ref:    ref,
		adc:    adc,
		fe:     fe,
		settle: time.Duration(cfg.SettleMS) * time.Millisecond,
		wait:   time.Duration(cfg.SampleWaitMS) * time.Millisecond,
		sleep:  time.Sleep,
	}
}

// SetSleep replaces the settling delay function
func (c *Calibrator) SetSleep(fn func(time.Duration)) {
	c.sleep = fn
}

// Run calibrates the given resistor/gain setting. Out-of-range samples are
// recorded as-is. Measurement routing is restored even on error.
func (c *Calibrator) Run(resistorIdx, gainIdx int) (CalibrationRecord, error) {
	rec := CalibrationRecord{ResistorIndex: resistorIdx, GainIndex: gainIdx}
	mag, err := CalibrationMagnitude(resistorIdx, gainIdx)
	if err != nil {
		return rec, err
	}
	rec.Magnitude = mag

	c.fe.SetResistor(resistorIdx)
	c.fe.SetBufferGain(gainIdx)
	c.fe.SelectInput(InputCalibration)
	c.ref.SetValue(0)
	c.ref.Start()
	c.adc.Start()
	defer func() {
		c.ref.SetValue(0)
		c.ref.Stop()
		c.fe.SelectInput(InputWorkingElectrode)
	}()

	setpoints := [CalPoints]int{-mag, -mag / 2, 0, mag / 2, mag}
	for i, sp := range setpoints {
		if sp < 0 {
			c.ref.SetPolarity(RefSink)
			c.ref.SetValue(uint8(-sp))
		} else {
			c.ref.SetPolarity(RefSource)
			c.ref.SetValue(uint8(sp))
		}
		c.sleep(c.settle)
		v, err := c.adc.WaitResult(c.wait)
		if err != nil {
			return rec, err
		}
		rec.Points[i] = CalPoint{Reference: int16(sp), Sample: v}
		RecordTiming(EvtCalibrate, uint8(i), GetTime(), uint32(int32(sp)), uint32(int32(v)))
	}
	rec.fit()
	return rec, nil
}
