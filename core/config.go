package core

// Default device constants
const (
	DefaultMaxLUTSize   = 5000
	DefaultChannels     = 4
	DefaultZeroCode     = 2048 // virtual ground of the 12-bit stimulus DAC
	DefaultDACMax       = 4095
	DefaultSampleBits   = 12
	MaxSampleBits       = 14 // at 15 bits the negative full scale is the sentinel
	DefaultVoltageRange = 2.048 // volts, full scale of the sample path
	DefaultDACStep      = 0.001 // volts per stimulus code
	DefaultPeriod       = 2000  // tick source counts per tick
	DefaultCompare      = 1000
	DefaultSettleMS     = 100
	DefaultSampleWaitMS = 50
	DefaultRefStep      = 0.125e-6 // amperes per reference source unit
)

// Config holds the build-time shape of the instrument
type Config struct {
	MaxLUTSize   int     // Capacity of the waveform table and of each sample buffer (+1 for sentinel)
	Channels     int     // Number of rotating sample buffers
	ZeroCode     uint16  // Stimulus code that puts 0 V on the cell
	DACMax       uint16  // Highest addressable stimulus code
	SampleBits   int     // Effective resolution of the sample path (two's complement)
	VoltageRange float64 // Sample path full scale in volts (ADC config 1)
	DACStep      float64 // Volts per stimulus code
	Period       uint16  // Initial tick period
	Compare      uint16  // Initial stimulus-to-sample delay
	SettleMS     int     // Calibration settling delay
	SampleWaitMS int     // Bound on a single blocking sample read
	RefStep      float64 // Amperes per reference source unit
	Identity     string  // Reply to the identify command
}

// DefaultConfig returns the configuration of the reference board
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.MaxLUTSize <= 0 {
		c.MaxLUTSize = DefaultMaxLUTSize
	}
	if c.Channels <= 0 {
		c.Channels = DefaultChannels
	}
	if c.ZeroCode == 0 {
		c.ZeroCode = DefaultZeroCode
	}
	if c.DACMax == 0 {
		c.DACMax = DefaultDACMax
	}
	if c.SampleBits <= 0 || c.SampleBits > MaxSampleBits {
		c.SampleBits = DefaultSampleBits
	}
	if c.VoltageRange <= 0 {
		c.VoltageRange = DefaultVoltageRange
	}
	if c.DACStep <= 0 {
		c.DACStep = DefaultDACStep
	}
	if c.Period == 0 {
		c.Period = DefaultPeriod
	}
	if c.Compare == 0 || c.Compare >= c.Period {
		c.Compare = c.Period / 2
	}
	if c.SettleMS <= 0 {
		c.SettleMS = DefaultSettleMS
	}
	if c.SampleWaitMS <= 0 {
		c.SampleWaitMS = DefaultSampleWaitMS
	}
	if c.RefStep <= 0 {
		c.RefStep = DefaultRefStep
	}
	if c.Identity == "" {
		c.Identity = "Potentiostat v1"
	}
}
