// Package config loads the YAML profile of the simulated instrument.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pstat/core"
	"pstat/host/serial"
)

// Cell models
const (
	CellLoopback = "loopback" // stimulus voltage fed straight back to the sample path
	CellResistor = "resistor" // resistive dummy cell in front of the TIA
)

// Config represents the simulator configuration.
type Config struct {
	Serial  serial.Config `yaml:"serial"`
	Device  DeviceConfig  `yaml:"device"`
	Cell    CellConfig    `yaml:"cell"`
	Storage StorageConfig `yaml:"storage"`
}

// DeviceConfig mirrors core.Config.
type DeviceConfig struct {
	MaxLUTSize   int     `yaml:"max_lut_size"`
	Channels     int     `yaml:"channels"`
	ZeroCode     uint16  `yaml:"zero_code"`
	DACMax       uint16  `yaml:"dac_max"`
	SampleBits   int     `yaml:"sample_bits"`
	VoltageRange float64 `yaml:"voltage_range"` // volts
	DACStep      float64 `yaml:"dac_step"`      // volts per code
	Period       uint16  `yaml:"period"`
	Compare      uint16  `yaml:"compare"`
	SettleMS     int     `yaml:"settle_ms"`
	SampleWaitMS int     `yaml:"sample_wait_ms"`
	RefStep      float64 `yaml:"ref_step"` // amperes per reference unit
	Identity     string  `yaml:"identity"`
}

// CellConfig describes the simulated electrochemical cell.
type CellConfig struct {
	Model          string  `yaml:"model"`
	ResistanceOhms float64 `yaml:"resistance_ohms"`
	NoiseCodes     int     `yaml:"noise_codes"` // peak uniform noise added to each sample
	Seed           int64   `yaml:"seed"`
}

// StorageConfig selects where the simulated EEPROM lives.
type StorageConfig struct {
	EEPROMFile string `yaml:"eeprom_file"` // empty keeps it in memory
	EEPROMSize int    `yaml:"eeprom_size"`
}

// Default returns a default configuration with the reference board values.
func Default() *Config {
	d := core.DefaultConfig()
	return &Config{
		Serial: *serial.DefaultConfig(""),
		Device: DeviceConfig{
			MaxLUTSize:   d.MaxLUTSize,
			Channels:     d.Channels,
			ZeroCode:     d.ZeroCode,
			DACMax:       d.DACMax,
			SampleBits:   d.SampleBits,
			VoltageRange: d.VoltageRange,
			DACStep:      d.DACStep,
			Period:       d.Period,
			Compare:      d.Compare,
			SettleMS:     d.SettleMS,
			SampleWaitMS: d.SampleWaitMS,
			RefStep:      d.RefStep,
			Identity:     d.Identity,
		},
		Cell: CellConfig{
			Model:          CellResistor,
			ResistanceOhms: 10000,
		},
		Storage: StorageConfig{
			EEPROMSize: 256,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings the simulator cannot run with.
func (c *Config) Validate() error {
	switch c.Cell.Model {
	case CellLoopback:
	case CellResistor:
		if c.Cell.ResistanceOhms <= 0 {
			return fmt.Errorf("cell resistance must be positive, got %g", c.Cell.ResistanceOhms)
		}
	default:
		return fmt.Errorf("unknown cell model %q", c.Cell.Model)
	}
	if c.Device.SampleBits < 1 || c.Device.SampleBits > core.MaxSampleBits {
		return fmt.Errorf("sample bits must be between 1 and %d, got %d", core.MaxSampleBits, c.Device.SampleBits)
	}
	if c.Device.ZeroCode > c.Device.DACMax {
		return fmt.Errorf("zero code %d above dac max %d", c.Device.ZeroCode, c.Device.DACMax)
	}
	if c.Cell.NoiseCodes < 0 {
		return fmt.Errorf("noise must not be negative")
	}
	return nil
}

// Core returns the firmware configuration described by the profile.
func (c *Config) Core() core.Config {
	d := c.Device
	return core.Config{
		MaxLUTSize:   d.MaxLUTSize,
		Channels:     d.Channels,
		ZeroCode:     d.ZeroCode,
		DACMax:       d.DACMax,
		SampleBits:   d.SampleBits,
		VoltageRange: d.VoltageRange,
		DACStep:      d.DACStep,
		Period:       d.Period,
		Compare:      d.Compare,
		SettleMS:     d.SettleMS,
		SampleWaitMS: d.SampleWaitMS,
		RefStep:      d.RefStep,
		Identity:     d.Identity,
	}
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
	if c.Serial.ReadTimeout == 0 {
		c.Serial.ReadTimeout = def.Serial.ReadTimeout
	}

	if c.Device.MaxLUTSize == 0 {
		c.Device.MaxLUTSize = def.Device.MaxLUTSize
	}
	if c.Device.Channels == 0 {
		c.Device.Channels = def.Device.Channels
	}
	if c.Device.DACMax == 0 {
		c.Device.DACMax = def.Device.DACMax
	}
	if c.Device.ZeroCode == 0 {
		c.Device.ZeroCode = def.Device.ZeroCode
	}
	if c.Device.SampleBits == 0 {
		c.Device.SampleBits = def.Device.SampleBits
	}
	if c.Device.VoltageRange == 0 {
		c.Device.VoltageRange = def.Device.VoltageRange
	}
	if c.Device.DACStep == 0 {
		c.Device.DACStep = def.Device.DACStep
	}
	if c.Device.Period == 0 {
		c.Device.Period = def.Device.Period
	}
	if c.Device.Compare == 0 || c.Device.Compare >= c.Device.Period {
		c.Device.Compare = c.Device.Period / 2
	}
	if c.Device.SettleMS == 0 {
		c.Device.SettleMS = def.Device.SettleMS
	}
	if c.Device.SampleWaitMS == 0 {
		c.Device.SampleWaitMS = def.Device.SampleWaitMS
	}
	if c.Device.RefStep == 0 {
		c.Device.RefStep = def.Device.RefStep
	}
	if c.Device.Identity == "" {
		c.Device.Identity = def.Device.Identity
	}

	if c.Cell.Model == "" {
		c.Cell.Model = def.Cell.Model
	}
	if c.Cell.Model == CellResistor && c.Cell.ResistanceOhms == 0 {
		c.Cell.ResistanceOhms = def.Cell.ResistanceOhms
	}

	if c.Storage.EEPROMSize == 0 {
		c.Storage.EEPROMSize = def.Storage.EEPROMSize
	}
}

