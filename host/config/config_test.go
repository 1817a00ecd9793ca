package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pstat/core"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 100*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, core.DefaultConfig(), cfg.Core())
	assert.Equal(t, CellResistor, cfg.Cell.Model)
	assert.Equal(t, float64(10000), cfg.Cell.ResistanceOhms)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pstat.yaml")
	yamlContent := `
serial:
  device: /dev/ttyACM0
  read_timeout: 250ms

device:
  max_lut_size: 2000
  period: 400
  identity: "Bench unit 3"

cell:
  model: loopback
  noise_codes: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Device)
	assert.Equal(t, 250*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, 115200, cfg.Serial.Baud, "missing fields keep defaults")

	c := cfg.Core()
	assert.Equal(t, 2000, c.MaxLUTSize)
	assert.Equal(t, uint16(400), c.Period)
	assert.Equal(t, uint16(200), c.Compare)
	assert.Equal(t, uint16(core.DefaultZeroCode), c.ZeroCode)
	assert.Equal(t, "Bench unit 3", c.Identity)

	assert.Equal(t, CellLoopback, cfg.Cell.Model)
	assert.Equal(t, 2, cfg.Cell.NoiseCodes)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("device: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cell:\n  model: capacitor\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacitor")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Serial.Device = "/dev/ttyUSB1"
	cfg.Cell.ResistanceOhms = 4700
	cfg.Storage.EEPROMFile = "eeprom.bin"

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Cell.ResistanceOhms = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Device.ZeroCode = 5000
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Cell.NoiseCodes = -3
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Device.SampleBits = 15
	assert.Error(t, cfg.Validate())
	cfg.Device.SampleBits = 14
	assert.NoError(t, cfg.Validate())
}
