package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, uint(9600), cfg.BaudRate())
	assert.Equal(t, "python3", cfg.VisionProgram())
	assert.False(t, cfg.MQTTEnabled())
	assert.Equal(t, ":8080", cfg.WebListenAddr())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `serial:
  port: /dev/tty.usbmodem14201
  baud_rate: 115200
conversion_params:
  left:
    scale_constant: 2.5
butterworth_filter:
  left:
    order: 4
    cutoff_hz: 0.8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/tty.usbmodem14201", cfg.SerialPort())
	assert.Equal(t, uint(115200), cfg.BaudRate())

	k, err := cfg.ScaleConstant(SideLeft)
	require.NoError(t, err)
	assert.Equal(t, 2.5, k)

	order, cutoff, err := cfg.Filter(SideLeft)
	require.NoError(t, err)
	assert.Equal(t, 4, order)
	assert.Equal(t, 0.8, cutoff)

	// The right side was never calibrated.
	_, err = cfg.ScaleConstant(SideRight)
	assert.Error(t, err)
	_, _, err = cfg.Filter(SideRight)
	assert.Error(t, err)
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial:\n  port: /dev/ttyUSB1\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.SetScaleConstant(SideRight, 1.75)
	cfg.SetFilter(SideRight, 3, 0.55)
	require.NoError(t, cfg.Save())

	reread, err := Load(path)
	require.NoError(t, err)

	k, err := reread.ScaleConstant(SideRight)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, k, 1e-12)

	order, cutoff, err := reread.Filter(SideRight)
	require.NoError(t, err)
	assert.Equal(t, 3, order)
	assert.InDelta(t, 0.55, cutoff, 1e-12)

	// The original key survives the rewrite.
	assert.Equal(t, "/dev/ttyUSB1", reread.SerialPort())
}

func TestValidSide(t *testing.T) {
	assert.True(t, ValidSide("left"))
	assert.True(t, ValidSide("right"))
	assert.False(t, ValidSide("top"))
	assert.False(t, ValidSide(""))
}
