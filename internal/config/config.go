package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Sides of the wind tunnel. Each side carries its own conversion and
// filter parameters in the config file.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// Config wraps a viper instance holding the rig configuration. The core
// reads serial/vision/telemetry settings and writes fitted calibration
// parameters back, but only through Save after explicit confirmation.
type Config struct {
	v *viper.Viper
}

// Load reads the configuration file. An explicit path wins; otherwise
// config.yaml is searched in the current directory. A missing file is not an
// error: defaults and WINDTUNNEL_* environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("WINDTUNNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("serial.port", "/dev/ttyUSB0")
	v.SetDefault("serial.baud_rate", 9600)
	v.SetDefault("vision.program", "python3")
	v.SetDefault("vision.args", []string{"-u", "-m", "src.main"})
	v.SetDefault("vision.mode", "angle")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("web.listen_addr", ":8080")

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %w", err)
		}
		// No config file yet: defaults and environment still apply.
	}

	return &Config{v: v}, nil
}

func ValidSide(side string) bool {
	return side == SideLeft || side == SideRight
}

func (c *Config) SerialPort() string    { return c.v.GetString("serial.port") }
func (c *Config) BaudRate() uint        { return c.v.GetUint("serial.baud_rate") }
func (c *Config) VisionProgram() string { return c.v.GetString("vision.program") }
func (c *Config) VisionArgs() []string  { return c.v.GetStringSlice("vision.args") }
func (c *Config) VisionMode() string    { return c.v.GetString("vision.mode") }
func (c *Config) MQTTEnabled() bool     { return c.v.GetBool("mqtt.enabled") }
func (c *Config) MQTTBroker() string    { return c.v.GetString("mqtt.broker") }
func (c *Config) WebListenAddr() string { return c.v.GetString("web.listen_addr") }

// ScaleConstant returns the fitted conversion constant for one side. The key
// is only present after a calibration run has been confirmed.
func (c *Config) ScaleConstant(side string) (float64, error) {
	key := "conversion_params." + side + ".scale_constant"
	if !c.v.IsSet(key) {
		return 0, fmt.Errorf("config: %s not set; run a calibration first", key)
	}
	return c.v.GetFloat64(key), nil
}

// Filter returns the smoothing filter parameters for one side.
func (c *Config) Filter(side string) (order int, cutoffHz float64, err error) {
	base := "butterworth_filter." + side
	if !c.v.IsSet(base + ".order") {
		return 0, 0, fmt.Errorf("config: %s.order not set", base)
	}
	order = c.v.GetInt(base + ".order")
	cutoffHz = c.v.GetFloat64(base + ".cutoff_hz")
	if order < 1 || cutoffHz <= 0 {
		return 0, 0, fmt.Errorf("config: invalid filter parameters for side %q (order=%d cutoff=%g)", side, order, cutoffHz)
	}
	return order, cutoffHz, nil
}

func (c *Config) SetScaleConstant(side string, k float64) {
	c.v.Set("conversion_params."+side+".scale_constant", k)
}

func (c *Config) SetFilter(side string, order int, cutoffHz float64) {
	c.v.Set("butterworth_filter."+side+".order", order)
	c.v.Set("butterworth_filter."+side+".cutoff_hz", cutoffHz)
}

// Save writes the current configuration back to the file it was loaded
// from, or to ./config.yaml if no file existed yet.
func (c *Config) Save() error {
	if c.v.ConfigFileUsed() == "" {
		return c.v.WriteConfigAs("config.yaml")
	}
	return c.v.WriteConfig()
}
