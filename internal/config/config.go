// Package config loads the runtime configuration: hardware wiring, timing
// knobs and the wireless broker. Persisted device settings (alarm time,
// brightness, ...) live in internal/device, not here.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	PWM        PWMConfig        `yaml:"pwm"`
	Battery    BatteryConfig    `yaml:"battery"`
	Hibernate  HibernateConfig  `yaml:"hibernate"`
	Wireless   WirelessConfig   `yaml:"wireless"`
	Controller ControllerConfig `yaml:"controller"`
	Database   DatabaseConfig   `yaml:"database"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Log        LogConfig        `yaml:"log"`
}

// DeviceConfig identifies this unit and its locale.
type DeviceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// GPIOConfig maps the character-device lines.
type GPIOConfig struct {
	Chip             string `yaml:"chip"`
	ButtonLine       int    `yaml:"button_line"`
	BatteryEnable    int    `yaml:"battery_enable_line"`
	DisplayDataLine  int    `yaml:"display_data_line"`
	DisplayClockLine int    `yaml:"display_clock_line"`
	DisplayIntensity uint8  `yaml:"display_intensity"`
}

// PWMConfig maps the sysfs PWM chip driving the warm/cool pair.
type PWMConfig struct {
	ChipDir     string `yaml:"chip_dir"`
	WarmChannel int    `yaml:"warm_channel"`
	CoolChannel int    `yaml:"cool_channel"`
}

// BatteryConfig maps the IIO ADC used for the charge reading.
type BatteryConfig struct {
	IIODir     string `yaml:"iio_dir"`
	IIOChannel int    `yaml:"iio_channel"`
}

// HibernateConfig maps the RTC wake timer and the wake-cause state file.
type HibernateConfig struct {
	RTCDir       string `yaml:"rtc_dir"`
	WakeupSource string `yaml:"wakeup_source"`
	StateFile    string `yaml:"state_file"`
}

// WirelessConfig contains the config-channel link settings.
type WirelessConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Broker       string   `yaml:"broker"`
	PushInterval Duration `yaml:"push_interval"` // battery notification cadence
}

// ControllerConfig contains the mode state machine timings.
type ControllerConfig struct {
	ShowWindow     Duration `yaml:"show_window"`      // time display window after wake
	IdleTick       Duration `yaml:"idle_tick"`        // loop period outside the ramp
	GradientTick   Duration `yaml:"gradient_tick"`    // loop period during the ramp
	IdleSleepDelay Duration `yaml:"idle_sleep_delay"` // grace after a config session
	AlwaysOn       bool     `yaml:"always_on"`        // diagnostics: never hibernate
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig contains event ledger settings
type LedgerConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"json"`
}

// GetLevel returns the configured level with the default applied.
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./dawnlamp.sqlite"
	}

	// Device defaults
	if cfg.Device.ID == "" {
		cfg.Device.ID = "dawnlamp"
	}
	if cfg.Device.Name == "" {
		cfg.Device.Name = "Dawnlamp"
	}
	if cfg.Device.Timezone == "" {
		cfg.Device.Timezone = "Local"
	}

	// Hardware defaults match the reference wiring.
	if cfg.GPIO.Chip == "" {
		cfg.GPIO.Chip = "gpiochip0"
	}
	if cfg.GPIO.DisplayIntensity == 0 {
		cfg.GPIO.DisplayIntensity = 5
	}
	if cfg.PWM.ChipDir == "" {
		cfg.PWM.ChipDir = "/sys/class/pwm/pwmchip0"
	}
	if cfg.PWM.CoolChannel == 0 && cfg.PWM.WarmChannel == 0 {
		cfg.PWM.CoolChannel = 1
	}
	if cfg.Battery.IIODir == "" {
		cfg.Battery.IIODir = "/sys/bus/iio/devices/iio:device0"
	}
	if cfg.Hibernate.RTCDir == "" {
		cfg.Hibernate.RTCDir = "/sys/class/rtc/rtc0"
	}
	if cfg.Hibernate.StateFile == "" {
		cfg.Hibernate.StateFile = "/var/lib/dawnlamp/wake"
	}

	// Wireless defaults
	if cfg.Wireless.Broker == "" {
		cfg.Wireless.Broker = "tcp://localhost:1883"
	}
	if cfg.Wireless.PushInterval == 0 {
		cfg.Wireless.PushInterval = Duration(30 * time.Second)
	}

	// Controller defaults
	if cfg.Controller.ShowWindow == 0 {
		cfg.Controller.ShowWindow = Duration(15 * time.Second)
	}
	if cfg.Controller.IdleTick == 0 {
		cfg.Controller.IdleTick = Duration(200 * time.Millisecond)
	}
	if cfg.Controller.GradientTick == 0 {
		cfg.Controller.GradientTick = Duration(100 * time.Millisecond)
	}
	if cfg.Controller.IdleSleepDelay == 0 {
		cfg.Controller.IdleSleepDelay = Duration(3 * time.Second)
	}

	// Ledger defaults
	if cfg.Ledger.RetentionDays == 0 {
		cfg.Ledger.RetentionDays = 30
	}

	return &cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}

// ExpandEnvString expands a single string with environment variables
func ExpandEnvString(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return expandEnvVars(s)
	}
	return s
}
