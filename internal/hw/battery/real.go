//go:build linux

package battery

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealSensor reads the battery through an IIO ADC channel. The divider is
// switched in through an enable line only while sampling so it never drains
// the battery between reads.
type RealSensor struct {
	chip      *gpiocdev.Chip
	enable    *gpiocdev.Line
	rawPath   string
	scalePath string
}

// NewRealSensor opens the enable GPIO and locates the IIO voltage channel,
// e.g. /sys/bus/iio/devices/iio:device0 with channel index 0.
func NewRealSensor(chipName string, enablePin int, iioDir string, iioChannel int) (*RealSensor, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	enable, err := chip.RequestLine(enablePin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sense-enable pin %d: %w", enablePin, err)
	}

	s := &RealSensor{
		chip:      chip,
		enable:    enable,
		rawPath:   fmt.Sprintf("%s/in_voltage%d_raw", iioDir, iioChannel),
		scalePath: fmt.Sprintf("%s/in_voltage%d_scale", iioDir, iioChannel),
	}

	if _, err := os.Stat(s.rawPath); err != nil {
		s.Close()
		return nil, fmt.Errorf("adc channel: %w", err)
	}
	return s, nil
}

// Percent samples the battery and returns the charge estimate.
func (s *RealSensor) Percent() (uint8, error) {
	mv, err := s.readMilliVolt()
	if err != nil {
		return 0, err
	}
	return MilliVoltToPercent(ScaleDividerToBatteryMilliVolt(mv)), nil
}

// readMilliVolt raises the enable line, averages a few samples and converts
// through the IIO scale attribute.
func (s *RealSensor) readMilliVolt() (uint32, error) {
	if err := s.enable.SetValue(1); err != nil {
		return 0, fmt.Errorf("raise sense enable: %w", err)
	}
	defer s.enable.SetValue(0)

	// Divider settle time.
	time.Sleep(5 * time.Millisecond)

	const samples = 8
	var sum int64
	for i := 0; i < samples; i++ {
		raw, err := readIntFile(s.rawPath)
		if err != nil {
			return 0, fmt.Errorf("read adc: %w", err)
		}
		sum += raw
		time.Sleep(2 * time.Millisecond)
	}
	avg := float64(sum) / samples

	scale, err := readFloatFile(s.scalePath)
	if err != nil {
		// Some ADC drivers omit the scale attribute; assume 12-bit over 3.3V.
		scale = 3300.0 / 4095.0
	}

	return uint32(avg * scale), nil
}

// Close releases GPIO resources, leaving the enable line low.
func (s *RealSensor) Close() error {
	if s.enable != nil {
		_ = s.enable.SetValue(0)
		_ = s.enable.Close()
	}
	if s.chip != nil {
		return s.chip.Close()
	}
	return nil
}

func readIntFile(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

func readFloatFile(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
}
