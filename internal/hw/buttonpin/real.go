//go:build linux

package buttonpin

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPin reads the button line from actual hardware. The button shorts the
// line to ground, so it is requested with a pull-up and read active-low.
type RealPin struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealPin requests the button line as a pulled-up input.
func NewRealPin(chipName string, pin int) (*RealPin, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pin, err)
	}

	return &RealPin{chip: chip, line: line}, nil
}

// Pressed returns true while the line reads low.
func (p *RealPin) Pressed() (bool, error) {
	v, err := p.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return v == 0, nil
}

// Close releases GPIO resources.
func (p *RealPin) Close() error {
	if p.line != nil {
		if err := p.line.Close(); err != nil {
			return fmt.Errorf("close button line: %w", err)
		}
	}
	if p.chip != nil {
		return p.chip.Close()
	}
	return nil
}
