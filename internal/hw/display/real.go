//go:build linux

package display

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// CH455 command bytes and sys-param bits, per the WCH datasheet.
const (
	cmdSysParam = 0x48
	cmdDig0     = 0x68
	cmdDig1     = 0x6A
	cmdDig2     = 0x6C
	cmdDig3     = 0x6E

	sysEnaBit      = 1 << 0
	sysSleepBit    = 1 << 2
	sysIntensShift = 4
	sysKoffBit     = 1 << 7
)

// RealDisplay drives a CH455 over two GPIO lines. The controller speaks an
// I2C-like protocol but with a fixed-high ACK slot, so a plain bit-bang is
// simpler than the kernel I2C stack.
type RealDisplay struct {
	chip     *gpiocdev.Chip
	sda      *gpiocdev.Line
	scl      *gpiocdev.Line
	sysParam byte
}

// NewRealDisplay opens the GPIO lines and initializes the controller.
// Intensity is the CH455 3-bit brightness code (0 = max).
func NewRealDisplay(chipName string, sdaPin, sclPin int, intensity uint8) (*RealDisplay, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	sda, err := chip.RequestLine(sdaPin, gpiocdev.AsOutput(1), gpiocdev.AsOpenDrain)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sda pin %d: %w", sdaPin, err)
	}
	scl, err := chip.RequestLine(sclPin, gpiocdev.AsOutput(1), gpiocdev.AsOpenDrain)
	if err != nil {
		sda.Close()
		chip.Close()
		return nil, fmt.Errorf("request scl pin %d: %w", sclPin, err)
	}

	d := &RealDisplay{
		chip:     chip,
		sda:      sda,
		scl:      scl,
		sysParam: sysKoffBit | (byte(intensity&0x7) << sysIntensShift) | sysEnaBit,
	}

	if err := d.write2(cmdSysParam, d.sysParam); err != nil {
		d.Close()
		return nil, fmt.Errorf("init display: %w", err)
	}
	if err := d.Clear(); err != nil {
		d.Close()
		return nil, fmt.Errorf("clear display: %w", err)
	}
	return d, nil
}

// Show renders HH.MM.
func (d *RealDisplay) Show(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("display: time %02d:%02d out of range", hour, minute)
	}
	digits := digitsForTime(hour, minute)
	for i, seg := range digits {
		if err := d.write2(digitCmd(i), seg); err != nil {
			return err
		}
	}
	return nil
}

// Clear blanks all digits.
func (d *RealDisplay) Clear() error {
	for i := 0; i < 4; i++ {
		if err := d.write2(digitCmd(i), 0); err != nil {
			return err
		}
	}
	return nil
}

// SetEnabled switches display output on or off.
func (d *RealDisplay) SetEnabled(on bool) error {
	d.sysParam &^= sysEnaBit
	if on {
		d.sysParam |= sysEnaBit
	}
	return d.write2(cmdSysParam, d.sysParam)
}

// SetLowPower toggles the controller sleep bit.
func (d *RealDisplay) SetLowPower(on bool) error {
	d.sysParam &^= sysSleepBit
	if on {
		d.sysParam |= sysSleepBit
	}
	return d.write2(cmdSysParam, d.sysParam)
}

// Close drops both bus lines low to avoid leakage and releases them.
func (d *RealDisplay) Close() error {
	if d.sda != nil {
		_ = d.sda.SetValue(0)
		_ = d.sda.Close()
	}
	if d.scl != nil {
		_ = d.scl.SetValue(0)
		_ = d.scl.Close()
	}
	if d.chip != nil {
		return d.chip.Close()
	}
	return nil
}

func digitCmd(i int) byte {
	switch i {
	case 0:
		return cmdDig0
	case 1:
		return cmdDig1
	case 2:
		return cmdDig2
	default:
		return cmdDig3
	}
}

// write2 sends a command/data pair framed by start/stop conditions.
func (d *RealDisplay) write2(b1, b2 byte) error {
	d.start()
	if err := d.writeByte(b1); err != nil {
		return err
	}
	if err := d.writeByte(b2); err != nil {
		return err
	}
	d.stop()
	return nil
}

// Conservative ~100kHz half period.
func halfPeriod() { time.Sleep(5 * time.Microsecond) }

func (d *RealDisplay) start() {
	_ = d.sda.SetValue(1)
	_ = d.scl.SetValue(1)
	halfPeriod()
	_ = d.sda.SetValue(0)
	halfPeriod()
	_ = d.scl.SetValue(0)
}

func (d *RealDisplay) stop() {
	_ = d.sda.SetValue(0)
	halfPeriod()
	_ = d.scl.SetValue(1)
	halfPeriod()
	_ = d.sda.SetValue(1)
	halfPeriod()
}

func (d *RealDisplay) writeByte(b byte) error {
	for i := 7; i >= 0; i-- {
		d.writeBit((b >> i) & 1)
	}
	// ACK slot is fixed high on this controller.
	d.writeBit(1)
	return nil
}

func (d *RealDisplay) writeBit(bit byte) {
	_ = d.sda.SetValue(int(bit))
	halfPeriod()
	_ = d.scl.SetValue(1)
	halfPeriod()
	_ = d.scl.SetValue(0)
}
