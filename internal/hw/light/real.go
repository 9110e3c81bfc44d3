//go:build linux

package light

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// pwmPeriodNs is 24kHz, above audible range so the driver never whines.
const pwmPeriodNs = 41666

// RealLight drives two sysfs PWM channels (e.g. pwmchip0/pwm0 and pwm1).
// The channels are exclusively owned by the controller goroutine, so the
// last-duty bookkeeping needs no locking.
type RealLight struct {
	warm     pwmChannel
	cool     pwmChannel
	lastWarm uint8
	lastCool uint8
}

type pwmChannel struct {
	dir string
}

// NewRealLight exports and configures both PWM channels.
func NewRealLight(chipDir string, warmChannel, coolChannel int) (*RealLight, error) {
	warm, err := openChannel(chipDir, warmChannel)
	if err != nil {
		return nil, fmt.Errorf("warm channel: %w", err)
	}
	cool, err := openChannel(chipDir, coolChannel)
	if err != nil {
		warm.unexport(chipDir, warmChannel)
		return nil, fmt.Errorf("cool channel: %w", err)
	}

	l := &RealLight{warm: warm, cool: cool}
	if err := l.Off(); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// Set applies the duty pair. Fading is stepped at 20ms granularity; the lamp
// hardware has no native fade engine.
func (l *RealLight) Set(warmPct, coolPct uint8, fade time.Duration) error {
	if fade <= 0 {
		return l.apply(warmPct, coolPct)
	}

	const step = 20 * time.Millisecond
	steps := int(fade / step)
	if steps < 1 {
		steps = 1
	}

	fromWarm, fromCool := l.lastWarm, l.lastCool
	for i := 1; i <= steps; i++ {
		w := interp(fromWarm, warmPct, i, steps)
		c := interp(fromCool, coolPct, i, steps)
		if err := l.apply(w, c); err != nil {
			return err
		}
		time.Sleep(step)
	}
	return nil
}

// Off forces both channels dark.
func (l *RealLight) Off() error {
	return l.apply(0, 0)
}

// Close turns the lamp off and disables both channels.
func (l *RealLight) Close() error {
	_ = l.Off()
	_ = l.warm.writeAttr("enable", "0")
	_ = l.cool.writeAttr("enable", "0")
	return nil
}

func (l *RealLight) apply(warmPct, coolPct uint8) error {
	if err := l.warm.setPercent(warmPct); err != nil {
		return err
	}
	l.lastWarm = warmPct
	if err := l.cool.setPercent(coolPct); err != nil {
		return err
	}
	l.lastCool = coolPct
	return nil
}

func interp(from, to uint8, i, steps int) uint8 {
	return uint8(int(from) + (int(to)-int(from))*i/steps)
}

func openChannel(chipDir string, channel int) (pwmChannel, error) {
	dir := filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if werr := os.WriteFile(filepath.Join(chipDir, "export"), []byte(strconv.Itoa(channel)), 0o644); werr != nil {
			return pwmChannel{}, fmt.Errorf("export pwm%d: %w", channel, werr)
		}
	}

	ch := pwmChannel{dir: dir}
	if err := ch.writeAttr("period", strconv.Itoa(pwmPeriodNs)); err != nil {
		return pwmChannel{}, err
	}
	if err := ch.writeAttr("duty_cycle", "0"); err != nil {
		return pwmChannel{}, err
	}
	if err := ch.writeAttr("enable", "1"); err != nil {
		return pwmChannel{}, err
	}
	return ch, nil
}

func (ch pwmChannel) setPercent(pct uint8) error {
	if pct > 100 {
		pct = 100
	}
	duty := uint64(pct) * pwmPeriodNs / 100
	return ch.writeAttr("duty_cycle", strconv.FormatUint(duty, 10))
}

func (ch pwmChannel) unexport(chipDir string, channel int) {
	_ = os.WriteFile(filepath.Join(chipDir, "unexport"), []byte(strconv.Itoa(channel)), 0o644)
}

func (ch pwmChannel) writeAttr(name, value string) error {
	path := filepath.Join(ch.dir, name)
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
