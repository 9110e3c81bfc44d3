// Package gradient computes the sunrise brightness curve and the warm/cool
// channel mix. Everything here is a pure function of its inputs; the
// controller recomputes the output every tick and on live config changes.
package gradient

import "time"

// Brightness returns the ramp brightness percent for the given elapsed time.
//
// The curve is cubic ease-in: target * (elapsed/total)^3. This is a design
// constant, not a tunable: the slow start mimics pre-dawn light and the cubic
// keeps most of the energy in the final third of the ramp. The result is
// forced to >= 1 once the ramp has started so the light is never invisibly
// "on" at the very beginning.
func Brightness(elapsed, total time.Duration, target uint8) uint8 {
	if target > 100 {
		target = 100
	}
	if elapsed <= 0 || total <= 0 || target == 0 {
		return 0
	}
	if elapsed >= total {
		return target
	}

	frac := float64(elapsed) / float64(total)
	b := uint8(float64(target) * frac * frac * frac)
	if b < 1 {
		b = 1
	}
	return b
}

// Target holds the per-channel output duty percentages.
type Target struct {
	Warm uint8
	Cool uint8
}

// Mix splits a brightness percent across the warm and cool channels according
// to colorTemp (0 = all cool, 100 = all warm). Channel sum equals brightness
// except when the single-unit steal below kicks in.
//
// Steal rule: when a true mix is requested (0 < colorTemp < 100) and rounding
// would zero one channel while the other is lit, one unit moves over so both
// channels stay visibly on.
func Mix(brightness, colorTemp uint8) Target {
	if brightness > 100 {
		brightness = 100
	}
	if colorTemp > 100 {
		colorTemp = 100
	}
	if brightness == 0 {
		return Target{}
	}

	warm := uint8((uint16(brightness)*uint16(colorTemp) + 50) / 100)
	if warm > brightness {
		warm = brightness
	}
	cool := brightness - warm

	if colorTemp > 0 && colorTemp < 100 {
		if warm == 0 && cool > 1 {
			warm = 1
			cool--
		} else if cool == 0 && warm > 1 {
			cool = 1
			warm--
		}
	}

	return Target{Warm: warm, Cool: cool}
}

// At combines Brightness and Mix for one ramp sample.
func At(elapsed, total time.Duration, target, colorTemp uint8) Target {
	return Mix(Brightness(elapsed, total, target), colorTemp)
}
