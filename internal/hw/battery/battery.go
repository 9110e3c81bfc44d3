// Package battery reads the battery level with hardware abstraction.
// Voltage-to-percent math is pure and tested; only the ADC read touches
// hardware.
package battery

// Sensor reports the battery charge.
type Sensor interface {
	// Percent returns the charge level 0-100, sampled on demand.
	Percent() (uint8, error)

	// Close releases sensor resources.
	Close() error
}

// Divider ratio of the sense network: Vbat = Vadc * (Rtop + Rbot) / Rbot.
const (
	dividerNumerator   = 15100 + 5100
	dividerDenominator = 5100
)

// Li-ion discharge window used for the linear percent mapping.
const (
	emptyMilliVolt = 3300
	fullMilliVolt  = 4200
)

// ScaleDividerToBatteryMilliVolt converts the ADC-side voltage to the battery
// voltage through the divider, with integer rounding.
func ScaleDividerToBatteryMilliVolt(vadcMilliVolt uint32) uint32 {
	v := uint64(vadcMilliVolt) * dividerNumerator
	v = (v + dividerDenominator/2) / dividerDenominator
	return uint32(v)
}

// MilliVoltToPercent maps battery voltage to a 0-100 charge estimate.
// Linear between the empty and full points; good enough for a lamp.
func MilliVoltToPercent(mv uint32) uint8 {
	if mv <= emptyMilliVolt {
		return 0
	}
	if mv >= fullMilliVolt {
		return 100
	}
	return uint8((mv - emptyMilliVolt) * 100 / (fullMilliVolt - emptyMilliVolt))
}
