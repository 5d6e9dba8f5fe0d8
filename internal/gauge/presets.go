package gauge

import (
	"fmt"
	"sort"
)

// Stock value/angle layouts for common instruments, used when a gauge has
// no clicked calibration yet.
var presets = map[string][]Sample{
	"tachometer": {
		{Value: 0, Angle: 270},
		{Value: 5000, Angle: 135},
		{Value: 10000, Angle: 0},
	},
	"speedometer": {
		{Value: 0, Angle: 240},
		{Value: 160, Angle: 90},
		{Value: 320, Angle: -60},
	},
	"fuel": {
		{Value: 0, Angle: 180},
		{Value: 100, Angle: 90},
	},
	"water": {
		{Value: 50, Angle: 180},
		{Value: 90, Angle: 90},
		{Value: 130, Angle: 0},
	},
}

// TachometerPreset covers 0-10000 RPM from 12 o'clock clockwise to 3 o'clock.
func TachometerPreset() *Resolver { return NewSampleResolver(presets["tachometer"]) }

// SpeedometerPreset covers 0-320 km/h.
func SpeedometerPreset() *Resolver { return NewSampleResolver(presets["speedometer"]) }

// FuelPreset covers empty (0) to full (100).
func FuelPreset() *Resolver { return NewSampleResolver(presets["fuel"]) }

// WaterTempPreset covers 50-130 °C.
func WaterTempPreset() *Resolver { return NewSampleResolver(presets["water"]) }

// Preset looks up a stock layout by name.
func Preset(name string) (*Resolver, error) {
	s, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("gauge: unknown preset %q (have %v)", name, PresetNames())
	}
	return NewSampleResolver(s), nil
}

// PresetNames lists the stock layouts in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
