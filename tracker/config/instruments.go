package config

import (
	"fmt"
	"sort"
)

// Instrument names a registered instrument category.
type Instrument string

const (
	InstrumentGuitar   Instrument = "guitar"
	InstrumentBass     Instrument = "bass"
	InstrumentKeyboard Instrument = "keyboard"
	InstrumentVoice    Instrument = "voice"
)

// InstrumentRange bounds the plausible fundamentals and the pre-filter
// pass-band for one instrument category. LowHz/HighHz become the pitch
// search bounds; HighPassHz/LowPassHz configure the optional bandpass
// pre-filter and are otherwise unused.
type InstrumentRange struct {
	Name       string  `json:"name"`
	LowHz      float64 `json:"low_hz"`
	HighHz     float64 `json:"high_hz"`
	HighPassHz float64 `json:"high_pass_hz"`
	LowPassHz  float64 `json:"low_pass_hz"`
}

// Fundamentals span the open-string/key pitches through the top of the
// playable range: guitar E2..E6, four/five-string bass B0..G4, keyboard
// A0..C8, voice roughly F2 through soprano C6.
var instrumentRanges = map[Instrument]InstrumentRange{
	InstrumentGuitar: {
		Name:       "guitar",
		LowHz:      82.41,
		HighHz:     1318.51,
		HighPassHz: 70.0,
		LowPassHz:  5000.0,
	},
	InstrumentBass: {
		Name:       "bass",
		LowHz:      30.87,
		HighHz:     392.0,
		HighPassHz: 25.0,
		LowPassHz:  3000.0,
	},
	InstrumentKeyboard: {
		Name:       "keyboard",
		LowHz:      27.5,
		HighHz:     4186.01,
		HighPassHz: 20.0,
		LowPassHz:  8000.0,
	},
	InstrumentVoice: {
		Name:       "voice",
		LowHz:      80.0,
		HighHz:     1100.0,
		HighPassHz: 60.0,
		LowPassHz:  4000.0,
	},
}

// RangeFor looks up the range registered for an instrument.
func RangeFor(inst Instrument) (InstrumentRange, error) {
	r, ok := instrumentRanges[inst]
	if !ok {
		return InstrumentRange{}, fmt.Errorf("unknown instrument %q", inst)
	}
	return r, nil
}

// Instruments returns the registered instrument names, sorted.
func Instruments() []string {
	names := make([]string, 0, len(instrumentRanges))
	for inst := range instrumentRanges {
		names = append(names, string(inst))
	}
	sort.Strings(names)
	return names
}
