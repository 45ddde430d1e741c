package notes

import (
	"fmt"
	"math"
)

const (
	// DefaultReferenceA4 is the standard concert pitch in Hz.
	DefaultReferenceA4 = 440.0
	// DefaultMatchToleranceCents is how far off a detection may sit and
	// still count as the expected note.
	DefaultMatchToleranceCents = 50.0
)

// MatchResult reports whether a detected frequency hits an expected note.
type MatchResult struct {
	Matches  bool    `json:"matches"`
	CentsOff float64 `json:"cents_off"`
}

// Converter maps between frequencies, MIDI numbers and note names.
// Conversions use twelve-tone equal temperament around a reference A4.
type Converter struct {
	referenceA4 float64
}

// NewConverter creates a converter at standard concert pitch (A4 = 440 Hz).
func NewConverter() *Converter {
	return &Converter{referenceA4: DefaultReferenceA4}
}

// NewConverterWithReference creates a converter tuned to a custom A4, for
// ensembles playing at e.g. 432 or 442 Hz. Non-positive references fall
// back to 440.
func NewConverterWithReference(a4 float64) *Converter {
	if a4 <= 0 {
		a4 = DefaultReferenceA4
	}
	return &Converter{referenceA4: a4}
}

// FrequencyToMIDI converts a frequency to a fractional MIDI note number
// (A4 = 69). Non-positive frequencies return 0.
func (c *Converter) FrequencyToMIDI(freq float64) float64 {
	if freq <= 0 {
		return 0.0
	}
	return math.Log2(freq/c.referenceA4)*12.0 + 69.0
}

// MIDIToFrequency converts a (possibly fractional) MIDI note number to Hz.
func (c *Converter) MIDIToFrequency(midi float64) float64 {
	return c.referenceA4 * math.Pow(2.0, (midi-69.0)/12.0)
}

// FrequencyToNote snaps a frequency to its nearest equal-temperament note.
func (c *Converter) FrequencyToNote(freq float64) (Note, error) {
	if freq <= 0 {
		return Note{}, fmt.Errorf("invalid frequency %v: must be positive", freq)
	}

	midiFloat := c.FrequencyToMIDI(freq)
	midi := int(math.Round(midiFloat))

	return Note{
		Name:      noteNames[((midi%12)+12)%12],
		Octave:    int(math.Floor(float64(midi)/12.0)) - 1,
		MIDI:      midi,
		Cents:     math.Round((midiFloat - float64(midi)) * 100.0),
		Frequency: freq,
	}, nil
}

// NoteToFrequency returns the frequency of a note name with octave, e.g.
// "A4" -> 440. Octave-less names are rejected: without an octave the
// frequency is ambiguous.
func (c *Converter) NoteToFrequency(name string) (float64, error) {
	parsed, err := ParseNote(name)
	if err != nil {
		return 0.0, err
	}
	if !parsed.HasOctave {
		return 0.0, fmt.Errorf("note %q has no octave: frequency is ambiguous", name)
	}
	return c.MIDIToFrequency(float64(parsed.MIDI())), nil
}

// MatchesExpectedNote reports whether a detected frequency matches an
// expected note name within toleranceCents (<= 0 selects the default of
// 50). CentsOff is folded into (-600, +600], so a detection an octave off
// the expected note still reads as a near-zero cents error; this also
// means octave-less names match their pitch class in any octave. Malformed
// names and non-positive frequencies yield {false, 0}.
func (c *Converter) MatchesExpectedNote(freq float64, expected string, toleranceCents float64) MatchResult {
	if toleranceCents <= 0 {
		toleranceCents = DefaultMatchToleranceCents
	}
	if freq <= 0 {
		return MatchResult{}
	}

	parsed, err := ParseNote(expected)
	if err != nil {
		return MatchResult{}
	}

	// Folding modulo the octave makes the target octave immaterial, so the
	// pitch class alone stands in for the target.
	centsOff := foldCents((c.FrequencyToMIDI(freq) - float64(parsed.PitchClass)) * 100.0)

	return MatchResult{
		Matches:  math.Abs(centsOff) <= toleranceCents,
		CentsOff: centsOff,
	}
}

// GetReferenceA4 returns the reference pitch in Hz.
func (c *Converter) GetReferenceA4() float64 {
	return c.referenceA4
}

// foldCents wraps a cents interval into (-600, +600].
func foldCents(cents float64) float64 {
	folded := math.Mod(cents, 1200.0)
	if folded > 600.0 {
		folded -= 1200.0
	} else if folded <= -600.0 {
		folded += 1200.0
	}
	return folded
}
