// Package notes converts between frequencies, MIDI numbers and note names
// in twelve-tone equal temperament.
package notes

import (
	"fmt"
	"strconv"
	"strings"
)

// noteNames spells the twelve pitch classes with sharps, starting at C.
var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is a frequency snapped to its nearest equal-temperament note.
type Note struct {
	Name   string `json:"name"`
	Octave int    `json:"octave"`
	MIDI   int    `json:"midi"`
	// Cents is the signed deviation from the named note, rounded to whole
	// cents. Positive means sharp.
	Cents     float64 `json:"cents"`
	Frequency float64 `json:"frequency"`
}

// String renders the note in scientific pitch notation, e.g. "A4".
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// ParsedNote is a note name broken into pitch class and octave.
type ParsedNote struct {
	PitchClass int // 0 = C ... 11 = B
	Octave     int // meaningful only when HasOctave
	HasOctave  bool
}

// MIDI returns the MIDI note number. Valid only when HasOctave.
func (p ParsedNote) MIDI() int {
	return (p.Octave+1)*12 + p.PitchClass
}

// ParseNote parses a note name of the form letter, optional sharp, optional
// octave: "A", "C#", "A4", "C#3", "C-1". Flat spellings are not recognized;
// spell them as the sharp of the note below.
func ParseNote(name string) (ParsedNote, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(name))
	if trimmed == "" {
		return ParsedNote{}, fmt.Errorf("empty note name")
	}

	var pitchClass int
	switch trimmed[0] {
	case 'C':
		pitchClass = 0
	case 'D':
		pitchClass = 2
	case 'E':
		pitchClass = 4
	case 'F':
		pitchClass = 5
	case 'G':
		pitchClass = 7
	case 'A':
		pitchClass = 9
	case 'B':
		pitchClass = 11
	default:
		return ParsedNote{}, fmt.Errorf("invalid note name %q: expected letter A-G", name)
	}

	rest := trimmed[1:]
	wrapped := false
	if strings.HasPrefix(rest, "#") {
		pitchClass++
		rest = rest[1:]
		// B# is the C of the next octave.
		if pitchClass == 12 {
			pitchClass = 0
			wrapped = true
		}
	}

	if rest == "" {
		return ParsedNote{PitchClass: pitchClass}, nil
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return ParsedNote{}, fmt.Errorf("invalid octave in note name %q", name)
	}
	if wrapped {
		octave++
	}

	return ParsedNote{PitchClass: pitchClass, Octave: octave, HasOctave: true}, nil
}
