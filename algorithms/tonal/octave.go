package tonal

import (
	"math"

	"github.com/tonelab/pitchtrack/algorithms/common"
	"github.com/tonelab/pitchtrack/algorithms/notes"
)

const (
	defaultOctaveRatioTolerance = 0.1

	// A correction against a spectrum needs at least this share of the
	// detected bin's energy at the corrected bin.
	octaveEnergyRatio = 0.5
)

// OctaveCorrector undoes the most common pitch detection failure: landing
// an octave (or a fifth-related multiple) away from the note actually
// played. Corrections only fire near an exact ratio, so genuinely mistuned
// playing passes through untouched.
type OctaveCorrector struct {
	converter      *notes.Converter
	ratioTolerance float64
}

// NewOctaveCorrector creates a corrector at standard concert pitch with a
// 10% ratio tolerance.
func NewOctaveCorrector() *OctaveCorrector {
	return NewOctaveCorrectorWithConverter(notes.NewConverter())
}

// NewOctaveCorrectorWithConverter creates a corrector around an existing
// converter, so a custom A4 reference carries through.
func NewOctaveCorrectorWithConverter(converter *notes.Converter) *OctaveCorrector {
	return &OctaveCorrector{
		converter:      converter,
		ratioTolerance: defaultOctaveRatioTolerance,
	}
}

// Correct snaps a detection an octave off the expected note back to the
// played octave: within tolerance of twice the expected frequency the
// detection is halved, within tolerance of half it is doubled. Anything
// else, including malformed or octave-less expected names, passes through
// unchanged.
func (oc *OctaveCorrector) Correct(freq float64, expected string) float64 {
	if freq <= 0 {
		return freq
	}
	expectedFreq, err := oc.converter.NoteToFrequency(expected)
	if err != nil {
		return freq
	}

	if oc.nearRatio(freq, expectedFreq*2.0) {
		return freq / 2.0
	}
	if oc.nearRatio(freq, expectedFreq/2.0) {
		return freq * 2.0
	}
	return freq
}

// CorrectWithSpectrum corrects like Correct, but only when the magnitude
// spectrum corroborates the corrected frequency: the corrected bin must
// carry energy comparable to the detected bin. An empty spectrum falls
// back to Correct. The spectrum holds fftSize/2 bins as produced by
// spectral.SpectrumAnalyzer.
func (oc *OctaveCorrector) CorrectWithSpectrum(freq float64, expected string, spectrum []float64, sampleRate int) float64 {
	corrected := oc.Correct(freq, expected)
	if corrected == freq {
		return freq
	}
	if len(spectrum) == 0 || sampleRate <= 0 {
		return corrected
	}

	fftSize := len(spectrum) * 2
	detectedEnergy := oc.binEnergy(spectrum, freq, fftSize, sampleRate)
	correctedEnergy := oc.binEnergy(spectrum, corrected, fftSize, sampleRate)

	if correctedEnergy >= detectedEnergy*octaveEnergyRatio {
		return corrected
	}
	return freq
}

// CorrectByHistory undoes x2, x1/2, x3 and x1/3 jumps against the median
// of recent detections, for sustained tracking where no expected note is
// known. The history needs at least 3 voiced values to act.
func (oc *OctaveCorrector) CorrectByHistory(freq float64, history []float64) float64 {
	if freq <= 0 {
		return freq
	}

	voiced := make([]float64, 0, len(history))
	for _, pitch := range history {
		if pitch > 0 {
			voiced = append(voiced, pitch)
		}
	}
	if len(voiced) < 3 {
		return freq
	}

	median := common.Median(voiced)
	for _, ratio := range []float64{0.5, 2.0, 1.0 / 3.0, 3.0} {
		if oc.nearRatio(freq, median*ratio) {
			return freq / ratio
		}
	}
	return freq
}

// nearRatio reports whether freq sits within the ratio tolerance of target.
func (oc *OctaveCorrector) nearRatio(freq, target float64) bool {
	if target <= 0 {
		return false
	}
	return math.Abs(freq-target)/target < oc.ratioTolerance
}

// binEnergy is the largest magnitude within one bin of the frequency's
// position, absorbing spectral leakage off the exact bin center.
func (oc *OctaveCorrector) binEnergy(spectrum []float64, freq float64, fftSize, sampleRate int) float64 {
	center := int(math.Round(freq * float64(fftSize) / float64(sampleRate)))
	energy := 0.0
	for bin := center - 1; bin <= center+1; bin++ {
		if bin >= 0 && bin < len(spectrum) && spectrum[bin] > energy {
			energy = spectrum[bin]
		}
	}
	return energy
}
