package spectral

import (
	"math"
)

// SpectralFlatness computes spectral flatness (Wiener entropy). Pitched
// notes concentrate energy in harmonic peaks and score low; broadband noise
// scores near 1. The tracker uses it to skip pitch estimation on frames
// that are noise-like.
type SpectralFlatness struct {
	minThreshold float64 // Minimum value to avoid log(0)
}

// NewSpectralFlatness creates a new spectral flatness calculator
func NewSpectralFlatness() *SpectralFlatness {
	return &SpectralFlatness{
		minThreshold: 1e-10, // Avoid log(0) issues
	}
}

// NewSpectralFlatnessWithThreshold creates calculator with custom threshold
func NewSpectralFlatnessWithThreshold(threshold float64) *SpectralFlatness {
	return &SpectralFlatness{
		minThreshold: threshold,
	}
}

// Compute calculates spectral flatness for a single magnitude spectrum.
// Returns ratio of geometric mean to arithmetic mean (0-1 range).
// Lower values (0.0-0.3) indicate tonal content, higher values (0.7-1.0)
// indicate noise-like content.
func (sf *SpectralFlatness) Compute(magnitudeSpectrum []float64) float64 {
	if len(magnitudeSpectrum) == 0 {
		return 0.0
	}

	// Geometric mean in log domain for numerical stability
	logSum := 0.0
	validCount := 0

	for _, magnitude := range magnitudeSpectrum {
		if magnitude > sf.minThreshold {
			logSum += math.Log(magnitude)
			validCount++
		}
	}

	if validCount == 0 {
		return 0.0
	}

	geometricMean := math.Exp(logSum / float64(validCount))

	arithmeticMean := 0.0
	for _, magnitude := range magnitudeSpectrum {
		arithmeticMean += magnitude
	}
	arithmeticMean /= float64(len(magnitudeSpectrum))

	if arithmeticMean <= sf.minThreshold {
		return 0.0
	}

	flatness := geometricMean / arithmeticMean

	// Ensure result is in valid range [0, 1]
	if flatness > 1.0 {
		flatness = 1.0
	}

	return flatness
}

// ComputeFrames processes multiple frames
func (sf *SpectralFlatness) ComputeFrames(spectrogram [][]float64) []float64 {
	if len(spectrogram) == 0 {
		return []float64{}
	}

	flatness := make([]float64, len(spectrogram))
	for t, magnitudeSpectrum := range spectrogram {
		flatness[t] = sf.Compute(magnitudeSpectrum)
	}

	return flatness
}

// ComputeBandLimited calculates spectral flatness for a bin range, used to
// judge tonality inside an instrument's pass-band only.
func (sf *SpectralFlatness) ComputeBandLimited(magnitudeSpectrum []float64, startBin, endBin int) float64 {
	if startBin < 0 || endBin >= len(magnitudeSpectrum) || startBin >= endBin {
		return 0.0
	}

	band := magnitudeSpectrum[startBin : endBin+1]
	return sf.Compute(band)
}

// IsContentTonal determines if content is tonal based on flatness threshold.
// Returns true for pitched material, false for noise.
func (sf *SpectralFlatness) IsContentTonal(flatness float64, threshold float64) bool {
	return flatness < threshold
}
