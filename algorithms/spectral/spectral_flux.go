package spectral

// SpectralFlux measures frame-to-frame spectral change. Half-wave
// rectification keeps only per-bin energy increases, which is what note
// onsets look like; releases and decays contribute nothing.
//
// References:
//   - Dixon, "Onset Detection Revisited", DAFx 2006
type SpectralFlux struct{}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// Compute returns the rectified flux between two magnitude spectra: the sum
// of positive per-bin increases from previous to current. Mismatched or
// empty spectra yield 0 so callers can feed it unconditionally.
func (sf *SpectralFlux) Compute(current, previous []float64) float64 {
	if len(current) == 0 || len(current) != len(previous) {
		return 0.0
	}

	sum := 0.0
	for i := range current {
		diff := current[i] - previous[i]
		if diff > 0 {
			sum += diff
		}
	}
	return sum
}

// ComputeFrames calculates flux across a spectrogram. The result has one
// value per frame transition (len(spectrogram)-1 values).
func (sf *SpectralFlux) ComputeFrames(spectrogram [][]float64) []float64 {
	if len(spectrogram) < 2 {
		return []float64{}
	}

	flux := make([]float64, len(spectrogram)-1)
	for t := 1; t < len(spectrogram); t++ {
		flux[t-1] = sf.Compute(spectrogram[t], spectrogram[t-1])
	}
	return flux
}
