package harmonic

import (
	"github.com/tonelab/pitchtrack/algorithms/spectral"
	"github.com/tonelab/pitchtrack/algorithms/windowing"
)

// DefaultNumHarmonics is a good balance of accuracy and computation for
// instrument and voice fundamentals.
const DefaultNumHarmonics = 5

// HarmonicProduct estimates fundamental frequency with the Harmonic Product
// Spectrum: the power spectrum is multiplied with downsampled copies of
// itself so that energy at integer multiples of the true fundamental piles
// up on the fundamental bin.
//
// References:
//   - Noll (1969). "Pitch determination of human speech by the harmonic
//     product spectrum"
type HarmonicProduct struct {
	sampleRate   int
	numHarmonics int
	minF0        float64
	maxF0        float64
	spectrum     *spectral.SpectrumAnalyzer
	window       windowing.Window
}

// NewHarmonicProduct creates a harmonic product spectrum analyzer that
// searches for fundamentals in [minF0, maxF0].
func NewHarmonicProduct(sampleRate int, numHarmonics int, minF0, maxF0 float64) *HarmonicProduct {
	return &HarmonicProduct{
		sampleRate:   sampleRate,
		numHarmonics: numHarmonics,
		minF0:        minF0,
		maxF0:        maxF0,
		spectrum:     spectral.NewSpectrumAnalyzer(sampleRate),
	}
}

// ComputeHPS computes the harmonic product spectrum from a magnitude
// spectrum. Bins that cannot hold all requested harmonics below Nyquist
// come out zero.
func (hp *HarmonicProduct) ComputeHPS(magnitudeSpectrum []float64) []float64 {
	if len(magnitudeSpectrum) == 0 {
		return []float64{}
	}

	power := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		power[i] = mag * mag
	}

	hps := make([]float64, len(power))
	copy(hps, power)

	for harmonic := 2; harmonic <= hp.numHarmonics; harmonic++ {
		limit := len(power) / harmonic
		for i := 0; i < limit; i++ {
			hps[i] *= power[i*harmonic]
		}
		for i := limit; i < len(hps); i++ {
			hps[i] = 0.0
		}
	}

	return hps
}

// EstimateF0 estimates the fundamental frequency of a signal buffer.
// Returns 0 when no fundamental lands in the configured range.
func (hp *HarmonicProduct) EstimateF0(signal []float64) float64 {
	f0, _ := hp.estimateF0(signal)
	return f0
}

// EstimateF0WithConfidence estimates the fundamental and a confidence in
// [0, 1]: the share of spectral energy explained by the harmonic series.
func (hp *HarmonicProduct) EstimateF0WithConfidence(signal []float64) (float64, float64) {
	f0, magnitudeSpec := hp.estimateF0(signal)
	if f0 == 0 {
		return 0.0, 0.0
	}
	return f0, hp.ComputeHarmonicity(magnitudeSpec, f0, len(signal))
}

func (hp *HarmonicProduct) estimateF0(signal []float64) (float64, []float64) {
	if len(signal) < 2 {
		return 0.0, nil
	}

	magnitudeSpec, err := hp.magnitudeSpectrum(signal)
	if err != nil {
		return 0.0, nil
	}

	hps := hp.ComputeHPS(magnitudeSpec)
	f0Bin := hp.findF0Peak(hps, len(signal))
	if f0Bin == 0 {
		return 0.0, magnitudeSpec
	}

	freqResolution := float64(hp.sampleRate) / float64(len(signal))
	return float64(f0Bin) * freqResolution, magnitudeSpec
}

// magnitudeSpectrum computes the Hann-windowed magnitude spectrum of the
// signal, rebuilding the cached window when the buffer size changes.
func (hp *HarmonicProduct) magnitudeSpectrum(signal []float64) ([]float64, error) {
	if hp.window == nil || hp.window.GetSize() != len(signal) {
		window, err := windowing.New(windowing.TypeHann, len(signal))
		if err != nil {
			return nil, err
		}
		hp.window = window
	}
	return hp.spectrum.Compute(hp.window.Apply(signal))
}

// findF0Peak returns the strongest HPS bin inside the configured F0 range,
// or 0 when the range holds no energy.
func (hp *HarmonicProduct) findF0Peak(hps []float64, signalLength int) int {
	freqResolution := float64(hp.sampleRate) / float64(signalLength)

	minBin := max(int(hp.minF0/freqResolution), 1)
	maxBin := min(int(hp.maxF0/freqResolution), len(hps)-1)

	bestBin := 0
	bestValue := 0.0
	for bin := minBin; bin <= maxBin; bin++ {
		if hps[bin] > bestValue {
			bestValue = hps[bin]
			bestBin = bin
		}
	}

	return bestBin
}

// ComputeHarmonicStrength samples the magnitude spectrum at each harmonic
// of f0Freq, interpolating between bins.
func (hp *HarmonicProduct) ComputeHarmonicStrength(magnitudeSpectrum []float64, f0Freq float64, signalLength int) []float64 {
	if len(magnitudeSpectrum) == 0 || f0Freq <= 0 {
		return []float64{}
	}

	freqResolution := float64(hp.sampleRate) / float64(signalLength)
	strengths := make([]float64, hp.numHarmonics)

	for harmonic := 1; harmonic <= hp.numHarmonics; harmonic++ {
		harmonicBin := f0Freq * float64(harmonic) / freqResolution
		if harmonicBin >= float64(len(magnitudeSpectrum)) {
			break
		}
		strengths[harmonic-1] = hp.interpolateSpectrum(magnitudeSpectrum, harmonicBin)
	}

	return strengths
}

// ComputeHarmonicity is the ratio of energy at the harmonics of f0Freq to
// total spectral energy.
func (hp *HarmonicProduct) ComputeHarmonicity(magnitudeSpectrum []float64, f0Freq float64, signalLength int) float64 {
	strengths := hp.ComputeHarmonicStrength(magnitudeSpectrum, f0Freq, signalLength)
	if len(strengths) == 0 {
		return 0.0
	}

	harmonicEnergy := 0.0
	for _, strength := range strengths {
		harmonicEnergy += strength * strength
	}

	totalEnergy := 0.0
	for _, mag := range magnitudeSpectrum {
		totalEnergy += mag * mag
	}
	if totalEnergy == 0 {
		return 0.0
	}

	return harmonicEnergy / totalEnergy
}

// interpolateSpectrum linearly interpolates the spectrum at a fractional
// bin index.
func (hp *HarmonicProduct) interpolateSpectrum(spectrum []float64, index float64) float64 {
	if index < 0 || index >= float64(len(spectrum)-1) {
		return 0.0
	}

	leftBin := int(index)
	frac := index - float64(leftBin)
	return spectrum[leftBin] + frac*(spectrum[leftBin+1]-spectrum[leftBin])
}

// GetOptimalNumHarmonics returns a recommended harmonic count for the
// configured F0 range at this sample rate.
func (hp *HarmonicProduct) GetOptimalNumHarmonics() int {
	if hp.minF0 <= 0 {
		return DefaultNumHarmonics
	}

	nyquist := float64(hp.sampleRate) / 2.0
	maxHarmonics := int(nyquist / hp.minF0)

	if maxHarmonics > 7 {
		return DefaultNumHarmonics
	} else if maxHarmonics > 3 {
		return maxHarmonics - 1
	}
	return 2
}
