package harmonic

import (
	"math"
	"sort"
)

// SpectralPeak is a detected peak in a magnitude spectrum.
type SpectralPeak struct {
	Frequency float64 `json:"frequency"`
	Magnitude float64 `json:"magnitude"`
	BinIndex  int     `json:"bin_index"`
	// Harmonic is the 0-indexed harmonic number relative to an assigned
	// fundamental (0 = fundamental, 1 = 2nd harmonic). -1 when unassigned.
	Harmonic int `json:"harmonic"`
}

// SpectralPeaks detects and labels peaks in magnitude spectra.
type SpectralPeaks struct {
	sampleRate      int
	minPeakHeight   float64
	minPeakDistance float64 // Hz
	maxPeaks        int
}

// NewSpectralPeaks creates a peak detector. minPeakDistance is the closest
// two reported peaks may sit, in Hz; when two candidates collide the higher
// one wins.
func NewSpectralPeaks(sampleRate int, minPeakHeight, minPeakDistance float64, maxPeaks int) *SpectralPeaks {
	return &SpectralPeaks{
		sampleRate:      sampleRate,
		minPeakHeight:   minPeakHeight,
		minPeakDistance: minPeakDistance,
		maxPeaks:        maxPeaks,
	}
}

// DetectPeaks finds local maxima above the height threshold in a magnitude
// spectrum produced from an FFT of fftSize samples. Peaks are returned in
// descending magnitude order, at most maxPeaks of them.
func (sp *SpectralPeaks) DetectPeaks(magnitudeSpectrum []float64, fftSize int) []SpectralPeak {
	if len(magnitudeSpectrum) == 0 || fftSize <= 0 {
		return []SpectralPeak{}
	}

	freqResolution := float64(sp.sampleRate) / float64(fftSize)
	minDistanceBins := max(int(sp.minPeakDistance/freqResolution), 1)

	var candidates []SpectralPeak
	for i := 1; i < len(magnitudeSpectrum)-1; i++ {
		if magnitudeSpectrum[i] > magnitudeSpectrum[i-1] &&
			magnitudeSpectrum[i] > magnitudeSpectrum[i+1] &&
			magnitudeSpectrum[i] >= sp.minPeakHeight {
			candidates = append(candidates, SpectralPeak{
				Frequency: float64(i) * freqResolution,
				Magnitude: magnitudeSpectrum[i],
				BinIndex:  i,
				Harmonic:  -1,
			})
		}
	}

	// Strongest first, then drop any candidate crowding an accepted peak.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Magnitude > candidates[j].Magnitude
	})

	peaks := make([]SpectralPeak, 0, min(len(candidates), sp.maxPeaks))
	for _, candidate := range candidates {
		if len(peaks) >= sp.maxPeaks {
			break
		}
		crowded := false
		for _, accepted := range peaks {
			if abs(candidate.BinIndex-accepted.BinIndex) < minDistanceBins {
				crowded = true
				break
			}
		}
		if !crowded {
			peaks = append(peaks, candidate)
		}
	}

	return peaks
}

// RefineWithInterpolation refines peak frequencies and magnitudes to sub-bin
// accuracy with parabolic interpolation over the three bins around each peak.
func (sp *SpectralPeaks) RefineWithInterpolation(magnitudeSpectrum []float64, peaks []SpectralPeak, fftSize int) []SpectralPeak {
	freqResolution := float64(sp.sampleRate) / float64(fftSize)
	refined := make([]SpectralPeak, len(peaks))

	for i, peak := range peaks {
		refined[i] = peak
		binIdx := peak.BinIndex
		if binIdx <= 0 || binIdx >= len(magnitudeSpectrum)-1 {
			continue
		}

		y1 := magnitudeSpectrum[binIdx-1]
		y2 := magnitudeSpectrum[binIdx]
		y3 := magnitudeSpectrum[binIdx+1]

		denom := 2.0 * (2.0*y2 - y1 - y3)
		if math.Abs(denom) <= 1e-10 {
			continue
		}
		offset := (y3 - y1) / denom

		a := 0.5 * (y1 - 2.0*y2 + y3)
		b := 0.5 * (y3 - y1)
		refined[i].Frequency = (float64(binIdx) + offset) * freqResolution
		refined[i].Magnitude = y2 + a*offset*offset + b*offset
	}

	return refined
}

// AssignHarmonics labels each peak with the harmonic number of f0 it sits
// closest to, within the relative tolerance. Peaks matching no harmonic keep
// Harmonic == -1.
func (sp *SpectralPeaks) AssignHarmonics(peaks []SpectralPeak, f0 float64, tolerance float64) []SpectralPeak {
	assigned := make([]SpectralPeak, len(peaks))
	copy(assigned, peaks)

	if f0 <= 0 {
		return assigned
	}

	for i := range assigned {
		bestHarmonic := -1
		bestError := math.Inf(1)

		for harmonic := 1; harmonic <= 20; harmonic++ {
			expectedFreq := f0 * float64(harmonic)
			absError := math.Abs(assigned[i].Frequency - expectedFreq)
			if absError/expectedFreq < tolerance && absError < bestError {
				bestError = absError
				bestHarmonic = harmonic
			}
		}

		if bestHarmonic > 0 {
			assigned[i].Harmonic = bestHarmonic - 1
		}
	}

	return assigned
}

// FilterHarmonicPeaks keeps only peaks assigned to a harmonic, ordered by
// harmonic number.
func (sp *SpectralPeaks) FilterHarmonicPeaks(peaks []SpectralPeak) []SpectralPeak {
	var harmonicPeaks []SpectralPeak
	for _, peak := range peaks {
		if peak.Harmonic >= 0 {
			harmonicPeaks = append(harmonicPeaks, peak)
		}
	}

	sort.Slice(harmonicPeaks, func(i, j int) bool {
		return harmonicPeaks[i].Harmonic < harmonicPeaks[j].Harmonic
	})

	return harmonicPeaks
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
