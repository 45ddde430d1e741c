package harmonic

import (
	"math"
	"testing"
)

// spectrumWithPeaks builds a flat low-level spectrum with triangular bumps
// at the given bins.
func spectrumWithPeaks(size int, peaks map[int]float64) []float64 {
	spectrum := make([]float64, size)
	for i := range spectrum {
		spectrum[i] = 0.01
	}
	for bin, height := range peaks {
		spectrum[bin] = height
		if bin > 0 {
			spectrum[bin-1] = height * 0.5
		}
		if bin < size-1 {
			spectrum[bin+1] = height * 0.5
		}
	}
	return spectrum
}

func TestDetectPeaks(t *testing.T) {
	sp := NewSpectralPeaks(8000, 0.1, 50.0, 10)

	// fftSize 800: 10 Hz per bin. Peaks at 440 Hz and 880 Hz.
	spectrum := spectrumWithPeaks(400, map[int]float64{44: 1.0, 88: 0.6})
	peaks := sp.DetectPeaks(spectrum, 800)

	if len(peaks) != 2 {
		t.Fatalf("peak count = %d, want 2", len(peaks))
	}
	if peaks[0].BinIndex != 44 || peaks[1].BinIndex != 88 {
		t.Errorf("peaks ordered %d, %d; want 44, 88 (descending magnitude)",
			peaks[0].BinIndex, peaks[1].BinIndex)
	}
	if math.Abs(peaks[0].Frequency-440.0) > 1e-9 {
		t.Errorf("peak frequency = %v, want 440", peaks[0].Frequency)
	}
	if peaks[0].Harmonic != -1 {
		t.Errorf("fresh peak harmonic = %d, want -1", peaks[0].Harmonic)
	}
}

func TestDetectPeaksMinDistance(t *testing.T) {
	// 10 Hz resolution, 100 Hz minimum distance: bins 44 and 50 collide,
	// the higher peak at bin 44 wins.
	sp := NewSpectralPeaks(8000, 0.1, 100.0, 10)
	spectrum := spectrumWithPeaks(400, map[int]float64{44: 1.0, 50: 0.8})

	peaks := sp.DetectPeaks(spectrum, 800)
	if len(peaks) != 1 || peaks[0].BinIndex != 44 {
		t.Errorf("peaks = %+v, want single peak at bin 44", peaks)
	}
}

func TestDetectPeaksMaxPeaks(t *testing.T) {
	sp := NewSpectralPeaks(8000, 0.1, 10.0, 2)
	spectrum := spectrumWithPeaks(400, map[int]float64{40: 1.0, 80: 0.9, 120: 0.8})

	peaks := sp.DetectPeaks(spectrum, 800)
	if len(peaks) != 2 {
		t.Fatalf("peak count = %d, want 2", len(peaks))
	}
	if peaks[0].BinIndex != 40 || peaks[1].BinIndex != 80 {
		t.Errorf("kept bins %d, %d; want the two strongest (40, 80)",
			peaks[0].BinIndex, peaks[1].BinIndex)
	}
}

func TestDetectPeaksEmpty(t *testing.T) {
	sp := NewSpectralPeaks(8000, 0.1, 50.0, 10)
	if peaks := sp.DetectPeaks(nil, 800); len(peaks) != 0 {
		t.Errorf("expected no peaks for empty spectrum, got %d", len(peaks))
	}
}

func TestRefineWithInterpolation(t *testing.T) {
	sp := NewSpectralPeaks(8000, 0.1, 50.0, 10)

	// Asymmetric neighbors pull the refined frequency above the bin center.
	spectrum := make([]float64, 400)
	spectrum[43] = 0.4
	spectrum[44] = 1.0
	spectrum[45] = 0.8

	peaks := []SpectralPeak{{Frequency: 440.0, Magnitude: 1.0, BinIndex: 44, Harmonic: -1}}
	refined := sp.RefineWithInterpolation(spectrum, peaks, 800)

	if refined[0].Frequency <= 440.0 {
		t.Errorf("refined frequency = %v, want > 440", refined[0].Frequency)
	}
	if refined[0].Frequency >= 445.0 {
		t.Errorf("refined frequency = %v, want sub-bin shift below 445", refined[0].Frequency)
	}
	if refined[0].Magnitude < 1.0 {
		t.Errorf("refined magnitude = %v, want >= raw bin value", refined[0].Magnitude)
	}
}

func TestRefineSkipsBoundaryBins(t *testing.T) {
	sp := NewSpectralPeaks(8000, 0.1, 50.0, 10)
	spectrum := []float64{1.0, 0.5, 0.2}

	peaks := []SpectralPeak{{Frequency: 0.0, Magnitude: 1.0, BinIndex: 0, Harmonic: -1}}
	refined := sp.RefineWithInterpolation(spectrum, peaks, 800)

	if refined[0] != peaks[0] {
		t.Errorf("boundary peak changed: %+v", refined[0])
	}
}

func TestAssignHarmonics(t *testing.T) {
	sp := NewSpectralPeaks(8000, 0.1, 50.0, 10)

	peaks := []SpectralPeak{
		{Frequency: 441.0, Harmonic: -1},
		{Frequency: 879.0, Harmonic: -1},
		{Frequency: 1323.0, Harmonic: -1},
		{Frequency: 600.0, Harmonic: -1},
	}
	assigned := sp.AssignHarmonics(peaks, 440.0, 0.03)

	wantHarmonics := []int{0, 1, 2, -1}
	for i, want := range wantHarmonics {
		if assigned[i].Harmonic != want {
			t.Errorf("peak at %v Hz: harmonic = %d, want %d",
				assigned[i].Frequency, assigned[i].Harmonic, want)
		}
	}

	// Input slice is untouched.
	if peaks[0].Harmonic != -1 {
		t.Error("AssignHarmonics mutated its input")
	}
}

func TestFilterHarmonicPeaks(t *testing.T) {
	sp := NewSpectralPeaks(8000, 0.1, 50.0, 10)

	peaks := []SpectralPeak{
		{Frequency: 879.0, Harmonic: 1},
		{Frequency: 600.0, Harmonic: -1},
		{Frequency: 441.0, Harmonic: 0},
	}
	filtered := sp.FilterHarmonicPeaks(peaks)

	if len(filtered) != 2 {
		t.Fatalf("filtered count = %d, want 2", len(filtered))
	}
	if filtered[0].Harmonic != 0 || filtered[1].Harmonic != 1 {
		t.Errorf("filtered order = %d, %d; want ascending harmonic",
			filtered[0].Harmonic, filtered[1].Harmonic)
	}
}
