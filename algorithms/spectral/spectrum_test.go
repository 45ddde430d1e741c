package spectral

import (
	"math"
	"testing"

	"github.com/tonelab/pitchtrack/algorithms/windowing"
	"github.com/tonelab/pitchtrack/internal/testutil"
)

func peakBin(spectrum []float64) int {
	best := 0
	for i, mag := range spectrum {
		if mag > spectrum[best] {
			best = i
		}
	}
	return best
}

func TestComputeSinePeakBin(t *testing.T) {
	sa := NewSpectrumAnalyzer(44100)
	signal := testutil.Sine(440, 44100, 1.0, 2048)

	spectrum, err := sa.Compute(signal)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(spectrum) != 1024 {
		t.Fatalf("spectrum length: got %d, want 1024", len(spectrum))
	}
	testutil.RequireFinite(t, spectrum)

	// 440 Hz falls between bins 20 and 21 at this size; the peak must land
	// on one of them.
	peak := peakBin(spectrum)
	if peak < 20 || peak > 21 {
		t.Errorf("peak bin: got %d (%.1f Hz), want 20 or 21", peak, sa.BinFrequency(peak, 2048))
	}
}

func TestDirectMatchesFFT(t *testing.T) {
	fftSA := NewSpectrumAnalyzer(8000)
	directSA, err := NewSpectrumAnalyzerWithParams(SpectrumParams{
		SampleRate: 8000,
		Method:     MethodDirect,
	})
	if err != nil {
		t.Fatalf("NewSpectrumAnalyzerWithParams: %v", err)
	}

	signal := testutil.HarmonicSine(250, 8000, []float64{1.0, 0.5, 0.25}, 256)

	viaFFT, err := fftSA.Compute(signal)
	if err != nil {
		t.Fatalf("fft Compute: %v", err)
	}
	viaDirect, err := directSA.Compute(signal)
	if err != nil {
		t.Fatalf("direct Compute: %v", err)
	}

	diff, err := testutil.MaxAbsDiff(viaFFT, viaDirect)
	if err != nil {
		t.Fatal(err)
	}
	if diff > 1e-6 {
		t.Errorf("methods disagree: max abs diff %g", diff)
	}
}

func TestComputeNonPowerOfTwo(t *testing.T) {
	sa := NewSpectrumAnalyzer(8000)
	signal := testutil.Sine(500, 8000, 1.0, 300)

	spectrum, err := sa.Compute(signal)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(spectrum) != 150 {
		t.Errorf("spectrum length: got %d, want 150", len(spectrum))
	}
	testutil.RequireFinite(t, spectrum)
}

func TestComputeErrors(t *testing.T) {
	sa := NewSpectrumAnalyzer(44100)

	if _, err := sa.Compute(nil); err == nil {
		t.Error("empty buffer should error")
	}
	if _, err := sa.Compute([]float64{1}); err == nil {
		t.Error("single sample should error")
	}

	dst := make([]float64, 3)
	if err := sa.ComputeInto(make([]float64, 8), dst); err == nil {
		t.Error("wrong destination length should error")
	}
}

func TestNewSpectrumAnalyzerWithParamsRejects(t *testing.T) {
	if _, err := NewSpectrumAnalyzerWithParams(SpectrumParams{SampleRate: 0}); err == nil {
		t.Error("zero sample rate should error")
	}
	if _, err := NewSpectrumAnalyzerWithParams(SpectrumParams{SampleRate: 44100, Method: "wavelet"}); err == nil {
		t.Error("unknown method should error")
	}
	if _, err := NewSpectrumAnalyzerWithParams(SpectrumParams{SampleRate: 44100, WindowType: "gaussian"}); err == nil {
		t.Error("unknown window should error")
	}
}

func TestWindowedSpectrum(t *testing.T) {
	sa, err := NewSpectrumAnalyzerWithParams(SpectrumParams{
		SampleRate: 44100,
		Method:     MethodFFT,
		WindowType: windowing.TypeHann,
	})
	if err != nil {
		t.Fatalf("NewSpectrumAnalyzerWithParams: %v", err)
	}

	signal := testutil.Sine(440, 44100, 1.0, 2048)
	before := signal[100]

	spectrum, err := sa.Compute(signal)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	testutil.RequireFinite(t, spectrum)

	peak := peakBin(spectrum)
	if peak < 19 || peak > 22 {
		t.Errorf("windowed peak bin: got %d, want near 20", peak)
	}

	// Windowing must not mutate the caller's buffer.
	if signal[100] != before {
		t.Error("Compute mutated the input buffer")
	}
}

func TestBinMapping(t *testing.T) {
	sa := NewSpectrumAnalyzer(44100)

	if got := sa.BinFrequency(20, 2048); math.Abs(got-430.664) > 0.01 {
		t.Errorf("BinFrequency(20): got %g", got)
	}
	if got := sa.BinFor(440, 2048); got != 20 {
		t.Errorf("BinFor(440): got %d, want 20", got)
	}
	if got := sa.BinFor(-1, 2048); got != 0 {
		t.Errorf("BinFor(-1): got %d, want 0", got)
	}

	// Frequencies above Nyquist clamp to the top bin.
	if got := sa.BinFor(1e6, 2048); got != 1023 {
		t.Errorf("BinFor above Nyquist: got %d, want 1023", got)
	}
}

func TestSpectralFluxContract(t *testing.T) {
	sf := NewSpectralFlux()

	tests := []struct {
		name              string
		current, previous []float64
		want              float64
	}{
		{"all increases", []float64{3, 2}, []float64{1, 1}, 3},
		{"decreases ignored", []float64{3, 0}, []float64{1, 2}, 2},
		{"no change", []float64{1, 1}, []float64{1, 1}, 0},
		{"length mismatch", []float64{1, 2, 3}, []float64{1, 2}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sf.Compute(tt.current, tt.previous); got != tt.want {
				t.Errorf("Compute = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestSpectralFluxFrames(t *testing.T) {
	sf := NewSpectralFlux()
	spectrogram := [][]float64{
		{1, 1},
		{2, 1},
		{2, 5},
	}

	flux := sf.ComputeFrames(spectrogram)
	testutil.RequireSliceNear(t, flux, []float64{1, 4}, 1e-12)

	if got := sf.ComputeFrames(spectrogram[:1]); len(got) != 0 {
		t.Errorf("single frame flux: got %d values, want 0", len(got))
	}
}

func TestSpectralFluxOnOnset(t *testing.T) {
	sa := NewSpectrumAnalyzer(44100)
	sf := NewSpectralFlux()

	quiet := testutil.Silence(2048)
	loud := testutil.Sine(440, 44100, 0.8, 2048)

	quietSpec, _ := sa.Compute(quiet)
	loudSpec, _ := sa.Compute(loud)

	rising := sf.Compute(loudSpec, quietSpec)
	falling := sf.Compute(quietSpec, loudSpec)

	if rising <= 0 {
		t.Errorf("flux into a note: got %g, want > 0", rising)
	}
	if falling != 0 {
		t.Errorf("flux into silence: got %g, want 0", falling)
	}
}

func TestSpectralFlatness(t *testing.T) {
	sa := NewSpectrumAnalyzer(44100)
	sfl := NewSpectralFlatness()

	sineSpec, _ := sa.Compute(testutil.Sine(440, 44100, 1.0, 2048))
	noiseSpec, _ := sa.Compute(testutil.Noise(42, 1.0, 2048))

	tonal := sfl.Compute(sineSpec)
	noisy := sfl.Compute(noiseSpec)

	if tonal >= noisy {
		t.Errorf("flatness ordering: sine %g should be below noise %g", tonal, noisy)
	}
	if tonal > 0.5 {
		t.Errorf("sine flatness: got %g, want < 0.5", tonal)
	}
	if noisy < 0.5 {
		t.Errorf("noise flatness: got %g, want > 0.5", noisy)
	}

	if !sfl.IsContentTonal(tonal, 0.5) {
		t.Error("sine should be classified tonal")
	}
	if sfl.IsContentTonal(0.9, 0.5) {
		t.Error("flatness 0.9 should not be tonal")
	}

	if got := sfl.Compute(nil); got != 0 {
		t.Errorf("empty spectrum flatness: got %g, want 0", got)
	}
}

func TestSpectralFlatnessBandLimited(t *testing.T) {
	sfl := NewSpectralFlatness()
	spectrum := []float64{0.01, 0.01, 5, 5, 5, 0.01, 0.01, 0.01}

	full := sfl.Compute(spectrum)
	band := sfl.ComputeBandLimited(spectrum, 2, 4)

	// The uniform band scores higher than the peaky full spectrum.
	if band <= full {
		t.Errorf("band-limited flatness %g should exceed full-spectrum %g", band, full)
	}
	if got := sfl.ComputeBandLimited(spectrum, 5, 2); got != 0 {
		t.Errorf("inverted band: got %g, want 0", got)
	}
}
