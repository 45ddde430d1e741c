package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/tonelab/pitchtrack/algorithms/windowing"
)

// Spectrum computation methods.
const (
	// MethodFFT computes bin magnitudes via a real FFT. Fast, and excluding
	// rounding it produces the same numbers as MethodDirect.
	MethodFFT = "fft"
	// MethodDirect correlates the signal against per-bin sine and cosine
	// references. O(n²), kept as the defining reference implementation and
	// for cross-validation.
	MethodDirect = "direct"
)

// SpectrumParams configures magnitude spectrum computation
type SpectrumParams struct {
	SampleRate int    `json:"sample_rate"`
	Method     string `json:"method"`
	WindowType string `json:"window_type"`
}

// DefaultSpectrumParams returns parameters suitable for onset analysis
func DefaultSpectrumParams(sampleRate int) SpectrumParams {
	return SpectrumParams{
		SampleRate: sampleRate,
		Method:     MethodFFT,
		WindowType: windowing.TypeRectangular,
	}
}

// SpectrumAnalyzer computes one-sided magnitude spectra. For a buffer of
// length N the result has N/2 bins and bin k is centered at k*sampleRate/N.
type SpectrumAnalyzer struct {
	params SpectrumParams
	fft    *FFT

	// window and scratch are cached per buffer length
	window  windowing.Window
	scratch []float64
}

// NewSpectrumAnalyzer creates an analyzer with default parameters
func NewSpectrumAnalyzer(sampleRate int) *SpectrumAnalyzer {
	sa, _ := NewSpectrumAnalyzerWithParams(DefaultSpectrumParams(sampleRate))
	return sa
}

// NewSpectrumAnalyzerWithParams creates an analyzer with custom parameters
func NewSpectrumAnalyzerWithParams(params SpectrumParams) (*SpectrumAnalyzer, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", params.SampleRate)
	}

	switch params.Method {
	case MethodFFT, MethodDirect:
	case "":
		params.Method = MethodFFT
	default:
		return nil, fmt.Errorf("unknown spectrum method: %q", params.Method)
	}

	if params.WindowType == "" {
		params.WindowType = windowing.TypeRectangular
	}
	// Validate the window name early; the sized instance is built lazily.
	if _, err := windowing.New(params.WindowType, 16); err != nil {
		return nil, err
	}

	return &SpectrumAnalyzer{
		params: params,
		fft:    NewFFT(),
	}, nil
}

// Compute returns the one-sided magnitude spectrum of the buffer.
func (sa *SpectrumAnalyzer) Compute(buffer []float64) ([]float64, error) {
	magnitudes := make([]float64, len(buffer)/2)
	if err := sa.ComputeInto(buffer, magnitudes); err != nil {
		return nil, err
	}
	return magnitudes, nil
}

// ComputeInto writes the one-sided magnitude spectrum into dst, which must
// have length len(buffer)/2. Callers on hot paths reuse dst across frames.
func (sa *SpectrumAnalyzer) ComputeInto(buffer, dst []float64) error {
	if len(buffer) < 2 {
		return fmt.Errorf("buffer too short for spectrum: %d samples", len(buffer))
	}
	if len(dst) != len(buffer)/2 {
		return fmt.Errorf("destination length %d, want %d", len(dst), len(buffer)/2)
	}

	input, err := sa.windowed(buffer)
	if err != nil {
		return err
	}

	switch sa.params.Method {
	case MethodDirect:
		sa.computeDirect(input, dst)
	default:
		sa.computeFFT(input, dst)
	}
	return nil
}

// windowed applies the configured analysis window into a reusable scratch
// buffer. Rectangular windowing skips the copy entirely.
func (sa *SpectrumAnalyzer) windowed(buffer []float64) ([]float64, error) {
	if sa.params.WindowType == windowing.TypeRectangular {
		return buffer, nil
	}

	if sa.window == nil || sa.window.GetSize() != len(buffer) {
		w, err := windowing.New(sa.params.WindowType, len(buffer))
		if err != nil {
			return nil, err
		}
		sa.window = w
		sa.scratch = make([]float64, len(buffer))
	}

	copy(sa.scratch, buffer)
	if err := sa.window.ApplyInPlace(sa.scratch); err != nil {
		return nil, err
	}
	return sa.scratch, nil
}

func (sa *SpectrumAnalyzer) computeFFT(input []float64, dst []float64) {
	spectrum := sa.fft.Compute(input)
	for k := range dst {
		dst[k] = cmplx.Abs(spectrum[k])
	}
}

func (sa *SpectrumAnalyzer) computeDirect(input []float64, dst []float64) {
	n := len(input)
	step := 2 * math.Pi / float64(n)

	for k := range dst {
		re, im := 0.0, 0.0
		omega := step * float64(k)
		for i, sample := range input {
			angle := omega * float64(i)
			re += sample * math.Cos(angle)
			im -= sample * math.Sin(angle)
		}
		dst[k] = math.Hypot(re, im)
	}
}

// BinFrequency returns the center frequency of a bin for the given FFT size
// (the full buffer length, twice the spectrum length).
func (sa *SpectrumAnalyzer) BinFrequency(bin, fftSize int) float64 {
	if fftSize <= 0 {
		return 0.0
	}
	return float64(bin) * float64(sa.params.SampleRate) / float64(fftSize)
}

// BinFor returns the spectrum bin closest to the given frequency, clamped
// to the one-sided range.
func (sa *SpectrumAnalyzer) BinFor(freq float64, fftSize int) int {
	if fftSize <= 0 || freq <= 0 {
		return 0
	}

	bin := int(math.Round(freq * float64(fftSize) / float64(sa.params.SampleRate)))
	if bin < 0 {
		bin = 0
	}
	if bin > fftSize/2-1 {
		bin = fftSize/2 - 1
	}
	return bin
}

// GetParameters returns the current parameters
func (sa *SpectrumAnalyzer) GetParameters() SpectrumParams {
	return sa.params
}
