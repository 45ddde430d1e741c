package tonal

import (
	"fmt"

	"github.com/tonelab/pitchtrack/algorithms/common"
)

// YINParams contains parameters for YIN pitch detection
type YINParams struct {
	SampleRate int `json:"sample_rate"`

	// Frequency range constraints
	MinFreq float64 `json:"min_freq"` // Minimum frequency (Hz)
	MaxFreq float64 `json:"max_freq"` // Maximum frequency (Hz)

	// Threshold on the cumulative mean normalized difference (0.1-0.5)
	Threshold float64 `json:"threshold"`
}

// DefaultYINParams returns parameters covering instrument and voice
// fundamentals from a low bass to a high soprano.
func DefaultYINParams(sampleRate int) YINParams {
	return YINParams{
		SampleRate: sampleRate,
		MinFreq:    80.0,
		MaxFreq:    1000.0,
		Threshold:  0.15,
	}
}

// YINResult is a single pitch estimate.
type YINResult struct {
	Frequency float64 `json:"frequency"` // Fundamental frequency (Hz)
	Period    float64 `json:"period"`    // Period in samples, fractional after refinement
	// Confidence is 1 minus the normalized difference at the detected lag,
	// clamped to [0, 1]. Clean periodic input scores close to 1.
	Confidence float64 `json:"confidence"`
}

// YINDetector implements the YIN fundamental frequency estimator.
//
// References:
//   - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency
//     estimator for speech and music"
type YINDetector struct {
	params YINParams

	// Scratch buffers reused across calls
	diff []float64
	cmnd []float64
}

// NewYINDetector creates a YIN detector with default parameters.
func NewYINDetector(sampleRate int) *YINDetector {
	return NewYINDetectorWithParams(DefaultYINParams(sampleRate))
}

// NewYINDetectorWithParams creates a YIN detector with custom parameters.
func NewYINDetectorWithParams(params YINParams) *YINDetector {
	return &YINDetector{params: params}
}

// Detect estimates the fundamental frequency of one audio buffer.
//
// A nil result with nil error means the buffer holds no detectable pitch:
// either nothing periodic crossed the threshold, or the buffer is too short
// to search the configured frequency range. Empty buffers and non-positive
// sample rates are programmer errors.
func (yd *YINDetector) Detect(buffer []float64) (*YINResult, error) {
	if len(buffer) == 0 {
		return nil, fmt.Errorf("empty audio buffer")
	}
	if yd.params.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", yd.params.SampleRate)
	}

	halfLen := len(buffer) / 2
	sampleRate := float64(yd.params.SampleRate)

	// Lag search range from the frequency range. The longest lag must fit
	// in half the buffer so every difference term has data.
	maxLag := min(int(sampleRate/yd.params.MinFreq), halfLen)
	minLag := max(int(sampleRate/yd.params.MaxFreq), 2)
	if maxLag <= minLag {
		return nil, nil
	}

	diff, cmnd := yd.scratch(maxLag)

	// Squared difference function over the searched lags.
	for tau := minLag; tau < maxLag; tau++ {
		sum := 0.0
		for j := 0; j < halfLen; j++ {
			delta := buffer[j] - buffer[j+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	// Cumulative mean normalized difference. Each value is the difference
	// at that lag divided by the running average over the searched lags so
	// far; a silent buffer pins the function to 1 instead of dividing by
	// zero.
	cmnd[minLag] = 1.0
	runningSum := 0.0
	for tau := minLag + 1; tau < maxLag; tau++ {
		runningSum += diff[tau]
		if runningSum < 1e-12 {
			cmnd[tau] = 1.0
			continue
		}
		cmnd[tau] = diff[tau] * float64(tau-minLag) / runningSum
	}

	// First lag under the threshold, then follow the dip to its bottom.
	bestLag := -1
	for tau := minLag; tau < maxLag; tau++ {
		if cmnd[tau] < yd.params.Threshold {
			for tau+1 < maxLag && cmnd[tau+1] < cmnd[tau] {
				tau++
			}
			bestLag = tau
			break
		}
	}
	if bestLag < 0 {
		return nil, nil
	}

	refinedLag := refineLag(cmnd, bestLag, minLag, maxLag)

	return &YINResult{
		Frequency:  sampleRate / refinedLag,
		Period:     refinedLag,
		Confidence: common.Clamp(1.0-cmnd[bestLag], 0.0, 1.0),
	}, nil
}

// refineLag sharpens an integer lag to sub-sample accuracy by fitting a
// parabola through the normalized difference at the lag and its neighbors.
// Lags at the edge of the searched range are returned as-is.
func refineLag(cmnd []float64, lag, minLag, maxLag int) float64 {
	if lag <= minLag || lag >= maxLag-1 {
		return float64(lag)
	}

	y1 := cmnd[lag-1]
	y2 := cmnd[lag]
	y3 := cmnd[lag+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2
	if a == 0 {
		return float64(lag)
	}

	offset := -b / (2 * a)
	if offset <= -1 || offset >= 1 {
		return float64(lag)
	}
	return float64(lag) + offset
}

// scratch returns the difference and CMND buffers sized for the given lag
// range, reusing prior allocations when they fit.
func (yd *YINDetector) scratch(maxLag int) ([]float64, []float64) {
	if cap(yd.diff) < maxLag {
		yd.diff = make([]float64, maxLag)
		yd.cmnd = make([]float64, maxLag)
	}
	return yd.diff[:maxLag], yd.cmnd[:maxLag]
}

// GetParameters returns the current parameters.
func (yd *YINDetector) GetParameters() YINParams {
	return yd.params
}

// SetParameters updates the detector parameters.
func (yd *YINDetector) SetParameters(params YINParams) {
	yd.params = params
}
